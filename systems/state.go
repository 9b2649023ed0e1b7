package systems

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/fibro/components"
)

// ErrStateMismatch is returned when an imported State is missing a field or has the wrong shape.
var ErrStateMismatch = errors.New("state mismatch")

// State is a complete field-for-field snapshot of one store, buffers included.
type State struct {
	Count   int32                        `msgpack:"count"`
	Vec2    map[string][]components.Vec2 `msgpack:"vec2"`
	Float32 map[string][]float32         `msgpack:"float32"`
	Int32   map[string][]int32           `msgpack:"int32"`
	Bool    map[string][]bool            `msgpack:"bool"`
}

// NewState returns an empty state with all maps allocated.
func NewState() *State {
	return &State{
		Vec2:    make(map[string][]components.Vec2),
		Float32: make(map[string][]float32),
		Int32:   make(map[string][]int32),
		Bool:    make(map[string][]bool),
	}
}

func checkField[T any](m map[string][]T, name string, n int) error {
	v, ok := m[name]
	if !ok {
		return fmt.Errorf("%w: missing field %q", ErrStateMismatch, name)
	}
	if len(v) != n {
		return fmt.Errorf("%w: field %q has length %d, want %d", ErrStateMismatch, name, len(v), n)
	}
	return nil
}

func exportField[T any](m map[string][]T, name string, v []T) {
	m[name] = append([]T(nil), v...)
}
