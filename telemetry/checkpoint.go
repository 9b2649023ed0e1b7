package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pthm-cable/fibro/systems"
)

// CheckpointVersion is incremented when the on-disk layout changes.
const CheckpointVersion = 1

// ErrCheckpointVersion is returned when loading a checkpoint written by another layout version.
var ErrCheckpointVersion = errors.New("unsupported checkpoint version")

const metaFile = "meta.msgpack"

// CheckpointMeta is written alongside the per-store files.
type CheckpointMeta struct {
	Version int      `msgpack:"version"`
	Step    int32    `msgpack:"step"`
	Seed    uint64   `msgpack:"seed"`
	Tag     string   `msgpack:"tag,omitempty"`
	Stores  []string `msgpack:"stores"`
	SavedAt string   `msgpack:"saved_at"`
}

// SaveCheckpoint writes cp into a new save_<timestamp>_<step> directory under root:
// one <store>_state.msgpack per store plus meta.msgpack. It returns the directory.
func SaveCheckpoint(cp *systems.Checkpoint, root, tag string, now time.Time) (string, error) {
	stamp := now.Format("2006-01-02_15-04-05")
	name := fmt.Sprintf("save_%s_%d", stamp, cp.Step)
	if tag != "" {
		name += "_" + strings.ReplaceAll(tag, " ", "_")
	}
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create checkpoint dir: %w", err)
	}

	meta := CheckpointMeta{
		Version: CheckpointVersion,
		Step:    cp.Step,
		Seed:    cp.Seed,
		Tag:     tag,
		SavedAt: now.UTC().Format(time.RFC3339),
	}
	for store := range cp.Stores {
		meta.Stores = append(meta.Stores, store)
	}
	sort.Strings(meta.Stores)

	for _, store := range meta.Stores {
		if err := writeMsgpack(filepath.Join(dir, store+"_state.msgpack"), cp.Stores[store]); err != nil {
			return "", fmt.Errorf("write %s state: %w", store, err)
		}
	}
	if err := writeMsgpack(filepath.Join(dir, metaFile), &meta); err != nil {
		return "", fmt.Errorf("write checkpoint meta: %w", err)
	}
	return dir, nil
}

// LoadCheckpoint reads a directory written by SaveCheckpoint.
func LoadCheckpoint(dir string) (*systems.Checkpoint, error) {
	var meta CheckpointMeta
	if err := readMsgpack(filepath.Join(dir, metaFile), &meta); err != nil {
		return nil, fmt.Errorf("read checkpoint meta: %w", err)
	}
	if meta.Version != CheckpointVersion {
		return nil, fmt.Errorf("%w: %d", ErrCheckpointVersion, meta.Version)
	}

	cp := &systems.Checkpoint{
		Step:   meta.Step,
		Seed:   meta.Seed,
		Stores: make(map[string]*systems.State, len(meta.Stores)),
	}
	for _, store := range meta.Stores {
		st := systems.NewState()
		if err := readMsgpack(filepath.Join(dir, store+"_state.msgpack"), st); err != nil {
			return nil, fmt.Errorf("read %s state: %w", store, err)
		}
		cp.Stores[store] = st
	}
	return cp, nil
}

func writeMsgpack(path string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readMsgpack(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(data, v)
}
