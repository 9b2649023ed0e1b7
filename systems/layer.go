package systems

import (
	"math/rand/v2"

	"github.com/pthm-cable/fibro/components"
)

// Layer owns one group of per-agent field arrays plus their compaction buffers.
// A Store calls its layers in registration order for every lifecycle event.
type Layer interface {
	// Init writes birth values at a freshly reserved index.
	Init(i int, pos components.Vec2, rng *rand.Rand)
	// Clear writes sentinels at i in both the primary and buffer arrays.
	Clear(i int)
	// CompactWrite copies primary slot src into buffer slot dst.
	CompactWrite(dst, src int)
	// CompactRestore copies buffer slot i over primary slot i.
	CompactRestore(i int)

	Export(s *State)
	Validate(s *State) error
	Import(s *State)
}
