package systems

import (
	"sync/atomic"
	"testing"
)

func TestPool_CoversRangeOnce(t *testing.T) {
	tests := []struct {
		name      string
		workers   int
		threshold int
		n         int
	}{
		{"inline below threshold", 4, 64, 10},
		{"single worker", 1, 1, 1000},
		{"fan out", 4, 8, 1000},
		{"more workers than items", 8, 1, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPool(tc.workers, tc.threshold)
			defer p.Close()

			hits := make([]atomic.Int32, tc.n)
			for pass := 0; pass < 3; pass++ {
				p.Run(tc.n, func(lo, hi int, _ *Worker) {
					for i := lo; i < hi; i++ {
						hits[i].Add(1)
					}
				})
			}
			for i := range hits {
				if got := hits[i].Load(); got != 3 {
					t.Fatalf("index %d visited %d times over 3 passes", i, got)
				}
			}
		})
	}
}

func TestWorker_ReseedIsDeterministic(t *testing.T) {
	a, b := newWorker(0), newWorker(5)
	a.Reseed(42, 7, 13)
	b.Reseed(42, 7, 13)
	for k := 0; k < 10; k++ {
		if x, y := a.Rand.Uint64(), b.Rand.Uint64(); x != y {
			t.Fatalf("draw %d: %d != %d", k, x, y)
		}
	}

	b.Reseed(42, 7, 14)
	a.Reseed(42, 7, 13)
	if a.Rand.Uint64() == b.Rand.Uint64() {
		t.Error("different agents share a stream")
	}
}
