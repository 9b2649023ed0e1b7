package telemetry

import "testing"

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Confluence(t *testing.T) {
	bd := NewBookmarkDetector(10, 1000, 1000)

	if bms := bd.Check(WindowStats{WindowEndTick: 60, Population: 100, G0: 50, G1: 50}); hasBookmark(bms, BookmarkConfluence) {
		t.Fatal("confluence at 50% quiescent")
	}
	bms := bd.Check(WindowStats{WindowEndTick: 120, Population: 100, G0: 95, G1: 5})
	if !hasBookmark(bms, BookmarkConfluence) {
		t.Fatal("expected confluence bookmark")
	}
	if bms := bd.Check(WindowStats{WindowEndTick: 180, Population: 100, G0: 99}); hasBookmark(bms, BookmarkConfluence) {
		t.Error("confluence fired twice")
	}

	bd.Reset()
	if bms := bd.Check(WindowStats{WindowEndTick: 240, Population: 100, G0: 99}); !hasBookmark(bms, BookmarkConfluence) {
		t.Error("confluence not re-armed by Reset")
	}
}

func TestBookmarkDetector_WoundClosed(t *testing.T) {
	bd := NewBookmarkDetector(10, 1000, 1000)
	for i, pct := range []float64{10, 50, 90} {
		if bms := bd.Check(WindowStats{WindowEndTick: int32(i * 60), ClosurePct: pct}); hasBookmark(bms, BookmarkWoundClosed) {
			t.Fatalf("wound_closed at %v%%", pct)
		}
	}
	if bms := bd.Check(WindowStats{WindowEndTick: 240, ClosurePct: 96}); !hasBookmark(bms, BookmarkWoundClosed) {
		t.Error("expected wound_closed bookmark")
	}
}

func TestBookmarkDetector_Capacity(t *testing.T) {
	bd := NewBookmarkDetector(10, 50, 80)

	bms := bd.Check(WindowStats{WindowEndTick: 60, Population: 50, ECM: 80})
	if len(bms) == 0 || bms[0].Type != BookmarkCapacityReached {
		t.Fatalf("expected capacity bookmark, got %+v", bms)
	}
	bms = bd.Check(WindowStats{WindowEndTick: 120, Population: 50, ECM: 80})
	if !hasBookmark(bms, BookmarkCapacityReached) {
		t.Fatal("expected ECM capacity bookmark on the next window")
	}
	if bms := bd.Check(WindowStats{WindowEndTick: 180, Population: 50, ECM: 80}); hasBookmark(bms, BookmarkCapacityReached) {
		t.Error("capacity fired more than once per store")
	}
}

func TestBookmarkDetector_Plateau(t *testing.T) {
	bd := NewBookmarkDetector(10, 10000, 10000)

	growing := []int{100, 200, 400, 800}
	for i, n := range growing {
		if bms := bd.Check(WindowStats{WindowEndTick: int32(i * 60), Population: n}); hasBookmark(bms, BookmarkPlateau) {
			t.Fatalf("plateau during growth at %d", n)
		}
	}

	var fired bool
	for i, n := range []int{1000, 1001, 999, 1000} {
		bms := bd.Check(WindowStats{WindowEndTick: int32(300 + i*60), Population: n})
		fired = fired || hasBookmark(bms, BookmarkPlateau)
	}
	if !fired {
		t.Error("expected population_plateau bookmark")
	}
}
