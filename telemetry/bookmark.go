package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkConfluence      BookmarkType = "confluence"
	BookmarkWoundClosed     BookmarkType = "wound_closed"
	BookmarkCapacityReached BookmarkType = "capacity_reached"
	BookmarkPlateau         BookmarkType = "population_plateau"
)

// Thresholds for bookmark detection.
const (
	confluenceQuiescent = 0.9  // fraction of cells in G0
	woundClosedPct      = 95.0 // closure percentage
	plateauWindows      = 4
	plateauCV           = 0.02 // squared coefficient of variation of population
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"step"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments from successive window stats.
// Confluence, wound closure and capacity fire once each until Reset.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	cellCapacity int
	ecmCapacity  int

	confluent     bool
	woundClosed   bool
	cellsFull     bool
	ecmFull       bool
	plateauMarked bool
}

// NewBookmarkDetector creates a detector with the given history size and store capacities.
func NewBookmarkDetector(historySize, cellCapacity, ecmCapacity int) *BookmarkDetector {
	if historySize < plateauWindows {
		historySize = plateauWindows
	}
	return &BookmarkDetector{
		history:      make([]WindowStats, historySize),
		historySize:  historySize,
		cellCapacity: cellCapacity,
		ecmCapacity:  ecmCapacity,
	}
}

// Reset re-arms the one-shot bookmarks, typically after a new wound.
func (bd *BookmarkDetector) Reset() {
	bd.confluent = false
	bd.woundClosed = false
	bd.plateauMarked = false
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	for _, check := range []func(WindowStats) *Bookmark{
		bd.checkConfluence,
		bd.checkWoundClosed,
		bd.checkCapacity,
		bd.checkPlateau,
	} {
		if b := check(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n most recent history entries, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	size := bd.historyIdx
	if bd.historyFull {
		size = bd.historySize
	}
	if n > size {
		n = size
	}
	out := make([]WindowStats, 0, n)
	for k := n; k > 0; k-- {
		idx := (bd.historyIdx - k + bd.historySize) % bd.historySize
		out = append(out, bd.history[idx])
	}
	return out
}

func (bd *BookmarkDetector) checkConfluence(stats WindowStats) *Bookmark {
	if bd.confluent || stats.Population == 0 {
		return nil
	}
	frac := float64(stats.G0) / float64(stats.Population)
	if frac < confluenceQuiescent {
		return nil
	}
	bd.confluent = true
	return &Bookmark{
		Type:        BookmarkConfluence,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%.0f%% of %d cells quiescent", frac*100, stats.Population),
	}
}

func (bd *BookmarkDetector) checkWoundClosed(stats WindowStats) *Bookmark {
	if bd.woundClosed || stats.ClosurePct < woundClosedPct {
		return nil
	}
	bd.woundClosed = true
	return &Bookmark{
		Type:        BookmarkWoundClosed,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Wound %.1f%% closed, %.3f mm² open", stats.ClosurePct, stats.WoundAreaMM2),
	}
}

func (bd *BookmarkDetector) checkCapacity(stats WindowStats) *Bookmark {
	switch {
	case !bd.cellsFull && bd.cellCapacity > 0 && stats.Population >= bd.cellCapacity:
		bd.cellsFull = true
		return &Bookmark{
			Type:        BookmarkCapacityReached,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Fibroblast store full at %d", stats.Population),
		}
	case !bd.ecmFull && bd.ecmCapacity > 0 && stats.ECM >= bd.ecmCapacity:
		bd.ecmFull = true
		return &Bookmark{
			Type:        BookmarkCapacityReached,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("ECM store full at %d", stats.ECM),
		}
	}
	return nil
}

// checkPlateau fires when population has stopped changing over the last few windows.
func (bd *BookmarkDetector) checkPlateau(stats WindowStats) *Bookmark {
	if bd.plateauMarked || stats.Population < 10 {
		return nil
	}
	window := append(bd.recent(plateauWindows-1), stats)
	if len(window) < plateauWindows {
		return nil
	}

	var sum float64
	for _, h := range window {
		sum += float64(h.Population)
	}
	mean := sum / float64(len(window))

	var variance float64
	for _, h := range window {
		d := float64(h.Population) - mean
		variance += d * d
	}
	variance /= float64(len(window))

	if variance/(mean*mean) >= plateauCV {
		return nil
	}
	bd.plateauMarked = true
	return &Bookmark{
		Type:        BookmarkPlateau,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population steady near %.0f over %d windows", mean, len(window)),
	}
}
