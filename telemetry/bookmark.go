package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSolverSpike BookmarkType = "solver_spike"
	BookmarkFullTurn    BookmarkType = "full_turn"
	BookmarkSettled     BookmarkType = "settled"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int64        `csv:"tick"`
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

// BookmarkDetector detects interesting moments in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	fullTurnArmed      bool // Cleared while any rope holds a full turn
	settledWindowCount int  // Consecutive windows with steady spacing error
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for settled detection
	}
	return &BookmarkDetector{
		history:       make([]WindowStats, historySize),
		historySize:   historySize,
		fullTurnArmed: true,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Solver spike: spacing error > 2x rolling average
		if b := bd.checkSolverSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Settled: ropes present with steady spacing error over 5+ windows
		if b := bd.checkSettled(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Full turn: first window in which some rope carries 360 degrees
	if b := bd.checkFullTurn(stats); b != nil {
		bookmarks = append(bookmarks, *b)
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

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkSolverSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.SpacingErrMean
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.SpacingErrMean > avg*2.0 && stats.SpacingErrMean > 1e-3 {
		return &Bookmark{
			Type:        BookmarkSolverSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Spacing error %.4f is %.1fx average (%.4f)", stats.SpacingErrMean, stats.SpacingErrMean/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkFullTurn(stats WindowStats) *Bookmark {
	if stats.MaxWrapDeg < 360 {
		bd.fullTurnArmed = true
		return nil
	}
	if !bd.fullTurnArmed {
		return nil
	}
	bd.fullTurnArmed = false

	return &Bookmark{
		Type:        BookmarkFullTurn,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Wrap reached %.0f degrees", stats.MaxWrapDeg),
	}
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if stats.Ropes == 0 {
		bd.settledWindowCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	var sum float64
	for _, h := range history[len(history)-4:] {
		sum += h.SpacingErrMean
	}
	mean := sum / 4

	var variance float64
	for _, h := range history[len(history)-4:] {
		d := h.SpacingErrMean - mean
		variance += d * d
	}
	variance /= 4

	// Coefficient of variation below 20%, or effectively zero error
	steady := mean < 1e-9
	if !steady {
		steady = variance/(mean*mean) < 0.04
	}

	if steady {
		bd.settledWindowCount++
	} else {
		bd.settledWindowCount = 0
	}

	if bd.settledWindowCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSettled,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d ropes settled with spacing error %.4f over 5+ windows", stats.Ropes, mean),
		}
	}

	return nil
}
