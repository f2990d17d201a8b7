package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_SolverSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Quiet history
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick:  int64(i * 180),
			Ropes:          1,
			SpacingErrMean: 0.002,
		})
	}

	// Spacing error jumps to 4x the average
	bookmarks := bd.Check(WindowStats{
		WindowEndTick:  900,
		Ropes:          1,
		SpacingErrMean: 0.008,
	})
	if !hasBookmark(bookmarks, BookmarkSolverSpike) {
		t.Error("expected solver_spike bookmark")
	}
}

func TestBookmarkDetector_SolverSpikeIgnoresTinyErrors(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 180), Ropes: 1, SpacingErrMean: 1e-6})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 900, Ropes: 1, SpacingErrMean: 1e-5})
	if hasBookmark(bookmarks, BookmarkSolverSpike) {
		t.Error("unexpected solver_spike below the error floor")
	}
}

func TestBookmarkDetector_FullTurnOncePerRise(t *testing.T) {
	bd := NewBookmarkDetector(10)

	wraps := []float64{90, 200, 370, 720, 10, 400}
	want := []bool{false, false, true, false, false, true}

	for i, w := range wraps {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int64(i * 180), MaxWrapDeg: w})
		if got := hasBookmark(bookmarks, BookmarkFullTurn); got != want[i] {
			t.Errorf("window %d (wrap %v): full_turn = %v, want %v", i, w, got, want[i])
		}
	}
}

func TestBookmarkDetector_Settled(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := -1
	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick:  int64(i * 180),
			Ropes:          2,
			SpacingErrMean: 0.01,
		})
		if hasBookmark(bookmarks, BookmarkSettled) {
			if triggered >= 0 {
				t.Fatalf("settled triggered twice, at %d and %d", triggered, i)
			}
			triggered = i
		}
	}

	// Four windows of history, then five steady checks.
	if triggered != 8 {
		t.Errorf("settled triggered at window %d, want 8", triggered)
	}
}

func TestBookmarkDetector_SettledNeedsRopes(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int64(i * 180)})
		if hasBookmark(bookmarks, BookmarkSettled) {
			t.Fatalf("settled triggered at window %d with no ropes", i)
		}
	}
}
