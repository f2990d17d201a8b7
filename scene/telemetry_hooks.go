package scene

import "log/slog"

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Scene) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick)
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}
