package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/coil/config"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}

	// A nil manager swallows every write.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteEvents([]EventRecord{{Type: "cut"}}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_WritesCSVWithSingleHeader(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := int64(1); i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: i * 10, Ropes: 1}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WriteEvents([]EventRecord{{Tick: 1, Type: "capture"}, {Tick: 2, Type: "commit"}}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if err := om.WriteEvents(nil); err != nil {
		t.Fatalf("WriteEvents(nil): %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 10); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkFullTurn, Tick: 5}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := om.WriteSession(SessionStats{RopeID: 1, StartTick: int64(i)}); err != nil {
			t.Fatalf("WriteSession: %v", err)
		}
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tests := []struct {
		file      string
		header    string
		wantLines int
	}{
		{"telemetry.csv", "window_end", 4},
		{"events.csv", "tick", 3},
		{"perf.csv", "window_end", 2},
		{"bookmarks.csv", "type", 2},
		{"sessions.csv", "rope", 3},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatal(err)
			}
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) != tt.wantLines {
				t.Errorf("%s has %d lines, want %d", tt.file, len(lines), tt.wantLines)
			}
			if !strings.HasPrefix(lines[0], tt.header) {
				t.Errorf("%s header = %q, want prefix %q", tt.file, lines[0], tt.header)
			}
		})
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load back: %v", err)
	}
}
