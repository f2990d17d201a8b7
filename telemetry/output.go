package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/coil/config"
)

// csvFile is an output file whose header row is written with the first
// batch of records.
type csvFile struct {
	name          string
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{name: name, f: f}, nil
}

// write marshals records, a slice of csv-tagged structs.
func (c *csvFile) write(records any) error {
	var err error
	if !c.headerWritten {
		err = gocsv.Marshal(records, c.f)
		c.headerWritten = err == nil
	} else {
		err = gocsv.MarshalWithoutHeaders(records, c.f)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", c.name, err)
	}
	return nil
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	events    *csvFile
	telemetry *csvFile
	perf      *csvFile
	bookmarks *csvFile
	sessions  *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.events, err = createCSV(dir, "events.csv"); err != nil {
		return nil, err
	}
	if om.telemetry, err = createCSV(dir, "telemetry.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.perf, err = createCSV(dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.bookmarks, err = createCSV(dir, "bookmarks.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.sessions, err = createCSV(dir, "sessions.csv"); err != nil {
		om.Close()
		return nil, err
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteEvents appends transition records to events.csv.
func (om *OutputManager) WriteEvents(records []EventRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	return om.events.write(records)
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.write([]WindowStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write([]Bookmark{b})
}

// WriteSession writes a finished winding session to sessions.csv.
func (om *OutputManager) WriteSession(s SessionStats) error {
	if om == nil {
		return nil
	}
	return om.sessions.write([]SessionStats{s})
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.events, om.telemetry, om.perf, om.bookmarks, om.sessions} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
