// Package telemetry provides rope session tracking, performance timing and
// CSV output.
package telemetry

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/coil/rope"
)

// EventRecord is one rope transition as written to events.csv.
type EventRecord struct {
	Tick      int64   `csv:"tick"`
	RopeID    uint32  `csv:"rope"`
	Type      string  `csv:"type"`
	WrapDeg   float64 `csv:"wrap_deg"`
	LiveCount int     `csv:"live"`
	Index     int     `csv:"index"`
	SpawnedID uint32  `csv:"spawned"` // Tail rope for cuts
}

// NewEventRecord flattens a rope event.
func NewEventRecord(ropeID uint32, e rope.Event) EventRecord {
	return EventRecord{
		Tick:      e.Tick,
		RopeID:    ropeID,
		Type:      e.Type.String(),
		WrapDeg:   e.WrapAngle * 180 / math.Pi,
		LiveCount: e.LiveCount,
		Index:     e.Index,
	}
}

// NewCutRecord flattens a cut event together with the spawned tail.
func NewCutRecord(ropeID, tailID uint32, e rope.Event) EventRecord {
	r := NewEventRecord(ropeID, e)
	r.SpawnedID = tailID
	return r
}

// LogValue implements slog.LogValuer for structured logging.
func (r EventRecord) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("tick", r.Tick),
		slog.Any("rope", r.RopeID),
		slog.String("type", r.Type),
		slog.Float64("wrap_deg", r.WrapDeg),
		slog.Int("live", r.LiveCount),
	}
	if r.Type == rope.EventCut.String() {
		attrs = append(attrs, slog.Int("index", r.Index), slog.Any("spawned", r.SpawnedID))
	}
	return slog.GroupValue(attrs...)
}
