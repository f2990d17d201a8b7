package rope

// EventType identifies a discrete rope transition.
type EventType uint8

const (
	EventCapture EventType = iota // Grip entered the capture band
	EventCommit                   // Captured motion accepted as winding
	EventRelease                  // Winding session ended
	EventDeepen                   // Wrap angle crossed a new detent
	EventCut                      // Rope was split
)

func (t EventType) String() string {
	switch t {
	case EventCapture:
		return "capture"
	case EventCommit:
		return "commit"
	case EventRelease:
		return "release"
	case EventDeepen:
		return "deepen"
	case EventCut:
		return "cut"
	}
	return "unknown"
}

// Event is a transition observed during a tick or a split.
type Event struct {
	Type      EventType
	Tick      int64
	WrapAngle float64
	LiveCount int
	Index     int // Cut index for EventCut, detent number for EventDeepen
}

func (r *Rope) emit(t EventType, index int) {
	r.events = append(r.events, Event{
		Type:      t,
		Tick:      r.tick,
		WrapAngle: r.session.wrap,
		LiveCount: r.chain.live,
		Index:     index,
	})
}

// DrainEvents returns the events queued since the last drain.
func (r *Rope) DrainEvents() []Event {
	if len(r.events) == 0 {
		return nil
	}
	out := make([]Event, len(r.events))
	copy(out, r.events)
	r.events = r.events[:0]
	return out
}
