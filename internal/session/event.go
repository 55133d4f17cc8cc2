package session

// EventType classifies session events.
type EventType int

const (
	EventUpdate    EventType = iota // any state change
	EventPhase                      // phase transition
	EventCountdown                  // countdown value changed
	EventCaptured                   // a photo was added
	EventExported                   // a strip file was written
	EventCamera                     // camera acquired, released or switched
)

var eventNames = map[EventType]string{
	EventUpdate:    "update",
	EventPhase:     "phase",
	EventCountdown: "countdown",
	EventCaptured:  "captured",
	EventExported:  "exported",
	EventCamera:    "camera",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return "unknown"
}

// Event carries a state snapshot to observers.
type Event struct {
	Type  EventType
	State *State // snapshot (safe to retain)
	// Path is set on EventExported.
	Path string
}
