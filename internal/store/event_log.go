package store

import "github.com/arbhalerao/sse-demo/internal/model"

// EventLog is the ordered, unbounded record of decoded events. It is not
// safe for concurrent use; the engine goroutine is its only owner.
type EventLog struct {
	events  []model.Event
	hint    int
	version uint64
}

func NewEventLog(capacityHint int) *EventLog {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &EventLog{events: make([]model.Event, 0, capacityHint), hint: capacityHint}
}

func (l *EventLog) Append(evt model.Event) {
	l.events = append(l.events, evt)
	l.version++
}

// Clear drops every event at once. The backing array is replaced rather
// than zeroed so snapshots already handed out stay intact.
func (l *EventLog) Clear() {
	l.events = make([]model.Event, 0, l.hint)
	l.version++
}

// Snapshot returns the current sequence. The capacity is clipped to the
// length, so later appends reallocate instead of writing into memory the
// caller can see.
func (l *EventLog) Snapshot() []model.Event {
	n := len(l.events)
	return l.events[:n:n]
}

func (l *EventLog) Len() int {
	return len(l.events)
}

func (l *EventLog) Version() uint64 {
	return l.version
}
