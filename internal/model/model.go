package model

type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateOpen
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one decoded frame from the push stream. Values are never mutated
// after decoding; the log hands out shared references.
type Event struct {
	Timestamp string
	Message   string
	Type      string
	Data      Value
}
