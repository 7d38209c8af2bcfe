package engine

import (
	"context"

	"github.com/arbhalerao/sse-demo/internal/model"
	"github.com/arbhalerao/sse-demo/internal/stream"
)

// Source is the push connection the engine consumes. *stream.Client
// satisfies it.
type Source interface {
	Open(ctx context.Context)
	Updates() <-chan stream.Update
	Close()
}

type Trigger interface {
	Trigger(ctx context.Context, action string) error
}

type CommandType int

const (
	CommandTrigger CommandType = iota
	CommandClear
)

func (t CommandType) String() string {
	switch t {
	case CommandTrigger:
		return "trigger"
	case CommandClear:
		return "clear"
	default:
		return "unknown"
	}
}

// RespCh, when set, must be buffered; results are dropped rather than block
// the engine.
type Command struct {
	Type   CommandType
	Action string
	RespCh chan CommandResult
}

// CommandResult acknowledges that a command was applied. For a trigger it
// does not carry the request's outcome.
type CommandResult struct {
	Type CommandType
	Len  int
	Err  error
}

type SnapshotRequest struct {
	RespCh chan Snapshot
}

type Snapshot struct {
	State   model.ConnectionState
	Events  []model.Event
	Version uint64
	Stats   StatsSnapshot
}

type StatsSnapshot struct {
	EventsPerSec    []uint64
	Received        uint64
	DecodeErrors    uint64
	Faults          uint64
	Reconnects      uint64
	TriggersSent    uint64
	TriggerFailures uint64
}

type triggerResult struct {
	action string
	err    error
}
