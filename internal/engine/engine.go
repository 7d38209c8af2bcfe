package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/arbhalerao/sse-demo/internal/logging"
	"github.com/arbhalerao/sse-demo/internal/model"
	"github.com/arbhalerao/sse-demo/internal/store"
	"github.com/arbhalerao/sse-demo/internal/stream"
)

var ErrStopped = errors.New("engine: stopped")

const (
	defaultTriggerTimeout = 10 * time.Second
	rateBuckets           = 60
)

type Options struct {
	Source          Source
	Trigger         Trigger
	TriggerTimeout  time.Duration
	LogCapacityHint int
	Logger          *slog.Logger
}

// Engine is the single owner of the event log and the connection state.
// Everything that touches either runs on the Run goroutine.
type Engine struct {
	source         Source
	trigger        Trigger
	triggerTimeout time.Duration
	logger         *slog.Logger

	cmdCh       chan Command
	snapReqCh   chan SnapshotRequest
	triggerDone chan triggerResult
	changeCh    chan struct{}
	done        chan struct{}
	inflight    sync.WaitGroup

	log          *store.EventLog
	state        model.ConnectionState
	everOpen     bool
	eventsPerSec *store.RollingCounter

	received        uint64
	decodeErrors    uint64
	faults          uint64
	reconnects      uint64
	triggersSent    uint64
	triggerFailures uint64
}

func New(opts Options) *Engine {
	timeout := opts.TriggerTimeout
	if timeout <= 0 {
		timeout = defaultTriggerTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		source:         opts.Source,
		trigger:        opts.Trigger,
		triggerTimeout: timeout,
		logger:         logger,
		cmdCh:          make(chan Command, 64),
		snapReqCh:      make(chan SnapshotRequest, 16),
		triggerDone:    make(chan triggerResult, 16),
		changeCh:       make(chan struct{}, 1),
		done:           make(chan struct{}),
		log:            store.NewEventLog(opts.LogCapacityHint),
		state:          model.StateConnecting,
		eventsPerSec:   store.NewRollingCounter(rateBuckets, time.Second, time.Now()),
	}
}

// Changes receives a coalesced signal after every state, log or stats
// change.
func (e *Engine) Changes() <-chan struct{} {
	return e.changeCh
}

// Done is closed once Run has returned and the source is released.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Submit queues cmd and reports false if the engine has stopped.
func (e *Engine) Submit(cmd Command) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.cmdCh <- cmd:
		return true
	case <-e.done:
		return false
	}
}

func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	req := SnapshotRequest{RespCh: make(chan Snapshot, 1)}
	select {
	case e.snapReqCh <- req:
	case <-e.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-req.RespCh:
		return snap, nil
	case <-e.done:
		select {
		case snap := <-req.RespCh:
			return snap, nil
		default:
			return Snapshot{}, ErrStopped
		}
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Run opens the source and serves updates, commands and snapshot requests
// until ctx ends. Closing the source is its only teardown. Run must be
// called at most once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	e.source.Open(ctx)
	defer e.source.Close()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	updates := e.source.Updates()
	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("engine stopping", "events", e.log.Len())
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			e.applyUpdate(update, time.Now())
		case cmd := <-e.cmdCh:
			if err := e.handleCommand(cmd); err != nil {
				e.logger.Warn("command failed", "command", cmd.Type.String(), "err", err)
			}
		case req := <-e.snapReqCh:
			req.RespCh <- e.buildSnapshot(time.Now())
		case res := <-e.triggerDone:
			e.recordTrigger(res)
		case <-tick.C:
			e.notify()
		}
	}
}

func (e *Engine) applyUpdate(update stream.Update, now time.Time) {
	switch update.Kind {
	case stream.UpdateState:
		e.setState(update.State)
	case stream.UpdateEvent:
		e.log.Append(update.Event)
		e.received++
		e.eventsPerSec.Add(1, now)
	case stream.UpdateDecodeError:
		e.decodeErrors++
	default:
		return
	}
	e.notify()
}

func (e *Engine) setState(state model.ConnectionState) {
	if state == e.state {
		return
	}
	switch state {
	case model.StateOpen:
		if e.everOpen {
			e.reconnects++
		}
		e.everOpen = true
	case model.StateClosed:
		e.faults++
	}
	e.logger.Info("connection state changed", "from", e.state.String(), "to", state.String())
	e.state = state
}

func (e *Engine) recordTrigger(res triggerResult) {
	if res.err != nil {
		e.triggerFailures++
		e.notify()
		return
	}
	e.logger.Debug("trigger completed", "action", res.action)
}

func (e *Engine) notify() {
	select {
	case e.changeCh <- struct{}{}:
	default:
	}
}
