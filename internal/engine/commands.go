package engine

import (
	"context"
	"errors"
)

func (e *Engine) handleCommand(cmd Command) error {
	switch cmd.Type {
	case CommandTrigger:
		return e.startTrigger(cmd)
	case CommandClear:
		e.log.Clear()
		e.notify()
		sendResult(cmd, e.log.Len(), nil)
		return nil
	default:
		err := errors.New("unknown command")
		sendResult(cmd, e.log.Len(), err)
		return err
	}
}

// startTrigger fires the request on its own goroutine. The request outlives
// Run on purpose; once Run has returned its result is discarded.
func (e *Engine) startTrigger(cmd Command) error {
	if e.trigger == nil {
		err := errors.New("trigger handler not attached")
		sendResult(cmd, e.log.Len(), err)
		return err
	}
	if cmd.Action == "" {
		err := errors.New("action required")
		sendResult(cmd, e.log.Len(), err)
		return err
	}

	e.triggersSent++
	trigger := e.trigger
	timeout := e.triggerTimeout
	e.inflight.Add(1)
	go func(action string) {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := trigger.Trigger(ctx, action)
		select {
		case <-e.done:
			e.logger.Debug("discarding trigger result after stop", "action", action)
			return
		default:
		}
		select {
		case e.triggerDone <- triggerResult{action: action, err: err}:
		case <-e.done:
		}
	}(cmd.Action)

	e.notify()
	sendResult(cmd, e.log.Len(), nil)
	return nil
}

func sendResult(cmd Command, length int, err error) {
	if cmd.RespCh == nil {
		return
	}
	select {
	case cmd.RespCh <- CommandResult{Type: cmd.Type, Len: length, Err: err}:
	default:
	}
}
