package engine

import "time"

func (e *Engine) buildSnapshot(now time.Time) Snapshot {
	return Snapshot{
		State:   e.state,
		Events:  e.log.Snapshot(),
		Version: e.log.Version(),
		Stats: StatsSnapshot{
			EventsPerSec:    e.eventsPerSec.Snapshot(now),
			Received:        e.received,
			DecodeErrors:    e.decodeErrors,
			Faults:          e.faults,
			Reconnects:      e.reconnects,
			TriggersSent:    e.triggersSent,
			TriggerFailures: e.triggerFailures,
		},
	}
}
