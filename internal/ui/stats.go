package ui

import (
	"fmt"

	"github.com/arbhalerao/sse-demo/internal/engine"
)

type statsView struct {
	valid   bool
	rate    string
	summary string
	faults  string
	actions string
}

func (s *statsView) invalidate() {
	s.valid = false
}

func (s *statsView) ensure(snapshot engine.Snapshot) {
	if s.valid {
		return
	}
	stats := snapshot.Stats
	s.rate = "events/s " + sparkline(stats.EventsPerSec)
	s.summary = fmt.Sprintf("received: %d", stats.Received)
	s.faults = fmt.Sprintf("faults: %d  reconnects: %d  bad frames: %d", stats.Faults, stats.Reconnects, stats.DecodeErrors)
	s.actions = fmt.Sprintf("triggers: %d  failed: %d", stats.TriggersSent, stats.TriggerFailures)
	s.valid = true
}
