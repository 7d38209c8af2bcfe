package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arbhalerao/sse-demo/internal/config"
	"github.com/arbhalerao/sse-demo/internal/engine"
)

type snapshotMsg engine.Snapshot

type changeMsg struct{}

type engineStoppedMsg struct{}

type cmdResultMsg engine.CommandResult

type Model struct {
	noColor   bool
	engine    *engine.Engine
	cancel    context.CancelFunc
	action    string
	eventsURL string
	snapshot  engine.Snapshot
	lastErr   string
	width     int
	height    int
	follow    bool
	scroll    int
	stopped   bool

	statsCache statsView
}

func New(noColor bool, eng *engine.Engine, cancel context.CancelFunc, cfg config.Config) Model {
	return Model{
		noColor:   noColor,
		engine:    eng,
		cancel:    cancel,
		action:    cfg.Action,
		eventsURL: cfg.EventsURL,
		follow:    true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(requestSnapshot(m.engine), waitForChange(m.engine))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case changeMsg:
		return m, tea.Batch(requestSnapshot(m.engine), waitForChange(m.engine))
	case snapshotMsg:
		m.snapshot = engine.Snapshot(typed)
		if m.follow {
			m.scroll = 0
		}
		m.scroll = min(m.scroll, max(0, len(m.snapshot.Events)-1))
		m.statsCache.invalidate()
		m.statsCache.ensure(m.snapshot)
		return m, nil
	case cmdResultMsg:
		result := engine.CommandResult(typed)
		if result.Err != nil {
			m.lastErr = result.Err.Error()
		} else {
			m.lastErr = ""
		}
		return m, nil
	case engineStoppedMsg:
		m.stopped = true
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "p", "enter":
			return m, sendTrigger(m)
		case "c":
			m.scroll = 0
			m.follow = true
			return m, sendClear(m)
		case "up", "k":
			m.follow = false
			m.scroll = min(m.scroll+1, max(0, len(m.snapshot.Events)-1))
			return m, nil
		case "down", "j":
			m.scroll = max(0, m.scroll-1)
			if m.scroll == 0 {
				m.follow = true
			}
			return m, nil
		case "f":
			m.follow = !m.follow
			if m.follow {
				m.scroll = 0
			}
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}
