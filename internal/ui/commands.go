package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arbhalerao/sse-demo/internal/engine"
)

func sendTrigger(m Model) tea.Cmd {
	respCh := make(chan engine.CommandResult, 1)
	if !m.engine.Submit(engine.Command{Type: engine.CommandTrigger, Action: m.action, RespCh: respCh}) {
		return nil
	}
	return waitForCommandResult(respCh)
}

func sendClear(m Model) tea.Cmd {
	respCh := make(chan engine.CommandResult, 1)
	if !m.engine.Submit(engine.Command{Type: engine.CommandClear, RespCh: respCh}) {
		return nil
	}
	return waitForCommandResult(respCh)
}

func requestSnapshot(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		snap, err := eng.Snapshot(context.Background())
		if err != nil {
			return engineStoppedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func waitForChange(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-eng.Changes():
			return changeMsg{}
		case <-eng.Done():
			return engineStoppedMsg{}
		}
	}
}

func waitForCommandResult(ch <-chan engine.CommandResult) tea.Cmd {
	return func() tea.Msg {
		return cmdResultMsg(<-ch)
	}
}
