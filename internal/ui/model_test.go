package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbhalerao/sse-demo/internal/config"
	"github.com/arbhalerao/sse-demo/internal/engine"
	"github.com/arbhalerao/sse-demo/internal/model"
	"github.com/arbhalerao/sse-demo/internal/stream"
)

type idleSource struct {
	updates chan stream.Update
}

func (s idleSource) Open(context.Context) {}
func (s idleSource) Updates() <-chan stream.Update { return s.updates }
func (s idleSource) Close() {}

func newTestModel(t *testing.T) (Model, *bool) {
	t.Helper()
	eng := engine.New(engine.Options{Source: idleSource{updates: make(chan stream.Update)}})
	cancelled := false
	m := New(true, eng, func() { cancelled = true }, config.Default())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model), &cancelled
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleSnapshot(state model.ConnectionState, n int) engine.Snapshot {
	events := []model.Event{
		{Timestamp: "T1", Message: "hello"},
		{
			Timestamp: "T2",
			Message:   "Ping received from client",
			Type:      "ping",
			Data:      model.Object(model.Member{Key: "n", Value: model.Number("1")}),
		},
		{Timestamp: "T3", Message: "quiet", Data: model.Null()},
	}
	return engine.Snapshot{State: state, Events: events[:n]}
}

func TestViewEmptyLog(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = apply(t, m, snapshotMsg(engine.Snapshot{State: model.StateConnecting}))

	view := m.View()
	assert.Contains(t, view, "Messages (0)")
	assert.Contains(t, view, "No messages yet.")
	assert.Contains(t, view, "connecting")
}

func TestViewRendersEventsInOrder(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = apply(t, m, snapshotMsg(sampleSnapshot(model.StateOpen, 3)))

	view := m.View()
	assert.Contains(t, view, "Messages (3)")
	assert.Contains(t, view, "connected")
	assert.Contains(t, view, `Data: {"n":1}`)
	assert.Less(t, strings.Index(view, "hello"), strings.Index(view, "Ping received from client"))
	assert.NotContains(t, view, "Data: null")
}

func TestViewShowsDisconnected(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = apply(t, m, snapshotMsg(sampleSnapshot(model.StateClosed, 1)))
	assert.Contains(t, m.View(), "disconnected")
}

func TestViewShowsCommandError(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = apply(t, m, cmdResultMsg(engine.CommandResult{Err: assert.AnError}))
	assert.Contains(t, m.View(), "error: "+assert.AnError.Error())

	m, _ = apply(t, m, cmdResultMsg(engine.CommandResult{}))
	assert.NotContains(t, m.View(), "error:")
}

func TestQuitCancelsEngine(t *testing.T) {
	m, cancelled := newTestModel(t)
	_, cmd := apply(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, *cancelled)
}

func TestSendAndClearSubmitCommands(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := apply(t, m, key("p"))
	assert.NotNil(t, cmd)
	_, cmd = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
	_, cmd = apply(t, m, key("c"))
	assert.NotNil(t, cmd)
}

func TestScrollAndFollow(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = apply(t, m, snapshotMsg(sampleSnapshot(model.StateOpen, 3)))

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.False(t, m.follow)
	assert.Equal(t, 1, m.scroll)
	assert.Contains(t, m.View(), "paused")

	m, _ = apply(t, m, snapshotMsg(sampleSnapshot(model.StateOpen, 3)))
	assert.Equal(t, 1, m.scroll, "a paused view keeps its position")

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.True(t, m.follow)
	assert.Equal(t, 0, m.scroll)

	m, _ = apply(t, m, key("f"))
	assert.False(t, m.follow)
}

func TestEngineStoppedIsShown(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = apply(t, m, engineStoppedMsg{})
	assert.True(t, m.stopped)
	assert.Contains(t, m.View(), "stopped")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "(no data)", sparkline(nil))
	assert.Equal(t, " @", sparkline([]uint64{0, 4}))
}
