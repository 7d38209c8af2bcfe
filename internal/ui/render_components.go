package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arbhalerao/sse-demo/internal/model"
)

func connectionIndicator(m Model, styles uiStyles) string {
	switch m.snapshot.State {
	case model.StateOpen:
		return styles.good.Render("● connected")
	case model.StateConnecting:
		return styles.warn.Render("◌ connecting")
	default:
		return styles.bad.Render("○ disconnected")
	}
}

// renderEvents returns at most rows lines, oldest first, ending scroll events
// above the newest one.
func renderEvents(m Model, styles uiStyles, width, rows int) []string {
	events := m.snapshot.Events
	if len(events) == 0 {
		return []string{styles.muted.Render("No messages yet.")}
	}
	end := len(events) - m.scroll
	if end < 0 {
		end = 0
	}
	start := max(0, end-rows)
	lines := make([]string, 0, end-start+1)
	if start > 0 {
		lines = append(lines, styles.muted.Render(fmt.Sprintf("... %d earlier", start)))
	}
	for _, evt := range events[start:end] {
		line := formatEvent(evt, styles)
		if width > 0 {
			line = lipgloss.NewStyle().MaxWidth(width).Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

func formatEvent(evt model.Event, styles uiStyles) string {
	parts := []string{styles.stamp.Render(emptyDash(evt.Timestamp))}
	if evt.Type != "" {
		parts = append(parts, styles.kind.Render("["+evt.Type+"]"))
	}
	parts = append(parts, evt.Message)
	if evt.Data.Present() && evt.Data.Kind() != model.KindNull {
		parts = append(parts, styles.data.Render("Data: "+evt.Data.String()))
	}
	return strings.Join(parts, " ")
}

func sparkline(values []uint64) string {
	if len(values) == 0 {
		return "(no data)"
	}
	maxVal := uint64(1)
	for _, val := range values {
		if val > maxVal {
			maxVal = val
		}
	}
	blocks := []rune(" .:-=+*#%@")
	out := make([]rune, len(values))
	for i, val := range values {
		idx := int((float64(val) / float64(maxVal)) * float64(len(blocks)-1))
		idx = min(max(idx, 0), len(blocks)-1)
		out[i] = blocks[idx]
	}
	return string(out)
}

func lastValue(values []uint64) uint64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

func emptyDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func chipLine(styles uiStyles, label, value string) string {
	left := styles.chipLabel.Render(label + ":")
	right := styles.chipValue.Render(value)
	return left + " " + right
}
