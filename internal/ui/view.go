package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	sidebarOuterWidth = 34
	defaultListRows   = 20
	// rows taken by everything around the event list
	chromeRows = 14
)

func (m Model) View() string {
	styles := buildStyles(m.noColor)
	width := normalizeWidth(m.width)
	contentWidth := max(0, width-styles.canvas.GetHorizontalFrameSize())
	contentHeight := max(0, m.height-styles.canvas.GetVerticalFrameSize())

	innerWidth := func(outer int, style lipgloss.Style) int {
		return max(0, outer-style.GetHorizontalFrameSize())
	}

	logo := renderLogo(innerWidth(contentWidth, styles.logo), styles)
	barWidth := innerWidth(contentWidth, styles.bar)
	chromeContent := renderHeaderMeta(m, styles)
	if barWidth > 0 {
		chromeContent = lipgloss.NewStyle().MaxWidth(barWidth).Render(chromeContent)
	}
	chrome := styles.bar.Width(barWidth).Render(chromeContent)

	gap := styles.gap.Render(" ")
	mainMinOuter := styles.panel.GetHorizontalFrameSize() + 24
	var body string
	if contentWidth < sidebarOuterWidth+1+mainMinOuter {
		sidebar := styles.sidebar.Width(innerWidth(contentWidth, styles.sidebar)).Render(renderSidebar(m, styles))
		mainWidth := innerWidth(contentWidth, styles.panel)
		main := styles.panel.Width(mainWidth).Render(renderMain(m, styles, mainWidth))
		body = lipgloss.JoinVertical(lipgloss.Left, sidebar, main)
	} else {
		mainOuter := contentWidth - sidebarOuterWidth - 1
		sidebar := styles.sidebar.Width(innerWidth(sidebarOuterWidth, styles.sidebar)).Render(renderSidebar(m, styles))
		mainWidth := innerWidth(mainOuter, styles.panel)
		main := styles.panel.Width(mainWidth).Render(renderMain(m, styles, mainWidth))
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, gap, main)
	}
	body = lipgloss.NewStyle().Width(contentWidth).Render(body)

	statusWidth := innerWidth(contentWidth, styles.status)
	statusContent := renderStatus(m, styles)
	if statusWidth > 0 {
		statusContent = lipgloss.NewStyle().MaxWidth(statusWidth).Render(statusContent)
	}
	status := styles.status.Width(statusWidth).Render(statusContent)

	layout := lipgloss.JoinVertical(lipgloss.Left, logo, chrome, body, status)
	canvas := styles.canvas.Width(contentWidth)
	if m.height > 0 {
		canvas = canvas.Height(contentHeight)
	}
	return canvas.Render(layout)
}

func renderSidebar(m Model, styles uiStyles) string {
	cache := m.statsCache
	lines := []string{
		styles.accent.Render("CONNECTION"),
		connectionIndicator(m, styles),
		"",
		styles.accent.Render("LOG"),
		chipLine(styles, "messages", fmt.Sprintf("%d", len(m.snapshot.Events))),
		chipLine(styles, "follow", onOff(m.follow)),
		"",
		styles.accent.Render("STATS"),
		styles.good.Render(fmt.Sprintf("events/s: %d", lastValue(m.snapshot.Stats.EventsPerSec))),
		styles.muted.Render(cache.rate),
		cache.summary,
		styles.warn.Render(cache.faults),
		cache.actions,
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderMain(m Model, styles uiStyles, width int) string {
	lines := []string{}
	if m.lastErr != "" {
		lines = append(lines, styles.bad.Render("error: "+m.lastErr), "")
	}
	lines = append(lines, styles.header.Render(fmt.Sprintf("Messages (%d)", len(m.snapshot.Events))))
	lines = append(lines, renderEvents(m, styles, width, m.listRows())...)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) listRows() int {
	if m.height <= 0 {
		return defaultListRows
	}
	return max(3, m.height-chromeRows)
}

func renderStatus(m Model, styles uiStyles) string {
	key := func(combo, desc string) string {
		return styles.accent.Render(combo) + styles.muted.Render(" "+desc)
	}
	parts := []string{
		key("p", "send "+m.action),
		key("c", "clear"),
		key("↑/↓", "scroll"),
		key("f", "follow"),
		key("q", "quit"),
	}
	status := strings.Join(parts, styles.gap.Render("  "))
	if !m.follow {
		status += styles.warn.Render("  | paused")
	}
	if m.stopped {
		status += styles.bad.Render("  | stopped")
	}
	return status
}
