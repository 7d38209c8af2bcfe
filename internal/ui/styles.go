package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type uiStyles struct {
	header    lipgloss.Style
	meta      lipgloss.Style
	bar       lipgloss.Style
	panel     lipgloss.Style
	sidebar   lipgloss.Style
	status    lipgloss.Style
	muted     lipgloss.Style
	accent    lipgloss.Style
	warn      lipgloss.Style
	good      lipgloss.Style
	bad       lipgloss.Style
	canvas    lipgloss.Style
	logo      lipgloss.Style
	stamp     lipgloss.Style
	kind      lipgloss.Style
	data      lipgloss.Style
	chipLabel lipgloss.Style
	chipValue lipgloss.Style
	gap       lipgloss.Style
	bg        lipgloss.Color
}

const baseBGHex = "#050916"

func buildStyles(noColor bool) uiStyles {
	if noColor {
		border := lipgloss.Border{
			Top: "-", Bottom: "-", Left: "|", Right: "|",
			TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
		}
		plain := lipgloss.NewStyle()
		return uiStyles{
			header:    plain.Bold(true),
			meta:      plain,
			bar:       plain.Padding(0, 1).Border(border),
			panel:     plain.Padding(0, 1).Border(border),
			sidebar:   plain.Padding(0, 1).Border(border),
			status:    plain.Padding(0, 1).Border(border),
			muted:     plain,
			accent:    plain.Bold(true),
			warn:      plain,
			good:      plain,
			bad:       plain,
			canvas:    plain,
			logo:      plain,
			stamp:     plain,
			kind:      plain,
			data:      plain,
			chipLabel: plain,
			chipValue: plain,
			gap:       plain,
			bg:        lipgloss.Color(""),
		}
	}

	border := lipgloss.Border{
		Top: "─", Bottom: "─", Left: "│", Right: "│",
		TopLeft: "╭", TopRight: "╮", BottomLeft: "╰", BottomRight: "╯",
	}

	primary := lipgloss.Color("#C084FC")
	secondary := lipgloss.Color("#22D3EE")
	accentAlt := lipgloss.Color("#F472B6")
	muted := lipgloss.Color("#94A3B8")
	bg := lipgloss.Color(baseBGHex)
	good := lipgloss.Color("#10B981")
	warn := lipgloss.Color("#FBBF24")
	bad := lipgloss.Color("#F87171")

	return uiStyles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(secondary).Background(bg),
		meta:      lipgloss.NewStyle().Foreground(muted).Background(bg),
		bar:       lipgloss.NewStyle().Padding(0, 2).Border(border).BorderForeground(primary).Background(bg),
		panel:     lipgloss.NewStyle().Padding(0, 2).Border(border).BorderForeground(primary).Background(bg),
		sidebar:   lipgloss.NewStyle().Padding(0, 2).Border(border).BorderForeground(secondary).Background(bg),
		status:    lipgloss.NewStyle().Padding(0, 2).Border(border).BorderForeground(secondary).Background(bg),
		muted:     lipgloss.NewStyle().Foreground(muted).Background(bg),
		accent:    lipgloss.NewStyle().Foreground(accentAlt).Bold(true).Background(bg),
		warn:      lipgloss.NewStyle().Foreground(warn).Bold(true).Background(bg),
		good:      lipgloss.NewStyle().Foreground(good).Bold(true).Background(bg),
		bad:       lipgloss.NewStyle().Foreground(bad).Bold(true).Background(bg),
		canvas:    lipgloss.NewStyle().Foreground(lipgloss.Color("#E2E8F0")).Background(bg).Padding(1, 2),
		logo:      lipgloss.NewStyle().Padding(0, 2).Background(bg),
		stamp:     lipgloss.NewStyle().Foreground(muted).Background(bg),
		kind:      lipgloss.NewStyle().Foreground(primary).Background(bg),
		data:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FDE68A")).Background(bg),
		chipLabel: lipgloss.NewStyle().Foreground(muted).Bold(true).Background(bg),
		chipValue: lipgloss.NewStyle().Foreground(secondary).Background(bg),
		gap:       lipgloss.NewStyle().Background(bg),
		bg:        bg,
	}
}

func normalizeWidth(width int) int {
	if width < 0 {
		return 0
	}
	return width
}

func renderLogo(width int, styles uiStyles) string {
	logo := []string{
		"█▀█ █ █ █   █▀ █▀▀",
		"█▀▀ █▄█ █▄▄ ▄█ ██▄",
	}
	colored := make([]string, 0, len(logo))
	for _, line := range logo {
		colored = append(colored, rainbow(line, styles.bg))
	}
	return styles.logo.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, colored...))
}

func renderHeaderMeta(m Model, styles uiStyles) string {
	left := rainbow("Pulse", styles.bg)
	right := styles.meta.Render("server-sent events · " + m.eventsURL)
	spacer := styles.gap.Render("  ")
	return lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, right)
}

func rainbow(text string, bg lipgloss.Color) string {
	colors := []lipgloss.Color{
		lipgloss.Color("#F472B6"),
		lipgloss.Color("#C084FC"),
		lipgloss.Color("#60A5FA"),
		lipgloss.Color("#34D399"),
		lipgloss.Color("#FBBF24"),
		lipgloss.Color("#F97316"),
	}
	var out strings.Builder
	colorIndex := 0
	for _, r := range text {
		if r == ' ' {
			out.WriteString(lipgloss.NewStyle().Background(bg).Render(" "))
			continue
		}
		style := lipgloss.NewStyle().Foreground(colors[colorIndex%len(colors)]).Background(bg).Bold(true)
		out.WriteString(style.Render(string(r)))
		colorIndex++
	}
	return out.String()
}
