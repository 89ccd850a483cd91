package tui

import (
	"github.com/charmbracelet/lipgloss"

	"QuantDash/internal/scheduler"
)

type styles struct {
	title    lipgloss.Style
	symbol   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	dim      lipgloss.Style
	gain     lipgloss.Style
	loss     lipgloss.Style
	err      lipgloss.Style
	status   lipgloss.Style
	card     lipgloss.Style
	pulse    lipgloss.Style
	selected lipgloss.Style
	palette  lipgloss.Style
	help     lipgloss.Style
}

// palettes per theme: text, muted, accent, border, highlight background.
var themeColors = map[scheduler.Theme][5]lipgloss.Color{
	scheduler.ThemeDark:  {"15", "245", "12", "240", "236"},
	scheduler.ThemeLight: {"0", "242", "4", "250", "254"},
}

func newStyles(theme scheduler.Theme) styles {
	c, ok := themeColors[theme]
	if !ok {
		c = themeColors[scheduler.ThemeDark]
	}
	text, muted, accent, border, hl := c[0], c[1], c[2], c[3], c[4]

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(36)

	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		symbol:   lipgloss.NewStyle().Bold(true).Foreground(text),
		label:    lipgloss.NewStyle().Foreground(muted),
		value:    lipgloss.NewStyle().Foreground(text),
		dim:      lipgloss.NewStyle().Foreground(muted),
		gain:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		loss:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		err:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		card:     card,
		pulse:    card.BorderForeground(accent),
		selected: lipgloss.NewStyle().Bold(true).Foreground(text).Background(hl),
		palette: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1).
			Width(48),
		help: lipgloss.NewStyle().Foreground(muted),
	}
}

func (s styles) change(pct float64) lipgloss.Style {
	if pct < 0 {
		return s.loss
	}
	return s.gain
}
