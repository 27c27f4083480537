package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// painter renders segments on a fixed background. lipgloss resets the
// background after each styled run, so spaces between segments are painted
// explicitly or they show the terminal default.
type painter struct {
	bg    lipgloss.Color
	blank string
}

func newPainter(color string) painter {
	bg := lipgloss.Color(color)
	return painter{bg: bg, blank: lipgloss.NewStyle().Background(bg).Render(" ")}
}

// Render styles text word by word so inner spaces keep the background.
func (p painter) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	style = style.Background(p.bg)
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, p.blank)
}

func (p painter) Space() string { return p.blank }

func (p painter) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(p.blank, n)
}

func (p painter) Sep(sep string) string {
	return lipgloss.NewStyle().Background(p.bg).Render(sep)
}

func (p painter) Join(parts []string, sep string) string {
	return strings.Join(parts, p.Sep(sep))
}

// FillLine pads content to width with the background color.
func (p painter) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(p.bg).Width(width).Render(content)
}
