package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// logState holds the client log view state.
type logState struct {
	lines  []string
	follow bool
	err    string

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
}

// initLogViewport initializes the log viewport.
func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(max(m.width-2, 0), max(m.paneHeight()-2, 0))
	m.logViewport.Style = lipgloss.NewStyle()
}

// updateLogViewport updates the log viewport with current content.
func (m *Model) updateLogViewport() {
	if m.logViewport.Width == 0 && m.width > 0 {
		m.initLogViewport()
	}
	// Box inner = pane height - top and bottom borders
	m.logViewport.Width = max(m.width-2, 0)
	m.logViewport.Height = max(m.paneHeight()-2, 0)
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.logState.lastRendered == 0 || m.logState.contentVersion != m.logState.lastRendered {
		m.logViewport.SetContent(m.renderLogContent())
		m.logState.lastRendered = max(m.logState.contentVersion, 1)
	}

	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	if msg.err != nil {
		m.logState.err = msg.err.Error()
		return
	}
	m.logState.err = ""
	if equalLines(m.logState.lines, msg.lines) {
		return
	}
	m.logState.lines = msg.lines
	m.logState.contentVersion++
	m.updateLogViewport()
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	title := "Client Log"
	if m.logPath != "" {
		title += " " + truncateMiddle(m.logPath, max(m.width/2, 20))
	}
	return m.renderTitledBox(title, m.logViewport.View(), m.width, m.paneHeight(), true)
}

// renderLogContent colors each formatted line by its level.
func (m *Model) renderLogContent() string {
	bg := newPainter(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	if len(m.logState.lines) == 0 {
		return bg.Render("No log output yet.", styles.MutedText)
	}
	out := make([]string, 0, len(m.logState.lines))
	for _, line := range m.logState.lines {
		out = append(out, m.colorizeLine(line, styles, bg))
	}
	return strings.Join(out, "\n")
}

// colorizeLine highlights the level column of a formatted log line.
func (m *Model) colorizeLine(line string, styles Styles, bg painter) string {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 3 {
		return bg.Render(line, styles.Text)
	}
	level := strings.TrimSpace(fields[1])
	levelStyle := m.levelStyle(level, styles)
	if levelStyle == nil {
		return bg.Render(line, styles.Text)
	}
	return bg.Render(fields[0], styles.FaintText) + bg.Space() +
		bg.Render(fields[1], *levelStyle) + bg.Space() +
		bg.Render(fields[2], styles.Text)
}

func (m *Model) levelStyle(level string, styles Styles) *lipgloss.Style {
	var s lipgloss.Style
	switch level {
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		s = styles.DangerText
	case "WARN":
		s = styles.WarningText
	case "INFO":
		s = styles.InfoText
	case "DEBUG":
		s = styles.FaintText
	default:
		return nil
	}
	return &s
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
			return m, loadLogsCmd(m.logPath)
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.HalfPageUp):
		m.logState.follow = false
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// logStatus summarizes the log view for the status line.
func (m Model) logStatus() string {
	if m.logState.err != "" {
		return "log unavailable: " + m.logState.err
	}
	return fmt.Sprintf("%d lines  auto-tail %s", len(m.logState.lines), ternary(m.logState.follow, "on", "off"))
}
