package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/prefs"
	"github.com/five82/harmonic/internal/state"
)

// currentScenes returns the scenes of the selected universe.
func (m Model) currentScenes() []model.Scene {
	if m.snapshot.Universes.CurrentID == 0 {
		return nil
	}
	return m.snapshot.ScenesFor(m.snapshot.Universes.CurrentID)
}

func (m Model) highlightedUniverse() (model.Universe, bool) {
	items := m.snapshot.Universes.Items
	if m.universeRow < 0 || m.universeRow >= len(items) {
		return model.Universe{}, false
	}
	return items[m.universeRow], true
}

func (m Model) highlightedScene() (model.Scene, bool) {
	scenes := m.currentScenes()
	if m.sceneRow < 0 || m.sceneRow >= len(scenes) {
		return model.Scene{}, false
	}
	return scenes[m.sceneRow], true
}

// handleUniversesKey processes keyboard input for the universe view.
func (m Model) handleUniversesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		m.focusedPane = 1 - m.focusedPane
		return m, nil
	case key.Matches(msg, m.keys.NewScene):
		return m.openSceneInput()
	case key.Matches(msg, m.keys.Select):
		if m.focusedPane == 0 {
			return m.selectUniverse()
		}
		if sc, ok := m.highlightedScene(); ok && m.actions != nil {
			m.actions.SelectScene(sc.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if m.focusedPane == 1 {
			return m.deleteScene()
		}
		return m, nil
	}

	row, count := &m.universeRow, len(m.snapshot.Universes.Items)
	if m.focusedPane == 1 {
		row, count = &m.sceneRow, len(m.currentScenes())
	}
	if count == 0 {
		return m, nil
	}
	half := max(m.paneHeight()/2, 1)
	switch {
	case key.Matches(msg, m.keys.Down):
		*row = min(*row+1, count-1)
	case key.Matches(msg, m.keys.Up):
		*row = max(*row-1, 0)
	case key.Matches(msg, m.keys.Top):
		*row = 0
	case key.Matches(msg, m.keys.Bottom):
		*row = count - 1
	case key.Matches(msg, m.keys.HalfPageDown):
		*row = min(*row+half, count-1)
	case key.Matches(msg, m.keys.HalfPageUp):
		*row = max(*row-half, 0)
	}
	return m, nil
}

// selectUniverse makes the highlighted universe current, remembers it and
// loads its scenes.
func (m Model) selectUniverse() (tea.Model, tea.Cmd) {
	u, ok := m.highlightedUniverse()
	if !ok || m.actions == nil {
		return m, nil
	}
	m.actions.SelectUniverse(u.ID)
	m.snapshot.Universes.CurrentID = u.ID
	m.sceneRow = 0
	m.focusedPane = 1
	id := u.ID
	m.savePrefs(func(p *prefs.Prefs) { p.LastUniverseID = id })
	a := m.actions
	return m, runAction(m.ctx, opFetchScenes, func(ctx context.Context) error {
		_, err := a.FetchScenes(ctx, u.ID)
		return err
	})
}

func (m Model) deleteScene() (tea.Model, tea.Cmd) {
	sc, ok := m.highlightedScene()
	if !ok || m.actions == nil {
		return m, nil
	}
	a, uid := m.actions, m.snapshot.Universes.CurrentID
	return m, runAction(m.ctx, opDeleteScene, func(ctx context.Context) error {
		return a.DeleteScene(ctx, sc.ID, uid)
	})
}

// paneHeight is the height of the boxes below the two header lines.
func (m Model) paneHeight() int {
	return max(m.height-3, 3)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())

	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderUniverses()
	}
}

// renderUniverses lays the list and detail panes out side by side, or
// stacked on narrow terminals.
func (m Model) renderUniverses() string {
	height := m.paneHeight()
	if m.width < LayoutSplitWidth {
		top := height / 2
		return m.renderTitledBox(m.universeListTitle(), m.renderUniverseList(m.width-2, top-2), m.width, top, m.focusedPane == 0) +
			"\n" +
			m.renderTitledBox(m.detailTitle(), m.renderDetail(m.width-2, height-top-2), m.width, height-top, m.focusedPane == 1)
	}

	listWidth := max(m.width*2/5, 30)
	detailWidth := m.width - listWidth
	left := m.renderTitledBox(m.universeListTitle(), m.renderUniverseList(listWidth-2, height-2), listWidth, height, m.focusedPane == 0)
	right := m.renderTitledBox(m.detailTitle(), m.renderDetail(detailWidth-2, height-2), detailWidth, height, m.focusedPane == 1)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) universeListTitle() string {
	return fmt.Sprintf("Universes (%d)", len(m.snapshot.Universes.Items))
}

func (m Model) detailTitle() string {
	if u, ok := m.snapshot.CurrentUniverse(); ok {
		return truncate(u.Name, 40)
	}
	return "Detail"
}

func (m Model) renderUniverseList(width, height int) string {
	bgColor := ternary(m.focusedPane == 0, m.theme.FocusBg, m.theme.SurfaceAlt)
	bg := newPainter(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)
	items := m.snapshot.Universes.Items

	if len(items) == 0 {
		switch m.snapshot.Universes.Status {
		case state.StatusLoading:
			return bg.Render("Loading universes...", styles.MutedText)
		case state.StatusFailed:
			return bg.Render(m.snapshot.Universes.Error.Error(), styles.DangerText)
		}
		return bg.Render("No universes yet.", styles.MutedText)
	}

	start := scrollStart(m.universeRow, len(items), height)
	end := min(start+height, len(items))
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		u := items[i]
		marker := ternary(u.ID == m.snapshot.Universes.CurrentID, "● ", "  ")
		visibility := ternary(u.IsPublic, "public", "private")
		name := padRight(truncate(u.Name, width-12), width-10)
		line := marker + name + visibility
		if i == m.universeRow {
			lines = append(lines, styles.Selected.Width(width).Render(line))
			continue
		}
		lines = append(lines,
			bg.Render(marker, styles.AccentText)+bg.Render(name, styles.Text)+bg.Render(visibility, styles.FaintText))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetail(width, height int) string {
	bgColor := ternary(m.focusedPane == 1, m.theme.FocusBg, m.theme.SurfaceAlt)
	bg := newPainter(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	u, ok := m.snapshot.CurrentUniverse()
	if !ok {
		if h, ok := m.highlightedUniverse(); ok {
			return bg.Render("Press enter to open "+truncate(h.Name, width-20), styles.MutedText)
		}
		return bg.Render("No universe selected.", styles.MutedText)
	}

	var lines []string
	field := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, bg.Render(padRight(label, 12), styles.MutedText)+bg.Render(truncate(value, width-12), styles.Text))
	}
	if u.Description != "" {
		lines = append(lines, bg.Render(truncate(u.Description, width), styles.Text), "")
	}
	field("Visibility", ternary(u.IsPublic, "public", "private"))
	field("Genre", u.Genre)
	field("Theme", u.Theme)
	field("Created", shortDate(u.CreatedAt))
	field("Updated", shortDate(u.UpdatedAt))
	lines = append(lines, "")

	scenes := m.currentScenes()
	header := fmt.Sprintf("Scenes (%d)", len(scenes))
	if m.snapshot.Scenes.Status == state.StatusLoading {
		header += "  loading..."
	}
	lines = append(lines, bg.Render(header, styles.AccentText.Bold(true)))
	if err := m.snapshot.Scenes.Error; err != nil {
		lines = append(lines, bg.Render(truncate(err.Message, width), styles.DangerText))
	}
	if len(scenes) == 0 {
		lines = append(lines, bg.Render("No scenes. Press n to add one.", styles.FaintText))
		return strings.Join(lines, "\n")
	}

	room := max(height-len(lines), 1)
	start := scrollStart(m.sceneRow, len(scenes), room)
	end := min(start+room, len(scenes))
	for i := start; i < end; i++ {
		sc := scenes[i]
		marker := ternary(sc.ID == m.snapshot.Scenes.CurrentID, "▸ ", "  ")
		line := marker + padRight(fmt.Sprintf("%d.", sc.SceneOrder), 5) + truncate(sc.Name, width-8)
		if m.focusedPane == 1 && i == m.sceneRow {
			lines = append(lines, styles.Selected.Width(width).Render(line))
			continue
		}
		lines = append(lines, bg.Render(line, styles.Text))
	}
	return strings.Join(lines, "\n")
}

// scrollStart returns the first visible row so that selected stays in view.
func scrollStart(selected, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	start := selected - height/2
	return min(max(start, 0), total-height)
}

// renderTitledBox renders content in a box with the title embedded in the top border.
// When focused is true, uses BorderFocus color and FocusBg background.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := newPainter(bgColorStr)
	borderColor := lipgloss.Color(borderColorStr)
	bgColor := lipgloss.Color(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(bgColor)

	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	paddedLines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		paddedLines = append(paddedLines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(paddedLines, "\n") + "\n" + bottomBorder
}
