package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/harmonic/internal/services"
)

// sceneInput is the modal that names a new scene in the current universe.
type sceneInput struct {
	input      textinput.Model
	active     bool
	universeID int64
	order      int
	err        string
}

func newSceneInput() sceneInput {
	ti := textinput.New()
	ti.Placeholder = "Scene name"
	ti.CharLimit = 100
	ti.Prompt = "> "
	return sceneInput{input: ti}
}

func (s *sceneInput) open(universeID int64, order int) tea.Cmd {
	s.active = true
	s.universeID = universeID
	s.order = order
	s.err = ""
	s.input.SetValue("")
	return s.input.Focus()
}

func (s *sceneInput) close() {
	s.active = false
	s.err = ""
	s.input.Blur()
}

func (s *sceneInput) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

func (m Model) openSceneInput() (tea.Model, tea.Cmd) {
	universe, ok := m.snapshot.CurrentUniverse()
	if !ok {
		m.flash = "Select a universe first"
		m.flashAt = time.Now()
		return m, nil
	}
	cmd := m.sceneInput.open(universe.ID, len(m.currentScenes()))
	return m, cmd
}

func (m Model) handleSceneInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.sceneInput.close()
		return m, nil

	case "enter":
		name := strings.TrimSpace(m.sceneInput.input.Value())
		if name == "" {
			m.sceneInput.err = "name is required"
			return m, nil
		}
		if m.actions == nil {
			m.sceneInput.close()
			return m, nil
		}
		in := services.SceneInput{
			UniverseID: m.sceneInput.universeID,
			Name:       name,
			SceneOrder: m.sceneInput.order,
		}
		m.sceneInput.close()
		a := m.actions
		return m, runAction(m.ctx, opCreateScene, func(ctx context.Context) error {
			_, err := a.CreateScene(ctx, in)
			return err
		})
	}
	return m, m.sceneInput.update(msg)
}

func (m Model) renderSceneInput() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newPainter(m.theme.Surface)

	universeName := fmt.Sprintf("#%d", m.sceneInput.universeID)
	if u, ok := m.snapshot.CurrentUniverse(); ok {
		universeName = u.Name
	}

	var b strings.Builder
	b.WriteString(bg.Render("New scene", styles.Text.Bold(true)))
	b.WriteString("\n")
	b.WriteString(bg.Render("in "+truncate(universeName, 40), styles.MutedText))
	b.WriteString("\n\n")
	b.WriteString(m.sceneInput.input.View())
	b.WriteString("\n")
	if m.sceneInput.err != "" {
		b.WriteString("\n")
		b.WriteString(bg.Render(m.sceneInput.err, styles.DangerText))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(bg.Render("enter", styles.AccentText) + bg.Sep(":") + bg.Render("Create", styles.MutedText) +
		bg.Spaces(2) + bg.Render("esc", styles.AccentText) + bg.Sep(":") + bg.Render("Cancel", styles.MutedText))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Background(lipgloss.Color(m.theme.Surface)).
		Padding(1, 2).
		Width(52).
		Render(b.String())

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(lipgloss.Color(m.theme.Background)),
	)
}
