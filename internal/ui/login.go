package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/harmonic/internal/services"
)

const (
	loginEmail = iota
	loginPassword
)

// loginForm is the sign-in prompt shown whenever there is no session.
type loginForm struct {
	inputs  [2]textinput.Model
	focus   int
	message string
	isError bool
	busy    bool
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Prompt = ""

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Prompt = ""

	f := loginForm{inputs: [2]textinput.Model{email, password}}
	f.setFocus(loginEmail)
	return f
}

func (f *loginForm) setFocus(i int) {
	f.focus = i
	for idx := range f.inputs {
		if idx == i {
			f.inputs[idx].Focus()
		} else {
			f.inputs[idx].Blur()
		}
	}
}

// reset clears the password and any message but keeps the email.
func (f *loginForm) reset() {
	f.inputs[loginPassword].SetValue("")
	f.message = ""
	f.isError = false
	f.busy = false
	f.setFocus(loginEmail)
}

func (f *loginForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f loginForm) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (f loginForm) request() services.LoginRequest {
	return services.LoginRequest{
		Email:    strings.TrimSpace(f.inputs[loginEmail].Value()),
		Password: f.inputs[loginPassword].Value(),
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.login.setFocus(1 - m.login.focus)
		return m, nil

	case "esc":
		m.login.message = ""
		m.login.isError = false
		return m, nil

	case "enter":
		if m.login.focus == loginEmail {
			m.login.setFocus(loginPassword)
			return m, nil
		}
		return m.submitLogin()
	}

	if key.Matches(msg, m.keys.Demo) {
		return m.submitDemo()
	}
	return m, m.login.update(msg)
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.login.busy || m.actions == nil {
		return m, nil
	}
	m.login.busy = true
	m.login.message = "Signing in..."
	m.login.isError = false
	a, req := m.actions, m.login.request()
	return m, runAction(m.ctx, opLogin, func(ctx context.Context) error {
		_, err := a.Login(ctx, req)
		return err
	})
}

func (m Model) submitDemo() (tea.Model, tea.Cmd) {
	if m.login.busy || m.actions == nil {
		return m, nil
	}
	m.login.busy = true
	m.login.message = "Starting demo session..."
	m.login.isError = false
	a := m.actions
	return m, runAction(m.ctx, opDemo, func(ctx context.Context) error {
		_, err := a.DemoLogin(ctx)
		return err
	})
}

// renderLogin renders the centered sign-in box.
func (m Model) renderLogin() string {
	bg := newPainter(m.theme.Surface)
	styles := m.theme.Styles().WithBackground(m.theme.Surface)

	var b strings.Builder
	b.WriteString(bg.Render("harmonic", styles.Logo))
	b.WriteString("\n")
	b.WriteString(bg.Render("Sign in to "+truncateMiddle(m.apiURL, 40), styles.MutedText))
	b.WriteString("\n\n")

	labels := [2]string{"Email", "Password"}
	for i, in := range m.login.inputs {
		label := styles.MutedText
		if i == m.login.focus {
			label = styles.AccentText.Bold(true)
		}
		b.WriteString(bg.Render(padRight(labels[i], 10), label))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.login.message != "" {
		msgStyle := styles.InfoText
		if m.login.isError {
			msgStyle = styles.DangerText
		}
		b.WriteString(bg.Render(truncate(m.login.message, 56), msgStyle))
		b.WriteString("\n\n")
	}

	hints := []string{
		bg.Render("enter", styles.AccentText) + bg.Sep(":") + bg.Render("Sign in", styles.MutedText),
		bg.Render("tab", styles.AccentText) + bg.Sep(":") + bg.Render("Next field", styles.MutedText),
		bg.Render("ctrl+d", styles.AccentText) + bg.Sep(":") + bg.Render("Demo", styles.MutedText),
		bg.Render("ctrl+c", styles.AccentText) + bg.Sep(":") + bg.Render("Quit", styles.MutedText),
	}
	b.WriteString(bg.Join(hints, "  "))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Background(lipgloss.Color(m.theme.Surface)).
		Padding(1, 2).
		Width(64).
		Render(b.String())

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(lipgloss.Color(m.theme.Background)),
	)
}
