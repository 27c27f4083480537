package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/harmonic/internal/events"
	"github.com/five82/harmonic/internal/state"
)

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newPainter(m.theme.Surface)

	if m.serverError != "" {
		return styles.Header.Width(m.width).Render(
			bg.Render("harmonic", styles.Logo) + bg.Spaces(2) +
				bg.Render("SERVER", styles.DangerText.Bold(true)) + bg.Space() +
				bg.Render(truncate(m.serverError, max(m.width-30, 20)), styles.DangerText) + bg.Spaces(2) +
				bg.Render("esc", styles.AccentText) + bg.Sep(":") + bg.Render("dismiss", styles.FaintText),
		)
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(m.buildStatusContent(styles, bg))
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg painter) string {
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot

	var parts []string
	parts = append(parts, bg.Render("harmonic", styles.Logo))

	if u := snap.Auth.User; u != nil {
		userPart := bg.Render("●", styles.SuccessText) + bg.Space() + bg.Render(truncate(u.Username, 24), styles.Text)
		if snap.Auth.IsDemo {
			userPart += bg.Space() + bg.Render("DEMO", m.theme.Styles().StatusStyle("demo"))
		}
		parts = append(parts, userPart)
	}

	label := func(long, short string) string { return ternary(compact, short, long) }
	parts = append(parts,
		bg.Render(label("Universes:", "U:"), styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", len(snap.Universes.Items)), styles.Text),
		bg.Render(label("Scenes:", "S:"), styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", len(m.currentScenes())), styles.Text),
	)

	status := combinedStatus(snap)
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(status.String())))
	parts = append(parts, bg.Render(status.String(), statusStyle))

	if snap.IsOffline() {
		parts = append(parts,
			bg.Render("OFFLINE", m.theme.Styles().StatusStyle("offline"))+bg.Space()+
				bg.Render(fmt.Sprintf("%d failed refreshes", snap.ConsecutiveFailures), styles.WarningText))
	}

	if ts := relativeTime(m.lastUpdated, time.Now()); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	return bg.Join(parts, "  ")
}

// combinedStatus folds the slice statuses into one indicator: any failure
// wins, then any load in flight.
func combinedStatus(snap state.Snapshot) state.Status {
	statuses := []state.Status{snap.Auth.Status, snap.Universes.Status, snap.Scenes.Status}
	out := state.StatusIdle
	for _, s := range statuses {
		switch {
		case s == state.StatusFailed:
			return state.StatusFailed
		case s == state.StatusLoading:
			out = state.StatusLoading
		case s == state.StatusSucceeded && out == state.StatusIdle:
			out = state.StatusSucceeded
		}
	}
	return out
}

// serverErrorText renders a server-error event for the banner.
func serverErrorText(evt events.Event) string {
	msg := strings.TrimSpace(evt.Message)
	if msg == "" {
		msg = "server error"
	}
	if evt.Status > 0 {
		msg = fmt.Sprintf("%d %s", evt.Status, msg)
	}
	if evt.URL != "" {
		msg += " (" + evt.URL + ")"
	}
	return msg
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newPainter(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		commands = []cmd{
			{"Space", ternary(m.logState.follow, "Pause", "Follow")},
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"u", "Universes"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"enter", ternary(m.focusedPane == 0, "Open", "Select")},
			{"n", "New scene"},
		}
		if m.focusedPane == 1 {
			commands = append(commands, cmd{"x", "Delete"})
		}
		commands = append(commands,
			cmd{"r", "Refresh"},
			cmd{"Tab", "Focus"},
			cmd{"l", "Log"},
			cmd{"L", "Sign out"},
			cmd{"?", "More"},
		)
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// renderStatusLine shows the latest failure or a view summary.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := newPainter(m.theme.Background)
	limit := max(m.width-4, 10)

	var text string
	style := styles.FaintText
	switch {
	case m.flash != "":
		text, style = "! "+m.flash, styles.WarningText
	case m.snapshot.Universes.Error != nil:
		text, style = m.snapshot.Universes.Error.Message, styles.DangerText
	case m.snapshot.LastPollError != nil:
		text, style = "refresh failed: "+m.snapshot.LastPollError.Error(), styles.WarningText
	case m.currentView == ViewLogs:
		text = m.logStatus()
	default:
		text = m.apiURL
	}
	return bg.FillLine(bg.Render(truncate(text, limit), style), m.width)
}
