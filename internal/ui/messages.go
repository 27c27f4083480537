package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/harmonic/internal/events"
	"github.com/five82/harmonic/internal/logtail"
	"github.com/five82/harmonic/internal/state"
)

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type busEventMsg events.Event

// actionDoneMsg reports the outcome of a request started from the UI. The
// store already holds the result; the message only carries what the UI
// shows transiently.
type actionDoneMsg struct {
	op  string
	err error
}

type logLinesMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// waitForStore blocks until the store changes. A closed channel ends the
// loop.
func waitForStore(store *state.Store, ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return snapshotMsg(store.Snapshot())
	}
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return busEventMsg(evt)
	}
}

// runAction wraps a blocking call in a command with its own timeout.
func runAction(parent context.Context, op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, ActionTimeout)
		defer cancel()
		return actionDoneMsg{op: op, err: fn(ctx)}
	}
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		raw, err := logtail.Read(path, LogBufferLimit)
		if err != nil {
			return logLinesMsg{err: err}
		}
		lines := make([]string, 0, len(raw))
		for _, line := range raw {
			lines = append(lines, logtail.Format(logtail.Parse(line)))
		}
		return logLinesMsg{lines: lines}
	}
}
