package ui

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/harmonic/internal/actions"
	"github.com/five82/harmonic/internal/events"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/prefs"
	"github.com/five82/harmonic/internal/services"
	"github.com/five82/harmonic/internal/session"
	"github.com/five82/harmonic/internal/state"
)

type harness struct {
	actions   *actions.Actions
	store     *state.Store
	bus       *events.Bus
	prefsPath string
}

func newHarness(t *testing.T, handler http.HandlerFunc) harness {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess := session.NewManager(session.NewMemoryStorage())
	bus := &events.Bus{}
	client, err := httpclient.New(httpclient.Options{
		BaseURL: server.URL,
		Retry:   httpclient.RetryPolicy{Statuses: httpclient.DefaultRetryStatuses},
		Session: sess,
		Bus:     bus,
	})
	require.NoError(t, err)

	store := &state.Store{}
	return harness{
		actions:   actions.New(store, services.New(client, sess, nil), nil),
		store:     store,
		bus:       bus,
		prefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
}

func (h harness) model(t *testing.T) Model {
	t.Helper()
	m := New(Options{
		Actions:   h.actions,
		Store:     h.store,
		Bus:       h.bus,
		LogPath:   filepath.Join(t.TempDir(), "harmonic.log"),
		APIURL:    "http://backend.test",
		PrefsPath: h.prefsPath,
	})
	t.Cleanup(m.subs.close)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends one key and returns the model and any command it produced.
func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(keyMsg(k))
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// finish runs an action command synchronously and feeds the result back.
func finish(t *testing.T, m Model, cmd tea.Cmd) (Model, actionDoneMsg) {
	t.Helper()
	require.NotNil(t, cmd)
	done, ok := cmd().(actionDoneMsg)
	require.True(t, ok, "expected an action result")
	return update(t, m, done), done
}

func signedIn(t *testing.T, h harness) Model {
	t.Helper()
	_, err := h.actions.DemoLogin(context.Background())
	require.NoError(t, err)
	m := h.model(t)
	require.Equal(t, ViewUniverses, m.currentView)
	return m
}

func emptyBackend(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, `{"universes":[]}`)
}

func TestStartsOnLoginWithoutSession(t *testing.T) {
	m := newHarness(t, emptyBackend).model(t)
	assert.Equal(t, ViewLogin, m.currentView)
	assert.Contains(t, m.View(), "Sign in")
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
	})
	m := h.model(t)

	m, _ = press(t, m, "ada@example.com")
	m, _ = press(t, m, "tab")
	m, _ = press(t, m, "secret")
	m, cmd := press(t, m, "enter")
	assert.True(t, m.login.busy)

	m, done := finish(t, m, cmd)
	require.Error(t, done.err)
	assert.False(t, m.login.busy)
	assert.Equal(t, "Invalid credentials", m.login.message)
	assert.Equal(t, ViewLogin, m.currentView)
}

func TestDemoLoginSwitchesToUniverses(t *testing.T) {
	h := newHarness(t, emptyBackend)
	m := h.model(t)

	m, cmd := press(t, m, "ctrl+d")
	m, done := finish(t, m, cmd)
	require.NoError(t, done.err)

	m = update(t, m, snapshotMsg(h.store.Snapshot()))
	assert.Equal(t, ViewUniverses, m.currentView)
	assert.True(t, m.snapshot.Auth.IsDemo)
	assert.Contains(t, m.View(), "DEMO")
}

func TestHelpToggle(t *testing.T) {
	m := signedIn(t, newHarness(t, emptyBackend))

	m, _ = press(t, m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = press(t, m, "j")
	assert.False(t, m.showHelp)
}

func TestThemeCycleSavesPreference(t *testing.T) {
	h := newHarness(t, emptyBackend)
	m := signedIn(t, h)
	require.Equal(t, "Nightfox", m.theme.Name)

	m, _ = press(t, m, "T")
	assert.Equal(t, "Kanagawa", m.theme.Name)

	saved, err := prefs.Load(h.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, "Kanagawa", saved.Theme)
}

func TestThemeCycleFlashesSaveFailure(t *testing.T) {
	h := newHarness(t, emptyBackend)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	h.prefsPath = filepath.Join(blocker, "prefs.toml")
	m := signedIn(t, h)

	m, _ = press(t, m, "T")
	assert.Equal(t, "Kanagawa", m.theme.Name, "theme still changes in memory")
	assert.Contains(t, m.flash, "save preferences")
	assert.Contains(t, m.View(), "save preferences")
}

func TestForcedSignOutRedirectsToLogin(t *testing.T) {
	h := newHarness(t, emptyBackend)
	m := signedIn(t, h)

	h.store.Dispatch(state.Action{
		Type:  state.AuthSignedOut,
		Error: &state.Failure{Message: "Token has expired", Status: http.StatusUnauthorized},
	})
	m = update(t, m, snapshotMsg(h.store.Snapshot()))

	assert.Equal(t, ViewLogin, m.currentView)
	assert.True(t, m.login.isError)
	assert.Contains(t, m.login.message, "expired")
}

func TestServerErrorBanner(t *testing.T) {
	m := signedIn(t, newHarness(t, emptyBackend))

	m = update(t, m, busEventMsg(events.Event{
		Topic:   events.TopicServerError,
		Status:  http.StatusServiceUnavailable,
		URL:     "/api/universes",
		Message: "maintenance",
	}))
	assert.Equal(t, "503 maintenance (/api/universes)", m.serverError)
	assert.Contains(t, m.View(), "maintenance")

	m = update(t, m, tickMsg(time.Now().Add(ServerBannerTTL+time.Second)))
	assert.Empty(t, m.serverError, "banner expires")

	m = update(t, m, busEventMsg(events.Event{Status: 500}))
	m, _ = press(t, m, "esc")
	assert.Empty(t, m.serverError, "esc dismisses")
}

func TestSelectUniverseThenCreateScene(t *testing.T) {
	var posted services.SceneInput
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/universes":
			_, _ = io.WriteString(w, `{"universes":[{"id":3,"name":"Aurora"},{"id":7,"name":"Borealis"}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/universes/7/scenes":
			_, _ = io.WriteString(w, `{"scenes":[]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/scenes":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"scene":{"id":42,"universe_id":7,"name":"Intro"}}`)
		default:
			http.NotFound(w, r)
		}
	})
	m := signedIn(t, h)
	_, err := h.actions.FetchUniverses(context.Background())
	require.NoError(t, err)
	m = update(t, m, snapshotMsg(h.store.Snapshot()))
	require.Len(t, m.snapshot.Universes.Items, 2)

	m, _ = press(t, m, "j")
	m, cmd := press(t, m, "enter")
	m, done := finish(t, m, cmd)
	require.NoError(t, done.err)
	m = update(t, m, snapshotMsg(h.store.Snapshot()))
	assert.Equal(t, int64(7), m.snapshot.Universes.CurrentID)
	assert.Equal(t, 1, m.focusedPane)

	saved, err := prefs.Load(h.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, int64(7), saved.LastUniverseID)

	m, _ = press(t, m, "n")
	require.True(t, m.sceneInput.active)
	m, cmd = press(t, m, "enter")
	assert.Nil(t, cmd, "empty name is rejected locally")
	assert.Equal(t, "name is required", m.sceneInput.err)

	m, _ = press(t, m, "Intro")
	m, cmd = press(t, m, "enter")
	assert.False(t, m.sceneInput.active)
	m, done = finish(t, m, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, services.SceneInput{UniverseID: 7, Name: "Intro"}, posted)

	m = update(t, m, snapshotMsg(h.store.Snapshot()))
	scenes := m.currentScenes()
	require.Len(t, scenes, 1)
	assert.Equal(t, "Intro", scenes[0].Name)
	assert.Equal(t, int64(42), m.snapshot.Scenes.CurrentID)
	assert.Contains(t, m.View(), "Intro")
}

func TestFailedActionFlashesMessage(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"universe not found"}`)
	})
	m := signedIn(t, h)

	m, cmd := press(t, m, "r")
	m, done := finish(t, m, cmd)
	require.Error(t, done.err)
	assert.Equal(t, "universe not found", m.flash)
	assert.Contains(t, m.renderStatusLine(), "universe not found")
}

func TestLogViewTailsClientLog(t *testing.T) {
	m := signedIn(t, newHarness(t, emptyBackend))

	m, cmd := press(t, m, "l")
	assert.Equal(t, ViewLogs, m.currentView)
	require.NotNil(t, cmd)

	m = update(t, m, logLinesMsg{lines: []string{
		"10:00:00 INFO  actions  signed in",
		"10:00:01 ERROR httpclient  request failed  status=500",
	}})
	view := m.View()
	assert.Contains(t, view, "signed in")
	assert.Contains(t, view, "request failed")

	m, _ = press(t, m, " ")
	assert.False(t, m.logState.follow)
	assert.True(t, strings.Contains(m.renderCommandBar(), "Follow"))

	m, _ = press(t, m, "u")
	assert.Equal(t, ViewUniverses, m.currentView)
}
