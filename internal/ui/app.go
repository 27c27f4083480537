package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/harmonic/internal/actions"
	"github.com/five82/harmonic/internal/events"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/prefs"
	"github.com/five82/harmonic/internal/response"
	"github.com/five82/harmonic/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewLogin View = iota
	ViewUniverses
	ViewLogs
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Actions   *actions.Actions
	Store     *state.Store
	Bus       *events.Bus
	LogPath   string
	APIURL    string
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
}

// subscriptions is shared by every copy of the Model so Run can release
// them once the program exits.
type subscriptions struct {
	storeCh  <-chan struct{}
	eventsCh <-chan events.Event
	cancel   []func()
}

func (s *subscriptions) close() {
	for _, c := range s.cancel {
		c()
	}
	s.cancel = nil
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	actions   *actions.Actions
	store     *state.Store
	logPath   string
	apiURL    string
	prefsPath string
	pollTick  time.Duration
	keys      keyMap
	subs      *subscriptions

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	focusedPane int // 0 = universes, 1 = detail

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Selection
	universeRow int
	sceneRow    int

	login      loginForm
	sceneInput sceneInput

	logViewport viewport.Model
	logState    logState

	// Banners
	serverError   string
	serverErrorAt time.Time
	flash         string
	flashAt       time.Time

	showHelp bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:         ctx,
		actions:     opts.Actions,
		store:       opts.Store,
		logPath:     opts.LogPath,
		apiURL:      opts.APIURL,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		subs:        &subscriptions{},
		theme:       GetTheme(themeName),
		currentView: ViewLogin,
		login:       newLoginForm(),
		sceneInput:  newSceneInput(),
		logState:    logState{follow: true},
	}

	if opts.Store != nil {
		ch, cancel := opts.Store.Subscribe()
		m.subs.storeCh = ch
		m.subs.cancel = append(m.subs.cancel, cancel)
		m = m.applySnapshot(opts.Store.Snapshot())
	}
	if opts.Bus != nil {
		ch, cancel := opts.Bus.Subscribe(events.TopicServerError)
		m.subs.eventsCh = ch
		m.subs.cancel = append(m.subs.cancel, cancel)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		m.login.focusCmd(),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store), waitForStore(m.store, m.subs.storeCh))
	}
	if m.subs.eventsCh != nil {
		cmds = append(cmds, waitForEvent(m.subs.eventsCh))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case snapshotMsg:
		m = m.applySnapshot(state.Snapshot(msg))
		var cmd tea.Cmd
		if m.store != nil {
			cmd = waitForStore(m.store, m.subs.storeCh)
		}
		return m, cmd

	case busEventMsg:
		m.serverError = serverErrorText(events.Event(msg))
		m.serverErrorAt = time.Now()
		return m, waitForEvent(m.subs.eventsCh)

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	// Keep the cursor blinking in whichever input owns focus.
	var cmd tea.Cmd
	switch {
	case m.currentView == ViewLogin:
		cmd = m.login.update(msg)
	case m.sceneInput.active:
		cmd = m.sceneInput.update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.currentView == ViewLogin {
		return m.renderLogin()
	}
	if m.sceneInput.active {
		return m.renderSceneInput()
	}
	return m.renderMain()
}

// applySnapshot stores snap and moves between the login prompt and the main
// views as the session comes and goes.
func (m Model) applySnapshot(snap state.Snapshot) Model {
	prevCurrent := m.snapshot.Universes.CurrentID
	m.snapshot = snap
	m.lastUpdated = time.Now()

	switch {
	case !snap.Auth.IsAuthenticated && m.currentView != ViewLogin:
		m.currentView = ViewLogin
		m.focusedPane = 0
		m.showHelp = false
		m.sceneInput.close()
		m.login.reset()
		if snap.Auth.VerificationFailed {
			m.login.message = "Your session has expired. Please sign in again."
			m.login.isError = true
		}
	case snap.Auth.IsAuthenticated && m.currentView == ViewLogin:
		m.currentView = ViewUniverses
		m.login.reset()
	}

	if cur := snap.Universes.CurrentID; cur != 0 && cur != prevCurrent {
		for i, u := range snap.Universes.Items {
			if u.ID == cur {
				m.universeRow = i
				break
			}
		}
		m.sceneRow = 0
	}
	m.clampSelection()
	return m
}

func (m *Model) clampSelection() {
	if n := len(m.snapshot.Universes.Items); m.universeRow >= n {
		m.universeRow = max(n-1, 0)
	}
	if n := len(m.currentScenes()); m.sceneRow >= n {
		m.sceneRow = max(n-1, 0)
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.currentView == ViewLogin {
		return m.handleLoginKey(msg)
	}
	if m.sceneInput.active {
		return m.handleSceneInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		m.savePrefs(func(p *prefs.Prefs) { p.Theme = name })
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.serverError != "" || m.flash != "" {
			m.serverError = ""
			m.flash = ""
			return m, nil
		}
		m.currentView = ViewUniverses
		return m, nil

	case key.Matches(msg, m.keys.ViewUniverses):
		m.currentView = ViewUniverses
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		m.logState.follow = true
		return m, loadLogsCmd(m.logPath)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Logout):
		return m, m.logoutCmd()
	}

	switch m.currentView {
	case ViewUniverses:
		return m.handleUniversesKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

// savePrefs persists a preference change, flashing the error on failure.
func (m *Model) savePrefs(mutate func(*prefs.Prefs)) {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Update(m.prefsPath, mutate); err != nil {
		m.flash = "save preferences: " + err.Error()
		m.flashAt = time.Now()
	}
}

// handleTick expires banners and keeps the log view following.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}

	if m.serverError != "" && now.Sub(m.serverErrorAt) > ServerBannerTTL {
		m.serverError = ""
	}
	if m.flash != "" && now.Sub(m.flashAt) > ServerBannerTTL {
		m.flash = ""
	}
	if m.currentView == ViewLogs && m.logState.follow {
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	switch msg.op {
	case opLogin, opDemo:
		m.login.busy = false
		if msg.err != nil {
			m.login.message = response.MessageOf(msg.err)
			m.login.isError = true
			return m, nil
		}
		return m, m.fetchUniversesCmd()
	}
	if msg.err != nil {
		m.flash = response.MessageOf(msg.err)
		m.flashAt = time.Now()
	}
	return m, nil
}

// Action operation names.
const (
	opLogin       = "login"
	opDemo        = "demo"
	opLogout      = "logout"
	opRefresh     = "refresh"
	opFetchScenes = "fetch-scenes"
	opCreateScene = "create-scene"
	opDeleteScene = "delete-scene"
)

func (m Model) fetchUniversesCmd() tea.Cmd {
	if m.actions == nil {
		return nil
	}
	a := m.actions
	return runAction(m.ctx, opRefresh, func(ctx context.Context) error {
		_, err := a.FetchUniverses(ctx)
		return err
	})
}

// refreshCmd re-fetches universes and the current universe's scenes,
// bypassing the response cache.
func (m Model) refreshCmd() tea.Cmd {
	if m.actions == nil {
		return nil
	}
	a := m.actions
	current := m.snapshot.Universes.CurrentID
	return runAction(m.ctx, opRefresh, func(ctx context.Context) error {
		if _, err := a.FetchUniverses(ctx, httpclient.NoCache()); err != nil {
			return err
		}
		if current == 0 {
			return nil
		}
		_, err := a.FetchScenes(ctx, current, httpclient.NoCache())
		return err
	})
}

func (m Model) logoutCmd() tea.Cmd {
	if m.actions == nil {
		return nil
	}
	a := m.actions
	return runAction(m.ctx, opLogout, func(ctx context.Context) error {
		return a.Logout(ctx)
	})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	defer m.subs.close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
