package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	Escape     key.Binding

	ViewUniverses key.Binding
	ViewLogs      key.Binding

	Select   key.Binding
	NewScene key.Binding
	Delete   key.Binding
	Refresh  key.Binding
	Logout   key.Binding

	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	ToggleFollow key.Binding

	// Login form only.
	Demo key.Binding
}

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

// DefaultKeyMap returns the default key bindings. ctrl+d is a half-page
// scroll in the lists and the demo shortcut on the login form.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit:       bind("e", "Quit", "ctrl+c", "e"),
		Help:       bind("h/?", "Toggle help", "h", "?"),
		CycleTheme: bind("T", "Cycle theme", "T"),
		Tab:        bind("tab", "Switch pane", "tab", "shift+tab"),
		Escape:     bind("esc", "Back to universes", "esc"),

		ViewUniverses: bind("u", "Universes", "u"),
		ViewLogs:      bind("l", "Client log", "l"),

		Select:   bind("enter", "Select", "enter"),
		NewScene: bind("n", "New scene", "n"),
		Delete:   bind("x", "Delete scene", "x"),
		Refresh:  bind("r", "Refresh", "r"),
		Logout:   bind("L", "Sign out", "L"),

		Up:           bind("k/up", "Move up", "k", "up"),
		Down:         bind("j/down", "Move down", "j", "down"),
		Top:          bind("g", "Go to top", "g", "home"),
		Bottom:       bind("G", "Go to bottom", "G", "end"),
		HalfPageUp:   bind("ctrl+u", "Half page up", "ctrl+u", "pgup"),
		HalfPageDown: bind("ctrl+d", "Half page down", "ctrl+d", "pgdown"),

		ToggleFollow: bind("Space", "Toggle follow mode", " "),

		Demo: bind("ctrl+d", "Demo login", "ctrl+d"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp groups bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewUniverses, k.ViewLogs, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.HalfPageDown, k.HalfPageUp},
		{k.Select, k.NewScene, k.Delete, k.Refresh, k.Logout},
		{k.ToggleFollow},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
