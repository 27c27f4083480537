// Package ui provides the harmonic terminal interface, built on Bubble Tea.
//
// # Views
//
//   - Login: email and password prompt, with ctrl+d for a demo session.
//     Shown whenever the store reports no authenticated user, including
//     after the server forces a sign-out.
//   - Universes: universe list beside a detail pane listing the selected
//     universe's scenes. Scenes are created from a small input modal.
//   - Log: tail of the client's own zap log file, formatted by logtail.
//
// # Data flow
//
// The UI never talks to services directly. Key presses start commands that
// call actions.Actions; actions dispatch into state.Store; the Model
// subscribes to the store and re-renders from the snapshot it receives.
// Server errors published on the events bus appear as a header banner that
// expires after ServerBannerTTL or on esc.
//
// # Files
//
//   - app.go: Model, Options, Update loop and Run
//   - header.go: status bar, command bar and status line
//   - universes.go: list and detail panes, titled boxes
//   - login.go, scene_input.go: input forms
//   - logs.go: log viewport
//   - theme.go, style_helpers.go: palettes and background-safe rendering
package ui
