// Package state holds the client-side application state shared between the
// background poller, the async thunks and the UI.
//
// # Overview
//
// State is split into three slices: auth, universes and scenes. Each slice
// is changed only by a reducer, a pure function from (slice, Action) to a
// new slice. The Store runs every dispatched Action through all reducers
// under a write lock and then signals subscribers.
//
//	thunk (actions pkg)            Store                     UI
//	┌──────────────────┐      ┌──────────────┐       ┌──────────────┐
//	│ Dispatch(pending)│─────→│ reduceAuth   │       │              │
//	│ service call     │      │ reduceUnivs  │──────→│ Snapshot()   │
//	│ Dispatch(result) │─────→│ reduceScenes │notify │ render       │
//	└──────────────────┘      └──────────────┘       └──────────────┘
//
// # Async Lifecycle
//
// Async actions are dispatched as Pending, then exactly one of Fulfilled or
// Rejected. Pending sets the slice status to loading and clears its error.
// Rejected records a Failure (message, HTTP status, error kind) and leaves
// the data untouched.
//
// # Merge Rules
//
//   - Lists are de-duplicated by id; the last value wins, the first
//     position is kept.
//   - Entries flagged is_deleted are dropped from active lists.
//   - Scenes are held both flat and indexed by universe id; both views are
//     updated together.
//   - Logout and forced sign-out reset every slice.
//
// # Snapshots
//
// Snapshot returns a deep copy, so callers may hold or modify it freely.
// RecordPoll keeps the poller's error and failure streak alongside the data;
// IsOffline reports two or more consecutive failures.
package state
