// Package app is the composition root for harmonic.
//
// # Overview
//
// Build turns configuration into a Runtime: the object graph shared by the
// TUI and every CLI command.
//
//	config.Load()                 ~/.config/harmonic/config.toml
//	  ├─> logging.New()           <log_dir>/harmonic.log
//	  ├─> session.OpenSQLite()    session.db (token, refresh token, user)
//	  ├─> metrics.NewCollector()  only when metrics_addr is set
//	  ├─> httpclient.New()        URL formatting, auth, retry, cache, breaker
//	  ├─> services.New()          domain services over the client
//	  ├─> state.Store{}           slices fed by reducers
//	  └─> actions.New()           async operations dispatching into the store
//
// # Background Work
//
// Start launches the goroutines that outlive a single request:
//
//   - the sign-out watcher, turning auth:signout bus events into a reset
//     of the store
//   - the metrics endpoint, when configured
//   - the poller, which re-fetches universes (and the current universe's
//     scenes) without the cache
//
// # Polling Behavior
//
// The poller waits one interval (default 10 seconds) between refreshes.
// Every outcome goes through Store.RecordPoll. While refreshes keep failing
// the wait doubles per consecutive failure, capped at 30 seconds, and the
// UI shows the store as offline after two failures. Refresh does nothing
// until a session exists.
//
// # Shutdown
//
// Cancelling the context stops every background goroutine; the channel
// returned by Start closes once they have all exited. Close then releases
// the session database and flushes the logger.
package app
