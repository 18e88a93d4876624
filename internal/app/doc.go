// Package app is the composition root for Lectern.
//
// # Overview
//
// Open loads configuration, builds the zap logger, the platform client, the
// cache store and the progress tracker, and returns them as a Session. The
// TUI and every CLI subcommand share that Session.
//
// # Components
//
//   - app.go: Options, Session, Open/Close and Run (the TUI entry point)
//   - bootstrap.go: startup sequence and the offline sentinel
//   - poller.go: background refresh with exponential backoff
//   - commands.go: lessons, run, test and reset subcommands
//
// # Startup
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> Open()          config, logger, client, cache, tracker
//	       ├─────> prefs.Resolve() theme from prefs or terminal background
//	       ├─────> StartPoller()   background refresh
//	       └─────> ui.Run()        blocks; runs Bootstrap as its first command
//
// Bootstrap restores the cached snapshot, then checks platform health. An
// unhealthy platform yields ErrOffline and the cached lessons stay on screen.
// Otherwise lessons and progress are refreshed and, when no lesson is
// selected, the platform's current lesson (or the first one) becomes current.
//
// # Polling Behavior
//
// The poller refreshes progress and then lessons every poll interval. Each
// consecutive failure doubles the wait, up to ten minutes; one success resets
// it. A non-positive interval disables the poller.
//
// # Error Handling
//
// Fatal (returned from Open or Run):
//   - invalid config file or values
//   - log file that cannot be opened
//   - cache store that cannot be opened
//
// Recoverable (logged, shown in the UI banner):
//   - platform unreachable at startup
//   - refresh failures during polling
//
// CLI commands reduce platform errors to their user-facing message and keep
// ErrExecutionFailed, ErrTestsFailed and ErrNoLesson intact for callers.
package app
