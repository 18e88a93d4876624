// Package ui provides the Bubble Tea terminal interface for Lectern.
//
// # Architecture Overview
//
// Model is the root tea.Model. It never blocks inside Update: every platform
// request, cache write and log file read runs as a tea.Cmd and reports back
// through a message. The lesson and progress state is owned by the tracker
// passed in Options; the model only keeps the latest copy it was sent.
//
// # Package Structure
//
//   - app.go: Model, Options, the message loop, and Run
//   - header.go: status bar, command bar and the error banner
//   - home.go: progress overview
//   - lessons.go: lesson list
//   - detail.go: lesson content, code editor, run and test output
//   - logs.go: tail of the zap log file
//   - help.go: keyboard shortcut overlay
//   - keys.go, theme.go, layout.go, helpers.go: bindings, palettes and layout
//
// # Views
//
//   - Home (1): progress bar, summary text and the lesson to resume
//   - Lessons (2): every lesson in platform order; enter opens one
//   - Lesson (3): sections rendered in a scrollable viewport, plus an editor
//     seeded with the exercise's starter code. n/p move to the next or
//     previous lesson and are dimmed at either end of the list.
//   - Logs (4): the last lines of the log file with a minimum level filter
//
// # Data Flow
//
// A tick every PollTick pulls a fresh snapshot from the tracker. The
// background poller in internal/app refreshes the tracker independently, so
// ticks pick up its results without the UI issuing requests. Startup runs
// Options.Bootstrap once; its error, like any reload or load failure, is shown
// in a banner that x dismisses and r retries.
//
// # Preferences
//
// T toggles between the dark and light theme and saves the choice to the
// prefs file.
package ui
