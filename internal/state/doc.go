// Package state holds the learner's lesson and progress state for a session.
//
// # Overview
//
// The Tracker is the single owner of the session Snapshot: the lesson list,
// the progress aggregate and the currently selected lesson. The UI, the
// exercise runner and the background poller all read and write through it.
// Every mutation is mirrored into a Cache so the next session can start from
// the last known state before the platform answers.
//
// # Concurrency Model
//
// Bubble Tea commands run on their own goroutines, so the Tracker guards its
// snapshot with a sync.RWMutex:
//
//   - Getters take the read lock and return copies
//   - Mutations take the write lock only while swapping fields
//   - Network calls and cache writes happen outside the snapshot lock
//
// Overlapping RefreshLessons or RefreshProgress calls are collapsed with
// golang.org/x/sync/singleflight, so a poll tick and a user-triggered reload
// share one request.
//
// Cache writes are serialized by a second mutex. Each write captures the
// snapshot while holding it, so the last write always carries the newest
// state.
//
// # Failure Semantics
//
//	// Refresh failure: previous data survives
//	lessons, err := tracker.RefreshLessons(ctx)
//	→ lessons == nil, err wraps *learn.Error
//	→ tracker.Lessons() still returns the old list
//
//	// Persist failure: memory wins
//	→ logged at warn, snapshot keeps the new value
//
// Restore never fails. A missing or unreadable cache starts the session empty;
// the next successful write replaces the bad blob.
//
// # Navigation
//
// NextLesson and PreviousLesson locate the current lesson by id in the cached
// list and step one position. They report absence at either end and when the
// current lesson is not part of the list.
package state
