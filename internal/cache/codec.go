package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/five82/lectern/internal/learn"
	"github.com/five82/lectern/internal/state"
)

// StorageKey names the persisted blob. Both backends store exactly one.
const StorageKey = "py-learning-progress"

// ErrCorrupt is returned by Decode for blobs that are not a valid snapshot.
var ErrCorrupt = errors.New("corrupt snapshot")

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type blob struct {
	Lessons       []learn.Lesson  `json:"lessons"`
	Progress      *learn.Progress `json:"progress"`
	CurrentLesson *learn.Lesson   `json:"currentLesson"`
	Timestamp     string          `json:"timestamp"`
}

// Encode serializes snap into the persisted blob format. A zero CapturedAt is
// stamped with the current time.
func Encode(snap state.Snapshot) ([]byte, error) {
	b := blob{
		Lessons:       snap.Lessons,
		Progress:      snap.Progress,
		CurrentLesson: snap.CurrentLesson,
	}
	if b.Lessons == nil {
		b.Lessons = []learn.Lesson{}
	}
	captured := snap.CapturedAt
	if captured.IsZero() {
		captured = time.Now()
	}
	b.Timestamp = captured.UTC().Format(timestampLayout)

	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a persisted blob. Empty input and a JSON null decode to an
// empty snapshot. Anything unparseable wraps ErrCorrupt. An unreadable
// timestamp is dropped rather than rejected.
func Decode(data []byte) (state.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return state.Snapshot{}, nil
	}

	var b blob
	if err := json.Unmarshal(trimmed, &b); err != nil {
		return state.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	snap := state.Snapshot{
		Progress:      b.Progress,
		CurrentLesson: b.CurrentLesson,
	}
	if len(b.Lessons) > 0 {
		snap.Lessons = b.Lessons
	}
	if ts, err := time.Parse(time.RFC3339Nano, b.Timestamp); err == nil {
		snap.CapturedAt = ts
	}
	return snap, nil
}
