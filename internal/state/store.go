package state

import (
	"context"
	"time"

	"github.com/five82/lectern/internal/learn"
)

// Snapshot is the lesson and progress state available to the UI at a point in
// time.
type Snapshot struct {
	Lessons       []learn.Lesson
	Progress      *learn.Progress
	CurrentLesson *learn.Lesson
	CapturedAt    time.Time
}

// IsEmpty reports whether the snapshot carries no data at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.Lessons) == 0 && s.Progress == nil && s.CurrentLesson == nil
}

// Clone returns a copy that shares no mutable top-level storage with s.
// Lessons are immutable once fetched, so their sections are not deep-copied.
func (s Snapshot) Clone() Snapshot {
	dup := Snapshot{
		Lessons:    cloneLessons(s.Lessons),
		CapturedAt: s.CapturedAt,
	}
	if s.Progress != nil {
		p := *s.Progress
		dup.Progress = &p
	}
	if s.CurrentLesson != nil {
		l := *s.CurrentLesson
		dup.CurrentLesson = &l
	}
	return dup
}

// Cache persists snapshots between sessions. Load returns (nil, nil) when
// nothing has been stored.
type Cache interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
	Clear(ctx context.Context) error
}

// Remote is the subset of the platform API the tracker synchronizes with.
type Remote interface {
	ListLessons(ctx context.Context) ([]learn.Lesson, error)
	GetProgress(ctx context.Context) (learn.Progress, error)
	CompleteLesson(ctx context.Context, lessonID string) (learn.Progress, error)
}

func cloneLessons(lessons []learn.Lesson) []learn.Lesson {
	if len(lessons) == 0 {
		return nil
	}
	dup := make([]learn.Lesson, len(lessons))
	copy(dup, lessons)
	return dup
}
