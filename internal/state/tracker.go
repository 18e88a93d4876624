package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/five82/lectern/internal/learn"
)

// ErrNoRemote is returned by synchronizing operations on a tracker built
// without a platform client.
var ErrNoRemote = errors.New("no platform client configured")

const (
	flightLessons  = "lessons"
	flightProgress = "progress"
)

// Summary is the display form of the progress aggregate.
type Summary struct {
	Completed  int
	Total      int
	Percentage int // rounded for display; the raw value stays on Progress
	Text       string
}

// Tracker owns the session's Snapshot. It mediates every read and write,
// derives lesson navigation and mirrors each change into the cache.
type Tracker struct {
	remote Remote
	cache  Cache
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot

	persistMu sync.Mutex
	flight    singleflight.Group
}

// NewTracker builds a tracker with an empty snapshot. Call Restore to load
// the cached state. cache may be nil for a memory-only session.
func NewTracker(remote Remote, cache Cache, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		remote: remote,
		cache:  cache,
		logger: logger.Named("tracker"),
		now:    time.Now,
	}
}

// Restore replaces the in-memory snapshot with the cached one. A missing or
// unreadable cache yields an empty snapshot; Restore never fails.
func (t *Tracker) Restore(ctx context.Context) Snapshot {
	var restored Snapshot
	if t.cache != nil {
		snap, err := t.cache.Load(ctx)
		switch {
		case err != nil:
			t.logger.Warn("ignoring unreadable progress cache", zap.Error(err))
		case snap != nil:
			restored = snap.Clone()
		}
	}

	t.mu.Lock()
	t.snapshot = restored
	t.mu.Unlock()

	t.logger.Debug("restored snapshot",
		zap.Int("lessons", len(restored.Lessons)),
		zap.Bool("has_progress", restored.Progress != nil),
		zap.Bool("has_current", restored.CurrentLesson != nil),
	)
	return restored.Clone()
}

// RefreshLessons replaces the lesson list with the platform's. On failure the
// previous list is kept and the error is returned with a nil slice.
// Overlapping calls share a single request.
func (t *Tracker) RefreshLessons(ctx context.Context) ([]learn.Lesson, error) {
	if t.remote == nil {
		return nil, fmt.Errorf("refresh lessons: %w", ErrNoRemote)
	}
	v, err := t.shared(ctx, flightLessons, func(ctx context.Context) (any, error) {
		lessons, err := t.remote.ListLessons(ctx)
		if err != nil {
			t.logger.Warn("lesson refresh failed", zap.Error(err))
			return nil, err
		}
		fetched := cloneLessons(lessons)
		t.mu.Lock()
		t.snapshot.Lessons = fetched
		t.mu.Unlock()
		t.persist(ctx)
		return fetched, nil
	})
	if err != nil {
		return nil, fmt.Errorf("refresh lessons: %w", err)
	}
	return cloneLessons(v.([]learn.Lesson)), nil
}

// RefreshProgress replaces the progress aggregate with the platform's. On
// failure the previous value is kept.
func (t *Tracker) RefreshProgress(ctx context.Context) (*learn.Progress, error) {
	if t.remote == nil {
		return nil, fmt.Errorf("refresh progress: %w", ErrNoRemote)
	}
	v, err := t.shared(ctx, flightProgress, func(ctx context.Context) (any, error) {
		progress, err := t.remote.GetProgress(ctx)
		if err != nil {
			t.logger.Warn("progress refresh failed", zap.Error(err))
			return nil, err
		}
		t.mu.Lock()
		t.snapshot.Progress = &progress
		t.mu.Unlock()
		t.persist(ctx)
		return progress, nil
	})
	if err != nil {
		return nil, fmt.Errorf("refresh progress: %w", err)
	}
	progress := v.(learn.Progress)
	return &progress, nil
}

// shared runs fn once per key for all overlapping callers. fn gets a context
// that outlives any single caller's cancellation; each caller stops waiting
// when its own ctx is done.
func (t *Tracker) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := t.flight.DoChan(key, func() (any, error) {
		return fn(flightCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Lessons returns the cached lesson list without touching the network.
func (t *Tracker) Lessons() []learn.Lesson {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneLessons(t.snapshot.Lessons)
}

// LessonByID finds a lesson in the cached list.
func (t *Tracker) LessonByID(id string) (learn.Lesson, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := indexOf(t.snapshot.Lessons, id); i >= 0 {
		return t.snapshot.Lessons[i], true
	}
	return learn.Lesson{}, false
}

// CurrentLesson returns the selected lesson, if any.
func (t *Tracker) CurrentLesson() (learn.Lesson, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.snapshot.CurrentLesson == nil {
		return learn.Lesson{}, false
	}
	return *t.snapshot.CurrentLesson, true
}

// SetCurrentLesson selects lesson and persists the snapshot. The lesson does
// not have to be part of the cached list.
func (t *Tracker) SetCurrentLesson(ctx context.Context, lesson learn.Lesson) {
	t.mu.Lock()
	t.snapshot.CurrentLesson = &lesson
	t.mu.Unlock()
	t.persist(ctx)
}

// NextLesson returns the lesson after the current one in list order.
func (t *Tracker) NextLesson() (learn.Lesson, bool) {
	return t.neighbor(1)
}

// PreviousLesson returns the lesson before the current one in list order.
func (t *Tracker) PreviousLesson() (learn.Lesson, bool) {
	return t.neighbor(-1)
}

func (t *Tracker) neighbor(step int) (learn.Lesson, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.snapshot.CurrentLesson == nil {
		return learn.Lesson{}, false
	}
	i := indexOf(t.snapshot.Lessons, t.snapshot.CurrentLesson.ID)
	if i < 0 {
		return learn.Lesson{}, false
	}
	j := i + step
	if j < 0 || j >= len(t.snapshot.Lessons) {
		return learn.Lesson{}, false
	}
	return t.snapshot.Lessons[j], true
}

// MarkLessonComplete reports completion to the platform and adopts the
// progress it returns. On failure progress is left unchanged. Repeated calls
// are not guarded; the platform decides what a second completion means.
func (t *Tracker) MarkLessonComplete(ctx context.Context, lessonID string) error {
	if t.remote == nil {
		return fmt.Errorf("complete lesson %s: %w", lessonID, ErrNoRemote)
	}
	progress, err := t.remote.CompleteLesson(ctx, lessonID)
	if err != nil {
		t.logger.Warn("marking lesson complete failed", zap.String("lesson_id", lessonID), zap.Error(err))
		return fmt.Errorf("complete lesson %s: %w", lessonID, err)
	}

	t.mu.Lock()
	t.snapshot.Progress = &progress
	t.mu.Unlock()
	t.persist(ctx)

	t.logger.Info("lesson completed",
		zap.String("lesson_id", lessonID),
		zap.Int("completed", progress.Completed),
		zap.Int("total", progress.Total),
	)
	return nil
}

// Progress returns the raw progress aggregate, if known.
func (t *Tracker) Progress() (learn.Progress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.snapshot.Progress == nil {
		return learn.Progress{}, false
	}
	return *t.snapshot.Progress, true
}

// Summary formats progress for display. Unknown progress reads as zero.
func (t *Tracker) Summary() Summary {
	p, _ := t.Progress()
	pct := p.DisplayPercentage()
	return Summary{
		Completed:  p.Completed,
		Total:      p.Total,
		Percentage: pct,
		Text:       fmt.Sprintf("%d/%d completed (%d%%)", p.Completed, p.Total, pct),
	}
}

// Clear wipes the in-memory snapshot and the cache. Memory is cleared even
// when the cache fails.
func (t *Tracker) Clear(ctx context.Context) error {
	t.persistMu.Lock()
	defer t.persistMu.Unlock()

	t.mu.Lock()
	t.snapshot = Snapshot{}
	t.mu.Unlock()

	if t.cache == nil {
		return nil
	}
	if err := t.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current snapshot.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot.Clone()
}

// persist writes the latest snapshot to the cache. Saves are serialized so the
// last save always carries the newest state. Failures only get logged.
func (t *Tracker) persist(ctx context.Context) {
	if t.cache == nil {
		return
	}
	t.persistMu.Lock()
	defer t.persistMu.Unlock()

	t.mu.Lock()
	t.snapshot.CapturedAt = t.now()
	snap := t.snapshot.Clone()
	t.mu.Unlock()

	if err := t.cache.Save(ctx, snap); err != nil {
		t.logger.Warn("persisting snapshot failed", zap.Error(err))
	}
}

func indexOf(lessons []learn.Lesson, id string) int {
	for i := range lessons {
		if lessons[i].ID == id {
			return i
		}
	}
	return -1
}
