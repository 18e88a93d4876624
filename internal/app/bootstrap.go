package app

import (
	"context"
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/five82/lectern/internal/learn"
	"github.com/five82/lectern/internal/state"
)

// ErrOffline is returned by Bootstrap when the platform fails its health
// check. Cached data stays available.
var ErrOffline = errors.New("learning platform is unreachable, showing cached lessons")

// HealthChecker reports platform availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// Bootstrap prepares the tracker for a session: restore the cache, check the
// platform, refresh lessons then progress, and pick a lesson to resume. Refresh
// failures are combined into the returned error; whatever succeeded is kept.
func Bootstrap(ctx context.Context, health HealthChecker, tracker *state.Tracker, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("bootstrap")

	snap := tracker.Restore(ctx)
	logger.Info("restored cached snapshot", zap.Int("lessons", len(snap.Lessons)))

	if !health.HealthCheck(ctx) {
		logger.Warn("platform health check failed, running offline")
		resume(ctx, tracker, logger)
		return ErrOffline
	}

	var errs error
	lessons, err := tracker.RefreshLessons(ctx)
	errs = multierr.Append(errs, err)
	_, err = tracker.RefreshProgress(ctx)
	errs = multierr.Append(errs, err)

	resume(ctx, tracker, logger)

	logger.Info("bootstrap complete",
		zap.Int("lessons", len(lessons)),
		zap.String("progress", tracker.Summary().Text),
		zap.Int("errors", len(multierr.Errors(errs))),
	)
	return errs
}

func resume(ctx context.Context, tracker *state.Tracker, logger *zap.Logger) {
	lesson, ok := resumeLesson(tracker)
	if !ok {
		return
	}
	tracker.SetCurrentLesson(ctx, lesson)
	logger.Debug("resuming lesson", zap.String("lesson_id", lesson.ID))
}

// resumeLesson picks the lesson to select when none is: the platform's
// current_lesson_id when it is in the list, else the first lesson.
func resumeLesson(tracker *state.Tracker) (learn.Lesson, bool) {
	if _, ok := tracker.CurrentLesson(); ok {
		return learn.Lesson{}, false
	}
	if p, ok := tracker.Progress(); ok && p.CurrentLessonID != "" {
		if lesson, ok := tracker.LessonByID(p.CurrentLessonID); ok {
			return lesson, true
		}
	}
	lessons := tracker.Lessons()
	if len(lessons) == 0 {
		return learn.Lesson{}, false
	}
	return lessons[0], true
}
