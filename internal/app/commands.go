package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"

	"github.com/five82/lectern/internal/exercise"
	"github.com/five82/lectern/internal/learn"
)

var (
	// ErrExecutionFailed marks a run whose program exited with an error.
	ErrExecutionFailed = errors.New("execution failed")
	// ErrTestsFailed marks a test run with at least one failing case.
	ErrTestsFailed = errors.New("tests failed")
	// ErrNoLesson is returned when no lesson id was given and none is selected.
	ErrNoLesson = errors.New("no lesson selected; pass --lesson")
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	currentStyle = cellStyle.Bold(true).Foreground(lipgloss.Color("#7AA2F7"))
)

// ListLessons prints the lesson table and the progress summary. When the
// platform cannot be reached the cached lessons are printed instead.
func ListLessons(ctx context.Context, s *Session, w io.Writer) error {
	s.restore(ctx)

	_, lessonsErr := s.Tracker.RefreshLessons(ctx)
	if _, err := s.Tracker.RefreshProgress(ctx); err != nil {
		s.Logger.Debug("progress unavailable for lesson list", zap.Error(err))
	}

	lessons := s.Tracker.Lessons()
	if len(lessons) == 0 {
		if lessonsErr != nil {
			return fmt.Errorf("list lessons: %s", learn.Message(lessonsErr))
		}
		fmt.Fprintln(w, "No lessons available.")
		return nil
	}

	var currentID string
	if cur, ok := s.Tracker.CurrentLesson(); ok {
		currentID = cur.ID
	}
	fmt.Fprintln(w, renderLessonTable(lessons, currentID))
	fmt.Fprintln(w, s.Tracker.Summary().Text)
	if lessonsErr != nil {
		fmt.Fprintf(w, "offline: %s (showing cached lessons)\n", learn.Message(lessonsErr))
	}
	return nil
}

func renderLessonTable(lessons []learn.Lesson, currentID string) string {
	currentRow := -1
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "#", "ID", "WEEK", "TITLE")
	for i, l := range lessons {
		marker := ""
		if l.ID == currentID {
			marker = "▸"
			currentRow = i
		}
		t.Row(marker, strconv.Itoa(l.Order), l.ID, strconv.Itoa(l.Week), l.Title)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case row == currentRow:
			return currentStyle
		default:
			return cellStyle
		}
	})
	return t.String()
}

// RunFile executes the code in path for a lesson and prints its output.
func RunFile(ctx context.Context, s *Session, lessonID, path string, w io.Writer) error {
	code, err := readCode(path)
	if err != nil {
		return err
	}
	lesson, err := resolveLesson(ctx, s, lessonID)
	if err != nil {
		return err
	}

	res, err := s.Runner.Run(ctx, lesson, code)
	if err != nil {
		return commandError(err)
	}
	if out := exercise.FormatExecution(res); out != "" {
		fmt.Fprintln(w, out)
	}
	if !res.Success {
		return ErrExecutionFailed
	}
	return nil
}

// TestFile checks the code in path against the lesson's exercise. A full pass
// marks the lesson complete.
func TestFile(ctx context.Context, s *Session, lessonID, path string, w io.Writer) error {
	code, err := readCode(path)
	if err != nil {
		return err
	}
	lesson, err := resolveLesson(ctx, s, lessonID)
	if err != nil {
		return err
	}

	out, err := s.Runner.Test(ctx, lesson, code)
	if err != nil {
		return commandError(err)
	}
	fmt.Fprintln(w, exercise.FormatReport(out.Result))

	switch {
	case out.Completed:
		fmt.Fprintf(w, "\nAll tests passed. Lesson %q marked complete: %s\n", lesson.Title, s.Tracker.Summary().Text)
	case out.CompleteErr != nil:
		fmt.Fprintf(w, "\nAll tests passed, but recording completion failed: %s\n", learn.Message(out.CompleteErr))
	}
	if !out.Result.Success {
		return ErrTestsFailed
	}
	return nil
}

// Reset wipes the cached snapshot.
func Reset(ctx context.Context, s *Session, w io.Writer) error {
	if err := s.Tracker.Clear(ctx); err != nil {
		return err
	}
	s.restored = true
	fmt.Fprintf(w, "Cleared cached progress at %s\n", s.Config.Cache.Path)
	return nil
}

// resolveLesson fetches the full lesson for id, or for the selected lesson
// when id is empty, and makes it the current lesson.
func resolveLesson(ctx context.Context, s *Session, id string) (learn.Lesson, error) {
	s.restore(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		cur, ok := s.Tracker.CurrentLesson()
		if !ok {
			return learn.Lesson{}, ErrNoLesson
		}
		id = cur.ID
	}

	lesson, err := s.Client.GetLesson(ctx, id)
	if err != nil {
		s.Logger.Warn("loading lesson failed", zap.String("lesson_id", id), zap.Error(err))
		return learn.Lesson{}, fmt.Errorf("load lesson %s: %s", id, learn.Message(err))
	}
	s.Tracker.SetCurrentLesson(ctx, lesson)
	return lesson, nil
}

func readCode(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	return string(data), nil
}

// commandError keeps sentinel errors intact and reduces platform errors to
// their user-facing message.
func commandError(err error) error {
	var lerr *learn.Error
	if errors.As(err, &lerr) {
		return errors.New(lerr.Message)
	}
	return err
}
