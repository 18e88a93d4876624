// Package exercise runs learner code against the platform's executor and
// turns a fully passing test run into a lesson completion.
package exercise

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/five82/lectern/internal/learn"
)

var (
	// ErrEmptyCode is returned before any request when the code is blank.
	ErrEmptyCode = errors.New("please write some code first")
	// ErrNotTestable is returned by Test when the lesson has no practice
	// exercise with test cases.
	ErrNotTestable = errors.New("lesson has no testable exercise")
	// ErrBusy is returned while another run or test is in flight.
	ErrBusy = errors.New("a run is already in progress")
)

// Executor is the part of the platform client that runs code.
type Executor interface {
	ExecuteCode(ctx context.Context, code, lessonID, exerciseID string) (learn.ExecutionResult, error)
	TestExercise(ctx context.Context, exerciseID, code string, cases []learn.TestCase, lessonID string) (learn.TestResult, error)
}

// Completer records a lesson as completed.
type Completer interface {
	MarkLessonComplete(ctx context.Context, lessonID string) error
}

// Outcome is the result of Test.
type Outcome struct {
	Result learn.TestResult
	// Completed is true when the run passed and the completion was recorded.
	Completed bool
	// CompleteErr is set when the run passed but recording it failed.
	CompleteErr error
}

// Runner executes and tests code for one learner. Only one request runs at a
// time.
type Runner struct {
	exec      Executor
	completer Completer
	logger    *zap.Logger
	busy      atomic.Bool
}

// NewRunner builds a Runner. completer may be nil, in which case passing
// tests are not recorded.
func NewRunner(exec Executor, completer Completer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{exec: exec, completer: completer, logger: logger.Named("exercise")}
}

// Run executes code on the remote executor. The lesson's practice exercise id
// is sent along when there is one.
func (r *Runner) Run(ctx context.Context, lesson learn.Lesson, code string) (learn.ExecutionResult, error) {
	if strings.TrimSpace(code) == "" {
		return learn.ExecutionResult{}, ErrEmptyCode
	}
	if !r.busy.CompareAndSwap(false, true) {
		return learn.ExecutionResult{}, ErrBusy
	}
	defer r.busy.Store(false)

	var exerciseID string
	if ex, ok := lesson.Practice(); ok {
		exerciseID = ex.ID
	}

	res, err := r.exec.ExecuteCode(ctx, code, lesson.ID, exerciseID)
	if err != nil {
		r.logger.Warn("code execution failed", zap.String("lesson_id", lesson.ID), zap.Error(err))
		return learn.ExecutionResult{}, fmt.Errorf("run code: %w", err)
	}
	r.logger.Debug("code executed",
		zap.String("lesson_id", lesson.ID),
		zap.Bool("success", res.Success),
		zap.Float64("execution_time", res.ExecutionTime),
	)
	return res, nil
}

// Test runs code against the lesson's exercise test cases. When every case
// passes the lesson is marked complete.
func (r *Runner) Test(ctx context.Context, lesson learn.Lesson, code string) (Outcome, error) {
	if strings.TrimSpace(code) == "" {
		return Outcome{}, ErrEmptyCode
	}
	ex, ok := lesson.Practice()
	if !ok || !ex.Testable() {
		return Outcome{}, ErrNotTestable
	}
	if !r.busy.CompareAndSwap(false, true) {
		return Outcome{}, ErrBusy
	}
	defer r.busy.Store(false)

	res, err := r.exec.TestExercise(ctx, ex.ID, code, ex.TestCases, lesson.ID)
	if err != nil {
		r.logger.Warn("exercise test failed", zap.String("exercise_id", ex.ID), zap.Error(err))
		return Outcome{}, fmt.Errorf("test exercise: %w", err)
	}

	out := Outcome{Result: res}
	r.logger.Info("exercise tested",
		zap.String("lesson_id", lesson.ID),
		zap.String("exercise_id", ex.ID),
		zap.Int("passed", res.Passed),
		zap.Int("total", res.Total),
	)
	if !res.Success || r.completer == nil {
		return out, nil
	}
	if err := r.completer.MarkLessonComplete(ctx, lesson.ID); err != nil {
		out.CompleteErr = err
		return out, nil
	}
	out.Completed = true
	return out, nil
}

// FormatExecution renders an execution result for a console pane.
func FormatExecution(res learn.ExecutionResult) string {
	if !res.Success {
		return strings.TrimRight(res.Error, "\n")
	}
	return strings.TrimRight(res.Output, "\n")
}

// FormatReport renders a test result: a header line, a rule, then one block
// per case. Failed cases show expected and actual output.
func FormatReport(res learn.TestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test results: %d/%d passed\n", res.Passed, res.Total)
	b.WriteString(strings.Repeat("─", 40))
	b.WriteString("\n\n")
	for i, c := range res.Results {
		status := "✅ PASSED"
		if !c.Passed {
			status = "❌ FAILED"
		}
		fmt.Fprintf(&b, "Test %d: %s\n", i+1, status)
		if !c.Passed {
			fmt.Fprintf(&b, "Expected: %s\n", c.Expected)
			fmt.Fprintf(&b, "Actual: %s\n", c.Actual)
			if c.Error != "" {
				fmt.Fprintf(&b, "Error: %s\n", c.Error)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
