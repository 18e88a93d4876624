package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/lectern/internal/learn"
)

func writeCode(t *testing.T, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.py")
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestListLessons_PrintsTableAndSummary(t *testing.T) {
	s := newTestSession(t, newFakePlatform())
	var out bytes.Buffer

	if err := ListLessons(context.Background(), s, &out); err != nil {
		t.Fatalf("ListLessons: %v", err)
	}
	for _, want := range []string{"TITLE", "Print", "Variables", "Loops", "0/3 completed (0%)"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestListLessons_FallsBackToCache(t *testing.T) {
	platform := newFakePlatform()
	s := newTestSession(t, platform)
	ctx := context.Background()
	if err := ListLessons(ctx, s, &bytes.Buffer{}); err != nil {
		t.Fatalf("first ListLessons: %v", err)
	}

	platform.mu.Lock()
	platform.failLessons = true
	platform.mu.Unlock()

	var out bytes.Buffer
	if err := ListLessons(ctx, s, &out); err != nil {
		t.Fatalf("ListLessons: %v", err)
	}
	if !strings.Contains(out.String(), "Loops") || !strings.Contains(out.String(), "offline: database locked") {
		t.Fatalf("output = %s", out.String())
	}
}

func TestListLessons_NoCacheAndNoPlatform(t *testing.T) {
	platform := newFakePlatform()
	platform.failLessons = true
	s := newTestSession(t, platform)

	err := ListLessons(context.Background(), s, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "database locked") {
		t.Fatalf("ListLessons err = %v, want database locked", err)
	}
}

func TestRunFile_PrintsOutput(t *testing.T) {
	s := newTestSession(t, newFakePlatform())
	var out bytes.Buffer

	if err := RunFile(context.Background(), s, "l1", writeCode(t, "print('hello')"), &out); err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if strings.TrimSpace(out.String()) != "hello" {
		t.Fatalf("output = %q, want hello", out.String())
	}
	cur, ok := s.Tracker.CurrentLesson()
	if !ok || cur.ID != "l1" || len(cur.Sections) == 0 {
		t.Fatalf("CurrentLesson = %#v, want full l1", cur)
	}
}

func TestRunFile_ExecutionError(t *testing.T) {
	platform := newFakePlatform()
	platform.execResult = learn.ExecutionResult{Success: false, Error: "NameError: name 'x' is not defined"}
	s := newTestSession(t, platform)
	var out bytes.Buffer

	err := RunFile(context.Background(), s, "l1", writeCode(t, "print(x)"), &out)
	if !errors.Is(err, ErrExecutionFailed) {
		t.Fatalf("RunFile err = %v, want ErrExecutionFailed", err)
	}
	if !strings.Contains(out.String(), "NameError") {
		t.Fatalf("output = %q, want NameError", out.String())
	}
}

func TestRunFile_NeedsLesson(t *testing.T) {
	s := newTestSession(t, newFakePlatform())

	err := RunFile(context.Background(), s, "", writeCode(t, "print(1)"), &bytes.Buffer{})
	if !errors.Is(err, ErrNoLesson) {
		t.Fatalf("RunFile err = %v, want ErrNoLesson", err)
	}
}

func TestRunFile_UnknownLesson(t *testing.T) {
	s := newTestSession(t, newFakePlatform())

	err := RunFile(context.Background(), s, "nope", writeCode(t, "print(1)"), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "Lesson not found") {
		t.Fatalf("RunFile err = %v, want Lesson not found", err)
	}
}

func TestTestFile_PassMarksComplete(t *testing.T) {
	platform := newFakePlatform()
	s := newTestSession(t, platform)
	var out bytes.Buffer

	if err := TestFile(context.Background(), s, "l1", writeCode(t, "print('hello')"), &out); err != nil {
		t.Fatalf("TestFile: %v", err)
	}
	for _, want := range []string{"Test results: 1/1 passed", "marked complete", "1/3 completed (33%)"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
	if len(platform.completed) != 1 || platform.completed[0] != "l1" {
		t.Fatalf("completed = %v, want [l1]", platform.completed)
	}
}

func TestTestFile_FailureReturnsError(t *testing.T) {
	platform := newFakePlatform()
	platform.testResult = learn.TestResult{
		Success: false, Passed: 0, Total: 1,
		Results: []learn.TestCaseResult{{Passed: false, Expected: "hello", Actual: "helo"}},
	}
	s := newTestSession(t, platform)
	var out bytes.Buffer

	err := TestFile(context.Background(), s, "l1", writeCode(t, "print('helo')"), &out)
	if !errors.Is(err, ErrTestsFailed) {
		t.Fatalf("TestFile err = %v, want ErrTestsFailed", err)
	}
	if !strings.Contains(out.String(), "Actual: helo") {
		t.Fatalf("output = %s", out.String())
	}
	if len(platform.completed) != 0 {
		t.Fatalf("completed = %v, want none", platform.completed)
	}
}

func TestReset_ClearsCache(t *testing.T) {
	s := newTestSession(t, newFakePlatform())
	ctx := context.Background()
	if err := ListLessons(ctx, s, &bytes.Buffer{}); err != nil {
		t.Fatalf("ListLessons: %v", err)
	}

	var out bytes.Buffer
	if err := Reset(ctx, s, &out); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := os.Stat(s.Config.Cache.Path); !os.IsNotExist(err) {
		t.Fatalf("cache file still present: %v", err)
	}
	if !strings.Contains(out.String(), "Cleared cached progress") {
		t.Fatalf("output = %q", out.String())
	}
}
