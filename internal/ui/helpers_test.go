package ui

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/five82/lectern/internal/learn"
	"github.com/five82/lectern/internal/logtail"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   int64 // seconds
		want string
	}{
		{"negative", -5, "now"},
		{"subsecond", 0, "now"},
		{"seconds", 12, "12s"},
		{"minutes", 61, "1m"},
		{"hours_only", 2*60*60 + 10, "2h"},
		{"hours_minutes", 2*60*60 + 3*60, "2h 3m"},
		{"days", 24 * 60 * 60, "1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := humanizeDuration(time.Duration(tc.in) * time.Second)
			if got != tc.want {
				t.Fatalf("humanizeDuration(%d) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"hello", 1, "h"},
		{"hello", 0, ""},
		{"héllo wörld", 4, "hél…"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	got := truncateMiddle("/home/learner/.local/state/lectern/lectern.log", 20)
	if len([]rune(got)) != 20 {
		t.Fatalf("got %q (%d runes), want 20", got, len([]rune(got)))
	}
	if !strings.HasSuffix(got, "lectern.log") {
		t.Fatalf("got %q, want the file name kept", got)
	}
}

func TestProgressBar(t *testing.T) {
	cases := []struct {
		percent            float64
		width              int
		wantFill, wantRest int
	}{
		{0, 10, 0, 10},
		{50, 10, 5, 5},
		{100, 10, 10, 0},
		{150, 10, 10, 0},
		{-5, 10, 0, 10},
		{1.79, 20, 0, 20},
		{50, 0, 0, 0},
	}
	for _, tc := range cases {
		filled, empty := progressBar(tc.percent, tc.width)
		if n := len([]rune(filled)); n != tc.wantFill {
			t.Fatalf("progressBar(%v, %d) filled = %d, want %d", tc.percent, tc.width, n, tc.wantFill)
		}
		if n := len([]rune(empty)); n != tc.wantRest {
			t.Fatalf("progressBar(%v, %d) empty = %d, want %d", tc.percent, tc.width, n, tc.wantRest)
		}
	}
}

func TestStarterCode(t *testing.T) {
	lesson := learn.Lesson{Sections: []learn.Section{
		{Type: learn.SectionTheory, Title: "Intro"},
		{Type: learn.SectionPractice, Exercise: &learn.Exercise{StarterCode: "print()"}},
	}}
	if got := starterCode(lesson); got != "print()" {
		t.Fatalf("starterCode = %q, want print()", got)
	}
	if got := starterCode(learn.Lesson{}); got != "" {
		t.Fatalf("starterCode(no practice) = %q, want empty", got)
	}
}

func TestLessonLabel(t *testing.T) {
	if got := lessonLabel(learn.Lesson{Order: 3, Title: "Loops"}); got != "3. Loops" {
		t.Fatalf("lessonLabel = %q", got)
	}
	if got := lessonLabel(learn.Lesson{Title: "Loops"}); got != "Loops" {
		t.Fatalf("lessonLabel without order = %q", got)
	}
}

func TestFormatLogEntry(t *testing.T) {
	entry := logtail.Entry{
		Time:    time.Date(2026, 3, 1, 10, 4, 5, 0, time.Local),
		Level:   zapcore.WarnLevel,
		Logger:  "lectern.tracker",
		Message: "lesson refresh failed",
		Fields:  map[string]any{"error": "timeout"},
		Parsed:  true,
	}
	want := "10:04:05 WARN  lectern.tracker lesson refresh failed error=timeout"
	if got := formatLogEntry(entry); got != want {
		t.Fatalf("formatLogEntry = %q, want %q", got, want)
	}

	raw := logtail.Entry{Raw: "plain text line"}
	if got := formatLogEntry(raw); got != "plain text line" {
		t.Fatalf("formatLogEntry(raw) = %q", got)
	}
}

func TestNextLevel(t *testing.T) {
	if got := nextLevel(zapcore.InfoLevel); got != zapcore.WarnLevel {
		t.Fatalf("nextLevel(info) = %v, want warn", got)
	}
	if got := nextLevel(zapcore.ErrorLevel); got != zapcore.DebugLevel {
		t.Fatalf("nextLevel(error) = %v, want debug", got)
	}
}
