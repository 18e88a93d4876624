package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantParsed bool
		wantLevel  zapcore.Level
		wantMsg    string
		wantLogger string
		wantFields string
	}{
		{
			name:       "zap json",
			input:      `{"level":"warn","ts":"2026-03-01T12:00:00.000Z","logger":"lectern.tracker","caller":"state/tracker.go:98","msg":"lesson refresh failed","error":"list lessons: failed to load lessons"}`,
			wantParsed: true,
			wantLevel:  zapcore.WarnLevel,
			wantMsg:    "lesson refresh failed",
			wantLogger: "lectern.tracker",
			wantFields: "error=list lessons: failed to load lessons",
		},
		{
			name:       "numeric fields sorted",
			input:      `{"level":"info","msg":"lesson completed","total":56,"completed":1}`,
			wantParsed: true,
			wantLevel:  zapcore.InfoLevel,
			wantMsg:    "lesson completed",
			wantFields: "completed=1 total=56",
		},
		{
			name:      "console line",
			input:     "2026-03-01T12:00:00.000Z\tDEBUG\tlectern\trestored snapshot",
			wantLevel: zapcore.InfoLevel,
		},
		{
			name:      "json without msg",
			input:     `{"level":"error"}`,
			wantLevel: zapcore.InfoLevel,
		},
		{
			name:      "broken json",
			input:     `{"level":`,
			wantLevel: zapcore.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got.Parsed != tt.wantParsed {
				t.Fatalf("Parsed = %v, want %v", got.Parsed, tt.wantParsed)
			}
			if got.Raw != tt.input {
				t.Fatalf("Raw = %q, want input", got.Raw)
			}
			if got.Level != tt.wantLevel {
				t.Fatalf("Level = %v, want %v", got.Level, tt.wantLevel)
			}
			if got.Message != tt.wantMsg || got.Logger != tt.wantLogger {
				t.Fatalf("Message/Logger = %q/%q, want %q/%q", got.Message, got.Logger, tt.wantMsg, tt.wantLogger)
			}
			if got.FieldString() != tt.wantFields {
				t.Fatalf("FieldString() = %q, want %q", got.FieldString(), tt.wantFields)
			}
		})
	}
}

func TestTailAndFilter(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "lectern.log")
	body := strings.Join([]string{
		`{"level":"debug","msg":"restored snapshot"}`,
		``,
		`{"level":"info","msg":"bootstrap complete"}`,
		`plain text line`,
		`{"level":"warn","msg":"lesson refresh failed"}`,
	}, "\n") + "\n"
	if err := os.WriteFile(logPath, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := Tail(logPath, 0)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Tail returned %d entries, want 4 (blank skipped)", len(entries))
	}

	warn := Filter(entries, zapcore.WarnLevel)
	if len(warn) != 2 {
		t.Fatalf("Filter(warn) = %d entries, want 2 (warn + unparsed)", len(warn))
	}
	if warn[0].Raw != "plain text line" || warn[1].Message != "lesson refresh failed" {
		t.Fatalf("Filter(warn) = %#v", warn)
	}
}
