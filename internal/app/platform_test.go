package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap/zaptest"

	"github.com/five82/lectern/internal/cache"
	"github.com/five82/lectern/internal/config"
	"github.com/five82/lectern/internal/exercise"
	"github.com/five82/lectern/internal/learn"
	"github.com/five82/lectern/internal/state"
)

// fakePlatform is an in-memory learning platform served over httptest.
type fakePlatform struct {
	mu          sync.Mutex
	lessons     []learn.Lesson
	progress    learn.Progress
	healthy     bool
	failLessons bool
	testResult  learn.TestResult
	execResult  learn.ExecutionResult
	completed   []string
}

func newFakePlatform() *fakePlatform {
	practice := learn.Section{Type: learn.SectionPractice, Title: "Greet", Exercise: &learn.Exercise{
		ID:           "ex-greet",
		Instructions: "Print hello",
		TestCases:    []learn.TestCase{{ExpectedOutput: "hello"}},
	}}
	return &fakePlatform{
		healthy: true,
		lessons: []learn.Lesson{
			{ID: "l1", Order: 1, Week: 1, Title: "Print", Sections: []learn.Section{practice}},
			{ID: "l2", Order: 2, Week: 1, Title: "Variables"},
			{ID: "l3", Order: 3, Week: 2, Title: "Loops"},
		},
		progress:   learn.Progress{Completed: 0, Total: 3, Percentage: 0},
		execResult: learn.ExecutionResult{Success: true, Output: "hello\n", ExecutionTime: 0.01},
		testResult: learn.TestResult{Success: true, Passed: 1, Total: 1, Results: []learn.TestCaseResult{{Passed: true, Expected: "hello", Actual: "hello"}}},
	}
}

func (f *fakePlatform) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.healthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Get("/api/lessons", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failLessons {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "database locked"})
			return
		}
		summaries := make([]learn.Lesson, len(f.lessons))
		for i, l := range f.lessons {
			l.Sections = nil
			summaries[i] = l
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "lessons": summaries})
	})
	r.Get("/api/lessons/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := chi.URLParam(r, "id")
		for _, l := range f.lessons {
			if l.ID == id {
				writeJSON(w, http.StatusOK, map[string]any{"success": true, "lesson": l})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Lesson not found"})
	})
	r.Post("/api/lessons/{id}/complete", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.completed = append(f.completed, chi.URLParam(r, "id"))
		f.progress.Completed++
		f.progress.Percentage = float64(f.progress.Completed) / float64(f.progress.Total) * 100
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "progress": f.progress})
	})
	r.Get("/api/progress", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "progress": f.progress})
	})
	r.Post("/api/execute", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "execution": f.execResult})
	})
	r.Post("/api/exercises/{id}/test", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "test_result": f.testResult})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newTestSession wires a Session against platform with a file cache in a
// temp dir.
func newTestSession(t *testing.T, platform *fakePlatform) *Session {
	t.Helper()
	srv := httptest.NewServer(platform.routes())
	t.Cleanup(srv.Close)

	client, err := learn.NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	cachePath := filepath.Join(t.TempDir(), "progress.json")
	store, err := cache.Open(cache.BackendFile, cachePath)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}

	logger := zaptest.NewLogger(t)
	tracker := state.NewTracker(client, store, logger)
	return &Session{
		Config:   config.Config{Cache: config.CacheConfig{Backend: cache.BackendFile, Path: cachePath}},
		Logger:   logger,
		Client:   client,
		Tracker:  tracker,
		Runner:   exercise.NewRunner(client, tracker, logger),
		store:    store,
		closeLog: func() {},
	}
}
