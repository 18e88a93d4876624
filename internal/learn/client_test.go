package learn

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	got, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if got != DefaultBaseURL {
		t.Fatalf("parseBaseURL(\"\") = %q, want %q", got, DefaultBaseURL)
	}

	got, err = parseBaseURL("example.com:1234/platform/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if got != "http://example.com:1234/platform" {
		t.Fatalf("parseBaseURL = %q, want scheme added and query dropped", got)
	}

	if _, err := parseBaseURL("ftp://example.com"); err == nil {
		t.Fatalf("parseBaseURL(ftp) returned nil error, want error")
	}
}

func TestClient_FetchesEndpoints(t *testing.T) {
	t.Parallel()

	var gotUserAgent, gotRequestID string
	var gotExecute executeRequest
	var gotTest testRequest
	var completedID string

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			gotUserAgent = req.Header.Get("User-Agent")
			gotRequestID = req.Header.Get(RequestIDHeader)
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/lessons", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"lessons": []Lesson{{ID: "01_intro", Order: 1, Week: 1, Title: "Intro"}, {ID: "02_vars", Order: 2, Week: 1}},
		})
	})
	r.Get("/api/lessons/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"lesson": Lesson{
				ID:    chi.URLParam(req, "id"),
				Title: "Intro",
				Sections: []Section{
					{Type: SectionTheory, Title: "print", Content: "**print()**", Examples: []Example{{Title: "hello", Code: "print('hi')", Output: "hi"}}},
					{Type: SectionPractice, Title: "Try it", Exercise: &Exercise{ID: "intro_practice", Instructions: "say hi", TestCases: []TestCase{{ExpectedOutput: "hi"}}}},
				},
			},
		})
	})
	r.Post("/api/lessons/{id}/complete", func(w http.ResponseWriter, req *http.Request) {
		completedID = chi.URLParam(req, "id")
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"progress": Progress{Completed: 1, Total: 56, Percentage: 1.79},
		})
	})
	r.Get("/api/progress", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"progress": Progress{Completed: 3, Total: 56, Percentage: 5.36, CurrentLessonID: "04_loops"},
		})
	})
	r.Post("/api/execute", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewDecoder(req.Body).Decode(&gotExecute)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"execution": ExecutionResult{Success: true, Output: "hi\n", ExecutionTime: 0.01},
		})
	})
	r.Post("/api/exercises/{id}/test", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewDecoder(req.Body).Decode(&gotTest)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"test_result": TestResult{Success: true, Passed: 1, Total: 1, Results: []TestCaseResult{{Passed: true, Expected: "hi", Actual: "hi"}}},
		})
	})

	c := newTestClient(t, r)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	lessons, err := c.ListLessons(ctx)
	if err != nil {
		t.Fatalf("ListLessons returned error: %v", err)
	}
	if len(lessons) != 2 || lessons[0].ID != "01_intro" || lessons[1].ID != "02_vars" {
		t.Fatalf("ListLessons = %#v, want 2 lessons in server order", lessons)
	}

	lesson, err := c.GetLesson(ctx, "01_intro")
	if err != nil {
		t.Fatalf("GetLesson returned error: %v", err)
	}
	if lesson.ID != "01_intro" || len(lesson.Sections) != 2 {
		t.Fatalf("GetLesson = %#v, want id 01_intro with 2 sections", lesson)
	}
	ex, ok := lesson.Practice()
	if !ok || ex.ID != "intro_practice" || !ex.Testable() {
		t.Fatalf("Practice() = %#v, %v; want testable intro_practice", ex, ok)
	}

	progress, err := c.CompleteLesson(ctx, "01_intro")
	if err != nil {
		t.Fatalf("CompleteLesson returned error: %v", err)
	}
	if completedID != "01_intro" || progress.Completed != 1 || progress.Percentage != 1.79 {
		t.Fatalf("CompleteLesson = %#v (id %q), want completed=1 pct=1.79", progress, completedID)
	}

	progress, err = c.GetProgress(ctx)
	if err != nil {
		t.Fatalf("GetProgress returned error: %v", err)
	}
	if progress.CurrentLessonID != "04_loops" {
		t.Fatalf("GetProgress current lesson = %q, want 04_loops", progress.CurrentLessonID)
	}

	exec, err := c.ExecuteCode(ctx, "print('hi')", "01_intro", "")
	if err != nil {
		t.Fatalf("ExecuteCode returned error: %v", err)
	}
	if !exec.Success || exec.Output != "hi\n" {
		t.Fatalf("ExecuteCode = %#v, want success output hi", exec)
	}
	if gotExecute.Code != "print('hi')" || gotExecute.LessonID == nil || *gotExecute.LessonID != "01_intro" || gotExecute.ExerciseID != nil {
		t.Fatalf("execute body = %#v, want lesson id set and exercise id null", gotExecute)
	}

	res, err := c.TestExercise(ctx, "intro_practice", "print('hi')", []TestCase{{ExpectedOutput: "hi"}}, "")
	if err != nil {
		t.Fatalf("TestExercise returned error: %v", err)
	}
	if !res.Success || res.Passed != 1 {
		t.Fatalf("TestExercise = %#v, want 1 passed", res)
	}
	if len(gotTest.TestCases) != 1 || gotTest.LessonID != nil {
		t.Fatalf("test body = %#v, want 1 case and null lesson id", gotTest)
	}

	if !strings.HasPrefix(gotUserAgent, "lectern/") {
		t.Fatalf("User-Agent = %q, want lectern/*", gotUserAgent)
	}
	if gotRequestID == "" {
		t.Fatalf("%s header missing", RequestIDHeader)
	}
}

func TestClient_EscapesPathIDs(t *testing.T) {
	t.Parallel()

	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "lesson": Lesson{ID: "x"}})
	}))

	if _, err := c.GetLesson(context.Background(), "a b/c"); err != nil {
		t.Fatalf("GetLesson returned error: %v", err)
	}
	if gotPath != "/api/lessons/a%20b%2Fc" {
		t.Fatalf("path = %q, want escaped id", gotPath)
	}
}

func TestClient_ErrorsCarryServerMessage(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/lessons", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "lessons dir missing"})
	})
	r.Get("/api/progress", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
	})
	r.Get("/api/lessons/{id}", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	r.Post("/api/lessons/{id}/complete", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not-json"))
	})
	c := newTestClient(t, r)
	ctx := context.Background()

	tests := []struct {
		name       string
		call       func() error
		wantKind   Kind
		wantMsg    string
		wantStatus int
	}{
		{
			name:       "server error string wins",
			call:       func() error { _, err := c.ListLessons(ctx); return err },
			wantKind:   KindRemote,
			wantMsg:    "lessons dir missing",
			wantStatus: http.StatusNotFound,
		},
		{
			name:     "success false uses fallback",
			call:     func() error { _, err := c.GetProgress(ctx); return err },
			wantKind: KindRemote,
			wantMsg:  "failed to load progress",
		},
		{
			name:       "non json error body uses fallback",
			call:       func() error { _, err := c.GetLesson(ctx, "01"); return err },
			wantKind:   KindRemote,
			wantMsg:    "failed to load lesson",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:     "malformed success body",
			call:     func() error { _, err := c.CompleteLesson(ctx, "01"); return err },
			wantKind: KindDecode,
			wantMsg:  "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var lerr *Error
			if !errors.As(err, &lerr) {
				t.Fatalf("error = %v, want *learn.Error", err)
			}
			if lerr.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", lerr.Kind, tt.wantKind)
			}
			if lerr.Message != tt.wantMsg {
				t.Fatalf("Message = %q, want %q", lerr.Message, tt.wantMsg)
			}
			if lerr.StatusCode != tt.wantStatus {
				t.Fatalf("StatusCode = %d, want %d", lerr.StatusCode, tt.wantStatus)
			}
			if lerr.RequestID == "" {
				t.Fatalf("RequestID empty, want correlation id")
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := NewClient(addr, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.ListLessons(context.Background())
	if !IsTransport(err) {
		t.Fatalf("ListLessons error = %v, want transport error", err)
	}
	if IsRemote(err) {
		t.Fatalf("IsRemote = true for transport error")
	}
	if got := Message(err); got != "failed to load lessons" {
		t.Fatalf("Message = %q, want fallback", got)
	}
	if c.HealthCheck(context.Background()) {
		t.Fatalf("HealthCheck = true against closed server, want false")
	}
}

func TestClient_HealthCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
	}{
		{
			name: "healthy",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
			},
			want: true,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
			},
			want: false,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("ok"))
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			if got := c.HealthCheck(context.Background()); got != tt.want {
				t.Fatalf("HealthCheck = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_RequiresIDs(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.GetLesson(context.Background(), " "); err == nil {
		t.Fatalf("GetLesson with empty id returned nil error")
	}
	if _, err := c.CompleteLesson(context.Background(), ""); err == nil {
		t.Fatalf("CompleteLesson with empty id returned nil error")
	}
	if _, err := c.TestExercise(context.Background(), "", "print()", nil, ""); err == nil {
		t.Fatalf("TestExercise with empty exercise id returned nil error")
	}
}

func TestProgress_DisplayPercentage(t *testing.T) {
	tests := []struct {
		pct  float64
		want int
	}{
		{0, 0},
		{1.79, 2},
		{2.5, 3},
		{49.4, 49},
		{100, 100},
	}
	for _, tt := range tests {
		if got := (Progress{Percentage: tt.pct}).DisplayPercentage(); got != tt.want {
			t.Errorf("DisplayPercentage(%v) = %d, want %d", tt.pct, got, tt.want)
		}
	}
}
