package learn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Platform defines the operations the rest of Lectern needs from the learning
// platform. It is implemented by *Client and can be faked in tests.
type Platform interface {
	ListLessons(ctx context.Context) ([]Lesson, error)
	GetLesson(ctx context.Context, lessonID string) (Lesson, error)
	CompleteLesson(ctx context.Context, lessonID string) (Progress, error)
	GetProgress(ctx context.Context) (Progress, error)
	ExecuteCode(ctx context.Context, code, lessonID, exerciseID string) (ExecutionResult, error)
	TestExercise(ctx context.Context, exerciseID, code string, cases []TestCase, lessonID string) (TestResult, error)
	HealthCheck(ctx context.Context) bool
}

// Ensure Client implements Platform at compile time.
var _ Platform = (*Client)(nil)

// Client talks to the learning platform HTTP API.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

const (
	DefaultBaseURL   = "http://127.0.0.1:5001"
	defaultUserAgent = "lectern/0.1"
	defaultTimeout   = 10 * time.Second

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// NewClient builds a Client for the platform at baseURL. A zero timeout uses
// the default.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized platform address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListLessons retrieves lesson summaries in server order.
func (c *Client) ListLessons(ctx context.Context) ([]Lesson, error) {
	env, err := c.do(ctx, "list lessons", "failed to load lessons", http.MethodGet, "/api/lessons", nil)
	if err != nil {
		return nil, err
	}
	if env.Lessons == nil {
		return []Lesson{}, nil
	}
	return env.Lessons, nil
}

// GetLesson retrieves a single lesson with its sections.
func (c *Client) GetLesson(ctx context.Context, lessonID string) (Lesson, error) {
	const op = "get lesson"
	if strings.TrimSpace(lessonID) == "" {
		return Lesson{}, &Error{Op: op, Kind: KindRemote, Message: "lesson id required"}
	}
	env, err := c.do(ctx, op, "failed to load lesson", http.MethodGet, "/api/lessons/"+url.PathEscape(lessonID), nil)
	if err != nil {
		return Lesson{}, err
	}
	if env.Lesson == nil {
		return Lesson{}, &Error{Op: op, Kind: KindDecode, Message: "response has no lesson"}
	}
	return *env.Lesson, nil
}

// CompleteLesson marks a lesson complete and returns the server's progress.
func (c *Client) CompleteLesson(ctx context.Context, lessonID string) (Progress, error) {
	const op = "complete lesson"
	if strings.TrimSpace(lessonID) == "" {
		return Progress{}, &Error{Op: op, Kind: KindRemote, Message: "lesson id required"}
	}
	path := "/api/lessons/" + url.PathEscape(lessonID) + "/complete"
	env, err := c.do(ctx, op, "failed to complete lesson", http.MethodPost, path, nil)
	if err != nil {
		return Progress{}, err
	}
	if env.Progress == nil {
		return Progress{}, &Error{Op: op, Kind: KindDecode, Message: "response has no progress"}
	}
	return *env.Progress, nil
}

// GetProgress retrieves the completion aggregate.
func (c *Client) GetProgress(ctx context.Context) (Progress, error) {
	const op = "get progress"
	env, err := c.do(ctx, op, "failed to load progress", http.MethodGet, "/api/progress", nil)
	if err != nil {
		return Progress{}, err
	}
	if env.Progress == nil {
		return Progress{}, &Error{Op: op, Kind: KindDecode, Message: "response has no progress"}
	}
	return *env.Progress, nil
}

// ExecuteCode runs code on the remote executor. lessonID and exerciseID are
// optional and sent as null when empty.
func (c *Client) ExecuteCode(ctx context.Context, code, lessonID, exerciseID string) (ExecutionResult, error) {
	const op = "execute code"
	body := executeRequest{Code: code, LessonID: optional(lessonID), ExerciseID: optional(exerciseID)}
	env, err := c.do(ctx, op, "failed to execute code", http.MethodPost, "/api/execute", body)
	if err != nil {
		return ExecutionResult{}, err
	}
	if env.Execution == nil {
		return ExecutionResult{}, &Error{Op: op, Kind: KindDecode, Message: "response has no execution"}
	}
	return *env.Execution, nil
}

// TestExercise runs code against the exercise's test cases.
func (c *Client) TestExercise(ctx context.Context, exerciseID, code string, cases []TestCase, lessonID string) (TestResult, error) {
	const op = "test exercise"
	if strings.TrimSpace(exerciseID) == "" {
		return TestResult{}, &Error{Op: op, Kind: KindRemote, Message: "exercise id required"}
	}
	if cases == nil {
		cases = []TestCase{}
	}
	body := testRequest{Code: code, TestCases: cases, LessonID: optional(lessonID)}
	path := "/api/exercises/" + url.PathEscape(exerciseID) + "/test"
	env, err := c.do(ctx, op, "failed to test exercise", http.MethodPost, path, body)
	if err != nil {
		return TestResult{}, err
	}
	if env.TestResult == nil {
		return TestResult{}, &Error{Op: op, Kind: KindDecode, Message: "response has no test result"}
	}
	return *env.TestResult, nil
}

// HealthCheck reports whether the platform answers /api/health with a 2xx
// JSON response. All failures collapse into false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	if c == nil {
		return false
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false
	}
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) do(ctx context.Context, op, fallback, method, path string, body any) (envelope, error) {
	if c == nil {
		return envelope{}, &Error{Op: op, Kind: KindTransport, Message: "client is nil"}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return envelope{}, &Error{Op: op, Kind: KindTransport, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return envelope{}, &Error{Op: op, Kind: KindTransport, Message: "create request", Err: err}
	}
	requestID := req.Header.Get(RequestIDHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, &Error{Op: op, Kind: KindTransport, Message: fallback, RequestID: requestID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if decodeErr != nil && errors.Is(decodeErr, io.EOF) {
		decodeErr = errors.New("empty response body")
	}

	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(env.Error)
		if decodeErr != nil || msg == "" {
			msg = fallback
		}
		return envelope{}, &Error{Op: op, Kind: KindRemote, StatusCode: resp.StatusCode, Message: msg, RequestID: requestID}
	}
	if decodeErr != nil {
		return envelope{}, &Error{Op: op, Kind: KindDecode, Message: "decode response", RequestID: requestID, Err: decodeErr}
	}
	if !env.Success {
		msg := strings.TrimSpace(env.Error)
		if msg == "" {
			msg = fallback
		}
		return envelope{}, &Error{Op: op, Kind: KindRemote, Message: msg, RequestID: requestID}
	}
	return env, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func parseBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("parse api url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String(), nil
}
