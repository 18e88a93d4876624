package learn

import "math"

// SectionType discriminates the two kinds of lesson section.
type SectionType string

const (
	SectionTheory   SectionType = "theory"
	SectionPractice SectionType = "practice"
)

// Lesson mirrors a lesson as served by /api/lessons and /api/lessons/{id}.
// The list endpoint omits Sections. Slice fields encode without omitempty so
// an empty list and an absent one survive a cache round trip unchanged.
type Lesson struct {
	ID          string    `json:"id"`
	Order       int       `json:"order"`
	Week        int       `json:"week"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Sections    []Section `json:"sections"`
}

// Practice returns the exercise of the first practice section, if any.
func (l Lesson) Practice() (*Exercise, bool) {
	for _, s := range l.Sections {
		if s.Type == SectionPractice && s.Exercise != nil {
			return s.Exercise, true
		}
	}
	return nil, false
}

// Section is a tagged variant: theory sections use Content and Examples,
// practice sections use Exercise.
type Section struct {
	Type     SectionType `json:"type"`
	Title    string      `json:"title"`
	Content  string      `json:"content,omitempty"`
	Examples []Example   `json:"examples"`
	Exercise *Exercise   `json:"exercise,omitempty"`
}

// Example is a worked code sample inside a theory section.
type Example struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation,omitempty"`
	Code        string `json:"code"`
	Output      string `json:"output,omitempty"`
}

// Exercise is the prompt of a practice section.
type Exercise struct {
	ID           string     `json:"id,omitempty"`
	Instructions string     `json:"instructions"`
	StarterCode  string     `json:"starter_code,omitempty"`
	Hints        []string   `json:"hints"`
	TestCases    []TestCase `json:"test_cases"`
}

// Testable reports whether the exercise can be checked by the remote executor.
func (e *Exercise) Testable() bool {
	return e != nil && e.ID != "" && len(e.TestCases) > 0
}

// TestCase pairs stdin lines with the output the program must produce.
type TestCase struct {
	Input          string   `json:"input,omitempty"`
	Inputs         []string `json:"inputs"`
	ExpectedOutput string   `json:"expected_output"`
}

// Progress is the server-computed completion aggregate. Percentage is
// authoritative and is not derived from Completed/Total on the client.
type Progress struct {
	Completed       int     `json:"completed"`
	Total           int     `json:"total"`
	Percentage      float64 `json:"percentage"`
	CurrentLessonID string  `json:"current_lesson_id,omitempty"`
}

// DisplayPercentage rounds Percentage for display.
func (p Progress) DisplayPercentage() int {
	return int(math.Round(p.Percentage))
}

// ExecutionResult is the outcome of running code on the remote executor.
type ExecutionResult struct {
	Success       bool    `json:"success"`
	Output        string  `json:"output"`
	Error         string  `json:"error"`
	ExecutionTime float64 `json:"execution_time"`
}

// TestResult aggregates the outcome of an exercise test run.
type TestResult struct {
	Success bool             `json:"success"`
	Passed  int              `json:"passed"`
	Total   int              `json:"total"`
	Results []TestCaseResult `json:"results"`
}

// TestCaseResult is the outcome of one test case.
type TestCaseResult struct {
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Error    string `json:"error,omitempty"`
}

// envelope is the common response shape of every platform endpoint.
type envelope struct {
	Success    bool             `json:"success"`
	Error      string           `json:"error"`
	Lessons    []Lesson         `json:"lessons"`
	Lesson     *Lesson          `json:"lesson"`
	Progress   *Progress        `json:"progress"`
	Execution  *ExecutionResult `json:"execution"`
	TestResult *TestResult      `json:"test_result"`
}

type executeRequest struct {
	Code       string  `json:"code"`
	LessonID   *string `json:"lesson_id"`
	ExerciseID *string `json:"exercise_id"`
}

type testRequest struct {
	Code      string     `json:"code"`
	TestCases []TestCase `json:"test_cases"`
	LessonID  *string    `json:"lesson_id"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
