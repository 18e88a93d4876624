package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lectern/internal/exercise"
	"github.com/five82/lectern/internal/learn"
)

// detailState holds the lesson detail view state.
type detailState struct {
	lesson    *learn.Lesson
	loading   bool
	loadingID string
	loadErr   string

	editing bool
	codeFor string // lesson the editor buffer was seeded for

	busy     bool
	output   string
	outputOK bool
	running  string // pane title while busy
}

func newEditor() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Write your Python code here..."
	ta.ShowLineNumbers = true
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.MaxHeight = 0
	return ta
}

func (m *Model) applyEditorTheme() {
	st := textarea.Style{
		Base:             lipgloss.NewStyle().Background(lipgloss.Color(m.theme.SurfaceAlt)),
		Text:             lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Text)),
		LineNumber:       lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Faint)),
		CursorLineNumber: lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)),
		CursorLine:       lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg)),
		Placeholder:      lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)),
		EndOfBuffer:      lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.BorderMuted)),
	}
	m.editor.FocusedStyle = st
	st.CursorLine = lipgloss.NewStyle()
	m.editor.BlurredStyle = st
}

// detailLayout splits the content height between the lesson text, the
// editor and output panes, and the navigation line.
func (m Model) detailLayout() (lessonH, lowerH int, split bool) {
	total := m.contentHeight() - 1
	switch {
	case m.detail.editing:
		lowerH = max(total/2, 6)
	case m.detail.output != "":
		lowerH = max(total*2/5, 5)
	}
	lessonH = max(total-lowerH, 3)
	split = m.width >= LayoutSplitWidth
	return lessonH, lowerH, split
}

// updateDetailViewport sizes the viewport and editor and re-renders the
// lesson text.
func (m *Model) updateDetailViewport() {
	lessonH, lowerH, split := m.detailLayout()
	width := max(m.width-2, 10)
	height := max(lessonH-2, 1)
	if m.detailViewport.Width == 0 {
		m.detailViewport = viewport.New(width, height)
	}
	m.detailViewport.Width = width
	m.detailViewport.Height = height
	m.detailViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.detail.lesson != nil {
		m.detailViewport.SetContent(renderLessonContent(*m.detail.lesson, width, m.theme, m.detail.loading, m.detail.loadErr))
	}

	if m.detail.editing {
		w, h := m.width, lowerH
		if m.detail.output != "" {
			if split {
				w = m.width / 2
			} else {
				h = lowerH / 2
			}
		}
		m.editor.SetWidth(max(w-2, 10))
		m.editor.SetHeight(max(h-2, 1))
	}
}

// renderLessonContent renders a lesson's sections as wrapped text.
func renderLessonContent(lesson learn.Lesson, width int, theme Theme, loading bool, loadErr string) string {
	styles := theme.Styles().WithBackground(theme.FocusBg)
	wrap := func(s string, st lipgloss.Style) string {
		return st.Width(width).Render(strings.TrimRight(s, "\n"))
	}

	var blocks []string
	blocks = append(blocks, wrap(lesson.Title, styles.AccentText.Bold(true)))
	var meta []string
	if lesson.Week > 0 {
		meta = append(meta, fmt.Sprintf("Week %d", lesson.Week))
	}
	if lesson.Order > 0 {
		meta = append(meta, fmt.Sprintf("Lesson %d", lesson.Order))
	}
	if len(meta) > 0 {
		blocks = append(blocks, wrap(strings.Join(meta, " · "), styles.FaintText))
	}
	if lesson.Description != "" {
		blocks = append(blocks, wrap(lesson.Description, styles.MutedText))
	}

	switch {
	case loadErr != "" && len(lesson.Sections) == 0:
		blocks = append(blocks, "", wrap("Lesson content unavailable: "+loadErr, styles.DangerText))
	case loading && len(lesson.Sections) == 0:
		blocks = append(blocks, "", wrap("Loading lesson content...", styles.WarningText))
	case len(lesson.Sections) == 0:
		blocks = append(blocks, "", wrap("This lesson has no content yet.", styles.MutedText))
	}

	for _, sec := range lesson.Sections {
		blocks = append(blocks, "")
		if sec.Type == learn.SectionPractice {
			blocks = append(blocks, renderPractice(sec, width, styles, wrap)...)
			continue
		}
		blocks = append(blocks, renderTheory(sec, width, styles, wrap)...)
	}
	return strings.Join(blocks, "\n")
}

func renderTheory(sec learn.Section, width int, styles Styles, wrap func(string, lipgloss.Style) string) []string {
	var out []string
	if sec.Title != "" {
		out = append(out, wrap("## "+sec.Title, styles.Text.Bold(true)))
	}
	if sec.Content != "" {
		out = append(out, wrap(sec.Content, styles.Text))
	}
	for _, ex := range sec.Examples {
		out = append(out, "")
		if ex.Title != "" {
			out = append(out, wrap("Example: "+ex.Title, styles.InfoText))
		}
		if ex.Explanation != "" {
			out = append(out, wrap(ex.Explanation, styles.MutedText))
		}
		out = append(out, codeBlock(ex.Code, width, styles))
		if ex.Output != "" {
			out = append(out, wrap("Output:", styles.FaintText), codeBlock(ex.Output, width, styles))
		}
	}
	return out
}

func renderPractice(sec learn.Section, width int, styles Styles, wrap func(string, lipgloss.Style) string) []string {
	title := "Exercise"
	if sec.Title != "" {
		title += ": " + sec.Title
	}
	out := []string{wrap("✎ "+title, styles.WarningText.Bold(true))}
	ex := sec.Exercise
	if ex == nil {
		return append(out, wrap("No exercise attached.", styles.MutedText))
	}
	if ex.Instructions != "" {
		out = append(out, wrap(ex.Instructions, styles.Text))
	}
	for _, hint := range ex.Hints {
		out = append(out, wrap("Hint: "+hint, styles.MutedText))
	}
	if n := len(ex.TestCases); n > 0 {
		out = append(out, "", wrap(fmt.Sprintf("%d test case(s). Press E to edit, ctrl+t to test.", n), styles.FaintText))
		for i, tc := range ex.TestCases {
			label := fmt.Sprintf("Case %d expects:", i+1)
			if in := testInput(tc); in != "" {
				label = fmt.Sprintf("Case %d with input %q expects:", i+1, in)
			}
			out = append(out, wrap(label, styles.MutedText), codeBlock(tc.ExpectedOutput, width, styles))
		}
	}
	return out
}

func testInput(tc learn.TestCase) string {
	if len(tc.Inputs) > 0 {
		return strings.Join(tc.Inputs, ", ")
	}
	return tc.Input
}

func codeBlock(code string, width int, styles Styles) string {
	code = strings.TrimRight(code, "\n")
	lines := strings.Split(code, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return styles.Code.Width(width).Render(strings.Join(lines, "\n"))
}

// renderDetail renders the lesson view.
func (m Model) renderDetail() string {
	height := m.contentHeight()
	lesson := m.detail.lesson
	if lesson == nil {
		styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
		text := "No lesson selected. Pick one from the lessons list (2)."
		if m.detail.loading {
			text = "Loading lesson..."
		}
		return m.renderBox("Lesson", styles.MutedText.Render(text), m.width, height, true)
	}

	lessonH, lowerH, split := m.detailLayout()
	title := lessonLabel(*lesson)
	if m.detail.loading {
		title += " (loading)"
	}
	parts := []string{m.renderBox(title, m.detailViewport.View(), m.width, lessonH, !m.detail.editing)}
	if lowerH > 0 {
		parts = append(parts, m.renderDetailLower(lowerH, split))
	}
	parts = append(parts, m.renderLessonNav())
	return strings.Join(parts, "\n")
}

func (m Model) renderDetailLower(height int, split bool) string {
	editorBox := func(w, h int) string {
		return m.renderBox("Editor", m.editor.View(), w, h, m.detail.editing)
	}
	outputBox := func(w, h int) string {
		return m.renderBox(m.outputTitle(), m.renderOutput(max(w-2, 1)), w, h, false)
	}

	switch {
	case m.detail.editing && m.detail.output != "" && split:
		left := m.width / 2
		return lipgloss.JoinHorizontal(lipgloss.Top, editorBox(left, height), outputBox(m.width-left, height))
	case m.detail.editing && m.detail.output != "":
		top := height / 2
		return editorBox(m.width, top) + "\n" + outputBox(m.width, height-top)
	case m.detail.editing:
		return editorBox(m.width, height)
	default:
		return outputBox(m.width, height)
	}
}

func (m Model) outputTitle() string {
	if m.detail.busy {
		return m.detail.running
	}
	return "Output"
}

func (m Model) renderOutput(width int) string {
	styles := m.theme.Styles()
	st := styles.DangerText
	if m.detail.outputOK {
		st = styles.Text
	}
	if m.detail.busy {
		st = styles.WarningText
	}
	return st.Width(width).Render(m.detail.output)
}

// renderLessonNav renders previous/next hints. A hint is dimmed when there is
// no lesson in that direction.
func (m Model) renderLessonNav() string {
	styles := m.theme.Styles()
	prev, next := "← p Previous", "n Next →"
	prevStyle, nextStyle := styles.AccentText, styles.AccentText
	if !m.hasPrev {
		prev, prevStyle = "← first lesson", styles.FaintText
	}
	if !m.hasNext {
		next, nextStyle = "last lesson →", styles.FaintText
	}
	left := prevStyle.Render(prev)
	right := nextStyle.Render(next)
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

// handleDetailKey processes keyboard input for the lesson view.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextLesson):
		if m.tracker == nil {
			return m, nil
		}
		if next, ok := m.tracker.NextLesson(); ok {
			return m.openLesson(next)
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevLesson):
		if m.tracker == nil {
			return m, nil
		}
		if prev, ok := m.tracker.PreviousLesson(); ok {
			return m.openLesson(prev)
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		if m.detail.lesson == nil {
			return m, nil
		}
		m.detail.editing = true
		m.resize()
		cmd := m.editor.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.RunCode):
		return m.runCode()

	case key.Matches(msg, m.keys.TestCode):
		return m.testCode()

	case key.Matches(msg, m.keys.Down):
		m.detailViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.detailViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Top):
		m.detailViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.detailViewport.GotoBottom()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.detailViewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.detailViewport.HalfPageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.detailViewport.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.detailViewport.PageUp()
	}
	return m, nil
}

// handleEditorKey routes keys to the editor. Only run, test, close and
// ctrl+c are intercepted.
func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Escape):
		m.detail.editing = false
		m.editor.Blur()
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.RunCode):
		return m.runCode()
	case key.Matches(msg, m.keys.TestCode):
		return m.testCode()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// openLesson shows lesson right away and fetches its full content. The
// loaded lesson becomes the current one.
func (m Model) openLesson(lesson learn.Lesson) (tea.Model, tea.Cmd) {
	m.showLesson(lesson)
	if m.lessons == nil {
		return m, nil
	}
	m.detail.loading = true
	m.detail.loadingID = lesson.ID
	m.resize()
	return m, loadLessonCmd(m.ctx, m.lessons, lesson.ID)
}

// ensureLessonLoaded opens the current lesson when the detail view has
// nothing or something stale to show.
func (m Model) ensureLessonLoaded() (tea.Model, tea.Cmd) {
	cur := m.snapshot.CurrentLesson
	if cur == nil && m.tracker != nil {
		if l, ok := m.tracker.CurrentLesson(); ok {
			cur = &l
		}
	}
	if cur == nil {
		return m, nil
	}
	if d := m.detail.lesson; d != nil && d.ID == cur.ID && len(d.Sections) > 0 {
		return m, nil
	}
	if len(cur.Sections) > 0 {
		m.showLesson(*cur)
		return m, nil
	}
	if m.detail.loading && m.detail.loadingID == cur.ID {
		return m, nil
	}
	return m.openLesson(*cur)
}

// showLesson puts lesson in the detail view. Switching lessons resets the
// output pane. The editor is seeded with starter code once per lesson, as
// soon as the full content is known.
func (m *Model) showLesson(lesson learn.Lesson) {
	changed := m.detail.lesson == nil || m.detail.lesson.ID != lesson.ID
	m.detail.lesson = &lesson
	m.detail.loadErr = ""
	if changed {
		m.detail.output = ""
		m.detail.editing = false
		m.editor.Blur()
		m.detailViewport.GotoTop()
	}
	if changed || (m.detail.codeFor != lesson.ID && len(lesson.Sections) > 0) {
		m.editor.SetValue(starterCode(lesson))
		m.detail.codeFor = ""
		if len(lesson.Sections) > 0 {
			m.detail.codeFor = lesson.ID
		}
	}
	m.resize()
}

func (m Model) handleLessonLoaded(msg lessonLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.detail.loadingID {
		return m, nil
	}
	m.detail.loading = false
	m.detail.loadingID = ""
	if msg.err != nil {
		m.detail.loadErr = learn.Message(msg.err)
		m.banner = "Failed to load lesson: " + m.detail.loadErr
		m.resize()
		return m, nil
	}
	m.showLesson(msg.lesson)
	return m, selectLessonCmd(m.ctx, m.tracker, msg.lesson)
}

func (m Model) runCode() (tea.Model, tea.Cmd) {
	if m.detail.lesson == nil || m.runner == nil || m.detail.busy {
		return m, nil
	}
	m.detail.busy = true
	m.detail.running = "Running..."
	m.detail.output = "Running your code..."
	m.resize()
	return m, runCodeCmd(m.ctx, m.runner, *m.detail.lesson, m.editor.Value())
}

func (m Model) testCode() (tea.Model, tea.Cmd) {
	if m.detail.lesson == nil || m.runner == nil || m.detail.busy {
		return m, nil
	}
	m.detail.busy = true
	m.detail.running = "Testing..."
	m.detail.output = "Running tests..."
	m.resize()
	return m, testCodeCmd(m.ctx, m.runner, *m.detail.lesson, m.editor.Value())
}

func (m *Model) handleRunDone(msg runDoneMsg) {
	m.detail.busy = false
	if m.detail.lesson == nil || m.detail.lesson.ID != msg.lessonID {
		m.detail.output = ""
		m.resize()
		return
	}
	if msg.err != nil {
		m.detail.output = learn.Message(msg.err)
		m.detail.outputOK = false
		m.resize()
		return
	}
	out := exercise.FormatExecution(msg.result)
	if out == "" {
		out = "(no output)"
	}
	if msg.result.ExecutionTime > 0 {
		out += fmt.Sprintf("\n\nFinished in %.2fs", msg.result.ExecutionTime)
	}
	m.detail.output = out
	m.detail.outputOK = msg.result.Success
	m.resize()
}

func (m *Model) handleTestDone(msg testDoneMsg) {
	m.detail.busy = false
	if m.detail.lesson == nil || m.detail.lesson.ID != msg.lessonID {
		m.detail.output = ""
		m.resize()
		return
	}
	if msg.err != nil {
		m.detail.output = learn.Message(msg.err)
		m.detail.outputOK = false
		m.resize()
		return
	}
	out := exercise.FormatReport(msg.outcome.Result)
	switch {
	case msg.outcome.Completed:
		out += "\n\nAll tests passed! Lesson marked complete."
	case msg.outcome.CompleteErr != nil:
		out += "\n\nAll tests passed, but saving completion failed: " + learn.Message(msg.outcome.CompleteErr)
	}
	m.detail.output = out
	m.detail.outputOK = msg.outcome.Result.Success
	m.resize()
}

// Detail messages

type lessonLoadedMsg struct {
	id     string
	lesson learn.Lesson
	err    error
}

type runDoneMsg struct {
	lessonID string
	result   learn.ExecutionResult
	err      error
}

type testDoneMsg struct {
	lessonID string
	outcome  exercise.Outcome
	err      error
}

func loadLessonCmd(ctx context.Context, source LessonSource, id string) tea.Cmd {
	return func() tea.Msg {
		lesson, err := source.GetLesson(ctx, id)
		return lessonLoadedMsg{id: id, lesson: lesson, err: err}
	}
}

// selectLessonCmd makes lesson current, which persists it, and reports the
// resulting snapshot.
func selectLessonCmd(ctx context.Context, tracker Tracker, lesson learn.Lesson) tea.Cmd {
	if tracker == nil {
		return nil
	}
	return func() tea.Msg {
		tracker.SetCurrentLesson(ctx, lesson)
		return fetchSnapshotCmd(tracker)()
	}
}

func runCodeCmd(ctx context.Context, runner CodeRunner, lesson learn.Lesson, code string) tea.Cmd {
	return func() tea.Msg {
		res, err := runner.Run(ctx, lesson, code)
		return runDoneMsg{lessonID: lesson.ID, result: res, err: err}
	}
}

func testCodeCmd(ctx context.Context, runner CodeRunner, lesson learn.Lesson, code string) tea.Cmd {
	return func() tea.Msg {
		out, err := runner.Test(ctx, lesson, code)
		return testDoneMsg{lessonID: lesson.ID, outcome: out, err: err}
	}
}
