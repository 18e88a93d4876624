package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/multierr"

	"github.com/five82/lectern/internal/exercise"
	"github.com/five82/lectern/internal/learn"
	"github.com/five82/lectern/internal/prefs"
	"github.com/five82/lectern/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewHome View = iota
	ViewLessons
	ViewDetail
	ViewLogs
)

var viewOrder = []View{ViewHome, ViewLessons, ViewDetail, ViewLogs}

// Tracker is the lesson and progress state the UI reads and navigates.
type Tracker interface {
	Snapshot() state.Snapshot
	Summary() state.Summary
	CurrentLesson() (learn.Lesson, bool)
	SetCurrentLesson(ctx context.Context, lesson learn.Lesson)
	NextLesson() (learn.Lesson, bool)
	PreviousLesson() (learn.Lesson, bool)
	RefreshLessons(ctx context.Context) ([]learn.Lesson, error)
	RefreshProgress(ctx context.Context) (*learn.Progress, error)
}

// LessonSource loads full lesson content, sections included.
type LessonSource interface {
	GetLesson(ctx context.Context, lessonID string) (learn.Lesson, error)
}

// CodeRunner executes and tests learner code.
type CodeRunner interface {
	Run(ctx context.Context, lesson learn.Lesson, code string) (learn.ExecutionResult, error)
	Test(ctx context.Context, lesson learn.Lesson, code string) (exercise.Outcome, error)
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Tracker Tracker
	Lessons LessonSource
	Runner  CodeRunner

	// Bootstrap runs once at startup. Offline is the error it returns when the
	// platform is unreachable but cached data is usable.
	Bootstrap func(ctx context.Context) error
	Offline   error

	LogPath   string
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	tracker    Tracker
	lessons    LessonSource
	runner     CodeRunner
	bootstrap  func(context.Context) error
	offlineErr error
	logPath    string
	prefsPath  string
	pollTick   time.Duration
	keys       keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot    state.Snapshot
	summary     state.Summary
	hasPrev     bool
	hasNext     bool
	booting     bool
	reloading   bool
	offline     bool
	banner      string

	// Lessons list state
	selectedRow int

	// Detail state
	detail         detailState
	detailViewport viewport.Model
	editor         textarea.Model

	// Log state
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	themeName := prefs.NormalizeTheme(opts.ThemeName)
	if themeName == "" {
		themeName = prefs.ThemeDark
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:         ctx,
		tracker:     opts.Tracker,
		lessons:     opts.Lessons,
		runner:      opts.Runner,
		bootstrap:   opts.Bootstrap,
		offlineErr:  opts.Offline,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		currentView: ViewHome,
		booting:     opts.Bootstrap != nil,
		editor:      newEditor(),
		logState:    newLogState(),
	}
	m.applyEditorTheme()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.tracker != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.tracker))
	}
	if m.bootstrap != nil {
		cmds = append(cmds, bootstrapCmd(m.ctx, m.bootstrap))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(msg)
		return m, nil

	case bootstrapDoneMsg:
		m.booting = false
		if msg.err != nil {
			m.offline = m.offlineErr != nil && errors.Is(msg.err, m.offlineErr)
			m.setBanner(msg.err)
		}
		return m, fetchSnapshotCmd(m.tracker)

	case reloadDoneMsg:
		m.reloading = false
		if msg.err != nil {
			m.offline = learn.IsTransport(msg.err)
			m.setBanner(msg.err)
		} else {
			m.offline = false
			m.banner = ""
		}
		m.resize()
		return m, fetchSnapshotCmd(m.tracker)

	case lessonLoadedMsg:
		return m.handleLessonLoaded(msg)

	case runDoneMsg:
		m.handleRunDone(msg)
		return m, nil

	case testDoneMsg:
		m.handleTestDone(msg)
		if msg.outcome.Completed {
			return m, fetchSnapshotCmd(m.tracker)
		}
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}

	// Cursor blink and other editor internals.
	if m.detail.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.detail.editing {
		return m.handleEditorKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		return m.reload()

	case key.Matches(msg, m.keys.Dismiss):
		if m.banner != "" {
			m.banner = ""
			m.resize()
		}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.cycleView(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.cycleView(-1))

	case key.Matches(msg, m.keys.ViewHome):
		return m.switchView(ViewHome)

	case key.Matches(msg, m.keys.ViewLessons):
		return m.switchView(ViewLessons)

	case key.Matches(msg, m.keys.ViewDetail):
		return m.switchView(ViewDetail)

	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewDetail {
			return m.switchView(ViewLessons)
		}
		return m.switchView(ViewHome)
	}

	switch m.currentView {
	case ViewHome:
		return m.handleHomeKey(msg)
	case ViewLessons:
		return m.handleLessonsKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m Model) cycleView(step int) View {
	for i, v := range viewOrder {
		if v == m.currentView {
			n := len(viewOrder)
			return viewOrder[((i+step)%n+n)%n]
		}
	}
	return ViewHome
}

// switchView activates v and starts whatever loading it needs.
func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	switch v {
	case ViewLogs:
		cmd := m.refreshLogs(true)
		return m, cmd
	case ViewDetail:
		return m.ensureLessonLoaded()
	}
	return m, nil
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	if m.prefsPath != "" {
		if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name}); err != nil {
			m.banner = "Saving theme failed: " + err.Error()
		}
	}
	m.applyEditorTheme()
	m.logState.dirty = true
	m.resize()
}

// reload refreshes lessons and progress from the platform.
func (m Model) reload() (tea.Model, tea.Cmd) {
	if m.tracker == nil || m.reloading {
		return m, nil
	}
	m.reloading = true
	return m, reloadCmd(m.ctx, m.tracker)
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.tracker != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.tracker))
	}
	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(false); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(msg snapshotMsg) {
	m.snapshot = msg.snapshot
	m.summary = msg.summary
	m.hasPrev = msg.hasPrev
	m.hasNext = msg.hasNext
	if n := len(m.snapshot.Lessons); m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
}

// setBanner shows err in the dismissible error banner.
func (m *Model) setBanner(err error) {
	if err == nil {
		return
	}
	msgs := make([]string, 0, 2)
	for _, e := range multierr.Errors(err) {
		msgs = append(msgs, learn.Message(e))
	}
	m.banner = strings.Join(msgs, "; ")
	m.resize()
}

// resize recomputes viewport and editor sizes for the current window.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	m.updateDetailViewport()
	m.updateLogViewport()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	if m.banner != "" {
		b.WriteString(m.renderBanner())
		b.WriteString("\n")
	}
	b.WriteString(m.renderContent())
	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLessons:
		return m.renderLessons()
	case ViewDetail:
		return m.renderDetail()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderHome()
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	snapshot state.Snapshot
	summary  state.Summary
	hasPrev  bool
	hasNext  bool
}

type bootstrapDoneMsg struct{ err error }

type reloadDoneMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(tracker Tracker) tea.Cmd {
	if tracker == nil {
		return nil
	}
	return func() tea.Msg {
		_, hasPrev := tracker.PreviousLesson()
		_, hasNext := tracker.NextLesson()
		return snapshotMsg{
			snapshot: tracker.Snapshot(),
			summary:  tracker.Summary(),
			hasPrev:  hasPrev,
			hasNext:  hasNext,
		}
	}
}

func bootstrapCmd(ctx context.Context, bootstrap func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return bootstrapDoneMsg{err: bootstrap(ctx)}
	}
}

func reloadCmd(ctx context.Context, tracker Tracker) tea.Cmd {
	return func() tea.Msg {
		var err error
		if _, lerr := tracker.RefreshLessons(ctx); lerr != nil {
			err = multierr.Append(err, lerr)
		}
		if _, perr := tracker.RefreshProgress(ctx); perr != nil {
			err = multierr.Append(err, perr)
		}
		return reloadDoneMsg{err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
