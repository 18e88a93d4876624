package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"

	"github.com/five82/lectern/internal/logtail"
)

// logLevels is the cycle order for the minimum level filter.
var logLevels = []zapcore.Level{
	zapcore.DebugLevel,
	zapcore.InfoLevel,
	zapcore.WarnLevel,
	zapcore.ErrorLevel,
}

// logState holds all log-related state.
type logState struct {
	entries     []logtail.Entry
	follow      bool
	minLevel    zapcore.Level
	lastRefresh time.Time
	err         string
	dirty       bool // entries or filter changed since the last render
}

func newLogState() logState {
	return logState{
		follow:   true,
		minLevel: zapcore.DebugLevel,
		dirty:    true,
	}
}

// updateLogViewport sizes the log viewport and re-renders it when needed.
func (m *Model) updateLogViewport() {
	width := max(m.width-2, 10)
	height := max(m.contentHeight()-3, 1) // box borders and the status line
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
	}
	resized := m.logViewport.Width != width || m.logViewport.Height != height
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.logState.dirty || resized {
		m.logViewport.SetContent(m.renderLogContent(width))
		m.logState.dirty = false
	}
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent renders the filtered entries, one per line.
func (m Model) renderLogContent(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	if m.logPath == "" {
		return bg.Render("Logging to stderr; no log file to show.", styles.MutedText)
	}
	entries := logtail.Filter(m.logState.entries, m.logState.minLevel)
	if len(entries) == 0 {
		if m.logState.err != "" {
			return bg.Render("Reading log failed: "+m.logState.err, styles.DangerText)
		}
		return bg.Render("No log entries yet.", styles.MutedText)
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		style := styles.FaintText
		if e.Parsed {
			style = styles.LevelStyle(e.Level)
		}
		lines = append(lines, bg.Render(truncate(formatLogEntry(e), width), style))
	}
	return strings.Join(lines, "\n")
}

// formatLogEntry renders one entry as plain text.
func formatLogEntry(e logtail.Entry) string {
	if !e.Parsed {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "%-5s", e.Level.CapitalString())
	if e.Logger != "" {
		b.WriteString(" ")
		b.WriteString(e.Logger)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)
	if fields := e.FieldString(); fields != "" {
		b.WriteString(" ")
		b.WriteString(fields)
	}
	return b.String()
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	height := m.contentHeight() - 1
	title := "Log"
	if m.logPath != "" {
		title = "Log: " + truncateMiddle(m.logPath, max(m.width/2, 20))
	}
	box := m.renderBox(title, m.logViewport.View(), m.width, height, true)
	return box + "\n" + m.renderLogStatus()
}

func (m Model) renderLogStatus() string {
	styles := m.theme.Styles()
	shown := len(logtail.Filter(m.logState.entries, m.logState.minLevel))
	parts := []string{
		styles.MutedText.Render(fmt.Sprintf("%d/%d lines", shown, len(m.logState.entries))),
		styles.MutedText.Render("level ≥ ") + styles.LevelStyle(m.logState.minLevel).Render(m.logState.minLevel.CapitalString()),
	}
	if m.logState.follow {
		parts = append(parts, styles.SuccessText.Render("following"))
	} else {
		parts = append(parts, styles.WarningText.Render("paused"))
	}
	if !m.logState.lastRefresh.IsZero() {
		parts = append(parts, styles.FaintText.Render("read "+m.logState.lastRefresh.Format("15:04:05")))
	}
	return strings.Join(parts, "  ")
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
			cmd := m.refreshLogs(true)
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleLevel):
		m.logState.minLevel = nextLevel(m.logState.minLevel)
		m.logState.dirty = true
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logState.follow = false
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logState.follow = true
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.logState.follow = false
	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
		m.logState.follow = false
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
		m.logState.follow = false
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logViewport.HalfPageUp()
		m.logState.follow = false
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
		m.logState.follow = false
	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.PageUp()
		m.logState.follow = false
	}
	return m, nil
}

func nextLevel(cur zapcore.Level) zapcore.Level {
	for i, l := range logLevels {
		if l == cur {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

// refreshLogs re-reads the log file. Reads are throttled unless force is set.
func (m *Model) refreshLogs(force bool) tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	if !force && time.Since(m.logState.lastRefresh) < LogRefreshInterval {
		return nil
	}
	m.logState.lastRefresh = time.Now()
	return readLogsCmd(m.logPath)
}

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.Tail(path, LogTailLines)
		return logsMsg{entries: entries, err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	if msg.err != nil {
		m.logState.err = msg.err.Error()
	} else {
		m.logState.err = ""
		m.logState.entries = msg.entries
	}
	m.logState.dirty = true
	if m.ready {
		m.updateLogViewport()
	}
}
