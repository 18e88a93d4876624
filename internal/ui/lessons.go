package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// lessonRowsVisible is the number of list rows that fit in the lessons box.
func (m Model) lessonRowsVisible() int {
	// Box borders and the column header row.
	return max(m.contentHeight()-3, 1)
}

// renderLessons renders the lesson list in platform order.
func (m Model) renderLessons() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	height := m.contentHeight()
	inner := max(m.width-2, 10)
	lessons := m.snapshot.Lessons

	title := fmt.Sprintf("Lessons (%d)", len(lessons))
	if len(lessons) == 0 {
		return m.renderBox(title, bg.Render("No lessons loaded. Press r to reload.", styles.MutedText), m.width, height, true)
	}

	var currentID string
	if m.snapshot.CurrentLesson != nil {
		currentID = m.snapshot.CurrentLesson.ID
	}

	const (
		markerW = 2
		orderW  = 5
		weekW   = 6
	)
	titleW := max(inner-markerW-orderW-weekW-2, 8)

	row := func(marker, order, title, week string) string {
		return padRight(marker, markerW) + padRight(order, orderW) +
			padRight(truncate(title, titleW), titleW+1) + padRight(week, weekW)
	}

	rows := []string{bg.Render(row("", "#", "TITLE", "WEEK"), styles.MutedText.Bold(true))}

	visible := m.lessonRowsVisible()
	start := 0
	if m.selectedRow >= visible {
		start = m.selectedRow - visible + 1
	}
	end := min(start+visible, len(lessons))

	selected := styles.Selected.Width(inner)
	for i := start; i < end; i++ {
		l := lessons[i]
		marker := ""
		if l.ID == currentID {
			marker = "▸"
		}
		week := ""
		if l.Week > 0 {
			week = fmt.Sprintf("%d", l.Week)
		}
		line := row(marker, fmt.Sprintf("%d", l.Order), l.Title, week)
		switch {
		case i == m.selectedRow:
			rows = append(rows, selected.Render(line))
		case l.ID == currentID:
			rows = append(rows, bg.Render(line, styles.AccentText))
		default:
			rows = append(rows, bg.Render(line, styles.Text))
		}
	}

	return m.renderBox(title, strings.Join(rows, "\n"), m.width, height, true)
}

// handleLessonsKey processes keyboard input for the lessons view.
func (m Model) handleLessonsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Lessons)
	if count == 0 {
		return m, nil
	}
	page := m.lessonRowsVisible()

	switch {
	case key.Matches(msg, m.keys.Down):
		m.selectedRow = min(m.selectedRow+1, count-1)
	case key.Matches(msg, m.keys.Up):
		m.selectedRow = max(m.selectedRow-1, 0)
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	case key.Matches(msg, m.keys.PageDown):
		m.selectedRow = min(m.selectedRow+page, count-1)
	case key.Matches(msg, m.keys.PageUp):
		m.selectedRow = max(m.selectedRow-page, 0)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.selectedRow = min(m.selectedRow+page/2, count-1)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.selectedRow = max(m.selectedRow-page/2, 0)
	case key.Matches(msg, m.keys.Open):
		lesson := m.snapshot.Lessons[m.selectedRow]
		m.currentView = ViewDetail
		return m.openLesson(lesson)
	}
	return m, nil
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
