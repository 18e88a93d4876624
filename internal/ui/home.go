package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// renderHome renders the progress overview.
func (m Model) renderHome() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	width := m.width
	height := m.contentHeight()
	inner := max(width-4, 10)

	var lines []string
	lines = append(lines, bg.Render("Python learning progress", styles.Text.Bold(true)), "")

	switch {
	case m.booting && len(m.snapshot.Lessons) == 0:
		lines = append(lines, bg.Render("Loading lessons...", styles.WarningText))
	case len(m.snapshot.Lessons) == 0:
		lines = append(lines,
			bg.Render("No lessons available yet.", styles.MutedText),
			bg.Render("Press r to reload from the platform.", styles.FaintText),
		)
	default:
		var percent float64
		if m.snapshot.Progress != nil {
			percent = m.snapshot.Progress.Percentage
		}
		barWidth := min(inner-8, 60)
		filled, empty := progressBar(percent, barWidth)
		lines = append(lines,
			bg.Render(filled, styles.SuccessText)+bg.Render(empty, styles.FaintText)+
				bg.Spaces(1)+bg.Render(fmt.Sprintf("%3d%%", m.summary.Percentage), styles.Text),
			bg.Render(m.summary.Text, styles.MutedText),
			"",
		)
		lines = append(lines, m.homeLessonLines(styles, bg)...)
	}

	if m.offline {
		lines = append(lines, "", bg.Render("Offline: showing cached lessons and progress.", styles.WarningText))
	}

	return m.renderBox("Home", strings.Join(lines, "\n"), width, height, true)
}

func (m Model) homeLessonLines(styles Styles, bg BgStyle) []string {
	cur := m.snapshot.CurrentLesson
	if cur == nil {
		return []string{bg.Render("Pick a lesson from the list (2) to get started.", styles.MutedText)}
	}
	lines := []string{
		bg.Render("Current lesson:", styles.MutedText) + bg.Spaces(1) +
			bg.Render(lessonLabel(*cur), styles.AccentText.Bold(true)),
	}
	if cur.Week > 0 {
		lines = append(lines, bg.Render(fmt.Sprintf("Week %d", cur.Week), styles.FaintText))
	}
	if cur.Description != "" {
		lines = append(lines, bg.Render(truncate(cur.Description, max(m.width-8, 10)), styles.Text))
	}
	lines = append(lines, "", bg.Render("Press enter to continue.", styles.FaintText))
	return lines
}

// handleHomeKey processes keyboard input for the home view.
func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Open) && m.snapshot.CurrentLesson != nil {
		return m.switchView(ViewDetail)
	}
	return m, nil
}
