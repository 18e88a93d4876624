package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutSplitWidth is the minimum width to show editor and output side by
	// side.
	LayoutSplitWidth = 120
)

// Log display limits.
const (
	// LogTailLines is the number of lines read from the end of the log file.
	LogTailLines = 1000
)

// Timing constants.
const (
	// LogRefreshInterval is the minimum time between log file reads.
	LogRefreshInterval = 2 * time.Second

	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)

// chromeHeight is the number of rows used by the header and command bar.
const chromeHeight = 2

// contentHeight is the height left for the active view.
func (m Model) contentHeight() int {
	h := m.height - chromeHeight
	if m.banner != "" {
		h--
	}
	return max(h, 3)
}

// renderBox draws content inside a rounded border with the title embedded in
// the top edge. width and height include the border.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	borderColor := m.theme.Border
	bgColor := m.theme.Background
	if focused {
		borderColor = m.theme.BorderFocus
		bgColor = m.theme.FocusBg
	}
	innerWidth := max(width-2, 1)
	innerHeight := max(height-2, 1)

	border := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(true)

	label := ""
	if title != "" {
		label = " " + truncate(title, max(innerWidth-4, 1)) + " "
	}
	fill := max(innerWidth-1-lipgloss.Width(label), 0)
	top := border.Render("╭─") + titleStyle.Render(label) + border.Render(strings.Repeat("─", fill)+"╮")
	bottom := border.Render("╰" + strings.Repeat("─", innerWidth) + "╯")

	body := lipgloss.NewStyle().
		Background(lipgloss.Color(bgColor)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(innerWidth).
		Height(innerHeight).
		MaxHeight(innerHeight).
		Render(content)

	side := border.Render("│")
	lines := strings.Split(body, "\n")
	var b strings.Builder
	b.WriteString(top)
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(side)
		b.WriteString(line)
		b.WriteString(side)
	}
	b.WriteString("\n")
	b.WriteString(bottom)
	return b.String()
}
