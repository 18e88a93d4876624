package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	keys  []key.Binding
}

func (m Model) helpSections() []helpSection {
	k := m.keys
	return []helpSection{
		{title: "Navigation", keys: []key.Binding{
			k.ViewHome, k.ViewLessons, k.ViewDetail, k.ViewLogs,
			k.Tab, k.Escape, k.Down, k.Up, k.Top, k.Bottom, k.HalfPageDown,
		}},
		{title: "Lessons", keys: []key.Binding{
			k.Open, k.NextLesson, k.PrevLesson, k.Edit, k.RunCode, k.TestCode,
		}},
		{title: "Logs", keys: []key.Binding{k.ToggleFollow, k.CycleLevel}},
		{title: "General", keys: []key.Binding{
			k.Reload, k.Dismiss, k.CycleTheme, k.Help, k.Quit,
		}},
	}
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	sections := m.helpSections()
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, binding := range section.keys {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("In the editor: esc closes, ctrl+c quits."))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(46)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
