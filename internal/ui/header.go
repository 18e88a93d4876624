package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: connection state, progress and the
// current lesson.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("lectern", styles.Logo)}

	switch {
	case m.booting:
		parts = append(parts, bg.Render("Connecting to platform...", styles.WarningText.Bold(true)))
	case m.reloading:
		parts = append(parts, bg.Render("↻ Syncing", styles.InfoText))
	case m.offline:
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	default:
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	parts = append(parts,
		bg.Render("Progress:", styles.MutedText)+bg.Spaces(1)+
			bg.Render(fmt.Sprintf("%d/%d (%d%%)", m.summary.Completed, m.summary.Total, m.summary.Percentage), styles.Text),
	)

	if cur := m.snapshot.CurrentLesson; cur != nil {
		limit := 40
		if compact {
			limit = 20
		}
		parts = append(parts,
			bg.Render("Lesson:", styles.MutedText)+bg.Spaces(1)+
				bg.Render(truncate(lessonLabel(*cur), limit), styles.AccentText),
		)
	}

	if !compact && !m.snapshot.CapturedAt.IsZero() {
		age := humanizeDuration(time.Since(m.snapshot.CapturedAt))
		parts = append(parts, bg.Render("synced "+age, styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the per-view key hints.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLessons:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Open"},
			{"r", "Reload"},
			{"1/3/4", "Home/Lesson/Logs"},
			{"?", "More"},
		}
	case ViewDetail:
		if m.detail.editing {
			commands = []cmd{
				{"ctrl+r", "Run"},
				{"ctrl+t", "Test"},
				{"esc", "Close editor"},
			}
			break
		}
		commands = []cmd{
			{"E", "Edit"},
			{"ctrl+r", "Run"},
			{"ctrl+t", "Test"},
			{"n/p", "Next/Prev"},
			{"esc", "Lessons"},
			{"?", "More"},
		}
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"L", "Level ≥ " + m.logState.minLevel.CapitalString()},
			{"j/k", "Scroll"},
			{"esc", "Home"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"enter", "Continue"},
			{"2", "Lessons"},
			{"4", "Logs"},
			{"r", "Reload"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderBanner renders the dismissible error line.
func (m Model) renderBanner() string {
	styles := m.theme.Styles()
	hint := "  x:Dismiss  r:Reload"
	text := truncate("✖ "+m.banner, max(m.width-lipgloss.Width(hint)-2, 10))
	return styles.Banner.Width(m.width).Render(text + hint)
}
