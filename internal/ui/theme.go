package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"

	"github.com/five82/lectern/internal/prefs"
)

// Theme defines colors for the UI. Names match the values stored in prefs.
type Theme struct {
	Name string

	// Base colors
	Background string // Outermost background
	Surface    string // Header and command bar
	SurfaceAlt string // Code blocks and the editor
	FocusBg    string // Focused panes

	SelectionBg   string
	SelectionText string

	Border      string
	BorderMuted string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// LevelColors maps zap level names onto log line colors.
	LevelColors map[string]string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Surface: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)),

		Code: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SurfaceAlt)).
			Foreground(lipgloss.Color(t.Text)),

		Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)).Bold(true),
		WarningText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		DangerText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
		InfoText:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Banner: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Danger)).
			Foreground(lipgloss.Color(t.Background)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		levelColors: t.LevelColors,
		muted:       t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Surface lipgloss.Style
	Code    lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Banner   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	levelColors map[string]string
	muted       string
}

// LevelStyle returns the style for a log level.
func (s Styles) LevelStyle(level zapcore.Level) lipgloss.Style {
	color := s.levelColors[level.String()]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// WithBackground returns a copy of Styles whose text styles carry bgColor, so
// segments rendered side by side do not leave gaps.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	out.Surface = s.Surface.Background(bg)
	out.Text = s.Text.Background(bg)
	out.MutedText = s.MutedText.Background(bg)
	out.FaintText = s.FaintText.Background(bg)
	out.AccentText = s.AccentText.Background(bg)
	out.SuccessText = s.SuccessText.Background(bg)
	out.WarningText = s.WarningText.Background(bg)
	out.DangerText = s.DangerText.Background(bg)
	out.InfoText = s.InfoText.Background(bg)
	out.Header = s.Header.Background(bg)
	out.Logo = s.Logo.Background(bg)
	return out
}

var themes = map[string]Theme{
	prefs.ThemeDark:  darkTheme(),
	prefs.ThemeLight: lightTheme(),
}

var themeOrder = []string{prefs.ThemeDark, prefs.ThemeLight}

// GetTheme returns a theme by name. Unknown names fall back to dark.
func GetTheme(name string) Theme {
	if t, ok := themes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return darkTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func darkTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name: prefs.ThemeDark,

		Background: "#131a24", // bg0
		Surface:    "#192330", // bg1
		SurfaceAlt: "#212e3f", // bg2
		FocusBg:    "#29394f", // bg3

		SelectionBg:   "#2b3b51", // sel0
		SelectionText: "#cdcecf", // fg1

		Border:      "#39506d", // bg4
		BorderMuted: "#212e3f", // bg2
		BorderFocus: "#719cd6", // blue

		Text:    "#cdcecf", // fg1
		Muted:   "#738091", // comment
		Faint:   "#71839b", // fg3
		Accent:  "#719cd6", // blue
		Success: "#81b29a", // green
		Warning: "#dbc074", // yellow
		Danger:  "#c94f6d", // red
		Info:    "#63cdcf", // cyan

		LevelColors: map[string]string{
			"debug": "#71839b",
			"info":  "#63cdcf",
			"warn":  "#dbc074",
			"error": "#c94f6d",
		},
	}
}

func lightTheme() Theme {
	// Dayfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name: prefs.ThemeLight,

		Background: "#e4dcd4", // bg0
		Surface:    "#f6f2ee", // bg1
		SurfaceAlt: "#dbd1dd", // bg2
		FocusBg:    "#f6f2ee", // bg1

		SelectionBg:   "#e7d2be", // sel0
		SelectionText: "#3d2b5a", // fg1

		Border:      "#aab0ad", // bg4
		BorderMuted: "#dbd1dd", // bg2
		BorderFocus: "#2848a9", // blue

		Text:    "#3d2b5a", // fg1
		Muted:   "#837a72", // comment
		Faint:   "#824d5b", // fg3
		Accent:  "#2848a9", // blue
		Success: "#396847", // green
		Warning: "#ac5402", // yellow
		Danger:  "#a5222f", // red
		Info:    "#287980", // cyan

		LevelColors: map[string]string{
			"debug": "#837a72",
			"info":  "#287980",
			"warn":  "#ac5402",
			"error": "#a5222f",
		},
	}
}
