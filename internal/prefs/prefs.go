// Package prefs handles Lectern user preferences persistence.
// Preferences are stored in ~/.config/lectern/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for Lectern.
type Prefs struct {
	Theme string `toml:"theme"`
}

const (
	ThemeDark  = "dark"
	ThemeLight = "light"

	defaultPrefsPath = "~/.config/lectern/prefs.toml"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. The second result reports whether a
// usable theme was found; a missing or unreadable file yields false rather
// than an error.
func Load(path string) (Prefs, bool) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{}, false
	}

	file, err := os.Open(resolved)
	if err != nil {
		return Prefs{}, false
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Prefs{}, false
	}

	var p Prefs
	if err := toml.Unmarshal(bytes, &p); err != nil {
		return Prefs{}, false
	}
	p.Theme = NormalizeTheme(p.Theme)
	if p.Theme == "" {
		return Prefs{}, false
	}
	return p, true
}

// Resolve loads preferences, falling back to detection on first run. A
// detected theme is saved so later runs skip detection. detectDark reports
// whether the terminal background is dark.
func Resolve(path string, detectDark func() bool) (Prefs, error) {
	if p, ok := Load(path); ok {
		return p, nil
	}
	p := Prefs{Theme: ThemeLight}
	if detectDark == nil || detectDark() {
		p.Theme = ThemeDark
	}
	if err := Save(path, p); err != nil {
		return p, err
	}
	return p, nil
}

// NormalizeTheme maps a stored theme name onto ThemeDark or ThemeLight.
// Unknown names return "".
func NormalizeTheme(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ThemeDark:
		return ThemeDark
	case ThemeLight:
		return ThemeLight
	default:
		return ""
	}
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
