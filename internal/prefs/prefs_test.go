package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReportsNotFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if p, ok := Load(""); ok {
		t.Fatalf("Load = %+v, true; want not found", p)
	}
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "lectern")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	prefsFile := filepath.Join(prefsDir, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("theme = \"Light\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, ok := Load("")
	if !ok {
		t.Fatalf("Load reported not found")
	}
	if p.Theme != ThemeLight {
		t.Fatalf("Theme = %q, want %q", p.Theme, ThemeLight)
	}
}

func TestLoad_UnusableFiles(t *testing.T) {
	tests := map[string]string{
		"empty theme":   "theme = \"\"\n",
		"unknown theme": "theme = \"Dracula\"\n",
		"invalid toml":  "not valid toml {{{\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
			if err := os.WriteFile(prefsFile, []byte(body), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if p, ok := Load(prefsFile); ok {
				t.Fatalf("Load = %+v, true; want not found", p)
			}
		})
	}
}

func TestResolve_DetectsAndPersistsOnFirstRun(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "subdir", "prefs.toml")

	calls := 0
	p, err := Resolve(prefsFile, func() bool { calls++; return false })
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if p.Theme != ThemeLight {
		t.Fatalf("Theme = %q, want %q", p.Theme, ThemeLight)
	}

	p, err = Resolve(prefsFile, func() bool { calls++; return true })
	if err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}
	if p.Theme != ThemeLight {
		t.Fatalf("second Theme = %q, want persisted %q", p.Theme, ThemeLight)
	}
	if calls != 1 {
		t.Fatalf("detect calls = %d, want 1", calls)
	}
}

func TestResolve_NilDetectorDefaultsDark(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "prefs.toml")

	p, err := Resolve(prefsFile, nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if p.Theme != ThemeDark {
		t.Fatalf("Theme = %q, want %q", p.Theme, ThemeDark)
	}
}

func TestSave_CreatesFileAndDirs(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "subdir", "prefs.toml")

	if err := Save(prefsFile, Prefs{Theme: ThemeDark}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, ok := Load(prefsFile)
	if !ok || loaded.Theme != ThemeDark {
		t.Fatalf("Load = %+v,%v; want dark", loaded, ok)
	}
}
