// Package prefs persists display preferences under their own namespace,
// separate from the session blob. Reads and writes move the whole record;
// like session persistence, failures are best-effort.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ThemeNamespace keys the preference blob alongside the session blob.
const ThemeNamespace = "auditline.theme"

// Theme modes.
const (
	ModeLight  = "light"
	ModeDark   = "dark"
	ModeSystem = "system"
)

// Theme is the persisted display preference record.
type Theme struct {
	Mode   string `json:"mode"`
	Accent string `json:"accent,omitempty"`
}

// DefaultTheme follows the system setting until the user picks a mode.
func DefaultTheme() Theme {
	return Theme{Mode: ModeSystem}
}

// ThemePath returns the blob location for a state directory.
func ThemePath(dir string) string {
	return filepath.Join(dir, ThemeNamespace+".json")
}

// SaveTheme writes the whole record to its namespace blob.
func SaveTheme(dir string, t Theme) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(ThemePath(dir), data, 0o600)
}

// LoadTheme reads the record back, returning the default when the blob is
// missing, malformed or names an unknown mode.
func LoadTheme(dir string) Theme {
	data, err := os.ReadFile(ThemePath(dir))
	if err != nil {
		return DefaultTheme()
	}
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return DefaultTheme()
	}
	switch t.Mode {
	case ModeLight, ModeDark, ModeSystem:
		return t
	default:
		return DefaultTheme()
	}
}
