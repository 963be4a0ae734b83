package prefs

import (
	"os"
	"testing"
)

func TestThemeRoundTrip(t *testing.T) {
	dir := t.TempDir()

	want := Theme{Mode: ModeDark, Accent: "teal"}
	if err := SaveTheme(dir, want); err != nil {
		t.Fatalf("SaveTheme: %v", err)
	}
	if got := LoadTheme(dir); got != want {
		t.Fatalf("LoadTheme=%+v, want %+v", got, want)
	}
}

func TestLoadThemeFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()

	if got := LoadTheme(dir); got != DefaultTheme() {
		t.Fatalf("missing blob must yield default, got %+v", got)
	}

	if err := os.WriteFile(ThemePath(dir), []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write corrupt blob: %v", err)
	}
	if got := LoadTheme(dir); got != DefaultTheme() {
		t.Fatalf("corrupt blob must yield default, got %+v", got)
	}

	if err := os.WriteFile(ThemePath(dir), []byte(`{"mode":"sepia"}`), 0o600); err != nil {
		t.Fatalf("write unknown mode: %v", err)
	}
	if got := LoadTheme(dir); got != DefaultTheme() {
		t.Fatalf("unknown mode must yield default, got %+v", got)
	}
}

func TestNamespacesStaySeparate(t *testing.T) {
	if ThemePath("/state") == "/state/auditline.session.json" {
		t.Fatal("theme blob must not share the session namespace")
	}
}
