package ops

import (
	"testing"

	"github.com/avelis/timecap/internal/errors"
)

func TestThemeDefault(t *testing.T) {
	database := testDB(t)

	theme, err := GetTheme(database)
	if err != nil {
		t.Fatalf("GetTheme failed: %v", err)
	}
	if theme != ThemeLight {
		t.Errorf("theme = %q, want %q", theme, ThemeLight)
	}
}

func TestThemeRoundTrip(t *testing.T) {
	database := testDB(t)

	if err := SetTheme(database, ThemeDark); err != nil {
		t.Fatalf("SetTheme failed: %v", err)
	}
	theme, err := GetTheme(database)
	if err != nil {
		t.Fatalf("GetTheme failed: %v", err)
	}
	if theme != ThemeDark {
		t.Errorf("theme = %q, want %q", theme, ThemeDark)
	}
}

func TestThemeInvalid(t *testing.T) {
	database := testDB(t)

	if err := SetTheme(database, "solarized"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("SetTheme should return ErrInvalidRequest, got: %v", err)
	}
}
