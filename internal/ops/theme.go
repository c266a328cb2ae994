package ops

import (
	"database/sql"

	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/errors"
)

const (
	themePrefKey = "theme"
	ThemeLight   = "light"
	ThemeDark    = "dark"
)

// GetTheme returns the stored UI theme, defaulting to light.
func GetTheme(database *sql.DB) (string, error) {
	return db.GetPref(database, themePrefKey, ThemeLight)
}

// SetTheme stores the UI theme preference.
func SetTheme(database *sql.DB, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return errors.NewInvalidRequest("theme must be one of: light, dark")
	}
	return db.SetPref(database, themePrefKey, theme)
}
