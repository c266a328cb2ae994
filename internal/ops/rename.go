package ops

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/errors"
)

// RenameInput contains parameters for the Rename operation.
type RenameInput struct {
	ID   string // required
	Name string // required
}

// RenameOutput contains the result of the Rename operation.
type RenameOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Rename changes a timeline's display name. Renaming a missing timeline
// is an error, unlike Delete.
func Rename(database *sql.DB, input RenameInput) (*RenameOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	if len([]rune(name)) > MaxNameChars {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("name must be at most %d characters", MaxNameChars))
	}

	if err := db.RenameTimeline(database, input.ID, name); err != nil {
		return nil, err
	}

	return &RenameOutput{
		ID:   input.ID,
		Name: name,
	}, nil
}
