package ops

import (
	"database/sql"

	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/errors"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string // required
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete removes a timeline. Deleting a missing timeline is a no-op;
// Deleted reports whether a record actually existed.
func Delete(database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	rec, err := db.GetTimeline(database, input.ID)
	if err != nil {
		return nil, err
	}

	if err := db.DeleteTimeline(database, input.ID); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Deleted: rec != nil,
		ID:      input.ID,
	}, nil
}
