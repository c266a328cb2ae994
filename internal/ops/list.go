package ops

import (
	"database/sql"

	"github.com/avelis/timecap/internal/db"
)

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []db.TimelineSummary `json:"items"`
	Total int                  `json:"total"`
	Sort  string               `json:"sort"`
}

// List retrieves summaries of all stored timelines, most recently
// updated first.
func List(database *sql.DB) (*ListOutput, error) {
	summaries, err := db.ListTimelines(database)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items: summaries,
		Total: len(summaries),
		Sort:  "updated_at_desc",
	}, nil
}
