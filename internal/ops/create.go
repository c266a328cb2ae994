package ops

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/errors"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Name string // required
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// Create creates a new empty timeline.
func Create(database *sql.DB, input CreateInput) (*CreateOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	if len([]rune(name)) > MaxNameChars {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("name must be at most %d characters", MaxNameChars))
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	rec := &db.TimelineRecord{
		ID:        id,
		Name:      name,
		Capsules:  []capsule.Capsule{},
		Version:   db.CurrentRecordVersion,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.UpsertTimeline(database, rec); err != nil {
		return nil, err
	}

	return &CreateOutput{
		ID:        id,
		Name:      name,
		CreatedAt: now,
	}, nil
}
