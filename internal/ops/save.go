package ops

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/errors"
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	ID       string // required
	Capsules []capsule.Capsule
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	ID           string `json:"id"`
	CapsuleCount int    `json:"capsuleCount"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// Save replaces a timeline's full capsule list. The existing record is
// fetched first so CreatedAt survives the replace; UpdatedAt, capsule
// count, and version are refreshed.
func Save(database *sql.DB, input SaveInput) (*SaveOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	existing, err := db.GetTimeline(database, input.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.NewNotFound(input.ID)
	}

	capsules := input.Capsules
	if capsules == nil {
		capsules = []capsule.Capsule{}
	}
	capsule.SortByYear(capsules)

	now := time.Now().Unix()
	rec := &db.TimelineRecord{
		ID:           existing.ID,
		Name:         existing.Name,
		Capsules:     capsules,
		Version:      db.CurrentRecordVersion,
		CapsuleCount: len(capsules),
		CreatedAt:    existing.CreatedAt,
		UpdatedAt:    now,
	}

	if err := db.UpsertTimeline(database, rec); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to save timeline: %w", err))
	}

	return &SaveOutput{
		ID:           rec.ID,
		CapsuleCount: rec.CapsuleCount,
		UpdatedAt:    now,
	}, nil
}
