package ops

import (
	"database/sql"
	"log"
	"time"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/errors"
)

// LoadInput contains parameters for the Load operation.
type LoadInput struct {
	ID string // required
}

// LoadOutput contains the result of the Load operation.
type LoadOutput struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Capsules     []capsule.Capsule `json:"capsules"`
	CapsuleCount int               `json:"capsuleCount"`
	Version      int               `json:"version,omitempty"`
	CreatedAt    int64             `json:"createdAt,omitempty"`
	UpdatedAt    int64             `json:"updatedAt,omitempty"`
	Found        bool              `json:"found"`
}

// Load retrieves a timeline. A missing or unreadable timeline degrades to
// an empty capsule list rather than failing the caller; storage errors are
// logged. Capsules come back sorted by year with past/future types
// recomputed against the current clock.
func Load(database *sql.DB, input LoadInput) (*LoadOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	rec, err := db.GetTimeline(database, input.ID)
	if err != nil {
		log.Printf("warning: failed to load timeline %s: %v", input.ID, err)
		rec = nil
	}
	if rec == nil {
		return &LoadOutput{
			ID:       input.ID,
			Capsules: []capsule.Capsule{},
		}, nil
	}

	capsules := rec.Capsules
	if capsules == nil {
		capsules = []capsule.Capsule{}
	}
	capsule.SortByYear(capsules)
	capsule.Reclassify(capsules, time.Now())

	return &LoadOutput{
		ID:           rec.ID,
		Name:         rec.Name,
		Capsules:     capsules,
		CapsuleCount: len(capsules),
		Version:      rec.Version,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		Found:        true,
	}, nil
}
