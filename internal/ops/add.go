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

// AddCapsuleInput contains parameters for the AddCapsule operation.
type AddCapsuleInput struct {
	TimelineID  string // required
	Year        int    // required, MinYear..MaxYear
	Title       string // required
	Description string
	MediaURL    string
	Mood        string
	Milestone   bool
	Tags        []string
}

// AddCapsuleOutput contains the result of the AddCapsule operation.
type AddCapsuleOutput struct {
	Capsule      capsule.Capsule `json:"capsule"`
	CapsuleCount int             `json:"capsuleCount"`
}

// AddCapsule appends a new capsule to a timeline. Years are unique per
// timeline at creation time; the capsule list stays sorted by year.
func AddCapsule(database *sql.DB, input AddCapsuleInput) (*AddCapsuleOutput, error) {
	if input.TimelineID == "" {
		return nil, errors.NewInvalidRequest("timeline id is required")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	if len([]rune(title)) > MaxTitleChars {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("title must be at most %d characters", MaxTitleChars))
	}

	description := strings.TrimSpace(input.Description)
	if len([]rune(description)) > MaxDescriptionChars {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("description must be at most %d characters", MaxDescriptionChars))
	}

	if !capsule.ValidYear(input.Year) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("year must be between %d and %d", capsule.MinYear, capsule.MaxYear))
	}

	mood := strings.TrimSpace(input.Mood)
	if mood != "" && !validMood(mood) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("mood must be one of: %s", strings.Join(capsule.Moods, ", ")))
	}

	rec, err := db.GetTimeline(database, input.TimelineID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.NewNotFound(input.TimelineID)
	}

	for _, c := range rec.Capsules {
		if c.Year == input.Year {
			return nil, errors.NewYearTaken(input.TimelineID, input.Year)
		}
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now()
	c := capsule.Capsule{
		ID:          id,
		Year:        input.Year,
		Title:       title,
		Description: description,
		Mood:        mood,
		Milestone:   input.Milestone,
		Type:        capsule.Classify(input.Year, now),
		CreatedAt:   now.Unix(),
		UpdatedAt:   now.Unix(),
		ColorSeed:   newColorSeed(),
		Tags:        cleanTags(input.Tags),
	}

	if mediaURL := strings.TrimSpace(input.MediaURL); mediaURL != "" {
		c.MediaURL = mediaURL
		c.MediaType = capsule.DetectMediaType(mediaURL)
	}

	capsules := append(rec.Capsules, c)
	capsule.SortByYear(capsules)

	rec.Capsules = capsules
	rec.Version = db.CurrentRecordVersion
	rec.CapsuleCount = len(capsules)
	rec.UpdatedAt = now.Unix()

	if err := db.UpsertTimeline(database, rec); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to save timeline: %w", err))
	}

	return &AddCapsuleOutput{
		Capsule:      c,
		CapsuleCount: len(capsules),
	}, nil
}

func validMood(mood string) bool {
	for _, m := range capsule.Moods {
		if m == mood {
			return true
		}
	}
	return false
}

// cleanTags drops empty entries and trims whitespace.
func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
