package ops

import (
	"database/sql"
	"strings"
	"time"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/config"
	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/errors"
	"github.com/avelis/timecap/internal/share"
)

// ShareInput contains parameters for the Share operation.
type ShareInput struct {
	TimelineID string // required

	// Optional author metadata attached to the shared payload.
	Name       string
	Bio        string
	ProfilePic string

	// ExternalURL, when set, skips inline encoding and builds a link that
	// points viewers at an externally hosted JSON file instead.
	ExternalURL string
}

// ShareOutput contains the result of the Share operation.
type ShareOutput struct {
	URL              string `json:"url"`
	NeedsExternalURL bool   `json:"needsExternalUrl"`
	Length           int    `json:"length"`
	CapsuleCount     int    `json:"capsuleCount"`
}

// Share builds a shareable URL for a timeline. Inline data: URIs are
// stripped from the payload; when the encoded link would exceed the
// configured length cap, the caller is told to host the JSON externally
// and retry with ExternalURL set.
func Share(database *sql.DB, cfg *config.Config, input ShareInput) (*ShareOutput, error) {
	if input.TimelineID == "" {
		return nil, errors.NewInvalidRequest("timeline id is required")
	}

	rec, err := db.GetTimeline(database, input.TimelineID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.NewNotFound(input.TimelineID)
	}
	if len(rec.Capsules) == 0 {
		return nil, errors.NewInvalidRequest("timeline has no capsules to share")
	}

	meta := buildShareMetadata(input)

	if input.ExternalURL != "" {
		url, err := share.ExternalShareURL(cfg.ShareBaseURL, input.ExternalURL, meta)
		if err != nil {
			return nil, err
		}
		return &ShareOutput{
			URL:          url,
			Length:       len(url),
			CapsuleCount: len(rec.Capsules),
		}, nil
	}

	result, err := share.GenerateShareableURL(cfg.ShareBaseURL, rec.Capsules, meta, cfg.MaxShareURLLen)
	if err != nil {
		return nil, err
	}

	return &ShareOutput{
		URL:              result.URL,
		NeedsExternalURL: result.NeedsExternalURL,
		Length:           result.Length,
		CapsuleCount:     len(rec.Capsules),
	}, nil
}

func buildShareMetadata(input ShareInput) *capsule.ShareMetadata {
	name := strings.TrimSpace(input.Name)
	bio := strings.TrimSpace(input.Bio)
	pic := strings.TrimSpace(input.ProfilePic)
	if name == "" && bio == "" && pic == "" {
		return nil
	}
	return &capsule.ShareMetadata{
		Name:       name,
		Bio:        bio,
		ProfilePic: pic,
		SharedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}
