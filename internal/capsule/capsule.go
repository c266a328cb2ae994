package capsule

import (
	"sort"
	"time"
)

// Capsule type classifications, derived from year vs the current year.
const (
	TypePast   = "past"
	TypeFuture = "future"
)

// Media kinds accepted for a capsule's media reference.
const (
	MediaImage = "image"
	MediaVideo = "video"
	MediaLink  = "link"
)

// MediaTypes lists all valid media kind tags.
var MediaTypes = []string{MediaImage, MediaVideo, MediaLink}

// Moods lists all valid mood tags.
var Moods = []string{"happy", "sad", "excited", "nostalgic", "proud", "neutral"}

// Year bounds enforced when a capsule is created.
const (
	MinYear = 1900
	MaxYear = 2200
)

// Capsule is one dated entry in a timeline. JSON tags match the wire shape
// used by exported files and share URLs.
type Capsule struct {
	// ID is a ULID that uniquely identifies this capsule
	ID string `json:"id"`

	// Year the capsule is pinned to (MinYear..MaxYear at creation time)
	Year int `json:"year"`

	// Title is a short human-readable label
	Title string `json:"title"`

	// Description is optional free-form text, rendered as markdown in the UI
	Description string `json:"description,omitempty"`

	// MediaURL is an http(s) URL or a data: URI referencing the capsule's media
	MediaURL string `json:"mediaUrl,omitempty"`

	// MediaType tags the media reference: "image", "video", or "link"
	MediaType string `json:"mediaType,omitempty"`

	// Mood is an optional mood tag from the Moods enumeration
	Mood string `json:"mood,omitempty"`

	// Milestone marks the capsule as a highlighted entry
	Milestone bool `json:"milestone,omitempty"`

	// Type is "past" or "future", derived from Year at read time
	Type string `json:"type"`

	// CreatedAt is the Unix timestamp when the capsule was created
	CreatedAt int64 `json:"createdAt,omitempty"`

	// UpdatedAt is the Unix timestamp when the capsule was last updated
	UpdatedAt int64 `json:"updatedAt,omitempty"`

	// ColorSeed drives deterministic placeholder coloring (nil = no seed)
	ColorSeed *float64 `json:"colorSeed,omitempty"`

	// Tags is an optional list of free-form tags
	Tags []string `json:"tags,omitempty"`

	// Age is an optional precomputed age for the capsule's year
	Age *int `json:"age,omitempty"`
}

// ShareMetadata is optional author-facing decoration attached to a shared
// payload. Never required for a timeline to function.
type ShareMetadata struct {
	Name       string `json:"name,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
	Bio        string `json:"bio,omitempty"`
	SharedAt   string `json:"sharedAt,omitempty"`
}

// ShareData is the transport shape crossing the export/import/share boundary.
type ShareData struct {
	Capsules []Capsule      `json:"capsules"`
	Metadata *ShareMetadata `json:"metadata,omitempty"`
}

// Classify returns the capsule type for a year relative to now.
// The current year classifies as past; only strictly later years are future.
func Classify(year int, now time.Time) string {
	if year > now.Year() {
		return TypeFuture
	}
	return TypePast
}

// Reclassify recomputes Type for every capsule relative to now.
// Stored types are never trusted; classification is a function of the year.
func Reclassify(capsules []Capsule, now time.Time) {
	for i := range capsules {
		capsules[i].Type = Classify(capsules[i].Year, now)
	}
}

// SortByYear sorts capsules ascending by year, in place.
// Every import path upholds this ordering invariant.
func SortByYear(capsules []Capsule) {
	sort.SliceStable(capsules, func(i, j int) bool {
		return capsules[i].Year < capsules[j].Year
	})
}

// ValidYear reports whether year is inside the creation-time bounds.
func ValidYear(year int) bool {
	return year >= MinYear && year <= MaxYear
}
