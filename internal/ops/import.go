package ops

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/config"
	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/errors"
	"github.com/avelis/timecap/internal/validate"
)

const maxImportBytes = 8 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required
	Name string // optional, default: derived from filename
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CapsuleCount int      `json:"capsuleCount"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Import reads a timeline JSON file and stores it as a new timeline.
// The payload goes through the same validation as shared URLs: malformed
// capsules are dropped with a warning, and a file with no salvageable
// capsules is rejected.
func Import(database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.Error); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(raw) > maxImportBytes {
		return nil, errors.NewInvalidPayload("import file is too large")
	}

	result, err := validate.Parse(raw)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	capsule.SortByYear(result.Capsules)
	capsule.Reclassify(result.Capsules, now)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = nameFromPath(input.Path)
	}
	if len([]rune(name)) > MaxNameChars {
		name = string([]rune(name)[:MaxNameChars])
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	rec := &db.TimelineRecord{
		ID:           id,
		Name:         name,
		Capsules:     result.Capsules,
		Version:      db.CurrentRecordVersion,
		CapsuleCount: len(result.Capsules),
		CreatedAt:    now.Unix(),
		UpdatedAt:    now.Unix(),
	}

	if err := db.UpsertTimeline(database, rec); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to save timeline: %w", err))
	}

	return &ImportOutput{
		ID:           id,
		Name:         name,
		CapsuleCount: len(result.Capsules),
		Warnings:     result.Warnings,
	}, nil
}

// nameFromPath derives a timeline name from a file path: the base name
// without extension, falling back to "imported".
func nameFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.TrimSpace(name)
	if name == "" {
		return "imported"
	}
	return name
}
