package ops

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/config"
	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/errors"
	"github.com/avelis/timecap/internal/share"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	TimelineID string // required
	Path       string // optional, default: ~/.timecap/exports/<name>-<timestamp>.json

	// Shareable strips embedded data: media from the payload, producing
	// the same shape the inline share link carries. This is the file to
	// host externally when a timeline is too large for an inline link.
	Shareable bool
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path         string `json:"path"`
	CapsuleCount int    `json:"capsuleCount"`
	ExportedAt   int64  `json:"exportedAt"`
}

// Export writes a timeline to a JSON file in the same wire shape the
// share codec and the import path consume.
func Export(database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
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

	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		exportPath, err = defaultExportPath(rec.Name, now)
		if err != nil {
			return nil, err
		}
	}

	// Default paths go through the same validation as user-provided ones;
	// timeline names feed the filename and must not smuggle path components.
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	capsules := rec.Capsules
	if capsules == nil {
		capsules = []capsule.Capsule{}
	}
	if input.Shareable {
		capsules = share.ToShareable(capsules)
	}
	capsule.SortByYear(capsules)

	payload, err := json.MarshalIndent(capsule.ShareData{Capsules: capsules}, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	// Write to a temp file, then atomic rename so a failure never
	// clobbers an existing export.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(payload); err != nil {
		return nil, errors.NewInternal(err)
	}
	if _, err := file.Write([]byte("\n")); err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:         exportPath,
		CapsuleCount: len(capsules),
		ExportedAt:   now.Unix(),
	}, nil
}

// defaultExportPath generates the default export path.
// Format: ~/.timecap/exports/<name>-<timestamp>.json
func defaultExportPath(name string, now time.Time) (string, error) {
	exportsDir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}

	timestamp := now.Format("2006-01-02T150405")
	filename := fmt.Sprintf("%s-%s.json", SanitizeForFilename(name), timestamp)
	return filepath.Join(exportsDir, filename), nil
}
