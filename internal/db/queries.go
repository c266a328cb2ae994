package db

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/errors"
)

// TimelineRecord is the persisted shape of one timeline.
type TimelineRecord struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Capsules     []capsule.Capsule `json:"capsules"`
	Version      int               `json:"version"`
	CapsuleCount int               `json:"capsuleCount"`
	CreatedAt    int64             `json:"createdAt"`
	UpdatedAt    int64             `json:"updatedAt"`
}

// TimelineSummary is the listing shape (no capsule payload).
type TimelineSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CapsuleCount int    `json:"capsuleCount"`
	Version      int    `json:"version"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// UpsertTimeline inserts or fully replaces a timeline record.
// Callers preserve CreatedAt across replaces by fetching the existing
// record first (see ops.Save).
func UpsertTimeline(db *sql.DB, rec *TimelineRecord) error {
	capsulesJSON, err := json.Marshal(rec.Capsules)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO timelines (id, name, capsules_json, version, capsule_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			capsules_json = excluded.capsules_json,
			version = excluded.version,
			capsule_count = excluded.capsule_count,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`

	_, err = db.Exec(query,
		rec.ID, rec.Name, string(capsulesJSON), rec.Version,
		rec.CapsuleCount, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetTimeline retrieves a timeline record by id.
// A missing id returns (nil, nil), never an error. A record whose version
// differs from CurrentRecordVersion is logged and used as-is.
func GetTimeline(db *sql.DB, id string) (*TimelineRecord, error) {
	query := `
		SELECT id, name, capsules_json, version, capsule_count, created_at, updated_at
		FROM timelines
		WHERE id = ?
	`

	var (
		rec          TimelineRecord
		capsulesJSON string
	)
	err := db.QueryRow(query, id).Scan(
		&rec.ID, &rec.Name, &capsulesJSON, &rec.Version,
		&rec.CapsuleCount, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if rec.Version != CurrentRecordVersion {
		log.Printf("warning: timeline %s has record version %d (current %d); using as-is",
			rec.ID, rec.Version, CurrentRecordVersion)
	}

	if capsulesJSON != "" {
		if err := json.Unmarshal([]byte(capsulesJSON), &rec.Capsules); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	return &rec, nil
}

// ListTimelines returns summaries for every stored timeline,
// most-recently-updated first.
func ListTimelines(db *sql.DB) ([]TimelineSummary, error) {
	query := `
		SELECT id, name, capsule_count, version, created_at, updated_at
		FROM timelines
		ORDER BY updated_at DESC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	summaries := []TimelineSummary{}
	for rows.Next() {
		var s TimelineSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CapsuleCount, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return summaries, nil
}

// DeleteTimeline removes a timeline record. Deleting a missing id is a no-op.
func DeleteTimeline(db *sql.DB, id string) error {
	_, err := db.Exec(`DELETE FROM timelines WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RenameTimeline changes a timeline's name and refreshes updated_at.
// Renaming a nonexistent id is an error.
func RenameTimeline(db *sql.DB, id, name string) error {
	result, err := db.Exec(
		`UPDATE timelines SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().Unix(), id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// GetPref reads a preference value; missing keys return the fallback.
func GetPref(db *sql.DB, key, fallback string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return value, nil
}

// SetPref upserts a preference value.
func SetPref(db *sql.DB, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
