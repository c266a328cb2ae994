// Package validate sanitizes externally supplied timeline JSON (imported
// files or URL payloads) into the trusted internal shape. It is deliberately
// permissive about string content: the rendering layer escapes on display,
// so no HTML sanitation happens here.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/errors"
)

// MaxFieldChars caps every sanitized string field.
const MaxFieldChars = 10000

// Result is the sanitized outcome of validating untrusted share data.
// Warnings carry non-fatal findings such as skipped capsules.
type Result struct {
	Capsules []capsule.Capsule
	Metadata *capsule.ShareMetadata
	Warnings []string
}

// Parse unmarshals raw JSON and sanitizes it.
func Parse(data []byte) (*Result, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.NewInvalidPayload(fmt.Sprintf("invalid JSON: %v", err))
	}
	return Sanitize(v)
}

// Sanitize turns an arbitrary parsed JSON value into trusted capsules plus
// optional metadata. Capsules failing required-field checks are dropped and
// counted; the payload is rejected only when zero capsules survive.
func Sanitize(v any) (*Result, error) {
	// Legacy shape: a bare array of capsules.
	if arr, ok := v.([]any); ok {
		v = map[string]any{"capsules": arr}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.NewInvalidPayload("timeline data must be a JSON object or array")
	}

	rawCapsules, ok := obj["capsules"].([]any)
	if !ok {
		return nil, errors.NewInvalidPayload("timeline data is missing a capsules list")
	}
	if len(rawCapsules) == 0 {
		return nil, errors.NewInvalidPayload("timeline contains no capsules")
	}

	result := &Result{}
	skipped := 0

	for _, item := range rawCapsules {
		c, ok := sanitizeCapsule(item)
		if !ok {
			skipped++
			continue
		}
		result.Capsules = append(result.Capsules, c)
	}

	if len(result.Capsules) == 0 {
		return nil, errors.NewInvalidPayload("no valid capsules found in timeline data")
	}

	if skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d capsules skipped (missing required fields)", skipped))
	}

	if rawMeta, ok := obj["metadata"].(map[string]any); ok {
		result.Metadata = sanitizeMetadata(rawMeta)
	}

	return result, nil
}

// sanitizeCapsule validates one entry. Required: id (string), year (number),
// title (string), type exactly "past" or "future". Everything else is
// optional and cleared when malformed.
func sanitizeCapsule(item any) (capsule.Capsule, bool) {
	var c capsule.Capsule

	entry, ok := item.(map[string]any)
	if !ok {
		return c, false
	}

	id, ok := entry["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return c, false
	}
	year, ok := numberField(entry, "year")
	if !ok {
		return c, false
	}
	title, ok := entry["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return c, false
	}
	typ, ok := entry["type"].(string)
	if !ok || (typ != capsule.TypePast && typ != capsule.TypeFuture) {
		return c, false
	}

	c.ID = sanitizeString(id)
	c.Year = int(math.Floor(year))
	c.Title = sanitizeString(title)
	c.Type = typ

	if desc, ok := entry["description"].(string); ok {
		c.Description = sanitizeString(desc)
	}
	if raw, ok := entry["mediaUrl"].(string); ok {
		c.MediaURL = sanitizeURL(raw)
	}
	if mt, ok := entry["mediaType"].(string); ok && contains(capsule.MediaTypes, mt) {
		c.MediaType = mt
	}
	if mood, ok := entry["mood"].(string); ok && contains(capsule.Moods, mood) {
		c.Mood = mood
	}
	if ms, ok := entry["milestone"].(bool); ok {
		c.Milestone = ms
	}
	if seed, ok := numberField(entry, "colorSeed"); ok {
		c.ColorSeed = &seed
	}
	if age, ok := numberField(entry, "age"); ok {
		a := int(math.Floor(age))
		c.Age = &a
	}
	if createdAt, ok := numberField(entry, "createdAt"); ok {
		c.CreatedAt = int64(createdAt)
	}
	if updatedAt, ok := numberField(entry, "updatedAt"); ok {
		c.UpdatedAt = int64(updatedAt)
	}
	if rawTags, ok := entry["tags"].([]any); ok {
		for _, t := range rawTags {
			if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
				c.Tags = append(c.Tags, sanitizeString(s))
			}
		}
	}

	return c, true
}

// sanitizeMetadata cleans the optional author decoration. Every field is
// independent; a bad field is dropped, never fatal.
func sanitizeMetadata(raw map[string]any) *capsule.ShareMetadata {
	meta := &capsule.ShareMetadata{}

	if name, ok := raw["name"].(string); ok {
		meta.Name = sanitizeString(name)
	}
	if bio, ok := raw["bio"].(string); ok {
		meta.Bio = sanitizeString(bio)
	}
	if pic, ok := raw["profilePic"].(string); ok {
		meta.ProfilePic = sanitizeURL(pic)
	}
	if sharedAt, ok := raw["sharedAt"].(string); ok && validDate(sharedAt) {
		meta.SharedAt = sharedAt
	}

	if *meta == (capsule.ShareMetadata{}) {
		return nil
	}
	return meta
}

// sanitizeString trims and caps a string field. The cap counts runes, not
// bytes, so multibyte text is never split mid-rune.
func sanitizeString(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxFieldChars {
		runes := []rune(s)
		s = string(runes[:MaxFieldChars])
	}
	return s
}

// sanitizeURL accepts http/https URLs and data: URIs; anything else is dropped.
func sanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "data:") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return raw
}

// validDate reports whether s parses as a date string in a common layout.
func validDate(s string) bool {
	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02",
		time.RFC1123,
	}
	for _, layout := range layouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// numberField reads a JSON number field (float64 after generic unmarshal).
func numberField(entry map[string]any, key string) (float64, bool) {
	n, ok := entry[key].(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
