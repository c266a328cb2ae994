package ops

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"

	"github.com/oklog/ulid/v2"
)

// Field limits enforced at creation time. Imported payloads are bounded
// separately by the validation layer.
const (
	MaxNameChars        = 100
	MaxTitleChars       = 100
	MaxDescriptionChars = 1000
)

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// newColorSeed returns a random seed in [0, 1) used for deterministic
// placeholder coloring. Falls back to 0 if the entropy source fails.
func newColorSeed() *float64 {
	var buf [8]byte
	seed := 0.0
	if _, err := rand.Read(buf[:]); err == nil {
		seed = float64(binary.BigEndian.Uint64(buf[:])) / math.MaxUint64
		if seed >= 1 {
			seed = 0
		}
	}
	return &seed
}
