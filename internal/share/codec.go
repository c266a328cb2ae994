// Package share converts capsule lists to and from transportable
// representations: compressed URL-safe tokens, shareable URLs, and the
// query-parameter import paths the web viewer consumes.
package share

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/errors"
	"github.com/avelis/timecap/internal/validate"
)

// maxDecodedBytes bounds decompression so a hostile token cannot balloon.
const maxDecodedBytes = 8 << 20

// Encode serializes share data into a compact URL-safe token:
// JSON, deflated, base64url without padding.
func Encode(data capsule.ShareData) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if _, err := w.Write(raw); err != nil {
		return "", errors.NewInternal(err)
	}
	if err := w.Close(); err != nil {
		return "", errors.NewInternal(err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode and runs the result through validation.
func Decode(token string) (*validate.Result, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return nil, errors.NewInvalidPayload("failed to decode shared timeline data")
	}

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	raw, err := io.ReadAll(io.LimitReader(r, maxDecodedBytes+1))
	if err != nil {
		return nil, errors.NewInvalidPayload("failed to decode shared timeline data")
	}
	if len(raw) > maxDecodedBytes {
		return nil, errors.NewInvalidPayload("shared timeline data is too large")
	}

	return validate.Parse(raw)
}

// EncodeMetadata compresses just the metadata object into a token for the
// `meta` query parameter used alongside externally hosted JSON.
func EncodeMetadata(meta *capsule.ShareMetadata) (string, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if _, err := w.Write(raw); err != nil {
		return "", errors.NewInternal(err)
	}
	if err := w.Close(); err != nil {
		return "", errors.NewInternal(err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeMetadata reverses EncodeMetadata.
func DecodeMetadata(token string) (*capsule.ShareMetadata, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return nil, errors.NewInvalidPayload("failed to decode share metadata")
	}

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	raw, err := io.ReadAll(io.LimitReader(r, maxDecodedBytes+1))
	if err != nil {
		return nil, errors.NewInvalidPayload("failed to decode share metadata")
	}
	if len(raw) > maxDecodedBytes {
		return nil, errors.NewInvalidPayload("share metadata is too large")
	}

	var meta capsule.ShareMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, errors.NewInvalidPayload(fmt.Sprintf("invalid share metadata: %v", err))
	}

	return &meta, nil
}

// ToShareable copies capsules for URL sharing, stripping embedded data
// blobs: a data: mediaUrl (and its mediaType) is cleared because such blobs
// are too large to round-trip through a compressed URL. Externally hosted
// URLs are kept.
func ToShareable(capsules []capsule.Capsule) []capsule.Capsule {
	out := make([]capsule.Capsule, len(capsules))
	copy(out, capsules)
	for i := range out {
		if strings.HasPrefix(out[i].MediaURL, "data:") {
			out[i].MediaURL = ""
			out[i].MediaType = ""
		}
	}
	return out
}
