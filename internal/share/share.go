package share

import (
	"net/url"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/errors"
)

// DefaultMaxURLLen is the practical browser/proxy URL-length safety margin.
const DefaultMaxURLLen = 1900

// URLResult is the outcome of shareable URL generation. NeedsExternalURL
// signals the caller to fall back to external hosting; it is a routing
// condition, not an error.
type URLResult struct {
	URL              string `json:"url"`
	NeedsExternalURL bool   `json:"needsExternalUrl"`
	Length           int    `json:"length"`
}

// GenerateShareableURL builds `<base>?data=<token>` from a capsule list and
// optional metadata, in shareable mode (embedded data blobs stripped).
// A result longer than maxLen aborts generation with NeedsExternalURL set
// and an empty URL.
func GenerateShareableURL(baseURL string, capsules []capsule.Capsule, meta *capsule.ShareMetadata, maxLen int) (*URLResult, error) {
	if len(capsules) == 0 {
		return nil, errors.NewInvalidRequest("cannot share an empty timeline")
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxURLLen
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.NewInvalidRequest("invalid share base URL")
	}

	token, err := Encode(capsule.ShareData{
		Capsules: ToShareable(capsules),
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	q := base.Query()
	q.Set("data", token)
	base.RawQuery = q.Encode()
	full := base.String()

	if len(full) > maxLen {
		return &URLResult{NeedsExternalURL: true, Length: len(full)}, nil
	}

	return &URLResult{URL: full, Length: len(full)}, nil
}

// ExternalShareURL builds `<base>?url=<jsonURL>` with an optional separately
// compressed `meta` parameter. The external URL is a plain reference, not
// payload, so it is never compressed.
func ExternalShareURL(baseURL, jsonURL string, meta *capsule.ShareMetadata) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.NewInvalidRequest("invalid share base URL")
	}

	ext, err := url.Parse(jsonURL)
	if err != nil || (ext.Scheme != "http" && ext.Scheme != "https") || ext.Host == "" {
		return "", errors.NewInvalidRequest("external URL must be an http(s) URL")
	}

	q := base.Query()
	q.Set("url", jsonURL)
	if meta != nil {
		token, err := EncodeMetadata(meta)
		if err != nil {
			return "", err
		}
		q.Set("meta", token)
	}
	base.RawQuery = q.Encode()

	return base.String(), nil
}
