package share

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/errors"
	"github.com/avelis/timecap/internal/validate"
)

// Source identifies which import path was taken.
type Source string

const (
	SourceInline   Source = "data"   // inline compressed token
	SourceExternal Source = "url"    // externally hosted JSON reference
	SourceLegacy   Source = "import" // legacy base64 parameter
)

// maxFetchBytes bounds the body read for externally hosted JSON.
const maxFetchBytes = 8 << 20

// DefaultClient bounds external fetches so a hung host cannot wedge the
// caller indefinitely.
var DefaultClient = &http.Client{Timeout: 15 * time.Second}

// ImportResult is the outcome of importing from URL query parameters.
type ImportResult struct {
	Capsules []capsule.Capsule
	Metadata *capsule.ShareMetadata
	Warnings []string
	Source   Source

	// CleanQuery is the original query with the consumed parameters
	// stripped; the web layer replaces the visible URL with it so a
	// refresh does not re-import.
	CleanQuery url.Values
}

// ImportFromQuery imports a timeline from URL query parameters, checking in
// fixed priority order: inline `data` token, external `url` (optionally
// paired with a compressed `meta`), then legacy base64 `import`. Exactly one
// path is taken; (nil, nil) is returned when no import parameter is present.
// Capsules come back sorted ascending by year with types reclassified,
// regardless of source path.
func ImportFromQuery(ctx context.Context, client *http.Client, query url.Values) (*ImportResult, error) {
	switch {
	case query.Get("data") != "":
		return importInline(query)
	case query.Get("url") != "":
		return importExternal(ctx, client, query)
	case query.Get("import") != "":
		return importLegacy(query)
	default:
		return nil, nil
	}
}

// importInline handles the `data` parameter: a compressed ShareData token.
func importInline(query url.Values) (*ImportResult, error) {
	result, err := Decode(query.Get("data"))
	if err != nil {
		return nil, err
	}
	return finishImport(result, SourceInline, query, "data"), nil
}

// importExternal handles the `url` parameter: a reference to externally
// hosted JSON, optionally paired with a separately compressed `meta` token.
func importExternal(ctx context.Context, client *http.Client, query url.Values) (*ImportResult, error) {
	raw, err := fetchExternalJSON(ctx, client, query.Get("url"))
	if err != nil {
		return nil, err
	}

	result, err := validate.Parse(raw)
	if err != nil {
		return nil, errors.NewFetchFailed("failed to load timeline from URL")
	}

	out := finishImport(result, SourceExternal, query, "url", "meta")

	// The meta parameter decorates payloads that carry no metadata of their
	// own. A bad token degrades to a warning, never a failure.
	if token := query.Get("meta"); token != "" && out.Metadata == nil {
		meta, err := DecodeMetadata(token)
		if err != nil {
			out.Warnings = append(out.Warnings, "share metadata could not be decoded and was ignored")
		} else {
			out.Metadata = meta
		}
	}

	return out, nil
}

// importLegacy handles the `import` parameter: plain base64 JSON, kept only
// for backward compatibility with old share links.
func importLegacy(query url.Values) (*ImportResult, error) {
	token := strings.TrimSpace(query.Get("import"))
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		// Older links sometimes used the URL-safe alphabet.
		raw, err = base64.RawURLEncoding.DecodeString(token)
		if err != nil {
			return nil, errors.NewInvalidPayload("failed to decode shared timeline data")
		}
	}

	result, err := validate.Parse(raw)
	if err != nil {
		return nil, err
	}
	return finishImport(result, SourceLegacy, query, "import"), nil
}

// finishImport applies the cross-path invariants: ascending year order,
// reclassified types, consumed parameters stripped.
func finishImport(result *validate.Result, source Source, query url.Values, consumed ...string) *ImportResult {
	capsule.SortByYear(result.Capsules)
	capsule.Reclassify(result.Capsules, time.Now())

	clean := url.Values{}
	for key, vals := range query {
		skip := false
		for _, c := range consumed {
			if key == c {
				skip = true
				break
			}
		}
		if !skip {
			clean[key] = vals
		}
	}

	return &ImportResult{
		Capsules:   result.Capsules,
		Metadata:   result.Metadata,
		Warnings:   result.Warnings,
		Source:     source,
		CleanQuery: clean,
	}
}

// fetchExternalJSON retrieves externally hosted timeline JSON. Every failure
// mode collapses to the single user-facing fetch error.
func fetchExternalJSON(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.NewInvalidRequest("external URL must be an http(s) URL")
	}

	if client == nil {
		client = DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewFetchFailed("failed to load timeline from URL")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewFetchFailed("failed to load timeline from URL")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, errors.NewFetchFailed("failed to load timeline from URL")
	}

	return body, nil
}
