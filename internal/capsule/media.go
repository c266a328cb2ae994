package capsule

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/avelis/timecap/internal/errors"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".svg": true, ".avif": true, ".bmp": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".m4v": true, ".ogv": true,
}

var videoHosts = map[string]bool{
	"youtube.com": true, "www.youtube.com": true, "m.youtube.com": true,
	"youtu.be": true, "vimeo.com": true, "www.vimeo.com": true,
	"player.vimeo.com": true,
}

// DetectMediaType sniffs the media kind from a URL via extension and
// hostname pattern matching. Unknown URLs fall back to "link".
func DetectMediaType(rawURL string) string {
	if strings.HasPrefix(rawURL, "data:image/") {
		return MediaImage
	}
	if strings.HasPrefix(rawURL, "data:video/") {
		return MediaVideo
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return MediaLink
	}

	host := strings.ToLower(u.Hostname())
	if videoHosts[host] {
		return MediaVideo
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if imageExts[ext] {
		return MediaImage
	}
	if videoExts[ext] {
		return MediaVideo
	}

	return MediaLink
}

// youtubeIDRe matches the 11-character video id in watch, embed, shorts,
// and short-link URL forms.
var youtubeIDRe = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|embed/|shorts/)|youtu\.be/)([A-Za-z0-9_-]{11})`)

// YouTubeID extracts the video id from a YouTube URL.
func YouTubeID(rawURL string) (string, bool) {
	m := youtubeIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// YouTubeThumbnail derives the known thumbnail URL for a YouTube video URL.
func YouTubeThumbnail(rawURL string) (string, bool) {
	id, ok := YouTubeID(rawURL)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", id), true
}

// vimeoIDRe matches the numeric video id in vimeo.com URL forms.
var vimeoIDRe = regexp.MustCompile(`vimeo\.com/(?:video/)?(\d+)`)

// vimeoAPIBase is the metadata endpoint pattern; overridable in tests.
var vimeoAPIBase = "https://vimeo.com/api/v2/video/%s.json"

// VimeoID extracts the numeric video id from a Vimeo URL.
func VimeoID(rawURL string) (string, bool) {
	m := vimeoIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// VimeoThumbnail resolves a thumbnail URL for a Vimeo video via one metadata
// fetch against Vimeo's v2 video API.
func VimeoThumbnail(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	id, ok := VimeoID(rawURL)
	if !ok {
		return "", errors.NewInvalidRequest("not a vimeo video URL")
	}

	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(vimeoAPIBase, id), nil)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", errors.NewFetchFailed("failed to look up vimeo thumbnail")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewFetchFailed("failed to look up vimeo thumbnail")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.NewFetchFailed("failed to look up vimeo thumbnail")
	}

	var payload []struct {
		ThumbnailLarge string `json:"thumbnail_large"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 || payload[0].ThumbnailLarge == "" {
		return "", errors.NewFetchFailed("failed to look up vimeo thumbnail")
	}

	return payload[0].ThumbnailLarge, nil
}
