package capsule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avelis/timecap/internal/errors"
)

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/photo.jpg", MediaImage},
		{"https://example.com/photo.PNG", MediaImage},
		{"https://example.com/clip.mp4", MediaVideo},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", MediaVideo},
		{"https://youtu.be/dQw4w9WgXcQ", MediaVideo},
		{"https://vimeo.com/123456", MediaVideo},
		{"data:image/png;base64,iVBORw0KGgo=", MediaImage},
		{"data:video/mp4;base64,AAAA", MediaVideo},
		{"https://example.com/article", MediaLink},
		{"https://example.com/file.pdf", MediaLink},
	}

	for _, tt := range tests {
		if got := DetectMediaType(tt.url); got != tt.want {
			t.Errorf("DetectMediaType(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestYouTubeThumbnail(t *testing.T) {
	tests := []struct {
		url    string
		wantID string
		ok     bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?list=PL1&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://example.com/watch?v=nope", "", false},
		{"https://vimeo.com/123456", "", false},
	}

	for _, tt := range tests {
		thumb, ok := YouTubeThumbnail(tt.url)
		if ok != tt.ok {
			t.Errorf("YouTubeThumbnail(%q) ok = %v, want %v", tt.url, ok, tt.ok)
			continue
		}
		if ok {
			want := "https://img.youtube.com/vi/" + tt.wantID + "/hqdefault.jpg"
			if thumb != want {
				t.Errorf("YouTubeThumbnail(%q) = %q, want %q", tt.url, thumb, want)
			}
		}
	}
}

func TestVimeoID(t *testing.T) {
	if id, ok := VimeoID("https://vimeo.com/76979871"); !ok || id != "76979871" {
		t.Errorf("VimeoID = %q, %v", id, ok)
	}
	if id, ok := VimeoID("https://vimeo.com/video/76979871"); !ok || id != "76979871" {
		t.Errorf("VimeoID (video path) = %q, %v", id, ok)
	}
	if _, ok := VimeoID("https://example.com/76979871"); ok {
		t.Error("VimeoID should not match non-vimeo hosts")
	}
}

func TestVimeoThumbnail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":76979871,"thumbnail_large":"https://i.vimeocdn.com/video/452001751_640.jpg"}]`))
	}))
	defer srv.Close()

	orig := vimeoAPIBase
	vimeoAPIBase = srv.URL + "/%s.json"
	defer func() { vimeoAPIBase = orig }()

	thumb, err := VimeoThumbnail(context.Background(), srv.Client(), "https://vimeo.com/76979871")
	if err != nil {
		t.Fatalf("VimeoThumbnail failed: %v", err)
	}
	if thumb != "https://i.vimeocdn.com/video/452001751_640.jpg" {
		t.Errorf("thumbnail = %q", thumb)
	}
}

func TestVimeoThumbnailFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	orig := vimeoAPIBase
	vimeoAPIBase = srv.URL + "/%s.json"
	defer func() { vimeoAPIBase = orig }()

	_, err := VimeoThumbnail(context.Background(), srv.Client(), "https://vimeo.com/76979871")
	if !errors.Is(err, errors.ErrFetchFailed) {
		t.Errorf("expected FETCH_FAILED, got %v", err)
	}
}

func TestVimeoThumbnailNotVimeo(t *testing.T) {
	_, err := VimeoThumbnail(context.Background(), nil, "https://example.com/clip")
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}
