package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/errors"
	"github.com/avelis/timecap/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Theme   string
	Nav     string // active nav item: "timelines"
}

// ListPageData is the template data for the timeline list page.
type ListPageData struct {
	PageData
	Items []db.TimelineSummary
}

// DetailPageData is the template data for the timeline detail page.
type DetailPageData struct {
	PageData
	Timeline *ops.LoadOutput
	Moods    []string
	MinYear  int
	MaxYear  int
}

// ViewPageData is the template data for the shared-timeline view page.
type ViewPageData struct {
	PageData
	Capsules []capsule.Capsule
	Metadata *capsule.ShareMetadata
	Warnings []string
	Source   string

	// Imported is set after a successful query import; CleanQuery is the
	// re-encoded query with the consumed parameters stripped, used by the
	// page script to rewrite the visible URL so a refresh does not
	// re-import.
	Imported   bool
	CleanQuery string
}

// EmbedPageData is the template data for the embeddable timeline frame.
type EmbedPageData struct {
	PageData
	Timeline   *ops.LoadOutput
	SiteOrigin string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"formatTime": formatTime,
		"safeHTML":   func(s string) template.HTML { return template.HTML(s) },
		"colorClass": colorClass,
		"markdown":   renderMarkdown,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":   "list.html",
		"detail": "detail.html",
		"view":   "view.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	// The embed frame stands alone: no layout chrome inside an iframe.
	templates["embed"] = template.Must(
		template.New("embed").Funcs(funcMap).ParseFS(templateFS, "embed.html"))

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		log.Printf("template %q not found", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if name == "embed" {
		block = "embed"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternal(err)
	}

	status := appErr.Status
	message := appErr.Message

	if strings.Contains(req.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    string(appErr.Code),
				"message": message,
				"status":  status,
			},
		})
		return
	}

	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

// colorClass maps a capsule's color seed onto a palette CSS class.
// Capsules without a seed get the first palette slot. Colors cross as
// classes rather than inline styles so the CSP can stay strict.
func colorClass(c capsule.Capsule) string {
	seed := 0.0
	if c.ColorSeed != nil {
		seed = *c.ColorSeed
	}
	return fmt.Sprintf("palette-%d", capsule.PaletteIndex(seed))
}
