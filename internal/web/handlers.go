package web

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/config"
	"github.com/avelis/timecap/internal/errors"
	"github.com/avelis/timecap/internal/ops"
	"github.com/avelis/timecap/internal/share"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

func (h *Handlers) theme() string {
	theme, err := ops.GetTheme(h.db)
	if err != nil {
		return ops.ThemeLight
	}
	return theme
}

// HandleList handles GET /timelines, the stored timeline list.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Timelines",
			Version: h.renderer.version,
			Theme:   h.theme(),
			Nav:     "timelines",
		},
		Items: result.Items,
	})
}

// HandleCreate handles POST /timelines, creating a timeline from a form.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := ops.Create(h.db, ops.CreateInput{Name: r.FormValue("name")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusCreated, result)
		return
	}
	http.Redirect(w, r, "/timelines/"+result.ID, http.StatusFound)
}

// HandleDetail handles GET /timelines/{id}, a timeline and its capsules.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("timeline ID is required"))
		return
	}

	result, err := ops.Load(h.db, ops.LoadInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if !result.Found {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   result.Name,
			Version: h.renderer.version,
			Theme:   h.theme(),
			Nav:     "timelines",
		},
		Timeline: result,
		Moods:    capsule.Moods,
		MinYear:  capsule.MinYear,
		MaxYear:  capsule.MaxYear,
	})
}

// HandleDelete handles DELETE /timelines/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("timeline ID is required"))
		return
	}

	result, err := ops.Delete(h.db, ops.DeleteInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/timelines", http.StatusFound)
}

// HandleAddCapsule handles POST /timelines/{id}/capsules, adding a capsule
// from a form.
func (h *Handlers) HandleAddCapsule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("timeline ID is required"))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("year must be an integer"))
		return
	}

	var tags []string
	for _, t := range strings.Split(r.FormValue("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	result, err := ops.AddCapsule(h.db, ops.AddCapsuleInput{
		TimelineID:  id,
		Year:        year,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		MediaURL:    r.FormValue("media_url"),
		Mood:        r.FormValue("mood"),
		Milestone:   r.FormValue("milestone") == "true" || r.FormValue("milestone") == "on",
		Tags:        tags,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusCreated, result)
		return
	}
	http.Redirect(w, r, "/timelines/"+id, http.StatusFound)
}

// HandleRename handles POST /timelines/{id}/rename.
func (h *Handlers) HandleRename(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("timeline ID is required"))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := ops.Rename(h.db, ops.RenameInput{ID: id, Name: r.FormValue("name")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/timelines/"+result.ID, http.StatusFound)
}

// HandleShare handles GET /timelines/{id}/share, building a shareable URL.
// Always answers JSON; the UI renders the link client-side.
func (h *Handlers) HandleShare(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("timeline ID is required"))
		return
	}

	q := r.URL.Query()
	result, err := ops.Share(h.db, h.cfg, ops.ShareInput{
		TimelineID:  id,
		Name:        q.Get("name"),
		Bio:         q.Get("bio"),
		ProfilePic:  q.Get("profile_pic"),
		ExternalURL: q.Get("external_url"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleView handles GET /view, the landing page for shared timelines. The query
// carries one of data (inline token), url (external JSON), or import
// (legacy base64); with none of them the page shows an empty state.
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	data := ViewPageData{
		PageData: PageData{
			Title:   "Shared timeline",
			Version: h.renderer.version,
			Theme:   h.theme(),
		},
	}

	result, err := share.ImportFromQuery(r.Context(), nil, r.URL.Query())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if result != nil {
		data.Capsules = result.Capsules
		data.Metadata = result.Metadata
		data.Warnings = result.Warnings
		data.Source = string(result.Source)
		data.Imported = true
		data.CleanQuery = result.CleanQuery.Encode()
		if result.Metadata != nil && result.Metadata.Name != "" {
			data.Title = result.Metadata.Name + "'s timeline"
		}
	}

	h.renderer.renderPage(w, r, "view", data)
}

// HandleEmbed handles GET /embed/{id}, a chrome-free timeline page meant
// to live inside an iframe. The page posts its rendered height to the
// parent window after load.
func (h *Handlers) HandleEmbed(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("timeline ID is required"))
		return
	}

	result, err := ops.Load(h.db, ops.LoadInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if !result.Found {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	h.renderer.renderPage(w, r, "embed", EmbedPageData{
		PageData: PageData{
			Title:   result.Name,
			Version: h.renderer.version,
			Theme:   h.theme(),
		},
		Timeline:   result,
		SiteOrigin: h.cfg.SiteOrigin,
	})
}

// HandleEmbedScript handles GET /embed.js, the parent-side loader that
// turns <div data-timecap-embed="..."> markers into iframes and resizes
// them on messages from the configured origin. Messages from any other
// origin are dropped.
func (h *Handlers) HandleEmbedScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeEmbedScript(w, h.cfg.SiteOrigin)
}

// HandleGetTheme handles GET /theme.
func (h *Handlers) HandleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := ops.GetTheme(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{"theme": theme})
}

// HandleSetTheme handles PUT /theme. Accepts form or query value.
func (h *Handlers) HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	theme := r.FormValue("theme")
	if err := ops.SetTheme(h.db, theme); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{"theme": theme})
}
