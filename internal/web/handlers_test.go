package web

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/config"
	"github.com/avelis/timecap/internal/db"
	"github.com/avelis/timecap/internal/ops"
	"github.com/avelis/timecap/internal/share"
)

func setupTest(t *testing.T) *Handlers {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}
	renderer := NewRenderer(templateSub, "test")

	return &Handlers{
		db:       database,
		cfg:      cfg,
		renderer: renderer,
	}
}

// seedTimeline creates a timeline and returns its ID.
func seedTimeline(t *testing.T, h *Handlers, name string) string {
	t.Helper()
	out, err := ops.Create(h.db, ops.CreateInput{Name: name})
	if err != nil {
		t.Fatalf("seed timeline %q: %v", name, err)
	}
	return out.ID
}

// seedCapsule adds a capsule to an existing timeline.
func seedCapsule(t *testing.T, h *Handlers, timelineID string, year int, title string) {
	t.Helper()
	_, err := ops.AddCapsule(h.db, ops.AddCapsuleInput{
		TimelineID: timelineID,
		Year:       year,
		Title:      title,
	})
	if err != nil {
		t.Fatalf("seed capsule %q: %v", title, err)
	}
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// --- HandleList ---

func TestHandleList_Empty(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/timelines", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No timelines yet") {
		t.Error("expected empty state message")
	}
}

func TestHandleList_ShowsTimelines(t *testing.T) {
	h := setupTest(t)
	seedTimeline(t, h, "My Life")

	req := httptest.NewRequest("GET", "/timelines", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "My Life") {
		t.Error("expected timeline name in list")
	}
}

// --- HandleCreate ---

func TestHandleCreate_Redirect(t *testing.T) {
	h := setupTest(t)

	req := postForm("/timelines", url.Values{"name": {"fresh"}})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/timelines/") {
		t.Errorf("Location = %q, want /timelines/{id}", loc)
	}
}

func TestHandleCreate_JSON(t *testing.T) {
	h := setupTest(t)

	req := postForm("/timelines", url.Values{"name": {"json-made"}})
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if resp["name"] != "json-made" {
		t.Errorf("name = %v, want json-made", resp["name"])
	}
	if resp["id"] == "" || resp["id"] == nil {
		t.Error("expected non-empty id")
	}
}

func TestHandleCreate_EmptyName(t *testing.T) {
	h := setupTest(t)

	req := postForm("/timelines", url.Values{"name": {"   "}})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// --- HandleDetail ---

func TestHandleDetail_Found(t *testing.T) {
	h := setupTest(t)
	id := seedTimeline(t, h, "detail-tl")
	seedCapsule(t, h, id, 2001, "graduated")

	req := httptest.NewRequest("GET", "/timelines/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "detail-tl") {
		t.Error("expected timeline name in detail page")
	}
	if !strings.Contains(body, "graduated") {
		t.Error("expected capsule title in detail page")
	}
	if !strings.Contains(body, "2001") {
		t.Error("expected capsule year in detail page")
	}
	// Add-capsule form should be present
	if !strings.Contains(body, "add-capsule") {
		t.Error("expected add-capsule form")
	}
}

func TestHandleDetail_NotFound(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/timelines/NONEXISTENT", nil)
	req.SetPathValue("id", "NONEXISTENT")
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDetail_EmptyID(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/timelines/", nil)
	req.SetPathValue("id", "")
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// --- HandleAddCapsule ---

func TestHandleAddCapsule_Redirect(t *testing.T) {
	h := setupTest(t)
	id := seedTimeline(t, h, "grows")

	form := url.Values{
		"year":  {"2010"},
		"title": {"moved cities"},
		"tags":  {"life, move"},
		"mood":  {"excited"},
	}
	req := postForm("/timelines/"+id+"/capsules", form)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleAddCapsule(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/timelines/"+id {
		t.Errorf("Location = %q, want /timelines/%s", loc, id)
	}
}

func TestHandleAddCapsule_BadYear(t *testing.T) {
	h := setupTest(t)
	id := seedTimeline(t, h, "strict")

	form := url.Values{"year": {"soon"}, "title": {"nope"}}
	req := postForm("/timelines/"+id+"/capsules", form)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleAddCapsule(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAddCapsule_DuplicateYear(t *testing.T) {
	h := setupTest(t)
	id := seedTimeline(t, h, "one-per-year")
	seedCapsule(t, h, id, 2015, "first")

	form := url.Values{"year": {"2015"}, "title": {"second"}}
	req := postForm("/timelines/"+id+"/capsules", form)
	req.SetPathValue("id", id)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleAddCapsule(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

// --- HandleDelete ---

func TestHandleDelete_DefaultRedirect(t *testing.T) {
	h := setupTest(t)
	id := seedTimeline(t, h, "doomed")

	req := httptest.NewRequest("DELETE", "/timelines/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/timelines" {
		t.Errorf("Location = %q, want /timelines", loc)
	}
}

func TestHandleDelete_JSONRequest(t *testing.T) {
	h := setupTest(t)
	id := seedTimeline(t, h, "doomed-json")

	req := httptest.NewRequest("DELETE", "/timelines/"+id, nil)
	req.SetPathValue("id", id)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if resp["deleted"] != true {
		t.Errorf("deleted = %v, want true", resp["deleted"])
	}
}

func TestHandleDelete_MissingIsNoOp(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("DELETE", "/timelines/NONEXISTENT", nil)
	req.SetPathValue("id", "NONEXISTENT")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if resp["deleted"] != false {
		t.Errorf("deleted = %v, want false", resp["deleted"])
	}
}

// --- HandleRename ---

func TestHandleRename_Redirect(t *testing.T) {
	h := setupTest(t)
	id := seedTimeline(t, h, "old-name")

	req := postForm("/timelines/"+id+"/rename", url.Values{"name": {"new-name"}})
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleRename(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	out, err := ops.Load(h.db, ops.LoadInput{ID: id})
	if err != nil {
		t.Fatalf("load after rename: %v", err)
	}
	if out.Name != "new-name" {
		t.Errorf("name = %q, want new-name", out.Name)
	}
}

func TestHandleRename_NotFound(t *testing.T) {
	h := setupTest(t)

	req := postForm("/timelines/NONEXISTENT/rename", url.Values{"name": {"whatever"}})
	req.SetPathValue("id", "NONEXISTENT")
	rec := httptest.NewRecorder()
	h.HandleRename(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// --- HandleShare ---

func TestHandleShare_JSON(t *testing.T) {
	h := setupTest(t)
	id := seedTimeline(t, h, "shared")
	seedCapsule(t, h, id, 1999, "born")
	seedCapsule(t, h, id, 2020, "pandemic")

	req := httptest.NewRequest("GET", "/timelines/"+id+"/share?name=Ada", nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleShare(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	urlStr, _ := resp["url"].(string)
	if !strings.HasPrefix(urlStr, h.cfg.ShareBaseURL+"?data=") {
		t.Errorf("url = %q, want prefix %s?data=", urlStr, h.cfg.ShareBaseURL)
	}
	if resp["capsuleCount"] != float64(2) {
		t.Errorf("capsuleCount = %v, want 2", resp["capsuleCount"])
	}
}

func TestHandleShare_EmptyTimeline(t *testing.T) {
	h := setupTest(t)
	id := seedTimeline(t, h, "barren")

	req := httptest.NewRequest("GET", "/timelines/"+id+"/share", nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleShare(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// --- HandleView ---

func TestHandleView_NoParams(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/view", nil)
	rec := httptest.NewRecorder()
	h.HandleView(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "carry a timeline") {
		t.Error("expected empty state message")
	}
}

func TestHandleView_WithData(t *testing.T) {
	h := setupTest(t)

	token, err := share.Encode(capsule.ShareData{
		Capsules: []capsule.Capsule{
			{ID: "c1", Year: 2003, Title: "first day of school"},
		},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	req := httptest.NewRequest("GET", "/view?data="+url.QueryEscape(token)+"&ref=mail", nil)
	rec := httptest.NewRecorder()
	h.HandleView(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "first day of school") {
		t.Error("expected capsule title in view page")
	}
	if !strings.Contains(body, "2003") {
		t.Error("expected capsule year in view page")
	}
	// The consumed data parameter is stripped from the clean query the page
	// script uses to rewrite the URL; unrelated parameters survive.
	if !strings.Contains(body, `data-clean-query="ref=mail"`) {
		t.Error("expected clean query without the data token")
	}
}

func TestHandleView_BadToken(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/view?data=%25%25garbage", nil)
	rec := httptest.NewRecorder()
	h.HandleView(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

// --- HandleEmbed ---

func TestHandleEmbed_Found(t *testing.T) {
	h := setupTest(t)
	id := seedTimeline(t, h, "framed")
	seedCapsule(t, h, id, 2012, "embedded year")

	req := httptest.NewRequest("GET", "/embed/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleEmbed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "embedded year") {
		t.Error("expected capsule title in embed page")
	}
	if !strings.Contains(body, "embed-frame.js") {
		t.Error("expected resize script in embed page")
	}
}

func TestHandleEmbed_NotFound(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/embed/NONEXISTENT", nil)
	req.SetPathValue("id", "NONEXISTENT")
	rec := httptest.NewRecorder()
	h.HandleEmbed(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// --- HandleEmbedScript ---

func TestHandleEmbedScript(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/embed.js", nil)
	rec := httptest.NewRecorder()
	h.HandleEmbedScript(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Errorf("Content-Type = %q, want javascript", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, h.cfg.SiteOrigin) {
		t.Error("expected configured origin in embed script")
	}
	if !strings.Contains(body, "data-timecap-embed") {
		t.Error("expected embed marker attribute in script")
	}
	if !strings.Contains(body, "timecapsule-resize") {
		t.Error("expected resize message type in script")
	}
	if !strings.Contains(body, "timecapsule-theme") {
		t.Error("expected theme message type in script")
	}
	if !strings.Contains(body, "event.origin") {
		t.Error("expected origin check in script")
	}
}

func TestEmbedFrameScript_ChecksParentOrigin(t *testing.T) {
	handler := serverForTest(t)

	req := httptest.NewRequest("GET", "/static/embed-frame.js", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event.source !== window.parent") {
		t.Error("expected parent-window source check in frame script")
	}
	if !strings.Contains(body, "event.origin !== parentOrigin") {
		t.Error("expected parent origin check in frame script")
	}
	if !strings.Contains(body, "document.referrer") {
		t.Error("expected referrer-derived parent origin in frame script")
	}
}

// --- Theme ---

func TestThemeRoundTrip(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/theme", nil)
	rec := httptest.NewRecorder()
	h.HandleGetTheme(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if resp["theme"] != ops.ThemeLight {
		t.Errorf("default theme = %q, want light", resp["theme"])
	}

	put := httptest.NewRequest("PUT", "/theme", strings.NewReader("theme=dark"))
	put.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.HandleSetTheme(rec, put)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleGetTheme(rec, httptest.NewRequest("GET", "/theme", nil))
	resp = map[string]string{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if resp["theme"] != ops.ThemeDark {
		t.Errorf("theme = %q, want dark", resp["theme"])
	}
}

func TestSetTheme_Invalid(t *testing.T) {
	h := setupTest(t)

	put := httptest.NewRequest("PUT", "/theme", strings.NewReader("theme=sepia"))
	put.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleSetTheme(rec, put)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// --- Security headers ---

func serverForTest(t *testing.T) http.Handler {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewServer(database, config.DefaultConfig(), "test", "127.0.0.1", 0).Handler
}

func TestSecurityHeaders_DenyFramingByDefault(t *testing.T) {
	handler := serverForTest(t)

	req := httptest.NewRequest("GET", "/timelines", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if csp := rec.Header().Get("Content-Security-Policy"); strings.Contains(csp, "frame-ancestors *") {
		t.Error("non-embed pages must not allow framing")
	}
}

func TestSecurityHeaders_EmbedAllowsFraming(t *testing.T) {
	handler := serverForTest(t)

	req := httptest.NewRequest("GET", "/embed/SOMEID", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Frame-Options"); got != "" {
		t.Errorf("X-Frame-Options = %q, want unset on embed pages", got)
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "frame-ancestors *") {
		t.Errorf("CSP = %q, want frame-ancestors *", csp)
	}
}

func TestRootRedirects(t *testing.T) {
	handler := serverForTest(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/timelines" {
		t.Errorf("Location = %q, want /timelines", loc)
	}
}

// --- originAllowed ---

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		origin     string
		siteOrigin string
		want       bool
	}{
		{"https://timecap.app", "https://timecap.app", true},
		{"https://timecap.app:443", "https://timecap.app:443", true},
		{"http://timecap.app", "https://timecap.app", false},
		{"https://timecap.app.evil.com", "https://timecap.app", false},
		{"https://eviltimecap.app", "https://timecap.app", false},
		{"https://timecap.app:8080", "https://timecap.app", false},
		{"timecap.app", "https://timecap.app", false},
		{"null", "https://timecap.app", false},
		{"", "https://timecap.app", false},
		{"https://timecap.app", "", false},
	}
	for _, tt := range tests {
		if got := originAllowed(tt.origin, tt.siteOrigin); got != tt.want {
			t.Errorf("originAllowed(%q, %q) = %v, want %v", tt.origin, tt.siteOrigin, got, tt.want)
		}
	}
}
