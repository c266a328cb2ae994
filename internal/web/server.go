package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avelis/timecap/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the timecap web UI.
func NewServer(db *sql.DB, cfg *config.Config, version, bind string, port int) *http.Server {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	renderer := NewRenderer(templateSub, version)

	h := &Handlers{
		db:       db,
		cfg:      cfg,
		renderer: renderer,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/timelines", http.StatusFound)
	})
	mux.HandleFunc("GET /timelines", h.HandleList)
	mux.HandleFunc("POST /timelines", h.HandleCreate)
	mux.HandleFunc("GET /timelines/{id}", h.HandleDetail)
	mux.HandleFunc("DELETE /timelines/{id}", h.HandleDelete)
	mux.HandleFunc("POST /timelines/{id}/capsules", h.HandleAddCapsule)
	mux.HandleFunc("POST /timelines/{id}/rename", h.HandleRename)
	mux.HandleFunc("GET /timelines/{id}/share", h.HandleShare)

	// Shared-timeline landing: decodes data/url/import query parameters.
	mux.HandleFunc("GET /view", h.HandleView)

	// Embeddable iframe page plus the parent-side loader script.
	mux.HandleFunc("GET /embed/{id}", h.HandleEmbed)
	mux.HandleFunc("GET /embed.js", h.HandleEmbedScript)

	// Theme preference
	mux.HandleFunc("GET /theme", h.HandleGetTheme)
	mux.HandleFunc("PUT /theme", h.HandleSetTheme)

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	handler := securityHeaders(mux)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
// Embed pages must stay frameable by other sites; everything else denies
// framing outright.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if strings.HasPrefix(r.URL.Path, "/embed/") {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; frame-ancestors *")
		} else {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
			w.Header().Set("X-Frame-Options", "DENY")
		}
		next.ServeHTTP(w, r)
	})
}

// originAllowed reports whether a postMessage origin matches the configured
// site origin. Scheme, host, and port must all match; a bare host or a
// prefix match is not enough.
func originAllowed(origin, siteOrigin string) bool {
	if origin == "" || siteOrigin == "" {
		return false
	}
	o, err := url.Parse(origin)
	if err != nil || o.Scheme == "" || o.Host == "" {
		return false
	}
	s, err := url.Parse(siteOrigin)
	if err != nil || s.Scheme == "" || s.Host == "" {
		return false
	}
	return o.Scheme == s.Scheme && o.Host == s.Host
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("timecap UI running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
