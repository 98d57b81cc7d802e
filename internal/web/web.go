package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"teamup/internal/config"
	appLog "teamup/internal/log"
	"teamup/internal/session"
)

// Server renders the TeamUp pages and forwards user actions to the REST
// API through each browser's session.
type Server struct {
	cfg   *config.Config
	debug bool
	mux   *http.ServeMux
	loc   *time.Location

	store  *session.Store
	drafts *draftRegistry
	pages  map[string]*template.Template
}

// embeddedStatic holds the stylesheet and the geolocation script.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, store *session.Store, debug bool) (*Server, error) {
	loc := cfg.Location()
	pages, err := parsePages(loc)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:    cfg,
		debug:  debug,
		mux:    http.NewServeMux(),
		loc:    loc,
		store:  store,
		drafts: newDraftRegistry(),
		pages:  pages,
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := s.sessionMiddleware(s.mux)
	if s.cfg.BasicAuth.Enabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="TeamUp", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "debug", s.debug)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /static/", s.staticFileServer())

	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /events", s.handleEvents)
	s.mux.HandleFunc("GET /events/{id}", s.handleEvent)
	s.mux.HandleFunc("GET /events/{id}/calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("POST /events/{id}/join", s.handleJoin)
	s.mux.HandleFunc("POST /events/{id}/leave", s.handleLeave)
	s.mux.HandleFunc("POST /events/{id}/comments", s.handleAddComment)
	s.mux.HandleFunc("POST /events/{id}/cancel", s.handleCancel)
	s.mux.HandleFunc("POST /events/{id}/report", s.handleReport)
	s.mux.HandleFunc("POST /comments/{id}/delete", s.handleDeleteComment)

	s.mux.HandleFunc("GET /create", s.handleCreateForm)
	s.mux.HandleFunc("POST /create", s.handleCreateStep)
	s.mux.HandleFunc("GET /events/{id}/edit", s.handleEditForm)
	s.mux.HandleFunc("POST /events/{id}/edit", s.handleEditStep)

	s.mux.HandleFunc("GET /login", s.handleLoginForm)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("GET /register", s.handleRegisterForm)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("GET /profile", s.handleProfileForm)
	s.mux.HandleFunc("POST /profile", s.handleProfile)
	s.mux.HandleFunc("GET /settings", s.handleSettingsForm)
	s.mux.HandleFunc("POST /settings", s.handleSettings)
	s.mux.HandleFunc("POST /location", s.handleLocation)
	s.mux.HandleFunc("GET /users/{id}", s.handleUser)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Sessions: s.store.Len(),
		Drafts:   s.drafts.Len(),
	})
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Drafts   int    `json:"drafts"`
}

// staticFileServer serves the embedded assets under /static/.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static assets not available", http.StatusServiceUnavailable)
		})
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
