// Package web serves the HTTP API, the WebSocket fan-out endpoint and the
// embedded ticker UI.
package web

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"calticker/internal/config"
	appLog "calticker/internal/log"
	"calticker/internal/model"
	"calticker/internal/pubsub"
	"calticker/internal/refresh"
	"calticker/internal/theme"
)

// embeddedStatic contains the ticker UI and the token documentation page.
//
//go:embed all:static
var embeddedStatic embed.FS

// Server exposes the snapshot over HTTP and WebSocket.
type Server struct {
	cfg    *config.Config
	cell   *refresh.Cell
	broker *pubsub.Broker[model.Snapshot]
	// trigger requests a refresh from the loop (POST /refresh and the
	// client "refresh" message funnel through it).
	trigger func()

	previewPath string

	mux     *http.ServeMux
	clients atomic.Int64
}

// NewServer constructs the server. previewPath is where the capture step
// writes the diagnostic screenshot served by /preview.png.
func NewServer(cfg *config.Config, cell *refresh.Cell, broker *pubsub.Broker[model.Snapshot], trigger func(), previewPath string) *Server {
	s := &Server{
		cfg:         cfg,
		cell:        cell,
		broker:      broker,
		trigger:     trigger,
		previewPath: previewPath,
		mux:         http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/events", s.handleEvents)
	s.mux.HandleFunc("/refresh", s.handleRefresh)
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/api/tokens", s.handleTokens)
	s.mux.HandleFunc("/theme.css", s.handleThemeCSS)
	s.mux.HandleFunc("/preview.png", s.handlePreview)

	// Everything else is the embedded ticker UI.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// statusResponse is the JSON shape for /api/status.
type statusResponse struct {
	Status           string     `json:"status"`
	EventsCount      int        `json:"events_count"`
	LastRefresh      *time.Time `json:"last_refresh"`
	ConnectedClients int        `json:"connected_clients"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.cell.Current()
	resp := statusResponse{
		Status:           "ok",
		EventsCount:      len(snap.Events),
		ConnectedClients: int(s.clients.Load()),
	}
	if !snap.RefreshedAt.IsZero() {
		t := snap.RefreshedAt
		resp.LastRefresh = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// eventsResponse is the JSON shape for the /events diagnostics endpoint.
type eventsResponse struct {
	Events      []model.Event `json:"events"`
	RefreshedAt *time.Time    `json:"refreshed_at"`
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	snap := s.cell.Current()
	resp := eventsResponse{Events: snap.Events}
	if resp.Events == nil {
		resp.Events = []model.Event{}
	}
	if !snap.RefreshedAt.IsZero() {
		t := snap.RefreshedAt
		resp.RefreshedAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh asks the loop for an out-of-schedule refresh. The refresh
// itself runs on the loop goroutine; connected clients receive the result
// over their sockets.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	s.trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh requested"})
}

func (s *Server) handleTokens(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, theme.Tokens())
}

func (s *Server) handleThemeCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(theme.CSS()))
}

// handlePreview serves the last captured screenshot. ServeFile returns 404
// when no capture has run yet.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.previewPath)
}

func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "ticker UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// API paths never fall through to the UI.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
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
