package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/GriffinCanCode/focuswatch/internal/orchestrator"
	"github.com/GriffinCanCode/focuswatch/internal/orchestrator/history"
	"github.com/GriffinCanCode/focuswatch/internal/orchestrator/sidecar"
	"github.com/GriffinCanCode/focuswatch/internal/trace"
)

// Source is the read side of the capture loop.
type Source interface {
	Status() orchestrator.Status
	Recent(limit int) []history.Entry
	CycleEvents() <-chan history.Entry
}

// CycleMessage is pushed to every WebSocket client after each cycle.
type CycleMessage struct {
	Type  string        `json:"type"`
	Cycle history.Entry `json:"cycle"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	src   Source
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

// New creates a new server and starts forwarding cycle events to clients.
func New(src Source) *Server {
	s := &Server{
		src:   src,
		conns: make(map[*websocket.Conn]struct{}),
	}

	go s.broadcastCycles()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Apply middleware: CORS -> trace
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{trace.TraceIDKey},
	}))
	r.Use(trace.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/history/{cycle}/sidecar", s.handleSidecar)
	r.Get("/ws", s.handleWebSocket)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.src.Status())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		trace.Logger(r.Context()).Debug("bad history limit", "limit", r.URL.Query().Get("limit"))
		http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: s.src.Recent(limit)})
}

// handleSidecar serves the sidecar record of a cycle still held in history.
// Paths come from history only, never from the request.
func (s *Server) handleSidecar(w http.ResponseWriter, r *http.Request) {
	cycle, err := strconv.Atoi(chi.URLParam(r, "cycle"))
	if err != nil || cycle <= 0 {
		http.Error(w, "cycle must be a positive integer", http.StatusBadRequest)
		return
	}

	for _, e := range s.src.Recent(0) {
		if e.Cycle != cycle {
			continue
		}
		rec, err := sidecar.Read(e.Path)
		if err != nil {
			trace.Logger(r.Context()).Debug("sidecar unavailable", "cycle", cycle, "path", e.Path, "error", err)
			http.Error(w, "sidecar no longer on disk", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}
	http.Error(w, "unknown cycle", http.StatusNotFound)
}

// parseLimit reads the history limit, clamping it to MaxHistoryLimit.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, strconv.ErrSyntax
	}
	return min(n, MaxHistoryLimit), nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	log := trace.Logger(r.Context())
	log.Info("websocket connected", "remote", r.RemoteAddr, "clients", s.ClientCount())

	// Clients only listen; reading keeps control frames flowing and
	// notices when the peer goes away.
	for {
		var msg json.RawMessage
		if err := wsjson.Read(r.Context(), conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *Server) broadcastCycles() {
	for evt := range s.src.CycleEvents() {
		msg := CycleMessage{Type: "cycle", Cycle: evt}

		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn) {
				ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
				defer cancel()
				_ = wsjson.Write(ctx, c, msg)
			}(conn)
		}
		s.mu.RUnlock()
	}
}
