package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"scalptrainer/internal/app"
	"scalptrainer/internal/ports"
)

// Server is the collaborator surface for the rendering client: it
// serves read-only snapshots, accepts input actions, pushes frames
// over websockets, and exposes the Prometheus metrics endpoint. The
// engine itself stays transport-agnostic.
type Server struct {
	logger   ports.Logger
	engine   *app.Engine
	hub      *hub
	upgrader websocket.Upgrader
	srv      *http.Server
	router   *mux.Router
}

// Config holds configuration for the feed server.
type Config struct {
	Addr           string
	Logger         ports.Logger
	Engine         *app.Engine
	MetricsHandler http.Handler // Usually promhttp; nil disables /metrics
}

// NewServer builds the feed server and hooks it into the engine's
// per-tick broadcast.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Logger == nil || cfg.Engine == nil {
		return nil, fmt.Errorf("%w: logger and engine are required for the feed server", ports.ErrConfigurationError)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{
		logger: cfg.Logger,
		engine: cfg.Engine,
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/action", s.handleAction).Methods(http.MethodPost)
	router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	if cfg.MetricsHandler != nil {
		router.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}
	s.router = router
	s.srv = &http.Server{Addr: cfg.Addr, Handler: router}

	cfg.Engine.OnTick(s.pushFrame)
	return s, nil
}

// Handler exposes the route tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "Feed server listening", map[string]interface{}{"addr": s.srv.Addr})
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("feed server failed: %w", err)
	}
	return nil
}

// Shutdown drains and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toSnapshotDTO(s.engine.Snapshot())); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode snapshot")
	}
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, actionResponse{Status: "error", Error: "malformed action request"})
		return
	}

	err := s.engine.Apply(r.Context(), app.Action(req.Action))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, actionResponse{Status: "ok"})
	case errors.Is(err, ports.ErrUnknownAction):
		writeJSON(w, http.StatusBadRequest, actionResponse{Status: "error", Error: err.Error()})
	case errors.Is(err, ports.ErrSessionActive),
		errors.Is(err, ports.ErrNoSession),
		errors.Is(err, ports.ErrInvalidTransition),
		errors.Is(err, ports.ErrNoBreakout):
		// Rejected transitions are no-ops, not failures of the server.
		writeJSON(w, http.StatusConflict, actionResponse{Status: "rejected", Error: err.Error()})
	default:
		s.logger.Error(r.Context(), err, "Action failed", map[string]interface{}{"action": req.Action})
		writeJSON(w, http.StatusInternalServerError, actionResponse{Status: "error", Error: "internal error"})
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	ch := s.hub.register(conn)
	s.logger.Debug(r.Context(), "Feed client connected", map[string]interface{}{"clients": s.hub.count()})

	// Push the current frame immediately so the client renders without
	// waiting for the next tick.
	if frame, err := json.Marshal(toSnapshotDTO(s.engine.Snapshot())); err == nil {
		select {
		case ch <- frame:
		default:
		}
	}

	go func() {
		for msg := range ch {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
		conn.Close()
	}()

	go func() {
		// Reader loop exists only to notice the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		s.hub.unregister(conn)
		s.logger.Debug(context.Background(), "Feed client disconnected", map[string]interface{}{"clients": s.hub.count()})
	}()
}

func (s *Server) pushFrame(snap app.Snapshot) {
	frame, err := json.Marshal(toSnapshotDTO(snap))
	if err != nil {
		s.logger.Error(context.Background(), err, "Failed to marshal snapshot frame")
		return
	}
	s.hub.broadcast(frame)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
