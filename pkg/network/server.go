// Package network provides the HTTP API server, the websocket event
// stream, and the API client used by the command line tools.
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/engine"
	"github.com/ZDSRepositories/dotwar/pkg/entity"
	"github.com/ZDSRepositories/dotwar/pkg/health"
	"github.com/ZDSRepositories/dotwar/pkg/logging"
	"github.com/ZDSRepositories/dotwar/pkg/registry"
	"github.com/ZDSRepositories/dotwar/pkg/storage"
	"github.com/ZDSRepositories/dotwar/pkg/validation"
)

// Server serves the game API over HTTP. All game access goes through the
// registry; the server holds no game state of its own.
type Server struct {
	registry *registry.Registry
	logger   *logging.Logger
	hub      *watchHub
	health   *health.HealthChecker

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
}

// NewServer creates an API server over a registry. The health checker may
// be nil when probes are not wanted.
func NewServer(reg *registry.Registry, logger *logging.Logger, hc *health.HealthChecker) *Server {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Server{
		registry: reg,
		logger:   logger,
		hub:      newWatchHub(logger),
		health:   hc,
	}
}

// Hub returns the websocket fan-out hub. Subscribe it to an event bus to
// stream simulation events to /game/{name}/watch clients.
func (s *Server) Hub() *watchHub { return s.hub }

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /games", s.handleGames)
	mux.HandleFunc("GET /game/{name}", s.handleStatus)
	mux.HandleFunc("GET /game/{name}/status", s.handleStatus)
	mux.HandleFunc("GET /game/{name}/scan", s.handleScan)
	mux.HandleFunc("GET /game/{name}/event_log", s.handleEventLog)
	mux.HandleFunc("GET /game/{name}/summary", s.handleEventLog)
	mux.HandleFunc("GET /game/{name}/agenda", s.handleAgenda)
	mux.HandleFunc("GET /game/{name}/add_order", s.handleAddOrder)
	mux.HandleFunc("POST /game/{name}/delete_order", s.handleDeleteOrder)
	mux.HandleFunc("GET /game/{name}/watch", s.handleWatch)
	if s.health != nil {
		mux.HandleFunc("GET /health", s.health.LivenessHandler)
		mux.HandleFunc("GET /ready", s.health.ReadinessHandler)
	}
	return mux
}

// Start begins listening on addr and serving requests in the background.
func (s *Server) Start(addr string, readTimeout, writeTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	s.mu.Lock()
	s.listener = ln
	s.httpSrv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(context.Background(), "API server stopped", err)
		}
	}()
	return nil
}

// ListenerAddr returns the bound address, or "" before Start.
func (s *Server) ListenerAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server, draining in-flight requests and closing all
// watch connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()

	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// apiError carries an HTTP status alongside the client-facing message.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(format string, args ...any) *apiError {
	return &apiError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// writeOK writes a success body. Extra fields are merged next to "ok".
func writeOK(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// writeError maps an operation error to a status code and `{"ok":false}`
// body. Sentinel errors from the engine and storage pick the status;
// anything unrecognized is an internal error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.status
		msg = apiErr.msg
	case errors.Is(err, storage.ErrGameNotFound),
		errors.Is(err, engine.ErrEntityNotFound),
		errors.Is(err, engine.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrNotControllable),
		errors.Is(err, entity.ErrInvalidOrder):
		status = http.StatusBadRequest
	default:
		s.logger.Error(r.Context(), "request failed", err, "path", r.URL.Path)
		msg = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"ok": false, "msg": msg})
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.registry.ListGames(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if games == nil {
		games = []string{}
	}
	writeOK(w, map[string]any{"games": games})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateName(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}

	status, err := s.registry.GetStatus(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"game": status})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateName(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}

	var filter registry.ScanFilter
	if raw := r.URL.Query().Get("filter"); raw != "" {
		if err := validation.ValidatePayload([]byte(raw)); err != nil {
			s.writeError(w, r, badRequest("invalid JSON provided in 'filter'"))
			return
		}
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			s.writeError(w, r, badRequest("invalid filter: %v", err))
			return
		}
	}

	views, err := s.registry.Scan(r.Context(), name, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if views == nil {
		views = []registry.EntityView{}
	}
	writeOK(w, map[string]any{"entities": views})
}

func (s *Server) handleEventLog(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateName(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}

	q := r.URL.Query()
	var start, end time.Time
	if raw := q.Get("start"); raw != "" {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			s.writeError(w, r, badRequest("if used, start and end must be RFC 3339 datetime strings"))
			return
		}
	}
	if raw := q.Get("end"); raw != "" {
		if end, err = time.Parse(time.RFC3339, raw); err != nil {
			s.writeError(w, r, badRequest("if used, start and end must be RFC 3339 datetime strings"))
			return
		}
	}

	events, err := s.registry.GetEventLog(r.Context(), name, start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"events": events})
}

func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateName(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}

	q := r.URL.Query()
	vessel := q.Get("vessel")
	if vessel == "" {
		s.writeError(w, r, badRequest("please provide a spacecraft name as 'vessel' in query string"))
		return
	}
	authcode := q.Get("authcode")
	if authcode == "" {
		s.writeError(w, r, badRequest("please provide an authorization code as 'authcode' in query string"))
		return
	}

	agenda, err := s.registry.GetAgenda(r.Context(), name, vessel, authcode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if agenda == nil {
		agenda = []entity.Order{}
	}
	writeOK(w, map[string]any{"agenda": agenda})
}

// OrderRequest is the client-supplied order document: a task with
// arguments, executing at an absolute time, after an interval in seconds,
// or immediately when neither is given.
type OrderRequest struct {
	Task     string           `json:"task"`
	Args     entity.OrderArgs `json:"args"`
	Time     *time.Time       `json:"time,omitempty"`
	Interval *float64         `json:"interval,omitempty"`
}

func (s *Server) handleAddOrder(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateName(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}

	q := r.URL.Query()
	vessel := q.Get("vessel")
	if vessel == "" {
		s.writeError(w, r, badRequest("please provide a spacecraft name as 'vessel' in query string"))
		return
	}
	authcode := q.Get("authcode")
	if authcode == "" {
		s.writeError(w, r, badRequest("please provide an authorization code as 'authcode' in query string"))
		return
	}
	raw := q.Get("order")
	if raw == "" {
		s.writeError(w, r, badRequest("please give an order as JSON in query string"))
		return
	}
	if err := validation.ValidatePayload([]byte(raw)); err != nil {
		s.writeError(w, r, badRequest("invalid JSON in order"))
		return
	}

	var req OrderRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		s.writeError(w, r, badRequest("invalid order: %v", err))
		return
	}

	var when registry.OrderTime
	switch {
	case req.Time != nil:
		when.At = *req.Time
	case req.Interval != nil:
		when.In = time.Duration(*req.Interval * float64(time.Second))
	}

	id, err := s.registry.AddOrder(r.Context(), name, vessel, authcode,
		entity.Task(req.Task), req.Args, when)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"vessel": vessel, "added_id": id})
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateName(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}

	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, badRequest("invalid form body: %v", err))
		return
	}
	vessel := r.PostFormValue("vessel")
	authcode := r.PostFormValue("authcode")
	rawID := r.PostFormValue("order_id")
	if vessel == "" || authcode == "" || rawID == "" {
		s.writeError(w, r, badRequest("vessel, order_id, and authcode are required"))
		return
	}
	orderID, err := strconv.Atoi(rawID)
	if err != nil {
		s.writeError(w, r, badRequest("order_id must be an integer"))
		return
	}

	removed, pending, err := s.registry.DeleteOrder(r.Context(), name, vessel, authcode, orderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"removed_id": removed, "pending_count": pending})
}
