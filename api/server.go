package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/blockyard/game/config"
	"github.com/wricardo/blockyard/game/engine"
	"github.com/wricardo/blockyard/game/service"
	"github.com/wricardo/blockyard/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	metrics http.Handler
	limiter *ipLimiter

	trustProxy bool
}

// Option configures optional parts of the server
type Option func(*Server)

// WithMetrics serves h on /metrics
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithRateLimit allows each client IP rps requests per second with the given
// burst on /api routes
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = newIPLimiter(rps, burst)
		}
	}
}

// WithTrustedProxy makes the rate limiter key clients by the X-Forwarded-For
// hop added by a reverse proxy. Only use it when every request passes
// through such a proxy.
func WithTrustedProxy() Option {
	return func(s *Server) { s.trustProxy = true }
}

// NewServer creates a new API server. The hub may be nil when live viewers
// are not wanted.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter != nil {
		s.limiter.trustProxy = s.trustProxy
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	if s.limiter != nil {
		api.Use(s.limiter.middleware)
	}

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// Multi-session overview (must be before {id} pattern)
	api.HandleFunc("/sessions/unified", s.handleUnifiedSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// World operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetWorldState).Methods("GET")
	api.HandleFunc("/sessions/{id}/actions", s.handleActions).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/cells/{x:-?[0-9]+}/{y:-?[0-9]+}", s.handleDescribeCell).Methods("GET")
	api.HandleFunc("/sessions/{id}/overlaps", s.handleOverlaps).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods("GET")
	}

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCommand), errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Alias of config_id
	}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	configID := req.ConfigID
	if configID == "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total := len(sessions)

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// World Handlers

func (s *Server) handleGetWorldState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetWorldState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// actionRequest is either a single command or a batch under "commands"
type actionRequest struct {
	engine.Command
	Commands      []engine.Command `json:"commands,omitempty"`
	StopOnFailure *bool            `json:"stop_on_failure,omitempty"`
	Reset         bool             `json:"reset,omitempty"`
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Action == "" && len(req.Commands) == 0 {
		respondError(w, http.StatusBadRequest, "Either action or commands is required")
		return
	}

	if req.Reset {
		if _, err := s.service.ResetWorld(r.Context(), sessionID); err != nil {
			respondServiceError(w, err)
			return
		}
	}

	if len(req.Commands) > 0 {
		stop := true
		if req.StopOnFailure != nil {
			stop = *req.StopOnFailure
		}

		result, err := s.service.ExecuteBatch(r.Context(), sessionID, req.Commands, stop)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
		return
	}

	result, err := s.service.Execute(r.Context(), sessionID, req.Command)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Rule failures are still a successful request
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.ResetWorld(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "World reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:   1,
		Limit:  20,
		Order:  "desc",
		Filter: "all",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	switch filter := query.Get("filter"); filter {
	case "", "all":
	case "success", "failed":
		opts.Filter = filter
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Unknown filter %q", filter))
		return
	}

	history, err := s.service.GetHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleDescribeCell(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	// The route pattern guarantees integers
	x, _ := strconv.Atoi(vars["x"])
	y, _ := strconv.Atoi(vars["y"])

	cell, err := s.service.DescribeCell(r.Context(), vars["id"], x, y)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cell)
}

func (s *Server) handleOverlaps(w http.ResponseWriter, r *http.Request) {
	overlaps, err := s.service.GetOverlaps(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if overlaps == nil {
		overlaps = []engine.Overlap{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(overlaps),
		"overlaps": overlaps,
	})
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.LoadConfig(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	worldConfig, err := engine.ParseWorldConfig("request.json", body)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid config: %v", err))
		return
	}

	if worldConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	if err := s.service.SaveConfig(r.Context(), worldConfig.Name, worldConfig); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": worldConfig.Name,
	})
}

// Unified Sessions Handler

// unifiedSession is the per-session summary shown in the overview
type unifiedSession struct {
	SessionID    string             `json:"session_id"`
	ConfigName   string             `json:"config_name"`
	Wood         int                `json:"wood"`
	Trees        int                `json:"trees"`
	Machines     int                `json:"machines"`
	Operations   int                `json:"operations"`
	WorldState   *engine.WorldState `json:"world_state"`
	CreatedAt    time.Time          `json:"created_at"`
	LastAccessed time.Time          `json:"last_accessed"`
}

func (s *Server) handleUnifiedSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var sessions []*service.SessionInfo

	if sessionIDs := query.Get("sessionIds"); sessionIDs != "" {
		for _, id := range strings.Split(sessionIDs, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if session, err := s.service.GetSession(r.Context(), id); err == nil {
				sessions = append(sessions, session)
			}
		}
	} else {
		all, err := s.service.ListSessions(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		configName := query.Get("configName")
		for _, session := range all {
			if configName == "" || session.ConfigName == configName {
				sessions = append(sessions, session)
			}
		}
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })

	summaries := make([]unifiedSession, 0, len(sessions))
	totalWood := 0
	for _, session := range sessions {
		summary := unifiedSession{
			SessionID:    session.ID,
			ConfigName:   session.ConfigName,
			WorldState:   session.WorldState,
			CreatedAt:    session.CreatedAt,
			LastAccessed: session.LastAccessedAt,
		}
		if ws := session.WorldState; ws != nil {
			summary.Wood = ws.Wood
			summary.Trees = engine.CountBlocks(ws.Grid)[engine.Tree]
			summary.Machines = len(ws.Machines)
			summary.Operations = ws.OperationCount
			totalWood += ws.Wood
		}
		summaries = append(summaries, summary)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(summaries),
		"total_wood": totalWood,
		"sessions":   summaries,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusNotFound)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
