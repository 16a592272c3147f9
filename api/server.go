package api

import (
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
	"github.com/wricardo/mcp-training/slidingpuzzle/game/config"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/leaderboard"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
	"github.com/wricardo/mcp-training/slidingpuzzle/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service   service.GameService
	hub       *websocket.Hub
	router    *mux.Router
	staticDir string
	imagesDir string
}

// Option configures a Server
type Option func(*Server)

// WithStaticDir serves the browser client from dir at "/"
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithImagesDir serves puzzle pictures from dir at "/images/"
func WithImagesDir(dir string) Option {
	return func(s *Server) { s.imagesDir = dir }
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id}/tiles", s.handleGetTiles).Methods("GET")
	api.HandleFunc("/sessions/{id}/start", s.handleStart).Methods("POST")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/grid-size", s.handleGridSize).Methods("PUT")
	api.HandleFunc("/sessions/{id}/puzzle", s.handleSelectPuzzle).Methods("PUT")
	api.HandleFunc("/sessions/{id}/settings", s.handleSettings).Methods("PUT")
	api.HandleFunc("/sessions/{id}/score", s.handleSubmitScore).Methods("POST")

	// Leaderboard
	api.HandleFunc("/leaderboard", s.handleGetLeaderboard).Methods("GET")
	api.HandleFunc("/leaderboard", s.handleClearLeaderboard).Methods("DELETE")

	// Puzzle catalogue
	api.HandleFunc("/puzzles", s.handleListPuzzles).Methods("GET")
	api.HandleFunc("/puzzles", s.handleCreatePuzzle).Methods("POST")
	api.HandleFunc("/puzzles/{id}", s.handleGetPuzzle).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	if s.imagesDir != "" {
		s.router.PathPrefix("/images/").Handler(http.StripPrefix("/images/", http.FileServer(http.Dir(s.imagesDir))))
	}
	if s.staticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
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

// respondServiceError maps domain errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrPuzzleNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidConfiguration),
		errors.Is(err, engine.ErrInvalidDirection),
		errors.Is(err, controller.ErrNameRequired),
		errors.Is(err, leaderboard.ErrInvalidEntry),
		errors.Is(err, config.ErrInvalidPuzzle):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrNotWon),
		errors.Is(err, controller.ErrScoreAlreadyRecorded):
		return http.StatusConflict
	case errors.Is(err, service.ErrLeaderboardUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeBody rejects malformed JSON; an empty body leaves dst untouched
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("Invalid request body: %v", err)
	}
	return nil
}

func (s *Server) broadcast(sessionID string, snapshot *controller.Snapshot) {
	if s.hub != nil && snapshot != nil {
		s.hub.BroadcastToSession(sessionID, snapshot)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PuzzleID    string `json:"puzzle_id,omitempty"`
		GridSize    int    `json:"grid_size,omitempty"`
		ShowNumbers *bool  `json:"show_numbers,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.service.CreateSession(r.Context(), service.CreateSessionOptions{
		PuzzleID:    req.PuzzleID,
		GridSize:    req.GridSize,
		ShowNumbers: req.ShowNumbers,
	})
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

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
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

	total := len(sessions)
	limit := total
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			limit = l
		}
	}
	sessions = sessions[:limit]

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

// Game Operation Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.service.GetSnapshot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleGetTiles(w http.ResponseWriter, r *http.Request) {
	canvas := 0
	if c := r.URL.Query().Get("canvas"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "canvas must be a positive integer")
			return
		}
		canvas = n
	}

	tiles, err := s.service.GetTiles(r.Context(), mux.Vars(r)["id"], canvas)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tiles)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	snapshot, err := s.service.StartGame(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, snapshot)
	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Position  *int   `json:"position,omitempty"`
		Direction string `json:"direction,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		result *service.MoveResult
		err    error
	)
	switch {
	case req.Position != nil && req.Direction != "":
		respondError(w, http.StatusBadRequest, "Send either position or direction, not both")
		return
	case req.Position != nil:
		result, err = s.service.Move(r.Context(), sessionID, *req.Position)
	case req.Direction != "":
		result, err = s.service.KeyMove(r.Context(), sessionID, req.Direction)
	default:
		respondError(w, http.StatusBadRequest, "position or direction is required")
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.Applied {
		s.broadcast(sessionID, result.Snapshot)
	}
	if result.Won && s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventWin, result.Snapshot)
	}

	// Compact server log for observability
	status := "IGNORED"
	if result.Won {
		status = "WON"
	} else if result.Applied {
		status = "OK"
	}
	fmt.Printf("[MOVE] session=%s index=%d moves=%d time=%s status=%s\n",
		sessionID, result.Index, result.Snapshot.MoveCount, result.Snapshot.ElapsedDisplay, status)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGridSize(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Size int `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snapshot, err := s.service.ChangeGridSize(r.Context(), sessionID, req.Size)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, snapshot)
	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleSelectPuzzle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		PuzzleID string `json:"puzzle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PuzzleID == "" {
		respondError(w, http.StatusBadRequest, "puzzle_id is required")
		return
	}

	snapshot, err := s.service.SelectPuzzle(r.Context(), sessionID, req.PuzzleID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, snapshot)
	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		ShowNumbers *bool `json:"show_numbers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ShowNumbers == nil {
		respondError(w, http.StatusBadRequest, "show_numbers is required")
		return
	}

	snapshot, err := s.service.SetShowNumbers(r.Context(), sessionID, *req.ShowNumbers)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, snapshot)
	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.SubmitScore(r.Context(), sessionID, req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventScore, result)
	}
	respondJSON(w, http.StatusCreated, result)
}

// Leaderboard Handlers

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.GetLeaderboard(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, leaderboard.FormatEntries(entries, time.Now()))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

func (s *Server) handleClearLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearLeaderboard(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Leaderboard cleared",
	})
}

// Puzzle Handlers

func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.service.ListPuzzles(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, puzzles)
}

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	puzzleID := strings.TrimSuffix(mux.Vars(r)["id"], ".json")

	puzzle, err := s.service.LoadPuzzle(r.Context(), puzzleID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, puzzle)
}

func (s *Server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	var puzzle engine.PuzzleConfig
	if err := json.NewDecoder(r.Body).Decode(&puzzle); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if puzzle.ID == "" {
		respondError(w, http.StatusBadRequest, "Puzzle id is required")
		return
	}

	if err := s.service.SavePuzzle(r.Context(), &puzzle); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Puzzle saved successfully",
		"puzzle_id": puzzle.ID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket updates are disabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	// Verify session exists
	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, session.ID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
