package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/SmokeBot/internal/models"
	"github.com/Kerhoff/SmokeBot/internal/service"
)

// Server provides the read-only HTTP API over the trigger log and the
// participation ledger.
type Server struct {
	svc    *service.Service
	logger *logrus.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Mount registers an extra handler, e.g. the Telegram webhook endpoint.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	s.mux.HandleFunc("GET /api/top", s.handleTop)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("GET /api/events/{id}/participants", s.handleParticipants)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, fmt.Errorf("missing id in path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// requireChatID reads the chat_id query parameter.  It writes an error
// response and returns 0 when the parameter is absent or invalid.
func (s *Server) requireChatID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("chat_id")
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "chat_id query parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "chat_id must be an integer")
		return 0, false
	}
	return id, true
}

// queryWindow reads the window query parameter. Unknown or missing values
// fall back to the default window.
func queryWindow(r *http.Request) models.Window {
	w, _ := models.ParseWindow(r.URL.Query().Get("window"))
	return w
}

// queryLimit reads the limit query parameter, using def when it is absent
// or malformed.
func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Statistics
// ---------------------------------------------------------------------------

type windowResponse struct {
	Window models.Window `json:"window"`
	Label  string        `json:"label"`
}

type leaderboardResponse struct {
	windowResponse
	Entries []*models.LeaderboardEntry `json:"entries"`
}

type topResponse struct {
	windowResponse
	Top *models.LeaderboardEntry `json:"top"`
}

type historyResponse struct {
	windowResponse
	Entries []*models.HistoryEntry `json:"entries"`
}

func describe(w models.Window) windowResponse {
	return windowResponse{Window: w, Label: w.Label()}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}

	stats, err := s.svc.Stats(r.Context(), chatID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get stats")
		s.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}
	window := queryWindow(r)

	entries, err := s.svc.Leaderboard(r.Context(), chatID, window, queryLimit(r, service.DefaultLeaderboardLimit))
	if err != nil {
		s.logger.WithError(err).Error("failed to get leaderboard")
		s.respondError(w, http.StatusInternalServerError, "failed to get leaderboard")
		return
	}
	if entries == nil {
		entries = []*models.LeaderboardEntry{}
	}

	s.respondJSON(w, http.StatusOK, leaderboardResponse{windowResponse: describe(window), Entries: entries})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}
	window := queryWindow(r)

	top, err := s.svc.TopSingle(r.Context(), chatID, window)
	if err != nil {
		s.logger.WithError(err).Error("failed to get top participant")
		s.respondError(w, http.StatusInternalServerError, "failed to get top participant")
		return
	}

	s.respondJSON(w, http.StatusOK, topResponse{windowResponse: describe(window), Top: top})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}
	window := queryWindow(r)

	entries, err := s.svc.History(r.Context(), chatID, window, queryLimit(r, service.DefaultHistoryLimit))
	if err != nil {
		s.logger.WithError(err).Error("failed to get history")
		s.respondError(w, http.StatusInternalServerError, "failed to get history")
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}

	s.respondJSON(w, http.StatusOK, historyResponse{windowResponse: describe(window), Entries: entries})
}

// ---------------------------------------------------------------------------
// Participation
// ---------------------------------------------------------------------------

func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}

	participants, err := s.svc.ListParticipants(r.Context(), chatID, eventID)
	if err != nil {
		s.logger.WithError(err).Error("failed to list participants")
		s.respondError(w, http.StatusInternalServerError, "failed to list participants")
		return
	}
	if participants == nil {
		participants = []*models.Participant{}
	}

	s.respondJSON(w, http.StatusOK, participants)
}
