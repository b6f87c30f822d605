package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"quizbrawl/internal/model"
	"quizbrawl/internal/service"
	"quizbrawl/internal/transport/rest/middleware"
)

// SessionHandler handles tournament session endpoints
type SessionHandler struct {
	sessionSvc    *service.SessionService
	tournamentSvc *service.TournamentService
	authSvc       *service.AuthService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, tournamentSvc *service.TournamentService, authSvc *service.AuthService) *SessionHandler {
	return &SessionHandler{
		sessionSvc:    sessionSvc,
		tournamentSvc: tournamentSvc,
		authSvc:       authSvc,
	}
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	Name string `json:"name"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	if hostID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.CreateSession(r.Context(), hostID, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session, err := h.sessionSvc.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Start handles POST /v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	hostID := middleware.GetHostID(r.Context())

	if err := h.sessionSvc.StartSession(r.Context(), id, hostID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.SessionActive)})
}

// Join handles POST /v1/sessions/{id}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req model.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "displayName is required")
		return
	}

	player, err := h.tournamentSvc.JoinSession(r.Context(), id, req.DisplayName, req.CharacterID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.authSvc.GeneratePlayerToken(id, player.PlayerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, &model.JoinResponse{
		PlayerID: player.PlayerID,
		Token:    token,
		Player:   player,
	})
}

// QuizResultRequest is the request body for reporting a player's quiz score
type QuizResultRequest struct {
	CorrectAnswers int `json:"correctAnswers"`
}

// QuizResult handles POST /v1/sessions/{id}/players/{playerId}/quiz-result
func (h *SessionHandler) QuizResult(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	playerID := vars["playerId"]

	var req QuizResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	player, err := h.tournamentSvc.RecordQuizResult(r.Context(), id, playerID, req.CorrectAnswers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, player)
}

// Results handles GET /v1/sessions/{id}/results
func (h *SessionHandler) Results(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	results, err := h.tournamentSvc.MatchHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// PlayerResults handles GET /v1/sessions/{id}/players/{playerId}/results
func (h *SessionHandler) PlayerResults(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	results, err := h.tournamentSvc.PlayerMatchHistory(r.Context(), vars["id"], vars["playerId"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// Leaderboard handles GET /v1/sessions/{id}/leaderboard
func (h *SessionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	topStr := r.URL.Query().Get("top")
	top := 20
	if topStr != "" {
		if n, err := strconv.Atoi(topStr); err == nil && n > 0 {
			top = n
		}
	}

	entries, err := h.tournamentSvc.Leaderboard(r.Context(), id, top)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}
