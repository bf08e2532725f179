package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/gamepoints/internal/api/middleware"
	"github.com/mcoot/gamepoints/internal/api/request"
	"github.com/mcoot/gamepoints/internal/api/response"
	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/services/auth"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	authService *auth.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(authService *auth.Service) *SessionHandler {
	return &SessionHandler{
		authService: authService,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Identity == "" {
		WriteError(w, NewInvalidRequestError("identity is required"))
		return
	}
	if req.Secret == "" {
		WriteError(w, NewInvalidRequestError("secret is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), model.Identity(req.Identity), req.Secret)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionFromAuth(session))
}

// Delete handles DELETE /api/v1/sessions/current
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	response.NoContent(w)
}
