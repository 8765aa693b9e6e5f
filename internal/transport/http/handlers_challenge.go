package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tripgate/internal/challenge"
	"tripgate/internal/domain"
	"tripgate/internal/entry"
	"tripgate/internal/platform/middleware"
)

// ChallengeHandler serves the session the anti-automation widget talks to.
// The client creates a session, renders the widget, calls submit with the
// session ID, and the widget posts the solved token back here while the
// server polls.
type ChallengeHandler struct {
	logger       *slog.Logger
	sessions     challenge.SessionStore
	entries      *entry.Service
	jwtValidator middleware.JWTValidator
}

func NewChallengeHandler(
	sessions challenge.SessionStore,
	entries *entry.Service,
	jwtValidator middleware.JWTValidator,
	logger *slog.Logger,
) *ChallengeHandler {
	return &ChallengeHandler{
		logger:       logger,
		sessions:     sessions,
		entries:      entries,
		jwtValidator: jwtValidator,
	}
}

func (h *ChallengeHandler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		g.Use(middleware.ContentTypeJSON)
		g.Use(middleware.Timeout(10 * time.Second))
		g.Post("/v1/challenge/sessions", h.handleCreateSession)
		g.Post("/v1/challenge/sessions/{sessionID}/token", h.handlePutToken)
	})
}

type createSessionRequest struct {
	EntryID string `json:"entry_id"`
}

type sessionDTO struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *ChallengeHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	entryID, err := domain.ParseEntryID(req.EntryID)
	if err != nil {
		writeBadRequest(w, "invalid entry id")
		return
	}
	// The session is scoped to an entry the caller owns.
	if _, err := h.entries.Get(ctx, middleware.GetUserID(ctx), entryID); err != nil {
		writeError(w, err)
		return
	}

	session := challenge.NewSession(entryID, time.Now().UTC())
	if err := h.sessions.Create(ctx, session); err != nil {
		h.logger.ErrorContext(ctx, "challenge session create failed",
			"request_id", middleware.GetRequestID(ctx), "error", err.Error())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionDTO{ID: session.ID, ExpiresAt: session.ExpiresAt})
}

type putTokenRequest struct {
	Token string `json:"token"`
}

func (h *ChallengeHandler) handlePutToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	var req putTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeBadRequest(w, "token is required")
		return
	}
	if err := h.sessions.PutToken(ctx, sessionID, req.Token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
