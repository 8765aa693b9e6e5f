package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tripgate/internal/arrivalcard"
	"tripgate/internal/audit"
	"tripgate/internal/domain"
	"tripgate/internal/entry"
	"tripgate/internal/platform/middleware"
	"tripgate/internal/submission"
)

// submitTimeout covers a full challenge poll budget plus the remote call.
const submitTimeout = 90 * time.Second

// Submissions hit the destination gateway and burn challenge sessions, so
// they get a much tighter per-user budget than reads.
const (
	submitRateLimit  = 10
	submitRateWindow = time.Minute
)

// EntryHandler serves entry lifecycle and submission endpoints.
type EntryHandler struct {
	logger       *slog.Logger
	entries      *entry.Service
	submitter    *submission.Service
	cards        arrivalcard.Store
	auditLog     audit.Store
	jwtValidator middleware.JWTValidator
}

func NewEntryHandler(
	entries *entry.Service,
	submitter *submission.Service,
	cards arrivalcard.Store,
	auditLog audit.Store,
	jwtValidator middleware.JWTValidator,
	logger *slog.Logger,
) *EntryHandler {
	return &EntryHandler{
		logger:       logger,
		entries:      entries,
		submitter:    submitter,
		cards:        cards,
		auditLog:     auditLog,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the entry routes. All of them require auth.
func (h *EntryHandler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		g.Use(middleware.ContentTypeJSON)

		g.With(middleware.Timeout(30*time.Second)).Route("/v1/entries", func(er chi.Router) {
			er.Post("/", h.handleCreate)
			er.Get("/", h.handleList)
			er.Get("/{entryID}", h.handleGet)
			er.Post("/{entryID}/refresh", h.handleRefresh)
			er.Get("/{entryID}/cards", h.handleListCards)
			er.Get("/{entryID}/audit", h.handleAuditTrail)
		})
		g.With(
			middleware.Timeout(submitTimeout),
			middleware.RateLimit(middleware.NewRateLimiter(submitRateLimit, submitRateWindow)),
		).Post("/v1/entries/{entryID}/submit", h.handleSubmit)
	})
}

type createEntryRequest struct {
	DestinationID string `json:"destination_id"`
}

func (h *EntryHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DestinationID == "" {
		writeBadRequest(w, "destination_id is required")
		return
	}

	record, err := h.entries.Create(ctx, userID, domain.DestinationID(req.DestinationID))
	if err != nil {
		h.logger.ErrorContext(ctx, "entry create failed",
			"request_id", middleware.GetRequestID(ctx), "error", err.Error())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entryResponse(record))
}

func (h *EntryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.entries.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]entryDTO, 0, len(records))
	for _, record := range records {
		out = append(out, entryResponse(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (h *EntryHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entryID, err := domain.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		writeBadRequest(w, "invalid entry id")
		return
	}
	record, err := h.entries.Get(ctx, middleware.GetUserID(ctx), entryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryResponse(record))
}

func (h *EntryHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entryID, err := domain.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		writeBadRequest(w, "invalid entry id")
		return
	}
	record, err := h.entries.RefreshCompletion(ctx, middleware.GetUserID(ctx), entryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryResponse(record))
}

type submitRequest struct {
	Force              bool   `json:"force"`
	ChallengeSessionID string `json:"challenge_session_id"`
	Method             string `json:"method"`
}

func (h *EntryHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	entryID, err := domain.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		writeBadRequest(w, "invalid entry id")
		return
	}

	var req submitRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
	}

	card, err := h.submitter.Submit(ctx, userID, entryID, submission.Options{
		Force:     req.Force,
		SessionID: req.ChallengeSessionID,
		Method:    domain.SubmissionMethod(req.Method),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submission failed",
			"request_id", middleware.GetRequestID(ctx),
			"entry_id", entryID.String(),
			"error", err.Error())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cardResponse(card))
}

func (h *EntryHandler) handleListCards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entryID, err := domain.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		writeBadRequest(w, "invalid entry id")
		return
	}
	// Ownership check through the entry service.
	if _, err := h.entries.Get(ctx, middleware.GetUserID(ctx), entryID); err != nil {
		writeError(w, err)
		return
	}
	cards, err := h.cards.ListByEntry(ctx, entryID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]cardDTO, 0, len(cards))
	for _, card := range cards {
		out = append(out, cardResponse(card))
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": out})
}

func (h *EntryHandler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entryID, err := domain.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		writeBadRequest(w, "invalid entry id")
		return
	}
	if _, err := h.entries.Get(ctx, middleware.GetUserID(ctx), entryID); err != nil {
		writeError(w, err)
		return
	}
	events, err := h.auditLog.ListByEntry(ctx, entryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
