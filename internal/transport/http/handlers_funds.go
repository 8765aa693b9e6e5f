package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tripgate/internal/domain"
	"tripgate/internal/funds"
	"tripgate/internal/platform/middleware"
)

// FundsHandler serves proof-of-funds CRUD.
type FundsHandler struct {
	logger       *slog.Logger
	funds        *funds.Service
	jwtValidator middleware.JWTValidator
}

func NewFundsHandler(service *funds.Service, jwtValidator middleware.JWTValidator, logger *slog.Logger) *FundsHandler {
	return &FundsHandler{logger: logger, funds: service, jwtValidator: jwtValidator}
}

func (h *FundsHandler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		g.Use(middleware.ContentTypeJSON)
		g.Use(middleware.Timeout(10 * time.Second))
		g.Route("/v1/funds", func(fr chi.Router) {
			fr.Post("/", h.handleCreate)
			fr.Get("/", h.handleList)
			fr.Get("/{fundID}", h.handleGet)
			fr.Put("/{fundID}", h.handleUpdate)
			fr.Delete("/{fundID}", h.handleDelete)
		})
	})
}

func (h *FundsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in funds.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	item, err := h.funds.Create(ctx, middleware.GetUserID(ctx), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fundResponse(item))
}

func (h *FundsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.funds.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]fundDTO, 0, len(items))
	for _, item := range items {
		out = append(out, fundResponse(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *FundsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fundID, ok := parseFundID(w, r)
	if !ok {
		return
	}
	item, err := h.funds.Get(ctx, middleware.GetUserID(ctx), fundID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fundResponse(item))
}

func (h *FundsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fundID, ok := parseFundID(w, r)
	if !ok {
		return
	}
	var in funds.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	item, err := h.funds.Update(ctx, middleware.GetUserID(ctx), fundID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fundResponse(item))
}

func (h *FundsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fundID, ok := parseFundID(w, r)
	if !ok {
		return
	}
	if err := h.funds.Delete(ctx, middleware.GetUserID(ctx), fundID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseFundID(w http.ResponseWriter, r *http.Request) (domain.FundItemID, bool) {
	raw, err := uuid.Parse(chi.URLParam(r, "fundID"))
	if err != nil {
		writeBadRequest(w, "invalid fund item id")
		return domain.FundItemID{}, false
	}
	return domain.FundItemID(raw), true
}
