package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promofeed/internal/core/port"
)

// Handler contains dependencies and routes. It is the inbound HTTP
// adapter for both the ingestion boundary (scraper workers) and the
// administrative boundary (the admin UI). Routes are registered on a
// chi.Router for convenient method handling.
type Handler struct {
	ingest port.IngestUseCase
	admin  port.AdminUseCase
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(ingest port.IngestUseCase, admin port.AdminUseCase, logger *slog.Logger) *Handler {
	h := &Handler{ingest: ingest, admin: admin, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/campaigns/ingest", h.handleIngest)
		r.Get("/campaigns", h.handleListCampaigns)
		r.Post("/campaigns/expire", h.handleExpire)
		r.Get("/campaigns/{id}/audit", h.handleAudit)
		r.Put("/campaigns/{id}/override", h.handleSetOverride)
		r.Delete("/campaigns/{id}/override", h.handleClearOverride)

		r.Get("/sources", h.handleListSources)
		r.Post("/sources", h.handleUpsertSource)
		r.Post("/sources/reload", h.handleReloadSources)

		r.Get("/suggestions", h.handleListSuggestions)
		r.Post("/suggestions", h.handleCreateSuggestion)
		r.Post("/suggestions/{id}/apply", h.handleApplySuggestion)
		r.Post("/suggestions/{id}/reject", h.handleRejectSuggestion)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Validation
// failures and quality rejections carry distinct categories so scraper
// operators can tune their heuristics from the responses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var validation *port.ValidationError
	var rejected *port.QualityRejectedError
	switch {
	case errors.As(err, &validation):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation",
			"field":  validation.Field,
			"reason": validation.Reason,
		})
	case errors.As(err, &rejected):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":     "quality_rejected",
			"score":     rejected.Score,
			"threshold": rejected.Threshold,
		})
	case errors.Is(err, port.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]any{"error": "not_found"})
	case errors.Is(err, port.ErrInvalidState):
		h.writeJSON(w, http.StatusConflict, map[string]any{"error": "invalid_state", "detail": err.Error()})
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal"})
	}
}
