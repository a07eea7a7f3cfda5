package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"promofeed/internal/core/domain"
)

type suggestionDTO struct {
	ID           string     `json:"id"`
	CampaignID   int64      `json:"campaign_id"`
	ProposedTier string     `json:"proposed_tier"`
	Reason       string     `json:"reason,omitempty"`
	ProposedBy   string     `json:"proposed_by,omitempty"`
	State        string     `json:"state"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

func toSuggestionDTO(s domain.AdminSuggestion) suggestionDTO {
	dto := suggestionDTO{
		ID:           s.ID,
		CampaignID:   s.CampaignID,
		ProposedTier: string(s.ProposedTier),
		Reason:       s.Reason,
		ProposedBy:   s.ProposedBy,
		State:        s.State,
		CreatedAt:    s.CreatedAt,
	}
	if !s.ResolvedAt.IsZero() {
		t := s.ResolvedAt
		dto.ResolvedAt = &t
	}
	return dto
}

// handleListSuggestions lists suggestions, optionally filtered by the
// `state` query parameter.
func (h *Handler) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.admin.ListSuggestions(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]suggestionDTO, len(suggestions))
	for i, s := range suggestions {
		out[i] = toSuggestionDTO(s)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

// handleCreateSuggestion records a pending reclassification proposal.
func (h *Handler) handleCreateSuggestion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CampaignID   int64  `json:"campaign_id"`
		ProposedTier string `json:"proposed_tier"`
		Reason       string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation", "reason": "invalid JSON"})
		return
	}
	s, err := h.admin.CreateSuggestion(r.Context(), body.CampaignID, domain.FeedTier(body.ProposedTier), body.Reason, actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toSuggestionDTO(s))
}

// handleApplySuggestion resolves a suggestion through the override
// path. Resolving an already-resolved suggestion returns 409.
func (h *Handler) handleApplySuggestion(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.ApplySuggestion(r.Context(), chi.URLParam(r, "id"), actor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRejectSuggestion resolves a suggestion with no classification
// effect.
func (h *Handler) handleRejectSuggestion(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.RejectSuggestion(r.Context(), chi.URLParam(r, "id"), actor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
