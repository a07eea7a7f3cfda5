package httpadapter

import (
	"encoding/json"
	"net/http"

	"promofeed/internal/core/domain"
)

// handleIngest processes one campaign submission through the pipeline.
// First sightings return 201, merges return 200. Malformed payloads
// return 400 with a validation category, content below the quality
// threshold returns 422 with a quality_rejected category; neither
// touches the store.
func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation", "reason": "invalid JSON"})
		return
	}
	result, err := h.ingest.Ingest(r.Context(), sub)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusCreated
	if result.IsUpdate {
		status = http.StatusOK
	}
	h.writeJSON(w, status, map[string]any{
		"campaign":  toCampaignDTO(result.Campaign),
		"is_update": result.IsUpdate,
	})
}
