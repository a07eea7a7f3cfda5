package httpadapter

import (
	"encoding/json"
	"net/http"

	"promofeed/internal/core/domain"
)

type sourceDTO struct {
	CanonicalName string   `json:"canonical_name"`
	Aliases       []string `json:"aliases,omitempty"`
	Hidden        bool     `json:"hidden"`
	Scopes        []string `json:"scopes,omitempty"`
}

// handleListSources returns the configured sources with canonical name,
// hidden flag and alias set.
func (h *Handler) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.admin.ListSources(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]sourceDTO, len(sources))
	for i, s := range sources {
		out[i] = sourceDTO{
			CanonicalName: s.CanonicalName,
			Aliases:       s.Aliases,
			Hidden:        s.Hidden,
			Scopes:        s.Scopes,
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"sources": out})
}

// handleUpsertSource creates or updates a source. The normalizer picks
// the change up on the next reload.
func (h *Handler) handleUpsertSource(w http.ResponseWriter, r *http.Request) {
	var body sourceDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation", "reason": "invalid JSON"})
		return
	}
	src := domain.Source{
		CanonicalName: body.CanonicalName,
		Aliases:       body.Aliases,
		Hidden:        body.Hidden,
		Scopes:        body.Scopes,
	}
	if err := h.admin.UpsertSource(r.Context(), src); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReloadSources rebuilds the normalizer snapshot from the store.
func (h *Handler) handleReloadSources(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.ReloadSources(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
