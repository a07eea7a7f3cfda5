package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"promofeed/internal/core/domain"
	"promofeed/internal/core/port"
)

type campaignDTO struct {
	ID           int64      `json:"id"`
	SourceName   string     `json:"source_name"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	TargetURL    string     `json:"target_url"`
	Category     string     `json:"category"`
	Channel      string     `json:"channel,omitempty"`
	ValidFrom    *time.Time `json:"valid_from,omitempty"`
	ValidUntil   *time.Time `json:"valid_until,omitempty"`
	Fingerprint  string     `json:"fingerprint"`
	QualityScore float64    `json:"quality_score"`
	Tier         string     `json:"tier"`
	Overridden   bool       `json:"overridden"`
	FirstSeen    time.Time  `json:"first_seen"`
	LastSeen     time.Time  `json:"last_seen"`
	UpdateCount  int        `json:"update_count"`
	Status       string     `json:"status"`
}

func toCampaignDTO(c domain.Campaign) campaignDTO {
	dto := campaignDTO{
		ID:           c.ID,
		SourceName:   c.SourceName,
		Title:        c.Title,
		Description:  c.Description,
		TargetURL:    c.TargetURL,
		Category:     c.Category,
		Channel:      c.Channel,
		Fingerprint:  c.Fingerprint,
		QualityScore: c.QualityScore,
		Tier:         string(c.Tier),
		Overridden:   c.Overridden,
		FirstSeen:    c.FirstSeen,
		LastSeen:     c.LastSeen,
		UpdateCount:  c.UpdateCount,
		Status:       c.Status,
	}
	if !c.ValidFrom.IsZero() {
		t := c.ValidFrom
		dto.ValidFrom = &t
	}
	if !c.ValidUntil.IsZero() {
		t := c.ValidUntil
		dto.ValidUntil = &t
	}
	return dto
}

// handleListCampaigns lists campaigns filtered by feed tier, source and
// status. Accepts `tier`, `source`, `status`, `limit` and `offset`
// query parameters.
func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := port.CampaignFilter{
		Tier:   domain.FeedTier(q.Get("tier")),
		Source: q.Get("source"),
		Scope:  q.Get("scope"),
		Status: q.Get("status"),
	}
	if f.Tier != "" && !f.Tier.Valid() {
		h.writeError(w, &port.ValidationError{Field: "tier", Reason: "unknown tier"})
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, &port.ValidationError{Field: "limit", Reason: "must be a non-negative integer"})
			return
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, &port.ValidationError{Field: "offset", Reason: "must be a non-negative integer"})
			return
		}
		f.Offset = n
	}

	campaigns, err := h.admin.ListCampaigns(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]campaignDTO, len(campaigns))
	for i, c := range campaigns {
		out[i] = toCampaignDTO(c)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"campaigns": out})
}

// handleExpire marks lapsed campaigns expired.
func (h *Handler) handleExpire(w http.ResponseWriter, r *http.Request) {
	n, err := h.admin.ExpireLapsed(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"expired": n})
}

// handleAudit returns the audit trail for one campaign.
func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	entries, err := h.admin.ListAudit(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	type auditDTO struct {
		ID        int64     `json:"id"`
		Actor     string    `json:"actor"`
		PriorTier string    `json:"prior_tier"`
		NewTier   string    `json:"new_tier"`
		Reason    string    `json:"reason"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]auditDTO, len(entries))
	for i, e := range entries {
		out[i] = auditDTO{
			ID:        e.ID,
			Actor:     e.Actor,
			PriorTier: string(e.PriorTier),
			NewTier:   string(e.NewTier),
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt,
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

// handleSetOverride pins a campaign's feed tier.
func (h *Handler) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	var body struct {
		Tier string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation", "reason": "invalid JSON"})
		return
	}
	if err := h.admin.SetOverride(r.Context(), id, domain.FeedTier(body.Tier), actor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearOverride removes a pin; the tier stays until the next
// evaluation.
func (h *Handler) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	if err := h.admin.ClearOverride(r.Context(), id, actor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) campaignID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, &port.ValidationError{Field: "id", Reason: "must be an integer"})
		return 0, false
	}
	return id, true
}

// actor reads the administrator identity set by the auth layer in front
// of this service. Authentication itself is out of scope here.
func actor(r *http.Request) string {
	if a := r.Header.Get("X-Admin-User"); a != "" {
		return a
	}
	return "admin"
}
