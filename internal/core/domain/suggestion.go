package domain

import "time"

// Suggestion states. A suggestion is resolved exactly once.
const (
	SuggestionPending  = "pending"
	SuggestionApplied  = "applied"
	SuggestionRejected = "rejected"
)

// AdminSuggestion is a proposed reclassification of a campaign,
// produced heuristically or entered by an administrator, awaiting
// resolution.
type AdminSuggestion struct {
	ID           string
	CampaignID   int64
	ProposedTier FeedTier
	Reason       string
	ProposedBy   string
	State        string
	CreatedAt    time.Time
	ResolvedAt   time.Time
}
