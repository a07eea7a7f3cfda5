package domain

import "time"

// ActorSystem is recorded when the pipeline itself makes a decision.
const ActorSystem = "system"

// AuditLogEntry is an immutable record of a classification-affecting
// decision. Entries for the same campaign are causally ordered; entries
// for different campaigns carry no relative ordering guarantee.
type AuditLogEntry struct {
	ID         int64
	CampaignID int64
	Actor      string
	PriorTier  FeedTier
	NewTier    FeedTier
	Reason     string
	CreatedAt  time.Time
}
