package domain

import "time"

// Campaign statuses. The ingestion pipeline never hard-deletes a
// campaign; it only flips the status to expired.
const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Campaign represents one promotional offer scraped from a bank or
// merchant website. SourceName always holds the canonical identity,
// never the raw scraped string.
type Campaign struct {
	ID           int64
	SourceName   string
	Title        string
	Description  string
	TargetURL    string
	Category     string
	Channel      string
	ValidFrom    time.Time
	ValidUntil   time.Time // zero means open-ended
	Fingerprint  string
	QualityScore float64
	Tier         FeedTier
	Overridden   bool
	FirstSeen    time.Time
	LastSeen     time.Time
	UpdateCount  int
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Merge folds a re-sighting of the same fingerprint into the stored
// record. Freshly submitted non-empty fields win; the validity end date
// only ever moves forward, since scrapers routinely re-publish an offer
// with a missing or stale end date and that must not retract a known
// one. The update counter and last-seen advance on every merge.
func (c Campaign) Merge(incoming Campaign, now time.Time) Campaign {
	if incoming.Title != "" {
		c.Title = incoming.Title
	}
	if incoming.Description != "" {
		c.Description = incoming.Description
	}
	if incoming.TargetURL != "" {
		c.TargetURL = incoming.TargetURL
	}
	if incoming.Category != "" {
		c.Category = incoming.Category
	}
	if incoming.Channel != "" {
		c.Channel = incoming.Channel
	}
	if incoming.ValidUntil.After(c.ValidUntil) {
		c.ValidUntil = incoming.ValidUntil
	}
	c.QualityScore = incoming.QualityScore
	c.LastSeen = now
	c.UpdateCount++
	return c
}

// Lapsed reports whether the campaign's validity window has passed.
func (c Campaign) Lapsed(now time.Time) bool {
	return !c.ValidUntil.IsZero() && c.ValidUntil.Before(now)
}
