package port

import (
	"context"

	"promofeed/internal/core/domain"
)

// FeedCache caches per-tier campaign listings for the read side of the
// admin boundary. Implementations may be absent; callers treat a nil
// cache as a permanent miss. Cache failures must never fail the
// operation that triggered them.
type FeedCache interface {
	// GetTier returns the cached listing for a tier and whether it was
	// present.
	GetTier(ctx context.Context, tier domain.FeedTier) ([]domain.Campaign, bool, error)

	// SetTier stores a tier listing.
	SetTier(ctx context.Context, tier domain.FeedTier, campaigns []domain.Campaign) error

	// InvalidateTiers drops the cached listings for the given tiers.
	InvalidateTiers(ctx context.Context, tiers ...domain.FeedTier) error
}
