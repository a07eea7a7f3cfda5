package port

import (
	"context"
	"time"

	"promofeed/internal/core/domain"
)

// CampaignFilter narrows campaign listings. Zero values mean "any".
// Scope keeps only campaigns whose source carries that scope tag.
type CampaignFilter struct {
	Tier   domain.FeedTier
	Source string
	Scope  string
	Status string
	Limit  int
	Offset int
}

// CampaignRepository is the outbound persistence port. Implementations
// must be concurrency-safe. UpsertByFingerprint is the single method
// with a concurrency contract: it behaves as a critical section per
// (source, fingerprint) key, so concurrent ingestions of the same
// fingerprint can never both create a record. An insert that loses a
// uniqueness race must be retried internally as a merge, never
// surfaced (see ErrFingerprintConflict).
type CampaignRepository interface {
	// UpsertByFingerprint inserts c as a new active record, or merges it
	// into the existing active record with the same (source,
	// fingerprint) via domain.Campaign.Merge. It returns the stored
	// record and whether it was newly created.
	UpsertByFingerprint(ctx context.Context, c domain.Campaign, now time.Time) (domain.Campaign, bool, error)

	// GetCampaign returns a campaign by id, or ErrNotFound.
	GetCampaign(ctx context.Context, id int64) (domain.Campaign, error)

	// ListCampaigns returns campaigns matching the filter, newest first.
	ListCampaigns(ctx context.Context, f CampaignFilter) ([]domain.Campaign, error)

	// SwapTier moves a campaign from one tier to another as a
	// compare-and-swap. It reports false without error when the
	// campaign is no longer on the expected prior tier, which means a
	// concurrent evaluation already moved it.
	SwapTier(ctx context.Context, id int64, from, to domain.FeedTier) (bool, error)

	// SetOverride pins (or clears) an administrative tier override.
	// Pinning also sets the tier; clearing leaves the tier untouched
	// until the next evaluation.
	SetOverride(ctx context.Context, id int64, tier domain.FeedTier, pinned bool) error

	// ExpireLapsed marks active campaigns whose validity window passed
	// as expired and returns how many were affected.
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)

	// AppendAudit appends an immutable audit entry.
	AppendAudit(ctx context.Context, e domain.AuditLogEntry) error

	// ListAudit returns a campaign's audit entries in causal order.
	ListAudit(ctx context.Context, campaignID int64) ([]domain.AuditLogEntry, error)

	// CreateSuggestion stores a new pending suggestion.
	CreateSuggestion(ctx context.Context, s domain.AdminSuggestion) error

	// GetSuggestion returns a suggestion by id, or ErrNotFound.
	GetSuggestion(ctx context.Context, id string) (domain.AdminSuggestion, error)

	// ListSuggestions returns suggestions, optionally filtered by state.
	ListSuggestions(ctx context.Context, state string) ([]domain.AdminSuggestion, error)

	// ResolveSuggestion transitions a pending suggestion to the given
	// terminal state. Resolving a non-pending suggestion returns
	// ErrInvalidState.
	ResolveSuggestion(ctx context.Context, id string, state string, resolvedAt time.Time) error

	// UpsertSource creates or updates a source with its alias set.
	UpsertSource(ctx context.Context, s domain.Source) error

	// ListSources returns all configured sources with their aliases.
	ListSources(ctx context.Context) ([]domain.Source, error)
}
