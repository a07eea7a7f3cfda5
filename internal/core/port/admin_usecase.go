package port

import (
	"context"

	"promofeed/internal/core/domain"
)

// AdminUseCase exposes the administrative boundary consumed by the
// admin UI: feed listings, override management, suggestion resolution
// and the audit trail.
type AdminUseCase interface {
	// ListCampaigns returns campaigns matching the filter.
	ListCampaigns(ctx context.Context, f CampaignFilter) ([]domain.Campaign, error)

	// SetOverride pins a campaign's tier and writes an audit entry.
	// Hidden-source campaigns cannot be pinned out of the hidden tier.
	SetOverride(ctx context.Context, campaignID int64, tier domain.FeedTier, actor string) error

	// ClearOverride removes a pin. The tier stays as-is until the next
	// ingestion or explicit re-evaluation.
	ClearOverride(ctx context.Context, campaignID int64, actor string) error

	// ListSources returns the configured sources.
	ListSources(ctx context.Context) ([]domain.Source, error)

	// UpsertSource creates or updates a source. The normalizer snapshot
	// picks the change up on the next ReloadSources.
	UpsertSource(ctx context.Context, s domain.Source) error

	// ReloadSources rebuilds the normalizer snapshot from the store and
	// swaps it in atomically.
	ReloadSources(ctx context.Context) error

	// CreateSuggestion records a pending reclassification proposal.
	CreateSuggestion(ctx context.Context, campaignID int64, tier domain.FeedTier, reason, proposedBy string) (domain.AdminSuggestion, error)

	// ListSuggestions returns suggestions, optionally filtered by state.
	ListSuggestions(ctx context.Context, state string) ([]domain.AdminSuggestion, error)

	// ApplySuggestion resolves a pending suggestion by pinning the
	// proposed tier through the override path and writes one audit
	// entry. A second resolution fails with ErrInvalidState.
	ApplySuggestion(ctx context.Context, id string, actor string) error

	// RejectSuggestion resolves a pending suggestion with no
	// classification effect.
	RejectSuggestion(ctx context.Context, id string, actor string) error

	// ListAudit returns a campaign's audit entries in causal order.
	ListAudit(ctx context.Context, campaignID int64) ([]domain.AuditLogEntry, error)

	// ExpireLapsed marks lapsed campaigns expired, returning the count.
	ExpireLapsed(ctx context.Context) (int64, error)
}
