package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"promofeed/internal/core/domain"
	"promofeed/internal/core/port"
)

// AdminUseCase implements the administrative boundary: listings,
// overrides, suggestions, the audit trail and normalizer reloads.
type AdminUseCase struct {
	repo       port.CampaignRepository
	sources    *SourceHolder
	hiddenKeys []string
	cache      port.FeedCache
	logger     *slog.Logger

	now func() time.Time
}

// NewAdminUseCase wires the admin operations. hiddenKeys carries the
// rules-file hidden names that are not aliases of any stored source, so
// reloads keep hiding them. cache may be nil.
func NewAdminUseCase(repo port.CampaignRepository, sources *SourceHolder, hiddenKeys []string, cache port.FeedCache, logger *slog.Logger) *AdminUseCase {
	return &AdminUseCase{
		repo:       repo,
		sources:    sources,
		hiddenKeys: hiddenKeys,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// ListCampaigns serves feed listings. Pure tier listings of active
// campaigns go through the feed cache when one is configured.
func (u *AdminUseCase) ListCampaigns(ctx context.Context, f port.CampaignFilter) ([]domain.Campaign, error) {
	cacheable := u.cache != nil && f.Tier != "" && f.Source == "" && f.Scope == "" &&
		(f.Status == "" || f.Status == domain.StatusActive) && f.Limit == 0 && f.Offset == 0
	if cacheable {
		if cached, ok, err := u.cache.GetTier(ctx, f.Tier); err != nil {
			u.logger.Warn("feed cache read failed", slog.Any("error", err))
		} else if ok {
			return cached, nil
		}
	}
	campaigns, err := u.repo.ListCampaigns(ctx, f)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err = u.cache.SetTier(ctx, f.Tier, campaigns); err != nil {
			u.logger.Warn("feed cache write failed", slog.Any("error", err))
		}
	}
	return campaigns, nil
}

// SetOverride pins a campaign's tier. Hidden-source campaigns stay
// hidden no matter what, so pinning them anywhere else is refused.
func (u *AdminUseCase) SetOverride(ctx context.Context, campaignID int64, tier domain.FeedTier, actor string) error {
	if !tier.Valid() {
		return &port.ValidationError{Field: "tier", Reason: "unknown tier"}
	}
	c, err := u.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if u.sources.Current().IsHidden(c.SourceName) && tier != domain.TierHidden {
		return fmt.Errorf("%w: source %q is hidden", port.ErrInvalidState, c.SourceName)
	}
	if err = u.repo.SetOverride(ctx, campaignID, tier, true); err != nil {
		return err
	}
	entry := domain.AuditLogEntry{
		CampaignID: campaignID,
		Actor:      actor,
		PriorTier:  c.Tier,
		NewTier:    tier,
		Reason:     domain.RuleOverride,
		CreatedAt:  u.now(),
	}
	if err = u.repo.AppendAudit(ctx, entry); err != nil {
		return err
	}
	u.invalidate(ctx, c.Tier, tier)
	return nil
}

// ClearOverride removes a pin. The tier deliberately stays as-is; the
// next ingestion or explicit re-evaluation reclassifies.
func (u *AdminUseCase) ClearOverride(ctx context.Context, campaignID int64, actor string) error {
	c, err := u.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if !c.Overridden {
		return fmt.Errorf("%w: campaign %d has no override", port.ErrInvalidState, campaignID)
	}
	if err = u.repo.SetOverride(ctx, campaignID, c.Tier, false); err != nil {
		return err
	}
	return u.repo.AppendAudit(ctx, domain.AuditLogEntry{
		CampaignID: campaignID,
		Actor:      actor,
		PriorTier:  c.Tier,
		NewTier:    c.Tier,
		Reason:     "override_cleared",
		CreatedAt:  u.now(),
	})
}

// ListSources returns the stored sources.
func (u *AdminUseCase) ListSources(ctx context.Context) ([]domain.Source, error) {
	return u.repo.ListSources(ctx)
}

// UpsertSource stores a source. Takes effect on the next ReloadSources.
func (u *AdminUseCase) UpsertSource(ctx context.Context, s domain.Source) error {
	if s.CanonicalName == "" {
		return &port.ValidationError{Field: "canonical_name", Reason: "required"}
	}
	return u.repo.UpsertSource(ctx, s)
}

// ReloadSources rebuilds the normalizer snapshot from the store and
// swaps it in atomically. In-flight ingestions keep their old view.
func (u *AdminUseCase) ReloadSources(ctx context.Context) error {
	sources, err := u.repo.ListSources(ctx)
	if err != nil {
		return err
	}
	u.sources.Swap(domain.NewSourceIndex(sources, u.hiddenKeys...))
	u.logger.Info("source index reloaded", slog.Int("sources", len(sources)))
	return nil
}

// CreateSuggestion records a pending reclassification proposal.
func (u *AdminUseCase) CreateSuggestion(ctx context.Context, campaignID int64, tier domain.FeedTier, reason, proposedBy string) (domain.AdminSuggestion, error) {
	if !tier.Valid() {
		return domain.AdminSuggestion{}, &port.ValidationError{Field: "proposed_tier", Reason: "unknown tier"}
	}
	if _, err := u.repo.GetCampaign(ctx, campaignID); err != nil {
		return domain.AdminSuggestion{}, err
	}
	s := domain.AdminSuggestion{
		ID:           uuid.NewString(),
		CampaignID:   campaignID,
		ProposedTier: tier,
		Reason:       reason,
		ProposedBy:   proposedBy,
		State:        domain.SuggestionPending,
		CreatedAt:    u.now(),
	}
	if err := u.repo.CreateSuggestion(ctx, s); err != nil {
		return domain.AdminSuggestion{}, err
	}
	return s, nil
}

// ListSuggestions returns suggestions, optionally filtered by state.
func (u *AdminUseCase) ListSuggestions(ctx context.Context, state string) ([]domain.AdminSuggestion, error) {
	return u.repo.ListSuggestions(ctx, state)
}

// ApplySuggestion resolves a pending suggestion by pinning the proposed
// tier through the override path. Exactly one audit entry is written
// (by the override). The suggestion is marked applied only after the
// override succeeds, so a store failure leaves it pending and the apply
// can be retried. Resolving twice fails with ErrInvalidState.
func (u *AdminUseCase) ApplySuggestion(ctx context.Context, id string, actor string) error {
	s, err := u.repo.GetSuggestion(ctx, id)
	if err != nil {
		return err
	}
	if s.State != domain.SuggestionPending {
		return fmt.Errorf("%w: suggestion %s already %s", port.ErrInvalidState, id, s.State)
	}
	c, err := u.repo.GetCampaign(ctx, s.CampaignID)
	if err != nil {
		return err
	}
	if u.sources.Current().IsHidden(c.SourceName) && s.ProposedTier != domain.TierHidden {
		return fmt.Errorf("%w: source %q is hidden", port.ErrInvalidState, c.SourceName)
	}
	if err = u.SetOverride(ctx, s.CampaignID, s.ProposedTier, actor); err != nil {
		return err
	}
	return u.repo.ResolveSuggestion(ctx, id, domain.SuggestionApplied, u.now())
}

// RejectSuggestion resolves a pending suggestion with no classification
// effect.
func (u *AdminUseCase) RejectSuggestion(ctx context.Context, id string, actor string) error {
	if _, err := u.repo.GetSuggestion(ctx, id); err != nil {
		return err
	}
	return u.repo.ResolveSuggestion(ctx, id, domain.SuggestionRejected, u.now())
}

// ListAudit returns a campaign's audit entries in causal order.
func (u *AdminUseCase) ListAudit(ctx context.Context, campaignID int64) ([]domain.AuditLogEntry, error) {
	return u.repo.ListAudit(ctx, campaignID)
}

// ExpireLapsed marks active campaigns whose validity window passed as
// expired.
func (u *AdminUseCase) ExpireLapsed(ctx context.Context) (int64, error) {
	return u.repo.ExpireLapsed(ctx, u.now())
}

func (u *AdminUseCase) invalidate(ctx context.Context, tiers ...domain.FeedTier) {
	if u.cache == nil {
		return
	}
	if err := u.cache.InvalidateTiers(ctx, tiers...); err != nil {
		u.logger.Warn("feed cache invalidation failed", slog.Any("error", err))
	}
}
