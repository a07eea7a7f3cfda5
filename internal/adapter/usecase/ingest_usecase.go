package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"promofeed/internal/core/domain"
	"promofeed/internal/core/port"
)

// IngestUseCase runs the ingestion pipeline: source normalization,
// quality gate, fingerprint deduplication and feed classification. It
// implements port.IngestUseCase.
type IngestUseCase struct {
	repo        port.CampaignRepository
	gate        *domain.QualityGate
	classifier  domain.Classifier
	sources     *SourceHolder
	stripParams []string
	cache       port.FeedCache
	logger      *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewIngestUseCase wires the pipeline. cache may be nil.
func NewIngestUseCase(repo port.CampaignRepository, gate *domain.QualityGate, classifier domain.Classifier, sources *SourceHolder, stripParams []string, cache port.FeedCache, logger *slog.Logger) *IngestUseCase {
	return &IngestUseCase{
		repo:        repo,
		gate:        gate,
		classifier:  classifier,
		sources:     sources,
		stripParams: stripParams,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// Ingest processes one submission end to end. Validation and quality
// rejection happen before any store access; a rejected submission
// leaves the store untouched.
func (u *IngestUseCase) Ingest(ctx context.Context, sub domain.Submission) (port.IngestResult, error) {
	if err := validate(sub); err != nil {
		return port.IngestResult{}, err
	}

	idx := u.sources.Current()
	canonical := idx.Canonicalize(sub.SourceName)
	hidden := idx.IsHidden(sub.SourceName)

	candidate := domain.Campaign{
		SourceName:  canonical,
		Title:       strings.TrimSpace(sub.Title),
		Description: strings.TrimSpace(sub.Description),
		TargetURL:   strings.TrimSpace(sub.TargetURL),
		Category:    strings.TrimSpace(sub.Category),
		Channel:     strings.TrimSpace(sub.Channel),
		ValidFrom:   sub.ValidFrom,
		ValidUntil:  sub.ValidUntil,
		Status:      domain.StatusActive,
	}

	score := u.gate.Score(candidate)
	if !u.gate.Accept(score) {
		return port.IngestResult{}, &port.QualityRejectedError{Score: score, Threshold: u.gate.Threshold()}
	}
	candidate.QualityScore = score
	candidate.Fingerprint = domain.Fingerprint(canonical, candidate.Title, candidate.TargetURL, candidate.Category, u.stripParams)

	record, created, err := u.repo.UpsertByFingerprint(ctx, candidate, u.now())
	if err != nil {
		return port.IngestResult{}, err
	}

	record, err = u.reclassify(ctx, record, hidden, domain.ActorSystem)
	if err != nil {
		return port.IngestResult{}, err
	}
	return port.IngestResult{Campaign: record, IsUpdate: !created}, nil
}

// reclassify evaluates the tier rules against the just-written record
// and applies the result via compare-and-swap. Losing the swap means a
// concurrent evaluation of the same campaign already moved it, which is
// fine: that evaluation audited its own change.
func (u *IngestUseCase) reclassify(ctx context.Context, record domain.Campaign, sourceHidden bool, actor string) (domain.Campaign, error) {
	tier, rule := u.classifier.Classify(record, sourceHidden)
	if tier == record.Tier {
		return record, nil
	}
	moved, err := u.repo.SwapTier(ctx, record.ID, record.Tier, tier)
	if err != nil {
		return record, err
	}
	if !moved {
		return record, nil
	}
	prior := record.Tier
	record.Tier = tier
	entry := domain.AuditLogEntry{
		CampaignID: record.ID,
		Actor:      actor,
		PriorTier:  prior,
		NewTier:    tier,
		Reason:     rule,
		CreatedAt:  u.now(),
	}
	if err = u.repo.AppendAudit(ctx, entry); err != nil {
		return record, err
	}
	u.invalidate(ctx, prior, tier)
	return record, nil
}

func (u *IngestUseCase) invalidate(ctx context.Context, tiers ...domain.FeedTier) {
	if u.cache == nil {
		return
	}
	if err := u.cache.InvalidateTiers(ctx, tiers...); err != nil {
		u.logger.Warn("feed cache invalidation failed", slog.Any("error", err))
	}
}

func validate(sub domain.Submission) error {
	switch {
	case strings.TrimSpace(sub.SourceName) == "":
		return &port.ValidationError{Field: "source_name", Reason: "required"}
	case strings.TrimSpace(sub.Title) == "":
		return &port.ValidationError{Field: "title", Reason: "required"}
	case strings.TrimSpace(sub.TargetURL) == "":
		return &port.ValidationError{Field: "target_url", Reason: "required"}
	case strings.TrimSpace(sub.Category) == "":
		return &port.ValidationError{Field: "category", Reason: "required"}
	}
	if !sub.ValidUntil.IsZero() && !sub.ValidFrom.IsZero() && sub.ValidUntil.Before(sub.ValidFrom) {
		return &port.ValidationError{Field: "valid_until", Reason: "precedes valid_from"}
	}
	return nil
}
