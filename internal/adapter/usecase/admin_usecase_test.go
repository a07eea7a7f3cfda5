package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promofeed/internal/adapter/memstore"
	"promofeed/internal/core/domain"
	"promofeed/internal/core/port"
	"promofeed/internal/rules"
)

func TestSetOverrideAuditsAndPins(t *testing.T) {
	ingest, admin, store := newTestPipeline(t)
	ctx := context.Background()

	res, err := ingest.Ingest(ctx, goodSubmission())
	require.NoError(t, err)

	require.NoError(t, admin.SetOverride(ctx, res.Campaign.ID, domain.TierLight, "ops"))

	stored, err := store.GetCampaign(ctx, res.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierLight, stored.Tier)
	assert.True(t, stored.Overridden)

	entries, err := store.ListAudit(ctx, res.Campaign.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	last := entries[len(entries)-1]
	assert.Equal(t, "ops", last.Actor)
	assert.Equal(t, domain.TierMain, last.PriorTier)
	assert.Equal(t, domain.TierLight, last.NewTier)
	assert.Equal(t, domain.RuleOverride, last.Reason)
}

func TestSetOverrideRejectsUnknownTier(t *testing.T) {
	ingest, admin, _ := newTestPipeline(t)
	ctx := context.Background()

	res, err := ingest.Ingest(ctx, goodSubmission())
	require.NoError(t, err)

	err = admin.SetOverride(ctx, res.Campaign.ID, "premium", "ops")
	var validation *port.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestSetOverrideCannotUnhideHiddenSource(t *testing.T) {
	ingest, admin, _ := newTestPipeline(t)
	ctx := context.Background()

	sub := goodSubmission()
	sub.SourceName = "bankkart"
	res, err := ingest.Ingest(ctx, sub)
	require.NoError(t, err)
	require.Equal(t, domain.TierHidden, res.Campaign.Tier)

	err = admin.SetOverride(ctx, res.Campaign.ID, domain.TierMain, "ops")
	assert.ErrorIs(t, err, port.ErrInvalidState)
}

func TestClearOverrideWithoutPin(t *testing.T) {
	ingest, admin, _ := newTestPipeline(t)
	ctx := context.Background()

	res, err := ingest.Ingest(ctx, goodSubmission())
	require.NoError(t, err)

	err = admin.ClearOverride(ctx, res.Campaign.ID, "ops")
	assert.ErrorIs(t, err, port.ErrInvalidState)
}

func TestSwapTierSkipsPinnedCampaign(t *testing.T) {
	ingest, admin, store := newTestPipeline(t)
	ctx := context.Background()

	res, err := ingest.Ingest(ctx, goodSubmission())
	require.NoError(t, err)
	require.Equal(t, domain.TierMain, res.Campaign.Tier)

	// Pin to the current tier. A reclassification that read the record
	// before the pin still sees a matching from-tier, but the swap must
	// not move a pinned record.
	require.NoError(t, admin.SetOverride(ctx, res.Campaign.ID, domain.TierMain, "ops"))

	moved, err := store.SwapTier(ctx, res.Campaign.ID, domain.TierMain, domain.TierLow)
	require.NoError(t, err)
	assert.False(t, moved)

	stored, err := store.GetCampaign(ctx, res.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierMain, stored.Tier)
	assert.True(t, stored.Overridden)
}

func TestSuggestionLifecycle(t *testing.T) {
	ingest, admin, store := newTestPipeline(t)
	ctx := context.Background()

	res, err := ingest.Ingest(ctx, goodSubmission())
	require.NoError(t, err)

	s, err := admin.CreateSuggestion(ctx, res.Campaign.ID, domain.TierLow, "dusuk performans", "heuristic")
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionPending, s.State)

	pending, err := admin.ListSuggestions(ctx, domain.SuggestionPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	auditBefore, err := store.ListAudit(ctx, res.Campaign.ID)
	require.NoError(t, err)

	require.NoError(t, admin.ApplySuggestion(ctx, s.ID, "ops"))

	stored, err := store.GetCampaign(ctx, res.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierLow, stored.Tier)
	assert.True(t, stored.Overridden)

	auditAfter, err := store.ListAudit(ctx, res.Campaign.ID)
	require.NoError(t, err)
	assert.Len(t, auditAfter, len(auditBefore)+1, "applying writes exactly one audit entry")

	applied, err := store.GetSuggestion(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionApplied, applied.State)
	assert.False(t, applied.ResolvedAt.IsZero())

	// A suggestion resolves exactly once.
	assert.ErrorIs(t, admin.ApplySuggestion(ctx, s.ID, "ops"), port.ErrInvalidState)
	assert.ErrorIs(t, admin.RejectSuggestion(ctx, s.ID, "ops"), port.ErrInvalidState)
}

type overrideFailingStore struct {
	*memstore.Store
	fail bool
}

func (s *overrideFailingStore) SetOverride(ctx context.Context, id int64, tier domain.FeedTier, pinned bool) error {
	if s.fail {
		return errors.New("connection reset by peer")
	}
	return s.Store.SetOverride(ctx, id, tier, pinned)
}

func TestApplySuggestionStoreFailureLeavesPending(t *testing.T) {
	policy := rules.Default()
	store := &overrideFailingStore{Store: memstore.New()}
	sources := testSources()
	gate := domain.NewQualityGate(policy.QualityWeights(), policy.Categories, policy.Denylist)
	ingest := NewIngestUseCase(store, gate, policy.Classifier(), sources, policy.URLStripParams, nil, testLogger())
	admin := NewAdminUseCase(store, sources, nil, nil, testLogger())
	ctx := context.Background()

	res, err := ingest.Ingest(ctx, goodSubmission())
	require.NoError(t, err)

	s, err := admin.CreateSuggestion(ctx, res.Campaign.ID, domain.TierLow, "dusuk performans", "heuristic")
	require.NoError(t, err)

	store.fail = true
	require.Error(t, admin.ApplySuggestion(ctx, s.ID, "ops"))

	// The failed apply must not consume the suggestion.
	after, err := store.GetSuggestion(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionPending, after.State)

	stored, err := store.GetCampaign(ctx, res.Campaign.ID)
	require.NoError(t, err)
	assert.False(t, stored.Overridden)
	assert.Equal(t, domain.TierMain, stored.Tier)

	// Once the store recovers the retry goes through.
	store.fail = false
	require.NoError(t, admin.ApplySuggestion(ctx, s.ID, "ops"))

	applied, err := store.GetSuggestion(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionApplied, applied.State)

	stored, err = store.GetCampaign(ctx, res.Campaign.ID)
	require.NoError(t, err)
	assert.True(t, stored.Overridden)
	assert.Equal(t, domain.TierLow, stored.Tier)
}

func TestRejectSuggestionHasNoClassificationEffect(t *testing.T) {
	ingest, admin, store := newTestPipeline(t)
	ctx := context.Background()

	res, err := ingest.Ingest(ctx, goodSubmission())
	require.NoError(t, err)

	s, err := admin.CreateSuggestion(ctx, res.Campaign.ID, domain.TierLow, "", "heuristic")
	require.NoError(t, err)

	auditBefore, err := store.ListAudit(ctx, res.Campaign.ID)
	require.NoError(t, err)

	require.NoError(t, admin.RejectSuggestion(ctx, s.ID, "ops"))

	stored, err := store.GetCampaign(ctx, res.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierMain, stored.Tier)
	assert.False(t, stored.Overridden)

	auditAfter, err := store.ListAudit(ctx, res.Campaign.ID)
	require.NoError(t, err)
	assert.Len(t, auditAfter, len(auditBefore), "rejection writes no audit entry")

	rejected, err := store.GetSuggestion(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionRejected, rejected.State)
}

func TestCreateSuggestionUnknownCampaign(t *testing.T) {
	_, admin, _ := newTestPipeline(t)
	_, err := admin.CreateSuggestion(context.Background(), 999, domain.TierLow, "", "heuristic")
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestReloadSourcesSwapsSnapshot(t *testing.T) {
	ingest, admin, _ := newTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, admin.UpsertSource(ctx, domain.Source{
		CanonicalName: "Garanti BBVA",
		Aliases:       []string{"garanti", "bonus"},
	}))

	// Not visible until reload.
	sub := goodSubmission()
	sub.SourceName = "bonus"
	res, err := ingest.Ingest(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "bonus", res.Campaign.SourceName)

	require.NoError(t, admin.ReloadSources(ctx))

	sub.Title = "Bonus karta özel %15 indirim"
	res, err = ingest.Ingest(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "Garanti BBVA", res.Campaign.SourceName)
}

func TestExpireLapsed(t *testing.T) {
	ingest, admin, store := newTestPipeline(t)
	ctx := context.Background()

	lapsed := goodSubmission()
	lapsed.ValidUntil = time.Now().Add(-time.Hour)
	res, err := ingest.Ingest(ctx, lapsed)
	require.NoError(t, err)

	current := goodSubmission()
	current.Title = "Güncel kampanya %10 indirim"
	_, err = ingest.Ingest(ctx, current)
	require.NoError(t, err)

	expired, err := admin.ExpireLapsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	stored, err := store.GetCampaign(ctx, res.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, stored.Status)

	// An expired record no longer blocks the fingerprint: the next
	// sighting creates a fresh active record.
	revived, err := ingest.Ingest(ctx, goodSubmission())
	require.NoError(t, err)
	assert.False(t, revived.IsUpdate)
	assert.NotEqual(t, res.Campaign.ID, revived.Campaign.ID)
}

func TestListCampaignsByScope(t *testing.T) {
	ingest, admin, store := newTestPipeline(t)
	ctx := context.Background()

	err := store.UpsertSource(ctx, domain.Source{
		CanonicalName: "Akbank",
		Aliases:       []string{"akbank"},
		Scopes:        []string{"app"},
	})
	require.NoError(t, err)

	_, err = ingest.Ingest(ctx, goodSubmission())
	require.NoError(t, err)

	inApp, err := admin.ListCampaigns(ctx, port.CampaignFilter{Scope: "app"})
	require.NoError(t, err)
	assert.Len(t, inApp, 1)

	onWeb, err := admin.ListCampaigns(ctx, port.CampaignFilter{Scope: "web"})
	require.NoError(t, err)
	assert.Empty(t, onWeb)
}
