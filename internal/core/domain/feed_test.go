package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testClassifier() Classifier {
	return Classifier{
		Bands:         TierBands{MainMin: 70, LightMin: 45},
		CategoryFeeds: map[string]struct{}{"kategori": {}},
	}
}

func TestClassifyHiddenSourceWinsOverEverything(t *testing.T) {
	cl := testClassifier()
	c := Campaign{QualityScore: 95, Category: "kategori", Tier: TierMain, Overridden: true}
	tier, rule := cl.Classify(c, true)
	assert.Equal(t, TierHidden, tier)
	assert.Equal(t, RuleHiddenSource, rule)
}

func TestClassifyOverridePin(t *testing.T) {
	cl := testClassifier()
	c := Campaign{QualityScore: 95, Tier: TierLow, Overridden: true}
	tier, rule := cl.Classify(c, false)
	assert.Equal(t, TierLow, tier)
	assert.Equal(t, RuleOverride, rule)
}

func TestClassifyCategoryFeedBeatsScore(t *testing.T) {
	cl := testClassifier()
	c := Campaign{QualityScore: 41, Category: "kategori"}
	tier, rule := cl.Classify(c, false)
	assert.Equal(t, TierCategory, tier)
	assert.Equal(t, RuleCategoryFeed, rule)
}

func TestClassifyScoreBandsMonotonic(t *testing.T) {
	cl := testClassifier()
	rank := map[FeedTier]int{TierLow: 0, TierLight: 1, TierMain: 2}
	prev := -1
	for score := 0.0; score <= 100; score++ {
		tier, rule := cl.Classify(Campaign{QualityScore: score}, false)
		assert.Equal(t, RuleScoreBand, rule)
		assert.GreaterOrEqual(t, rank[tier], prev, "score %.0f", score)
		prev = rank[tier]
	}
}

func TestClassifyBandEdges(t *testing.T) {
	cl := testClassifier()
	cases := map[float64]FeedTier{44.9: TierLow, 45: TierLight, 69.9: TierLight, 70: TierMain}
	for score, want := range cases {
		tier, _ := cl.Classify(Campaign{QualityScore: score}, false)
		assert.Equal(t, want, tier, "score %v", score)
	}
}

func TestMergePrefersNonEmptyAndExtendsEndDate(t *testing.T) {
	now := time.Now()
	later := now.AddDate(0, 2, 0)
	earlier := now.AddDate(0, 1, 0)

	existing := Campaign{
		Title:       "Eski başlık",
		Description: "Eski açıklama",
		TargetURL:   "https://example.com/k",
		Category:    "market",
		ValidUntil:  earlier,
		UpdateCount: 2,
	}
	merged := existing.Merge(Campaign{Title: "Yeni başlık", ValidUntil: later, QualityScore: 80}, now)

	assert.Equal(t, "Yeni başlık", merged.Title)
	assert.Equal(t, "Eski açıklama", merged.Description, "empty incoming field must not erase")
	assert.Equal(t, later, merged.ValidUntil)
	assert.Equal(t, 3, merged.UpdateCount)
	assert.Equal(t, now, merged.LastSeen)
	assert.Equal(t, 80.0, merged.QualityScore)
}

func TestMergeNeverRetractsEndDate(t *testing.T) {
	now := time.Now()
	later := now.AddDate(0, 2, 0)
	existing := Campaign{ValidUntil: later}

	merged := existing.Merge(Campaign{ValidUntil: now.AddDate(0, 1, 0)}, now)
	assert.Equal(t, later, merged.ValidUntil)

	merged = existing.Merge(Campaign{}, now)
	assert.Equal(t, later, merged.ValidUntil, "missing end date must not retract a stored one")
}

func TestLapsed(t *testing.T) {
	now := time.Now()
	assert.False(t, Campaign{}.Lapsed(now), "open-ended campaign never lapses")
	assert.True(t, Campaign{ValidUntil: now.Add(-time.Hour)}.Lapsed(now))
	assert.False(t, Campaign{ValidUntil: now.Add(time.Hour)}.Lapsed(now))
}

func TestFeedTierValid(t *testing.T) {
	for _, tier := range []FeedTier{TierMain, TierLight, TierLow, TierHidden, TierCategory} {
		assert.True(t, tier.Valid())
	}
	assert.False(t, FeedTier("").Valid())
	assert.False(t, FeedTier("premium").Valid())
}
