package domain

// FeedTier is the presentation bucket controlling which app surface
// shows a campaign.
type FeedTier string

const (
	TierMain     FeedTier = "main"
	TierLight    FeedTier = "light"
	TierLow      FeedTier = "low"
	TierHidden   FeedTier = "hidden"
	TierCategory FeedTier = "category"
)

// Valid reports whether t is one of the known tiers.
func (t FeedTier) Valid() bool {
	switch t {
	case TierMain, TierLight, TierLow, TierHidden, TierCategory:
		return true
	}
	return false
}

// Classification rule names, recorded in the audit log so an operator
// can see which rule moved a campaign.
const (
	RuleHiddenSource = "hidden_source"
	RuleOverride     = "override"
	RuleCategoryFeed = "category_feed"
	RuleScoreBand    = "score_band"
)

// TierBands holds the score thresholds banding accepted campaigns into
// main/light/low. MainMin must not be below LightMin so that a higher
// score never yields a lower tier.
type TierBands struct {
	MainMin  float64
	LightMin float64
}

// Classifier assigns feed tiers. CategoryFeeds names the categories
// whose campaigns belong to the dedicated category feed.
type Classifier struct {
	Bands         TierBands
	CategoryFeeds map[string]struct{}
}

// Classify evaluates the tier rules in precedence order: a hidden
// source always wins, then a pinned override, then category-feed
// membership, then the score bands. It returns the tier together with
// the name of the rule that fired.
func (cl Classifier) Classify(c Campaign, sourceHidden bool) (FeedTier, string) {
	if sourceHidden {
		return TierHidden, RuleHiddenSource
	}
	if c.Overridden {
		return c.Tier, RuleOverride
	}
	if _, ok := cl.CategoryFeeds[c.Category]; ok {
		return TierCategory, RuleCategoryFeed
	}
	switch {
	case c.QualityScore >= cl.Bands.MainMin:
		return TierMain, RuleScoreBand
	case c.QualityScore >= cl.Bands.LightMin:
		return TierLight, RuleScoreBand
	default:
		return TierLow, RuleScoreBand
	}
}
