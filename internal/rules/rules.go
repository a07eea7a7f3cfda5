// Package rules loads the policy file: quality-gate weights and
// threshold, tier band edges, category-feed membership, URL
// normalization extras and the seed source/alias table. Policy lives in
// YAML rather than env vars because it is structured data edited as a
// unit; the env config only points at the file.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"promofeed/internal/core/domain"
)

// Source mirrors domain.Source in the rules file.
type Source struct {
	CanonicalName string   `yaml:"canonical_name"`
	Aliases       []string `yaml:"aliases"`
	Hidden        bool     `yaml:"hidden"`
	Scopes        []string `yaml:"scopes"`
}

// Rules is the full policy document.
type Rules struct {
	Quality struct {
		Description       float64 `yaml:"description"`
		BenefitSignal     float64 `yaml:"benefit_signal"`
		KnownCategory     float64 `yaml:"known_category"`
		TitleSubstance    float64 `yaml:"title_substance"`
		HasEndDate        float64 `yaml:"has_end_date"`
		DenylistHit       float64 `yaml:"denylist_hit"`
		MinDescriptionLen int     `yaml:"min_description_len"`
		MinTitleLen       int     `yaml:"min_title_len"`
		Threshold         float64 `yaml:"threshold"`
	} `yaml:"quality"`

	Tiers struct {
		MainMin  float64 `yaml:"main_min"`
		LightMin float64 `yaml:"light_min"`
	} `yaml:"tiers"`

	Categories     []string `yaml:"categories"`
	CategoryFeeds  []string `yaml:"category_feeds"`
	Denylist       []string `yaml:"denylist"`
	URLStripParams []string `yaml:"url_strip_params"`
	HiddenKeys     []string `yaml:"hidden_keys"`
	Sources        []Source `yaml:"sources"`
}

// Default returns the built-in policy used when no rules file is
// configured. The numbers are starting points meant to be tuned in the
// file, not constants the pipeline depends on.
func Default() Rules {
	var r Rules
	r.Quality.Description = 30
	r.Quality.BenefitSignal = 30
	r.Quality.KnownCategory = 20
	r.Quality.TitleSubstance = 10
	r.Quality.HasEndDate = 10
	r.Quality.DenylistHit = 40
	r.Quality.MinDescriptionLen = 40
	r.Quality.MinTitleLen = 8
	r.Quality.Threshold = 40
	r.Tiers.MainMin = 70
	r.Tiers.LightMin = 45
	r.Categories = []string{"market", "akaryakit", "giyim", "elektronik", "restoran", "seyahat", "kategori"}
	r.CategoryFeeds = []string{"kategori"}
	r.Denylist = []string{"test kampanya", "lorem", "sona erdi", "kampanya bitti"}
	return r
}

// Load reads the rules file at path, layered over the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (Rules, error) {
	r := Default()
	if path == "" {
		return r, r.validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read rules file: %w", err)
	}
	if err = yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse rules file: %w", err)
	}
	return r, r.validate()
}

func (r Rules) validate() error {
	if r.Tiers.MainMin < r.Tiers.LightMin {
		return fmt.Errorf("tier bands not monotonic: main_min %.1f < light_min %.1f", r.Tiers.MainMin, r.Tiers.LightMin)
	}
	for _, s := range r.Sources {
		if s.CanonicalName == "" {
			return fmt.Errorf("rules source with empty canonical_name")
		}
	}
	return nil
}

// DomainSources converts the seed sources to domain form.
func (r Rules) DomainSources() []domain.Source {
	out := make([]domain.Source, len(r.Sources))
	for i, s := range r.Sources {
		out[i] = domain.Source{
			CanonicalName: s.CanonicalName,
			Aliases:       s.Aliases,
			Hidden:        s.Hidden,
			Scopes:        s.Scopes,
		}
	}
	return out
}

// QualityWeights converts the quality section to domain form.
func (r Rules) QualityWeights() domain.QualityWeights {
	return domain.QualityWeights{
		Description:       r.Quality.Description,
		BenefitSignal:     r.Quality.BenefitSignal,
		KnownCategory:     r.Quality.KnownCategory,
		TitleSubstance:    r.Quality.TitleSubstance,
		HasEndDate:        r.Quality.HasEndDate,
		DenylistHit:       r.Quality.DenylistHit,
		MinDescriptionLen: r.Quality.MinDescriptionLen,
		MinTitleLen:       r.Quality.MinTitleLen,
		Threshold:         r.Quality.Threshold,
	}
}

// Classifier builds the feed classifier from the tier bands and
// category-feed list.
func (r Rules) Classifier() domain.Classifier {
	feeds := make(map[string]struct{}, len(r.CategoryFeeds))
	for _, c := range r.CategoryFeeds {
		feeds[c] = struct{}{}
	}
	return domain.Classifier{
		Bands:         domain.TierBands{MainMin: r.Tiers.MainMin, LightMin: r.Tiers.LightMin},
		CategoryFeeds: feeds,
	}
}
