package domain

import (
	"regexp"
	"strings"
)

// QualityWeights configures the scoring heuristics of the quality gate.
// All values are policy, loaded from the rules file; the gate itself is
// a pure function of the submission content.
type QualityWeights struct {
	Description    float64
	BenefitSignal  float64
	KnownCategory  float64
	TitleSubstance float64
	HasEndDate     float64
	DenylistHit    float64 // subtracted per matched pattern

	MinDescriptionLen int
	MinTitleLen       int
	Threshold         float64
}

// benefitPattern matches a concrete benefit signal: a number next to a
// percent sign, a currency marker, bonus points or an installment count.
var benefitPattern = regexp.MustCompile(`(?i)(%\s*\d|\d+\s*(%|tl|₺|\$|€|puan|taksit))`)

// QualityGate scores submissions and decides acceptance. Identical
// input always yields the identical outcome, independent of submission
// order or prior history.
type QualityGate struct {
	weights    QualityWeights
	categories map[string]struct{}
	denylist   []string
}

// NewQualityGate builds a gate from weights, the known category set and
// a denylist of lowercased low-value keyword patterns.
func NewQualityGate(w QualityWeights, categories []string, denylist []string) *QualityGate {
	cats := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		cats[c] = struct{}{}
	}
	lowered := make([]string, len(denylist))
	for i, d := range denylist {
		lowered[i] = strings.ToLower(d)
	}
	return &QualityGate{weights: w, categories: cats, denylist: lowered}
}

// Score computes the deterministic quality score for a submission.
func (g *QualityGate) Score(c Campaign) float64 {
	var score float64
	w := g.weights

	desc := strings.TrimSpace(c.Description)
	if len(desc) >= w.MinDescriptionLen {
		score += w.Description
	} else if w.MinDescriptionLen > 0 {
		score += w.Description * float64(len(desc)) / float64(w.MinDescriptionLen)
	}

	text := c.Title + " " + c.Description
	if benefitPattern.MatchString(text) {
		score += w.BenefitSignal
	}
	if _, ok := g.categories[c.Category]; ok {
		score += w.KnownCategory
	}
	if len(strings.TrimSpace(c.Title)) >= w.MinTitleLen {
		score += w.TitleSubstance
	}
	if !c.ValidUntil.IsZero() {
		score += w.HasEndDate
	}

	lowered := strings.ToLower(text)
	for _, d := range g.denylist {
		if strings.Contains(lowered, d) {
			score -= w.DenylistHit
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Accept reports whether the score clears the configured threshold.
func (g *QualityGate) Accept(score float64) bool {
	return score >= g.weights.Threshold
}

// Threshold returns the configured acceptance threshold.
func (g *QualityGate) Threshold() float64 {
	return g.weights.Threshold
}
