// Package survey turns a questionnaire submission into per-factor scores and
// a 0-100 aggregate risk level.
package survey

import (
	"math"

	"score-handler/internal/scoring"
)

const (
	femaleSectionBoost = 1.5
	varianceSpread     = 0.3
	amplifiedFloor     = 0.1
)

// ScoredSection is the final score of one section after weighting and
// variance amplification.
type ScoredSection struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type Result struct {
	UserID    string          `json:"userId"`
	Female    bool            `json:"female"`
	Sections  []ScoredSection `json:"sections"`
	RawTotal  float64         `json:"rawTotal"`
	RiskLevel float64         `json:"riskLevel"`
}

// Score returns the final score of the named section.
func (r Result) Score(name string) (float64, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s.Score, true
		}
	}
	return 0, false
}

type Aggregator struct {
	bounds Bounds
}

func NewAggregator(bounds Bounds) *Aggregator {
	return &Aggregator{bounds: bounds}
}

func (a *Aggregator) Bounds() Bounds {
	return a.bounds
}

// Aggregate scores every section and rescales the amplified sum with the
// aggregator's bounds.
func (a *Aggregator) Aggregate(sub *Submission) (Result, error) {
	if sub == nil || sub.Demographics == nil {
		return Result{}, ErrMissingDemographics
	}
	if sub.UserID == "" {
		return Result{}, ErrMissingIDNumber
	}

	sections, total := amplifiedTotal(sub)
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return Result{}, ErrNonFiniteTotal
	}
	res := Result{
		UserID:   sub.UserID,
		Female:   sub.Female(),
		Sections: sections,
		RawTotal: total,
	}
	if len(sections) > 0 {
		res.RiskLevel = a.bounds.Rescale(total)
	}
	return res, nil
}

// amplifiedTotal runs the gender boost, weighting and variance amplification
// and returns the final section scores with their sum.
func amplifiedTotal(sub *Submission) ([]ScoredSection, float64) {
	female := sub.Female()

	weighted := make([]ScoredSection, 0, len(sub.Sections)+1)
	weighted = append(weighted, ScoredSection{
		Name:  scoring.SectionDemographics,
		Score: scoring.ScoreDemographics(sub.Demographics),
	})

	for _, section := range sub.Sections {
		if section.Skipped() {
			continue
		}
		score := scoring.Score(section)
		if female && scoring.KindFor(section.Name) != scoring.KindDemographics {
			score *= femaleSectionBoost
		}
		weighted = append(weighted, ScoredSection{
			Name:  section.Name,
			Score: score * section.EffectiveWeight(),
		})
	}

	mean := 0.0
	for _, s := range weighted {
		mean += s.Score
	}
	mean /= float64(len(weighted))

	total := 0.0
	for i := range weighted {
		s := weighted[i].Score
		weighted[i].Score = math.Max(amplifiedFloor, s+varianceSpread*(s-mean))
		total += weighted[i].Score
	}
	return weighted, total
}
