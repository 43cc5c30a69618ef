package survey

import (
	"fmt"
	"math"
	"strconv"

	"score-handler/internal/scoring"
)

// Bounds are the raw totals mapped to 0 and 100.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// LegacyBounds are the hardcoded totals the first scoring release shipped with.
var LegacyBounds = Bounds{Min: 8.5, Max: 95.0}

// Rescale maps a raw total linearly onto [0,100] and clamps.
func (b Bounds) Rescale(total float64) float64 {
	span := b.Max - b.Min
	if math.IsNaN(total) || span <= 0 {
		return 0
	}
	scaled := (total - b.Min) / span * 100
	return math.Min(100, math.Max(0, scaled))
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%.4f, %.4f]", b.Min, b.Max)
}

// DeriveBounds computes the theoretical extremes for a questionnaire with the
// given number of unit-weight Likert sections by running the scoring pipeline
// on the lowest and highest possible respondents. The bounds follow any change
// to the scoring constants automatically.
func DeriveBounds(factorSections int) Bounds {
	if factorSections < 0 {
		factorSections = 0
	}
	_, low := amplifiedTotal(extremeSubmission(factorSections, false))
	_, high := amplifiedTotal(extremeSubmission(factorSections, true))
	return Bounds{Min: low, Max: high}
}

func extremeSubmission(factorSections int, best bool) *Submission {
	gender, occupation, answer := "M", scoring.OccupationUnemployed, 1
	if best {
		gender, occupation, answer = scoring.GenderFemale, scoring.OccupationEmployed, 5
	}

	sub := &Submission{
		UserID: "bounds",
		Demographics: map[string]any{
			scoring.FieldGender:     gender,
			scoring.FieldOccupation: occupation,
		},
	}
	for i := 0; i < factorSections; i++ {
		sub.Sections = append(sub.Sections, scoring.Section{
			Name:    "factor" + strconv.Itoa(i),
			Answers: map[string]any{"q1": answer},
		})
	}
	return sub
}
