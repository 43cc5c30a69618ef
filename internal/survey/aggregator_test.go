package survey

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"score-handler/internal/scoring"
)

func exampleSubmission() map[string]any {
	return map[string]any{
		"demographics": map[string]any{"idNumber": "u1", "gender": "F", "occupation": "Empleado"},
		"sections": map[string]any{
			"riskAversion": map[string]any{
				"data":     map[string]any{"q1": 5.0, "q2": 5.0},
				"metadata": map[string]any{"weight": 1.0},
			},
		},
	}
}

func amplify(scores ...float64) []float64 {
	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Max(0.1, s+0.3*(s-mean))
	}
	return out
}

func TestAggregate_Example(t *testing.T) {
	sub, err := ParseSubmission(exampleSubmission())
	require.NoError(t, err)

	res, err := NewAggregator(LegacyBounds).Aggregate(sub)
	require.NoError(t, err)

	demo := 11.2
	riskAversion := scoring.BiasCorrect(5) * 1.5
	want := amplify(demo, riskAversion)

	require.Len(t, res.Sections, 2)
	assert.Equal(t, "demographics", res.Sections[0].Name)
	assert.InDelta(t, want[0], res.Sections[0].Score, 1e-12)
	assert.Equal(t, "riskAversion", res.Sections[1].Name)
	assert.InDelta(t, want[1], res.Sections[1].Score, 1e-12)

	total := want[0] + want[1]
	assert.InDelta(t, total, res.RawTotal, 1e-12)
	assert.InDelta(t, (total-8.5)/86.5*100, res.RiskLevel, 1e-9)
	assert.Equal(t, "u1", res.UserID)
	assert.True(t, res.Female)
}

func TestAggregate_WeightsAndSkips(t *testing.T) {
	raw := map[string]any{
		"demographics": map[string]any{"idNumber": "u2", "gender": "M", "occupation": "Empleado"},
		"sections": map[string]any{
			"consent":    map[string]any{"data": map[string]any{"agree": "yes"}},
			"familismo":  map[string]any{"data": map[string]any{"q1": 3}, "metadata": map[string]any{"weight": 0}},
			"resilience": map[string]any{"data": map[string]any{"q1": 3}, "metadata": map[string]any{"weight": 2}},
			"respect":    map[string]any{"data": map[string]any{"q1": "3"}},
		},
	}
	sub, err := ParseSubmission(raw)
	require.NoError(t, err)

	res, err := NewAggregator(LegacyBounds).Aggregate(sub)
	require.NoError(t, err)

	_, hasConsent := res.Score("consent")
	_, hasFamilismo := res.Score("familismo")
	assert.False(t, hasConsent)
	assert.False(t, hasFamilismo)

	want := amplify(5.5, 10.0, 5.0)
	demo, _ := res.Score("demographics")
	resilience, _ := res.Score("resilience")
	respect, _ := res.Score("respect")
	assert.InDelta(t, want[0], demo, 1e-12)
	assert.InDelta(t, want[1], resilience, 1e-12)
	assert.InDelta(t, want[2], respect, 1e-12)
}

func TestAggregate_FloorsAmplifiedScores(t *testing.T) {
	sub := &Submission{
		UserID:       "u3",
		Demographics: map[string]any{"gender": "F", "occupation": "Empleado"},
		Sections: []scoring.Section{
			{Name: "a", Answers: map[string]any{"q": 5}, Weight: ptr(10)},
			{Name: "b", Answers: map[string]any{"q": 1}, Weight: ptr(0.01)},
		},
	}
	res, err := NewAggregator(LegacyBounds).Aggregate(sub)
	require.NoError(t, err)

	b, ok := res.Score("b")
	require.True(t, ok)
	assert.Equal(t, 0.1, b)
	for _, s := range res.Sections {
		assert.GreaterOrEqual(t, s.Score, 0.1)
	}
}

func TestAggregate_ClampedRange(t *testing.T) {
	agg := NewAggregator(DeriveBounds(10))

	t.Run("heavily weighted maximum clamps to 100", func(t *testing.T) {
		sub := extremeSubmission(10, true)
		for i := range sub.Sections {
			sub.Sections[i].Weight = ptr(3)
		}
		res, err := agg.Aggregate(sub)
		require.NoError(t, err)
		assert.Equal(t, 100.0, res.RiskLevel)
	})

	t.Run("lone minimum respondent clamps to 0", func(t *testing.T) {
		res, err := agg.Aggregate(extremeSubmission(0, false))
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.RiskLevel)
	})

	t.Run("every layout stays in range", func(t *testing.T) {
		for n := 0; n <= 12; n++ {
			for _, best := range []bool{false, true} {
				res, err := agg.Aggregate(extremeSubmission(n, best))
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.RiskLevel, 0.0)
				assert.LessOrEqual(t, res.RiskLevel, 100.0)
			}
		}
	})
}

func TestAggregate_Validation(t *testing.T) {
	agg := NewAggregator(LegacyBounds)

	_, err := agg.Aggregate(nil)
	assert.ErrorIs(t, err, ErrMissingDemographics)

	_, err = agg.Aggregate(&Submission{Demographics: map[string]any{"gender": "F"}})
	assert.ErrorIs(t, err, ErrMissingIDNumber)
}

func TestAggregate_RejectsNonFiniteTotal(t *testing.T) {
	agg := NewAggregator(LegacyBounds)

	for name, w := range map[string]float64{"infinite": math.Inf(1), "overflowing": math.MaxFloat64} {
		t.Run(name, func(t *testing.T) {
			weight := w
			sub := &Submission{
				UserID:       "u1",
				Demographics: map[string]any{"idNumber": "u1", "gender": "F"},
				Sections: []scoring.Section{
					{Name: "riskAversion", Answers: map[string]any{"q1": 5}, Weight: &weight},
				},
			}
			_, err := agg.Aggregate(sub)
			assert.ErrorIs(t, err, ErrNonFiniteTotal)
		})
	}
}

// ==========================
// Bounds
// ==========================

func TestDeriveBounds_MatchesExtremeRespondents(t *testing.T) {
	bounds := DeriveBounds(10)
	agg := NewAggregator(bounds)

	low, err := agg.Aggregate(extremeSubmission(10, false))
	require.NoError(t, err)
	high, err := agg.Aggregate(extremeSubmission(10, true))
	require.NoError(t, err)

	assert.InDelta(t, 0.0, low.RiskLevel, 1e-9)
	assert.InDelta(t, 100.0, high.RiskLevel, 1e-9)

	// Amplification preserves the sum when no score hits the floor.
	wantMin := 2.5 + 10*scoring.BiasCorrect(1)
	wantMax := 11.2 + 10*scoring.BiasCorrect(5)*1.5
	assert.InDelta(t, wantMin, bounds.Min, 1e-9)
	assert.InDelta(t, wantMax, bounds.Max, 1e-9)
}

func TestLegacyBoundsDriftFromScoringConstants(t *testing.T) {
	// The legacy totals do not correspond to any canonical layout; keep this
	// visible so a change to the constants is noticed.
	derived := DeriveBounds(10)
	assert.NotEqual(t, LegacyBounds, derived)
	assert.Less(t, LegacyBounds.Min, derived.Min)
	assert.Less(t, LegacyBounds.Max, derived.Max)
}

func TestBoundsRescale(t *testing.T) {
	b := Bounds{Min: 10, Max: 110}
	assert.Equal(t, 0.0, b.Rescale(5))
	assert.Equal(t, 50.0, b.Rescale(60))
	assert.Equal(t, 100.0, b.Rescale(500))
	assert.Equal(t, 0.0, b.Rescale(math.NaN()))
	assert.Equal(t, 0.0, Bounds{Min: 5, Max: 5}.Rescale(7))
}

func ptr(f float64) *float64 { return &f }
