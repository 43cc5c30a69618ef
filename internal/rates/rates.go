// Package rates maps a normalized risk score to an annual interest rate.
package rates

// Tier is one row of the rate table: scores at or above Floor pay Rate.
type Tier struct {
	Floor float64 `json:"floor"`
	Rate  float64 `json:"rate"`
}

// FallbackRate applies below the lowest tier, and to NaN.
const FallbackRate = 0.40

// tiers is ordered by descending floor.
var tiers = []Tier{
	{Floor: 90, Rate: 0.21},
	{Floor: 80, Rate: 0.22},
	{Floor: 70, Rate: 0.23},
	{Floor: 60, Rate: 0.24},
	{Floor: 20, Rate: 0.37},
}

// ForRisk returns the annual rate for a risk score. Higher scores mean lower
// credit risk and therefore a lower rate.
func ForRisk(score float64) float64 {
	for _, t := range tiers {
		if score >= t.Floor {
			return t.Rate
		}
	}
	return FallbackRate
}

// Tiers returns a copy of the rate table, best tier first. Scores below the
// last floor pay FallbackRate.
func Tiers() []Tier {
	return append([]Tier(nil), tiers...)
}
