// Package riskdistance clusters a reference population of non-defaulting
// borrowers and scores how far a new profile lies from those clusters.
package riskdistance

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// FeatureCount is the dimension of every profile vector.
const FeatureCount = 12

// FeatureNames is the fixed column order of a Vector.
var FeatureNames = [FeatureCount]string{
	"demographics",
	"financialResponsibility",
	"riskAversion",
	"impulsivity",
	"futureOrientation",
	"financialKnowledge",
	"locusOfControl",
	"socialInfluence",
	"resilience",
	"familismo",
	"respect",
	"riskLevel",
}

const (
	// MinPopulation is the smallest reference population a model is built from.
	MinPopulation = 2
	// Rounds is the fixed number of assignment/update passes.
	Rounds = 10
	// MaxExpectedDistance maps to a risk score of 100.
	MaxExpectedDistance = 5.0

	maxClusters = 3
)

var ErrModelUnavailable = errors.New("reference population too small to build a risk-distance model")

type Vector [FeatureCount]float64

// Model is an immutable snapshot: normalization parameters and centroids in
// normalized space.
type Model struct {
	Means          Vector    `json:"means"`
	Stds           Vector    `json:"stds"`
	Centroids      []Vector  `json:"centroids"`
	PopulationSize int       `json:"populationSize"`
	BuiltAt        time.Time `json:"builtAt"`
}

// ClusterCount returns min(3, max(2, n/2)).
func ClusterCount(populationSize int) int {
	k := populationSize / 2
	if k < MinPopulation {
		k = MinPopulation
	}
	if k > maxClusters {
		k = maxClusters
	}
	return k
}

// Build normalizes the population with its own mean and population standard
// deviation (1 where a feature has no variance), seeds k centroids with the
// first k points and runs exactly Rounds passes of k-means.
func Build(population []Vector) (*Model, error) {
	n := len(population)
	if n < MinPopulation {
		return nil, ErrModelUnavailable
	}

	m := &Model{PopulationSize: n, BuiltAt: time.Now().UTC()}
	for f := 0; f < FeatureCount; f++ {
		mean := 0.0
		for _, p := range population {
			mean += p[f]
		}
		mean /= float64(n)

		variance := 0.0
		for _, p := range population {
			d := p[f] - mean
			variance += d * d
		}
		variance /= float64(n)

		m.Means[f] = mean
		m.Stds[f] = 1
		if variance > 0 {
			m.Stds[f] = math.Sqrt(variance)
		}
	}

	points := make([]Vector, n)
	for i, p := range population {
		points[i] = m.normalize(p)
	}

	k := ClusterCount(n)
	centroids := make([]Vector, k)
	copy(centroids, points[:k])

	for round := 0; round < Rounds; round++ {
		sums := make([]Vector, k)
		counts := make([]int, k)
		for _, p := range points {
			c, _ := nearest(centroids, p)
			counts[c]++
			for f := range p {
				sums[c][f] += p[f]
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue // keeps its previous position
			}
			for f := range sums[c] {
				centroids[c][f] = sums[c][f] / float64(counts[c])
			}
		}
	}

	m.Centroids = centroids
	return m, nil
}

func (m *Model) normalize(v Vector) Vector {
	var out Vector
	for f := range v {
		out[f] = (v[f] - m.Means[f]) / m.Stds[f]
	}
	return out
}

// nearest returns the index of the closest centroid; ties go to the lowest index.
func nearest(centroids []Vector, p Vector) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for i, c := range centroids {
		if d := distance(p, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func distance(a, b Vector) float64 {
	sum := 0.0
	for f := range a {
		d := a[f] - b[f]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Category buckets a 0-100 distance score.
type Category string

const (
	CategoryVeryLow  Category = "Very Low"
	CategoryLow      Category = "Low"
	CategoryMedium   Category = "Medium"
	CategoryHigh     Category = "High"
	CategoryVeryHigh Category = "Very High"
)

func CategoryFor(score float64) Category {
	switch {
	case score <= 20:
		return CategoryVeryLow
	case score <= 40:
		return CategoryLow
	case score <= 60:
		return CategoryMedium
	case score <= 80:
		return CategoryHigh
	default:
		return CategoryVeryHigh
	}
}

type Result struct {
	Distance     float64  `json:"distance"`
	RiskScore    float64  `json:"riskScore"`
	Category     Category `json:"riskCategory"`
	Cluster      int      `json:"closestCluster"`
	ClusterCount int      `json:"clusterCount"`
}

// Classify measures the distance from v to the nearest centroid. The distance
// is reported to 4 decimals and the score to 2.
func (m *Model) Classify(v Vector) Result {
	cluster, d := nearest(m.Centroids, m.normalize(v))
	score := math.Min(100, d/MaxExpectedDistance*100)
	return Result{
		Distance:     round(d, 4),
		RiskScore:    round(score, 2),
		Category:     CategoryFor(score),
		Cluster:      cluster,
		ClusterCount: len(m.Centroids),
	}
}

func round(f float64, places int32) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}
