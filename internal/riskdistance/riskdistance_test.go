package riskdistance

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(v float64) Vector {
	var out Vector
	for i := range out {
		out[i] = v
	}
	return out
}

// ==========================
// Model
// ==========================

func TestClusterCount(t *testing.T) {
	tests := []struct{ n, want int }{
		{2, 2}, {3, 2}, {4, 2}, {5, 2}, {6, 3}, {7, 3}, {500, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClusterCount(tt.n), "n=%d", tt.n)
	}
}

func TestBuild_TooSmall(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = Build([]Vector{fill(1)})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestBuild_TwoMembers(t *testing.T) {
	m, err := Build([]Vector{fill(0), fill(2)})
	require.NoError(t, err)

	require.Len(t, m.Centroids, 2)
	assert.Equal(t, 2, m.PopulationSize)
	assert.Equal(t, fill(1), m.Means)
	assert.Equal(t, fill(1), m.Stds)
	assert.Equal(t, fill(-1), m.Centroids[0])
	assert.Equal(t, fill(1), m.Centroids[1])
}

func TestBuild_ZeroVarianceUsesUnitStd(t *testing.T) {
	m, err := Build([]Vector{fill(4), fill(4)})
	require.NoError(t, err)

	assert.Equal(t, fill(1), m.Stds)
	// both seeds coincide, the second cluster stays empty and keeps its seed
	assert.Equal(t, fill(0), m.Centroids[0])
	assert.Equal(t, fill(0), m.Centroids[1])
	for _, c := range m.Centroids {
		for _, f := range c {
			assert.False(t, math.IsNaN(f))
		}
	}

	res := m.Classify(fill(4))
	assert.Equal(t, 0.0, res.Distance)
	assert.Equal(t, CategoryVeryLow, res.Category)
}

func TestBuild_ThreeClusters(t *testing.T) {
	population := []Vector{fill(0), fill(5), fill(10), fill(0.5), fill(5.5), fill(9.5)}
	m, err := Build(population)
	require.NoError(t, err)

	require.Len(t, m.Centroids, 3)
	low := m.Classify(fill(0.25))
	high := m.Classify(fill(9.75))
	assert.NotEqual(t, low.Cluster, high.Cluster)
	assert.Equal(t, CategoryVeryLow, low.Category)
}

func TestClassify_Rounding(t *testing.T) {
	m, err := Build([]Vector{fill(0), fill(2)})
	require.NoError(t, err)

	// equidistant from both centroids: first cluster wins
	res := m.Classify(fill(1))
	assert.Equal(t, 0, res.Cluster)
	assert.Equal(t, 3.4641, res.Distance)
	assert.Equal(t, 69.28, res.RiskScore)
	assert.Equal(t, CategoryHigh, res.Category)
	assert.Equal(t, 2, res.ClusterCount)
}

func TestClassify_ScoreCappedAt100(t *testing.T) {
	m, err := Build([]Vector{fill(0), fill(2)})
	require.NoError(t, err)

	res := m.Classify(fill(50))
	assert.Equal(t, 100.0, res.RiskScore)
	assert.Equal(t, CategoryVeryHigh, res.Category)
	assert.Greater(t, res.Distance, MaxExpectedDistance)
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Category
	}{
		{0, CategoryVeryLow},
		{20, CategoryVeryLow},
		{20.01, CategoryLow},
		{40, CategoryLow},
		{60, CategoryMedium},
		{80, CategoryHigh},
		{80.5, CategoryVeryHigh},
		{100, CategoryVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryFor(tt.score), "score=%v", tt.score)
	}
}

// ==========================
// Classifier
// ==========================

func TestClassifier_LazyBuild(t *testing.T) {
	var loads atomic.Int32
	c := NewClassifier(func(ctx context.Context) ([]Vector, error) {
		loads.Add(1)
		return []Vector{fill(0), fill(2)}, nil
	})
	assert.Equal(t, StateUninitialized, c.State())
	assert.Nil(t, c.Snapshot())

	res, err := c.Classify(context.Background(), fill(1))
	require.NoError(t, err)
	assert.Equal(t, CategoryHigh, res.Category)
	assert.Equal(t, StateReady, c.State())

	_, err = c.Classify(context.Background(), fill(0))
	require.NoError(t, err)
	assert.Equal(t, int32(1), loads.Load())
}

func TestClassifier_Unavailable(t *testing.T) {
	c := NewClassifier(func(ctx context.Context) ([]Vector, error) {
		return []Vector{fill(3)}, nil
	})

	_, err := c.Classify(context.Background(), fill(3))
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, StateUninitialized, c.State())
}

func TestClassifier_RebuildTransitions(t *testing.T) {
	population := []Vector{fill(0), fill(2)}
	c := NewClassifier(func(ctx context.Context) ([]Vector, error) {
		return population, nil
	})

	first, err := c.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, c.Snapshot())

	population = append(population, fill(4), fill(6), fill(8), fill(10))
	second, err := c.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Len(t, second.Centroids, 3)
	assert.Same(t, second, c.Snapshot())

	population = population[:1]
	_, err = c.Rebuild(context.Background())
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, StateUninitialized, c.State())
}

func TestClassifier_LoadFailureKeepsSnapshot(t *testing.T) {
	fail := false
	c := NewClassifier(func(ctx context.Context) ([]Vector, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return []Vector{fill(0), fill(2)}, nil
	})

	m, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = c.Rebuild(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Same(t, m, c.Snapshot())
}

func TestClassifier_ConcurrentReadsDuringRebuild(t *testing.T) {
	var size atomic.Int32
	size.Store(2)
	c := NewClassifier(func(ctx context.Context) ([]Vector, error) {
		n := int(size.Load())
		pop := make([]Vector, n)
		for i := range pop {
			pop[i] = fill(float64(i))
		}
		return pop, nil
	})

	ctx := context.Background()
	_, err := c.Rebuild(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				res, err := c.Classify(ctx, fill(1))
				if !assert.NoError(t, err) {
					return
				}
				assert.GreaterOrEqual(t, res.ClusterCount, 2)
				assert.LessOrEqual(t, res.ClusterCount, 3)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		size.Add(1)
		_, err := c.Rebuild(ctx)
		require.NoError(t, err)
	}
	wg.Wait()
}
