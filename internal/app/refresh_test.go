package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"score-handler/internal/amortization"
	"score-handler/internal/riskdistance"
	"score-handler/internal/service"
	"score-handler/internal/store"
	"score-handler/internal/survey"
)

type countingRebuilder struct {
	calls atomic.Int32
	err   error
}

func (c *countingRebuilder) RebuildRiskModel(context.Context) (*service.ModelStatus, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &service.ModelStatus{State: riskdistance.StateReady.String(), PopulationSize: 2}, nil
}

func TestRefreshRiskModel_PicksUpOtherWriters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shared := store.NewMemoryStore()
	newSvc := func() *service.Service {
		return service.New(shared, survey.NewAggregator(survey.DeriveBounds(10)), amortization.NewCalculator(amortization.DefaultFees))
	}
	writer, reader := newSvc(), newSvc()

	for _, id := range []string{"nd-1", "nd-2"} {
		_, err := writer.RegisterNonDefaulter(ctx, service.NonDefaulterRequest{UserID: service.UserID(id)})
		require.NoError(t, err)
	}
	require.Equal(t, riskdistance.StateUninitialized.String(), reader.ModelStatus().State)

	go RefreshRiskModel(ctx, reader, 5*time.Millisecond, zap.NewNop())

	assert.Eventually(t, func() bool {
		return reader.ModelStatus().State == riskdistance.StateReady.String()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRefreshRiskModel_KeepsGoingAfterErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rb := &countingRebuilder{err: errors.New("population too small")}

	done := make(chan struct{})
	go func() {
		RefreshRiskModel(ctx, rb, time.Millisecond, zaptest.NewLogger(t))
		close(done)
	}()

	assert.Eventually(t, func() bool { return rb.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh loop did not stop on cancel")
	}
}

func TestRefreshRiskModel_DisabledReturnsAtOnce(t *testing.T) {
	rb := &countingRebuilder{}
	RefreshRiskModel(context.Background(), rb, 0, zaptest.NewLogger(t))
	assert.Zero(t, rb.calls.Load())
}
