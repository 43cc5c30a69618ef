package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"score-handler/internal/service"
)

// ModelRebuilder is the part of the service the refresh loop drives.
type ModelRebuilder interface {
	RebuildRiskModel(ctx context.Context) (*service.ModelStatus, error)
}

// RefreshRiskModel rebuilds the classifier every interval until ctx is done.
// Each process holds its own snapshot, so a process that never registers
// non-defaulters itself picks up another process's writes this way.
func RefreshRiskModel(ctx context.Context, svc ModelRebuilder, every time.Duration, log *zap.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := svc.RebuildRiskModel(ctx)
			if err != nil {
				log.Debug("scheduled risk model rebuild skipped", zap.Error(err))
				continue
			}
			log.Debug("scheduled risk model rebuild", zap.Int("populationSize", status.PopulationSize))
		}
	}
}
