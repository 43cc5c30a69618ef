// Package app builds the scoring service and its backing clients from
// configuration. Both the HTTP server and the worker manager start from here.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"score-handler/internal/amortization"
	"score-handler/internal/api"
	awsclient "score-handler/internal/common/aws"
	"score-handler/internal/common/config"
	"score-handler/internal/common/database"
	"score-handler/internal/common/logger"
	"score-handler/internal/common/observability"
	"score-handler/internal/events"
	"score-handler/internal/notify"
	"score-handler/internal/search"
	"score-handler/internal/service"
	"score-handler/internal/store"
	"score-handler/internal/survey"
)

// Runtime is a wired service plus everything that must be closed with it.
type Runtime struct {
	Config  *config.Config
	Service *service.Service
	Obs     *observability.Observability
	Checks  []api.ReadyCheck

	closers []func() error
	zapLog  *zap.Logger
}

// Build connects to the configured backends and wires the service. Optional
// backends (Redis, Elasticsearch, SNS, SES) are skipped when disabled.
func Build(ctx context.Context, cfg *config.Config, serviceName string, zapLog *zap.Logger) (*Runtime, error) {
	log := logger.NewZapAdapter(zapLog)
	rt := &Runtime{Config: cfg, zapLog: zapLog}

	rt.Obs = observability.New(serviceName, observability.TracingOptions{
		Enabled:        cfg.Tracing.Enabled,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})

	st, err := rt.openStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithObservability(rt.Obs),
	}

	// --- Elasticsearch profile index ---
	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			rt.Close()
			return nil, err
		}
		if err := database.WaitFor(ctx, es, "Elasticsearch", 15, 2*time.Second, zapLog); err != nil {
			rt.Close()
			return nil, err
		}
		indexer := search.NewProfileIndexer(es.Client, cfg.Database.Elasticsearch.Index)
		if err := indexer.EnsureIndex(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("elasticsearch index: %w", err)
		}
		opts = append(opts, service.WithProfileSink(indexer))
		rt.Checks = append(rt.Checks, api.ReadyCheck{Name: "elasticsearch", Check: es.Ping})
		zapLog.Info("Elasticsearch connected", zap.String("index", cfg.Database.Elasticsearch.Index))
	}

	// --- SNS events ---
	if cfg.Notifications.Events.Enabled {
		snsClient, err := awsclient.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			rt.Close()
			return nil, err
		}
		publisher := events.NewPublisher(snsClient, cfg.Notifications.Events.TopicARN, logger.Component(log, "events"))
		opts = append(opts, service.WithProfileSink(publisher), service.WithRebuildSink(publisher))
	}

	// --- SES plan e-mails ---
	if cfg.Notifications.Email.Enabled {
		sesClient, err := awsclient.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			rt.Close()
			return nil, err
		}
		opts = append(opts, service.WithMailer(notify.NewMailer(sesClient, cfg.Notifications.Email.FromEmail)))
	}

	calculator := amortization.NewCalculator(amortization.FeePolicy{
		ServiceRate: cfg.Amortization.ServiceFeeRate,
		Insurance:   cfg.Amortization.InsuranceFee,
	})
	rt.Service = service.New(st, survey.NewAggregator(Bounds(cfg.Scoring)), calculator, opts...)

	// A population below two members is not an error at startup.
	if _, err := rt.Service.RebuildRiskModel(ctx); err != nil {
		zapLog.Info("risk model not built at startup", zap.Error(err))
	}
	return rt, nil
}

// Bounds returns the rescaling bounds selected by the scoring config.
func Bounds(cfg config.ScoringConfig) survey.Bounds {
	if cfg.BoundsMode == config.BoundsModeLegacy {
		return survey.LegacyBounds
	}
	return survey.DeriveBounds(cfg.FactorSections)
}

func (rt *Runtime) openStore(ctx context.Context) (store.Store, error) {
	cfg := rt.Config
	if cfg.Database.InMemory {
		rt.zapLog.Warn("using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, pg.Close)
	if err := database.WaitFor(ctx, pg, "PostgreSQL", 15, 2*time.Second, rt.zapLog); err != nil {
		return nil, err
	}
	if cfg.Database.Postgres.AutoMigrate {
		if err := pg.ExecAll(ctx, store.Schema); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	rt.Checks = append(rt.Checks, api.ReadyCheck{Name: "postgres", Check: pg.Ping})
	rt.zapLog.Info("PostgreSQL connected")

	var st store.Store = store.NewPostgresStore(pg.DB)

	// --- Redis read-through cache ---
	if cfg.Database.Redis.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		rt.closers = append(rt.closers, rdb.Close)
		if err := database.WaitFor(ctx, rdb, "Redis", 10, 2*time.Second, rt.zapLog); err != nil {
			return nil, err
		}
		ttl := time.Duration(cfg.Database.Redis.CacheTTL) * time.Second
		st = store.NewCachedStore(st, rdb.Client, ttl, logger.Component(logger.NewZapAdapter(rt.zapLog), "cache"))
		rt.Checks = append(rt.Checks, api.ReadyCheck{Name: "redis", Check: rdb.Ping})
		rt.zapLog.Info("Redis connected", zap.Duration("cacheTTL", ttl))
	}
	return st, nil
}

// Close releases clients in reverse order of creation.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.zapLog.Warn("close failed", zap.Error(err))
		}
	}
	if rt.Obs != nil {
		rt.Obs.Shutdown()
	}
}
