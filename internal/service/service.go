// Package service exposes the caller-facing operations of the score handler:
// survey scoring, risk-distance classification, repayment plans and the
// reference population. It owns the risk-distance classifier and turns core
// and storage failures into StandardErrors.
package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"score-handler/internal/amortization"
	apperrors "score-handler/internal/common/errors"
	"score-handler/internal/common/logger"
	"score-handler/internal/common/metrics"
	"score-handler/internal/common/observability"
	"score-handler/internal/models"
	"score-handler/internal/riskdistance"
	"score-handler/internal/store"
	"score-handler/internal/survey"
)

// ProfileSink is told about every persisted profile. Failures are logged and
// never fail the operation.
type ProfileSink interface {
	ProfileScored(ctx context.Context, profile *models.UserRiskProfile, distance *riskdistance.Result) error
}

// RebuildSink is told about every successful model rebuild.
type RebuildSink interface {
	ModelRebuilt(ctx context.Context, populationSize, clusterCount int) error
}

// PlanMailer delivers a plan summary to the address given in the request.
type PlanMailer interface {
	SendPlan(ctx context.Context, to, userID string, schedule *amortization.Schedule) error
}

type Service struct {
	store      store.Store
	aggregator *survey.Aggregator
	calculator *amortization.Calculator
	classifier *riskdistance.Classifier

	profileSinks []ProfileSink
	rebuildSinks []RebuildSink
	mailer       PlanMailer

	obs    *observability.Observability
	logger logger.Logger
}

type Option func(*Service)

func WithProfileSink(sink ProfileSink) Option {
	return func(s *Service) { s.profileSinks = append(s.profileSinks, sink) }
}

func WithRebuildSink(sink RebuildSink) Option {
	return func(s *Service) { s.rebuildSinks = append(s.rebuildSinks, sink) }
}

func WithMailer(m PlanMailer) Option {
	return func(s *Service) { s.mailer = m }
}

func WithObservability(o *observability.Observability) Option {
	return func(s *Service) { s.obs = o }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New wires the service. The classifier is created here and loads the
// reference population from st.
func New(st store.Store, aggregator *survey.Aggregator, calculator *amortization.Calculator, opts ...Option) *Service {
	s := &Service{
		store:      st,
		aggregator: aggregator,
		calculator: calculator,
		obs:        observability.NewNoop(),
		logger:     logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.Component(s.logger, "service")
	s.classifier = riskdistance.NewClassifier(s.loadPopulation)
	return s
}

// Classifier exposes the owned classifier for readiness checks.
func (s *Service) Classifier() *riskdistance.Classifier {
	return s.classifier
}

func (s *Service) loadPopulation(ctx context.Context) ([]riskdistance.Vector, error) {
	members, err := s.store.ListReferencePopulation(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]riskdistance.Vector, len(members))
	for i, m := range members {
		out[i] = riskdistance.Vector(m.Vector())
	}
	return out, nil
}

// observe opens a span and returns the function that closes it and records
// the outcome metrics.
func (s *Service) observe(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	ctx, span := s.obs.StartSpan(ctx, operation, attrs...)
	start := time.Now()

	return ctx, func(errp *error) {
		status := metrics.OutcomeSuccess
		if errp != nil && *errp != nil {
			status = string(apperrors.CodeOf(*errp))
			span.RecordError(*errp)
			span.SetStatus(codes.Error, status)
		}
		elapsed := time.Since(start)
		metrics.OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
		s.obs.RecordOperation(ctx, operation, status)
		s.obs.RecordOperationDuration(ctx, operation, elapsed, status)
		span.End()
	}
}

func (s *Service) storageError(operation string, err error) *apperrors.StandardError {
	metrics.StorageErrors.WithLabelValues(operation).Inc()
	s.logger.Error("storage call failed", map[string]interface{}{
		"operation": operation,
		"error":     err,
	})
	return apperrors.NewStorageError(operation, err)
}

func (s *Service) notifyProfile(ctx context.Context, profile *models.UserRiskProfile, distance *riskdistance.Result) {
	for _, sink := range s.profileSinks {
		if err := sink.ProfileScored(ctx, profile, distance); err != nil {
			s.logger.Warn("profile sink failed", map[string]interface{}{
				"userId": profile.UserID,
				"error":  err,
			})
		}
	}
}

// classificationError maps a classifier failure to the caller-facing kind.
func (s *Service) classificationError(err error) *apperrors.StandardError {
	if errors.Is(err, riskdistance.ErrModelUnavailable) {
		return apperrors.NewModelUnavailableError(err)
	}
	return s.storageError("ListReferencePopulation", err)
}
