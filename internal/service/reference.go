package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "score-handler/internal/common/errors"
	"score-handler/internal/common/metrics"
	"score-handler/internal/models"
	"score-handler/internal/riskdistance"
	"score-handler/internal/store"
)

// ModelStatus describes the classifier snapshot.
type ModelStatus struct {
	State          string     `json:"state"`
	PopulationSize int        `json:"populationSize"`
	ClusterCount   int        `json:"clusterCount"`
	BuiltAt        *time.Time `json:"builtAt,omitempty"`
}

// RegisterNonDefaulter appends a member to the reference population and
// rebuilds the model.
func (s *Service) RegisterNonDefaulter(ctx context.Context, req NonDefaulterRequest) (profile *models.NonDefaulterProfile, err error) {
	ctx, done := s.observe(ctx, "RegisterNonDefaulter", attribute.String("userId", string(req.UserID)))
	defer done(&err)

	if req.UserID == "" {
		return nil, apperrors.NewValidationError("userId is required")
	}

	profile = req.profile()
	err = s.store.InsertReferenceProfile(ctx, profile)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperrors.NewDuplicateProfileError(profile.UserID)
	}
	if err != nil {
		return nil, s.storageError("InsertReferenceProfile", err)
	}

	s.refreshModel(ctx)
	return profile, nil
}

// ReplaceNonDefaulter overwrites the features of an existing member and
// rebuilds the model.
func (s *Service) ReplaceNonDefaulter(ctx context.Context, req NonDefaulterRequest) (profile *models.NonDefaulterProfile, err error) {
	ctx, done := s.observe(ctx, "ReplaceNonDefaulter", attribute.String("userId", string(req.UserID)))
	defer done(&err)

	if req.UserID == "" {
		return nil, apperrors.NewValidationError("userId is required")
	}

	profile = req.profile()
	err = s.store.ReplaceReferenceProfile(ctx, profile)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("reference profile", profile.UserID)
	}
	if err != nil {
		return nil, s.storageError("ReplaceReferenceProfile", err)
	}

	s.refreshModel(ctx)
	return profile, nil
}

func (s *Service) ListNonDefaulters(ctx context.Context) (members []models.NonDefaulterProfile, err error) {
	ctx, done := s.observe(ctx, "ListNonDefaulters")
	defer done(&err)

	members, err = s.store.ListReferencePopulation(ctx)
	if err != nil {
		return nil, s.storageError("ListReferencePopulation", err)
	}
	if members == nil {
		members = []models.NonDefaulterProfile{}
	}
	return members, nil
}

// RebuildRiskModel rebuilds the classifier from the current population. Below
// two members the classifier is left uninitialized and MODEL_UNAVAILABLE is
// returned with the status.
func (s *Service) RebuildRiskModel(ctx context.Context) (status *ModelStatus, err error) {
	ctx, done := s.observe(ctx, "RebuildRiskModel")
	defer done(&err)

	m, err := s.classifier.Rebuild(ctx)
	if err != nil {
		metrics.ModelRebuilds.WithLabelValues(metrics.OutcomeFailure).Inc()
		return s.ModelStatus(), s.classificationError(err)
	}

	metrics.ModelRebuilds.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.ReferencePopulation.Set(float64(m.PopulationSize))
	s.logger.Info("risk model rebuilt", map[string]interface{}{
		"populationSize": m.PopulationSize,
		"clusterCount":   len(m.Centroids),
	})

	for _, sink := range s.rebuildSinks {
		if err := sink.ModelRebuilt(ctx, m.PopulationSize, len(m.Centroids)); err != nil {
			s.logger.Warn("rebuild sink failed", map[string]interface{}{"error": err})
		}
	}
	return statusOf(m), nil
}

// ModelStatus reports the current classifier snapshot without building it.
func (s *Service) ModelStatus() *ModelStatus {
	return statusOf(s.classifier.Snapshot())
}

// refreshModel rebuilds after a population write. A population still below
// the minimum is expected and only logged at debug.
func (s *Service) refreshModel(ctx context.Context) {
	if _, err := s.RebuildRiskModel(ctx); err != nil {
		fields := map[string]interface{}{"error": err}
		if apperrors.Is(err, apperrors.ErrCodeModelUnavailable) {
			s.logger.Debug("risk model not rebuilt", fields)
			return
		}
		s.logger.Warn("risk model rebuild failed", fields)
	}
}

func statusOf(m *riskdistance.Model) *ModelStatus {
	if m == nil {
		return &ModelStatus{State: riskdistance.StateUninitialized.String()}
	}
	builtAt := m.BuiltAt
	return &ModelStatus{
		State:          riskdistance.StateReady.String(),
		PopulationSize: m.PopulationSize,
		ClusterCount:   len(m.Centroids),
		BuiltAt:        &builtAt,
	}
}
