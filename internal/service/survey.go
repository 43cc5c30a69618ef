package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	apperrors "score-handler/internal/common/errors"
	"score-handler/internal/common/metrics"
	"score-handler/internal/models"
	"score-handler/internal/riskdistance"
	"score-handler/internal/survey"
)

// SurveyResult is the stored profile plus the final score of every section,
// including sections that are not stored factors.
type SurveyResult struct {
	*models.UserRiskProfile
	Sections []survey.ScoredSection `json:"sections"`
	RawTotal float64                `json:"rawTotal"`
}

type ClusteredSurveyResult struct {
	SurveyResult
	RiskDistance *riskdistance.Result `json:"riskDistanceAnalysis,omitempty"`
}

// ParseSurvey decodes a JSON submission, reporting malformed payloads as
// validation failures.
func ParseSurvey(payload []byte) (*survey.Submission, error) {
	sub, err := survey.DecodeSubmission(payload)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return sub, nil
}

// ScoreSurvey scores the submission and upserts the profile. When the upsert
// fails the computed result is still returned together with a
// STORAGE_FAILED error.
func (s *Service) ScoreSurvey(ctx context.Context, sub *survey.Submission) (res *SurveyResult, err error) {
	ctx, done := s.observe(ctx, "ScoreSurvey", submissionAttrs(sub)...)
	defer done(&err)

	res, err = s.scoreAndStore(ctx, sub)
	if res == nil {
		metrics.SurveysScored.WithLabelValues("plain", metrics.OutcomeFailure).Inc()
		return nil, err
	}
	if err != nil {
		metrics.SurveysScored.WithLabelValues("plain", metrics.OutcomePartial).Inc()
		return res, err
	}

	metrics.SurveysScored.WithLabelValues("plain", metrics.OutcomeSuccess).Inc()
	s.notifyProfile(ctx, res.UserRiskProfile, nil)
	return res, nil
}

// ScoreClusteredSurvey scores and stores the submission like ScoreSurvey and
// then classifies the profile against the reference population. A missing
// model yields the profile with a MODEL_UNAVAILABLE error.
func (s *Service) ScoreClusteredSurvey(ctx context.Context, sub *survey.Submission) (res *ClusteredSurveyResult, err error) {
	ctx, done := s.observe(ctx, "ScoreClusteredSurvey", submissionAttrs(sub)...)
	defer done(&err)

	scored, storeErr := s.scoreAndStore(ctx, sub)
	if scored == nil {
		metrics.SurveysScored.WithLabelValues("clustered", metrics.OutcomeFailure).Inc()
		return nil, storeErr
	}
	res = &ClusteredSurveyResult{SurveyResult: *scored}

	distance, classifyErr := s.classifier.Classify(ctx, riskdistance.Vector(scored.Vector()))
	if classifyErr == nil {
		res.RiskDistance = &distance
		metrics.Classifications.WithLabelValues(string(distance.Category)).Inc()
		s.logger.Info("clustered survey scored", map[string]interface{}{
			"userId":       scored.UserID,
			"riskCategory": distance.Category,
		})
	}

	switch {
	case storeErr != nil:
		if classifyErr != nil {
			s.logger.Warn("classification skipped", map[string]interface{}{
				"userId": scored.UserID,
				"error":  classifyErr,
			})
		}
		metrics.SurveysScored.WithLabelValues("clustered", metrics.OutcomePartial).Inc()
		return res, storeErr
	case classifyErr != nil:
		metrics.SurveysScored.WithLabelValues("clustered", metrics.OutcomePartial).Inc()
		s.notifyProfile(ctx, scored.UserRiskProfile, nil)
		return res, s.classificationError(classifyErr)
	}

	metrics.SurveysScored.WithLabelValues("clustered", metrics.OutcomeSuccess).Inc()
	s.notifyProfile(ctx, scored.UserRiskProfile, res.RiskDistance)
	return res, nil
}

// scoreAndStore returns a nil result only when nothing could be computed.
func (s *Service) scoreAndStore(ctx context.Context, sub *survey.Submission) (*SurveyResult, error) {
	agg, err := s.aggregator.Aggregate(sub)
	if err != nil {
		if errors.Is(err, survey.ErrMissingDemographics) || errors.Is(err, survey.ErrMissingIDNumber) {
			return nil, apperrors.NewValidationError(err.Error())
		}
		return nil, apperrors.NewComputationError("aggregate survey", err)
	}

	profile := &models.UserRiskProfile{UserID: agg.UserID}
	for _, section := range agg.Sections {
		profile.Set(section.Name, section.Score)
	}
	profile.RiskLevel = agg.RiskLevel
	metrics.RiskLevel.Observe(agg.RiskLevel)

	res := &SurveyResult{UserRiskProfile: profile, Sections: agg.Sections, RawTotal: agg.RawTotal}

	if err := s.store.UpsertUserRiskProfile(ctx, profile); err != nil {
		return res, s.storageError("UpsertUserRiskProfile", err).WithMetadata("userId", profile.UserID)
	}

	s.logger.Info("survey scored", map[string]interface{}{
		"userId":    profile.UserID,
		"riskLevel": profile.RiskLevel,
		"sections":  len(agg.Sections),
		"female":    agg.Female,
	})
	return res, nil
}

func submissionAttrs(sub *survey.Submission) []attribute.KeyValue {
	if sub == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("userId", sub.UserID),
		attribute.Int("sections", len(sub.Sections)),
	}
}
