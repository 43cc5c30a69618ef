package scoresurvey

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"score-handler/internal/amortization"
	apperrors "score-handler/internal/common/errors"
	"score-handler/internal/common/logger"
	"score-handler/internal/models"
	"score-handler/internal/service"
	"score-handler/internal/store"
	"score-handler/internal/survey"
)

// ==========================
// Mock Scorer
// ==========================

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) ScoreSurvey(ctx context.Context, sub *survey.Submission) (*service.SurveyResult, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SurveyResult), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "risk-onboarding",
		ElementId:          "Activity_ScoreSurvey",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func surveyVariables(id interface{}) map[string]interface{} {
	return map[string]interface{}{
		"demographics": map[string]interface{}{"idNumber": id, "gender": "M", "occupation": "Empleado"},
		"sections": map[string]interface{}{
			"riskAversion": map[string]interface{}{"data": map[string]interface{}{"q1": 4, "q2": 5}},
			"impulsivity":  map[string]interface{}{"data": map[string]interface{}{"q1": "2"}},
		},
	}
}

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newTestHandler(t *testing.T, scorer Scorer) *Handler {
	h := NewHandler(&Config{Timeout: 5 * time.Second}, scorer, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h
}

// ==========================
// Input Parsing
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, &MockScorer{})

	t.Run("numeric idNumber", func(t *testing.T) {
		sub, err := h.parseInput(createMockJob(1, surveyVariables(12345)))
		require.NoError(t, err)
		assert.Equal(t, "12345", sub.UserID)
		assert.Len(t, sub.Sections, 2)
	})

	t.Run("missing demographics", func(t *testing.T) {
		_, err := h.parseInput(createMockJob(2, map[string]interface{}{"sections": map[string]interface{}{}}))
		assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.CodeOf(err))
	})

	t.Run("sections of the wrong type", func(t *testing.T) {
		vars := surveyVariables("u1")
		vars["sections"] = []int{1, 2}
		_, err := h.parseInput(createMockJob(3, vars))
		assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.CodeOf(err))
	})
}

// ==========================
// Execution
// ==========================

func TestHandler_Execute(t *testing.T) {
	scorer := &MockScorer{}
	h := newTestHandler(t, scorer)

	sub := &survey.Submission{UserID: "u-1", Demographics: map[string]any{"idNumber": "u-1"}}
	profile := &models.UserRiskProfile{UserID: "u-1", Factors: models.Factors{RiskAversion: 7.2, RiskLevel: 61.5}}
	scorer.On("ScoreSurvey", mock.Anything, sub).Return(&service.SurveyResult{UserRiskProfile: profile}, nil)

	out, err := h.Execute(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "u-1", out.UserID)
	assert.Equal(t, 61.5, out.RiskLevel)
	assert.Equal(t, 7.2, out.Factors.RiskAversion)
	assert.Equal(t, "2026-05-04T09:30:00Z", out.ScoredAt)
	scorer.AssertExpectations(t)
}

func TestHandler_Execute_StorageFailureFailsJob(t *testing.T) {
	scorer := &MockScorer{}
	h := newTestHandler(t, scorer)

	storageErr := apperrors.NewStorageError("UpsertUserRiskProfile", assert.AnError)
	scorer.On("ScoreSurvey", mock.Anything, mock.Anything).
		Return(&service.SurveyResult{UserRiskProfile: &models.UserRiskProfile{UserID: "u-2"}}, storageErr)

	out, err := h.Execute(context.Background(), &survey.Submission{UserID: "u-2"})
	assert.Nil(t, out)
	assert.Equal(t, apperrors.ErrCodeStorageFailed, apperrors.CodeOf(err))

	bpmn := apperrors.ConvertToBPMNError(apperrors.Normalize(err))
	assert.Equal(t, 3, bpmn.Retries)
}

func TestHandler_Execute_WithService(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := service.New(mem, survey.NewAggregator(survey.DeriveBounds(10)), amortization.NewCalculator(amortization.DefaultFees))
	h := newTestHandler(t, svc)

	sub, err := h.parseInput(createMockJob(4, surveyVariables("u-3")))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), sub)
	require.NoError(t, err)

	stored, err := mem.GetUserRiskProfile(context.Background(), "u-3")
	require.NoError(t, err)
	assert.Equal(t, stored.Factors, out.Factors)
}
