package registernondefaulter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"score-handler/internal/amortization"
	apperrors "score-handler/internal/common/errors"
	"score-handler/internal/common/logger"
	"score-handler/internal/models"
	"score-handler/internal/service"
	"score-handler/internal/store"
	"score-handler/internal/survey"
)

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "reference-maintenance",
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func newTestHandler(t *testing.T) (*Handler, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	svc := service.New(mem, survey.NewAggregator(survey.LegacyBounds),
		amortization.NewCalculator(amortization.DefaultFees), service.WithLogger(logger.NewTestLogger(t)))
	return NewHandler(&Config{Timeout: 5 * time.Second}, svc, logger.NewTestLogger(t)), mem
}

func TestHandler_ParseInput(t *testing.T) {
	h, _ := newTestHandler(t)

	in, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"userId": "nd-1", "riskAversion": 4.5, "risk_level": 35, "replace": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, service.UserID("nd-1"), in.UserID)
	assert.Equal(t, 4.5, in.RiskAversion)
	assert.Equal(t, 35.0, in.RiskLevel)
	assert.True(t, in.Replace)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{"riskAversion": "high"}))
	assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.CodeOf(err))
}

func TestHandler_Execute(t *testing.T) {
	ctx := context.Background()
	h, mem := newTestHandler(t)

	out, err := h.Execute(ctx, service.NonDefaulterRequest{UserID: "nd-1", Factors: models.Factors{RiskLevel: 20}}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.ReferenceID)
	assert.Equal(t, "uninitialized", out.ModelState)

	out, err = h.Execute(ctx, service.NonDefaulterRequest{UserID: "nd-2", Factors: models.Factors{RiskLevel: 80}}, false)
	require.NoError(t, err)
	assert.Equal(t, "ready", out.ModelState)
	assert.Equal(t, 2, out.PopulationSize)

	_, err = h.Execute(ctx, service.NonDefaulterRequest{UserID: "nd-2"}, false)
	assert.Equal(t, apperrors.ErrCodeDuplicateProfile, apperrors.CodeOf(err))

	out, err = h.Execute(ctx, service.NonDefaulterRequest{UserID: "nd-2", Factors: models.Factors{RiskLevel: 85}}, true)
	require.NoError(t, err)
	assert.True(t, out.Replaced)
	assert.Equal(t, int64(2), out.ReferenceID)

	members, err := mem.ListReferencePopulation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 85.0, members[1].RiskLevel)

	_, err = h.Execute(ctx, service.NonDefaulterRequest{UserID: "ghost"}, true)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestDuplicateProfileThrowsBPMNError(t *testing.T) {
	bpmn := apperrors.ConvertToBPMNError(apperrors.NewDuplicateProfileError("nd-2"))
	assert.Equal(t, "RISK_PROFILE_DUPLICATE", bpmn.Code)
	assert.Zero(t, bpmn.Retries)
}
