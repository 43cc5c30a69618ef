package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"score-handler/internal/common/logger"
	"score-handler/internal/models"
	"score-handler/internal/riskdistance"
)

// ==========================
// Mock Implementations
// ==========================

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Tests
// ==========================

func TestProfileScored(t *testing.T) {
	var captured *sns.PublishInput
	mock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
		},
	}

	p := NewPublisher(mock, "arn:aws:sns:us-east-1:123:risk", logger.NewTestLogger(t))
	p.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }

	profile := &models.UserRiskProfile{UserID: "u1", Factors: models.Factors{RiskLevel: 42.5}}
	distance := &riskdistance.Result{Distance: 1.2, RiskScore: 24, Category: riskdistance.CategoryLow}
	require.NoError(t, p.ProfileScored(context.Background(), profile, distance))

	require.NotNil(t, captured)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:risk", aws.ToString(captured.TopicArn))
	assert.Equal(t, TypeProfileScored, aws.ToString(captured.MessageAttributes["eventType"].StringValue))

	var env struct {
		ID         string        `json:"id"`
		Type       string        `json:"type"`
		OccurredAt string        `json:"occurredAt"`
		Data       ProfileScored `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(captured.Message)), &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, TypeProfileScored, env.Type)
	assert.Equal(t, "2026-05-04T10:00:00Z", env.OccurredAt)
	assert.Equal(t, "u1", env.Data.UserID)
	assert.Equal(t, 42.5, env.Data.RiskLevel)
	require.NotNil(t, env.Data.RiskDistance)
	assert.Equal(t, riskdistance.CategoryLow, env.Data.RiskDistance.Category)
}

func TestModelRebuilt_PublishError(t *testing.T) {
	mock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	p := NewPublisher(mock, "arn", logger.NewNoOpLogger())
	err := p.ModelRebuilt(context.Background(), 12, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), TypeModelRebuilt)
	assert.Contains(t, err.Error(), "throttled")
}
