// Package events publishes domain events to an SNS topic.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	awsclient "score-handler/internal/common/aws"
	"score-handler/internal/common/logger"
	"score-handler/internal/models"
	"score-handler/internal/riskdistance"
)

const (
	TypeProfileScored = "risk.profile.scored"
	TypeModelRebuilt  = "risk.model.rebuilt"
)

const source = "score-handler"

// Envelope is the JSON message body of every event.
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Source     string      `json:"source"`
	OccurredAt string      `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

type ProfileScored struct {
	UserID       string               `json:"userId"`
	RiskLevel    float64              `json:"riskLevel"`
	Factors      models.Factors       `json:"factors"`
	RiskDistance *riskdistance.Result `json:"riskDistance,omitempty"`
}

type ModelRebuilt struct {
	PopulationSize int `json:"populationSize"`
	ClusterCount   int `json:"clusterCount"`
}

type Publisher struct {
	sns      awsclient.SNSAPI
	topicARN string
	now      func() time.Time
	logger   logger.Logger
}

func NewPublisher(client awsclient.SNSAPI, topicARN string, log logger.Logger) *Publisher {
	return &Publisher{
		sns:      client,
		topicARN: topicARN,
		now:      time.Now,
		logger:   logger.Component(log, "events"),
	}
}

func (p *Publisher) ProfileScored(ctx context.Context, profile *models.UserRiskProfile, distance *riskdistance.Result) error {
	return p.publish(ctx, TypeProfileScored, ProfileScored{
		UserID:       profile.UserID,
		RiskLevel:    profile.RiskLevel,
		Factors:      profile.Factors,
		RiskDistance: distance,
	})
}

func (p *Publisher) ModelRebuilt(ctx context.Context, populationSize, clusterCount int) error {
	return p.publish(ctx, TypeModelRebuilt, ModelRebuilt{
		PopulationSize: populationSize,
		ClusterCount:   clusterCount,
	})
}

func (p *Publisher) publish(ctx context.Context, eventType string, data interface{}) error {
	env := Envelope{
		ID:         uuid.New().String(),
		Type:       eventType,
		Source:     source,
		OccurredAt: p.now().UTC().Format(time.RFC3339),
		Data:       data,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	out, err := p.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(eventType),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.Debug("event published", map[string]interface{}{
		"eventId":   env.ID,
		"eventType": eventType,
		"messageId": aws.ToString(out.MessageId),
	})
	return nil
}
