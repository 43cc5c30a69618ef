package scoreclusteredsurvey

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "score-handler/internal/common/errors"
	"score-handler/internal/common/logger"
	"score-handler/internal/common/metrics"
	"score-handler/internal/common/validation"
	"score-handler/internal/service"
	"score-handler/internal/survey"
)

const TaskType = "score-clustered-survey"

type Scorer interface {
	ScoreClusteredSurvey(ctx context.Context, sub *survey.Submission) (*service.ClusteredSurveyResult, error)
}

type Handler struct {
	config *Config
	scorer Scorer
	errors *apperrors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(cfg *Config, scorer Scorer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: cfg,
		scorer: scorer,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	sub, err := h.parseInput(job)
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, sub)
	}
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*survey.Submission, error) {
	payload := []byte(job.GetVariables())
	if result := validation.SurveySchema.Validate(payload); !result.Valid {
		return nil, apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return service.ParseSurvey(payload)
}

// Execute scores, stores and classifies the submission. A missing model
// completes the job with modelAvailable=false so the process can branch on
// it; any other failure fails the job.
func (h *Handler) Execute(ctx context.Context, sub *survey.Submission) (*Output, error) {
	res, err := h.scorer.ScoreClusteredSurvey(ctx, sub)
	if err != nil && !apperrors.Is(err, apperrors.ErrCodeModelUnavailable) {
		return nil, err
	}
	if res == nil {
		return nil, apperrors.NewInternalError(errors.New("scorer returned no result"))
	}

	out := &Output{
		UserID:         res.UserID,
		RiskLevel:      res.RiskLevel,
		Factors:        res.Factors,
		ModelAvailable: res.RiskDistance != nil,
		RiskDistance:   res.RiskDistance,
		ScoredAt:       h.now().UTC().Format(time.RFC3339),
	}
	if res.RiskDistance != nil {
		out.RiskCategory = string(res.RiskDistance.Category)
	} else {
		h.logger.Warn("risk model unavailable, profile stored without classification", map[string]interface{}{
			"userId": res.UserID,
		})
	}
	return out, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
