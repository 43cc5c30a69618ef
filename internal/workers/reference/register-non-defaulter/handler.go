package registernondefaulter

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "score-handler/internal/common/errors"
	"score-handler/internal/common/logger"
	"score-handler/internal/common/metrics"
	"score-handler/internal/common/validation"
	"score-handler/internal/models"
	"score-handler/internal/service"
)

const TaskType = "register-non-defaulter"

type Registry interface {
	RegisterNonDefaulter(ctx context.Context, req service.NonDefaulterRequest) (*models.NonDefaulterProfile, error)
	ReplaceNonDefaulter(ctx context.Context, req service.NonDefaulterRequest) (*models.NonDefaulterProfile, error)
	ModelStatus() *service.ModelStatus
}

type input struct {
	service.NonDefaulterRequest
	Replace bool
}

type Handler struct {
	config   *Config
	registry Registry
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(cfg *Config, registry Registry, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   cfg,
		registry: registry,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
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

	in, err := h.parseInput(job)
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, in.NonDefaulterRequest, in.Replace)
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

func (h *Handler) parseInput(job entities.Job) (*input, error) {
	payload := []byte(job.GetVariables())
	if result := validation.NonDefaulterSchema.Validate(payload); !result.Valid {
		return nil, apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}

	in := &input{}
	if err := json.Unmarshal(payload, &in.NonDefaulterRequest); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	var flags struct {
		Replace bool `json:"replace"`
	}
	if err := json.Unmarshal(payload, &flags); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	in.Replace = flags.Replace
	return in, nil
}

// Execute adds or replaces the member. The model rebuild that follows is
// reported through the returned state; a population still too small is not
// an error here.
func (h *Handler) Execute(ctx context.Context, req service.NonDefaulterRequest, replace bool) (*Output, error) {
	var (
		profile *models.NonDefaulterProfile
		err     error
	)
	if replace {
		profile, err = h.registry.ReplaceNonDefaulter(ctx, req)
	} else {
		profile, err = h.registry.RegisterNonDefaulter(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	status := h.registry.ModelStatus()
	return &Output{
		UserID:         profile.UserID,
		ReferenceID:    profile.ID,
		Replaced:       replace,
		ModelState:     status.State,
		PopulationSize: status.PopulationSize,
	}, nil
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
