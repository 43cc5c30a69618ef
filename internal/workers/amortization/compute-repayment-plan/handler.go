package computerepaymentplan

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/shopspring/decimal"

	apperrors "score-handler/internal/common/errors"
	"score-handler/internal/common/logger"
	"score-handler/internal/common/metrics"
	"score-handler/internal/common/validation"
	"score-handler/internal/service"
)

const TaskType = "compute-repayment-plan"

type Planner interface {
	ComputeRepaymentPlan(ctx context.Context, req service.PlanRequest) (*service.PlanResult, error)
}

type Handler struct {
	config  *Config
	planner Planner
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(cfg *Config, planner Planner, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  cfg,
		planner: planner,
		errors:  apperrors.NewErrorHandler(log),
		logger:  log,
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

	req, err := h.parseInput(job)
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, req)
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

func (h *Handler) parseInput(job entities.Job) (service.PlanRequest, error) {
	var req service.PlanRequest
	payload := []byte(job.GetVariables())
	if result := validation.PlanSchema.Validate(payload); !result.Valid {
		return req, apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, apperrors.NewValidationError(err.Error())
	}
	return req, nil
}

// Execute prices and expands the plan. A plan that could not be stored fails
// the job and is recomputed on retry.
func (h *Handler) Execute(ctx context.Context, req service.PlanRequest) (*Output, error) {
	res, err := h.planner.ComputeRepaymentPlan(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Output{
		UserID:     res.UserID,
		RiskScore:  res.RiskScore,
		AnnualRate: res.AnnualRate,
		Mode:       res.Mode,
		Periods:    res.Periods,
		Rows:       res.Rows,
	}
	total := decimal.Zero
	for _, row := range res.Rows {
		total = total.Add(decimal.NewFromFloat(row.Instalment))
	}
	out.TotalPayable, _ = total.Round(2).Float64()
	if len(res.Rows) > 0 {
		out.Instalment = res.Rows[0].Instalment
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
