package service

import (
	"context"
	"errors"
	"math"

	"go.opentelemetry.io/otel/attribute"

	"score-handler/internal/amortization"
	apperrors "score-handler/internal/common/errors"
	"score-handler/internal/common/metrics"
	"score-handler/internal/common/validation"
	"score-handler/internal/models"
	"score-handler/internal/store"
)

// PlanResult is a computed schedule with the risk score that priced it. Record
// is the stored request, set for plans tied to a user.
type PlanResult struct {
	UserID    string  `json:"userId,omitempty"`
	RiskScore float64 `json:"riskScore"`
	*amortization.Schedule
	Record *models.AmortizationRecord `json:"userData,omitempty"`
}

// ComputeRepaymentPlan prices and expands a plan. Plans with a userId are
// stored; a failed store returns the plan with a STORAGE_FAILED error.
func (s *Service) ComputeRepaymentPlan(ctx context.Context, req PlanRequest) (res *PlanResult, err error) {
	ctx, done := s.observe(ctx, "ComputeRepaymentPlan", attribute.String("userId", string(req.UserID)))
	defer done(&err)

	mode, err := req.mode()
	if err != nil {
		return nil, s.planFailed(0, apperrors.NewValidationError(err.Error()))
	}
	if !req.Amount.Valid {
		return nil, s.planFailed(mode, apperrors.NewValidationError("amount is required"))
	}
	periods, err := req.periods()
	if err != nil {
		return nil, s.planFailed(mode, apperrors.NewValidationError(err.Error()))
	}
	if req.NotifyEmail != "" && !validation.ValidateEmail(req.NotifyEmail) {
		return nil, s.planFailed(mode, apperrors.NewValidationError("notifyEmail is not a valid address"))
	}

	risk, err := s.resolveRisk(ctx, req)
	if err != nil {
		return nil, s.planFailed(mode, err)
	}

	schedule, err := s.calculator.Plan(amortization.Request{
		Mode:       mode,
		Amount:     req.Amount.Value,
		Periods:    periods,
		Instalment: req.Instalment.OrZero(),
		RiskScore:  risk,
	})
	if err != nil {
		return nil, s.planFailed(mode, apperrors.NewComputationError("repayment plan", err))
	}

	res = &PlanResult{UserID: string(req.UserID), RiskScore: risk, Schedule: schedule}

	if req.UserID != "" {
		record := &models.AmortizationRecord{
			UserID:     string(req.UserID),
			UserRisk:   risk,
			Instalment: req.Instalment.OrZero(),
			Period:     periods,
			Amount:     req.Amount.Value,
		}
		if err := s.store.UpsertAmortizationRecord(ctx, record); err != nil {
			metrics.PlansComputed.WithLabelValues(mode.String(), metrics.OutcomePartial).Inc()
			return res, s.storageError("UpsertAmortizationRecord", err).WithMetadata("userId", record.UserID)
		}
		res.Record = record
	}

	if req.NotifyEmail != "" && s.mailer != nil {
		if err := s.mailer.SendPlan(ctx, req.NotifyEmail, string(req.UserID), schedule); err != nil {
			s.logger.Warn("plan e-mail failed", map[string]interface{}{
				"userId": string(req.UserID),
				"error":  err,
			})
		}
	}

	metrics.PlansComputed.WithLabelValues(mode.String(), metrics.OutcomeSuccess).Inc()
	s.logger.Info("repayment plan computed", map[string]interface{}{
		"userId":  string(req.UserID),
		"mode":    mode.String(),
		"periods": schedule.Periods,
		"rate":    schedule.AnnualRate,
	})
	return res, nil
}

// GetUserRepaymentPlan recomputes the stored plan of a user. The stored
// period decides the mode: non-zero means period mode, zero means instalment.
func (s *Service) GetUserRepaymentPlan(ctx context.Context, userID string) (res *PlanResult, err error) {
	ctx, done := s.observe(ctx, "GetUserRepaymentPlan", attribute.String("userId", userID))
	defer done(&err)

	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required")
	}

	record, err := s.store.GetAmortizationRecord(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("repayment plan", userID)
	}
	if err != nil {
		return nil, s.storageError("GetAmortizationRecord", err)
	}

	mode := amortization.ModeInstalment
	if record.Period != 0 {
		mode = amortization.ModePeriod
	}

	schedule, err := s.calculator.Plan(amortization.Request{
		Mode:       mode,
		Amount:     record.Amount,
		Periods:    record.Period,
		Instalment: record.Instalment,
		RiskScore:  record.UserRisk,
	})
	if err != nil {
		return nil, apperrors.NewComputationError("recompute repayment plan", err)
	}

	return &PlanResult{
		UserID:    userID,
		RiskScore: record.UserRisk,
		Schedule:  schedule,
		Record:    record,
	}, nil
}

// resolveRisk prefers the explicit score, clamped to 0..100, over the stored
// profile.
func (s *Service) resolveRisk(ctx context.Context, req PlanRequest) (float64, error) {
	if req.RiskScore.Valid {
		risk := req.RiskScore.Value
		if math.IsNaN(risk) {
			return 0, apperrors.NewValidationError("riskScore must be a number")
		}
		if clamped := math.Min(100, math.Max(0, risk)); clamped != risk {
			s.logger.Debug("riskScore clamped", map[string]interface{}{"riskScore": risk, "clamped": clamped})
			risk = clamped
		}
		return risk, nil
	}
	if req.UserID == "" {
		return 0, apperrors.NewValidationError("either userId or riskScore must be provided")
	}

	profile, err := s.store.GetUserRiskProfile(ctx, string(req.UserID))
	if errors.Is(err, store.ErrNotFound) {
		return 0, apperrors.NewNotFoundError("user risk profile", string(req.UserID))
	}
	if err != nil {
		return 0, s.storageError("GetUserRiskProfile", err)
	}
	return profile.RiskLevel, nil
}

func (s *Service) planFailed(mode amortization.Mode, err error) error {
	label := "unknown"
	if mode == amortization.ModePeriod || mode == amortization.ModeInstalment {
		label = mode.String()
	}
	metrics.PlansComputed.WithLabelValues(label, metrics.OutcomeFailure).Inc()
	return err
}
