package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"score-handler/internal/amortization"
	"score-handler/internal/models"
)

// Number is a loosely typed numeric field. It accepts a JSON number, a
// numeric string, or null and the string "null" (both meaning absent).
type Number struct {
	Value float64
	Valid bool
}

// Num returns a present Number.
func Num(f float64) Number {
	return Number{Value: f, Valid: true}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := string(b)
	if s == "null" {
		*n = Number{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid number %s", s)
		}
		s = strings.TrimSpace(unquoted)
		if s == "" || s == "null" {
			*n = Number{}
			return nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid number %s", string(b))
	}
	*n = Number{Value: f, Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// OrZero returns the value, or 0 when absent.
func (n Number) OrZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// UserID accepts a JSON string or number.
type UserID string

func (u *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null":
		*u = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = UserID(strings.TrimSpace(s))
	default:
		var num json.Number
		if err := json.Unmarshal(b, &num); err != nil {
			return fmt.Errorf("userId must be a string or number")
		}
		*u = UserID(num.String())
	}
	return nil
}

// PlanRequest asks for a repayment plan. The risk score comes from RiskScore
// when present, otherwise from the stored profile of UserID. PaymentType
// selects the mode; when it is empty the mode follows whichever of Period and
// Instalment is set.
type PlanRequest struct {
	UserID      UserID `json:"userId,omitempty"`
	RiskScore   Number `json:"riskScore"`
	PaymentType string `json:"paymentType,omitempty"`
	Period      Number `json:"period"`
	Instalment  Number `json:"instalment"`
	Amount      Number `json:"amount"`
	NotifyEmail string `json:"notifyEmail,omitempty"`
}

// UnmarshalJSON also accepts the snake_case names user_risk and payment_type.
func (r *PlanRequest) UnmarshalJSON(b []byte) error {
	type plain PlanRequest
	var aux struct {
		plain
		UserRisk    Number `json:"user_risk"`
		PaymentType string `json:"payment_type"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*r = PlanRequest(aux.plain)
	if !r.RiskScore.Valid {
		r.RiskScore = aux.UserRisk
	}
	if r.PaymentType == "" {
		r.PaymentType = aux.PaymentType
	}
	return nil
}

func (r PlanRequest) mode() (amortization.Mode, error) {
	if r.PaymentType != "" {
		return amortization.ParseMode(r.PaymentType)
	}
	switch {
	case r.Period.OrZero() != 0:
		return amortization.ModePeriod, nil
	case r.Instalment.OrZero() != 0:
		return amortization.ModeInstalment, nil
	default:
		return 0, fmt.Errorf("either period or instalment is required")
	}
}

func (r PlanRequest) periods() (int, error) {
	p := r.Period.OrZero()
	if p != math.Trunc(p) {
		return 0, fmt.Errorf("period must be a whole number of months, got %v", p)
	}
	if p > amortization.MaxPeriods {
		return 0, amortization.ErrTooManyPeriods
	}
	return int(p), nil
}

// NonDefaulterRequest registers or replaces a reference profile. The
// legacy risk_level name is accepted for the risk level.
type NonDefaulterRequest struct {
	UserID UserID `json:"userId"`
	models.Factors
}

func (r *NonDefaulterRequest) UnmarshalJSON(b []byte) error {
	type plain NonDefaulterRequest
	var aux struct {
		plain
		LegacyRiskLevel *float64 `json:"risk_level"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = NonDefaulterRequest(aux.plain)
	if aux.LegacyRiskLevel != nil && r.RiskLevel == 0 {
		r.RiskLevel = *aux.LegacyRiskLevel
	}
	return nil
}

func (r NonDefaulterRequest) profile() *models.NonDefaulterProfile {
	return &models.NonDefaulterProfile{UserID: string(r.UserID), Factors: r.Factors}
}
