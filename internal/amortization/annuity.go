package amortization

import (
	"errors"
	"math"
)

// MaxPeriods bounds the length of a schedule (100 years of monthly payments).
const MaxPeriods = 1200

var (
	ErrUnknownMode       = errors.New("unknown repayment mode")
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrInvalidPeriods    = errors.New("period must be at least 1")
	ErrInvalidInstalment = errors.New("instalment must be a positive number")
	ErrInvalidRate       = errors.New("annual rate must be a non-negative number")
	ErrTooManyPeriods    = errors.New("repayment would exceed the maximum number of periods")
	ErrUnamortizable     = errors.New("instalment does not cover the monthly interest; the principal would never be repaid")
)

// MonthlyRate converts an annual rate to the monthly compounding rate.
func MonthlyRate(annualRate float64) float64 {
	return annualRate / 12
}

// Payment is the fixed monthly annuity payment for amount over n periods:
// amount * i(1+i)^n / ((1+i)^n - 1), or amount/n when i is zero.
func Payment(amount, monthlyRate float64, periods int) (float64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	if periods < 1 {
		return 0, ErrInvalidPeriods
	}
	if periods > MaxPeriods {
		return 0, ErrTooManyPeriods
	}
	if !finite(monthlyRate) || monthlyRate < 0 {
		return 0, ErrInvalidRate
	}

	n := float64(periods)
	if monthlyRate == 0 {
		return amount / n, nil
	}
	growth := math.Pow(1+monthlyRate, n)
	return amount * (monthlyRate * growth) / (growth - 1), nil
}

// PeriodsForInstalment solves the annuity for its term given the payment:
// n = -ln(1 - P*i/A) / ln(1+i), or P/A when i is zero. The result is rounded
// to the nearest whole period and is at least 1.
func PeriodsForInstalment(amount, instalment, monthlyRate float64) (int, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	if !finite(instalment) || instalment <= 0 {
		return 0, ErrInvalidInstalment
	}
	if !finite(monthlyRate) || monthlyRate < 0 {
		return 0, ErrInvalidRate
	}

	var n float64
	if monthlyRate == 0 {
		n = amount / instalment
	} else {
		arg := 1 - amount*monthlyRate/instalment
		if arg <= 0 {
			return 0, ErrUnamortizable
		}
		n = -math.Log(arg) / math.Log1p(monthlyRate)
	}

	if !finite(n) || n > MaxPeriods+0.5 {
		return 0, ErrTooManyPeriods
	}
	periods := int(math.Round(n))
	if periods < 1 {
		periods = 1
	}
	return periods, nil
}

func checkAmount(amount float64) error {
	if !finite(amount) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
