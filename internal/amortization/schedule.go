// Package amortization builds monthly repayment schedules for a loan, either
// for a fixed number of periods or for a fixed instalment.
package amortization

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"score-handler/internal/rates"
)

const dateLayout = "2006-01-02"

// FeePolicy adds flat per-period fees to each instalment. The service fee is
// ServiceRate of the principal; the insurance fee is principal * annualRate/100.
type FeePolicy struct {
	ServiceRate float64
	Insurance   bool
}

var DefaultFees = FeePolicy{ServiceRate: 0.015, Insurance: true}

// NoFees yields instalments equal to the annuity payment.
var NoFees = FeePolicy{}

func (f FeePolicy) serviceFee(amount float64) float64 {
	return amount * f.ServiceRate
}

func (f FeePolicy) insuranceFee(amount, annualRate float64) float64 {
	if !f.Insurance {
		return 0
	}
	return amount * (annualRate / 100)
}

// Row is one period of a schedule. Amounts are rounded to cents.
type Row struct {
	Period       int     `json:"period"`
	DueDate      string  `json:"dueDate"`
	Instalment   float64 `json:"instalment"`
	Principal    float64 `json:"principal"`
	Interest     float64 `json:"interest"`
	ServiceFee   float64 `json:"serviceFee"`
	InsuranceFee float64 `json:"insuranceFee"`
	Balance      float64 `json:"balance"`
}

type Schedule struct {
	Mode        Mode    `json:"mode"`
	Amount      float64 `json:"amount"`
	AnnualRate  float64 `json:"rate"`
	MonthlyRate float64 `json:"monthlyRate"`
	Periods     int     `json:"periods"`
	Payment     float64 `json:"payment"`
	Rows        []Row   `json:"data"`
}

// Request describes a plan in terms of a risk score; the rate comes from the
// rate table.
type Request struct {
	Mode       Mode
	Amount     float64
	Periods    int
	Instalment float64
	RiskScore  float64
}

type Option func(*Calculator)

// WithClock sets the source of "today" for due dates.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

type Calculator struct {
	fees FeePolicy
	now  func() time.Time
}

func NewCalculator(fees FeePolicy, opts ...Option) *Calculator {
	c := &Calculator{fees: fees, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Plan resolves the annual rate for the risk score and builds the schedule
// for the requested mode.
func (c *Calculator) Plan(req Request) (*Schedule, error) {
	rate := rates.ForRisk(req.RiskScore)
	switch req.Mode {
	case ModePeriod:
		return c.ForPeriod(req.Amount, req.Periods, rate)
	case ModeInstalment:
		return c.ForInstalment(req.Amount, req.Instalment, rate)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMode, req.Mode)
	}
}

// ForPeriod builds a schedule of exactly periods rows.
func (c *Calculator) ForPeriod(amount float64, periods int, annualRate float64) (*Schedule, error) {
	i := MonthlyRate(annualRate)
	payment, err := Payment(amount, i, periods)
	if err != nil {
		return nil, err
	}
	return c.expand(ModePeriod, amount, annualRate, periods, payment), nil
}

// ForInstalment derives the period count from the instalment, then builds the
// schedule with the exact annuity payment for that count.
func (c *Calculator) ForInstalment(amount, instalment, annualRate float64) (*Schedule, error) {
	i := MonthlyRate(annualRate)
	periods, err := PeriodsForInstalment(amount, instalment, i)
	if err != nil {
		return nil, err
	}
	payment, err := Payment(amount, i, periods)
	if err != nil {
		return nil, err
	}
	return c.expand(ModeInstalment, amount, annualRate, periods, payment), nil
}

// expand walks the balance at full precision; only the emitted rows are rounded.
func (c *Calculator) expand(mode Mode, amount, annualRate float64, periods int, payment float64) *Schedule {
	i := MonthlyRate(annualRate)
	serviceFee := c.fees.serviceFee(amount)
	insuranceFee := c.fees.insuranceFee(amount, annualRate)
	anchor := c.today()

	rows := make([]Row, 0, periods)
	balance := amount
	for k := 1; k <= periods; k++ {
		interest := balance * i
		principal := payment - interest
		balance -= principal

		rows = append(rows, Row{
			Period:       k,
			DueDate:      addMonths(anchor, k-1).Format(dateLayout),
			Instalment:   round2(round2(payment) + serviceFee + insuranceFee),
			Principal:    round2(principal),
			Interest:     round2(interest),
			ServiceFee:   round2(serviceFee),
			InsuranceFee: round2(insuranceFee),
			Balance:      round2(balance),
		})
	}

	return &Schedule{
		Mode:        mode,
		Amount:      amount,
		AnnualRate:  annualRate,
		MonthlyRate: i,
		Periods:     periods,
		Payment:     payment,
		Rows:        rows,
	}
}

func (c *Calculator) today() time.Time {
	now := c.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// addMonths moves n calendar months, clamping to the last day of the target
// month (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
