package computerepaymentplan

import "score-handler/internal/amortization"

// The job variables are a repayment plan request:
// {"userId", "riskScore", "paymentType", "period", "instalment", "amount"}.

type Output struct {
	UserID       string             `json:"userId,omitempty"`
	RiskScore    float64            `json:"riskScore"`
	AnnualRate   float64            `json:"rate"`
	Mode         amortization.Mode  `json:"paymentType"`
	Periods      int                `json:"periods"`
	Instalment   float64            `json:"instalment"` // first row, fees included
	TotalPayable float64            `json:"totalPayable"`
	Rows         []amortization.Row `json:"repaymentPlan"`
}
