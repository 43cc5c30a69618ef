package models

import "time"

// Factor section names, in the order they are stored.
const (
	FactorDemographics            = "demographics"
	FactorFinancialResponsibility = "financialResponsibility"
	FactorRiskAversion            = "riskAversion"
	FactorImpulsivity             = "impulsivity"
	FactorFutureOrientation       = "futureOrientation"
	FactorFinancialKnowledge      = "financialKnowledge"
	FactorLocusOfControl          = "locusOfControl"
	FactorSocialInfluence         = "socialInfluence"
	FactorResilience              = "resilience"
	FactorFamilismo               = "familismo"
	FactorRespect                 = "respect"
)

// FactorNames lists the eleven stored factors.
var FactorNames = []string{
	FactorDemographics,
	FactorFinancialResponsibility,
	FactorRiskAversion,
	FactorImpulsivity,
	FactorFutureOrientation,
	FactorFinancialKnowledge,
	FactorLocusOfControl,
	FactorSocialInfluence,
	FactorResilience,
	FactorFamilismo,
	FactorRespect,
}

// Factors holds the eleven factor scores plus the aggregate risk level. It is
// shared by scored users and by the reference population.
type Factors struct {
	Demographics            float64 `json:"demographics"`
	FinancialResponsibility float64 `json:"financialResponsibility"`
	RiskAversion            float64 `json:"riskAversion"`
	Impulsivity             float64 `json:"impulsivity"`
	FutureOrientation       float64 `json:"futureOrientation"`
	FinancialKnowledge      float64 `json:"financialKnowledge"`
	LocusOfControl          float64 `json:"locusOfControl"`
	SocialInfluence         float64 `json:"socialInfluence"`
	Resilience              float64 `json:"resilience"`
	Familismo               float64 `json:"familismo"`
	Respect                 float64 `json:"respect"`
	RiskLevel               float64 `json:"riskLevel"`
}

// Vector returns the factors in feature-column order, risk level last.
func (f Factors) Vector() [12]float64 {
	return [12]float64{
		f.Demographics,
		f.FinancialResponsibility,
		f.RiskAversion,
		f.Impulsivity,
		f.FutureOrientation,
		f.FinancialKnowledge,
		f.LocusOfControl,
		f.SocialInfluence,
		f.Resilience,
		f.Familismo,
		f.Respect,
		f.RiskLevel,
	}
}

// Set assigns a factor by name and reports whether the name is known.
func (f *Factors) Set(name string, score float64) bool {
	switch name {
	case FactorDemographics:
		f.Demographics = score
	case FactorFinancialResponsibility:
		f.FinancialResponsibility = score
	case FactorRiskAversion:
		f.RiskAversion = score
	case FactorImpulsivity:
		f.Impulsivity = score
	case FactorFutureOrientation:
		f.FutureOrientation = score
	case FactorFinancialKnowledge:
		f.FinancialKnowledge = score
	case FactorLocusOfControl:
		f.LocusOfControl = score
	case FactorSocialInfluence:
		f.SocialInfluence = score
	case FactorResilience:
		f.Resilience = score
	case FactorFamilismo:
		f.Familismo = score
	case FactorRespect:
		f.Respect = score
	default:
		return false
	}
	return true
}

// UserRiskProfile is the scored questionnaire of one user, keyed by idNumber.
type UserRiskProfile struct {
	UserID string `json:"userId"`
	Factors
	UpdatedAt time.Time `json:"updatedAt"`
}

// NonDefaulterProfile is a member of the reference population.
type NonDefaulterProfile struct {
	ID     int64  `json:"id,omitempty"`
	UserID string `json:"userId"`
	Factors
	CreatedAt time.Time `json:"createdAt"`
}

// AmortizationRecord is the last repayment plan requested by a user. Period
// and Instalment keep what the caller sent; 0 means not given.
type AmortizationRecord struct {
	UserID     string    `json:"userId"`
	UserRisk   float64   `json:"userRisk"`
	Instalment float64   `json:"instalment"`
	Period     int       `json:"period"`
	Amount     float64   `json:"amount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
