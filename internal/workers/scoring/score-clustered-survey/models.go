package scoreclusteredsurvey

import (
	"score-handler/internal/models"
	"score-handler/internal/riskdistance"
)

// The job variables are the survey submission itself.

type Output struct {
	UserID         string               `json:"userId"`
	RiskLevel      float64              `json:"riskLevel"`
	Factors        models.Factors       `json:"riskFactors"`
	ModelAvailable bool                 `json:"modelAvailable"`
	RiskDistance   *riskdistance.Result `json:"riskDistanceAnalysis,omitempty"`
	RiskCategory   string               `json:"riskCategory,omitempty"` // copy for gateway conditions
	ScoredAt       string               `json:"scoredAt"`
}
