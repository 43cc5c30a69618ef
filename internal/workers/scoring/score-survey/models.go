package scoresurvey

import "score-handler/internal/models"

// The job variables are the survey submission itself:
// {"demographics": {...}, "sections": {...}}.

type Output struct {
	UserID    string         `json:"userId"`
	RiskLevel float64        `json:"riskLevel"`
	Factors   models.Factors `json:"riskFactors"`
	ScoredAt  string         `json:"scoredAt"` // RFC 3339
}
