package registernondefaulter

// The job variables are a reference profile: {"userId", the eleven factor
// scores, "riskLevel"}. Replace=true overwrites an existing member.

type Output struct {
	UserID         string `json:"userId"`
	ReferenceID    int64  `json:"referenceId"`
	Replaced       bool   `json:"replaced"`
	ModelState     string `json:"riskModelState"`
	PopulationSize int    `json:"populationSize"`
}
