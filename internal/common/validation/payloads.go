package validation

// Request payload schemas. They check shape and types only; numeric ranges
// are enforced by the scoring and amortization packages.

const surveySchemaJSON = `{
  "type": "object",
  "required": ["demographics"],
  "properties": {
    "demographics": {
      "type": "object",
      "required": ["idNumber"],
      "properties": {
        "idNumber":   {"type": ["string", "number"]},
        "gender":     {"type": "string"},
        "occupation": {"type": "string"}
      }
    },
    "sections": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "data":     {"type": "object"},
          "weight":   {"type": ["number", "string"]},
          "metadata": {"type": "object"}
        }
      }
    }
  }
}`

const planSchemaJSON = `{
  "type": "object",
  "required": ["amount"],
  "properties": {
    "userId":       {"type": ["string", "number"]},
    "riskScore":    {"type": ["number", "string"]},
    "user_risk":    {"type": ["number", "string"]},
    "paymentType":  {"type": "string", "enum": ["period", "instalment", "installment"]},
    "payment_type": {"type": "string", "enum": ["period", "instalment", "installment"]},
    "period":       {"type": ["number", "string", "null"]},
    "instalment":   {"type": ["number", "string", "null"]},
    "amount":       {"type": ["number", "string"]},
    "notifyEmail":  {"type": "string", "format": "email"}
  }
}`

const nonDefaulterSchemaJSON = `{
  "type": "object",
  "required": ["userId"],
  "properties": {
    "userId":                  {"type": ["string", "number"]},
    "demographics":            {"type": "number"},
    "financialResponsibility": {"type": "number"},
    "riskAversion":            {"type": "number"},
    "impulsivity":             {"type": "number"},
    "futureOrientation":       {"type": "number"},
    "financialKnowledge":      {"type": "number"},
    "locusOfControl":          {"type": "number"},
    "socialInfluence":         {"type": "number"},
    "resilience":              {"type": "number"},
    "familismo":               {"type": "number"},
    "respect":                 {"type": "number"},
    "riskLevel":               {"type": "number"},
    "risk_level":              {"type": "number"}
  }
}`

var (
	SurveySchema       = MustCompile("survey", surveySchemaJSON)
	PlanSchema         = MustCompile("repayment-plan", planSchemaJSON)
	NonDefaulterSchema = MustCompile("non-defaulter", nonDefaulterSchemaJSON)
)
