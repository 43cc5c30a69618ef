package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurveySchema(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantValid bool
		wantField string
	}{
		{
			name:      "valid submission",
			payload:   `{"demographics":{"idNumber":"123","gender":"F"},"sections":{"riskAversion":{"data":{"q1":4}}}}`,
			wantValid: true,
		},
		{
			name:      "numeric id number",
			payload:   `{"demographics":{"idNumber":123456}}`,
			wantValid: true,
		},
		{
			name:      "missing demographics",
			payload:   `{"sections":{}}`,
			wantField: "(root)",
		},
		{
			name:      "missing id number",
			payload:   `{"demographics":{"gender":"M"}}`,
			wantField: "demographics",
		},
		{
			name:      "section is not an object",
			payload:   `{"demographics":{"idNumber":"1"},"sections":{"impulsivity":5}}`,
			wantField: "sections.impulsivity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := SurveySchema.Validate([]byte(tt.payload))
			assert.Equal(t, tt.wantValid, res.Valid, res.GetErrorMessages())
			if tt.wantField != "" {
				assert.True(t, fieldFailed(res, tt.wantField), res.GetErrorMessages())
			}
		})
	}
}

func fieldFailed(res *ValidationResult, field string) bool {
	for _, e := range res.Errors {
		if e.Field == field || strings.HasPrefix(e.Field, field+".") {
			return true
		}
	}
	return false
}

func TestPlanSchema(t *testing.T) {
	assert.True(t, PlanSchema.Validate([]byte(`{"userId":"u1","period":12,"amount":5000}`)).Valid)
	assert.True(t, PlanSchema.Validate([]byte(`{"riskScore":55,"period":"null","instalment":300,"amount":"5000"}`)).Valid)

	res := PlanSchema.Validate([]byte(`{"period":12}`))
	require.False(t, res.Valid)
	assert.Contains(t, res.GetErrorMessages()[0], "amount")

	res = PlanSchema.Validate([]byte(`{"amount":100,"paymentType":"weekly"}`))
	assert.False(t, res.Valid)
	assert.True(t, fieldFailed(res, "paymentType"))

	res = PlanSchema.Validate([]byte(`{"amount":100,"notifyEmail":"not-an-address"}`))
	assert.False(t, res.Valid)
}

func TestNonDefaulterSchema_ValidateObject(t *testing.T) {
	res := NonDefaulterSchema.ValidateObject(map[string]interface{}{
		"userId":       "nd-1",
		"riskAversion": 7.5,
	})
	assert.True(t, res.Valid, res.GetErrorMessages())

	res = NonDefaulterSchema.ValidateObject(map[string]interface{}{
		"userId":       "nd-1",
		"riskAversion": "high",
	})
	assert.False(t, res.Valid)
	assert.Equal(t, "INVALID_TYPE", res.Errors[0].Code)
}

func TestMalformedJSON(t *testing.T) {
	res := SurveySchema.Validate([]byte(`{"demographics":`))
	require.False(t, res.Valid)
	assert.Equal(t, "MALFORMED_JSON", res.Errors[0].Code)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ana@example.com"))
	assert.False(t, ValidateEmail("ana@"))
}
