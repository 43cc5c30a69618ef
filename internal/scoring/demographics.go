package scoring

import (
	"fmt"
	"strconv"
)

// Demographic answer keys.
const (
	FieldGender     = "gender"
	FieldOccupation = "occupation"
	FieldIDNumber   = "idNumber"
)

const (
	GenderFemale = "F"

	OccupationEmployed   = "Empleado"
	OccupationUnemployed = "Desempleado"
)

const (
	femaleGenderScore = 8.0
	otherGenderScore  = 3.0
	femaleMultiplier  = 1.4

	employedScore   = 8.0
	unemployedScore = 2.0
	otherOccupation = 5.0
)

// ScoreDemographics averages the gender and occupation scores and applies the
// gender multiplier.
func ScoreDemographics(answers map[string]any) float64 {
	gender := Text(answers[FieldGender])

	genderScore, multiplier := otherGenderScore, 1.0
	if gender == GenderFemale {
		genderScore, multiplier = femaleGenderScore, femaleMultiplier
	}

	var occupationScore float64
	switch Text(answers[FieldOccupation]) {
	case OccupationEmployed:
		occupationScore = employedScore
	case OccupationUnemployed:
		occupationScore = unemployedScore
	default:
		occupationScore = otherOccupation
	}

	return (genderScore + occupationScore) / 2 * multiplier
}

// IsFemale reports whether the demographics block declares gender F.
func IsFemale(answers map[string]any) bool {
	return Text(answers[FieldGender]) == GenderFemale
}

// Text renders an answer as a string; nil becomes "".
func Text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
