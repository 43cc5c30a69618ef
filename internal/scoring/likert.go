package scoring

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	// NeutralAnswer is counted for answers that cannot be read as a number.
	NeutralAnswer = 3
	MinAnswer     = 1
	MaxAnswer     = 5
	// EmptySectionRaw is the raw mean used when a section has no questions.
	EmptySectionRaw = 5.0

	biasSteepness = 6.0
	biasMidpoint  = 0.5
	scoreFloor    = 1.0
	scoreSpan     = 8.0
)

// ScoreLikert averages the answers of a Likert section and applies the bias
// correction curve.
func ScoreLikert(answers map[string]any) float64 {
	return BiasCorrect(LikertMean(answers))
}

// LikertMean is the raw average of the answers, before bias correction.
func LikertMean(answers map[string]any) float64 {
	if len(answers) == 0 {
		return EmptySectionRaw
	}

	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 0
	for _, k := range keys {
		total += AnswerValue(answers[k])
	}
	return float64(total) / float64(len(keys))
}

// BiasCorrect maps a raw 1..5 mean through a logistic curve onto 1..9:
// x = (raw-1)/4, c = 1/(1+e^(-6(x-0.5))), score = 1 + 8c.
func BiasCorrect(raw float64) float64 {
	x := (raw - 1) / 4
	c := 1 / (1 + math.Exp(-biasSteepness*(x-biasMidpoint)))
	return scoreFloor + c*scoreSpan
}

// AnswerValue reads one answer as an integer on the MinAnswer..MaxAnswer
// scale. Numbers and numeric strings are truncated toward zero and clamped to
// the scale; anything else counts as NeutralAnswer.
func AnswerValue(v any) int {
	switch a := v.(type) {
	case int:
		return clampAnswer(float64(a))
	case int32:
		return clampAnswer(float64(a))
	case int64:
		return clampAnswer(float64(a))
	case float32:
		return clampAnswer(float64(a))
	case float64:
		return clampAnswer(a)
	case json.Number:
		return parseAnswer(a.String())
	case string:
		return parseAnswer(a)
	default:
		return NeutralAnswer
	}
}

func parseAnswer(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return NeutralAnswer
	}
	return clampAnswer(f)
}

func clampAnswer(f float64) int {
	if math.IsNaN(f) {
		return NeutralAnswer
	}
	return int(math.Min(MaxAnswer, math.Max(MinAnswer, math.Trunc(f))))
}
