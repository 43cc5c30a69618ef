package survey

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"score-handler/internal/scoring"
)

var (
	ErrMissingDemographics = errors.New("submission has no demographics block")
	ErrMissingIDNumber     = errors.New("demographics block has no idNumber")
	ErrNonFiniteTotal      = errors.New("survey total is not a finite number")
)

// Submission is a parsed questionnaire: the demographics block and the
// remaining sections ordered by name.
type Submission struct {
	UserID       string
	Demographics map[string]any
	Sections     []scoring.Section
}

// Female reports whether the submitter declared gender F.
func (s *Submission) Female() bool {
	return scoring.IsFemale(s.Demographics)
}

// DecodeSubmission parses a JSON payload of the form
//
//	{"demographics": {"idNumber": "...", "gender": "F", ...},
//	 "sections": {"riskAversion": {"data": {...}, "metadata": {"weight": 1}}}}
func DecodeSubmission(payload []byte) (*Submission, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	return ParseSubmission(raw)
}

// ParseSubmission validates a decoded payload.
func ParseSubmission(raw map[string]any) (*Submission, error) {
	demo, ok := raw[scoring.SectionDemographics].(map[string]any)
	if !ok || demo == nil {
		return nil, ErrMissingDemographics
	}

	userID := scoring.Text(demo[scoring.FieldIDNumber])
	if userID == "" {
		return nil, ErrMissingIDNumber
	}

	sub := &Submission{UserID: userID, Demographics: demo}

	sections, _ := raw["sections"].(map[string]any)
	names := make([]string, 0, len(sections))
	for name := range sections {
		if name == scoring.SectionDemographics {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		section, err := parseSection(name, sections[name])
		if err != nil {
			return nil, err
		}
		sub.Sections = append(sub.Sections, section)
	}
	return sub, nil
}

func parseSection(name string, v any) (scoring.Section, error) {
	body, ok := v.(map[string]any)
	if !ok {
		return scoring.Section{}, fmt.Errorf("section %q must be an object", name)
	}

	section := scoring.Section{Name: name}
	if data, ok := body["data"].(map[string]any); ok {
		section.Answers = data
	} else if body["data"] != nil {
		return scoring.Section{}, fmt.Errorf("section %q: data must be an object", name)
	}

	// metadata.weight wins over a bare top-level weight.
	weightRaw, found := body["weight"]
	if meta, ok := body["metadata"].(map[string]any); ok {
		if w, ok := meta["weight"]; ok {
			weightRaw, found = w, true
		}
	}
	if found && weightRaw != nil {
		w, err := toFloat(weightRaw)
		if err != nil {
			return scoring.Section{}, fmt.Errorf("section %q: %w", name, err)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return scoring.Section{}, fmt.Errorf("section %q: weight must be a finite number", name)
		}
		if w < 0 {
			return scoring.Section{}, fmt.Errorf("section %q: weight must not be negative", name)
		}
		section.Weight = &w
	}
	return section, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("weight %q is not a number", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("weight has unsupported type %T", v)
	}
}
