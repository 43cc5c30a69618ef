// Package scoring converts the answers of a single questionnaire section into
// a numeric score.
package scoring

import (
	"fmt"
	"strings"
)

// Section names with special handling.
const (
	SectionDemographics = "demographics"
	SectionConsent      = "consent"
)

// Kind selects the scoring rule for a section.
type Kind int

const (
	KindLikert Kind = iota
	KindDemographics
)

func (k Kind) String() string {
	switch k {
	case KindLikert:
		return "likert"
	case KindDemographics:
		return "demographics"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindFor returns the scoring rule for a section name. Every section that is
// not the demographics block is a Likert section.
func KindFor(sectionName string) Kind {
	if sectionName == SectionDemographics {
		return KindDemographics
	}
	return KindLikert
}

// Section is one block of a submission: question id -> raw answer, plus the
// optional weight taken from the section metadata.
type Section struct {
	Name    string
	Answers map[string]any
	Weight  *float64
}

// EffectiveWeight is the metadata weight, or 1 when absent.
func (s Section) EffectiveWeight() float64 {
	if s.Weight == nil {
		return 1
	}
	return *s.Weight
}

// Skipped reports whether the section takes no part in scoring: an explicit
// zero weight or the consent block.
func (s Section) Skipped() bool {
	if strings.EqualFold(s.Name, SectionConsent) {
		return true
	}
	return s.Weight != nil && *s.Weight == 0
}

// Score dispatches on the section kind.
func Score(s Section) float64 {
	switch KindFor(s.Name) {
	case KindDemographics:
		return ScoreDemographics(s.Answers)
	case KindLikert:
		return ScoreLikert(s.Answers)
	default:
		panic(fmt.Sprintf("scoring: unhandled kind for section %q", s.Name))
	}
}
