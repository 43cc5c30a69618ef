package amortization

import (
	"fmt"
	"strings"
)

// Mode says which side of the annuity the caller fixed.
type Mode int

const (
	// ModePeriod fixes the number of monthly periods and solves for the payment.
	ModePeriod Mode = iota + 1
	// ModeInstalment fixes the payment and solves for the number of periods.
	ModeInstalment
)

func (m Mode) String() string {
	switch m {
	case ModePeriod:
		return "period"
	case ModeInstalment:
		return "instalment"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "period" and "instalment" (or "installment").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "period":
		return ModePeriod, nil
	case "instalment", "installment":
		return ModeInstalment, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case ModePeriod, ModeInstalment:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
