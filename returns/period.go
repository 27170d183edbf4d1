package returns

import (
	"fmt"
	"strings"
)

// Period specifies the compounding frequency of a return sequence. It is used
// only to look up the periods-per-year factor during annualization.
type Period uint8

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Semiannual
	Yearly
)

// AnnualizationFactor returns the number of compounding periods in one year.
func (p Period) AnnualizationFactor() (int, error) {
	switch p {
	case Daily:
		return 252, nil
	case Weekly:
		return 52, nil
	case Monthly:
		return 12, nil
	case Quarterly:
		return 4, nil
	case Semiannual:
		return 2, nil
	case Yearly:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: period code %d", ErrUnknownPeriod, uint8(p))
	}
}

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Semiannual:
		return "semiannual"
	case Yearly:
		return "yearly"
	default:
		return ""
	}
}

// ParsePeriod maps a period name to its constant, case invariant. Intended
// for external input at the service boundary; inside the package a Period is
// always one of the enumerated constants.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "quarterly":
		return Quarterly, nil
	case "semiannual":
		return Semiannual, nil
	case "yearly":
		return Yearly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}

// Compounding selects the convention Annualize uses to scale a periodic rate
// to a year.
type Compounding uint8

const (
	Simple Compounding = iota
	Continuous
)

func (c Compounding) String() string {
	switch c {
	case Simple:
		return "simple"
	case Continuous:
		return "continuous"
	default:
		return ""
	}
}

// ParseCompounding maps a compounding name to its constant, case invariant.
func ParseCompounding(s string) (Compounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return Simple, nil
	case "continuous":
		return Continuous, nil
	default:
		return 0, fmt.Errorf("%w: compounding %q is not recognized", ErrInvalidInput, s)
	}
}
