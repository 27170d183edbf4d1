package returns

import (
	"errors"
	"testing"

	ex "github.com/quantopy-dev/quantopy/extensions"
)

func TestAnnualizationFactor(t *testing.T) {
	tests := []struct {
		period   Period
		expected int
	}{
		{period: Daily, expected: 252},
		{period: Weekly, expected: 52},
		{period: Monthly, expected: 12},
		{period: Quarterly, expected: 4},
		{period: Semiannual, expected: 2},
		{period: Yearly, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.period.String(), func(t *testing.T) {
			factor, err := tt.period.AnnualizationFactor()
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			ex.AssertAreEqual(t, "annualization factor", tt.expected, factor)
		})
	}

	if _, err := Period(99).AnnualizationFactor(); !errors.Is(err, ErrUnknownPeriod) {
		t.Fatalf("expected ErrUnknownPeriod, got %v", err)
	}
}

func TestParsePeriodIsCaseInvariant(t *testing.T) {
	for _, input := range []string{"monthly", "Monthly", "MONTHLY", "  monthly "} {
		p, err := ParsePeriod(input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %s", input, err)
		}
		ex.AssertAreEqual(t, "parsed period", Monthly, p)
	}

	if _, err := ParsePeriod("fortnightly"); !errors.Is(err, ErrUnknownPeriod) {
		t.Fatalf("expected ErrUnknownPeriod, got %v", err)
	}
}

func TestPeriodStringRoundTrips(t *testing.T) {
	for _, p := range []Period{Daily, Weekly, Monthly, Quarterly, Semiannual, Yearly} {
		parsed, err := ParsePeriod(p.String())
		if err != nil {
			t.Fatalf("unexpected error for %s: %s", p, err)
		}
		ex.AssertAreEqual(t, "round-tripped period", p, parsed)
	}
}

func TestParseCompounding(t *testing.T) {
	c, err := ParseCompounding("")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ex.AssertAreEqual(t, "default compounding", Simple, c)

	c, err = ParseCompounding("Continuous")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ex.AssertAreEqual(t, "parsed compounding", Continuous, c)

	if _, err := ParseCompounding("hourly"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
