package returns

import "errors"

// Error kinds raised by the package. Call sites wrap these with context, so
// check them with errors.Is.
var (
	// ErrInsufficientData marks a price-to-return conversion with fewer than
	// two price observations.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrEmptyInput marks an aggregate requested over zero present values.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidInput marks undefined return arithmetic: a zero or negative
	// base price, or a geometric-mean or log computation over a non-positive
	// gross return.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownPeriod marks an annualization request naming a period outside
	// the enumerated set.
	ErrUnknownPeriod = errors.New("unknown period")
)
