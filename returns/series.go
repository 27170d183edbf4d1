package returns

import (
	"fmt"
	"slices"
	"time"
)

// Series is a named, ordered sequence of simple periodic returns, optionally
// carrying a time index (nil index means ordinal positions). Constructors
// copy their input and every operation returns a new value, so a Series never
// changes after construction.
type Series struct {
	name   string
	index  []time.Time
	values []float64
}

// NewSeries wraps an existing return sequence with an ordinal index.
func NewSeries(name string, values []float64) Series {
	return Series{name: name, values: slices.Clone(values)}
}

// NewIndexedSeries wraps an existing return sequence with an explicit time
// index of the same length.
func NewIndexedSeries(name string, values []float64, index []time.Time) (Series, error) {
	if len(index) != len(values) {
		return Series{}, fmt.Errorf("%w: index length %d does not match value length %d", ErrInvalidInput, len(index), len(values))
	}
	return Series{name: name, values: slices.Clone(values), index: slices.Clone(index)}, nil
}

// SeriesFromPrices converts a price sequence into a return Series via
// PriceToReturns.
func SeriesFromPrices(name string, prices []float64) (Series, error) {
	rets, err := PriceToReturns(prices)
	if err != nil {
		return Series{}, err
	}
	return Series{name: name, values: rets}, nil
}

// SeriesFromIndexedPrices converts an indexed price sequence. The index entry
// for the first price has no return and is dropped, so the result carries
// index[1:].
func SeriesFromIndexedPrices(name string, prices []float64, index []time.Time) (Series, error) {
	if len(index) != len(prices) {
		return Series{}, fmt.Errorf("%w: index length %d does not match price length %d", ErrInvalidInput, len(index), len(prices))
	}

	rets, err := PriceToReturns(prices)
	if err != nil {
		return Series{}, err
	}

	return Series{name: name, values: rets, index: slices.Clone(index[1:])}, nil
}

func (s Series) Name() string { return s.name }

func (s Series) Len() int { return len(s.values) }

// Values returns a copy of the return sequence.
func (s Series) Values() []float64 { return slices.Clone(s.values) }

// Index returns a copy of the time index, or nil for an ordinal series.
func (s Series) Index() []time.Time { return slices.Clone(s.index) }

// Mean is the arithmetic mean return.
func (s Series) Mean() (float64, error) { return Mean(s.values) }

// Gmean is the geometric mean return.
func (s Series) Gmean() (float64, error) { return Gmean(s.values) }

// TotalReturn is the holding-period return over the whole series.
func (s Series) TotalReturn() (float64, error) { return TotalReturn(s.values) }

// Skew is the sample skewness of the series.
func (s Series) Skew() (float64, error) { return Skew(s.values) }

// ExcessKurtosis is the sample excess kurtosis of the series.
func (s Series) ExcessKurtosis() (float64, error) { return ExcessKurtosis(s.values) }

// IsNormal reports whether the series is consistent with a normal
// distribution at significance level alpha.
func (s Series) IsNormal(alpha float64) (bool, error) { return IsNormal(s.values, alpha) }

// Cumulated returns a new Series of gross cumulative values, same name and
// index.
func (s Series) Cumulated() Series {
	return Series{name: s.name, index: slices.Clone(s.index), values: Cumulate(s.values)}
}

// Log returns a new Series of continuously compounded returns, ln(1+R).
func (s Series) Log() (Series, error) {
	vals, err := LogReturns(s.values)
	if err != nil {
		return Series{}, err
	}
	return Series{name: s.name, index: slices.Clone(s.index), values: vals}, nil
}

// Annualized converts the series into an annual rate by compounding its
// geometric mean return over the period's annualization factor.
func (s Series) Annualized(period Period, compounding Compounding) (float64, error) {
	g, err := s.Gmean()
	if err != nil {
		return 0, err
	}
	return Annualize(g, period, compounding)
}

// ToTable wraps the series as a single-column Table. An empty name falls back
// to the series name. Purely structural, no numeric work.
func (s Series) ToTable(name string) Table {
	key := name
	if key == "" {
		key = s.name
	}

	col := DenseColumn(key, s.values)
	if s.index != nil {
		t, _ := NewIndexedTable(s.index, col)
		return t
	}

	t, _ := NewTable(col)
	return t
}
