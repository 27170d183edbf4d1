package returns

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/guregu/null/v6"
)

// Column is one named return sequence destined for a Table. An invalid
// null.Float marks a missing observation at that row.
type Column struct {
	Name   string
	Values []null.Float
}

// PriceColumn is one named price sequence for TableFromPrices.
type PriceColumn struct {
	Name   string
	Prices []float64
}

// DenseColumn builds a Column with every observation present.
func DenseColumn(name string, values []float64) Column {
	vals := make([]null.Float, len(values))
	for i, v := range values {
		vals[i] = null.FloatFrom(v)
	}
	return Column{Name: name, Values: vals}
}

// Table holds named return sequences sharing one row index. Key order is the
// order columns were supplied. Columns may have missing observations;
// aggregates skip them. Like Series, a Table never changes after
// construction: every operation returns a new value.
type Table struct {
	keys  []string
	cols  map[string][]null.Float
	index []time.Time
	rows  int
}

// NewTable builds a Table from return columns with an ordinal row index.
// Shorter columns are padded with trailing missing observations to the
// longest column. Duplicate column names are ErrInvalidInput.
func NewTable(cols ...Column) (Table, error) {
	rows := 0
	for _, c := range cols {
		if len(c.Values) > rows {
			rows = len(c.Values)
		}
	}
	return buildTable(nil, rows, cols)
}

// NewIndexedTable builds a Table whose rows follow an explicit time index.
// Columns longer than the index are ErrInvalidInput; shorter columns are
// padded with trailing missing observations.
func NewIndexedTable(index []time.Time, cols ...Column) (Table, error) {
	for _, c := range cols {
		if len(c.Values) > len(index) {
			return Table{}, fmt.Errorf("%w: column %q has %d values but the index has %d entries", ErrInvalidInput, c.Name, len(c.Values), len(index))
		}
	}
	return buildTable(slices.Clone(index), len(index), cols)
}

// TableFromPrices converts each price column independently via PriceToReturns
// and aligns the results. A conversion failure on any column fails the whole
// construction; the error names the column.
func TableFromPrices(cols ...PriceColumn) (Table, error) {
	converted := make([]Column, len(cols))
	for i, c := range cols {
		rets, err := PriceToReturns(c.Prices)
		if err != nil {
			return Table{}, fmt.Errorf("column %q: %w", c.Name, err)
		}
		converted[i] = DenseColumn(c.Name, rets)
	}
	return NewTable(converted...)
}

func buildTable(index []time.Time, rows int, cols []Column) (Table, error) {
	t := Table{
		keys:  make([]string, 0, len(cols)),
		cols:  make(map[string][]null.Float, len(cols)),
		index: index,
		rows:  rows,
	}

	for _, c := range cols {
		if _, ok := t.cols[c.Name]; ok {
			return Table{}, fmt.Errorf("%w: duplicate column %q", ErrInvalidInput, c.Name)
		}

		// the zero null.Float is invalid, so the tail padding is missing
		vals := make([]null.Float, rows)
		copy(vals, c.Values)

		t.keys = append(t.keys, c.Name)
		t.cols[c.Name] = vals
	}

	return t, nil
}

// Keys returns the column names in the order they were supplied.
func (t Table) Keys() []string { return slices.Clone(t.keys) }

// Len returns the number of rows.
func (t Table) Len() int { return t.rows }

// ColumnCount returns the number of columns.
func (t Table) ColumnCount() int { return len(t.keys) }

// Index returns a copy of the time index, or nil for an ordinal table.
func (t Table) Index() []time.Time { return slices.Clone(t.index) }

// Column returns a copy of the named column and whether it exists.
func (t Table) Column(name string) ([]null.Float, bool) {
	col, ok := t.cols[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(col), true
}

// Mean computes the arithmetic mean return per column, skipping missing
// observations.
func (t Table) Mean() (map[string]float64, error) { return t.aggregate(Mean) }

// Gmean computes the geometric mean return per column, skipping missing
// observations.
func (t Table) Gmean() (map[string]float64, error) { return t.aggregate(Gmean) }

// TotalReturn computes the holding-period return per column, skipping missing
// observations.
func (t Table) TotalReturn() (map[string]float64, error) { return t.aggregate(TotalReturn) }

// Skew computes the sample skewness per column, skipping missing
// observations.
func (t Table) Skew() (map[string]float64, error) { return t.aggregate(Skew) }

// ExcessKurtosis computes the sample excess kurtosis per column, skipping
// missing observations.
func (t Table) ExcessKurtosis() (map[string]float64, error) { return t.aggregate(ExcessKurtosis) }

// Annualized compounds each column's geometric mean return into an annual
// rate.
func (t Table) Annualized(period Period, compounding Compounding) (map[string]float64, error) {
	return t.aggregate(func(vals []float64) (float64, error) {
		g, err := Gmean(vals)
		if err != nil {
			return 0, err
		}
		return Annualize(g, period, compounding)
	})
}

// aggregate applies one scalar primitive per column over the present values.
// A failure on any column fails the whole aggregate; the error names the
// column. Result keys match Keys().
func (t Table) aggregate(op func([]float64) (float64, error)) (map[string]float64, error) {
	if len(t.keys) == 0 {
		return nil, fmt.Errorf("%w: table has no columns", ErrEmptyInput)
	}

	res := make(map[string]float64, len(t.keys))
	for _, key := range t.keys {
		value, err := op(present(t.cols[key]))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", key, err)
		}
		res[key] = value
	}

	return res, nil
}

// Cumulated returns a new Table of gross cumulative values per column.
// Missing observations stay missing and do not interrupt the running product
// of the cells around them.
func (t Table) Cumulated() Table {
	out := t.emptyLike()
	for _, key := range t.keys {
		col := t.cols[key]
		vals := make([]null.Float, len(col))
		acc := 1.0
		for i, v := range col {
			if !v.Valid {
				continue
			}
			acc *= 1 + v.Float64
			vals[i] = null.FloatFrom(acc)
		}
		out.cols[key] = vals
	}
	return out
}

// Log returns a new Table of continuously compounded returns, ln(1+R) per
// cell. Missing observations stay missing. Any present gross return at or
// below zero fails the whole operation; the error names the column.
func (t Table) Log() (Table, error) {
	out := t.emptyLike()
	for _, key := range t.keys {
		col := t.cols[key]
		vals := make([]null.Float, len(col))
		for i, v := range col {
			if !v.Valid {
				continue
			}
			if 1+v.Float64 <= 0 {
				return Table{}, fmt.Errorf("column %q: %w: gross return at row %d is %v, log return is undefined", key, ErrInvalidInput, i, 1+v.Float64)
			}
			vals[i] = null.FloatFrom(math.Log1p(v.Float64))
		}
		out.cols[key] = vals
	}
	return out, nil
}

func (t Table) emptyLike() Table {
	return Table{
		keys:  slices.Clone(t.keys),
		cols:  make(map[string][]null.Float, len(t.keys)),
		index: slices.Clone(t.index),
		rows:  t.rows,
	}
}

func present(col []null.Float) []float64 {
	res := make([]float64, 0, len(col))
	for _, v := range col {
		if v.Valid {
			res = append(res, v.Float64)
		}
	}
	return res
}
