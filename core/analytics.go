package core

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	m "github.com/quantopy-dev/quantopy/models"
	"github.com/quantopy-dev/quantopy/returns"
)

// DefaultAlpha is the significance level for the normality test when the
// request does not set one.
const DefaultAlpha = 0.05

// analysisSettings is the parsed, validated form of the request settings.
type analysisSettings struct {
	period            returns.Period
	compounding       returns.Compounding
	alpha             float64
	includeCumulative bool
	includeLogReturns bool
}

func parseAnalysisSettings(settings m.AnalysisRequestSettings) (analysisSettings, error) {
	parsed := analysisSettings{
		period:            returns.Daily,
		alpha:             settings.Alpha,
		includeCumulative: settings.IncludeCumulative,
		includeLogReturns: settings.IncludeLogReturns,
	}

	if settings.Period != "" {
		period, err := returns.ParsePeriod(settings.Period)
		if err != nil {
			return parsed, err
		}
		parsed.period = period
	}

	compounding, err := returns.ParseCompounding(settings.Compounding)
	if err != nil {
		return parsed, err
	}
	parsed.compounding = compounding

	if parsed.alpha == 0 {
		parsed.alpha = DefaultAlpha
	}
	if parsed.alpha < 0 || parsed.alpha >= 1 {
		return parsed, fmt.Errorf("%w: alpha %v is outside [0, 1)", returns.ErrInvalidInput, parsed.alpha)
	}

	return parsed, nil
}

// BuildReturnAnalytics computes the full result payload for one return
// series. The shape statistics stay null when the series is too short to
// support them, and the normality verdict stays null when the statistic is
// undefined, so a degenerate series never sinks a whole run.
func BuildReturnAnalytics(series returns.Series, settings analysisSettings) (*m.ReturnAnalytics, error) {
	mean, err := series.Mean()
	if err != nil {
		return nil, err
	}

	gmean, err := series.Gmean()
	if err != nil {
		return nil, err
	}

	total, err := series.TotalReturn()
	if err != nil {
		return nil, err
	}

	annualized, err := returns.Annualize(gmean, settings.period, settings.compounding)
	if err != nil {
		return nil, err
	}

	res := &m.ReturnAnalytics{
		Name:         series.Name(),
		Observations: series.Len(),
		Mean:         mean,
		Gmean:        gmean,
		TotalReturn:  total,
		Annualized:   annualized,
	}

	if index := series.Index(); len(index) > 0 {
		res.FirstObserved = null.TimeFrom(index[0])
		res.LastObserved = null.TimeFrom(index[len(index)-1])
	}

	if skew, err := series.Skew(); err == nil && !math.IsNaN(skew) {
		res.Skew = null.FloatFrom(skew)
	}
	if kurt, err := series.ExcessKurtosis(); err == nil && !math.IsNaN(kurt) {
		res.ExcessKurtosis = null.FloatFrom(kurt)
	}
	if jb, err := returns.JarqueBera(series.Values()); err == nil {
		res.JarqueBera = null.FloatFrom(jb)
		if normal, err := series.IsNormal(settings.alpha); err == nil {
			res.Normal = null.BoolFrom(normal)
		}
	}

	if settings.includeCumulative {
		res.Cumulative = series.Cumulated().Values()
	}
	if settings.includeLogReturns {
		logged, err := series.Log()
		if err != nil {
			return nil, err
		}
		res.LogReturns = logged.Values()
	}

	return res, nil
}

// AnalyzeSeries runs the stateless analytics operation over one posted
// sequence.
func AnalyzeSeries(req m.SeriesAnalyticsRequest) (*m.ReturnAnalytics, error) {
	settings, err := parseAnalysisSettings(req.Settings)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "series"
	}

	series, err := resolveSequence(name, req.Returns, req.Prices)
	if err != nil {
		return nil, err
	}

	res, err := BuildReturnAnalytics(series, settings)
	if err != nil {
		return nil, fmt.Errorf("series %q: %w", name, err)
	}

	return res, nil
}

// AnalyzeTable runs the stateless analytics operation over several posted
// sequences as one table. A failing column fails the whole request and the
// error names the column.
func AnalyzeTable(req m.TableAnalyticsRequest) (*m.TableAnalyticsResponse, error) {
	settings, err := parseAnalysisSettings(req.Settings)
	if err != nil {
		return nil, err
	}

	table, err := buildRequestTable(req.Columns)
	if err != nil {
		return nil, err
	}

	results, err := buildTableAnalytics(table, settings)
	if err != nil {
		return nil, err
	}

	return &m.TableAnalyticsResponse{Results: results}, nil
}

// resolveSequence turns one posted payload into a return series. Exactly one
// of returns or prices must be set.
func resolveSequence(name string, rets, prices []float64) (returns.Series, error) {
	switch {
	case len(rets) > 0 && len(prices) > 0:
		return returns.Series{}, fmt.Errorf("%w: %q carries both returns and prices", returns.ErrInvalidInput, name)
	case len(prices) > 0:
		series, err := returns.SeriesFromPrices(name, prices)
		if err != nil {
			return returns.Series{}, fmt.Errorf("%q: %w", name, err)
		}
		return series, nil
	case len(rets) > 0:
		return returns.NewSeries(name, rets), nil
	default:
		return returns.Series{}, fmt.Errorf("%w: %q carries neither returns nor prices", returns.ErrInvalidInput, name)
	}
}

func buildRequestTable(payloads []m.NamedSequencePayload) (returns.Table, error) {
	if len(payloads) == 0 {
		return returns.Table{}, fmt.Errorf("%w: table has no columns", returns.ErrEmptyInput)
	}

	cols := make([]returns.Column, len(payloads))
	for i, payload := range payloads {
		name := strings.TrimSpace(payload.Name)
		if name == "" {
			return returns.Table{}, fmt.Errorf("%w: column %d has no name", returns.ErrInvalidInput, i)
		}

		series, err := resolveSequence(name, payload.Returns, payload.Prices)
		if err != nil {
			return returns.Table{}, err
		}
		cols[i] = returns.DenseColumn(name, series.Values())
	}

	return returns.NewTable(cols...)
}

// buildTableAnalytics assembles the per-column result payloads from the
// table-wide aggregates, in column insertion order.
func buildTableAnalytics(table returns.Table, settings analysisSettings) ([]m.ReturnAnalytics, error) {
	means, err := table.Mean()
	if err != nil {
		return nil, err
	}
	gmeans, err := table.Gmean()
	if err != nil {
		return nil, err
	}
	totals, err := table.TotalReturn()
	if err != nil {
		return nil, err
	}
	annualized, err := table.Annualized(settings.period, settings.compounding)
	if err != nil {
		return nil, err
	}
	skews, err := table.Skew()
	if err != nil {
		return nil, err
	}
	kurts, err := table.ExcessKurtosis()
	if err != nil {
		return nil, err
	}

	var cumulated returns.Table
	if settings.includeCumulative {
		cumulated = table.Cumulated()
	}

	var logged returns.Table
	if settings.includeLogReturns {
		logged, err = table.Log()
		if err != nil {
			return nil, err
		}
	}

	index := table.Index()
	results := make([]m.ReturnAnalytics, 0, table.ColumnCount())
	for _, key := range table.Keys() {
		col, _ := table.Column(key)
		values := presentValues(col)

		res := m.ReturnAnalytics{
			Name:         key,
			Observations: len(values),
			Mean:         means[key],
			Gmean:        gmeans[key],
			TotalReturn:  totals[key],
			Annualized:   annualized[key],
		}

		if first, last, ok := observedRange(index, col); ok {
			res.FirstObserved = null.TimeFrom(first)
			res.LastObserved = null.TimeFrom(last)
		}

		if skew := skews[key]; !math.IsNaN(skew) {
			res.Skew = null.FloatFrom(skew)
		}
		if kurt := kurts[key]; !math.IsNaN(kurt) {
			res.ExcessKurtosis = null.FloatFrom(kurt)
		}
		if jb, err := returns.JarqueBera(values); err == nil {
			res.JarqueBera = null.FloatFrom(jb)
			if normal, err := returns.IsNormal(values, settings.alpha); err == nil {
				res.Normal = null.BoolFrom(normal)
			}
		}

		if settings.includeCumulative {
			if cumCol, ok := cumulated.Column(key); ok {
				res.Cumulative = presentValues(cumCol)
			}
		}
		if settings.includeLogReturns {
			if logCol, ok := logged.Column(key); ok {
				res.LogReturns = presentValues(logCol)
			}
		}

		results = append(results, res)
	}

	return results, nil
}

// buildAlignedReturnTable converts stored prices for several symbols into one
// return table on the union of their observation dates. Each symbol's returns
// come from its own consecutive observations, so a date only other symbols
// traded on shows up as a missing cell rather than a manufactured return.
func buildAlignedReturnTable(prices []*m.SymbolPrices) (returns.Table, error) {
	type datedReturns struct {
		name  string
		dates []time.Time
		rets  []float64
	}

	union := make(map[int64]time.Time)
	converted := make([]datedReturns, 0, len(prices))
	for _, sp := range prices {
		rets, err := returns.PriceToReturns(sp.Prices)
		if err != nil {
			return returns.Table{}, fmt.Errorf("symbol %s: %w", sp.Symbol, err)
		}

		dates := sp.Dates[1:]
		for _, d := range dates {
			union[d.UnixNano()] = d
		}
		converted = append(converted, datedReturns{name: sp.Symbol, dates: dates, rets: rets})
	}

	keys := make([]int64, 0, len(union))
	for k := range union {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	index := make([]time.Time, len(keys))
	rowOf := make(map[int64]int, len(keys))
	for i, k := range keys {
		index[i] = union[k]
		rowOf[k] = i
	}

	cols := make([]returns.Column, len(converted))
	for i, c := range converted {
		values := make([]null.Float, len(index))
		for j, d := range c.dates {
			values[rowOf[d.UnixNano()]] = null.FloatFrom(c.rets[j])
		}
		cols[i] = returns.Column{Name: c.name, Values: values}
	}

	return returns.NewIndexedTable(index, cols...)
}

func presentValues(col []null.Float) []float64 {
	values := make([]float64, 0, len(col))
	for _, v := range col {
		if v.Valid {
			values = append(values, v.Float64)
		}
	}
	return values
}

// observedRange finds the index timestamps of the first and last present
// cells in a column.
func observedRange(index []time.Time, col []null.Float) (time.Time, time.Time, bool) {
	first, last := -1, -1
	for i, v := range col {
		if !v.Valid {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}

	if first < 0 || last >= len(index) {
		return time.Time{}, time.Time{}, false
	}

	return index[first], index[last], true
}
