package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/quantopy-dev/quantopy/models"
	"github.com/quantopy-dev/quantopy/returns"
)

func TestParseAnalysisSettingsDefaults(t *testing.T) {
	settings, err := parseAnalysisSettings(m.AnalysisRequestSettings{})
	require.NoError(t, err)

	assert.Equal(t, returns.Daily, settings.period)
	assert.Equal(t, returns.Simple, settings.compounding)
	assert.Equal(t, DefaultAlpha, settings.alpha)
	assert.False(t, settings.includeCumulative)
	assert.False(t, settings.includeLogReturns)
}

func TestParseAnalysisSettingsReadsRequest(t *testing.T) {
	settings, err := parseAnalysisSettings(m.AnalysisRequestSettings{
		Period:            "Monthly",
		Compounding:       "continuous",
		Alpha:             0.01,
		IncludeCumulative: true,
	})
	require.NoError(t, err)

	assert.Equal(t, returns.Monthly, settings.period)
	assert.Equal(t, returns.Continuous, settings.compounding)
	assert.Equal(t, 0.01, settings.alpha)
	assert.True(t, settings.includeCumulative)
}

func TestParseAnalysisSettingsRejectsBadInput(t *testing.T) {
	_, err := parseAnalysisSettings(m.AnalysisRequestSettings{Period: "fortnightly"})
	assert.ErrorIs(t, err, returns.ErrUnknownPeriod)

	_, err = parseAnalysisSettings(m.AnalysisRequestSettings{Compounding: "hourly"})
	assert.ErrorIs(t, err, returns.ErrInvalidInput)

	_, err = parseAnalysisSettings(m.AnalysisRequestSettings{Alpha: 1.5})
	assert.ErrorIs(t, err, returns.ErrInvalidInput)

	_, err = parseAnalysisSettings(m.AnalysisRequestSettings{Alpha: -0.05})
	assert.ErrorIs(t, err, returns.ErrInvalidInput)
}

func TestBuildReturnAnalyticsTwoReturns(t *testing.T) {
	series := returns.NewSeries("demo", []float64{0.2, 0.25})
	settings := analysisSettings{period: returns.Daily, compounding: returns.Simple, alpha: DefaultAlpha}

	res, err := BuildReturnAnalytics(series, settings)
	require.NoError(t, err)

	assert.Equal(t, "demo", res.Name)
	assert.Equal(t, 2, res.Observations)
	assert.InDelta(t, 0.225, res.Mean, 1e-12)
	assert.InDelta(t, 0.22474487, res.Gmean, 1e-8)
	assert.InDelta(t, 0.5, res.TotalReturn, 1e-12)
	assert.InEpsilon(t, math.Pow(1+res.Gmean, 252)-1, res.Annualized, 1e-12)

	// the sample corrected shape statistics are undefined for two values
	assert.False(t, res.Skew.Valid)
	assert.False(t, res.ExcessKurtosis.Valid)

	// two points around their mean have skew 0 and excess kurtosis -2 in
	// population terms, so the statistic is 2/6 * (0 + 4/4)
	require.True(t, res.JarqueBera.Valid)
	assert.InDelta(t, 1.0/3.0, res.JarqueBera.Float64, 1e-9)
	require.True(t, res.Normal.Valid)
	assert.True(t, res.Normal.Bool)

	assert.False(t, res.FirstObserved.Valid)
	assert.Nil(t, res.Cumulative)
	assert.Nil(t, res.LogReturns)
}

func TestBuildReturnAnalyticsOptionalSequences(t *testing.T) {
	series := returns.NewSeries("demo", []float64{0.25, -0.2})
	settings := analysisSettings{
		period:            returns.Daily,
		compounding:       returns.Simple,
		alpha:             DefaultAlpha,
		includeCumulative: true,
		includeLogReturns: true,
	}

	res, err := BuildReturnAnalytics(series, settings)
	require.NoError(t, err)

	require.Len(t, res.Cumulative, 2)
	assert.InDelta(t, 1.25, res.Cumulative[0], 1e-12)
	assert.InDelta(t, 1.0, res.Cumulative[1], 1e-9)

	require.Len(t, res.LogReturns, 2)
	assert.InDelta(t, math.Log(1.25), res.LogReturns[0], 1e-12)
	assert.InDelta(t, math.Log(0.8), res.LogReturns[1], 1e-12)
}

func TestBuildReturnAnalyticsShapeStatisticsForLongerSeries(t *testing.T) {
	series := returns.NewSeries("demo", []float64{0.1, -0.05, 0.2, 0.0, 0.03})
	settings := analysisSettings{period: returns.Daily, compounding: returns.Simple, alpha: DefaultAlpha}

	res, err := BuildReturnAnalytics(series, settings)
	require.NoError(t, err)

	require.True(t, res.Skew.Valid)
	assert.False(t, math.IsNaN(res.Skew.Float64))
	require.True(t, res.ExcessKurtosis.Valid)
	assert.False(t, math.IsNaN(res.ExcessKurtosis.Float64))
	require.True(t, res.JarqueBera.Valid)
	require.True(t, res.Normal.Valid)
}

func TestBuildReturnAnalyticsConstantSeriesSkipsNormality(t *testing.T) {
	series := returns.NewSeries("flat", []float64{0.01, 0.01, 0.01, 0.01})
	settings := analysisSettings{period: returns.Daily, compounding: returns.Simple, alpha: DefaultAlpha}

	res, err := BuildReturnAnalytics(series, settings)
	require.NoError(t, err)

	assert.InDelta(t, 0.01, res.Mean, 1e-12)
	assert.False(t, res.JarqueBera.Valid)
	assert.False(t, res.Normal.Valid)
}

func TestAnalyzeSeriesFromPrices(t *testing.T) {
	res, err := AnalyzeSeries(m.SeriesAnalyticsRequest{
		Name:   "demo",
		Prices: []float64{10, 12, 15},
	})
	require.NoError(t, err)

	assert.Equal(t, "demo", res.Name)
	assert.Equal(t, 2, res.Observations)
	assert.InDelta(t, 0.225, res.Mean, 1e-12)
	assert.InDelta(t, 0.22474487, res.Gmean, 1e-8)
	assert.InDelta(t, 0.5, res.TotalReturn, 1e-12)
}

func TestAnalyzeSeriesNamelessPayloadGetsAName(t *testing.T) {
	res, err := AnalyzeSeries(m.SeriesAnalyticsRequest{Returns: []float64{0.1, 0.2}})
	require.NoError(t, err)

	assert.Equal(t, "series", res.Name)
}

func TestAnalyzeSeriesRejectsAmbiguousPayloads(t *testing.T) {
	_, err := AnalyzeSeries(m.SeriesAnalyticsRequest{
		Returns: []float64{0.1},
		Prices:  []float64{10, 11},
	})
	assert.ErrorIs(t, err, returns.ErrInvalidInput)

	_, err = AnalyzeSeries(m.SeriesAnalyticsRequest{})
	assert.ErrorIs(t, err, returns.ErrInvalidInput)
}

func TestAnalyzeSeriesSinglePriceIsInsufficient(t *testing.T) {
	_, err := AnalyzeSeries(m.SeriesAnalyticsRequest{Name: "lonely", Prices: []float64{42}})

	assert.ErrorIs(t, err, returns.ErrInsufficientData)
	assert.ErrorContains(t, err, "lonely")
}

func TestAnalyzeTableMixedColumns(t *testing.T) {
	res, err := AnalyzeTable(m.TableAnalyticsRequest{
		Columns: []m.NamedSequencePayload{
			{Name: "a", Returns: []float64{0.25, -0.2}},
			{Name: "b", Prices: []float64{10, 11, 12.1}},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)

	a := res.Results[0]
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, 2, a.Observations)
	assert.InDelta(t, 0.025, a.Mean, 1e-12)
	assert.InDelta(t, 0.0, a.TotalReturn, 1e-9)

	b := res.Results[1]
	assert.Equal(t, "b", b.Name)
	assert.Equal(t, 2, b.Observations)
	assert.InDelta(t, 0.1, b.Mean, 1e-9)
	assert.InDelta(t, 0.1, b.Gmean, 1e-9)
	assert.InDelta(t, 0.21, b.TotalReturn, 1e-9)
}

func TestAnalyzeTableFailingColumnNamesIt(t *testing.T) {
	_, err := AnalyzeTable(m.TableAnalyticsRequest{
		Columns: []m.NamedSequencePayload{
			{Name: "ok", Returns: []float64{0.1, 0.2}},
			{Name: "bad", Prices: []float64{5}},
		},
	})

	assert.ErrorIs(t, err, returns.ErrInsufficientData)
	assert.ErrorContains(t, err, "bad")
}

func TestAnalyzeTableRejectsEmptyAndNamelessColumns(t *testing.T) {
	_, err := AnalyzeTable(m.TableAnalyticsRequest{})
	assert.ErrorIs(t, err, returns.ErrEmptyInput)

	_, err = AnalyzeTable(m.TableAnalyticsRequest{
		Columns: []m.NamedSequencePayload{{Returns: []float64{0.1}}},
	})
	assert.ErrorIs(t, err, returns.ErrInvalidInput)
}

func TestBuildAlignedReturnTable(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 2)
	d4 := d1.AddDate(0, 0, 3)

	prices := []*m.SymbolPrices{
		{Symbol: "AAA", Dates: []time.Time{d1, d2, d3}, Prices: []float64{10, 11, 12.1}},
		{Symbol: "BBB", Dates: []time.Time{d2, d3, d4}, Prices: []float64{20, 22, 24.2}},
	}

	table, err := buildAlignedReturnTable(prices)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB"}, table.Keys())
	assert.Equal(t, 3, table.Len())
	require.Equal(t, []time.Time{d2, d3, d4}, table.Index())

	aaa, ok := table.Column("AAA")
	require.True(t, ok)
	assert.True(t, aaa[0].Valid)
	assert.True(t, aaa[1].Valid)
	assert.False(t, aaa[2].Valid)
	assert.InDelta(t, 0.1, aaa[0].Float64, 1e-9)

	bbb, ok := table.Column("BBB")
	require.True(t, ok)
	assert.False(t, bbb[0].Valid)
	assert.True(t, bbb[1].Valid)
	assert.True(t, bbb[2].Valid)
}

func TestBuildTableAnalyticsOverAlignedTable(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 2)
	d4 := d1.AddDate(0, 0, 3)

	prices := []*m.SymbolPrices{
		{Symbol: "AAA", Dates: []time.Time{d1, d2, d3}, Prices: []float64{10, 11, 12.1}},
		{Symbol: "BBB", Dates: []time.Time{d2, d3, d4}, Prices: []float64{20, 22, 24.2}},
	}

	table, err := buildAlignedReturnTable(prices)
	require.NoError(t, err)

	settings := analysisSettings{period: returns.Daily, compounding: returns.Simple, alpha: DefaultAlpha}
	results, err := buildTableAnalytics(table, settings)
	require.NoError(t, err)
	require.Len(t, results, 2)

	aaa := results[0]
	assert.Equal(t, "AAA", aaa.Name)
	assert.Equal(t, 2, aaa.Observations)
	assert.InDelta(t, 0.1, aaa.Mean, 1e-9)
	require.True(t, aaa.FirstObserved.Valid)
	assert.True(t, aaa.FirstObserved.Time.Equal(d2))
	require.True(t, aaa.LastObserved.Valid)
	assert.True(t, aaa.LastObserved.Time.Equal(d3))

	bbb := results[1]
	assert.Equal(t, "BBB", bbb.Name)
	assert.Equal(t, 2, bbb.Observations)
	require.True(t, bbb.FirstObserved.Valid)
	assert.True(t, bbb.FirstObserved.Time.Equal(d3))
	require.True(t, bbb.LastObserved.Valid)
	assert.True(t, bbb.LastObserved.Time.Equal(d4))
}
