package core

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	m "github.com/quantopy-dev/quantopy/models"
	"github.com/quantopy-dev/quantopy/returns"
)

// RunAnalysis validates an ad hoc analysis request, records it in the run
// history, and analyzes every named symbol through the worker pool.
func (sc *ServiceContext) RunAnalysis(req m.AnalysisRequest) (*m.AnalysisResponse, error) {
	start := time.Now()

	settings, err := parseAnalysisSettings(req.Settings)
	if err != nil {
		return nil, err
	}

	symbols, err := normalizeAnalysisSymbols(req.Symbols)
	if err != nil {
		return nil, err
	}

	windowStart, windowEnd, err := parseAnalysisWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	run := buildRunHistory(nil, len(symbols), settings, windowStart, windowEnd)
	return sc.executeAnalysisRun(run, start, func() ([]m.ReturnAnalytics, error) {
		return sc.AnalyzeStoredSymbols(symbols, windowStart, windowEnd, settings)
	})
}

// RunGroupAnalysis analyzes every member of a stored group as one table
// aligned on the union of the members' observation dates.
func (sc *ServiceContext) RunGroupAnalysis(groupID int32, req m.GroupAnalysisRequest) (*m.AnalysisResponse, error) {
	start := time.Now()

	settings, err := parseAnalysisSettings(req.Settings)
	if err != nil {
		return nil, err
	}

	windowStart, windowEnd, err := parseAnalysisWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	group, err := sc.PostgresConnection.GetGroupByID(sc.Context, groupID)
	if err != nil {
		return nil, fmt.Errorf("error getting group %d: %w", groupID, err)
	}
	if group == nil {
		return nil, fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}

	symbols := make([]string, len(group.Members))
	for i, member := range group.Members {
		symbols[i] = member.Symbol
	}

	run := buildRunHistory(&group.Id, len(symbols), settings, windowStart, windowEnd)
	return sc.executeAnalysisRun(run, start, func() ([]m.ReturnAnalytics, error) {
		return sc.analyzeGroupMembers(symbols, windowStart, windowEnd, settings)
	})
}

// executeAnalysisRun brackets one analysis computation with its run history
// bookkeeping, marking the run failed or completed as it goes.
func (sc *ServiceContext) executeAnalysisRun(run m.AnalysisRunHistory, start time.Time, compute func() ([]m.ReturnAnalytics, error)) (*m.AnalysisResponse, error) {
	runId, err := sc.PostgresConnection.InsertAnalysisRunHistory(sc.Context, run)
	if err != nil {
		sc.Logger.Error().Err(err).Msg("error inserting analysis run history")
		return nil, err
	}

	sc.Logger.Info().
		Int32("run_id", runId).
		Int32("symbols", run.SymbolCount).
		Str("period", run.Period).
		Str("compounding", run.Compounding).
		Msg("starting analysis run")

	results, err := compute()
	if err != nil {
		return nil, sc.markAnalysisRunAsFailure(runId, err)
	}

	if err := sc.PostgresConnection.UpdateAnalysisRunAsSuccess(sc.Context, runId); err != nil {
		sc.Logger.Error().Err(err).Int32("run_id", runId).Msg("error marking analysis run as success")
		return nil, err
	}

	sc.Logger.Info().
		Int32("run_id", runId).
		Dur("elapsed", time.Since(start)).
		Msg("analysis run completed")

	return &m.AnalysisResponse{RunId: runId, Results: results}, nil
}

// analyzeGroupMembers loads every member's stored prices and analyzes them as
// one aligned table, so dates a member did not trade on stay missing cells
// instead of poisoning the run.
func (sc *ServiceContext) analyzeGroupMembers(symbols []string, windowStart, windowEnd *time.Time, settings analysisSettings) ([]m.ReturnAnalytics, error) {
	prices := make([]*m.SymbolPrices, len(symbols))
	for i, symbol := range symbols {
		sp, err := sc.PostgresConnection.GetSymbolPrices(sc.Context, symbol, windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("symbol %s: %w", symbol, err)
		}
		prices[i] = sp
	}

	table, err := buildAlignedReturnTable(prices)
	if err != nil {
		return nil, err
	}

	return buildTableAnalytics(table, settings)
}

func (sc *ServiceContext) markAnalysisRunAsFailure(runId int32, cause error) error {
	sc.Logger.Error().Err(cause).Int32("run_id", runId).Msg("analysis run failed")

	if err := sc.PostgresConnection.UpdateAnalysisRunAsFailure(sc.Context, runId, cause.Error()); err != nil {
		sc.Logger.Error().Err(err).Int32("run_id", runId).Msg("error marking analysis run as failure")
	}

	return cause
}

func normalizeAnalysisSymbols(symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: at least one symbol is required", returns.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(symbols))
	normalized := make([]string, len(symbols))
	for i, s := range symbols {
		symbol := normalizeSymbol(s)
		if symbol == "" {
			return nil, fmt.Errorf("%w: symbol %d is blank", returns.ErrInvalidInput, i)
		}
		if seen[symbol] {
			return nil, fmt.Errorf("%w: symbol %s appears more than once", returns.ErrInvalidInput, symbol)
		}

		seen[symbol] = true
		normalized[i] = symbol
	}

	return normalized, nil
}

func parseAnalysisWindow(start, end string) (*time.Time, *time.Time, error) {
	var windowStart, windowEnd *time.Time

	if start != "" {
		t, err := parseObservationDate(start)
		if err != nil {
			return nil, nil, err
		}
		windowStart = &t
	}

	if end != "" {
		t, err := parseObservationDate(end)
		if err != nil {
			return nil, nil, err
		}
		windowEnd = &t
	}

	if windowStart != nil && windowEnd != nil && windowStart.After(*windowEnd) {
		return nil, nil, fmt.Errorf("%w: window start %s is after window end %s", returns.ErrInvalidInput, start, end)
	}

	return windowStart, windowEnd, nil
}

func buildRunHistory(groupId *int32, symbolCount int, settings analysisSettings, windowStart, windowEnd *time.Time) m.AnalysisRunHistory {
	run := m.AnalysisRunHistory{
		Period:      settings.period.String(),
		Compounding: settings.compounding.String(),
		SymbolCount: int32(symbolCount),
	}

	if groupId != nil {
		run.GroupId = null.IntFrom(int64(*groupId))
	}
	if windowStart != nil {
		run.WindowStart = null.TimeFrom(*windowStart)
	}
	if windowEnd != nil {
		run.WindowEnd = null.TimeFrom(*windowEnd)
	}

	return run
}
