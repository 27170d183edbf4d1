package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	ex "github.com/quantopy-dev/quantopy/extensions"
	m "github.com/quantopy-dev/quantopy/models"
	"github.com/quantopy-dev/quantopy/returns"
)

const (
	DefaultWorkers   = 8
	DefaultBatchSize = 25
)

// job holds the index range of symbols one worker pass covers, end exclusive.
type job struct {
	start int
	end   int
}

func GetNumberOfJobsAndWorkers(symbols int, batchSize int, workers int) ([]job, int) {
	// divide the symbols into batches, rounding up so a partial batch still
	// gets a job, then cap the workers at the number of jobs
	nJobs := int(math.Ceil(float64(symbols) / float64(batchSize)))
	nWorkers := ex.Min(nJobs, workers)

	jobs := make([]job, nJobs)
	for i := range nJobs {
		jobs[i] = job{
			start: i * batchSize,
			end:   ex.Min((i+1)*batchSize, symbols),
		}
	}

	return jobs, nWorkers
}

func (sc *ServiceContext) workerSettings() (int, int) {
	workers := sc.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	batchSize := sc.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	return workers, batchSize
}

// AnalyzeStoredSymbols computes return analytics for every symbol from its
// stored observations, fanning the symbols out over a small worker pool. The
// results come back in the same order as the symbols. The first failing
// symbol cancels the remaining work.
func (sc *ServiceContext) AnalyzeStoredSymbols(symbols []string, windowStart, windowEnd *time.Time, settings analysisSettings) ([]m.ReturnAnalytics, error) {
	workers, batchSize := sc.workerSettings()
	jobs, nWorkers := GetNumberOfJobsAndWorkers(len(symbols), batchSize, workers)

	sc.Logger.Info().
		Int("symbols", len(symbols)).
		Int("jobs", len(jobs)).
		Int("workers", nWorkers).
		Msg("starting stored symbol analysis")

	jobsChannel := make(chan job, len(jobs))
	for _, v := range jobs {
		jobsChannel <- v
	}
	close(jobsChannel)

	// each job owns a disjoint index range, so workers write to their own
	// slots without coordination
	results := make([]m.ReturnAnalytics, len(symbols))

	g, ctx := errgroup.WithContext(sc.Context)
	for range nWorkers {
		g.Go(func() error {
			for j := range jobsChannel {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				for i := j.start; i < j.end; i++ {
					res, err := sc.analyzeStoredSymbol(ctx, symbols[i], windowStart, windowEnd, settings)
					if err != nil {
						return err
					}
					results[i] = *res
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (sc *ServiceContext) analyzeStoredSymbol(ctx context.Context, symbol string, windowStart, windowEnd *time.Time, settings analysisSettings) (*m.ReturnAnalytics, error) {
	sp, err := sc.PostgresConnection.GetSymbolPrices(ctx, symbol, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("symbol %s: %w", symbol, err)
	}

	series, err := returns.SeriesFromIndexedPrices(sp.Symbol, sp.Prices, sp.Dates)
	if err != nil {
		return nil, fmt.Errorf("symbol %s: %w", symbol, err)
	}

	res, err := BuildReturnAnalytics(series, settings)
	if err != nil {
		return nil, fmt.Errorf("symbol %s: %w", symbol, err)
	}

	return res, nil
}
