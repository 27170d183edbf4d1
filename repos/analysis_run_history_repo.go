package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	m "github.com/quantopy-dev/quantopy/models"
	q "github.com/quantopy-dev/quantopy/queries"
)

func (pg *Postgres) InsertAnalysisRunHistory(ctx context.Context, run m.AnalysisRunHistory) (int32, error) {
	sql := q.Get(q.QueryHelper.Insert.AnalysisRun)
	args := pgx.NamedArgs{
		"group_id":     run.GroupId,
		"period":       run.Period,
		"compounding":  run.Compounding,
		"symbol_count": run.SymbolCount,
		"window_start": run.WindowStart,
		"window_end":   run.WindowEnd,
	}

	var runId int32
	if err := pg.db.QueryRow(ctx, sql, args).Scan(&runId); err != nil {
		return 0, fmt.Errorf("error inserting analysis run history: %w", err)
	}

	return runId, nil
}

func (pg *Postgres) UpdateAnalysisRunAsFailure(ctx context.Context, runId int32, errorMessage string) error {
	cleanErrorMessage := strings.TrimSpace(errorMessage)
	if cleanErrorMessage == "" {
		return fmt.Errorf("error message is required if analysis run is failing, occurred in %d", runId)
	}

	return pg.updateAnalysisRun(ctx, pgx.NamedArgs{
		"id":            runId,
		"error_message": cleanErrorMessage,
	})
}

func (pg *Postgres) UpdateAnalysisRunAsSuccess(ctx context.Context, runId int32) error {
	return pg.updateAnalysisRun(ctx, pgx.NamedArgs{
		"id":            runId,
		"error_message": nil,
	})
}

func (pg *Postgres) updateAnalysisRun(ctx context.Context, args pgx.NamedArgs) error {
	sql := q.Get(q.QueryHelper.Update.AnalysisRun)
	if _, err := pg.db.Exec(ctx, sql, args); err != nil {
		return fmt.Errorf("error updating analysis run: %w", err)
	}
	return nil
}
