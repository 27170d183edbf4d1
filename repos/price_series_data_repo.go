package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	m "github.com/quantopy-dev/quantopy/models"
	q "github.com/quantopy-dev/quantopy/queries"
)

func (pg *Postgres) GetPriceObservations(ctx context.Context, symbol string, windowStart, windowEnd *time.Time) ([]*m.PriceObservation, error) {
	sql := q.Get(q.QueryHelper.Select.PriceObservationsBySymbol)
	args := pgx.NamedArgs{
		"symbol":       symbol,
		"window_start": windowStart,
		"window_end":   windowEnd,
	}

	res, err := Query[m.PriceObservation](ctx, pg, sql, args)
	if err != nil {
		return nil, fmt.Errorf("unable to query price observations by symbol (%s): %w", symbol, err)
	}

	return res, nil
}

// GetSymbolPrices assembles the stored observations for one symbol into
// parallel date and price slices, oldest first, dropping null prices.
func (pg *Postgres) GetSymbolPrices(ctx context.Context, symbol string, windowStart, windowEnd *time.Time) (*m.SymbolPrices, error) {
	obs, err := pg.GetPriceObservations(ctx, symbol, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	res := &m.SymbolPrices{
		Symbol: symbol,
		Dates:  make([]time.Time, 0, len(obs)),
		Prices: make([]float64, 0, len(obs)),
	}

	for _, o := range obs {
		if !o.Price.Valid {
			continue
		}
		res.SourceId = o.SourceId
		res.Dates = append(res.Dates, o.Timestamp)
		res.Prices = append(res.Prices, o.Price.Float64)
	}

	return res, nil
}

// InsertPriceObservations bulk inserts observations, stamping sourceId over
// each row when provided.
func (pg *Postgres) InsertPriceObservations(ctx context.Context, data []*m.PriceObservation, sourceId *int32, tx *pgx.Tx) (int64, error) {
	columns := []string{"source_id", "timestamp", "price"}

	entries := make([][]any, len(data))
	for i, ent := range data {
		sid := ent.SourceId
		if sourceId != nil {
			sid = *sourceId
		}
		entries[i] = []any{sid, ent.Timestamp, ent.Price}
	}

	return pg.BulkInsert(ctx, "price_series_data", columns, entries, tx)
}
