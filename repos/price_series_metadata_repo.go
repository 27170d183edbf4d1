package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"

	m "github.com/quantopy-dev/quantopy/models"
	q "github.com/quantopy-dev/quantopy/queries"
)

func (pg *Postgres) GetAllMetadata(ctx context.Context) ([]*m.PriceSeriesMetadata, error) {
	sql := q.Get(q.QueryHelper.Select.AllMetadata)

	res, err := Query[m.PriceSeriesMetadata](ctx, pg, sql, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("unable to query all metadata: %w", err)
	}

	return res, nil
}

func (pg *Postgres) GetMetadataBySymbol(ctx context.Context, symbol string) (*m.PriceSeriesMetadata, error) {
	sql := q.Get(q.QueryHelper.Select.MetadataBySymbol)
	args := pgx.NamedArgs{
		"symbol": symbol,
	}

	res, err := Query[m.PriceSeriesMetadata](ctx, pg, sql, args)
	if err != nil {
		return nil, fmt.Errorf("unable to query metadata by symbol (%s): %w", symbol, err)
	}

	if len(res) == 0 {
		return nil, nil
	}

	return res[0], nil
}

func (pg *Postgres) InsertNewMetadata(ctx context.Context, metadata *m.PriceSeriesMetadata, tx *pgx.Tx) error {
	sql := q.Get(q.QueryHelper.Insert.Metadata)
	args := pgx.NamedArgs{
		"symbol":         metadata.Symbol,
		"frequency":      metadata.Frequency,
		"last_refreshed": metadata.LastRefreshed,
	}

	var err error
	if tx == nil {
		err = pg.db.QueryRow(ctx, sql, args).Scan(&metadata.Id, &metadata.CreatedAt, &metadata.UpdatedAt)
	} else {
		err = (*tx).QueryRow(ctx, sql, args).Scan(&metadata.Id, &metadata.CreatedAt, &metadata.UpdatedAt)
	}

	if err != nil {
		return fmt.Errorf("error inserting new metadata: %w", err)
	}

	return nil
}

func (pg *Postgres) UpdateLastRefreshedDate(ctx context.Context, symbol string, lastRefreshed time.Time, tx *pgx.Tx) (err error) {
	sql := q.Get(q.QueryHelper.Update.LastRefreshedDate)
	args := pgx.NamedArgs{
		"last_refreshed": lastRefreshed,
		"symbol":         symbol,
	}

	if tx == nil {
		_, err = pg.db.Exec(ctx, sql, args)
	} else {
		_, err = (*tx).Exec(ctx, sql, args)
	}

	return
}

// GetMostRecentTimestampForSymbol returns nil when the symbol has no stored
// observations yet.
func (pg *Postgres) GetMostRecentTimestampForSymbol(ctx context.Context, symbol string) (*time.Time, error) {
	sql := q.Get(q.QueryHelper.Select.MostRecentTimestampBySymbol)
	args := pgx.NamedArgs{
		"symbol": symbol,
	}

	var mostRecent null.Time
	if err := pg.db.QueryRow(ctx, sql, args).Scan(&mostRecent); err != nil {
		return nil, fmt.Errorf("error querying most recent timestamp for symbol (%s): %w", symbol, err)
	}

	if !mostRecent.Valid {
		return nil, nil
	}

	return &mostRecent.Time, nil
}
