package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	ex "github.com/quantopy-dev/quantopy/extensions"
	m "github.com/quantopy-dev/quantopy/models"
	"github.com/quantopy-dev/quantopy/returns"
)

// lastRefreshedSentinel marks a series that has never received observations.
var lastRefreshedSentinel = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

var observationDateFormats = []string{
	time.DateOnly,
	time.RFC3339,
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func parseObservationDate(dateString string) (time.Time, error) {
	for _, format := range observationDateFormats {
		t, err := time.Parse(format, dateString)
		if err != nil {
			continue
		}
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: cannot parse date %q", returns.ErrInvalidInput, dateString)
}

// RegisterSymbol gets or creates the price series metadata for a symbol. A
// symbol that already exists comes back unchanged, so registration is safe to
// repeat.
func (sc *ServiceContext) RegisterSymbol(req m.SymbolRequest) (*m.SymbolResponse, error) {
	symbol := normalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", returns.ErrInvalidInput)
	}

	frequency := req.Frequency
	if strings.TrimSpace(frequency) == "" {
		frequency = returns.Daily.String()
	}
	period, err := returns.ParsePeriod(frequency)
	if err != nil {
		return nil, err
	}

	md, err := sc.PostgresConnection.GetMetadataBySymbol(sc.Context, symbol)
	if err != nil {
		return nil, fmt.Errorf("error determining if metadata exists for %s: %w", symbol, err)
	}
	if md != nil {
		res := m.MapMetadataToResponse(md)
		return &res, nil
	}

	sc.Logger.Info().Str("symbol", symbol).Str("frequency", period.String()).Msg("registering new symbol")

	md = &m.PriceSeriesMetadata{
		Symbol:        symbol,
		Frequency:     period.String(),
		LastRefreshed: lastRefreshedSentinel,
	}
	if err := sc.PostgresConnection.InsertNewMetadata(sc.Context, md, nil); err != nil {
		return nil, fmt.Errorf("error adding %s to the store: %w", symbol, err)
	}

	res := m.MapMetadataToResponse(md)
	return &res, nil
}

// ListSymbols returns every registered symbol.
func (sc *ServiceContext) ListSymbols() ([]m.SymbolResponse, error) {
	metadata, err := sc.PostgresConnection.GetAllMetadata(sc.Context)
	if err != nil {
		return nil, fmt.Errorf("error listing symbols: %w", err)
	}

	res := make([]m.SymbolResponse, len(metadata))
	for i, md := range metadata {
		res[i] = m.MapMetadataToResponse(md)
	}

	return res, nil
}

// IngestPrices stores uploaded observations for a registered symbol, keeping
// only the ones strictly newer than what is already stored. The insert and
// the last refreshed update ride one transaction.
func (sc *ServiceContext) IngestPrices(symbol string, req m.PriceUploadRequest) (*m.PriceUploadResponse, error) {
	symbol = normalizeSymbol(symbol)

	md, err := sc.PostgresConnection.GetMetadataBySymbol(sc.Context, symbol)
	if err != nil {
		return nil, fmt.Errorf("error getting metadata for %s: %w", symbol, err)
	}
	if md == nil {
		return nil, fmt.Errorf("%w: symbol %s is not registered", ErrNotFound, symbol)
	}

	if len(req.Observations) == 0 {
		return nil, fmt.Errorf("%w: upload carries no observations", returns.ErrEmptyInput)
	}

	observations, latest, err := buildObservations(md, req.Observations)
	if err != nil {
		return nil, err
	}

	mrd, err := sc.PostgresConnection.GetMostRecentTimestampForSymbol(sc.Context, symbol)
	if err != nil {
		return nil, fmt.Errorf("error getting most recent timestamp for %s: %w", symbol, err)
	}

	newer := ex.FilterMultiplePtr(observations, func(o *m.PriceObservation) bool {
		return mrd == nil || o.Timestamp.After(*mrd)
	})

	res := &m.PriceUploadResponse{
		Symbol:        symbol,
		Received:      len(req.Observations),
		LastRefreshed: md.LastRefreshed,
	}

	if len(newer) == 0 {
		sc.Logger.Info().Str("symbol", symbol).Int("received", res.Received).Msg("no observations newer than the store")
		return res, nil
	}

	tx, err := sc.PostgresConnection.GetTransaction(sc.Context)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(sc.Context) // this will kick off if we return before committing

	inserted, err := sc.PostgresConnection.InsertPriceObservations(sc.Context, newer, &md.Id, &tx)
	if err != nil {
		return nil, fmt.Errorf("error inserting observations for %s: %w", symbol, err)
	}

	if err := sc.PostgresConnection.UpdateLastRefreshedDate(sc.Context, symbol, latest, &tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(sc.Context); err != nil {
		return nil, fmt.Errorf("error committing upload for %s: %w", symbol, err)
	}

	sc.Logger.Info().
		Str("symbol", symbol).
		Int("received", res.Received).
		Int64("inserted", inserted).
		Msg("price observations ingested")

	res.Inserted = inserted
	res.LastRefreshed = latest
	return res, nil
}

// buildObservations parses and validates an upload into storable rows,
// returning the newest parsed timestamp alongside them.
func buildObservations(md *m.PriceSeriesMetadata, payloads []m.PriceObservationPayload) ([]*m.PriceObservation, time.Time, error) {
	observations := make([]*m.PriceObservation, len(payloads))
	latest := md.LastRefreshed

	seen := make(map[int64]bool, len(payloads))
	for i, p := range payloads {
		ts, err := parseObservationDate(p.Date)
		if err != nil {
			return nil, latest, err
		}
		if seen[ts.UnixNano()] {
			return nil, latest, fmt.Errorf("%w: duplicate observation at %s", returns.ErrInvalidInput, p.Date)
		}
		seen[ts.UnixNano()] = true

		if p.Price <= 0 {
			return nil, latest, fmt.Errorf("%w: price %v at %s, prices must be positive", returns.ErrInvalidInput, p.Price, p.Date)
		}

		observations[i] = &m.PriceObservation{
			SourceId:  md.Id,
			Timestamp: ts,
			Price:     null.FloatFrom(p.Price),
		}

		if ts.After(latest) {
			latest = ts
		}
	}

	return observations, latest, nil
}
