package models

import (
	"time"

	"github.com/guregu/null/v6"
)

type PriceSeriesMetadata struct {
	Id            int32     `db:"id"`
	Symbol        string    `db:"symbol"`
	Frequency     string    `db:"frequency"`
	LastRefreshed time.Time `db:"last_refreshed"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type PriceObservation struct {
	SourceId  int32      `db:"source_id"`
	Timestamp time.Time  `db:"timestamp"`
	Price     null.Float `db:"price"`
}

// SymbolPrices is the assembled view of one symbol's stored observations,
// ordered oldest first, with null prices already dropped.
type SymbolPrices struct {
	SourceId int32
	Symbol   string
	Dates    []time.Time
	Prices   []float64
}

type SymbolRequest struct {
	Symbol    string `json:"symbol"`
	Frequency string `json:"frequency"`
}

type SymbolResponse struct {
	Id            int32     `json:"id"`
	Symbol        string    `json:"symbol"`
	Frequency     string    `json:"frequency"`
	LastRefreshed time.Time `json:"lastRefreshed"`
}

func MapMetadataToResponse(md *PriceSeriesMetadata) SymbolResponse {
	return SymbolResponse{
		Id:            md.Id,
		Symbol:        md.Symbol,
		Frequency:     md.Frequency,
		LastRefreshed: md.LastRefreshed,
	}
}

type PriceObservationPayload struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

type PriceUploadRequest struct {
	Observations []PriceObservationPayload `json:"observations"`
}

type PriceUploadResponse struct {
	Symbol        string    `json:"symbol"`
	Received      int       `json:"received"`
	Inserted      int64     `json:"inserted"`
	LastRefreshed time.Time `json:"lastRefreshed"`
}
