package server

import (
	"context"

	"github.com/sig-0/krwrates/history"
	"github.com/sig-0/krwrates/storage/types"
)

// HistoryService serves lookback queries over historical rates
type HistoryService interface {
	Lookback(
		ctx context.Context,
		base types.Currency,
		target types.Currency,
		days int,
	) (history.Series, *history.Summary, error)
}

type HistoryResponse struct {
	Base    types.Currency   `json:"base"`
	Target  types.Currency   `json:"target"`
	Series  history.Series   `json:"series"`
	Summary *history.Summary `json:"summary"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
