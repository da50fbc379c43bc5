package rates

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the rate source cannot produce a rate
// table: transport failure, non-success upstream status, or an empty
// response. It is distinct from a table that lacks a particular code.
var ErrUnavailable = errors.New("rate source unavailable")

// Source provides exchange rates for a base currency: a mapping from
// currency code to the rate that converts one unit of the base into that
// currency.
type Source interface {
	Rates(ctx context.Context, base string) (map[string]float64, error)
}
