package convert

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ahjaypee/se-asia-scanner/internal/rates"
)

var (
	// ErrInvalidAmount is returned when the amount is negative, NaN or
	// infinite. Validation happens before any network call.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrRateUnavailable is returned when the rate source fails or has no
	// usable rate for the requested pair. A failed conversion is always an
	// error, never a zero or NaN result.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)

// Result holds one conversion. Converted keeps full precision so callers
// can chain further computation; Display is the 2-decimal rounded string
// (round half away from zero) for presentation.
type Result struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Rate      decimal.Decimal `json:"rate"`
	Converted decimal.Decimal `json:"converted"`
}

// Display returns the converted amount rounded to two decimal places,
// half away from zero.
func (r *Result) Display() string {
	return r.Converted.StringFixed(2)
}

// Cents returns the converted amount in minor units, rounded for display.
func (r *Result) Cents() int {
	return int(r.Converted.Round(2).Mul(decimal.NewFromInt(100)).IntPart())
}

// Converter computes currency conversions against a rate source.
type Converter struct {
	source rates.Source
}

// New creates a Converter backed by the given rate source.
func New(source rates.Source) *Converter {
	return &Converter{source: source}
}

// Convert validates amount, fetches the from-to rate and multiplies.
// An identical pair converts at exactly 1 with no rate lookup.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (*Result, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	amt := decimal.NewFromFloat(amount)

	if from == to {
		one := decimal.NewFromInt(1)
		return &Result{Amount: amt, From: from, To: to, Rate: one, Converted: amt}, nil
	}

	table, err := c.source.Rates(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching rates for %s: %v", ErrRateUnavailable, from, err)
	}

	rate, ok := table[to]
	if !ok || rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: no usable rate for %s->%s", ErrRateUnavailable, from, to)
	}

	rd := decimal.NewFromFloat(rate)
	return &Result{
		Amount:    amt,
		From:      from,
		To:        to,
		Rate:      rd,
		Converted: amt.Mul(rd),
	}, nil
}
