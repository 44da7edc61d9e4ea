package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for snapshot keys
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// RateQuote is a single buy / sell pair.
// A missing side is an invalid (null) decimal, never a literal zero
type RateQuote struct {
	Buy  decimal.NullDecimal `json:"buy"`
	Sell decimal.NullDecimal `json:"sell"`
}

// Empty returns true if neither side of the quote is present
func (q RateQuote) Empty() bool {
	return !q.Buy.Valid && !q.Sell.Valid
}

// CurrencyQuote holds the cash and non-cash quotes of a single currency
type CurrencyQuote struct {
	Cash    RateQuote `json:"cash"`
	Noncash RateQuote `json:"noncash"`
}

// Empty returns true if the currency carries no rate at all
func (q CurrencyQuote) Empty() bool {
	return q.Cash.Empty() && q.Noncash.Empty()
}

// Quotes maps a lowercase currency code to its quote
type Quotes map[string]CurrencyQuote

// BankSnapshot is the normalized rate set of one bank for one date
type BankSnapshot struct {
	CapturedAt time.Time `json:"captured_at"`
	Quotes     Quotes    `json:"quotes"`
	Bank       string    `json:"bank"`
	Date       string    `json:"date"` // YYYY-MM-DD
}

// SnapshotQuery filters stored snapshots
type SnapshotQuery struct {
	Bank   *string `json:"bank"`
	Date   *string `json:"date"`
	Offset int64   `json:"offset"`
	Limit  int32   `json:"limit"`
}

// Page wraps the results for pagination
type Page[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}

// ParseDate parses the YYYY-MM-DD calendar date
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	return t, nil
}

// PreviousDate returns the calendar day before the given date
func PreviousDate(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}

	return t.AddDate(0, 0, -1).Format(DateLayout), nil
}
