package currencies

import (
	"strings"

	"github.com/sig-0/mnrates/storage/types"
)

// MNT is the domestic currency all bank quotes are expressed in,
// so a quoted MNT row carries no FX information
const MNT = "mnt"

const (
	USD = "usd"
	EUR = "eur"
	CNY = "cny"
	JPY = "jpy"
	RUB = "rub"
	KRW = "krw"
	GBP = "gbp"
	CHF = "chf"
	HKD = "hkd"
	SGD = "sgd"
)

// Normalize trims and lowercases a source currency code.
// Only 3-letter ASCII codes are recognized
func Normalize(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "\u00a0", " ")))
	if len(code) != 3 {
		return "", false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < 'a' || code[i] > 'z' {
			return "", false
		}
	}

	return code, true
}

// Set accumulates currency quotes for a single page or response
type Set struct {
	quotes types.Quotes
}

func NewSet() *Set {
	return &Set{
		quotes: make(types.Quotes),
	}
}

// Add records the quote under the normalized code.
// The first quote recorded for a code wins; repeats, rate-less rows,
// unrecognized codes and MNT rows are ignored
func (s *Set) Add(code string, quote types.CurrencyQuote) bool {
	if quote.Empty() {
		return false
	}

	normalized, ok := Normalize(code)
	if !ok || normalized == MNT {
		return false
	}

	if _, exists := s.quotes[normalized]; exists {
		return false
	}

	s.quotes[normalized] = quote

	return true
}

// Merge combines the quote with any quote already recorded for the code,
// keeping existing values. Used by sources that split cash and
// non-cash quotes of one currency across rows
func (s *Set) Merge(code string, quote types.CurrencyQuote) bool {
	if quote.Empty() {
		return false
	}

	normalized, ok := Normalize(code)
	if !ok || normalized == MNT {
		return false
	}

	cur := s.quotes[normalized]

	cur.Cash = mergeRate(cur.Cash, quote.Cash)
	cur.Noncash = mergeRate(cur.Noncash, quote.Noncash)

	s.quotes[normalized] = cur

	return true
}

// Len returns the number of recorded currencies
func (s *Set) Len() int {
	return len(s.quotes)
}

// Quotes returns the recorded quotes
func (s *Set) Quotes() types.Quotes {
	return s.quotes
}

func mergeRate(cur, next types.RateQuote) types.RateQuote {
	if !cur.Buy.Valid {
		cur.Buy = next.Buy
	}

	if !cur.Sell.Valid {
		cur.Sell = next.Sell
	}

	return cur
}
