package mn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sig-0/mnrates/provider/currencies"
	"github.com/sig-0/mnrates/provider/numeric"
	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

// fieldMap names the source fields of the four rates.
// Dotted names descend into nested objects
type fieldMap struct {
	cashBuy, cashSell       string
	noncashBuy, noncashSell string
}

func (f fieldMap) quote(row map[string]any) types.CurrencyQuote {
	return types.CurrencyQuote{
		Cash: types.RateQuote{
			Buy:  numeric.Parse(lookupValue(row, f.cashBuy)),
			Sell: numeric.Parse(lookupValue(row, f.cashSell)),
		},
		Noncash: types.RateQuote{
			Buy:  numeric.Parse(lookupValue(row, f.noncashBuy)),
			Sell: numeric.Parse(lookupValue(row, f.noncashSell)),
		},
	}
}

// splitRows describes sources publishing one row per rate kind
type splitRows struct {
	kind        string // row field holding the rate kind
	cashKind    string
	noncashKind string
	buy, sell   string
}

func (s splitRows) quote(row map[string]any) (types.CurrencyQuote, bool) {
	rate := types.RateQuote{
		Buy:  numeric.Parse(lookupValue(row, s.buy)),
		Sell: numeric.Parse(lookupValue(row, s.sell)),
	}

	switch fmt.Sprint(lookupValue(row, s.kind)) {
	case s.cashKind:
		return types.CurrencyQuote{Cash: rate}, true
	case s.noncashKind:
		return types.CurrencyQuote{Noncash: rate}, true
	default:
		return types.CurrencyQuote{}, false
	}
}

// jsonMapping locates the quote rows within a JSON document
type jsonMapping struct {
	split  *splitRows
	rows   string // dotted path to the row container, empty for the document root
	code   string // row field holding the currency code
	fields fieldMap
	keyed  bool // the container is an object keyed by currency code
}

// decode extracts the quotes from the raw JSON document.
// A container of the wrong type is a shape error, malformed rows are skipped
func (m jsonMapping) decode(raw []byte) (types.Quotes, error) {
	doc, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}

	set := currencies.NewSet()

	if err = m.collect(set, lookupValue(doc, m.rows)); err != nil {
		return nil, err
	}

	return set.Quotes(), nil
}

// collect adds the quotes of the row container to the set
func (m jsonMapping) collect(set *currencies.Set, container any) error {
	if m.keyed {
		obj, ok := container.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: expected object at %q", transport.ErrShape, m.rows)
		}

		for _, code := range sortedKeys(obj) {
			row, ok := obj[code].(map[string]any)
			if !ok {
				continue
			}

			set.Add(code, m.fields.quote(row))
		}

		return nil
	}

	list, ok := container.([]any)
	if !ok {
		return fmt.Errorf("%w: expected array at %q", transport.ErrShape, m.rows)
	}

	for _, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			continue
		}

		code, _ := row[m.code].(string)

		if m.split != nil {
			if quote, ok := m.split.quote(row); ok {
				set.Merge(code, quote)
			}

			continue
		}

		set.Add(code, m.fields.quote(row))
	}

	return nil
}

// decodeJSON decodes the document, keeping numbers exact
func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any

	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: unable to decode JSON: %w", transport.ErrShape, err)
	}

	return doc, nil
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// lookupValue resolves the dotted path within the decoded JSON value
func lookupValue(v any, path string) any {
	if path == "" {
		return v
	}

	for _, key := range strings.Split(path, ".") {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}

		v = obj[key]
	}

	return v
}

// jsonSource is a direct-transport source returning a JSON document
type jsonSource struct {
	fetcher  Fetcher
	request  func(date string) (*transport.Request, error)
	mapping  jsonMapping
	fallback bool
}

func (s *jsonSource) crawl(ctx context.Context, date string) (types.Quotes, error) {
	if s.fallback {
		return previousDayFallback(ctx, date, s.crawlDate)
	}

	return s.crawlDate(ctx, date)
}

func (s *jsonSource) crawlDate(ctx context.Context, date string) (types.Quotes, error) {
	req, err := s.request(date)
	if err != nil {
		return nil, err
	}

	raw, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.mapping.decode(raw)
}
