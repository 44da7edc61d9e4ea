package mn

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sig-0/mnrates/provider/currencies"
	"github.com/sig-0/mnrates/provider/numeric"
	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

// mongolBankDateKey is the row field holding the rate date
const mongolBankDateKey = "RATE_DATE"

// mongolBankResponse is the rate movement endpoint response.
// Every row maps currency codes to the official rate of one day
type mongolBankResponse struct {
	Data    []map[string]any `json:"data"`
	Success bool             `json:"success"`
}

// mongolBankFeed is the legacy XML rate feed
type mongolBankFeed struct {
	Currencies []struct {
		Code string `xml:"CcyNm_EN"`
		Rate string `xml:"Rate"`
	} `xml:"Ccy"`
}

// mongolBankSource fetches the central bank reference rates.
// There is no buy / sell spread, so the reference rate is reported
// as both non-cash sides and cash is left empty
type mongolBankSource struct {
	fetcher Fetcher
	url     string
}

func (s *mongolBankSource) crawl(ctx context.Context, date string) (types.Quotes, error) {
	form := url.Values{
		"startDate": []string{date},
		"endDate":   []string{date},
	}

	raw, err := s.fetcher.Fetch(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    s.url,
		Header: http.Header{
			"Content-Type": []string{"application/x-www-form-urlencoded"},
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return nil, err
	}

	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '<' {
		return parseMongolBankFeed(trimmed)
	}

	return parseMongolBankResponse(raw, date)
}

func parseMongolBankResponse(raw []byte, date string) (types.Quotes, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var resp mongolBankResponse

	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: unable to decode JSON: %w", transport.ErrShape, err)
	}

	if !resp.Success {
		return nil, fmt.Errorf("%w: request was not successful", transport.ErrShape)
	}

	if len(resp.Data) == 0 {
		return types.Quotes{}, nil
	}

	// Prefer the row of the requested day
	row := resp.Data[0]

	for _, candidate := range resp.Data {
		if rowDate, _ := candidate[mongolBankDateKey].(string); strings.HasPrefix(rowDate, date) {
			row = candidate

			break
		}
	}

	set := currencies.NewSet()

	for _, code := range sortedKeys(row) {
		if code == mongolBankDateKey {
			continue
		}

		set.Add(code, referenceQuote(row[code]))
	}

	return set.Quotes(), nil
}

func parseMongolBankFeed(raw []byte) (types.Quotes, error) {
	var feed mongolBankFeed

	if err := xml.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("%w: unable to decode XML: %w", transport.ErrShape, err)
	}

	set := currencies.NewSet()
	for _, ccy := range feed.Currencies {
		set.Add(ccy.Code, referenceQuote(ccy.Rate))
	}

	return set.Quotes(), nil
}

func referenceQuote(value any) types.CurrencyQuote {
	rate := numeric.Parse(value)

	return types.CurrencyQuote{
		Noncash: types.RateQuote{
			Buy:  rate,
			Sell: rate,
		},
	}
}
