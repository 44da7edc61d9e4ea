package mn

import (
	"context"
	"sort"

	"github.com/sig-0/mnrates/provider/currencies"
	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

// transBankDataPath is the Next.js client-side data route,
// requested by the page in the background
const transBankDataPath = "/_next/data/"

// transBankRates maps the rate kinds ("2" cash, "3" non-cash) of a currency
var transBankRates = jsonMapping{
	keyed: true,
	fields: fieldMap{
		cashBuy:     "2.BUY_RATE",
		cashSell:    "2.SELL_RATE",
		noncashBuy:  "3.BUY_RATE",
		noncashSell: "3.SELL_RATE",
	},
}

// transBankTable is used if the page carries no rate data payload
var transBankTable = tableMapping{
	table:       "table",
	rows:        "tbody tr",
	minCells:    7,
	code:        0,
	cashBuy:     3,
	cashSell:    4,
	noncashBuy:  5,
	noncashSell: 6,
}

// transBankSource reads the rate data the page itself loads,
// preferring the captured background response over the payload
// embedded in the document, and the rendered table as a last resort
type transBankSource struct {
	renderer Renderer
	url      string
}

func (s *transBankSource) crawl(ctx context.Context, date string) (types.Quotes, error) {
	page, err := s.renderer.Render(ctx, &transport.RenderRequest{
		URL:          withDateParam(s.url, "startdate", date),
		WaitSelector: "table",
		CaptureURL:   transBankDataPath,
	})
	if err != nil {
		return nil, err
	}

	// Background data route response
	if len(page.Captured) > 0 {
		if quotes, ok := transBankPayload(page.Captured, "pageProps.rateData", date); ok {
			return quotes, nil
		}
	}

	doc, err := parseHTML(page.HTML)
	if err != nil {
		return nil, err
	}

	// Payload embedded in the document
	if script := doc.Find("script#__NEXT_DATA__").First(); script.Length() > 0 {
		if quotes, ok := transBankPayload([]byte(script.Text()), "props.pageProps.rateData", date); ok {
			return quotes, nil
		}
	}

	return transBankTable.parse(doc), nil
}

// transBankPayload extracts the quotes from the rate data payload,
// keyed by date and then by currency code. The requested date is
// read first, then the remaining dates newest first
func transBankPayload(raw []byte, path, date string) (types.Quotes, bool) {
	doc, err := decodeJSON(raw)
	if err != nil {
		return nil, false
	}

	rateData, ok := lookupValue(doc, path).(map[string]any)
	if !ok {
		return nil, false
	}

	dates := sortedKeys(rateData)
	sort.SliceStable(dates, func(i, j int) bool {
		if (dates[i] == date) != (dates[j] == date) {
			return dates[i] == date
		}

		return dates[i] > dates[j]
	})

	set := currencies.NewSet()

	for _, key := range dates {
		byCode, ok := rateData[key].(map[string]any)
		if !ok {
			continue
		}

		// The NAME entry and malformed currencies are skipped by the mapping.
		// collect only fails on a non-object container
		_ = transBankRates.collect(set, byCode)
	}

	// An empty payload defers to the next source
	return set.Quotes(), set.Len() > 0
}
