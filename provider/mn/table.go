package mn

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/mnrates/provider/currencies"
	"github.com/sig-0/mnrates/provider/numeric"
	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

// noColumn marks a rate the table does not publish
const noColumn = -1

// tableMapping locates quotes in a fixed-column rate table
type tableMapping struct {
	table    string // the first matching table is used
	rows     string // row selector, relative to the table
	skip     int    // leading header rows
	minCells int
	code     int // the first word of this cell is the currency code

	cashBuy, cashSell       int
	noncashBuy, noncashSell int
}

// parse extracts the quotes from the document.
// Short rows are skipped and the first row of a currency wins
func (m tableMapping) parse(doc *goquery.Document) types.Quotes {
	set := currencies.NewSet()

	doc.Find(m.table).First().Find(m.rows).Each(func(i int, tr *goquery.Selection) {
		if i < m.skip {
			return
		}

		cells := tr.Find("td")
		if cells.Length() < m.minCells {
			return
		}

		text := func(col int) string {
			if col == noColumn || col >= cells.Length() {
				return ""
			}

			return cells.Eq(col).Text()
		}

		code := firstWord(text(m.code))

		set.Add(code, types.CurrencyQuote{
			Cash: types.RateQuote{
				Buy:  numeric.ParseString(text(m.cashBuy)),
				Sell: numeric.ParseString(text(m.cashSell)),
			},
			Noncash: types.RateQuote{
				Buy:  numeric.ParseString(text(m.noncashBuy)),
				Sell: numeric.ParseString(text(m.noncashSell)),
			},
		})
	})

	return set.Quotes()
}

// firstWord returns the first whitespace-separated word, NBSP included
func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

// tableSource is a rendered-transport source publishing a rate table
type tableSource struct {
	renderer Renderer
	request  func(date string) *transport.RenderRequest
	mapping  tableMapping
	fallback bool
}

func (s *tableSource) crawl(ctx context.Context, date string) (types.Quotes, error) {
	if s.fallback {
		return previousDayFallback(ctx, date, s.crawlDate)
	}

	return s.crawlDate(ctx, date)
}

func (s *tableSource) crawlDate(ctx context.Context, date string) (types.Quotes, error) {
	page, err := s.renderer.Render(ctx, s.request(date))
	if err != nil {
		return nil, err
	}

	doc, err := parseHTML(page.HTML)
	if err != nil {
		return nil, err
	}

	return s.mapping.parse(doc), nil
}
