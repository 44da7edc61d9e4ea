package mn

import (
	"context"
	"regexp"
	"strings"

	"github.com/sig-0/mnrates/provider/currencies"
	"github.com/sig-0/mnrates/provider/numeric"
	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

// mBankCurrencies are the codes looked up in the page text
var mBankCurrencies = []string{
	currencies.USD,
	currencies.EUR,
	currencies.CNY,
	currencies.JPY,
	currencies.RUB,
	currencies.KRW,
	currencies.GBP,
	currencies.CHF,
	currencies.HKD,
	currencies.SGD,
}

// mBankPatterns match the first number following every
// occurrence of the currency code
var mBankPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(mBankCurrencies))

	for _, code := range mBankCurrencies {
		patterns[code] = regexp.MustCompile(
			`(?s)` + regexp.QuoteMeta(strings.ToUpper(code)) + `.*?(\d{1,5}\.?\d{0,2})`,
		)
	}

	return patterns
}()

// mBankSource scrapes the rates off the page text, the page has
// no stable markup around them
type mBankSource struct {
	renderer Renderer
	url      string
}

func (s *mBankSource) crawl(ctx context.Context, _ string) (types.Quotes, error) {
	page, err := s.renderer.Render(ctx, &transport.RenderRequest{
		URL: s.url,
	})
	if err != nil {
		return nil, err
	}

	doc, err := parseHTML(page.HTML)
	if err != nil {
		return nil, err
	}

	return parseMBankText(doc.Text()), nil
}

// parseMBankText reads cash buy and sell from the first two numbers
// of a currency, and non-cash from the next two if present.
// Missing non-cash rates are copied from cash
func parseMBankText(text string) types.Quotes {
	set := currencies.NewSet()

	for _, code := range mBankCurrencies {
		matches := mBankPatterns[code].FindAllStringSubmatch(text, 4)
		if len(matches) < 2 {
			continue
		}

		quote := types.CurrencyQuote{
			Cash: types.RateQuote{
				Buy:  numeric.ParseString(matches[0][1]),
				Sell: numeric.ParseString(matches[1][1]),
			},
		}

		quote.Noncash = quote.Cash

		if len(matches) > 2 {
			quote.Noncash.Buy = numeric.ParseString(matches[2][1])
		}

		if len(matches) > 3 {
			quote.Noncash.Sell = numeric.ParseString(matches[3][1])
		}

		set.Add(code, quote)
	}

	return set.Quotes()
}
