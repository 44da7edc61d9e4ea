package mn

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

const testDate = "2026-01-15"

// assertRate verifies the rate value, an empty expected value means absent
func assertRate(t *testing.T, expected string, actual decimal.NullDecimal) {
	t.Helper()

	if expected == "" {
		assert.False(t, actual.Valid, "expected absent rate, got %s", actual.Decimal)

		return
	}

	require.True(t, actual.Valid, "expected rate %s, got absent", expected)
	assert.True(
		t,
		decimal.RequireFromString(expected).Equal(actual.Decimal),
		"expected %s, got %s", expected, actual.Decimal,
	)
}

func assertQuote(
	t *testing.T,
	quotes types.Quotes,
	code string,
	cashBuy, cashSell, noncashBuy, noncashSell string,
) {
	t.Helper()

	quote, ok := quotes[code]
	require.True(t, ok, "missing currency %q", code)

	assertRate(t, cashBuy, quote.Cash.Buy)
	assertRate(t, cashSell, quote.Cash.Sell)
	assertRate(t, noncashBuy, quote.Noncash.Buy)
	assertRate(t, noncashSell, quote.Noncash.Sell)
}

func TestNewAdapters(t *testing.T) {
	t.Parallel()

	t.Run("every bank is constructed", func(t *testing.T) {
		t.Parallel()

		adapters := NewAdapters(Config{}, &mockFetcher{}, &mockRenderer{})
		require.Len(t, adapters, len(Banks))

		var (
			names   = make(map[string]struct{})
			kinds   = make(map[transport.Kind]int)
			aliased = make(map[string]string)
		)

		for _, a := range adapters {
			names[a.Name()] = struct{}{}
			kinds[a.Kind()]++

			require.NotEmpty(t, a.Aliases())

			for _, alias := range a.Aliases() {
				assert.Equal(t, strings.ToLower(alias), alias)

				owner, taken := aliased[alias]
				assert.False(t, taken, "alias %q used by %s and %s", alias, owner, a.Name())

				aliased[alias] = a.Name()
			}

			assert.NotEmpty(t, DefaultURLs()[strings.ToLower(a.Name())])
		}

		assert.Len(t, names, len(Banks))
		assert.Equal(t, 7, kinds[transport.KindDirect])
		assert.Equal(t, 6, kinds[transport.KindRendered])
	})

	t.Run("URL override", func(t *testing.T) {
		t.Parallel()

		var (
			fetcher = staticFetcher(`[]`)
			cfg     = Config{
				URLs: map[string]string{
					"khanbank": "http://localhost:8080/rates",
				},
			}
		)

		var khan *Adapter

		for _, a := range NewAdapters(cfg, fetcher, &mockRenderer{}) {
			if a.Name() == KhanBank {
				khan = a
			}
		}

		require.NotNil(t, khan)

		_, err := khan.Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, fetcher.requests, 1)
		assert.True(t, strings.HasPrefix(fetcher.requests[0].URL, "http://localhost:8080/rates?"))
	})
}

func TestAdapter_Crawl_InvalidDate(t *testing.T) {
	t.Parallel()

	fetcher := staticFetcher(`[]`)
	khan := adapterFor(KhanBank, fetcher, &mockRenderer{})

	_, err := khan.Crawl(context.Background(), "15/01/2026")

	assert.ErrorIs(t, err, types.ErrInvalidDate)
	assert.Empty(t, fetcher.requests)
}

func TestKhanBank(t *testing.T) {
	t.Parallel()

	t.Run("rates are mapped", func(t *testing.T) {
		t.Parallel()

		fetcher := staticFetcher(`[
			{"currency":"USD","cashBuyRate":3420.5,"cashSellRate":3450.0,"buyRate":3415.0,"sellRate":3455.0},
			{"currency":"MNT","cashBuyRate":1,"cashSellRate":1,"buyRate":1,"sellRate":1},
			{"currency":"EUR","cashBuyRate":"3,990.10","cashSellRate":0,"buyRate":"-","sellRate":null}
		]`)

		quotes, err := adapterFor(KhanBank, fetcher, nil).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, quotes, 2)
		assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
		assertQuote(t, quotes, "eur", "3990.1", "", "", "")

		require.Len(t, fetcher.requests, 1)

		req := fetcher.requests[0]
		assert.Equal(t, http.MethodGet, req.Method)

		u, err := url.Parse(req.URL)
		require.NoError(t, err)
		assert.Equal(t, testDate, u.Query().Get("date"))
	})

	t.Run("empty response", func(t *testing.T) {
		t.Parallel()

		quotes, err := adapterFor(KhanBank, staticFetcher(`[]`), nil).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		assert.NotNil(t, quotes)
		assert.Empty(t, quotes)
	})

	t.Run("unexpected shape", func(t *testing.T) {
		t.Parallel()

		_, err := adapterFor(KhanBank, staticFetcher(`{"error":"maintenance"}`), nil).
			Crawl(context.Background(), testDate)

		assert.ErrorIs(t, err, transport.ErrShape)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()

		_, err := adapterFor(KhanBank, staticFetcher(`<html>`), nil).
			Crawl(context.Background(), testDate)

		assert.ErrorIs(t, err, transport.ErrShape)
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockFetcher{
			fetchFn: func(context.Context, *transport.Request) ([]byte, error) {
				return nil, transport.ErrTransport
			},
		}

		_, err := adapterFor(KhanBank, fetcher, nil).Crawl(context.Background(), testDate)

		assert.ErrorIs(t, err, transport.ErrTransport)
	})
}

func TestGolomtBank(t *testing.T) {
	t.Parallel()

	fetcher := staticFetcher(`{
		"result": {
			"USD": {
				"cash_buy": {"cvalue": 3420.5},
				"cash_sell": {"cvalue": "3,450.00"},
				"non_cash_buy": {"cvalue": 3415},
				"non_cash_sell": {"cvalue": 3455}
			},
			"CNY": {
				"cash_buy": {"cvalue": 470},
				"cash_sell": {"cvalue": 485}
			},
			"XX": {
				"cash_buy": {"cvalue": 1}
			}
		}
	}`)

	quotes, err := adapterFor(GolomtBank, fetcher, nil).Crawl(context.Background(), testDate)
	require.NoError(t, err)

	require.Len(t, quotes, 2)
	assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
	assertQuote(t, quotes, "cny", "470", "485", "", "")

	u, err := url.Parse(fetcher.requests[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "20260115", u.Query().Get("date"))
}

func TestXacBank(t *testing.T) {
	t.Parallel()

	t.Run("day bounds", func(t *testing.T) {
		t.Parallel()

		fetcher := staticFetcher(`{"docs":[{"code":"USD","buyCash":3420.5,"sellCash":3450,"buy":3415,"sell":3455}]}`)

		quotes, err := adapterFor(XacBank, fetcher, nil).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
		require.Len(t, fetcher.requests, 1)

		u, err := url.Parse(fetcher.requests[0].URL)
		require.NoError(t, err)

		query := u.Query()
		assert.Equal(t, "2026-01-14T16:00:00.000Z", query.Get("where[date][greater_than_equal]"))
		assert.Equal(t, "2026-01-15T15:59:59.999Z", query.Get("where[date][less_than]"))
		assert.Equal(t, "position", query.Get("sort"))
		assert.Equal(t, "false", query.Get("pagination"))
	})

	t.Run("previous day fallback", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockFetcher{
			fetchFn: func(_ context.Context, req *transport.Request) ([]byte, error) {
				u, err := url.Parse(req.URL)
				if err != nil {
					return nil, err
				}

				// Only the previous day has rates
				if strings.HasPrefix(u.Query().Get("where[date][less_than]"), "2026-01-14") {
					return []byte(`{"docs":[{"code":"USD","buyCash":3410,"sellCash":3440}]}`), nil
				}

				return []byte(`{"docs":[]}`), nil
			},
		}

		quotes, err := adapterFor(XacBank, fetcher, nil).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, fetcher.requests, 2)
		assertQuote(t, quotes, "usd", "3410", "3440", "", "")
	})

	t.Run("fallback is a single step", func(t *testing.T) {
		t.Parallel()

		fetcher := staticFetcher(`{"docs":[]}`)

		quotes, err := adapterFor(XacBank, fetcher, nil).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		assert.Empty(t, quotes)
		assert.Len(t, fetcher.requests, 2)
	})
}

func TestArigBank(t *testing.T) {
	t.Parallel()

	var (
		fetcher = staticFetcher(`{"data":[{"curCode":"USD","belenBuyRate":3420.5,"belenSellRate":3450,"belenBusBuyRate":3415,"belenBusSellRate":3455}]}`)
		cfg     = Config{ArigBankToken: "secret"}
	)

	var arig *Adapter

	for _, a := range NewAdapters(cfg, fetcher, nil) {
		if a.Name() == ArigBank {
			arig = a
		}
	}

	require.NotNil(t, arig)

	quotes, err := arig.Crawl(context.Background(), testDate)
	require.NoError(t, err)

	assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")

	req := fetcher.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"rateDate":"20260115"}`, string(req.Body))
}

func TestStateBank(t *testing.T) {
	t.Parallel()

	fetcher := staticFetcher(`[
		{"curCode":"MNT","cashBuy":1,"cashSale":1,"nonCashBuy":1,"nonCashSale":1},
		{"curCode":"usd","cashBuy":"3420.50","cashSale":"3450.00","nonCashBuy":"3415.00","nonCashSale":"3455.00"},
		{"curCode":"USD","cashBuy":1,"cashSale":1,"nonCashBuy":1,"nonCashSale":1}
	]`)

	quotes, err := adapterFor(StateBank, fetcher, nil).Crawl(context.Background(), testDate)
	require.NoError(t, err)

	require.Len(t, quotes, 1)
	assert.NotContains(t, quotes, "mnt")

	// First row of a currency wins
	assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
}

func TestMongolBank(t *testing.T) {
	t.Parallel()

	t.Run("JSON response", func(t *testing.T) {
		t.Parallel()

		fetcher := staticFetcher(`{
			"success": true,
			"data": [
				{"RATE_DATE": "2026-01-14", "USD": "3,430.00"},
				{"RATE_DATE": "2026-01-15", "USD": "3,435.50", "EUR": "3,990.10", "MNT": "1"}
			]
		}`)

		quotes, err := adapterFor(MongolBank, fetcher, nil).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, quotes, 2)
		assertQuote(t, quotes, "usd", "", "", "3435.5", "3435.5")
		assertQuote(t, quotes, "eur", "", "", "3990.1", "3990.1")

		req := fetcher.requests[0]
		assert.Equal(t, http.MethodPost, req.Method)

		form, err := url.ParseQuery(string(req.Body))
		require.NoError(t, err)
		assert.Equal(t, testDate, form.Get("startDate"))
		assert.Equal(t, testDate, form.Get("endDate"))
	})

	t.Run("XML feed", func(t *testing.T) {
		t.Parallel()

		fetcher := staticFetcher(`
			<?xml version="1.0" encoding="UTF-8"?>
			<CcyTbl>
				<Ccy><CcyNm_EN>USD</CcyNm_EN><Rate>3,435.50</Rate></Ccy>
				<Ccy><CcyNm_EN>JPY</CcyNm_EN><Rate>22.41</Rate></Ccy>
			</CcyTbl>
		`)

		quotes, err := adapterFor(MongolBank, fetcher, nil).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, quotes, 2)
		assertQuote(t, quotes, "usd", "", "", "3435.5", "3435.5")
		assertQuote(t, quotes, "jpy", "", "", "22.41", "22.41")
	})

	t.Run("unsuccessful response", func(t *testing.T) {
		t.Parallel()

		_, err := adapterFor(MongolBank, staticFetcher(`{"success":false,"data":[]}`), nil).
			Crawl(context.Background(), testDate)

		assert.ErrorIs(t, err, transport.ErrShape)
	})

	t.Run("no data", func(t *testing.T) {
		t.Parallel()

		quotes, err := adapterFor(MongolBank, staticFetcher(`{"success":true,"data":[]}`), nil).
			Crawl(context.Background(), testDate)
		require.NoError(t, err)

		assert.Empty(t, quotes)
	})
}

func TestCapitronBank(t *testing.T) {
	t.Parallel()

	fetcher := staticFetcher(`[
		{"curcode":"USD","rtypecode":"1","buyrate":3420.5,"salerate":3450},
		{"curcode":"USD","rtypecode":2,"buyrate":"3415","salerate":"3455"},
		{"curcode":"EUR","rtypecode":"2","buyrate":3985,"salerate":4010},
		{"curcode":"CNY","rtypecode":"9","buyrate":470,"salerate":485}
	]`)

	quotes, err := adapterFor(CapitronBank, fetcher, nil).Crawl(context.Background(), testDate)
	require.NoError(t, err)

	require.Len(t, quotes, 2)
	assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
	assertQuote(t, quotes, "eur", "", "", "3985", "4010")
}

func TestTableBanks(t *testing.T) {
	t.Parallel()

	t.Run("BogdBank", func(t *testing.T) {
		t.Parallel()

		renderer := staticRenderer(`
			<html><body>
			<table>
				<thead><tr><th>Currency</th><th>Name</th><th>Buy</th><th>Sell</th><th>Buy</th><th>Sell</th></tr></thead>
				<tbody>
					<tr><td>USD</td><td>US Dollar</td><td>3,420.50</td><td>3,450.00</td><td>3,415.00</td><td>3,455.00</td></tr>
					<tr><td>USD</td><td>US Dollar</td><td>1</td><td>1</td><td>1</td><td>1</td></tr>
					<tr><td>MNT</td><td>Tugrik</td><td>1</td><td>1</td><td>1</td><td>1</td></tr>
					<tr><td>EUR&nbsp;€</td><td>Euro</td><td>3,985.00</td><td>-</td><td>3,980.00</td><td>4,015.00</td></tr>
					<tr><td>JPY</td><td>short row</td></tr>
				</tbody>
			</table>
			<table><tbody><tr><td>GBP</td><td></td><td>1</td><td>1</td><td>1</td><td>1</td></tr></tbody></table>
			</body></html>
		`)

		quotes, err := adapterFor(BogdBank, nil, renderer).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, quotes, 2)
		assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
		assertQuote(t, quotes, "eur", "3985", "", "3980", "4015")

		require.Len(t, renderer.requests, 1)

		req := renderer.requests[0]
		assert.Equal(t, "table", req.WaitSelector)
		assert.Contains(t, req.URL, "date="+testDate)
	})

	t.Run("CKBank", func(t *testing.T) {
		t.Parallel()

		renderer := staticRenderer(`
			<table>
				<tr><td>Currency</td><td></td><td>Cash</td><td></td><td>Non-cash</td><td></td></tr>
				<tr><td>Code</td><td>Name</td><td>Buy</td><td>Sell</td><td>Buy</td><td>Sell</td></tr>
				<tr><td>USD</td><td>US Dollar</td><td>3420.5</td><td>3450</td><td>3415</td><td>3455</td></tr>
			</table>
		`)

		quotes, err := adapterFor(CKBank, nil, renderer).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, quotes, 1)
		assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
	})

	t.Run("render failure", func(t *testing.T) {
		t.Parallel()

		renderer := &mockRenderer{
			renderFn: func(context.Context, *transport.RenderRequest) (*transport.Page, error) {
				return nil, transport.ErrTransport
			},
		}

		_, err := adapterFor(CKBank, nil, renderer).Crawl(context.Background(), testDate)

		assert.ErrorIs(t, err, transport.ErrTransport)
	})
}

func TestTDBM(t *testing.T) {
	t.Parallel()

	const withRates = `
		<table class="table table-hover"><tbody>
			<tr><td>1</td><td>USD</td><td>US Dollar</td><td>3432.00</td><td>3415.00</td><td>3455.00</td><td>3420.50</td><td>3450.00</td></tr>
		</tbody></table>
	`

	const withoutRates = `<table class="table table-hover"><tbody></tbody></table>`

	t.Run("form interaction", func(t *testing.T) {
		t.Parallel()

		renderer := staticRenderer(withRates)

		quotes, err := adapterFor(TDBM, nil, renderer).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
		require.Len(t, renderer.requests, 1)

		req := renderer.requests[0]
		require.NotNil(t, req.Interaction)
		require.Len(t, req.Interaction.Fill, 1)

		assert.Equal(t, testDate, req.Interaction.Fill[0].Value)
		assert.Equal(t, "form button", req.Interaction.Click)
		assert.Equal(t, "form input[type=submit]", req.Interaction.FallbackClick)
		assert.Equal(t, "table.table-hover", req.WaitSelector)
	})

	t.Run("previous day fallback", func(t *testing.T) {
		t.Parallel()

		renderer := &mockRenderer{
			renderFn: func(_ context.Context, req *transport.RenderRequest) (*transport.Page, error) {
				if req.Interaction.Fill[0].Value == "2026-01-14" {
					return &transport.Page{HTML: withRates}, nil
				}

				return &transport.Page{HTML: withoutRates}, nil
			},
		}

		quotes, err := adapterFor(TDBM, nil, renderer).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, renderer.requests, 2)
		assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
	})
}

func TestTransBank(t *testing.T) {
	t.Parallel()

	const rateData = `{
		"2026-01-14": {
			"USD": {"NAME": "US Dollar", "2": {"BUY_RATE": 1, "SELL_RATE": 1}},
			"EUR": {"NAME": "Euro", "2": {"BUY_RATE": 3985, "SELL_RATE": 4015}}
		},
		"2026-01-15": {
			"USD": {
				"NAME": "US Dollar",
				"2": {"BUY_RATE": 3420.5, "SELL_RATE": 3450},
				"3": {"BUY_RATE": 3415, "SELL_RATE": 3455}
			},
			"NAME": "rates"
		}
	}`

	t.Run("captured data response", func(t *testing.T) {
		t.Parallel()

		renderer := &mockRenderer{
			renderFn: func(context.Context, *transport.RenderRequest) (*transport.Page, error) {
				return &transport.Page{
					HTML:     `<html></html>`,
					Captured: []byte(`{"pageProps":{"rateData":` + rateData + `}}`),
				}, nil
			},
		}

		quotes, err := adapterFor(TransBank, nil, renderer).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, quotes, 2)

		// The requested date wins over earlier dates
		assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
		assertQuote(t, quotes, "eur", "3985", "4015", "", "")

		req := renderer.requests[0]
		assert.Equal(t, "/_next/data/", req.CaptureURL)
		assert.Contains(t, req.URL, "startdate="+testDate)
	})

	t.Run("embedded payload", func(t *testing.T) {
		t.Parallel()

		renderer := staticRenderer(`
			<html><body>
			<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"rateData":` + rateData + `}}}</script>
			</body></html>
		`)

		quotes, err := adapterFor(TransBank, nil, renderer).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, quotes, 2)
		assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
	})

	t.Run("table fallback", func(t *testing.T) {
		t.Parallel()

		renderer := staticRenderer(`
			<table><tbody>
				<tr><td>USD US Dollar</td><td></td><td></td><td>3420.5</td><td>3450</td><td>3415</td><td>3455</td></tr>
			</tbody></table>
		`)

		quotes, err := adapterFor(TransBank, nil, renderer).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
	})

	t.Run("empty data response falls back to the table", func(t *testing.T) {
		t.Parallel()

		renderer := &mockRenderer{
			renderFn: func(context.Context, *transport.RenderRequest) (*transport.Page, error) {
				return &transport.Page{
					HTML: `<table><tbody>
						<tr><td>CNY Yuan</td><td></td><td></td><td>490</td><td>500</td><td>488</td><td>502</td></tr>
					</tbody></table>`,
					Captured: []byte(`{"pageProps":{"rateData":{"2026-01-15":{}}}}`),
				}, nil
			},
		}

		quotes, err := adapterFor(TransBank, nil, renderer).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		require.Len(t, quotes, 1)
		assertQuote(t, quotes, "cny", "490", "500", "488", "502")
	})
}

func TestNIBank(t *testing.T) {
	t.Parallel()

	renderer := staticRenderer(`
		<div class="exchange-block">
			<div><span>USD</span><span>Америк доллар</span></div>
			<div><p>Бэлэн бус авах</p><p>3,415.00</p></div>
			<div><p>Бэлэн бус зарах</p><p>3,455.00</p></div>
			<div><p>Бэлэн авах</p><p>3,420.50</p></div>
			<div><p>Бэлэн зарах</p><p>3,450.00</p></div>
		</div>
		<div class="exchange-block">
			<div><span>EUR</span></div>
			<div><p>Бэлэн авах</p></div>
		</div>
	`)

	quotes, err := adapterFor(NIBank, nil, renderer).Crawl(context.Background(), testDate)
	require.NoError(t, err)

	require.Len(t, quotes, 1)
	assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
}

func TestMBank(t *testing.T) {
	t.Parallel()

	t.Run("cash and non-cash", func(t *testing.T) {
		t.Parallel()

		renderer := staticRenderer(`
			<div>
				<p>USD cash buy</p><p>3420.50</p>
				<p>USD cash sell</p><p>3450.00</p>
				<p>USD buy</p><p>3415.00</p>
				<p>USD sell</p><p>3455.00</p>
				<p>EUR</p><p>3985.00</p>
			</div>
		`)

		quotes, err := adapterFor(MBank, nil, renderer).Crawl(context.Background(), testDate)
		require.NoError(t, err)

		// A single EUR value is not enough
		require.Len(t, quotes, 1)
		assertQuote(t, quotes, "usd", "3420.5", "3450", "3415", "3455")
	})

	t.Run("non-cash copied from cash", func(t *testing.T) {
		t.Parallel()

		quotes := parseMBankText("CNY 470.10 CNY 485.20")

		assertQuote(t, quotes, "cny", "470.1", "485.2", "470.1", "485.2")
	})
}

func TestPreviousDayFallback(t *testing.T) {
	t.Parallel()

	t.Run("errors are not retried", func(t *testing.T) {
		t.Parallel()

		var (
			calls     int
			crawlErr  = errors.New("unavailable")
			crawlFunc = func(context.Context, string) (types.Quotes, error) {
				calls++

				return nil, crawlErr
			}
		)

		_, err := previousDayFallback(context.Background(), testDate, crawlFunc)

		assert.ErrorIs(t, err, crawlErr)
		assert.Equal(t, 1, calls)
	})

	t.Run("previous date is requested", func(t *testing.T) {
		t.Parallel()

		var dates []string

		_, err := previousDayFallback(
			context.Background(),
			"2026-03-01",
			func(_ context.Context, date string) (types.Quotes, error) {
				dates = append(dates, date)

				return types.Quotes{}, nil
			},
		)
		require.NoError(t, err)

		assert.Equal(t, []string{"2026-03-01", "2026-02-28"}, dates)
	})
}

// ensure the mocks satisfy the adapter dependencies
var (
	_ Fetcher  = (*mockFetcher)(nil)
	_ Renderer = (*mockRenderer)(nil)
)
