package mn

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

// Canonical bank identifiers
const (
	KhanBank     = "KhanBank"
	GolomtBank   = "GolomtBank"
	XacBank      = "XacBank"
	ArigBank     = "ArigBank"
	StateBank    = "StateBank"
	MongolBank   = "MongolBank"
	CapitronBank = "CapitronBank"
	TDBM         = "TDBM"
	BogdBank     = "BogdBank"
	CKBank       = "CKBank"
	TransBank    = "TransBank"
	NIBank       = "NIBank"
	MBank        = "MBank"
)

// Banks lists the canonical identifiers of every supported bank
var Banks = []string{
	KhanBank,
	GolomtBank,
	XacBank,
	ArigBank,
	StateBank,
	MongolBank,
	CapitronBank,
	TDBM,
	BogdBank,
	CKBank,
	TransBank,
	NIBank,
	MBank,
}

var aliases = map[string][]string{
	KhanBank:     {"khanbank", "khan"},
	GolomtBank:   {"golomtbank", "golomt"},
	XacBank:      {"xacbank", "xac"},
	ArigBank:     {"arigbank", "arig"},
	StateBank:    {"statebank", "state"},
	MongolBank:   {"mongolbank", "bom"},
	CapitronBank: {"capitronbank", "capitron"},
	TDBM:         {"tdbm", "tdb"},
	BogdBank:     {"bogdbank", "bogd"},
	CKBank:       {"ckbank", "ck"},
	TransBank:    {"transbank", "trans"},
	NIBank:       {"nibank", "ni"},
	MBank:        {"mbank", "m-bank"},
}

// DefaultURLs returns the default source endpoints,
// keyed by the lowercase canonical bank identifier
func DefaultURLs() map[string]string {
	return map[string]string{
		"khanbank":     "https://www.khanbank.com/api/back/rates",
		"golomtbank":   "https://www.golomtbank.com/api/exchange",
		"xacbank":      "https://xacbank.mn/api/currencies",
		"arigbank":     "https://www.arigbank.mn/exchange/getRate",
		"statebank":    "https://www.statebank.mn/back/api/fetchrate",
		"mongolbank":   "https://www.mongolbank.mn/en/currency-rate-movement/data",
		"capitronbank": "https://www.capitronbank.mn/admin/en/wp-json/bank/rates/capitronbank",
		"tdbm":         "https://www.tdbm.mn/en/exchange-rates",
		"bogdbank":     "https://www.bogdbank.com/exchange",
		"ckbank":       "https://www.ckbank.mn/currency-rates",
		"transbank":    "https://transbank.mn/en/exchange",
		"nibank":       "https://www.nibank.mn/en/rate",
		"mbank":        "https://m-bank.mn/",
	}
}

// Config is the adapter set configuration
type Config struct {
	// URLs overrides the default source endpoints,
	// keyed by the lowercase canonical bank identifier
	URLs map[string]string

	// ArigBankToken is the bearer token of the ArigBank rate API
	ArigBankToken string
}

func (c Config) url(bank string) string {
	key := strings.ToLower(bank)

	if u, ok := c.URLs[key]; ok && u != "" {
		return u
	}

	return DefaultURLs()[key]
}

// NewAdapters constructs the adapters of every supported bank
func NewAdapters(cfg Config, fetcher Fetcher, renderer Renderer) []*Adapter {
	direct := func(name string, s source) *Adapter {
		return &Adapter{
			source:  s,
			name:    name,
			kind:    transport.KindDirect,
			aliases: aliases[name],
		}
	}

	rendered := func(name string, s source) *Adapter {
		return &Adapter{
			source:  s,
			name:    name,
			kind:    transport.KindRendered,
			aliases: aliases[name],
		}
	}

	return []*Adapter{
		direct(KhanBank, &jsonSource{
			fetcher: fetcher,
			request: queryRequest(cfg.url(KhanBank), func(date string) url.Values {
				return url.Values{"date": []string{date}}
			}),
			mapping: jsonMapping{
				code: "currency",
				fields: fieldMap{
					cashBuy:     "cashBuyRate",
					cashSell:    "cashSellRate",
					noncashBuy:  "buyRate",
					noncashSell: "sellRate",
				},
			},
		}),
		direct(GolomtBank, &jsonSource{
			fetcher: fetcher,
			request: queryRequest(cfg.url(GolomtBank), func(date string) url.Values {
				return url.Values{"date": []string{compactDate(date)}}
			}),
			mapping: jsonMapping{
				rows:  "result",
				keyed: true,
				fields: fieldMap{
					cashBuy:     "cash_buy.cvalue",
					cashSell:    "cash_sell.cvalue",
					noncashBuy:  "non_cash_buy.cvalue",
					noncashSell: "non_cash_sell.cvalue",
				},
			},
		}),
		direct(XacBank, &jsonSource{
			fetcher: fetcher,
			request: xacBankRequest(cfg.url(XacBank)),
			mapping: jsonMapping{
				rows: "docs",
				code: "code",
				fields: fieldMap{
					cashBuy:     "buyCash",
					cashSell:    "sellCash",
					noncashBuy:  "buy",
					noncashSell: "sell",
				},
			},
			fallback: true,
		}),
		direct(ArigBank, &jsonSource{
			fetcher: fetcher,
			request: arigBankRequest(cfg.url(ArigBank), cfg.ArigBankToken),
			mapping: jsonMapping{
				rows: "data",
				code: "curCode",
				fields: fieldMap{
					cashBuy:     "belenBuyRate",
					cashSell:    "belenSellRate",
					noncashBuy:  "belenBusBuyRate",
					noncashSell: "belenBusSellRate",
				},
			},
		}),
		direct(StateBank, &jsonSource{
			fetcher: fetcher,
			request: queryRequest(cfg.url(StateBank), nil),
			mapping: jsonMapping{
				code: "curCode",
				fields: fieldMap{
					cashBuy:     "cashBuy",
					cashSell:    "cashSale",
					noncashBuy:  "nonCashBuy",
					noncashSell: "nonCashSale",
				},
			},
		}),
		direct(MongolBank, &mongolBankSource{
			fetcher: fetcher,
			url:     cfg.url(MongolBank),
		}),
		direct(CapitronBank, &jsonSource{
			fetcher: fetcher,
			request: queryRequest(cfg.url(CapitronBank), nil),
			mapping: jsonMapping{
				code: "curcode",
				split: &splitRows{
					kind:        "rtypecode",
					cashKind:    "1",
					noncashKind: "2",
					buy:         "buyrate",
					sell:        "salerate",
				},
			},
		}),
		rendered(TDBM, &tableSource{
			renderer: renderer,
			request:  tdbmRequest(cfg.url(TDBM)),
			mapping: tableMapping{
				table:       "table.table-hover",
				rows:        "tbody tr",
				minCells:    8,
				code:        1,
				cashBuy:     6,
				cashSell:    7,
				noncashBuy:  4,
				noncashSell: 5,
			},
			fallback: true,
		}),
		rendered(BogdBank, &tableSource{
			renderer: renderer,
			request: func(date string) *transport.RenderRequest {
				return &transport.RenderRequest{
					URL:          withDateParam(cfg.url(BogdBank), "date", date),
					WaitSelector: "table",
					Settle:       2 * time.Second,
				}
			},
			mapping: tableMapping{
				table:       "table",
				rows:        "tbody tr",
				minCells:    6,
				code:        0,
				cashBuy:     2,
				cashSell:    3,
				noncashBuy:  4,
				noncashSell: 5,
			},
		}),
		rendered(CKBank, &tableSource{
			renderer: renderer,
			request: func(string) *transport.RenderRequest {
				return &transport.RenderRequest{
					URL:          cfg.url(CKBank),
					WaitSelector: "table",
				}
			},
			mapping: tableMapping{
				table:       "table",
				rows:        "tr",
				skip:        2,
				minCells:    6,
				code:        0,
				cashBuy:     2,
				cashSell:    3,
				noncashBuy:  4,
				noncashSell: 5,
			},
		}),
		rendered(TransBank, &transBankSource{
			renderer: renderer,
			url:      cfg.url(TransBank),
		}),
		rendered(NIBank, &labelSource{
			renderer: renderer,
			url:      cfg.url(NIBank),
			mapping: labelMapping{
				labels:   niBankLabels,
				block:    ".exchange-block",
				minLines: 6,
			},
		}),
		rendered(MBank, &mBankSource{
			renderer: renderer,
			url:      cfg.url(MBank),
		}),
	}
}

// queryRequest builds GET requests with the per-date query parameters
func queryRequest(
	base string,
	params func(date string) url.Values,
) func(string) (*transport.Request, error) {
	return func(date string) (*transport.Request, error) {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid source URL: %w", err)
		}

		if params != nil {
			query := u.Query()
			for key, values := range params(date) {
				query[key] = values
			}

			u.RawQuery = query.Encode()
		}

		return &transport.Request{
			Method: http.MethodGet,
			URL:    u.String(),
		}, nil
	}
}

// xacBankTimestampLayout is the UTC timestamp format of the XacBank API
const xacBankTimestampLayout = "2006-01-02T15:04:05.000Z"

// xacBankOffset is the Ulaanbaatar UTC offset the API day bounds are computed in
const xacBankOffset = 8 * time.Hour

func xacBankRequest(base string) func(string) (*transport.Request, error) {
	return queryRequest(base, func(date string) url.Values {
		// the date is validated by the adapter
		day, _ := types.ParseDate(date)

		start := day.Add(-xacBankOffset)
		end := day.Add(24*time.Hour - time.Millisecond - xacBankOffset)

		return url.Values{
			"sort":                            []string{"position"},
			"where[date][greater_than_equal]": []string{start.Format(xacBankTimestampLayout)},
			"where[date][less_than]":          []string{end.Format(xacBankTimestampLayout)},
			"pagination":                      []string{"false"},
		}
	})
}

func arigBankRequest(base, token string) func(string) (*transport.Request, error) {
	return func(date string) (*transport.Request, error) {
		body, err := json.Marshal(map[string]string{
			"rateDate": compactDate(date),
		})
		if err != nil {
			return nil, fmt.Errorf("unable to encode request: %w", err)
		}

		header := http.Header{
			"Content-Type": []string{"application/json"},
		}

		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}

		return &transport.Request{
			Method: http.MethodPost,
			URL:    base,
			Header: header,
			Body:   body,
		}, nil
	}
}

func tdbmRequest(base string) func(string) *transport.RenderRequest {
	return func(date string) *transport.RenderRequest {
		return &transport.RenderRequest{
			URL:          base,
			WaitSelector: "table.table-hover",
			Interaction: &transport.Interaction{
				Fill: []transport.Field{
					{
						Selector: "input[type=date]",
						Value:    date,
					},
				},
				Click:         "form button",
				FallbackClick: "form input[type=submit]",
				Settle:        3 * time.Second,
			},
		}
	}
}

// withDateParam sets the date query parameter on the page URL.
// An unparsable URL is returned as is and fails on navigation
func withDateParam(base, key, date string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}

	query := u.Query()
	query.Set(key, date)
	u.RawQuery = query.Encode()

	return u.String()
}
