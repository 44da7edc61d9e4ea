// Package mn provides exchange rate adapters for Mongolian banks.
//
// Every adapter reports the buy and sell quotes of a single bank for a
// given date, against MNT, split into cash and non-cash rates.
// Currency codes are lowercase 3-letter codes, MNT itself is never reported.
//
// # Direct sources
//
// ## KhanBank
//
// API: https://www.khanbank.com/api/back/rates?date=YYYY-MM-DD
//
// Returns a JSON array of currency rows.
//
// ## GolomtBank
//
// API: https://www.golomtbank.com/api/exchange?date=YYYYMMDD
//
// Returns a JSON object of rates keyed by currency code.
//
// ## XacBank
//
// API: https://xacbank.mn/api/currencies
//
// Filtered by the Ulaanbaatar day bounds of the date, in UTC.
// If the day has no published rates, the previous day is used.
//
// ## ArigBank
//
// API: https://www.arigbank.mn/exchange/getRate
//
// POST endpoint, requires a bearer token.
//
// ## StateBank
//
// API: https://www.statebank.mn/back/api/fetchrate
//
// Publishes the current rates only.
//
// ## MongolBank
//
// API: https://www.mongolbank.mn/en/currency-rate-movement/data
//
// The central bank publishes a single reference rate per currency,
// reported as both the non-cash buy and sell rate.
// The legacy XML feed format is also understood.
//
// ## CapitronBank
//
// API: https://www.capitronbank.mn/admin/en/wp-json/bank/rates/capitronbank
//
// Publishes separate cash and non-cash rows per currency.
//
// # Rendered sources
//
// These are loaded in a headless browser.
//
// ## TDBM
//
// URL: https://www.tdbm.mn/en/exchange-rates
//
// The date is entered into the page form. If the resulting table has
// no rates, the previous day is used.
//
// ## BogdBank, CKBank
//
// URLs: https://www.bogdbank.com/exchange, https://www.ckbank.mn/currency-rates
//
// Fixed-column rate tables.
//
// ## TransBank
//
// URL: https://transbank.mn/en/exchange?startdate=YYYY-MM-DD
//
// The rate data the page loads is read directly, the rendered table
// is used only if the data is unavailable.
//
// ## NIBank
//
// URL: https://www.nibank.mn/en/rate
//
// Rate cards, one per currency, with Mongolian rate labels.
//
// ## MBank
//
// URL: https://m-bank.mn/
//
// Rates are scraped from the page text for a fixed set of currencies.
package mn
