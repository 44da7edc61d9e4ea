package sql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by pgx connections, pools and transactions
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Queries wraps the bank_rates statements
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// BankRate is a single bank_rates row
type BankRate struct {
	CapturedAt pgtype.Timestamptz
	RateDate   pgtype.Date
	Bank       string
	Quotes     []byte
}

const upsertBankRate = `
INSERT INTO bank_rates (bank, rate_date, quotes, captured_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (bank, rate_date) DO UPDATE
    SET quotes      = EXCLUDED.quotes,
        captured_at = EXCLUDED.captured_at
RETURNING bank, rate_date, quotes, captured_at
`

type UpsertBankRateParams struct {
	CapturedAt pgtype.Timestamptz
	RateDate   pgtype.Date
	Bank       string
	Quotes     []byte
}

func (q *Queries) UpsertBankRate(ctx context.Context, arg UpsertBankRateParams) (BankRate, error) {
	row := q.db.QueryRow(
		ctx,
		upsertBankRate,
		arg.Bank,
		arg.RateDate,
		arg.Quotes,
		arg.CapturedAt,
	)

	var i BankRate

	err := row.Scan(
		&i.Bank,
		&i.RateDate,
		&i.Quotes,
		&i.CapturedAt,
	)

	return i, err
}

const bankRates = `
SELECT bank, rate_date, quotes, captured_at, COUNT(*) OVER () AS total
FROM bank_rates
WHERE ($1::TEXT IS NULL OR bank = $1::TEXT)
  AND ($2::DATE IS NULL OR rate_date = $2::DATE)
ORDER BY rate_date DESC, bank
LIMIT $3 OFFSET $4
`

type BankRatesParams struct {
	Bank     pgtype.Text
	RateDate pgtype.Date
	Limit    int32
	Offset   int64
}

type BankRatesRow struct {
	BankRate

	Total int64
}

func (q *Queries) BankRates(ctx context.Context, arg BankRatesParams) ([]BankRatesRow, error) {
	rows, err := q.db.Query(
		ctx,
		bankRates,
		arg.Bank,
		arg.RateDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BankRatesRow

	for rows.Next() {
		var i BankRatesRow

		if err := rows.Scan(
			&i.Bank,
			&i.RateDate,
			&i.Quotes,
			&i.CapturedAt,
			&i.Total,
		); err != nil {
			return nil, err
		}

		items = append(items, i)
	}

	return items, rows.Err()
}

const latestBankRates = `
SELECT DISTINCT ON (bank) bank, rate_date, quotes, captured_at
FROM bank_rates
ORDER BY bank, rate_date DESC
`

func (q *Queries) LatestBankRates(ctx context.Context) ([]BankRate, error) {
	rows, err := q.db.Query(ctx, latestBankRates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BankRate

	for rows.Next() {
		var i BankRate

		if err := rows.Scan(
			&i.Bank,
			&i.RateDate,
			&i.Quotes,
			&i.CapturedAt,
		); err != nil {
			return nil, err
		}

		items = append(items, i)
	}

	return items, rows.Err()
}

const listBanks = `
SELECT DISTINCT bank
FROM bank_rates
ORDER BY bank
`

func (q *Queries) ListBanks(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listBanks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string

	for rows.Next() {
		var bank string

		if err := rows.Scan(&bank); err != nil {
			return nil, err
		}

		items = append(items, bank)
	}

	return items, rows.Err()
}
