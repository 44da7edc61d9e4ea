package sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sig-0/mnrates/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

var errInvalidSnapshot = errors.New("invalid snapshot")

type Storage struct {
	queries *Queries
}

func NewStorage(queries *Queries) *Storage {
	return &Storage{
		queries: queries,
	}
}

func (s *Storage) SaveSnapshot(
	ctx context.Context,
	snapshot *types.BankSnapshot,
) (*types.BankSnapshot, error) {
	if snapshot == nil || snapshot.Bank == "" {
		return nil, errInvalidSnapshot
	}

	date, err := types.ParseDate(snapshot.Date)
	if err != nil {
		return nil, err
	}

	quotes, err := json.Marshal(snapshot.Quotes)
	if err != nil {
		return nil, fmt.Errorf("unable to encode quotes: %w", err)
	}

	arg := UpsertBankRateParams{
		Bank:       snapshot.Bank,
		RateDate:   dateToPG(date),
		Quotes:     quotes,
		CapturedAt: timeToTimestampz(snapshot.CapturedAt),
	}

	row, err := s.queries.UpsertBankRate(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("unable to save snapshot: %w", err)
	}

	return parseBankRate(row)
}

func (s *Storage) Snapshots(
	ctx context.Context,
	query *types.SnapshotQuery,
) (*types.Page[*types.BankSnapshot], error) {
	arg := BankRatesParams{
		Limit:  clampLimit(query.Limit),
		Offset: max(query.Offset, 0),
	}

	if query.Bank != nil {
		arg.Bank = pgtype.Text{String: *query.Bank, Valid: true}
	}

	if query.Date != nil {
		date, err := types.ParseDate(*query.Date)
		if err != nil {
			return nil, err
		}

		arg.RateDate = dateToPG(date)
	}

	results, err := s.queries.BankRates(ctx, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &types.Page[*types.BankSnapshot]{}, nil // valid case
		}

		return nil, fmt.Errorf("unable to fetch snapshots: %w", err)
	}

	if len(results) == 0 {
		return &types.Page[*types.BankSnapshot]{}, nil // valid case
	}

	items := make([]*types.BankSnapshot, 0, len(results))

	for _, result := range results {
		snapshot, err := parseBankRate(result.BankRate)
		if err != nil {
			return nil, err
		}

		items = append(items, snapshot)
	}

	return &types.Page[*types.BankSnapshot]{
		Results: items,
		Total:   results[0].Total,
	}, nil
}

func (s *Storage) LatestSnapshots(ctx context.Context) ([]*types.BankSnapshot, error) {
	results, err := s.queries.LatestBankRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch latest snapshots: %w", err)
	}

	out := make([]*types.BankSnapshot, 0, len(results))

	for _, result := range results {
		snapshot, err := parseBankRate(result)
		if err != nil {
			return nil, err
		}

		out = append(out, snapshot)
	}

	return out, nil
}

func (s *Storage) ListBanks(ctx context.Context) ([]string, error) {
	banks, err := s.queries.ListBanks(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch banks: %w", err)
	}

	return banks, nil
}

// parseBankRate parses the postgres row to the common Go type
func parseBankRate(row BankRate) (*types.BankSnapshot, error) {
	var quotes types.Quotes

	if err := json.Unmarshal(row.Quotes, &quotes); err != nil {
		return nil, fmt.Errorf("unable to decode quotes for %s: %w", row.Bank, err)
	}

	return &types.BankSnapshot{
		Bank:       row.Bank,
		Date:       row.RateDate.Time.Format(types.DateLayout),
		Quotes:     quotes,
		CapturedAt: timestampzToTime(row.CapturedAt),
	}, nil
}

func clampLimit(limit int32) int32 {
	if limit <= 0 {
		return defaultLimit
	}

	return min(limit, maxLimit)
}

// dateToPG converts the calendar date to a postgres date
func dateToPG(t time.Time) pgtype.Date {
	return pgtype.Date{
		Time:  t,
		Valid: true,
	}
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time.UTC()
}
