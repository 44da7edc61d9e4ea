package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/mnrates/storage/types"
)

func snapshot(bank, date, usdBuy string) *types.BankSnapshot {
	return &types.BankSnapshot{
		Bank:       bank,
		Date:       date,
		CapturedAt: time.Now(),
		Quotes: types.Quotes{
			"usd": {
				Cash: types.RateQuote{
					Buy: decimal.NewNullDecimal(decimal.RequireFromString(usdBuy)),
				},
			},
		},
	}
}

func TestStorage_SaveSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("invalid snapshot", func(t *testing.T) {
		t.Parallel()

		s := NewStorage()

		_, err := s.SaveSnapshot(context.Background(), nil)
		assert.ErrorIs(t, err, errInvalidSnapshot)

		_, err = s.SaveSnapshot(context.Background(), snapshot("KhanBank", "2026/01/01", "1"))
		assert.ErrorIs(t, err, types.ErrInvalidDate)
	})

	t.Run("upsert overwrites same key", func(t *testing.T) {
		t.Parallel()

		var (
			ctx = context.Background()
			s   = NewStorage()
		)

		_, err := s.SaveSnapshot(ctx, snapshot("KhanBank", "2026-01-15", "3420.5"))
		require.NoError(t, err)

		_, err = s.SaveSnapshot(ctx, snapshot("KhanBank", "2026-01-15", "3421"))
		require.NoError(t, err)

		page, err := s.Snapshots(ctx, &types.SnapshotQuery{})
		require.NoError(t, err)

		require.Len(t, page.Results, 1)
		assert.Equal(t, int64(1), page.Total)

		stored := page.Results[0].Quotes["usd"].Cash.Buy
		require.True(t, stored.Valid)
		assert.True(t, decimal.RequireFromString("3421").Equal(stored.Decimal))
	})

	t.Run("concurrent saves of one key", func(t *testing.T) {
		t.Parallel()

		var (
			ctx = context.Background()
			s   = NewStorage()
			wg  sync.WaitGroup
		)

		for i := range 20 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := s.SaveSnapshot(ctx, snapshot("GolomtBank", "2026-01-15", fmt.Sprintf("%d", i+1)))
				assert.NoError(t, err)
			}()
		}

		wg.Wait()

		page, err := s.Snapshots(ctx, &types.SnapshotQuery{})
		require.NoError(t, err)
		assert.Len(t, page.Results, 1)
	})
}

func TestStorage_Queries(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()
		s   = NewStorage()
	)

	for _, snap := range []*types.BankSnapshot{
		snapshot("KhanBank", "2026-01-14", "1"),
		snapshot("KhanBank", "2026-01-15", "2"),
		snapshot("TDBM", "2026-01-14", "3"),
	} {
		_, err := s.SaveSnapshot(ctx, snap)
		require.NoError(t, err)
	}

	t.Run("filter by bank", func(t *testing.T) {
		t.Parallel()

		bank := "KhanBank"

		page, err := s.Snapshots(ctx, &types.SnapshotQuery{Bank: &bank})
		require.NoError(t, err)

		require.Len(t, page.Results, 2)
		assert.Equal(t, "2026-01-15", page.Results[0].Date)
		assert.Equal(t, "2026-01-14", page.Results[1].Date)
	})

	t.Run("filter by date", func(t *testing.T) {
		t.Parallel()

		date := "2026-01-14"

		page, err := s.Snapshots(ctx, &types.SnapshotQuery{Date: &date})
		require.NoError(t, err)

		require.Len(t, page.Results, 2)
		assert.Equal(t, "KhanBank", page.Results[0].Bank)
		assert.Equal(t, "TDBM", page.Results[1].Bank)
	})

	t.Run("pagination", func(t *testing.T) {
		t.Parallel()

		page, err := s.Snapshots(ctx, &types.SnapshotQuery{Limit: 1, Offset: 1})
		require.NoError(t, err)

		require.Len(t, page.Results, 1)
		assert.Equal(t, int64(3), page.Total)

		page, err = s.Snapshots(ctx, &types.SnapshotQuery{Offset: 10})
		require.NoError(t, err)

		assert.Empty(t, page.Results)
		assert.Equal(t, int64(3), page.Total)
	})

	t.Run("latest per bank", func(t *testing.T) {
		t.Parallel()

		latest, err := s.LatestSnapshots(ctx)
		require.NoError(t, err)

		require.Len(t, latest, 2)
		assert.Equal(t, "KhanBank", latest[0].Bank)
		assert.Equal(t, "2026-01-15", latest[0].Date)
		assert.Equal(t, "TDBM", latest[1].Bank)
	})

	t.Run("list banks", func(t *testing.T) {
		t.Parallel()

		banks, err := s.ListBanks(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{"KhanBank", "TDBM"}, banks)
	})
}
