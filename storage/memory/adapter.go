package memory

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"

	"github.com/sig-0/mnrates/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

var errInvalidSnapshot = errors.New("invalid snapshot")

type key struct {
	bank, date string
}

type Storage struct {
	data map[key]types.BankSnapshot

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		data: make(map[key]types.BankSnapshot),
	}
}

func (s *Storage) SaveSnapshot(
	_ context.Context,
	snapshot *types.BankSnapshot,
) (*types.BankSnapshot, error) {
	if snapshot == nil || snapshot.Bank == "" {
		return nil, errInvalidSnapshot
	}

	if _, err := types.ParseDate(snapshot.Date); err != nil {
		return nil, err
	}

	elem := *snapshot
	elem.CapturedAt = elem.CapturedAt.UTC()
	elem.Quotes = maps.Clone(snapshot.Quotes)

	s.mu.Lock()
	s.data[key{bank: elem.Bank, date: elem.Date}] = elem // key is unique
	s.mu.Unlock()

	out := elem

	return &out, nil
}

func (s *Storage) Snapshots(
	_ context.Context,
	query *types.SnapshotQuery,
) (*types.Page[*types.BankSnapshot], error) {
	s.mu.RLock()

	out := make([]*types.BankSnapshot, 0, len(s.data))

	for k, v := range s.data {
		if query.Bank != nil && k.bank != *query.Bank {
			continue
		}

		if query.Date != nil && k.date != *query.Date {
			continue
		}

		cp := v
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}

		return out[i].Bank < out[j].Bank
	})

	total := int64(len(out))

	lim := query.Limit
	if lim <= 0 {
		lim = defaultLimit
	}

	if lim > maxLimit {
		lim = maxLimit
	}

	off := query.Offset
	if off < 0 || off >= total {
		return &types.Page[*types.BankSnapshot]{
			Results: nil,
			Total:   total,
		}, nil
	}

	start := int(off)
	end := start + int(lim)

	if end > len(out) {
		end = len(out)
	}

	return &types.Page[*types.BankSnapshot]{
		Results: out[start:end],
		Total:   total,
	}, nil
}

func (s *Storage) LatestSnapshots(_ context.Context) ([]*types.BankSnapshot, error) {
	s.mu.RLock()

	latest := make(map[string]types.BankSnapshot)

	for k, v := range s.data {
		cur, ok := latest[k.bank]
		if !ok || v.Date > cur.Date {
			latest[k.bank] = v
		}
	}

	s.mu.RUnlock()

	out := make([]*types.BankSnapshot, 0, len(latest))
	for _, v := range latest {
		cp := v
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Bank < out[j].Bank
	})

	return out, nil
}

func (s *Storage) ListBanks(_ context.Context) ([]string, error) {
	s.mu.RLock()

	seen := make(map[string]struct{})

	for k := range s.data {
		seen[k.bank] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]string, 0, len(seen))

	for v := range seen {
		out = append(out, v)
	}

	sort.Strings(out)

	return out, nil
}
