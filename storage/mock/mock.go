package mock

import (
	"context"

	"github.com/sig-0/mnrates/storage/types"
)

type (
	SaveSnapshotDelegate    func(context.Context, *types.BankSnapshot) (*types.BankSnapshot, error)
	SnapshotsDelegate       func(context.Context, *types.SnapshotQuery) (*types.Page[*types.BankSnapshot], error)
	LatestSnapshotsDelegate func(context.Context) ([]*types.BankSnapshot, error)
	ListBanksDelegate       func(context.Context) ([]string, error)
)

type Storage struct {
	SaveSnapshotFn    SaveSnapshotDelegate
	SnapshotsFn       SnapshotsDelegate
	LatestSnapshotsFn LatestSnapshotsDelegate
	ListBanksFn       ListBanksDelegate
}

func (m *Storage) SaveSnapshot(
	ctx context.Context,
	snapshot *types.BankSnapshot,
) (*types.BankSnapshot, error) {
	if m.SaveSnapshotFn != nil {
		return m.SaveSnapshotFn(ctx, snapshot)
	}

	return snapshot, nil
}

func (m *Storage) Snapshots(
	ctx context.Context,
	query *types.SnapshotQuery,
) (*types.Page[*types.BankSnapshot], error) {
	if m.SnapshotsFn != nil {
		return m.SnapshotsFn(ctx, query)
	}

	return nil, nil
}

func (m *Storage) LatestSnapshots(ctx context.Context) ([]*types.BankSnapshot, error) {
	if m.LatestSnapshotsFn != nil {
		return m.LatestSnapshotsFn(ctx)
	}

	return nil, nil
}

func (m *Storage) ListBanks(ctx context.Context) ([]string, error) {
	if m.ListBanksFn != nil {
		return m.ListBanksFn(ctx)
	}

	return nil, nil
}
