package storage

import (
	"context"

	"github.com/sig-0/mnrates/storage/types"
)

// Storage is an abstraction over bank rate snapshots
type Storage interface {
	// SaveSnapshot upserts the snapshot keyed by (bank, date),
	// returning the stored record
	SaveSnapshot(context.Context, *types.BankSnapshot) (*types.BankSnapshot, error)

	// Snapshots fetches stored snapshots, newest date first
	Snapshots(context.Context, *types.SnapshotQuery) (*types.Page[*types.BankSnapshot], error)

	// LatestSnapshots fetches the most recent snapshot of every bank
	LatestSnapshots(context.Context) ([]*types.BankSnapshot, error)

	// ListBanks lists all banks with at least one snapshot
	ListBanks(context.Context) ([]string, error)
}
