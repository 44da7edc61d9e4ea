// Package orm implements snapshot storage on top of gorm,
// for SQLite deployments and gorm-managed Postgres schemas
package orm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/sig-0/mnrates/storage/types"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

var (
	errInvalidSnapshot = errors.New("invalid snapshot")
	errUnknownDialect  = errors.New("unknown dialect")
)

// bankRate is the bank_rates table model
type bankRate struct {
	CapturedAt time.Time    `gorm:"not null"`
	Quotes     types.Quotes `gorm:"serializer:json;type:text;not null"`
	Bank       string       `gorm:"size:64;not null;index:idx_bank_rates_bank;uniqueIndex:idx_bank_rates_bank_date,priority:1"`
	RateDate   string       `gorm:"size:10;not null;index:idx_bank_rates_date;uniqueIndex:idx_bank_rates_bank_date,priority:2"`
	ID         uint         `gorm:"primaryKey"`
}

func (bankRate) TableName() string {
	return "bank_rates"
}

type Storage struct {
	db *gorm.DB
}

// Open opens the database for the given dialect and migrates the schema
func Open(dialect, dsn string) (*Storage, error) {
	var dialector gorm.Dialector

	switch dialect {
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownDialect, dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open %s database: %w", dialect, err)
	}

	return NewStorage(db)
}

// NewStorage wraps an open gorm handle, migrating the bank_rates table
func NewStorage(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(&bankRate{}); err != nil {
		return nil, fmt.Errorf("unable to migrate schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (s *Storage) SaveSnapshot(
	ctx context.Context,
	snapshot *types.BankSnapshot,
) (*types.BankSnapshot, error) {
	if snapshot == nil || snapshot.Bank == "" {
		return nil, errInvalidSnapshot
	}

	if _, err := types.ParseDate(snapshot.Date); err != nil {
		return nil, err
	}

	row := bankRate{
		Bank:       snapshot.Bank,
		RateDate:   snapshot.Date,
		Quotes:     snapshot.Quotes,
		CapturedAt: snapshot.CapturedAt.UTC(),
	}

	if row.Quotes == nil {
		row.Quotes = types.Quotes{}
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "bank"},
				{Name: "rate_date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"quotes", "captured_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("unable to save snapshot: %w", err)
	}

	return toSnapshot(row), nil
}

func (s *Storage) Snapshots(
	ctx context.Context,
	query *types.SnapshotQuery,
) (*types.Page[*types.BankSnapshot], error) {
	filter := func(tx *gorm.DB) *gorm.DB {
		if query.Bank != nil {
			tx = tx.Where("bank = ?", *query.Bank)
		}

		if query.Date != nil {
			tx = tx.Where("rate_date = ?", *query.Date)
		}

		return tx
	}

	var total int64

	err := s.db.WithContext(ctx).
		Model(&bankRate{}).
		Scopes(filter).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("unable to count snapshots: %w", err)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	limit = min(limit, maxLimit)

	var rows []bankRate

	err = s.db.WithContext(ctx).
		Scopes(filter).
		Order("rate_date DESC").
		Order("bank ASC").
		Limit(int(limit)).
		Offset(int(max(query.Offset, 0))).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("unable to fetch snapshots: %w", err)
	}

	items := make([]*types.BankSnapshot, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSnapshot(row))
	}

	return &types.Page[*types.BankSnapshot]{
		Results: items,
		Total:   total,
	}, nil
}

func (s *Storage) LatestSnapshots(ctx context.Context) ([]*types.BankSnapshot, error) {
	latest := s.db.
		Model(&bankRate{}).
		Select("bank, MAX(rate_date) AS rate_date").
		Group("bank")

	var rows []bankRate

	err := s.db.WithContext(ctx).
		Model(&bankRate{}).
		Select("bank_rates.*").
		Joins(
			"JOIN (?) AS latest ON latest.bank = bank_rates.bank AND latest.rate_date = bank_rates.rate_date",
			latest,
		).
		Order("bank_rates.bank ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("unable to fetch latest snapshots: %w", err)
	}

	out := make([]*types.BankSnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSnapshot(row))
	}

	return out, nil
}

func (s *Storage) ListBanks(ctx context.Context) ([]string, error) {
	var banks []string

	err := s.db.WithContext(ctx).
		Model(&bankRate{}).
		Distinct("bank").
		Order("bank ASC").
		Pluck("bank", &banks).Error
	if err != nil {
		return nil, fmt.Errorf("unable to fetch banks: %w", err)
	}

	return banks, nil
}

func toSnapshot(row bankRate) *types.BankSnapshot {
	return &types.BankSnapshot{
		Bank:       row.Bank,
		Date:       row.RateDate,
		Quotes:     row.Quotes,
		CapturedAt: row.CapturedAt.UTC(),
	}
}
