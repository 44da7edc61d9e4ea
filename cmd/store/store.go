// Package store opens the configured snapshot storage for the commands
package store

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sig-0/mnrates/cmd/env"
	"github.com/sig-0/mnrates/storage"
	"github.com/sig-0/mnrates/storage/memory"
	"github.com/sig-0/mnrates/storage/orm"
	"github.com/sig-0/mnrates/storage/sql"
)

const (
	DriverMemory       = "memory"
	DriverPostgres     = "postgres"
	DriverSQLite       = "sqlite"
	DriverGormPostgres = "gorm-postgres"
)

const (
	defaultSQLitePath = "mnrates.db"
	connectTimeout    = 5 * time.Second
)

var (
	errUnknownDriver = errors.New("unknown storage driver")
	errMissingDBURL  = errors.New("missing database URL")
)

// Config is the storage selection
type Config struct {
	Driver   string
	DBURL    string
	SSMParam string
}

// RegisterFlags registers the storage flags
func (c *Config) RegisterFlags(fs *flag.FlagSet, defaultDriver string) {
	fs.StringVar(
		&c.Driver,
		"db-driver",
		defaultDriver,
		"the storage driver (memory, postgres, sqlite, gorm-postgres)",
	)

	fs.StringVar(
		&c.DBURL,
		"db-url",
		"",
		fmt.Sprintf(
			"the database URL. Defaults to %s, or %s for sqlite",
			env.Prefix+env.DBURLSuffix,
			defaultSQLitePath,
		),
	)

	fs.StringVar(
		&c.SSMParam,
		"db-url-ssm-param",
		"",
		"the AWS SSM parameter holding the database URL, if any",
	)
}

// Open opens the configured storage. The returned close func
// is always safe to call
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (storage.Storage, func(), error) {
	noop := func() {}

	if cfg.Driver == DriverMemory {
		return memory.NewStorage(), noop, nil
	}

	dsn, err := resolveDSN(ctx, cfg)
	if err != nil {
		return nil, noop, err
	}

	switch cfg.Driver {
	case DriverPostgres:
		return openPostgres(ctx, dsn, logger)
	case DriverSQLite:
		if dsn == "" {
			dsn = defaultSQLitePath
		}

		return openORM(orm.DialectSQLite, dsn, logger)
	case DriverGormPostgres:
		if dsn == "" {
			return nil, noop, errMissingDBURL
		}

		return openORM(orm.DialectPostgres, dsn, logger)
	default:
		return nil, noop, fmt.Errorf("%w: %q", errUnknownDriver, cfg.Driver)
	}
}

func openPostgres(ctx context.Context, dsn string, logger *slog.Logger) (storage.Storage, func(), error) {
	noop := func() {}

	if dsn == "" {
		return nil, noop, errMissingDBURL
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, noop, fmt.Errorf("unable to open DB connection: %w", err)
	}

	// Check DB reachability
	pingCtx, cancelPing := context.WithTimeout(ctx, connectTimeout)
	defer cancelPing()

	if err = pool.Ping(pingCtx); err != nil {
		pool.Close()

		return nil, noop, fmt.Errorf("unable to reach DB (ping): %w", err)
	}

	logger.Info("DB ping success")

	return sql.NewStorage(sql.New(pool)), pool.Close, nil
}

func openORM(dialect, dsn string, logger *slog.Logger) (storage.Storage, func(), error) {
	s, err := orm.Open(dialect, dsn)
	if err != nil {
		return nil, func() {}, err
	}

	closeFn := func() {
		if err := s.Close(); err != nil {
			logger.Error(
				"unable to gracefully close DB connection",
				"err", err,
			)
		}
	}

	return s, closeFn, nil
}

// resolveDSN picks the database URL from the SSM parameter,
// the flag or the environment, in that order
func resolveDSN(ctx context.Context, cfg Config) (string, error) {
	if cfg.SSMParam != "" {
		return ssmParameter(ctx, cfg.SSMParam)
	}

	if cfg.DBURL != "" {
		return cfg.DBURL, nil
	}

	return os.Getenv(env.Prefix + env.DBURLSuffix), nil
}

func ssmParameter(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("unable to load AWS config: %w", err)
	}

	decrypt := true

	result, err := ssm.NewFromConfig(awsCfg).GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("unable to read SSM parameter %q: %w", name, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("%w: SSM parameter %q is empty", errMissingDBURL, name)
	}

	return *result.Parameter.Value, nil
}
