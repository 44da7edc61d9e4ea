package sql

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/pressly/goose/v3"

	"github.com/sig-0/mnrates/cmd/env"
	dbpkg "github.com/sig-0/mnrates/storage/sql"
)

// migrateCfg wraps the migrate configuration
type migrateCfg struct {
	rootCfg *sqlCfg
}

// newMigrateCmd creates the migrate command
func newMigrateCmd(rootCfg *sqlCfg) *ffcli.Command {
	cfg := &migrateCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	rootCfg.RegisterFlags(fs)

	return &ffcli.Command{
		Name:       "migrate",
		ShortUsage: "sql migrate [flags]",
		LongHelp:   "Applies the pending DB migrations",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *migrateCfg) exec(ctx context.Context, _ []string) error {
	// Load .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Unable to load .env file")
	}

	dsn := c.rootCfg.dbURL
	if dsn == "" {
		dsn = os.Getenv(env.Prefix + env.DBURLSuffix)
	}

	if dsn == "" {
		return fmt.Errorf("missing %s", env.Prefix+env.DBURLSuffix)
	}

	// Open the DB
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}

	defer func() {
		if err = db.Close(); err != nil {
			fmt.Printf("Unable to gracefully close DB: %s\n", err.Error())
		}
	}()

	// Ping the DB
	if err = db.PingContext(ctx); err != nil {
		return fmt.Errorf("unable to ping DB: %w", err)
	}

	goose.SetBaseFS(dbpkg.SchemaFS)

	if err = goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("unable to set migration dialect: %w", err)
	}

	if err = goose.UpContext(ctx, db, dbpkg.SchemaDir); err != nil {
		return fmt.Errorf("unable to run migrations: %w", err)
	}

	fmt.Println("All migrations complete!")

	return nil
}
