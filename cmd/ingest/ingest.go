package ingest

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/mnrates/cmd/env"
	"github.com/sig-0/mnrates/cmd/pipeline"
	"github.com/sig-0/mnrates/cmd/store"
	ingestpkg "github.com/sig-0/mnrates/ingest"
	"github.com/sig-0/mnrates/ingest/config"
	"github.com/sig-0/mnrates/storage/types"
)

// NewIngestCmd creates the ingest subcommand
func NewIngestCmd() *ffcli.Command {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)

	cmd := &ffcli.Command{
		Name:       "ingest",
		ShortUsage: "ingest <subcommand> [flags] [<arg>...]",
		LongHelp:   "Runs one-off rate ingestions",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
	}

	// Add the subcommands
	cmd.Subcommands = []*ffcli.Command{
		newRunCmd(),
		newBankCmd(),
		newBackfillCmd(),
	}

	return cmd
}

// commonCfg wraps the configuration shared by the ingest subcommands
type commonCfg struct {
	pipeline *pipeline.Config
	storeCfg store.Config
	logCfg   env.LogConfig

	// output is where the command results are written,
	// logs go to logCfg.Output so the results stay parsable
	output io.Writer
}

func newCommonCfg(output, logOutput io.Writer) *commonCfg {
	return &commonCfg{
		pipeline: pipeline.NewConfig(),
		logCfg: env.LogConfig{
			Output: logOutput,
		},
		output: output,
	}
}

func (c *commonCfg) registerFlags(fs *flag.FlagSet, withStore bool) {
	if withStore {
		c.storeCfg.RegisterFlags(fs, store.DriverPostgres)
	}

	c.logCfg.RegisterFlags(fs)
	c.pipeline.RegisterFlags(fs)
}

// environment is the assembled ingestion pipeline of a command run
type environment struct {
	logger       *slog.Logger
	config       *config.Config
	orchestrator *ingestpkg.Orchestrator
	closeFn      func()
}

// setup assembles the pipeline. The orchestrator persists to the
// configured storage, or to memory when withStore is not set
func (c *commonCfg) setup(ctx context.Context, withStore bool) (*environment, error) {
	logger, err := env.NewLogger(c.logCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create logger, %w", err)
	}

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Debug("unable to load .env file")
	}

	cfg, err := c.pipeline.Load()
	if err != nil {
		return nil, err
	}

	storeCfg := c.storeCfg
	if !withStore {
		storeCfg = store.Config{Driver: store.DriverMemory}
	}

	s, closeFn, err := store.Open(ctx, storeCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("unable to open storage, %w", err)
	}

	orchestrator, err := pipeline.NewOrchestrator(cfg, s, logger, nil)
	if err != nil {
		closeFn()

		return nil, fmt.Errorf("unable to create orchestrator, %w", err)
	}

	return &environment{
		logger:       logger,
		config:       cfg,
		orchestrator: orchestrator,
		closeFn:      closeFn,
	}, nil
}

// resolveDate returns the given date, or today in the reporting timezone
func resolveDate(cfg *config.Config, date string, now time.Time) (string, error) {
	if date == "" {
		loc, err := cfg.Location()
		if err != nil {
			return "", err
		}

		return now.In(loc).Format(types.DateLayout), nil
	}

	if _, err := types.ParseDate(date); err != nil {
		return "", err
	}

	return date, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
