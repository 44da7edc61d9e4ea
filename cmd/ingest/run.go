package ingest

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/mnrates/cmd/env"
)

// runCfg wraps the run configuration
type runCfg struct {
	common *commonCfg

	date string
}

// newRunCmd creates the ingest run command
func newRunCmd() *ffcli.Command {
	cfg := &runCfg{
		common: newCommonCfg(os.Stdout, os.Stderr),
	}

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "run",
		ShortUsage: "ingest run [flags]",
		LongHelp:   "Crawls every bank for the date, and persists the results",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *runCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.date,
		"date",
		"",
		"the YYYY-MM-DD date to ingest. Defaults to today in the reporting timezone",
	)

	c.common.registerFlags(fs, true)
}

func (c *runCfg) exec(ctx context.Context, _ []string) error {
	e, err := c.common.setup(ctx, true)
	if err != nil {
		return err
	}

	defer e.closeFn()

	date, err := resolveDate(e.config, c.date, time.Now())
	if err != nil {
		return err
	}

	summary, err := e.orchestrator.Run(ctx, date)
	if err != nil {
		return fmt.Errorf("unable to run ingestion, %w", err)
	}

	return writeJSON(c.common.output, newRunReport(summary))
}
