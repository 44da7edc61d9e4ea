package ingest

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/mnrates/cmd/env"
	ingestpkg "github.com/sig-0/mnrates/ingest"
)

// backfillCfg wraps the backfill configuration
type backfillCfg struct {
	common *commonCfg

	from string
	to   string
}

// newBackfillCmd creates the ingest backfill command
func newBackfillCmd() *ffcli.Command {
	cfg := &backfillCfg{
		common: newCommonCfg(os.Stdout, os.Stderr),
	}

	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "backfill",
		ShortUsage: "ingest backfill [flags]",
		LongHelp:   "Runs the ingestion for every day in the range, sequentially",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *backfillCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.from,
		"from",
		ingestpkg.DefaultBackfillStart,
		"the first YYYY-MM-DD date of the range",
	)

	fs.StringVar(
		&c.to,
		"to",
		"",
		"the last YYYY-MM-DD date of the range. Defaults to today in the reporting timezone",
	)

	c.common.registerFlags(fs, true)
}

func (c *backfillCfg) exec(ctx context.Context, _ []string) error {
	e, err := c.common.setup(ctx, true)
	if err != nil {
		return err
	}

	defer e.closeFn()

	to, err := resolveDate(e.config, c.to, time.Now())
	if err != nil {
		return err
	}

	days, err := e.orchestrator.Backfill(ctx, c.from, to)

	reports := make([]*runReport, 0, len(days))

	for _, day := range days {
		if day.Err != nil {
			reports = append(reports, &runReport{
				Error: day.Err.Error(),
				Date:  day.Date,
			})

			continue
		}

		report := newRunReport(day.Summary)

		// per-bank detail is in the logs
		report.Banks = nil

		reports = append(reports, report)
	}

	if writeErr := writeJSON(c.common.output, reports); writeErr != nil {
		return writeErr
	}

	return err
}
