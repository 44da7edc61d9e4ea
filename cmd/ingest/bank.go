package ingest

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/mnrates/cmd/env"
	ingestpkg "github.com/sig-0/mnrates/ingest"
	"github.com/sig-0/mnrates/storage/types"
)

var errMissingBank = errors.New("missing bank identifier")

// bankCfg wraps the bank configuration
type bankCfg struct {
	common *commonCfg

	date string
}

// bankOutput is the printed result of a single bank crawl
type bankOutput struct {
	Quotes types.Quotes `json:"quotes"`
	Bank   string       `json:"bank"`
	Date   string       `json:"date"`
}

// newBankCmd creates the ingest bank command
func newBankCmd() *ffcli.Command {
	cfg := &bankCfg{
		common: newCommonCfg(os.Stdout, os.Stderr),
	}

	fs := flag.NewFlagSet("bank", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "bank",
		ShortUsage: "ingest bank [flags] <bank>",
		LongHelp:   "Crawls a single bank for the date and prints the quotes. Nothing is persisted",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *bankCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.date,
		"date",
		"",
		"the YYYY-MM-DD date to crawl. Defaults to today in the reporting timezone",
	)

	c.common.registerFlags(fs, false)
}

func (c *bankCfg) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errMissingBank
	}

	e, err := c.common.setup(ctx, false)
	if err != nil {
		return err
	}

	defer e.closeFn()

	date, err := resolveDate(e.config, c.date, time.Now())
	if err != nil {
		return err
	}

	bank := args[0]

	quotes, err := e.orchestrator.RunOne(ctx, bank, date)
	if err != nil {
		if errors.Is(err, ingestpkg.ErrUnknownBank) {
			return fmt.Errorf(
				"bank %q not found, available banks: %s",
				bank,
				strings.Join(e.orchestrator.Banks(), ", "),
			)
		}

		return fmt.Errorf("unable to crawl %s, %w", bank, err)
	}

	return writeJSON(c.common.output, &bankOutput{
		Quotes: quotes,
		Bank:   bank,
		Date:   date,
	})
}
