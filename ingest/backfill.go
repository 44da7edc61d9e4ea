package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/sig-0/mnrates/storage/types"
)

// DefaultBackfillStart is the first date covered by a backfill without an explicit start
const DefaultBackfillStart = "2026-01-01"

var ErrInvalidRange = errors.New("invalid date range")

// DayResult is the outcome of a single backfilled day
type DayResult struct {
	Err     error       // run error, if any
	Summary *RunSummary // the run summary, nil on error
	Date    string
}

// Backfill runs the ingestion once per day in the inclusive [from, to] range,
// sequentially. Failed days are logged and skipped.
// The backfill stops early only if the context is cancelled
func (o *Orchestrator) Backfill(ctx context.Context, from, to string) ([]*DayResult, error) {
	start, err := types.ParseDate(from)
	if err != nil {
		return nil, err
	}

	end, err := types.ParseDate(to)
	if err != nil {
		return nil, err
	}

	if start.After(end) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from, to)
	}

	var (
		totalDays = int(end.Sub(start).Hours()/24) + 1
		results   = make([]*DayResult, 0, totalDays)
	)

	o.logger.Info(
		"starting backfill",
		"from", from,
		"to", to,
		"days", totalDays,
	)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		date := day.Format(types.DateLayout)

		o.logger.Info(
			"backfilling day",
			"date", date,
			"day", len(results)+1,
			"days", totalDays,
		)

		summary, runErr := o.Run(ctx, date)
		if runErr != nil {
			o.logger.Error(
				"unable to backfill day",
				"date", date,
				"err", runErr,
			)
		}

		results = append(results, &DayResult{
			Err:     runErr,
			Summary: summary,
			Date:    date,
		})
	}

	o.logger.Info("backfill done", "days", len(results))

	return results, nil
}
