package ingest

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

// Adapter is a single bank rate source
type Adapter interface {
	// Name returns the canonical bank identifier
	Name() string

	// Kind returns the transport class the adapter runs on,
	// which selects its worker pool
	Kind() transport.Kind

	// Crawl fetches the bank's quotes for the given YYYY-MM-DD date
	Crawl(ctx context.Context, date string) (types.Quotes, error)
}

// Result is the outcome of a single adapter run
type Result struct {
	Err      error          // crawl error, if any
	SaveErr  error          // persistence error, if any
	Quotes   types.Quotes   // the fetched quotes, nil on failure
	Bank     string         // the canonical bank identifier
	Kind     transport.Kind // the adapter transport kind
	Duration time.Duration  // crawl duration
	Saved    bool           // flag indicating if the snapshot was persisted
}

// Failed returns true if the crawl failed
func (r *Result) Failed() bool {
	return r.Err != nil
}

// RunSummary is the outcome of a full ingestion run
type RunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Date       string
	Results    []*Result // one per registered adapter, in registration order
	ID         xid.ID
}

// Failed returns the number of failed adapter runs
func (s *RunSummary) Failed() int {
	failed := 0

	for _, r := range s.Results {
		if r.Failed() {
			failed++
		}
	}

	return failed
}

// Saved returns the number of persisted snapshots
func (s *RunSummary) Saved() int {
	saved := 0

	for _, r := range s.Results {
		if r.Saved {
			saved++
		}
	}

	return saved
}
