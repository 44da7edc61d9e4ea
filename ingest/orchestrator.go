package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/mnrates/metrics"
	"github.com/sig-0/mnrates/storage"
	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

var (
	// ErrUnknownBank is returned for bank identifiers matching no registered adapter
	ErrUnknownBank = errors.New("unknown bank")

	errInvalidAdapter   = errors.New("invalid adapter")
	errDuplicateAdapter = errors.New("duplicate adapter")
)

const (
	defaultDirectWorkers   = 8
	defaultRenderedWorkers = 2
	defaultAdapterTimeout  = 2 * time.Minute

	saveTimeout = 10 * time.Second
)

// Orchestrator runs the registered bank adapters and persists their snapshots
type Orchestrator struct {
	storage storage.Storage
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	lookup   map[string]Adapter // lowercase names and aliases
	adapters []Adapter          // registration order
	mux      sync.RWMutex

	directWorkers   int
	renderedWorkers int
	adapterTimeout  time.Duration
}

// New creates a new Orchestrator instance
func New(storage storage.Storage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		storage:         storage,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
		lookup:          make(map[string]Adapter),
		directWorkers:   defaultDirectWorkers,
		renderedWorkers: defaultRenderedWorkers,
		adapterTimeout:  defaultAdapterTimeout,
	}

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Register registers a new adapter with the orchestrator.
// The adapter is looked up by its name and the given aliases, case-insensitive
func (o *Orchestrator) Register(a Adapter, aliases ...string) error {
	if a == nil || a.Name() == "" {
		return errInvalidAdapter
	}

	o.mux.Lock()
	defer o.mux.Unlock()

	keys := append([]string{a.Name()}, aliases...)

	for _, key := range keys {
		if _, ok := o.lookup[lookupKey(key)]; ok {
			return fmt.Errorf("%w: %q", errDuplicateAdapter, key)
		}
	}

	for _, key := range keys {
		o.lookup[lookupKey(key)] = a
	}

	o.adapters = append(o.adapters, a)

	o.logger.Info(
		"registered new adapter",
		"bank", a.Name(),
		"kind", a.Kind().String(),
	)

	return nil
}

// Lookup finds the adapter by its bank name or alias, case-insensitive
func (o *Orchestrator) Lookup(bank string) (Adapter, bool) {
	o.mux.RLock()
	defer o.mux.RUnlock()

	a, ok := o.lookup[lookupKey(bank)]

	return a, ok
}

// Banks returns the canonical names of the registered adapters
func (o *Orchestrator) Banks() []string {
	o.mux.RLock()
	defer o.mux.RUnlock()

	banks := make([]string, 0, len(o.adapters))
	for _, a := range o.adapters {
		banks = append(banks, a.Name())
	}

	return banks
}

// Run crawls all registered adapters for the date, and persists
// the non-empty successful snapshots. Adapter and persistence failures
// are reported in the summary, and never fail the run
func (o *Orchestrator) Run(ctx context.Context, date string) (*RunSummary, error) {
	if _, err := types.ParseDate(date); err != nil {
		return nil, err
	}

	summary := &RunSummary{
		ID:        xid.New(),
		Date:      date,
		StartedAt: o.now(),
	}

	logger := o.logger.With("run_id", summary.ID.String(), "date", date)

	o.mux.RLock()
	adapters := append([]Adapter(nil), o.adapters...)
	o.mux.RUnlock()

	// Dispatching
	logger.Info(
		"dispatching adapters",
		"adapters", len(adapters),
		"direct_workers", o.directWorkers,
		"rendered_workers", o.renderedWorkers,
	)

	var (
		collectorCh = make(chan *Result, len(adapters))
		pools       = map[transport.Kind][]Adapter{}
	)

	for _, a := range adapters {
		pools[a.Kind()] = append(pools[a.Kind()], a)
	}

	var g errgroup.Group

	for kind, members := range pools {
		g.Go(func() error {
			o.runPool(ctx, members, o.poolLimit(kind), date, collectorCh)

			return nil
		})
	}

	// Both pools drain before the results are collected
	_ = g.Wait()

	close(collectorCh)

	// Collecting
	byBank := make(map[string]*Result, len(adapters))

	for result := range collectorCh {
		byBank[result.Bank] = result

		outcome := metrics.OutcomeSuccess

		switch {
		case result.Failed():
			outcome = metrics.OutcomeFailure

			logger.Error(
				"adapter run failed",
				"bank", result.Bank,
				"kind", result.Kind.String(),
				"duration", result.Duration,
				"err", result.Err,
			)
		case len(result.Quotes) == 0:
			outcome = metrics.OutcomeEmpty

			logger.Warn(
				"adapter returned no quotes",
				"bank", result.Bank,
				"kind", result.Kind.String(),
				"duration", result.Duration,
			)
		default:
			logger.Info(
				"adapter run completed",
				"bank", result.Bank,
				"kind", result.Kind.String(),
				"currencies", len(result.Quotes),
				"duration", result.Duration,
			)
		}

		o.metrics.ObserveAdapterRun(result.Bank, result.Kind.String(), outcome, result.Duration)
	}

	summary.Results = make([]*Result, 0, len(adapters))
	for _, a := range adapters {
		summary.Results = append(summary.Results, byBank[a.Name()])
	}

	// Persisting
	logger.Info("persisting snapshots")

	for _, result := range summary.Results {
		if result.Failed() || len(result.Quotes) == 0 {
			continue
		}

		o.persist(ctx, logger, date, result)
	}

	summary.FinishedAt = o.now()
	o.metrics.RunCompleted(summary.FinishedAt)

	// Done
	logger.Info(
		"ingestion run done",
		"failed", summary.Failed(),
		"saved", summary.Saved(),
		"took", summary.FinishedAt.Sub(summary.StartedAt),
	)

	return summary, nil
}

// RunOne crawls a single bank for the date, without persisting the quotes
func (o *Orchestrator) RunOne(ctx context.Context, bank, date string) (types.Quotes, error) {
	a, ok := o.Lookup(bank)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBank, bank)
	}

	if _, err := types.ParseDate(date); err != nil {
		return nil, err
	}

	resCh := make(chan *Result, 1)

	handleJob(ctx, &workerInfo{
		adapter: a,
		resCh:   resCh,
		date:    date,
		timeout: o.adapterTimeout,
	})

	result := <-resCh

	outcome := metrics.OutcomeSuccess

	switch {
	case result.Failed():
		outcome = metrics.OutcomeFailure
	case len(result.Quotes) == 0:
		outcome = metrics.OutcomeEmpty
	}

	o.metrics.ObserveAdapterRun(result.Bank, result.Kind.String(), outcome, result.Duration)

	o.logger.Info(
		"single bank run completed",
		"bank", result.Bank,
		"date", date,
		"outcome", outcome,
		"duration", result.Duration,
	)

	return result.Quotes, result.Err
}

// runPool runs the adapters, with at most limit running at a time
func (o *Orchestrator) runPool(
	ctx context.Context,
	adapters []Adapter,
	limit int,
	date string,
	resCh chan<- *Result,
) {
	var g errgroup.Group

	g.SetLimit(limit)

	for _, a := range adapters {
		info := &workerInfo{
			adapter: a,
			resCh:   resCh,
			date:    date,
			timeout: o.adapterTimeout,
		}

		g.Go(func() error {
			handleJob(ctx, info)

			return nil
		})
	}

	_ = g.Wait()
}

func (o *Orchestrator) poolLimit(kind transport.Kind) int {
	if kind == transport.KindRendered {
		return o.renderedWorkers
	}

	return o.directWorkers
}

// persist upserts the snapshot of a successful adapter run
func (o *Orchestrator) persist(
	ctx context.Context,
	logger *slog.Logger,
	date string,
	result *Result,
) {
	saveCtx, cancelFn := context.WithTimeout(ctx, saveTimeout)
	defer cancelFn()

	snapshot := &types.BankSnapshot{
		Bank:       result.Bank,
		Date:       date,
		Quotes:     result.Quotes,
		CapturedAt: o.now().UTC(),
	}

	if _, err := o.storage.SaveSnapshot(saveCtx, snapshot); err != nil {
		result.SaveErr = err

		logger.Error(
			"unable to save snapshot",
			"bank", result.Bank,
			"err", err,
		)

		return
	}

	result.Saved = true
	o.metrics.SnapshotSaved(result.Bank)

	logger.Info(
		"saved snapshot",
		"bank", result.Bank,
		"currencies", len(result.Quotes),
	)
}

func lookupKey(bank string) string {
	return strings.ToLower(strings.TrimSpace(bank))
}
