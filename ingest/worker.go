package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sig-0/mnrates/storage/types"
)

var errAdapterPanic = errors.New("adapter panicked")

// workerInfo is the work context for the adapter routine
type workerInfo struct {
	adapter Adapter
	resCh   chan<- *Result
	date    string
	timeout time.Duration
}

// crawlResponse is the raw adapter crawl outcome
type crawlResponse struct {
	err    error
	quotes types.Quotes
}

// handleJob crawls using the adapter, bounded by the adapter timeout.
// The worker is released on timeout even if the adapter does not
// honor the context, and adapter panics are reported as failures
func handleJob(
	ctx context.Context,
	info *workerInfo,
) {
	var (
		start  = time.Now()
		doneCh = make(chan crawlResponse, 1)
	)

	jobCtx, cancelFn := context.WithTimeout(ctx, info.timeout)
	defer cancelFn()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				doneCh <- crawlResponse{
					err: fmt.Errorf("%w: %v", errAdapterPanic, r),
				}
			}
		}()

		quotes, err := info.adapter.Crawl(jobCtx, info.date)

		doneCh <- crawlResponse{
			err:    err,
			quotes: quotes,
		}
	}()

	var response crawlResponse

	select {
	case <-jobCtx.Done():
		response.err = fmt.Errorf("unable to complete crawl: %w", jobCtx.Err())
	case response = <-doneCh:
	}

	switch {
	case response.err != nil:
		response.quotes = nil
	case response.quotes == nil:
		response.quotes = types.Quotes{}
	}

	info.resCh <- &Result{
		Err:      response.err,
		Quotes:   response.quotes,
		Bank:     info.adapter.Name(),
		Kind:     info.adapter.Kind(),
		Duration: time.Since(start),
	}
}
