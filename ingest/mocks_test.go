package ingest

import (
	"context"
	"sync"

	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

type (
	nameDelegate  func() string
	kindDelegate  func() transport.Kind
	crawlDelegate func(context.Context, string) (types.Quotes, error)
	runDelegate   func(context.Context, string) (*RunSummary, error)
)

type mockAdapter struct {
	nameFn  nameDelegate
	kindFn  kindDelegate
	crawlFn crawlDelegate
}

func (m *mockAdapter) Name() string {
	if m.nameFn != nil {
		return m.nameFn()
	}

	return ""
}

func (m *mockAdapter) Kind() transport.Kind {
	if m.kindFn != nil {
		return m.kindFn()
	}

	return transport.KindDirect
}

func (m *mockAdapter) Crawl(ctx context.Context, date string) (types.Quotes, error) {
	if m.crawlFn != nil {
		return m.crawlFn(ctx, date)
	}

	return nil, nil
}

type mockRunner struct {
	runFn runDelegate

	dates []string
	mux   sync.Mutex
}

func (m *mockRunner) Run(ctx context.Context, date string) (*RunSummary, error) {
	m.mux.Lock()
	m.dates = append(m.dates, date)
	m.mux.Unlock()

	if m.runFn != nil {
		return m.runFn(ctx, date)
	}

	return &RunSummary{Date: date}, nil
}

func (m *mockRunner) calledDates() []string {
	m.mux.Lock()
	defer m.mux.Unlock()

	return append([]string(nil), m.dates...)
}
