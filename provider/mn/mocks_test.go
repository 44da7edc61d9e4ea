package mn

import (
	"context"
	"sync"

	"github.com/sig-0/mnrates/transport"
)

type (
	fetchDelegate  func(context.Context, *transport.Request) ([]byte, error)
	renderDelegate func(context.Context, *transport.RenderRequest) (*transport.Page, error)
)

type mockFetcher struct {
	fetchFn fetchDelegate

	requests []*transport.Request
	mux      sync.Mutex
}

func (m *mockFetcher) Fetch(ctx context.Context, req *transport.Request) ([]byte, error) {
	m.mux.Lock()
	m.requests = append(m.requests, req)
	m.mux.Unlock()

	if m.fetchFn != nil {
		return m.fetchFn(ctx, req)
	}

	return nil, nil
}

type mockRenderer struct {
	renderFn renderDelegate

	requests []*transport.RenderRequest
	mux      sync.Mutex
}

func (m *mockRenderer) Render(ctx context.Context, req *transport.RenderRequest) (*transport.Page, error) {
	m.mux.Lock()
	m.requests = append(m.requests, req)
	m.mux.Unlock()

	if m.renderFn != nil {
		return m.renderFn(ctx, req)
	}

	return &transport.Page{}, nil
}

// staticFetcher returns the same body for every request
func staticFetcher(body string) *mockFetcher {
	return &mockFetcher{
		fetchFn: func(context.Context, *transport.Request) ([]byte, error) {
			return []byte(body), nil
		},
	}
}

// staticRenderer returns the same document for every request
func staticRenderer(html string) *mockRenderer {
	return &mockRenderer{
		renderFn: func(context.Context, *transport.RenderRequest) (*transport.Page, error) {
			return &transport.Page{HTML: html}, nil
		},
	}
}

// adapterFor returns the named adapter of the default set
func adapterFor(name string, fetcher Fetcher, renderer Renderer) *Adapter {
	for _, a := range NewAdapters(Config{}, fetcher, renderer) {
		if a.Name() == name {
			return a
		}
	}

	return nil
}
