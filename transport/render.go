package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// RenderRequest describes a single rendered page extraction
type RenderRequest struct {
	// Interaction is an optional UI step executed before extraction
	Interaction *Interaction

	// URL is the page address
	URL string

	// WaitSelector is the structural marker awaited before extraction.
	// If empty, the renderer waits for network idle instead
	WaitSelector string

	// CaptureURL, if set, captures the body of the first background
	// response whose URL contains it
	CaptureURL string

	// Settle is an extra delay before the DOM is extracted
	Settle time.Duration
}

// Interaction is a form-fill and click step
type Interaction struct {
	// Fill sets input values; absent inputs are skipped
	Fill []Field

	// Click is the primary element to click
	Click string

	// FallbackClick is tried if the primary element is absent
	FallbackClick string

	// Settle is the delay after the click
	Settle time.Duration
}

// Field is a single input value
type Field struct {
	Selector string
	Value    string
}

// Page is the result of a rendered extraction
type Page struct {
	// HTML is the serialized DOM after rendering
	HTML string

	// Captured is the captured background response body, if requested and seen
	Captured []byte
}

type RendererOption func(r *Renderer)

// WithExecPath sets the Chrome / Chromium binary to launch
func WithExecPath(path string) RendererOption {
	return func(r *Renderer) {
		r.execPath = path
	}
}

// WithRendererLogger specifies the logger for the renderer
func WithRendererLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = l
	}
}

// Renderer loads pages in a dedicated headless browser per call
type Renderer struct {
	logger   *slog.Logger
	execPath string
	timeout  time.Duration

	verifyTLS bool
}

// NewRenderer creates a new rendered transport with the given TLS policy and timeout
func NewRenderer(verifyTLS bool, timeout time.Duration, opts ...RendererOption) *Renderer {
	r := &Renderer{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:   timeout,
		verifyTLS: verifyTLS,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Renderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.UserAgent(userAgent),
		chromedp.Flag("ignore-certificate-errors", !r.verifyTLS),
		// Chrome refuses to start as root with the sandbox on
		chromedp.Flag("no-sandbox", os.Geteuid() == 0),
	)

	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	return opts
}

// Render loads the page and returns its rendered DOM.
// The browser process is torn down before Render returns, on every path
func (r *Renderer) Render(ctx context.Context, req *RenderRequest) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(
		allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...), "url", req.URL)
		}),
	)
	defer cancelTab()

	// Launch the browser and open the tab
	if err := chromedp.Run(tabCtx); err != nil {
		return nil, fmt.Errorf("%w: unable to start browser: %w", ErrTransport, err)
	}

	var (
		navigating atomic.Bool
		idle       = make(chan struct{})
		idleOnce   sync.Once
		capture    = newResponseCapture(req.CaptureURL)
	)

	chromedp.ListenTarget(tabCtx, func(ev any) {
		switch e := ev.(type) {
		case *page.EventLifecycleEvent:
			if e.Name == "networkIdle" && navigating.Load() {
				idleOnce.Do(func() {
					close(idle)
				})
			}
		case *network.EventResponseReceived:
			capture.observe(e)
		case *network.EventLoadingFinished:
			capture.finish(e.RequestID)
		}
	})

	if err := chromedp.Run(
		tabCtx,
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
	); err != nil {
		return nil, fmt.Errorf("%w: unable to prepare page: %w", ErrTransport, err)
	}

	navigating.Store(true)

	if err := chromedp.Run(tabCtx, chromedp.Navigate(req.URL)); err != nil {
		return nil, fmt.Errorf("%w: unable to load %s: %w", ErrTransport, req.URL, err)
	}

	if err := r.waitReady(tabCtx, req.WaitSelector, idle); err != nil {
		return nil, err
	}

	if req.Interaction != nil {
		if err := r.interact(tabCtx, req.Interaction); err != nil {
			return nil, err
		}

		if req.WaitSelector != "" {
			if err := r.waitReady(tabCtx, req.WaitSelector, nil); err != nil {
				return nil, err
			}
		}
	}

	var html string

	if err := chromedp.Run(
		tabCtx,
		chromedp.Sleep(req.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("%w: unable to extract page: %w", ErrTransport, err)
	}

	return &Page{
		HTML:     html,
		Captured: capture.body(tabCtx, r.logger),
	}, nil
}

// waitReady waits for the structural marker, or for network idle
func (r *Renderer) waitReady(ctx context.Context, selector string, idle <-chan struct{}) error {
	if selector != "" {
		if err := chromedp.Run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
			return fmt.Errorf("%w: marker %q never appeared: %w", ErrTransport, selector, err)
		}

		return nil
	}

	if idle == nil {
		return nil
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: network never went idle: %w", ErrTransport, ctx.Err())
	}
}

// interact fills the form fields and clicks the primary element,
// falling back to the secondary one. Missing elements are not an error
func (r *Renderer) interact(ctx context.Context, in *Interaction) error {
	for _, field := range in.Fill {
		nodes, err := queryNodes(ctx, field.Selector)
		if err != nil {
			return err
		}

		if len(nodes) == 0 {
			r.logger.Debug("fill target absent", "selector", field.Selector)

			continue
		}

		if err = chromedp.Run(ctx, chromedp.SetValue([]cdp.NodeID{nodes[0].NodeID}, field.Value, chromedp.ByNodeID)); err != nil {
			return fmt.Errorf("%w: unable to fill %q: %w", ErrTransport, field.Selector, err)
		}
	}

	for _, selector := range []string{in.Click, in.FallbackClick} {
		if selector == "" {
			continue
		}

		nodes, err := queryNodes(ctx, selector)
		if err != nil {
			return err
		}

		if len(nodes) == 0 {
			r.logger.Debug("click target absent", "selector", selector)

			continue
		}

		if err = chromedp.Run(ctx, chromedp.MouseClickNode(nodes[0])); err != nil {
			r.logger.Debug("unable to click", "selector", selector, "err", err)

			continue
		}

		break
	}

	if err := chromedp.Run(ctx, chromedp.Sleep(in.Settle)); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	return nil
}

// queryNodes returns the nodes matching the selector without waiting for them
func queryNodes(ctx context.Context, selector string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node

	if err := chromedp.Run(
		ctx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		return nil, fmt.Errorf("%w: unable to query %q: %w", ErrTransport, selector, err)
	}

	return nodes, nil
}

// responseCapture tracks background responses matching a URL fragment
type responseCapture struct {
	seen     map[network.RequestID]struct{}
	match    string
	finished []network.RequestID

	mu sync.Mutex
}

func newResponseCapture(match string) *responseCapture {
	return &responseCapture{
		match: match,
		seen:  make(map[network.RequestID]struct{}),
	}
}

func (c *responseCapture) observe(e *network.EventResponseReceived) {
	if c.match == "" || e.Response == nil || !strings.Contains(e.Response.URL, c.match) {
		return
	}

	c.mu.Lock()
	c.seen[e.RequestID] = struct{}{}
	c.mu.Unlock()
}

func (c *responseCapture) finish(id network.RequestID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[id]; ok {
		c.finished = append(c.finished, id)
	}
}

// body fetches the first finished matching response body, if any
func (c *responseCapture) body(ctx context.Context, logger *slog.Logger) []byte {
	c.mu.Lock()
	ids := append([]network.RequestID(nil), c.finished...)
	c.mu.Unlock()

	for _, id := range ids {
		var body []byte

		err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			raw, err := network.GetResponseBody(id).Do(ctx)
			body = raw

			return err
		}))
		if err != nil {
			logger.Debug("unable to read captured response", "err", err)

			continue
		}

		return body
	}

	return nil
}
