package mn

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

// Fetcher executes direct source calls
type Fetcher interface {
	Fetch(context.Context, *transport.Request) ([]byte, error)
}

// Renderer loads rendered source pages
type Renderer interface {
	Render(context.Context, *transport.RenderRequest) (*transport.Page, error)
}

// source is the bank-specific crawl logic behind an Adapter
type source interface {
	crawl(ctx context.Context, date string) (types.Quotes, error)
}

// Adapter is a single configured bank source
type Adapter struct {
	source  source
	name    string
	kind    transport.Kind
	aliases []string
}

// Name returns the canonical bank identifier
func (a *Adapter) Name() string {
	return a.name
}

// Kind returns the transport class the adapter runs on
func (a *Adapter) Kind() transport.Kind {
	return a.kind
}

// Aliases returns the lookup identifiers of the bank, lowercase
func (a *Adapter) Aliases() []string {
	return a.aliases
}

// Crawl fetches the bank's quotes for the given YYYY-MM-DD date
func (a *Adapter) Crawl(ctx context.Context, date string) (types.Quotes, error) {
	if _, err := types.ParseDate(date); err != nil {
		return nil, err
	}

	return a.source.crawl(ctx, date)
}

// previousDayFallback retries the crawl once with the previous day,
// if the requested date yielded no quotes
func previousDayFallback(
	ctx context.Context,
	date string,
	crawl func(context.Context, string) (types.Quotes, error),
) (types.Quotes, error) {
	quotes, err := crawl(ctx, date)
	if err != nil || len(quotes) > 0 {
		return quotes, err
	}

	prev, err := types.PreviousDate(date)
	if err != nil {
		return nil, err
	}

	return crawl(ctx, prev)
}

// parseHTML constructs the query document for a rendered page
func parseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to construct query doc: %w", transport.ErrShape, err)
	}

	return doc, nil
}

// compactDate formats the YYYY-MM-DD date as YYYYMMDD
func compactDate(date string) string {
	return strings.ReplaceAll(date, "-", "")
}
