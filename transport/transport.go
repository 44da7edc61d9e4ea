// Package transport reaches bank sources, either with a single
// HTTP round trip or by rendering the page in headless Chrome.
// Both variants share the TLS-verification and timeout policy
package transport

import "errors"

var (
	// ErrTransport marks timeouts, connection failures and non-2xx responses
	ErrTransport = errors.New("transport failure")

	// ErrShape marks a response whose top-level structure is unexpected
	ErrShape = errors.New("unexpected response shape")
)

// Kind is the transport class of an adapter
type Kind string

const (
	KindDirect   Kind = "direct"
	KindRendered Kind = "rendered"
)

func (k Kind) String() string {
	return string(k)
}

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0 Safari/537.36"
