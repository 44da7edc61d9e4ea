package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodySize caps the size of a single response body
const maxBodySize = 16 << 20

// Request is a single direct source call
type Request struct {
	Header http.Header
	Method string
	URL    string
	Body   []byte
}

// Direct executes single HTTP round trips
type Direct struct {
	client *http.Client
}

// NewDirect creates a new direct transport with the given TLS policy and timeout
func NewDirect(verifyTLS bool, timeout time.Duration) *Direct {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !verifyTLS, //nolint:gosec // Several banks serve broken chains
	}
	tr.DisableKeepAlives = true // no session state between calls

	return &Direct{
		client: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
	}
}

// Fetch executes the request, returning the raw response body
func (d *Direct) Fetch(ctx context.Context, r *Request) ([]byte, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader = http.NoBody
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s request: %w", method, err)
	}

	for key, values := range r.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to execute %s request: %w", ErrTransport, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: invalid status code received: %d", ErrTransport, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read response: %w", ErrTransport, err)
	}

	return raw, nil
}
