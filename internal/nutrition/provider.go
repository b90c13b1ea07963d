// Package nutrition resolves free-text food queries against external
// nutrition data sources with a fixed fallback order.
package nutrition

import (
	"context"
	"errors"
	"net/http"
)

// Doer issues HTTP requests. Providers take the retrying client used for
// every outbound call; *http.Client satisfies it too.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrNoData signals that a provider had no usable result for the query
// and the next provider in priority order should be tried. Any other
// error is treated the same way by the resolver; providers never fail a
// request.
var ErrNoData = errors.New("no nutrition data found")

// Provider is one lookup strategy. Lookup returns a human-readable
// nutrition summary for the query, or ErrNoData.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, query string) (string, error)
}
