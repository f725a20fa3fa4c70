// Package query defines the store boundary that resolver scripts call back
// into, plus the concrete store adapters: a Dgraph HTTP client and local
// GraphQL/SQL capabilities over the SQLite node store.
package query

import "context"

// Response is the result of a store query. Data is passed through to the
// script untouched; resolvers extract the fields they need.
type Response struct {
	Data any `json:"data"`
}

// Capability runs one query against the backing store.
type Capability interface {
	Query(ctx context.Context, query string) (*Response, error)
}

// Func adapts an ordinary function to a Capability.
type Func func(ctx context.Context, query string) (*Response, error)

// Query calls f(ctx, query).
func (f Func) Query(ctx context.Context, query string) (*Response, error) {
	return f(ctx, query)
}
