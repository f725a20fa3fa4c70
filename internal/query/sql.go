package query

import (
	"context"
	"fmt"

	"github.com/jward/lambda/internal/store"
)

// SQL is the native-query-language capability for the SQLite node store.
// Queries are read-only; each response is {"rows": [...]}.
type SQL struct {
	store *store.Store
}

// NewSQL creates a SQL capability over s.
func NewSQL(s *store.Store) *SQL {
	return &SQL{store: s}
}

// Query runs q and wraps the rows.
func (c *SQL) Query(ctx context.Context, q string) (*Response, error) {
	rows, err := c.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sql: %w", err)
	}
	list := make([]any, len(rows))
	for i, row := range rows {
		list[i] = row
	}
	return &Response{Data: map[string]any{"rows": list}}, nil
}
