package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotReadOnly is returned by Query for statements other than SELECT.
var ErrNotReadOnly = errors.New("only SELECT queries are allowed")

// Query executes a read-only SQL statement and returns each row as a map of
// column name to value.
func (s *Store) Query(ctx context.Context, sqlStr string, args ...any) ([]map[string]any, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(sqlStr))
	if !strings.HasPrefix(trimmed, "SELECT") {
		return nil, fmt.Errorf("query: %w", ErrNotReadOnly)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query: columns: %w", err)
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query: scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = sqlValue(values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: rows: %w", err)
	}
	return results, nil
}
