package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InsertNode stores a node and sets its ID.
func (s *Store) InsertNode(ctx context.Context, n *Node) (int64, error) {
	return insertNodeTx(ctx, s.db, n)
}

// InsertNodes stores all nodes within a single transaction. Either every
// node is written or none is.
func (s *Store) InsertNodes(ctx context.Context, nodes []*Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert nodes: begin: %w", err)
	}
	defer tx.Rollback()

	for i, n := range nodes {
		if _, err := insertNodeTx(ctx, tx, n); err != nil {
			return fmt.Errorf("insert nodes: node %d (%s): %w", i, n.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert nodes: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertNodeTx(ctx context.Context, db execer, n *Node) (int64, error) {
	if n.Type == "" {
		return 0, errors.New("insert node: type is required")
	}
	data, err := marshalData(n.Data)
	if err != nil {
		return 0, fmt.Errorf("insert node: %w", err)
	}
	res, err := db.ExecContext(ctx, "INSERT INTO nodes (type, data) VALUES (?, ?)", n.Type, data)
	if err != nil {
		return 0, fmt.Errorf("insert node: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	n.ID = id
	return id, nil
}

// NodeByID returns the node with the given ID, or nil if none exists.
func (s *Store) NodeByID(ctx context.Context, id int64) (*Node, error) {
	var (
		n    Node
		data string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, type, data FROM nodes WHERE id = ?", id,
	).Scan(&n.ID, &n.Type, &data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("node by id: %w", err)
	}
	if n.Data, err = unmarshalData(data); err != nil {
		return nil, fmt.Errorf("node by id: %w", err)
	}
	return &n, nil
}

// NodesByType returns all nodes of the given type in insertion order.
func (s *Store) NodesByType(ctx context.Context, typ string) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, data FROM nodes WHERE type = ? ORDER BY id", typ,
	)
	if err != nil {
		return nil, fmt.Errorf("nodes by type: %w", err)
	}
	defer rows.Close()

	var result []*Node
	for rows.Next() {
		var (
			n    Node
			data string
		)
		if err := rows.Scan(&n.ID, &n.Type, &data); err != nil {
			return nil, fmt.Errorf("nodes by type: scan: %w", err)
		}
		if n.Data, err = unmarshalData(data); err != nil {
			return nil, fmt.Errorf("nodes by type: %w", err)
		}
		result = append(result, &n)
	}
	return result, rows.Err()
}
