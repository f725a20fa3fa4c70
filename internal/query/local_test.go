package query

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/lambda/internal/store"
)

func newSeededStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "query.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.InsertNodes(context.Background(), []*store.Node{
		{Type: "Todo", Data: map[string]any{"title": "Kick Ass", "done": false}},
		{Type: "Todo", Data: map[string]any{"title": "Chew Bubblegum", "tags": []any{"a"}}},
		{Type: "User", Data: map[string]any{"name": "alice"}},
	}))
	return s
}

func TestLocalGraphQL_NodesByType(t *testing.T) {
	t.Parallel()
	l, err := NewLocalGraphQL(newSeededStore(t))
	require.NoError(t, err)

	resp, err := l.Query(context.Background(), `{ nodes(type: "Todo") { title: field(name: "title") } }`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"nodes": []any{
			map[string]any{"title": "Kick Ass"},
			map[string]any{"title": "Chew Bubblegum"},
		},
	}, resp.Data)
}

func TestLocalGraphQL_FieldRendering(t *testing.T) {
	t.Parallel()
	l, err := NewLocalGraphQL(newSeededStore(t))
	require.NoError(t, err)

	resp, err := l.Query(context.Background(),
		`{ nodes(type: "Todo") { id type done: field(name: "done") tags: field(name: "tags") missing: field(name: "nope") } }`)
	require.NoError(t, err)

	nodes := resp.Data.(map[string]any)["nodes"].([]any)
	require.Len(t, nodes, 2)
	first := nodes[0].(map[string]any)
	assert.Equal(t, "1", first["id"])
	assert.Equal(t, "Todo", first["type"])
	assert.Equal(t, "false", first["done"])
	assert.Nil(t, first["missing"])
	second := nodes[1].(map[string]any)
	assert.Equal(t, `["a"]`, second["tags"])
}

func TestLocalGraphQL_NodeByID(t *testing.T) {
	t.Parallel()
	l, err := NewLocalGraphQL(newSeededStore(t))
	require.NoError(t, err)

	resp, err := l.Query(context.Background(), `{ node(id: "3") { type data } missing: node(id: "42") { id } }`)
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Equal(t, map[string]any{"type": "User", "data": `{"name":"alice"}`}, data["node"])
	assert.Nil(t, data["missing"])
}

func TestLocalGraphQL_ValidationErrorIsFailure(t *testing.T) {
	t.Parallel()
	l, err := NewLocalGraphQL(newSeededStore(t))
	require.NoError(t, err)

	_, err = l.Query(context.Background(), `{ nodes(type: "Todo") { nonexistent } }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local graphql")
}

func TestSQL_RowsEnvelope(t *testing.T) {
	t.Parallel()
	c := NewSQL(newSeededStore(t))

	resp, err := c.Query(context.Background(),
		"SELECT json_extract(data, '$.title') AS title FROM nodes WHERE type = 'Todo' ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"rows": []any{
			map[string]any{"title": "Kick Ass"},
			map[string]any{"title": "Chew Bubblegum"},
		},
	}, resp.Data)
}

func TestSQL_ReadOnly(t *testing.T) {
	t.Parallel()
	c := NewSQL(newSeededStore(t))

	_, err := c.Query(context.Background(), "DELETE FROM nodes")
	require.ErrorIs(t, err, store.ErrNotReadOnly)
}

func TestFunc_Adapter(t *testing.T) {
	t.Parallel()
	var got string
	var c Capability = Func(func(ctx context.Context, q string) (*Response, error) {
		got = q
		return &Response{Data: 42}, nil
	})
	resp, err := c.Query(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "ping", got)
	assert.Equal(t, 42, resp.Data)
}
