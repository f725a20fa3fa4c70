package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/jward/lambda/internal/store"
)

const localSchema = `
schema {
	query: Query
}

type Query {
	nodes(type: String!): [Node!]!
	node(id: ID!): Node
}

type Node {
	id: ID!
	type: String!
	field(name: String!): String
	data: String!
}
`

// LocalGraphQL answers GraphQL queries in-process against the node store.
type LocalGraphQL struct {
	schema *graphql.Schema
}

// NewLocalGraphQL builds the local schema over s.
func NewLocalGraphQL(s *store.Store) (*LocalGraphQL, error) {
	schema, err := graphql.ParseSchema(localSchema, &rootResolver{store: s})
	if err != nil {
		return nil, fmt.Errorf("local graphql: parse schema: %w", err)
	}
	return &LocalGraphQL{schema: schema}, nil
}

// Query executes q and returns the decoded data.
func (l *LocalGraphQL) Query(ctx context.Context, q string) (*Response, error) {
	resp := l.schema.Exec(ctx, q, "", nil)
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("local graphql: %s", strings.Join(msgs, "; "))
	}
	var data any
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, fmt.Errorf("local graphql: decode data: %w", err)
		}
	}
	return &Response{Data: data}, nil
}

type rootResolver struct {
	store *store.Store
}

func (r *rootResolver) Nodes(ctx context.Context, args struct{ Type string }) ([]*nodeResolver, error) {
	nodes, err := r.store.NodesByType(ctx, args.Type)
	if err != nil {
		return nil, err
	}
	out := make([]*nodeResolver, len(nodes))
	for i, n := range nodes {
		out[i] = &nodeResolver{node: n}
	}
	return out, nil
}

func (r *rootResolver) Node(ctx context.Context, args struct{ ID graphql.ID }) (*nodeResolver, error) {
	id, err := strconv.ParseInt(string(args.ID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid node id %q", args.ID)
	}
	n, err := r.store.NodeByID(ctx, id)
	if err != nil || n == nil {
		return nil, err
	}
	return &nodeResolver{node: n}, nil
}

type nodeResolver struct {
	node *store.Node
}

func (n *nodeResolver) ID() graphql.ID {
	return graphql.ID(strconv.FormatInt(n.node.ID, 10))
}

func (n *nodeResolver) Type() string {
	return n.node.Type
}

// Field renders a scalar field as a string; objects and lists are JSON.
func (n *nodeResolver) Field(args struct{ Name string }) *string {
	v, ok := n.node.Field(args.Name)
	if !ok || v == nil {
		return nil
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		s = string(b)
	}
	return &s
}

func (n *nodeResolver) Data() (string, error) {
	b, err := json.Marshal(n.node.Data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
