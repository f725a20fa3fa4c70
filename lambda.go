package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"

	"github.com/jward/lambda/internal/query"
	"github.com/jward/lambda/internal/runtime"
	"github.com/jward/lambda/internal/store"
)

// Event is one field-resolution request.
type Event = runtime.Event

// Capability runs one query against a backing store.
type Capability = query.Capability

// Response is the result of a store query.
type Response = query.Response

// Func adapts an ordinary function to a Capability.
type Func = query.Func

// Store is the SQLite node store behind [WithSQLite].
type Store = store.Store

// Node is a typed document in the node store.
type Node = store.Node

// Engine holds the store configuration shared by every script it loads.
type Engine struct {
	dbPath     string
	dgraphURL  string
	dgraphHTTP *http.Client

	store   *store.Store
	graphql query.Capability
	dql     query.Capability

	logger         *slog.Logger
	tracerProvider trace.TracerProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithDgraph backs graphql and dql with the Dgraph alpha at url. A nil
// client uses http.DefaultClient.
func WithDgraph(url string, client *http.Client) Option {
	return func(e *Engine) {
		e.dgraphURL = url
		e.dgraphHTTP = client
	}
}

// WithSQLite backs graphql and dql with a SQLite node store at dbPath,
// creating and migrating it if needed.
func WithSQLite(dbPath string) Option {
	return func(e *Engine) {
		e.dbPath = dbPath
	}
}

// WithCapabilities injects the graphql and dql capabilities directly.
// Either may be nil, in which case scripts calling it get an error.
func WithCapabilities(graphql, dql Capability) Option {
	return func(e *Engine) {
		e.graphql = graphql
		e.dql = dql
	}
}

// WithLogger sets the logger passed to every loaded script.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithTracerProvider sets the tracer provider passed to every loaded script.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracerProvider = tp
	}
}

// New creates an Engine. Without a store option, scripts can still be
// loaded and dispatched but graphql and dql raise errors.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.dbPath != "" && e.dgraphURL != "" {
		return nil, fmt.Errorf("lambda: WithSQLite and WithDgraph are mutually exclusive")
	}

	switch {
	case e.dbPath != "":
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, fmt.Errorf("lambda: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("lambda: migrate: %w", err)
		}
		local, err := query.NewLocalGraphQL(s)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("lambda: %w", err)
		}
		e.store = s
		e.graphql = local
		e.dql = query.NewSQL(s)
	case e.dgraphURL != "":
		c := query.NewDgraphClient(e.dgraphURL, e.dgraphHTTP)
		e.graphql = c.GraphQL()
		e.dql = c.DQL()
	}
	return e, nil
}

// Close releases the Engine's database resources, if any.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the SQLite node store, or nil when the Engine is not backed
// by one.
func (e *Engine) Store() *Store {
	return e.store
}

// LoadScript loads source into a fresh sandbox.
func (e *Engine) LoadScript(ctx context.Context, source string) (*Script, error) {
	return e.load(ctx, "<inline>", source)
}

// LoadScriptFile reads and loads the script at path.
func (e *Engine) LoadScriptFile(ctx context.Context, path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lambda: read script: %w", err)
	}
	return e.load(ctx, filepath.Base(path), string(src))
}

func (e *Engine) load(ctx context.Context, name, source string) (*Script, error) {
	opts := []runtime.Option{
		runtime.WithName(name),
		runtime.WithGraphQL(e.graphql),
		runtime.WithDQL(e.dql),
	}
	if e.logger != nil {
		opts = append(opts, runtime.WithLogger(e.logger))
	}
	if e.tracerProvider != nil {
		opts = append(opts, runtime.WithTracerProvider(e.tracerProvider))
	}
	d, err := runtime.Load(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	return &Script{name: name, dispatcher: d}, nil
}

// Script is a loaded resolver script. It is safe for concurrent use.
type Script struct {
	name       string
	dispatcher *runtime.Dispatcher
}

// Name returns the script's label: the file's base name, or "<inline>".
func (s *Script) Name() string {
	return s.name
}

// Resolve dispatches ev to the script's resolver for ev.Type.
func (s *Script) Resolve(ctx context.Context, ev Event) ([]any, bool, error) {
	return s.dispatcher.Dispatch(ctx, ev)
}

// Resolvers returns the registered event types in sorted order.
func (s *Script) Resolvers() []string {
	return s.dispatcher.Resolvers()
}
