package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/risor-io/risor/builtins"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"
	"github.com/risor-io/risor/vm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jward/lambda/internal/query"
)

const tracerName = "github.com/jward/lambda/internal/runtime"

// Event is one field-resolution request. Parents holds the parent objects of
// a batched field resolution; its length is the expected result length.
type Event struct {
	Type    string `json:"type" yaml:"type"`
	Args    []any  `json:"args" yaml:"args"`
	Parents []any  `json:"parents" yaml:"parents"`
}

// Dispatcher is a loaded script. It owns the script's VM and the resolver
// registry the script built while loading, and routes events to resolvers.
// A Dispatcher is safe for concurrent use.
type Dispatcher struct {
	name     string
	machine  *vm.VirtualMachine
	registry *registry

	graphql query.Capability
	dql     query.Capability
	// host functions handed to every resolver invocation
	graphqlFn *object.Builtin
	dqlFn     *object.Builtin

	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithGraphQL sets the structured-query capability exposed to resolvers as
// ctx["graphql"].
func WithGraphQL(c query.Capability) Option {
	return func(d *Dispatcher) {
		d.graphql = c
	}
}

// WithDQL sets the native-query-language capability exposed to resolvers as
// ctx["dql"].
func WithDQL(c query.Capability) Option {
	return func(d *Dispatcher) {
		d.dql = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithTracerProvider sets the tracer provider used for load, dispatch and
// query spans. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) {
		d.tracer = tp.Tracer(tracerName)
	}
}

// WithName labels the script in errors, logs and spans.
func WithName(name string) Option {
	return func(d *Dispatcher) {
		d.name = name
	}
}

// Load compiles and runs source once inside a fresh sandbox and returns a
// Dispatcher bound to the resolvers the script registered. The sandbox
// exposes the Risor language builtins and addGraphQLResolvers, nothing
// else. Any parse, compile or runtime error fails the load.
func Load(ctx context.Context, source string, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		name:     "<inline>",
		registry: newRegistry(),
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.graphqlFn = makeQueryFn("graphql", d.graphql, d.tracer)
	d.dqlFn = makeQueryFn("dql", d.dql, d.tracer)

	ctx, span := d.tracer.Start(ctx, "lambda.load", trace.WithAttributes(
		attribute.String("lambda.script", d.name),
	))
	defer span.End()

	machine, err := d.eval(ctx, source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("runtime: load script %s: %w", d.name, err)
	}
	d.machine = machine
	d.registry.seal()

	span.SetAttributes(attribute.Int("lambda.resolvers", d.registry.len()))
	d.logger.Debug("script loaded", "script", d.name, "resolvers", d.registry.keys())
	return d, nil
}

// Resolvers returns the registered event types in sorted order.
func (d *Dispatcher) Resolvers() []string {
	return d.registry.keys()
}

func (d *Dispatcher) eval(ctx context.Context, source string) (*vm.VirtualMachine, error) {
	globals := d.buildGlobals()
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	program, err := parser.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	code, err := compiler.Compile(program, compiler.WithGlobalNames(names))
	if err != nil {
		return nil, err
	}

	machine := vm.New(code, vm.WithGlobals(globals))
	if err := machine.Run(ctx); err != nil {
		return nil, err
	}
	return machine, nil
}

// buildGlobals constructs the sandbox's globals: the language builtins plus
// the registration hook. Host modules (os, exec, http, ...) are left out.
func (d *Dispatcher) buildGlobals() map[string]any {
	globals := map[string]any{}
	for name, fn := range builtins.Builtins() {
		globals[name] = fn
	}
	globals["addGraphQLResolvers"] = makeAddResolversFn(d.registry)
	return globals
}
