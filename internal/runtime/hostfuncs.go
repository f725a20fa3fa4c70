package runtime

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/risor-io/risor/object"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jward/lambda/internal/query"
)

// registry maps event types ("Type.field") to resolver functions. It is
// written only while the script loads and is read-only once sealed.
type registry struct {
	resolvers map[string]*object.Function
	sealed    atomic.Bool
}

func newRegistry() *registry {
	return &registry{resolvers: make(map[string]*object.Function)}
}

func (r *registry) seal() {
	r.sealed.Store(true)
}

func (r *registry) lookup(eventType string) (*object.Function, bool) {
	fn, ok := r.resolvers[eventType]
	return fn, ok
}

func (r *registry) len() int {
	return len(r.resolvers)
}

func (r *registry) keys() []string {
	keys := make([]string, 0, len(r.resolvers))
	for k := range r.resolvers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// makeAddResolversFn creates the "addGraphQLResolvers" host function.
//
// addGraphQLResolvers({"Type.field": func(ctx) {...}, ...}) → nil
//
// Later registrations of the same key replace earlier ones. A call is
// all-or-nothing: if any value is not a function, nothing is registered.
func makeAddResolversFn(reg *registry) *object.Builtin {
	return object.NewBuiltin("addGraphQLResolvers", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("addGraphQLResolvers", 1, len(args))
		}
		if reg.sealed.Load() {
			return object.Errorf("addGraphQLResolvers: resolvers can only be registered while the script loads")
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("addGraphQLResolvers: %v", err)
		}

		fns := make(map[string]*object.Function, len(m))
		for _, key := range sortedKeys(m) {
			fn, ok := m[key].(*object.Function)
			if !ok {
				return object.Errorf("addGraphQLResolvers: resolver %q must be a function, got %s", key, m[key].Type())
			}
			fns[key] = fn
		}
		for key, fn := range fns {
			reg.resolvers[key] = fn
		}
		return object.Nil
	})
}

// makeQueryFn creates the "graphql" and "dql" host functions passed to
// resolvers in their context map.
//
// graphql(query) → {"data": ...}
// dql(query) → {"data": ...}
//
// The call blocks the calling script until the store answers. Store
// failures are raised as script errors.
func makeQueryFn(name string, c query.Capability, tracer trace.Tracer) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		q, err := toString(args[0])
		if err != nil {
			return object.Errorf("%s: %v", name, err)
		}
		if c == nil {
			return object.Errorf("%s: no store configured", name)
		}

		ctx, span := tracer.Start(ctx, "lambda."+name)
		defer span.End()

		resp, err := c.Query(ctx, q)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return object.Errorf("%s: %v", name, err)
		}

		var data any
		if resp != nil {
			data = resp.Data
		}
		return object.NewMap(map[string]object.Object{
			"data": toObject(data),
		})
	})
}
