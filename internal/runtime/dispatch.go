package runtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/vm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Terminal states of a dispatch, recorded on its span and log line.
const (
	outcomeNoResolver   = "no_resolver"
	outcomeShapeInvalid = "shape_invalid"
	outcomeResult       = "result"
	outcomeError        = "error"
)

// Dispatch routes ev to the resolver registered for ev.Type and returns one
// settled value per parent.
//
// ok is false, with a nil error, when no resolver is registered or when the
// resolver's output is not a list of exactly len(ev.Parents) elements. A
// raised script error, a failed store query or a failed element is returned
// as err.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (values []any, ok bool, err error) {
	logger := d.logger.With(
		"dispatch_id", uuid.NewString(),
		"type", ev.Type,
		"parents", len(ev.Parents),
	)
	ctx, span := d.tracer.Start(ctx, "lambda.dispatch", trace.WithAttributes(
		attribute.String("lambda.script", d.name),
		attribute.String("lambda.event.type", ev.Type),
		attribute.Int("lambda.event.parents", len(ev.Parents)),
	))
	outcome := outcomeError
	defer func() {
		span.SetAttributes(attribute.String("lambda.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Warn("dispatch failed", "outcome", outcome, "error", err)
		}
		span.End()
	}()

	fn, found := d.registry.lookup(ev.Type)
	if !found {
		outcome = outcomeNoResolver
		logger.Debug("no resolver registered", "outcome", outcome)
		return nil, false, nil
	}

	machine, err := d.machine.Clone()
	if err != nil {
		return nil, false, fmt.Errorf("runtime: dispatch %s: clone vm: %w", ev.Type, err)
	}
	result, err := newPending(fn, d.resolverContext(ev)).await(ctx, machine)
	if err != nil {
		return nil, false, fmt.Errorf("runtime: dispatch %s: %w", ev.Type, err)
	}

	list, isList := result.(*object.List)
	if !isList {
		outcome = outcomeShapeInvalid
		logger.Warn("resolver returned a non-list value", "outcome", outcome, "got", string(result.Type()))
		return nil, false, nil
	}
	items := list.Value()
	if len(items) != len(ev.Parents) {
		outcome = outcomeShapeInvalid
		logger.Warn("resolver returned the wrong number of values",
			"outcome", outcome, "got", len(items), "want", len(ev.Parents))
		return nil, false, nil
	}

	values, err = d.awaitAll(ctx, items)
	if err != nil {
		return nil, false, fmt.Errorf("runtime: dispatch %s: %w", ev.Type, err)
	}
	outcome = outcomeResult
	logger.Debug("dispatch settled", "outcome", outcome)
	return values, true, nil
}

// resolverContext builds the single argument passed to a resolver.
func (d *Dispatcher) resolverContext(ev Event) []object.Object {
	return []object.Object{object.NewMap(map[string]object.Object{
		"parents": toObject(orEmpty(ev.Parents)),
		"args":    toObject(orEmpty(ev.Args)),
		"graphql": d.graphqlFn,
		"dql":     d.dqlFn,
	})}
}

// awaitAll settles every element concurrently, each pending element on its
// own VM clone. Results keep the element order; the first failure wins.
func (d *Dispatcher) awaitAll(ctx context.Context, items []object.Object) ([]any, error) {
	values := make([]any, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		f := futureOf(item)
		if !f.pending() {
			v, err := fromObject(f.value)
			if err != nil {
				// let already started elements finish before reporting
				_ = g.Wait()
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			values[i] = v
			continue
		}
		g.Go(func() error {
			machine, err := d.machine.Clone()
			if err != nil {
				return fmt.Errorf("element %d: clone vm: %w", i, err)
			}
			settled, err := f.await(gctx, machine)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			v, err := fromObject(settled)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// future is a script value that is either settled or still pending. A
// pending value is a zero-parameter Risor function that produces the value
// when called; resolvers use it for deferred work, both for the whole result
// and for individual elements. Functions that take parameters are ordinary
// settled values.
type future struct {
	value object.Object
	fn    *object.Function
	args  []object.Object
}

func futureOf(obj object.Object) future {
	if fn, ok := obj.(*object.Function); ok && len(fn.Parameters()) == 0 {
		return future{fn: fn}
	}
	return future{value: obj}
}

func newPending(fn *object.Function, args []object.Object) future {
	return future{fn: fn, args: args}
}

func (f future) pending() bool {
	return f.fn != nil
}

// await runs the pending function on machine, following chains of pending
// values until a settled one is produced. Raised errors and error values are
// returned as errors, and so is a panic inside the VM.
func (f future) await(ctx context.Context, machine *vm.VirtualMachine) (result object.Object, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("script panic: %v", r)
		}
	}()
	for f.pending() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		settled, err := machine.Call(ctx, f.fn, f.args)
		if err != nil {
			return nil, err
		}
		f = futureOf(settled)
	}
	if e, isErr := f.value.(*object.Error); isErr {
		return nil, e.Value()
	}
	if f.value == nil {
		return object.Nil, nil
	}
	return f.value, nil
}

func orEmpty(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}
