// Package lambda hosts GraphQL field resolvers written as Risor scripts.
//
// A script is loaded once into an isolated sandbox. While it loads it calls
// addGraphQLResolvers to register one function per "Type.field" event type;
// after that the registry is fixed. Each [Event] is then dispatched to its
// resolver, which returns one value per parent object.
//
// # Usage
//
//	e, err := lambda.New(lambda.WithSQLite("nodes.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	s, err := e.LoadScriptFile(ctx, "resolvers.risor")
//	values, ok, err := s.Resolve(ctx, lambda.Event{
//		Type:    "User.fullName",
//		Parents: []any{map[string]any{"first": "Ada", "last": "Lovelace"}},
//	})
//
// ok is false when no resolver is registered for the event type, or when
// the resolver's output is not a list with one value per parent. Callers
// should treat that as "nothing to resolve". A non-nil error is a real
// failure: the resolver raised, a store query failed, or an element failed.
//
// # Scripts
//
// A resolver receives a single map argument:
//
//	addGraphQLResolvers({
//		"User.todos": func(ctx) {
//			gql := ctx["graphql"]
//			return ctx["parents"].map(func(p) {
//				return func() { return gql("{ ... }")["data"] }
//			})
//		}
//	})
//
// ctx["parents"] and ctx["args"] come from the event. ctx["graphql"] and
// ctx["dql"] query the configured store and return {"data": ...}.
//
// A zero-parameter function returned in place of a value is a deferred
// value; a function that takes parameters is an ordinary value. The whole
// result may be deferred, and so may each element; all deferred elements of
// one result run concurrently and the result keeps the element order.
//
// Deferred elements should be created by the resolver itself, as above. A
// function created inside a deferred result cannot reach the resolver's
// local variables after the resolver has returned, and resolving such an
// element fails the dispatch.
//
// # Stores
//
// [WithDgraph] sends graphql queries to a Dgraph alpha's /graphql endpoint
// and dql queries to /query. [WithSQLite] answers graphql from an
// in-process schema over a SQLite node table and treats dql as read-only
// SQL. [WithCapabilities] injects any other implementation.
package lambda
