// Package executor implements a breadth-first, batch-friendly GraphQL executor
// with explicit runtime hooks for synchronous resolution, depth-wise batching
// of asynchronous work and leaf serialization.
//
// # Execution Model
//
// Fields are classified by schema.Field.Async. Sync fields (projections of the
// parent value) are resolved inline through Runtime.ResolveSync and expanded
// immediately without adding depth. Async fields (root operations and
// relation loads) are queued and resolved in one Runtime.BatchResolveAsync
// call per depth:
//
//	A. Expand the current selection sets, resolving sync fields and queueing
//	   async ones.
//	B. Flush the queue with a single BatchResolveAsync call, dropping tasks
//	   under paths already nullified.
//	C. Complete each result. Objects expand their own selection sets, which
//	   queues the async fields of the next depth.
//
// For a query with asynchronous depth d, BatchResolveAsync is invoked exactly
// d times. This is what turns `users { jobs { name } }` into one store query
// for the users and one for all of their jobs.
//
// # Arguments and Variables
//
// Variables are checked for presence and nullability and defaulted; arguments
// are collected with variables substituted and defaults applied. Values are
// not type-coerced here. The runtime owns argument validation so that it can
// report typed errors.
//
// # Errors and Partial Success
//
// Errors are accumulated as located GraphQL errors (message, locations,
// path). An error exposing Code() string contributes extensions.code, and a
// joined error (errors.Join) is reported as one entry per member. For a
// Non-Null field a null result or error propagates to the enclosing
// top-level field; otherwise the field is set to null and execution
// continues.
package executor
