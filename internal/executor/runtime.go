package executor

import (
	"context"
)

// Runtime defines the host integration surface for field resolution, batching
// and leaf-value serialization used by the Executor.
//
// General contract
//   - The Executor performs a breadth-first execution. At each depth it drains all
//     synchronous fields first via ResolveSync, then calls BatchResolveAsync ONCE
//     with all async tasks collected at that depth. The next depth does not begin
//     until BatchResolveAsync returns and those results are completed.
//   - ResolveSync is never invoked for fields marked async.
//   - Errors returned from any method are converted into located GraphQL errors.
//     If the field's return type is Non-Null, the Executor propagates the null
//     up to the nearest nullable ancestor.
//   - Implementations must be safe for concurrent operations and must not
//     mutate source or args values.
//
// Identifiers
//   - objectType is the GraphQL type name (e.g. "User"); for root fields it is
//     the root type name (e.g. "Query").
//   - source is the parent object value (nil for root).
//   - args holds the argument values after variable substitution and
//     defaulting. They are NOT type-coerced; validating them is the runtime's
//     job.
//
// Ordering
//   - Tasks arrive in document order. Root mutation fields all arrive in the
//     first batch and must be resolved serially in that order.
//   - Results MUST be returned in the same order as the input tasks
//     (results[i] corresponds to tasks[i]).
type Runtime interface {
	// ResolveSync resolves a synchronous field value immediately.
	// Return (nil, nil) to produce a GraphQL null for nullable fields.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one execution depth of async field tasks.
	// It must return len(tasks) results, each with an independent error.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// SerializeLeafValue serializes a scalar value to a JSON-safe Go value.
	SerializeLeafValue(ctx context.Context, scalarTypeName string, value any) (any, error)
}

type AsyncResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (nil for root fields).
	Source any
	// Args are the field arguments after variable substitution.
	Args map[string]any
}

type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element.
	Error error
}
