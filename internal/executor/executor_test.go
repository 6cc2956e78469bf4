package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/jobgraph/internal/language"
	schema "github.com/hanpama/jobgraph/internal/schema"
)

const testSDL = `
type Query {
  users(limit: Int, name: String = "any"): [User]
  me: User!
}

type Mutation {
  m1: String
  m2: String
  m3: String
}

type User {
  id: Int!
  name: String
  jobs: [Job]
}

type Job {
  name: String
}
`

type codedError struct{ code string }

func (e codedError) Error() string { return "failed: " + e.code }
func (e codedError) Code() string  { return e.code }

// fakeRuntime resolves async fields from a table and projects sync fields
// out of map sources. Every batch is recorded.
type fakeRuntime struct {
	async   map[string]func(task AsyncResolveTask) (any, error)
	batches [][]AsyncResolveTask
}

func (r *fakeRuntime) ResolveSync(_ context.Context, objectType, field string, source any, _ map[string]any) (any, error) {
	m, ok := source.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s.%s: unexpected source %T", objectType, field, source)
	}
	return m[field], nil
}

func (r *fakeRuntime) BatchResolveAsync(_ context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	r.batches = append(r.batches, tasks)
	out := make([]AsyncResolveResult, len(tasks))
	for i, task := range tasks {
		fn, ok := r.async[task.ObjectType+"."+task.Field]
		if !ok {
			out[i].Error = fmt.Errorf("no resolver for %s.%s", task.ObjectType, task.Field)
			continue
		}
		out[i].Value, out[i].Error = fn(task)
	}
	return out
}

func (r *fakeRuntime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

func value(v any) func(AsyncResolveTask) (any, error) {
	return func(AsyncResolveTask) (any, error) { return v, nil }
}

func fail(err error) func(AsyncResolveTask) (any, error) {
	return func(AsyncResolveTask) (any, error) { return nil, err }
}

func jobsOf(task AsyncResolveTask) (any, error) {
	id := task.Source.(map[string]any)["id"].(int)
	return []any{map[string]any{"name": fmt.Sprintf("job-%d", id)}}, nil
}

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	return s
}

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	require.NoError(t, err)
	return d
}

func run(t *testing.T, rt *fakeRuntime, query string, vars map[string]any) *ExecutionResult {
	t.Helper()
	exec := NewExecutor(rt, mustSchema(t))
	return exec.ExecuteRequest(context.Background(), mustParseQuery(t, query), "", vars, nil)
}

func diffResult(t *testing.T, want, got *ExecutionResult) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchesOncePerDepth(t *testing.T) {
	rt := &fakeRuntime{async: map[string]func(AsyncResolveTask) (any, error){
		"Query.users": value([]any{
			map[string]any{"id": 1, "name": "a"},
			map[string]any{"id": 2, "name": "b"},
		}),
		"User.jobs": jobsOf,
	}}
	got := run(t, rt, `{ users { id name jobs { name } } }`, nil)

	diffResult(t, &ExecutionResult{Data: map[string]any{
		"users": []any{
			map[string]any{"id": 1, "name": "a", "jobs": []any{map[string]any{"name": "job-1"}}},
			map[string]any{"id": 2, "name": "b", "jobs": []any{map[string]any{"name": "job-2"}}},
		},
	}}, got)

	require.Len(t, rt.batches, 2)
	require.Len(t, rt.batches[0], 1)
	require.Len(t, rt.batches[1], 2)
	require.Equal(t, "jobs", rt.batches[1][0].Field)
}

func TestArgumentsAndVariables(t *testing.T) {
	rt := &fakeRuntime{async: map[string]func(AsyncResolveTask) (any, error){
		"Query.users": value([]any{}),
	}}

	run(t, rt, `query($n: Int) { users(limit: $n) { id } }`, map[string]any{"n": 2})
	run(t, rt, `query($n: Int) { users(limit: $n) { id } }`, nil)
	run(t, rt, `{ users(limit: 5, name: "kwen") { id } }`, nil)

	want := []map[string]any{
		{"limit": 2, "name": "any"},
		{"name": "any"},
		{"limit": int64(5), "name": "kwen"},
	}
	require.Len(t, rt.batches, len(want))
	for i, w := range want {
		if diff := cmp.Diff(w, rt.batches[i][0].Args); diff != "" {
			t.Errorf("batch %d args mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestRequiredVariableMissing(t *testing.T) {
	rt := &fakeRuntime{}
	got := run(t, rt, `query($n: Int!) { users(limit: $n) { id } }`, nil)
	require.Nil(t, got.Data)
	require.Len(t, got.Errors, 1)
	require.Contains(t, got.Errors[0].Message, "$n")
	require.Empty(t, rt.batches)
}

func TestErrorCodesAndLocations(t *testing.T) {
	rt := &fakeRuntime{async: map[string]func(AsyncResolveTask) (any, error){
		"Query.users": fail(codedError{code: "NOT_FOUND"}),
	}}
	got := run(t, rt, "{\n  users { id }\n}", nil)
	diffResult(t, &ExecutionResult{
		Data: map[string]any{"users": nil},
		Errors: []GraphQLError{{
			Message:    "failed: NOT_FOUND",
			Locations:  []Location{{Line: 2, Column: 3}},
			Path:       Path{"users"},
			Extensions: map[string]any{"code": "NOT_FOUND"},
		}},
	}, got)
}

func TestJoinedErrorsAreSplit(t *testing.T) {
	rt := &fakeRuntime{async: map[string]func(AsyncResolveTask) (any, error){
		"Query.users": fail(errors.Join(codedError{code: "A"}, codedError{code: "B"})),
	}}
	got := run(t, rt, `{ users { id } }`, nil)
	require.Len(t, got.Errors, 2)
	require.Equal(t, "A", got.Errors[0].Extensions["code"])
	require.Equal(t, "B", got.Errors[1].Extensions["code"])
}

func TestNonNullPropagation(t *testing.T) {
	rt := &fakeRuntime{async: map[string]func(AsyncResolveTask) (any, error){
		"Query.users": value([]any{map[string]any{"name": "no id"}}),
		"Query.me":    value(nil),
	}}
	got := run(t, rt, `{ users { id name } }`, nil)
	require.Equal(t, map[string]any{"users": []any{nil}}, got.Data)
	require.Len(t, got.Errors, 1)
	require.Equal(t, Path{"users", 0, "id"}, got.Errors[0].Path)
	require.Equal(t, "Cannot return null for non-nullable field users[0].id", got.Errors[0].Message)

	got = run(t, rt, `{ me { id } }`, nil)
	require.Equal(t, map[string]any{"me": nil}, got.Data)
	require.Equal(t, Path{"me"}, got.Errors[0].Path)
}

func TestNulledListItemIsUntypedNil(t *testing.T) {
	rt := &fakeRuntime{async: map[string]func(AsyncResolveTask) (any, error){
		"Query.users": value([]any{
			map[string]any{"id": 1, "name": "a"},
			map[string]any{"name": "no id"},
		}),
	}}
	got := run(t, rt, `{ users { id name } }`, nil)
	users := got.Data.(map[string]any)["users"].([]any)
	require.Len(t, users, 2)
	require.Equal(t, map[string]any{"id": 1, "name": "a"}, users[0])
	require.True(t, users[1] == nil, "got %#v", users[1])
	require.Len(t, got.Errors, 1)
}

func TestSkipIncludeAndTypename(t *testing.T) {
	rt := &fakeRuntime{async: map[string]func(AsyncResolveTask) (any, error){
		"Query.users": value([]any{map[string]any{"id": 1, "name": "a"}}),
	}}
	got := run(t, rt, `query($withName: Boolean!) {
		users {
			__typename
			id @skip(if: true)
			name @include(if: $withName)
			...F
		}
	}
	fragment F on User { renamed: name }`, map[string]any{"withName": false})

	diffResult(t, &ExecutionResult{Data: map[string]any{
		"users": []any{map[string]any{"__typename": "User", "renamed": "a"}},
	}}, got)
}

func TestMutationFieldsArriveInDocumentOrder(t *testing.T) {
	rt := &fakeRuntime{async: map[string]func(AsyncResolveTask) (any, error){
		"Mutation.m1": value("1"),
		"Mutation.m2": fail(fmt.Errorf("boom")),
		"Mutation.m3": value("3"),
	}}
	got := run(t, rt, `mutation { m3 m1 m2 }`, nil)

	diffResult(t, &ExecutionResult{
		Data:   map[string]any{"m1": "1", "m2": nil, "m3": "3"},
		Errors: []GraphQLError{{Message: "boom", Locations: []Location{{Line: 1, Column: 18}}, Path: Path{"m2"}}},
	}, got)
	require.Len(t, rt.batches, 1)
	var order []string
	for _, task := range rt.batches[0] {
		order = append(order, task.Field)
	}
	require.Equal(t, []string{"m3", "m1", "m2"}, order)
}

func TestOperationSelection(t *testing.T) {
	rt := &fakeRuntime{async: map[string]func(AsyncResolveTask) (any, error){
		"Query.users": value([]any{}),
	}}
	exec := NewExecutor(rt, mustSchema(t))
	doc := mustParseQuery(t, `query A { users { id } } query B { me { id } }`)

	res := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "operation not found", res.Errors[0].Message)

	res = exec.ExecuteRequest(context.Background(), doc, "C", nil, nil)
	require.Equal(t, `operation "C" not found`, res.Errors[0].Message)

	res = exec.ExecuteRequest(context.Background(), doc, "A", nil, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"users": []any{}}, res.Data)
}

func TestCanceledContextFailsPendingFields(t *testing.T) {
	rt := &fakeRuntime{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := NewExecutor(rt, mustSchema(t))
	res := exec.ExecuteRequest(ctx, mustParseQuery(t, `{ users { id } }`), "", nil, nil)
	require.Empty(t, rt.batches)
	require.Equal(t, map[string]any{"users": nil}, res.Data)
	require.Equal(t, context.Canceled.Error(), res.Errors[0].Message)
}
