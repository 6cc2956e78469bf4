package binder

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/jobgraph/internal/entity"
)

var updateUserArgs = []ArgumentSchema{
	Required("id", entity.Int, ""),
	Required("name", entity.String, ""),
	Required("email", entity.String, ""),
}

var usersArgs = []ArgumentSchema{
	Optional("id", entity.Int, ""),
	Optional("email", entity.String, ""),
	Optional("limit", entity.Int, ""),
}

func missingNames(err error) []string {
	var names []string
	var walk func(error)
	walk = func(e error) {
		if m, ok := e.(*MissingArgument); ok {
			names = append(names, m.Name)
			return
		}
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range j.Unwrap() {
				walk(inner)
			}
		}
	}
	walk(err)
	return names
}

func TestBind_AllRequiredPresent(t *testing.T) {
	args, err := Bind(updateUserArgs, map[string]any{
		"id":    float64(3), // JSON numbers decode as float64
		"name":  "kwen",
		"email": "email@email.com",
	})
	require.NoError(t, err)
	id, ok := args.Int("id")
	require.True(t, ok)
	require.Equal(t, int64(3), id)
	require.Equal(t, []string{"id", "name", "email"}, args.Names())
}

func TestBind_ReportsEveryMissingRequired(t *testing.T) {
	_, err := Bind(updateUserArgs, map[string]any{"name": 12})
	require.ErrorIs(t, err, ErrValidation)
	if diff := cmp.Diff([]string{"id", "email"}, missingNames(err)); diff != "" {
		t.Fatalf("missing arguments mismatch (-want +got):\n%s", diff)
	}
	var tm *TypeMismatch
	require.True(t, errors.As(err, &tm))
	require.Equal(t, "name", tm.Name)
}

func TestBind_NullRequiredIsMissing(t *testing.T) {
	_, err := Bind(updateUserArgs, map[string]any{"id": 1, "name": nil, "email": "e"})
	require.Equal(t, []string{"name"}, missingNames(err))
}

func TestBind_OptionalAbsentIsOmitted(t *testing.T) {
	args, err := Bind(usersArgs, map[string]any{"email": "a@b.c", "limit": nil})
	require.NoError(t, err)
	require.True(t, args.Has("email"))
	require.False(t, args.Has("id"))
	require.False(t, args.Has("limit"))
	require.Equal(t, 1, args.Len())
}

func TestBind_IgnoresUnknownKeys(t *testing.T) {
	args, err := Bind(usersArgs, map[string]any{"nickname": "x", "id": 2})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"id": int64(2)}, args.Map())
}

func TestBind_TypeMismatch(t *testing.T) {
	cases := []struct {
		name string
		arg  ArgumentSchema
		raw  any
	}{
		{"non-numeric string for Int", Optional("id", entity.Int, ""), "abc"},
		{"fractional float for Int", Optional("id", entity.Int, ""), 1.5},
		{"bool for Int", Optional("id", entity.Int, ""), true},
		{"int for String", Optional("name", entity.String, ""), 42},
		{"bool for ID", Optional("userId", entity.ID, ""), false},
		{"bad list item", Optional("ids", entity.ListOf(entity.Int), ""), []any{1, "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Bind([]ArgumentSchema{tc.arg}, map[string]any{tc.arg.Name: tc.raw})
			var tm *TypeMismatch
			require.True(t, errors.As(err, &tm), "got %v", err)
			require.Equal(t, tc.arg.Name, tm.Name)
			require.Equal(t, tc.arg.Type.String(), tm.Expected)
			require.Equal(t, "TYPE_MISMATCH", tm.Code())
		})
	}
}

func TestTypeMismatchOmitsValue(t *testing.T) {
	_, err := Bind([]ArgumentSchema{Required("password", entity.String, "")}, map[string]any{"password": float64(987654)})
	require.Error(t, err)
	require.Equal(t, "argument 'password' cannot be coerced: expected String, got float64", err.Error())
	require.NotContains(t, err.Error(), "987654")
}

func TestBind_Coercion(t *testing.T) {
	schemas := []ArgumentSchema{
		Optional("a", entity.Int, ""),
		Optional("b", entity.ID, ""),
		Optional("c", entity.ID, ""),
		Optional("d", entity.ListOf(entity.Int), ""),
		Optional("e", entity.ListOf(entity.String), ""),
	}
	args, err := Bind(schemas, map[string]any{
		"a": " 12 ",
		"b": 7,
		"c": "abc",
		"d": []int{1, 2},
		"e": "solo",
	})
	require.NoError(t, err)
	want := map[string]any{
		"a": int64(12),
		"b": "7",
		"c": "abc",
		"d": []any{int64(1), int64(2)},
		"e": []any{"solo"},
	}
	if diff := cmp.Diff(want, args.Map()); diff != "" {
		t.Fatalf("coerced values mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckSchemas(t *testing.T) {
	require.NoError(t, CheckSchemas("users", usersArgs))

	err := CheckSchemas("users", []ArgumentSchema{Optional("id", entity.Int, ""), Required("id", entity.ID, "")})
	var se *entity.SchemaError
	require.True(t, errors.As(err, &se))

	err = CheckSchemas("users", []ArgumentSchema{Optional("owner", entity.Ref("User"), "")})
	require.True(t, errors.As(err, &se))
}
