// Package binder validates raw operation arguments against their declared
// schemas and coerces them into typed values.
//
// Coercion rules:
//   - Int accepts Go integers, integral floats (JSON numbers) and base-10
//     numeric strings; the bound value is an int64.
//   - String accepts strings only.
//   - ID accepts strings and integers; the bound value is a string.
//   - [T] accepts a list, coercing every item, or a single value which is
//     wrapped into a one-element list.
//
// Keys in the raw mapping that no schema declares are ignored. Optional
// arguments that are absent (or explicitly null) are omitted from the result
// rather than defaulted.
package binder

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/hanpama/jobgraph/internal/entity"
)

// ArgumentSchema declares one accepted argument.
type ArgumentSchema struct {
	Name        string
	Type        entity.SemanticType
	Required    bool
	Description string
}

// Required declares a mandatory argument.
func Required(name string, t entity.SemanticType, description string) ArgumentSchema {
	return ArgumentSchema{Name: name, Type: t, Required: true, Description: description}
}

// Optional declares an argument that may be omitted.
func Optional(name string, t entity.SemanticType, description string) ArgumentSchema {
	return ArgumentSchema{Name: name, Type: t, Description: description}
}

// CheckSchemas verifies that names are non-empty and unique and that no
// argument is relation-typed.
func CheckSchemas(owner string, schemas []ArgumentSchema) error {
	seen := make(map[string]struct{}, len(schemas))
	for _, s := range schemas {
		if strings.TrimSpace(s.Name) == "" {
			return &entity.SchemaError{Subject: owner, Reason: "argument name is empty"}
		}
		if _, dup := seen[s.Name]; dup {
			return &entity.SchemaError{Subject: owner, Reason: fmt.Sprintf("duplicate argument %q", s.Name)}
		}
		if s.Type.IsRelation() {
			return &entity.SchemaError{Subject: owner, Reason: fmt.Sprintf("argument %q cannot be of entity type %s", s.Name, s.Type)}
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// TypedArgs is the ordered result of a successful Bind.
type TypedArgs struct {
	names  []string
	values map[string]any
}

// Has reports whether the argument was supplied.
func (a TypedArgs) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Get returns a bound value.
func (a TypedArgs) Get(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Int returns a bound Int argument.
func (a TypedArgs) Int(name string) (int64, bool) {
	v, ok := a.values[name].(int64)
	return v, ok
}

// String returns a bound String or ID argument.
func (a TypedArgs) String(name string) (string, bool) {
	v, ok := a.values[name].(string)
	return v, ok
}

// Names returns the supplied argument names in declaration order.
func (a TypedArgs) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Len returns the number of supplied arguments.
func (a TypedArgs) Len() int { return len(a.names) }

// Map returns a copy of the bound values.
func (a TypedArgs) Map() map[string]any {
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Bind validates rawArgs against schemas. Every missing required argument and
// every coercion failure is reported; the returned error joins them in
// declaration order.
func Bind(schemas []ArgumentSchema, rawArgs map[string]any) (TypedArgs, error) {
	out := TypedArgs{values: make(map[string]any, len(schemas))}
	var errs []error
	for _, s := range schemas {
		raw, ok := rawArgs[s.Name]
		if !ok || raw == nil {
			if s.Required {
				errs = append(errs, &MissingArgument{Name: s.Name})
			}
			continue
		}
		v, err := coerce(raw, s.Type)
		if err != nil {
			errs = append(errs, &TypeMismatch{Name: s.Name, Expected: s.Type.String(), Got: raw})
			continue
		}
		out.names = append(out.names, s.Name)
		out.values[s.Name] = v
	}
	if len(errs) > 0 {
		return TypedArgs{}, errors.Join(errs...)
	}
	return out, nil
}

var errCoerce = errors.New("cannot coerce")

func coerce(v any, t entity.SemanticType) (any, error) {
	switch t.Kind {
	case entity.KindInt:
		return coerceInt(v)
	case entity.KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, errCoerce
	case entity.KindID:
		return coerceID(v)
	case entity.KindList:
		if t.Elem == nil {
			return nil, errCoerce
		}
		return coerceList(v, *t.Elem)
	}
	return nil, errCoerce
}

func coerceInt(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n), nil
		}
	case float32:
		return coerceInt(float64(n))
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, nil
		}
	}
	return nil, errCoerce
}

func coerceID(v any) (any, error) {
	switch n := v.(type) {
	case string:
		return n, nil
	case int:
		return strconv.Itoa(n), nil
	case int32:
		return strconv.FormatInt(int64(n), 10), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return strconv.FormatInt(int64(n), 10), nil
		}
	}
	return nil, errCoerce
}

func coerceList(v any, elem entity.SemanticType) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		item, err := coerce(v, elem)
		if err != nil {
			return nil, err
		}
		return []any{item}, nil
	}
	out := make([]any, rv.Len())
	for i := range rv.Len() {
		item := rv.Index(i).Interface()
		if item == nil {
			continue
		}
		c, err := coerce(item, elem)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
