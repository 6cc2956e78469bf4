// Package introspection answers __schema and __type queries by reading the
// executor's Schema. Every other field is delegated to the wrapped Runtime.
package introspection

import (
	"context"
	"sort"
	"strings"

	executor "github.com/hanpama/jobgraph/internal/executor"
	schema "github.com/hanpama/jobgraph/internal/schema"
)

// Wrap returns a Runtime and a Schema that extend base and s with the
// introspection system. The returned Schema is the one being described.
func Wrap(base executor.Runtime, s *schema.Schema) (executor.Runtime, *schema.Schema) {
	ext := extend(s)
	return &runtime{Runtime: base, schema: ext}, ext
}

type runtime struct {
	executor.Runtime
	schema *schema.Schema
}

func (r *runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	switch src := source.(type) {
	case *schema.Schema:
		return r.schemaField(src, field), nil
	case *schema.Type:
		return r.typeField(src, field, args), nil
	case *schema.TypeRef:
		return r.wrapperField(src, field), nil
	case *schema.Field:
		return r.fieldField(src, field, args), nil
	case *schema.InputValue:
		return r.inputValueField(src, field), nil
	case *schema.EnumValue:
		return enumValueField(src, field), nil
	case *schema.Directive:
		return r.directiveField(src, field, args), nil
	}
	if objectType == r.schema.QueryType {
		switch field {
		case "__schema":
			return r.schema, nil
		case "__type":
			name, _ := args["name"].(string)
			if t, ok := r.schema.Types[name]; ok {
				return t, nil
			}
			return nil, nil
		}
	}
	return r.Runtime.ResolveSync(ctx, objectType, field, source, args)
}

// typeOf resolves a reference to what __Type expects: the named type
// itself, or the wrapper for List and Non-Null.
func (r *runtime) typeOf(ref *schema.TypeRef) any {
	if ref == nil {
		return nil
	}
	if ref.Kind == schema.TypeRefKindNamed {
		if t, ok := r.schema.Types[ref.Named]; ok {
			return t
		}
		return nil
	}
	return ref
}

func (r *runtime) schemaField(s *schema.Schema, field string) any {
	switch field {
	case "description":
		return optional(s.Description)
	case "types":
		names := make([]string, 0, len(s.Types))
		for name := range s.Types {
			names = append(names, name)
		}
		sort.Strings(names)
		types := make([]*schema.Type, len(names))
		for i, name := range names {
			types[i] = s.Types[name]
		}
		return types
	case "queryType":
		return s.GetQueryType()
	case "mutationType":
		if t := s.GetMutationType(); t != nil {
			return t
		}
	case "directives":
		names := make([]string, 0, len(s.Directives))
		for name := range s.Directives {
			names = append(names, name)
		}
		sort.Strings(names)
		dirs := make([]*schema.Directive, len(names))
		for i, name := range names {
			dirs[i] = s.Directives[name]
		}
		return dirs
	}
	return nil
}

func (r *runtime) typeField(t *schema.Type, field string, args map[string]any) any {
	switch field {
	case "kind":
		return string(t.Kind)
	case "name":
		return t.Name
	case "description":
		return optional(t.Description)
	case "fields":
		if t.Kind != schema.TypeKindObject {
			return nil
		}
		all := includeAll(args)
		out := []*schema.Field{}
		for _, f := range t.Fields {
			if isIntrospectionName(f.Name) || (f.IsDeprecated && !all) {
				continue
			}
			out = append(out, f)
		}
		return out
	case "interfaces":
		if t.Kind == schema.TypeKindObject {
			return []*schema.Type{}
		}
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil
		}
		all := includeAll(args)
		out := []*schema.EnumValue{}
		for _, v := range t.EnumValues {
			if v.IsDeprecated && !all {
				continue
			}
			out = append(out, v)
		}
		return out
	}
	// possibleTypes, inputFields, ofType, specifiedByURL and isOneOf do not
	// apply to the kinds a Schema can hold.
	return nil
}

// wrapperField resolves __Type fields for List and Non-Null wrappers.
func (r *runtime) wrapperField(ref *schema.TypeRef, field string) any {
	switch field {
	case "kind":
		return string(ref.Kind)
	case "ofType":
		return r.typeOf(ref.OfType)
	}
	return nil
}

func (r *runtime) fieldField(f *schema.Field, field string, args map[string]any) any {
	switch field {
	case "name":
		return f.Name
	case "description":
		return optional(f.Description)
	case "args":
		return inputValues(f.Arguments)
	case "type":
		return r.typeOf(f.Type)
	case "isDeprecated":
		return f.IsDeprecated
	case "deprecationReason":
		if f.IsDeprecated {
			return optional(f.DeprecationReason)
		}
	}
	return nil
}

func (r *runtime) inputValueField(in *schema.InputValue, field string) any {
	switch field {
	case "name":
		return in.Name
	case "description":
		return optional(in.Description)
	case "type":
		return r.typeOf(in.Type)
	case "defaultValue":
		if in.DefaultValue != nil {
			return schema.FormatValue(in.DefaultValue)
		}
	case "isDeprecated":
		return false
	}
	return nil
}

func enumValueField(v *schema.EnumValue, field string) any {
	switch field {
	case "name":
		return v.Name
	case "description":
		return optional(v.Description)
	case "isDeprecated":
		return v.IsDeprecated
	case "deprecationReason":
		if v.IsDeprecated {
			return optional(v.DeprecationReason)
		}
	}
	return nil
}

func (r *runtime) directiveField(d *schema.Directive, field string, args map[string]any) any {
	switch field {
	case "name":
		return d.Name
	case "description":
		return optional(d.Description)
	case "isRepeatable":
		return d.IsRepeatable
	case "locations":
		return d.Locations
	case "args":
		return inputValues(d.Arguments)
	}
	return nil
}

// inputValues keeps an argument-less field from completing as null, since
// args is a non-null list.
func inputValues(in []*schema.InputValue) []*schema.InputValue {
	if in == nil {
		return []*schema.InputValue{}
	}
	return in
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func includeAll(args map[string]any) bool {
	b, _ := args["includeDeprecated"].(bool)
	return b
}

func isIntrospectionName(name string) bool { return strings.HasPrefix(name, "__") }
