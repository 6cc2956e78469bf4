package schema

import (
	"fmt"
	"strings"

	"github.com/hanpama/jobgraph/internal/entity"
	language "github.com/hanpama/jobgraph/internal/language"
	"github.com/hanpama/jobgraph/internal/registry"
)

// Root type names.
const (
	QueryTypeName    = "Query"
	MutationTypeName = "Mutation"
)

// BuildFromRegistry builds the executable schema for a Ready registry.
// Entity schemas become object types; operations become fields on Query or
// Mutation. Root fields and relation fields are async, every other field is
// a sync projection of its parent object.
func BuildFromRegistry(r *registry.Registry) (*Schema, error) {
	if r.State() != registry.Ready {
		return nil, registry.ErrNotReady
	}
	s := withBuiltins(NewSchema(""))

	for _, es := range r.Entities() {
		t := NewType(es.Name, TypeKindObject, es.Description)
		for _, fd := range es.Fields() {
			ref, err := typeRefFor(fd.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", es.Name, fd.Name, err)
			}
			if !fd.Nullable {
				ref = NonNullType(ref)
			}
			t.AddField(NewField(fd.Name, fd.Description, ref).SetAsync(fd.Type.IsRelation()))
		}
		s.AddType(t)
	}

	roots := map[registry.OperationKind]*Type{}
	for _, op := range r.Operations() {
		root, ok := roots[op.Kind]
		if !ok {
			name := QueryTypeName
			if op.Kind == registry.Mutation {
				name = MutationTypeName
			}
			root = NewType(name, TypeKindObject, "")
			roots[op.Kind] = root
		}
		result := NamedType(op.Result.Entity)
		if op.Result.List {
			result = ListType(result)
		}
		f := NewField(op.Name, op.Description, result).SetAsync(true)
		for _, arg := range op.Arguments {
			ref, err := typeRefFor(arg.Type)
			if err != nil {
				return nil, fmt.Errorf("%s(%s): %w", op.Name, arg.Name, err)
			}
			if arg.Required {
				ref = NonNullType(ref)
			}
			f.AddArgument(NewInputValue(arg.Name, arg.Description, ref))
		}
		root.AddField(f)
	}
	if q, ok := roots[registry.Query]; ok {
		s.AddType(q).SetQueryType(q.Name)
	}
	if m, ok := roots[registry.Mutation]; ok {
		s.AddType(m).SetMutationType(m.Name)
	}
	if s.QueryType == "" {
		return nil, &entity.SchemaError{Subject: "schema", Reason: "no query operations registered"}
	}
	return s, nil
}

func typeRefFor(t entity.SemanticType) (*TypeRef, error) {
	switch t.Kind {
	case entity.KindInt, entity.KindString, entity.KindID:
		return NamedType(t.String()), nil
	case entity.KindEntity:
		return NamedType(t.Entity), nil
	case entity.KindList:
		if t.Elem == nil {
			return nil, fmt.Errorf("list type without element")
		}
		inner, err := typeRefFor(*t.Elem)
		if err != nil {
			return nil, err
		}
		return ListType(inner), nil
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}

// BuildFromSDL parses and validates SDL and returns the corresponding
// Schema. Object, enum and custom scalar types are supported.
// Fields on root types and fields returning objects are marked async.
func BuildFromSDL(sdl string) (*Schema, error) {
	src, err := language.LoadSchema("schema.graphql", sdl)
	if err != nil {
		return nil, err
	}
	s := withBuiltins(NewSchema(""))
	if src.Query != nil {
		s.SetQueryType(src.Query.Name)
	}
	if src.Mutation != nil {
		s.SetMutationType(src.Mutation.Name)
	}
	for name, def := range src.Types {
		if def.BuiltIn {
			continue
		}
		switch def.Kind {
		case language.Scalar:
			s.AddType(NewType(name, TypeKindScalar, def.Description))
		case language.Object:
			t := NewType(name, TypeKindObject, def.Description)
			for _, fd := range def.Fields {
				if strings.HasPrefix(fd.Name, "__") {
					continue
				}
				target := src.Types[fd.Type.Name()]
				async := s.IsRootType(name) || (target != nil && target.Kind == language.Object)
				f := NewField(fd.Name, fd.Description, typeRefFromAST(fd.Type)).SetAsync(async)
				if dep := fd.Directives.ForName("deprecated"); dep != nil {
					reason := ""
					if arg := dep.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
						reason = arg.Value.Raw
					}
					f.Deprecate(reason)
				}
				for _, arg := range fd.Arguments {
					in := NewInputValue(arg.Name, arg.Description, typeRefFromAST(arg.Type))
					if arg.DefaultValue != nil {
						v, err := arg.DefaultValue.Value(nil)
						if err != nil {
							return nil, fmt.Errorf("%s.%s(%s): %w", name, fd.Name, arg.Name, err)
						}
						in.SetDefault(v)
					}
					f.AddArgument(in)
				}
				t.AddField(f)
			}
			s.AddType(t)
		case language.Enum:
			t := NewType(name, TypeKindEnum, def.Description)
			for _, ev := range def.EnumValues {
				v := &EnumValue{Name: ev.Name, Description: ev.Description}
				if dep := ev.Directives.ForName("deprecated"); dep != nil {
					v.IsDeprecated = true
					if arg := dep.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
						v.DeprecationReason = arg.Value.Raw
					}
				}
				t.AddEnumValue(v)
			}
			s.AddType(t)
		default:
			return nil, fmt.Errorf("type %s: kind %s is not supported", name, def.Kind)
		}
	}
	return s, nil
}

func typeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(typeRefFromAST(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}
