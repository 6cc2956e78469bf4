// Package entity describes persisted record kinds declaratively: which
// attributes an entity exposes, their semantic types and nullability.
// Schemas are built once at startup and are never mutated afterwards, so
// they may be shared across concurrent requests without locking.
package entity

import (
	"fmt"
	"strings"

	"github.com/hanpama/jobgraph/internal/store"
)

// TypeKind enumerates the semantic types an attribute or argument may carry.
type TypeKind int

const (
	KindInt TypeKind = iota + 1
	KindString
	KindID
	KindList
	KindEntity
)

// SemanticType is the declared type of a field or argument.
// Elem is set for KindList; Entity names the referenced schema for KindEntity.
type SemanticType struct {
	Kind   TypeKind
	Elem   *SemanticType
	Entity string
}

var (
	Int    = SemanticType{Kind: KindInt}
	String = SemanticType{Kind: KindString}
	ID     = SemanticType{Kind: KindID}
)

// ListOf wraps t into a list type.
func ListOf(t SemanticType) SemanticType {
	elem := t
	return SemanticType{Kind: KindList, Elem: &elem}
}

// Ref refers to another entity schema by name.
func Ref(entityName string) SemanticType {
	return SemanticType{Kind: KindEntity, Entity: entityName}
}

// IsList reports whether t is a list type.
func (t SemanticType) IsList() bool { return t.Kind == KindList }

// Innermost returns the innermost non-list type.
func (t SemanticType) Innermost() SemanticType {
	cur := t
	for cur.Kind == KindList && cur.Elem != nil {
		cur = *cur.Elem
	}
	return cur
}

// IsRelation reports whether the type refers to another entity, directly or
// through list wrapping.
func (t SemanticType) IsRelation() bool { return t.Innermost().Kind == KindEntity }

func (t SemanticType) String() string {
	switch t.Kind {
	case KindInt:
		return "Int"
	case KindString:
		return "String"
	case KindID:
		return "ID"
	case KindList:
		if t.Elem == nil {
			return "[?]"
		}
		return "[" + t.Elem.String() + "]"
	case KindEntity:
		return t.Entity
	default:
		return fmt.Sprintf("TypeKind(%d)", int(t.Kind))
	}
}

// FieldDescriptor is the metadata for one entity attribute.
type FieldDescriptor struct {
	Name        string
	Type        SemanticType
	Nullable    bool
	Description string
}

// Describe builds a FieldDescriptor.
func Describe(name string, t SemanticType, nullable bool, description string) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: t, Nullable: nullable, Description: description}
}

// EntitySchema is the ordered set of fields exposed for one entity kind
// together with the store kind backing it.
type EntitySchema struct {
	Name        string
	Description string
	Backing     store.Kind

	fields []FieldDescriptor
	index  map[string]int
}

// BuildEntitySchema validates and assembles an EntitySchema.
// Field names must be non-empty and unique.
func BuildEntitySchema(name string, fields []FieldDescriptor, backing store.Kind) (*EntitySchema, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &SchemaError{Subject: "entity", Reason: "name is empty"}
	}
	es := &EntitySchema{
		Name:    name,
		Backing: backing,
		fields:  make([]FieldDescriptor, 0, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, &SchemaError{Subject: name, Reason: "field name is empty"}
		}
		if _, dup := es.index[f.Name]; dup {
			return nil, &SchemaError{Subject: name, Reason: fmt.Sprintf("duplicate field %q", f.Name)}
		}
		es.index[f.Name] = len(es.fields)
		es.fields = append(es.fields, f)
	}
	return es, nil
}

// WithDescription sets the human readable description and returns es.
func (es *EntitySchema) WithDescription(desc string) *EntitySchema {
	es.Description = desc
	return es
}

// Fields returns the field descriptors in declaration order.
func (es *EntitySchema) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(es.fields))
	copy(out, es.fields)
	return out
}

// Field looks up a descriptor by name.
func (es *EntitySchema) Field(name string) (FieldDescriptor, bool) {
	i, ok := es.index[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return es.fields[i], true
}
