// Package registry is the directory of operations exposed by the API.
//
// A Registry starts Uninitialized: entity schemas, relations and operations
// are registered in dependency order, then Seal moves it to Ready. A Ready
// registry is read-only and may be shared by concurrent requests without
// locking. There is no way back to Uninitialized.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hanpama/jobgraph/internal/binder"
	"github.com/hanpama/jobgraph/internal/entity"
	"github.com/hanpama/jobgraph/internal/resolver"
	"github.com/hanpama/jobgraph/internal/store"
)

// OperationKind is the root type an operation is exposed on.
type OperationKind int

const (
	Query OperationKind = iota
	Mutation
)

func (k OperationKind) String() string {
	switch k {
	case Query:
		return "query"
	case Mutation:
		return "mutation"
	}
	return fmt.Sprintf("OperationKind(%d)", int(k))
}

// Result names the entity an operation returns, optionally as a list.
type Result struct {
	Entity string
	List   bool
}

func (r Result) String() string {
	if r.List {
		return "[" + r.Entity + "]"
	}
	return r.Entity
}

// OperationDescriptor is one registered operation.
type OperationDescriptor struct {
	Name        string
	Kind        OperationKind
	Description string
	Arguments   []binder.ArgumentSchema
	Result      Result
	Resolver    resolver.Resolver
}

// State is the lifecycle state of a Registry.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

var (
	// ErrNotReady is returned by lookups on a registry that was not sealed.
	ErrNotReady = errors.New("registry is not ready")
	// ErrSealed is returned by registrations on a Ready registry.
	ErrSealed = errors.New("registry is sealed")
)

// UnknownOperation reports a lookup of an unregistered operation name.
type UnknownOperation struct {
	Name string
}

func (e *UnknownOperation) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}

func (e *UnknownOperation) Code() string { return "UNKNOWN_OPERATION" }

type relationKey struct {
	entity string
	field  string
}

// Registry maps operation names to their descriptors.
type Registry struct {
	state State

	entities    map[string]*entity.EntitySchema
	entityOrder []string
	ops         map[string]*OperationDescriptor
	opOrder     []string
	relations   map[relationKey]resolver.Relation
}

// NewRegistry returns an empty, Uninitialized registry.
func NewRegistry() *Registry {
	return &Registry{
		entities:  make(map[string]*entity.EntitySchema),
		ops:       make(map[string]*OperationDescriptor),
		relations: make(map[relationKey]resolver.Relation),
	}
}

// State returns the lifecycle state.
func (r *Registry) State() State { return r.state }

// RegisterEntity adds an entity schema. Entities must be registered before
// the operations and relations that refer to them.
func (r *Registry) RegisterEntity(es *entity.EntitySchema) error {
	if r.state == Ready {
		return ErrSealed
	}
	if es == nil {
		return &entity.SchemaError{Subject: "entity", Reason: "nil schema"}
	}
	if _, dup := r.entities[es.Name]; dup {
		return &entity.SchemaError{Subject: es.Name, Reason: "entity already registered"}
	}
	if _, clash := r.ops[es.Name]; clash {
		return &entity.SchemaError{Subject: es.Name, Reason: "name is used by an operation"}
	}
	r.entities[es.Name] = es
	r.entityOrder = append(r.entityOrder, es.Name)
	return nil
}

// RegisterRelation installs the loader for a relation-typed entity field.
func (r *Registry) RegisterRelation(entityName, field string, rel resolver.Relation) error {
	if r.state == Ready {
		return ErrSealed
	}
	es, ok := r.entities[entityName]
	if !ok {
		return &entity.SchemaError{Subject: entityName, Reason: "entity is not registered"}
	}
	fd, ok := es.Field(field)
	if !ok {
		return &entity.SchemaError{Subject: entityName, Reason: fmt.Sprintf("no field %q", field)}
	}
	if !fd.Type.IsRelation() {
		return &entity.SchemaError{Subject: entityName, Reason: fmt.Sprintf("field %q is not a relation", field)}
	}
	if rel == nil {
		return &entity.SchemaError{Subject: entityName, Reason: fmt.Sprintf("nil loader for %q", field)}
	}
	r.relations[relationKey{entityName, field}] = rel
	return nil
}

// Register adds an operation. The descriptor is validated here so that a
// misconfigured registry never becomes Ready.
func (r *Registry) Register(op OperationDescriptor) error {
	if r.state == Ready {
		return ErrSealed
	}
	if strings.TrimSpace(op.Name) == "" {
		return &entity.SchemaError{Subject: "operation", Reason: "name is empty"}
	}
	if _, dup := r.ops[op.Name]; dup {
		return &entity.SchemaError{Subject: op.Name, Reason: "operation already registered"}
	}
	if op.Kind != Query && op.Kind != Mutation {
		return &entity.SchemaError{Subject: op.Name, Reason: fmt.Sprintf("invalid kind %v", op.Kind)}
	}
	if op.Resolver == nil {
		return &entity.SchemaError{Subject: op.Name, Reason: "resolver is nil"}
	}
	if _, ok := r.entities[op.Result.Entity]; !ok {
		return &entity.SchemaError{Subject: op.Name, Reason: fmt.Sprintf("result entity %q is not registered", op.Result.Entity)}
	}
	if err := binder.CheckSchemas(op.Name, op.Arguments); err != nil {
		return err
	}
	args := make([]binder.ArgumentSchema, len(op.Arguments))
	copy(args, op.Arguments)
	op.Arguments = args
	r.ops[op.Name] = &op
	r.opOrder = append(r.opOrder, op.Name)
	return nil
}

// Seal checks that every relation field has a registered target and loader,
// then moves the registry to Ready. Sealing a Ready registry is a no-op.
func (r *Registry) Seal() error {
	if r.state == Ready {
		return nil
	}
	for _, name := range r.entityOrder {
		for _, f := range r.entities[name].Fields() {
			if !f.Type.IsRelation() {
				continue
			}
			target := f.Type.Innermost().Entity
			if _, ok := r.entities[target]; !ok {
				return &entity.SchemaError{Subject: name, Reason: fmt.Sprintf("field %q refers to unknown entity %q", f.Name, target)}
			}
			if _, ok := r.relations[relationKey{name, f.Name}]; !ok {
				return &entity.SchemaError{Subject: name, Reason: fmt.Sprintf("no loader for relation %q", f.Name)}
			}
		}
	}
	r.state = Ready
	return nil
}

// Resolve looks up an operation by name.
func (r *Registry) Resolve(name string) (*OperationDescriptor, error) {
	if r.state != Ready {
		return nil, ErrNotReady
	}
	op, ok := r.ops[name]
	if !ok {
		return nil, &UnknownOperation{Name: name}
	}
	return op, nil
}

// Dispatch runs an operation end to end: lookup, argument binding, resolution
// and shaping. The result is a *entity.Object, a []*entity.Object or nil.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs map[string]any) (any, error) {
	op, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	args, err := binder.Bind(op.Arguments, rawArgs)
	if err != nil {
		return nil, err
	}
	out, err := op.Resolver.Resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	return r.shape(op, out)
}

func (r *Registry) shape(op *OperationDescriptor, out any) (any, error) {
	es := r.entities[op.Result.Entity]
	switch v := out.(type) {
	case nil:
		return nil, nil
	case []store.Record:
		return es.ShapeAll(v), nil
	case store.Record:
		obj := es.Shape(v)
		if op.Result.List {
			return []*entity.Object{obj}, nil
		}
		return obj, nil
	}
	return nil, fmt.Errorf("operation %s: unexpected resolver result %T", op.Name, out)
}

// Expand resolves a relation field of obj into the target entity's objects.
func (r *Registry) Expand(ctx context.Context, obj *entity.Object, field string) (any, error) {
	if r.state != Ready {
		return nil, ErrNotReady
	}
	if obj == nil {
		return nil, nil
	}
	fd, ok := obj.Schema.Field(field)
	if !ok || !fd.Type.IsRelation() {
		return nil, fmt.Errorf("%s.%s is not a relation", obj.Schema.Name, field)
	}
	rel := r.relations[relationKey{obj.Schema.Name, field}]
	recs, err := rel.Load(ctx, obj.ID)
	if err != nil {
		return nil, err
	}
	target := r.entities[fd.Type.Innermost().Entity]
	if fd.Type.IsList() {
		return target.ShapeAll(recs), nil
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return target.Shape(recs[0]), nil
}

// ExpandAll resolves field for every object in objs, which must share one
// entity schema. Relations that support batching are loaded with a single
// query. The result is aligned with objs.
func (r *Registry) ExpandAll(ctx context.Context, objs []*entity.Object, field string) ([]any, error) {
	if r.state != Ready {
		return nil, ErrNotReady
	}
	out := make([]any, len(objs))
	var es *entity.EntitySchema
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		if es == nil {
			es = obj.Schema
		} else if es != obj.Schema {
			return nil, fmt.Errorf("expand %s: objects of %s and %s mixed", field, es.Name, obj.Schema.Name)
		}
	}
	if es == nil {
		return out, nil
	}
	rel, ok := r.relations[relationKey{es.Name, field}]
	batch, batched := rel.(resolver.BatchRelation)
	if !ok || !batched {
		for i, obj := range objs {
			v, err := r.Expand(ctx, obj, field)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	fd, _ := es.Field(field)
	ids := make([]int64, 0, len(objs))
	seen := make(map[int64]bool, len(objs))
	for _, obj := range objs {
		if obj != nil && !seen[obj.ID] {
			seen[obj.ID] = true
			ids = append(ids, obj.ID)
		}
	}
	byParent, err := batch.LoadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	target := r.entities[fd.Type.Innermost().Entity]
	for i, obj := range objs {
		if obj == nil {
			continue
		}
		recs := byParent[obj.ID]
		switch {
		case fd.Type.IsList():
			out[i] = target.ShapeAll(recs)
		case len(recs) > 0:
			out[i] = target.Shape(recs[0])
		}
	}
	return out, nil
}

// Operations returns the registered operations in registration order.
func (r *Registry) Operations() []*OperationDescriptor {
	out := make([]*OperationDescriptor, 0, len(r.opOrder))
	for _, name := range r.opOrder {
		out = append(out, r.ops[name])
	}
	return out
}

// Entities returns the registered entity schemas in registration order.
func (r *Registry) Entities() []*entity.EntitySchema {
	out := make([]*entity.EntitySchema, 0, len(r.entityOrder))
	for _, name := range r.entityOrder {
		out = append(out, r.entities[name])
	}
	return out
}

// Entity looks up an entity schema by name.
func (r *Registry) Entity(name string) (*entity.EntitySchema, bool) {
	es, ok := r.entities[name]
	return es, ok
}
