// Package gqlrt implements executor.Runtime on top of the operation registry.
package gqlrt

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hanpama/jobgraph/internal/entity"
	"github.com/hanpama/jobgraph/internal/executor"
	"github.com/hanpama/jobgraph/internal/registry"
	schema "github.com/hanpama/jobgraph/internal/schema"
)

// Runtime bridges the executor to a Ready registry.
// Invariants and boundaries:
//   - Root fields are registry operations. They run one at a time in the
//     order the executor queued them, so mutations observe each other.
//   - Object values are *entity.Object. ResolveSync only reads shaped
//     attributes and never touches the store.
//   - Relation fields are grouped by (objectType, field) and each group is
//     loaded with one registry.ExpandAll call. Groups run in parallel.
//   - Results preserve input ordering; partial success is supported.
type Runtime struct {
	reg *registry.Registry
}

var _ executor.Runtime = (*Runtime)(nil)

func NewRuntime(reg *registry.Registry) *Runtime {
	return &Runtime{reg: reg}
}

// ResolveSync projects a stored attribute of the parent object. A field the
// object does not carry resolves to null.
func (r *Runtime) ResolveSync(_ context.Context, objectType string, field string, source any, _ map[string]any) (any, error) {
	obj, ok := source.(*entity.Object)
	if !ok {
		return nil, fmt.Errorf("%s.%s: source must be *entity.Object, got %T", objectType, field, source)
	}
	v, _ := obj.Get(field)
	return v, nil
}

// BatchResolveAsync dispatches root operations and loads relation fields.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	type groupKey struct {
		objectType string
		field      string
	}
	type group struct {
		field string
		idxs  []int
	}
	var groups []group
	idxByKey := map[groupKey]int{}
	for i, t := range tasks {
		if isRoot(t.ObjectType) {
			value, err := r.reg.Dispatch(ctx, t.Field, t.Args)
			results[i] = executor.AsyncResolveResult{Value: value, Error: err}
			continue
		}
		k := groupKey{objectType: t.ObjectType, field: t.Field}
		if gi, ok := idxByKey[k]; ok {
			groups[gi].idxs = append(groups[gi].idxs, i)
			continue
		}
		idxByKey[k] = len(groups)
		groups = append(groups, group{field: t.Field, idxs: []int{i}})
	}

	run := func(g group) {
		objs := make([]*entity.Object, len(g.idxs))
		for j, idx := range g.idxs {
			obj, ok := tasks[idx].Source.(*entity.Object)
			if !ok {
				results[idx].Error = fmt.Errorf("%s.%s: source must be *entity.Object, got %T", tasks[idx].ObjectType, g.field, tasks[idx].Source)
				continue
			}
			objs[j] = obj
		}
		values, err := r.reg.ExpandAll(ctx, objs, g.field)
		for j, idx := range g.idxs {
			if results[idx].Error != nil {
				continue
			}
			if err != nil {
				results[idx].Error = err
				continue
			}
			results[idx].Value = values[j]
		}
	}

	if len(groups) > 1 {
		var wg sync.WaitGroup
		wg.Add(len(groups))
		for _, g := range groups {
			go func() {
				defer wg.Done()
				run(g)
			}()
		}
		wg.Wait()
	} else {
		for _, g := range groups {
			run(g)
		}
	}
	return results
}

// SerializeLeafValue converts stored values to their GraphQL wire form.
// Timestamps are rendered as RFC 3339 strings and IDs as decimal strings.
func (r *Runtime) SerializeLeafValue(_ context.Context, scalarTypeName string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch scalarTypeName {
	case "Int":
		switch v := value.(type) {
		case int, int32, int64:
			return v, nil
		}
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case int:
			return strconv.Itoa(v), nil
		}
	case "String":
		switch v := value.(type) {
		case string:
			return v, nil
		case time.Time:
			if v.IsZero() {
				return nil, nil
			}
			return v.UTC().Format(time.RFC3339), nil
		}
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
	default:
		return value, nil
	}
	return nil, fmt.Errorf("%s cannot represent value of type %T", scalarTypeName, value)
}

func isRoot(objectType string) bool {
	return objectType == schema.QueryTypeName || objectType == schema.MutationTypeName
}
