package resolver

import (
	"context"

	"github.com/hanpama/jobgraph/internal/binder"
	"github.com/hanpama/jobgraph/internal/store"
)

// Query lists records of one kind. Every supplied argument other than
// LimitArg becomes an equality filter; the filters are combined with AND.
type Query struct {
	store store.Store
	kind  store.Kind
	opts  options
}

func NewQuery(st store.Store, kind store.Kind, opts ...Option) *Query {
	return &Query{store: st, kind: kind, opts: buildOptions(opts)}
}

func (q *Query) Resolve(ctx context.Context, args binder.TypedArgs) (any, error) {
	limit := store.NoLimit
	if raw, ok := args.Get(LimitArg); ok {
		n, _ := raw.(int64)
		if n < 0 {
			return nil, &binder.TypeMismatch{Name: LimitArg, Expected: "non-negative Int", Got: raw}
		}
		limit = int(n)
	}

	filters := make([]store.Filter, 0, args.Len())
	for _, name := range args.Names() {
		if name == LimitArg {
			continue
		}
		v, _ := args.Get(name)
		if q.opts.isKey(name) {
			id, ok := parseKey(v)
			if !ok {
				// No record can carry a non-numeric key.
				return []store.Record{}, nil
			}
			v = id
		}
		filters = append(filters, store.Filter{Attr: name, Value: v})
	}
	return q.store.FindAll(ctx, q.kind, filters, limit)
}
