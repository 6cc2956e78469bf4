package resolver

import (
	"context"

	"github.com/hanpama/jobgraph/internal/store"
)

// Relation loads the records linked to a parent record.
type Relation interface {
	Load(ctx context.Context, parentID int64) ([]store.Record, error)
}

// HasMany loads every record of kind whose foreignKey equals the parent id.
type HasMany struct {
	store      store.Store
	kind       store.Kind
	foreignKey string
}

func NewHasMany(st store.Store, kind store.Kind, foreignKey string) *HasMany {
	return &HasMany{store: st, kind: kind, foreignKey: foreignKey}
}

func (h *HasMany) Load(ctx context.Context, parentID int64) ([]store.Record, error) {
	return h.store.FindAll(ctx, h.kind, []store.Filter{{Attr: h.foreignKey, Value: parentID}}, store.NoLimit)
}

// BatchRelation is implemented by relations that can load the records of
// many parents with one query.
type BatchRelation interface {
	Relation
	LoadMany(ctx context.Context, parentIDs []int64) (map[int64][]store.Record, error)
}

// LoadMany groups the matching records by foreign key. Parents without
// records are absent from the map.
func (h *HasMany) LoadMany(ctx context.Context, parentIDs []int64) (map[int64][]store.Record, error) {
	out := make(map[int64][]store.Record, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}
	recs, err := h.store.FindAll(ctx, h.kind, []store.Filter{{Attr: h.foreignKey, Value: parentIDs}}, store.NoLimit)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		v, _ := rec.Attr(h.foreignKey)
		if id, ok := v.(int64); ok {
			out[id] = append(out[id], rec)
		}
	}
	return out, nil
}
