package resolver

import (
	"context"

	"github.com/hanpama/jobgraph/internal/binder"
	"github.com/hanpama/jobgraph/internal/store"
)

// Create inserts a new record built from the supplied arguments.
type Create struct {
	store store.Store
	kind  store.Kind
	opts  options
}

func NewCreate(st store.Store, kind store.Kind, opts ...Option) *Create {
	return &Create{store: st, kind: kind, opts: buildOptions(opts)}
}

func (c *Create) Resolve(ctx context.Context, args binder.TypedArgs) (any, error) {
	fields := args.Map()
	if err := c.opts.hashAll(fields); err != nil {
		return nil, err
	}

	o := c.opts.owner
	if o == nil {
		return c.store.Insert(ctx, c.kind, fields)
	}
	raw, ok := fields[o.arg]
	if !ok {
		return c.store.Insert(ctx, c.kind, fields)
	}
	delete(fields, o.arg)
	ownerID, ok := parseKey(raw)
	if !ok {
		return nil, &store.NotFoundError{Kind: o.kind, ID: raw}
	}

	var created store.Record
	err := c.store.WithTx(ctx, func(tx store.Store) error {
		if _, found, err := tx.Find(ctx, o.kind, ownerID); err != nil {
			return err
		} else if !found {
			return &store.NotFoundError{Kind: o.kind, ID: ownerID}
		}
		rec, err := tx.Insert(ctx, c.kind, fields)
		if err != nil {
			return err
		}
		childID := rec.RecordID()
		if err := tx.Associate(ctx, ownerID, childID); err != nil {
			return err
		}
		// Reload so the returned record carries the association.
		rec, found, err := tx.Find(ctx, c.kind, childID)
		if err != nil {
			return err
		}
		if !found {
			return &store.NotFoundError{Kind: c.kind, ID: childID}
		}
		created = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update overwrites the supplied arguments on the record addressed by the key
// argument. Arguments that were not supplied keep their stored value.
type Update struct {
	store store.Store
	kind  store.Kind
	key   string
	opts  options
}

func NewUpdate(st store.Store, kind store.Kind, key string, opts ...Option) *Update {
	return &Update{store: st, kind: kind, key: key, opts: buildOptions(opts)}
}

func (u *Update) Resolve(ctx context.Context, args binder.TypedArgs) (any, error) {
	fields := args.Map()
	raw, ok := fields[u.key]
	if !ok {
		return nil, &binder.MissingArgument{Name: u.key}
	}
	delete(fields, u.key)
	id, ok := parseKey(raw)
	if !ok {
		return nil, &store.NotFoundError{Kind: u.kind, ID: raw}
	}
	if _, found, err := u.store.Find(ctx, u.kind, id); err != nil {
		return nil, err
	} else if !found {
		return nil, &store.NotFoundError{Kind: u.kind, ID: id}
	}
	if err := u.opts.hashAll(fields); err != nil {
		return nil, err
	}
	return u.store.Update(ctx, u.kind, id, fields)
}
