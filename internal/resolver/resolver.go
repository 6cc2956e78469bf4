// Package resolver executes bound operation arguments against a store.
//
// A resolver returns a store.Record, a []store.Record or nil. Shaping the
// result through an entity schema is left to the caller.
package resolver

import (
	"context"
	"strconv"
	"strings"

	"github.com/hanpama/jobgraph/internal/binder"
	"github.com/hanpama/jobgraph/internal/store"
)

// LimitArg is the argument name Query reads its result-count limit from.
const LimitArg = "limit"

// Resolver performs one operation.
type Resolver interface {
	Resolve(ctx context.Context, args binder.TypedArgs) (any, error)
}

// Func adapts a plain function to Resolver.
type Func func(ctx context.Context, args binder.TypedArgs) (any, error)

func (f Func) Resolve(ctx context.Context, args binder.TypedArgs) (any, error) {
	return f(ctx, args)
}

type options struct {
	keys    map[string]struct{}
	hashers map[string]Hasher
	owner   *owner
}

type owner struct {
	arg  string
	kind store.Kind
}

// Option configures Query, Create and Update.
type Option func(*options)

// WithKey marks an ID argument that refers to an integer primary or foreign
// key. Its string value is converted before it reaches the store.
func WithKey(arg string) Option {
	return func(o *options) {
		if o.keys == nil {
			o.keys = make(map[string]struct{})
		}
		o.keys[arg] = struct{}{}
	}
}

// WithPasswordHash hashes the named argument with h before it is stored.
func WithPasswordHash(arg string, h Hasher) Option {
	return func(o *options) {
		if o.hashers == nil {
			o.hashers = make(map[string]Hasher)
		}
		o.hashers[arg] = h
	}
}

// WithOwner makes Create attach the new record to the owner identified by
// arg. The owner must exist; otherwise nothing is written.
func WithOwner(arg string, kind store.Kind) Option {
	return func(o *options) {
		o.owner = &owner{arg: arg, kind: kind}
		WithKey(arg)(o)
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) isKey(arg string) bool {
	_, ok := o.keys[arg]
	return ok
}

// parseKey converts a bound ID or Int argument to a store key.
func parseKey(v any) (int64, bool) {
	switch k := v.(type) {
	case int64:
		return k, true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		return id, err == nil
	}
	return 0, false
}

// hashAll replaces every configured secret in fields by its hash.
func (o options) hashAll(fields map[string]any) error {
	for arg, h := range o.hashers {
		raw, ok := fields[arg].(string)
		if !ok {
			continue
		}
		hashed, err := h.Hash(raw)
		if err != nil {
			return err
		}
		fields[arg] = hashed
	}
	return nil
}
