// Package reqid carries a per-request identifier through the context so
// logs and spans emitted for one request can be correlated.
package reqid

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Header is the HTTP header the server echoes the request ID in.
const Header = "X-Request-Id"

type key struct{}

type entry struct {
	id  string
	seq uint64
}

var seq atomic.Uint64

// NewContext returns a copy of parent with a new random request ID stored.
// It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, string) {
	return WithID(parent, uuid.NewString())
}

// WithID stores a caller-supplied ID, e.g. one forwarded by a proxy.
// Values that are not valid UUIDs are replaced by a fresh one.
func WithID(parent context.Context, id string) (context.Context, string) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	return context.WithValue(parent, key{}, entry{id: id, seq: seq.Add(1)}), id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	e, ok := ctx.Value(key{}).(entry)
	return e.id, ok
}

// Seq returns the number assigned when the ID was stored in ctx. Unlike the
// ID, which a client may forward, it is unique within the process.
func Seq(ctx context.Context) (uint64, bool) {
	e, ok := ctx.Value(key{}).(entry)
	return e.seq, ok
}
