package gqlrt

import (
	"github.com/hanpama/jobgraph/internal/executor"
	"github.com/hanpama/jobgraph/internal/introspection"
	"github.com/hanpama/jobgraph/internal/registry"
	schema "github.com/hanpama/jobgraph/internal/schema"
)

type options struct {
	introspection bool
}

// Option customizes NewExecutor.
type Option func(*options)

// WithIntrospection enables or disables __schema and __type. It is enabled
// by default.
func WithIntrospection(enabled bool) Option {
	return func(o *options) { o.introspection = enabled }
}

// NewExecutor builds the schema of reg and an executor that resolves it
// through a Runtime.
func NewExecutor(reg *registry.Registry, opts ...Option) (*executor.Executor, error) {
	o := options{introspection: true}
	for _, opt := range opts {
		opt(&o)
	}
	s, err := schema.BuildFromRegistry(reg)
	if err != nil {
		return nil, err
	}
	var rt executor.Runtime = NewRuntime(reg)
	if o.introspection {
		rt, s = introspection.Wrap(rt, s)
	}
	return executor.NewExecutor(rt, s), nil
}
