// Package logging builds the process logger and turns eventbus traffic into
// log records.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hanpama/jobgraph/internal/eventbus"
	"github.com/hanpama/jobgraph/internal/events"
	"github.com/hanpama/jobgraph/internal/reqid"
)

// New returns a logger writing to w. level is one of debug, info, warn or
// error; format is text or json.
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// Subscribe logs finished HTTP requests and GraphQL operations at info level
// and store calls at debug level. Failures are logged at warn level. Records
// carry the request ID when one is in the context.
func Subscribe(bus *eventbus.Bus, logger *slog.Logger) (unsubscribe func()) {
	offs := []func(){
		eventbus.On(bus, func(ctx context.Context, e events.HTTPFinish) {
			logger.LogAttrs(ctx, slog.LevelInfo, "http request",
				withRequestID(ctx,
					slog.String("method", e.Request.Method),
					slog.String("path", e.Request.URL.Path),
					slog.Int("status", e.Status),
					slog.Int("operations", e.Operations),
					slog.Duration("duration", e.Duration),
				)...)
		}),
		eventbus.On(bus, func(ctx context.Context, e events.GraphQLFinish) {
			level := slog.LevelInfo
			if len(e.Errors) > 0 {
				level = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("operation", e.OperationName),
				slog.String("type", e.OperationType),
				slog.Int("errors", len(e.Errors)),
				slog.Duration("duration", e.Duration),
			}
			if len(e.Errors) > 0 {
				attrs = append(attrs, slog.String("first_error", e.Errors[0].Error()))
			}
			logger.LogAttrs(ctx, level, "graphql operation", withRequestID(ctx, attrs...)...)
		}),
		eventbus.On(bus, func(ctx context.Context, e events.StoreFinish) {
			level := slog.LevelDebug
			attrs := []slog.Attr{
				slog.String("op", e.Op),
				slog.String("kind", e.Kind),
				slog.Duration("duration", e.Duration),
			}
			if e.Err != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("error", e.Err.Error()))
			}
			logger.LogAttrs(ctx, level, "store call", withRequestID(ctx, attrs...)...)
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// RequestScoped returns a logger that adds the request ID of the record's
// context, for callers such as the SQL logger that only pass a context.
func RequestScoped(logger *slog.Logger) *slog.Logger {
	return slog.New(requestIDHandler{logger.Handler()})
}

type requestIDHandler struct{ slog.Handler }

func (h requestIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := reqid.FromContext(ctx); ok {
		r = r.Clone()
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h requestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h requestIDHandler) WithGroup(name string) slog.Handler {
	return requestIDHandler{h.Handler.WithGroup(name)}
}

func withRequestID(ctx context.Context, attrs ...slog.Attr) []slog.Attr {
	if id, ok := reqid.FromContext(ctx); ok {
		return append([]slog.Attr{slog.String("request_id", id)}, attrs...)
	}
	return attrs
}
