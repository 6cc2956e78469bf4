package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/jobgraph/internal/eventbus"
	events "github.com/hanpama/jobgraph/internal/events"
	reqid "github.com/hanpama/jobgraph/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "jobgraph"

// Setup configures OpenTelemetry and attaches span subscribers to bus.
// If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, bus *eventbus.Bus, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Subscribe(bus, tp.Tracer(tracerName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Subscribe records spans for the HTTP, GraphQL and store events published
// on bus. HTTP and GraphQL spans are matched through the request's sequence
// number, since its ID may be client supplied; store spans through the
// call number of the event pair.
func Subscribe(bus *eventbus.Bus, tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register(bus)
}

type subscriber struct {
	tracer     trace.Tracer
	httpSpans  sync.Map // request seq -> trace.Span
	gqlSpans   sync.Map // request seq -> trace.Span
	storeSpans sync.Map // call -> trace.Span
}

func (s *subscriber) parent(ctx context.Context, seq uint64, maps ...*sync.Map) context.Context {
	for _, m := range maps {
		if v, ok := m.Load(seq); ok {
			return trace.ContextWithSpan(ctx, v.(trace.Span))
		}
	}
	return ctx
}

func (s *subscriber) register(bus *eventbus.Bus) func() {
	var offs []func()
	offs = append(offs, eventbus.On(bus, func(ctx context.Context, e events.HTTPStart) {
		rid, _ := reqid.FromContext(ctx)
		seq, _ := reqid.Seq(ctx)
		_, span := s.tracer.Start(ctx, "http.request")
		span.SetAttributes(
			semconv.HTTPMethodKey.String(e.Request.Method),
			attribute.String("http.target", e.Request.URL.Path),
			attribute.String("request.id", rid),
		)
		s.httpSpans.Store(seq, span)
	}))

	offs = append(offs, eventbus.On(bus, func(ctx context.Context, e events.HTTPFinish) {
		seq, _ := reqid.Seq(ctx)
		v, ok := s.httpSpans.LoadAndDelete(seq)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(
			semconv.HTTPStatusCodeKey.Int(e.Status),
			attribute.Int("graphql.operations", e.Operations),
		)
		if e.Status >= 500 {
			span.SetStatus(codes.Error, "")
		}
		span.End()
	}))

	offs = append(offs, eventbus.On(bus, func(ctx context.Context, e events.GraphQLStart) {
		seq, _ := reqid.Seq(ctx)
		_, span := s.tracer.Start(s.parent(ctx, seq, &s.httpSpans), "graphql.operation")
		span.SetAttributes(
			attribute.String("graphql.operation.name", e.OperationName),
			attribute.String("graphql.operation.type", e.OperationType),
		)
		s.gqlSpans.Store(seq, span)
	}))

	offs = append(offs, eventbus.On(bus, func(ctx context.Context, e events.GraphQLFinish) {
		seq, _ := reqid.Seq(ctx)
		v, ok := s.gqlSpans.LoadAndDelete(seq)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
		span.End()
	}))

	offs = append(offs, eventbus.On(bus, func(ctx context.Context, e events.StoreStart) {
		seq, _ := reqid.Seq(ctx)
		_, span := s.tracer.Start(s.parent(ctx, seq, &s.gqlSpans, &s.httpSpans), "store."+e.Op)
		span.SetAttributes(
			semconv.DBOperationKey.String(e.Op),
			semconv.DBSQLTableKey.String(e.Kind),
		)
		s.storeSpans.Store(e.Call, span)
	}))

	offs = append(offs, eventbus.On(bus, func(ctx context.Context, e events.StoreFinish) {
		v, ok := s.storeSpans.LoadAndDelete(e.Call)
		if !ok {
			return
		}
		span := v.(trace.Span)
		if e.Err != nil {
			span.RecordError(e.Err)
			span.SetStatus(codes.Error, e.Err.Error())
		}
		span.End()
	}))

	return func() {
		for _, off := range offs {
			off()
		}
	}
}
