package observability

import (
	"context"
	"fmt"

	"sharify/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is reported as service.name by the API.
const ServiceName = "sharify-api"

// Tracer starts every span the API records. InitTracing replaces it.
var Tracer trace.Tracer = otel.Tracer(ServiceName)

// Attribute keys shared by post, reaction and search spans.
const (
	AttrPostID       = attribute.Key("sharify.post.id")
	AttrReactionKind = attribute.Key("sharify.reaction.kind")
	AttrReactionFrom = attribute.Key("sharify.reaction.current")
	AttrQueryLength  = attribute.Key("sharify.search.query_length")
	AttrResultCount  = attribute.Key("sharify.result.count")
	AttrStorage      = attribute.Key("sharify.storage.provider")
)

// InitTracing installs a tracer provider built from cfg and returns its
// shutdown. With tracing off, spans go to the global no-op provider.
func InitTracing(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.TracingEnabled {
		Tracer = otel.Tracer(ServiceName)
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("tracing exporter: %w", err)
	}
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.TracingSampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	Tracer = tp.Tracer(ServiceName)
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg *config.Config) (sdktrace.SpanExporter, error) {
	switch cfg.TracingExporter {
	case config.TracingOTLP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case config.TracingStdout, "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	return nil, fmt.Errorf("unknown exporter %q", cfg.TracingExporter)
}

func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	storage := cfg.StorageProvider
	if storage == "" {
		storage = config.StorageFilesystem
	}
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(cfg.Version),
			semconv.DeploymentEnvironment(cfg.Env),
			AttrStorage.String(storage),
		),
		resource.WithHost(),
		resource.WithProcessRuntimeVersion(),
	)
}

// Sampler follows the caller's sampling decision and samples new traces at
// ratio. Zero records nothing new.
func Sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// StartPostSpan starts "post.<op>" for a write or read of one post. postID
// may be zero before the post exists.
func StartPostSpan(ctx context.Context, op string, postID uint) (context.Context, trace.Span) {
	ctx, span := Tracer.Start(ctx, "post."+op)
	if postID != 0 {
		span.SetAttributes(AttrPostID.Int64(int64(postID)))
	}
	return ctx, span
}

// StartReactionSpan starts "reaction.<kind>" for a toggle leaving current.
func StartReactionSpan(ctx context.Context, kind string, postID uint, current bool) (context.Context, trace.Span) {
	return Tracer.Start(ctx, "reaction."+kind, trace.WithAttributes(
		AttrPostID.Int64(int64(postID)),
		AttrReactionKind.String(kind),
		AttrReactionFrom.Bool(current),
	))
}

// StartSearchSpan starts "post.search". Only the query length is recorded.
func StartSearchSpan(ctx context.Context, query string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, "post.search", trace.WithAttributes(AttrQueryLength.Int(len(query))))
}

// FailSpan marks span as failed with err. A nil err is ignored.
func FailSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// EndSpan fails span with err, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	FailSpan(span, err)
	span.End()
}
