// Package trace wires OpenTelemetry tracing and metrics for the capture and
// inference pipeline.
package trace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer behind every pipeline span.
const TracerName = "github.com/realtime-ai/audioscene"

// Exporter kinds accepted by Config.Exporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

var (
	mu       sync.RWMutex
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
)

// Config selects where pipeline spans go. The command line fills it from the
// listener configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Exporter       string
	// Endpoint is the OTLP gRPC collector, e.g. "localhost:4317".
	Endpoint string
	// SampleRate is the fraction of root spans kept, 0 to 1.
	SampleRate float64
}

// Initialize installs the global tracer provider. With the "none" exporter
// spans are still created, so parent/child links and log correlation work,
// but nothing leaves the process.
func Initialize(ctx context.Context, cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if provider != nil {
		return errors.New("tracer provider already initialized")
	}

	res, err := newResource(ctx, cfg.ServiceName,
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	)
	if err != nil {
		return err
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracer = provider.Tracer(TracerName)

	log.Printf("[Trace] Tracing initialized with exporter: %s", cfg.Exporter)
	return nil
}

// Shutdown flushes pending spans and uninstalls the provider.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	provider, tracer = nil, nil
	if err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}

// StartSpan starts a span on the installed tracer, or on the global one
// before Initialize.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	mu.RLock()
	t := tracer
	mu.RUnlock()
	if t == nil {
		t = otel.Tracer(TracerName)
	}
	return t.Start(ctx, name, opts...)
}

// newResource describes this process. The resource is built schemaless so it
// merges with the SDK's detected attributes whatever semconv version the SDK
// was released against.
func newResource(ctx context.Context, serviceName string, attrs ...attribute.KeyValue) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = "audioscene"
	}
	attrs = append([]attribute.KeyValue{semconv.ServiceName(serviceName)}, attrs...)
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exp, nil
	case ExporterOTLP:
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		exp, err := otlptrace.New(ctx, client)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return exp, nil
	case ExporterNone, "":
		return discardExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.Exporter)
	}
}

type discardExporter struct{}

func (discardExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (discardExporter) Shutdown(context.Context) error                             { return nil }
