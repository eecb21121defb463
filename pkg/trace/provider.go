package trace

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsProvider is a meter provider whose instruments are exposed in the
// Prometheus text format.
type MetricsProvider struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry
}

// InitMetrics creates a Prometheus-backed meter provider and registers it as
// the global one, so DefaultMetrics picks it up. Each call uses its own
// registry.
func InitMetrics(ctx context.Context, serviceName string) (*MetricsProvider, error) {
	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	log.Printf("[Trace] Prometheus metrics initialized")
	return &MetricsProvider{provider: mp, registry: registry}, nil
}

// MeterProvider returns the underlying provider for NewMetrics.
func (p *MetricsProvider) MeterProvider() metric.MeterProvider {
	return p.provider
}

// Handler serves the registry on a /metrics endpoint.
func (p *MetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (p *MetricsProvider) Shutdown(ctx context.Context) error {
	if err := p.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
