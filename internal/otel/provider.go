// Package otel builds the tracer provider that carries the bootstrap span.
package otel

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mrzor/rtboot/internal/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// exportTimeout bounds both exporter construction and each export.
const exportTimeout = 10 * time.Second

// logProxy records which proxy the HTTP exporter will go through, if any.
func logProxy(logger hclog.Logger) {
	httpProxy := os.Getenv("HTTP_PROXY")
	if httpProxy == "" {
		httpProxy = os.Getenv("http_proxy")
	}
	httpsProxy := os.Getenv("HTTPS_PROXY")
	if httpsProxy == "" {
		httpsProxy = os.Getenv("https_proxy")
	}
	if httpProxy != "" || httpsProxy != "" {
		logger.Debug("proxy configuration", "http_proxy", httpProxy, "https_proxy", httpsProxy)
	}
}

// Resource describes this process for every span it emits.
func Resource(ctx context.Context, cfg *config.OTELConfig) (*resource.Resource, error) {
	opts := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ProcessPID(os.Getpid()),
		),
	}
	attrs, err := cfg.Resource()
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		opts = append(opts, resource.WithAttributes(attrs...))
	}

	res, err := resource.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// InitProvider creates an OTLP/HTTP tracer provider. The exporter honours
// HTTP_PROXY, HTTPS_PROXY and NO_PROXY through net/http.
func InitProvider(ctx context.Context, cfg *config.OTELConfig, logger hclog.Logger) (*sdktrace.TracerProvider, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	endpoint, err := cfg.EndpointURL()
	if err != nil {
		return nil, err
	}
	exporterOpts, err := cfg.ExporterOptions()
	if err != nil {
		return nil, err
	}
	logger.Debug("initializing tracer provider",
		"service", cfg.ServiceName,
		"endpoint", endpoint.String(),
		"resource_attributes", cfg.ResourceAttributes,
	)
	logProxy(logger)

	exporter, err := otlptracehttp.New(ctx,
		append(exporterOpts, otlptracehttp.WithTimeout(exportTimeout))...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res, err := Resource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// ShutdownProvider flushes and stops tp. A nil provider is a no-op.
func ShutdownProvider(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}
