package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
)

const (
	// DefaultOTLPEndpoint is the collector used when no endpoint is set.
	DefaultOTLPEndpoint = "localhost:4318"
	// TracesPath is appended to a base OTEL_EXPORTER_OTLP_ENDPOINT URL.
	TracesPath = "/v1/traces"
)

// OTELConfig holds the OTEL_* variables the bootstrap tracer honours.
type OTELConfig struct {
	ServiceName        string `env:"OTEL_SERVICE_NAME" envDefault:"rtboot"`
	ResourceAttributes string `env:"OTEL_RESOURCE_ATTRIBUTES"`
	// Endpoint is a base URL or a bare host:port for all signals.
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// TracesEndpoint is the full traces URL, or a bare host:port. It wins
	// over Endpoint.
	TracesEndpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
}

// ParseOTELConfig parses OTEL configuration from environment variables.
func ParseOTELConfig() (*OTELConfig, error) {
	var cfg OTELConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}
	if _, err := cfg.ExporterOptions(); err != nil {
		return nil, err
	}
	if _, err := cfg.Resource(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// endpoint returns the configured value and whether it is a base URL that
// still needs TracesPath.
func (c *OTELConfig) endpoint() (string, bool) {
	switch {
	case c.TracesEndpoint != "":
		return c.TracesEndpoint, false
	case c.Endpoint != "":
		return c.Endpoint, true
	default:
		return DefaultOTLPEndpoint, false
	}
}

// EndpointURL returns the URL spans are posted to.
func (c *OTELConfig) EndpointURL() (*url.URL, error) {
	raw, base := c.endpoint()
	if !strings.Contains(raw, "://") {
		return &url.URL{Scheme: "http", Host: raw, Path: TracesPath}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid OTLP endpoint %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid OTLP endpoint %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid OTLP endpoint %q: missing host", raw)
	}
	if base {
		u.Path = strings.TrimSuffix(u.Path, "/") + TracesPath
	}
	return u, nil
}

// ExporterOptions returns the otlptracehttp options for the configured
// endpoint. URLs go through WithEndpointURL so their scheme and path are
// kept; a bare host:port is sent over plain HTTP to the default path.
func (c *OTELConfig) ExporterOptions() ([]otlptracehttp.Option, error) {
	raw, _ := c.endpoint()
	if !strings.Contains(raw, "://") {
		return []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(raw),
			otlptracehttp.WithInsecure(),
		}, nil
	}

	u, err := c.EndpointURL()
	if err != nil {
		return nil, err
	}
	return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(u.String())}, nil
}

// Resource parses OTEL_RESOURCE_ATTRIBUTES (W3C baggage syntax, values
// percent-encoded) into attributes sorted by key.
func (c *OTELConfig) Resource() ([]attribute.KeyValue, error) {
	if strings.TrimSpace(c.ResourceAttributes) == "" {
		return nil, nil
	}

	bag, err := baggage.Parse(c.ResourceAttributes)
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_RESOURCE_ATTRIBUTES: %w", err)
	}

	members := bag.Members()
	attrs := make([]attribute.KeyValue, 0, len(members))
	for _, m := range members {
		attrs = append(attrs, attribute.String(m.Key(), m.Value()))
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	return attrs, nil
}
