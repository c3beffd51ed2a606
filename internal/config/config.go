// Package config reads bootstrap configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/mrzor/rtboot/internal/argv"
	"github.com/mrzor/rtboot/internal/dispatch"
)

// CustomAttribute represents a custom span attribute with a name and expression.
type CustomAttribute struct {
	Name       string
	Expression string
}

// EnvConfig holds configuration from environment variables.
type EnvConfig struct {
	// Strategy is the acquisition strategy: derive, direct or auto.
	Strategy string `env:"RTBOOT_STRATEGY" envDefault:"derive"`
	// CmdlinePath overrides the pseudo-file the retriever reads.
	CmdlinePath string `env:"RTBOOT_CMDLINE_PATH" envDefault:"/proc/self/cmdline"`
	// CmdlineBuffer is the initial retriever buffer size in bytes.
	CmdlineBuffer int `env:"RTBOOT_CMDLINE_BUFFER" envDefault:"1024"`
	// CmdlineMax bounds retriever buffer growth in bytes.
	CmdlineMax int `env:"RTBOOT_CMDLINE_MAX" envDefault:"67108864"`
	// LogLevel is the hclog level name.
	LogLevel string `env:"RTBOOT_LOG_LEVEL" envDefault:"warn"`
	// Module names the calling module for extended runtime init.
	Module string `env:"RTBOOT_MODULE" envDefault:""`
	// InitFlags are passed to extended runtime init.
	InitFlags uint64 `env:"RTBOOT_INIT_FLAGS" envDefault:"0"`
	// SyncOSArgs rewrites os.Args with the finalised vector before main.
	SyncOSArgs bool `env:"RTBOOT_SYNC_OS_ARGS" envDefault:"false"`
	// Trace enables the bootstrap span.
	Trace bool `env:"RTBOOT_TRACE" envDefault:"false"`
	// TraceID is an expression producing the bootstrap trace ID.
	TraceID string `env:"RTBOOT_TRACE_ID" envDefault:""`
	// ParentID is an expression producing the bootstrap parent span ID.
	ParentID string `env:"RTBOOT_PARENT_ID" envDefault:""`
	// Attributes holds custom span attributes, "name=expr;name=expr".
	Attributes string `env:"RTBOOT_ATTRIBUTES" envDefault:""`
}

// ParseEnvConfig parses configuration from environment variables.
func ParseEnvConfig() (*EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment config: %w", err)
	}
	if _, err := cfg.ParsedStrategy(); err != nil {
		return nil, fmt.Errorf("invalid RTBOOT_STRATEGY: %w", err)
	}
	if err := cfg.validateBufferSizes(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateBufferSizes keeps both retriever sizes within argv.DefaultMaxSize
// so a stray value cannot request an oversized allocation.
func (c *EnvConfig) validateBufferSizes() error {
	switch {
	case c.CmdlineBuffer <= 0 || c.CmdlineBuffer > argv.DefaultMaxSize:
		return fmt.Errorf("invalid RTBOOT_CMDLINE_BUFFER %d: must be in [1, %d]", c.CmdlineBuffer, argv.DefaultMaxSize)
	case c.CmdlineMax <= 0 || c.CmdlineMax > argv.DefaultMaxSize:
		return fmt.Errorf("invalid RTBOOT_CMDLINE_MAX %d: must be in [1, %d]", c.CmdlineMax, argv.DefaultMaxSize)
	case c.CmdlineBuffer > c.CmdlineMax:
		return fmt.Errorf("invalid RTBOOT_CMDLINE_BUFFER %d: exceeds RTBOOT_CMDLINE_MAX %d", c.CmdlineBuffer, c.CmdlineMax)
	}
	return nil
}

// Default returns the configuration used when the environment is ignored.
func Default() *EnvConfig {
	return &EnvConfig{
		Strategy:      dispatch.Derive.String(),
		CmdlinePath:   argv.DefaultPath,
		CmdlineBuffer: argv.DefaultInitialSize,
		CmdlineMax:    argv.DefaultMaxSize,
		LogLevel:      "warn",
	}
}

// ParsedStrategy returns the configured dispatch strategy.
func (c *EnvConfig) ParsedStrategy() (dispatch.Strategy, error) {
	return dispatch.ParseStrategy(c.Strategy)
}

// RetrieverOptions returns the retriever settings.
func (c *EnvConfig) RetrieverOptions() []argv.Option {
	return []argv.Option{
		argv.WithPath(c.CmdlinePath),
		argv.WithBufferSizes(c.CmdlineBuffer, c.CmdlineMax),
	}
}

// Extended reports whether the extended runtime init should be used.
func (c *EnvConfig) Extended() bool {
	return c.Module != "" || c.InitFlags != 0
}

// CustomAttributes parses the Attributes field.
func (c *EnvConfig) CustomAttributes() ([]CustomAttribute, error) {
	return ParseAttributeString(c.Attributes)
}

// ParseAttributeString parses "name=expr;name=expr". Empty sections are
// skipped; the first '=' separates name from expression.
func ParseAttributeString(s string) ([]CustomAttribute, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var attrs []CustomAttribute
	for _, section := range strings.Split(s, ";") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		name, expression, ok := strings.Cut(section, "=")
		if !ok {
			return nil, fmt.Errorf("invalid attribute format %q (expected name=expression)", section)
		}
		name = strings.TrimSpace(name)
		expression = strings.TrimSpace(expression)
		if name == "" {
			return nil, fmt.Errorf("attribute name cannot be empty in %q", section)
		}
		if expression == "" {
			return nil, fmt.Errorf("attribute expression cannot be empty for %q", name)
		}

		attrs = append(attrs, CustomAttribute{Name: name, Expression: expression})
	}

	return attrs, nil
}
