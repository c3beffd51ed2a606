package procmeta

import (
	"strings"

	"github.com/mrzor/rtboot/internal/argv"
)

// ProcessMetadata holds structured process information for expression evaluation.
type ProcessMetadata struct {
	Environ     map[string]string // Parsed environment variables
	Args        []string          // Captured command-line arguments
	CmdlineFull string            // Full command line as single string
}

// NewProcessMetadata builds metadata from a vector and raw KEY=VALUE
// environment entries.
func NewProcessMetadata(v argv.Vector, environ []string) *ProcessMetadata {
	args, full := parseCmdline(v)
	return &ProcessMetadata{
		Environ:     parseEnviron(environ),
		Args:        args,
		CmdlineFull: full,
	}
}

// parseEnviron turns KEY=VALUE entries into a map. Entries without '=' or
// with an empty key are dropped; the last duplicate wins.
func parseEnviron(raw []string) map[string]string {
	env := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

func parseCmdline(v argv.Vector) ([]string, string) {
	args := make([]string, len(v))
	copy(args, v)
	return args, v.String()
}
