package dispatch

import (
	"fmt"
	"strings"
)

// Strategy selects how the dispatcher acquires the argument vector.
type Strategy int

const (
	// Derive re-reads the vector from the kernel's process metadata.
	Derive Strategy = iota
	// Direct uses the vector the loader handed to the Go runtime.
	Direct
	// Auto uses Direct when the loader supplied a non-empty vector and
	// Derive otherwise.
	Auto
)

func (s Strategy) String() string {
	switch s {
	case Derive:
		return "derive"
	case Direct:
		return "direct"
	case Auto:
		return "auto"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy parses "derive", "direct" or "auto". An empty string is Derive.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "derive":
		return Derive, nil
	case "direct":
		return Direct, nil
	case "auto":
		return Auto, nil
	default:
		return Derive, fmt.Errorf("invalid strategy %q (must be 'derive', 'direct', or 'auto')", s)
	}
}
