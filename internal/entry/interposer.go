package entry

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mrzor/rtboot/internal/argv"
	"github.com/mrzor/rtboot/internal/procmeta"
)

// MainFunc is a program entry point.
type MainFunc func(argc int, v argv.Vector) int

// Interposer stands in for the real entry point.
type Interposer struct {
	realMain   MainFunc
	cell       *procmeta.Cell
	fallback   func() error
	syncOSArgs bool
	logger     hclog.Logger
}

// Option configures an Interposer.
type Option func(*Interposer)

// WithFallback sets the acquire-and-record sequence run when the cell is
// still empty on entry.
func WithFallback(fn func() error) Option {
	return func(i *Interposer) {
		i.fallback = fn
	}
}

// WithOSArgsSync makes the interposer replace os.Args with the finalised
// vector before calling the real entry point.
func WithOSArgsSync(enabled bool) Option {
	return func(i *Interposer) {
		i.syncOSArgs = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(i *Interposer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInterposer wraps realMain.
func NewInterposer(realMain MainFunc, cell *procmeta.Cell, opts ...Option) *Interposer {
	i := &Interposer{
		realMain: realMain,
		cell:     cell,
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Main is the wrapper entry point. It prefers the captured vector, runs the
// fallback when nothing was captured, and otherwise passes its own arguments
// through untouched.
func (i *Interposer) Main(argc int, v argv.Vector) int {
	i.logger.Trace("main wrapper entered", "argc", argc)

	if captured, ok := i.cell.Load(); ok {
		argc, v = captured.Argc(), captured
	} else {
		if i.fallback != nil {
			reported := i.cell.Err() != nil
			if err := i.fallback(); err != nil {
				if reported {
					i.logger.Debug("fallback capture failed again, running with supplied arguments", "error", err)
				} else {
					i.logger.Warn("fallback capture failed, running with supplied arguments", "error", err)
				}
			}
		}
		if captured, ok := i.cell.Load(); ok {
			argc, v = captured.Argc(), captured
		}
	}

	if argc > len(v) {
		argc = len(v)
	}
	if argc < 0 {
		argc = 0
	}
	v = v[:argc]

	if i.syncOSArgs {
		os.Args = []string(v.Clone())
	}

	i.logger.Trace("calling real main", "argc", argc)
	return i.realMain(argc, v)
}
