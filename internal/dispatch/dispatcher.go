package dispatch

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/mrzor/rtboot/internal/argv"
	"github.com/mrzor/rtboot/internal/procmeta"
)

// InitFunc is the runtime init entry point. It may rewrite both argc and
// the vector in place; whatever it leaves behind is what gets recorded.
type InitFunc func(argc *int, v *argv.Vector)

// Fetcher derives the argument vector from process metadata.
type Fetcher interface {
	Fetch() (argv.Vector, error)
}

// Dispatcher acquires, initialises and records the argument vector.
type Dispatcher struct {
	initFn   InitFunc
	cell     *procmeta.Cell
	strategy Strategy
	fetcher  Fetcher
	supplied func() []string
	logger   hclog.Logger

	mu     sync.Mutex
	called bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStrategy sets the acquisition strategy.
func WithStrategy(s Strategy) Option {
	return func(d *Dispatcher) {
		d.strategy = s
	}
}

// WithFetcher replaces the default /proc/self/cmdline retriever.
func WithFetcher(f Fetcher) Option {
	return func(d *Dispatcher) {
		if f != nil {
			d.fetcher = f
		}
	}
}

// WithSupplied replaces the source of the loader-supplied vector (os.Args).
func WithSupplied(fn func() []string) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.supplied = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher that forwards to initFn and records into cell.
// A nil initFn captures the vector without initialising anything.
func New(initFn InitFunc, cell *procmeta.Cell, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		initFn:   initFn,
		cell:     cell,
		strategy: Derive,
		fetcher:  argv.NewRetriever(),
		supplied: func() []string { return os.Args },
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Strategy returns the strategy Run will use, with Auto resolved.
func (d *Dispatcher) Strategy() Strategy {
	if d.strategy != Auto {
		return d.strategy
	}
	if len(d.supplied()) > 0 {
		return Direct
	}
	return Derive
}

// Run is the load-time hook. Acquisition failures leave the cell empty and
// are returned for reporting only; the caller is expected to carry on.
func (d *Dispatcher) Run() error {
	return d.dispatch(d.Strategy())
}

// Fallback performs the derive sequence. The entry-point interposer uses it
// when no load-time hook captured a vector before main.
func (d *Dispatcher) Fallback() error {
	return d.dispatch(Derive)
}

// InitCalled reports whether the runtime init entry point was reached.
func (d *Dispatcher) InitCalled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.called
}

func (d *Dispatcher) dispatch(strategy Strategy) error {
	_, err := d.cell.Capture(strategy.String(), func() (argv.Vector, error) {
		v, err := d.acquire(strategy)
		if err != nil {
			return nil, err
		}
		return d.invoke(v), nil
	})

	switch {
	case errors.Is(err, procmeta.ErrAlreadyCaptured):
		d.logger.Debug("arguments already captured, skipping", "strategy", strategy)
		return nil
	case err != nil:
		// Reported once by the caller; Load's sequencer or the interposer.
		d.logger.Debug("command line unavailable, runtime not initialised", "strategy", strategy, "error", err)
		return fmt.Errorf("dispatching with %s strategy: %w", strategy, err)
	}

	d.logger.Debug("arguments captured", "strategy", strategy, "source", d.cell.Source())
	return nil
}

func (d *Dispatcher) acquire(strategy Strategy) (argv.Vector, error) {
	if strategy == Direct {
		return argv.Vector(d.supplied()).Clone(), nil
	}
	return d.fetcher.Fetch()
}

// invoke hands v to the init entry point and returns what it left behind,
// trimmed to argc.
func (d *Dispatcher) invoke(v argv.Vector) argv.Vector {
	if v == nil {
		v = argv.Vector{}
	}
	argc := v.Argc()

	if d.initFn == nil {
		d.logger.Warn("no runtime registered, capturing arguments only")
	} else {
		d.logger.Trace("calling runtime init", "argc", argc)
		d.mu.Lock()
		d.called = true
		d.mu.Unlock()
		d.initFn(&argc, &v)
	}

	switch {
	case argc < 0:
		d.cell.AddIssue(fmt.Sprintf("runtime init left argc=%d, clamped to 0", argc))
		argc = 0
	case argc > len(v):
		d.cell.AddIssue(fmt.Sprintf("runtime init left argc=%d for %d arguments, clamped", argc, len(v)))
		argc = len(v)
	}

	return v[:argc]
}
