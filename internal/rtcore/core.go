package rtcore

import (
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/mrzor/rtboot"
	"github.com/mrzor/rtboot/internal/argv"
)

// Version is reported by Core.Version. Overridable at link time.
var Version = "0.1.0"

// State is a snapshot of what an init call did.
type State struct {
	Initialized bool
	DSO         bool
	Module      string
	Flags       uint64
	Options     Options
	Err         error
}

// Core is the demo runtime. It satisfies rtboot.ExtRuntime and
// rtboot.Versioner.
type Core struct {
	mu     sync.Mutex
	state  State
	base   Options
	logger hclog.Logger

	setAffinity func([]int) error
	lockMemory  func() error
}

// Option configures a Core.
type Option func(*Core)

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Core) {
		c.logger = logger
	}
}

// WithDefaults sets the options applied before parsing arguments.
func WithDefaults(opts Options) Option {
	return func(c *Core) {
		c.base = opts
	}
}

// WithSyscalls replaces the affinity and memory-locking calls.
func WithSyscalls(affinity func([]int) error, lock func() error) Option {
	return func(c *Core) {
		c.setAffinity = affinity
		c.lockMemory = lock
	}
}

// New creates a runtime.
func New(opts ...Option) *Core {
	c := &Core{
		base:        DefaultOptions(),
		logger:      hclog.NewNullLogger(),
		setAffinity: setAffinity,
		lockMemory:  lockMemory,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init initialises the runtime for an executable.
func (c *Core) Init(argc *int, v *argv.Vector) {
	c.InitExt(argc, v, rtboot.Ext{})
}

// InitDSO initialises the runtime from a shared object.
func (c *Core) InitDSO(argc *int, v *argv.Vector) {
	c.InitExt(argc, v, rtboot.Ext{DSO: true})
}

// InitExt consumes runtime options from v and applies them. Only the first
// call has any effect.
func (c *Core) InitExt(argc *int, v *argv.Vector, ext rtboot.Ext) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Initialized {
		c.logger.Debug("runtime already initialized")
		return
	}

	args := *v
	if *argc >= 0 && *argc < len(args) {
		args = args[:*argc]
	}

	opts, rest, err := Parse(c.base, args)
	if err != nil {
		c.logger.Warn("ignoring malformed runtime options", "error", err)
	}

	if len(opts.CPUAffinity) > 0 {
		if serr := c.setAffinity(opts.CPUAffinity); serr != nil {
			c.logger.Warn("cannot set cpu affinity", "cpus", opts.CPUAffinity, "error", serr)
		}
	}
	if opts.Mlock {
		if serr := c.lockMemory(); serr != nil {
			c.logger.Warn("cannot lock memory", "error", serr)
		}
	}
	if opts.DumpConfig {
		c.logger.Info("runtime config",
			"cpu_affinity", opts.CPUAffinity,
			"verbosity", opts.Verbosity,
			"mlock", opts.Mlock,
			"dso", ext.DSO,
			"module", ext.Module,
			"flags", ext.Flags,
		)
	}

	*v = rest
	*argc = len(rest)
	c.state = State{
		Initialized: true,
		DSO:         ext.DSO,
		Module:      ext.Module,
		Flags:       ext.Flags,
		Options:     opts,
		Err:         err,
	}
	c.logger.Debug("runtime initialized", "argc", *argc, "dso", ext.DSO, "module", ext.Module)
}

// State returns a copy of the runtime state.
func (c *Core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Options.CPUAffinity = append([]int(nil), s.Options.CPUAffinity...)
	return s
}

// Version returns the runtime version.
func (c *Core) Version() string {
	return Version
}
