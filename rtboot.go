package rtboot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mrzor/rtboot/internal/argv"
	"github.com/mrzor/rtboot/internal/config"
	"github.com/mrzor/rtboot/internal/dispatch"
	"github.com/mrzor/rtboot/internal/entry"
	"github.com/mrzor/rtboot/internal/otel"
	"github.com/mrzor/rtboot/internal/output"
	"github.com/mrzor/rtboot/internal/procmeta"
	"github.com/mrzor/rtboot/internal/sequencer"
	"github.com/mrzor/rtboot/internal/timesync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Hook priorities.
const (
	MinPriority       = sequencer.MinPriority
	BootstrapPriority = sequencer.BootstrapPriority
	DefaultPriority   = sequencer.DefaultPriority
)

// Entry point names. Overridable at link time, e.g.
// -ldflags "-X github.com/mrzor/rtboot.WrapperName=app_main".
var (
	WrapperName   = "rtboot_main"
	RealName      = "__real_main"
	WeakAliasName = "__wrap_main"
)

// ErrLoaded is returned when changing the bootstrap after Load ran.
var ErrLoaded = errors.New("bootstrap already loaded")

type (
	// Vector is an argument vector, program name first.
	Vector = argv.Vector
	// MainFunc is a program entry point.
	MainFunc = entry.MainFunc
	// HookFunc is a load-time hook.
	HookFunc = sequencer.HookFunc
	// HookResult describes one executed hook.
	HookResult = sequencer.Result
	// Strategy selects how arguments are acquired.
	Strategy = dispatch.Strategy
)

// Acquisition strategies.
const (
	Derive = dispatch.Derive
	Direct = dispatch.Direct
	Auto   = dispatch.Auto
)

// Runtime is the real-time runtime being bootstrapped. Both entry points may
// rewrite argc and the vector in place.
type Runtime interface {
	Init(argc *int, v *Vector)
	InitDSO(argc *int, v *Vector)
}

// Ext carries the extended init parameters.
type Ext struct {
	DSO    bool
	Module string
	Flags  uint64
}

// ExtRuntime is a Runtime with an extended init entry point. It is used
// instead of Init/InitDSO when a module name or init flags are configured.
type ExtRuntime interface {
	Runtime
	InitExt(argc *int, v *Vector, ext Ext)
}

// Versioner is implemented by runtimes that report a version.
type Versioner interface {
	Version() string
}

// VersionInfo formats the runtime version as INFO:version[...].
func VersionInfo(rt Runtime) (string, bool) {
	ver, ok := rt.(Versioner)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("INFO:version[%s]", ver.Version()), true
}

// Bootstrap owns the captured arguments and the load-time hook list.
type Bootstrap struct {
	mu         sync.Mutex
	cfg        *config.EnvConfig
	logger     hclog.Logger
	runtime    Runtime
	strategy   Strategy
	fetcher    dispatch.Fetcher
	supplied   func() []string
	tracer     trace.Tracer
	provider   *sdktrace.TracerProvider
	dispatcher *dispatch.Dispatcher
	results    []HookResult
	loaded     bool

	cell *procmeta.Cell
	seq  *sequencer.Sequencer
}

// Option configures a Bootstrap.
type Option func(*Bootstrap)

// WithConfig replaces the configuration. Strategy and logger derived from
// it can still be overridden by later options.
func WithConfig(cfg *config.EnvConfig) Option {
	return func(b *Bootstrap) {
		if cfg == nil {
			return
		}
		b.cfg = cfg
		if s, err := cfg.ParsedStrategy(); err == nil {
			b.strategy = s
		}
	}
}

// WithRuntime sets the runtime.
func WithRuntime(rt Runtime) Option {
	return func(b *Bootstrap) {
		b.runtime = rt
	}
}

// WithLogger sets the root logger.
func WithLogger(logger hclog.Logger) Option {
	return func(b *Bootstrap) {
		b.logger = logger
	}
}

// WithStrategy sets the acquisition strategy.
func WithStrategy(s Strategy) Option {
	return func(b *Bootstrap) {
		b.strategy = s
	}
}

// WithCmdlinePath reads the command line from path instead of
// /proc/self/cmdline.
func WithCmdlinePath(path string) Option {
	return func(b *Bootstrap) {
		b.fetcher = argv.NewRetriever(append(b.cfg.RetrieverOptions(), argv.WithPath(path))...)
	}
}

// WithSupplied replaces os.Args as the loader-supplied vector.
func WithSupplied(fn func() []string) Option {
	return func(b *Bootstrap) {
		b.supplied = fn
	}
}

// WithTracer records the bootstrap span with tracer. Without it, a tracer
// provider is built from OTEL_* variables when RTBOOT_TRACE is set.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Bootstrap) {
		b.tracer = tracer
	}
}

// New creates a Bootstrap. Without WithConfig the defaults are used and the
// environment is ignored.
func New(opts ...Option) *Bootstrap {
	b := &Bootstrap{
		cfg:      config.Default(),
		strategy: Derive,
		supplied: func() []string { return os.Args },
		cell:     procmeta.NewCell(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if forceDirect {
		b.strategy = Direct
	}
	if b.logger == nil {
		b.logger = newLogger(b.cfg)
	}
	if b.fetcher == nil {
		b.fetcher = argv.NewRetriever(b.cfg.RetrieverOptions()...)
	}

	b.seq = sequencer.New(b.logger.Named("sequencer"))
	// Cannot fail: the sequencer is fresh and the priority in range.
	_ = b.seq.Register("rtboot.dispatch", BootstrapPriority, func(context.Context) error {
		return b.dispatch().Run()
	})
	return b
}

func newLogger(cfg *config.EnvConfig) hclog.Logger {
	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "rtboot",
		Level:  level,
		Output: os.Stderr,
	})
}

// Variant returns the compiled variant, "executable" or "shared-object".
func (b *Bootstrap) Variant() string {
	return Variant
}

// Strategy returns the configured acquisition strategy.
func (b *Bootstrap) Strategy() Strategy {
	return b.strategy
}

// SetRuntime sets the runtime. It must be called before Load.
func (b *Bootstrap) SetRuntime(rt Runtime) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return ErrLoaded
	}
	b.runtime = rt
	return nil
}

// RegisterHook adds a load-time hook. Hooks below BootstrapPriority run
// before arguments are captured.
func (b *Bootstrap) RegisterHook(name string, priority int, fn HookFunc) error {
	return b.seq.Register(name, priority, fn)
}

// dispatch returns the dispatcher, creating it with the runtime set at the
// time of first use.
func (b *Bootstrap) dispatch() *dispatch.Dispatcher {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dispatcher == nil {
		b.dispatcher = dispatch.New(b.initFunc(), b.cell,
			dispatch.WithStrategy(b.strategy),
			dispatch.WithFetcher(b.fetcher),
			dispatch.WithSupplied(b.supplied),
			dispatch.WithLogger(b.logger.Named("dispatch")),
		)
	}
	return b.dispatcher
}

// initFunc selects the runtime entry point for this variant.
func (b *Bootstrap) initFunc() dispatch.InitFunc {
	rt := b.runtime
	if rt == nil {
		return nil
	}
	if ext, ok := rt.(ExtRuntime); ok && b.cfg.Extended() {
		e := Ext{DSO: isDSO, Module: b.cfg.Module, Flags: b.cfg.InitFlags}
		return func(argc *int, v *argv.Vector) {
			ext.InitExt(argc, v, e)
		}
	}
	if isDSO {
		return rt.InitDSO
	}
	return rt.Init
}

// Load runs the load-time hooks once. The returned error reports a failed
// argument capture; it is informational and the program is expected to
// continue. Later calls return nil.
func (b *Bootstrap) Load(ctx context.Context) error {
	b.mu.Lock()
	if b.loaded {
		b.mu.Unlock()
		return nil
	}
	b.loaded = true
	b.mu.Unlock()

	results := b.seq.Run(ctx)
	end := time.Now()

	b.mu.Lock()
	b.results = results
	b.mu.Unlock()

	if err := b.trace(ctx, results, end); err != nil {
		b.logger.Warn("bootstrap tracing disabled", "error", err)
	}

	for _, res := range results {
		if res.Priority == BootstrapPriority && res.Name == "rtboot.dispatch" {
			return res.Err
		}
	}
	return nil
}

// Results returns the hook results of Load.
func (b *Bootstrap) Results() []HookResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]HookResult, len(b.results))
	copy(out, b.results)
	return out
}

// CapturedArgs returns a copy of the captured vector, as left by the
// runtime's init, and whether a capture happened.
func (b *Bootstrap) CapturedArgs() (Vector, bool) {
	return b.cell.Load()
}

// Issues returns non-fatal problems seen while capturing.
func (b *Bootstrap) Issues() []string {
	return b.cell.Issues()
}

// Err returns the last capture error, if any.
func (b *Bootstrap) Err() error {
	return b.cell.Err()
}

// trace records the bootstrap span when tracing is on.
func (b *Bootstrap) trace(ctx context.Context, results []HookResult, end time.Time) error {
	tracer := b.tracer
	if tracer == nil {
		if !b.cfg.Trace {
			return nil
		}
		otelCfg, err := config.ParseOTELConfig()
		if err != nil {
			return err
		}
		tp, err := otel.InitProvider(ctx, otelCfg, b.logger.Named("otel"))
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.provider = tp
		b.mu.Unlock()
		tracer = tp.Tracer("rtboot")
	}

	recorder, err := output.NewSpanRecorder(tracer, b.cfg, b.logger.Named("output"))
	if err != nil {
		return err
	}

	rep := &output.Report{
		Variant:           Variant,
		Strategy:          b.dispatch().Strategy().String(),
		RequestedStrategy: b.strategy.String(),
		Source:            b.cell.Source(),
		Err:               b.cell.Err(),
		Issues:            b.cell.Issues(),
		Hooks:             results,
		Metadata:          b.cell.Metadata(),
		End:               end,
	}
	if args, ok := b.cell.Load(); ok {
		rep.Captured = true
		rep.Args = args
	}

	converter, err := timesync.NewConverter("")
	if err != nil {
		b.logger.Debug("boot time unavailable", "error", err)
	} else if start, err := converter.ProcessStart(); err == nil {
		rep.Start = start
	}

	recorder.Record(ctx, rep)
	return nil
}

// Shutdown flushes the tracer provider built by Load, if any.
func (b *Bootstrap) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	tp := b.provider
	b.provider = nil
	b.mu.Unlock()
	return otel.ShutdownProvider(ctx, tp)
}

var std = newStd()

func newStd() *Bootstrap {
	cfg, err := config.ParseEnvConfig()
	if err != nil {
		cfg = config.Default()
	}
	b := New(WithConfig(cfg))
	if err != nil {
		b.logger.Warn("ignoring invalid environment configuration", "error", err)
	}
	return b
}

// Default returns the process-wide Bootstrap used by the package-level
// functions.
func Default() *Bootstrap {
	return std
}

// SetRuntime sets the runtime of the default Bootstrap.
func SetRuntime(rt Runtime) error {
	return std.SetRuntime(rt)
}

// RegisterHook registers a load-time hook on the default Bootstrap.
func RegisterHook(name string, priority int, fn HookFunc) error {
	return std.RegisterHook(name, priority, fn)
}

// Load runs the default Bootstrap's hooks. Call it from an init function
// of package main.
func Load() error {
	return std.Load(context.Background())
}

// CapturedArgs returns the default Bootstrap's captured vector.
func CapturedArgs() (Vector, bool) {
	return std.CapturedArgs()
}

// Issues returns the default Bootstrap's capture issues.
func Issues() []string {
	return std.Issues()
}

// Shutdown flushes the default Bootstrap's tracer provider.
func Shutdown(ctx context.Context) error {
	return std.Shutdown(ctx)
}
