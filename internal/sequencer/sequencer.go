package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// MinPriority is the lowest priority available to hooks.
	MinPriority = 101
	// BootstrapPriority is the slot of the argument dispatcher.
	BootstrapPriority = 220
	// DefaultPriority is used by hooks that have no ordering requirement.
	DefaultPriority = 65535
)

var (
	// ErrSealed is returned when registering after Run.
	ErrSealed = errors.New("sequencer already ran")
	// ErrPriority is returned for priorities outside MinPriority..DefaultPriority.
	ErrPriority = errors.New("hook priority out of range")
)

// HookFunc is a load-time hook.
type HookFunc func(ctx context.Context) error

type hook struct {
	name     string
	priority int
	seq      int
	fn       HookFunc
}

// Result describes one executed hook.
type Result struct {
	Name     string
	Priority int
	Start    time.Time
	Duration time.Duration
	Err      error
}

// Sequencer holds the ordered hook list.
type Sequencer struct {
	mu     sync.Mutex
	hooks  []hook
	sealed bool
	once   sync.Once
	logger hclog.Logger
}

// New creates an empty Sequencer.
func New(logger hclog.Logger) *Sequencer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Sequencer{logger: logger}
}

// SetLogger replaces the logger. Hooks may be registered before logging is
// configured, so the logger is swappable until Run.
func (s *Sequencer) SetLogger(logger hclog.Logger) {
	if logger == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Register adds a hook. Hooks with equal priority run in registration order.
func (s *Sequencer) Register(name string, priority int, fn HookFunc) error {
	if priority < MinPriority || priority > DefaultPriority {
		return fmt.Errorf("%w: %q has priority %d", ErrPriority, name, priority)
	}
	if fn == nil {
		return fmt.Errorf("hook %q has no function", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return fmt.Errorf("%w: cannot register %q", ErrSealed, name)
	}
	s.hooks = append(s.hooks, hook{name: name, priority: priority, seq: len(s.hooks), fn: fn})
	return nil
}

// Len returns the number of registered hooks.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}

// Sealed reports whether Run was called.
func (s *Sequencer) Sealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealed
}

// Run executes every hook once. Hook errors are logged and reported in the
// results; they never stop the sequence. Calls after the first return nil.
func (s *Sequencer) Run(ctx context.Context) []Result {
	var results []Result
	s.once.Do(func() {
		results = s.run(ctx)
	})
	return results
}

func (s *Sequencer) run(ctx context.Context) []Result {
	s.mu.Lock()
	s.sealed = true
	hooks := make([]hook, len(s.hooks))
	copy(hooks, s.hooks)
	logger := s.logger
	s.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool {
		if hooks[i].priority != hooks[j].priority {
			return hooks[i].priority < hooks[j].priority
		}
		return hooks[i].seq < hooks[j].seq
	})

	results := make([]Result, 0, len(hooks))
	for _, h := range hooks {
		res := Result{Name: h.name, Priority: h.priority, Start: time.Now()}
		logger.Trace("running hook", "name", h.name, "priority", h.priority)

		res.Err = s.call(ctx, h)
		res.Duration = time.Since(res.Start)
		if res.Err != nil {
			logger.Warn("hook failed", "name", h.name, "priority", h.priority, "error", res.Err)
		}
		results = append(results, res)
	}

	return results
}

// call runs a hook, turning a panic into an error so that one broken hook
// does not take the process down before main.
func (s *Sequencer) call(ctx context.Context, h hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook %q panicked: %v", h.name, r)
		}
	}()
	return h.fn(ctx)
}
