package entry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mrzor/rtboot/internal/argv"
)

var (
	// ErrUndefined is returned when resolving an unknown name.
	ErrUndefined = errors.New("undefined entry point")
	// ErrDuplicate is returned when a name gets a second strong definition.
	ErrDuplicate = errors.New("duplicate entry point definition")
)

// Names configures the interposition symbols.
type Names struct {
	Wrapper   string // name the loader calls
	Real      string // fixed alternate name of the real entry point
	WeakAlias string // optional backward-compatible alias of the wrapper
}

// DefaultNames returns the default symbol names.
func DefaultNames() Names {
	return Names{
		Wrapper:   "rtboot_main",
		Real:      "__real_main",
		WeakAlias: "__wrap_main",
	}
}

type symbol struct {
	fn   MainFunc
	weak bool
}

// Table maps entry point names to functions.
type Table struct {
	mu      sync.RWMutex
	names   Names
	symbols map[string]symbol
}

// NewTable defines realMain under names.Real, the wrapper under
// names.Wrapper and, if set, a weak alias of the wrapper under names.WeakAlias.
func NewTable(names Names, wrapper, realMain MainFunc) (*Table, error) {
	if names.Wrapper == "" || names.Real == "" {
		return nil, fmt.Errorf("wrapper and real entry names are required")
	}
	if names.Wrapper == names.Real {
		return nil, fmt.Errorf("%w: %q used for wrapper and real entry", ErrDuplicate, names.Wrapper)
	}

	t := &Table{names: names, symbols: make(map[string]symbol)}
	if err := t.Define(names.Real, realMain); err != nil {
		return nil, err
	}
	if err := t.Define(names.Wrapper, wrapper); err != nil {
		return nil, err
	}
	if names.WeakAlias != "" {
		if err := t.define(names.WeakAlias, wrapper, true); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Names returns the configured names.
func (t *Table) Names() Names {
	return t.names
}

// Define adds a strong definition. It overrides a weak one and conflicts
// with an existing strong one.
func (t *Table) Define(name string, fn MainFunc) error {
	return t.define(name, fn, false)
}

func (t *Table) define(name string, fn MainFunc, weak bool) error {
	if fn == nil {
		return fmt.Errorf("entry point %q has no function", name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.symbols[name]; ok {
		switch {
		case !existing.weak && !weak:
			return fmt.Errorf("%w: %q", ErrDuplicate, name)
		case !existing.weak && weak:
			return nil
		}
	}
	t.symbols[name] = symbol{fn: fn, weak: weak}
	return nil
}

// Resolve looks up name.
func (t *Table) Resolve(name string) (MainFunc, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym, ok := t.symbols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUndefined, name)
	}
	return sym.fn, nil
}

// Weak reports whether name is bound to a weak definition.
func (t *Table) Weak(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.symbols[name].weak
}

// Symbols returns the defined names, sorted.
func (t *Table) Symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Call resolves name and invokes it.
func (t *Table) Call(name string, argc int, v argv.Vector) (int, error) {
	fn, err := t.Resolve(name)
	if err != nil {
		return 0, err
	}
	return fn(argc, v), nil
}
