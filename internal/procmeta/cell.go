package procmeta

import (
	"errors"
	"os"
	"sync"

	"github.com/mrzor/rtboot/internal/argv"
)

// ErrAlreadyCaptured is returned when a vector was already recorded.
// It is informational: the stored vector is left untouched.
var ErrAlreadyCaptured = errors.New("argument vector already captured")

// Cell is the process-wide bootstrap state.
type Cell struct {
	capture sync.Mutex

	mu       sync.RWMutex
	captured bool
	args     argv.Vector
	source   string
	err      error
	issues   []string
}

// NewCell creates an empty, uncaptured cell.
func NewCell() *Cell {
	return &Cell{}
}

// Load returns a copy of the captured vector (query).
// The boolean is false if nothing was recorded yet.
func (c *Cell) Load() (argv.Vector, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.captured {
		return nil, false
	}
	return c.args.Clone(), true
}

// Captured reports whether a vector was recorded (query).
func (c *Cell) Captured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.captured
}

// Source returns the name of the strategy that captured the vector (query).
func (c *Cell) Source() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

// Err returns the last acquisition error (query).
func (c *Cell) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Issues returns the capture warnings (query).
func (c *Cell) Issues() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.issues == nil {
		return nil
	}
	out := make([]string, len(c.issues))
	copy(out, c.issues)
	return out
}

// Metadata returns a snapshot of the captured vector and the current
// environment (query). Returns nil when nothing was captured.
func (c *Cell) Metadata() *ProcessMetadata {
	v, ok := c.Load()
	if !ok {
		return nil
	}
	return NewProcessMetadata(v, os.Environ())
}

// Record stores v and marks the cell captured (command).
// Only the first call has an effect; later calls return ErrAlreadyCaptured.
func (c *Cell) Record(v argv.Vector) error {
	return c.record(v, "")
}

func (c *Cell) record(v argv.Vector, source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.captured {
		return ErrAlreadyCaptured
	}
	c.args = v.Clone()
	if c.args == nil {
		c.args = argv.Vector{}
	}
	c.source = source
	c.captured = true
	c.err = nil
	return nil
}

// SetError stores an acquisition error (command).
func (c *Cell) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// AddIssue adds a capture warning (command).
func (c *Cell) AddIssue(issue string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = append(c.issues, issue)
}

// Capture runs fn and records its vector under source, unless the cell is
// already captured, in which case fn is not called and ErrAlreadyCaptured is
// returned (command). Concurrent Capture calls are serialised, so fn runs at
// most once successfully per cell. An error from fn is stored and returned;
// the cell stays uncaptured.
func (c *Cell) Capture(source string, fn func() (argv.Vector, error)) (argv.Vector, error) {
	c.capture.Lock()
	defer c.capture.Unlock()

	if v, ok := c.Load(); ok {
		return v, ErrAlreadyCaptured
	}

	v, err := fn()
	if err != nil {
		c.SetError(err)
		return nil, err
	}

	if err := c.record(v, source); err != nil {
		// Record without Capture raced us.
		stored, _ := c.Load()
		return stored, err
	}
	return v.Clone(), nil
}
