package argv

import (
	"errors"
	"fmt"
)

const (
	// DefaultPath is the kernel's view of the calling process command line.
	DefaultPath = "/proc/self/cmdline"
	// DefaultInitialSize is the first buffer size tried.
	DefaultInitialSize = 1024
	// DefaultMaxSize bounds buffer growth. Linux caps argv+envp well below this.
	DefaultMaxSize = 64 << 20
)

var (
	// ErrAcquisition reports that the pseudo-file could not be opened or read.
	ErrAcquisition = errors.New("command line acquisition failed")
	// ErrAllocation reports that the command line outgrew the buffer limit.
	ErrAllocation = errors.New("command line buffer allocation failed")
)

// Retriever reads an argument vector from a NUL-separated pseudo-file.
type Retriever struct {
	Path        string
	InitialSize int
	MaxSize     int
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithPath overrides the pseudo-file path.
func WithPath(path string) Option {
	return func(r *Retriever) {
		if path != "" {
			r.Path = path
		}
	}
}

// WithBufferSizes overrides the initial and maximum buffer sizes.
// Non-positive values keep the defaults.
func WithBufferSizes(initial, limit int) Option {
	return func(r *Retriever) {
		if initial > 0 {
			r.InitialSize = initial
		}
		if limit > 0 {
			r.MaxSize = limit
		}
	}
}

// NewRetriever creates a Retriever reading /proc/self/cmdline.
func NewRetriever(opts ...Option) *Retriever {
	r := &Retriever{
		Path:        DefaultPath,
		InitialSize: DefaultInitialSize,
		MaxSize:     DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch reads the pseudo-file and splits it into a Vector.
// Errors wrap ErrAcquisition or ErrAllocation.
func (r *Retriever) Fetch() (Vector, error) {
	buf, _, err := r.readCmdline()
	if err != nil {
		return nil, err
	}
	return Split(buf), nil
}

// readCmdline returns the full pseudo-file contents and the number of reads
// it took. A read that fills the buffer may have been truncated, so the
// buffer is doubled and the file reopened until a read comes back short.
func (r *Retriever) readCmdline() ([]byte, int, error) {
	path := r.Path
	if path == "" {
		path = DefaultPath
	}
	size := r.InitialSize
	if size <= 0 {
		size = DefaultInitialSize
	}
	limit := r.MaxSize
	if limit <= 0 || limit > DefaultMaxSize {
		limit = DefaultMaxSize
	}
	if size > limit {
		return nil, 0, fmt.Errorf("%w: initial size %d exceeds limit %d", ErrAllocation, size, limit)
	}

	for reads := 1; ; reads++ {
		buf, n, err := readOnce(path, size)
		if err != nil {
			return nil, reads, err
		}

		if n < size {
			return buf[:n], reads, nil
		}

		if size > limit/2 {
			return nil, reads, fmt.Errorf("%w: %s does not fit in %d bytes", ErrAllocation, path, limit)
		}
		size <<= 1
	}
}
