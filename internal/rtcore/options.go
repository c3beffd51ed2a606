package rtcore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrzor/rtboot/internal/argv"
)

// Prefix marks runtime options.
const Prefix = "--rt-"

// ErrOption is returned for a malformed runtime option value.
var ErrOption = errors.New("invalid runtime option")

// Options are the settings carried by --rt-* arguments.
type Options struct {
	CPUAffinity []int
	Verbosity   int
	Mlock       bool
	DumpConfig  bool
}

// DefaultOptions returns the settings used when no option is given.
func DefaultOptions() Options {
	return Options{Verbosity: 1}
}

// Parse removes recognised runtime options from v and applies them on top
// of base. The returned vector keeps program arguments in order. Malformed
// values are collected into the returned error; the offending argument is
// still removed.
func Parse(base Options, v argv.Vector) (Options, argv.Vector, error) {
	opts := base
	rest := make(argv.Vector, 0, len(v))
	var errs []error

	for i, arg := range v {
		if i == 0 {
			rest = append(rest, arg)
			continue
		}
		if arg == "--" {
			rest = append(rest, v[i:]...)
			break
		}

		option, ok := strings.CutPrefix(arg, Prefix)
		if !ok {
			rest = append(rest, arg)
			continue
		}
		name, value, hasValue := strings.Cut(option, "=")

		switch name {
		case "cpu-affinity":
			cpus, err := parseCPUList(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s: %w", ErrOption, arg, err))
				continue
			}
			opts.CPUAffinity = cpus
		case "verbose":
			if !hasValue {
				opts.Verbosity = 1
				continue
			}
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				errs = append(errs, fmt.Errorf("%w: %s", ErrOption, arg))
				continue
			}
			opts.Verbosity = n
		case "quiet":
			opts.Verbosity = 0
		case "mlock":
			opts.Mlock = true
		case "dump-config":
			opts.DumpConfig = true
		default:
			rest = append(rest, arg)
		}
	}

	return opts, rest, errors.Join(errs...)
}

// parseCPUList accepts "0,2,4-6".
func parseCPUList(s string) ([]int, error) {
	if s == "" {
		return nil, errors.New("empty cpu list")
	}

	var cpus []int
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil || first < 0 {
			return nil, fmt.Errorf("bad cpu %q", part)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(hi)
			if err != nil || last < first {
				return nil, fmt.Errorf("bad cpu range %q", part)
			}
		}
		for cpu := first; cpu <= last; cpu++ {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}
