package rtboot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mrzor/rtboot/internal/config"
)

// stubRuntime consumes "--flag value" the way a runtime consumes its own
// options.
type stubRuntime struct {
	initCalls int
	dsoCalls  int
	seen      Vector
	seenArgc  int
}

func (s *stubRuntime) Init(argc *int, v *Vector) {
	s.initCalls++
	s.strip(argc, v)
}

func (s *stubRuntime) InitDSO(argc *int, v *Vector) {
	s.dsoCalls++
	s.strip(argc, v)
}

func (s *stubRuntime) calls() int {
	return s.initCalls + s.dsoCalls
}

func (s *stubRuntime) strip(argc *int, v *Vector) {
	s.seen = v.Clone()
	s.seenArgc = *argc
	out := Vector{}
	for i := 0; i < *argc; i++ {
		if (*v)[i] == "--flag" && i+1 < *argc {
			i++
			continue
		}
		out = append(out, (*v)[i])
	}
	*v = out
	*argc = len(out)
}

type extRuntime struct {
	stubRuntime
	extCalls int
	ext      Ext
}

func (e *extRuntime) InitExt(argc *int, v *Vector, ext Ext) {
	e.extCalls++
	e.ext = ext
	e.strip(argc, v)
}

type versionedRuntime struct {
	stubRuntime
}

func (versionedRuntime) Version() string { return "3.2.1" }

// writeCmdline writes args in /proc/<pid>/cmdline format and returns the path.
func writeCmdline(t *testing.T, args ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cmdline")
	data := ""
	if len(args) > 0 {
		data = strings.Join(args, "\x00") + "\x00"
	}
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func missingCmdline(t *testing.T) string {
	return filepath.Join(t.TempDir(), "does-not-exist")
}

func supplied(args ...string) Option {
	return WithSupplied(func() []string { return args })
}

func newTestBootstrap(t *testing.T, opts ...Option) *Bootstrap {
	t.Helper()
	base := []Option{
		WithConfig(config.Default()),
		WithLogger(hclog.NewNullLogger()),
	}
	return New(append(base, opts...)...)
}

func skipIfForcedDirect(t *testing.T) {
	t.Helper()
	if forceDirect {
		t.Skip("built with rtboot_direct")
	}
}
