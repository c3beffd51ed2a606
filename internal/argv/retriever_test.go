//go:build unix

package argv

import (
	"bytes"
	"math"
	"math/bits"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCmdline(t *testing.T, args ...string) string {
	t.Helper()

	var buf bytes.Buffer
	for _, arg := range args {
		buf.WriteString(arg)
		buf.WriteByte(0)
	}

	path := filepath.Join(t.TempDir(), "cmdline")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// maxReads is the read count needed for a file of length l when starting at
// DefaultInitialSize: one read per doubling until a read comes back short.
func maxReads(l int) int {
	if l < DefaultInitialSize {
		return 1
	}
	return bits.Len(uint(l/DefaultInitialSize)) + 1
}

func TestRetriever_FetchArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: nil},
		{name: "program only", args: []string{"prog"}},
		{name: "flags", args: []string{"prog", "--flag", "value"}},
		{name: "empty argument", args: []string{"prog", "", "x"}},
		{name: "long argument", args: []string{"prog", strings.Repeat("a", 10_000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetriever(WithPath(writeCmdline(t, tt.args...)))

			v, err := r.Fetch()
			require.NoError(t, err)
			require.Len(t, v, len(tt.args))
			for i, arg := range tt.args {
				assert.Equal(t, arg, v[i])
			}

			ptrs := v.Terminated()
			assert.Len(t, ptrs, len(tt.args)+1)
			assert.Nil(t, ptrs[len(tt.args)])
		})
	}
}

func TestRetriever_NoTrailingNUL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmdline")
	require.NoError(t, os.WriteFile(path, []byte("prog\x00last"), 0o600))

	v, err := NewRetriever(WithPath(path)).Fetch()
	require.NoError(t, err)
	assert.Equal(t, Vector{"prog", "last"}, v)
}

func TestRetriever_GrowthConverges(t *testing.T) {
	for _, length := range []int{0, 1, 1023, 1024, 1025, 2048, 4096, 5000, 100_000, 1 << 20} {
		data := bytes.Repeat([]byte{'x'}, length)
		path := filepath.Join(t.TempDir(), "cmdline")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		r := NewRetriever(WithPath(path))
		buf, reads, err := r.readCmdline()
		require.NoError(t, err, "length %d", length)
		assert.Len(t, buf, length)
		assert.LessOrEqual(t, reads, maxReads(length), "length %d", length)
		assert.GreaterOrEqual(t, reads, 1)
	}
}

func TestRetriever_ExactBufferMultipleTerminates(t *testing.T) {
	// Content that exactly fills every buffer size tried until the last one.
	path := filepath.Join(t.TempDir(), "cmdline")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0}, 4*DefaultInitialSize), 0o600))

	buf, reads, err := NewRetriever(WithPath(path)).readCmdline()
	require.NoError(t, err)
	assert.Len(t, buf, 4*DefaultInitialSize)
	assert.Equal(t, 4, reads)
}

func TestRetriever_OpenFailure(t *testing.T) {
	r := NewRetriever(WithPath(filepath.Join(t.TempDir(), "missing")))

	v, err := r.Fetch()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAcquisition)
	assert.NotErrorIs(t, err, ErrAllocation)
	assert.Nil(t, v)
}

func TestRetriever_ReadFailure(t *testing.T) {
	// Opening a directory read-only succeeds, reading it fails with EISDIR.
	r := NewRetriever(WithPath(t.TempDir()))

	v, err := r.Fetch()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAcquisition)
	assert.Contains(t, err.Error(), "reading")
	assert.Nil(t, v)
}

func TestRetriever_AllocationLimit(t *testing.T) {
	path := writeCmdline(t, "prog", strings.Repeat("a", 5000))
	r := NewRetriever(WithPath(path), WithBufferSizes(1024, 4096))

	v, err := r.Fetch()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllocation)
	assert.NotErrorIs(t, err, ErrAcquisition)
	assert.Nil(t, v)
}

func TestRetriever_InitialAboveLimit(t *testing.T) {
	r := NewRetriever(WithBufferSizes(8192, 4096))

	_, err := r.Fetch()
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestRetriever_OversizedBuffersClamped(t *testing.T) {
	path := writeCmdline(t, "prog", "-x")

	r := NewRetriever(WithPath(path), WithBufferSizes(math.MaxInt, math.MaxInt))
	_, err := r.Fetch()
	assert.ErrorIs(t, err, ErrAllocation)

	r = NewRetriever(WithPath(path), WithBufferSizes(DefaultInitialSize, math.MaxInt))
	v, err := r.Fetch()
	require.NoError(t, err)
	assert.Equal(t, Vector{"prog", "-x"}, v)
}

func TestRetriever_SelfCmdline(t *testing.T) {
	if _, err := os.Stat(DefaultPath); err != nil {
		t.Skipf("%s not available: %v", DefaultPath, err)
	}

	v, err := NewRetriever().Fetch()
	require.NoError(t, err)
	require.NotEmpty(t, v, "expected at least the program name")
	assert.Equal(t, Vector(os.Args), v)
}

func TestNewRetriever_Defaults(t *testing.T) {
	r := NewRetriever(WithPath(""), WithBufferSizes(0, -1))
	assert.Equal(t, DefaultPath, r.Path)
	assert.Equal(t, DefaultInitialSize, r.InitialSize)
	assert.Equal(t, DefaultMaxSize, r.MaxSize)
}
