package dispatch

import (
	"errors"
	"testing"

	"github.com/mrzor/rtboot/internal/argv"
	"github.com/mrzor/rtboot/internal/procmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	v     argv.Vector
	err   error
	calls int
}

func (f *fakeFetcher) Fetch() (argv.Vector, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.v.Clone(), nil
}

type initRecorder struct {
	calls    int
	observed []argv.Vector
	rewrite  func(argc *int, v *argv.Vector)
}

func (r *initRecorder) init(argc *int, v *argv.Vector) {
	r.calls++
	r.observed = append(r.observed, (*v)[:*argc].Clone())
	if r.rewrite != nil {
		r.rewrite(argc, v)
	}
}

// stripFlag removes "--flag value" the way a runtime consumes its own options.
func stripFlag(argc *int, v *argv.Vector) {
	out := (*v)[:0]
	for i := 0; i < *argc; i++ {
		if (*v)[i] == "--flag" {
			i++
			continue
		}
		out = append(out, (*v)[i])
	}
	*v = out
	*argc = len(out)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{in: "", want: Derive},
		{in: "derive", want: Derive},
		{in: "DIRECT", want: Direct},
		{in: " auto ", want: Auto},
		{in: "glibc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid strategy")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "derive", Derive.String())
	assert.Equal(t, "direct", Direct.String())
	assert.Equal(t, "auto", Auto.String())
	assert.Equal(t, "strategy(42)", Strategy(42).String())
}

func TestDispatcher_DeriveRewritesAndRecords(t *testing.T) {
	cell := procmeta.NewCell()
	fetcher := &fakeFetcher{v: argv.Vector{"prog", "--flag", "value"}}
	rec := &initRecorder{rewrite: stripFlag}

	d := New(rec.init, cell, WithFetcher(fetcher))
	require.NoError(t, d.Run())

	require.Equal(t, 1, rec.calls)
	assert.Equal(t, argv.Vector{"prog", "--flag", "value"}, rec.observed[0])
	assert.Equal(t, 1, fetcher.calls)

	got, ok := cell.Load()
	require.True(t, ok)
	assert.Equal(t, argv.Vector{"prog"}, got)
	assert.Equal(t, "derive", cell.Source())
	assert.True(t, d.InitCalled())
}

func TestDispatcher_DirectNeverFetches(t *testing.T) {
	cell := procmeta.NewCell()
	fetcher := &fakeFetcher{err: errors.New("must not be called")}
	rec := &initRecorder{}

	d := New(rec.init, cell,
		WithStrategy(Direct),
		WithFetcher(fetcher),
		WithSupplied(func() []string { return []string{"prog", "a"} }),
	)
	require.NoError(t, d.Run())

	assert.Equal(t, 0, fetcher.calls)
	require.Equal(t, 1, rec.calls)
	got, ok := cell.Load()
	require.True(t, ok)
	assert.Equal(t, argv.Vector{"prog", "a"}, got)
	assert.Equal(t, "direct", cell.Source())
}

func TestDispatcher_DirectDoesNotAliasSupplied(t *testing.T) {
	supplied := []string{"prog", "--flag", "value"}
	d := New(stripFlag, procmeta.NewCell(),
		WithStrategy(Direct),
		WithSupplied(func() []string { return supplied }),
	)
	require.NoError(t, d.Run())

	assert.Equal(t, []string{"prog", "--flag", "value"}, supplied)
}

func TestDispatcher_DirectEmptySupplied(t *testing.T) {
	cell := procmeta.NewCell()
	rec := &initRecorder{}

	d := New(rec.init, cell,
		WithStrategy(Direct),
		WithSupplied(func() []string { return nil }),
	)
	require.NoError(t, d.Run())

	got, ok := cell.Load()
	require.True(t, ok)
	assert.Empty(t, got)
	assert.Equal(t, 1, rec.calls)
}

func TestDispatcher_AutoResolution(t *testing.T) {
	withArgs := New(nil, procmeta.NewCell(),
		WithStrategy(Auto),
		WithSupplied(func() []string { return []string{"prog"} }),
	)
	assert.Equal(t, Direct, withArgs.Strategy())

	withoutArgs := New(nil, procmeta.NewCell(),
		WithStrategy(Auto),
		WithSupplied(func() []string { return nil }),
	)
	assert.Equal(t, Derive, withoutArgs.Strategy())
}

func TestDispatcher_DeriveFailureIsNonFatal(t *testing.T) {
	cell := procmeta.NewCell()
	fetcher := &fakeFetcher{err: argv.ErrAcquisition}
	rec := &initRecorder{}

	d := New(rec.init, cell, WithFetcher(fetcher))
	err := d.Run()

	require.Error(t, err)
	assert.ErrorIs(t, err, argv.ErrAcquisition)
	assert.Equal(t, 0, rec.calls, "init must not be called without arguments")
	assert.False(t, cell.Captured())
	assert.ErrorIs(t, cell.Err(), argv.ErrAcquisition)
	assert.False(t, d.InitCalled())
}

func TestDispatcher_InitCalledOnce(t *testing.T) {
	cell := procmeta.NewCell()
	fetcher := &fakeFetcher{v: argv.Vector{"prog"}}
	rec := &initRecorder{}

	d := New(rec.init, cell, WithFetcher(fetcher))
	require.NoError(t, d.Run())
	require.NoError(t, d.Run())
	require.NoError(t, d.Fallback())

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 1, fetcher.calls)
}

func TestDispatcher_TwoDispatchersShareCell(t *testing.T) {
	cell := procmeta.NewCell()
	exe := &initRecorder{}
	dso := &initRecorder{}

	first := New(exe.init, cell, WithFetcher(&fakeFetcher{v: argv.Vector{"prog", "1"}}))
	second := New(dso.init, cell, WithFetcher(&fakeFetcher{v: argv.Vector{"prog", "2"}}))

	require.NoError(t, first.Run())
	require.NoError(t, second.Run())

	assert.Equal(t, 1, exe.calls)
	assert.Equal(t, 0, dso.calls)
	got, _ := cell.Load()
	assert.Equal(t, argv.Vector{"prog", "1"}, got)
}

func TestDispatcher_FallbackAfterFailure(t *testing.T) {
	cell := procmeta.NewCell()
	fetcher := &fakeFetcher{err: argv.ErrAcquisition}
	rec := &initRecorder{}
	d := New(rec.init, cell, WithFetcher(fetcher))

	require.Error(t, d.Run())

	fetcher.err = nil
	fetcher.v = argv.Vector{"prog"}
	require.NoError(t, d.Fallback())

	assert.Equal(t, 1, rec.calls)
	assert.True(t, cell.Captured())
}

func TestDispatcher_NilInitCapturesOnly(t *testing.T) {
	cell := procmeta.NewCell()
	d := New(nil, cell, WithFetcher(&fakeFetcher{v: argv.Vector{"prog", "x"}}))

	require.NoError(t, d.Run())

	got, ok := cell.Load()
	require.True(t, ok)
	assert.Equal(t, argv.Vector{"prog", "x"}, got)
	assert.False(t, d.InitCalled())
}

func TestDispatcher_ArgcClamped(t *testing.T) {
	tests := []struct {
		name    string
		rewrite func(argc *int, v *argv.Vector)
		want    argv.Vector
	}{
		{
			name:    "argc beyond vector",
			rewrite: func(argc *int, _ *argv.Vector) { *argc = 10 },
			want:    argv.Vector{"prog", "a"},
		},
		{
			name:    "negative argc",
			rewrite: func(argc *int, _ *argv.Vector) { *argc = -1 },
			want:    argv.Vector{},
		},
		{
			name:    "argc shrunk without touching vector",
			rewrite: func(argc *int, _ *argv.Vector) { *argc = 1 },
			want:    argv.Vector{"prog"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := procmeta.NewCell()
			d := New(tt.rewrite, cell, WithFetcher(&fakeFetcher{v: argv.Vector{"prog", "a"}}))
			require.NoError(t, d.Run())

			got, ok := cell.Load()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatcher_ClampAddsIssue(t *testing.T) {
	cell := procmeta.NewCell()
	d := New(func(argc *int, _ *argv.Vector) { *argc = 5 }, cell,
		WithFetcher(&fakeFetcher{v: argv.Vector{"prog"}}))
	require.NoError(t, d.Run())

	issues := cell.Issues()
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "clamped")
}
