package attributes

import (
	"testing"

	"github.com/mrzor/rtboot/internal/config"
	"github.com/mrzor/rtboot/internal/procmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func testMetadata() *procmeta.ProcessMetadata {
	return &procmeta.ProcessMetadata{
		Environ:     map[string]string{"FOO": "bar", "BAZ": "qux"},
		Args:        []string{"prog", "--flag", "value"},
		CmdlineFull: "prog --flag value",
	}
}

func TestEvaluator_Simple(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "test.attr", Expression: `env["FOO"]`},
		{Name: "arg.first", Expression: `args[0]`},
		{Name: "arg.count", Expression: `argc`},
		{Name: "cmd", Expression: `cmdline`},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, evaluator.Len())

	got := evaluator.Evaluate(testMetadata())
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("test.attr", "bar"),
		attribute.String("arg.first", "prog"),
		attribute.String("arg.count", "3"),
		attribute.String("cmd", "prog --flag value"),
	}, got)
}

func TestEvaluator_MapExpansion(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "expanded", Expression: `env`},
	}, nil)
	require.NoError(t, err)

	got := evaluator.Evaluate(testMetadata())
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("expanded.BAZ", "qux"),
		attribute.String("expanded.FOO", "bar"),
	}, got)
}

func TestEvaluator_MapExpansionSanitizesKeys(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "m", Expression: `{"a-b": 1, "c.d": [1, 2]}`},
	}, nil)
	require.NoError(t, err)

	got := evaluator.Evaluate(testMetadata())
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("m.a_b", "1"),
		attribute.String("m.c_d", "[1 2]"),
	}, got)
}

func TestSanitizeAttributeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"with-dash", "with_dash"},
		{"with.dot", "with_dot"},
		{"with space", "with_space"},
		{"special!@#$%", "special_____"},
		{"mixed-123.test", "mixed_123_test"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeAttributeName(tt.input))
		})
	}
}

func TestEvaluator_CompileError(t *testing.T) {
	_, err := NewEvaluator([]config.CustomAttribute{
		{Name: "good", Expression: `env["EXISTS"]`},
		{Name: "bad", Expression: `invalid_function()`},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `attribute bad`)
}

func TestEvaluator_RuntimeErrorSkipped(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "out_of_range", Expression: `args[10]`},
		{Name: "ok", Expression: `args[0]`},
	}, nil)
	require.NoError(t, err)

	got := evaluator.Evaluate(testMetadata())
	assert.Equal(t, []attribute.KeyValue{attribute.String("ok", "prog")}, got)
}

func TestEvaluator_MissingKey(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "missing", Expression: `env["MISSING"]`},
	}, nil)
	require.NoError(t, err)

	got := evaluator.Evaluate(testMetadata())
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Value.AsString())
}

func TestEvaluator_NilMetadata(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "test", Expression: `env["FOO"]`},
	}, nil)
	require.NoError(t, err)

	assert.Nil(t, evaluator.Evaluate(nil))
}

func TestEvaluator_Empty(t *testing.T) {
	evaluator, err := NewEvaluator(nil, nil)
	require.NoError(t, err)

	assert.Zero(t, evaluator.Len())
	assert.Nil(t, evaluator.Evaluate(testMetadata()))
}
