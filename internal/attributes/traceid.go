package attributes

import (
	"crypto/sha256"
	"fmt"

	"github.com/expr-lang/expr/vm"
	"github.com/mrzor/rtboot/internal/procmeta"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDEvaluator derives the bootstrap trace ID from an expression.
type TraceIDEvaluator struct {
	program *vm.Program
}

// NewTraceIDEvaluator compiles source. An empty source yields an evaluator
// that always returns the zero trace ID.
func NewTraceIDEvaluator(source string) (*TraceIDEvaluator, error) {
	if source == "" {
		return &TraceIDEvaluator{}, nil
	}
	program, err := compile("trace-id", source)
	if err != nil {
		return nil, err
	}
	return &TraceIDEvaluator{program: program}, nil
}

// Configured reports whether an expression was given.
func (e *TraceIDEvaluator) Configured() bool {
	return e.program != nil
}

// Evaluate returns the trace ID and any warning attributes. The zero trace
// ID means "let the SDK pick one".
func (e *TraceIDEvaluator) Evaluate(metadata *procmeta.ProcessMetadata) (trace.TraceID, []attribute.KeyValue, error) {
	if e.program == nil {
		return trace.TraceID{}, nil, nil
	}

	result, err := runString(e.program, metadata)
	if err != nil {
		return trace.TraceID{}, nil, fmt.Errorf("failed to evaluate trace-id expression: %w", err)
	}

	if len(result) == 32 {
		if id, err := trace.TraceIDFromHex(result); err == nil {
			return id, nil, nil
		}
	}

	sum := sha256.Sum256([]byte(result))
	var id trace.TraceID
	copy(id[:], sum[:16])

	return id, []attribute.KeyValue{
		attribute.String("rtboot.trace_id.expr_result", result),
		attribute.String("rtboot.trace_id.warning",
			fmt.Sprintf("expression result %q is not a 32-char hex trace ID, used SHA-256 prefix", result)),
	}, nil
}

// ParentIDEvaluator derives the bootstrap parent span ID from an expression.
type ParentIDEvaluator struct {
	program *vm.Program
}

// NewParentIDEvaluator compiles source. An empty source means no parent.
func NewParentIDEvaluator(source string) (*ParentIDEvaluator, error) {
	if source == "" {
		return &ParentIDEvaluator{}, nil
	}
	program, err := compile("parent-id", source)
	if err != nil {
		return nil, err
	}
	return &ParentIDEvaluator{program: program}, nil
}

// Configured reports whether an expression was given.
func (e *ParentIDEvaluator) Configured() bool {
	return e.program != nil
}

// Evaluate returns the parent span ID and any warning attributes. Invalid
// results produce the zero span ID.
func (e *ParentIDEvaluator) Evaluate(metadata *procmeta.ProcessMetadata) (trace.SpanID, []attribute.KeyValue, error) {
	if e.program == nil {
		return trace.SpanID{}, nil, nil
	}

	result, err := runString(e.program, metadata)
	if err != nil {
		return trace.SpanID{}, nil, fmt.Errorf("failed to evaluate parent-id expression: %w", err)
	}

	if len(result) == 16 {
		if id, err := trace.SpanIDFromHex(result); err == nil {
			return id, nil, nil
		}
	}

	return trace.SpanID{}, []attribute.KeyValue{
		attribute.String("rtboot.parent_id.expr_result", result),
		attribute.String("rtboot.parent_id.warning",
			fmt.Sprintf("expression result %q is not a 16-char hex span ID, no parent used", result)),
	}, nil
}
