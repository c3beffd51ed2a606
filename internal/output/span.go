package output

import (
	"context"
	"crypto/sha256"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mrzor/rtboot/internal/attributes"
	"github.com/mrzor/rtboot/internal/config"
	"github.com/mrzor/rtboot/internal/procmeta"
	"github.com/mrzor/rtboot/internal/sequencer"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// SpanName is the name of the top-level bootstrap span.
const SpanName = "rtboot.bootstrap"

// Span attribute keys.
const (
	AttrVariant  = attribute.Key("rtboot.variant")
	AttrStrategy = attribute.Key("rtboot.strategy")
	AttrCaptured = attribute.Key("rtboot.captured")
	AttrSource   = attribute.Key("rtboot.source")
	AttrArgc     = attribute.Key("rtboot.argc")
	AttrIssues   = attribute.Key("rtboot.issues")
	AttrPriority = attribute.Key("rtboot.hook.priority")

	// AttrRequestedStrategy is set when the configured strategy was resolved
	// to a different one, as auto is.
	AttrRequestedStrategy = attribute.Key("rtboot.strategy.requested")
)

// Report is everything known about one bootstrap when it finishes.
type Report struct {
	Variant string
	// Strategy is the strategy the dispatcher ran with.
	Strategy string
	// RequestedStrategy is the configured one, before auto resolution.
	RequestedStrategy string
	Captured bool
	Source   string
	Args     []string
	Err      error
	Issues   []string
	Hooks    []sequencer.Result
	Metadata *procmeta.ProcessMetadata
	// Start is the process start time; zero means "use the first hook".
	Start time.Time
	End   time.Time
}

// SpanRecorder emits bootstrap spans.
type SpanRecorder struct {
	tracer   trace.Tracer
	attrs    *attributes.Evaluator
	traceID  *attributes.TraceIDEvaluator
	parentID *attributes.ParentIDEvaluator
	logger   hclog.Logger
}

// NewSpanRecorder compiles the expressions configured in cfg.
func NewSpanRecorder(tracer trace.Tracer, cfg *config.EnvConfig, logger hclog.Logger) (*SpanRecorder, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	custom, err := cfg.CustomAttributes()
	if err != nil {
		return nil, err
	}
	attrs, err := attributes.NewEvaluator(custom, logger)
	if err != nil {
		return nil, err
	}
	traceID, err := attributes.NewTraceIDEvaluator(cfg.TraceID)
	if err != nil {
		return nil, err
	}
	parentID, err := attributes.NewParentIDEvaluator(cfg.ParentID)
	if err != nil {
		return nil, err
	}

	return &SpanRecorder{
		tracer:   tracer,
		attrs:    attrs,
		traceID:  traceID,
		parentID: parentID,
		logger:   logger,
	}, nil
}

// Record emits the bootstrap span tree for rep and returns the context of
// the bootstrap span.
func (r *SpanRecorder) Record(ctx context.Context, rep *Report) trace.SpanContext {
	ctx, warnings := r.parentContext(ctx, rep.Metadata)

	start := rep.Start
	if start.IsZero() && len(rep.Hooks) > 0 {
		start = rep.Hooks[0].Start
	}
	end := rep.End
	if end.IsZero() {
		end = time.Now()
	}

	spanOpts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if !start.IsZero() {
		spanOpts = append(spanOpts, trace.WithTimestamp(start))
	}
	ctx, span := r.tracer.Start(ctx, SpanName, spanOpts...)

	span.SetAttributes(
		AttrVariant.String(rep.Variant),
		AttrStrategy.String(rep.Strategy),
		AttrCaptured.Bool(rep.Captured),
		AttrArgc.Int(len(rep.Args)),
	)
	if rep.RequestedStrategy != "" && rep.RequestedStrategy != rep.Strategy {
		span.SetAttributes(AttrRequestedStrategy.String(rep.RequestedStrategy))
	}
	if rep.Source != "" {
		span.SetAttributes(AttrSource.String(rep.Source))
	}
	if rep.Captured {
		span.SetAttributes(semconv.ProcessCommandArgs(rep.Args...))
	}
	if len(rep.Issues) > 0 {
		span.SetAttributes(AttrIssues.StringSlice(rep.Issues))
	}
	span.SetAttributes(warnings...)
	span.SetAttributes(r.attrs.Evaluate(rep.Metadata)...)

	for _, hook := range rep.Hooks {
		r.recordHook(ctx, hook)
	}

	if rep.Err != nil {
		span.RecordError(rep.Err)
		span.SetStatus(codes.Error, rep.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))

	return span.SpanContext()
}

func (r *SpanRecorder) recordHook(ctx context.Context, hook sequencer.Result) {
	_, span := r.tracer.Start(ctx, hook.Name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(hook.Start),
		trace.WithAttributes(AttrPriority.Int(hook.Priority)),
	)
	if hook.Err != nil {
		span.RecordError(hook.Err)
		span.SetStatus(codes.Error, hook.Err.Error())
	}
	span.End(trace.WithTimestamp(hook.Start.Add(hook.Duration)))
}

// parentContext applies configured trace and parent IDs. A trace ID without
// a parent ID gets a parent span ID derived from the trace ID, since a
// remote span context needs both.
func (r *SpanRecorder) parentContext(ctx context.Context, metadata *procmeta.ProcessMetadata) (context.Context, []attribute.KeyValue) {
	if !r.traceID.Configured() {
		return ctx, nil
	}

	traceID, warnings, err := r.traceID.Evaluate(metadata)
	if err != nil {
		r.logger.Warn("trace id expression failed", "error", err)
		return ctx, nil
	}

	parentID, parentWarnings, err := r.parentID.Evaluate(metadata)
	if err != nil {
		r.logger.Warn("parent id expression failed", "error", err)
	}
	warnings = append(warnings, parentWarnings...)

	if !parentID.IsValid() {
		sum := sha256.Sum256(traceID[:])
		copy(parentID[:], sum[:8])
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     parentID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(ctx, sc), warnings
}
