// Package output turns a finished bootstrap into OpenTelemetry spans.
//
// SpanRecorder is a pure formatting layer. It receives a Report assembled
// by the bootstrap (capture outcome, hook timings, process start time) and
// emits one rtboot.bootstrap span with a child span per load-time hook.
//
// It does NOT:
//   - read the command line
//   - run hooks
//   - own the tracer provider
//
// Expression evaluation is delegated to the attributes package, and the
// span start is taken from timesync when the process start time is known.
package output
