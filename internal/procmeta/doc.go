// Package procmeta holds the process bootstrap state.
//
// Cell is the single-shot cache of the argument vector the runtime observed.
// It is written once, by whichever dispatcher captures first, and read any
// number of times afterwards:
//
// Queries (read-only):
//   - Load() - Captured vector, if any
//   - Captured() - Whether a vector was recorded
//   - Err() - Last acquisition error
//   - Issues() - Non-fatal capture warnings
//   - Metadata() - Snapshot for expression evaluation
//
// Commands (mutations):
//   - Record(v) - Store the vector; first writer wins
//   - Capture(source, fn) - Serialised acquire-and-record
//   - SetError(err) - Store an acquisition error
//   - AddIssue(issue) - Add a capture warning
//
// Thread-safe: an RWMutex guards the state and a separate mutex serialises
// Capture so that racing module loaders reach the runtime init only once.
package procmeta
