// Package argv reconstructs the process argument vector from kernel-exposed
// process state.
//
// When a startup hook is not handed argc/argv by the loader (a Go c-shared
// library loaded by musl, or any hook registered without parameters), the
// vector is re-derived from /proc/self/cmdline:
//
//	┌──────────────┐  open  ┌─────────────┐  n == size  ┌────────────┐
//	│ size = 1024  │ ─────► │ read(size)  │ ──────────► │ size <<= 1 │ ─┐
//	└──────────────┘        └──────┬──────┘             └────────────┘  │
//	       ▲                       │ n < size                           │
//	       │                       ▼                                    │
//	       │                ┌─────────────┐                             │
//	       │                │ split on NUL│                             │
//	       │                └─────────────┘                             │
//	       └────────────────────────────────────────────────────────────┘
//
// The pseudo-file is read once per open, so every growth step reopens it.
// The last argument is terminated by the end of the buffer whether or not
// the kernel wrote a trailing NUL.
package argv
