// Package dispatch implements the load-time hook that acquires the argument
// vector, hands it to the runtime init entry point and records the result.
//
//	┌───────────────┐ Direct  ┌──────────────────┐
//	│   Strategy    │ ──────► │ loader-supplied  │ ─┐
//	└──────┬────────┘         │ os.Args          │  │
//	       │ Derive           └──────────────────┘  │
//	       ▼                                        ▼
//	┌───────────────┐  ok   ┌──────────────────────────────┐  ┌──────────────┐
//	│ argv.Retriever│ ────► │ init(&argc, &argv)           │─►│ Cell.Record  │
//	└──────┬────────┘       │ may strip runtime options    │  │ argv[:argc]  │
//	       │ error          └──────────────────────────────┘  └──────────────┘
//	       ▼
//	 cell stays empty, init not called, error logged
//
// The whole sequence runs under procmeta.Cell.Capture, so the init entry
// point is reached at most once per cell.
package dispatch
