// Package rtboot captures a process's command-line arguments before main
// runs and hands them to a real-time runtime's init entry point.
//
// A program links rtboot in one of two variants, chosen at build time:
//
//	executable (default)     Main wraps the program entry point. The
//	                         runtime's Init sees the arguments first and
//	                         the real entry point sees what it left.
//	shared-object            (-tags rtboot_dso) no entry point is defined.
//	                         The library calls Load from an init function
//	                         and the runtime's InitDSO is used instead.
//
// Arguments are acquired either from the vector the Go runtime was given
// (os.Args, the "direct" strategy) or by reading /proc/self/cmdline (the
// "derive" strategy, the default). Building with -tags rtboot_direct forces
// the direct strategy.
//
// Load-time work runs as an ordered list of hooks. The argument dispatcher
// sits at BootstrapPriority; hooks registered below it run before the
// arguments are known, hooks above it can read CapturedArgs.
//
// Configuration comes from RTBOOT_* environment variables, see
// internal/config.
package rtboot
