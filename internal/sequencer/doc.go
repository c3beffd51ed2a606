// Package sequencer runs registered load-time hooks once, in priority order,
// before the program's real entry point.
//
// Priorities follow the constructor convention: lower runs first, 101..65535
// are usable, BootstrapPriority is where the argument dispatcher sits so that
// hooks at DefaultPriority observe an initialised runtime.
package sequencer
