// Package rtcore is a small real-time runtime used by the demo binaries.
//
// Its init entry points consume the runtime's own --rt-* options from the
// argument vector and leave everything else for the program:
//
//	--rt-cpu-affinity=0,2   pin the process to the listed CPUs
//	--rt-verbose[=N]        raise runtime verbosity (default 1)
//	--rt-quiet              verbosity 0
//	--rt-mlock              lock current and future pages in memory
//	--rt-dump-config        log the effective options
//
// Option scanning stops at "--". Unknown --rt-* options are left in place.
package rtcore
