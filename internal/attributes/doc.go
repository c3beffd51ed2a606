// Package attributes evaluates expr-lang expressions against captured
// process metadata to produce bootstrap span attributes, trace IDs and
// parent span IDs.
//
// Every expression sees the same environment:
//
//	env      map[string]string  parsed process environment
//	args     []string           captured argument vector
//	argc     int                len(args)
//	cmdline  string             args joined with single spaces
//
// A trace ID result that is not 32 hex characters is hashed with SHA-256.
// A parent ID result that is not 16 hex characters yields no parent.
package attributes
