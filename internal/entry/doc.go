// Package entry interposes a wrapper in front of the program's real entry
// point.
//
// The linker-level trick of the C world (--wrap=main, a weak alias and a
// __real_main symbol) is modelled as an explicit Table: the real entry is
// defined under a fixed alternate name, the Interposer is defined under the
// wrapper name and, optionally, under a weak alias that a strong definition
// may override.
package entry
