// Package bytecode defines the compiled form of a Slash/A program: a flat
// sequence of instruction-set indices with no embedded operands.
package bytecode

// Code is a single bytecode word, an index into the active instruction set.
type Code uint32

// Program is an assembled instruction stream.
type Program []Code
