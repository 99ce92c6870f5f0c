// Package lexer turns Slash/A source text into bytecode and back. The
// grammar is character-by-character: "/" closes the accumulated word and
// looks it up in the instruction set, "." ends the program, "#" comments to
// end of line, and spaces, tabs and newlines are skipped.
package lexer

import (
	"slasha/internal/bytecode"
	"slasha/internal/errors"
	"slasha/internal/instruction"
)

// MaxWordLen bounds the length of a single instruction word.
const MaxWordLen = 32

type Scanner struct {
	source  string
	set     *instruction.Set
	current int
}

func NewScanner(source string, set *instruction.Set) *Scanner {
	return &Scanner{
		source: source,
		set:    set,
	}
}

// ScanProgram assembles the whole source. On a malformed word it stops and
// reports the offending token; no bytecode is produced.
func (s *Scanner) ScanProgram() (bytecode.Program, error) {
	var prog bytecode.Program
	var word []byte
	wordStart := 0
	seekingNextLine := false

	for s.current = 0; s.current < len(s.source); s.current++ {
		c := s.source[s.current]

		if seekingNextLine {
			if c == '\n' {
				seekingNextLine = false
			}
			continue
		}

		switch c {
		case '.':
			// End-of-program sentinel.
			return prog, nil
		case '/':
			code, ok := s.set.Lookup(string(word))
			if !ok {
				return nil, errors.NewAssemblyError("Instruction not recognized", string(word), wordStart)
			}
			prog = append(prog, code)
			word = word[:0]
		case ' ', '\t', '\n':
			// Ignored between words.
		case '#':
			seekingNextLine = true
		default:
			if len(word) == 0 {
				wordStart = s.current
			}
			word = append(word, c)
			if len(word) > MaxWordLen {
				return nil, errors.NewAssemblyError("Instruction word is too large", string(word), wordStart)
			}
		}
	}

	// An unterminated trailing word produces no instruction; source form
	// always closes the last word with "/." anyway.
	return prog, nil
}

// Assemble is the one-shot form of NewScanner + ScanProgram.
func Assemble(source string, set *instruction.Set) (bytecode.Program, error) {
	return NewScanner(source, set).ScanProgram()
}

// Disassemble renders bytecode back to source form. Re-assembling the
// result against the same set yields the identical bytecode.
func Disassemble(prog bytecode.Program, set *instruction.Set) string {
	src := ""
	for _, c := range prog {
		src += set.Name(c) + "/"
	}
	return src + "."
}
