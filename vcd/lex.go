package vcd

import (
	"io"
	"strings"
	"unicode"

	"github.com/zuspec/zuspec-be-trace/internal/lex"
)

// Tokens. A value change dump is a stream of whitespace-delimited words;
// all further structure lives in the parser.
const (
	tEOF  lex.Type = lex.EOF
	tErr  lex.Type = lex.Err
	tWord lex.Type = iota
)

func newLexer(r io.Reader) *lex.Lexer {
	return lex.New(r, lexInit)
}

func lexInit(l *lex.Lexer) lex.StateFn {
	r := l.Next()
	switch {
	case r == lex.EOF:
		return lexEOF
	case unicode.IsSpace(r):
		l.AcceptWhile(unicode.IsSpace)
	default:
		return lexWord
	}
	return nil
}

func lexWord(l *lex.Lexer) lex.StateFn {
	var buf strings.Builder
	buf.Grow(8)
	buf.WriteRune(l.Current())
	r := l.Next()
	for r != lex.EOF && !unicode.IsSpace(r) {
		buf.WriteRune(r)
		r = l.Next()
	}
	l.Backup()
	l.Emit(tWord, buf.String())
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *lex.Lexer) lex.StateFn {
	l.Emit(tEOF, "end of input")
	return lexEOF
}
