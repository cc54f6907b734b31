// Package lex implements a small state-function lexer over an io.Reader.
// Token types and state functions are defined by the consumer; the engine
// only handles rune buffering, position tracking and item queuing.
package lex

import (
	"bufio"
	"fmt"
	"io"
)

// EOF is returned by Next at end of input. It doubles as the Type of the
// item emitted once the input is exhausted.
const EOF = -1

// Err is the Type of an item reporting a read failure. Its value holds
// the underlying error.
const Err = -2

// Type identifies the kind of an emitted item. Values >= 0 are defined by
// the consumer.
type Type int

// Pos is a rune offset from the start of the input.
type Pos int

// Item is a token produced by the lexer.
//
type Item struct {
	Type  Type
	Pos   Pos
	Line  int // 1-based line of the first rune of the token
	Value interface{}
}

func (i Item) String() string {
	switch v := i.Value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// StateFn scans a token (or skips non-token input) and returns the next
// state. Returning nil hands control back to the initial state.
type StateFn func(*Lexer) StateFn

// Interface wraps the Lex method.
//
type Interface interface {
	Lex() Item
}

// Lexer runs state functions over buffered input. Token start positions
// are recorded whenever control (re-)enters the initial state, so a state
// chain started from the initial state keeps the position of its first
// rune.
//
type Lexer struct {
	r     *bufio.Reader
	init  StateFn
	state StateFn
	queue []Item

	pos     Pos // position of cur
	line    int // line of cur
	nread   Pos
	curLine int
	cur     rune
	backed  bool
	mark    bool
	start   Pos
	sline   int
	err     error
}

// New returns a lexer reading from r with the given initial state.
//
func New(r io.Reader, init StateFn) *Lexer {
	return &Lexer{r: bufio.NewReader(r), init: init, line: 1, curLine: 1}
}

// Lex runs the state machine until an item is available and returns it.
//
func (l *Lexer) Lex() Item {
	for len(l.queue) == 0 {
		if l.state == nil {
			l.state = l.init
			l.mark = true
		}
		l.state = l.state(l)
	}
	it := l.queue[0]
	copy(l.queue, l.queue[1:])
	l.queue = l.queue[:len(l.queue)-1]
	return it
}

// Next returns the next rune, or EOF when the input is exhausted. Read
// failures other than io.EOF emit an Err item and then behave like EOF.
//
func (l *Lexer) Next() rune {
	if l.backed {
		l.backed = false
	} else {
		r, _, err := l.r.ReadRune()
		if err != nil {
			if err != io.EOF && l.err == nil {
				l.err = err
				l.queue = append(l.queue, Item{Type: Err, Pos: l.nread, Line: l.curLine, Value: err})
			}
			r = EOF
		} else {
			l.pos = l.nread
			l.line = l.curLine
			l.nread++
			if r == '\n' {
				l.curLine++
			}
		}
		l.cur = r
	}
	if l.mark {
		l.start, l.sline = l.pos, l.line
		l.mark = false
	}
	return l.cur
}

// Current returns the rune last returned by Next.
//
func (l *Lexer) Current() rune { return l.cur }

// Backup un-reads the rune last returned by Next. Only one rune of
// lookahead is supported.
//
func (l *Lexer) Backup() { l.backed = true }

// AcceptWhile consumes runes as long as pred holds, leaving the first
// non-matching rune to be returned by the next call to Next.
//
func (l *Lexer) AcceptWhile(pred func(r rune) bool) {
	for {
		r := l.Next()
		if r == EOF || !pred(r) {
			l.Backup()
			return
		}
	}
}

// Emit queues an item with the given type and value at the current token
// start position.
//
func (l *Lexer) Emit(t Type, v interface{}) {
	l.queue = append(l.queue, Item{Type: t, Pos: l.start, Line: l.sline, Value: v})
}
