// Copyright 2025 The zuspec authors
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcd reads value change dump files and exposes them as trace
// sources.
//
// Open and New parse the declaration section eagerly, so scope and
// timescale information is available as soon as the call returns. The
// value change section is decoded lazily by the reader obtained from
// Events. A Trace is a single pass over its input: Events can be called
// only once.
//
// The dialect understood here is the common simulator output subset:
// $date, $version and $comment sections, a mandatory $timescale, nested
// $scope/$upscope declarations, $var declarations with an optional bit
// range, and in the body timestamps, scalar, vector and real value
// changes. $dumpvars, $dumpall, $dumpon and $dumpoff markers are skipped
// while the value entries they contain are processed as ordinary changes
// at the current timestamp. Unknown declarations are skipped up to their
// closing $end.
//
package vcd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	trace "github.com/zuspec/zuspec-be-trace"
	"github.com/zuspec/zuspec-be-trace/internal/lex"
)

// Trace is an open value change dump. It implements trace.Source.
//
type Trace struct {
	// Date and Version hold the contents of the $date and $version
	// header sections, empty when absent.
	Date    string
	Version string

	name     string // for diagnostics
	f        io.Closer
	lx       lex.Interface
	root     *trace.Scope
	ts       trace.Timescale
	consumed bool
}

// Open opens the named file and parses its declaration section.
//
func Open(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "vcd")
	}
	t, err := parse(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	t.f = f
	return t, nil
}

// New parses the declaration section of the dump read from r. The
// returned Trace keeps reading from r as events are consumed, so r must
// not be used concurrently.
//
func New(r io.Reader) (*Trace, error) {
	return parse(r, "")
}

// Scope returns the root of the declared scope tree.
//
func (t *Trace) Scope() *trace.Scope { return t.root }

// Timescale returns the native timescale declared in the header.
//
func (t *Trace) Timescale() trace.Timescale { return t.ts }

// Close closes the underlying file, if any. Closing a Trace obtained
// from New is a no-op.
//
func (t *Trace) Close() error {
	if t.f == nil {
		return nil
	}
	f := t.f
	t.f = nil
	return f.Close()
}

// Events returns a reader over the value change section. The reader
// shares the Trace's input cursor, so Events returns an error when
// called a second time.
//
func (t *Trace) Events() (trace.EventReader, error) {
	if t.consumed {
		return nil, errors.New("vcd: event stream already consumed")
	}
	t.consumed = true
	return &eventReader{t: t}, nil
}

func parse(r io.Reader, name string) (*Trace, error) {
	t := &Trace{name: name, lx: newLexer(r)}
	root := &trace.Scope{}
	cur := root
	var stack []*trace.Scope
	seenTS := false

	for {
		w, line, err := t.word("header")
		if err != nil {
			return nil, err
		}
		switch w {
		case "$date":
			t.Date, err = t.collect("$date")
		case "$version":
			t.Version, err = t.collect("$version")
		case "$comment":
			err = t.skip("$comment")
		case "$timescale":
			t.ts, err = t.timescale(line)
			seenTS = true
		case "$scope":
			var child *trace.Scope
			child, err = t.scope()
			if err == nil {
				cur.Children = append(cur.Children, child)
				stack = append(stack, cur)
				cur = child
			}
		case "$upscope":
			if len(stack) == 0 {
				return nil, t.fail(line, "$upscope without matching $scope")
			}
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			err = t.expectEnd("$upscope")
		case "$var":
			var sig trace.Signal
			sig, err = t.variable()
			if err == nil {
				cur.Signals = append(cur.Signals, sig)
			}
		case "$enddefinitions":
			if err = t.expectEnd("$enddefinitions"); err != nil {
				return nil, err
			}
			if len(stack) != 0 {
				return nil, t.fail(line, "unterminated $scope at end of declarations")
			}
			if !seenTS {
				return nil, t.fail(line, "missing $timescale declaration")
			}
			t.root = root
			return t, nil
		default:
			if strings.HasPrefix(w, "$") {
				err = t.skip(w)
			} else {
				return nil, t.fail(line, "unexpected token %q in declarations", w)
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

// scope parses the remainder of a $scope declaration.
//
func (t *Trace) scope() (*trace.Scope, error) {
	kind, _, err := t.word("$scope")
	if err != nil {
		return nil, err
	}
	name, _, err := t.word("$scope")
	if err != nil {
		return nil, err
	}
	if err = t.expectEnd("$scope"); err != nil {
		return nil, err
	}
	return &trace.Scope{Name: name, Kind: kind}, nil
}

// variable parses the remainder of a $var declaration:
//
//	$var wire 8 ! count [7:0] $end
//
// The bit range is optional and may be glued to the name; either way it
// is stripped, signals are identified by bare name and id code.
//
func (t *Trace) variable() (trace.Signal, error) {
	var sig trace.Signal
	kind, _, err := t.word("$var")
	if err != nil {
		return sig, err
	}
	ws, wline, err := t.word("$var")
	if err != nil {
		return sig, err
	}
	width, err := strconv.Atoi(ws)
	if err != nil || width <= 0 {
		return sig, t.fail(wline, "invalid width %q in $var", ws)
	}
	id, _, err := t.word("$var")
	if err != nil {
		return sig, err
	}
	name, nline, err := t.word("$var")
	if err != nil {
		return sig, err
	}
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	} else if i == 0 {
		return sig, t.fail(nline, "invalid name %q in $var", name)
	}
	// trailing range token, if any
	for {
		w, wl, err := t.word("$var")
		if err != nil {
			return sig, err
		}
		if w == "$end" {
			break
		}
		if w[0] != '[' {
			return sig, t.fail(wl, "unexpected token %q in $var", w)
		}
	}
	sig = trace.Signal{Name: name, Width: width, ID: id}
	switch {
	case kind == "real":
		sig.Kind = trace.KindReal
	case width == 1:
		sig.Kind = trace.KindScalar
	default:
		sig.Kind = trace.KindVector
	}
	return sig, nil
}

// timescale parses the remainder of a $timescale declaration. Scale and
// unit may be glued together or split across words.
//
func (t *Trace) timescale(line int) (trace.Timescale, error) {
	s, err := t.collect("$timescale")
	if err != nil {
		return trace.Timescale{}, err
	}
	ts, err := trace.ParseTimescale(s)
	if err != nil {
		return trace.Timescale{}, t.fail(line, "invalid timescale %q", s)
	}
	switch ts.Scale {
	case 1, 10, 100:
	default:
		return trace.Timescale{}, t.fail(line, "invalid timescale magnitude %d", ts.Scale)
	}
	return ts, nil
}

// word returns the next word of input. End of input and read failures
// are format errors carrying the name of the enclosing section.
//
func (t *Trace) word(ctx string) (string, int, error) {
	it := t.lx.Lex()
	switch it.Type {
	case tErr:
		return "", 0, t.fail(it.Line, "%v", it.Value)
	case tEOF:
		return "", 0, t.fail(it.Line, "unexpected end of input in %s", ctx)
	}
	return it.Value.(string), it.Line, nil
}

// skip consumes words up to and including the next $end.
//
func (t *Trace) skip(ctx string) error {
	for {
		w, _, err := t.word(ctx)
		if err != nil {
			return err
		}
		if w == "$end" {
			return nil
		}
	}
}

// collect consumes words up to the next $end and returns them joined by
// single spaces.
//
func (t *Trace) collect(ctx string) (string, error) {
	var ws []string
	for {
		w, _, err := t.word(ctx)
		if err != nil {
			return "", err
		}
		if w == "$end" {
			return strings.Join(ws, " "), nil
		}
		ws = append(ws, w)
	}
}

func (t *Trace) expectEnd(ctx string) error {
	w, line, err := t.word(ctx)
	if err != nil {
		return err
	}
	if w != "$end" {
		return t.fail(line, "expected $end to close %s, got %q", ctx, w)
	}
	return nil
}

func (t *Trace) fail(line int, format string, args ...interface{}) error {
	return &trace.FormatError{
		File:   t.name,
		Line:   line,
		Reason: fmt.Sprintf(format, args...),
	}
}
