// Copyright 2025 The zuspec authors
// Licensed under the MIT license. See license text in the LICENSE file.

package vcd

import (
	"io"
	"strconv"

	trace "github.com/zuspec/zuspec-be-trace"
)

// eventReader decodes the value change section. It picks up the input
// cursor exactly where the declaration parser left it.
//
type eventReader struct {
	t    *Trace
	time uint64
	done bool
	err  error
}

// Next returns the next value change. Timestamps and dump section
// markers are consumed silently. Any format error is final: the reader
// keeps returning it on subsequent calls.
//
func (r *eventReader) Next() (trace.Event, error) {
	if r.done {
		if r.err != nil {
			return trace.Event{}, r.err
		}
		return trace.Event{}, io.EOF
	}
	for {
		it := r.t.lx.Lex()
		switch it.Type {
		case tEOF:
			r.done = true
			return trace.Event{}, io.EOF
		case tErr:
			return trace.Event{}, r.stop(r.t.fail(it.Line, "%v", it.Value))
		}
		w := it.Value.(string)
		switch {
		case w[0] == '#':
			if err := r.stamp(w, it.Line); err != nil {
				return trace.Event{}, r.stop(err)
			}
		case w == "$end":
			// closes a $dumpvars/$dumpall/$dumpon/$dumpoff section
		case w == "$dumpvars", w == "$dumpall", w == "$dumpon", w == "$dumpoff":
			// value entries inside the section are ordinary changes
			// at the current timestamp
		case w[0] == '$':
			if err := r.t.skip(w); err != nil {
				return trace.Event{}, r.stop(err)
			}
		default:
			ev, err := r.change(w, it.Line)
			if err != nil {
				return trace.Event{}, r.stop(err)
			}
			return ev, nil
		}
	}
}

// stop latches err as the reader's final state.
//
func (r *eventReader) stop(err error) error {
	r.done = true
	r.err = err
	return err
}

// stamp advances the current timestamp.
//
func (r *eventReader) stamp(w string, line int) error {
	n, err := strconv.ParseUint(w[1:], 10, 64)
	if err != nil {
		return r.t.fail(line, "malformed timestamp %q", w)
	}
	if n < r.time {
		return r.t.fail(line, "timestamp #%d precedes #%d", n, r.time)
	}
	r.time = n
	return nil
}

// change decodes a single value change entry.
//
func (r *eventReader) change(w string, line int) (trace.Event, error) {
	switch w[0] {
	case '0', '1', 'x', 'X', 'z', 'Z':
		if len(w) < 2 {
			return trace.Event{}, r.t.fail(line, "scalar change %q without identifier", w)
		}
		v, err := trace.ParseValue(w[:1])
		if err != nil {
			return trace.Event{}, r.t.fail(line, "invalid scalar change %q", w)
		}
		return trace.Event{Time: r.time, ID: w[1:], Value: v}, nil
	case 'b', 'B':
		v, err := trace.ParseValue(w[1:])
		if err != nil {
			return trace.Event{}, r.t.fail(line, "invalid vector value %q", w)
		}
		id, _, err := r.t.word("vector change")
		if err != nil {
			return trace.Event{}, err
		}
		return trace.Event{Time: r.time, ID: id, Value: v}, nil
	case 'r', 'R':
		f, err := strconv.ParseFloat(w[1:], 64)
		if err != nil {
			return trace.Event{}, r.t.fail(line, "invalid real value %q", w)
		}
		id, _, err := r.t.word("real change")
		if err != nil {
			return trace.Event{}, err
		}
		return trace.Event{Time: r.time, ID: id, Value: trace.RealValue(f)}, nil
	case 's', 'S':
		return trace.Event{}, r.t.fail(line, "string value changes are not supported")
	}
	return trace.Event{}, r.t.fail(line, "unexpected token %q in value change section", w)
}
