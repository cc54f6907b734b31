// Copyright 2025 The zuspec authors
// Licensed under the MIT license. See license text in the LICENSE file.

// Package tracetest provides in-memory trace sources and observer
// recorders for testing replay pipelines without fixture files.
//
package tracetest

import (
	"io"
	"testing"

	trace "github.com/zuspec/zuspec-be-trace"
)

// Builder assembles an in-memory trace: a scope tree plus an event
// sequence. Methods chain; malformed input panics since a broken test
// fixture is a programming error.
//
//	src := tracetest.NewBuilder().
//		Scope("top").Signal("count", 2, "!").End().
//		At(0).Change("!", "00").
//		At(10).Change("!", "01").
//		Source()
//
type Builder struct {
	root  *trace.Scope
	cur   *trace.Scope
	stack []*trace.Scope
	ts    trace.Timescale
	time  uint64
	evs   []trace.Event
}

// NewBuilder returns a builder with a 1ns timescale and an empty root
// scope.
//
func NewBuilder() *Builder {
	root := &trace.Scope{}
	return &Builder{root: root, cur: root, ts: trace.Timescale{Scale: 1, Unit: trace.Ns}}
}

// Timescale sets the native timescale.
//
func (b *Builder) Timescale(scale uint64, unit trace.Unit) *Builder {
	b.ts = trace.Timescale{Scale: scale, Unit: unit}
	return b
}

// Scope opens a child scope. Subsequent Signal and Scope calls nest
// inside it until the matching End.
//
func (b *Builder) Scope(name string) *Builder {
	child := &trace.Scope{Name: name, Kind: "module"}
	b.cur.Children = append(b.cur.Children, child)
	b.stack = append(b.stack, b.cur)
	b.cur = child
	return b
}

// End closes the innermost open scope.
//
func (b *Builder) End() *Builder {
	if len(b.stack) == 0 {
		panic("tracetest: End without matching Scope")
	}
	b.cur = b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return b
}

// Signal declares a signal in the current scope. Width 1 declares a
// scalar, anything wider a vector.
//
func (b *Builder) Signal(name string, width int, id string) *Builder {
	kind := trace.KindVector
	if width == 1 {
		kind = trace.KindScalar
	}
	b.cur.Signals = append(b.cur.Signals, trace.Signal{Name: name, Width: width, Kind: kind, ID: id})
	return b
}

// Real declares a 64-bit real signal in the current scope.
//
func (b *Builder) Real(name, id string) *Builder {
	b.cur.Signals = append(b.cur.Signals, trace.Signal{Name: name, Width: 64, Kind: trace.KindReal, ID: id})
	return b
}

// At sets the native timestamp for subsequent changes. Stamps are
// recorded as given; feeding a decreasing sequence to a scheduler is how
// sequence faults are provoked.
//
func (b *Builder) At(t uint64) *Builder {
	b.time = t
	return b
}

// Change records a value change for the signal with the given id. It
// panics if digits is not a valid 0/1/x/z string.
//
func (b *Builder) Change(id, digits string) *Builder {
	v, err := trace.ParseValue(digits)
	if err != nil {
		panic("tracetest: " + err.Error())
	}
	b.evs = append(b.evs, trace.Event{Time: b.time, ID: id, Value: v})
	return b
}

// ChangeReal records a real value change.
//
func (b *Builder) ChangeReal(id string, f float64) *Builder {
	b.evs = append(b.evs, trace.Event{Time: b.time, ID: id, Value: trace.RealValue(f)})
	return b
}

// Source snapshots the builder into a source. The builder may keep
// accumulating events for a later snapshot.
//
func (b *Builder) Source() *Source {
	if len(b.stack) != 0 {
		panic("tracetest: Source with unclosed Scope")
	}
	evs := make([]trace.Event, len(b.evs))
	copy(evs, b.evs)
	return &Source{root: b.root, ts: b.ts, evs: evs}
}

// Source is an in-memory trace. Unlike file-backed sources it is
// replayable: every Events call returns a fresh reader over the same
// sequence.
//
type Source struct {
	// EventsErr, when set, is returned by Events.
	EventsErr error
	// ReadErr, when set, ends the event sequence with an error instead
	// of io.EOF.
	ReadErr error

	root *trace.Scope
	ts   trace.Timescale
	evs  []trace.Event
}

var _ trace.Source = (*Source)(nil)

// Scope returns the root of the built scope tree.
//
func (s *Source) Scope() *trace.Scope { return s.root }

// Timescale returns the built timescale.
//
func (s *Source) Timescale() trace.Timescale { return s.ts }

// Events returns a fresh reader over the event sequence.
//
func (s *Source) Events() (trace.EventReader, error) {
	if s.EventsErr != nil {
		return nil, s.EventsErr
	}
	return &reader{src: s}, nil
}

// Close is a no-op.
//
func (s *Source) Close() error { return nil }

type reader struct {
	src *Source
	i   int
}

func (r *reader) Next() (trace.Event, error) {
	if r.i >= len(r.src.evs) {
		if r.src.ReadErr != nil {
			return trace.Event{}, r.src.ReadErr
		}
		return trace.Event{}, io.EOF
	}
	ev := r.src.evs[r.i]
	r.i++
	return ev, nil
}

// Recorder collects observer callbacks for later assertions.
//
type Recorder struct {
	Changes []trace.Change
}

// Callback returns a change callback appending to the recorder.
//
func (r *Recorder) Callback() func(trace.Change) {
	return func(c trace.Change) { r.Changes = append(r.Changes, c) }
}

// Reset drops the recorded changes.
//
func (r *Recorder) Reset() { r.Changes = r.Changes[:0] }

// Attach subscribes a fresh recorder to the cells at the given model
// paths.
//
func Attach(t *testing.T, m *trace.Model, paths ...string) *Recorder {
	t.Helper()
	r := new(Recorder)
	for _, p := range paths {
		if _, err := m.Subscribe(p, r.Callback()); err != nil {
			t.Fatalf("subscribe %s: %v", p, err)
		}
	}
	return r
}
