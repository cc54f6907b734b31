package trace

import (
	"fmt"
	"io"
	"strings"
)

// Signal is a signal declaration inside a trace scope. ID is the
// trace-local identifier that correlates declarations with value change
// events; several declarations sharing one ID are aliases of the same
// signal.
//
type Signal struct {
	Name  string
	Width int
	Kind  ValueKind
	ID    string
}

// Scope is a named grouping of signals and sub-scopes declared by a
// trace. Decoders build the tree at open time; it is read-only
// afterwards. The root of a trace is a synthetic scope with an empty
// name holding the top-level scopes.
//
type Scope struct {
	Name     string
	Kind     string // declaring construct (module, task, ...), informational
	Children []*Scope
	Signals  []Signal
}

// Lookup resolves a dotted path ("top.sub") to a descendant scope,
// following the first matching child at each level. It returns nil when
// any segment has no match.
//
func (s *Scope) Lookup(path string) *Scope {
	cur := s
	for _, seg := range strings.Split(path, ".") {
		var next *Scope
		for _, c := range cur.Children {
			if c.Name == seg {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// VisitSignals calls fn for every signal declaration in the tree, in
// declaration order, with the dotted path of the enclosing scope. The
// receiver's own name starts the path unless it is the synthetic root.
//
func (s *Scope) VisitSignals(fn func(scopePath string, sig Signal)) {
	s.visitSignals("", fn)
}

func (s *Scope) visitSignals(prefix string, fn func(string, Signal)) {
	path := prefix
	if s.Name != "" {
		if path != "" {
			path += "."
		}
		path += s.Name
	}
	for _, sig := range s.Signals {
		fn(path, sig)
	}
	for _, c := range s.Children {
		c.visitSignals(path, fn)
	}
}

// Dump writes an indented rendering of the scope tree to w. The synthetic
// root itself is not printed.
//
func (s *Scope) Dump(w io.Writer) error {
	return s.dump(w, 0)
}

func (s *Scope) dump(w io.Writer, depth int) error {
	if s.Name != "" {
		kind := s.Kind
		if kind == "" {
			kind = "scope"
		}
		if _, err := fmt.Fprintf(w, "%*s%s (%s)\n", depth*2, "", s.Name, kind); err != nil {
			return err
		}
		for _, sig := range s.Signals {
			if _, err := fmt.Fprintf(w, "%*s%s : %s(%d)\n", depth*2+2, "", sig.Name, sig.Kind, sig.Width); err != nil {
				return err
			}
		}
		depth++
	}
	for _, c := range s.Children {
		if err := c.dump(w, depth); err != nil {
			return err
		}
	}
	return nil
}

// childrenNamed returns the child scopes with the given name, in
// declaration order.
func (s *Scope) childrenNamed(name string) []*Scope {
	var out []*Scope
	for _, c := range s.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// signalsNamed returns the signal declarations with the given name, in
// declaration order.
func (s *Scope) signalsNamed(name string) []*Signal {
	var out []*Signal
	for i := range s.Signals {
		if s.Signals[i].Name == name {
			out = append(out, &s.Signals[i])
		}
	}
	return out
}

// findNamed collects every scope in the tree named name, depth first in
// declaration order. The receiver itself is included when it matches.
func (s *Scope) findNamed(name string, out []*Scope) []*Scope {
	if s.Name == name {
		out = append(out, s)
	}
	for _, c := range s.Children {
		out = c.findNamed(name, out)
	}
	return out
}

// Event is one recorded value change: at native tick Time, the signal
// identified by ID took Value.
//
type Event struct {
	Time  uint64
	ID    string
	Value Value
}

// EventReader is a lazy, single-pass reader over a trace's value change
// events, ordered by non-decreasing native timestamp. Next returns io.EOF
// once the sequence is exhausted. A reader that fails with any other
// error must keep returning that error on subsequent calls.
//
type EventReader interface {
	Next() (Event, error)
}

// Source is the normalized contract a trace decoder provides: the
// declared scope tree, the native timescale, and the lazy event
// sequence. Each supported trace format implements Source as its own
// variant; consumers never depend on the format.
//
type Source interface {
	// Scope returns the root of the declared scope tree.
	Scope() *Scope
	// Timescale returns the trace's native time quantum.
	Timescale() Timescale
	// Events returns the value change event sequence. Sources backed by
	// a single cursor may refuse a second call.
	Events() (EventReader, error)
	// Close releases the underlying trace resource.
	Close() error
}
