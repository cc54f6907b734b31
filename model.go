// Copyright 2025 The zuspec authors
// Licensed under the MIT license. See license text in the LICENSE file.

package trace

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/zuspec/zuspec-be-trace/internal/ring"
)

// Change describes one observed cell update: at Time, the signal at Path
// went from Old to New. Several events for one signal inside a single
// timestamp batch coalesce into one Change carrying the pre-batch and
// post-batch values.
//
type Change struct {
	Path string
	Time Time
	Old  Value
	New  Value
}

// Sample is one retained history entry of a cell.
//
type Sample struct {
	Time  Time
	Value Value
}

// Subscription identifies one registered observer callback.
//
type Subscription struct {
	id   uuid.UUID
	path string
}

// Path returns the model path the subscription observes.
//
func (s Subscription) Path() string { return s.path }

type subscriber struct {
	id uuid.UUID
	fn func(Change)
}

// Cell holds the replayed state of one schema-declared signal: its
// current value and the output time of its last update. A cell the
// binder could not match is unbound: it keeps its initial all-undefined
// value and never receives events. Cell values change only through the
// scheduler.
//
type Cell struct {
	spec SignalSpec
	path string
	sig  *Signal // nil when unbound
	why  string
	val  Value
	last Time
	subs []subscriber
	hist *ring.Buffer[Sample]
}

// Path returns the cell's model path relative to the root component.
//
func (c *Cell) Path() string { return c.path }

// Width returns the declared bit width.
//
func (c *Cell) Width() int { return c.spec.Width }

// Kind returns the declared value kind.
//
func (c *Cell) Kind() ValueKind { return c.spec.Kind }

// Bound reports whether the binder matched the cell to a trace signal.
//
func (c *Cell) Bound() bool { return c.sig != nil }

// UnboundReason returns why the cell stayed unbound, or an empty string
// for bound cells.
//
func (c *Cell) UnboundReason() string { return c.why }

// Descriptor returns the bound trace signal declaration. ok is false for
// unbound cells.
//
func (c *Cell) Descriptor() (Signal, bool) {
	if c.sig == nil {
		return Signal{}, false
	}
	return *c.sig, true
}

// Value returns the current value. Before the first update this is the
// all-undefined value of the declared width.
//
func (c *Cell) Value() Value { return c.val }

// LastUpdate returns the output time of the last applied update, or -1
// when no event has reached the cell yet.
//
func (c *Cell) LastUpdate() Time { return c.last }

// History returns the retained samples, oldest first. It is empty unless
// the model was constructed with a history depth.
//
func (c *Cell) History() []Sample {
	if c.hist == nil {
		return nil
	}
	return c.hist.Snapshot()
}

// At returns the retained value in effect at time t, that is the value
// of the latest sample with Time <= t. ok is false when t precedes the
// history window or history is disabled.
//
func (c *Cell) At(t Time) (Value, bool) {
	if c.hist == nil {
		return Value{}, false
	}
	samples := c.hist.Snapshot()
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Time <= t {
			return samples[i].Value, true
		}
	}
	return Value{}, false
}

// reconcile adjusts a decoded value to the declared width, extending
// narrow values and rejecting wide ones.
func (c *Cell) reconcile(v Value) (Value, error) {
	switch {
	case v.Width() == c.spec.Width:
		return v, nil
	case v.Width() < c.spec.Width:
		return v.extendTo(c.spec.Width), nil
	}
	return Value{}, &ValueShapeError{Path: c.path, Declared: c.spec.Width, Got: v.Width()}
}

// store applies a reconciled value. Scheduler use only.
func (c *Cell) store(t Time, v Value) {
	c.val = v
	c.last = t
}

func (c *Cell) record(s Sample) {
	if c.hist != nil {
		c.hist.Push(s)
	}
}

// Component mirrors one schema component instance. Components own their
// children exclusively; the hierarchy is a tree shaped by the schema,
// rooted at the scope the extern designation resolved to.
//
type Component struct {
	name     string
	path     string
	bound    bool
	children []*Component
	cells    []*Cell
}

// Name returns the component's instance name.
//
func (c *Component) Name() string { return c.name }

// Path returns the component's model path. The root component has an
// empty path.
//
func (c *Component) Path() string { return c.path }

// Bound reports whether a trace scope matched this component.
//
func (c *Component) Bound() bool { return c.bound }

// Children returns the child components in schema declaration order.
//
func (c *Component) Children() []*Component { return c.children }

// Cells returns the component's own cells in schema declaration order.
//
func (c *Component) Cells() []*Cell { return c.cells }

// Model is the constructed object graph: the root component plus a path
// index over every component and cell. Models are built once per
// construction and share no state with other models.
//
type Model struct {
	root     *Component
	cells    map[string]*Cell
	comps    map[string]*Component
	byID     map[string][]*Cell
	order    []*Cell
	stepping bool
}

func buildModel(b *Binding, histDepth int) *Model {
	m := &Model{
		cells: make(map[string]*Cell),
		comps: make(map[string]*Component),
		byID:  make(map[string][]*Cell),
	}
	m.root = m.buildComponent(b.root, "", histDepth)
	return m
}

func (m *Model) buildComponent(n *bindNode, path string, hist int) *Component {
	comp := &Component{name: n.block.Name, path: path, bound: n.scope != nil}
	for i := range n.signals {
		bs := &n.signals[i]
		c := &Cell{
			spec: bs.spec,
			path: bs.path,
			sig:  bs.sig,
			why:  bs.why,
			val:  Unknown(bs.spec.Width),
			last: -1,
		}
		if hist > 0 && bs.sig != nil {
			c.hist = ring.New[Sample](hist)
		}
		comp.cells = append(comp.cells, c)
		m.cells[bs.path] = c
		m.order = append(m.order, c)
		if bs.sig != nil {
			m.byID[bs.sig.ID] = append(m.byID[bs.sig.ID], c)
		}
	}
	for _, cn := range n.children {
		child := m.buildComponent(cn, joinPath(path, cn.block.Name), hist)
		comp.children = append(comp.children, child)
	}
	if path != "" {
		m.comps[path] = comp
	}
	return comp
}

// Root returns the root component.
//
func (m *Model) Root() *Component { return m.root }

// Component returns the component at a dotted model path, the root for
// an empty path, or nil when the path is unknown.
//
func (m *Model) Component(path string) *Component {
	if path == "" {
		return m.root
	}
	return m.comps[path]
}

// Cell returns the cell at a dotted model path, or nil when the path is
// unknown.
//
func (m *Model) Cell(path string) *Cell { return m.cells[path] }

// Paths returns every cell path in the model, sorted.
//
func (m *Model) Paths() []string {
	out := make([]string, 0, len(m.cells))
	for p := range m.cells {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// UnboundPaths returns the paths of unbound cells in schema declaration
// order.
//
func (m *Model) UnboundPaths() []string {
	var out []string
	for _, c := range m.order {
		if c.sig == nil {
			out = append(out, c.path)
		}
	}
	return out
}

// Subscribe registers a callback observing the cell at path. The
// callback fires after each timestamp batch that updated the cell, once
// per batch. Subscribing to an unbound cell is allowed; the callback
// never fires. Subscribe panics when called from inside an observer
// callback.
//
func (m *Model) Subscribe(path string, fn func(Change)) (Subscription, error) {
	if m.stepping {
		panic("trace: Subscribe called during a replay step")
	}
	if fn == nil {
		return Subscription{}, errors.New("nil observer callback")
	}
	c := m.cells[path]
	if c == nil {
		return Subscription{}, errors.Errorf("no signal at path %q", path)
	}
	sub := Subscription{id: uuid.New(), path: path}
	c.subs = append(c.subs, subscriber{id: sub.id, fn: fn})
	return sub, nil
}

// Unsubscribe removes a previously registered observer. It reports
// whether the subscription was found. Unsubscribe panics when called
// from inside an observer callback.
//
func (m *Model) Unsubscribe(sub Subscription) bool {
	if m.stepping {
		panic("trace: Unsubscribe called during a replay step")
	}
	c := m.cells[sub.path]
	if c == nil {
		return false
	}
	for i := range c.subs {
		if c.subs[i].id == sub.id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return true
		}
	}
	return false
}
