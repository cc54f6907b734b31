package trace

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// BindMode selects how unmatched schema elements are treated. The zero
// value is BindPartial: traces commonly omit unobserved signals, so
// unmatched elements stay in the model as unbound, inert cells. In
// BindStrict mode any unmatched element aborts construction. Ambiguous
// matches abort in both modes.
//
type BindMode int

const (
	BindPartial BindMode = iota
	BindStrict
)

func (m BindMode) String() string {
	if m == BindStrict {
		return "strict"
	}
	return "partial"
}

// ParseBindMode parses "partial" or "strict".
//
func ParseBindMode(s string) (BindMode, error) {
	switch s {
	case "partial":
		return BindPartial, nil
	case "strict":
		return BindStrict, nil
	}
	return 0, errors.Errorf("unknown binding mode %q", s)
}

// Binding is the resolved mapping between a schema's declared structure
// and a trace's declared structure. It is computed once by Bind and
// immutable afterwards.
//
type Binding struct {
	schema *Schema
	target *Scope
	mode   BindMode
	root   *bindNode
	byPath map[string]*bindSignal
}

type bindNode struct {
	block    *Block
	scope    *Scope // nil when the subtree has no matching scope
	signals  []bindSignal
	children []*bindNode
}

type bindSignal struct {
	spec SignalSpec
	path string
	sig  *Signal // nil when unbound
	why  string  // unbound reason
}

// Bind matches a schema against a trace scope tree. The schema's extern
// designation locates the target scope; the schema tree is then walked
// depth first, matching child names against scope names and signal names
// against declarations, by exact name equality at each level.
//
// Matching the same name against several sibling scopes, or against
// several declarations with distinct identifiers, is an
// AmbiguousBindingError in every mode. A missing match is a BindingError
// in strict mode and an unbound element in partial mode.
//
func Bind(schema *Schema, root *Scope, mode BindMode) (*Binding, error) {
	if err := schema.normalize(); err != nil {
		return nil, err
	}
	target, err := resolveExtern(schema.Extern, root)
	if err != nil {
		return nil, err
	}
	b := &Binding{
		schema: schema,
		target: target,
		mode:   mode,
		byPath: make(map[string]*bindSignal),
	}
	b.root, err = b.bindBlock(&schema.Block, target, "")
	if err != nil {
		return nil, err
	}
	return b, nil
}

// resolveExtern locates the target scope. A dotted extern is walked from
// the root; a bare extern is searched over the whole tree and must match
// exactly one scope.
func resolveExtern(extern string, root *Scope) (*Scope, error) {
	if strings.Contains(extern, ".") {
		cur := root
		for _, seg := range strings.Split(extern, ".") {
			matches := cur.childrenNamed(seg)
			switch len(matches) {
			case 0:
				return nil, &BindingError{Path: extern, Reason: fmt.Sprintf("no scope named %q under %q", seg, cur.Name)}
			case 1:
				cur = matches[0]
			default:
				return nil, &BindingError{Path: extern, Reason: fmt.Sprintf("%d scopes named %q under %q", len(matches), seg, cur.Name)}
			}
		}
		return cur, nil
	}
	matches := root.findNamed(extern, nil)
	switch len(matches) {
	case 0:
		return nil, &BindingError{Path: extern, Reason: "no scope matches the extern designation"}
	case 1:
		return matches[0], nil
	}
	return nil, &BindingError{Path: extern, Reason: fmt.Sprintf("%d scopes match the extern designation", len(matches))}
}

func (b *Binding) bindBlock(blk *Block, sc *Scope, path string) (*bindNode, error) {
	node := &bindNode{block: blk, scope: sc}
	node.signals = make([]bindSignal, 0, len(blk.Signals))
	for _, spec := range blk.Signals {
		bs := bindSignal{spec: spec, path: joinPath(path, spec.Name)}
		switch {
		case sc == nil:
			bs.why = "enclosing scope not found"
		default:
			matches := sc.signalsNamed(spec.Name)
			if n := distinctIDs(matches); n > 1 {
				return nil, &AmbiguousBindingError{Path: bs.path, Name: spec.Name, Matches: n}
			}
			switch {
			case len(matches) == 0:
				if b.mode == BindStrict {
					return nil, &BindingError{Path: bs.path, Reason: "no matching signal declaration"}
				}
				bs.why = "no matching signal declaration"
			case matches[0].Width != spec.Width:
				why := fmt.Sprintf("width mismatch (schema %d, trace %d)", spec.Width, matches[0].Width)
				if b.mode == BindStrict {
					return nil, &BindingError{Path: bs.path, Reason: why}
				}
				bs.why = why
			default:
				bs.sig = matches[0]
			}
		}
		node.signals = append(node.signals, bs)
		b.byPath[bs.path] = &node.signals[len(node.signals)-1]
	}
	for _, child := range blk.Children {
		cpath := joinPath(path, child.Name)
		var csc *Scope
		if sc != nil {
			matches := sc.childrenNamed(child.Name)
			switch {
			case len(matches) > 1:
				return nil, &AmbiguousBindingError{Path: cpath, Name: child.Name, Matches: len(matches)}
			case len(matches) == 1:
				csc = matches[0]
			case b.mode == BindStrict:
				return nil, &BindingError{Path: cpath, Reason: "no matching scope"}
			}
		}
		cn, err := b.bindBlock(child, csc, cpath)
		if err != nil {
			return nil, err
		}
		node.children = append(node.children, cn)
	}
	return node, nil
}

// distinctIDs counts the distinct trace identifiers among declarations.
// Duplicate declarations sharing one identifier are aliases of the same
// signal and bind cleanly.
func distinctIDs(sigs []*Signal) int {
	switch len(sigs) {
	case 0, 1:
		return len(sigs)
	}
	ids := make(map[string]struct{}, len(sigs))
	for _, s := range sigs {
		ids[s.ID] = struct{}{}
	}
	return len(ids)
}

// Target returns the trace scope the schema's extern designation
// resolved to.
//
func (b *Binding) Target() *Scope { return b.target }

// Mode returns the binding mode the binding was computed under.
//
func (b *Binding) Mode() BindMode { return b.mode }

// Descriptor returns the trace signal declaration bound to a schema
// path. ok is false when the path is unknown or unbound.
//
func (b *Binding) Descriptor(path string) (Signal, bool) {
	bs, ok := b.byPath[path]
	if !ok || bs.sig == nil {
		return Signal{}, false
	}
	return *bs.sig, true
}

// Unbound returns the schema paths that did not bind, in schema
// declaration order, with the reason for each.
//
func (b *Binding) Unbound() []UnboundPath {
	var out []UnboundPath
	b.root.visit(func(bs *bindSignal) {
		if bs.sig == nil {
			out = append(out, UnboundPath{Path: bs.path, Reason: bs.why})
		}
	})
	return out
}

// UnboundPath names a schema signal that stayed unbound and why.
//
type UnboundPath struct {
	Path   string
	Reason string
}

func (n *bindNode) visit(fn func(*bindSignal)) {
	for i := range n.signals {
		fn(&n.signals[i])
	}
	for _, c := range n.children {
		c.visit(fn)
	}
}
