package trace

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SignalSpec declares one signal or port of a schema block. Width
// defaults to 1. Kind is informational; binding matches on name and
// width only.
//
type SignalSpec struct {
	Name  string    `yaml:"name"`
	Width int       `yaml:"width"`
	Kind  ValueKind `yaml:"kind"`
}

// Block describes one component kind: its declared signals and nested
// child components, both in declaration order.
//
type Block struct {
	Name     string       `yaml:"name"`
	Signals  []SignalSpec `yaml:"signals"`
	Children []*Block     `yaml:"children"`
}

// Schema is the structural contract of a target component: an extern
// designation locating it inside a trace, plus the declared block tree.
// The extern is either a bare scope name, looked up anywhere in the
// trace, or a dotted path walked from the trace root.
//
type Schema struct {
	Extern string `yaml:"extern"`
	Block  `yaml:",inline"`
}

// UnmarshalYAML accepts the kind names vector, scalar, real and enum.
//
func (k *ValueKind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := parseValueKind(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func parseValueKind(s string) (ValueKind, error) {
	switch s {
	case "", "vector":
		return KindVector, nil
	case "scalar":
		return KindScalar, nil
	case "real":
		return KindReal, nil
	case "enum":
		return KindEnum, nil
	}
	return 0, errors.Errorf("unknown value kind %q", s)
}

// ParseSchema parses a YAML schema document.
//
//	extern: top.dut
//	signals:
//	  - name: count
//	    width: 2
//	children:
//	  - name: sub
//	    signals:
//	      - {name: sig, width: 8}
//
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse schema")
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSchema reads and parses a YAML schema file.
//
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load schema")
	}
	s, err := ParseSchema(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return s, nil
}

// DeriveSchema builds a schema mirroring a trace scope subtree, binding
// every declared signal. extern locates the target; pass the scope's own
// name (or a dotted path when the name is not unique in the trace).
// Repeated declarations of one name inside a scope collapse to a single
// schema entry; aliases then bind cleanly while truly ambiguous
// declarations still fail at bind time.
//
func DeriveSchema(target *Scope, extern string) *Schema {
	s := &Schema{Extern: extern, Block: *deriveBlock(target)}
	return s
}

func deriveBlock(sc *Scope) *Block {
	b := &Block{Name: sc.Name}
	seen := make(map[string]struct{}, len(sc.Signals)+len(sc.Children))
	for _, sig := range sc.Signals {
		if _, dup := seen[sig.Name]; dup {
			continue
		}
		seen[sig.Name] = struct{}{}
		b.Signals = append(b.Signals, SignalSpec{Name: sig.Name, Width: sig.Width, Kind: sig.Kind})
	}
	for _, c := range sc.Children {
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		b.Children = append(b.Children, deriveBlock(c))
	}
	return b
}

// normalize validates the schema and applies defaults: empty extern is
// an error, signal widths default to 1, the root block name defaults to
// the last extern segment. Sibling names must be unique on the schema
// side; trace-side duplicates are the binder's concern.
func (s *Schema) normalize() error {
	if s.Extern == "" {
		return errors.New("schema: missing extern designation")
	}
	if s.Name == "" {
		segs := strings.Split(s.Extern, ".")
		s.Name = segs[len(segs)-1]
	}
	return s.Block.normalize(s.Name)
}

func (b *Block) normalize(path string) error {
	seen := make(map[string]struct{}, len(b.Signals)+len(b.Children))
	for i := range b.Signals {
		sig := &b.Signals[i]
		if sig.Name == "" {
			return errors.Errorf("schema: unnamed signal in %s", path)
		}
		if sig.Width == 0 {
			sig.Width = 1
		}
		if sig.Width < 0 {
			return errors.Errorf("schema: invalid width %d for %s", sig.Width, joinPath(path, sig.Name))
		}
		if _, dup := seen[sig.Name]; dup {
			return errors.Errorf("schema: duplicate name %q in %s", sig.Name, path)
		}
		seen[sig.Name] = struct{}{}
	}
	for _, c := range b.Children {
		if c.Name == "" {
			return errors.Errorf("schema: unnamed child in %s", path)
		}
		if _, dup := seen[c.Name]; dup {
			return errors.Errorf("schema: duplicate name %q in %s", c.Name, path)
		}
		seen[c.Name] = struct{}{}
		if err := c.normalize(joinPath(path, c.Name)); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
