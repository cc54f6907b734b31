// Copyright 2025 The zuspec authors
// Licensed under the MIT license. See license text in the LICENSE file.

package trace

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SchemaOf derives a schema from a tagged struct. Signals and child
// components are identified by field tags; untagged fields are ignored.
//
// The field tag is `trace:"name"` with optional options:
//
//	Count uint8 `trace:"count"`          // signal, width from the field type
//	Wide  uint64 `trace:"data,width=48"` // explicit width
//	Temp  float64 `trace:"temp"`         // real, width 64
//	Sub   SubBlock `trace:"sub"`         // nested component
//
// An empty name defaults to the lowercased field name. Supported field
// types are bool (width 1), fixed-size integers (width from the type),
// float64 (real), arrays of bool (width from the length), and structs or
// pointers to structs for nested components. SchemaOf panics on any
// other tagged type; a malformed schema struct is a programming error.
//
func SchemaOf(v interface{}, extern string) *Schema {
	typ := reflect.TypeOf(v)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if k := typ.Kind(); k != reflect.Struct {
		panic(errors.Errorf("unsupported type %q for %q", k, typ.Name()))
	}
	s := &Schema{Extern: extern, Block: *blockOf(typ, typ.Name())}
	if err := s.normalize(); err != nil {
		panic(err)
	}
	return s
}

func blockOf(typ reflect.Type, name string) *Block {
	b := &Block{Name: name}
	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("trace")
		if !ok || tag == "-" {
			continue
		}
		sname := strings.ToLower(f.Name)
		width := 0
		kind := ValueKind(0)
		kindSet := false
		for j, opt := range strings.Split(tag, ",") {
			if j == 0 {
				if opt != "" {
					sname = opt
				}
				continue
			}
			switch {
			case strings.HasPrefix(opt, "width="):
				w, err := strconv.Atoi(opt[len("width="):])
				if err != nil || w <= 0 {
					panic(errors.Errorf("invalid width in tag %q for field %q in %q", tag, f.Name, typ.Name()))
				}
				width = w
			case strings.HasPrefix(opt, "kind="):
				k, err := parseValueKind(opt[len("kind="):])
				if err != nil {
					panic(errors.Wrapf(err, "tag %q for field %q in %q", tag, f.Name, typ.Name()))
				}
				kind = k
				kindSet = true
			default:
				panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
			}
		}

		ft := f.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		switch k := ft.Kind(); {
		case k == reflect.Struct:
			b.Children = append(b.Children, blockOf(ft, sname))
			continue
		case k == reflect.Bool:
			if width == 0 {
				width = 1
			}
		case k >= reflect.Int && k <= reflect.Int64 || k >= reflect.Uint && k <= reflect.Uint64:
			if width == 0 {
				width = ft.Bits()
			}
		case k == reflect.Float64:
			if width == 0 {
				width = 64
			}
			if !kindSet {
				kind = KindReal
			}
		case k == reflect.Array && ft.Elem().Kind() == reflect.Bool:
			// bus
			if width == 0 {
				width = ft.Len()
			}
		default:
			panic(errors.Errorf("unsupported type %q for field %q in %q", k, f.Name, typ.Name()))
		}
		if !kindSet && kind != KindReal && width == 1 {
			kind = KindScalar
		}
		b.Signals = append(b.Signals, SignalSpec{Name: sname, Width: width, Kind: kind})
	}
	return b
}
