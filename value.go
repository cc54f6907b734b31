// Copyright 2025 The zuspec authors
// Licensed under the MIT license. See license text in the LICENSE file.

package trace

import (
	"math"
	"math/big"

	"github.com/pkg/errors"
)

// ValueKind classifies a signal's value domain as declared by the trace.
//
type ValueKind uint8

const (
	// KindVector is a multi-bit logic vector. Single-bit declarations use
	// KindScalar.
	KindVector ValueKind = iota
	KindScalar
	// KindReal is a 64-bit floating point value carried in the bit plane
	// as its IEEE-754 representation.
	KindReal
	// KindEnum is a symbolic value domain. No shipped decoder produces it;
	// it exists for decoder variants over formats that declare enums.
	KindEnum
)

func (k ValueKind) String() string {
	switch k {
	case KindVector:
		return "vector"
	case KindScalar:
		return "scalar"
	case KindReal:
		return "real"
	case KindEnum:
		return "enum"
	}
	return "unknown"
}

// Logic is the state of a single bit. High-impedance and undefined states
// are preserved as-is from the trace and compare like any other state.
//
type Logic uint8

const (
	Lo Logic = iota
	Hi
	HiZ
	Undef
)

func (l Logic) String() string {
	switch l {
	case Lo:
		return "0"
	case Hi:
		return "1"
	case HiZ:
		return "z"
	}
	return "x"
}

func (l Logic) digit() byte {
	switch l {
	case Lo:
		return '0'
	case Hi:
		return '1'
	case HiZ:
		return 'z'
	}
	return 'x'
}

// Value is a fixed-width four-state logic value. Each bit is one of
// Lo, Hi, HiZ or Undef, stored as bit/hiz/undef planes. Values up to 64
// bits wide use fixed planes; wider values spill into big.Int planes.
//
// A bit marked z or x has a zero bit in the other planes, so two Values
// are equal exactly when their widths and planes are equal.
//
type Value struct {
	width int
	bits  uint64
	hiz   uint64
	undef uint64
	wide  *widePlanes // nil when width <= 64
}

type widePlanes struct {
	bits  big.Int
	hiz   big.Int
	undef big.Int
}

// Unknown returns a value of the given width with every bit undefined.
// It panics if width is not positive.
//
func Unknown(width int) Value {
	if width <= 0 {
		panic(errors.Errorf("invalid value width %d", width))
	}
	if width <= 64 {
		return Value{width: width, undef: mask64(width)}
	}
	v := Value{width: width, wide: new(widePlanes)}
	v.wide.undef.Lsh(bigOne, uint(width))
	v.wide.undef.Sub(&v.wide.undef, bigOne)
	return v
}

// ParseValue parses a most-significant-bit-first string of the digits
// 0, 1, x and z into a value of width len(digits).
//
func ParseValue(digits string) (Value, error) {
	w := len(digits)
	if w == 0 {
		return Value{}, errors.New("empty value")
	}
	if w <= 64 {
		var v Value
		v.width = w
		for i := 0; i < w; i++ {
			v.bits <<= 1
			v.hiz <<= 1
			v.undef <<= 1
			switch digits[i] {
			case '0':
			case '1':
				v.bits |= 1
			case 'z', 'Z':
				v.hiz |= 1
			case 'x', 'X':
				v.undef |= 1
			default:
				return Value{}, errors.Errorf("invalid value digit %q", digits[i])
			}
		}
		return v, nil
	}
	v := Value{width: w, wide: new(widePlanes)}
	for i := 0; i < w; i++ {
		bit := w - 1 - i
		switch digits[i] {
		case '0':
		case '1':
			v.wide.bits.SetBit(&v.wide.bits, bit, 1)
		case 'z', 'Z':
			v.wide.hiz.SetBit(&v.wide.hiz, bit, 1)
		case 'x', 'X':
			v.wide.undef.SetBit(&v.wide.undef, bit, 1)
		default:
			return Value{}, errors.Errorf("invalid value digit %q", digits[i])
		}
	}
	return v, nil
}

// RealValue returns a 64-bit value holding the IEEE-754 representation
// of f.
//
func RealValue(f float64) Value {
	return Value{width: 64, bits: math.Float64bits(f)}
}

// Width returns the number of bits in the value. The zero Value has
// width 0 and carries no bits.
//
func (v Value) Width() int { return v.width }

// Bit returns the state of bit i, with bit 0 the least significant.
// It panics if i is out of range.
//
func (v Value) Bit(i int) Logic {
	if i < 0 || i >= v.width {
		panic(errors.Errorf("bit index %d out of range for width %d", i, v.width))
	}
	if v.wide != nil {
		switch {
		case v.wide.undef.Bit(i) != 0:
			return Undef
		case v.wide.hiz.Bit(i) != 0:
			return HiZ
		case v.wide.bits.Bit(i) != 0:
			return Hi
		}
		return Lo
	}
	m := uint64(1) << uint(i)
	switch {
	case v.undef&m != 0:
		return Undef
	case v.hiz&m != 0:
		return HiZ
	case v.bits&m != 0:
		return Hi
	}
	return Lo
}

// Known reports whether the value contains no x or z bits.
//
func (v Value) Known() bool {
	if v.wide != nil {
		return v.wide.hiz.Sign() == 0 && v.wide.undef.Sign() == 0
	}
	return v.hiz|v.undef == 0
}

// Uint64 returns the value as an unsigned integer. ok is false when the
// value is wider than 64 bits or contains x or z bits.
//
func (v Value) Uint64() (u uint64, ok bool) {
	if v.width > 64 || !v.Known() {
		return 0, false
	}
	return v.bits, true
}

// Real interprets the bit plane as an IEEE-754 double. Only meaningful
// for values produced from real-kind signals.
//
func (v Value) Real() float64 {
	if v.wide != nil {
		return math.Float64frombits(v.wide.bits.Uint64())
	}
	return math.Float64frombits(v.bits)
}

// Equal reports whether v and o have the same width and the same state
// for every bit.
//
func (v Value) Equal(o Value) bool {
	if v.width != o.width {
		return false
	}
	if v.wide != nil {
		return v.wide.bits.Cmp(&o.wide.bits) == 0 &&
			v.wide.hiz.Cmp(&o.wide.hiz) == 0 &&
			v.wide.undef.Cmp(&o.wide.undef) == 0
	}
	return v.bits == o.bits && v.hiz == o.hiz && v.undef == o.undef
}

// String renders the value as most-significant-bit-first digits from
// {0, 1, x, z}. The zero Value renders as an empty string.
//
func (v Value) String() string {
	buf := make([]byte, v.width)
	for i := 0; i < v.width; i++ {
		buf[i] = v.Bit(v.width - 1 - i).digit()
	}
	return string(buf)
}

// extendTo widens v to width w using value-change-dump extension rules:
// a 0 or 1 top bit extends with 0, an x or z top bit extends with x or z.
// The caller guarantees w >= v.width.
//
func (v Value) extendTo(w int) Value {
	if w <= v.width {
		return v
	}
	fill := v.Bit(v.width - 1)
	if fill == Hi {
		fill = Lo
	}
	if w <= 64 {
		nv := v
		nv.width = w
		upper := (^uint64(0) << uint(v.width)) & mask64(w)
		switch fill {
		case HiZ:
			nv.hiz |= upper
		case Undef:
			nv.undef |= upper
		}
		return nv
	}
	nv := Value{width: w, wide: new(widePlanes)}
	if v.wide != nil {
		nv.wide.bits.Set(&v.wide.bits)
		nv.wide.hiz.Set(&v.wide.hiz)
		nv.wide.undef.Set(&v.wide.undef)
	} else {
		nv.wide.bits.SetUint64(v.bits)
		nv.wide.hiz.SetUint64(v.hiz)
		nv.wide.undef.SetUint64(v.undef)
	}
	if fill != Lo {
		pl := &nv.wide.hiz
		if fill == Undef {
			pl = &nv.wide.undef
		}
		for i := v.width; i < w; i++ {
			pl.SetBit(pl, i, 1)
		}
	}
	return nv
}

func mask64(w int) uint64 {
	return ^uint64(0) >> uint(64-w)
}

var bigOne = big.NewInt(1)
