// Copyright 2025 The zuspec authors
// Licensed under the MIT license. See license text in the LICENSE file.

package trace

import (
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Time is a point in simulated time, counted in units of the output
// timebase. Cells report -1 as their last update time until the first
// event reaches them.
//
type Time int64

// Unit is a decimal time unit from femtoseconds to seconds.
//
type Unit uint8

const (
	Fs Unit = iota
	Ps
	Ns
	Us
	Ms
	S
)

// femtos per unit, indexed by Unit.
var unitFemtos = [...]uint64{1, 1e3, 1e6, 1e9, 1e12, 1e15}

var unitNames = [...]string{"fs", "ps", "ns", "us", "ms", "s"}

func (u Unit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return "unit(" + strconv.Itoa(int(u)) + ")"
}

// ParseUnit parses one of fs, ps, ns, us, ms, s.
//
func ParseUnit(s string) (Unit, error) {
	for i, n := range unitNames {
		if s == n {
			return Unit(i), nil
		}
	}
	return 0, errors.Errorf("unknown time unit %q", s)
}

// Timescale is a time quantum: Scale counts of Unit. The trace's native
// timescale fixes the meaning of event timestamps; the output timescale
// (the timebase) fixes the meaning of Time values reported by the model.
// The zero Timescale means "unset".
//
type Timescale struct {
	Scale uint64
	Unit  Unit
}

func (ts Timescale) String() string {
	return strconv.FormatUint(ts.Scale, 10) + ts.Unit.String()
}

// IsZero reports whether the timescale is unset.
//
func (ts Timescale) IsZero() bool { return ts.Scale == 0 }

// femtos returns the quantum in femtoseconds.
func (ts Timescale) femtos() (uint64, error) {
	if ts.Scale == 0 {
		return 0, errors.New("zero timescale")
	}
	if int(ts.Unit) >= len(unitFemtos) {
		return 0, errors.Errorf("unknown time unit %d", ts.Unit)
	}
	hi, lo := bits.Mul64(ts.Scale, unitFemtos[ts.Unit])
	if hi != 0 {
		return 0, errors.Errorf("timescale %s overflows", ts)
	}
	return lo, nil
}

// ParseTimescale parses a quantum like "1ns", "10 ns" or "100ps".
//
func ParseTimescale(s string) (Timescale, error) {
	t := strings.TrimSpace(s)
	i := 0
	for i < len(t) && '0' <= t[i] && t[i] <= '9' {
		i++
	}
	if i == 0 {
		return Timescale{}, errors.Errorf("invalid timescale %q", s)
	}
	scale, err := strconv.ParseUint(t[:i], 10, 64)
	if err != nil {
		return Timescale{}, errors.Wrapf(err, "invalid timescale %q", s)
	}
	if scale == 0 {
		return Timescale{}, errors.Errorf("invalid timescale %q", s)
	}
	u, err := ParseUnit(strings.TrimSpace(t[i:]))
	if err != nil {
		return Timescale{}, errors.Wrapf(err, "invalid timescale %q", s)
	}
	return Timescale{Scale: scale, Unit: u}, nil
}

// scaler converts native tick counts to output time. The ratio between
// the two quanta is kept as a reduced fraction so conversion is exact up
// to the final floor division.
type scaler struct {
	num, den uint64
	native   Timescale
	output   Timescale
}

func newScaler(native, output Timescale) (scaler, error) {
	nf, err := native.femtos()
	if err != nil {
		return scaler{}, &TimebaseError{Native: native, Output: output, Reason: "native: " + err.Error()}
	}
	of, err := output.femtos()
	if err != nil {
		return scaler{}, &TimebaseError{Native: native, Output: output, Reason: err.Error()}
	}
	g := gcd(nf, of)
	return scaler{num: nf / g, den: of / g, native: native, output: output}, nil
}

// convert maps a native tick count to output time, flooring when the
// ratio is inexact.
func (sc scaler) convert(ticks uint64) (Time, error) {
	hi, lo := bits.Mul64(ticks, sc.num)
	if hi >= sc.den {
		return 0, &TimebaseError{Native: sc.native, Output: sc.output, Reason: "converted time overflows"}
	}
	q, _ := bits.Div64(hi, lo, sc.den)
	if q > math.MaxInt64 {
		return 0, &TimebaseError{Native: sc.native, Output: sc.output, Reason: "converted time overflows"}
	}
	return Time(q), nil
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
