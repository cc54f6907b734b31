package trace_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	trace "github.com/zuspec/zuspec-be-trace"
)

func TestParseValue(t *testing.T) {
	v, err := trace.ParseValue("01xz")
	require.NoError(t, err)
	require.Equal(t, 4, v.Width())
	require.Equal(t, "01xz", v.String())

	// digits are most significant bit first
	require.Equal(t, trace.Lo, v.Bit(3))
	require.Equal(t, trace.Hi, v.Bit(2))
	require.Equal(t, trace.Undef, v.Bit(1))
	require.Equal(t, trace.HiZ, v.Bit(0))

	_, err = trace.ParseValue("")
	require.Error(t, err)
	_, err = trace.ParseValue("01b")
	require.Error(t, err)
}

func TestValueUint64(t *testing.T) {
	v, err := trace.ParseValue("0101")
	require.NoError(t, err)
	require.True(t, v.Known())
	u, ok := v.Uint64()
	require.True(t, ok)
	require.Equal(t, uint64(5), u)

	v, err = trace.ParseValue("01xz")
	require.NoError(t, err)
	require.False(t, v.Known())
	_, ok = v.Uint64()
	require.False(t, ok)
}

func TestValueWide(t *testing.T) {
	digits := "1"
	for i := 0; i < 79; i++ {
		digits += "0"
	}
	v, err := trace.ParseValue(digits)
	require.NoError(t, err)
	require.Equal(t, 80, v.Width())
	require.Equal(t, digits, v.String())
	require.Equal(t, trace.Hi, v.Bit(79))
	require.Equal(t, trace.Lo, v.Bit(0))
	require.True(t, v.Known())

	// too wide for Uint64 even when fully known
	_, ok := v.Uint64()
	require.False(t, ok)

	mixed := "z" + digits[:79] + "x"
	v, err = trace.ParseValue(mixed)
	require.NoError(t, err)
	require.Equal(t, mixed, v.String())
	require.False(t, v.Known())
}

func TestValueUnknown(t *testing.T) {
	v := trace.Unknown(3)
	require.Equal(t, "xxx", v.String())
	require.False(t, v.Known())

	v = trace.Unknown(70)
	require.Equal(t, 70, v.Width())
	for i := 0; i < 70; i++ {
		require.Equal(t, trace.Undef, v.Bit(i))
	}

	require.Panics(t, func() { trace.Unknown(0) })
}

func TestValueReal(t *testing.T) {
	v := trace.RealValue(3.14)
	require.Equal(t, 64, v.Width())
	require.Equal(t, 3.14, v.Real())
	require.True(t, v.Known())
}

func TestValueEqual(t *testing.T) {
	a, _ := trace.ParseValue("0z")
	b, _ := trace.ParseValue("0z")
	c, _ := trace.ParseValue("0x")
	d, _ := trace.ParseValue("00z")
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(d))

	// wide values compare by planes too
	const wide = "x0101010101010101010101010101010101010101010101010101010101010101"
	w1, _ := trace.ParseValue(wide)
	w2, _ := trace.ParseValue(wide)
	w3, _ := trace.ParseValue("z" + wide[1:])
	require.True(t, w1.Equal(w2))
	require.False(t, w1.Equal(w3))
}

func TestValueBitRange(t *testing.T) {
	v, _ := trace.ParseValue("10")
	require.Panics(t, func() { v.Bit(2) })
	require.Panics(t, func() { v.Bit(-1) })
}

func TestLogicString(t *testing.T) {
	require.Equal(t, "0", trace.Lo.String())
	require.Equal(t, "1", trace.Hi.String())
	require.Equal(t, "z", trace.HiZ.String())
	require.Equal(t, "x", trace.Undef.String())
}

func TestValueKindString(t *testing.T) {
	require.Equal(t, "vector", trace.KindVector.String())
	require.Equal(t, "scalar", trace.KindScalar.String())
	require.Equal(t, "real", trace.KindReal.String())
	require.Equal(t, "enum", trace.KindEnum.String())
}
