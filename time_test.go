package trace_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	trace "github.com/zuspec/zuspec-be-trace"
)

func TestParseUnit(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out trace.Unit
	}{
		{"fs", trace.Fs},
		{"ps", trace.Ps},
		{"ns", trace.Ns},
		{"us", trace.Us},
		{"ms", trace.Ms},
		{"s", trace.S},
	} {
		u, err := trace.ParseUnit(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.out, u, tc.in)
		require.Equal(t, tc.in, u.String())
	}

	_, err := trace.ParseUnit("ks")
	require.Error(t, err)
	_, err = trace.ParseUnit("")
	require.Error(t, err)
}

func TestParseTimescale(t *testing.T) {
	for _, tc := range []struct {
		in    string
		scale uint64
		unit  trace.Unit
	}{
		{"1ns", 1, trace.Ns},
		{"10 ns", 10, trace.Ns},
		{"100ps", 100, trace.Ps},
		{" 1 us ", 1, trace.Us},
		{"25fs", 25, trace.Fs},
	} {
		ts, err := trace.ParseTimescale(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, trace.Timescale{Scale: tc.scale, Unit: tc.unit}, ts, tc.in)
	}

	for _, in := range []string{"", "ns", "0ns", "1 lightyear", "1", "-1ns"} {
		_, err := trace.ParseTimescale(in)
		require.Error(t, err, in)
	}
}

func TestTimescaleString(t *testing.T) {
	require.Equal(t, "10ns", trace.Timescale{Scale: 10, Unit: trace.Ns}.String())
	require.True(t, trace.Timescale{}.IsZero())
	require.False(t, trace.Timescale{Scale: 1, Unit: trace.Fs}.IsZero())
}
