package vcd_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	trace "github.com/zuspec/zuspec-be-trace"
	"github.com/zuspec/zuspec-be-trace/vcd"
)

const counterHeader = `$timescale 1ns $end
$scope module top $end
$var wire 1 ! clk $end
$var wire 2 % count $end
$upscope $end
$enddefinitions $end
`

// drain parses counterHeader plus body and decodes events until EOF or
// the first error.
func drain(t *testing.T, body string) ([]trace.Event, error) {
	t.Helper()
	tr, err := vcd.New(strings.NewReader(counterHeader + body))
	require.NoError(t, err)
	rd, err := tr.Events()
	require.NoError(t, err)
	var out []trace.Event
	for {
		ev, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}

func TestEvents(t *testing.T) {
	tr, err := vcd.Open("testdata/counter.vcd")
	require.NoError(t, err)
	defer tr.Close()

	rd, err := tr.Events()
	require.NoError(t, err)

	var evs []trace.Event
	for {
		ev, err := rd.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		evs = append(evs, ev)
	}
	require.Len(t, evs, 11)

	// the $dumpvars section holds the initial values at #0
	require.Equal(t, uint64(0), evs[0].Time)
	require.Equal(t, "!", evs[0].ID)
	require.Equal(t, "0", evs[0].Value.String())
	require.Equal(t, "%", evs[1].ID)
	require.Equal(t, "00", evs[1].Value.String())
	require.Equal(t, "~", evs[2].ID)
	require.Equal(t, 25.5, evs[2].Value.Real())

	require.Equal(t, uint64(5), evs[3].Time)
	require.Equal(t, "1", evs[3].Value.String())

	last := evs[len(evs)-1]
	require.Equal(t, uint64(20), last.Time)
	require.Equal(t, "%", last.ID)
	require.Equal(t, "11", last.Value.String())

	// the cursor is spent
	_, err = rd.Next()
	require.Equal(t, io.EOF, err)
}

func TestEventsSinglePass(t *testing.T) {
	tr, err := vcd.New(strings.NewReader(counterHeader + "#0\n0!\n"))
	require.NoError(t, err)

	_, err = tr.Events()
	require.NoError(t, err)
	_, err = tr.Events()
	require.Error(t, err)
}

func TestScalarStates(t *testing.T) {
	evs, err := drain(t, "#0\n0!\n1!\nx!\nZ!\nX%\nz%\n")
	require.NoError(t, err)

	var vals []string
	for _, ev := range evs {
		vals = append(vals, ev.Value.String())
	}
	require.Equal(t, []string{"0", "1", "x", "z", "x", "z"}, vals)
}

func TestVectorAndRealChanges(t *testing.T) {
	wide := strings.Repeat("10", 40) // 80 bits
	evs, err := drain(t, "#1\nb1010 %\nB01 %\nr3.5e-2 !\nb"+wide+" %\n")
	require.NoError(t, err)
	require.Len(t, evs, 4)

	require.Equal(t, "1010", evs[0].Value.String())
	require.Equal(t, "01", evs[1].Value.String())
	require.Equal(t, 3.5e-2, evs[2].Value.Real())
	require.Equal(t, wide, evs[3].Value.String())
	require.Equal(t, 80, evs[3].Value.Width())
}

// Dump section markers are skipped while their value entries decode as
// ordinary changes at the current timestamp.
func TestDumpSections(t *testing.T) {
	body := `$dumpvars
0!
$end
#10
$dumpoff
x!
$end
#20
$dumpon
1!
$end
#30
$dumpall
0!
$end
$comment power cycled $end
#40
1!
`
	evs, err := drain(t, body)
	require.NoError(t, err)
	require.Len(t, evs, 5)

	times := []uint64{0, 10, 20, 30, 40}
	vals := []string{"0", "x", "1", "0", "1"}
	for i, ev := range evs {
		require.Equal(t, times[i], ev.Time, i)
		require.Equal(t, vals[i], ev.Value.String(), i)
		require.Equal(t, "!", ev.ID, i)
	}
}

func TestBodyErrors(t *testing.T) {
	var fe *trace.FormatError

	for name, body := range map[string]string{
		"decreasing timestamp": "#5\n1!\n#3\n0!\n",
		"malformed timestamp":  "#nope\n",
		"scalar without id":    "#0\n1\n",
		"string change":        "#0\nsRUNNING !\n",
		"stray token":          "#0\nq!\n",
		"bad vector digits":    "#0\nb01f2 %\n",
		"empty vector":         "#0\nb %\n",
		"bad real":             "#0\nrfast !\n",
		"vector at eof":        "#0\nb01\n",
	} {
		_, err := drain(t, body)
		require.ErrorAs(t, err, &fe, name)
	}
}

// After a format error the reader is stuck on it.
func TestReaderLatchesError(t *testing.T) {
	tr, err := vcd.New(strings.NewReader(counterHeader + "#5\n1!\n#3\n"))
	require.NoError(t, err)
	rd, err := tr.Events()
	require.NoError(t, err)

	_, err = rd.Next()
	require.NoError(t, err)

	_, err1 := rd.Next()
	require.Error(t, err1)
	_, err2 := rd.Next()
	require.Equal(t, err1, err2)
}

func TestBodyErrorLine(t *testing.T) {
	// counterHeader is six lines, the offending #3 sits on line 9
	_, err := drain(t, "#5\n1!\n#3\n")
	var fe *trace.FormatError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, 9, fe.Line)
	require.Contains(t, fe.Reason, "#3")
}

// End to end: a file-backed trace replayed through a derived schema.
func TestReplayFromFile(t *testing.T) {
	src, err := vcd.Open("testdata/counter.vcd")
	require.NoError(t, err)

	schema := trace.DeriveSchema(src.Scope().Lookup("top"), "top")
	model, sched, err := trace.Construct(schema, src)
	require.NoError(t, err)
	defer sched.Close()

	require.Equal(t, []string{"clk", "dut.count", "dut.temp"}, model.Paths())

	now, err := sched.RunToEnd()
	require.NoError(t, err)
	require.Equal(t, trace.Time(20), now)

	require.Equal(t, "0", model.Cell("clk").Value().String())
	require.Equal(t, "11", model.Cell("dut.count").Value().String())
	require.Equal(t, 26.0, model.Cell("dut.temp").Value().Real())
	require.Equal(t, trace.Time(20), model.Cell("clk").LastUpdate())
	require.Equal(t, trace.Time(15), model.Cell("dut.temp").LastUpdate())
}
