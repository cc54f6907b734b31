package trace_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	trace "github.com/zuspec/zuspec-be-trace"
	"github.com/zuspec/zuspec-be-trace/tracetest"
)

// counterSource returns a 2-bit counter trace at 1ns: count is "00" at
// #0, "01" then "10" inside #10, and "11" at #20.
func counterSource() *tracetest.Source {
	return tracetest.NewBuilder().
		Scope("top").Signal("count", 2, "%").End().
		At(0).Change("%", "00").
		At(10).Change("%", "01").Change("%", "10").
		At(20).Change("%", "11").
		Source()
}

func counterSchema() *trace.Schema {
	return &trace.Schema{
		Extern: "top",
		Block:  trace.Block{Signals: []trace.SignalSpec{{Name: "count", Width: 2}}},
	}
}

func TestModelShape(t *testing.T) {
	src := tracetest.NewBuilder().
		Scope("top").
		Signal("clk", 1, "!").
		Scope("sub").Signal("bus", 8, "#").End().
		End().
		Source()
	schema := &trace.Schema{
		Extern: "top",
		Block: trace.Block{
			Signals: []trace.SignalSpec{{Name: "clk", Width: 1}},
			Children: []*trace.Block{
				{Name: "sub", Signals: []trace.SignalSpec{{Name: "bus", Width: 8}}},
			},
		},
	}

	model, sched, err := trace.Construct(schema, src)
	require.NoError(t, err)
	defer sched.Close()

	root := model.Root()
	require.Equal(t, "top", root.Name())
	require.Equal(t, "", root.Path())
	require.True(t, root.Bound())
	require.Len(t, root.Cells(), 1)
	require.Len(t, root.Children(), 1)

	sub := root.Children()[0]
	require.Equal(t, "sub", sub.Name())
	require.Equal(t, "sub", sub.Path())
	require.Same(t, root, model.Component(""))
	require.Same(t, sub, model.Component("sub"))
	require.Nil(t, model.Component("nosuch"))

	require.Equal(t, []string{"clk", "sub.bus"}, model.Paths())
	require.Empty(t, model.UnboundPaths())

	bus := model.Cell("sub.bus")
	require.NotNil(t, bus)
	require.Equal(t, "sub.bus", bus.Path())
	require.Equal(t, 8, bus.Width())
	require.Equal(t, trace.KindVector, bus.Kind())
	require.True(t, bus.Bound())
	sig, ok := bus.Descriptor()
	require.True(t, ok)
	require.Equal(t, "#", sig.ID)

	// initial state: all bits undefined, never updated
	require.Equal(t, "xxxxxxxx", bus.Value().String())
	require.Equal(t, trace.Time(-1), bus.LastUpdate())
	require.Empty(t, bus.History())

	require.Nil(t, model.Cell("nosuch"))
}

// An unbound cell stays at its initial value through a whole replay.
func TestModelUnboundCell(t *testing.T) {
	schema := counterSchema()
	schema.Signals = append(schema.Signals, trace.SignalSpec{Name: "ghost", Width: 3})

	model, sched, err := trace.Construct(schema, counterSource())
	require.NoError(t, err)
	defer sched.Close()

	require.Equal(t, []string{"ghost"}, model.UnboundPaths())

	ghost := model.Cell("ghost")
	require.False(t, ghost.Bound())
	require.NotEmpty(t, ghost.UnboundReason())
	_, ok := ghost.Descriptor()
	require.False(t, ok)

	// observing an unbound cell is allowed, the callback never fires
	rec := tracetest.Attach(t, model, "ghost")

	_, err = sched.RunToEnd()
	require.NoError(t, err)

	require.Equal(t, "xxx", ghost.Value().String())
	require.Equal(t, trace.Time(-1), ghost.LastUpdate())
	require.Empty(t, rec.Changes)
}

func TestSubscribe(t *testing.T) {
	model, sched, err := trace.Construct(counterSchema(), counterSource())
	require.NoError(t, err)
	defer sched.Close()

	_, err = model.Subscribe("nosuch", func(trace.Change) {})
	require.Error(t, err)
	_, err = model.Subscribe("count", nil)
	require.Error(t, err)

	sub, err := model.Subscribe("count", func(trace.Change) {})
	require.NoError(t, err)
	require.Equal(t, "count", sub.Path())

	require.True(t, model.Unsubscribe(sub))
	require.False(t, model.Unsubscribe(sub))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	model, sched, err := trace.Construct(counterSchema(), counterSource())
	require.NoError(t, err)
	defer sched.Close()

	var rec tracetest.Recorder
	sub, err := model.Subscribe("count", rec.Callback())
	require.NoError(t, err)

	_, err = sched.StepEvent()
	require.NoError(t, err)
	require.Len(t, rec.Changes, 1)

	require.True(t, model.Unsubscribe(sub))
	_, err = sched.RunToEnd()
	require.NoError(t, err)
	require.Len(t, rec.Changes, 1)
}

func TestSubscribeDuringStepPanics(t *testing.T) {
	model, sched, err := trace.Construct(counterSchema(), counterSource())
	require.NoError(t, err)
	defer sched.Close()

	_, err = model.Subscribe("count", func(trace.Change) {
		_, _ = model.Subscribe("count", func(trace.Change) {})
	})
	require.NoError(t, err)

	require.Panics(t, func() { _, _ = sched.StepEvent() })
}

func TestUnsubscribeDuringStepPanics(t *testing.T) {
	model, sched, err := trace.Construct(counterSchema(), counterSource())
	require.NoError(t, err)
	defer sched.Close()

	var sub trace.Subscription
	sub, err = model.Subscribe("count", func(trace.Change) {
		model.Unsubscribe(sub)
	})
	require.NoError(t, err)

	require.Panics(t, func() { _, _ = sched.StepEvent() })
}

func TestCellHistory(t *testing.T) {
	model, sched, err := trace.Construct(counterSchema(), counterSource(), trace.WithHistory(2))
	require.NoError(t, err)
	defer sched.Close()

	count := model.Cell("count")
	_, err = sched.RunToEnd()
	require.NoError(t, err)

	// three batches, capacity two: the #0 sample is evicted, and the two
	// changes inside #10 coalesce into a single sample
	hist := count.History()
	require.Len(t, hist, 2)
	require.Equal(t, trace.Time(10), hist[0].Time)
	require.Equal(t, "10", hist[0].Value.String())
	require.Equal(t, trace.Time(20), hist[1].Time)
	require.Equal(t, "11", hist[1].Value.String())

	v, ok := count.At(15)
	require.True(t, ok)
	require.Equal(t, "10", v.String())
	v, ok = count.At(20)
	require.True(t, ok)
	require.Equal(t, "11", v.String())
	v, ok = count.At(1000)
	require.True(t, ok)
	require.Equal(t, "11", v.String())

	// before the retained window
	_, ok = count.At(5)
	require.False(t, ok)
}

func TestCellHistoryDisabled(t *testing.T) {
	model, sched, err := trace.Construct(counterSchema(), counterSource())
	require.NoError(t, err)
	defer sched.Close()

	_, err = sched.RunToEnd()
	require.NoError(t, err)

	count := model.Cell("count")
	require.Empty(t, count.History())
	_, ok := count.At(10)
	require.False(t, ok)
}
