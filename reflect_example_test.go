package trace_test

import (
	"fmt"

	trace "github.com/zuspec/zuspec-be-trace"
	"github.com/zuspec/zuspec-be-trace/tracetest"
)

// counterBlock mirrors the traced counter. Field tags name the signals
// to bind; widths derive from the field types unless overridden.
//
type counterBlock struct {
	Clk   bool    `trace:"clk"`
	Count uint8   `trace:"count,width=2"`
	Temp  float64 `trace:"temp"`
}

// SchemaOf example replaying an in-memory trace into a model derived
// from a tagged struct.
func ExampleSchemaOf() {
	src := tracetest.NewBuilder().
		Scope("top").
		Signal("clk", 1, "!").
		Signal("count", 2, "%").
		Real("temp", "~").
		End().
		At(0).Change("!", "0").Change("%", "00").ChangeReal("~", 25).
		At(10).Change("!", "1").Change("%", "01").
		At(20).Change("!", "0").Change("%", "10").ChangeReal("~", 26.5).
		Source()

	// no schema file needed, just cast a nil pointer to counterBlock
	schema := trace.SchemaOf((*counterBlock)(nil), "top")

	model, sched, err := trace.Construct(schema, src)
	if err != nil {
		panic(err)
	}
	defer sched.Close()

	if _, err = model.Subscribe("count", func(c trace.Change) {
		fmt.Printf("#%d count %s -> %s\n", c.Time, c.Old, c.New)
	}); err != nil {
		panic(err)
	}

	if _, err = sched.RunToEnd(); err != nil {
		panic(err)
	}
	fmt.Printf("temp=%v at #%d\n", model.Cell("temp").Value().Real(), model.Cell("temp").LastUpdate())

	// Output:
	// #0 count xx -> 00
	// #10 count 00 -> 01
	// #20 count 01 -> 10
	// temp=26.5 at #20
}
