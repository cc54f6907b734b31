/*
Package trace reconstructs a live, steppable object model from a hardware
simulation trace (a signal-level waveform capture such as a value change
dump) and replays the recorded value transitions through it in simulated
time.

A trace decoder, such as the [vcd] subpackage, presents the file as a
Source: the declared scope/signal tree, the native timescale, and a lazy,
time-ordered sequence of value change events. A Schema declares the structural contract of the component
under analysis. Bind matches the two hierarchies, the model builder turns
the binding into a Component/Cell graph, and the Scheduler drives replay,
applying events batch by batch and notifying subscribed observers. The
Factory ties the steps together:

	src, err := vcd.Open("dump.vcd")
	...
	model, sched, err := trace.Construct(schema, src)
	...
	defer sched.Close()
	sched.StepToTime(1000)
	cell := model.Cell("dut.count")

The package replays recorded values only; it does not simulate design
behavior. Unknown and high-impedance states are preserved as opaque but
comparable value states.

[vcd]: github.com/zuspec/zuspec-be-trace/vcd
*/
package trace
