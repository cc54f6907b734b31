package main

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	trace "github.com/zuspec/zuspec-be-trace"
	"github.com/zuspec/zuspec-be-trace/vcd"
)

// replayOptions holds flags for the replay command.
type replayOptions struct {
	*rootOptions
	schema   string
	extern   string
	timebase string
	mode     string
	to       int64
	history  int
}

func newReplayCommand(root *rootOptions) *cobra.Command {
	opts := &replayOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Replay a trace and print its value changes",
		Long: `Replay binds a schema to the trace, replays the event sequence through
the bound model and prints one line per observed signal change:

	#20 count 01 -> 10

Without --schema the schema is derived from the target scope itself, so
every declared signal is observed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.schema, "schema", "s", "", "YAML schema file (default: mirror the target scope)")
	cmd.Flags().StringVarP(&opts.extern, "extern", "e", "", "target scope (default: sole top-level scope)")
	cmd.Flags().StringVar(&opts.timebase, "timebase", root.cfg.Timebase, "output timebase, e.g. 1ns (default: trace native)")
	cmd.Flags().StringVar(&opts.mode, "mode", root.cfg.BindMode, "binding mode (partial|strict)")
	cmd.Flags().Int64Var(&opts.to, "to", -1, "stop at the given output time instead of the end")
	cmd.Flags().IntVar(&opts.history, "history", 0, "per-signal history depth")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *replayOptions, path string) error {
	src, err := vcd.Open(path)
	if err != nil {
		return err
	}

	schema, fopts, err := replaySetup(opts, src)
	if err != nil {
		_ = src.Close()
		return err
	}
	model, sched, err := trace.Construct(schema, src, fopts...)
	if err != nil {
		_ = src.Close()
		return err
	}
	defer sched.Close()

	for _, p := range model.UnboundPaths() {
		slog.Warn("signal not bound", "path", p, "reason", model.Cell(p).UnboundReason())
	}

	out := cmd.OutOrStdout()
	for _, p := range model.Paths() {
		if _, err := model.Subscribe(p, func(c trace.Change) {
			fmt.Fprintf(out, "#%d %s %s -> %s\n", c.Time, c.Path, c.Old, c.New)
		}); err != nil {
			return err
		}
	}

	var end trace.Time
	if opts.to >= 0 {
		end, err = sched.StepToTime(trace.Time(opts.to))
	} else {
		end, err = sched.RunToEnd()
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "replayed to #%d\n", end)
	return nil
}

// replaySetup resolves the schema and the factory options from flags.
func replaySetup(opts *replayOptions, src *vcd.Trace) (*trace.Schema, []trace.Option, error) {
	var schema *trace.Schema
	var err error
	if opts.schema != "" {
		schema, err = trace.LoadSchema(opts.schema)
		if err != nil {
			return nil, nil, err
		}
	} else {
		extern := opts.extern
		root := src.Scope()
		if extern == "" {
			if len(root.Children) != 1 {
				return nil, nil, errors.Errorf("%d top level scopes, pick one with --extern", len(root.Children))
			}
			extern = root.Children[0].Name
		}
		target := root.Lookup(extern)
		if target == nil {
			return nil, nil, errors.Errorf("no scope %q in trace", extern)
		}
		schema = trace.DeriveSchema(target, extern)
	}

	fopts := []trace.Option{trace.WithLogger(slog.Default())}
	if opts.timebase != "" {
		ts, err := trace.ParseTimescale(opts.timebase)
		if err != nil {
			return nil, nil, err
		}
		fopts = append(fopts, trace.WithTimebase(ts))
	}
	mode, err := trace.ParseBindMode(opts.mode)
	if err != nil {
		return nil, nil, err
	}
	fopts = append(fopts, trace.WithBindMode(mode))
	if opts.history > 0 {
		fopts = append(fopts, trace.WithHistory(opts.history))
	}
	return schema, fopts, nil
}
