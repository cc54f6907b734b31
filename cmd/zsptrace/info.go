package main

import (
	"fmt"

	"github.com/spf13/cobra"

	trace "github.com/zuspec/zuspec-be-trace"
	"github.com/zuspec/zuspec-be-trace/vcd"
)

func newInfoCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Print trace header information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args[0])
		},
	}
}

func runInfo(cmd *cobra.Command, path string) error {
	src, err := vcd.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	signals := 0
	src.Scope().VisitSignals(func(string, trace.Signal) { signals++ })

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "file:      %s\n", path)
	if src.Date != "" {
		fmt.Fprintf(out, "date:      %s\n", src.Date)
	}
	if src.Version != "" {
		fmt.Fprintf(out, "version:   %s\n", src.Version)
	}
	fmt.Fprintf(out, "timescale: %s\n", src.Timescale())
	fmt.Fprintf(out, "scopes:    %d\n", scopeCount(src.Scope())-1)
	fmt.Fprintf(out, "signals:   %d\n", signals)
	return nil
}

// scopeCount counts s and every scope below it.
func scopeCount(s *trace.Scope) int {
	n := 1
	for _, c := range s.Children {
		n += scopeCount(c)
	}
	return n
}

func newSignalsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signals FILE",
		Short: "Print the declared scope and signal tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := vcd.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			return src.Scope().Dump(cmd.OutOrStdout())
		},
	}
}
