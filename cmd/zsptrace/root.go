package main

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// config holds environment overrides. Flags take precedence over the
// environment.
type config struct {
	LogLevel string `env:"ZSPTRACE_LOG" envDefault:"warn"`
	Timebase string `env:"ZSPTRACE_TIMEBASE"`
	BindMode string `env:"ZSPTRACE_BIND" envDefault:"partial"`
}

// rootOptions holds global flags shared by all commands.
type rootOptions struct {
	cfg config
	log string
}

func newRootCommand(cfg config) *cobra.Command {
	opts := &rootOptions{cfg: cfg}

	cmd := &cobra.Command{
		Use:           "zsptrace",
		Short:         "Inspect and replay value change dump traces",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := parseLevel(opts.log)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: lvl,
			})))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.log, "log", cfg.LogLevel, "log level (debug|info|warn|error)")

	cmd.AddCommand(newInfoCommand(opts))
	cmd.AddCommand(newSignalsCommand(opts))
	cmd.AddCommand(newReplayCommand(opts))

	return cmd
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.Errorf("unknown log level %q", s)
}
