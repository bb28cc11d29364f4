// Package cli wires the chartscan commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/chartscan/config"
)

// Version is set at build time with -ldflags.
var Version = "dev"

type rootOptions struct {
	ConfigPath string
	EnvPath    string
	DBPath     string
	LogLevel   string
}

// app is the state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	opts rootOptions
	cfg  *config.Config
	log  *slog.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "chartscan",
		Short:         "Chartscan - technical pattern screener and backtester",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&a.opts.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&a.opts.EnvPath, "env", ".env", "Path to .env file with provider secrets")
	cmd.PersistentFlags().StringVar(&a.opts.DBPath, "db", "", "SQLite journal database (overrides config)")
	cmd.PersistentFlags().StringVar(&a.opts.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd.ErrOrStderr(), a.opts.LogLevel)
		if err != nil {
			return err
		}
		a.log = log
		slog.SetDefault(log)

		cfg := config.Default()
		if a.opts.ConfigPath != "" {
			if cfg, err = config.LoadFromFile(a.opts.ConfigPath); err != nil {
				return err
			}
		}
		config.LoadEnv(cfg, a.opts.EnvPath)
		if a.opts.DBPath != "" {
			cfg.Journal.Type = "sqlite"
			cfg.Journal.DBPath = a.opts.DBPath
		}
		a.cfg = cfg
		return nil
	}

	cmd.AddCommand(
		newScanCmd(a),
		newBacktestCmd(a),
		newJournalCmd(a),
		newConfigCmd(a),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chartscan %s\n", Version)
		},
	})

	return cmd
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
