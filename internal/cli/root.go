package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// RootOptions carries the persistent flags shared by every command.
type RootOptions struct {
	Verbose bool
	Format  string // "text" or "json"
}

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"text", "json"}

// Env holds environment-variable defaults for command flags.
type Env struct {
	Network  string `env:"BELIEFNET_NETWORK"`
	Database string `env:"BELIEFNET_DB"`
	Listen   string `env:"BELIEFNET_LISTEN" envDefault:"127.0.0.1:8415"`
}

func loadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// NewRootCommand assembles the beliefnet command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	envCfg, envErr := loadEnv()

	cmd := &cobra.Command{
		Use:   "beliefnet",
		Short: "Exact inference over discrete Bayesian networks",
		Long:  "Build, validate and query discrete Bayesian networks defined as YAML conditional probability tables.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			setupLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewInferCommand(opts, envCfg))
	cmd.AddCommand(NewAskCommand(opts, envCfg))
	cmd.AddCommand(NewServeCommand(opts, envCfg))
	cmd.AddCommand(NewHistoryCommand(opts, envCfg))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setupLogging configures the process-wide slog handler. Logs go to
// stderr so JSON output on stdout stays parseable.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
