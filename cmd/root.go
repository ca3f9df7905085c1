// Package cmd implements the CLI commands for simnetctl.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"simnet/logging"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// Global flags.
var (
	globalLog       string
	globalLogFormat string
	globalDebug     bool
)

// rootCmd is the base command for simnetctl.
var rootCmd = &cobra.Command{
	Use:   "simnetctl",
	Short: "Simulated networked computer runtime",
	Long: `simnetctl drives a simulated networked computer: hosts with devices
boot an in-process operating system, spawn cooperative processes over
virtual sockets, and run shell commands against an in-memory filesystem.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns a context that cancels on SIGINT/SIGTERM, for use
// by long-running commands (the interactive shell and its world loop).
func GetContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")
}

func setupLogging() {
	var logOutput = os.Stderr
	if globalLog != "" {
		f, err := os.OpenFile(globalLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			logOutput = f
		}
	}

	level := slog.LevelInfo
	if globalDebug {
		level = slog.LevelDebug
	}

	logging.SetDefault(logging.NewLogger(logging.Config{
		Level:  level,
		Format: globalLogFormat,
		Output: logOutput,
	}))
}
