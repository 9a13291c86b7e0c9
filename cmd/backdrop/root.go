// Package main provides the CLI entrypoint for backdrop.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/backdrop/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		logFile    string
	}
	logger  *slog.Logger
	logSink io.Closer
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "backdrop",
	Short: "Themed terminal backdrop with an animated particle field",
	Long: `backdrop draws a drifting particle field behind a themed terminal UI.

The theme follows a stored preference (light, dark or system). The system
setting tracks the desktop colour scheme, and the animation stops whenever
the desktop asks for reduced motion.

Running backdrop without a subcommand launches the interactive TUI.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logSink != nil {
			return logSink.Close()
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal: the hook calls isInteractive,
	// which refers back to rootCmd (initialization cycle).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(isInteractive(cmd)); err != nil {
			return err
		}

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	}

	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/backdrop/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.logFile, "log-file", "",
		"Log file used while the TUI is running (default: ~/.local/state/backdrop/backdrop.log)")
}

// isInteractive reports whether cmd takes over the terminal.
func isInteractive(cmd *cobra.Command) bool {
	return cmd == rootCmd || cmd == runCmd
}

// setupLogger configures the global slog logger. The TUI owns the
// terminal, so interactive commands log to a file instead of stderr.
func setupLogger(interactive bool) error {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	var w io.Writer = os.Stderr
	if interactive {
		path := globalOpts.logFile
		if path == "" {
			path = config.LogPath()
		}
		if path == "" {
			w = io.Discard
		} else {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			w = f
			logSink = f
		}
	}

	logger = slog.New(slog.NewTextHandler(w, opts))
	slog.SetDefault(logger)
	return nil
}

// getConfig returns the global config instance.
func getConfig() *config.Config {
	return cfg
}
