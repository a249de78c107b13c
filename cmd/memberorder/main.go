// Package main provides the memberorder binary entry point.
// Memberorder checks that the members of C# types are declared in a
// canonical order and reports violations on the command line, from a file
// watcher, or to an editor over LSP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	// Register the tree-sitter body locator via init()
	_ "github.com/c360studio/memberorder/order/syntax"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "memberorder"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath  string
	logLevel    string
	metricsAddr string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "C# member order linter",
		Long: `Memberorder checks that the members of C# classes, structs, interfaces
and records are declared in a canonical order:

  constants, readonly fields, serialized fields, private fields,
  public fields, properties, events, lifecycle methods, public methods,
  private methods

The order is configurable in .memberorder.yaml. Results can be printed,
streamed from a file watcher, published to NATS, or served to an editor
through the language server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML or TOML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (watch and lsp)")

	cmd.AddCommand(
		checkCmd(opts),
		watchCmd(opts),
		lspCmd(opts),
		outlineCmd(opts),
		initCmd(opts),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

// newLogger builds the stderr text logger. Stdout carries reports and LSP
// traffic, so logs never go there.
func newLogger(cmd *cobra.Command, logLevel string) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
