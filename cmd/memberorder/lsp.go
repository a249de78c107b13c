package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/memberorder/config"
	"github.com/c360studio/memberorder/lsp"
)

func lspCmd(global *globalOptions) *cobra.Command {
	var stdio bool

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server on stdin/stdout",
		Long: `Lsp serves member order diagnostics to an editor over JSON-RPC on
stdin/stdout. Documents are re-analyzed after edits settle for
performance.debounceTimeout milliseconds.

Editor settings under "memberorder" (enabled, memberOrder, performance)
override the configuration files at runtime. The server also provides the
commands memberorder.validateCurrentFile and memberorder.toggleEnabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, global, ".")
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := a.serveMetrics(ctx); err != nil {
				return err
			}

			server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
				Config: a.cfg,
				LoadConfig: func(root string) (*config.Config, error) {
					return a.loader.Load(root, global.configPath)
				},
				Logger:   a.logger,
				Observer: a.observer(),
				Version:  Version,
			})

			a.logger.Info("Language server started", "version", Version)
			err = server.Run(ctx)
			if errors.Is(err, lsp.ErrExit) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	// Editors launch servers with --stdio; it is the only transport
	cmd.Flags().BoolVar(&stdio, "stdio", true, "Use stdin/stdout (always on)")
	_ = cmd.Flags().MarkHidden("stdio")

	return cmd
}
