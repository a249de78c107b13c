package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default .memberorder.yaml",
		Long: `Init writes the default configuration to .memberorder.yaml in dir (default:
the current directory). An existing project config is left untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			a, err := newApp(cmd, global, dir)
			if err != nil {
				return err
			}

			path, created, err := a.loader.EnsureProjectConfig(a.root)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists: %s\n", path)
			}
			return nil
		},
	}
}
