package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/memberorder/report"
	"github.com/c360studio/memberorder/watch"
	"github.com/c360studio/memberorder/workspace"
)

type watchOptions struct {
	format    string
	noColor   bool
	noInitial bool
}

func watchCmd(global *globalOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Re-check C# files as they change",
		Long: `Watch checks every C# file under root, then re-checks files as they are
written. Rapid successive writes to one file are coalesced using
performance.debounceTimeout, and writes that leave the content unchanged are
ignored. Reports go to stdout and, when report.natsUrl is set, to NATS.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			a, err := newApp(cmd, global, root)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runWatch(ctx, a, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format (text, json); defaults to report.format")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&opts.noInitial, "no-initial", false, "Skip the initial full check")

	return cmd
}

// runWatch streams reports until ctx ends.
func runWatch(ctx context.Context, a *app, opts *watchOptions, out io.Writer) error {
	matcher, err := workspace.NewMatcher(a.root, a.cfg.Include, a.cfg.Exclude)
	if err != nil {
		return err
	}
	analyzer, err := a.analyzer()
	if err != nil {
		return err
	}
	sink, cleanup, err := a.sinks(ctx, out, opts.format, opts.noColor)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.serveMetrics(ctx); err != nil {
		return err
	}

	w, err := watch.NewWatcher(watch.Config{
		Matcher:       matcher,
		Analyzer:      analyzer,
		DebounceDelay: a.cfg.Performance.Debounce(),
		Logger:        a.logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Stop(); err != nil {
			a.logger.Warn("Failed to stop watcher", "error", err)
		}
	}()

	runID := report.NewRunID()

	if !opts.noInitial {
		start := time.Now()
		events, err := w.CheckAll(ctx)
		if err != nil {
			return err
		}
		reports := make([]report.FileReport, 0, len(events))
		for _, ev := range events {
			r := eventReport(runID, a.root, ev)
			reports = append(reports, r)
			if err := sink.Report(ctx, r); err != nil {
				a.logger.Warn("Failed to write report", "path", r.Path, "error", err)
			}
		}
		if err := sink.Summary(ctx, report.Summarize(runID, reports, time.Since(start))); err != nil {
			a.logger.Warn("Failed to write summary", "error", err)
		}
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("Watching for changes", "root", a.root, "run_id", runID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Operation == watch.OpDelete {
				a.logger.Info("File removed", "path", ev.Path)
				if a.results != nil {
					if err := a.results.Delete(ctx, displayPath(a.root, ev.Path)); err != nil {
						a.logger.Warn("Failed to drop stored report", "path", ev.Path, "error", err)
					}
				}
				continue
			}
			r := eventReport(runID, a.root, ev)
			if err := sink.Report(ctx, r); err != nil {
				a.logger.Warn("Failed to write report", "path", r.Path, "error", err)
			}
		}
	}
}

func eventReport(runID, root string, ev watch.Event) report.FileReport {
	r := report.FileReport{
		RunID:      runID,
		Path:       displayPath(root, ev.Path),
		Version:    ev.Version,
		Violations: ev.Violations,
		CheckedAt:  time.Now().UTC(),
	}
	if ev.Error != nil {
		r.Error = ev.Error.Error()
	}
	return r
}
