package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/memberorder/order"
	"github.com/c360studio/memberorder/report"
	"github.com/c360studio/memberorder/workspace"
)

// errViolationsFound makes check exit non-zero when members are out of order.
var errViolationsFound = errors.New("member order violations found")

type checkOptions struct {
	root    string
	format  string
	noFail  bool
	noColor bool
	jobs    int
}

func checkCmd(global *globalOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check C# files for member order violations",
		Long: `Check analyzes C# files and prints one line per out-of-order member.

Each path may be a file, a directory, or a glob such as "Assets/**/*.cs".
With no paths the project root is checked. Directories honor the include and
exclude patterns from the configuration.

Exits 1 when violations are found unless --no-fail is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, global, opts.root)
			if err != nil {
				return err
			}
			summary, err := runCheck(cmd.Context(), a, opts, args, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if summary.Violations > 0 && !opts.noFail {
				return errViolationsFound
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", ".", "Project root for config lookup and default paths")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format (text, json); defaults to report.format")
	cmd.Flags().BoolVar(&opts.noFail, "no-fail", false, "Exit 0 even when violations are found")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "Files analyzed in parallel (default: GOMAXPROCS)")

	return cmd
}

// runCheck analyzes the files named by args in parallel and emits reports in
// path order, followed by the run summary.
func runCheck(ctx context.Context, a *app, opts *checkOptions, args []string, out io.Writer) (report.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	runID := report.NewRunID()

	matcher, err := workspace.NewMatcher(a.root, a.cfg.Include, a.cfg.Exclude)
	if err != nil {
		return report.Summary{}, err
	}
	files, err := workspace.Resolve(ctx, args, matcher)
	if err != nil {
		return report.Summary{}, err
	}

	analyzer, err := a.analyzer()
	if err != nil {
		return report.Summary{}, err
	}

	sink, cleanup, err := a.sinks(ctx, out, opts.format, opts.noColor)
	if err != nil {
		return report.Summary{}, err
	}
	defer cleanup()

	a.logger.Debug("Checking files", "run_id", runID, "files", len(files), "root", a.root)

	jobs := opts.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	reports := make([]report.FileReport, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = checkFile(analyzer, runID, a.root, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.Summary{}, err
	}

	var errs []error
	for _, r := range reports {
		if err := sink.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	summary := report.Summarize(runID, reports, time.Since(start))
	if err := sink.Summary(ctx, summary); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return summary, fmt.Errorf("write reports: %w", err)
	}

	a.logger.Info("Check complete",
		"run_id", runID,
		"files", summary.Files,
		"violations", summary.Violations,
		"duration_ms", summary.DurationMS)

	return summary, nil
}

// checkFile reads and analyzes one file. Read failures are reported on the
// file rather than failing the run.
func checkFile(analyzer *order.Analyzer, runID, root, path string) report.FileReport {
	r := report.FileReport{
		RunID:     runID,
		Path:      displayPath(root, path),
		Version:   1,
		CheckedAt: time.Now().UTC(),
	}
	content, err := os.ReadFile(path)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Violations = analyzer.Analyze(order.NewTextDocument(path, 1, "", string(content)))
	return r
}

// displayPath shows paths under root relative to it.
func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
