package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/c360studio/memberorder/config"
	"github.com/c360studio/memberorder/metrics"
	"github.com/c360studio/memberorder/order"
	"github.com/c360studio/memberorder/report"
	"github.com/c360studio/memberorder/storage"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	opts    *globalOptions
	logger  *slog.Logger
	loader  *config.Loader
	cfg     *config.Config
	root    string
	metrics *metrics.Metrics

	// results is set by sinks when report.natsBucket is configured
	results *storage.Store
}

// newApp configures logging and loads the layered configuration for root.
func newApp(cmd *cobra.Command, opts *globalOptions, root string) (*app, error) {
	logger := newLogger(cmd, opts.logLevel)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	loader := config.NewLoader(logger)
	cfg, err := loader.Load(absRoot, opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	a := &app{
		opts:   opts,
		logger: logger,
		loader: loader,
		cfg:    cfg,
		root:   absRoot,
	}
	if cfg.Metrics.Addr != "" {
		a.metrics = metrics.New()
	}
	return a, nil
}

// observer returns the metrics observer, or nil when metrics are off.
func (a *app) observer() order.Observer {
	if a.metrics == nil {
		return nil
	}
	return a.metrics
}

func (a *app) analyzer() (*order.Analyzer, error) {
	return a.cfg.NewAnalyzer(a.logger, a.observer())
}

// serveMetrics starts the metrics endpoint in the background when enabled.
// The endpoint shuts down when ctx ends.
func (a *app) serveMetrics(ctx context.Context) error {
	if a.metrics == nil {
		return nil
	}
	srv, err := metrics.Listen(a.cfg.Metrics.Addr, a.metrics, a.logger)
	if err != nil {
		return err
	}
	go func() {
		if err := srv.Serve(ctx); err != nil {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()
	return nil
}

// sinks builds the report sinks: the console writer in the configured
// format, plus NATS when a URL is configured and the KV result store when a
// bucket is. The returned cleanup flushes and closes the NATS connection.
func (a *app) sinks(ctx context.Context, out io.Writer, format string, noColor bool) (report.Sink, func(), error) {
	if format == "" {
		format = a.cfg.Report.Format
	}

	var console report.Sink
	switch format {
	case config.FormatJSON:
		console = report.NewJSONWriter(out)
	case config.FormatText, "":
		console = report.NewTextWriter(out, !noColor && !color.NoColor && out == os.Stdout)
	default:
		return nil, nil, fmt.Errorf("unknown format %q (want %s or %s)", format, config.FormatText, config.FormatJSON)
	}

	if a.cfg.Report.NATSURL == "" {
		return console, func() {}, nil
	}

	conn, err := report.ConnectNATS(a.cfg.Report.NATSURL, a.logger)
	if err != nil {
		return nil, nil, err
	}
	publisher := report.NewNATSPublisher(conn, a.cfg.Report.NATSSubject)
	a.logger.Info("Publishing reports to NATS",
		"url", a.cfg.Report.NATSURL,
		"subject", publisher.Subject())

	cleanup := func() { closeNATS(conn, a.logger) }
	sinks := []report.Sink{console, publisher}

	if a.cfg.Report.NATSBucket != "" {
		js, err := jetstream.New(conn)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create jetstream context: %w", err)
		}
		store, err := storage.Open(ctx, js, a.cfg.Report.NATSBucket)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		a.results = store
		sinks = append(sinks, store)
		a.logger.Info("Storing latest results", "bucket", a.cfg.Report.NATSBucket)
	}

	return report.Multi(sinks...), cleanup, nil
}

// closeNATS flushes buffered publishes before closing; the process usually
// exits right after.
func closeNATS(conn *nats.Conn, logger *slog.Logger) {
	if err := conn.FlushTimeout(5 * time.Second); err != nil {
		logger.Warn("Failed to flush NATS connection", "error", err)
	}
	conn.Close()
}
