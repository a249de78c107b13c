// Package report renders and ships member order results.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/memberorder/order"
)

// FileReport is the result of checking one file.
type FileReport struct {
	RunID      string            `json:"run_id"`
	Path       string            `json:"path"`
	Version    int               `json:"version,omitempty"`
	Violations []order.Violation `json:"violations"`
	Error      string            `json:"error,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// Summary aggregates the reports of one run.
type Summary struct {
	RunID               string `json:"run_id"`
	Files               int    `json:"files"`
	FilesWithViolations int    `json:"files_with_violations"`
	Violations          int    `json:"violations"`
	Errors              int    `json:"errors"`
	DurationMS          int64  `json:"duration_ms"`
}

// NewRunID returns a fresh identifier for a check run or watch session.
func NewRunID() string {
	return uuid.NewString()
}

// Summarize counts reports.
func Summarize(runID string, reports []FileReport, elapsed time.Duration) Summary {
	s := Summary{
		RunID:      runID,
		Files:      len(reports),
		DurationMS: elapsed.Milliseconds(),
	}
	for _, r := range reports {
		if r.Error != "" {
			s.Errors++
		}
		if len(r.Violations) > 0 {
			s.FilesWithViolations++
			s.Violations += len(r.Violations)
		}
	}
	return s
}

// Sink receives reports as they are produced.
type Sink interface {
	Report(ctx context.Context, r FileReport) error
	Summary(ctx context.Context, s Summary) error
}

type multiSink []Sink

// Multi fans reports out to every sink. All sinks are attempted; their
// errors are joined.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Report(ctx context.Context, r FileReport) error {
	var errs []error
	for _, s := range m {
		if err := s.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiSink) Summary(ctx context.Context, sum Summary) error {
	var errs []error
	for _, s := range m {
		if err := s.Summary(ctx, sum); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
