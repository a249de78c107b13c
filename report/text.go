package report

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// TextWriter prints one compiler-style line per violation:
//
//	Assets/Player.cs:12:1: warning: PublicConst "Max" should appear before PrivateField [memberorder]
//
// Lines and columns are 1-based.
type TextWriter struct {
	mu  sync.Mutex
	out io.Writer

	path    *color.Color
	warning *color.Color
	failure *color.Color
	ok      *color.Color
}

// NewTextWriter creates a text writer. Colors are emitted only when
// useColor is set.
func NewTextWriter(out io.Writer, useColor bool) *TextWriter {
	w := &TextWriter{
		out:     out,
		path:    color.New(color.Bold),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
		ok:      color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{w.path, w.warning, w.failure, w.ok} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return w
}

func (w *TextWriter) Report(_ context.Context, r FileReport) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if r.Error != "" {
		_, err := fmt.Fprintf(w.out, "%s: %s %s\n", w.path.Sprint(r.Path), w.failure.Sprint("error:"), r.Error)
		return err
	}
	for _, v := range r.Violations {
		_, err := fmt.Fprintf(w.out, "%s:%d:%d: %s %s [%s]\n",
			w.path.Sprint(r.Path), v.Line+1, v.StartColumn+1,
			w.warning.Sprint(v.Severity.String()+":"), v.Message, v.Source)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *TextWriter) Summary(_ context.Context, s Summary) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if s.Violations == 0 && s.Errors == 0 {
		_, err := fmt.Fprintf(w.out, "%s %d %s checked, members in order\n",
			w.ok.Sprint("✓"), s.Files, plural(s.Files, "file", "files"))
		return err
	}

	_, err := fmt.Fprintf(w.out, "%s %d %s in %d of %d %s",
		w.failure.Sprint("✗"), s.Violations, plural(s.Violations, "violation", "violations"),
		s.FilesWithViolations, s.Files, plural(s.Files, "file", "files"))
	if err != nil {
		return err
	}
	if s.Errors > 0 {
		if _, err := fmt.Fprintf(w.out, ", %d unreadable", s.Errors); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w.out)
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
