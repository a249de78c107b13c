package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/c360studio/memberorder/order"
)

// JSONWriter writes newline-delimited JSON: one FileReport object per file,
// then one {"summary": ...} object.
type JSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONWriter creates a JSON lines writer.
func NewJSONWriter(out io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(out)}
}

func (w *JSONWriter) Report(_ context.Context, r FileReport) error {
	if r.Violations == nil {
		r.Violations = []order.Violation{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func (w *JSONWriter) Summary(_ context.Context, s Summary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(struct {
		Summary Summary `json:"summary"`
	}{s}); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}
