package order

import (
	"fmt"
)

// UnknownName is recorded when no identifier could be extracted from a declaration.
const UnknownName = "unknown"

// Source tags every violation produced by this package.
const Source = "memberorder"

// defaultLineWidth is used as the end column when the line length is not known.
const defaultLineWidth = 200

// BodyRange is the inclusive, 0-indexed line span of a type body.
// StartLine holds the opening brace, EndLine the matching closing brace.
type BodyRange struct {
	StartLine int
	EndLine   int
}

// Member is one classified declaration inside a body.
type Member struct {
	// Name is the member identifier, or UnknownName
	Name string

	// Category is the classification result
	Category Category

	// Line is the first physical line of the declaration
	Line int
}

// Severity of a reported violation. Values follow the LSP DiagnosticSeverity numbering.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

// MarshalText renders the severity name for reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *Severity) UnmarshalText(rawtext []byte) error {
	for _, v := range []Severity{SeverityError, SeverityWarning, SeverityInformation, SeverityHint} {
		if v.String() == string(rawtext) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", string(rawtext))
}

// Violation is a single out-of-order member.
type Violation struct {
	Line        int      `json:"line"`
	StartColumn int      `json:"start_column"`
	EndLine     int      `json:"end_line"`
	EndColumn   int      `json:"end_column"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Source      string   `json:"source"`
}
