package order

import (
	"fmt"
)

// Validate checks members of one body, in the given order, against o.
func Validate(members []Member, o *CanonicalOrder) []Violation {
	violations, _ := ValidateTrace(members, o)
	return violations
}

// ValidateTrace is Validate that also returns the running threshold observed
// after each member.
//
// The threshold only grows: a member ranked below it is a violation, one
// ranked above it raises it, and an equal rank changes nothing.
func ValidateTrace(members []Member, o *CanonicalOrder) ([]Violation, []int) {
	if len(members) < 2 {
		return nil, nil
	}

	var violations []Violation
	trace := make([]int, 0, len(members))
	maxAllowed := -1

	for _, m := range members {
		rank := o.Rank(m.Category)
		switch {
		case rank < maxAllowed:
			violations = append(violations, Violation{
				Line:     m.Line,
				EndLine:  m.Line,
				Message:  violationMessage(m, o.CategoryName(maxAllowed)),
				Severity: SeverityWarning,
				Source:   Source,
			})
		case rank > maxAllowed:
			maxAllowed = rank
		}
		trace = append(trace, maxAllowed)
	}

	return violations, trace
}

func violationMessage(m Member, expectedBefore string) string {
	return fmt.Sprintf("%s %q should appear before %s", m.Category, m.Name, expectedBefore)
}
