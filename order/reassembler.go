package order

import (
	"regexp"
	"strings"
)

// Declaration is one logical declaration folded from one or more physical lines.
type Declaration struct {
	// Text is the whitespace-collapsed declaration
	Text string

	// Attributed is set when a serialize/inspector attribute decorated it
	Attributed bool

	// Line is the first physical line of the declaration
	Line int
}

type scanState int

const (
	stateNormal scanState = iota
	stateInBlockComment
	stateAttributePending
)

func (s scanState) String() string {
	switch s {
	case stateNormal:
		return "normal"
	case stateInBlockComment:
		return "block-comment"
	case stateAttributePending:
		return "attribute-pending"
	}
	return "invalid"
}

// Match attribute content such as SerializeField, SerializeReference, HideInInspector
var serializeMarkerPattern = regexp.MustCompile(`(?i)serializ|inspector`)

// reassembler walks the lines of one body. pos always advances by at least
// one line per step, so a scan is linear in the range size.
type reassembler struct {
	lines []string
	pos   int
	end   int

	// state is stateAttributePending while a serialize/inspector attribute
	// awaits its declaration
	state  scanState
	resume scanState // restored when a block comment closes
}

// Reassemble folds the lines of a body range into logical declarations.
func Reassemble(lines []string, r BodyRange) []Declaration {
	start := max(r.StartLine, 0)
	end := min(r.EndLine, len(lines)-1)

	s := &reassembler{lines: lines, pos: start, end: end}

	var decls []Declaration
	for s.pos <= s.end {
		if decl, ok := s.step(); ok {
			decls = append(decls, decl)
		}
	}
	return decls
}

// step consumes the line at pos, plus any continuation lines of a declaration.
func (s *reassembler) step() (Declaration, bool) {
	line := s.pos
	text := strings.TrimSpace(s.lines[line])

	if s.state == stateInBlockComment {
		idx := strings.Index(text, "*/")
		if idx < 0 {
			s.pos++
			return Declaration{}, false
		}
		s.state = s.resume
		text = strings.TrimSpace(text[idx+2:])
	}

	for {
		switch {
		case text == "", strings.HasPrefix(text, "//"):
			s.pos++
			return Declaration{}, false

		case strings.HasPrefix(text, "/*"):
			idx := strings.Index(text[2:], "*/")
			if idx < 0 {
				s.resume = s.state
				s.state = stateInBlockComment
				s.pos++
				return Declaration{}, false
			}
			text = strings.TrimSpace(text[2+idx+2:])

		case strings.HasPrefix(text, "["):
			closeAt := matchBracket(text)
			if closeAt < 0 {
				// Truncated attribute list
				s.pos++
				return Declaration{}, false
			}
			// Other attributes keep the current state, so a pending
			// marker from an earlier line survives them
			if serializeMarkerPattern.MatchString(text[1:closeAt]) {
				s.state = stateAttributePending
			}
			text = strings.TrimSpace(text[closeAt+1:])

		default:
			return s.collect(line, text), true
		}
	}
}

// collect starts a declaration at line and appends continuation lines until
// the text is complete or a blank, comment or attribute line follows.
func (s *reassembler) collect(line int, text string) Declaration {
	text = stripLineComment(text)
	next := line + 1

	for incomplete(text) && next <= s.end {
		cont := strings.TrimSpace(s.lines[next])
		if cont == "" || strings.HasPrefix(cont, "//") || strings.HasPrefix(cont, "[") {
			break
		}
		text += " " + stripLineComment(cont)
		next++
	}

	decl := Declaration{
		Text:       collapseSpace(text),
		Attributed: s.state == stateAttributePending,
		Line:       line,
	}

	s.state = stateNormal
	s.pos = next
	return decl
}

func incomplete(text string) bool {
	return !strings.ContainsAny(text, ";{}") &&
		!strings.Contains(text, "{ get;") &&
		!strings.Contains(text, "=>")
}

// matchBracket returns the index of the ']' closing the '[' at text[0], or -1.
func matchBracket(text string) int {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripLineComment drops a trailing // comment that is not inside a string
// or character literal.
func stripLineComment(text string) string {
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			return strings.TrimSpace(text[:i])
		}
	}
	return text
}

func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
