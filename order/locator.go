package order

import (
	"regexp"
	"sort"
	"strings"
)

// Locator finds the type bodies of a document.
type Locator interface {
	Locate(text string) []BodyRange
}

// Match: [public|private|protected|internal] [partial|abstract|sealed|static ...] class|struct|record|interface Name
var typeKeywordPattern = regexp.MustCompile(
	`\b(?:(?:public|private|protected|internal)\s+)?(?:(?:partial|abstract|sealed|static)\s+)*(?:class|struct|record|interface)\s+[A-Za-z_]\w*`)

// BraceLocator finds bodies by keyword match and brace-depth counting.
// Braces inside string literals and comments are counted too.
type BraceLocator struct{}

// NewBraceLocator creates the default locator.
func NewBraceLocator() *BraceLocator {
	return &BraceLocator{}
}

// Locate returns one range per distinct opening brace, in match order.
// Bodies that are never closed are skipped.
func (l *BraceLocator) Locate(text string) []BodyRange {
	lineStarts := lineOffsets(text)
	seen := make(map[int]bool)
	var ranges []BodyRange

	for _, loc := range typeKeywordPattern.FindAllStringIndex(text, -1) {
		open := strings.IndexByte(text[loc[0]:], '{')
		if open < 0 {
			continue
		}
		open += loc[0]
		if seen[open] {
			continue
		}

		closeAt := matchBrace(text, open)
		if closeAt < 0 {
			continue
		}
		seen[open] = true

		ranges = append(ranges, BodyRange{
			StartLine: lineAt(lineStarts, open),
			EndLine:   lineAt(lineStarts, closeAt),
		})
	}

	return ranges
}

// matchBrace returns the offset of the brace closing the one at open, or -1.
func matchBrace(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// lineOffsets returns the byte offset at which each line starts.
func lineOffsets(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineAt maps a byte offset to its 0-indexed line.
func lineAt(starts []int, offset int) int {
	return sort.SearchInts(starts, offset+1) - 1
}
