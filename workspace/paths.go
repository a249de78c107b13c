// Package workspace resolves command-line paths and project trees to the C#
// sources that should be checked.
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/memberorder/order"
)

// DefaultInclude selects every C# source.
var DefaultInclude = []string{"**/*.cs"}

// DefaultExclude skips build output, engine caches and VCS metadata.
var DefaultExclude = []string{
	"**/.git/**",
	"**/bin/**",
	"**/obj/**",
	"**/Library/**",
	"**/Temp/**",
}

// Matcher decides which files under a root are checked. Patterns use
// doublestar syntax and are matched against slash-separated paths relative
// to the root.
type Matcher struct {
	root    string
	include []string
	exclude []string
}

// NewMatcher creates a matcher. Empty include selects DefaultInclude.
func NewMatcher(root string, include, exclude []string) (*Matcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, p := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern: %q", p)
		}
	}
	return &Matcher{root: absRoot, include: include, exclude: exclude}, nil
}

// Root returns the absolute root directory.
func (m *Matcher) Root() string {
	return m.root
}

// Match reports whether the file at path (absolute or root-relative) is checked.
func (m *Matcher) Match(p string) bool {
	rel, ok := m.relative(p)
	if !ok || order.LanguageForPath(rel) != order.LanguageCSharp {
		return false
	}
	if matchAny(m.exclude, rel) {
		return false
	}
	return matchAny(m.include, rel)
}

// SkipDir reports whether nothing below the directory at p can be checked.
func (m *Matcher) SkipDir(p string) bool {
	rel, ok := m.relative(p)
	if !ok {
		return true
	}
	if rel == "." {
		return false
	}
	// A pattern excluding every child of the directory excludes the directory
	return matchAny(m.exclude, rel) || matchAny(m.exclude, path.Join(rel, "_"))
}

func (m *Matcher) relative(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(m.root, p)
	}
	rel, err := filepath.Rel(m.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Discover walks the matcher's root and returns every checked file, sorted.
func Discover(ctx context.Context, m *Matcher) ([]string, error) {
	var files []string
	err := filepath.WalkDir(m.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if m.SkipDir(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if m.Match(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", m.root, err)
	}

	sort.Strings(files)
	return files, nil
}

// Resolve expands command-line arguments to checked files. Each argument
// may be a file, a directory (walked with the matcher's patterns) or a glob
// such as "Assets/**/*.cs". Explicitly named files are always checked when
// they are C# sources. Results are absolute, deduplicated and sorted.
func Resolve(ctx context.Context, args []string, m *Matcher) ([]string, error) {
	if len(args) == 0 {
		args = []string{m.root}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, arg := range args {
		paths, err := resolveArg(ctx, arg, m)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", arg, err)
		}
		for _, p := range paths {
			add(p)
		}
	}

	sort.Strings(files)
	return files, nil
}

func resolveArg(ctx context.Context, arg string, m *Matcher) ([]string, error) {
	if containsGlob(arg) {
		absPattern, err := makeAbsolutePattern(arg)
		if err != nil {
			return nil, err
		}
		matches, err := doublestar.FilepathGlob(absPattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob error: %w", err)
		}
		var files []string
		for _, match := range matches {
			if order.LanguageForPath(match) == order.LanguageCSharp {
				files = append(files, match)
			}
		}
		return files, nil
	}

	absPath, err := filepath.Abs(arg)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if order.LanguageForPath(absPath) != order.LanguageCSharp {
			return nil, fmt.Errorf("not a C# source: %s", absPath)
		}
		return []string{absPath}, nil
	}

	sub, err := NewMatcher(absPath, m.include, m.exclude)
	if err != nil {
		return nil, err
	}
	return Discover(ctx, sub)
}

// containsGlob checks if a pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// makeAbsolutePattern converts a relative pattern to absolute, keeping the
// glob part intact.
func makeAbsolutePattern(pattern string) (string, error) {
	globIdx := strings.IndexAny(pattern, "*?[{")
	if globIdx == -1 {
		return filepath.Abs(pattern)
	}

	dirPart := pattern[:globIdx]
	if lastSep := strings.LastIndexAny(dirPart, "/"+string(filepath.Separator)); lastSep >= 0 {
		dirPart = pattern[:lastSep]
	} else {
		dirPart = "."
	}
	globPart := pattern[len(dirPart):]
	if dirPart == "." {
		globPart = string(filepath.Separator) + globPart
	}

	absDir, err := filepath.Abs(dirPart)
	if err != nil {
		return "", err
	}
	return absDir + filepath.FromSlash(globPart), nil
}
