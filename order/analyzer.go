package order

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf16"
)

// Analysis outcomes reported to an Observer.
const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultCached  = "cached"
	ResultFailed  = "failed"
)

// Observer receives per-analysis measurements.
type Observer interface {
	ObserveAnalysis(result string, violations int, elapsed time.Duration)
	ObserveCacheSize(entries int)
}

// AnalyzerConfig configures an Analyzer. Zero values select defaults.
type AnalyzerConfig struct {
	// Order is the canonical ordering (default: the eleven categories as declared)
	Order *CanonicalOrder

	// Locator finds type bodies (default: BraceLocator)
	Locator Locator

	// Cache memoizes results per document revision (default: capacity 50)
	Cache *Cache

	// Logger for diagnostics
	Logger *slog.Logger

	// Observer for metrics (optional)
	Observer Observer
}

// Analyzer runs the locate → reassemble → classify → validate pipeline.
type Analyzer struct {
	order    *CanonicalOrder
	locator  Locator
	cache    *Cache
	logger   *slog.Logger
	observer Observer
}

// BodyOutline lists the classified members of one body range.
type BodyOutline struct {
	Range   BodyRange
	Members []Member
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(config AnalyzerConfig) *Analyzer {
	a := &Analyzer{
		order:    config.Order,
		locator:  config.Locator,
		cache:    config.Cache,
		logger:   config.Logger,
		observer: config.Observer,
	}
	if a.order == nil {
		a.order = DefaultCanonicalOrder()
	}
	if a.locator == nil {
		a.locator = NewBraceLocator()
	}
	if a.cache == nil {
		a.cache = NewCache(DefaultCacheCapacity)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Order returns the canonical order in use.
func (a *Analyzer) Order() *CanonicalOrder {
	return a.order
}

// Analyze returns the order violations of doc. Unsupported documents yield
// nothing. Results are cached per (URI, version); a cached call returns the
// same slice as the pass that produced it. A fault while analyzing one
// document is logged and reported as no violations.
func (a *Analyzer) Analyze(doc Document) []Violation {
	if !Supported(doc) {
		a.observe(ResultSkipped, 0, 0)
		return nil
	}

	key := CacheKey{URI: doc.URI(), Version: doc.Version()}
	if cached, ok := a.cache.Get(key); ok {
		a.observe(ResultCached, len(cached), 0)
		return cached
	}

	start := time.Now()
	violations, err := a.run(doc.Text())
	elapsed := time.Since(start)
	if err != nil {
		a.logger.Error("Member order analysis failed",
			"uri", doc.URI(),
			"version", doc.Version(),
			"error", err)
		a.observe(ResultFailed, 0, elapsed)
		return nil
	}

	a.cache.Put(key, violations)
	a.observe(ResultOK, len(violations), elapsed)

	a.logger.Debug("Analyzed document",
		"uri", doc.URI(),
		"version", doc.Version(),
		"violations", len(violations),
		"elapsed", elapsed)

	return violations
}

// Outline classifies the members of every body range in text without
// validating them.
func (a *Analyzer) Outline(text string) []BodyOutline {
	lines := splitLines(text)
	ranges := a.locator.Locate(text)
	outlines := make([]BodyOutline, 0, len(ranges))
	for _, r := range ranges {
		outlines = append(outlines, BodyOutline{Range: r, Members: CollectMembers(lines, r)})
	}
	return outlines
}

// ClearCache drops all memoized results.
func (a *Analyzer) ClearCache() {
	a.cache.Clear()
	if a.observer != nil {
		a.observer.ObserveCacheSize(0)
	}
}

// CollectMembers reassembles and classifies the declarations of one range,
// in line order.
func CollectMembers(lines []string, r BodyRange) []Member {
	var members []Member
	for _, decl := range Reassemble(lines, r) {
		m, ok := Classify(decl.Text, decl.Attributed)
		if !ok {
			continue
		}
		m.Line = decl.Line
		members = append(members, m)
	}
	return members
}

func (a *Analyzer) run(text string) (violations []Violation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v\n%s", r, debug.Stack())
		}
	}()

	lines := splitLines(text)
	violations = []Violation{}
	for _, r := range a.locator.Locate(text) {
		for _, v := range Validate(CollectMembers(lines, r), a.order) {
			v.EndColumn = lineWidth(lines, v.Line)
			violations = append(violations, v)
		}
	}
	return violations, nil
}

func (a *Analyzer) observe(result string, violations int, elapsed time.Duration) {
	if a.observer == nil {
		return
	}
	a.observer.ObserveAnalysis(result, violations, elapsed)
	a.observer.ObserveCacheSize(a.cache.Len())
}

// splitLines splits text on \n, dropping a trailing \r from each line.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// lineWidth is the length of a line in UTF-16 code units, the unit of LSP
// character offsets.
func lineWidth(lines []string, line int) int {
	if line < 0 || line >= len(lines) {
		return defaultLineWidth
	}
	width := 0
	for _, r := range lines[line] {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		width += n
	}
	return width
}
