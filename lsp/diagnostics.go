package lsp

import (
	"sort"

	"github.com/c360studio/memberorder/config"
	"github.com/c360studio/memberorder/order"
)

// diagnosticCode tags every published diagnostic.
const diagnosticCode = "member-order"

// setConfig swaps in cfg and a fresh analyzer built from it. The old cache
// goes with the old analyzer since cached results depend on the order.
func (s *Server) setConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	analyzer, err := cfg.NewAnalyzer(s.logger, s.observer)
	if err != nil {
		return err
	}
	_, warnings := cfg.Order()
	for _, w := range warnings {
		s.logger.Warn("Member order configuration", "warning", w)
	}

	s.mu.Lock()
	s.cfg = cfg
	s.analyzer = analyzer
	s.mu.Unlock()
	s.debouncer.SetDelay(cfg.Performance.Debounce())
	return nil
}

func (s *Server) enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// scheduleAnalysis re-analyzes uri once edits have been quiet for the
// configured debounce interval.
func (s *Server) scheduleAnalysis(uri string) {
	if !s.enabled() {
		return
	}
	s.debouncer.Trigger(uri, func() {
		s.analyzeAndPublish(uri)
	})
}

// analyzeAndPublish runs the analyzer on the current text of uri and
// publishes the result, returning the violation count. Results for a document
// that changed or closed while the pass ran are dropped and reported as false.
func (s *Server) analyzeAndPublish(uri string) (int, bool) {
	s.mu.Lock()
	text, open := s.openDocs[uri]
	if !open || !s.cfg.Enabled {
		s.mu.Unlock()
		return 0, false
	}
	version := s.versions[uri]
	doc := order.NewTextDocument(uri, version, s.languages[uri], text)
	analyzer := s.analyzer
	s.mu.Unlock()

	violations := analyzer.Analyze(doc)

	s.mu.Lock()
	current, stillOpen := s.openDocs[uri]
	if !stillOpen || current != text || s.versions[uri] != version || !s.cfg.Enabled || s.analyzer != analyzer {
		s.mu.Unlock()
		return 0, false
	}
	_, hadDiagnostics := s.published[uri]
	if !order.Supported(doc) && !hadDiagnostics {
		s.mu.Unlock()
		return 0, true
	}
	if len(violations) > 0 {
		s.published[uri] = struct{}{}
	} else {
		delete(s.published, uri)
	}
	s.mu.Unlock()

	if err := s.sendPublish(uri, &version, toDiagnostics(violations)); err != nil {
		s.logger.Warn("Failed to publish diagnostics", "uri", uri, "error", err)
	}
	return len(violations), true
}

// analyzeAll re-analyzes every open document immediately.
func (s *Server) analyzeAll() {
	for _, uri := range s.openURIs() {
		s.debouncer.Cancel(uri)
		s.analyzeAndPublish(uri)
	}
}

func (s *Server) openURIs() []string {
	s.mu.Lock()
	uris := make([]string, 0, len(s.openDocs))
	for uri := range s.openDocs {
		uris = append(uris, uri)
	}
	s.mu.Unlock()
	sort.Strings(uris)
	return uris
}

// clearPublishedDiagnostics publishes an empty list for every document that
// currently shows diagnostics.
func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	uris := make([]string, 0, len(s.published))
	for uri := range s.published {
		uris = append(uris, uri)
	}
	s.published = make(map[string]struct{})
	s.mu.Unlock()

	sort.Strings(uris)
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logger.Warn("Failed to clear diagnostics", "uri", uri, "error", err)
		}
	}
}

func toDiagnostics(violations []order.Violation) []lspDiagnostic {
	out := make([]lspDiagnostic, 0, len(violations))
	for _, v := range violations {
		out = append(out, lspDiagnostic{
			Range: lspRange{
				Start: position{Line: v.Line, Character: v.StartColumn},
				End:   position{Line: v.EndLine, Character: v.EndColumn},
			},
			Severity: int(v.Severity),
			Code:     diagnosticCode,
			Source:   v.Source,
			Message:  v.Message,
		})
	}
	return out
}
