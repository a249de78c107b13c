package lsp

import (
	"encoding/json"
	"fmt"
	"path"
)

// Commands accepted through workspace/executeCommand.
const (
	CommandValidateCurrentFile = "memberorder.validateCurrentFile"
	CommandToggleEnabled       = "memberorder.toggleEnabled"
)

type toggleResult struct {
	Enabled bool `json:"enabled"`
}

type validateResult struct {
	URI        string `json:"uri"`
	Violations int    `json:"violations"`
}

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	switch params.Command {
	case CommandValidateCurrentFile:
		return s.sendResponse(msg.ID, s.validateCurrentFile(params.Arguments))
	case CommandToggleEnabled:
		return s.sendResponse(msg.ID, s.toggleEnabled())
	default:
		return s.sendError(msg.ID, codeInvalidParams, fmt.Sprintf("unknown command %q", params.Command))
	}
}

// validateCurrentFile analyzes one document right away, bypassing the
// debounce. The target is the first argument (a URI string or an object with
// a "uri" field), else the most recently touched document.
func (s *Server) validateCurrentFile(args []json.RawMessage) *validateResult {
	uri := commandURI(args)

	s.mu.Lock()
	if uri == "" {
		uri = s.lastTouched
	}
	_, open := s.openDocs[uri]
	enabled := s.cfg.Enabled
	s.mu.Unlock()

	if !enabled {
		s.showMessage(messageInfo, "Member order checking is disabled")
		return nil
	}
	if uri == "" || !open {
		s.showMessage(messageWarning, "No open document to validate")
		return nil
	}

	s.debouncer.Cancel(uri)
	count, ok := s.analyzeAndPublish(uri)
	if !ok {
		return nil
	}
	name := path.Base(uri)
	if count == 0 {
		s.showMessage(messageInfo, fmt.Sprintf("%s: members are in order", name))
	} else {
		s.showMessage(messageInfo, fmt.Sprintf("%s: %d member order violation(s)", name, count))
	}
	return &validateResult{URI: uri, Violations: count}
}

// toggleEnabled flips analysis on or off. Turning it off withdraws every
// published diagnostic and drops cached results; turning it on re-analyzes
// every open document.
func (s *Server) toggleEnabled() toggleResult {
	s.mu.Lock()
	cfg := s.cfg.Clone()
	cfg.Enabled = !cfg.Enabled
	s.cfg = cfg
	analyzer := s.analyzer
	s.mu.Unlock()

	if cfg.Enabled {
		s.logger.Info("Member order checking enabled")
		s.analyzeAll()
		s.showMessage(messageInfo, "Member order checking enabled")
	} else {
		s.logger.Info("Member order checking disabled")
		s.debouncer.Stop()
		s.clearPublishedDiagnostics()
		analyzer.ClearCache()
		s.showMessage(messageInfo, "Member order checking disabled")
	}
	return toggleResult{Enabled: cfg.Enabled}
}

func commandURI(args []json.RawMessage) string {
	if len(args) == 0 {
		return ""
	}
	var uri string
	if err := json.Unmarshal(args[0], &uri); err == nil {
		return canonicalURI(uri)
	}
	var doc textDocumentIdentifier
	if err := json.Unmarshal(args[0], &doc); err == nil && doc.URI != "" {
		return canonicalURI(doc.URI)
	}
	return ""
}
