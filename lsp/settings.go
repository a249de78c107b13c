package lsp

import (
	"encoding/json"
	"fmt"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("Invalid configuration notification", "error", err)
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

// applySettings overlays the "memberorder" section of raw onto the current
// configuration. Invalid settings are reported and leave the configuration
// unchanged.
func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil || len(settings.MemberOrder) == 0 {
		return
	}

	s.mu.Lock()
	cfg := s.cfg.Clone()
	wasEnabled := s.cfg.Enabled
	s.mu.Unlock()

	if err := cfg.OverlayJSON(settings.MemberOrder); err != nil {
		s.rejectSettings(err)
		return
	}
	if err := s.setConfig(cfg); err != nil {
		s.rejectSettings(err)
		return
	}
	s.logger.Info("Applied settings",
		"enabled", cfg.Enabled,
		"debounce", cfg.Performance.Debounce(),
		"locator", cfg.Locator)

	switch {
	case cfg.Enabled:
		s.analyzeAll()
	case wasEnabled:
		s.debouncer.Stop()
		s.clearPublishedDiagnostics()
	}
}

func (s *Server) rejectSettings(err error) {
	s.logger.Warn("Ignoring invalid settings", "error", err)
	s.showMessage(messageError, fmt.Sprintf("memberorder settings ignored: %v", err))
}
