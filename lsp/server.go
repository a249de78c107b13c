// Package lsp serves member order diagnostics over the Language Server Protocol.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/c360studio/memberorder/config"
	"github.com/c360studio/memberorder/order"
	"github.com/c360studio/memberorder/schedule"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ConfigLoader loads the configuration for a workspace root.
type ConfigLoader func(root string) (*config.Config, error)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// Config is the starting configuration (default: config.DefaultConfig)
	Config *config.Config

	// LoadConfig reloads configuration once the client names its workspace root
	LoadConfig ConfigLoader

	Logger   *slog.Logger
	Observer order.Observer

	// Version is reported in serverInfo
	Version string
}

// Server handles stdio JSON-RPC for the memberorder language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu          sync.Mutex
	openDocs    map[string]string
	versions    map[string]int
	languages   map[string]string
	published   map[string]struct{}
	lastTouched string

	workspaceRoot     string
	shutdownRequested bool
	cfg               *config.Config
	analyzer          *order.Analyzer
	debouncer         *schedule.Debouncer
	loadConfig        ConfigLoader
	observer          order.Observer
	logger            *slog.Logger
	version           string
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		in:         bufio.NewReader(in),
		out:        bufio.NewWriter(out),
		openDocs:   make(map[string]string),
		versions:   make(map[string]int),
		languages:  make(map[string]string),
		published:  make(map[string]struct{}),
		debouncer:  schedule.New(cfg.Performance.Debounce()),
		loadConfig: opts.LoadConfig,
		observer:   opts.Observer,
		logger:     logger,
		version:    opts.Version,
	}
	if err := s.setConfig(cfg.Clone()); err != nil {
		logger.Warn("Falling back to default configuration", "error", err)
		_ = s.setConfig(config.DefaultConfig())
	}
	return s
}

// Run serves LSP requests until the input ends, ctx is cancelled, or the
// client sends "exit".
func (s *Server) Run(ctx context.Context) error {
	defer s.debouncer.Stop()

	type readResult struct {
		payload []byte
		err     error
	}
	reads := make(chan readResult)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			payload, err := readMessage(s.in)
			select {
			case reads <- readResult{payload, err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		var r readResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r = <-reads:
		}
		if r.err != nil {
			if errors.Is(r.err, io.EOF) {
				return nil
			}
			return r.err
		}
		var msg rpcMessage
		if err := json.Unmarshal(r.payload, &msg); err != nil {
			s.logger.Warn("Failed to parse message", "error", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		s.mu.Lock()
		requested := s.shutdownRequested
		s.mu.Unlock()
		if requested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()

	if root != "" && s.loadConfig != nil {
		cfg, err := s.loadConfig(root)
		if err != nil {
			s.logger.Warn("Failed to load workspace config", "root", root, "error", err)
		} else if err := s.setConfig(cfg); err != nil {
			s.logger.Warn("Ignoring workspace config", "root", root, "error", err)
		}
	}
	if len(params.InitializationOptions) > 0 {
		s.applySettings(params.InitializationOptions)
	}

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			ExecuteCommandProvider: &executeCommandOptions{
				Commands: []string{CommandValidateCurrentFile, CommandToggleEnabled},
			},
		},
		ServerInfo: &serverInfo{Name: order.Source, Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.debouncer.Stop()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = params.TextDocument.Text
	s.versions[uri] = params.TextDocument.Version
	s.languages[uri] = params.TextDocument.LanguageID
	s.lastTouched = uri
	s.mu.Unlock()
	s.scheduleAnalysis(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	if _, ok := s.openDocs[uri]; !ok {
		s.mu.Unlock()
		return nil
	}
	s.openDocs[uri] = applyChanges(s.openDocs[uri], params.ContentChanges)
	s.versions[uri] = params.TextDocument.Version
	s.lastTouched = uri
	s.mu.Unlock()
	s.scheduleAnalysis(uri)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	if _, ok := s.openDocs[uri]; !ok {
		s.mu.Unlock()
		return nil
	}
	if params.Text != nil && *params.Text != s.openDocs[uri] {
		// Same version, different text: cached results are stale
		s.openDocs[uri] = *params.Text
		s.analyzer.ClearCache()
	}
	s.lastTouched = uri
	s.mu.Unlock()
	s.scheduleAnalysis(uri)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.debouncer.Cancel(uri)
	s.mu.Lock()
	delete(s.openDocs, uri)
	delete(s.versions, uri)
	delete(s.languages, uri)
	if s.lastTouched == uri {
		s.lastTouched = ""
	}
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logger.Warn("Failed to clear diagnostics", "uri", uri, "error", err)
		}
	}
	return nil
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendNotification(method string, params any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, version *int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return s.sendNotification("textDocument/publishDiagnostics", publishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: list,
	})
}

func (s *Server) showMessage(kind int, message string) {
	if err := s.sendNotification("window/showMessage", showMessageParams{Type: kind, Message: message}); err != nil {
		s.logger.Warn("Failed to show message", "error", err)
	}
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
