package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/memberorder/config"
	"github.com/c360studio/memberorder/order"
)

func TestInitialize_Capabilities(t *testing.T) {
	s, out := newTestServer(t, nil)
	request(t, s, 1, "initialize", initializeParams{})

	msgs := readAll(t, out.Bytes())
	require.Len(t, msgs, 1)
	assert.JSONEq(t, `1`, string(msgs[0].ID))

	var result initializeResult
	require.NoError(t, json.Unmarshal(msgs[0].Result, &result))
	assert.Equal(t, 2, result.Capabilities.TextDocumentSync.Change)
	assert.True(t, result.Capabilities.TextDocumentSync.OpenClose)
	require.NotNil(t, result.Capabilities.ExecuteCommandProvider)
	assert.Equal(t, []string{CommandValidateCurrentFile, CommandToggleEnabled}, result.Capabilities.ExecuteCommandProvider.Commands)
	assert.Equal(t, order.Source, result.ServerInfo.Name)
}

func TestInitialize_LoadsWorkspaceConfig(t *testing.T) {
	root := t.TempDir()
	var loadedRoot string
	s := NewServer(bytes.NewReader(nil), &syncBuffer{}, ServerOptions{
		LoadConfig: func(r string) (*config.Config, error) {
			loadedRoot = r
			cfg := config.DefaultConfig()
			cfg.MemberOrder = []string{"PrivateField", "PublicConst"}
			cfg.Performance.DebounceTimeout = 3_600_000
			return cfg, nil
		},
	})
	t.Cleanup(s.debouncer.Stop)

	request(t, s, 1, "initialize", initializeParams{RootURI: pathToURI(root)})
	assert.Equal(t, root, loadedRoot)
	assert.Equal(t, []string{"PrivateField", "PublicConst"}, s.analyzer.Order().Names())
	assert.Equal(t, time.Hour, s.debouncer.Delay())
}

func TestPublishDiagnostics(t *testing.T) {
	s, out := newTestServer(t, nil)
	uri := "file:///proj/Assets/A.cs"
	openDoc(t, s, uri, outOfOrder)

	count, ok := s.analyzeAndPublish(uri)
	require.True(t, ok)
	assert.Equal(t, 1, count)

	pubs := publishes(t, readAll(t, out.Bytes()))
	require.Len(t, pubs, 1)
	assert.Equal(t, uri, pubs[0].URI)
	require.NotNil(t, pubs[0].Version)
	assert.Equal(t, 1, *pubs[0].Version)
	require.Len(t, pubs[0].Diagnostics, 1)

	got := pubs[0].Diagnostics[0]
	assert.Equal(t, position{Line: 3, Character: 0}, got.Range.Start)
	assert.Equal(t, position{Line: 3, Character: len("    public const int Y = 1;")}, got.Range.End)
	assert.Equal(t, 2, got.Severity)
	assert.Equal(t, "memberorder", got.Source)
	assert.Equal(t, diagnosticCode, got.Code)
	assert.Equal(t, `PublicConst "Y" should appear before PrivateField`, got.Message)
}

func TestDidChange_IncrementalFixClearsDiagnostics(t *testing.T) {
	s, out := newTestServer(t, nil)
	uri := "file:///proj/A.cs"
	openDoc(t, s, uri, outOfOrder)
	s.analyzeAndPublish(uri)
	out.Reset()

	// Swap the two member lines
	notify(t, s, "textDocument/didChange", didChangeTextDocumentParams{
		TextDocument: versionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{
			Range: &lspRange{Start: position{Line: 2, Character: 0}, End: position{Line: 4, Character: 0}},
			Text:  "    public const int Y = 1;\n    private int x;\n",
		}},
	})
	s.mu.Lock()
	assert.Equal(t, inOrder, s.openDocs[uri])
	assert.Equal(t, 2, s.versions[uri])
	s.mu.Unlock()

	s.analyzeAndPublish(uri)
	pubs := publishes(t, readAll(t, out.Bytes()))
	require.Len(t, pubs, 1)
	assert.Empty(t, pubs[0].Diagnostics)
	assert.NotContains(t, s.published, uri)
}

func TestDidChange_DebouncedAnalysis(t *testing.T) {
	s, out := newTestServer(t, func(c *config.Config) { c.Performance.DebounceTimeout = 10 })
	uri := "file:///proj/A.cs"

	openDoc(t, s, uri, inOrder)
	for v := 2; v <= 5; v++ {
		notify(t, s, "textDocument/didChange", didChangeTextDocumentParams{
			TextDocument:   versionedTextDocumentIdentifier{URI: uri, Version: v},
			ContentChanges: []textDocumentContentChangeEvent{{Text: outOfOrder}},
		})
	}

	var last publishDiagnosticsParams
	require.Eventually(t, func() bool {
		pubs := publishes(t, readAll(t, out.Bytes()))
		if len(pubs) == 0 {
			return false
		}
		last = pubs[len(pubs)-1]
		return last.Version != nil && *last.Version == 5
	}, 2*time.Second, 10*time.Millisecond)

	assert.Len(t, last.Diagnostics, 1)
}

func TestDidSave_WithChangedTextReanalyzes(t *testing.T) {
	s, out := newTestServer(t, nil)
	uri := "file:///proj/A.cs"
	openDoc(t, s, uri, inOrder)
	count, _ := s.analyzeAndPublish(uri)
	assert.Equal(t, 0, count)

	text := outOfOrder
	notify(t, s, "textDocument/didSave", didSaveTextDocumentParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Text:         &text,
	})
	out.Reset()

	count, _ = s.analyzeAndPublish(uri)
	assert.Equal(t, 1, count, "same version with new text must not hit the cache")
}

func TestDidClose_ClearsPublishedDiagnostics(t *testing.T) {
	s, out := newTestServer(t, nil)
	uri := "file:///proj/A.cs"
	openDoc(t, s, uri, outOfOrder)
	s.analyzeAndPublish(uri)
	out.Reset()

	notify(t, s, "textDocument/didClose", didCloseTextDocumentParams{TextDocument: textDocumentIdentifier{URI: uri}})

	pubs := publishes(t, readAll(t, out.Bytes()))
	require.Len(t, pubs, 1)
	assert.Equal(t, uri, pubs[0].URI)
	assert.NotNil(t, pubs[0].Diagnostics)
	assert.Empty(t, pubs[0].Diagnostics)
	assert.Equal(t, 0, s.debouncer.Pending())

	_, ok := s.analyzeAndPublish(uri)
	assert.False(t, ok)
}

func TestNonCSharpDocumentsAreNotPublished(t *testing.T) {
	s, out := newTestServer(t, nil)
	notify(t, s, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: "file:///proj/notes.txt", LanguageID: "plaintext", Version: 1, Text: outOfOrder},
	})

	_, ok := s.analyzeAndPublish("file:///proj/notes.txt")
	assert.True(t, ok)
	assert.Empty(t, publishes(t, readAll(t, out.Bytes())))
}

// editingObserver edits the document while its analysis is in flight.
type editingObserver struct {
	server *Server
	uri    string
}

func (o *editingObserver) ObserveAnalysis(result string, _ int, _ time.Duration) {
	if result != order.ResultOK {
		return
	}
	o.server.mu.Lock()
	o.server.versions[o.uri]++
	o.server.mu.Unlock()
}

func (o *editingObserver) ObserveCacheSize(int) {}

func TestStaleResultIsDropped(t *testing.T) {
	uri := "file:///proj/A.cs"
	cfg := config.DefaultConfig()
	cfg.Performance.DebounceTimeout = 3_600_000
	obs := &editingObserver{uri: uri}
	out := &syncBuffer{}
	s := NewServer(bytes.NewReader(nil), out, ServerOptions{Config: cfg, Observer: obs})
	t.Cleanup(s.debouncer.Stop)
	obs.server = s

	openDoc(t, s, uri, outOfOrder)
	_, ok := s.analyzeAndPublish(uri)
	assert.False(t, ok)
	assert.Empty(t, publishes(t, readAll(t, out.Bytes())))
}

func TestUnknownRequest(t *testing.T) {
	s, out := newTestServer(t, nil)
	request(t, s, 9, "textDocument/hover", map[string]any{})
	notify(t, s, "$/cancelRequest", map[string]any{"id": 1})

	msgs := readAll(t, out.Bytes())
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Error)
	assert.Equal(t, codeMethodNotFound, msgs[0].Error.Code)
}

func TestShutdownAndExit(t *testing.T) {
	s, out := newTestServer(t, nil)
	uri := "file:///proj/A.cs"
	openDoc(t, s, uri, outOfOrder)
	s.analyzeAndPublish(uri)
	out.Reset()

	err := s.handleMessage(&rpcMessage{Method: "exit"})
	assert.ErrorIs(t, err, ErrExitWithoutShutdown)

	request(t, s, 2, "shutdown", nil)
	msgs := readAll(t, out.Bytes())
	require.Len(t, msgs, 2)
	assert.Equal(t, "textDocument/publishDiagnostics", msgs[0].Method)
	assert.JSONEq(t, `2`, string(msgs[1].ID))

	err = s.handleMessage(&rpcMessage{Method: "exit"})
	assert.ErrorIs(t, err, ErrExit)
}

func frame(t *testing.T, msgs ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range msgs {
		data, err := json.Marshal(m)
		require.NoError(t, err)
		require.NoError(t, writeMessage(&buf, data))
	}
	return buf.Bytes()
}

func TestRun_Session(t *testing.T) {
	uri := pathToURI(filepath.Join(t.TempDir(), "A.cs"))
	input := frame(t,
		map[string]any{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]any{}},
		map[string]any{"jsonrpc": "2.0", "method": "initialized", "params": map[string]any{}},
		map[string]any{"jsonrpc": "2.0", "method": "textDocument/didOpen", "params": didOpenTextDocumentParams{
			TextDocument: textDocumentItem{URI: uri, LanguageID: "csharp", Version: 1, Text: outOfOrder},
		}},
		map[string]any{"jsonrpc": "2.0", "id": 2, "method": "workspace/executeCommand", "params": executeCommandParams{
			Command: CommandValidateCurrentFile,
		}},
		map[string]any{"jsonrpc": "2.0", "id": 3, "method": "shutdown"},
		map[string]any{"jsonrpc": "2.0", "method": "exit"},
	)

	cfg := config.DefaultConfig()
	cfg.Performance.DebounceTimeout = 3_600_000
	out := &syncBuffer{}
	s := NewServer(bytes.NewReader(input), out, ServerOptions{Config: cfg})

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrExit)

	msgs := readAll(t, out.Bytes())
	pubs := publishes(t, msgs)
	require.NotEmpty(t, pubs)
	assert.Len(t, pubs[0].Diagnostics, 1)

	var sawValidate bool
	for _, msg := range msgs {
		if string(msg.ID) == "2" {
			var res validateResult
			require.NoError(t, json.Unmarshal(msg.Result, &res))
			assert.Equal(t, uri, res.URI)
			assert.Equal(t, 1, res.Violations)
			sawValidate = true
		}
	}
	assert.True(t, sawValidate)
}

func TestRun_EOF(t *testing.T) {
	s := NewServer(strings.NewReader(""), &syncBuffer{}, ServerOptions{})
	assert.NoError(t, s.Run(context.Background()))
}

func TestRun_ContextCancelled(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = w.Close()
		_ = r.Close()
	})

	s := NewServer(r, &syncBuffer{}, ServerOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
