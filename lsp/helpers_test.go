package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/memberorder/config"
)

const outOfOrder = "public class A\n{\n    private int x;\n    public const int Y = 1;\n}\n"

const inOrder = "public class A\n{\n    public const int Y = 1;\n    private int x;\n}\n"

// syncBuffer lets timer goroutines write while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// newTestServer builds a server whose debounce never fires on its own, so
// tests drive analysis explicitly unless they shorten it.
func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *syncBuffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Performance.DebounceTimeout = 3_600_000
	if mutate != nil {
		mutate(cfg)
	}
	out := &syncBuffer{}
	s := NewServer(bytes.NewReader(nil), out, ServerOptions{Config: cfg})
	t.Cleanup(s.debouncer.Stop)
	return s, out
}

func mustParams(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func notify(t *testing.T, s *Server, method string, params any) {
	t.Helper()
	require.NoError(t, s.handleMessage(&rpcMessage{JSONRPC: "2.0", Method: method, Params: mustParams(t, params)}))
}

func request(t *testing.T, s *Server, id int, method string, params any) {
	t.Helper()
	require.NoError(t, s.handleMessage(&rpcMessage{
		JSONRPC: "2.0",
		ID:      mustParams(t, id),
		Method:  method,
		Params:  mustParams(t, params),
	}))
}

func openDoc(t *testing.T, s *Server, uri, text string) {
	t.Helper()
	notify(t, s, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "csharp", Version: 1, Text: text},
	})
}

func readAll(t *testing.T, data []byte) []rpcMessage {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(data))
	var msgs []rpcMessage
	for {
		payload, err := readMessage(r)
		if errors.Is(err, io.EOF) {
			return msgs
		}
		require.NoError(t, err)
		var msg rpcMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		msgs = append(msgs, msg)
	}
}

func publishes(t *testing.T, msgs []rpcMessage) []publishDiagnosticsParams {
	t.Helper()
	var out []publishDiagnosticsParams
	for _, msg := range msgs {
		if msg.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var params publishDiagnosticsParams
		require.NoError(t, json.Unmarshal(msg.Params, &params))
		out = append(out, params)
	}
	return out
}

func shownMessages(t *testing.T, msgs []rpcMessage) []showMessageParams {
	t.Helper()
	var out []showMessageParams
	for _, msg := range msgs {
		if msg.Method != "window/showMessage" {
			continue
		}
		var params showMessageParams
		require.NoError(t, json.Unmarshal(msg.Params, &params))
		out = append(out, params)
	}
	return out
}
