package testserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// Call invokes a tool and decodes its structured output into out.
func (ts *TestServer) Call(t *testing.T, name string, args map[string]any, out any) {
	t.Helper()
	res := ts.call(t, name, args)
	require.False(t, res.IsError, "tool %s failed: %s", name, text(res))
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text(res)), out))
	}
}

// CallError invokes a tool that is expected to fail and returns its message.
func (ts *TestServer) CallError(t *testing.T, name string, args map[string]any) string {
	t.Helper()
	res := ts.call(t, name, args)
	require.True(t, res.IsError, "tool %s unexpectedly succeeded", name)
	return text(res)
}

// WriteInbox drops a document into the inbox directory.
func (ts *TestServer) WriteInbox(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(ts.Inbox, name), []byte(body), 0o644))
}

func (ts *TestServer) call(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := ts.Session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func text(res *sdkmcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return ""
	}
	if tc, ok := res.Content[0].(*sdkmcp.TextContent); ok {
		return tc.Text
	}
	return ""
}
