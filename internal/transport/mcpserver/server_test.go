package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/service/governor"
)

type countingTool struct {
	calls atomic.Int32
	out   string
}

func (c *countingTool) Definition() core.Tool {
	return core.NewFunctionTool("listar_servicos", "Lista serviços", `{"type":"object","properties":{"nome":{"type":"string"}}}`)
}

func (c *countingTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	c.calls.Add(1)
	return c.out, nil
}

type fakeSession struct {
	id            string
	notifications chan mcp.JSONRPCNotification
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id, notifications: make(chan mcp.JSONRPCNotification, 1)}
}

func (f *fakeSession) Initialize()       {}
func (f *fakeSession) Initialized() bool { return true }
func (f *fakeSession) SessionID() string { return f.id }

func (f *fakeSession) NotificationChannel() chan<- mcp.JSONRPCNotification {
	return f.notifications
}

var _ server.ClientSession = (*fakeSession)(nil)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestServer_GovernsCalls(t *testing.T) {
	tool := &countingTool{out: `{"items":[{"id":1,"nome":"Corte"}]}`}
	s := NewServer([]core.Invokable{tool}, governor.New(2))
	ctx := context.Background()

	res, err := s.handle(ctx, callRequest("listar_servicos", map[string]any{"nome": "corte"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, tool.out, text(t, res))

	// identical arguments are served from the session cache
	_, err = s.handle(ctx, callRequest("listar_servicos", map[string]any{"nome": "corte"}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), tool.calls.Load())

	_, err = s.handle(ctx, callRequest("listar_servicos", map[string]any{"nome": "escova"}))
	require.NoError(t, err)

	res, err = s.handle(ctx, callRequest("listar_servicos", map[string]any{"nome": "unha"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), string(core.KindToolLimit))
	assert.Equal(t, int32(2), tool.calls.Load())
}

func TestServer_UnknownTool(t *testing.T) {
	s := NewServer(nil, governor.New(2))

	res, err := s.handle(context.Background(), callRequest("nope", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), string(core.KindUnknownTool))
}

func TestThreadFromContext_Default(t *testing.T) {
	assert.Equal(t, "mcp:default", threadFromContext(context.Background()))
}

func TestServer_RegistersTools(t *testing.T) {
	s := NewServer([]core.Invokable{&countingTool{}}, governor.New(2))
	require.Contains(t, s.tools, "listar_servicos")
	assert.NotNil(t, s.MCPServer())
}

func TestServer_UnregisterReleasesSessionLedger(t *testing.T) {
	tool := &countingTool{out: `{"items":[]}`}
	gov := governor.New(2)
	s := NewServer([]core.Invokable{tool}, gov)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		session := newFakeSession(fmt.Sprintf("client-%d", i))
		require.NoError(t, s.MCPServer().RegisterSession(ctx, session))

		sctx := s.MCPServer().WithContext(ctx, session)
		res, err := s.handle(sctx, callRequest("listar_servicos", map[string]any{"nome": "corte"}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, 1, gov.Count("mcp:"+session.id, "listar_servicos"))

		s.MCPServer().UnregisterSession(ctx, session.id)
	}

	assert.Equal(t, int32(50), tool.calls.Load())
	assert.Equal(t, 0, gov.Threads())
}

func TestServer_ReleaseSessionDefaultThread(t *testing.T) {
	gov := governor.New(2)
	s := NewServer([]core.Invokable{&countingTool{out: `{"items":[]}`}}, gov)

	_, err := s.handle(context.Background(), callRequest("listar_servicos", nil))
	require.NoError(t, err)
	require.Equal(t, 1, gov.Threads())

	s.releaseSession(context.Background(), "")
	assert.Equal(t, 0, gov.Threads())
}
