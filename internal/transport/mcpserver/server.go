package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/service/governor"
	"github.com/sandevgo/svim/pkg/log"
)

const threadPrefix = "mcp:"

// Server exposes the salon tools over MCP stdio. Every client session gets its own
// governor thread, so the call ceiling and cache apply per session.
type Server struct {
	mcp      *server.MCPServer
	governor *governor.Governor
	tools    map[string]core.Invokable
	in       io.Reader
	out      io.Writer
}

func NewServer(tools []core.Invokable, gov *governor.Governor) *Server {
	s := &Server{
		governor: gov,
		tools:    make(map[string]core.Invokable, len(tools)),
		in:       os.Stdin,
		out:      os.Stdout,
	}

	hooks := &server.Hooks{}
	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		s.releaseSession(ctx, session.SessionID())
	})

	s.mcp = server.NewMCPServer(
		core.SvimName,
		core.SvimVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(hooks),
	)

	for _, t := range tools {
		def := t.Definition().Function
		s.tools[def.Name] = t
		s.mcp.AddTool(mcp.NewToolWithRawSchema(def.Name, def.Description, def.Parameters), s.handle)
	}
	return s
}

// MCPServer returns the underlying server, mainly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func threadFromContext(ctx context.Context) string {
	if session := server.ClientSessionFromContext(ctx); session != nil && session.SessionID() != "" {
		return threadPrefix + session.SessionID()
	}
	return threadPrefix + "default"
}

// releaseSession drops the governor ledger of a client session that went away.
func (s *Server) releaseSession(ctx context.Context, sessionID string) {
	thread := threadPrefix + "default"
	if sessionID != "" {
		thread = threadPrefix + sessionID
	}
	s.governor.Reset(thread)
	log.FromCtx(ctx).Debug().Str("thread", thread).Msg("mcp session released")
}

func (s *Server) handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.Params.Name
	inner, ok := s.tools[name]
	if !ok {
		return mcp.NewToolResultError((&core.ToolError{Kind: core.KindUnknownTool, Message: "unknown tool", Tool: name}).JSON()), nil
	}

	args, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return mcp.NewToolResultError((&core.ToolError{Kind: core.KindArgsInvalid, Message: err.Error(), Tool: name}).JSON()), nil
	}

	thread := threadFromContext(ctx)
	out, err := s.governor.Wrap(thread, inner).Invoke(ctx, args)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("tool", name).Str("thread", thread).Msg("mcp tool call failed")
		return mcp.NewToolResultError(core.ToolErrorFrom(err).JSON()), nil
	}
	if core.IsErrorPayload(out) {
		return mcp.NewToolResultError(out), nil
	}
	return mcp.NewToolResultText(out), nil
}

// Start serves stdio until the input closes or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Int("tools", len(s.tools)).Int("max_calls", s.governor.MaxCalls()).Msg("mcp stdio server started")

	stdio := server.NewStdioServer(s.mcp)
	err := stdio.Listen(ctx, s.in, s.out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}
