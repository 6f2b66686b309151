// Package mcpserver exposes the session registry as a set of remote-invocable
// tools over the Model Context Protocol, backed by the same in-memory
// registry as the REST surface.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wardenlabs/bruteloom/pkg/registry"
	"github.com/wardenlabs/bruteloom/pkg/session"
)

// Server adapts a session registry to an MCP tool surface. Sessions started
// through this surface run in-process, unlike the REST surface's
// sub-process backend.
type Server struct {
	registry *registry.Registry
	mcp      *server.MCPServer
}

// New builds an MCP server over reg and registers its tool table.
func New(reg *registry.Registry) *Server {
	s := &Server{
		registry: reg,
		mcp: server.NewMCPServer(
			"bruteloom",
			"1.0.0",
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks, serving tool calls over stdin/stdout until the
// transport closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("sleep",
		mcp.WithDescription("Cooperative delay; returns once the requested number of seconds has elapsed."),
		mcp.WithNumber("seconds", mcp.Required(), mcp.Description("seconds to sleep")),
	), s.handleSleep)

	s.mcp.AddTool(mcp.NewTool("list_plugins",
		mcp.WithDescription("Returns the human-readable catalog of registered plugins."),
	), s.handleListPlugins)

	s.mcp.AddTool(mcp.NewTool("plugin_info",
		mcp.WithDescription("Returns documentation for one plugin."),
		mcp.WithString("plugin_id", mcp.Required(), mcp.Description("plugin id, e.g. http.basic")),
	), s.handlePluginInfo)

	s.mcp.AddTool(mcp.NewTool("get_available_workers",
		mcp.WithDescription("Returns the number of session slots free under the concurrency cap."),
	), s.handleAvailableWorkers)

	s.mcp.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("Returns a brief listing of every known session."),
	), s.handleListSessions)

	s.mcp.AddTool(mcp.NewTool("did_session_complete",
		mcp.WithDescription("Reports whether a session has reached a terminal state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("session id")),
	), s.handleDidSessionComplete)

	s.mcp.AddTool(mcp.NewTool("wait_for_session",
		mcp.WithDescription("Polls a session at 1Hz, returning \"completed\" or \"still running\" once the deadline elapses."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("session id")),
		mcp.WithNumber("seconds", mcp.Required(), mcp.Description("maximum seconds to wait")),
	), s.handleWaitForSession)

	s.mcp.AddTool(mcp.NewTool("show_session",
		mcp.WithDescription("Returns a full session snapshot."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("session id")),
	), s.handleShowSession)

	s.mcp.AddTool(mcp.NewTool("stop_session",
		mcp.WithDescription("Requests cooperative cancellation of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("session id")),
	), s.handleStopSession)

	s.mcp.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Creates a new session from an argv array; returns its id."),
		mcp.WithString("argv", mcp.Required(), mcp.Description("JSON-encoded array of argv strings: the plugin id followed by its flags")),
	), s.handleStartSession)
}

func (s *Server) handleSleep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seconds, err := requireNumber(req, "seconds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	case <-ctx.Done():
	}
	return mcp.NewToolResultText("slept"), nil
}

func (s *Server) handleListPlugins(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := s.registry.Plugins.IDs()
	return textJSON(ids)
}

func (s *Server) handlePluginInfo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("plugin_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.registry.Plugins.Lookup(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return textJSON(map[string]interface{}{
		"id":                   p.ID(),
		"default_port":         p.DefaultPort(),
		"required_dimensions": p.RequiredDimensions(),
		"single_match":         p.SingleMatch(),
	})
}

func (s *Server) handleAvailableWorkers(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textJSON(map[string]int{"available_workers": s.registry.AvailableWorkers()})
}

func (s *Server) handleListSessions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type brief struct {
		ID           string `json:"id"`
		Plugin       string `json:"plugin"`
		AttemptsDone uint64 `json:"attempts_done"`
		HasFindings  bool   `json:"has_findings"`
	}
	snaps := s.registry.List()
	out := make([]brief, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, brief{
			ID:           snap.ID,
			Plugin:       snap.Plugin,
			AttemptsDone: snap.AttemptsDone,
			HasFindings:  len(snap.Findings) > 0,
		})
	}
	return textJSON(out)
}

func (s *Server) handleDidSessionComplete(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.registry.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return textJSON(sess.Completed())
}

func (s *Server) handleWaitForSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seconds, err := requireNumber(req, "seconds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.registry.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	deadline := time.Now().Add(time.Duration(seconds * float64(time.Second)))
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if sess.Completed() {
			return mcp.NewToolResultText("completed"), nil
		}
		if time.Now().After(deadline) {
			return mcp.NewToolResultText("still running"), nil
		}
		select {
		case <-ctx.Done():
			return mcp.NewToolResultText("still running"), nil
		case <-ticker.C:
		}
	}
}

func (s *Server) handleShowSession(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.registry.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return textJSON(sess.Snapshot())
}

func (s *Server) handleStopSession(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.registry.Stop(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("stopping"), nil
}

func (s *Server) handleStartSession(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("argv")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var argv []string
	if err := json.Unmarshal([]byte(raw), &argv); err != nil {
		return mcp.NewToolResultError("argv must be a JSON array of strings: " + err.Error()), nil
	}

	sess, err := s.registry.Start("mcp", argv, session.InProcessBackend{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(sess.ID), nil
}

// requireNumber extracts a required numeric argument. The MCP wire format
// carries tool arguments as JSON, so a number always unmarshals as float64;
// there is no RequireFloat helper to lean on.
func requireNumber(req mcp.CallToolRequest, name string) (float64, error) {
	v, ok := req.GetArguments()[name]
	if !ok {
		return 0, fmt.Errorf("%s parameter is required", name)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return f, nil
}

func textJSON(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshaling result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
