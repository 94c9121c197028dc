// Package mcp provides the MCP (Model Context Protocol) server that agent
// runtimes connect to: read tracking, write gating, post-write recording,
// intent selection, and the shared lessons tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/chorus/pkg/gatekeeper"
	"github.com/papercomputeco/chorus/pkg/intent"
	"github.com/papercomputeco/chorus/pkg/lessons"
	"github.com/papercomputeco/chorus/pkg/recorder"
	"github.com/papercomputeco/chorus/pkg/session"
	"github.com/papercomputeco/chorus/pkg/snapshot"
	"github.com/papercomputeco/chorus/pkg/utils"
)

// Config wires the core components into the tool surface.
type Config struct {
	// WorkspaceRoot anchors every tool call.
	WorkspaceRoot string

	// Gatekeeper validates pending writes.
	Gatekeeper *gatekeeper.Gatekeeper

	// Recorder traces committed writes.
	Recorder *recorder.Recorder

	// Snapshots tracks read baselines.
	Snapshots *snapshot.Store

	// Sessions tracks agent sessions and their bound intents.
	Sessions *session.Registry

	// Catalog resolves intents.
	Catalog *intent.Catalog

	// Lessons is the shared knowledge store.
	Lessons *lessons.Store

	// Noop for an empty MCP server with no tools configured.
	Noop bool

	// Logger is the configured slog logger.
	Logger *slog.Logger
}

// Server is the chorus MCP server.
type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler

	// mistakes counts tool calls rejected for invalid or missing parameters.
	mistakes atomic.Int64
}

// NewServer creates a new MCP server with the chorus tools registered.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "chorus",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.WorkspaceRoot == "" {
		return nil, errors.New("workspace root is required")
	}
	if c.Gatekeeper == nil {
		return nil, errors.New("gatekeeper is required")
	}
	if c.Recorder == nil {
		return nil, errors.New("recorder is required")
	}
	if c.Snapshots == nil {
		return nil, errors.New("snapshot store is required")
	}
	if c.Sessions == nil {
		return nil, errors.New("session registry is required")
	}
	if c.Catalog == nil {
		return nil, errors.New("intent catalog is required")
	}
	if c.Lessons == nil {
		return nil, errors.New("lessons store is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	// Add tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        trackReadToolName,
		Description: trackReadDescription,
	}, s.handleTrackRead)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        guardWriteToolName,
		Description: guardWriteDescription,
	}, s.handleGuardWrite)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        recordWriteToolName,
		Description: recordWriteDescription,
	}, s.handleRecordWrite)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        selectIntentToolName,
		Description: selectIntentDescription,
	}, s.handleSelectIntent)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        recordLessonToolName,
		Description: recordLessonDescription,
	}, s.handleRecordLesson)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        recallLessonsToolName,
		Description: recallLessonsDescription,
	}, s.handleRecallLessons)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Mistakes returns how many tool calls were rejected for invalid or missing
// parameters.
func (s *Server) Mistakes() int64 {
	return s.mistakes.Load()
}

// mistake records a parameter-level rejection and returns the error result.
func (s *Server) mistake(message string) *mcp.CallToolResult {
	s.mistakes.Add(1)
	return errorResult(message)
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
	}
}

func textResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
	}
}
