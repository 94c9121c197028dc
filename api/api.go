// Package api is the read-only HTTP surface for inspecting a chorus
// workspace: the trace ledger, intent catalog and map, lessons, and live
// session state. Mutations only ever happen through the MCP tool surface;
// this server observes.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chorus/pkg/gitrev"
	"github.com/papercomputeco/chorus/pkg/intent"
	"github.com/papercomputeco/chorus/pkg/lessons"
	"github.com/papercomputeco/chorus/pkg/session"
	"github.com/papercomputeco/chorus/pkg/snapshot"
	"github.com/papercomputeco/chorus/pkg/trace"
)

// Config carries the server's listen address, workspace anchor, and the
// optional MCP handler to mount under /mcp.
type Config struct {
	ListenAddr    string
	WorkspaceRoot string

	// MCPHandler, when non-nil, is mounted at /mcp via the fiber adaptor.
	MCPHandler http.Handler

	// Mistakes reports the tool-layer mistake counter for /stats.
	// Optional.
	Mistakes func() int64
}

// Deps are the core components the server reads from.
type Deps struct {
	Ledger    *trace.Ledger
	Catalog   *intent.Catalog
	Lessons   *lessons.Store
	Sessions  *session.Registry
	Snapshots *snapshot.Store
	Probe     *gitrev.Probe
}

// Server is the API server for inspecting the chorus system.
type Server struct {
	config Config
	deps   Deps
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server. Dependencies are injected so the
// server can share component instances with the MCP layer.
func NewServer(config Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		deps:   deps,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/trace", s.handleTrace)
	app.Get("/intents", s.handleIntents)
	app.Get("/intent-map", s.handleIntentMap)
	app.Get("/lessons", s.handleLessons)
	app.Get("/sessions", s.handleSessions)
	app.Get("/stats", s.handleStats)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
		app.All("/mcp/*", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting chorus API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
