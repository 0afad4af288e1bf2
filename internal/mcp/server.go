package mcpserver

import (
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"blockshell/internal/policy"
	"blockshell/internal/shell"
)

// Server exposes one shell over MCP so agents can drive it. Every tool call
// holds the server's lock; the shell sees a single caller.
type Server struct {
	mcp    *server.MCPServer
	logger *slog.Logger

	mu     sync.Mutex
	shell  *shell.Runtime
	caller policy.Caller
}

// Deps holds what the app layer passes to the MCP server.
type Deps struct {
	Shell *shell.Runtime
	// Caller is the identity used when a tool call names no permissions or
	// roles of its own.
	Caller  policy.Caller
	Logger  *slog.Logger
	Version string
}

// New creates and configures the MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{
		logger: logger,
		shell:  deps.Shell,
		caller: deps.Caller,
	}

	s.mcp = server.NewMCPServer(
		"blockshell-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerBindingTools()
	s.registerWindowTools()
	s.registerOverlayTools()
	s.registerResources()
	return s
}

// Do runs fn with exclusive access to the shell. Callers outside MCP (the
// bundle watcher) use it to stay serialized with tool calls.
func (s *Server) Do(fn func(*shell.Runtime) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.shell)
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}
