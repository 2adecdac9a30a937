// Package mcptools exposes the codebase search capabilities to the
// reviewing agent as MCP tools.
package mcptools

import (
	"context"

	"github.com/grippy-ci/grippy/internal/codebase"
	"github.com/grippy-ci/grippy/internal/vectorstore"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with the dependencies the four codebase
// tools need.
type Server struct {
	server   *mcp.Server
	repoRoot string
	vec      *vectorstore.Store
	embed    codebase.Embedder
}

// Config holds the dependencies NewServer wires into the four tools.
type Config struct {
	RepoRoot string
	Vector   *vectorstore.Store
	Embedder codebase.Embedder
}

// NewServer creates an MCP server with all codebase tools registered.
func NewServer(cfg Config) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "grippy",
		Version: "0.1.0",
	}, nil)

	s := &Server{
		server:   mcpServer,
		repoRoot: cfg.RepoRoot,
		vec:      cfg.Vector,
		embed:    cfg.Embedder,
	}

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Embed a query and return the top-k most similar indexed source chunks",
	}, s.handleSemanticSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "regex_search",
		Description: "Search the repository for a regular expression using grep/ripgrep",
	}, s.handleRegexSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read_file",
		Description: "Read a line range from a file under the repository root",
	}, s.handleReadFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_files",
		Description: "List files under the repository root matching a glob pattern",
	}, s.handleListFiles)
}
