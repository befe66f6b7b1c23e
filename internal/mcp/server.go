// Package mcp provides an MCP (Model Context Protocol) server exposing
// experiment validation and build-plan assembly as tools.
package mcp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/reprosim/nrnexp/internal/catalog"
)

// Server wraps the MCP SDK server and the run catalog.
type Server struct {
	server  *sdk.Server
	catalog *catalog.Catalog
	root    string
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "nrnexp")
	Version string // Server version
	Root    string // Project root directory
}

// NewServer creates a new MCP server with experiment tools.
func NewServer(cfg *Config) (*Server, error) {
	cat, err := catalog.Open(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("open run catalog: %w", err)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:  mcpServer,
		catalog: cat,
		root:    cfg.Root,
	}
	s.registerTools()
	return s, nil
}

// registerTools registers all experiment MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "validate_experiment",
		Description: "Validate an experiment document (schema + cross-reference checks) and report all diagnostics",
	}, s.handleValidate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "build_experiment",
		Description: "Validate an experiment document and assemble its deterministic build plan",
	}, s.handleBuild)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "experiment_history",
		Description: "List recorded validation and build runs, newest first",
	}, s.handleHistory)
}

// Run starts the MCP server over stdio transport. This blocks until
// the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.catalog.Close()
	return err
}

// Close closes the server and releases resources.
func (s *Server) Close() error {
	return s.catalog.Close()
}
