// Package mcp exposes function extraction as Model Context Protocol tools
// served over stdio.
package mcp

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/openvulns/internal/extractor"
	"github.com/mvp-joe/openvulns/internal/storage"
)

// ServerName and ServerVersion identify the server to MCP clients.
const (
	ServerName    = "openvulns-mcp"
	ServerVersion = "1.0.0"
)

// ServerConfig wires the tools to the project.
type ServerConfig struct {
	// RootDir bounds every path argument.
	RootDir string
	// Processor performs extraction; required.
	Processor *extractor.Processor
	// DB enables the dataset summary tool when non-nil.
	DB *sql.DB
}

// Server manages the MCP server lifecycle.
type Server struct {
	config *ServerConfig
	mcp    *server.MCPServer
}

// NewServer creates an MCP server with the extraction tools registered.
func NewServer(config *ServerConfig) (*Server, error) {
	if config == nil || config.Processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if config.RootDir == "" {
		return nil, fmt.Errorf("root directory is required")
	}

	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
	)

	AddExtractFunctionTool(s, config.Processor, config.RootDir)
	AddListFunctionsTool(s, config.Processor, config.RootDir)
	if config.DB != nil {
		AddDatasetSummaryTool(s, storage.NewRecordReader(config.DB), storage.NewRunStore(config.DB))
	}

	return &Server{config: config, mcp: s}, nil
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		err := server.ServeStdio(s.mcp)
		if err != nil {
			err = fmt.Errorf("MCP server error: %w", err)
		}
		errCh <- err
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
