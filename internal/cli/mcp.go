package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/openvulns/internal/extractor"
	"github.com/mvp-joe/openvulns/internal/mcp"
	"github.com/mvp-joe/openvulns/internal/storage"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for function extraction",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can
extract functions from the project's Solidity files.

Tools:
- openvulns_extract_function: the function enclosing one line
- openvulns_list_functions: every top-level function of a file
- openvulns_dataset_summary: counts and latest run of a stored dataset

Communicates via stdio (standard MCP transport).

Example:
  openvulns mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := loadProject(rootDir, cfgFile)
	if err != nil {
		return err
	}

	// stdout carries the protocol
	fmt.Fprintf(os.Stderr, "OpenVulns MCP Server\n")
	fmt.Fprintf(os.Stderr, "Project Root: %s\n\n", p.root)

	processor, err := extractor.NewProcessor(p.cfg.ExtractorOptions(p.root, nil))
	if err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}
	defer processor.Close()

	db, err := storage.Open(p.cfg.StoragePath(p.root))
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := mcp.NewServer(&mcp.ServerConfig{
		RootDir:   p.root,
		Processor: processor,
		DB:        db,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	return srv.Serve(ctx)
}
