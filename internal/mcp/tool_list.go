package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/openvulns/internal/extractor"
	"github.com/mvp-joe/openvulns/internal/features"
	"github.com/mvp-joe/openvulns/internal/scanner"
)

// AddListFunctionsTool registers the openvulns_list_functions tool.
func AddListFunctionsTool(s *server.MCPServer, p *extractor.Processor, rootDir string) {
	tool := mcp.NewTool(
		"openvulns_list_functions",
		mcp.WithDescription("List every top-level function block of a Solidity file with its line span, signature and the file's feature signals."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path, relative to the project root")),
		mcp.WithBoolean("include_code",
			mcp.Description("Include each block's source text (default: true)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createListFunctionsHandler(p, rootDir))
}

// ListFunctionsRequest is the argument schema of openvulns_list_functions.
type ListFunctionsRequest struct {
	Path        string `json:"path"`
	IncludeCode *bool  `json:"include_code,omitempty"`
}

// ListFunctionsResponse is the result of openvulns_list_functions.
type ListFunctionsResponse struct {
	Source    string              `json:"source"`
	Functions []scanner.CodeBlock `json:"functions"`
	Total     int                 `json:"total"`
	Features  features.Vector     `json:"features"`
}

func createListFunctionsHandler(p *extractor.Processor, rootDir string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ListFunctionsRequest
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		src, errResult := loadSource(p, rootDir, args.Path)
		if errResult != nil {
			return errResult, nil
		}

		includeCode := args.IncludeCode == nil || *args.IncludeCode
		blocks := p.Scanner().ExtractAll(src.Lines)
		for i := range blocks {
			blocks[i] = blocks[i].WithSource(src.ID)
			if !includeCode {
				blocks[i].Text = ""
			}
		}
		if blocks == nil {
			blocks = []scanner.CodeBlock{}
		}

		return jsonResult(ListFunctionsResponse{
			Source:    src.ID,
			Functions: blocks,
			Total:     len(blocks),
			Features:  p.Features(src.Text),
		})
	}
}
