package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/openvulns/internal/extractor"
	"github.com/mvp-joe/openvulns/internal/features"
	"github.com/mvp-joe/openvulns/internal/scanner"
)

// AddExtractFunctionTool registers the openvulns_extract_function tool.
func AddExtractFunctionTool(s *server.MCPServer, p *extractor.Processor, rootDir string) {
	tool := mcp.NewTool(
		"openvulns_extract_function",
		mcp.WithDescription(`Extract the function enclosing one line of a Solidity file.

Returns the match kind and the block:
- enclosed: the anchor lies inside a function whose braces closed
- degenerate: the anchor sits at contract level; the block is the anchor line
- truncated: the function never closed before end of file
- none: no enclosing function was found`),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path, relative to the project root")),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("1-based anchor line")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createExtractFunctionHandler(p, rootDir))
}

// ExtractFunctionRequest is the argument schema of openvulns_extract_function.
type ExtractFunctionRequest struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

// ExtractFunctionResponse is the result of openvulns_extract_function.
type ExtractFunctionResponse struct {
	Source   string           `json:"source"`
	Match    scanner.Match    `json:"match"`
	Features *features.Vector `json:"features,omitempty"`
}

func createExtractFunctionHandler(p *extractor.Processor, rootDir string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ExtractFunctionRequest
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if args.Line < 1 {
			return mcp.NewToolResultError("line parameter is required and must be >= 1"), nil
		}

		src, errResult := loadSource(p, rootDir, args.Path)
		if errResult != nil {
			return errResult, nil
		}

		m, err := p.Scanner().ExtractAnchored(src.Lines, args.Line)
		if errors.Is(err, scanner.ErrAnchorOutOfRange) {
			return mcp.NewToolResultError(fmt.Sprintf("line %d is outside %s (%d lines)", args.Line, args.Path, len(src.Lines))), nil
		}
		if err != nil {
			return nil, fmt.Errorf("extraction failed: %w", err)
		}

		resp := ExtractFunctionResponse{Source: src.ID, Match: m}
		if m.Found() {
			m.Block = m.Block.WithSource(src.ID)
			resp.Match = m
			fv := p.Features(src.Text)
			resp.Features = &fv
		}

		return jsonResult(resp)
	}
}

// loadSource resolves and reads a path argument. User errors come back as a
// tool error result.
func loadSource(p *extractor.Processor, rootDir, path string) (*extractor.SourceFile, *mcp.CallToolResult) {
	resolved, err := resolvePath(rootDir, path)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", path, err))
	}
	src, err := extractor.NewSourceFile(resolved, p.SourceID(resolved), data)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return src, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
