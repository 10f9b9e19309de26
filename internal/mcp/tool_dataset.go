package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/storage"
)

// AddDatasetSummaryTool registers the openvulns_dataset_summary tool.
func AddDatasetSummaryTool(s *server.MCPServer, reader *storage.RecordReader, runs *storage.RunStore) {
	tool := mcp.NewTool(
		"openvulns_dataset_summary",
		mcp.WithDescription("Summarize a stored dataset: record count, source files and the latest extraction run."),
		mcp.WithString("dataset",
			mcp.Description("Dataset kind: 'labeled' (default) or 'all'")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createDatasetSummaryHandler(reader, runs))
}

// DatasetSummaryRequest is the argument schema of openvulns_dataset_summary.
type DatasetSummaryRequest struct {
	Dataset string `json:"dataset,omitempty"`
}

// DatasetSummaryResponse is the result of openvulns_dataset_summary.
type DatasetSummaryResponse struct {
	Dataset   dataset.Kind `json:"dataset"`
	Records   int          `json:"records"`
	Sources   []string     `json:"sources"`
	LatestRun *RunSummary  `json:"latest_run,omitempty"`
}

// RunSummary describes one stored run.
type RunSummary struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	FilesTotal   int        `json:"files_total"`
	FilesSkipped int        `json:"files_skipped"`
	Records      int        `json:"records"`
	Error        string     `json:"error,omitempty"`
}

func createDatasetSummaryHandler(reader *storage.RecordReader, runs *storage.RunStore) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args DatasetSummaryRequest
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if args.Dataset == "" {
			args.Dataset = string(dataset.KindLabeled)
		}
		kind, err := dataset.ParseKind(args.Dataset)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		count, err := reader.CountRecords(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to count records: %w", err)
		}
		sources, err := reader.Sources(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to list sources: %w", err)
		}
		if sources == nil {
			sources = []string{}
		}

		resp := DatasetSummaryResponse{Dataset: kind, Records: count, Sources: sources}

		run, err := runs.LatestRun(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest run: %w", err)
		}
		if run != nil {
			resp.LatestRun = &RunSummary{
				ID:           run.ID,
				StartedAt:    run.StartedAt,
				FinishedAt:   run.FinishedAt,
				FilesTotal:   run.Stats.FilesTotal,
				FilesSkipped: run.Stats.FilesSkipped,
				Records:      run.Stats.Records,
				Error:        run.Error,
			}
		}

		return jsonResult(resp)
	}
}
