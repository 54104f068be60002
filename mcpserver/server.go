// Package mcpserver exposes the admissions engine as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spektr-org/admissions/engine"
	"github.com/spektr-org/admissions/helpers"
)

// Server answers tool calls against the currently loaded dataset. Reload
// swaps the dataset atomically; calls in flight keep the one they started
// with.
type Server struct {
	mcp    *server.MCPServer
	logger *slog.Logger
	panels []engine.Panel

	mu sync.RWMutex
	ds *helpers.Dataset
}

// Deps holds what the server needs.
type Deps struct {
	Dataset *helpers.Dataset
	Logger  *slog.Logger
	Panels  []engine.Panel // nil → engine.DefaultPanels()
	Version string
}

// New creates the MCP server and registers its tools.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := &Server{
		logger: deps.Logger,
		panels: deps.Panels,
		ds:     deps.Dataset,
	}
	s.mcp = server.NewMCPServer(
		"admissions",
		deps.Version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// Reload replaces the dataset served to subsequent calls.
func (s *Server) Reload(ds *helpers.Dataset) {
	s.mu.Lock()
	s.ds = ds
	s.mu.Unlock()
	s.logger.Info("dataset reloaded", "source", ds.Source, "records", ds.Store.Len())
}

// Dataset returns the dataset currently served.
func (s *Server) Dataset() *helpers.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}

// ============================================================================
// TOOLS
// ============================================================================

func (s *Server) registerTools() {
	filterArgs := []mcp.ToolOption{
		mcp.WithString("terms", mcp.Description("Comma-separated terms to keep, e.g. \"Fall,Spring\". Empty keeps all")),
		mcp.WithString("years", mcp.Description("Inclusive year range, e.g. \"2019-2022\"")),
		mcp.WithString("yearSet", mcp.Description("Comma-separated years to keep, e.g. \"2019,2021\". Exclusive with years")),
		mcp.WithString("departments", mcp.Description("Comma-separated departments to keep. Ignored when the dataset has no department column")),
	}

	s.mcp.AddTool(mcp.NewTool("describe_dataset",
		mcp.WithDescription("Describe the loaded admissions dataset: column mapping, filter domain and skipped rows"),
	), s.handleDescribe)

	summarizeOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Filter the dataset and aggregate it. Either pass request (a JSON object with filter, groupBy, metrics) or the flat arguments"),
		mcp.WithString("request", mcp.Description(`Full JSON request, e.g. {"filter":{"terms":["Fall"]},"groupBy":["year"],"metrics":["enrolled:sum"]}`)),
		mcp.WithString("groupBy", mcp.Description("Comma-separated dimensions: term, year, department")),
		mcp.WithString("metrics", mcp.Description("Comma-separated field:op pairs, op is sum or mean, e.g. \"applications:sum,retention_rate:mean\"")),
	}, filterArgs...)
	s.mcp.AddTool(mcp.NewTool("summarize", summarizeOpts...), s.handleSummarize)

	dashboardOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Recompute the full admissions dashboard (KPIs plus every panel) for a filter"),
	}, filterArgs...)
	s.mcp.AddTool(mcp.NewTool("dashboard", dashboardOpts...), s.handleDashboard)
}

func (s *Server) handleDescribe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ds := s.Dataset()
	if ds == nil {
		return mcp.NewToolResultError("no dataset loaded"), nil
	}
	return jsonResult(map[string]any{
		"source":  ds.Source,
		"records": ds.Store.Len(),
		"facts":   ds.Store.Facts(),
		"domain":  ds.Store.Domain(),
		"mapping": ds.Mapping,
		"skipped": ds.Skipped,
	})
}

// SummarizeResult is the summarize tool payload.
type SummarizeResult struct {
	Records int               `json:"records"`
	Summary *engine.Summary   `json:"summary"`
	Table   *engine.TableData `json:"table"`
}

func (s *Server) handleSummarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ds := s.Dataset()
	if ds == nil {
		return mcp.NewToolResultError("no dataset loaded"), nil
	}

	r, err := requestFromArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session := engine.NewSession(ds.Store, engine.WithLogger(s.logger))
	if err := session.SetFilter(r.Filter); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary, err := session.Summarize(r.GroupBy, r.Metrics)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(SummarizeResult{
		Records: session.View().Len(),
		Summary: summary,
		Table:   engine.BuildTable(summary, ""),
	})
}

func (s *Server) handleDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ds := s.Dataset()
	if ds == nil {
		return mcp.NewToolResultError("no dataset loaded"), nil
	}

	spec, err := filterFromArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session := engine.NewSession(ds.Store,
		engine.WithLogger(s.logger),
		engine.WithPanels(s.panels))
	result, err := session.Dashboard(spec, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

// ============================================================================
// ARGUMENTS
// ============================================================================

func requestFromArgs(req mcp.CallToolRequest) (*engine.Request, error) {
	if raw := req.GetString("request", ""); raw != "" {
		return engine.ParseRequest([]byte(raw))
	}

	spec, err := filterFromArgs(req)
	if err != nil {
		return nil, err
	}
	metrics, err := engine.ParseMetrics(engine.SplitList(req.GetString("metrics", "")))
	if err != nil {
		return nil, err
	}
	groupBy := engine.SplitList(req.GetString("groupBy", ""))
	for i, d := range groupBy {
		groupBy[i] = strings.ToLower(d)
	}
	return &engine.Request{
		Filter:  spec,
		GroupBy: groupBy,
		Metrics: metrics,
	}, nil
}

func filterFromArgs(req mcp.CallToolRequest) (engine.FilterSpec, error) {
	years, err := engine.ParseYearFilter(req.GetString("years", ""), req.GetString("yearSet", ""))
	if err != nil {
		return engine.FilterSpec{}, err
	}
	return engine.FilterSpec{
		Terms:       engine.SplitList(req.GetString("terms", "")),
		Years:       years,
		Departments: engine.SplitList(req.GetString("departments", "")),
	}, nil
}

// ============================================================================
// RESULTS
// ============================================================================

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
