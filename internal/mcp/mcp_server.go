// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/defectset/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the defectset MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Defect Dataset Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: build_dataset ---
	s.AddTool(mcp.NewTool("build_dataset",
		mcp.WithDescription("Build the labeled per-file defect dataset from a release timeline and a commit-metrics file."),
		mcp.WithString("project", mcp.Description("Project identifier written to every row (defaults to the configured project).")),
		mcp.WithString("releases_file", mcp.Description("Path to the release timeline CSV.")),
		mcp.WithString("commits_file", mcp.Description("Path to the commit-metrics CSV.")),
		mcp.WithNumber("min_releases", mcp.Description("Minimum number of releases required.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of rows returned.")),
	), h.handleBuildDataset)

	// --- 2. Tool: classify_message ---
	s.AddTool(mcp.NewTool("classify_message",
		mcp.WithDescription("Decide whether a commit message describes a bug fix."),
		mcp.WithString("message", mcp.Description("The commit message to classify."), mcp.Required()),
		mcp.WithString("classifier", mcp.Description("Classification strategy. Defaults to 'ticket'."), mcp.Enum("ticket", "pattern")),
		mcp.WithString("tickets", mcp.Description("Comma separated fixed ticket IDs for the ticket strategy.")),
		mcp.WithString("ticket_prefix", mcp.Description("Ticket key prefix, e.g. 'PROJ-'.")),
	), h.handleClassifyMessage)

	// --- 3. Tool: assign_version ---
	s.AddTool(mcp.NewTool("assign_version",
		mcp.WithDescription("Return the release a timestamp belongs to: the latest release dated at or before it."),
		mcp.WithString("date", mcp.Description("Commit date, e.g. '2020-03-01 10:00:00 +0100'."), mcp.Required()),
		mcp.WithString("releases_file", mcp.Description("Path to the release timeline CSV.")),
	), h.handleAssignVersion)

	return s
}

// StartMCPServer starts the defectset MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
