package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/defectset/core"
	"github.com/huangsam/defectset/core/agg"
	"github.com/huangsam/defectset/core/bugfix"
	"github.com/huangsam/defectset/core/release"
	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/internal/csvio"
	"github.com/huangsam/defectset/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

type buildResult struct {
	Summary schema.RunSummary   `json:"summary"`
	Rows    []schema.DatasetRow `json:"rows"`
}

func (h *toolHandler) handleBuildDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("project", ""); p != "" {
		cfg.Project = p
	}
	if f := request.GetString("releases_file", ""); f != "" {
		cfg.ReleasesFile = f
	}
	if f := request.GetString("commits_file", ""); f != "" {
		cfg.CommitsFile = f
	}
	if n := request.GetInt("min_releases", 0); n > 0 {
		cfg.MinReleases = n
	}
	if cfg.Workers <= 0 {
		cfg.Workers = contract.DefaultWorkers
	}

	var store contract.AnalysisStore
	if h.mgr != nil {
		store = h.mgr.GetAnalysisStore()
	}
	out, err := core.RunBuild(ctx, cfg, store)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build failed: %v", err)), nil
	}

	rows := out.Rows
	if l := request.GetInt("limit", 0); l > 0 && l < len(rows) {
		rows = rows[:l]
	}
	jsonData, _ := json.MarshalIndent(buildResult{Summary: out.Summary, Rows: rows}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleClassifyMessage(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := request.GetString("message", "")
	if message == "" {
		return mcp.NewToolResultError("message is required"), nil
	}

	opts := bugfix.Options{
		Kind:         h.baseCfg.Classifier,
		TicketPrefix: h.baseCfg.TicketPrefix,
		Patterns:     h.baseCfg.Patterns,
	}
	if k := request.GetString("classifier", ""); k != "" {
		opts.Kind = schema.ClassifierKind(strings.ToLower(k))
	}
	if p := request.GetString("ticket_prefix", ""); p != "" {
		opts.TicketPrefix = p
	}
	if t := request.GetString("tickets", ""); t != "" {
		opts.Tickets = strings.Split(t, ",")
	}

	classifier, err := bugfix.New(opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid classifier: %v", err)), nil
	}
	jsonData, _ := json.MarshalIndent(map[string]any{
		"is_fix":     classifier.IsFix(message),
		"classifier": classifier.Kind(),
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleAssignVersion(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	releasesFile := request.GetString("releases_file", h.baseCfg.ReleasesFile)
	if releasesFile == "" {
		return mcp.NewToolResultError("releases_file is required"), nil
	}
	date, err := agg.ParseCommitDate(request.GetString("date", ""), 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date: %v", err)), nil
	}

	f, err := os.Open(releasesFile)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot open releases: %v", err)), nil
	}
	defer func() { _ = f.Close() }()
	releases, err := csvio.ReadReleases(f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read releases: %v", err)), nil
	}
	timeline, err := release.NewTimeline(releases, 1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	jsonData, _ := json.MarshalIndent(map[string]any{
		"version":   timeline.AssignVersion(date),
		"in_window": timeline.InWindow(date),
		"cutoff":    timeline.CutoffRelease().Name,
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
