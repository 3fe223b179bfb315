package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/defectset/internal/contract"
	mcp_internal "github.com/huangsam/defectset/internal/mcp"
	"github.com/huangsam/defectset/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const releasesCSV = `Index,VersionID,Name,Date
1,101,R1,2020-01-01
2,102,R2,2020-06-01
3,103,R3,2021-01-01
4,104,R4,2021-06-01
`

const commitsCSV = `CommitID,Date,Author,File,LOC_Added,LOC_Deleted,TicketLinked
c1,2020-03-01 10:00:00 +0000,alice,foo.py,10,2,true
c2,2020-04-01 10:00:00 +0000,bob,bar.py,1,1,false
`

func fixtures(t *testing.T) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	releases := filepath.Join(dir, "releases.csv")
	commits := filepath.Join(dir, "commits.csv")
	require.NoError(t, os.WriteFile(releases, []byte(releasesCSV), 0o644))
	require.NoError(t, os.WriteFile(commits, []byte(commitsCSV), 0o644))
	return &contract.Config{
		Project:      "PROJ",
		ReleasesFile: releases,
		CommitsFile:  commits,
		MinReleases:  1,
		Workers:      1,
		Classifier:   schema.TicketClassifier,
		TicketPrefix: "PROJ-",
	}
}

func call(t *testing.T, cfg *contract.Config, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(cfg, nil)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestBuildDatasetTool(t *testing.T) {
	cfg := fixtures(t)
	res := call(t, cfg, "build_dataset", map[string]any{"limit": 1.0})
	require.False(t, res.IsError, text(res))

	var out struct {
		Summary schema.RunSummary   `json:"summary"`
		Rows    []schema.DatasetRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(res)), &out))
	assert.Equal(t, 2, out.Summary.Files)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "bar.py", out.Rows[0].File)

	// The base config is never modified by a call
	call(t, cfg, "build_dataset", map[string]any{"project": "OTHER"})
	assert.Equal(t, "PROJ", cfg.Project)
}

func TestBuildDatasetTool_Errors(t *testing.T) {
	cfg := fixtures(t)
	res := call(t, cfg, "build_dataset", map[string]any{"min_releases": 10.0})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "build failed")

	res = call(t, cfg, "build_dataset", map[string]any{"commits_file": "/nonexistent.csv"})
	assert.True(t, res.IsError)
}

func TestClassifyMessageTool(t *testing.T) {
	cfg := fixtures(t)

	tests := []struct {
		name string
		args map[string]any
		want bool
	}{
		{"known ticket", map[string]any{"message": "PROJ-123 fix reader", "tickets": "PROJ-123"}, true},
		{"unknown ticket", map[string]any{"message": "PROJ-999 add writer", "tickets": "PROJ-123"}, false},
		{"pattern", map[string]any{"message": "Fixed crash on startup", "classifier": "pattern"}, true},
		{"pattern no match", map[string]any{"message": "Add feature", "classifier": "pattern"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, cfg, "classify_message", tt.args)
			require.False(t, res.IsError, text(res))
			var out map[string]any
			require.NoError(t, json.Unmarshal([]byte(text(res)), &out))
			assert.Equal(t, tt.want, out["is_fix"])
		})
	}

	res := call(t, cfg, "classify_message", map[string]any{"message": ""})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "message is required")

	res = call(t, cfg, "classify_message", map[string]any{"message": "x", "classifier": "magic"})
	assert.True(t, res.IsError)
}

func TestAssignVersionTool(t *testing.T) {
	cfg := fixtures(t)

	res := call(t, cfg, "assign_version", map[string]any{"date": "2020-03-01"})
	require.False(t, res.IsError, text(res))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(res)), &out))
	assert.Equal(t, "R1", out["version"])
	assert.Equal(t, true, out["in_window"])
	assert.Equal(t, "R2", out["cutoff"])

	res = call(t, cfg, "assign_version", map[string]any{"date": "2019-01-01"})
	require.False(t, res.IsError)
	assert.Contains(t, text(res), schema.PreRelease)

	res = call(t, cfg, "assign_version", map[string]any{"date": "someday"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "invalid date")

	res = call(t, &contract.Config{}, "assign_version", map[string]any{"date": "2020-03-01"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "releases_file is required")
}
