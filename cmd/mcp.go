package cmd

import (
	"github.com/huangsam/defectset/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the defectset MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents build datasets, classify
commit messages and map dates to releases via standard tools.

Logs go to stderr so stdout stays reserved for the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
