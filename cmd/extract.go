package cmd

import (
	"github.com/huangsam/defectset/core"
	"github.com/huangsam/defectset/internal/contract"
	"github.com/spf13/cobra"
)

// extractCmd writes the commit-metrics file from a Git repository.
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract per-file commit metrics from a Git repository.",
	Long: `Walk the full Git history and write one commit-metrics row per touched file.

Every commit is classified once as a bug fix or not. The ticket classifier looks for
fixed ticket keys (see 'fetch tickets') in the commit subject; the pattern classifier
matches fix-related keywords. Binary changes are kept with a '-' line count.

The git log is cached per repository HEAD, so repeated runs skip the history walk.

Examples:
  # Extract Java files using the fixed ticket list
  defectset extract -p BOOKKEEPER --repo ./bookkeeper --tickets tickets.csv --suffix .java --commits commits.csv

  # Clone first when the repository is not there yet
  defectset extract -p BOOKKEEPER --repo ./bookkeeper --repo-url https://github.com/apache/bookkeeper.git --tickets tickets.csv

  # Keyword based classification, no ticket file needed
  defectset extract -p BOOKKEEPER --repo ./bookkeeper --classifier pattern`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteExtract(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot extract commit metrics", err)
		}
	},
}
