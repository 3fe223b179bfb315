package cmd

import (
	"github.com/huangsam/defectset/core"
	"github.com/huangsam/defectset/internal/contract"
	"github.com/spf13/cobra"
)

// buildCmd builds the labeled dataset.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the per-file defect dataset from releases and commit metrics.",
	Long: `Join the release timeline with the commit-metrics file and emit one labeled row per file.

The timeline is sorted by date and its first half forms the training window: commits dated
after the cutoff release are ignored so late fixes cannot leak into the labels. Each file
gets lines added, deleted and touched, churn, revisions, fixes, distinct authors, the release
it was last touched in and a Yes/No buggy label.

Any malformed record aborts the build before anything is written.

Examples:
  # Build the CSV dataset for a project
  defectset build -p BOOKKEEPER --releases releases.csv --commits commits.csv -o dataset.csv

  # Inspect the result as a table
  defectset build -p BOOKKEEPER --releases releases.csv --commits commits.csv --output text

  # Stop on unparseable commit dates instead of skipping them
  defectset build -p BOOKKEEPER --releases releases.csv --commits commits.csv --date-fallback fail`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBuild(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot build dataset", err)
		}
	},
}
