package cmd

import (
	"github.com/huangsam/defectset/core"
	"github.com/huangsam/defectset/internal/contract"
	"github.com/spf13/cobra"
)

// fetchCmd groups the issue tracker downloads.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download release and ticket data from Jira",
	Long: `Download the inputs that come from the issue tracker.

Requests are rate limited (--jira-rate) and authenticated with basic auth when
--jira-user and --jira-token are set. Credentials can be kept in a .env file as
DEFECTSET_JIRA_USER and DEFECTSET_JIRA_TOKEN.

Subcommands:
  releases - Write the release timeline CSV
  tickets  - Write the fixed bug ticket CSV`,
}

// fetchReleasesCmd writes the release timeline.
var fetchReleasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "Write the project release timeline",
	Long: `Write every dated project version, sorted by release date.

Versions without a release date are skipped. Versions sharing a date keep only the last one listed.

Examples:
  defectset fetch releases -p BOOKKEEPER --jira-url https://issues.apache.org/jira --releases releases.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFetchReleases(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot fetch releases", err)
		}
	},
}

// fetchTicketsCmd writes the fixed ticket list.
var fetchTicketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Write the keys of fixed bug tickets",
	Long: `Write the keys of closed or resolved bugs whose resolution is fixed.

Examples:
  defectset fetch tickets -p BOOKKEEPER --jira-url https://issues.apache.org/jira --tickets tickets.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFetchTickets(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot fetch tickets", err)
		}
	},
}
