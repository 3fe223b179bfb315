// Package cmd defines the command-line interface for defectset.
package cmd

import (
	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the fetch subcommands to the parent fetch command
	fetchCmd.AddCommand(fetchReleasesCmd)
	fetchCmd.AddCommand(fetchTicketsCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("project", "p", "", "Project identifier, e.g. BOOKKEEPER")
	rootCmd.PersistentFlags().String("commits", "", "Path to the commit-metrics CSV (written by extract, read by build)")
	rootCmd.PersistentFlags().String("releases", "", "Path to the release timeline CSV")
	rootCmd.PersistentFlags().String("tickets", "", "Path to the fixed ticket CSV")
	rootCmd.PersistentFlags().String("output", string(schema.CSVOut), "Output format: csv or json or text or parquet")
	rootCmd.PersistentFlags().StringP("output-file", "o", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("min-releases", contract.DefaultMinReleases, "Minimum number of releases required to build a timeline")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("jira-url", "", "Base URL of the Jira instance, e.g. https://issues.apache.org/jira")
	rootCmd.PersistentFlags().String("jira-user", "", "Jira user for basic auth")
	rootCmd.PersistentFlags().String("jira-token", "", "Jira API token (prefer DEFECTSET_JIRA_TOKEN)")
	rootCmd.PersistentFlags().Float64("jira-rate", contract.DefaultJiraRate, "Maximum Jira requests per second")
	rootCmd.PersistentFlags().Int("jira-page-size", contract.DefaultJiraPage, "Issues requested per Jira search page")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for run tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of extractCmd to Viper
	extractCmd.Flags().String("repo", "", "Path to the local Git repository")
	extractCmd.Flags().String("repo-url", "", "Clone URL used when --repo does not exist yet")
	extractCmd.Flags().String("suffix", "", "Comma-separated list of file suffixes to keep, e.g. .java")
	extractCmd.Flags().String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	extractCmd.Flags().String("classifier", string(schema.TicketClassifier), "Bug-fix classifier: ticket or pattern")
	extractCmd.Flags().String("ticket-prefix", "", "Ticket key prefix (defaults to PROJECT-)")
	extractCmd.Flags().String("pattern", "", "Comma-separated extra regular expressions for the pattern classifier")
	if err := viper.BindPFlags(extractCmd.Flags()); err != nil {
		contract.LogFatal("Error binding extract flags", err)
	}

	// Bind all flags of buildCmd to Viper
	buildCmd.Flags().String("date-fallback", string(schema.SkipDateFallback), "Policy for unparseable commit dates: skip or now or fail")
	if err := viper.BindPFlags(buildCmd.Flags()); err != nil {
		contract.LogFatal("Error binding build flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
