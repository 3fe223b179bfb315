package contract

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/defectset/schema"
	"github.com/samber/lo"
)

// Default values for configuration.
const (
	DefaultMinReleases = 1
	MaxWorkers         = 256
	DefaultJiraRate    = 5.0 // Requests per second
	DefaultJiraPage    = 1000
	MaxJiraPage        = 1000
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a dataset build.
// This struct remains the "final, validated" config.
type Config struct {
	Project string

	RepoPath string
	RepoURL  string
	Suffixes []string // Only files with one of these suffixes are extracted (all when empty)
	Excludes []string

	CommitsFile  string
	ReleasesFile string
	TicketsFile  string
	OutputFile   string
	Output       schema.OutputMode

	Classifier   schema.ClassifierKind
	TicketPrefix string
	Patterns     []string
	DateFallback schema.DateFallback
	MinReleases  int
	Workers      int

	JiraURL      string
	JiraUser     string
	JiraToken    string // Please use env var as this is plaintext
	JiraRate     float64
	JiraPageSize int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext

	Width     int // Terminal width override (0 = auto-detect)
	UseColors bool
}

// Clone returns a copy of the config that can be modified independently.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Suffixes = slices.Clone(c.Suffixes)
	clone.Excludes = slices.Clone(c.Excludes)
	clone.Patterns = slices.Clone(c.Patterns)
	return &clone
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	Project      string `mapstructure:"project" yaml:"project"`
	Repo         string `mapstructure:"repo" yaml:"repo"`
	RepoURL      string `mapstructure:"repo-url" yaml:"repo-url"`
	Suffix       string `mapstructure:"suffix" yaml:"suffix"`
	Exclude      string `mapstructure:"exclude" yaml:"exclude"`
	Commits      string `mapstructure:"commits" yaml:"commits"`
	Releases     string `mapstructure:"releases" yaml:"releases"`
	Tickets      string `mapstructure:"tickets" yaml:"tickets"`
	OutputFile   string `mapstructure:"output-file" yaml:"output-file"`
	Output       string `mapstructure:"output" yaml:"output"`
	Classifier   string `mapstructure:"classifier" yaml:"classifier"`
	TicketPrefix string `mapstructure:"ticket-prefix" yaml:"ticket-prefix"`
	Pattern      string `mapstructure:"pattern" yaml:"pattern"`
	DateFallback string `mapstructure:"date-fallback" yaml:"date-fallback"`
	MinReleases  int    `mapstructure:"min-releases" yaml:"min-releases"`
	Workers      int    `mapstructure:"workers" yaml:"workers"`

	JiraURL      string  `mapstructure:"jira-url" yaml:"jira-url"`
	JiraUser     string  `mapstructure:"jira-user" yaml:"jira-user"`
	JiraToken    string  `mapstructure:"jira-token" yaml:"-"`
	JiraRate     float64 `mapstructure:"jira-rate" yaml:"jira-rate"`
	JiraPageSize int     `mapstructure:"jira-page-size" yaml:"jira-page-size"`

	CacheBackend      string `mapstructure:"cache-backend" yaml:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect" yaml:"-"`
	AnalysisBackend   string `mapstructure:"analysis-backend" yaml:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect" yaml:"-"`

	Width int    `mapstructure:"width" yaml:"width"`
	Color string `mapstructure:"color" yaml:"color"`
}

// ProcessAndValidate validates input and populates cfg from it.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateClassifier(cfg, input); err != nil {
		return err
	}
	if err := validateJira(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// validateSimpleInputs processes and validates the plain fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Project = strings.TrimSpace(input.Project)
	cfg.RepoPath = input.Repo
	cfg.RepoURL = input.RepoURL
	cfg.CommitsFile = input.Commits
	cfg.ReleasesFile = input.Releases
	cfg.TicketsFile = input.Tickets
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Suffixes = splitList(input.Suffix)
	cfg.Excludes = splitList(input.Exclude)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 || input.Workers > MaxWorkers {
		return fmt.Errorf("workers must be greater than 0 and cannot exceed %d (received %d)", MaxWorkers, input.Workers)
	}
	cfg.Workers = input.Workers

	if input.MinReleases < 1 {
		return fmt.Errorf("min-releases must be at least 1 (received %d)", input.MinReleases)
	}
	cfg.MinReleases = input.MinReleases

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be csv, json, text, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.DateFallback = schema.DateFallback(strings.ToLower(input.DateFallback))
	if _, ok := schema.ValidDateFallbacks[cfg.DateFallback]; !ok {
		return fmt.Errorf("invalid date fallback '%s'. must be skip, now, fail", input.DateFallback)
	}
	return nil
}

// validateClassifier resolves the bug-fix strategy and its ticket prefix.
func validateClassifier(cfg *Config, input *ConfigRawInput) error {
	cfg.Classifier = schema.ClassifierKind(strings.ToLower(input.Classifier))
	if _, ok := schema.ValidClassifierKinds[cfg.Classifier]; !ok {
		return fmt.Errorf("invalid classifier '%s'. must be ticket, pattern", input.Classifier)
	}
	cfg.Patterns = splitList(input.Pattern)

	cfg.TicketPrefix = input.TicketPrefix
	if cfg.TicketPrefix == "" && cfg.Project != "" {
		cfg.TicketPrefix = strings.ToUpper(cfg.Project) + "-"
	}
	return nil
}

// validateJira checks the issue tracker settings.
func validateJira(cfg *Config, input *ConfigRawInput) error {
	cfg.JiraURL = strings.TrimRight(input.JiraURL, "/")
	cfg.JiraUser = input.JiraUser
	cfg.JiraToken = input.JiraToken
	if cfg.JiraURL != "" && !strings.HasPrefix(cfg.JiraURL, "http://") && !strings.HasPrefix(cfg.JiraURL, "https://") {
		return fmt.Errorf("jira-url must start with http:// or https:// (received %q)", input.JiraURL)
	}
	if input.JiraRate <= 0 {
		return fmt.Errorf("jira-rate must be greater than 0 (received %v)", input.JiraRate)
	}
	cfg.JiraRate = input.JiraRate
	if input.JiraPageSize <= 0 || input.JiraPageSize > MaxJiraPage {
		return fmt.Errorf("jira-page-size must be greater than 0 and cannot exceed %d (received %d)", MaxJiraPage, input.JiraPageSize)
	}
	cfg.JiraPageSize = input.JiraPageSize
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		cfg.AnalysisBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// Cache and analysis must not share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := lo.Ternary(cfg.CacheDBConnect != "", cfg.CacheDBConnect, GetCacheDBFilePath())
		analysisDBPath := lo.Ternary(cfg.AnalysisDBConnect != "", cfg.AnalysisDBConnect, GetAnalysisDBFilePath())
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// splitList splits a comma separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
