// Package core has the pipeline orchestration: commit log extraction, issue
// tracker fetches and the dataset build.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/defectset/core/agg"
	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/internal/csvio"
	"github.com/huangsam/defectset/internal/jira"
	"github.com/huangsam/defectset/internal/outwriter"
	"github.com/huangsam/defectset/schema"
	"github.com/samber/lo"
)

// ExecutorFunc defines the function signature of the command entry points.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteBuild reads the release timeline and the commit-metrics file, builds the
// labeled dataset and writes it in the configured output format.
func ExecuteBuild(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	out, err := RunBuild(ctx, cfg, analysisStoreOf(mgr))
	if err != nil {
		return err
	}
	return outwriter.WriteDataset(out.Rows, out.Summary, cfg, time.Since(start))
}

// RunBuild runs the build from the configured files and records it in store when one is configured.
// Nothing is recorded for a build that fails.
func RunBuild(ctx context.Context, cfg *contract.Config, store contract.AnalysisStore) (*BuildOutput, error) {
	if cfg.Project == "" {
		return nil, errors.New("--project is required")
	}
	releases, err := readReleasesFile(cfg.ReleasesFile)
	if err != nil {
		return nil, err
	}
	if cfg.CommitsFile == "" {
		return nil, errors.New("--commits is required")
	}
	f, err := os.Open(cfg.CommitsFile)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	src, err := csvio.NewCommitReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.CommitsFile, err)
	}

	startTime := time.Now()
	out, err := BuildDataset(ctx, cfg.Project, releases, src, BuildOptions{
		MinReleases:  cfg.MinReleases,
		Workers:      cfg.Workers,
		DateFallback: cfg.DateFallback,
	})
	if err != nil {
		return nil, err
	}
	logBuildSummary(out.Summary)
	contract.Log.WithField("releases", lo.Map(out.Timeline.TrainingReleases(), func(r schema.Release, _ int) string {
		return r.Name
	})).Debug("training window")
	recordRun(store, cfg, startTime, out)
	return out, nil
}

// recordRun stores the run and its rows. Tracking failures only warn.
func recordRun(store contract.AnalysisStore, cfg *contract.Config, startTime time.Time, out *BuildOutput) {
	if store == nil {
		return
	}
	configParams := map[string]any{
		"project":       cfg.Project,
		"commits_file":  cfg.CommitsFile,
		"releases_file": cfg.ReleasesFile,
		"min_releases":  cfg.MinReleases,
		"workers":       cfg.Workers,
		"date_fallback": string(cfg.DateFallback),
	}
	analysisID, err := store.BeginAnalysis(cfg.Project, startTime, configParams)
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return
	}
	if analysisID <= 0 {
		return
	}
	if err := store.RecordDatasetRows(analysisID, out.Rows); err != nil {
		contract.LogWarn("Failed to record dataset rows", err)
	}
	if err := store.EndAnalysis(analysisID, time.Now(), out.Summary); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// logBuildSummary reports the counts a user needs to judge data quality.
func logBuildSummary(s schema.RunSummary) {
	entry := contract.Log.WithFields(map[string]any{
		"read":           s.RecordsRead,
		"retained":       s.RecordsRetained,
		"after_cutoff":   s.RecordsExcluded,
		"date_fallbacks": s.DateFallbacks,
		"binary_fields":  s.BinaryFields,
		"files":          s.Files,
		"buggy":          s.BuggyFiles,
	})
	if s.DateFallbacks > 0 {
		entry.Warn("some commit dates could not be parsed")
		return
	}
	entry.Info("dataset built")
}

// ExecuteExtract produces the commit-metrics file from a local repository,
// cloning it first when needed.
func ExecuteExtract(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	stats, err := runExtract(ctx, cfg, contract.NewLocalGitClient(), mgr)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Extracted %d rows from %d commits (%d fixes, %d files filtered)\n",
		stats.Rows, stats.Commits, stats.FixCommits, stats.Skipped)
	return nil
}

func runExtract(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (ExtractStats, error) {
	classifier, err := newClassifier(cfg)
	if err != nil {
		return ExtractStats{}, err
	}
	if err := ensureRepo(ctx, cfg, client); err != nil {
		return ExtractStats{}, err
	}
	raw, err := cachedCommitLog(ctx, cfg, client, mgr)
	if err != nil {
		return ExtractStats{}, fmt.Errorf("reading git log: %w", err)
	}
	commits := agg.ParseGitLog(raw)

	file, err := contract.SelectOutputFile(cfg.CommitsFile)
	if err != nil {
		return ExtractStats{}, err
	}
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}
	w, err := csvio.NewCommitWriter(file)
	if err != nil {
		return ExtractStats{}, err
	}
	return ExtractCommits(commits, classifier, ExtractOptions{Suffixes: cfg.Suffixes, Excludes: cfg.Excludes}, w)
}

// ExecuteFetchReleases downloads the project versions and writes the release timeline file.
func ExecuteFetchReleases(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	client, err := newJiraClient(cfg)
	if err != nil {
		return err
	}
	releases, err := client.FetchReleases(ctx, cfg.Project)
	if err != nil {
		return err
	}
	if len(releases) < cfg.MinReleases {
		contract.LogWarn("Release timeline is shorter than --min-releases", fmt.Errorf("%d releases", len(releases)))
	}
	return writeTo(cfg.ReleasesFile, func(f *os.File) error {
		return csvio.WriteReleases(f, releases)
	})
}

// ExecuteFetchTickets downloads the fixed bug tickets and writes the ticket file.
func ExecuteFetchTickets(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	client, err := newJiraClient(cfg)
	if err != nil {
		return err
	}
	tickets, err := client.FetchFixedTickets(ctx, cfg.Project)
	if err != nil {
		return err
	}
	return writeTo(cfg.TicketsFile, func(f *os.File) error {
		return csvio.WriteTickets(f, tickets)
	})
}

func newJiraClient(cfg *contract.Config) (*jira.Client, error) {
	if cfg.Project == "" {
		return nil, errors.New("--project is required")
	}
	if cfg.JiraURL == "" {
		return nil, errors.New("--jira-url is required")
	}
	return jira.NewClient(jira.Options{
		BaseURL:  cfg.JiraURL,
		User:     cfg.JiraUser,
		Token:    cfg.JiraToken,
		Rate:     cfg.JiraRate,
		PageSize: cfg.JiraPageSize,
	}), nil
}

// readReleasesFile loads the release timeline file.
func readReleasesFile(path string) ([]schema.Release, error) {
	if path == "" {
		return nil, errors.New("--releases is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	releases, err := csvio.ReadReleases(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return releases, nil
}

// writeTo writes to path, or to stdout when path is empty.
func writeTo(path string, write func(*os.File) error) error {
	file, err := contract.SelectOutputFile(path)
	if err != nil {
		return err
	}
	if file == os.Stdout {
		return write(file)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote %s\n", path)
	return nil
}

// analysisStoreOf returns the run store of mgr, or nil.
func analysisStoreOf(mgr contract.CacheManager) contract.AnalysisStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetAnalysisStore()
}
