// Package contract provides interfaces and shared utilities for the defectset internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/defectset/schema"
)

// GitClient defines the Git operations needed to extract commit metrics.
// This allows the extraction logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command and returns its stdout.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// Clone clones url into dir.
	Clone(ctx context.Context, url string, dir string) error

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetCommitLog returns the full-history `git log --numstat` output used for extraction.
	GetCommitLog(ctx context.Context, repoPath string) ([]byte, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetActivityStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking dataset builds and their rows.
type AnalysisStore interface {
	// BeginAnalysis creates a new run and returns its unique ID.
	BeginAnalysis(project string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis records the completion data of a run.
	EndAnalysis(analysisID int64, endTime time.Time, summary schema.RunSummary) error

	// RecordDatasetRows stores the emitted rows of a run.
	RecordDatasetRows(analysisID int64, rows []schema.DatasetRow) error

	// GetStatus returns status information about the analysis store.
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every recorded run.
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllDatasetRows returns every recorded dataset row.
	GetAllDatasetRows() ([]schema.DatasetRowRecord, error)

	// Close closes the underlying connection.
	Close() error
}
