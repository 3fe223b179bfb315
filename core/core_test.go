package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/internal/csvio"
	"github.com/huangsam/defectset/internal/iocache"
	"github.com/huangsam/defectset/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const releasesFixture = `Index,VersionID,Name,Date
1,101,R1,2020-01-01T00:00
2,102,R2,2020-06-01T00:00
3,103,R3,2021-01-01T00:00
4,104,R4,2021-06-01T00:00
`

const commitsFixture = `CommitID,Date,Author,File,LOC_Added,LOC_Deleted,TicketLinked
c1,2020-03-01 10:00:00 +0000,alice,foo.py,10,2,true
c2,2020-04-01 10:00:00 +0000,bob,bar.py,1,1,false
c3,2021-02-01 10:00:00 +0000,carol,foo.py,50,0,true
`

const gitLogFixture = `--a1|2020-03-01 10:00:00 +0000|Alice|PROJ-123 fix reader
10	2	src/Reader.java
1	0	README.md

--b2|2020-04-01 10:00:00 +0000|Bob|PROJ-999 add writer
5	0	src/Writer.java
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func buildConfig(t *testing.T) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	return &contract.Config{
		Project:      "PROJ",
		ReleasesFile: writeFile(t, dir, "releases.csv", releasesFixture),
		CommitsFile:  writeFile(t, dir, "commits.csv", commitsFixture),
		MinReleases:  1,
		Workers:      2,
		DateFallback: schema.SkipDateFallback,
		Output:       schema.CSVOut,
	}
}

func TestRunBuild_RecordsRun(t *testing.T) {
	cfg := buildConfig(t)
	store := &iocache.MockAnalysisStore{}
	store.On("BeginAnalysis", "PROJ", mock.AnythingOfType("time.Time"), mock.MatchedBy(func(p map[string]any) bool {
		return p["project"] == "PROJ" && p["workers"] == 2
	})).Return(int64(7), nil)
	store.On("RecordDatasetRows", int64(7), mock.MatchedBy(func(rows []schema.DatasetRow) bool {
		return len(rows) == 2
	})).Return(nil)
	store.On("EndAnalysis", int64(7), mock.AnythingOfType("time.Time"), mock.MatchedBy(func(s schema.RunSummary) bool {
		return s.Files == 2 && s.BuggyFiles == 1 && s.RecordsExcluded == 1
	})).Return(nil)

	out, err := RunBuild(context.Background(), cfg, store)
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "bar.py", out.Rows[0].File)
	assert.Equal(t, "foo.py", out.Rows[1].File)
	assert.Equal(t, "R1", out.Rows[1].Version)
	assert.Equal(t, 12, out.Rows[1].LOCTouched)
	assert.True(t, out.Rows[1].Buggy)
	store.AssertExpectations(t)
}

func TestRunBuild_TrackingFailureOnlyWarns(t *testing.T) {
	cfg := buildConfig(t)
	store := &iocache.MockAnalysisStore{}
	store.On("BeginAnalysis", "PROJ", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	out, err := RunBuild(context.Background(), cfg, store)
	require.NoError(t, err)
	assert.Len(t, out.Rows, 2)
	store.AssertNotCalled(t, "RecordDatasetRows", mock.Anything, mock.Anything)
}

func TestRunBuild_MalformedRecordsNothing(t *testing.T) {
	cfg := buildConfig(t)
	cfg.CommitsFile = writeFile(t, filepath.Dir(cfg.CommitsFile), "bad.csv",
		"CommitID,Date,Author,File,LOC_Added,LOC_Deleted,TicketLinked\nc1,2020-03-01,alice,foo.py,x,2,true\n")
	store := &iocache.MockAnalysisStore{}

	_, err := RunBuild(context.Background(), cfg, store)
	var mre *schema.MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 2, mre.Line)
	store.AssertNotCalled(t, "BeginAnalysis", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunBuild_MissingInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *contract.Config)
		want   string
	}{
		{"project", func(cfg *contract.Config) { cfg.Project = "" }, "--project"},
		{"releases", func(cfg *contract.Config) { cfg.ReleasesFile = "" }, "--releases"},
		{"commits", func(cfg *contract.Config) { cfg.CommitsFile = "" }, "--commits"},
		{"missing file", func(cfg *contract.Config) { cfg.CommitsFile = "/nonexistent/commits.csv" }, "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := buildConfig(t)
			tt.mutate(cfg)
			_, err := RunBuild(context.Background(), cfg, nil)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestExecuteBuild_WritesCSV(t *testing.T) {
	cfg := buildConfig(t)
	cfg.OutputFile = filepath.Join(t.TempDir(), "dataset.csv")

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAnalysisStore").Return(nil)

	require.NoError(t, ExecuteBuild(context.Background(), cfg, mgr))
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Project,Version,File,LOC_Added,LOC_Deleted,LOC_Touched,Churn,NR,NFix,NAuth,Buggy",
		"PROJ,R1,bar.py,1,1,2,2.00,1,0,1,No",
		"PROJ,R1,foo.py,10,2,12,12.00,1,1,1,Yes",
		"",
	}, "\n"), string(data))
	mgr.AssertExpectations(t)
}

func TestRunExtract(t *testing.T) {
	dir := t.TempDir()
	cfg := &contract.Config{
		Project:      "PROJ",
		RepoPath:     dir,
		CommitsFile:  filepath.Join(dir, "commits.csv"),
		TicketsFile:  writeFile(t, dir, "tickets.csv", "TicketID\nPROJ-123\n"),
		Classifier:   schema.TicketClassifier,
		TicketPrefix: "PROJ-",
		Suffixes:     []string{".java"},
	}

	client := &contract.MockGitClient{}
	client.On("GetCommitLog", mock.Anything, dir).Return([]byte(gitLogFixture), nil)
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(nil)

	stats, err := runExtract(context.Background(), cfg, client, mgr)
	require.NoError(t, err)
	assert.Equal(t, ExtractStats{Commits: 2, FixCommits: 1, Rows: 2, Skipped: 1}, stats)

	f, err := os.Open(cfg.CommitsFile)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	r, err := csvio.NewCommitReader(f)
	require.NoError(t, err)

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "src/Reader.java", first.File)
	assert.Equal(t, "true", first.TicketLinked)
	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "src/Writer.java", second.File)
	assert.Equal(t, "false", second.TicketLinked)

	client.AssertExpectations(t)
}

func TestRunExtract_TicketFileRequired(t *testing.T) {
	cfg := &contract.Config{RepoPath: t.TempDir(), Classifier: schema.TicketClassifier}
	_, err := runExtract(context.Background(), cfg, &contract.MockGitClient{}, nil)
	assert.ErrorContains(t, err, "--tickets")
}

func TestEnsureRepo(t *testing.T) {
	ctx := context.Background()

	existing := &contract.Config{RepoPath: t.TempDir()}
	require.NoError(t, ensureRepo(ctx, existing, &contract.MockGitClient{}))

	target := filepath.Join(t.TempDir(), "clone")
	client := &contract.MockGitClient{}
	client.On("Clone", mock.Anything, "https://example.org/repo.git", target).Return(nil)
	require.NoError(t, ensureRepo(ctx, &contract.Config{RepoPath: target, RepoURL: "https://example.org/repo.git"}, client))
	client.AssertExpectations(t)

	err := ensureRepo(ctx, &contract.Config{RepoPath: target}, &contract.MockGitClient{})
	assert.ErrorContains(t, err, "--repo-url")

	assert.ErrorContains(t, ensureRepo(ctx, &contract.Config{}, client), "--repo")
}

func TestCachedCommitLog(t *testing.T) {
	ctx := context.Background()
	cfg := &contract.Config{RepoPath: "/repo"}

	t.Run("miss stores the log", func(t *testing.T) {
		client := &contract.MockGitClient{}
		client.On("GetRepoHash", mock.Anything, "/repo").Return("abc123", nil)
		client.On("GetCommitLog", mock.Anything, "/repo").Return([]byte("log"), nil)

		store := &iocache.MockCacheStore{}
		store.On("Get", mock.Anything).Return([]byte(nil), 0, int64(0), errors.New("not found"))
		store.On("Set", mock.Anything, []byte("log"), currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetActivityStore").Return(store)

		out, err := cachedCommitLog(ctx, cfg, client, mgr)
		require.NoError(t, err)
		assert.Equal(t, []byte("log"), out)
		store.AssertExpectations(t)
	})

	t.Run("hit skips git log", func(t *testing.T) {
		client := &contract.MockGitClient{}
		client.On("GetRepoHash", mock.Anything, "/repo").Return("abc123", nil)

		store := &iocache.MockCacheStore{}
		store.On("Get", mock.Anything).Return([]byte("cached"), currentCacheVersion, time.Now().Unix(), nil)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetActivityStore").Return(store)

		out, err := cachedCommitLog(ctx, cfg, client, mgr)
		require.NoError(t, err)
		assert.Equal(t, []byte("cached"), out)
		client.AssertNotCalled(t, "GetCommitLog", mock.Anything, mock.Anything)
	})

	t.Run("stale entries are ignored", func(t *testing.T) {
		store := &iocache.MockCacheStore{}
		store.On("Get", "k1").Return([]byte("old"), currentCacheVersion, time.Now().Add(-2*cacheTTL).Unix(), nil)
		store.On("Get", "k2").Return([]byte("v0"), currentCacheVersion+1, time.Now().Unix(), nil)
		assert.Nil(t, checkCacheHit(store, "k1"))
		assert.Nil(t, checkCacheHit(store, "k2"))
	})

	t.Run("no hash bypasses the cache", func(t *testing.T) {
		client := &contract.MockGitClient{}
		client.On("GetRepoHash", mock.Anything, "/repo").Return("", errors.New("not a repo"))
		client.On("GetCommitLog", mock.Anything, "/repo").Return([]byte("log"), nil)
		store := &iocache.MockCacheStore{}
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetActivityStore").Return(store)

		out, err := cachedCommitLog(ctx, cfg, client, mgr)
		require.NoError(t, err)
		assert.Equal(t, []byte("log"), out)
		store.AssertNotCalled(t, "Get", mock.Anything)
	})
}

func TestGenerateCacheKey(t *testing.T) {
	client := &contract.MockGitClient{}
	client.On("GetRepoHash", mock.Anything, "/a").Return("h1", nil)
	client.On("GetRepoHash", mock.Anything, "/b").Return("h1", nil)

	k1, err := generateCacheKey(context.Background(), &contract.Config{RepoPath: "/a"}, client)
	require.NoError(t, err)
	k2, err := generateCacheKey(context.Background(), &contract.Config{RepoPath: "/b"}, client)
	require.NoError(t, err)
	assert.Len(t, k1, 64)
	assert.NotEqual(t, k1, k2)
}

func TestExecuteFetchReleases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"versions": [
			{"id": "2", "name": "R2", "releaseDate": "2020-06-01"},
			{"id": "1", "name": "R1", "releaseDate": "2020-01-01"}
		]}`)
	}))
	defer srv.Close()

	cfg := &contract.Config{
		Project:      "PROJ",
		JiraURL:      srv.URL,
		JiraRate:     100,
		ReleasesFile: filepath.Join(t.TempDir(), "releases.csv"),
		MinReleases:  1,
	}
	require.NoError(t, ExecuteFetchReleases(context.Background(), cfg, nil))

	releases, err := readReleasesFile(cfg.ReleasesFile)
	require.NoError(t, err)
	require.Len(t, releases, 2)
	assert.Equal(t, "R1", releases[0].Name)
	assert.Equal(t, "1", releases[0].ID)
	assert.Equal(t, day(2020, 6, 1), releases[1].Date)
}

func TestExecuteFetchTickets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"startAt": 0, "maxResults": 1000, "total": 2, "issues": [{"key": "PROJ-1"}, {"key": "PROJ-2"}]}`)
	}))
	defer srv.Close()

	cfg := &contract.Config{
		Project:     "PROJ",
		JiraURL:     srv.URL,
		JiraRate:    100,
		TicketsFile: filepath.Join(t.TempDir(), "tickets.csv"),
	}
	require.NoError(t, ExecuteFetchTickets(context.Background(), cfg, nil))

	f, err := os.Open(cfg.TicketsFile)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	tickets, err := csvio.ReadTickets(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"PROJ-1", "PROJ-2"}, tickets)
}

func TestNewJiraClient_Validation(t *testing.T) {
	_, err := newJiraClient(&contract.Config{JiraURL: "https://jira.example.org"})
	assert.ErrorContains(t, err, "--project")
	_, err = newJiraClient(&contract.Config{Project: "PROJ"})
	assert.ErrorContains(t, err, "--jira-url")
}

func TestAnalysisStoreOf(t *testing.T) {
	assert.Nil(t, analysisStoreOf(nil))

	store := &iocache.MockAnalysisStore{}
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAnalysisStore").Return(store)
	assert.Same(t, store, analysisStoreOf(mgr))
}
