//go:build integration

// Package integration contains integration tests for defectset.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"encoding/csv"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noStores = []string{"DEFECTSET_CACHE_BACKEND=none", "DEFECTSET_ANALYSIS_BACKEND=none"}

// TestExtractAndBuild runs the whole pipeline on a generated repository.
func TestExtractAndBuild(t *testing.T) {
	repo := makeRepo(t)
	work := t.TempDir()
	commits := filepath.Join(work, "commits.csv")
	releases := writeReleases(t, work)

	_, err := runDefectset(t, work, noStores, "extract", "-p", "DEMO", "--repo", repo,
		"--classifier", "pattern", "--commits", commits)
	require.NoError(t, err)

	out, err := runDefectset(t, work, noStores, "build", "-p", "DEMO",
		"--releases", releases, "--commits", commits)
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"Project,Version,File,LOC_Added,LOC_Deleted,LOC_Touched,Churn,NR,NFix,NAuth,Buggy",
		"DEMO,R1,README.md,1,0,1,1.00,1,0,1,No",
		"DEMO,R1,src/Reader.java,5,1,6,3.00,2,1,2,Yes",
		"",
	}, "\n"), out)
}

// TestRevisionCountsMatchGit checks NR against git log restricted to the training window.
func TestRevisionCountsMatchGit(t *testing.T) {
	repo := makeRepo(t)
	work := t.TempDir()
	commits := filepath.Join(work, "commits.csv")
	releases := writeReleases(t, work)

	_, err := runDefectset(t, work, noStores, "extract", "-p", "DEMO", "--repo", repo, "--classifier", "pattern", "--commits", commits)
	require.NoError(t, err)
	out, err := runDefectset(t, work, noStores, "build", "-p", "DEMO", "--releases", releases, "--commits", commits)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(records), 1)

	for _, rec := range records[1:] {
		file := rec[2]
		t.Run(file, func(t *testing.T) {
			gitCmd := exec.Command("git", "log", "--oneline", "--until", "2020-06-01T00:00:00+0000", "--", file)
			gitCmd.Dir = repo
			gitOutput, err := gitCmd.Output()
			require.NoError(t, err)
			gitCommits := len(strings.Split(strings.TrimSpace(string(gitOutput)), "\n"))

			nr, err := strconv.Atoi(rec[7])
			require.NoError(t, err)
			assert.Equal(t, gitCommits, nr, "revision count mismatch for %s", file)

			added, _ := strconv.Atoi(rec[3])
			deleted, _ := strconv.Atoi(rec[4])
			touched, _ := strconv.Atoi(rec[5])
			assert.Equal(t, added+deleted, touched)
		})
	}
}

// TestBuildRejectsMalformedInput checks that nothing reaches stdout when a record is bad.
func TestBuildRejectsMalformedInput(t *testing.T) {
	work := t.TempDir()
	releases := writeReleases(t, work)
	commits := filepath.Join(work, "bad.csv")
	require.NoError(t, writeFile(commits, "CommitID,Date,Author,File,LOC_Added,LOC_Deleted,TicketLinked\nc1,2020-03-01,a,x.go,ten,1,false\n"))

	out, err := runDefectset(t, work, noStores, "build", "-p", "DEMO", "--releases", releases, "--commits", commits)
	require.Error(t, err)
	assert.Empty(t, out)
}
