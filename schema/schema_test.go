package schema

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetRowBuggyLabel(t *testing.T) {
	assert.Equal(t, "Yes", DatasetRow{Buggy: true}.BuggyLabel())
	assert.Equal(t, "No", DatasetRow{}.BuggyLabel())
}

func TestDatasetHeader(t *testing.T) {
	assert.Equal(t, []string{"Project", "Version", "File", "LOC_Added", "LOC_Deleted", "LOC_Touched", "Churn", "NR", "NFix", "NAuth", "Buggy"}, DatasetHeader)
	assert.Len(t, CommitMetricsHeader, 7)
	assert.Len(t, ReleaseHeader, 4)
}

func TestMalformedRecordError(t *testing.T) {
	_, parseErr := strconv.Atoi("abc")
	err := error(&MalformedRecordError{Line: 12, Field: "LOC_Added", Value: "abc", Err: parseErr})

	assert.Contains(t, err.Error(), "line 12")
	assert.Contains(t, err.Error(), "LOC_Added")
	assert.ErrorIs(t, err, strconv.ErrSyntax)

	var target *MalformedRecordError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "abc", target.Value)
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Releases: 0, Required: 1}
	assert.Equal(t, "release timeline has 0 releases, at least 1 required to compute a training cutoff", err.Error())
}

func TestGitCloneErrorUnwrap(t *testing.T) {
	inner := errors.New("exit status 128")
	err := &GitCloneError{URL: "https://example.com/repo.git", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "https://example.com/repo.git")
}
