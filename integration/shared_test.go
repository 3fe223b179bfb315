//go:build integration || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a defectset binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// releasesCSV brackets the commits of the test repository: R1 and R2 form the training window.
const releasesCSV = `Index,VersionID,Name,Date
1,1,R1,2020-01-01T00:00
2,2,R2,2020-06-01T00:00
3,3,R3,2021-01-01T00:00
4,4,R4,2021-06-01T00:00
`

// testCommit is one commit of the generated repository.
type testCommit struct {
	date    string
	author  string
	message string
	files   map[string]string
}

// testHistory has two files touched inside the window and one commit after the cutoff.
var testHistory = []testCommit{
	{"2020-02-01T10:00:00+0000", "Alice", "Add reader", map[string]string{"src/Reader.java": "a\nb\nc\n", "README.md": "hi\n"}},
	{"2020-03-01T10:00:00+0000", "Bob", "Fix NPE in reader", map[string]string{"src/Reader.java": "a\nB\nc\nd\n"}},
	{"2020-07-01T10:00:00+0000", "Carol", "Add writer", map[string]string{"src/Writer.java": "w\n"}},
	{"2021-02-01T10:00:00+0000", "Dave", "Fix writer bug", map[string]string{"src/Writer.java": "w\nx\n"}},
}

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the defectset binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "defectset-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binPath := filepath.Join(tempDir, "defectset")
		buildCmd := exec.Command("go", "build", "-o", binPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build defectset: %v\n%s", err, out))
		}

		sharedBinaryPath = binPath
	})

	return sharedBinaryPath
}

// runDefectset runs the binary in dir with extra environment variables and returns stdout.
func runDefectset(t *testing.T, dir string, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Logf("Command failed: %s\nStderr: %s", cmd.String(), stderr.String())
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// makeRepo creates a Git repository holding testHistory and returns its path.
func makeRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	git := func(env []string, args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), env...)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	git(nil, "init", "-q")
	for _, c := range testHistory {
		for name, content := range c.files {
			path := filepath.Join(dir, name)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			git(nil, "add", name)
		}
		env := []string{
			"GIT_AUTHOR_NAME=" + c.author,
			"GIT_AUTHOR_EMAIL=" + strings.ToLower(c.author) + "@example.org",
			"GIT_COMMITTER_NAME=" + c.author,
			"GIT_COMMITTER_EMAIL=" + strings.ToLower(c.author) + "@example.org",
			"GIT_AUTHOR_DATE=" + c.date,
			"GIT_COMMITTER_DATE=" + c.date,
		}
		git(env, "commit", "-q", "-m", c.message)
	}
	return dir
}

// writeReleases writes releasesCSV into dir and returns its path.
func writeReleases(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "releases.csv")
	require.NoError(t, os.WriteFile(path, []byte(releasesCSV), 0o644))
	return path
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
