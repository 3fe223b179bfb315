//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDefectsetWithMySQL tests the defectset CLI with a MySQL backend.
func TestDefectsetWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "defectset",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/defectset?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestDefectsetWithPostgres tests the defectset CLI with a PostgreSQL backend.
func TestDefectsetWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario extracts twice (the second run served by the cache), builds,
// and exports the recorded run from the given backend.
func runBackendScenario(t *testing.T, backend, connStr string) {
	t.Helper()
	env := []string{
		"DEFECTSET_CACHE_BACKEND=" + backend,
		"DEFECTSET_CACHE_DB_CONNECT=" + connStr,
		"DEFECTSET_ANALYSIS_BACKEND=" + backend,
		"DEFECTSET_ANALYSIS_DB_CONNECT=" + connStr,
	}

	repo := makeRepo(t)
	work := t.TempDir()
	commits := filepath.Join(work, "commits.csv")
	releases := writeReleases(t, work)

	_, err := runDefectset(t, work, env, "cache", "clear")
	require.NoError(t, err)
	_, err = runDefectset(t, work, env, "analysis", "clear")
	require.NoError(t, err)
	_, err = runDefectset(t, work, env, "analysis", "migrate")
	require.NoError(t, err)

	for range 2 {
		_, err = runDefectset(t, work, env, "extract", "-p", "DEMO", "--repo", repo, "--classifier", "pattern", "--commits", commits)
		require.NoError(t, err)
	}

	out, err := runDefectset(t, work, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Entries: 1")

	_, err = runDefectset(t, work, env, "build", "-p", "DEMO", "--releases", releases, "--commits", commits)
	require.NoError(t, err)

	out, err = runDefectset(t, work, env, "analysis", "status")
	require.NoError(t, err)
	assert.Contains(t, out, backend)

	exportBase := filepath.Join(work, "export")
	_, err = runDefectset(t, work, env, "analysis", "export", "--output-file", exportBase)
	require.NoError(t, err)
	for _, suffix := range []string{".runs.parquet", ".dataset_rows.parquet"} {
		info, err := os.Stat(exportBase + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
