package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/defectset/internal/contract"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"build"},
		{"extract"},
		{"fetch", "releases"},
		{"fetch", "tickets"},
		{"analysis", "status"},
		{"analysis", "export"},
		{"analysis", "migrate"},
		{"cache", "clear"},
		{"mcp"},
		{"config"},
		{"version"},
	} {
		found, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestWriteConfigYAML_HidesSecrets(t *testing.T) {
	in := &contract.ConfigRawInput{
		Project:           "BOOKKEEPER",
		Releases:          "releases.csv",
		Workers:           4,
		JiraURL:           "https://issues.apache.org/jira",
		JiraToken:         "s3cret",
		AnalysisDBConnect: "host=db dbname=runs password=s3cret",
	}
	var buf bytes.Buffer
	require.NoError(t, writeConfigYAML(&buf, in))

	out := buf.String()
	assert.NotContains(t, out, "s3cret")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "BOOKKEEPER", decoded["project"])
	assert.Equal(t, "releases.csv", decoded["releases"])
	assert.Equal(t, 4, decoded["workers"])
}

func TestLogLevelFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defectset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log-level: debug\n"), 0o644))
	viper.Set("config", path)
	t.Cleanup(func() {
		viper.Set("config", "")
		contract.Log.SetLevel(logrus.WarnLevel)
	})

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	assert.Equal(t, logrus.DebugLevel, contract.Log.GetLevel())
}
