package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8, cfg.Batch.Concurrency)
	require.Equal(t, 5, cfg.Retry.MaxAttempts)
	require.Equal(t, time.Second, cfg.InitialBackoff())
	require.Equal(t, 5*time.Second, cfg.RequestTimeout())
	require.Equal(t, "array", cfg.Output.Format)
	require.Equal(t, "https://cn.bing.com/dict/clientsearch", cfg.Dict.Endpoint)
	require.Equal(t, "zh-CN", cfg.Dict.Market)
	require.False(t, cfg.Snapshot.Enabled)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
batch:
  input_path: words.csv
  concurrency: 16
output:
  path: out.json
  format: ndjson
retry:
  max_attempts: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "words.csv", cfg.Batch.InputPath)
	require.Equal(t, 16, cfg.Batch.Concurrency)
	require.Equal(t, "out.json", cfg.Output.Path)
	require.Equal(t, "ndjson", cfg.Output.Format)
	require.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DICTBATCH_BATCH_CONCURRENCY", "4")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Batch.Concurrency)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "zero concurrency",
			body: "batch:\n  concurrency: 0\n",
			want: "batch.concurrency",
		},
		{
			name: "bad output format",
			body: "output:\n  format: xml\n",
			want: "output.format",
		},
		{
			name: "gcs without bucket",
			body: "snapshot:\n  enabled: true\n  backend: gcs\n",
			want: "snapshot.gcs_bucket",
		},
		{
			name: "resume without ledger",
			body: "batch:\n  resume: true\n",
			want: "batch.resume",
		},
		{
			name: "ledger without dsn",
			body: "db:\n  enabled: true\n",
			want: "db.dsn",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}
