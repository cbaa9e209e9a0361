package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should apply defaults when the environment is empty", func(t *testing.T) {
		for _, key := range []string{"WORKER_COUNT", "HTTP_TIMEOUT", "CASE_SENSITIVE", "TRANSLATION_MEMORY"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
		cfg := Load()
		assert.Equal(t, 8, cfg.WorkerCount)
		assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
		assert.False(t, cfg.CaseSensitive)
		assert.Empty(t, cfg.MemoryPath)
	})

	t.Run("Should read overrides from the environment", func(t *testing.T) {
		t.Setenv("WORKER_COUNT", "3")
		t.Setenv("HTTP_TIMEOUT", "5s")
		t.Setenv("CASE_SENSITIVE", "true")
		t.Setenv("TRANSLATION_MEMORY", "/tmp/memory.db")
		cfg := Load()
		assert.Equal(t, 3, cfg.WorkerCount)
		assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
		assert.True(t, cfg.CaseSensitive)
		assert.Equal(t, "/tmp/memory.db", cfg.MemoryPath)
	})

	t.Run("Should fall back to defaults on malformed values", func(t *testing.T) {
		t.Setenv("WORKER_COUNT", "lots")
		t.Setenv("HTTP_TIMEOUT", "soon")
		cfg := Load()
		assert.Equal(t, 8, cfg.WorkerCount)
		assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	})
}

func TestLoadJob(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "job.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	t.Run("Should parse a full job file", func(t *testing.T) {
		job, err := LoadJob(write(t, `
titles:
  - File one.svg
files:
  - local.svg
dir: svgs
download_dir: downloads
mapping_files:
  - data.json
output_dir: out
overwrite: true
`))
		require.NoError(t, err)
		assert.Equal(t, []string{"File one.svg"}, job.Titles)
		assert.Equal(t, []string{"local.svg"}, job.Files)
		assert.Equal(t, "svgs", job.Dir)
		assert.Equal(t, "downloads", job.DownloadDir)
		assert.Equal(t, []string{"data.json"}, job.MappingFiles)
		assert.Equal(t, "out", job.OutputDir)
		assert.True(t, job.Overwrite)
	})

	t.Run("Should default the download dir to the scan dir", func(t *testing.T) {
		job, err := LoadJob(write(t, "dir: svgs\n"))
		require.NoError(t, err)
		assert.Equal(t, "svgs", job.DownloadDir)
	})

	t.Run("Should default the download dir to the working directory", func(t *testing.T) {
		job, err := LoadJob(write(t, "titles:\n  - File.svg\n"))
		require.NoError(t, err)
		assert.Equal(t, ".", job.DownloadDir)
	})

	t.Run("Should reject a job without any source", func(t *testing.T) {
		_, err := LoadJob(write(t, "overwrite: true\n"))
		assert.Error(t, err)
	})

	t.Run("Should reject malformed YAML", func(t *testing.T) {
		_, err := LoadJob(write(t, "titles: [unclosed\n"))
		assert.Error(t, err)
	})

	t.Run("Should fail on a missing file", func(t *testing.T) {
		_, err := LoadJob(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
