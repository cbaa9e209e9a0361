package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Should download a file and record the user agent", func(t *testing.T) {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Write([]byte("<svg/>"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		f := NewFetcher(dir, WithBaseURL(srv.URL+"/"), WithUserAgent("test-agent"))
		res := f.Fetch(ctx, "File.svg")

		assert.Equal(t, StatusDownloaded, res.Status)
		assert.Equal(t, "test-agent", gotUA)
		data, err := os.ReadFile(filepath.Join(dir, "File.svg"))
		require.NoError(t, err)
		assert.Equal(t, "<svg/>", string(data))
	})

	t.Run("Should skip files already on disk", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("server should not be hit")
		}))
		defer srv.Close()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "File.svg"), []byte("old"), 0644))
		f := NewFetcher(dir, WithBaseURL(srv.URL+"/"))
		res := f.Fetch(ctx, "File.svg")
		assert.Equal(t, StatusExisting, res.Status)
	})

	t.Run("Should fail on non-200 responses", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewFetcher(t.TempDir(), WithBaseURL(srv.URL+"/"))
		res := f.Fetch(ctx, "Missing.svg")
		assert.Equal(t, StatusFailed, res.Status)
	})

	t.Run("Should fail on an empty title", func(t *testing.T) {
		f := NewFetcher(t.TempDir())
		assert.Equal(t, StatusFailed, f.Fetch(ctx, "").Status)
	})
}

func TestFetchAll(t *testing.T) {
	t.Run("Should aggregate counters and collect paths", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/Bad.svg" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte("<svg/>"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Old.svg"), []byte("old"), 0644))

		f := NewFetcher(dir, WithBaseURL(srv.URL+"/"))
		files, counters, err := f.FetchAll(context.Background(), []string{"New.svg", "Old.svg", "Bad.svg"}, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, counters.Downloaded)
		assert.Equal(t, 1, counters.Existing)
		assert.Equal(t, 1, counters.Failed)
		assert.Len(t, files, 2)
	})

	t.Run("Should create the output directory", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<svg/>"))
		}))
		defer srv.Close()

		dir := filepath.Join(t.TempDir(), "nested", "out")
		f := NewFetcher(dir, WithBaseURL(srv.URL+"/"))
		_, counters, err := f.FetchAll(context.Background(), []string{"File.svg"}, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, counters.Downloaded)
	})
}
