// Package download fetches remote SVG documents by file title into a local
// directory, skipping files already present. It is a thin fetch-and-cache
// collaborator; documents are processed from disk afterwards.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"svgtranslate/internal/worker"
)

// DefaultBaseURL resolves a file title to its raw content.
const DefaultBaseURL = "https://commons.wikimedia.org/wiki/Special:FilePath/"

// DefaultUserAgent identifies the tool to the remote store.
const DefaultUserAgent = "svgtranslate/1.0 (https://commons.wikimedia.org; svg-translate tool)"

// Status classifies the outcome of fetching one title.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusExisting   Status = "existing"
	StatusFailed     Status = "failed"
)

// Result reports the outcome of fetching one title.
type Result struct {
	Title  string
	Path   string
	Status Status
}

// Counters aggregates fetch outcomes for one batch.
type Counters struct {
	Downloaded int `json:"downloaded"`
	Existing   int `json:"existing"`
	Failed     int `json:"failed"`
}

// Fetcher downloads files over a shared HTTP client.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	outDir    string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL overrides the title resolution URL.
func WithBaseURL(base string) Option {
	return func(f *Fetcher) { f.baseURL = base }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client.Timeout = d }
}

// NewFetcher creates a Fetcher writing into outDir.
func NewFetcher(outDir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		outDir:    outDir,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads one title, skipping it when the local copy already exists.
func (f *Fetcher) Fetch(ctx context.Context, title string) Result {
	if title == "" {
		return Result{Title: title, Status: StatusFailed}
	}

	outPath := filepath.Join(f.outDir, title)
	if _, err := os.Stat(outPath); err == nil {
		log.Debug().Str("title", title).Msg("Skipped existing file")
		return Result{Title: title, Path: outPath, Status: StatusExisting}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+url.PathEscape(title), nil)
	if err != nil {
		log.Error().Err(err).Str("title", title).Msg("Build download request")
		return Result{Title: title, Status: StatusFailed}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("title", title).Msg("Download failed")
		return Result{Title: title, Status: StatusFailed}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Str("title", title).Msg("Download failed")
		return Result{Title: title, Status: StatusFailed}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("title", title).Msg("Read download body")
		return Result{Title: title, Status: StatusFailed}
	}
	if err := os.WriteFile(outPath, body, 0644); err != nil {
		log.Error().Err(err).Str("path", outPath).Msg("Write downloaded file")
		return Result{Title: title, Status: StatusFailed}
	}

	log.Debug().Str("title", title).Str("path", outPath).Msg("Downloaded file")
	return Result{Title: title, Path: outPath, Status: StatusDownloaded}
}

// FetchAll downloads titles through a worker pool and returns the local
// paths of available files plus batch counters.
func (f *Fetcher) FetchAll(ctx context.Context, titles []string, workers int) ([]string, Counters, error) {
	if err := os.MkdirAll(f.outDir, 0755); err != nil {
		return nil, Counters{}, fmt.Errorf("create download directory: %w", err)
	}

	pool := worker.NewPool[string, Result](workers, func(ctx context.Context, title string) (Result, error) {
		return f.Fetch(ctx, title), nil
	})
	tasks := pool.Execute(ctx, titles)

	var files []string
	var counters Counters
	for _, t := range tasks {
		switch t.Result.Status {
		case StatusDownloaded:
			counters.Downloaded++
		case StatusExisting:
			counters.Existing++
		default:
			counters.Failed++
		}
		if t.Result.Path != "" {
			files = append(files, t.Result.Path)
		}
	}

	log.Info().
		Int("downloaded", counters.Downloaded).
		Int("existing", counters.Existing).
		Int("failed", counters.Failed).
		Msg("Download batch complete")
	return files, counters, nil
}
