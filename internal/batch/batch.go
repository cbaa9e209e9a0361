// Package batch sequences normalize+inject over many documents and
// aggregates per-document statistics. Documents are independent, so the
// batch runs across a worker pool; counters are folded after all workers
// finish.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"svgtranslate/internal/extract"
	"svgtranslate/internal/inject"
	"svgtranslate/internal/mapping"
	"svgtranslate/internal/prepare"
	"svgtranslate/internal/svg"
	"svgtranslate/internal/worker"
)

// ParseErrorCode buckets unreadable or malformed source documents; they are
// skipped and recorded exactly like structural errors.
const ParseErrorCode = "parse-error"

// Options configures one batch run.
type Options struct {
	// Mapping is the shared, read-only translation mapping.
	Mapping *mapping.Mapping
	// OutputFile is an explicit target path; only meaningful for a batch of
	// one document.
	OutputFile string
	// OutputDir receives outputs under their source filename. When both
	// OutputFile and OutputDir are empty, documents are written alongside
	// (over) their source.
	OutputDir string
	// Overwrite replaces existing translations instead of skipping them.
	Overwrite bool
	// CaseSensitive disables case folding of mapping keys.
	CaseSensitive bool
	// Workers bounds batch concurrency.
	Workers int
}

// Result aggregates a batch run.
type Result struct {
	Saved        int                     `json:"saved"`
	NotSaved     int                     `json:"not_saved"`
	NestedErrors int                     `json:"nested_errors"`
	NoChanges    int                     `json:"no_changes"`
	Cancelled    int                     `json:"cancelled,omitempty"`
	Errors       map[string]string       `json:"errors,omitempty"`
	Files        map[string]inject.Stats `json:"files,omitempty"`
	Totals       inject.Stats            `json:"totals"`
}

// outcome is the per-file result produced inside the pool.
type outcome struct {
	stats   inject.Stats
	errCode string
	saved   bool
}

// Run injects opts.Mapping into every file and aggregates the results.
// Per-file failures are recorded and do not abort the batch.
func Run(ctx context.Context, files []string, opts Options) (*Result, error) {
	if opts.Mapping == nil {
		opts.Mapping = mapping.New()
	}

	pool := worker.NewPool[string, outcome](opts.Workers, func(ctx context.Context, path string) (outcome, error) {
		return processFile(path, opts)
	})
	tasks := pool.Execute(ctx, files)

	result := &Result{
		Errors: make(map[string]string),
		Files:  make(map[string]inject.Stats),
	}
	for _, t := range tasks {
		if !t.Done {
			// Dispatch stopped before this file; a cancelled batch must not
			// report it as processed without changes.
			result.Cancelled++
			continue
		}
		out := t.Result
		result.Files[t.Input] = out.stats
		result.Totals.Add(out.stats)
		switch {
		case out.errCode != "":
			result.NotSaved++
			result.Errors[t.Input] = out.errCode
			if out.errCode == string(prepare.ErrNestedTspans) {
				result.NestedErrors++
			}
		case out.saved:
			result.Saved++
		default:
			result.NoChanges++
		}
	}

	log.Info().
		Int("files", len(files)).
		Int("saved", result.Saved).
		Int("not_saved", result.NotSaved).
		Int("no_changes", result.NoChanges).
		Int("cancelled", result.Cancelled).
		Msg("Batch complete")
	return result, nil
}

// processFile runs one document through normalize+inject and persists the
// result when the injection changed it.
func processFile(path string, opts Options) (outcome, error) {
	doc, err := svg.ParseFile(path)
	if err != nil {
		return outcome{errCode: ParseErrorCode}, err
	}

	normalized, err := prepare.Normalize(doc)
	if err != nil {
		return outcome{errCode: errorCode(err), stats: inject.Stats{StructureErrors: 1}}, err
	}

	stats, err := inject.Inject(normalized, opts.Mapping, inject.Options{
		Overwrite:     opts.Overwrite,
		CaseSensitive: opts.CaseSensitive,
	})
	if err != nil {
		return outcome{errCode: errorCode(err), stats: *stats}, err
	}

	if !stats.Changed() {
		return outcome{stats: *stats}, nil
	}

	outPath := resolveOutput(path, opts)
	if err := writeAtomic(outPath, normalized.Encode()); err != nil {
		return outcome{errCode: ParseErrorCode, stats: *stats}, err
	}

	log.Debug().Str("input", path).Str("output", outPath).Msg("Document saved")
	return outcome{stats: *stats, saved: true}, nil
}

// resolveOutput picks the output location: explicit target file, else target
// directory plus the source filename, else alongside the source.
func resolveOutput(path string, opts Options) string {
	if opts.OutputFile != "" {
		return opts.OutputFile
	}
	if opts.OutputDir != "" {
		return filepath.Join(opts.OutputDir, filepath.Base(path))
	}
	return path
}

// writeAtomic writes data as a whole file: temp file in the target
// directory, then rename. A cancelled batch never leaves partial files.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".svgtranslate-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func errorCode(err error) string {
	var serr *prepare.StructureError
	if errors.As(err, &serr) {
		return string(serr.Code)
	}
	return ParseErrorCode
}

// CopyTranslations extracts the mapping from sourcePath and injects it into
// targetPath, writing the result to outputPath (or back over the target when
// outputPath is empty). Extra mapping sources already loaded by the caller
// can be passed in extra; the extracted mapping wins on conflicts.
func CopyTranslations(ctx context.Context, sourcePath, targetPath, outputPath string, extra *mapping.Mapping, opts Options) (*inject.Stats, *mapping.Mapping, error) {
	srcDoc, err := svg.ParseFile(sourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("parse source document: %w", err)
	}
	srcNorm, err := prepare.Normalize(srcDoc)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize source document: %w", err)
	}
	m := extract.Extract(srcNorm, extract.Options{CaseSensitive: opts.CaseSensitive})
	m.Merge(extra)

	runOpts := opts
	runOpts.Mapping = m
	runOpts.OutputFile = outputPath
	result, err := Run(ctx, []string{targetPath}, runOpts)
	if err != nil {
		return nil, nil, err
	}
	if code, ok := result.Errors[targetPath]; ok {
		return nil, m, fmt.Errorf("inject into %s: %s", targetPath, code)
	}
	stats := result.Files[targetPath]
	return &stats, m, nil
}
