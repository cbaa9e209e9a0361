// Package cli wires the svgtranslate commands together.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"svgtranslate/internal/batch"
	"svgtranslate/internal/config"
	"svgtranslate/internal/download"
	"svgtranslate/internal/extract"
	"svgtranslate/internal/filewalker"
	"svgtranslate/internal/mapping"
	"svgtranslate/internal/memory"
	"svgtranslate/internal/prepare"
	"svgtranslate/internal/svg"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:   "svgtranslate",
		Short: "Maintain multilingual text variants in SVG documents",
		Long: "svgtranslate normalizes SVG documents into a canonical translatable shape,\n" +
			"extracts translation mappings from their language switches, and injects\n" +
			"mappings back, creating or updating localized text variants.",
	}

	rootCmd.AddCommand(prepareCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(injectCmd())
	rootCmd.AddCommand(copyCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(downloadCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

func prepareCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "prepare <svg-file>",
		Short: "Normalize a document into canonical translatable shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := svg.ParseFile(args[0])
			if err != nil {
				return err
			}
			normalized, err := prepare.Normalize(doc)
			if err != nil {
				return fmt.Errorf("normalize %s: %w", args[0], err)
			}
			out := output
			if out == "" {
				out = args[0]
			}
			if err := os.WriteFile(out, normalized.Encode(), 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			log.Info().Str("output", out).Msg("Document normalized")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: overwrite input)")
	return cmd
}

func extractCmd() *cobra.Command {
	var (
		output        string
		caseSensitive bool
		memoryPath    string
	)
	cmd := &cobra.Command{
		Use:   "extract <svg-file>",
		Short: "Extract a translation mapping from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := config.Load()
			doc, err := svg.ParseFile(args[0])
			if err != nil {
				return err
			}
			normalized, err := prepare.Normalize(doc)
			if err != nil {
				return fmt.Errorf("normalize %s: %w", args[0], err)
			}
			m := extract.Extract(normalized, extract.Options{CaseSensitive: caseSensitive})

			if path := firstNonEmpty(memoryPath, cfg.MemoryPath); path != "" {
				mem, err := memory.Open(path)
				if err != nil {
					return err
				}
				defer mem.Close()
				if err := mem.Store(ctx, m.New); err != nil {
					return err
				}
				log.Info().Str("path", path).Msg("Translation memory updated")
			}

			if output != "" {
				if err := m.Save(output); err != nil {
					return fmt.Errorf("save mapping: %w", err)
				}
				log.Info().Str("output", output).Int("texts", len(m.New)).Msg("Mapping saved")
				return nil
			}
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the mapping to this JSON file")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Keep mapping key case")
	cmd.Flags().StringVar(&memoryPath, "memory", "", "Also store pairs in this translation memory")
	return cmd
}

func injectCmd() *cobra.Command {
	var (
		dataFiles     []string
		output        string
		overwrite     bool
		caseSensitive bool
		memoryPath    string
		workers       int
	)
	cmd := &cobra.Command{
		Use:   "inject <svg-file>",
		Short: "Inject a translation mapping into a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := config.Load()
			m, err := loadMapping(ctx, dataFiles, firstNonEmpty(memoryPath, cfg.MemoryPath))
			if err != nil {
				return err
			}
			result, err := batch.Run(ctx, args, batch.Options{
				Mapping:       m,
				OutputFile:    output,
				Overwrite:     overwrite,
				CaseSensitive: caseSensitive,
				Workers:       workers,
			})
			if err != nil {
				return err
			}
			if code, ok := result.Errors[args[0]]; ok {
				return fmt.Errorf("inject into %s: %s", args[0], code)
			}
			printJSON(cmd, result.Files[args[0]])
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&dataFiles, "data", nil, "JSON mapping source (repeatable; first-seen wins)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: overwrite input)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing translations")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Match mapping keys case-sensitively")
	cmd.Flags().StringVar(&memoryPath, "memory", "", "Merge this translation memory as an extra source")
	cmd.Flags().IntVar(&workers, "workers", 1, "Worker count")
	return cmd
}

func copyCmd() *cobra.Command {
	var (
		output        string
		dataOutput    string
		overwrite     bool
		caseSensitive bool
	)
	cmd := &cobra.Command{
		Use:   "copy <source-svg> <target-svg>",
		Short: "Copy translations from one document into another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			stats, m, err := batch.CopyTranslations(ctx, args[0], args[1], output, nil, batch.Options{
				Overwrite:     overwrite,
				CaseSensitive: caseSensitive,
				Workers:       1,
			})
			if err != nil {
				return err
			}
			if dataOutput != "" {
				if err := m.Save(dataOutput); err != nil {
					return fmt.Errorf("save mapping: %w", err)
				}
			}
			printJSON(cmd, stats)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: overwrite target)")
	cmd.Flags().StringVar(&dataOutput, "data-output", "", "Also save the extracted mapping here")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing translations")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Match mapping keys case-sensitively")
	return cmd
}

func batchCmd() *cobra.Command {
	var (
		jobFile       string
		dataFiles     []string
		outputDir     string
		overwrite     bool
		caseSensitive bool
		workers       int
		memoryPath    string
	)
	cmd := &cobra.Command{
		Use:   "batch [input-dir]",
		Short: "Inject one mapping into every document of a directory or job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := config.Load()
			if workers == 0 {
				workers = cfg.WorkerCount
			}

			var files []string
			var err error
			switch {
			case jobFile != "":
				job, jerr := config.LoadJob(jobFile)
				if jerr != nil {
					return jerr
				}
				files, err = jobFiles(ctx, cfg, job, workers)
				if err != nil {
					return err
				}
				dataFiles = append(job.MappingFiles, dataFiles...)
				if outputDir == "" {
					outputDir = job.OutputDir
				}
				overwrite = overwrite || job.Overwrite
			case len(args) == 1:
				files, err = filewalker.Walk(args[0])
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("either an input directory or --job is required")
			}

			m, err := loadMapping(ctx, dataFiles, firstNonEmpty(memoryPath, cfg.MemoryPath))
			if err != nil {
				return err
			}
			result, err := batch.Run(ctx, files, batch.Options{
				Mapping:       m,
				OutputDir:     outputDir,
				Overwrite:     overwrite,
				CaseSensitive: caseSensitive,
				Workers:       workers,
			})
			if err != nil {
				return err
			}
			printJSON(cmd, result)
			return nil
		},
	}
	cmd.Flags().StringVar(&jobFile, "job", "", "YAML job file describing the batch")
	cmd.Flags().StringArrayVar(&dataFiles, "data", nil, "JSON mapping source (repeatable; first-seen wins)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for outputs (default: alongside sources)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing translations")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Match mapping keys case-sensitively")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker count (default: WORKER_COUNT)")
	cmd.Flags().StringVar(&memoryPath, "memory", "", "Merge this translation memory as an extra source")
	return cmd
}

func downloadCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download <titles-file>",
		Short: "Download remote files listed one title per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := config.Load()
			titles, err := readTitles(args[0])
			if err != nil {
				return err
			}
			fetcher := download.NewFetcher(dir,
				download.WithBaseURL(cfg.DownloadBaseURL),
				download.WithUserAgent(cfg.UserAgent),
				download.WithTimeout(cfg.HTTPTimeout),
			)
			_, counters, err := fetcher.FetchAll(ctx, titles, cfg.WorkerCount)
			if err != nil {
				return err
			}
			printJSON(cmd, counters)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory for downloaded files")
	return cmd
}

// jobFiles resolves a job's document list: downloads titles when present,
// then adds explicit files and directory scans.
func jobFiles(ctx context.Context, cfg *config.Config, job *config.Job, workers int) ([]string, error) {
	var files []string
	if len(job.Titles) > 0 {
		fetcher := download.NewFetcher(job.DownloadDir,
			download.WithBaseURL(cfg.DownloadBaseURL),
			download.WithUserAgent(cfg.UserAgent),
			download.WithTimeout(cfg.HTTPTimeout),
		)
		downloaded, _, err := fetcher.FetchAll(ctx, job.Titles, workers)
		if err != nil {
			return nil, err
		}
		files = append(files, downloaded...)
	}
	files = append(files, job.Files...)
	if job.Dir != "" {
		walked, err := filewalker.Walk(job.Dir)
		if err != nil {
			return nil, err
		}
		files = append(files, walked...)
	}
	return files, nil
}

// loadMapping merges JSON mapping sources and, when configured, the
// translation memory. Sources earlier in the list win.
func loadMapping(ctx context.Context, dataFiles []string, memoryPath string) (*mapping.Mapping, error) {
	m := mapping.LoadAll(dataFiles)
	if memoryPath != "" {
		mem, err := memory.Open(memoryPath)
		if err != nil {
			return nil, err
		}
		defer mem.Close()
		stored, err := mem.Mapping(ctx)
		if err != nil {
			return nil, err
		}
		m.Merge(stored)
	}
	return m, nil
}

func readTitles(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open titles file: %w", err)
	}
	defer f.Close()

	var titles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if title := strings.TrimSpace(scanner.Text()); title != "" {
			titles = append(titles, title)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read titles file: %w", err)
	}
	return titles, nil
}

func printJSON(cmd *cobra.Command, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
