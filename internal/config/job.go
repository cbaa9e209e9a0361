package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Job describes one batch run in a YAML file: which documents to process,
// which mapping sources to merge, and where outputs go.
type Job struct {
	// Titles are remote file titles to download before processing.
	Titles []string `yaml:"titles"`
	// Files are local documents to process.
	Files []string `yaml:"files"`
	// Dir is a directory to scan recursively for documents.
	Dir string `yaml:"dir"`
	// DownloadDir receives downloaded titles (defaults to Dir).
	DownloadDir string `yaml:"download_dir"`
	// MappingFiles are JSON mapping sources, merged first-seen-wins.
	MappingFiles []string `yaml:"mapping_files"`
	// OutputDir receives results; empty writes alongside sources.
	OutputDir string `yaml:"output_dir"`
	// Overwrite replaces existing translations.
	Overwrite bool `yaml:"overwrite"`
}

// LoadJob reads and validates a batch job file.
func LoadJob(path string) (*Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	var job Job
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("parse job file: %w", err)
	}
	if len(job.Titles) == 0 && len(job.Files) == 0 && job.Dir == "" {
		return nil, fmt.Errorf("job file %s names no titles, files, or dir", path)
	}
	if job.DownloadDir == "" {
		job.DownloadDir = job.Dir
	}
	if job.DownloadDir == "" {
		job.DownloadDir = "."
	}
	return &job, nil
}
