package config

import "fmt"

// MaxWorkers is the upper bound on the run's worker pool size.
const MaxWorkers = 20

// RunConfig holds the per-run settings shared by every tool.
type RunConfig struct {
	// ListFile is the newline-delimited list of object identifiers.
	ListFile string `json:"list_file" yaml:"list_file"`
	// Workers is the fixed pool size, clamped to [1, MaxWorkers].
	Workers int  `json:"workers,omitempty" yaml:"workers,omitempty"`
	DryRun  bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	// Output is the report destination ("" = stdout).
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	JSON   bool   `json:"json,omitempty" yaml:"json,omitempty"`
	// Resume skips items journaled as succeeded in a previous run.
	Resume      bool   `json:"resume,omitempty" yaml:"resume,omitempty"`
	JournalPath string `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`
}

// Validate validates the run configuration
func (rc *RunConfig) Validate() error {
	if rc.ListFile == "" {
		return fmt.Errorf("list file is required")
	}
	if rc.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", rc.Workers)
	}
	if rc.Resume && rc.JournalPath == "" {
		return fmt.Errorf("resume requires a journal path")
	}
	return nil
}

// ApplyDefaults sets default values for run configuration
func (rc *RunConfig) ApplyDefaults() {
	if rc.Workers == 0 {
		rc.Workers = 5
	}
	if rc.Workers > MaxWorkers {
		rc.Workers = MaxWorkers
	}
}
