// Package config provides configuration management for docsync.
// It supports YAML configuration files, environment variables, and sensible
// defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mdtree/docsync/internal/behavior"
)

// Config represents the complete docsync configuration.
type Config struct {
	// Dataset configures the dataset root the engine operates in.
	Dataset DatasetConfig `yaml:"dataset"`

	// Sync configures default synchronization behavior.
	Sync SyncConfig `yaml:"sync"`

	// Rewrite configures the link-rewrite passes.
	Rewrite RewriteConfig `yaml:"rewrite"`

	// Output configures display preferences.
	Output OutputConfig `yaml:"output"`

	// Backup configures snapshot behavior.
	Backup BackupConfig `yaml:"backup"`
}

// DatasetConfig holds dataset settings.
type DatasetConfig struct {
	// Root is the dataset root directory. Defaults to the working directory.
	Root string `yaml:"root"`
}

// SyncConfig holds synchronization settings.
type SyncConfig struct {
	// DefaultBehavior is the conflict policy applied when no folder entry
	// matches (overwrite, skip, mirror).
	DefaultBehavior string `yaml:"default_behavior"`
	// FolderBehaviors maps relative-path keys to per-folder behaviors.
	FolderBehaviors map[string]string `yaml:"folder_behaviors,omitempty"`
}

// RewriteConfig holds link-rewrite settings.
type RewriteConfig struct {
	// Concurrency bounds parallel rewrite file operations.
	Concurrency int `yaml:"concurrency"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never).
	Color string `yaml:"color"`
	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose"`
	// Progress enables progress bars for rewrite passes.
	Progress bool `yaml:"progress"`
}

// BackupConfig holds snapshot settings.
type BackupConfig struct {
	// Enabled snapshots content before destructive sync steps.
	Enabled bool `yaml:"enabled"`
	// MaxBackups is the number of snapshots to retain (0 = unlimited).
	MaxBackups int `yaml:"max_backups"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Root: ".",
		},
		Sync: SyncConfig{
			DefaultBehavior: string(behavior.Overwrite),
		},
		Rewrite: RewriteConfig{
			Concurrency: 4,
		},
		Output: OutputConfig{
			Color:    "auto",
			Verbose:  false,
			Progress: true,
		},
		Backup: BackupConfig{
			Enabled:    true,
			MaxBackups: 10,
		},
	}
}

// configFileName is the name of the config file inside the dataset root.
const configFileName = ".docsync.yaml"

// FilePath returns the config file path for a dataset root.
func FilePath(datasetRoot string) string {
	return filepath.Join(datasetRoot, configFileName)
}

// Load loads the configuration for a dataset root, merging file contents
// over defaults. A missing file is not an error; environment overrides
// always apply last.
func Load(datasetRoot string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(FilePath(datasetRoot))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvironment()
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnvironment()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 - path is provided by caller
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnvironment()
	return cfg, nil
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// Save writes the configuration into its dataset root.
func (c *Config) Save(datasetRoot string) error {
	return c.SaveToPath(FilePath(datasetRoot))
}

// BehaviorTable builds the folder-behavior table from the configuration.
// Unrecognized behavior strings are dropped.
func (c *Config) BehaviorTable() *behavior.Table {
	entries := make(map[string]behavior.Behavior, len(c.Sync.FolderBehaviors))
	for key, raw := range c.Sync.FolderBehaviors {
		if b, ok := behavior.Parse(raw); ok {
			entries[key] = b
		}
	}
	return behavior.NewTable(entries)
}

// DefaultBehavior parses the configured default, falling back to overwrite.
func (c *Config) DefaultBehavior() behavior.Behavior {
	if b, ok := behavior.Parse(c.Sync.DefaultBehavior); ok {
		return b
	}
	return behavior.Overwrite
}

// applyEnvironment applies environment variable overrides.
// Variables follow the pattern DOCSYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("DOCSYNC_DATASET_ROOT"); v != "" {
		c.Dataset.Root = v
	}
	if v := os.Getenv("DOCSYNC_SYNC_DEFAULT_BEHAVIOR"); v != "" {
		c.Sync.DefaultBehavior = v
	}
	if v := os.Getenv("DOCSYNC_REWRITE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Rewrite.Concurrency = n
		}
	}
	if v := os.Getenv("DOCSYNC_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("DOCSYNC_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}
	if v := os.Getenv("DOCSYNC_OUTPUT_PROGRESS"); v != "" {
		c.Output.Progress = parseBool(v)
	}
	if v := os.Getenv("DOCSYNC_BACKUP_ENABLED"); v != "" {
		c.Backup.Enabled = parseBool(v)
	}
	if v := os.Getenv("DOCSYNC_BACKUP_MAX_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Backup.MaxBackups = n
		}
	}
}

// parseBool parses common boolean representations.
func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
