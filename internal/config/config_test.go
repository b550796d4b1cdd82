package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mdtree/docsync/internal/behavior"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Sync.DefaultBehavior != "overwrite" {
		t.Errorf("default behavior = %q", cfg.Sync.DefaultBehavior)
	}
	if cfg.Rewrite.Concurrency != 4 {
		t.Errorf("concurrency = %d", cfg.Rewrite.Concurrency)
	}
	if !cfg.Backup.Enabled || cfg.Backup.MaxBackups != 10 {
		t.Errorf("backup = %+v", cfg.Backup)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.DefaultBehavior != "overwrite" {
		t.Errorf("behavior = %q", cfg.Sync.DefaultBehavior)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Sync.DefaultBehavior = "mirror"
	cfg.Sync.FolderBehaviors = map[string]string{"notes": "skip"}
	cfg.Rewrite.Concurrency = 8

	if err := cfg.Save(root); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Sync.DefaultBehavior != "mirror" {
		t.Errorf("behavior = %q", loaded.Sync.DefaultBehavior)
	}
	if loaded.Sync.FolderBehaviors["notes"] != "skip" {
		t.Errorf("folder behaviors = %v", loaded.Sync.FolderBehaviors)
	}
	if loaded.Rewrite.Concurrency != 8 {
		t.Errorf("concurrency = %d", loaded.Rewrite.Concurrency)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	root := t.TempDir()
	raw := []byte("sync:\n  default_behavior: skip\n")
	if err := os.WriteFile(filepath.Join(root, ".docsync.yaml"), raw, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.DefaultBehavior != "skip" {
		t.Errorf("behavior = %q", cfg.Sync.DefaultBehavior)
	}
	if cfg.Rewrite.Concurrency != 4 {
		t.Errorf("concurrency lost its default: %d", cfg.Rewrite.Concurrency)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DOCSYNC_SYNC_DEFAULT_BEHAVIOR", "mirror")
	t.Setenv("DOCSYNC_REWRITE_CONCURRENCY", "16")
	t.Setenv("DOCSYNC_OUTPUT_VERBOSE", "yes")
	t.Setenv("DOCSYNC_BACKUP_ENABLED", "false")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.DefaultBehavior != "mirror" {
		t.Errorf("behavior = %q", cfg.Sync.DefaultBehavior)
	}
	if cfg.Rewrite.Concurrency != 16 {
		t.Errorf("concurrency = %d", cfg.Rewrite.Concurrency)
	}
	if !cfg.Output.Verbose {
		t.Error("verbose override ignored")
	}
	if cfg.Backup.Enabled {
		t.Error("backup override ignored")
	}
}

func TestBehaviorTable(t *testing.T) {
	cfg := Default()
	cfg.Sync.FolderBehaviors = map[string]string{
		"notes":  "skip",
		"mirror": "MIRROR",
		"bad":    "not-a-behavior",
	}
	table := cfg.BehaviorTable()
	if got := table.Resolve("notes/x.md", behavior.Overwrite); got != behavior.Skip {
		t.Errorf("notes = %q", got)
	}
	if got := table.Resolve("mirror", behavior.Overwrite); got != behavior.Mirror {
		t.Errorf("mirror = %q", got)
	}
	if got := table.Resolve("bad/x.md", behavior.Overwrite); got != behavior.Overwrite {
		t.Errorf("invalid entry resolved to %q", got)
	}
}

func TestDefaultBehaviorFallback(t *testing.T) {
	cfg := Default()
	cfg.Sync.DefaultBehavior = "bogus"
	if got := cfg.DefaultBehavior(); got != behavior.Overwrite {
		t.Errorf("fallback = %q", got)
	}
}
