package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureStdout runs fn while redirecting os.Stdout and returns what was
// written.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close pipe writer: %v", err)
	}
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read captured output: %v", err)
	}
	return buf.String(), runErr
}

// seedFile writes a file under root, creating parent directories.
func seedFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func readTestFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data)
}

func TestVersionVariables(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{"docsync", "version"})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, want := range []string{"docsync version", "commit:", "built:", "go:"} {
		if !strings.Contains(output, want) {
			t.Errorf("version output missing %q, got:\n%s", want, output)
		}
	}
}

func TestArgumentValidation(t *testing.T) {
	tests := map[string]struct {
		args []string
	}{
		"copy with no arguments":     {args: []string{"docsync", "copy"}},
		"copy with one argument":     {args: []string{"docsync", "copy", "docs"}},
		"move with three arguments":  {args: []string{"docsync", "move", "a", "b", "c"}},
		"validate with no arguments": {args: []string{"docsync", "validate"}},
		"backup restore without id":  {args: []string{"docsync", "backup", "restore"}},
		"backup delete without id":   {args: []string{"docsync", "backup", "delete"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := captureStdout(t, func() error {
				return Run(context.Background(), tt.args)
			})
			if err == nil {
				t.Error("Run() expected error, got nil")
			}
		})
	}
}

func TestCopyCommand(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "docs/a.md", "# A\n\nSee [b](b.md).\n")
	seedFile(t, root, "docs/b.md", "# B\n")

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"docsync", "--no-color", "--root", root,
			"copy", "--no-progress", "--no-backup", "docs", "archive/docs",
		})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := readTestFile(t, root, "archive/docs/a.md")
	if !strings.Contains(got, "[b](b.md)") {
		t.Errorf("sibling link should survive the copy unchanged, got:\n%s", got)
	}
	if _, err := os.Stat(filepath.Join(root, "docs", "a.md")); err != nil {
		t.Errorf("copy must leave the source in place: %v", err)
	}
}

func TestMoveCommand(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "docs/a.md", "# A\n")
	seedFile(t, root, "index.md", "Start with [a](docs/a.md).\n")

	output, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"docsync", "--no-color", "--root", root,
			"move", "--no-progress", "--no-backup", "docs", "archive",
		})
	})
	if err != nil {
		t.Fatalf("Run() error = %v\noutput:\n%s", err, output)
	}

	if _, err := os.Stat(filepath.Join(root, "docs")); !os.IsNotExist(err) {
		t.Error("move should delete the source directory")
	}
	index := readTestFile(t, root, "index.md")
	if !strings.Contains(index, "[a](archive/a.md)") {
		t.Errorf("dataset links should follow the move, got:\n%s", index)
	}
}

func TestMoveCommand_SnapshotBeforeDelete(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "docs/a.md", "# A\n")

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"docsync", "--no-color", "--root", root,
			"move", "--no-progress", "docs", "archive",
		})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	output, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"docsync", "--no-color", "--root", root, "backup", "list",
		})
	})
	if err != nil {
		t.Fatalf("backup list error = %v", err)
	}
	if !strings.Contains(output, "1 file(s)") {
		t.Errorf("expected one snapshot covering the moved file, got:\n%s", output)
	}
}

func TestCopyCommand_TransformFlags(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "skills/guides/setup/readme.md", "---\nname: setup\n---\n# Setup\n")

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"docsync", "--no-color", "--root", root,
			"copy", "--no-progress", "--no-backup", "--flatten", "--prefix", "ref-",
			"skills", "imported",
		})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := readTestFile(t, root, "imported/ref-setup/readme.md")
	if !strings.Contains(got, "name: ref-setup") {
		t.Errorf("frontmatter name should track the transformed directory, got:\n%s", got)
	}
}

func TestValidateCommand(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "docs/a.md", "# A\n")

	tests := map[string]struct {
		args    []string
		wantErr bool
	}{
		"valid copy": {
			args:    []string{"docsync", "--no-color", "--root", root, "validate", "docs", "archive"},
			wantErr: false,
		},
		"missing source": {
			args:    []string{"docsync", "--no-color", "--root", root, "validate", "ghost", "archive"},
			wantErr: true,
		},
		"move into own subtree": {
			args:    []string{"docsync", "--no-color", "--root", root, "validate", "--move", "docs", "docs/inner"},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := captureStdout(t, func() error {
				return Run(context.Background(), tt.args)
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackupListCommand_Empty(t *testing.T) {
	root := t.TempDir()

	output, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"docsync", "--no-color", "--root", root, "backup", "list",
		})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(output, "No backups found") {
		t.Errorf("expected empty listing message, got:\n%s", output)
	}
}

func TestConfigCommands(t *testing.T) {
	root := t.TempDir()

	if _, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"docsync", "--no-color", "--root", root, "config", "init",
		})
	}); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".docsync.yaml")); err != nil {
		t.Fatalf("config init should write the config file: %v", err)
	}

	output, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"docsync", "--no-color", "--root", root, "config", "show",
		})
	})
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"dataset:", "sync:", "backup:"} {
		if !strings.Contains(output, want) {
			t.Errorf("config show missing %q, got:\n%s", want, output)
		}
	}
}
