package backup

import (
	"path"
	"strings"
	"testing"
	"time"

	"github.com/mdtree/docsync/internal/fsys"
)

const testRoot = "/data"

func newTestManager(t *testing.T, keep int, files map[string]string) (*Manager, fsys.Service) {
	t.Helper()
	svc := fsys.NewMemory()
	if err := svc.MkdirAll(testRoot, fsys.DirPerm); err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		if dir := path.Dir(rel); dir != "." {
			if err := svc.MkdirAll(path.Join(testRoot, dir), fsys.DirPerm); err != nil {
				t.Fatal(err)
			}
		}
		if err := svc.WriteFile(path.Join(testRoot, rel), []byte(content), fsys.FilePerm); err != nil {
			t.Fatal(err)
		}
	}
	return NewManager(svc, testRoot, keep), svc
}

func TestSnapshotAndRestore(t *testing.T) {
	m, svc := newTestManager(t, 0, map[string]string{
		"docs/a.md":     "original a\n",
		"docs/sub/b.md": "original b\n",
	})

	metadata, err := m.Snapshot([]string{"docs"})
	if err != nil {
		t.Fatal(err)
	}
	if len(metadata.Files) != 2 {
		t.Fatalf("snapshot files = %v", metadata.Files)
	}
	if !fsys.Exists(svc, path.Join(testRoot, Dir, metadata.ID, "docs/a.md")) {
		t.Fatal("snapshot copy missing")
	}

	// Clobber the originals, then restore.
	if err := svc.WriteFile(path.Join(testRoot, "docs/a.md"), []byte("clobbered\n"), fsys.FilePerm); err != nil {
		t.Fatal(err)
	}
	if err := m.Restore(metadata.ID); err != nil {
		t.Fatal(err)
	}
	data, err := svc.ReadFile(path.Join(testRoot, "docs/a.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original a\n" {
		t.Errorf("restored content = %q", data)
	}
}

func TestSnapshot_SingleFile(t *testing.T) {
	m, _ := newTestManager(t, 0, map[string]string{"docs/a.md": "a\n"})
	metadata, err := m.Snapshot([]string{"docs/a.md"})
	if err != nil {
		t.Fatal(err)
	}
	if len(metadata.Files) != 1 || metadata.Files[0] != "docs/a.md" {
		t.Errorf("files = %v", metadata.Files)
	}
	if metadata.Size != 2 {
		t.Errorf("size = %d, want 2", metadata.Size)
	}
}

func TestSnapshot_MissingPath(t *testing.T) {
	m, _ := newTestManager(t, 0, nil)
	if _, err := m.Snapshot([]string{"docs/missing"}); err == nil {
		t.Error("expected an error for a missing path")
	}
}

func TestSnapshot_IDCarriesHashPrefix(t *testing.T) {
	m, _ := newTestManager(t, 0, map[string]string{"a.md": "a\n"})
	metadata, err := m.Snapshot([]string{"a.md"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(metadata.ID, metadata.Hash[:8]) {
		t.Errorf("id %q does not end with hash prefix %q", metadata.ID, metadata.Hash[:8])
	}
}

func TestRestore_UnknownID(t *testing.T) {
	m, _ := newTestManager(t, 0, nil)
	if err := m.Restore("20240101-000000-deadbeef"); err == nil {
		t.Error("expected an error for an unknown backup id")
	}
}

func TestDelete(t *testing.T) {
	m, svc := newTestManager(t, 0, map[string]string{"a.md": "a\n"})
	metadata, err := m.Snapshot([]string{"a.md"})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(metadata.ID); err != nil {
		t.Fatal(err)
	}
	if fsys.Exists(svc, path.Join(testRoot, Dir, metadata.ID)) {
		t.Error("delete left the snapshot directory behind")
	}
	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 0 {
		t.Errorf("backups = %v, want none", backups)
	}
}

func TestPrune_KeepsNewest(t *testing.T) {
	m, svc := newTestManager(t, 1, nil)

	// Build two snapshots with distinct ages directly, then prune.
	index := &Index{Version: IndexVersion, Backups: map[string]Metadata{
		"old": {ID: "old", CreatedAt: time.Now().Add(-time.Hour)},
		"new": {ID: "new", CreatedAt: time.Now()},
	}}
	for id := range index.Backups {
		dir := path.Join(testRoot, Dir, id)
		if err := svc.MkdirAll(dir, fsys.DirPerm); err != nil {
			t.Fatal(err)
		}
		if err := svc.WriteFile(path.Join(dir, "x.md"), []byte("x\n"), fsys.FilePerm); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.saveIndex(index); err != nil {
		t.Fatal(err)
	}

	pruned, err := m.Prune()
	if err != nil {
		t.Fatal(err)
	}
	if len(pruned) != 1 || pruned[0] != "old" {
		t.Errorf("pruned = %v, want [old]", pruned)
	}
	if fsys.Exists(svc, path.Join(testRoot, Dir, "old")) {
		t.Error("pruned snapshot directory still present")
	}
	if !fsys.Exists(svc, path.Join(testRoot, Dir, "new")) {
		t.Error("prune removed the newest snapshot")
	}
}

func TestList_NewestFirst(t *testing.T) {
	m, _ := newTestManager(t, 0, nil)
	index := &Index{Version: IndexVersion, Backups: map[string]Metadata{
		"old": {ID: "old", CreatedAt: time.Now().Add(-time.Hour)},
		"new": {ID: "new", CreatedAt: time.Now()},
	}}
	if err := m.saveIndex(index); err != nil {
		t.Fatal(err)
	}
	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 || backups[0].ID != "new" {
		t.Errorf("backups = %v, want newest first", backups)
	}
}
