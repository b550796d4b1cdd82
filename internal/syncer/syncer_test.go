package syncer

import (
	"path"
	"testing"

	"github.com/mdtree/docsync/internal/behavior"
	"github.com/mdtree/docsync/internal/fsys"
	"github.com/mdtree/docsync/internal/syncerr"
)

const testRoot = "/data"

// newTestEngine seeds an in-memory dataset and returns an engine over it.
func newTestEngine(t *testing.T, files map[string]string) (*Engine, fsys.Service) {
	t.Helper()
	svc := fsys.NewMemory()
	if err := svc.MkdirAll(testRoot, fsys.DirPerm); err != nil {
		t.Fatal(err)
	}
	seed(t, svc, files)
	return New(svc, testRoot), svc
}

func seed(t *testing.T, svc fsys.Service, files map[string]string) {
	t.Helper()
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
}

func readFile(t *testing.T, svc fsys.Service, rel string) string {
	t.Helper()
	data, err := svc.ReadFile(path.Join(testRoot, rel))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func exists(svc fsys.Service, rel string) bool {
	return fsys.Exists(svc, path.Join(testRoot, rel))
}

func TestCopy_File(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"docs/a.md": "# A\n",
	})
	result, err := e.Copy("docs/a.md", "docs/b.md", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, svc, "docs/b.md"); got != "# A\n" {
		t.Errorf("copied content = %q", got)
	}
	if len(result.Created()) != 1 {
		t.Errorf("created = %d, want 1", len(result.Created()))
	}
	if !exists(svc, "docs/a.md") {
		t.Error("copy removed the source")
	}
}

func TestCopy_FileIntoExistingDirectory(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"docs/a.md":    "# A\n",
		"other/x.md":   "x\n",
		"other/sub/.k": "",
	})
	if _, err := e.Copy("docs/a.md", "other", DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if !exists(svc, "other/a.md") {
		t.Error("file did not land under the directory target")
	}
}

func TestCopy_AbsolutePathRejectedBeforeIO(t *testing.T) {
	counting := fsys.NewCounting(fsys.NewMemory())
	e := New(counting, testRoot)

	_, err := e.Copy("/etc/passwd", "docs", DefaultOptions())
	if !syncerr.IsKind(err, syncerr.KindInvalidPath) {
		t.Fatalf("err = %v, want INVALID_PATH", err)
	}
	_, err = e.Copy("docs", "/tmp/out", DefaultOptions())
	if !syncerr.IsKind(err, syncerr.KindInvalidPath) {
		t.Fatalf("err = %v, want INVALID_PATH", err)
	}
	if n := counting.Calls(); n != 0 {
		t.Errorf("filesystem saw %d calls before validation failed", n)
	}
}

func TestCopy_PathEscapeRejectedBeforeIO(t *testing.T) {
	counting := fsys.NewCounting(fsys.NewMemory())
	e := New(counting, testRoot)

	_, err := e.Copy("../outside", "docs", DefaultOptions())
	if !syncerr.IsKind(err, syncerr.KindPathEscape) {
		t.Fatalf("err = %v, want PATH_ESCAPE", err)
	}
	_, err = e.Copy("docs", "../../escape", DefaultOptions())
	if !syncerr.IsKind(err, syncerr.KindPathEscape) {
		t.Fatalf("err = %v, want PATH_ESCAPE", err)
	}
	if n := counting.Calls(); n != 0 {
		t.Errorf("filesystem saw %d calls before validation failed", n)
	}
}

func TestCopy_SelfContainment(t *testing.T) {
	e, _ := newTestEngine(t, map[string]string{"docs/a/x.md": "x\n"})

	_, err := e.Copy("docs/a", "docs/a/sub", DefaultOptions())
	if !syncerr.IsKind(err, syncerr.KindInvalidSubfolderCopy) {
		t.Errorf("copy into own subtree: err = %v, want INVALID_SUBFOLDER_COPY", err)
	}
	_, err = e.Move("docs/a", "docs/a", DefaultOptions())
	if !syncerr.IsKind(err, syncerr.KindInvalidSubfolderMove) {
		t.Errorf("move onto itself: err = %v, want INVALID_SUBFOLDER_MOVE", err)
	}
}

func TestCopy_SourceMissing(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	_, err := e.Copy("docs/missing.md", "out.md", DefaultOptions())
	if !syncerr.IsKind(err, syncerr.KindSourceNotExists) {
		t.Errorf("err = %v, want SOURCE_NOT_EXISTS", err)
	}
}

func TestCopy_Directory(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"docs/a.md":        "# A\n",
		"docs/sub/b.md":    "# B\n",
		"docs/sub/c.txt":   "not markdown\n",
		"docs/deep/d/e.md": "# E\n",
	})
	result, err := e.Copy("docs", "backup", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for _, rel := range []string{"backup/a.md", "backup/sub/b.md", "backup/sub/c.txt", "backup/deep/d/e.md"} {
		if !exists(svc, rel) {
			t.Errorf("missing %s", rel)
		}
	}
	if len(result.Created()) != 4 {
		t.Errorf("created = %d, want 4", len(result.Created()))
	}
}

func TestCopy_BehaviorPrecedence(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"notes/x.md":     "new notes\n",
		"other/x.md":     "new other\n",
		"out/notes-x.md": "old notes\n",
		"out/other-x.md": "old other\n",
	})
	opts := DefaultOptions()
	opts.FolderBehavior = behavior.NewTable(map[string]behavior.Behavior{"notes": behavior.Skip})

	result, err := e.Copy("notes/x.md", "out/notes-x.md", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Skipped()) != 1 {
		t.Fatalf("skipped = %d, want 1", len(result.Skipped()))
	}
	if got := readFile(t, svc, "out/notes-x.md"); got != "old notes\n" {
		t.Errorf("skip behavior overwrote destination: %q", got)
	}

	if _, err := e.Copy("other/x.md", "out/other-x.md", opts); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, svc, "out/other-x.md"); got != "new other\n" {
		t.Errorf("default overwrite did not replace destination: %q", got)
	}
}

func TestCopy_SkipDirectoryDoesNotDescend(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"src/a.md":     "new a\n",
		"src/sub/b.md": "new b\n",
		"dst/a.md":     "old a\n",
	})
	opts := DefaultOptions()
	opts.FolderBehavior = behavior.NewTable(map[string]behavior.Behavior{"src": behavior.Skip})

	result, err := e.Copy("src", "dst", opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, svc, "dst/a.md"); got != "old a\n" {
		t.Errorf("skipped directory was written: %q", got)
	}
	if exists(svc, "dst/sub") {
		t.Error("skip descended into subdirectory")
	}
	if len(result.Skipped()) != 1 || len(result.Created()) != 0 {
		t.Errorf("skipped = %d created = %d", len(result.Skipped()), len(result.Created()))
	}
}

func TestCopy_MirrorExactness(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"src/a.md":      "a\n",
		"src/b.md":      "b\n",
		"dst/a.md":      "stale a\n",
		"dst/b.md":      "stale b\n",
		"dst/c.md":      "extraneous\n",
		"aside/keep.md": "untouched\n",
	})
	opts := DefaultOptions()
	opts.DefaultBehavior = behavior.Mirror

	result, err := e.Copy("src", "dst", opts)
	if err != nil {
		t.Fatal(err)
	}
	if exists(svc, "dst/c.md") {
		t.Error("mirror left an extraneous destination entry")
	}
	if got := readFile(t, svc, "dst/a.md"); got != "a\n" {
		t.Errorf("dst/a.md = %q", got)
	}
	if got := readFile(t, svc, "dst/b.md"); got != "b\n" {
		t.Errorf("dst/b.md = %q", got)
	}
	if !exists(svc, "aside/keep.md") {
		t.Error("mirror cleanup reached outside the copied subtree")
	}
	if len(result.Deleted()) != 1 || result.Deleted()[0].Path != "dst/c.md" {
		t.Errorf("deleted = %+v, want exactly dst/c.md", result.Deleted())
	}
}

func TestCopy_MirrorSnapshotHook(t *testing.T) {
	e, _ := newTestEngine(t, map[string]string{
		"src/a.md":      "a\n",
		"dst/a.md":      "old\n",
		"dst/doomed.md": "bye\n",
	})
	var snapped []string
	opts := DefaultOptions()
	opts.DefaultBehavior = behavior.Mirror
	opts.Snapshot = func(paths []string) error {
		snapped = append(snapped, paths...)
		return nil
	}
	if _, err := e.Copy("src", "dst", opts); err != nil {
		t.Fatal(err)
	}
	if len(snapped) != 1 || snapped[0] != "dst/doomed.md" {
		t.Errorf("snapshot hook saw %v, want [dst/doomed.md]", snapped)
	}
}

func TestCopy_RebasesOutwardLinks(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"docs/a.md":    "[api](../api/index.md) [sib](b.md)\n",
		"docs/b.md":    "b\n",
		"api/index.md": "api\n",
	})
	if _, err := e.Copy("docs", "archive/docs", DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	got := readFile(t, svc, "archive/docs/a.md")
	want := "[api](../../api/index.md) [sib](b.md)\n"
	if got != want {
		t.Errorf("rebased content = %q, want %q", got, want)
	}
	// Plain copy leaves every pre-existing file untouched.
	if got := readFile(t, svc, "docs/a.md"); got != "[api](../api/index.md) [sib](b.md)\n" {
		t.Errorf("source was modified: %q", got)
	}
}

func TestMove_Directory(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"docs/a.md": "[sib](b.md)\n",
		"docs/b.md": "b\n",
		"index.md":  "[a](docs/a.md) [abs](/docs/b.md)\n",
	})
	result, err := e.Move("docs", "archive", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if exists(svc, "docs") {
		t.Error("move left the source behind")
	}
	if !exists(svc, "archive/a.md") || !exists(svc, "archive/b.md") {
		t.Error("moved files missing at destination")
	}
	got := readFile(t, svc, "index.md")
	want := "[a](archive/a.md) [abs](/archive/b.md)\n"
	if got != want {
		t.Errorf("dataset links = %q, want %q", got, want)
	}
	if result.Op != "move" {
		t.Errorf("result op = %q", result.Op)
	}
}

func TestMove_File(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"docs/a.md": "a\n",
		"index.md":  "[a](docs/a.md)\n",
	})
	if _, err := e.Move("docs/a.md", "top.md", DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if exists(svc, "docs/a.md") {
		t.Error("move left the source file behind")
	}
	if got := readFile(t, svc, "index.md"); got != "[a](top.md)\n" {
		t.Errorf("dataset links = %q", got)
	}
}

func TestMove_SkippedSourceRetained(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"docs/x.md":  "new\n",
		"other/x.md": "old\n",
	})
	opts := DefaultOptions()
	opts.FolderBehavior = behavior.NewTable(map[string]behavior.Behavior{"docs": behavior.Skip})

	result, err := e.Move("docs/x.md", "other/x.md", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Skipped()) != 1 {
		t.Fatalf("skipped = %d, want 1", len(result.Skipped()))
	}
	if !exists(svc, "docs/x.md") {
		t.Error("move deleted a source whose copy was skipped")
	}
	if got := readFile(t, svc, "other/x.md"); got != "old\n" {
		t.Errorf("destination = %q", got)
	}
}

func TestMove_FullySkippedLeavesDatasetLinks(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"src/a.md": "kept\n",
		"dst/a.md": "other\n",
		"index.md": "[a](src/a.md)\n",
	})
	opts := DefaultOptions()
	opts.FolderBehavior = behavior.NewTable(map[string]behavior.Behavior{"src": behavior.Skip})

	result, err := e.Move("src", "dst", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Skipped()) != 1 {
		t.Fatalf("skipped = %d, want 1", len(result.Skipped()))
	}
	if !exists(svc, "src/a.md") {
		t.Error("skipped source must survive the move")
	}
	// Nothing relocated, so no link may be redirected.
	if got := readFile(t, svc, "index.md"); got != "[a](src/a.md)\n" {
		t.Errorf("index link = %q, want [a](src/a.md)", got)
	}
	if got := readFile(t, svc, "dst/a.md"); got != "other\n" {
		t.Errorf("destination = %q", got)
	}
}

func TestMove_PartialSkipRewritesOnlyMoved(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"src/a.md":     "moved\n",
		"src/sub/x.md": "kept\n",
		"dst/sub/x.md": "old\n",
		"index.md":     "[a](src/a.md) [x](src/sub/x.md)\n",
	})
	opts := DefaultOptions()
	opts.FolderBehavior = behavior.NewTable(map[string]behavior.Behavior{"src/sub": behavior.Skip})

	if _, err := e.Move("src", "dst", opts); err != nil {
		t.Fatal(err)
	}
	if exists(svc, "src/a.md") {
		t.Error("moved source file should be deleted")
	}
	if !exists(svc, "src/sub/x.md") {
		t.Error("skipped subtree must survive the move")
	}
	// Only the link to relocated content follows; the retained path keeps
	// its original target.
	if got := readFile(t, svc, "index.md"); got != "[a](dst/a.md) [x](src/sub/x.md)\n" {
		t.Errorf("index = %q", got)
	}
	if got := readFile(t, svc, "dst/sub/x.md"); got != "old\n" {
		t.Errorf("skipped destination = %q", got)
	}
}

func TestMove_SnapshotHookBeforeSourceDelete(t *testing.T) {
	e, _ := newTestEngine(t, map[string]string{"docs/a.md": "a\n"})
	var snapped []string
	opts := DefaultOptions()
	opts.Snapshot = func(paths []string) error {
		snapped = append(snapped, paths...)
		return nil
	}
	if _, err := e.Move("docs", "archive", opts); err != nil {
		t.Fatal(err)
	}
	if len(snapped) != 1 || snapped[0] != "docs" {
		t.Errorf("snapshot hook saw %v, want [docs]", snapped)
	}
}

func TestValidate(t *testing.T) {
	mem := fsys.NewMemory()
	if err := mem.MkdirAll(testRoot+"/docs", fsys.DirPerm); err != nil {
		t.Fatal(err)
	}
	if err := mem.WriteFile(testRoot+"/docs/a.md", []byte("a\n"), fsys.FilePerm); err != nil {
		t.Fatal(err)
	}
	counting := fsys.NewCounting(mem)
	e := New(counting, testRoot)

	if err := e.Validate("docs", "backup", "copy"); err != nil {
		t.Errorf("valid call rejected: %v", err)
	}
	if err := e.Validate("docs/missing", "backup", "copy"); !syncerr.IsKind(err, syncerr.KindSourceNotExists) {
		t.Errorf("err = %v, want SOURCE_NOT_EXISTS", err)
	}
	if err := e.Validate("/abs", "backup", "copy"); !syncerr.IsKind(err, syncerr.KindInvalidPath) {
		t.Errorf("err = %v, want INVALID_PATH", err)
	}
	// Validation is read-only: stat calls only, no writes or deletes.
	if n := counting.Calls("write") + counting.Calls("mkdir") + counting.Calls("remove") + counting.Calls("removeall"); n != 0 {
		t.Errorf("validate performed %d write-side calls", n)
	}
}

func TestCopy_ChainedSkillNameMap(t *testing.T) {
	e, svc := newTestEngine(t, map[string]string{
		"docs/a.md": "uses setup here\n",
	})
	opts := DefaultOptions()
	opts.SkillNameMap = map[string]string{"setup": "prefix-setup"}

	if _, err := e.Copy("docs", "out", opts); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, svc, "out/a.md"); got != "uses prefix-setup here\n" {
		t.Errorf("chained rewrite = %q", got)
	}
	// Only the copied files get the chained map applied.
	if got := readFile(t, svc, "docs/a.md"); got != "uses setup here\n" {
		t.Errorf("source was rewritten: %q", got)
	}
}
