// Package syncer orchestrates copy and move operations inside a dataset
// root: path safety checks, per-folder behavior resolution, naming
// transforms with collision detection, and the link-rewrite passes that keep
// Markdown references valid after the tree changes shape.
package syncer

import (
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/mdtree/docsync/internal/batch"
	"github.com/mdtree/docsync/internal/behavior"
	"github.com/mdtree/docsync/internal/fsys"
	"github.com/mdtree/docsync/internal/links"
	"github.com/mdtree/docsync/internal/logging"
	"github.com/mdtree/docsync/internal/safety"
	"github.com/mdtree/docsync/internal/syncerr"
	"github.com/mdtree/docsync/internal/transform"
)

// Options configures a single sync call.
type Options struct {
	// DefaultBehavior applies when no folder-behavior entry matches
	// (default: overwrite).
	DefaultBehavior behavior.Behavior

	// FolderBehavior maps relative-path keys to per-folder behaviors.
	FolderBehavior *behavior.Table

	// Transform requests flatten/prefix renaming of destination
	// subdirectories.
	Transform transform.Options

	// Concurrency bounds the parallel link-rewrite passes (default: 4).
	Concurrency int

	// SkillNameMap carries renames from an earlier sync call; the copied
	// files get the same identifier rewrite applied.
	SkillNameMap map[string]string

	// Snapshot, when set, is invoked with the dataset-relative paths about
	// to be deleted, before any deletion happens. Used for backups.
	Snapshot func(relPaths []string) error

	// Report, when set, is invoked once per file completed by a rewrite
	// pass. Used to drive progress display.
	Report func(file string)
}

// DefaultOptions returns the default sync options.
func DefaultOptions() Options {
	return Options{
		DefaultBehavior: behavior.Overwrite,
		Concurrency:     4,
	}
}

// Engine performs sync calls against one dataset root through a filesystem
// service. Safe for sequential reuse across calls; a single dataset root
// must not be synced by two engines at once.
type Engine struct {
	svc  fsys.Service
	root string
}

// New creates an Engine for the given dataset root.
func New(svc fsys.Service, datasetRoot string) *Engine {
	return &Engine{svc: svc, root: datasetRoot}
}

// Copy copies source to target inside the dataset root, then rewrites
// Markdown references affected by the copy.
func (e *Engine) Copy(source, target string, opts Options) (*Result, error) {
	return e.run(safety.OpCopy, source, target, opts)
}

// Move copies source to target, deletes the source on success, then
// rewrites every Markdown reference in the dataset that pointed into the
// moved region.
func (e *Engine) Move(source, target string, opts Options) (*Result, error) {
	return e.run(safety.OpMove, source, target, opts)
}

// CopyTransformed copies a directory while renaming its subdirectories
// through the given transform. Shorthand for Copy with Options.Transform
// set, for callers that always flatten or prefix.
func (e *Engine) CopyTransformed(source, target string, t transform.Options, opts Options) (*Result, error) {
	opts.Transform = t
	return e.run(safety.OpCopy, source, target, opts)
}

// Validate runs the pre-flight checks for a sync call without performing
// any write: relative-only inputs, sandboxing, self-containment, and source
// classification.
func (e *Engine) Validate(source, target string, op safety.Op) error {
	srcAbs, dstAbs, err := safety.Resolve(e.root, source, target)
	if err != nil {
		return err
	}
	if err := safety.ValidateSubfolderOperation(srcAbs, dstAbs, op); err != nil {
		return err
	}
	info, err := e.svc.Stat(srcAbs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return syncerr.SourceNotExists(source)
		}
		return syncerr.IO("stat", source, err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return syncerr.InvalidSourceType(source)
	}
	return nil
}

func (e *Engine) run(op safety.Op, source, target string, opts Options) (*Result, error) {
	defer logging.Timer(string(op))()

	if opts.DefaultBehavior == behavior.Unresolved {
		opts.DefaultBehavior = behavior.Overwrite
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultOptions().Concurrency
	}

	logging.Debug("starting sync call",
		logging.Operation(string(op)),
		logging.Source(source),
		logging.Target(target),
		logging.Behavior(string(opts.DefaultBehavior)),
		slog.Bool("transform", opts.Transform.Active()),
	)

	srcAbs, dstAbs, err := safety.Resolve(e.root, source, target)
	if err != nil {
		return nil, err
	}
	if err := safety.ValidateSubfolderOperation(srcAbs, dstAbs, op); err != nil {
		return nil, err
	}

	srcRel := normRel(source)
	dstRel := normRel(target)

	c := &call{
		e:    e,
		op:   op,
		opts: opts,
		result: &Result{
			Source: source,
			Target: target,
			Op:     op,
			Files:  make([]FileResult, 0),
		},
	}

	info, err := e.svc.Stat(e.abs(srcRel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.result, syncerr.SourceNotExists(source)
		}
		return c.result, syncerr.IO("stat", source, err)
	}

	switch {
	case info.IsDir():
		if opts.Transform.Active() {
			err = c.copyTransform(srcRel, dstRel)
		} else {
			err = c.copyDir(srcRel, dstRel)
		}
	case info.Mode().IsRegular():
		err = c.copyFile(srcRel, dstRel)
	default:
		return c.result, syncerr.InvalidSourceType(source)
	}
	if err != nil {
		return c.result, err
	}

	if err := c.rebasePass(); err != nil {
		return c.result, err
	}

	if op == safety.OpMove {
		if err := c.deleteSource(srcRel); err != nil {
			return c.result, err
		}
	}

	if op == safety.OpMove || opts.Transform.Active() {
		if err := c.datasetRewrite(); err != nil {
			return c.result, err
		}
	}

	if err := c.referencePasses(); err != nil {
		return c.result, err
	}

	logging.Debug("sync call completed",
		logging.Operation(string(op)),
		logging.Count(c.result.TotalProcessed()),
	)
	return c.result, nil
}

// abs joins a dataset-relative path against the root.
func (e *Engine) abs(rel string) string {
	if rel == "" || rel == "." {
		return e.root
	}
	return path.Join(e.root, rel)
}

// normRel canonicalizes a caller-supplied relative path to slash form.
func normRel(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	return strings.Trim(p, "/")
}

// call carries the mutable state of one sync call.
type call struct {
	e      *Engine
	op     safety.Op
	opts   Options
	result *Result

	// pairs records every copied file as (old, new) dataset-relative paths.
	pairs []filePair

	// skippedSrc records source paths whose copy was skipped; a move must
	// not delete them.
	skippedSrc []string

	// mappings records the directory renames this call produced, consumed
	// by the rewrite passes.
	mappings []links.PathMapping
}

type filePair struct {
	src string
	dst string
}

func (c *call) behaviorFor(srcRel string) behavior.Behavior {
	return c.opts.FolderBehavior.Resolve(srcRel, c.opts.DefaultBehavior)
}

func (c *call) record(relPath string, action Action, msg string) {
	c.result.Files = append(c.result.Files, FileResult{Path: relPath, Action: action, Message: msg})
}

func (c *call) recordFailed(relPath string, err error) {
	c.result.Files = append(c.result.Files, FileResult{Path: relPath, Action: ActionFailed, Error: err})
}

// newFiles returns the dataset-relative destination paths of every copied
// file, in copy order.
func (c *call) newFiles() []string {
	files := make([]string, 0, len(c.pairs))
	for _, p := range c.pairs {
		files = append(files, p.dst)
	}
	return files
}

// copyFile handles the single-file path of a sync call. When the target is
// an existing directory the file keeps its base name underneath it.
func (c *call) copyFile(srcRel, dstRel string) error {
	svc := c.e.svc

	dst := dstRel
	if fsys.IsDir(svc, c.e.abs(dstRel)) {
		dst = path.Join(dstRel, path.Base(srcRel))
	}
	if dir := path.Dir(dst); dir != "." {
		if err := svc.MkdirAll(c.e.abs(dir), fsys.DirPerm); err != nil {
			return syncerr.IO("mkdir", dir, err)
		}
	}

	before := len(c.pairs)
	if err := c.copyOne(srcRel, dst); err != nil {
		return err
	}
	if len(c.pairs) > before {
		// Degenerate single-file mapping: both sides name the file itself.
		c.mappings = append(c.mappings, links.PathMapping{
			OriginalDir: srcRel,
			NewDir:      dst,
			Files:       []string{dst},
		})
	}
	return nil
}

// copyOne copies one file according to the resolved behavior and records
// the outcome.
func (c *call) copyOne(srcRel, dstRel string) error {
	svc := c.e.svc
	exists := fsys.Exists(svc, c.e.abs(dstRel))
	b := c.behaviorFor(srcRel)

	if exists && b == behavior.Skip {
		c.record(dstRel, ActionSkipped, "destination exists")
		c.skippedSrc = append(c.skippedSrc, srcRel)
		logging.Debug("skipped existing file", logging.Path(dstRel))
		return nil
	}

	if err := fsys.CopyFile(svc, c.e.abs(srcRel), c.e.abs(dstRel)); err != nil {
		err = syncerr.IO("copy", dstRel, err)
		c.recordFailed(dstRel, err)
		return err
	}
	if exists {
		c.record(dstRel, ActionUpdated, "")
	} else {
		c.record(dstRel, ActionCreated, "")
	}
	c.pairs = append(c.pairs, filePair{src: srcRel, dst: dstRel})
	return nil
}

// deleteSource removes the source of a move after the copy committed.
// Sources whose copy was skipped are retained.
func (c *call) deleteSource(srcRel string) error {
	svc := c.e.svc
	abs := c.e.abs(srcRel)

	if c.opts.Snapshot != nil {
		if err := c.opts.Snapshot([]string{srcRel}); err != nil {
			return syncerr.IO("backup", srcRel, err)
		}
	}

	if !fsys.IsDir(svc, abs) {
		if len(c.skippedSrc) > 0 {
			return nil
		}
		if err := svc.Remove(abs); err != nil {
			return syncerr.IO("remove", srcRel, err)
		}
		return nil
	}

	if len(c.skippedSrc) == 0 {
		if err := svc.RemoveAll(abs); err != nil {
			return syncerr.IO("remove", srcRel, err)
		}
		return nil
	}

	// Partial delete: remove only what was copied, then prune empty dirs
	// deepest-first.
	for _, p := range c.pairs {
		if err := svc.Remove(c.e.abs(p.src)); err != nil {
			return syncerr.IO("remove", p.src, err)
		}
	}
	dirs, err := fsys.WalkDirs(svc, abs)
	if err != nil {
		return syncerr.IO("readdir", srcRel, err)
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		rel := path.Join(srcRel, dirs[i])
		entries, err := svc.ReadDir(c.e.abs(rel))
		if err != nil {
			return syncerr.IO("readdir", rel, err)
		}
		if len(entries) == 0 {
			if err := svc.Remove(c.e.abs(rel)); err != nil {
				return syncerr.IO("remove", rel, err)
			}
		}
	}
	entries, err := svc.ReadDir(abs)
	if err != nil {
		return syncerr.IO("readdir", srcRel, err)
	}
	if len(entries) == 0 {
		if err := svc.Remove(abs); err != nil {
			return syncerr.IO("remove", srcRel, err)
		}
	}
	return nil
}

// batchOptions builds the shared options for a parallel rewrite pass.
func (c *call) batchOptions() batch.Options {
	return batch.Options{
		Service:     c.e.svc,
		DatasetRoot: c.e.root,
		Semaphore:   batch.NewSemaphore(c.opts.Concurrency),
		Report:      c.opts.Report,
	}
}

// datasetMarkdown lists every Markdown file in the dataset, excluding the
// engine's own bookkeeping directory.
func (c *call) datasetMarkdown() ([]string, error) {
	all, err := fsys.WalkFiles(c.e.svc, c.e.root)
	if err != nil {
		return nil, syncerr.IO("readdir", ".", err)
	}
	files := make([]string, 0, len(all))
	for _, f := range all {
		if strings.HasPrefix(f, internalDir+"/") {
			continue
		}
		if batch.IsMarkdown(f) {
			files = append(files, f)
		}
	}
	return files, nil
}

// internalDir holds engine bookkeeping (backups); never rewritten or synced.
const internalDir = ".docsync"
