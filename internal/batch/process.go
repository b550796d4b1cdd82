package batch

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/mdtree/docsync/internal/fsys"
	"github.com/mdtree/docsync/internal/links"
	"github.com/mdtree/docsync/internal/logging"
)

// Options configures a batch pass.
type Options struct {
	// Service is the filesystem the pass reads and writes through.
	Service fsys.Service
	// DatasetRoot anchors the dataset-relative file paths.
	DatasetRoot string
	// Semaphore bounds concurrent file operations. Required.
	Semaphore *Semaphore
	// Report, when set, is invoked once per completed file (success or
	// failure). Used to drive progress display.
	Report func(file string)
}

// rewriteFunc maps a file's dataset-relative path and content to rewritten
// content. The shared inputs it closes over must be read-only: files in a
// batch complete in no particular order.
type rewriteFunc func(rel, content string) (string, bool)

// ProcessFilesWithLinkReplacements rewrites Markdown links in the given
// dataset-relative files according to mappings. Files are processed
// concurrently under the semaphore; one file's failure does not stop its
// siblings, and the aggregate error is returned after the batch drains.
func ProcessFilesWithLinkReplacements(opts Options, files []string, mappings []links.PathMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	return runEach(opts, files, func(rel, content string) (string, bool) {
		return links.RewriteContent(rel, content, mappings)
	})
}

// ProcessDirectoryWithLinkReplacements walks the dataset-relative directory
// and applies ProcessFilesWithLinkReplacements to every Markdown file in it.
func ProcessDirectoryWithLinkReplacements(opts Options, dir string, mappings []links.PathMapping) error {
	files, err := markdownFilesUnder(opts, dir)
	if err != nil {
		return err
	}
	return ProcessFilesWithLinkReplacements(opts, files, mappings)
}

// ProcessSkillReferences rewrites identifier-style skill references in the
// given files. A nil or empty name map skips the pass entirely.
func ProcessSkillReferences(opts Options, files []string, nameMap map[string]string) error {
	if len(nameMap) == 0 {
		return nil
	}
	return runEach(opts, files, func(_, content string) (string, bool) {
		return links.RewriteSkillReferences(content, nameMap)
	})
}

// ProcessPathSubstitution rewrites links so targets resolving under the old
// directory prefix resolve under the new one, across the given files.
func ProcessPathSubstitution(opts Options, files []string, oldPrefix, newPrefix string) error {
	if oldPrefix == "" || oldPrefix == newPrefix {
		return nil
	}
	mapping := []links.PathMapping{{OriginalDir: oldPrefix, NewDir: newPrefix}}
	return runEach(opts, files, func(rel, content string) (string, bool) {
		return links.RewriteContent(rel, content, mapping)
	})
}

// ProcessNormalization canonicalizes link targets in the given files
// (separator and redundant-segment cleanup).
func ProcessNormalization(opts Options, files []string) error {
	return runEach(opts, files, func(_, content string) (string, bool) {
		return links.NormalizeContent(content)
	})
}

// runEach runs fn over every Markdown file in the batch, one goroutine per
// file gated by the semaphore. The permit is held for the file's whole
// read-rewrite-write span and released on success or failure. Errors are
// collected per file and joined after the batch drains.
func runEach(opts Options, files []string, fn rewriteFunc) error {
	if opts.Semaphore == nil {
		return errors.New("batch: semaphore is required")
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, rel := range files {
		if !IsMarkdown(rel) {
			continue
		}
		wg.Add(1)
		go func(rel string) {
			defer wg.Done()
			opts.Semaphore.Acquire()
			defer opts.Semaphore.Release()
			if opts.Report != nil {
				defer opts.Report(rel)
			}

			if err := rewriteOne(opts, rel, fn); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(rel)
	}
	wg.Wait()

	if len(errs) > 0 {
		logging.Warn("batch pass finished with failures", logging.Count(len(errs)))
		return errors.Join(errs...)
	}
	return nil
}

func rewriteOne(opts Options, rel string, fn rewriteFunc) error {
	abs := path.Join(opts.DatasetRoot, rel)
	info, err := opts.Service.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", rel, err)
	}
	data, err := opts.Service.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", rel, err)
	}

	out, changed := fn(rel, string(data))
	if !changed {
		return nil
	}
	if err := opts.Service.WriteFile(abs, []byte(out), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %q: %w", rel, err)
	}
	logging.Debug("rewrote file", logging.Path(rel))
	return nil
}

// markdownFilesUnder lists Markdown files below the dataset-relative dir,
// returned as dataset-relative paths.
func markdownFilesUnder(opts Options, dir string) ([]string, error) {
	abs := path.Join(opts.DatasetRoot, dir)
	under, err := fsys.WalkFiles(opts.Service, abs)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %q: %w", dir, err)
	}
	files := make([]string, 0, len(under))
	for _, f := range under {
		if IsMarkdown(f) {
			files = append(files, path.Join(dir, f))
		}
	}
	return files, nil
}

// IsMarkdown reports whether the path names a Markdown file.
func IsMarkdown(p string) bool {
	return strings.EqualFold(path.Ext(p), ".md")
}
