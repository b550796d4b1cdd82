// Package links rewrites Markdown references after a sync moves or renames
// directories: filesystem links, identifier-style skill references, and the
// frontmatter name field.
package links

import (
	"sort"
	"strings"

	"github.com/mdtree/docsync/internal/transform"
)

// PathMapping records one directory whose name changed during a sync call,
// together with every concrete file that ended up under the new directory.
// A sync producing N distinct renamed subdirectories produces exactly N
// mappings; file lists are exhaustive and non-overlapping.
//
// A single-file sync produces a degenerate mapping whose OriginalDir and
// NewDir hold the file paths themselves; the rewriters match such a
// mapping exactly, never as a prefix of a longer path.
type PathMapping struct {
	// OriginalDir is the dataset-relative source directory, or the source
	// file path for a single-file sync.
	OriginalDir string
	// NewDir is the dataset-relative destination directory, or the
	// destination file path for a single-file sync.
	NewDir string
	// Files lists dataset-relative files now living under NewDir.
	Files []string
	// Retained lists dataset-relative source paths (files or whole
	// subdirectories) under OriginalDir whose copy was skipped, so the
	// content still lives at its original location. Links resolving to a
	// retained path are left alone.
	Retained []string
}

// normalized returns the mapping with both directories in canonical
// slash-separated, trimmed form.
func (m PathMapping) normalized() PathMapping {
	m.OriginalDir = normalizeDir(m.OriginalDir)
	m.NewDir = normalizeDir(m.NewDir)
	if len(m.Retained) > 0 {
		retained := make([]string, len(m.Retained))
		for i, r := range m.Retained {
			retained[i] = normalizeDir(r)
		}
		m.Retained = retained
	}
	return m
}

// retains reports whether resolved is one of the mapping's retained source
// paths or lives under a retained subdirectory.
func (m PathMapping) retains(resolved string) bool {
	for _, r := range m.Retained {
		if resolved == r || strings.HasPrefix(resolved, r+"/") {
			return true
		}
	}
	return false
}

func normalizeDir(dir string) string {
	return strings.Trim(strings.ReplaceAll(dir, "\\", "/"), "/")
}

// AllFiles returns the union of every mapping's file list, sorted.
func AllFiles(mappings []PathMapping) []string {
	var files []string
	for _, m := range mappings {
		files = append(files, m.Files...)
	}
	sort.Strings(files)
	return files
}

// BuildSkillNameMap derives old identifier → new identifier pairs from the
// mappings whose transformed leaf name differs from the original leaf.
// The result is empty when no rename occurred, which callers use as the
// signal to skip the skill-reference rewrite pass entirely.
func BuildSkillNameMap(mappings []PathMapping) map[string]string {
	nameMap := make(map[string]string)
	for _, m := range mappings {
		m = m.normalized()
		oldLeaf := transform.Leaf(m.OriginalDir)
		newLeaf := transform.Leaf(m.NewDir)
		if oldLeaf != "" && newLeaf != "" && oldLeaf != newLeaf {
			nameMap[oldLeaf] = newLeaf
		}
	}
	return nameMap
}
