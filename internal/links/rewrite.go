package links

import (
	"path"
	"strings"

	"github.com/mdtree/docsync/internal/markdown"
)

// RewriteContent rewrites every Markdown link in content whose resolved
// target falls inside a mapping's original directory, so it resolves inside
// the new directory instead. fileRel is the dataset-relative path of the
// file being rewritten; relative links are resolved against its directory,
// root-absolute links against the dataset root. Link style (relative vs
// root-absolute) and fragments are preserved. Running the rewrite twice is
// a no-op: rewritten targets no longer resolve inside any original dir.
func RewriteContent(fileRel, content string, mappings []PathMapping) (string, bool) {
	if len(mappings) == 0 {
		return content, false
	}
	norm := make([]PathMapping, 0, len(mappings))
	for _, m := range mappings {
		m = m.normalized()
		if m.OriginalDir != "" && m.OriginalDir != m.NewDir {
			norm = append(norm, m)
		}
	}
	if len(norm) == 0 {
		return content, false
	}

	fileDir := path.Dir(normalizeDir(fileRel))

	var b strings.Builder
	last := 0
	changed := false
	for _, ln := range markdown.ExtractLinks(content) {
		newDest, ok := mapTarget(fileDir, ln, norm)
		if !ok || newDest == content[ln.TargetStart:ln.TargetEnd] {
			continue
		}
		b.WriteString(content[last:ln.TargetStart])
		b.WriteString(newDest)
		last = ln.TargetEnd
		changed = true
	}
	if !changed {
		return content, false
	}
	b.WriteString(content[last:])
	return b.String(), true
}

// mapTarget computes the rewritten destination for one link occurrence, or
// ok=false when the link does not resolve inside any mapped directory.
func mapTarget(fileDir string, ln markdown.Link, mappings []PathMapping) (string, bool) {
	absolute := strings.HasPrefix(ln.Target, "/")

	var resolved string
	if absolute {
		resolved = path.Clean(strings.TrimPrefix(ln.Target, "/"))
	} else {
		resolved = path.Clean(path.Join(fileDir, ln.Target))
	}

	for _, m := range mappings {
		if resolved != m.OriginalDir && !strings.HasPrefix(resolved, m.OriginalDir+"/") {
			continue
		}
		// The target stayed behind at its original location.
		if m.retains(resolved) {
			return "", false
		}
		newResolved := m.NewDir + strings.TrimPrefix(resolved, m.OriginalDir)
		if absolute {
			return "/" + newResolved + ln.Fragment, true
		}
		return relSlash(fileDir, newResolved) + ln.Fragment, true
	}
	return "", false
}

// relSlash computes the relative slash-separated path from fromDir to target.
func relSlash(fromDir, target string) string {
	if fromDir == "." || fromDir == "" {
		return target
	}
	from := strings.Split(fromDir, "/")
	to := strings.Split(target, "/")

	common := 0
	for common < len(from) && common < len(to) && from[common] == to[common] {
		common++
	}

	parts := make([]string, 0, len(from)-common+len(to)-common)
	for range from[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}
