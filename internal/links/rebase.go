package links

import (
	"path"
	"strings"

	"github.com/mdtree/docsync/internal/markdown"
)

// RebaseContent adjusts the links of a file that moved from oldRel to
// newRel, both dataset-relative. Each relative link is resolved against the
// file's old location; targets inside a mapped region follow the mapping,
// targets outside keep their resolved location, and the link is re-expressed
// relative to the file's new directory. Root-absolute links keep their style
// and only change when they resolve into a mapped region. Links between two
// files that moved together therefore come out unchanged.
func RebaseContent(oldRel, newRel, content string, mappings []PathMapping) (string, bool) {
	oldDir := path.Dir(normalizeDir(oldRel))
	newDir := path.Dir(normalizeDir(newRel))
	if oldDir == newDir && len(mappings) == 0 {
		return content, false
	}

	norm := make([]PathMapping, 0, len(mappings))
	for _, m := range mappings {
		m = m.normalized()
		if m.OriginalDir != "" && m.OriginalDir != m.NewDir {
			norm = append(norm, m)
		}
	}

	var b strings.Builder
	last := 0
	changed := false
	for _, ln := range markdown.ExtractLinks(content) {
		newDest, ok := rebaseTarget(oldDir, newDir, ln, norm)
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

func rebaseTarget(oldDir, newDir string, ln markdown.Link, mappings []PathMapping) (string, bool) {
	absolute := strings.HasPrefix(ln.Target, "/")

	var resolved string
	if absolute {
		resolved = path.Clean(strings.TrimLeft(ln.Target, "/"))
	} else {
		resolved = path.Clean(path.Join(oldDir, ln.Target))
	}

	mapped := resolved
	for _, m := range mappings {
		if resolved == m.OriginalDir || strings.HasPrefix(resolved, m.OriginalDir+"/") {
			// A retained target stayed put; the link re-relativizes to
			// its original location instead of following the mapping.
			if m.retains(resolved) {
				break
			}
			mapped = m.NewDir + strings.TrimPrefix(resolved, m.OriginalDir)
			break
		}
	}

	if absolute {
		if mapped == resolved {
			return "", false
		}
		return "/" + mapped + ln.Fragment, true
	}
	return relSlash(newDir, mapped) + ln.Fragment, true
}
