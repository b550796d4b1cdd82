package links

import (
	"path"
	"strings"

	"github.com/mdtree/docsync/internal/markdown"
)

// NormalizeContent canonicalizes every local Markdown link target in
// content: backslashes become forward slashes, redundant "./" and doubled
// separators are removed. Fragments and external links are untouched.
func NormalizeContent(content string) (string, bool) {
	var b strings.Builder
	last := 0
	changed := false
	for _, ln := range markdown.ExtractLinks(content) {
		norm := normalizeTarget(ln.Target)
		if norm == ln.Target {
			continue
		}
		b.WriteString(content[last:ln.TargetStart])
		b.WriteString(norm + ln.Fragment)
		last = ln.TargetEnd
		changed = true
	}
	if !changed {
		return content, false
	}
	b.WriteString(content[last:])
	return b.String(), true
}

func normalizeTarget(target string) string {
	t := strings.ReplaceAll(target, "\\", "/")
	if strings.HasPrefix(t, "/") {
		return "/" + path.Clean(strings.TrimLeft(t, "/"))
	}
	return path.Clean(t)
}
