// Package markdown extracts link occurrences from Markdown content.
// It is a pure scanner: no I/O, no mutation. Only enough Markdown is
// understood to locate inline link targets; syntax is not validated.
package markdown

import "strings"

// Link is a single inline link or image occurrence.
type Link struct {
	// Text is the bracketed display text.
	Text string
	// Target is the path portion of the destination, without fragment.
	Target string
	// Fragment is the anchor suffix including the leading '#', or "".
	Fragment string
	// TargetStart and TargetEnd are byte offsets of the full destination
	// (path plus fragment) within the scanned content.
	TargetStart int
	TargetEnd   int
	// Image is true for ![alt](target) occurrences.
	Image bool
}

// IsExternal reports whether a link destination points outside the dataset:
// URLs with a scheme, mailto links, and pure-fragment anchors.
func IsExternal(target string) bool {
	if target == "" {
		return true
	}
	if strings.Contains(target, "://") {
		return true
	}
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:")
}

// ExtractLinks scans content for inline [text](target) and ![alt](target)
// occurrences. Fenced code blocks and inline code spans are skipped, in the
// same spirit as link rewriters for Markdown vaults. External targets and
// pure-fragment anchors are filtered out.
func ExtractLinks(content string) []Link {
	var links []Link

	inFence := false
	offset := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			offset += len(line)
			continue
		}
		if !inFence {
			links = append(links, scanLine(line, offset)...)
		}
		offset += len(line)
	}
	return links
}

// scanLine extracts links from a single line, honoring inline code spans.
func scanLine(line string, base int) []Link {
	var links []Link
	i := 0
	for i < len(line) {
		if line[i] == '`' {
			// Skip the inline code span verbatim.
			end := strings.IndexByte(line[i+1:], '`')
			if end < 0 {
				return links
			}
			i += end + 2
			continue
		}
		if line[i] != '[' && !(line[i] == '!' && i+1 < len(line) && line[i+1] == '[') {
			i++
			continue
		}

		image := line[i] == '!'
		open := i
		if image {
			open++
		}
		closeBracket := strings.Index(line[open:], "](")
		if closeBracket < 0 {
			i++
			continue
		}
		textEnd := open + closeBracket
		destStart := textEnd + 2
		destEnd := strings.IndexByte(line[destStart:], ')')
		if destEnd < 0 {
			i++
			continue
		}
		destEnd += destStart

		dest := line[destStart:destEnd]
		target, fragment := splitFragment(dest)
		if !IsExternal(target) && target != "" {
			links = append(links, Link{
				Text:        line[open+1 : textEnd],
				Target:      target,
				Fragment:    fragment,
				TargetStart: base + destStart,
				TargetEnd:   base + destEnd,
				Image:       image,
			})
		}
		i = destEnd + 1
	}
	return links
}

func splitFragment(dest string) (target, fragment string) {
	if idx := strings.IndexByte(dest, '#'); idx >= 0 {
		return dest[:idx], dest[idx:]
	}
	return dest, ""
}
