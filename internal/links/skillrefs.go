package links

import "strings"

// RewriteSkillReferences rewrites identifier-style references in Markdown
// content according to nameMap (old identifier → new identifier). This is a
// secondary pass independent of filesystem links: the reference syntax names
// a skill directory, not a path, and only whole identifier tokens are
// rewritten. A nil or empty map is a no-op.
func RewriteSkillReferences(content string, nameMap map[string]string) (string, bool) {
	if len(nameMap) == 0 {
		return content, false
	}

	var b strings.Builder
	b.Grow(len(content))
	changed := false

	i := 0
	for i < len(content) {
		if !isIdentByte(content[i]) {
			b.WriteByte(content[i])
			i++
			continue
		}
		j := i
		for j < len(content) && isIdentByte(content[j]) {
			j++
		}
		token := content[i:j]
		if replacement, ok := nameMap[token]; ok && replacement != token {
			b.WriteString(replacement)
			changed = true
		} else {
			b.WriteString(token)
		}
		i = j
	}

	if !changed {
		return content, false
	}
	return b.String(), true
}

// ContainsSkillReference reports whether content mentions any identifier in
// nameMap as a whole token. Used to skip files that cannot change.
func ContainsSkillReference(content string, nameMap map[string]string) bool {
	if len(nameMap) == 0 {
		return false
	}
	i := 0
	for i < len(content) {
		if !isIdentByte(content[i]) {
			i++
			continue
		}
		j := i
		for j < len(content) && isIdentByte(content[j]) {
			j++
		}
		if _, ok := nameMap[content[i:j]]; ok {
			return true
		}
		i = j
	}
	return false
}

// identifier tokens are letters, digits, underscore and hyphen.
func isIdentByte(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
