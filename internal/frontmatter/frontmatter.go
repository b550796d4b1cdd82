// Package frontmatter handles the structured metadata block at the top of
// Markdown files: YAML between --- delimiters or TOML between +++ delimiters.
package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Result contains the split frontmatter and remaining content.
type Result struct {
	// Frontmatter contains the raw metadata bytes, without delimiters.
	Frontmatter []byte
	// Body contains the remaining content after the block.
	Body string
	// Has indicates whether a frontmatter block was found.
	Has bool
	// Delim is the delimiter that opened the block ("---" or "+++").
	Delim string
}

// Split extracts the leading metadata block from content. Both YAML (---)
// and TOML (+++) delimiters are recognized; anything else is returned as
// plain body.
func Split(content []byte) Result {
	for _, delim := range []string{"---", "+++"} {
		if bytes.HasPrefix(content, []byte(delim+"\n")) || bytes.HasPrefix(content, []byte(delim+"\r\n")) {
			return extract(content, delim)
		}
	}
	return Result{Body: string(content)}
}

func extract(content []byte, delim string) Result {
	remaining := content[len(delim):]
	if bytes.HasPrefix(remaining, []byte("\r\n")) {
		remaining = remaining[2:]
	} else {
		remaining = remaining[1:]
	}

	var fm []byte
	var bodyStart int
	found := false

	if bytes.HasPrefix(remaining, []byte(delim)) {
		// Empty block.
		fm = []byte{}
		bodyStart = len(delim)
		found = true
	} else {
		for _, nl := range []string{"\n", "\r\n"} {
			closing := []byte(nl + delim)
			if idx := bytes.Index(remaining, closing); idx != -1 {
				fm = remaining[:idx]
				bodyStart = idx + len(closing)
				found = true
				break
			}
		}
	}
	if !found {
		return Result{Body: string(content)}
	}

	fm = bytes.ReplaceAll(fm, []byte("\r\n"), []byte("\n"))

	if bodyStart < len(remaining) {
		if bytes.HasPrefix(remaining[bodyStart:], []byte("\r\n")) {
			bodyStart += 2
		} else if bytes.HasPrefix(remaining[bodyStart:], []byte("\n")) {
			bodyStart++
		}
	}
	var body string
	if bodyStart < len(remaining) {
		body = string(remaining[bodyStart:])
	}

	return Result{Frontmatter: fm, Body: body, Has: true, Delim: delim}
}

// Assemble reconstructs file content from a split result.
func Assemble(r Result) []byte {
	if !r.Has {
		return []byte(r.Body)
	}
	var b bytes.Buffer
	b.WriteString(r.Delim)
	b.WriteString("\n")
	b.Write(r.Frontmatter)
	if len(r.Frontmatter) > 0 && !bytes.HasSuffix(r.Frontmatter, []byte("\n")) {
		b.WriteString("\n")
	}
	b.WriteString(r.Delim)
	b.WriteString("\n")
	b.WriteString(r.Body)
	return b.Bytes()
}

var (
	yamlNameLine = regexp.MustCompile(`(?m)^(name\s*:\s*)(.+)$`)
	tomlNameLine = regexp.MustCompile(`(?m)^(name\s*=\s*)(.+)$`)
)

// SyncName rewrites the frontmatter "name" field from oldName to newName.
// The block is parsed first so only a field that really names the old
// directory is touched; the rewrite itself is line-level so the rest of the
// block keeps its original formatting. changed is false when the content is
// already up to date, so callers can avoid gratuitous writes.
func SyncName(content []byte, oldName, newName string) (out []byte, changed bool) {
	if oldName == "" || oldName == newName {
		return content, false
	}
	r := Split(content)
	if !r.Has || len(r.Frontmatter) == 0 {
		return content, false
	}

	current, ok := nameField(r)
	if !ok || current != oldName {
		return content, false
	}

	line := yamlNameLine
	replacement := fmt.Sprintf("${1}%s", newName)
	if r.Delim == "+++" {
		line = tomlNameLine
		replacement = fmt.Sprintf("${1}%q", newName)
	}
	rewritten := line.ReplaceAll(r.Frontmatter, []byte(replacement))
	if bytes.Equal(rewritten, r.Frontmatter) {
		return content, false
	}
	r.Frontmatter = rewritten
	return Assemble(r), true
}

// nameField parses the block and returns its "name" field, if any.
func nameField(r Result) (string, bool) {
	switch r.Delim {
	case "+++":
		var meta map[string]any
		if err := toml.Unmarshal(r.Frontmatter, &meta); err != nil {
			return "", false
		}
		name, ok := meta["name"].(string)
		return name, ok
	default:
		var meta map[string]any
		if err := yaml.Unmarshal(r.Frontmatter, &meta); err != nil {
			return "", false
		}
		name, ok := meta["name"].(string)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(name), true
	}
}
