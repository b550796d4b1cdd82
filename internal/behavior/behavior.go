// Package behavior defines the conflict-resolution policies applied when a
// sync destination already contains content, and the per-folder override
// table that resolves the effective policy for a path.
package behavior

import (
	"path"
	"strings"
)

// Behavior defines what happens when destination content already exists.
type Behavior string

const (
	// Unresolved is the zero value; resolution falls back to the call default.
	Unresolved Behavior = ""

	// Overwrite replaces destination entries unconditionally.
	Overwrite Behavior = "overwrite"

	// Skip leaves existing destination content untouched and does not
	// descend into an already-skipped directory.
	Skip Behavior = "skip"

	// Mirror makes the destination subtree an exact copy of the source,
	// deleting destination entries that have no source counterpart.
	Mirror Behavior = "mirror"
)

// IsValid returns true if the behavior is recognized.
func (b Behavior) IsValid() bool {
	switch b {
	case Overwrite, Skip, Mirror:
		return true
	default:
		return false
	}
}

// All returns every supported behavior.
func All() []Behavior {
	return []Behavior{Overwrite, Skip, Mirror}
}

// String returns the string representation of the behavior.
func (b Behavior) String() string {
	return string(b)
}

// Description returns a human-readable description of the behavior.
func (b Behavior) Description() string {
	switch b {
	case Overwrite:
		return "Replace destination entries unconditionally"
	case Skip:
		return "Leave existing destination content untouched"
	case Mirror:
		return "Make the destination an exact mirror, deleting extraneous entries"
	default:
		return "Unknown behavior"
	}
}

// Parse converts a string into a Behavior, accepting any case.
func Parse(s string) (Behavior, bool) {
	b := Behavior(strings.ToLower(strings.TrimSpace(s)))
	if b.IsValid() {
		return b, true
	}
	return Unresolved, false
}

// NormalizeKey canonicalizes a relative-path key for table lookups:
// backslashes become forward slashes, redundant segments are cleaned, and
// case is folded so platform separator/case differences cannot cause misses.
func NormalizeKey(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	key = path.Clean(strings.ToLower(key))
	key = strings.Trim(key, "/")
	if key == "." {
		return ""
	}
	return key
}

// Table maps normalized relative-path keys to folder-specific behaviors.
type Table struct {
	entries map[string]Behavior
}

// NewTable builds a Table from raw key → behavior pairs, normalizing keys.
func NewTable(overrides map[string]Behavior) *Table {
	t := &Table{entries: make(map[string]Behavior, len(overrides))}
	for key, b := range overrides {
		t.entries[NormalizeKey(key)] = b
	}
	return t
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Resolve returns the effective behavior for the given relative path.
// The path's own normalized key wins; otherwise the nearest ancestor with an
// entry wins (most-specific match); otherwise def applies. Resolution is pure
// and deterministic for identical inputs.
func (t *Table) Resolve(relPath string, def Behavior) Behavior {
	if t == nil || len(t.entries) == 0 {
		return def
	}
	key := NormalizeKey(relPath)
	for key != "" {
		if b, ok := t.entries[key]; ok && b.IsValid() {
			return b
		}
		idx := strings.LastIndex(key, "/")
		if idx < 0 {
			break
		}
		key = key[:idx]
	}
	return def
}
