// Package transform implements the pure naming transforms applied to
// destination subdirectories (flatten, prefix) and the collision detector
// that guards a whole transform operation before any write happens.
package transform

import (
	"sort"
	"strings"
)

// Options configures a naming transform.
type Options struct {
	// Flatten collapses a multi-segment relative directory into a single
	// path segment named after its leaf.
	Flatten bool
	// Prefix is prepended literally to the (possibly flattened) name.
	Prefix string
}

// Active reports whether the options request any transform at all.
func (o Options) Active() bool {
	return o.Flatten || o.Prefix != ""
}

// Path maps a relative directory path to the directory name used at the
// destination. Flatten reduces "guides/setup" to "setup"; prefix then
// prepends literally, so flatten+prefix yields "prefix-setup". The function
// is pure: the same input and options always produce the same result.
// "." (no subdirectory) is never transformed.
func Path(relDir string, opts Options) string {
	relDir = strings.Trim(strings.ReplaceAll(relDir, "\\", "/"), "/")
	if relDir == "" || relDir == "." {
		return relDir
	}

	out := relDir
	if opts.Flatten {
		segs := strings.Split(out, "/")
		out = segs[len(segs)-1]
	}
	if opts.Prefix != "" {
		if opts.Flatten || !strings.Contains(out, "/") {
			out = opts.Prefix + out
		} else {
			// Without flattening only the leading segment gets the prefix,
			// keeping nested structure intact.
			segs := strings.Split(out, "/")
			segs[0] = opts.Prefix + segs[0]
			out = strings.Join(segs, "/")
		}
	}
	return out
}

// Leaf returns the leaf segment of a relative directory path.
func Leaf(relDir string) string {
	relDir = strings.Trim(strings.ReplaceAll(relDir, "\\", "/"), "/")
	if relDir == "" || relDir == "." {
		return relDir
	}
	segs := strings.Split(relDir, "/")
	return segs[len(segs)-1]
}

// Collision describes a transformed name produced by more than one distinct
// original directory.
type Collision struct {
	// Name is the colliding transformed name.
	Name string
	// Sources are the original directories that produce it, sorted.
	Sources []string
}

// DetectCollisions transforms every candidate directory and returns each
// transformed name claimed by more than one distinct original directory.
// It must run over the complete candidate set before any file is written;
// the result is sorted by name so reports are deterministic.
func DetectCollisions(relDirs []string, opts Options) []Collision {
	byName := make(map[string][]string)
	seen := make(map[string]bool)
	for _, dir := range relDirs {
		norm := strings.Trim(strings.ReplaceAll(dir, "\\", "/"), "/")
		if norm == "" || norm == "." || seen[norm] {
			continue
		}
		seen[norm] = true
		name := Path(norm, opts)
		byName[name] = append(byName[name], norm)
	}

	var collisions []Collision
	for name, sources := range byName {
		if len(sources) > 1 {
			sort.Strings(sources)
			collisions = append(collisions, Collision{Name: name, Sources: sources})
		}
	}
	sort.Slice(collisions, func(i, j int) bool { return collisions[i].Name < collisions[j].Name })
	return collisions
}

// CollisionNames flattens collisions into the offending transformed names.
func CollisionNames(collisions []Collision) []string {
	names := make([]string, 0, len(collisions))
	for _, c := range collisions {
		names = append(names, c.Name)
	}
	return names
}
