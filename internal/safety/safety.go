// Package safety implements the pre-flight path checks for sync calls:
// relative-only inputs, dataset-root sandboxing, and subfolder
// self-containment. Every check here runs before any write; a failure
// guarantees the filesystem was not touched.
package safety

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/mdtree/docsync/internal/syncerr"
)

// Op distinguishes copy from move for self-containment reporting.
type Op string

const (
	// OpCopy is a copy operation.
	OpCopy Op = "copy"
	// OpMove is a move operation.
	OpMove Op = "move"
)

// ValidateRelative rejects absolute source or target paths before any I/O.
func ValidateRelative(source, target string) error {
	if filepath.IsAbs(source) || filepath.IsAbs(target) ||
		path.IsAbs(filepath.ToSlash(source)) || path.IsAbs(filepath.ToSlash(target)) {
		return syncerr.InvalidPath(source, target)
	}
	if source == "" || target == "" {
		return syncerr.InvalidPath(source, target)
	}
	return nil
}

// ResolveWithinRoot joins rel against root and verifies the result stays
// inside root. ok is false when the resolved path escapes the sandbox.
func ResolveWithinRoot(root, rel string) (abs string, ok bool) {
	abs = filepath.Clean(filepath.Join(root, rel))
	root = filepath.Clean(root)
	if abs == root {
		return abs, true
	}
	r, err := filepath.Rel(root, abs)
	if err != nil {
		return abs, false
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return abs, false
	}
	return abs, true
}

// Resolve performs the full pre-flight resolution for a sync call: both
// paths must be relative and both must resolve inside the dataset root.
func Resolve(datasetRoot, source, target string) (srcAbs, dstAbs string, err error) {
	if datasetRoot == "" {
		return "", "", syncerr.InvalidPath(source, target)
	}
	if err := ValidateRelative(source, target); err != nil {
		return "", "", err
	}
	srcAbs, ok := ResolveWithinRoot(datasetRoot, source)
	if !ok {
		return "", "", syncerr.PathEscape(source, target)
	}
	dstAbs, ok = ResolveWithinRoot(datasetRoot, target)
	if !ok {
		return "", "", syncerr.PathEscape(source, target)
	}
	return srcAbs, dstAbs, nil
}

// isWithin reports whether child is sub (or equal to) parent, both cleaned.
func isWithin(parent, child string) bool {
	parent = filepath.Clean(parent)
	child = filepath.Clean(child)
	if parent == child {
		return true
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}

// ValidateSubfolderOperation rejects copies whose target lives inside the
// source tree, and moves where either path is contained in the other.
// This prevents infinite recursive copies and moving a directory into itself.
func ValidateSubfolderOperation(source, target string, op Op) error {
	switch op {
	case OpMove:
		if isWithin(source, target) || isWithin(target, source) {
			return syncerr.InvalidSubfolderMove(source, target)
		}
	default:
		if isWithin(source, target) {
			return syncerr.InvalidSubfolderCopy(source, target)
		}
	}
	return nil
}
