// Package syncerr defines the typed error taxonomy of the sync engine. Every
// rejection a caller can act on carries a Kind; callers branch on the kind
// through KindOf or IsKind rather than matching message text.
package syncerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a sync failure.
type Kind string

const (
	// KindPathEscape means a resolved path left the dataset root.
	KindPathEscape Kind = "PATH_ESCAPE"

	// KindSourceNotExists means the source path does not exist.
	KindSourceNotExists Kind = "SOURCE_NOT_EXISTS"

	// KindInvalidPath means a source or target path is absolute or empty.
	KindInvalidPath Kind = "INVALID_PATH"

	// KindInvalidSubfolderMove means a move where source and target contain
	// each other.
	KindInvalidSubfolderMove Kind = "INVALID_SUBFOLDER_MOVE"

	// KindInvalidSubfolderCopy means a copy whose target lives inside the
	// source tree.
	KindInvalidSubfolderCopy Kind = "INVALID_SUBFOLDER_COPY"

	// KindInvalidSourceType means the source is neither a regular file nor a
	// directory.
	KindInvalidSourceType Kind = "INVALID_SOURCE_TYPE"

	// KindIO wraps an underlying filesystem failure.
	KindIO Kind = "IO_ERROR"

	// KindMirrorConstraint means a mirror cleanup would have deleted a path
	// outside the synced subtree.
	KindMirrorConstraint Kind = "MIRROR_CONSTRAINT_VIOLATION"
)

// Error is the concrete error type produced by the engine. Fields beyond
// Kind are populated as far as the failure site knows them.
type Error struct {
	Kind   Kind
	Op     string
	Source string
	Target string
	Path   string
	Names  []string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		fmt.Fprintf(&b, " during %s", e.Op)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, ": source %q", e.Source)
	}
	if e.Target != "" {
		fmt.Fprintf(&b, ", target %q", e.Target)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, ": path %q", e.Path)
	}
	if len(e.Names) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Names, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or the empty kind when err carries none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// PathEscape reports a source or target resolving outside the dataset root.
func PathEscape(source, target string) *Error {
	return &Error{Kind: KindPathEscape, Source: source, Target: target}
}

// SourceNotExists reports a missing source path.
func SourceNotExists(source string) *Error {
	return &Error{Kind: KindSourceNotExists, Source: source}
}

// InvalidPath reports an absolute or empty source or target path.
func InvalidPath(source, target string) *Error {
	return &Error{Kind: KindInvalidPath, Source: source, Target: target}
}

// InvalidSubfolderCopy reports a copy whose target is inside the source.
func InvalidSubfolderCopy(source, target string) *Error {
	return &Error{Kind: KindInvalidSubfolderCopy, Op: "copy", Source: source, Target: target}
}

// InvalidSubfolderMove reports a move where either path contains the other.
func InvalidSubfolderMove(source, target string) *Error {
	return &Error{Kind: KindInvalidSubfolderMove, Op: "move", Source: source, Target: target}
}

// InvalidSourceType reports a source that is neither file nor directory.
func InvalidSourceType(source string) *Error {
	return &Error{Kind: KindInvalidSourceType, Source: source}
}

// IO wraps a filesystem failure with the operation and path it hit.
func IO(op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// Collision reports transformed destination names claimed by more than one
// source directory. The whole operation aborts before any write.
func Collision(op string, names []string) *Error {
	return &Error{Kind: KindIO, Op: op, Names: names, Err: errors.New("transformed names collide")}
}

// MirrorConstraint reports a mirror cleanup delete that escaped the synced
// subtree.
func MirrorConstraint(target string) *Error {
	return &Error{Kind: KindMirrorConstraint, Op: "mirror", Target: target}
}
