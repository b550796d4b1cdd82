package syncer

import (
	"fmt"
	"strings"

	"github.com/mdtree/docsync/internal/safety"
)

// Action represents the action taken on a single destination path.
type Action string

const (
	// ActionCreated indicates a new file or directory was created.
	ActionCreated Action = "created"

	// ActionUpdated indicates an existing destination file was replaced.
	ActionUpdated Action = "updated"

	// ActionSkipped indicates existing destination content was left alone.
	ActionSkipped Action = "skipped"

	// ActionDeleted indicates a destination entry was removed by mirror
	// cleanup.
	ActionDeleted Action = "deleted"

	// ActionFailed indicates an error occurred processing the path.
	ActionFailed Action = "failed"
)

// FileResult represents the outcome for a single destination path.
type FileResult struct {
	// Path is the dataset-relative destination path.
	Path string

	// Action is the action that was taken.
	Action Action

	// Message provides additional context about the action.
	Message string

	// Error contains any error that occurred processing the path.
	Error error
}

// Result contains the complete outcome of one sync call.
type Result struct {
	// Source is the dataset-relative source path as given by the caller.
	Source string

	// Target is the dataset-relative target path as given by the caller.
	Target string

	// Op is the operation performed.
	Op safety.Op

	// Files contains the result for each processed destination path.
	Files []FileResult

	// SkillNameMap holds old name to new name pairs when a naming transform
	// renamed at least one leaf directory. Nil otherwise, so callers can
	// chain the map into a subsequent related sync call.
	SkillNameMap map[string]string
}

// Created returns entries that were created.
func (r *Result) Created() []FileResult {
	return r.filterByAction(ActionCreated)
}

// Updated returns entries that were updated.
func (r *Result) Updated() []FileResult {
	return r.filterByAction(ActionUpdated)
}

// Skipped returns entries that were skipped.
func (r *Result) Skipped() []FileResult {
	return r.filterByAction(ActionSkipped)
}

// Deleted returns entries removed by mirror cleanup.
func (r *Result) Deleted() []FileResult {
	return r.filterByAction(ActionDeleted)
}

// Failed returns entries that failed.
func (r *Result) Failed() []FileResult {
	return r.filterByAction(ActionFailed)
}

func (r *Result) filterByAction(action Action) []FileResult {
	var filtered []FileResult
	for _, fr := range r.Files {
		if fr.Action == action {
			filtered = append(filtered, fr)
		}
	}
	return filtered
}

// Success returns true if no entry failed.
func (r *Result) Success() bool {
	return len(r.Failed()) == 0
}

// TotalProcessed returns the total number of entries processed.
func (r *Result) TotalProcessed() int {
	return len(r.Files)
}

// TotalChanged returns the number of entries created, updated, or deleted.
func (r *Result) TotalChanged() int {
	return len(r.Created()) + len(r.Updated()) + len(r.Deleted())
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s -> %s\n", r.Op, r.Source, r.Target))
	sb.WriteString(fmt.Sprintf("  Created: %d\n", len(r.Created())))
	sb.WriteString(fmt.Sprintf("  Updated: %d\n", len(r.Updated())))
	sb.WriteString(fmt.Sprintf("  Deleted: %d\n", len(r.Deleted())))
	sb.WriteString(fmt.Sprintf("  Skipped: %d\n", len(r.Skipped())))
	sb.WriteString(fmt.Sprintf("  Failed:  %d\n", len(r.Failed())))

	if len(r.SkillNameMap) > 0 {
		sb.WriteString("\nRenamed:\n")
		for old, updated := range r.SkillNameMap {
			sb.WriteString(fmt.Sprintf("  - %s -> %s\n", old, updated))
		}
	}

	if !r.Success() {
		sb.WriteString("\nErrors:\n")
		for _, f := range r.Failed() {
			sb.WriteString(fmt.Sprintf("  - %s: %v\n", f.Path, f.Error))
		}
	}

	return sb.String()
}
