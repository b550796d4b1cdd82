// Package ui provides terminal output helpers for docsync: colored status
// lines and the post-operation report box.
package ui

import (
	"github.com/fatih/color"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()

	// Bold emphasizes identifiers such as backup ids.
	Bold = color.New(color.Bold).SprintFunc()
	// Dim renders secondary detail lines.
	Dim = color.New(color.Faint).SprintFunc()
)

// StatusSuccess returns a green check followed by msg.
func StatusSuccess(msg string) string {
	return join(success("✓"), msg)
}

// StatusError returns a red cross followed by msg.
func StatusError(msg string) string {
	return join(failure("✗"), msg)
}

// StatusWarning returns a yellow warning sign followed by msg.
func StatusWarning(msg string) string {
	return join(warning("⚠"), msg)
}

func join(symbol, msg string) string {
	if msg == "" {
		return symbol
	}
	return symbol + " " + msg
}

// DisableColors turns off colored output, for piped output or --no-color.
func DisableColors() {
	color.NoColor = true
}

// EnableColors turns colored output back on.
func EnableColors() {
	color.NoColor = false
}

// IsColorEnabled reports whether colors are currently enabled.
func IsColorEnabled() bool {
	return !color.NoColor
}
