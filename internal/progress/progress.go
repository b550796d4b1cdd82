// Package progress provides progress indicators for long-running sync and
// rewrite passes.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/mdtree/docsync/internal/logging"
	"github.com/mdtree/docsync/internal/ui"
)

// Bar wraps a progress bar together with the decision whether to show it.
type Bar struct {
	bar     *progressbar.ProgressBar
	enabled bool
	desc    string
}

// Options configures the progress bar behavior.
type Options struct {
	// Max is the total number of steps.
	Max int64
	// Description is the prefix text shown before the bar.
	Description string
	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer
}

// New creates a progress bar. The bar is only rendered when colors are
// enabled, the writer is a terminal, and the logger is not at debug level;
// otherwise updates degrade to debug log lines.
func New(opts Options) *Bar {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	b := &Bar{
		enabled: shouldShowProgress(opts.Writer),
		desc:    opts.Description,
	}
	if !b.enabled {
		logging.Debug(fmt.Sprintf("%s started", opts.Description),
			logging.Count(int(opts.Max)))
		return b
	}

	b.bar = progressbar.NewOptions64(
		opts.Max,
		progressbar.OptionSetDescription(opts.Description),
		progressbar.OptionSetWriter(opts.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(opts.Writer, "\n")
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(ui.IsColorEnabled()),
	)
	return b
}

// Simple creates a progress bar with default output.
func Simple(max int64, description string) *Bar {
	return New(Options{Max: max, Description: description})
}

// Add increments the bar by n steps.
func (b *Bar) Add(n int) error {
	if !b.enabled {
		return nil
	}
	return b.bar.Add(n)
}

// Describe updates the bar description.
func (b *Bar) Describe(desc string) {
	b.desc = desc
	if b.enabled {
		b.bar.Describe(desc)
	}
}

// Finish completes the bar.
func (b *Bar) Finish() error {
	if !b.enabled {
		logging.Debug(fmt.Sprintf("%s completed", b.desc))
		return nil
	}
	return b.bar.Finish()
}

// Clear removes the bar from the terminal.
func (b *Bar) Clear() error {
	if !b.enabled {
		return nil
	}
	return b.bar.Clear()
}

// Reporter returns a callback suitable for per-file completion reporting.
func (b *Bar) Reporter() func(file string) {
	return func(string) {
		_ = b.Add(1)
	}
}

// shouldShowProgress reports whether a bar on w would render cleanly:
// colors on, w is a terminal, and no debug logging to interleave with.
func shouldShowProgress(w io.Writer) bool {
	if !ui.IsColorEnabled() {
		return false
	}
	if f, ok := w.(*os.File); ok {
		if !term.IsTerminal(int(f.Fd())) {
			return false
		}
	}
	if logging.Default().Enabled(context.Background(), logging.LevelDebug) {
		return false
	}
	return true
}
