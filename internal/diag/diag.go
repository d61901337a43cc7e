// Package diag prints compiler diagnostics to a terminal or log stream.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"falafel/internal/config"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[1;31m"
	ansiYellow = "\x1b[1;33m"
	ansiCyan   = "\x1b[36m"
)

// Reporter writes one line per diagnostic and counts them.
type Reporter struct {
	w        io.Writer
	color    bool
	verbose  bool
	errors   int
	warnings int
}

// New returns a Reporter on w. With ColorAuto, colour is used only when w is
// a terminal.
func New(w io.Writer, mode config.ColorMode, verbose bool) *Reporter {
	return &Reporter{w: w, color: useColor(w, mode), verbose: verbose}
}

func useColor(w io.Writer, mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Reporter) Error(err error) {
	r.errors++
	r.print(ansiRed, "error", err.Error())
}

// Warning reports a non-fatal diagnostic. Line 0 means no position.
func (r *Reporter) Warning(line int, msg string) {
	r.warnings++
	if line > 0 {
		msg = fmt.Sprintf("line %d: %s", line, msg)
	}
	r.print(ansiYellow, "warning", msg)
}

// Notef reports progress in verbose mode only.
func (r *Reporter) Notef(format string, args ...any) {
	if !r.verbose {
		return
	}
	r.print(ansiCyan, "note", fmt.Sprintf(format, args...))
}

// Count is the number of warnings reported so far.
func (r *Reporter) Count() int { return r.warnings }

func (r *Reporter) Errors() int { return r.errors }

func (r *Reporter) print(color, label, msg string) {
	if r.color {
		fmt.Fprintf(r.w, "%s%s:%s %s\n", color, label, ansiReset, msg)
		return
	}
	fmt.Fprintf(r.w, "%s: %s\n", label, msg)
}

// Size renders a byte count for notes, e.g. "1.2 kB".
func Size(n int) string {
	return humanize.Bytes(uint64(n))
}
