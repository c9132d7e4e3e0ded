package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Status prints one-line progress and outcome messages, normally to
// stderr so they never mix with a JSON report on stdout.
type Status struct {
	w     io.Writer
	quiet bool
}

// NewStatus returns a Status writing to w. Quiet suppresses progress and
// success lines but never errors or warnings.
func NewStatus(w io.Writer, quiet bool) *Status {
	return &Status{w: w, quiet: quiet}
}

// Progress prints a dimmed "→ message" line.
func (s *Status) Progress(format string, args ...any) {
	if s.quiet {
		return
	}
	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Fprintf(s.w, "%s %s\n", gray("→"), gray(fmt.Sprintf(format, args...)))
}

// Success prints a green check line.
func (s *Status) Success(format string, args ...any) {
	if s.quiet {
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(s.w, "%s %s\n", color.New(color.FgGreen, color.Bold).Sprint("✓"), green(fmt.Sprintf(format, args...)))
}

// Warning prints a yellow warning line.
func (s *Status) Warning(format string, args ...any) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(s.w, "%s %s\n", color.New(color.FgYellow, color.Bold).Sprint("⚠"), yellow(fmt.Sprintf(format, args...)))
}

// Error prints a red cross line.
func (s *Status) Error(format string, args ...any) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(s.w, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("✗"), red(fmt.Sprintf(format, args...)))
}
