// Package diag formats the front end's two diagnostic channels: the check
// pass's non-fatal unreachable-code warnings (spec.md §4.2) and the single
// fatal error that terminates the process on malformed input (spec.md §7).
// It keeps the teacher's fatih/color terminal styling
// (internal/errors/reporter.go) but deliberately drops that reporter's
// source-span/suggestion machinery for the fatal path: spec.md §7 commits
// only to "every error terminates the process with a one-line diagnostic",
// not to Rust-style multi-line caret framing with fix suggestions.
package diag

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"setlx/internal/cst"
	"setlx/internal/cst/pass"
)

// Reporter renders warnings against one source file's lines, the same
// caret-locating idiom the teacher's ErrorReporter uses for its main error
// line.
type Reporter struct {
	filename string
	lines    []string
}

func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// ReportWarning prints one check-pass warning to stderr: a yellow header,
// the offending source line (if in range), and a caret under its column.
func (r *Reporter) ReportWarning(w pass.Warning) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "warning: %s\n", w.Message)
	fmt.Fprintf(os.Stderr, "  --> %s:%d:%d\n", r.filename, w.Pos.Line, w.Pos.Column)
	if w.Pos.Line > 0 && w.Pos.Line <= len(r.lines) {
		fmt.Fprintf(os.Stderr, "   | %s\n", r.lines[w.Pos.Line-1])
		caret := strings.Repeat(" ", max(0, w.Pos.Column-1)) + "^"
		fmt.Fprintf(os.Stderr, "   | %s\n", color.YellowString(caret))
	}
}

// ReportWarnings reports every warning the check pass collected, in order.
func (r *Reporter) ReportWarnings(warnings []pass.Warning) {
	for _, w := range warnings {
		r.ReportWarning(w)
	}
}

// CompileError is the single fatal-error shape every pipeline stage raises
// on malformed input (spec.md §7's taxonomy collapses to this one kind at
// the CLI boundary: parse failure, structural CST violation, malformed
// interpolation, or an internal lowering invariant violation).
type CompileError struct {
	Filename string
	Pos      cst.Position
	Cause    error
}

func (e *CompileError) Error() string {
	if e.Pos.Line == 0 && e.Pos.Column == 0 {
		return fmt.Sprintf("%s: %s", e.Filename, e.Cause)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Pos.Line, e.Pos.Column, e.Cause)
}

func (e *CompileError) Unwrap() error { return e.Cause }

// Wrap attaches filename/position context to a lower-level error, mirroring
// pkg/errors.Wrap's causal-chain convention used throughout internal/parser.
func Wrap(filename string, pos cst.Position, err error) error {
	if err == nil {
		return nil
	}
	return &CompileError{Filename: filename, Pos: pos, Cause: errors.WithStack(err)}
}

// Fatal prints err in red to stderr and exits the process with a non-zero
// status, exactly as spec.md §7 prescribes for every fatal front-end error.
func Fatal(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: ")
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
