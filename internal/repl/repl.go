// Package repl is a line-at-a-time pipeline inspector adapted from the
// teacher's repl/repl.go: instead of stopping at "parse and print the AST",
// each line is pushed all the way through string-pass → check-pass →
// noop-pass → lowering and the resulting three-address IR is printed. It is
// not part of the compiler core (spec.md §1's CST normalisation/lowering
// subsystems) — a manual exploration tool exercising every public pipeline
// entry point end-to-end.
package repl

import (
	"bufio"
	"fmt"
	"io"

	"setlx/internal/cst/dump"
	"setlx/internal/cst/pass"
	irdump "setlx/internal/ir/dump"
	"setlx/internal/ir/lower"
	"setlx/internal/parser"
)

const prompt = ">> "

// Start runs the inspector loop over in, writing prompts and pipeline
// output to out until in is exhausted.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		evalLine(line, out)
	}
}

// evalLine runs one line through the whole pipeline, recovering from the
// check pass's panic-on-violation convention (spec.md §7) so a malformed
// line doesn't kill the session.
func evalLine(line string, out io.Writer) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(out, "error: %v\n", r)
		}
	}()

	blk, err := parser.ParseProgram("<repl>", line)
	if err != nil {
		fmt.Fprintf(out, "parse error: %v\n", err)
		return
	}

	blk, err = pass.NewStringPass("<repl>").Run(blk)
	if err != nil {
		fmt.Fprintf(out, "string pass error: %v\n", err)
		return
	}

	warnings := (&pass.CheckPass{}).Run(blk)
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w.Message)
	}

	blk = pass.NewNoopPass().Run(blk)
	fmt.Fprintf(out, "cst:\n%s", dump.Text(blk))

	prog, handle := lower.LowerProgram(*blk)
	fmt.Fprintf(out, "ir (proc %d):\n%s", handle, irdump.Text(prog))
}
