// Command setlxc is the front end's CLI surface (spec.md §6): it reads one
// source file, runs it through parse → string pass → check pass → noop pass
// → lowering, and optionally writes the debug dumps each `--dump-*` flag
// requests. It is the one place spec.md's "every error terminates the
// process with a one-line diagnostic" (§7) and "zero output on stdout" on
// success (§7) are enforced.
package main

import (
	"flag"
	"fmt"
	"os"

	"setlx/internal/cst"
	cstdump "setlx/internal/cst/dump"
	"setlx/internal/cst/pass"
	"setlx/internal/diag"
	irdump "setlx/internal/ir/dump"
	"setlx/internal/ir/lower"
	"setlx/internal/parser"
	"setlx/internal/repl"
)

// dumpFlags mirrors spec.md §6's flag table. Each bool gates one phase's
// pair of debug artifacts.
type dumpFlags struct {
	dumpAll bool

	dumpCSTAll    bool
	dumpCSTParse  bool
	dumpCSTString bool
	dumpCSTCheck  bool
	dumpCSTNoop   bool

	dumpIRAll   bool
	dumpIRLower bool
}

// resolve applies spec.md §6's "--dump-all enables everything, --dump-cst-
// all/--dump-ir-all enable their phase" cascade.
func (f *dumpFlags) resolve() {
	if f.dumpAll {
		f.dumpCSTAll = true
		f.dumpIRAll = true
	}
	if f.dumpCSTAll {
		f.dumpCSTParse = true
		f.dumpCSTString = true
		f.dumpCSTCheck = true
		f.dumpCSTNoop = true
	}
	if f.dumpIRAll {
		f.dumpIRLower = true
	}
}

func main() {
	var flags dumpFlags
	flag.BoolVar(&flags.dumpAll, "dump-all", false, "enable every dump")
	flag.BoolVar(&flags.dumpCSTAll, "dump-cst-all", false, "enable all CST-phase dumps")
	flag.BoolVar(&flags.dumpCSTParse, "dump-cst-parse", false, "dump CST after parse")
	flag.BoolVar(&flags.dumpCSTString, "dump-cst-pass-01", false, "dump after string pass")
	flag.BoolVar(&flags.dumpCSTString, "dump-cst-pass-string", false, "alias of --dump-cst-pass-01")
	flag.BoolVar(&flags.dumpCSTCheck, "dump-cst-pass-02", false, "dump after check pass")
	flag.BoolVar(&flags.dumpCSTCheck, "dump-cst-pass-check", false, "alias of --dump-cst-pass-02")
	flag.BoolVar(&flags.dumpCSTNoop, "dump-cst-pass-03", false, "dump after noop pass")
	flag.BoolVar(&flags.dumpCSTNoop, "dump-cst-pass-noop", false, "alias of --dump-cst-pass-03")
	flag.BoolVar(&flags.dumpIRAll, "dump-ir-all", false, "enable all IR-phase dumps")
	flag.BoolVar(&flags.dumpIRLower, "dump-ir-lower", false, "dump after initial lowering")
	replMode := flag.Bool("repl", false, "start the interactive pipeline inspector instead of compiling a file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: setlxc [flags] <file.slx>")
		flag.PrintDefaults()
	}
	flag.Parse()
	flags.resolve()

	if *replMode {
		repl.Start(os.Stdin, os.Stdout)
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		diag.Fatal(fmt.Errorf("failed to read %s: %w", path, err))
	}

	stem := stemOf(path)
	if err := run(path, stem, string(source), flags); err != nil {
		diag.Fatal(err)
	}
}

// run executes the whole pipeline. Every fatal condition returns an error
// rather than calling os.Exit directly, so main stays the single exit
// boundary spec.md §7 describes.
func run(path, stem, source string, flags dumpFlags) (err error) {
	defer func() {
		// The check pass and lowering report structural/invariant
		// violations by panicking (spec.md §7: "a malformed program
		// terminates the process with a diagnostic" — not a recoverable
		// condition the pipeline need continue past). Convert that panic
		// into the same one-line-diagnostic error path a parse failure
		// takes.
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = diag.Wrap(path, cst.Position{}, e)
				return
			}
			err = diag.Wrap(path, cst.Position{}, fmt.Errorf("%v", r))
		}
	}()

	blk, perr := parser.ParseProgram(path, source)
	if perr != nil {
		return perr
	}
	if flags.dumpCSTParse {
		if err := writeDumpPair(stem, "cst-parse", cstdump.Text(blk), cstdump.Dot(blk, "cst_parse")); err != nil {
			return err
		}
	}

	blk, serr := pass.NewStringPass(path).Run(blk)
	if serr != nil {
		return serr
	}
	if flags.dumpCSTString {
		if err := writeDumpPair(stem, "cst-pass-string", cstdump.Text(blk), cstdump.Dot(blk, "cst_string")); err != nil {
			return err
		}
	}

	reporter := diag.NewReporter(path, source)
	checkPass := &pass.CheckPass{}
	warnings := checkPass.Run(blk) // panics on a structural violation (spec.md §4.2)
	reporter.ReportWarnings(warnings)
	if flags.dumpCSTCheck {
		if err := writeDumpPair(stem, "cst-pass-check", cstdump.Text(blk), cstdump.Dot(blk, "cst_check")); err != nil {
			return err
		}
	}

	blk = pass.NewNoopPass().Run(blk)
	if flags.dumpCSTNoop {
		if err := writeDumpPair(stem, "cst-pass-noop", cstdump.Text(blk), cstdump.Dot(blk, "cst_noop")); err != nil {
			return err
		}
	}

	prog, _ := lower.LowerProgram(*blk)
	if flags.dumpIRLower {
		if err := writeDumpPair(stem, "ir-lower", irdump.Text(prog), irdump.Dot(prog, "ir_lower")); err != nil {
			return err
		}
		if err := os.WriteFile(stem+"-ir-lower.ir", []byte(irdump.Text(prog)), 0o644); err != nil {
			return err
		}
	}

	// spec.md §7: "zero output on stdout" on a successful compile.
	return nil
}

// writeDumpPair writes "{stem}-{phase}.dump" and "{stem}-{phase}.dot", the
// two debug artifacts spec.md §6 names for every enabled dump flag.
func writeDumpPair(stem, phase, text, dot string) error {
	if err := os.WriteFile(fmt.Sprintf("%s-%s.dump", stem, phase), []byte(text), 0o644); err != nil {
		return err
	}
	return os.WriteFile(fmt.Sprintf("%s-%s.dot", stem, phase), []byte(dot), 0o644)
}

func stemOf(path string) string {
	base := path
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' || base[i] == '\\' {
			base = base[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}
