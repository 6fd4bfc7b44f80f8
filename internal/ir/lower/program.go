package lower

import (
	"setlx/internal/cst"
	"setlx/internal/ir"
)

// LowerProgram lowers a whole normalised source file (the sequence of
// top-level statements the parser hands back, after the string/check/noop
// passes) into the implicit top-level procedure every SetlX program runs as
// its entry point. It gives the top level the same entry/return shape
// BuildProcedure (proc.go) gives a nested procedure, minus parameter
// binding, the cache shim, and closure capture — there is no caller to bind
// arguments from, and spec.md names no cached/closure form for the script
// body itself.
func LowerProgram(body cst.Block) (*ir.Program, ir.ProcHandle) {
	b := NewBuilder()
	procHandle := b.EnterProcedure("main")
	b.Prog.Main = procHandle
	retVar := b.NewTemp()

	if len(body.Stmts) == 0 {
		// spec.md §8.9: an empty block lowers to entry == exit, a single
		// block that sets the return slot to undefined and returns it.
		only := b.NewBlock()
		b.proc.StartBlock = only
		b.proc.EndBlock = only
		b.SetBlock(only)
		b.EmitAssign(ir.TargetVariable{Slot: retVar}, ir.TypeUndefined, ir.ValueUndefined{}, ir.OpAssign{})
		b.ReturnValue(ir.ValueVariable{Slot: retVar})
		return b.Prog, procHandle
	}

	retBlock := b.NewBlock()
	b.proc.EndBlock = retBlock
	b.SetBlock(retBlock)
	b.PopFrame()
	b.ReturnValue(ir.ValueVariable{Slot: retVar})

	entry := b.NewBlock()
	b.proc.StartBlock = entry
	b.SetBlock(entry)
	b.PushFrame()
	b.ret = &procRetCtx{retVar: retVar, endBlock: retBlock}

	for _, name := range collectAssignedNames(body) {
		if _, ok := b.scope[name]; ok {
			continue
		}
		b.PushName(name)
	}

	if !b.EmitBlock(body) {
		b.EmitAssign(ir.TargetVariable{Slot: retVar}, ir.TypeUndefined, ir.ValueUndefined{}, ir.OpAssign{})
		b.Goto(retBlock)
	}

	return b.Prog, procHandle
}
