package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// emitLambda ports lambda_expr.rs's block_lambda_push: build a standalone
// procedure whose body binds each parameter from the runtime params array,
// evaluates its single expression body, and returns it; then wrap the
// handle as a closure (capturing the current runtime stack) or a plain
// procedure value depending on the CST's Closed flag.
func (b *Builder) emitLambda(l *cst.LambdaExpr, target ir.Target) bool {
	outer := b.proc
	outerBlock := b.block

	b.proc = ir.NewProcedure("lambda")
	entry := b.proc.AddBlock()
	b.proc.StartBlock = entry
	b.block = entry

	b.EmitNativeCallIgnore(ir.ProcStackFrameAdd)

	paramsOffset := 0
	if l.Closed {
		paramsOffset = 1
		stackSlot := b.EmitTemp(ir.TypePtr, ir.ValueBuiltinVar{Tag: ir.VarParams}, ir.OpAccessArray{Index: ir.ValueNumber{Value: big.NewInt(0)}})
		b.EmitNativeCallIgnore(ir.ProcStackFrameRestore, ir.ValueVariable{Slot: stackSlot})
	}

	savedScope := b.scope
	b.scope = make(map[string][]int)
	for name, stk := range savedScope {
		b.scope[name] = append([]int(nil), stk...)
	}

	boundNames := make([]string, 0, len(l.Params))
	for i, name := range l.Params {
		paramSlot := b.EmitTemp(ir.TypePtr, ir.ValueBuiltinVar{Tag: ir.VarParams}, ir.OpAccessArray{Index: ir.ValueNumber{Value: big.NewInt(int64(i + paramsOffset))}})
		varSlot := b.EmitNativeCall(ir.TypePtr, ir.ProcStackAdd, ir.ValueString{Value: name})
		b.EmitAssign(ir.TargetDeref{Slot: varSlot}, ir.TypeAny, ir.ValueVariable{Slot: paramSlot}, ir.OpPtrDeref{})
		b.scope[name] = append(b.scope[name], varSlot)
		boundNames = append(boundNames, name)
	}

	resultSlot := b.NewTemp()
	resultOwned := b.EmitExpr(l.Body, ir.TargetVariable{Slot: resultSlot})
	if !resultOwned {
		b.EmitAssign(ir.TargetVariable{Slot: resultSlot}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
			Proc: ir.ProcCopy,
			Args: []ir.Value{ir.ValueVariable{Slot: resultSlot}},
		})
	}

	b.EmitNativeCallIgnore(ir.ProcStackFramePop)
	b.ReturnValue(ir.ValueVariable{Slot: resultSlot})
	b.proc.EndBlock = b.block

	lambdaProc := b.proc
	lambdaHandle := b.Prog.AddProcedure(lambdaProc)

	_ = boundNames
	b.proc = outer
	b.block = outerBlock
	b.scope = savedScope

	if l.Closed {
		infoSlot := b.EmitASTNode(l)
		stackSlot := b.EmitNativeCall(ir.TypeList, ir.ProcStackCopy)
		b.EmitAssign(target, ir.TypeClosure, ir.ValueUndefined{}, ir.OpNativeCall{
			Proc: ir.ProcClosureNew,
			Args: []ir.Value{ir.ValueProcedure{Handle: lambdaHandle}, ir.ValueVariable{Slot: stackSlot}, ir.ValueVariable{Slot: infoSlot}},
		})
		return false
	}

	infoSlot := b.EmitASTNode(l)
	b.EmitAssign(target, ir.TypeProcedure, ir.ValueUndefined{}, ir.OpNativeCall{
		Proc: ir.ProcProcedureNew,
		Args: []ir.Value{ir.ValueProcedure{Handle: lambdaHandle}, ir.ValueVariable{Slot: infoSlot}},
	})
	return false
}

// emitProcedureLit lowers a `procedure`/`cached procedure` literal by
// delegating entirely to the dedicated procedure builder (C12,
// BuildProcedure in proc.go), which handles parameter-mode binding
// (default/rest/read-write), the cache shim for cached procedures, and the
// statement lowering (C11) of the body.
func (b *Builder) emitProcedureLit(p *cst.ProcedureLit, target ir.Target) bool {
	return b.BuildProcedure(p, target)
}
