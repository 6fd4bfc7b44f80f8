package lower

import (
	"setlx/internal/cst"
	"setlx/internal/ir"
)

// callParamsPush lowers a call's argument list into a fresh runtime list,
// copying any borrowed argument first since the callee takes ownership of
// every slot it receives (spec.md §4.3 "Call"). Simpler than the ported
// original's rw-parameter aliasing, which additionally threads argument
// addresses through for in-place mutation; this front end's CST has no
// call-site syntax distinguishing a by-reference argument from a plain
// one; see DESIGN.md.
func (b *Builder) callParamsPush(args []cst.Expr, target ir.Target) {
	paramsSlot, isVar := target.(ir.TargetVariable)
	if !isVar {
		tmp := b.NewTemp()
		b.callParamsPushInto(args, tmp)
		b.EmitAssign(target, ir.TypeList, ir.ValueVariable{Slot: tmp}, ir.OpAssign{})
		return
	}
	b.callParamsPushInto(args, paramsSlot.Slot)
}

func (b *Builder) callParamsPushInto(args []cst.Expr, paramsSlot int) {
	b.EmitAssign(ir.TargetVariable{Slot: paramsSlot}, ir.TypeList, ir.ValueUndefined{}, ir.OpNativeCall{Proc: ir.ProcListNew})
	for _, arg := range args {
		argSlot := b.NewTemp()
		owned := b.EmitExpr(arg, ir.TargetVariable{Slot: argSlot})
		if !owned {
			b.EmitAssign(ir.TargetVariable{Slot: argSlot}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcCopy,
				Args: []ir.Value{ir.ValueVariable{Slot: argSlot}},
			})
		}
		b.EmitNativeCallIgnore(ir.ProcListPush, ir.ValueVariable{Slot: paramsSlot}, ir.ValueVariable{Slot: argSlot})
	}
}

// emitCall ports call_expr.rs's block_call_push for a plain `name(args)`
// call: resolve the callee through the lexical map (falling back to
// stack_get_assert), build the params list, then emit a Call op.
func (b *Builder) emitCall(c *cst.CallExpr, target ir.Target) bool {
	paramsSlot := b.NewTemp()
	b.callParamsPushInto(c.Args, paramsSlot)

	name, isVar := c.Callee.(*cst.Variable)
	if isVar {
		if slot, ok := b.LookupName(name.Name); ok {
			b.EmitAssign(target, ir.TypeAny, ir.ValueVariable{Slot: slot}, ir.OpCall{ParamsSlot: paramsSlot})
			b.EmitInvalidate(paramsSlot)
			return false
		}
		ptrSlot := b.EmitNativeCall(ir.TypePtr, ir.ProcStackGetAssert, ir.ValueString{Value: name.Name})
		calleeSlot := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: ptrSlot}, ir.OpPtrDeref{})
		b.EmitAssign(target, ir.TypeAny, ir.ValueVariable{Slot: calleeSlot}, ir.OpCall{ParamsSlot: paramsSlot})
		b.EmitInvalidate(paramsSlot)
		return false
	}

	calleeSlot := b.NewTemp()
	calleeOwned := b.EmitExpr(c.Callee, ir.TargetVariable{Slot: calleeSlot})
	b.EmitAssign(target, ir.TypeAny, ir.ValueVariable{Slot: calleeSlot}, ir.OpCall{ParamsSlot: paramsSlot})
	b.InvalidateIfOwned(calleeSlot, calleeOwned)
	b.EmitInvalidate(paramsSlot)
	return false
}
