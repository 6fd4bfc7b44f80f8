package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// emitAccessRef ports access_expr.rs's block_access_ref_push: walk the head
// expression's address through each postfix step (field/call/index/slice),
// threading a PTR temp that is re-pointed at each step's result. Returns
// the slot of an owned intermediate the caller must invalidate, or -1 if
// nothing along the chain was freshly allocated.
func (b *Builder) emitAccessRef(a *cst.AccessExpr, target ir.Target) int {
	headVar := b.NewTemp()
	headOwned := b.EmitExpr(a.Head, ir.TargetVariable{Slot: headVar})

	owned := -1
	if headOwned {
		owned = headVar
	}

	head := b.EmitTemp(ir.TypePtr, ir.ValueVariable{Slot: headVar}, ir.OpPtrAddress{})

	for _, step := range a.Steps {
		newOwned := -1

		switch step.Kind {
		case cst.AccessField:
			head = b.EmitTemp(ir.TypePtr, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcObjectGetAssert,
				Args: []ir.Value{ir.ValueVariable{Slot: head}, ir.ValueString{Value: step.Name}},
			})

		case cst.AccessCall:
			paramsSlot := b.NewTemp()
			b.callParamsPushInto(step.Args, paramsSlot)

			procAddr := b.EmitTemp(ir.TypePtr, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcObjectGetAssert,
				Args: []ir.Value{ir.ValueVariable{Slot: head}, ir.ValueString{Value: step.Name}},
			})
			proc := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: procAddr}, ir.OpPtrDeref{})
			result := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: proc}, ir.OpCall{ParamsSlot: paramsSlot})
			b.EmitInvalidate(paramsSlot)
			head = b.EmitTemp(ir.TypePtr, ir.ValueVariable{Slot: result}, ir.OpPtrAddress{})
			newOwned = result

		case cst.AccessMember:
			varSlot := b.NewTemp()
			varOwned := b.EmitExpr(step.Index, ir.TargetVariable{Slot: varSlot})
			val := b.EmitTemp(ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcListTaggedGet,
				Args: []ir.Value{ir.ValueVariable{Slot: head}, ir.ValueVariable{Slot: varSlot}},
			})
			b.EmitAssign(ir.TargetVariable{Slot: val}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcCopy,
				Args: []ir.Value{ir.ValueVariable{Slot: val}},
			})
			head = b.EmitTemp(ir.TypePtr, ir.ValueVariable{Slot: val}, ir.OpPtrAddress{})
			b.InvalidateIfOwned(varSlot, varOwned)
			newOwned = val

		case cst.AccessSlice:
			leftSlot := b.NewTemp()
			if step.Lo != nil {
				b.EmitExpr(step.Lo, ir.TargetVariable{Slot: leftSlot})
			} else {
				b.EmitAssign(ir.TargetVariable{Slot: leftSlot}, ir.TypeNumber, ir.ValueNumber{Value: big.NewInt(0)}, ir.OpAssign{})
			}
			rightSlot := b.NewTemp()
			if step.Hi != nil {
				b.EmitExpr(step.Hi, ir.TargetVariable{Slot: rightSlot})
			} else {
				b.EmitAssign(ir.TargetVariable{Slot: rightSlot}, ir.TypeNumber, ir.ValueNumber{Value: big.NewInt(-1)}, ir.OpAssign{})
			}
			out := b.EmitTemp(ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcSlice,
				Args: []ir.Value{ir.ValueVariable{Slot: head}, ir.ValueVariable{Slot: leftSlot}, ir.ValueVariable{Slot: rightSlot}},
			})
			b.EmitInvalidate(leftSlot)
			b.EmitInvalidate(rightSlot)
			head = b.EmitTemp(ir.TypePtr, ir.ValueVariable{Slot: out}, ir.OpPtrAddress{})
			newOwned = owned

		case cst.AccessIndex:
			exprSlot := b.NewTemp()
			b.EmitExpr(step.Index, ir.TargetVariable{Slot: exprSlot})
			head = b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: head}, ir.OpAccessArray{Index: ir.ValueVariable{Slot: exprSlot}})
			b.EmitInvalidate(exprSlot)
			newOwned = owned
		}

		if owned >= 0 && newOwned != owned {
			b.EmitInvalidate(owned)
		}
		owned = newOwned
	}

	b.EmitAssign(target, ir.TypePtr, ir.ValueVariable{Slot: head}, ir.OpAssign{})
	return owned
}

// emitAccessValue ports block_access_push: dereference the ref chain's
// final address, copying when the chain produced an owned intermediate.
func (b *Builder) emitAccessValue(a *cst.AccessExpr, target ir.Target) bool {
	tmp := b.NewTemp()
	owned := b.emitAccessRef(a, ir.TargetVariable{Slot: tmp})

	if owned >= 0 {
		val := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: tmp}, ir.OpPtrDeref{})
		b.EmitAssign(target, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
			Proc: ir.ProcCopy,
			Args: []ir.Value{ir.ValueVariable{Slot: val}},
		})
		b.EmitInvalidate(owned)
		return true
	}

	b.EmitAssign(target, ir.TypeAny, ir.ValueVariable{Slot: tmp}, ir.OpPtrDeref{})
	return false
}
