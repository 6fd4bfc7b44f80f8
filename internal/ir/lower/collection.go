package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// emitCollection ports collection_expr.rs's block_collection_push for the
// literal (non-comprehension) set/list forms: an optional `[lo..hi]` /
// `{lo..hi}` range, or an explicit element list with an optional trailing
// `| rest` spread.
func (b *Builder) emitCollection(c *cst.Collection, target ir.Target) bool {
	targetVar, isVar := target.(ir.TargetVariable)
	slot := targetVar.Slot
	if !isVar {
		slot = b.NewTemp()
	}

	if c.IsRange {
		loSlot := b.NewTemp()
		loOwned := b.EmitExpr(c.Lo, ir.TargetVariable{Slot: loSlot})
		hiSlot := b.NewTemp()
		hiOwned := b.EmitExpr(c.Hi, ir.TargetVariable{Slot: hiSlot})

		rangeProc := ir.ProcListRange
		rangeType := ir.TypeList
		if c.Kind == cst.CollSet {
			rangeProc = ir.ProcSetRange
			rangeType = ir.TypeSet
		}
		b.EmitAssign(ir.TargetVariable{Slot: slot}, rangeType, ir.ValueUndefined{}, ir.OpNativeCall{
			Proc: rangeProc, Args: []ir.Value{ir.ValueVariable{Slot: loSlot}, ir.ValueVariable{Slot: hiSlot}},
		})
		b.InvalidateIfOwned(loSlot, loOwned)
		b.InvalidateIfOwned(hiSlot, hiOwned)
	} else {
		newProc := ir.ProcListNew
		newType := ir.TypeList
		if c.Kind == cst.CollSet {
			newProc = ir.ProcSetNew
			newType = ir.TypeSet
		}
		b.EmitAssign(ir.TargetVariable{Slot: slot}, newType, ir.ValueUndefined{}, ir.OpNativeCall{Proc: newProc})

		pushProc := ir.ProcListPush
		if c.Kind == cst.CollSet {
			pushProc = ir.ProcSetInsert
		}
		for _, elem := range c.Elems {
			elemSlot := b.NewTemp()
			owned := b.EmitExpr(elem, ir.TargetVariable{Slot: elemSlot})
			if !owned {
				b.EmitAssign(ir.TargetVariable{Slot: elemSlot}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
					Proc: ir.ProcCopy, Args: []ir.Value{ir.ValueVariable{Slot: elemSlot}},
				})
			}
			b.EmitNativeCallIgnore(pushProc, ir.ValueVariable{Slot: slot}, ir.ValueVariable{Slot: elemSlot})
		}

		if c.Rest != nil {
			extendProc := ir.ProcListExtend
			if c.Kind == cst.CollSet {
				extendProc = ir.ProcSetExtend
			}
			restSlot := b.NewTemp()
			owned := b.EmitExpr(c.Rest, ir.TargetVariable{Slot: restSlot})
			if !owned {
				b.EmitAssign(ir.TargetVariable{Slot: restSlot}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
					Proc: ir.ProcCopy, Args: []ir.Value{ir.ValueVariable{Slot: restSlot}},
				})
			}
			b.EmitNativeCallIgnore(extendProc, ir.ValueVariable{Slot: slot}, ir.ValueVariable{Slot: restSlot})
		}
	}

	if !isVar {
		b.EmitAssign(target, ir.TypeAny, ir.ValueVariable{Slot: slot}, ir.OpAssign{})
	}
	return false
}

// emitComprehension ports the comprehension_push inner closure of
// collection_expr.rs: seed an empty set/list, then for every iterator
// binding that survives the optional filter, push/insert the mapped
// result expression before backtracking for the next combination.
func (b *Builder) emitComprehension(c *cst.Comprehension, target ir.Target) bool {
	slot := b.NewTemp()
	newProc := ir.ProcListNew
	newType := ir.TypeList
	if c.Kind == cst.CollSet {
		newProc = ir.ProcSetNew
		newType = ir.TypeSet
	}
	var args []ir.Value
	if c.Kind != cst.CollSet {
		args = []ir.Value{ir.ValueNumber{Value: big.NewInt(0)}}
	}
	b.EmitAssign(ir.TargetVariable{Slot: slot}, newType, ir.ValueUndefined{}, ir.OpNativeCall{Proc: newProc, Args: args})

	pushProc := ir.ProcListPush
	if c.Kind == cst.CollSet {
		pushProc = ir.ProcSetInsert
	}

	b.EmitIterator(c.Params, c.Filter, func(b *Builder, nextBlock, backtrackBlock, followBlock ir.BlockHandle) {
		exprSlot := b.NewTemp()
		owned := b.EmitExpr(c.Result, ir.TargetVariable{Slot: exprSlot})
		if !owned {
			b.EmitAssign(ir.TargetVariable{Slot: exprSlot}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcCopy, Args: []ir.Value{ir.ValueVariable{Slot: exprSlot}},
			})
		}
		b.EmitNativeCallIgnore(pushProc, ir.ValueVariable{Slot: slot}, ir.ValueVariable{Slot: exprSlot})
		b.Goto(backtrackBlock)
	})

	b.EmitAssign(target, ir.TypeAny, ir.ValueVariable{Slot: slot}, ir.OpAssign{})
	return false
}

// emitQuantifier ports quant_expr.rs's block_quant_push: seed the result
// with the quantifier's identity (false for exists, true for forall), then
// flip and short-circuit through the iterator's backtrack chain on the
// first witness (exists) or counter-example (forall).
func (b *Builder) emitQuantifier(q *cst.QuantifierExpr, target ir.Target) bool {
	slot, isVar := target.(ir.TargetVariable)
	resultSlot := slot.Slot
	if !isVar {
		resultSlot = b.NewTemp()
	}

	seed := false
	if q.Kind == cst.QuantForall {
		seed = true
	}
	b.EmitAssign(ir.TargetVariable{Slot: resultSlot}, ir.TypeBool, ir.ValueBool{Value: seed}, ir.OpAssign{})

	b.EmitIterator(q.Params, q.Filter, func(b *Builder, nextBlock, backtrackBlock, followBlock ir.BlockHandle) {
		condSlot := b.NewTemp()
		b.EmitExpr(q.Cond, ir.TargetVariable{Slot: condSlot})

		if q.Kind == cst.QuantExists {
			successBlock := b.NewBlock()
			b.SetBlock(successBlock)
			b.EmitAssign(ir.TargetVariable{Slot: resultSlot}, ir.TypeBool, ir.ValueBool{Value: true}, ir.OpAssign{})
			b.Goto(followBlock)

			b.SetBlock(nextBlock)
			b.BranchTo(ir.ValueVariable{Slot: condSlot}, successBlock, backtrackBlock)
		} else {
			failBlock := b.NewBlock()
			b.SetBlock(failBlock)
			b.EmitAssign(ir.TargetVariable{Slot: resultSlot}, ir.TypeBool, ir.ValueBool{Value: false}, ir.OpAssign{})
			b.Goto(followBlock)

			b.SetBlock(nextBlock)
			b.BranchTo(ir.ValueVariable{Slot: condSlot}, backtrackBlock, failBlock)
		}
	})

	if !isVar {
		b.EmitAssign(target, ir.TypeBool, ir.ValueVariable{Slot: resultSlot}, ir.OpAssign{})
	}
	return false
}
