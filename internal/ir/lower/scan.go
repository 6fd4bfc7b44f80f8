package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// emitScan ports scan_stmt.rs's block_scan_push: repeatedly race every
// branch's regex against the current position, keep the strictly longest
// match (ties favour the earlier-declared branch, since only a strictly
// greater length overwrites the running best), run its body with any
// capture pattern bound, then advance past the consumed text. The loop ends
// when nothing matches or the remaining text runs out.
func (b *Builder) emitScan(s *cst.ScanStmt) {
	exprSlot := b.NewTemp()
	exprOwned := b.EmitExpr(s.Scrutinee, ir.TargetVariable{Slot: exprSlot})
	sliceSlot := b.EmitNativeCall(ir.TypeString, ir.ProcSlice, ir.ValueVariable{Slot: exprSlot})

	regexSlots := make([]int, len(s.Branches))
	for i, br := range s.Branches {
		regexSlots[i] = b.EmitNativeCall(ir.TypeNativeRegex, ir.ProcRegexCompile, ir.ValueString{Value: br.Regex})
	}

	varDummy := b.EmitTemp(ir.TypeUndefined, ir.ValueUndefined{}, ir.OpAssign{})
	varSlot := b.EmitTemp(ir.TypePtr, ir.ValueVariable{Slot: varDummy}, ir.OpPtrAddress{})

	checkBlock := b.NewBlock()
	b.Goto(checkBlock)
	b.SetBlock(checkBlock)

	lenSlot := b.EmitNativeCall(ir.TypeNumber, ir.ProcAmount, ir.ValueVariable{Slot: sliceSlot})
	emptyCheck := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: lenSlot}, ir.OpEqual{RHS: ir.ValueNumber{Value: big.NewInt(0)}})

	endBlock := b.NewBlock()
	loopBlock := b.NewBlock()
	b.BranchTo(ir.ValueVariable{Slot: emptyCheck}, endBlock, loopBlock)

	b.SetBlock(loopBlock)
	matchedBranch := b.EmitTemp(ir.TypeNumber, ir.ValueNumber{Value: big.NewInt(-1)}, ir.OpAssign{})
	matchedLen := b.EmitTemp(ir.TypeNumber, ir.ValueNumber{Value: big.NewInt(-1)}, ir.OpAssign{})
	matchedAssign := b.EmitNativeCall(ir.TypeList, ir.ProcListNew)

	current := loopBlock
	follow := b.NewBlock()

	for idx, br := range s.Branches {
		b.SetBlock(current)

		candLen := b.NewTemp()
		b.EmitAssign(ir.TargetVariable{Slot: candLen}, ir.TypeNumber, ir.ValueNumber{Value: big.NewInt(-1)}, ir.OpAssign{})
		lenAddr := b.EmitTemp(ir.TypePtr, ir.ValueVariable{Slot: candLen}, ir.OpPtrAddress{})
		candMatched := b.EmitTemp(ir.TypeBool, ir.ValueBool{Value: false}, ir.OpAssign{})

		var candAssign int
		if len(br.Capture) > 0 {
			matchedAddr := b.EmitTemp(ir.TypePtr, ir.ValueVariable{Slot: candMatched}, ir.OpPtrAddress{})
			candAssign = b.EmitNativeCall(ir.TypeList, ir.ProcRegexMatchGroupsLen,
				ir.ValueVariable{Slot: sliceSlot}, ir.ValueVariable{Slot: regexSlots[idx]},
				ir.ValueVariable{Slot: matchedAddr}, ir.ValueVariable{Slot: lenAddr}, ir.ValueVariable{Slot: varSlot})
		} else {
			candMatched = b.EmitNativeCall(ir.TypeBool, ir.ProcRegexMatchLen,
				ir.ValueVariable{Slot: sliceSlot}, ir.ValueVariable{Slot: regexSlots[idx]},
				ir.ValueVariable{Slot: lenAddr}, ir.ValueVariable{Slot: varSlot})
		}

		lenLess := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: candLen}, ir.OpLess{RHS: ir.ValueVariable{Slot: matchedLen}})
		lenGeq := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: lenLess}, ir.OpNot{})
		lenEq := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: candLen}, ir.OpEqual{RHS: ir.ValueVariable{Slot: matchedLen}})
		lenNeq := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: lenEq}, ir.OpNot{})
		lenGreater := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: lenGeq}, ir.OpAnd{RHS: ir.ValueVariable{Slot: lenNeq}})
		check := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: candMatched}, ir.OpAnd{RHS: ir.ValueVariable{Slot: lenGreater}})

		overwrite := b.NewBlock()
		b.SetBlock(overwrite)
		b.EmitAssign(ir.TargetVariable{Slot: matchedBranch}, ir.TypeNumber, ir.ValueNumber{Value: big.NewInt(int64(idx))}, ir.OpAssign{})
		b.EmitAssign(ir.TargetVariable{Slot: matchedLen}, ir.TypeNumber, ir.ValueVariable{Slot: candLen}, ir.OpAssign{})
		if len(br.Capture) > 0 {
			b.EmitAssign(ir.TargetVariable{Slot: matchedAssign}, ir.TypeList, ir.ValueVariable{Slot: candAssign}, ir.OpAssign{})
		} else {
			b.EmitAssign(ir.TargetVariable{Slot: matchedAssign}, ir.TypeList, ir.ValueUndefined{}, ir.OpNativeCall{Proc: ir.ProcListNew, Args: []ir.Value{ir.ValueNumber{Value: big.NewInt(0)}}})
		}
		b.Goto(follow)

		condTarget := follow
		if br.Cond != nil {
			condBlock := b.NewBlock()
			b.SetBlock(condBlock)
			condSlot := b.NewTemp()
			b.EmitExpr(br.Cond, ir.TargetVariable{Slot: condSlot})
			b.BranchTo(ir.ValueVariable{Slot: condSlot}, overwrite, follow)
			condTarget = condBlock
		}

		b.SetBlock(current)
		b.BranchTo(ir.ValueVariable{Slot: check}, condTarget, follow)

		b.SetBlock(follow)
		if len(br.Capture) > 0 {
			b.EmitInvalidate(candAssign)
		}
		b.EmitInvalidate(candLen)

		current = follow
		follow = b.NewBlock()
	}

	dispatchFail := b.block
	for idx, br := range s.Branches {
		branchEq := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: matchedBranch}, ir.OpEqual{RHS: ir.ValueNumber{Value: big.NewInt(int64(idx))}})
		branchBlock := b.NewBlock()
		nextDispatch := b.NewBlock()
		b.BranchTo(ir.ValueVariable{Slot: branchEq}, branchBlock, nextDispatch)

		b.SetBlock(branchBlock)
		advanced := b.EmitNativeCall(ir.TypeString, ir.ProcSlice, ir.ValueVariable{Slot: sliceSlot}, ir.ValueVariable{Slot: matchedLen}, ir.ValueNumber{Value: big.NewInt(-1)})
		b.EmitAssign(ir.TargetVariable{Slot: sliceSlot}, ir.TypeString, ir.ValueVariable{Slot: advanced}, ir.OpAssign{})

		var boundNames []string
		if len(br.Capture) > 0 {
			for gi, name := range br.Capture {
				if name == "" {
					continue
				}
				slot := b.PushName(name)
				boundNames = append(boundNames, name)
				elem := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: matchedAssign}, ir.OpAccessArray{Index: ir.ValueNumber{Value: big.NewInt(int64(gi))}})
				b.EmitAssign(ir.TargetDeref{Slot: slot}, ir.TypeAny, ir.ValueVariable{Slot: elem}, ir.OpPtrDeref{})
			}
		}

		if !b.EmitBlock(br.Body) {
			for _, name := range boundNames {
				b.PopName(name)
			}
			b.Goto(checkBlock)
		}

		b.SetBlock(nextDispatch)
		dispatchFail = nextDispatch
	}
	b.SetBlock(dispatchFail)
	b.Goto(endBlock)

	b.SetBlock(endBlock)
	b.EmitInvalidate(matchedAssign)
	b.EmitInvalidate(matchedLen)
	b.EmitInvalidate(matchedBranch)
	for _, slot := range regexSlots {
		b.EmitInvalidate(slot)
	}
	b.InvalidateIfOwned(exprSlot, exprOwned)
}
