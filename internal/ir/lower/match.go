package lower

import (
	"setlx/internal/cst"
	"setlx/internal/ir"
)

// emitMatch ports match_stmt.rs's block_match_push, simplified to the
// common structural/equality and regex pattern forms (spec.md §4.6): every
// branch's pattern is compiled via the assignment parser in success-flagged
// mode, or via a compile+match regex pair, then an optional guard narrows a
// successful structural match before running its body. Bindings a branch's
// pattern introduces are popped on the failed pattern/guard edge and on the
// body's fall-through edge (the original's pop-shim threading through every
// continue/break/return exit is not reproduced — see DESIGN.md).
func (b *Builder) emitMatch(m *cst.MatchStmt) {
	startBlock := b.block
	endBlock := b.NewBlock()

	scrutineeSlot := b.NewTemp()
	b.SetBlock(startBlock)
	scrutineeOwned := b.EmitExpr(m.Scrutinee, ir.TargetVariable{Slot: scrutineeSlot})

	var defaultInit ir.BlockHandle
	if m.Default != nil {
		defaultInit = b.NewBlock()
		b.SetBlock(defaultInit)
		if !b.EmitBlock(*m.Default) {
			b.Goto(endBlock)
		}
	} else {
		defaultInit = endBlock
	}

	chainFail := defaultInit
	for i := len(m.Branches) - 1; i >= 0; i-- {
		br := m.Branches[i]
		test := b.NewBlock()
		b.SetBlock(test)

		var matched int
		var boundNames []string

		if br.IsRegex {
			compiled := b.EmitNativeCall(ir.TypeNativeRegex, ir.ProcRegexCompile, ir.ValueString{Value: br.Regex})
			matched = b.EmitNativeCall(ir.TypeBool, ir.ProcRegexMatch, ir.ValueVariable{Slot: compiled}, ir.ValueVariable{Slot: scrutineeSlot})
			if len(br.Capture) > 0 {
				groups := b.EmitNativeCall(ir.TypeList, ir.ProcRegexMatchGroups, ir.ValueVariable{Slot: compiled}, ir.ValueVariable{Slot: scrutineeSlot})
				for gi, name := range br.Capture {
					if name == "" {
						continue
					}
					slot := b.PushName(name)
					boundNames = append(boundNames, name)
					elem := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: groups}, ir.OpAccessArray{Index: ir.ValueNumber{Value: bigFromInt(gi)}})
					b.EmitAssign(ir.TargetDeref{Slot: slot}, ir.TypeAny, ir.ValueVariable{Slot: elem}, ir.OpPtrDeref{})
				}
			}
			b.EmitInvalidate(compiled)
		} else {
			for _, name := range patternVarNames(br.Pattern) {
				b.PushName(name)
				boundNames = append(boundNames, name)
			}
			matched = b.NewTemp()
			b.EmitAssign(ir.TargetVariable{Slot: matched}, ir.TypeBool, ir.ValueBool{Value: true}, ir.OpAssign{})
			b.AssignParse(scrutineeSlot, false, &matched, false, br.Pattern)
		}

		bodyBlock := b.NewBlock()
		failBlock := chainFail
		if len(boundNames) > 0 {
			patternEnd := b.block
			failBlock = b.NewBlock()
			b.SetBlock(failBlock)
			for _, name := range boundNames {
				b.EmitNativeCallIgnore(ir.ProcStackPop, ir.ValueString{Value: name})
			}
			b.Goto(chainFail)
			b.SetBlock(patternEnd)
		}

		if br.Cond != nil {
			condGate := b.NewBlock()
			b.BranchTo(ir.ValueVariable{Slot: matched}, condGate, failBlock)
			b.SetBlock(condGate)
			condSlot := b.NewTemp()
			b.EmitExpr(br.Cond, ir.TargetVariable{Slot: condSlot})
			b.BranchTo(ir.ValueVariable{Slot: condSlot}, bodyBlock, failBlock)
		} else {
			b.BranchTo(ir.ValueVariable{Slot: matched}, bodyBlock, failBlock)
		}

		b.SetBlock(bodyBlock)
		if !b.EmitBlock(br.Body) {
			for _, name := range boundNames {
				b.PopName(name)
			}
			b.Goto(endBlock)
		}

		chainFail = test
	}

	b.SetBlock(startBlock)
	b.Goto(chainFail)

	b.SetBlock(endBlock)
	b.InvalidateIfOwned(scrutineeSlot, scrutineeOwned)
}
