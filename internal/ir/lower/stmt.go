package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// procRetCtx names where a return statement writes its value and which
// block picks it up (spec.md §4.7's ret_var/end_block indirection — the
// indirection lets a cached procedure's end block run cache_add before the
// return block pops the stack frame and returns).
type procRetCtx struct {
	retVar   int
	endBlock ir.BlockHandle
}

// EmitBlock ports stmt/mod.rs's block_populate: lower every statement of a
// CST block in order, returning true once a statement has terminated the
// current block (return/exit/backtrack/break/continue), so the caller knows
// not to append a fallthrough edge.
func (b *Builder) EmitBlock(blk cst.Block) bool {
	for _, stmt := range blk.Stmts {
		if b.EmitStmt(stmt) {
			return true
		}
	}
	return false
}

// EmitStmt lowers one statement into the current block and reports whether
// it terminated the block.
func (b *Builder) EmitStmt(stmt cst.Stmt) bool {
	switch s := stmt.(type) {
	case *cst.ExprStmt:
		tmp := b.NewTemp()
		owned := b.EmitExpr(s.Expr, ir.TargetVariable{Slot: tmp})
		b.InvalidateIfOwned(tmp, owned)
		return false

	case *cst.AssignStmt:
		b.emitAssignStmt(s)
		return false

	case *cst.CompoundAssignStmt:
		b.emitCompoundAssign(s)
		return false

	case *cst.IfStmt:
		b.emitIfSwitch(s.Branches, s.Else)
		return false

	case *cst.SwitchStmt:
		b.emitIfSwitch(s.Branches, s.Default)
		return false

	case *cst.WhileStmt:
		b.emitWhile(s)
		return false

	case *cst.DoWhileStmt:
		b.emitDoWhile(s)
		return false

	case *cst.ForStmt:
		b.emitFor(s)
		return false

	case *cst.TryCatchStmt:
		b.emitTryCatch(s)
		return false

	case *cst.CheckStmt:
		b.emitCheck(s)
		return false

	case *cst.BacktrackStmt:
		b.EmitNativeCallIgnore(ir.ProcThrow, ir.ValueNumber{Value: big.NewInt(ir.ExceptionBacktrack)}, ir.ValueString{Value: ""})
		b.MarkUnreachable()
		return true

	case *cst.MatchStmt:
		b.emitMatch(s)
		return false

	case *cst.ScanStmt:
		b.emitScan(s)
		return false

	case *cst.ClassStmt:
		b.emitClass(s)
		return false

	case *cst.ReturnStmt:
		b.emitReturn(s)
		return true

	case *cst.ExitStmt:
		b.EmitNativeCallIgnore(ir.ProcExit, ir.ValueNumber{Value: big.NewInt(0)})
		b.MarkUnreachable()
		return true

	case *cst.BreakStmt:
		loop, ok := b.currentLoop()
		if !ok {
			panic("lower: break outside loop")
		}
		b.Goto(loop.breakBlock)
		return true

	case *cst.ContinueStmt:
		loop, ok := b.currentLoop()
		if !ok {
			panic("lower: continue outside loop")
		}
		b.Goto(loop.continueBlock)
		return true

	default:
		panic("lower: unhandled statement")
	}
}

func (b *Builder) emitReturn(s *cst.ReturnStmt) {
	retVar := b.ret.retVar
	if s.Value != nil {
		owned := b.EmitExpr(s.Value, ir.TargetVariable{Slot: retVar})
		if !owned {
			b.EmitAssign(ir.TargetVariable{Slot: retVar}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcCopy, Args: []ir.Value{ir.ValueVariable{Slot: retVar}},
			})
		}
	} else {
		b.EmitAssign(ir.TargetVariable{Slot: retVar}, ir.TypeUndefined, ir.ValueUndefined{}, ir.OpAssign{})
	}
	b.Goto(b.ret.endBlock)
}

func (b *Builder) emitAssignStmt(s *cst.AssignStmt) {
	tmp := b.NewTemp()
	owned := b.EmitExpr(s.Value, ir.TargetVariable{Slot: tmp})

	for i, target := range s.Targets {
		if i == len(s.Targets)-1 {
			b.AssignParse(tmp, owned, nil, false, target)
			continue
		}
		copySlot := b.NewTemp()
		b.EmitAssign(ir.TargetVariable{Slot: copySlot}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
			Proc: ir.ProcCopy, Args: []ir.Value{ir.ValueVariable{Slot: tmp}},
		})
		b.AssignParse(copySlot, true, nil, false, target)
	}
}

func (b *Builder) emitCompoundAssign(s *cst.CompoundAssignStmt) {
	switch t := s.Target.(type) {
	case *cst.Variable:
		slot, ok := b.LookupName(t.Name)
		if !ok {
			slot = b.EmitNativeCall(ir.TypePtr, ir.ProcStackGetAssert, ir.ValueString{Value: t.Name})
		}
		b.compoundAssignInto(slot, s.Op, s.Value)

	case *cst.AccessExpr:
		addrSlot := b.NewTemp()
		owned := b.emitAccessRef(t, ir.TargetVariable{Slot: addrSlot})
		b.compoundAssignInto(addrSlot, s.Op, s.Value)
		if owned >= 0 {
			b.EmitInvalidate(owned)
		}

	default:
		panic("lower: unsupported compound-assign target")
	}
}

func (b *Builder) compoundAssignInto(addrSlot int, op cst.BinaryOp, rhsExpr cst.Expr) {
	cur := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: addrSlot}, ir.OpPtrDeref{})

	rhsSlot := b.NewTemp()
	rhsOwned := b.EmitExpr(rhsExpr, ir.TargetVariable{Slot: rhsSlot})

	resultSlot := b.NewTemp()
	b.applyBinaryOp(op, ir.TargetVariable{Slot: resultSlot}, ir.ValueVariable{Slot: cur}, ir.ValueVariable{Slot: rhsSlot})

	b.InvalidateIfOwned(rhsSlot, rhsOwned)
	b.EmitInvalidate(cur)
	b.EmitAssign(ir.TargetDeref{Slot: addrSlot}, ir.TypeAny, ir.ValueVariable{Slot: resultSlot}, ir.OpPtrDeref{})
}

// emitIfSwitch ports if_stmt.rs's block_if_push: the else/default body is
// built first so every preceding branch's failure edge can target it
// directly, then branches are wired in reverse so branch[0]'s test runs
// first in the final block order.
func (b *Builder) emitIfSwitch(branches []cst.IfBranch, elseBlock *cst.Block) {
	startBlock := b.block
	endBlock := b.NewBlock()

	elseInit := endBlock
	if elseBlock != nil {
		elseInit = b.NewBlock()
		b.SetBlock(elseInit)
		if !b.EmitBlock(*elseBlock) {
			b.Goto(endBlock)
		}
	}

	for i := len(branches) - 1; i >= 0; i-- {
		branch := branches[i]
		current := b.NewBlock()
		branchBlock := b.NewBlock()

		b.SetBlock(current)
		condSlot := b.NewTemp()
		b.EmitExpr(branch.Cond, ir.TargetVariable{Slot: condSlot})
		b.BranchTo(ir.ValueVariable{Slot: condSlot}, branchBlock, elseInit)

		b.SetBlock(branchBlock)
		if !b.EmitBlock(branch.Body) {
			b.Goto(endBlock)
		}

		elseInit = current
	}

	b.SetBlock(startBlock)
	b.Goto(elseInit)
	b.SetBlock(endBlock)
}

// emitWhile ports while_stmt.rs's block_while_push.
func (b *Builder) emitWhile(w *cst.WhileStmt) {
	condBlock := b.NewBlock()
	followBlock := b.NewBlock()
	b.Goto(condBlock)

	b.SetBlock(condBlock)
	condSlot := b.NewTemp()
	b.EmitExpr(w.Cond, ir.TargetVariable{Slot: condSlot})

	loopBlock := b.NewBlock()
	b.BranchTo(ir.ValueVariable{Slot: condSlot}, loopBlock, followBlock)

	b.SetBlock(loopBlock)
	b.pushLoop(followBlock, condBlock)
	if !b.EmitBlock(w.Body) {
		b.Goto(condBlock)
	}
	b.popLoop()

	b.SetBlock(followBlock)
}

// emitDoWhile ports while_stmt.rs's block_do_while_push: the loop body runs
// once unconditionally before the first condition check.
func (b *Builder) emitDoWhile(w *cst.DoWhileStmt) {
	condBlock := b.NewBlock()
	followBlock := b.NewBlock()
	loopBlock := b.NewBlock()
	b.Goto(loopBlock)

	b.SetBlock(condBlock)
	condSlot := b.NewTemp()
	b.EmitExpr(w.Cond, ir.TargetVariable{Slot: condSlot})
	b.BranchTo(ir.ValueVariable{Slot: condSlot}, loopBlock, followBlock)

	b.SetBlock(loopBlock)
	b.pushLoop(followBlock, condBlock)
	if !b.EmitBlock(w.Body) {
		b.Goto(condBlock)
	}
	b.popLoop()

	b.SetBlock(followBlock)
}

// emitFor ports for_stmt.rs's block_for_push atop the shared iterator
// scaffold: continue targets the backtrack chain, break targets the follow
// block.
func (b *Builder) emitFor(f *cst.ForStmt) {
	b.EmitIterator(f.Params, f.Filter, func(b *Builder, nextBlock, backtrackBlock, followBlock ir.BlockHandle) {
		b.pushLoop(followBlock, backtrackBlock)
		if !b.EmitBlock(f.Body) {
			b.Goto(backtrackBlock)
		}
		b.popLoop()
	})
}
