package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// catchArm is one resolved (exception-kind, handler) pair a try/catch chain
// tests in order before falling through to rethrow.
type catchArm struct {
	kinds  []int64
	exnVar string
	body   cst.Block
}

func resolveCatchArms(catches []cst.CatchBranch) []catchArm {
	var arms []catchArm
	for _, c := range catches {
		var kinds []int64
		switch c.Kind {
		case cst.CatchUser:
			kinds = []int64{ir.ExceptionUser}
		case cst.CatchLanguage:
			kinds = []int64{ir.ExceptionLanguage}
		case cst.CatchFinal:
			kinds = []int64{ir.ExceptionLanguage, ir.ExceptionUser}
		case cst.CatchBacktrack:
			kinds = []int64{ir.ExceptionBacktrack}
		}
		arms = append(arms, catchArm{kinds: kinds, exnVar: c.ExnName, body: c.Body})
	}
	return arms
}

// emitCatchChain ports catch.rs's catch_block_new, generalised over an
// ordered arm list: each arm pops (or skips, when unnamed) the caught
// exception value, runs its body with continue/break retargeted through a
// pop-and-jump shim, and falls through to the next arm's kind test on a
// mismatch. The chain's final failure edge is rethrowBlock.
func (b *Builder) emitCatchChain(arms []catchArm, nextBlock ir.BlockHandle, rethrowBlock ir.BlockHandle) ir.BlockHandle {
	target := rethrowBlock

	for i := len(arms) - 1; i >= 0; i-- {
		arm := arms[i]
		target = b.emitCatchArm(arm, nextBlock, target)
	}

	return target
}

func (b *Builder) popAndGoto(name string, dest ir.BlockHandle) ir.BlockHandle {
	if name == "" {
		return dest
	}
	blk := b.NewBlock()
	b.SetBlock(blk)
	b.EmitNativeCallIgnore(ir.ProcStackPop, ir.ValueString{Value: name})
	b.Goto(dest)
	return blk
}

func (b *Builder) emitCatchArm(arm catchArm, nextBlock ir.BlockHandle, failBlock ir.BlockHandle) ir.BlockHandle {
	catchRet := b.popAndGoto(arm.exnVar, b.ret.endBlock)
	var catchContinue, catchBreak ir.BlockHandle
	loop, hasLoop := b.currentLoop()
	if hasLoop {
		catchContinue = b.popAndGoto(arm.exnVar, loop.continueBlock)
		catchBreak = b.popAndGoto(arm.exnVar, loop.breakBlock)
	}

	mainBlock := b.NewBlock()
	b.SetBlock(mainBlock)

	if hasLoop {
		b.pushLoop(catchBreak, catchContinue)
	}
	savedRet := b.ret
	b.ret = &procRetCtx{retVar: savedRet.retVar, endBlock: catchRet}
	terminated := b.EmitBlock(arm.body)
	b.ret = savedRet
	if hasLoop {
		b.popLoop()
	}

	if !terminated {
		catchNext := b.popAndGoto(arm.exnVar, nextBlock)
		b.SetBlock(mainBlock)
		b.Goto(catchNext)
		b.SetBlock(mainBlock)
	}

	entryBlock := mainBlock
	if arm.exnVar != "" {
		entryBlock = b.NewBlock()
		b.SetBlock(entryBlock)
		b.PushName(arm.exnVar)
		b.Goto(mainBlock)
	}

	checkBlock := b.NewBlock()
	b.SetBlock(checkBlock)
	kindSlot := b.EmitTemp(ir.TypeBool, ir.ValueBool{Value: false}, ir.OpAssign{})
	for _, k := range arm.kinds {
		eq := b.EmitTemp(ir.TypeBool, ir.ValueBuiltinVar{Tag: ir.VarExceptionKind}, ir.OpEqual{RHS: ir.ValueNumber{Value: big.NewInt(k)}})
		kindSlot = b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: kindSlot}, ir.OpOr{RHS: ir.ValueVariable{Slot: eq}})
	}
	b.BranchTo(ir.ValueVariable{Slot: kindSlot}, entryBlock, failBlock)

	return checkBlock
}

func rethrowBlock(b *Builder) ir.BlockHandle {
	blk := b.NewBlock()
	b.SetBlock(blk)
	b.EmitNativeCallIgnore(ir.ProcThrow, ir.ValueBuiltinVar{Tag: ir.VarExceptionVal})
	b.MarkUnreachable()
	return blk
}

// emitTryCatch ports catch.rs's block_try_push.
func (b *Builder) emitTryCatch(t *cst.TryCatchStmt) {
	startBlock := b.block
	tryNext := b.NewBlock()
	b.SetBlock(tryNext)
	b.MarkTryEnd()

	tryRet := b.NewBlock()
	b.SetBlock(tryRet)
	b.MarkTryEnd()
	b.Goto(b.ret.endBlock)

	var tryContinue, tryBreak ir.BlockHandle
	loop, hasLoop := b.currentLoop()
	if hasLoop {
		tryContinue = b.NewBlock()
		b.SetBlock(tryContinue)
		b.MarkTryEnd()
		b.Goto(loop.continueBlock)

		tryBreak = b.NewBlock()
		b.SetBlock(tryBreak)
		b.MarkTryEnd()
		b.Goto(loop.breakBlock)
	}

	mainBlock := b.NewBlock()
	b.SetBlock(mainBlock)
	savedRet := b.ret
	b.ret = &procRetCtx{retVar: savedRet.retVar, endBlock: tryRet}
	if hasLoop {
		b.pushLoop(tryBreak, tryContinue)
	}
	terminated := b.EmitBlock(t.Try)
	if hasLoop {
		b.popLoop()
	}
	b.ret = savedRet

	if !terminated {
		b.SetBlock(mainBlock)
		b.Goto(tryNext)
	}

	rethrow := rethrowBlock(b)
	catchEntry := b.emitCatchChain(resolveCatchArms(t.Catches), tryNext, rethrow)

	b.SetBlock(startBlock)
	b.EmitTry(mainBlock, catchEntry)

	b.SetBlock(tryNext)
}

// emitCheck ports catch.rs's block_check_push: the backtracking `check`
// construct desugars to a try/catch over exception kind 2 whose handler
// runs the after-backtrack block.
func (b *Builder) emitCheck(c *cst.CheckStmt) {
	startBlock := b.block
	tryNext := b.NewBlock()
	b.SetBlock(tryNext)
	b.MarkTryEnd()

	tryRet := b.NewBlock()
	b.SetBlock(tryRet)
	b.MarkTryEnd()
	b.Goto(b.ret.endBlock)

	var tryContinue, tryBreak ir.BlockHandle
	loop, hasLoop := b.currentLoop()
	if hasLoop {
		tryContinue = b.NewBlock()
		b.SetBlock(tryContinue)
		b.MarkTryEnd()
		b.Goto(loop.continueBlock)

		tryBreak = b.NewBlock()
		b.SetBlock(tryBreak)
		b.MarkTryEnd()
		b.Goto(loop.breakBlock)
	}

	mainBlock := b.NewBlock()
	b.SetBlock(mainBlock)
	savedRet := b.ret
	b.ret = &procRetCtx{retVar: savedRet.retVar, endBlock: tryRet}
	if hasLoop {
		b.pushLoop(tryBreak, tryContinue)
	}
	terminated := b.EmitBlock(c.Body)
	if hasLoop {
		b.popLoop()
	}
	b.ret = savedRet

	if !terminated {
		b.SetBlock(mainBlock)
		b.Goto(tryNext)
	}

	rethrow := rethrowBlock(b)
	arm := catchArm{kinds: []int64{ir.ExceptionBacktrack}, body: c.AfterBacktrack}
	catchEntry := b.emitCatchChain([]catchArm{arm}, tryNext, rethrow)

	b.SetBlock(startBlock)
	b.EmitTry(mainBlock, catchEntry)

	b.SetBlock(tryNext)
}
