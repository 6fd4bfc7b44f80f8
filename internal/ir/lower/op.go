package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// emitBinary ports op_expr.rs's block_op_push: lower both operands into
// fresh temps, desugar the comparison/implication forms that have no
// direct IR op, then invalidate whichever operand was owned.
func (b *Builder) emitBinary(e *cst.BinaryExpr, target ir.Target) bool {
	leftSlot := b.NewTemp()
	leftOwned := b.EmitExpr(e.Left, ir.TargetVariable{Slot: leftSlot})

	rightSlot := b.NewTemp()
	rightOwned := b.EmitExpr(e.Right, ir.TargetVariable{Slot: rightSlot})

	left := ir.ValueVariable{Slot: leftSlot}
	right := ir.ValueVariable{Slot: rightSlot}

	b.applyBinaryOp(e.Op, target, left, right)

	b.InvalidateIfOwned(leftSlot, leftOwned)
	b.InvalidateIfOwned(rightSlot, rightOwned)
	return false
}

// applyBinaryOp emits the desugared form of op against two already-evaluated
// operand values, shared by emitBinary and compound-assignment lowering.
func (b *Builder) applyBinaryOp(op cst.BinaryOp, target ir.Target, left, right ir.Value) {
	switch op {
	case cst.OpImpl:
		// t := !left; target := t || right; invalidate(t);
		t := b.EmitTemp(ir.TypeBool, left, ir.OpNot{})
		b.EmitAssign(target, ir.TypeBool, ir.ValueVariable{Slot: t}, ir.OpOr{RHS: right})
		b.EmitInvalidate(t)
	case cst.OpOr:
		b.EmitAssign(target, ir.TypeBool, left, ir.OpOr{RHS: right})
	case cst.OpAnd:
		b.EmitAssign(target, ir.TypeBool, left, ir.OpAnd{RHS: right})
	case cst.OpEqual:
		b.EmitAssign(target, ir.TypeBool, left, ir.OpEqual{RHS: right})
	case cst.OpNotEqual:
		t := b.EmitTemp(ir.TypeBool, left, ir.OpEqual{RHS: right})
		b.EmitAssign(target, ir.TypeBool, ir.ValueVariable{Slot: t}, ir.OpNot{})
		b.EmitInvalidate(t)
	case cst.OpLess:
		b.EmitAssign(target, ir.TypeBool, left, ir.OpLess{RHS: right})
	case cst.OpLessEq:
		// t1 := left < right; t2 := left == right; target := t1 || t2;
		t1 := b.EmitTemp(ir.TypeBool, left, ir.OpLess{RHS: right})
		t2 := b.EmitTemp(ir.TypeBool, left, ir.OpEqual{RHS: right})
		b.EmitAssign(target, ir.TypeBool, ir.ValueVariable{Slot: t1}, ir.OpOr{RHS: ir.ValueVariable{Slot: t2}})
		b.EmitInvalidate(t1)
		b.EmitInvalidate(t2)
	case cst.OpGreater:
		b.EmitAssign(target, ir.TypeBool, right, ir.OpLess{RHS: left})
	case cst.OpGreaterEq:
		t1 := b.EmitTemp(ir.TypeBool, right, ir.OpLess{RHS: left})
		t2 := b.EmitTemp(ir.TypeBool, left, ir.OpEqual{RHS: right})
		b.EmitAssign(target, ir.TypeBool, ir.ValueVariable{Slot: t1}, ir.OpOr{RHS: ir.ValueVariable{Slot: t2}})
		b.EmitInvalidate(t1)
		b.EmitInvalidate(t2)
	case cst.OpIn:
		b.EmitAssign(target, ir.TypeBool, ir.ValueUndefined{}, ir.OpNativeCall{Proc: ir.ProcContains, Args: []ir.Value{left, right}})
	case cst.OpNotIn:
		t := b.EmitTemp(ir.TypeBool, ir.ValueUndefined{}, ir.OpNativeCall{Proc: ir.ProcContains, Args: []ir.Value{left, right}})
		b.EmitAssign(target, ir.TypeBool, ir.ValueVariable{Slot: t}, ir.OpNot{})
		b.EmitInvalidate(t)
	case cst.OpPlus:
		b.EmitAssign(target, ir.TypePlus, left, ir.OpPlus{RHS: right})
	case cst.OpMinus:
		b.EmitAssign(target, ir.TypeMinus, left, ir.OpMinus{RHS: right})
	case cst.OpMult:
		b.EmitAssign(target, ir.TypeMul, left, ir.OpMult{RHS: right})
	case cst.OpDivide:
		b.EmitAssign(target, ir.TypeQuot, left, ir.OpDivide{RHS: right})
	case cst.OpIntDivide:
		b.EmitAssign(target, ir.TypeQuot, left, ir.OpIntDivide{RHS: right})
	case cst.OpMod:
		b.EmitAssign(target, ir.TypeNumber|ir.TypeDouble|ir.TypeMatrix|ir.TypeVector, left, ir.OpMod{RHS: right})
	default:
		panic("lower: unhandled binary operator")
	}
}

// emitUnary ports unary_op_expr.rs. Fold/factorial variants build their own
// counting loop inline; the rest are a single native call or op.
func (b *Builder) emitUnary(e *cst.UnaryExpr, target ir.Target) bool {
	source := b.NewTemp()
	sourceOwned := b.EmitExpr(e.Operand, ir.TargetVariable{Slot: source})
	src := ir.ValueVariable{Slot: source}

	switch e.Op {
	case cst.OpNeg:
		b.EmitAssign(target, ir.TypeMinus, ir.ValueNumber{Value: big.NewInt(0)}, ir.OpMinus{RHS: src})
	case cst.OpAmount:
		b.EmitAssign(target, ir.TypeNumber, ir.ValueUndefined{}, ir.OpNativeCall{Proc: ir.ProcAmount, Args: []ir.Value{src}})
	case cst.OpNot:
		b.EmitAssign(target, ir.TypeBool, src, ir.OpNot{})
	case cst.OpFoldPlus:
		b.emitFoldLoop(target, source, ir.ValueNumber{Value: big.NewInt(0)}, true)
	case cst.OpFoldMult:
		b.emitFoldLoop(target, source, ir.ValueNumber{Value: big.NewInt(1)}, false)
	case cst.OpFactorial:
		b.emitFactorial(target, source)
	default:
		panic("lower: unhandled unary operator")
	}

	b.InvalidateIfOwned(source, sourceOwned)
	return false
}

// emitFoldLoop ports the SumMem/ProdMem arms of unary_op_expr.rs: accumulate
// over an iterator with a running total seeded by zero (sum) or one (prod).
func (b *Builder) emitFoldLoop(target ir.Target, source int, seed ir.Value, isSum bool) {
	seedType := ir.TypeNumber
	tTarget := b.EmitTemp(seedType, seed, ir.OpAssign{})
	tIter := b.EmitNativeCall(ir.TypeIterator, ir.ProcIterNew, ir.ValueVariable{Slot: source})

	checkBlock := b.NewBlock()
	loopBlock := b.NewBlock()
	followBlock := b.NewBlock()
	b.Goto(checkBlock)

	b.SetBlock(checkBlock)
	tI := b.EmitTemp(ir.TypeUndefined, ir.ValueUndefined{}, ir.OpAssign{})
	tIAddr := b.EmitTemp(ir.TypePtr, ir.ValueVariable{Slot: tI}, ir.OpPtrAddress{})
	tCond := b.EmitTemp(ir.TypeBool, ir.ValueUndefined{}, ir.OpNativeCall{Proc: ir.ProcIterNext, Args: []ir.Value{ir.ValueVariable{Slot: tIter}, ir.ValueVariable{Slot: tIAddr}}})
	b.BranchTo(ir.ValueVariable{Slot: tCond}, loopBlock, followBlock)

	b.SetBlock(loopBlock)
	var tNew int
	if isSum {
		tNew = b.EmitTemp(ir.TypePlus, ir.ValueVariable{Slot: tTarget}, ir.OpPlus{RHS: ir.ValueVariable{Slot: tI}})
	} else {
		tNew = b.EmitTemp(ir.TypeMul, ir.ValueVariable{Slot: tTarget}, ir.OpMult{RHS: ir.ValueVariable{Slot: tI}})
	}
	b.EmitInvalidate(tTarget)
	b.EmitInvalidate(tCond)
	b.EmitAssign(ir.TargetVariable{Slot: tTarget}, ir.TypePlus, ir.ValueVariable{Slot: tNew}, ir.OpAssign{})
	b.Goto(checkBlock)

	b.SetBlock(followBlock)
	b.EmitInvalidate(tIter)
	b.EmitInvalidate(tCond)
	b.EmitAssign(target, ir.TypeAny, ir.ValueVariable{Slot: tTarget}, ir.OpAssign{})
}

// emitFactorial ports the Factor arm: asserts a non-negative number then
// counts down, multiplying into a running product. A discarded result
// (Ignore target) skips the whole computation, matching the original's
// early return.
func (b *Builder) emitFactorial(target ir.Target, source int) {
	if _, ignore := target.(ir.TargetIgnore); ignore {
		return
	}

	src := ir.ValueVariable{Slot: source}
	b.EmitNativeCallIgnore(ir.ProcTypeAssert, src, ir.ValueType{Mask: ir.TypeNumber})
	tAssertLz := b.EmitTemp(ir.TypeBool, src, ir.OpLess{RHS: ir.ValueNumber{Value: big.NewInt(0)}})
	tAssert := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: tAssertLz}, ir.OpNot{})
	b.EmitNativeCallIgnore(ir.ProcAssert, ir.ValueVariable{Slot: tAssert})
	b.EmitInvalidate(tAssertLz)
	b.EmitInvalidate(tAssert)

	tI := b.EmitTemp(ir.TypeNumber, src, ir.OpAssign{})
	tTarget := b.EmitTemp(ir.TypeNumber, ir.ValueNumber{Value: big.NewInt(1)}, ir.OpAssign{})

	checkBlock := b.NewBlock()
	loopBlock := b.NewBlock()
	followBlock := b.NewBlock()
	b.Goto(checkBlock)

	b.SetBlock(checkBlock)
	tCheck := b.EmitTemp(ir.TypeBool, ir.ValueNumber{Value: big.NewInt(0)}, ir.OpLess{RHS: ir.ValueVariable{Slot: tI}})
	b.BranchTo(ir.ValueVariable{Slot: tCheck}, loopBlock, followBlock)

	b.SetBlock(loopBlock)
	tTargetNew := b.EmitTemp(ir.TypeMul, ir.ValueVariable{Slot: tTarget}, ir.OpMult{RHS: ir.ValueVariable{Slot: tI}})
	tINew := b.EmitTemp(ir.TypeMinus, ir.ValueVariable{Slot: tI}, ir.OpMinus{RHS: ir.ValueNumber{Value: big.NewInt(1)}})
	b.EmitInvalidate(tTarget)
	b.EmitInvalidate(tI)
	b.EmitInvalidate(tCheck)
	b.EmitAssign(ir.TargetVariable{Slot: tTarget}, ir.TypeMul, ir.ValueVariable{Slot: tTargetNew}, ir.OpAssign{})
	b.EmitAssign(ir.TargetVariable{Slot: tI}, ir.TypeMinus, ir.ValueVariable{Slot: tINew}, ir.OpAssign{})
	b.Goto(checkBlock)

	b.SetBlock(followBlock)
	b.EmitInvalidate(tCheck)
	b.EmitInvalidate(tI)
	b.EmitAssign(target, ir.TypeMul, ir.ValueVariable{Slot: tTarget}, ir.OpAssign{})
}
