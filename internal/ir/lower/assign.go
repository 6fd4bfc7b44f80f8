package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// AssignParse ports assign.rs's assign_parse: compile a CST pattern against
// a known value held in tmp. When succeeded is nil this runs in assertion
// mode (every failed match panics via assert(false) at runtime); when
// succeeded names a bool slot, every match point's condition is ANDed into
// that slot and the caller observes pass/fail there instead of unwinding
// (spec.md §4.5,
// used by match-statement case branches). condRest relaxes a list/set
// pattern's length check from equality to "at least" when the pattern
// ends in a rest-binding.
func (b *Builder) AssignParse(tmp int, isOwned bool, succeeded *int, condRest bool, pattern cst.Expr) {
	switch p := pattern.(type) {
	case *cst.Ignore:
		b.InvalidateIfOwned(tmp, isOwned)
		b.markSucceeded(succeeded, true)

	case *cst.Variable:
		if !isOwned {
			b.EmitAssign(ir.TargetVariable{Slot: tmp}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcCopy, Args: []ir.Value{ir.ValueVariable{Slot: tmp}},
			})
		}
		if slot, ok := b.LookupName(p.Name); ok {
			b.EmitAssign(ir.TargetDeref{Slot: slot}, ir.TypeAny, ir.ValueVariable{Slot: tmp}, ir.OpPtrDeref{})
		} else {
			slot := b.EmitNativeCall(ir.TypePtr, ir.ProcStackAdd, ir.ValueString{Value: p.Name})
			b.EmitAssign(ir.TargetDeref{Slot: slot}, ir.TypeAny, ir.ValueVariable{Slot: tmp}, ir.OpPtrDeref{})
		}
		b.markSucceeded(succeeded, true)

	case *cst.AccessExpr:
		if !isOwned {
			b.EmitAssign(ir.TargetVariable{Slot: tmp}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcCopy, Args: []ir.Value{ir.ValueVariable{Slot: tmp}},
			})
		}
		addrSlot := b.NewTemp()
		addrOwned := b.emitAccessRef(p, ir.TargetVariable{Slot: addrSlot})
		b.EmitAssign(ir.TargetDeref{Slot: addrSlot}, ir.TypeAny, ir.ValueVariable{Slot: tmp}, ir.OpPtrDeref{})
		if addrOwned >= 0 {
			b.EmitInvalidate(addrOwned)
		}
		b.markSucceeded(succeeded, true)

	case *cst.Collection:
		b.assignParseList(tmp, isOwned, succeeded, condRest, p)

	case *cst.TermExpr:
		b.assignParseTerm(tmp, isOwned, succeeded, p)

	case *cst.BoolLit:
		cond := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: tmp}, ir.OpEqual{RHS: ir.ValueBool{Value: p.Value}})
		b.InvalidateIfOwned(tmp, isOwned)
		b.assertOrBranch(succeeded, cond)

	case *cst.NumberLit:
		n := new(big.Int)
		n.SetString(p.Value, 10)
		cond := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: tmp}, ir.OpEqual{RHS: ir.ValueNumber{Value: n}})
		b.InvalidateIfOwned(tmp, isOwned)
		b.assertOrBranch(succeeded, cond)

	case *cst.Literal:
		cond := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: tmp}, ir.OpEqual{RHS: ir.ValueString{Value: p.Value}})
		b.InvalidateIfOwned(tmp, isOwned)
		b.assertOrBranch(succeeded, cond)

	case *cst.CallExpr:
		// Runtime AST-node pattern: kind "call" whose head/args structurally
		// match (spec.md §4.5's last table row). Reflection-based matching is
		// delegated to the AST-reflection lowering (C13).
		b.assignParseCall(tmp, isOwned, succeeded, p)

	default:
		b.InvalidateIfOwned(tmp, isOwned)
		b.markSucceeded(succeeded, true)
	}
}

// markSucceeded conjoins ok into the caller's success slot. A bare pattern
// (Ignore, Variable, AccessExpr, the default case) always matches, so ok is
// always true here and the conjunction is a no-op: *succeeded already holds
// the running AND of every earlier sub-pattern and must not be clobbered.
func (b *Builder) markSucceeded(succeeded *int, ok bool) {
	if succeeded == nil || ok {
		return
	}
	b.EmitAssign(ir.TargetVariable{Slot: *succeeded}, ir.TypeBool, ir.ValueBool{Value: false}, ir.OpAssign{})
}

// assertOrBranch discharges a boolean match condition either by asserting
// it (panicking on false) or by conjoining it into the caller's running
// success slot, so a pattern's Nth sub-match failing doesn't get masked by
// the (N+1)th sub-match succeeding (spec.md §4.5: any assignment failure
// falls through to the next case). The caller is responsible for seeding
// *succeeded to true before the first AssignParse call.
func (b *Builder) assertOrBranch(succeeded *int, cond int) {
	if succeeded == nil {
		b.EmitNativeCallIgnore(ir.ProcAssert, ir.ValueVariable{Slot: cond})
		b.EmitInvalidate(cond)
		return
	}
	b.EmitAssign(ir.TargetVariable{Slot: *succeeded}, ir.TypeBool, ir.ValueVariable{Slot: *succeeded}, ir.OpAnd{RHS: ir.ValueVariable{Slot: cond}})
	b.EmitInvalidate(cond)
}

func (b *Builder) assignParseList(tmp int, isOwned bool, succeeded *int, condRest bool, p *cst.Collection) {
	n := big.NewInt(int64(len(p.Elems)))
	lenSlot := b.EmitNativeCall(ir.TypeNumber, ir.ProcAmount, ir.ValueVariable{Slot: tmp})

	var lenCond int
	if condRest || p.Rest != nil {
		lenCond = b.EmitTemp(ir.TypeBool, ir.ValueNumber{Value: n}, ir.OpLess{RHS: ir.ValueVariable{Slot: lenSlot}})
		eq := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: lenSlot}, ir.OpEqual{RHS: ir.ValueNumber{Value: n}})
		lenCond = b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: lenCond}, ir.OpOr{RHS: ir.ValueVariable{Slot: eq}})
	} else {
		lenCond = b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: lenSlot}, ir.OpEqual{RHS: ir.ValueNumber{Value: n}})
	}
	b.EmitInvalidate(lenSlot)
	b.assertOrBranch(succeeded, lenCond)

	for i, elem := range p.Elems {
		elemSlot := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: tmp}, ir.OpAccessArray{Index: ir.ValueNumber{Value: big.NewInt(int64(i))}})
		b.AssignParse(elemSlot, false, succeeded, false, elem)
	}

	if p.Rest != nil {
		restSlot := b.EmitNativeCall(ir.TypeAny, ir.ProcSlice, ir.ValueVariable{Slot: tmp}, ir.ValueNumber{Value: n}, ir.ValueNumber{Value: big.NewInt(-1)})
		b.AssignParse(restSlot, true, succeeded, false, p.Rest)
	}

	b.InvalidateIfOwned(tmp, isOwned)
}

func (b *Builder) assignParseTerm(tmp int, isOwned bool, succeeded *int, p *cst.TermExpr) {
	kindType := ir.TypeTerm
	if !p.IsTerm {
		kindType = ir.TypeTTerm
	}
	kindCond := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: tmp}, ir.OpNativeCall{
		Proc: ir.ProcTermKindEq,
		Args: []ir.Value{ir.ValueString{Value: p.Name}, ir.ValueNumber{Value: big.NewInt(int64(len(p.Args)))}, ir.ValueType{Mask: kindType}},
	})
	b.assertOrBranch(succeeded, kindCond)

	for i, arg := range p.Args {
		argSlot := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: tmp}, ir.OpAccessArray{Index: ir.ValueNumber{Value: big.NewInt(int64(i + 1))}})
		b.AssignParse(argSlot, false, succeeded, false, arg)
	}

	b.InvalidateIfOwned(tmp, isOwned)
}

func (b *Builder) assignParseCall(tmp int, isOwned bool, succeeded *int, p *cst.CallExpr) {
	// Structural AST match against a runtime-reflected call node: compare
	// node kind, then head and each argument recursively.
	name, isVar := p.Callee.(*cst.Variable)
	if isVar {
		kindCond := b.EmitTemp(ir.TypeBool, ir.ValueUndefined{}, ir.OpNativeCall{
			Proc: ir.ProcAstNodeKindStrEq,
			Args: []ir.Value{ir.ValueVariable{Slot: tmp}, ir.ValueString{Value: "call"}, ir.ValueString{Value: name.Name}},
		})
		b.assertOrBranch(succeeded, kindCond)
	}
	for i, arg := range p.Args {
		argSlot := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: tmp}, ir.OpAccessArray{Index: ir.ValueNumber{Value: big.NewInt(int64(i + 1))}})
		b.AssignParse(argSlot, false, succeeded, false, arg)
	}
	b.InvalidateIfOwned(tmp, isOwned)
}
