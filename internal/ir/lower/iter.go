package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

func bigFromInt(i int) *big.Int { return big.NewInt(int64(i)) }

// iterBinding is one `(pattern in collection)` clause lowered to its
// runtime iterator slot plus the set of variable names the pattern binds.
type iterBinding struct {
	iterSlot int
	vars     []iterVar
}

type iterVar struct {
	name string
	slot int
}

// ExprMod is the continuation invoked once every iterator clause has
// produced a fresh binding and the optional filter passed; it runs in the
// "next" block and must end by jumping to backtrackBlock (spec.md §4.4
// "iteration is driven to exhaustion by looping back through backtrack").
type ExprMod func(b *Builder, nextBlock, backtrackBlock, followBlock ir.BlockHandle)

// EmitIterator ports iter.rs's block_iterator_push: the generic N-ary
// iterator scaffold shared by for-statements, comprehensions, and
// quantifiers. It opens one runtime iterator per param, threads a
// backtrack chain that falls back to the previous param's iterator on
// exhaustion,
// unifies any name bound by more than one pattern, applies an optional
// filter, then hands control to mod. Every binding and iterator is torn
// down on the follow block once the whole chain is exhausted.
func (b *Builder) EmitIterator(params []cst.IterParam, filter cst.Expr, mod ExprMod) {
	startBlock := b.block
	var ownedExprSlots []int
	bindings := make([]iterBinding, 0, len(params))

	for _, p := range params {
		exprSlot := b.NewTemp()
		owned := b.EmitExpr(p.Collection, ir.TargetVariable{Slot: exprSlot})
		if owned {
			ownedExprSlots = append(ownedExprSlots, exprSlot)
		}

		iterSlot := b.EmitNativeCall(ir.TypeIterator, ir.ProcIterNew, ir.ValueVariable{Slot: exprSlot})

		var vars []iterVar
		for _, name := range patternVarNames(p.Pattern) {
			slot := b.EmitNativeCall(ir.TypePtr, ir.ProcStackAdd, ir.ValueString{Value: name})
			b.scope[name] = append(b.scope[name], slot)
			vars = append(vars, iterVar{name: name, slot: slot})
		}

		bindings = append(bindings, iterBinding{iterSlot: iterSlot, vars: vars})
	}

	followBlock := b.NewBlock()
	b.SetBlock(followBlock)
	for i := len(bindings) - 1; i >= 0; i-- {
		for j := len(bindings[i].vars) - 1; j >= 0; j-- {
			v := bindings[i].vars[j]
			b.EmitNativeCallIgnore(ir.ProcStackPop, ir.ValueString{Value: v.name})
			stk := b.scope[v.name]
			if len(stk) > 0 {
				b.scope[v.name] = stk[:len(stk)-1]
			}
		}
	}

	backtrackBlock := followBlock
	nextBlock := b.NewBlock()
	b.SetBlock(startBlock)
	b.Goto(nextBlock)

	for idx, bind := range bindings {
		currentBlock := nextBlock
		nextBlock = b.NewBlock()

		b.SetBlock(currentBlock)
		entrySlot := b.EmitTemp(ir.TypeUndefined, ir.ValueUndefined{}, ir.OpAssign{})
		entryAddr := b.EmitTemp(ir.TypePtr, ir.ValueVariable{Slot: entrySlot}, ir.OpPtrAddress{})
		hasNext := b.EmitTemp(ir.TypeBool, ir.ValueUndefined{}, ir.OpNativeCall{
			Proc: ir.ProcIterNext,
			Args: []ir.Value{ir.ValueVariable{Slot: bind.iterSlot}, ir.ValueVariable{Slot: entryAddr}},
		})

		b.SetBlock(nextBlock)
		b.bindPattern(params[idx].Pattern, entrySlot)
		b.EmitInvalidate(hasNext)

		b.SetBlock(backtrackBlock)
		b.EmitInvalidate(hasNext)

		b.SetBlock(currentBlock)
		b.BranchTo(ir.ValueVariable{Slot: hasNext}, nextBlock, backtrackBlock)

		backtrackBlock = currentBlock
	}

	// Unify duplicate-named bindings across clauses (spec.md §4.4 "repeated
	// pattern names across clauses unify rather than shadow").
	dupGroups := collectDuplicateVars(bindings)
	if len(dupGroups) > 0 {
		b.SetBlock(nextBlock)
		resSlot := b.EmitTemp(ir.TypeBool, ir.ValueBool{Value: true}, ir.OpAssign{})
		for _, group := range dupGroups {
			if len(group) < 2 {
				continue
			}
			firstVal := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: group[0]}, ir.OpPtrDeref{})
			for _, slot := range group[1:] {
				val := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: slot}, ir.OpPtrDeref{})
				eq := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: firstVal}, ir.OpEqual{RHS: ir.ValueVariable{Slot: val}})
				resSlot = b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: eq}, ir.OpAnd{RHS: ir.ValueVariable{Slot: resSlot}})
			}
		}

		currentBlock := nextBlock
		nextBlock = b.NewBlock()
		b.SetBlock(nextBlock)
		b.EmitInvalidate(resSlot)
		b.SetBlock(backtrackBlock)
		b.EmitInvalidate(resSlot)
		b.SetBlock(currentBlock)
		b.BranchTo(ir.ValueVariable{Slot: resSlot}, nextBlock, backtrackBlock)
		backtrackBlock = currentBlock
	}

	if filter != nil {
		currentBlock := nextBlock
		nextBlock = b.NewBlock()
		b.SetBlock(currentBlock)
		condSlot := b.NewTemp()
		condOwned := b.EmitExpr(filter, ir.TargetVariable{Slot: condSlot})
		if condOwned {
			b.SetBlock(nextBlock)
			b.EmitInvalidate(condSlot)
			b.SetBlock(backtrackBlock)
			b.EmitInvalidate(condSlot)
			b.SetBlock(currentBlock)
		}
		b.BranchTo(ir.ValueVariable{Slot: condSlot}, nextBlock, backtrackBlock)
		backtrackBlock = currentBlock
	}

	b.SetBlock(nextBlock)
	mod(b, nextBlock, backtrackBlock, followBlock)

	b.SetBlock(followBlock)
	for _, slot := range ownedExprSlots {
		b.EmitInvalidate(slot)
	}
}

// patternVarNames collects every variable name an iterator pattern binds,
// recursing into nested list/ignore shapes.
func patternVarNames(pattern cst.Expr) []string {
	switch p := pattern.(type) {
	case *cst.Variable:
		return []string{p.Name}
	case *cst.Ignore:
		return nil
	case *cst.Collection:
		var names []string
		for _, e := range p.Elems {
			names = append(names, patternVarNames(e)...)
		}
		return names
	default:
		return nil
	}
}

// bindPattern writes the freshly iterated value (held in valueSlot) into
// the runtime slots a pattern's names were pushed onto during EmitIterator.
// Delegates to the full assignment-pattern parser (assign.go) in assertion
// mode, so a collection pattern with the wrong shape asserts at runtime
// rather than silently ignoring the extra/missing elements.
func (b *Builder) bindPattern(pattern cst.Expr, valueSlot int) {
	b.AssignParse(valueSlot, true, nil, false, pattern)
}

func collectDuplicateVars(bindings []iterBinding) [][]int {
	order := make([]string, 0)
	groups := make(map[string][]int)
	for _, bind := range bindings {
		for _, v := range bind.vars {
			if _, ok := groups[v.name]; !ok {
				order = append(order, v.name)
			}
			groups[v.name] = append(groups[v.name], v.slot)
		}
	}
	out := make([][]int, 0, len(order))
	for _, name := range order {
		out = append(out, groups[name])
	}
	return out
}
