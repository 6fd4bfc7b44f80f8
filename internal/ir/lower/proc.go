package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// collectAssignedNames walks a procedure body gathering every name an
// assignment target or call/term head mentions, mirroring proc.rs's
// procedure_vars_aggregate/expr_vars_push: every such name gets a runtime
// binding pre-allocated at procedure entry so a forward reference inside a
// loop or branch resolves to the same slot the lexical map later updates.
func collectAssignedNames(blk cst.Block) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	var walkExpr func(e cst.Expr)
	walkExpr = func(e cst.Expr) {
		switch x := e.(type) {
		case *cst.Variable:
			add(x.Name)
		case *cst.TermExpr:
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *cst.Collection:
			for _, el := range x.Elems {
				walkExpr(el)
			}
			if x.Rest != nil {
				walkExpr(x.Rest)
			}
		case *cst.BinaryExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *cst.UnaryExpr:
			walkExpr(x.Operand)
		case *cst.CallExpr:
			if v, ok := x.Callee.(*cst.Variable); ok {
				add(v.Name)
			}
			for _, a := range x.Args {
				walkExpr(a)
			}
		}
	}
	var walk func(blk cst.Block)
	walk = func(blk cst.Block) {
		for _, stmt := range blk.Stmts {
			switch s := stmt.(type) {
			case *cst.IfStmt:
				for _, br := range s.Branches {
					walk(br.Body)
				}
				if s.Else != nil {
					walk(*s.Else)
				}
			case *cst.SwitchStmt:
				for _, br := range s.Branches {
					walk(br.Body)
				}
				if s.Default != nil {
					walk(*s.Default)
				}
			case *cst.MatchStmt:
				for _, br := range s.Branches {
					walk(br.Body)
				}
				if s.Default != nil {
					walk(*s.Default)
				}
			case *cst.ScanStmt:
				for _, br := range s.Branches {
					walk(br.Body)
				}
			case *cst.ForStmt:
				walk(s.Body)
			case *cst.WhileStmt:
				walk(s.Body)
			case *cst.DoWhileStmt:
				walk(s.Body)
			case *cst.TryCatchStmt:
				for _, c := range s.Catches {
					walk(c.Body)
				}
				walk(s.Try)
			case *cst.CheckStmt:
				walk(s.Body)
				walk(s.AfterBacktrack)
			case *cst.AssignStmt:
				for _, t := range s.Targets {
					walkExpr(t)
				}
			}
		}
	}
	walk(blk)
	return out
}

// pushProcParams ports proc.rs's proc_params_push: bind each parameter by
// value (copy) or by reference (stack_alias), then apply a default-value
// fallback when the argument position came back undefined.
func (b *Builder) pushProcParams(params []cst.Param) {
	for i, p := range params {
		idxVal := ir.ValueNumber{Value: big.NewInt(int64(i))}
		var slot int

		if p.Kind == cst.ParamByRef {
			slot = b.NewTemp()
			b.EmitAssign(ir.TargetVariable{Slot: slot}, ir.TypePtr, ir.ValueBuiltinVar{Tag: ir.VarParams}, ir.OpAccessArray{Index: idxVal})
			b.EmitNativeCallIgnore(ir.ProcStackAlias, ir.ValueString{Value: p.Name}, ir.ValueVariable{Slot: slot})
			b.scope[p.Name] = append(b.scope[p.Name], slot)
		} else {
			paramSlot := b.EmitTemp(ir.TypePtr, ir.ValueBuiltinVar{Tag: ir.VarParams}, ir.OpAccessArray{Index: idxVal})
			slot = b.EmitNativeCall(ir.TypePtr, ir.ProcStackAdd, ir.ValueString{Value: p.Name})
			val := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: paramSlot}, ir.OpPtrDeref{})
			b.EmitAssign(ir.TargetDeref{Slot: slot}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcCopy, Args: []ir.Value{ir.ValueVariable{Slot: val}},
			})
			b.scope[p.Name] = append(b.scope[p.Name], slot)
		}

		if p.Default != nil {
			cur := b.EmitTemp(ir.TypeAny, ir.ValueVariable{Slot: slot}, ir.OpPtrDeref{})
			isUndef := b.EmitTemp(ir.TypeBool, ir.ValueVariable{Slot: cur}, ir.OpEqual{RHS: ir.ValueUndefined{}})

			followBlock := b.NewBlock()
			setBlock := b.NewBlock()
			b.BranchTo(ir.ValueVariable{Slot: isUndef}, setBlock, followBlock)

			b.SetBlock(setBlock)
			owned := b.EmitExpr(p.Default, ir.TargetDeref{Slot: slot})
			_ = owned
			b.Goto(followBlock)

			b.SetBlock(followBlock)
		}
	}
}

// pushRestParam ports proc.rs's trailing rest-list binding: slice every
// argument past the declared parameters into a fresh list.
func (b *Builder) pushRestParam(name string, declaredCount int) {
	sliceSlot := b.EmitNativeCall(ir.TypeList, ir.ProcSlice, ir.ValueBuiltinVar{Tag: ir.VarParams}, ir.ValueNumber{Value: big.NewInt(int64(declaredCount))}, ir.ValueNumber{Value: big.NewInt(-1)})
	listSlot := b.EmitNativeCall(ir.TypePtr, ir.ProcStackAdd, ir.ValueString{Value: name})
	b.EmitAssign(ir.TargetDeref{Slot: listSlot}, ir.TypeList, ir.ValueUndefined{}, ir.OpNativeCall{
		Proc: ir.ProcCopy, Args: []ir.Value{ir.ValueVariable{Slot: sliceSlot}},
	})
	b.scope[name] = append(b.scope[name], listSlot)
}

// BuildProcedure ports proc.rs's procedure_new: the three-block entry/main/
// return shape, pre-allocation of every forward-referenced assignment
// target, parameter binding, and the cache-lookup/cache-add shim for cached
// procedures (spec.md §4.7).
func (b *Builder) BuildProcedure(p *cst.ProcedureLit, target ir.Target) bool {
	outerProc, outerBlock, outerScope, outerRet := b.proc, b.block, b.scope, b.ret

	b.proc = ir.NewProcedure("procedure")
	b.scope = make(map[string][]int)
	for name, stk := range outerScope {
		b.scope[name] = append([]int(nil), stk...)
	}

	retVar := b.NewTemp()
	retBlock := b.proc.AddBlock()
	b.proc.EndBlock = retBlock
	b.SetBlock(retBlock)
	b.EmitNativeCallIgnore(ir.ProcStackFramePop)
	b.ReturnValue(ir.ValueVariable{Slot: retVar})

	mainBlock := b.proc.AddBlock()
	b.SetBlock(mainBlock)
	b.EmitNativeCallIgnore(ir.ProcStackFrameAdd)

	isCached := p.Kind == cst.ProcCached
	endBlock := retBlock
	if isCached {
		cacheIdx := b.NewCacheIndex()
		endBlock = b.proc.AddBlock()
		b.SetBlock(endBlock)
		b.EmitNativeCallIgnore(ir.ProcCacheAdd, ir.ValueNumber{Value: big.NewInt(int64(cacheIdx))}, ir.ValueVariable{Slot: retVar})
		b.Goto(retBlock)

		b.SetBlock(mainBlock)
		startBlock := b.proc.AddBlock()
		b.SetBlock(startBlock)
		retAddr := b.EmitTemp(ir.TypePtr, ir.ValueVariable{Slot: retVar}, ir.OpPtrAddress{})
		lookupOk := b.EmitTemp(ir.TypeBool, ir.ValueUndefined{}, ir.OpNativeCall{
			Proc: ir.ProcCacheLookup,
			Args: []ir.Value{ir.ValueNumber{Value: big.NewInt(int64(cacheIdx))}, ir.ValueBuiltinVar{Tag: ir.VarParams}, ir.ValueVariable{Slot: retAddr}},
		})
		b.BranchTo(ir.ValueVariable{Slot: lookupOk}, endBlock, mainBlock)
		b.proc.StartBlock = startBlock
	} else {
		b.proc.StartBlock = mainBlock
	}

	b.ret = &procRetCtx{retVar: retVar, endBlock: endBlock}

	b.SetBlock(mainBlock)
	if p.Kind == cst.ProcClosure {
		stackSlot := b.EmitTemp(ir.TypeList, ir.ValueBuiltinVar{Tag: ir.VarParams}, ir.OpAccessArray{Index: ir.ValueNumber{Value: big.NewInt(0)}})
		b.EmitNativeCallIgnore(ir.ProcStackFrameRestore, ir.ValueVariable{Slot: stackSlot})
	}

	var named []cst.Param
	var rest *cst.Param
	for i := range p.Params {
		if p.Params[i].Kind == cst.ParamRest {
			r := p.Params[i]
			rest = &r
			continue
		}
		named = append(named, p.Params[i])
	}
	b.pushProcParams(named)
	if rest != nil {
		b.pushRestParam(rest.Name, len(named))
	}

	for _, name := range collectAssignedNames(p.Body) {
		if _, ok := b.scope[name]; ok {
			continue
		}
		slot := b.PushName(name)
		_ = slot
	}

	if !b.EmitBlock(p.Body) {
		b.EmitAssign(ir.TargetVariable{Slot: retVar}, ir.TypeUndefined, ir.ValueUndefined{}, ir.OpAssign{})
		b.Goto(endBlock)
	}

	procHandle := b.Prog.AddProcedure(b.proc)

	b.proc, b.block, b.scope, b.ret = outerProc, outerBlock, outerScope, outerRet

	infoSlot := b.astProcedureNode(p)
	if p.Kind == cst.ProcClosure {
		stackSlot := b.EmitNativeCall(ir.TypeList, ir.ProcStackCopy)
		b.EmitAssign(target, ir.TypeClosure, ir.ValueUndefined{}, ir.OpNativeCall{
			Proc: ir.ProcClosureNew,
			Args: []ir.Value{ir.ValueProcedure{Handle: procHandle}, ir.ValueVariable{Slot: stackSlot}, ir.ValueVariable{Slot: infoSlot}},
		})
		return false
	}

	b.EmitAssign(target, ir.TypeProcedure, ir.ValueUndefined{}, ir.OpNativeCall{
		Proc: ir.ProcProcedureNew,
		Args: []ir.Value{ir.ValueProcedure{Handle: procHandle}, ir.ValueVariable{Slot: infoSlot}},
	})
	return false
}
