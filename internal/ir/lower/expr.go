package lower

import (
	"math/big"
	"strconv"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// EmitExpr lowers one CST expression into the current block, writing its
// result through target, and reports whether that result is an owned
// (newly allocated) value the caller must eventually invalidate or move
// (spec.md §4.3 "every expression emitter returns ownership").
func (b *Builder) EmitExpr(expr cst.Expr, target ir.Target) bool {
	switch e := expr.(type) {
	case *cst.Variable:
		return b.emitVariable(e, target)
	case *cst.Ignore:
		b.EmitAssign(target, ir.TypeUndefined, ir.ValueUndefined{}, ir.OpAssign{})
		return false
	case *cst.UndefinedLit:
		b.EmitAssign(target, ir.TypeUndefined, ir.ValueUndefined{}, ir.OpAssign{})
		return false
	case *cst.BoolLit:
		b.EmitAssign(target, ir.TypeBool, ir.ValueBool{Value: e.Value}, ir.OpAssign{})
		return false
	case *cst.NumberLit:
		n := new(big.Int)
		n.SetString(e.Value, 10)
		b.EmitAssign(target, ir.TypeNumber, ir.ValueNumber{Value: n}, ir.OpAssign{})
		return false
	case *cst.DoubleLit:
		f, _ := strconv.ParseFloat(e.Value, 64)
		b.EmitAssign(target, ir.TypeDouble, ir.ValueDouble{Value: f}, ir.OpAssign{})
		return false
	case *cst.Literal:
		b.EmitAssign(target, ir.TypeString, ir.ValueString{Value: e.Value}, ir.OpAssign{})
		return false
	case *cst.ProcedureLit:
		return b.emitProcedureLit(e, target)
	case *cst.LambdaExpr:
		return b.emitLambda(e, target)
	case *cst.BinaryExpr:
		return b.emitBinary(e, target)
	case *cst.UnaryExpr:
		return b.emitUnary(e, target)
	case *cst.TermExpr:
		return b.emitTerm(e, target)
	case *cst.CallExpr:
		return b.emitCall(e, target)
	case *cst.AccessExpr:
		return b.emitAccessValue(e, target)
	case *cst.Collection:
		return b.emitCollection(e, target)
	case *cst.Comprehension:
		return b.emitComprehension(e, target)
	case *cst.QuantifierExpr:
		return b.emitQuantifier(e, target)
	case *cst.MatrixExpr:
		return b.emitMatrix(e, target)
	case *cst.VectorExpr:
		return b.emitVector(e, target)
	default:
		panic("lower: unhandled expression node")
	}
}

// emitVariable is ported from var_expr.rs's block_var_push: a lexical-map
// hit derefs the bound slot directly; a miss falls back to a runtime
// stack_get_assert lookup. Both paths yield a borrowed (unowned) value.
func (b *Builder) emitVariable(v *cst.Variable, target ir.Target) bool {
	if slot, ok := b.LookupName(v.Name); ok {
		b.EmitAssign(target, ir.TypeAny, ir.ValueVariable{Slot: slot}, ir.OpPtrDeref{})
		return false
	}
	tmp := b.EmitNativeCall(ir.TypePtr, ir.ProcStackGetAssert, ir.ValueString{Value: v.Name})
	b.EmitAssign(target, ir.TypeAny, ir.ValueVariable{Slot: tmp}, ir.OpPtrDeref{})
	return false
}

func (b *Builder) emitMatrix(m *cst.MatrixExpr, target ir.Target) bool {
	rows := make([][]int, len(m.Rows))
	for i, row := range m.Rows {
		rows[i] = make([]int, len(row))
		for j, elem := range row {
			slot := b.NewTemp()
			b.EmitExpr(elem, ir.TargetVariable{Slot: slot})
			rows[i][j] = slot
		}
	}
	vals := make([][]ir.Value, len(rows))
	for i, row := range rows {
		vals[i] = make([]ir.Value, len(row))
		for j, slot := range row {
			vals[i][j] = ir.ValueVariable{Slot: slot}
		}
	}
	b.EmitAssign(target, ir.TypeMatrix, ir.ValueMatrix{Rows: vals}, ir.OpAssign{})
	return false
}

func (b *Builder) emitVector(v *cst.VectorExpr, target ir.Target) bool {
	elems := make([]ir.Value, len(v.Elems))
	for i, elem := range v.Elems {
		slot := b.NewTemp()
		b.EmitExpr(elem, ir.TargetVariable{Slot: slot})
		elems[i] = ir.ValueVariable{Slot: slot}
	}
	b.EmitAssign(target, ir.TypeVector, ir.ValueVector{Elems: elems}, ir.OpAssign{})
	return false
}
