package lower

import (
	"math/big"

	"setlx/internal/cst"
	"setlx/internal/ir"
)

// emitTerm ports term_expr.rs's block_term_push: allocate the term/tterm,
// append each argument (copying any borrowed argument first, since
// term_add consumes ownership), then move the result into target.
func (b *Builder) emitTerm(t *cst.TermExpr, target ir.Target) bool {
	kindType := ir.TypeTerm
	if !t.IsTerm {
		kindType = ir.TypeTTerm
	}

	termSlot := b.EmitTemp(kindType, ir.ValueUndefined{}, ir.OpNativeCall{
		Proc: ir.ProcTermNew,
		Args: []ir.Value{
			ir.ValueString{Value: t.Name},
			ir.ValueNumber{Value: big.NewInt(int64(len(t.Args)))},
			ir.ValueBool{Value: t.IsTerm},
		},
	})

	for _, arg := range t.Args {
		argSlot := b.NewTemp()
		owned := b.EmitExpr(arg, ir.TargetVariable{Slot: argSlot})
		if !owned {
			b.EmitAssign(ir.TargetVariable{Slot: argSlot}, ir.TypeAny, ir.ValueUndefined{}, ir.OpNativeCall{
				Proc: ir.ProcCopy,
				Args: []ir.Value{ir.ValueVariable{Slot: argSlot}},
			})
		}
		b.EmitNativeCallIgnore(ir.ProcTermAdd, ir.ValueVariable{Slot: termSlot}, ir.ValueVariable{Slot: argSlot})
	}

	b.EmitAssign(target, kindType, ir.ValueVariable{Slot: termSlot}, ir.OpAssign{})
	return false
}
