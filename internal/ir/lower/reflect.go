package lower

import (
	"setlx/internal/cst"
	"setlx/internal/ir"
)

// binaryOpTag/unaryOpTag/quantTag name the fixed camelCase tag strings
// spec.md §4.8 requires for reflection nodes — plain literals, unlike
// native.go's strcase-derived snake_case NativeCall tags, and independent of
// the NativeCall table itself, since AST tags and NativeCall tags are two
// independent closed vocabularies.
var binaryOpTag = map[cst.BinaryOp]string{
	cst.OpOr: "or", cst.OpAnd: "and", cst.OpLess: "less", cst.OpLessEq: "lessEq",
	cst.OpGreater: "greater", cst.OpGreaterEq: "greaterEq", cst.OpEqual: "equal",
	cst.OpNotEqual: "notEqual", cst.OpImpl: "impl", cst.OpIn: "in", cst.OpNotIn: "notIn",
	cst.OpPlus: "plus", cst.OpMinus: "minus", cst.OpMult: "mult", cst.OpDivide: "divide",
	cst.OpIntDivide: "intDivide", cst.OpMod: "mod",
}

var unaryOpTag = map[cst.UnaryOp]string{
	cst.OpNeg: "neg", cst.OpAmount: "amount", cst.OpNot: "not",
	cst.OpFoldPlus: "foldPlus", cst.OpFoldMult: "foldMult", cst.OpFactorial: "factorial",
}

var quantTag = map[cst.QuantKind]string{
	cst.QuantExists: "exists", cst.QuantForall: "forall",
}

// astNode emits ast_node_new(tag, children...) into a fresh temp and
// returns its slot.
func (b *Builder) astNode(tag string, children ...ir.Value) int {
	args := append([]ir.Value{ir.ValueString{Value: tag}}, children...)
	return b.EmitNativeCall(ir.TypeAST, ir.ProcAstNodeNew, args...)
}

// astList builds a runtime list of AST node values, per spec.md §4.8
// "children built as list_new/list_push sequences".
func (b *Builder) astList(slots []int) int {
	listSlot := b.EmitNativeCall(ir.TypeList, ir.ProcListNew)
	for _, s := range slots {
		b.EmitNativeCallIgnore(ir.ProcListPush, ir.ValueVariable{Slot: listSlot}, ir.ValueVariable{Slot: s})
	}
	return listSlot
}

func (b *Builder) astOptional(e cst.Expr) ir.Value {
	if e == nil {
		return ir.ValueUndefined{}
	}
	return ir.ValueVariable{Slot: b.EmitASTNode(e)}
}

// EmitASTNode ports the CST→IR AST-reflection lowering (spec.md §4.8):
// mirror a CST expression node into a runtime ast_node_new tree, so
// assignment patterns and match branches can structurally test shapes at
// runtime (assign.go's assignParseCall).
func (b *Builder) EmitASTNode(e cst.Expr) int {
	switch x := e.(type) {
	case *cst.Variable:
		return b.astNode("variable", ir.ValueString{Value: x.Name})
	case *cst.Ignore:
		return b.astNode("ignore")
	case *cst.UndefinedLit:
		return b.astNode("undefined")
	case *cst.BoolLit:
		return b.astNode("bool", ir.ValueBool{Value: x.Value})
	case *cst.NumberLit:
		return b.astNode("number", ir.ValueString{Value: x.Value})
	case *cst.DoubleLit:
		return b.astNode("double", ir.ValueString{Value: x.Value})
	case *cst.Literal:
		return b.astNode("literal", ir.ValueString{Value: x.Value})

	case *cst.TermExpr:
		tag := "term"
		if !x.IsTerm {
			tag = "tterm"
		}
		children := make([]int, len(x.Args))
		for i, a := range x.Args {
			children[i] = b.EmitASTNode(a)
		}
		return b.astNode(tag, ir.ValueString{Value: x.Name}, ir.ValueVariable{Slot: b.astList(children)})

	case *cst.CallExpr:
		args := make([]int, len(x.Args))
		for i, a := range x.Args {
			args[i] = b.EmitASTNode(a)
		}
		return b.astNode("call", ir.ValueVariable{Slot: b.EmitASTNode(x.Callee)}, ir.ValueVariable{Slot: b.astList(args)})

	case *cst.Collection:
		tag := "list"
		if x.Kind == cst.CollSet {
			tag = "set"
		}
		if x.IsRange {
			return b.astNode(tag+"Range", b.astOptional(x.Lo), b.astOptional(x.Hi))
		}
		elems := make([]int, len(x.Elems))
		for i, el := range x.Elems {
			elems[i] = b.EmitASTNode(el)
		}
		return b.astNode(tag, ir.ValueVariable{Slot: b.astList(elems)}, b.astOptional(x.Rest))

	case *cst.BinaryExpr:
		return b.astNode(binaryOpTag[x.Op], ir.ValueVariable{Slot: b.EmitASTNode(x.Left)}, ir.ValueVariable{Slot: b.EmitASTNode(x.Right)})

	case *cst.UnaryExpr:
		return b.astNode(unaryOpTag[x.Op], ir.ValueVariable{Slot: b.EmitASTNode(x.Operand)})

	case *cst.QuantifierExpr:
		return b.astNode(quantTag[x.Kind], b.astOptional(x.Cond))

	case *cst.AccessExpr:
		steps := make([]int, len(x.Steps))
		for i, s := range x.Steps {
			steps[i] = b.astAccessStep(s)
		}
		return b.astNode("access", ir.ValueVariable{Slot: b.EmitASTNode(x.Head)}, ir.ValueVariable{Slot: b.astList(steps)})

	case *cst.LambdaExpr:
		tag := "lambda"
		if x.Closed {
			tag = "closure"
		}
		names := make([]int, len(x.Params))
		for i, p := range x.Params {
			names[i] = b.astNode("param", ir.ValueString{Value: p})
		}
		return b.astNode(tag, ir.ValueVariable{Slot: b.astList(names)}, ir.ValueVariable{Slot: b.EmitASTNode(x.Body)})

	case *cst.ProcedureLit:
		return b.astProcedureNode(x)

	default:
		return b.astNode("unknown")
	}
}

func (b *Builder) astAccessStep(s cst.AccessStep) int {
	switch s.Kind {
	case cst.AccessField:
		return b.astNode("field", ir.ValueString{Value: s.Name})
	case cst.AccessCall:
		args := make([]int, len(s.Args))
		for i, a := range s.Args {
			args[i] = b.EmitASTNode(a)
		}
		return b.astNode("call", ir.ValueVariable{Slot: b.astList(args)})
	case cst.AccessIndex:
		return b.astNode("index", ir.ValueVariable{Slot: b.EmitASTNode(s.Index)})
	case cst.AccessSlice:
		return b.astNode("slice", b.astOptional(s.Lo), b.astOptional(s.Hi))
	case cst.AccessMember:
		return b.astNode("member", ir.ValueVariable{Slot: b.EmitASTNode(s.Index)})
	default:
		return b.astNode("unknown")
	}
}

func (b *Builder) astParamNode(p cst.Param) int {
	tag := "param"
	switch p.Kind {
	case cst.ParamByRef:
		tag = "refParam"
	case cst.ParamRest:
		tag = "restParam"
	}
	return b.astNode(tag, ir.ValueString{Value: p.Name}, b.astOptional(p.Default))
}

// astProcedureNode builds the "procedure"/"cachedProcedure"/"closure"
// reflection node a procedure_new/closure_new call attaches as its
// ast_info argument (spec.md §4.3 "builds a new procedure ... emits also a
// parallel AST-reflection value for runtime introspection").
func (b *Builder) astProcedureNode(p *cst.ProcedureLit) int {
	tag := "procedure"
	switch p.Kind {
	case cst.ProcCached:
		tag = "cachedProcedure"
	case cst.ProcClosure:
		tag = "closure"
	}
	params := make([]int, len(p.Params))
	for i, par := range p.Params {
		params[i] = b.astParamNode(par)
	}
	return b.astNode(tag, ir.ValueVariable{Slot: b.astList(params)})
}
