// Package dump renders a lowered internal/ir program as the debug artifacts
// spec.md §6 names for the `--dump-ir-*` flags: a three-address textual
// `.ir` form and a Graphviz DOT control-flow graph. Like internal/cst/dump,
// this is the thin adapter over an external collaborator spec.md §1 only
// specifies by the files it must produce.
package dump

import (
	"fmt"
	"strings"

	"setlx/internal/ir"
)

// Text renders every procedure in prog as an ordered list of three-address
// blocks: a "b2:" label line, then one indented line per statement, e.g.
// "t3 := t1 + t2".
func Text(prog *ir.Program) string {
	var sb strings.Builder
	for h, proc := range prog.Procedures {
		fmt.Fprintf(&sb, "proc %d %q (start=b%d, end=b%d, slots=%d)\n",
			h, proc.Name, proc.StartBlock, proc.EndBlock, proc.NumSlots)
		for bh, block := range proc.Blocks {
			fmt.Fprintf(&sb, "  b%d:\n", bh)
			for _, s := range block.Stmts {
				fmt.Fprintf(&sb, "    %s\n", stmtText(s))
			}
		}
	}
	return sb.String()
}

func stmtText(s ir.Stmt) string {
	switch n := s.(type) {
	case ir.Assign:
		return fmt.Sprintf("%s := %s %s", targetText(n.Target), valueText(n.Source), opText(n.Op))
	case ir.Branch:
		return fmt.Sprintf("branch %s ? b%d : b%d", valueText(n.Cond), n.Success, n.Failure)
	case ir.Try:
		return fmt.Sprintf("try b%d catch b%d", n.Attempt, n.Catch)
	case ir.TryEnd:
		return "tryend"
	case ir.Goto:
		return fmt.Sprintf("goto b%d", n.Target)
	case ir.Return:
		return fmt.Sprintf("return %s", valueText(n.Value))
	case ir.Unreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("<unknown stmt %T>", n)
	}
}

func targetText(t ir.Target) string {
	switch n := t.(type) {
	case ir.TargetIgnore:
		return "_"
	case ir.TargetVariable:
		return fmt.Sprintf("t%d", n.Slot)
	case ir.TargetDeref:
		return fmt.Sprintf("*t%d", n.Slot)
	default:
		return fmt.Sprintf("<unknown target %T>", n)
	}
}

func valueText(v ir.Value) string {
	switch n := v.(type) {
	case ir.ValueUndefined:
		return "om"
	case ir.ValueBuiltinProc:
		return n.Tag.String()
	case ir.ValueBuiltinVar:
		return n.Tag.String()
	case ir.ValueType:
		return n.Mask.String()
	case ir.ValueVariable:
		return fmt.Sprintf("t%d", n.Slot)
	case ir.ValueString:
		return fmt.Sprintf("%q", n.Value)
	case ir.ValueNumber:
		if n.Value == nil {
			return "0"
		}
		return n.Value.String()
	case ir.ValueDouble:
		return fmt.Sprintf("%g", n.Value)
	case ir.ValueBool:
		return fmt.Sprintf("%t", n.Value)
	case ir.ValueVector:
		parts := make([]string, len(n.Elems))
		for i, e := range n.Elems {
			parts[i] = valueText(e)
		}
		return "vector[" + strings.Join(parts, ", ") + "]"
	case ir.ValueMatrix:
		return "matrix"
	case ir.ValueProcedure:
		return fmt.Sprintf("proc#%d", n.Handle)
	default:
		return fmt.Sprintf("<unknown value %T>", n)
	}
}

func opText(op ir.Op) string {
	switch n := op.(type) {
	case ir.OpAccessArray:
		return fmt.Sprintf("[%s]", valueText(n.Index))
	case ir.OpCall:
		return fmt.Sprintf("call(params=t%d)", n.ParamsSlot)
	case ir.OpNativeCall:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = valueText(a)
		}
		return fmt.Sprintf("%s(%s)", n.Proc.String(), strings.Join(args, ", "))
	case ir.OpPtrAddress:
		return "addr"
	case ir.OpPtrDeref:
		return "deref"
	case ir.OpAssign:
		return "assign"
	case ir.OpNot:
		return "not"
	case ir.OpOr:
		return fmt.Sprintf("|| %s", valueText(n.RHS))
	case ir.OpAnd:
		return fmt.Sprintf("&& %s", valueText(n.RHS))
	case ir.OpLess:
		return fmt.Sprintf("< %s", valueText(n.RHS))
	case ir.OpEqual:
		return fmt.Sprintf("== %s", valueText(n.RHS))
	case ir.OpPlus:
		return fmt.Sprintf("+ %s", valueText(n.RHS))
	case ir.OpMinus:
		return fmt.Sprintf("- %s", valueText(n.RHS))
	case ir.OpMult:
		return fmt.Sprintf("* %s", valueText(n.RHS))
	case ir.OpDivide:
		return fmt.Sprintf("/ %s", valueText(n.RHS))
	case ir.OpIntDivide:
		return fmt.Sprintf("// %s", valueText(n.RHS))
	case ir.OpMod:
		return fmt.Sprintf("%% %s", valueText(n.RHS))
	default:
		return fmt.Sprintf("<unknown op %T>", n)
	}
}

// Dot renders prog's procedures as Graphviz subgraphs: one cluster per
// procedure, one node per block (labelled with its statement count), edges
// following each block's terminator.
func Dot(prog *ir.Program, graphName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %s {\n  node [shape=box, fontname=monospace];\n", graphName)
	for ph, proc := range prog.Procedures {
		fmt.Fprintf(&sb, "  subgraph cluster_%d {\n    label=%q;\n", ph, proc.Name)
		for bh, block := range proc.Blocks {
			shape := "box"
			if ir.BlockHandle(bh) == proc.StartBlock {
				shape = "box, peripheries=2"
			}
			fmt.Fprintf(&sb, "    p%db%d [shape=%q, label=\"b%d (%d stmts)\"];\n", ph, bh, shape, bh, len(block.Stmts))
			term, ok := block.Terminator()
			if !ok {
				continue
			}
			for _, edge := range terminatorEdges(term) {
				fmt.Fprintf(&sb, "    p%db%d -> p%db%d [label=%q];\n", ph, bh, ph, edge.target, edge.label)
			}
		}
		sb.WriteString("  }\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

type dotEdge struct {
	target ir.BlockHandle
	label  string
}

func terminatorEdges(term ir.Stmt) []dotEdge {
	switch n := term.(type) {
	case ir.Branch:
		return []dotEdge{{n.Success, "true"}, {n.Failure, "false"}}
	case ir.Try:
		return []dotEdge{{n.Attempt, "attempt"}, {n.Catch, "catch"}}
	case ir.Goto:
		return []dotEdge{{n.Target, ""}}
	default:
		return nil
	}
}
