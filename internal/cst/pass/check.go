package pass

import (
	"fmt"

	"setlx/internal/cst"
)

// Warning is a non-fatal diagnostic collected by the check pass.
type Warning struct {
	Pos     cst.Position
	Message string
}

// CheckPass implements C4: structural legality of assignment targets,
// iterator left-hand sides, accessible-chain index/key bodies, and
// loop-only keywords, plus unreachable-statement warnings (spec.md §4.2).
//
// Violations abort the pass via panic(CheckError{...}) — spec.md §7 treats
// these as programmer errors in the source, not conditions the pass need
// recover from.
type CheckPass struct {
	Warnings []Warning
}

// CheckError is the panic value raised on a structural CST violation.
type CheckError struct {
	Pos     cst.Position
	Message string
}

func (e CheckError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

func fail(pos cst.Position, format string, args ...interface{}) {
	panic(CheckError{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Run validates blk and returns the collected unreachable-code warnings. It
// panics with a CheckError on the first structural violation found.
func (cp *CheckPass) Run(blk *cst.Block) []Warning {
	cp.checkBlock(*blk, loopCtx{})
	return cp.Warnings
}

type loopCtx struct {
	inLoop bool
}

func (cp *CheckPass) checkBlock(blk cst.Block, lc loopCtx) {
	terminatedAt := -1
	for i, s := range blk.Stmts {
		if terminatedAt >= 0 {
			cp.Warnings = append(cp.Warnings, Warning{
				Pos:     s.Pos(),
				Message: "unreachable statement following return/break/continue/exit/backtrack",
			})
		}
		cp.checkStmt(s, lc)
		if isTerminator(s) && terminatedAt < 0 {
			terminatedAt = i
		}
	}
}

func isTerminator(s cst.Stmt) bool {
	switch s.(type) {
	case *cst.ReturnStmt, *cst.BreakStmt, *cst.ContinueStmt, *cst.ExitStmt, *cst.BacktrackStmt:
		return true
	}
	return false
}

func (cp *CheckPass) checkStmt(s cst.Stmt, lc loopCtx) {
	switch n := s.(type) {
	case *cst.ExprStmt:
		cp.checkExprTree(n.Expr)
	case *cst.AssignStmt:
		for _, t := range n.Targets {
			cp.checkAssignTarget(t)
		}
		cp.checkExprTree(n.Value)
	case *cst.CompoundAssignStmt:
		cp.checkAssignTarget(n.Target)
		cp.checkExprTree(n.Value)
	case *cst.IfStmt:
		for _, b := range n.Branches {
			cp.checkExprTree(b.Cond)
			cp.checkBlock(b.Body, lc)
		}
		if n.Else != nil {
			cp.checkBlock(*n.Else, lc)
		}
	case *cst.SwitchStmt:
		for _, b := range n.Branches {
			cp.checkExprTree(b.Cond)
			cp.checkBlock(b.Body, lc)
		}
		if n.Default != nil {
			cp.checkBlock(*n.Default, lc)
		}
	case *cst.WhileStmt:
		cp.checkExprTree(n.Cond)
		cp.checkBlock(n.Body, loopCtx{inLoop: true})
	case *cst.DoWhileStmt:
		cp.checkBlock(n.Body, loopCtx{inLoop: true})
		cp.checkExprTree(n.Cond)
	case *cst.ForStmt:
		for _, ip := range n.Params {
			cp.checkIterLHS(ip.Pattern)
			cp.checkExprTree(ip.Collection)
		}
		cp.checkExprTree(n.Filter)
		cp.checkBlock(n.Body, loopCtx{inLoop: true})
	case *cst.TryCatchStmt:
		cp.checkBlock(n.Try, lc)
		for _, c := range n.Catches {
			cp.checkBlock(c.Body, lc)
		}
	case *cst.CheckStmt:
		cp.checkBlock(n.Body, lc)
		cp.checkBlock(n.AfterBacktrack, lc)
	case *cst.MatchStmt:
		cp.checkExprTree(n.Scrutinee)
		for _, b := range n.Branches {
			if !b.IsRegex {
				cp.checkMatchPattern(b.Pattern)
			}
			cp.checkExprTree(b.Cond)
			cp.checkBlock(b.Body, lc)
		}
		if n.Default != nil {
			cp.checkBlock(*n.Default, lc)
		}
	case *cst.ScanStmt:
		cp.checkExprTree(n.Scrutinee)
		for _, b := range n.Branches {
			cp.checkExprTree(b.Cond)
			cp.checkBlock(b.Body, lc)
		}
	case *cst.ClassStmt:
		for _, p := range n.Params {
			cp.checkExprTree(p.Default)
		}
		cp.checkBlock(n.Body, loopCtx{})
		if n.Static != nil {
			cp.checkBlock(*n.Static, loopCtx{})
		}
	case *cst.ReturnStmt:
		cp.checkExprTree(n.Value)
	case *cst.BreakStmt:
		if !lc.inLoop {
			fail(n.Pos(), "'break' outside a for/while/do-while loop")
		}
	case *cst.ContinueStmt:
		if !lc.inLoop {
			fail(n.Pos(), "'continue' outside a for/while/do-while loop")
		}
	}
}

// checkExprTree descends through every expression reachable from e, running
// checkAccessibleBody on each postfix-chain step's index/key position
// (spec.md §3/§4.2's is_accessible_body invariant) and giving a nested
// procedure or lambda body its own check pass over a fresh loop context.
// Every composite cst.Expr variant is listed explicitly, matching
// mapExprChildren's own catalogue in walk.go.
func (cp *CheckPass) checkExprTree(e cst.Expr) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *cst.Variable, *cst.Ignore, *cst.UndefinedLit, *cst.BoolLit,
		*cst.NumberLit, *cst.DoubleLit, *cst.StringLit, *cst.Literal:
		return
	case *cst.ProcedureLit:
		for _, p := range n.Params {
			cp.checkExprTree(p.Default)
		}
		cp.checkBlock(n.Body, loopCtx{})
	case *cst.LambdaExpr:
		cp.checkExprTree(n.Body)
	case *cst.Collection:
		cp.checkExprTree(n.Lo)
		cp.checkExprTree(n.Hi)
		for _, el := range n.Elems {
			cp.checkExprTree(el)
		}
		cp.checkExprTree(n.Rest)
	case *cst.Comprehension:
		cp.checkExprTree(n.Result)
		for _, p := range n.Params {
			cp.checkExprTree(p.Collection)
		}
		cp.checkExprTree(n.Filter)
	case *cst.QuantifierExpr:
		for _, p := range n.Params {
			cp.checkExprTree(p.Collection)
		}
		cp.checkExprTree(n.Filter)
		cp.checkExprTree(n.Cond)
	case *cst.TermExpr:
		for _, a := range n.Args {
			cp.checkExprTree(a)
		}
	case *cst.CallExpr:
		cp.checkExprTree(n.Callee)
		for _, a := range n.Args {
			cp.checkExprTree(a)
		}
	case *cst.AccessExpr:
		cp.checkExprTree(n.Head)
		for _, s := range n.Steps {
			for _, a := range s.Args {
				cp.checkExprTree(a)
			}
			cp.checkAccessibleBody(s.Index)
			cp.checkExprTree(s.Index)
			cp.checkAccessibleBody(s.Lo)
			cp.checkExprTree(s.Lo)
			cp.checkAccessibleBody(s.Hi)
			cp.checkExprTree(s.Hi)
		}
	case *cst.MatrixExpr:
		for _, row := range n.Rows {
			for _, el := range row {
				cp.checkExprTree(el)
			}
		}
	case *cst.VectorExpr:
		for _, el := range n.Elems {
			cp.checkExprTree(el)
		}
	case *cst.BinaryExpr:
		cp.checkExprTree(n.Left)
		cp.checkExprTree(n.Right)
	case *cst.UnaryExpr:
		cp.checkExprTree(n.Operand)
	}
}

// checkAccessibleBody enforces spec.md §3/§4.2's is_accessible_body rule on
// an index/key expression nested directly inside a postfix chain's
// `[…]`/`{…}` step: a set literal there must be a singleton, a list literal
// must be a range or a singleton.
func (cp *CheckPass) checkAccessibleBody(e cst.Expr) {
	coll, ok := e.(*cst.Collection)
	if !ok {
		return
	}
	switch coll.Kind {
	case cst.CollSet:
		if coll.IsRange || len(coll.Elems) != 1 {
			fail(coll.Pos(), "a set used as an accessible-chain index must be a singleton")
		}
	case cst.CollList:
		if !coll.IsRange && len(coll.Elems) != 1 {
			fail(coll.Pos(), "a list used as an accessible-chain index must be a range or a singleton")
		}
	}
}

// checkAssignTarget validates the shapes listed in spec.md §3: a variable,
// an ignore, an accessible-chain, a (possibly nested) set-singleton or list
// of such targets, or a term.
func (cp *CheckPass) checkAssignTarget(e cst.Expr) {
	switch n := e.(type) {
	case *cst.Variable, *cst.Ignore:
		return
	case *cst.AccessExpr:
		cp.checkExprTree(n)
	case *cst.TermExpr:
		for _, a := range n.Args {
			cp.checkAssignTarget(a)
		}
	case *cst.Collection:
		if n.Kind == cst.CollSet && len(n.Elems) != 1 {
			fail(n.Pos(), "a set assignment target must be a singleton")
		}
		for _, el := range n.Elems {
			cp.checkAssignTarget(el)
		}
		if n.Rest != nil {
			cp.checkAssignTarget(n.Rest)
		}
	default:
		fail(e.Pos(), "illegal assignment target %T", e)
	}
}

// checkMatchPattern allows everything checkAssignTarget does, plus an
// operator node, a literal/number/bool constant, or a call (AST-pattern).
func (cp *CheckPass) checkMatchPattern(e cst.Expr) {
	switch n := e.(type) {
	case *cst.BinaryExpr:
		cp.checkMatchPattern(n.Left)
		cp.checkMatchPattern(n.Right)
	case *cst.UnaryExpr:
		cp.checkMatchPattern(n.Operand)
	case *cst.Literal, *cst.NumberLit, *cst.DoubleLit, *cst.BoolLit, *cst.UndefinedLit:
		return
	case *cst.CallExpr:
		for _, a := range n.Args {
			cp.checkMatchPattern(a)
		}
	default:
		cp.checkAssignTarget(e)
	}
}

// checkIterLHS validates an iterator left-hand side: a variable, a list, or
// ignore (spec.md §3 "Every iterator LHS is a variable, a list, or ignore").
func (cp *CheckPass) checkIterLHS(e cst.Expr) {
	switch n := e.(type) {
	case *cst.Variable, *cst.Ignore:
		return
	case *cst.Collection:
		if n.Kind != cst.CollList {
			fail(n.Pos(), "iterator left-hand side list must use list syntax, not a set")
		}
		for _, el := range n.Elems {
			cp.checkIterLHS(el)
		}
	default:
		fail(e.Pos(), "illegal iterator left-hand side %T", e)
	}
}
