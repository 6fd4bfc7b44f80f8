// Package pass implements the three normalisation passes that run in fixed
// order over a parsed CST: string (C3), check (C4), noop (C5).
package pass

import "setlx/internal/cst"

// mapExprChildren rebuilds e with every direct child expression replaced by
// f(child), recursing is the caller's responsibility (f is expected to be
// the whole-tree transform, called again on the way back up). Every
// composite cst.Expr variant is listed explicitly — spec.md §9 "Pattern
// matching on sum types: a catch-all default is a bug magnet."
func mapExprChildren(e cst.Expr, f func(cst.Expr) cst.Expr) cst.Expr {
	switch n := e.(type) {
	case *cst.Variable, *cst.Ignore, *cst.UndefinedLit, *cst.BoolLit,
		*cst.NumberLit, *cst.DoubleLit, *cst.StringLit, *cst.Literal:
		return n
	case *cst.ProcedureLit:
		// The body is a statement block, not a child expression; a caller
		// that needs to reach it walks it with its own statement mapper.
		n.Params = mapParams(n.Params, f)
		return n
	case *cst.LambdaExpr:
		n.Body = f(n.Body)
		return n
	case *cst.Collection:
		n.Lo = mapMaybe(n.Lo, f)
		n.Hi = mapMaybe(n.Hi, f)
		for i := range n.Elems {
			n.Elems[i] = f(n.Elems[i])
		}
		n.Rest = mapMaybe(n.Rest, f)
		return n
	case *cst.Comprehension:
		n.Result = f(n.Result)
		n.Params = mapIterParams(n.Params, f)
		n.Filter = mapMaybe(n.Filter, f)
		return n
	case *cst.QuantifierExpr:
		n.Params = mapIterParams(n.Params, f)
		n.Filter = mapMaybe(n.Filter, f)
		n.Cond = f(n.Cond)
		return n
	case *cst.TermExpr:
		for i := range n.Args {
			n.Args[i] = f(n.Args[i])
		}
		return n
	case *cst.CallExpr:
		n.Callee = f(n.Callee)
		for i := range n.Args {
			n.Args[i] = f(n.Args[i])
		}
		return n
	case *cst.AccessExpr:
		n.Head = f(n.Head)
		for i := range n.Steps {
			s := &n.Steps[i]
			for j := range s.Args {
				s.Args[j] = f(s.Args[j])
			}
			s.Index = mapMaybe(s.Index, f)
			s.Lo = mapMaybe(s.Lo, f)
			s.Hi = mapMaybe(s.Hi, f)
		}
		return n
	case *cst.MatrixExpr:
		for i := range n.Rows {
			for j := range n.Rows[i] {
				n.Rows[i][j] = f(n.Rows[i][j])
			}
		}
		return n
	case *cst.VectorExpr:
		for i := range n.Elems {
			n.Elems[i] = f(n.Elems[i])
		}
		return n
	case *cst.BinaryExpr:
		n.Left = f(n.Left)
		n.Right = f(n.Right)
		return n
	case *cst.UnaryExpr:
		n.Operand = f(n.Operand)
		return n
	}
	return e
}

func mapMaybe(e cst.Expr, f func(cst.Expr) cst.Expr) cst.Expr {
	if e == nil {
		return nil
	}
	return f(e)
}

func mapParams(ps []cst.Param, f func(cst.Expr) cst.Expr) []cst.Param {
	for i := range ps {
		ps[i].Default = mapMaybe(ps[i].Default, f)
	}
	return ps
}

func mapIterParams(ps []cst.IterParam, f func(cst.Expr) cst.Expr) []cst.IterParam {
	for i := range ps {
		ps[i].Pattern = f(ps[i].Pattern)
		ps[i].Collection = f(ps[i].Collection)
	}
	return ps
}

// mapBlock rewrites every statement of blk via the given statement
// transform, which is responsible for recursing into sub-blocks/expressions.
func mapBlock(blk cst.Block, mapStmt func(cst.Stmt) cst.Stmt) cst.Block {
	for i, s := range blk.Stmts {
		blk.Stmts[i] = mapStmt(s)
	}
	return blk
}
