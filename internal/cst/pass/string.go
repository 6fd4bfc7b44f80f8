package pass

import (
	"github.com/pkg/errors"

	"setlx/internal/cst"
	"setlx/internal/parser"
)

// StringPass implements C3: it strips delimiters, decodes literal escapes
// (internal/cst.Unescape, C1), and expands `"...$expr$..."` interpolation
// into a left-folded `+` expression tree by re-invoking the expression
// parser on every odd-indexed fragment (spec.md §4.2).
type StringPass struct {
	filename string
}

func NewStringPass(filename string) *StringPass { return &StringPass{filename: filename} }

// Run normalises every string node in blk. It returns an error for an
// unbalanced `$` (spec.md §4.2 "Unbalanced `$` is a hard error") or for an
// interpolated fragment that does not parse; a malformed escape degrades to
// a literal backslash per C1 and never fails the pass.
func (sp *StringPass) Run(blk *cst.Block) (*cst.Block, error) {
	var walkErr error
	var mapStmt func(cst.Stmt) cst.Stmt
	var mapExpr func(cst.Expr) cst.Expr
	mapExpr = func(e cst.Expr) cst.Expr {
		if walkErr != nil {
			return e
		}
		if s, ok := e.(*cst.StringLit); ok {
			expanded, err := sp.expand(s)
			if err != nil {
				walkErr = err
				return e
			}
			return expanded
		}
		if p, ok := e.(*cst.ProcedureLit); ok {
			p.Body = mapBlock(p.Body, mapStmt)
		}
		return mapExprChildren(e, mapExpr)
	}
	mapStmt = func(s cst.Stmt) cst.Stmt {
		if walkErr != nil {
			return s
		}
		sp.walkStmt(s, mapExpr, mapStmt)
		return s
	}
	mapBlock(*blk, mapStmt)
	if walkErr != nil {
		return nil, walkErr
	}
	return blk, nil
}

func (sp *StringPass) walkStmt(s cst.Stmt, mapExpr func(cst.Expr) cst.Expr, mapStmt func(cst.Stmt) cst.Stmt) {
	switch n := s.(type) {
	case *cst.ExprStmt:
		n.Expr = mapExpr(n.Expr)
	case *cst.AssignStmt:
		for i := range n.Targets {
			n.Targets[i] = mapExpr(n.Targets[i])
		}
		n.Value = mapExpr(n.Value)
	case *cst.CompoundAssignStmt:
		n.Target = mapExpr(n.Target)
		n.Value = mapExpr(n.Value)
	case *cst.IfStmt:
		for i := range n.Branches {
			n.Branches[i].Cond = mapExpr(n.Branches[i].Cond)
			n.Branches[i].Body = mapBlock(n.Branches[i].Body, mapStmt)
		}
		if n.Else != nil {
			*n.Else = mapBlock(*n.Else, mapStmt)
		}
	case *cst.SwitchStmt:
		for i := range n.Branches {
			n.Branches[i].Cond = mapExpr(n.Branches[i].Cond)
			n.Branches[i].Body = mapBlock(n.Branches[i].Body, mapStmt)
		}
		if n.Default != nil {
			*n.Default = mapBlock(*n.Default, mapStmt)
		}
	case *cst.WhileStmt:
		n.Cond = mapExpr(n.Cond)
		n.Body = mapBlock(n.Body, mapStmt)
	case *cst.DoWhileStmt:
		n.Body = mapBlock(n.Body, mapStmt)
		n.Cond = mapExpr(n.Cond)
	case *cst.ForStmt:
		n.Params = mapIterParams(n.Params, mapExpr)
		n.Filter = mapMaybe(n.Filter, mapExpr)
		n.Body = mapBlock(n.Body, mapStmt)
	case *cst.TryCatchStmt:
		n.Try = mapBlock(n.Try, mapStmt)
		for i := range n.Catches {
			n.Catches[i].Body = mapBlock(n.Catches[i].Body, mapStmt)
		}
	case *cst.CheckStmt:
		n.Body = mapBlock(n.Body, mapStmt)
		n.AfterBacktrack = mapBlock(n.AfterBacktrack, mapStmt)
	case *cst.MatchStmt:
		n.Scrutinee = mapExpr(n.Scrutinee)
		for i := range n.Branches {
			if !n.Branches[i].IsRegex {
				n.Branches[i].Pattern = mapExpr(n.Branches[i].Pattern)
			}
			n.Branches[i].Cond = mapMaybe(n.Branches[i].Cond, mapExpr)
			n.Branches[i].Body = mapBlock(n.Branches[i].Body, mapStmt)
		}
		if n.Default != nil {
			*n.Default = mapBlock(*n.Default, mapStmt)
		}
	case *cst.ScanStmt:
		n.Scrutinee = mapExpr(n.Scrutinee)
		for i := range n.Branches {
			n.Branches[i].Cond = mapMaybe(n.Branches[i].Cond, mapExpr)
			n.Branches[i].Body = mapBlock(n.Branches[i].Body, mapStmt)
		}
	case *cst.ClassStmt:
		n.Params = mapParams(n.Params, mapExpr)
		if n.Static != nil {
			*n.Static = mapBlock(*n.Static, mapStmt)
		}
		n.Body = mapBlock(n.Body, mapStmt)
	case *cst.ReturnStmt:
		n.Value = mapMaybe(n.Value, mapExpr)
	case *cst.BreakStmt, *cst.ContinueStmt, *cst.ExitStmt, *cst.BacktrackStmt:
		// no sub-expressions
	}
}

// expand runs the four-state `$`-scanning machine over the decoded text of
// a string node and folds the result into `+` nodes.
func (sp *StringPass) expand(s *cst.StringLit) (cst.Expr, error) {
	decoded := cst.Unescape(s.Raw)
	fragments, isExpr, err := scanDollar(decoded)
	if err != nil {
		return nil, errors.Wrapf(err, "%s:%d:%d", sp.filename, s.Pos().Line, s.Pos().Column)
	}
	if len(fragments) == 0 {
		return &cst.Literal{Base: s.Base, Value: ""}, nil
	}

	nodes := make([]cst.Expr, len(fragments))
	for i, frag := range fragments {
		if !isExpr[i] {
			nodes[i] = &cst.Literal{Base: s.Base, Value: frag}
			continue
		}
		e, err := parser.ParseExpr(sp.filename, frag)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d:%d: interpolated expression", sp.filename, s.Pos().Line, s.Pos().Column)
		}
		// Recursively normalise any string literals nested in the
		// freshly parsed fragment (spec.md §4.2 "recursively passed
		// through the same string pass").
		e = sp.reexpand(e)
		nodes[i] = e
	}

	result := nodes[0]
	for _, n := range nodes[1:] {
		result = &cst.BinaryExpr{Base: s.Base, Op: cst.OpPlus, Left: result, Right: n}
	}
	return result, nil
}

func (sp *StringPass) reexpand(e cst.Expr) cst.Expr {
	if s, ok := e.(*cst.StringLit); ok {
		if expanded, err := sp.expand(s); err == nil {
			return expanded
		}
		return e
	}
	return mapExprChildren(e, sp.reexpand)
}

type dollarState int

const (
	outsideUnescaped dollarState = iota
	outsideEscaped
	insideUnescaped
	insideEscaped
)

// scanDollar splits decoded text into literal/expression fragments using a
// four-state machine over `$` (spec.md §4.2). Even indices are literal,
// odd indices are expression source. A trailing unbalanced `$` is an error.
func scanDollar(text string) (fragments []string, isExpr []bool, err error) {
	state := outsideUnescaped
	var cur []rune
	runes := []rune(text)

	flush := func(expr bool) {
		fragments = append(fragments, string(cur))
		isExpr = append(isExpr, expr)
		cur = nil
	}

	for _, c := range runes {
		switch state {
		case outsideUnescaped:
			switch c {
			case '\\':
				state = outsideEscaped
			case '$':
				flush(false)
				state = insideUnescaped
			default:
				cur = append(cur, c)
			}
		case outsideEscaped:
			if c == '$' {
				cur = append(cur, '$')
			} else {
				cur = append(cur, '\\', c)
			}
			state = outsideUnescaped
		case insideUnescaped:
			switch c {
			case '\\':
				state = insideEscaped
			case '$':
				flush(true)
				state = outsideUnescaped
			default:
				cur = append(cur, c)
			}
		case insideEscaped:
			if c == '$' {
				cur = append(cur, '$')
			} else {
				cur = append(cur, '\\', c)
			}
			state = insideUnescaped
		}
	}

	switch state {
	case outsideEscaped:
		cur = append(cur, '\\')
		flush(false)
	case outsideUnescaped:
		flush(false)
	case insideUnescaped, insideEscaped:
		return nil, nil, errors.New("unbalanced '$' in string interpolation")
	}
	return fragments, isExpr, nil
}
