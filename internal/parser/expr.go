package parser

import (
	"github.com/pkg/errors"

	"setlx/internal/cst"
	"setlx/internal/token"
)

type precedence int

const (
	precLowest precedence = iota
	precImpl              // =>
	precOr
	precAnd
	precRel // < <= > >= == != in notin
	precAdd // + -
	precMul // * / \ %
	precUnary
	precPostfix
)

var binPrec = map[token.Type]precedence{
	token.IMPL: precImpl,
	token.OR:   precOr,
	token.AND:  precAnd,
	token.LT:   precRel, token.LE: precRel, token.GT: precRel, token.GE: precRel,
	token.EQ: precRel, token.NEQ: precRel, token.IN: precRel, token.NOTIN: precRel,
	token.PLUS: precAdd, token.MINUS: precAdd,
	token.STAR: precMul, token.SLASH: precMul, token.INTDIV: precMul, token.PERCENT: precMul,
}

var binOps = map[token.Type]cst.BinaryOp{
	token.IMPL: cst.OpImpl, token.OR: cst.OpOr, token.AND: cst.OpAnd,
	token.LT: cst.OpLess, token.LE: cst.OpLessEq, token.GT: cst.OpGreater, token.GE: cst.OpGreaterEq,
	token.EQ: cst.OpEqual, token.NEQ: cst.OpNotEqual, token.IN: cst.OpIn, token.NOTIN: cst.OpNotIn,
	token.PLUS: cst.OpPlus, token.MINUS: cst.OpMinus,
	token.STAR: cst.OpMult, token.SLASH: cst.OpDivide, token.INTDIV: cst.OpIntDivide, token.PERCENT: cst.OpMod,
}

// parseExpr implements Pratt-style precedence climbing.
func (p *Parser) parseExpr(min precedence) (cst.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := binOps[p.cur().Type]
		if !ok {
			break
		}
		prec := binPrec[p.cur().Type]
		if prec < min {
			break
		}
		pos := p.pos_()
		p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{P: pos}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (cst.Expr, error) {
	pos := p.pos_()
	switch p.cur().Type {
	case token.MINUS:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &cst.UnaryExpr{Base: cst.Base{P: pos}, Op: cst.OpNeg, Operand: operand}, nil
	case token.HASH:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &cst.UnaryExpr{Base: cst.Base{P: pos}, Op: cst.OpAmount, Operand: operand}, nil
	case token.BANG, token.NOT:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &cst.UnaryExpr{Base: cst.Base{P: pos}, Op: cst.OpNot, Operand: operand}, nil
	case token.FOLDPLUS:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &cst.UnaryExpr{Base: cst.Base{P: pos}, Op: cst.OpFoldPlus, Operand: operand}, nil
	case token.FOLDSTAR:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &cst.UnaryExpr{Base: cst.Base{P: pos}, Op: cst.OpFoldMult, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (cst.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		pos := p.pos_()
		switch p.cur().Type {
		case token.BANG:
			p.advance()
			e = &cst.UnaryExpr{Base: cst.Base{P: pos}, Op: cst.OpFactorial, Operand: e}
		case token.DOT, token.LPAREN, token.LBRACKET, token.LBRACE:
			step, ok, err := p.tryAccessStep()
			if err != nil {
				return nil, err
			}
			if !ok {
				return e, nil
			}
			ae, isAccess := e.(*cst.AccessExpr)
			if isAccess {
				ae.Steps = append(ae.Steps, step)
			} else {
				e = &cst.AccessExpr{Base: cst.Base{P: pos}, Head: e, Steps: []cst.AccessStep{step}}
			}
		default:
			return e, nil
		}
	}
}

// tryAccessStep parses one postfix chain step. A `.`, `(`, `[` or `{` after
// an expression is always consumed as a step; ok=false (consuming nothing)
// is returned only when the current token starts no step.
func (p *Parser) tryAccessStep() (cst.AccessStep, bool, error) {
	switch p.cur().Type {
	case token.DOT:
		p.advance()
		name, err := p.expect(token.IDENT)
		if err != nil {
			return cst.AccessStep{}, false, err
		}
		return cst.AccessStep{Kind: cst.AccessField, Name: name.Value}, true, nil
	case token.LPAREN:
		p.advance()
		args, err := p.parseExprList(token.RPAREN)
		if err != nil {
			return cst.AccessStep{}, false, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return cst.AccessStep{}, false, err
		}
		return cst.AccessStep{Kind: cst.AccessCall, Args: args}, true, nil
	case token.LBRACKET:
		p.advance()
		lo, err := p.parseExpr(precLowest)
		if err != nil {
			return cst.AccessStep{}, false, err
		}
		if p.accept(token.RANGE) {
			hi, err := p.parseExpr(precLowest)
			if err != nil {
				return cst.AccessStep{}, false, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return cst.AccessStep{}, false, err
			}
			return cst.AccessStep{Kind: cst.AccessSlice, Lo: lo, Hi: hi}, true, nil
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return cst.AccessStep{}, false, err
		}
		return cst.AccessStep{Kind: cst.AccessIndex, Index: lo}, true, nil
	case token.LBRACE:
		p.advance()
		key, err := p.parseExpr(precLowest)
		if err != nil {
			return cst.AccessStep{}, false, err
		}
		if _, err := p.expect(token.RBRACE); err != nil {
			return cst.AccessStep{}, false, err
		}
		return cst.AccessStep{Kind: cst.AccessMember, Index: key}, true, nil
	}
	return cst.AccessStep{}, false, nil
}

func (p *Parser) parseExprList(end token.Type) ([]cst.Expr, error) {
	var out []cst.Expr
	if p.at(end) {
		return out, nil
	}
	for {
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if !p.accept(token.COMMA) {
			break
		}
		if p.at(end) { // trailing comma
			break
		}
	}
	return out, nil
}

func (p *Parser) parsePrimary() (cst.Expr, error) {
	pos := p.pos_()
	tok := p.cur()
	switch tok.Type {
	case token.IGNORE:
		p.advance()
		return &cst.Ignore{Base: cst.Base{P: pos}}, nil
	case token.UNDEFINED:
		p.advance()
		return &cst.UndefinedLit{Base: cst.Base{P: pos}}, nil
	case token.TRUE:
		p.advance()
		return &cst.BoolLit{Base: cst.Base{P: pos}, Value: true}, nil
	case token.FALSE:
		p.advance()
		return &cst.BoolLit{Base: cst.Base{P: pos}, Value: false}, nil
	case token.NUMBER:
		p.advance()
		return &cst.NumberLit{Base: cst.Base{P: pos}, Value: tok.Value}, nil
	case token.DOUBLE:
		p.advance()
		return &cst.DoubleLit{Base: cst.Base{P: pos}, Value: tok.Value}, nil
	case token.STRING:
		p.advance()
		return &cst.StringLit{Base: cst.Base{P: pos}, Raw: tok.Value[1 : len(tok.Value)-1]}, nil
	case token.LIT:
		p.advance()
		return &cst.Literal{Base: cst.Base{P: pos}, Value: cst.Unescape(tok.Value[1 : len(tok.Value)-1])}, nil
	case token.IDENT:
		p.advance()
		if p.at(token.LPAREN) {
			return p.parseCallOrTerm(pos, tok.Value)
		}
		return &cst.Variable{Base: cst.Base{P: pos}, Name: tok.Value}, nil
	case token.LPAREN:
		p.advance()
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case token.LBRACKET:
		return p.parseBracketed(cst.CollList)
	case token.LBRACE:
		return p.parseBracketed(cst.CollSet)
	case token.EXISTS:
		return p.parseQuantifier(cst.QuantExists)
	case token.FORALL:
		return p.parseQuantifier(cst.QuantForall)
	case token.PROCEDURE:
		return p.parseProcedureLit(cst.ProcPlain)
	case token.CACHED:
		p.advance()
		if _, err := p.expect(token.PROCEDURE); err != nil {
			return nil, err
		}
		return p.finishProcedureLit(pos, cst.ProcCached)
	case token.CLOSURE:
		return p.parseProcedureLit(cst.ProcClosure)
	}
	return nil, errors.Errorf("%s:%d:%d: unexpected token %s %q in expression",
		p.filename, tok.Line, tok.Column, tok.Type, tok.Value)
}

// parseCallOrTerm parses `f(args)`; it does not tell a call from a
// `term(args)` literal. Plain lowercase identifiers that aren't otherwise known as
// variables lower the same way in both cases at parse time — the assignment
// parser/expression lowerer distinguish term-patterns from calls by the
// surrounding pattern context (spec.md §4.5), so at this layer every
// `ident(args)` parses as a CallExpr; `internal/ir/lower` treats a CallExpr
// used as a pattern head as a term/AST-shape match per spec.md §4.5's `call`
// row.
func (p *Parser) parseCallOrTerm(pos cst.Position, name string) (cst.Expr, error) {
	p.advance() // (
	args, err := p.parseExprList(token.RPAREN)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return &cst.CallExpr{Base: cst.Base{P: pos}, Callee: &cst.Variable{Base: cst.Base{P: pos}, Name: name}, Args: args}, nil
}

func (p *Parser) parseBracketed(kind cst.CollectionKind) (cst.Expr, error) {
	pos := p.pos_()
	open, closeT := token.LBRACKET, token.RBRACKET
	if kind == cst.CollSet {
		open, closeT = token.LBRACE, token.RBRACE
	}
	if _, err := p.expect(open); err != nil {
		return nil, err
	}
	if p.at(closeT) {
		p.advance()
		return &cst.Collection{Base: cst.Base{P: pos}, Kind: kind}, nil
	}
	first, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if p.accept(token.COLON) {
		params, err := p.parseIterParams()
		if err != nil {
			return nil, err
		}
		var filter cst.Expr
		if p.accept(token.PIPE) {
			filter, err = p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(closeT); err != nil {
			return nil, err
		}
		return &cst.Comprehension{Base: cst.Base{P: pos}, Kind: kind, Result: first, Params: params, Filter: filter}, nil
	}
	if p.accept(token.RANGE) {
		hi, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(closeT); err != nil {
			return nil, err
		}
		return &cst.Collection{Base: cst.Base{P: pos}, Kind: kind, IsRange: true, Lo: first, Hi: hi}, nil
	}
	elems := []cst.Expr{first}
	var rest cst.Expr
	for p.accept(token.COMMA) {
		if p.at(closeT) {
			break
		}
		if p.accept(token.PIPE) {
			rest, err = p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			break
		}
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if rest == nil && p.accept(token.PIPE) {
		rest, err = p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(closeT); err != nil {
		return nil, err
	}
	return &cst.Collection{Base: cst.Base{P: pos}, Kind: kind, Elems: elems, Rest: rest}, nil
}

func (p *Parser) parseIterParams() ([]cst.IterParam, error) {
	var out []cst.IterParam
	for {
		pat, err := p.parseExpr(precRel + 1)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.IN); err != nil {
			return nil, err
		}
		coll, err := p.parseExpr(precRel + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, cst.IterParam{Pattern: pat, Collection: coll})
		if !p.accept(token.COMMA) {
			break
		}
	}
	return out, nil
}

func (p *Parser) parseQuantifier(kind cst.QuantKind) (cst.Expr, error) {
	pos := p.pos_()
	p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseIterParams()
	if err != nil {
		return nil, err
	}
	var filter cst.Expr
	if p.accept(token.PIPE) {
		filter, err = p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	return &cst.QuantifierExpr{Base: cst.Base{P: pos}, Kind: kind, Params: params, Filter: filter, Cond: cond}, nil
}

func (p *Parser) parseProcedureLit(kind cst.ProcKind) (cst.Expr, error) {
	pos := p.pos_()
	p.advance() // 'procedure' or 'closure'
	return p.finishProcedureLit(pos, kind)
}

func (p *Parser) finishProcedureLit(pos cst.Position, kind cst.ProcKind) (cst.Expr, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseParamList(token.RPAREN)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if kind == cst.ProcClosure {
		body, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		return &cst.LambdaExpr{Base: cst.Base{P: pos}, Params: paramNames(params), Body: body, Closed: true}, nil
	}
	body, err := p.parseBlockBraced()
	if err != nil {
		return nil, err
	}
	return &cst.ProcedureLit{Base: cst.Base{P: pos}, Kind: kind, Params: params, Body: *body}, nil
}

func paramNames(ps []cst.Param) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func (p *Parser) parseParamList(end token.Type) ([]cst.Param, error) {
	var out []cst.Param
	for !p.at(end) {
		kind := cst.ParamByValue
		if p.accept(token.RW) {
			kind = cst.ParamByRef
		} else if p.accept(token.RANGE) {
			kind = cst.ParamRest
		}
		name, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		var def cst.Expr
		if p.accept(token.ASSIGN) {
			def, err = p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, cst.Param{Name: name.Value, Kind: kind, Default: def})
		if !p.accept(token.COMMA) {
			break
		}
	}
	return out, nil
}
