package parser

import (
	"github.com/pkg/errors"

	"setlx/internal/cst"
	"setlx/internal/token"
)

func (p *Parser) parseBlockBraced() (*cst.Block, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	blk, err := p.parseStmtsUntil(token.RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return blk, nil
}

func (p *Parser) parseStmtsUntil(end token.Type) (*cst.Block, error) {
	blk := &cst.Block{}
	for !p.at(end) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, s)
	}
	return blk, nil
}

var compoundOps = map[token.Type]cst.BinaryOp{
	token.PLUSEQ: cst.OpPlus, token.MINUSEQ: cst.OpMinus,
	token.STAREQ: cst.OpMult, token.SLASHEQ: cst.OpDivide, token.PERCENTEQ: cst.OpMod,
}

func (p *Parser) parseStmt() (cst.Stmt, error) {
	pos := p.pos_()
	switch p.cur().Type {
	case token.IF:
		return p.parseIf()
	case token.SWITCH:
		return p.parseSwitch()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.FOR:
		return p.parseFor()
	case token.TRY:
		return p.parseTry()
	case token.CHECK:
		return p.parseCheck()
	case token.BACKTRACK:
		p.advance()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &cst.BacktrackStmt{Base: cst.Base{P: pos}}, nil
	case token.MATCH:
		return p.parseMatch()
	case token.SCAN:
		return p.parseScan()
	case token.CLASS:
		return p.parseClass()
	case token.RETURN:
		p.advance()
		if p.accept(token.SEMICOLON) {
			return &cst.ReturnStmt{Base: cst.Base{P: pos}}, nil
		}
		v, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &cst.ReturnStmt{Base: cst.Base{P: pos}, Value: v}, nil
	case token.BREAK:
		p.advance()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &cst.BreakStmt{Base: cst.Base{P: pos}}, nil
	case token.CONTINUE:
		p.advance()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &cst.ContinueStmt{Base: cst.Base{P: pos}}, nil
	case token.EXIT:
		p.advance()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &cst.ExitStmt{Base: cst.Base{P: pos}}, nil
	}
	return p.parseSimpleStmt()
}

// parseSimpleStmt handles assignment, compound-assignment, and bare
// expression statements, which all start with an expression.
func (p *Parser) parseSimpleStmt() (cst.Stmt, error) {
	pos := p.pos_()
	first, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if op, ok := compoundOps[p.cur().Type]; ok {
		p.advance()
		rhs, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &cst.CompoundAssignStmt{Base: cst.Base{P: pos}, Target: first, Op: op, Value: rhs}, nil
	}
	if p.at(token.ASSIGN) {
		targets := []cst.Expr{first}
		for p.accept(token.ASSIGN) {
			e, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			targets = append(targets, e)
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		value := targets[len(targets)-1]
		return &cst.AssignStmt{Base: cst.Base{P: pos}, Targets: targets[:len(targets)-1], Value: value}, nil
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &cst.ExprStmt{Base: cst.Base{P: pos}, Expr: first}, nil
}

func (p *Parser) parseIf() (cst.Stmt, error) {
	pos := p.pos_()
	p.advance()
	var branches []cst.IfBranch
	for {
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseBlockBraced()
		if err != nil {
			return nil, err
		}
		branches = append(branches, cst.IfBranch{Cond: cond, Body: *body})
		if p.at(token.ELSE) && p.peekAt(1).Type == token.IF {
			p.advance()
			p.advance()
			continue
		}
		break
	}
	var elseBlk *cst.Block
	if p.accept(token.ELSE) {
		b, err := p.parseBlockBraced()
		if err != nil {
			return nil, err
		}
		elseBlk = b
	}
	return &cst.IfStmt{Base: cst.Base{P: pos}, Branches: branches, Else: elseBlk}, nil
}

func (p *Parser) parseSwitch() (cst.Stmt, error) {
	pos := p.pos_()
	p.advance()
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var branches []cst.IfBranch
	var def *cst.Block
	for !p.at(token.RBRACE) {
		if p.accept(token.CASE) {
			cond, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			body, err := p.parseStmtsUntilCaseEnd()
			if err != nil {
				return nil, err
			}
			branches = append(branches, cst.IfBranch{Cond: cond, Body: *body})
			continue
		}
		if _, err := p.expect(token.DEFAULT); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		body, err := p.parseStmtsUntilCaseEnd()
		if err != nil {
			return nil, err
		}
		def = body
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &cst.SwitchStmt{Base: cst.Base{P: pos}, Branches: branches, Default: def}, nil
}

func (p *Parser) parseStmtsUntilCaseEnd() (*cst.Block, error) {
	blk := &cst.Block{}
	for !p.at(token.CASE) && !p.at(token.DEFAULT) && !p.at(token.RBRACE) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, s)
	}
	return blk, nil
}

func (p *Parser) parseWhile() (cst.Stmt, error) {
	pos := p.pos_()
	p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlockBraced()
	if err != nil {
		return nil, err
	}
	return &cst.WhileStmt{Base: cst.Base{P: pos}, Cond: cond, Body: *body}, nil
}

func (p *Parser) parseDoWhile() (cst.Stmt, error) {
	pos := p.pos_()
	p.advance()
	body, err := p.parseBlockBraced()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &cst.DoWhileStmt{Base: cst.Base{P: pos}, Body: *body, Cond: cond}, nil
}

func (p *Parser) parseFor() (cst.Stmt, error) {
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
	body, err := p.parseBlockBraced()
	if err != nil {
		return nil, err
	}
	return &cst.ForStmt{Base: cst.Base{P: pos}, Params: params, Filter: filter, Body: *body}, nil
}

func (p *Parser) parseTry() (cst.Stmt, error) {
	pos := p.pos_()
	p.advance()
	body, err := p.parseBlockBraced()
	if err != nil {
		return nil, err
	}
	var catches []cst.CatchBranch
	for p.at(token.CATCH) || p.at(token.CATCHLNG) || p.at(token.CATCHUSR) {
		kind := cst.CatchFinal
		switch p.cur().Type {
		case token.CATCHLNG:
			kind = cst.CatchLanguage
		case token.CATCHUSR:
			kind = cst.CatchUser
		}
		p.advance()
		var name string
		if p.accept(token.LPAREN) {
			n, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			name = n.Value
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
		}
		cbody, err := p.parseBlockBraced()
		if err != nil {
			return nil, err
		}
		catches = append(catches, cst.CatchBranch{Kind: kind, ExnName: name, Body: *cbody})
	}
	if len(catches) == 0 {
		return nil, errors.Errorf("%s:%d:%d: try without any catch clause", p.filename, pos.Line, pos.Column)
	}
	return &cst.TryCatchStmt{Base: cst.Base{P: pos}, Try: *body, Catches: catches}, nil
}

func (p *Parser) parseCheck() (cst.Stmt, error) {
	pos := p.pos_()
	p.advance()
	body, err := p.parseBlockBraced()
	if err != nil {
		return nil, err
	}
	after := &cst.Block{}
	if p.accept(token.CATCH) {
		if p.accept(token.LPAREN) {
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
		}
		a, err := p.parseBlockBraced()
		if err != nil {
			return nil, err
		}
		after = a
	}
	return &cst.CheckStmt{Base: cst.Base{P: pos}, Body: *body, AfterBacktrack: *after}, nil
}

func (p *Parser) parseMatch() (cst.Stmt, error) {
	pos := p.pos_()
	p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	scrutinee, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var branches []cst.MatchBranch
	var def *cst.Block
	for !p.at(token.RBRACE) {
		if p.accept(token.DEFAULT) {
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			body, err := p.parseStmtsUntilBranchEnd()
			if err != nil {
				return nil, err
			}
			def = body
			continue
		}
		if _, err := p.expect(token.CASE); err != nil {
			return nil, err
		}
		if p.at(token.STRING) && (p.peekAt(1).Type == token.COLON || p.peekAt(1).Type == token.PIPE) {
			rxTok, err := p.expect(token.STRING)
			if err != nil {
				return nil, err
			}
			var cond cst.Expr
			if p.accept(token.PIPE) {
				cond, err = p.parseExpr(precLowest)
				if err != nil {
					return nil, err
				}
			}
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			body, err := p.parseStmtsUntilBranchEnd()
			if err != nil {
				return nil, err
			}
			branches = append(branches, cst.MatchBranch{IsRegex: true, Regex: rxTok.Value[1 : len(rxTok.Value)-1], Cond: cond, Body: *body})
			continue
		}
		pat, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		var cond cst.Expr
		if p.accept(token.PIPE) {
			cond, err = p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		body, err := p.parseStmtsUntilBranchEnd()
		if err != nil {
			return nil, err
		}
		branches = append(branches, cst.MatchBranch{Pattern: pat, Cond: cond, Body: *body})
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &cst.MatchStmt{Base: cst.Base{P: pos}, Scrutinee: scrutinee, Branches: branches, Default: def}, nil
}

func (p *Parser) parseStmtsUntilBranchEnd() (*cst.Block, error) {
	blk := &cst.Block{}
	for !p.at(token.CASE) && !p.at(token.DEFAULT) && !p.at(token.RBRACE) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, s)
	}
	return blk, nil
}

func (p *Parser) parseScan() (cst.Stmt, error) {
	pos := p.pos_()
	p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	scrutinee, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var branches []cst.ScanBranch
	for !p.at(token.RBRACE) {
		if _, err := p.expect(token.CASE); err != nil {
			return nil, err
		}
		rxTok, err := p.expect(token.STRING)
		if err != nil {
			return nil, err
		}
		var cond cst.Expr
		if p.accept(token.PIPE) {
			cond, err = p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		body, err := p.parseStmtsUntilCaseEnd()
		if err != nil {
			return nil, err
		}
		branches = append(branches, cst.ScanBranch{Regex: rxTok.Value[1 : len(rxTok.Value)-1], Cond: cond, Body: *body})
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &cst.ScanStmt{Base: cst.Base{P: pos}, Scrutinee: scrutinee, Branches: branches}, nil
}

func (p *Parser) parseClass() (cst.Stmt, error) {
	pos := p.pos_()
	p.advance()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
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
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var static *cst.Block
	if p.accept(token.STATIC) {
		s, err := p.parseBlockBraced()
		if err != nil {
			return nil, err
		}
		static = s
	}
	body, err := p.parseStmtsUntil(token.RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &cst.ClassStmt{Base: cst.Base{P: pos}, Name: name.Value, Params: params, Static: static, Body: *body}, nil
}
