// Package parser is a hand-written recursive-descent/Pratt parser that
// turns setlx source text directly into internal/cst trees. It is the
// external collaborator spec.md §2/§6 name only by the CST interface they
// must produce; grammar completeness is not the point of this front end
// (spec.md §2 "Out of scope: the grammar/parser generator itself"), so this
// parser covers the constructs the passes and lowering actually exercise.
package parser

import (
	"strconv"

	"github.com/pkg/errors"

	"setlx/internal/cst"
	"setlx/internal/lexer"
	"setlx/internal/token"
)

// Parser holds parse state over a pre-tokenized input.
type Parser struct {
	filename string
	toks     []lexer.Tok
	pos      int
}

// ParseProgram tokenizes and parses a whole source file into a top-level
// block (the implicit `main` procedure body).
func ParseProgram(filename, src string) (*cst.Block, error) {
	toks, err := lexer.Tokenize(filename, src)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	p := &Parser{filename: filename, toks: toks}
	blk, err := p.parseStmtsUntil(token.EOF)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	return blk, nil
}

// ParseExpr parses a standalone expression, e.g. for the string pass
// re-invoking the expression parser on an interpolated `$...$` fragment
// (spec.md §4.2).
func ParseExpr(filename, src string) (cst.Expr, error) {
	toks, err := lexer.Tokenize(filename, src)
	if err != nil {
		return nil, errors.Wrap(err, "parse interpolation")
	}
	p := &Parser{filename: filename, toks: toks}
	e, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, errors.Wrap(err, "parse interpolation")
	}
	if !p.at(token.EOF) {
		return nil, errors.Errorf("parse interpolation: unexpected trailing token %s %q", p.cur().Type, p.cur().Value)
	}
	return e, nil
}

func (p *Parser) cur() lexer.Tok {
	if p.pos >= len(p.toks) {
		return lexer.Tok{Type: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Tok {
	i := p.pos + n
	if i >= len(p.toks) {
		return lexer.Tok{Type: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) pos_() cst.Position {
	t := p.cur()
	return cst.Position{Line: t.Line, Column: t.Column}
}

func (p *Parser) advance() lexer.Tok {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) at(t token.Type) bool { return p.cur().Type == t }

func (p *Parser) expect(t token.Type) (lexer.Tok, error) {
	if !p.at(t) {
		return lexer.Tok{}, errors.Errorf("%s:%d:%d: expected %s, found %s %q",
			p.filename, p.cur().Line, p.cur().Column, t, p.cur().Type, p.cur().Value)
	}
	return p.advance(), nil
}

func (p *Parser) accept(t token.Type) bool {
	if p.at(t) {
		p.advance()
		return true
	}
	return false
}

func atoiMust(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
