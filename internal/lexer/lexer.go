// Package lexer tokenizes setlx source text.
//
// Tokenizing is delegated to participle's stateful regex lexer (the same
// mechanism the teacher's grammar/lexer.go uses to drive its struct-tag
// grammar); here it is driven standalone, since setlx's grammar — string
// interpolation, regex-bearing match/scan branches, fold operators — is
// parsed by a hand-written recursive-descent parser instead of participle's
// struct-tag grammar.
package lexer

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"setlx/internal/token"
)

// SetlxLexer is the stateful rule set used to tokenize setlx source.
var SetlxLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Whitespace", `[ \t\r\n]+`, nil},
		{"LineComment", `//[^\n]*`, nil},
		{"BlockComment", `/\*([^*]|\*[^/])*\*/`, nil},
		{"String", `"(?:\\.|[^"\\])*"`, nil},
		{"Literal", `'(?:\\.|[^'\\])*'`, nil},
		{"Double", `[0-9]+\.[0-9]+(?:[eE][-+]?[0-9]+)?`, nil},
		{"Number", `[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Op3", `:=|\+/|\*/|<=|>=|==|!=|=>|&&|\|\||\+=|-=|\*=|/=|%=|\.\.`, nil},
		{"Op1", `[-+*/%\\!#<>.,;:(){}\[\]|$]`, nil},
	},
})

// Tok is a tokenized lexeme together with its resolved Type.
type Tok struct {
	Type   token.Type
	Value  string
	Line   int
	Column int
}

// Tokenize runs the stateful lexer over src and resolves every raw token
// into a setlx token.Type, collapsing whitespace and comments.
func Tokenize(filename, src string) ([]Tok, error) {
	def, err := SetlxLexer.Lex(filename, strings.NewReader(src))
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}

	symbols := SetlxLexer.Symbols()
	names := make(map[rune]string, len(symbols))
	for name, r := range symbols {
		names[r] = name
	}

	var out []Tok
	for {
		raw, err := def.Next()
		if err != nil {
			return nil, errors.Wrap(err, "lex")
		}
		if raw.EOF() {
			out = append(out, Tok{Type: token.EOF, Line: raw.Pos.Line, Column: raw.Pos.Column})
			break
		}

		switch names[raw.Type] {
		case "Whitespace", "LineComment", "BlockComment":
			continue
		}

		tt, err := classify(names[raw.Type], raw.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d:%d", filename, raw.Pos.Line, raw.Pos.Column)
		}
		out = append(out, Tok{Type: tt, Value: raw.Value, Line: raw.Pos.Line, Column: raw.Pos.Column})
	}
	return out, nil
}

func classify(rule, value string) (token.Type, error) {
	switch rule {
	case "String":
		return token.STRING, nil
	case "Literal":
		return token.LIT, nil
	case "Double":
		return token.DOUBLE, nil
	case "Number":
		return token.NUMBER, nil
	case "Ident":
		if value == "_" {
			return token.IGNORE, nil
		}
		return token.LookupIdent(value), nil
	case "Op3", "Op1":
		if t, ok := operatorTypes[value]; ok {
			return t, nil
		}
		return token.ILLEGAL, errors.Errorf("unrecognised operator %q", value)
	default:
		return token.ILLEGAL, errors.Errorf("unrecognised token rule %q", rule)
	}
}

var operatorTypes = map[string]token.Type{
	":=": token.ASSIGN, "+/": token.FOLDPLUS, "*/": token.FOLDSTAR,
	"<=": token.LE, ">=": token.GE, "==": token.EQ, "!=": token.NEQ,
	"=>": token.IMPL, "&&": token.AND, "||": token.OR,
	"+=": token.PLUSEQ, "-=": token.MINUSEQ, "*=": token.STAREQ,
	"/=": token.SLASHEQ, "%=": token.PERCENTEQ, "..": token.RANGE,
	"+": token.PLUS, "-": token.MINUS, "*": token.STAR, "/": token.SLASH,
	"%": token.PERCENT, "\\": token.INTDIV, "!": token.BANG, "#": token.HASH,
	"<": token.LT, ">": token.GT, ".": token.DOT, ",": token.COMMA,
	";": token.SEMICOLON, ":": token.COLON, "(": token.LPAREN, ")": token.RPAREN,
	"{": token.LBRACE, "}": token.RBRACE, "[": token.LBRACKET, "]": token.RBRACKET,
	"|": token.PIPE, "$": token.DOLLAR,
}
