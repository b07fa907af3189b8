// Package parser turns query source text into a syntax tree.
//
// Statements:
//
//	[select] [.|*|+|?] Entity[pk][.related][(columns)][-> Projection] clauses
//	SELECT columns|* FROM Entity clauses
//	update Entity[pk][.related] field = value, ... [where expr]
//	insert Entity field = value, ...
//
// Clauses come in the fixed order where, group by, having, order by,
// limit|page and each appears at most once.
package parser

import (
	"fmt"

	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/ast"
	"github.com/satishbabariya/entql/internal/core/query/lexer"
)

// Parser is a recursive-descent parser over a token slice.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// New tokenizes src and returns a parser positioned at its first token.
func New(src string) (*Parser, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return &Parser{toks: toks}, nil
}

// Parse parses one complete statement.
func Parse(src string) (ast.Statement, error) {
	p, err := New(src)
	if err != nil {
		return nil, err
	}
	stmt, err := p.ParseStatement()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// ParseExpr parses one complete expression.
func ParseExpr(src string) (ast.Expr, error) {
	p, err := New(src)
	if err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return e, nil
}

// ParseStatement parses a select, update or insert statement.
func (p *Parser) ParseStatement() (ast.Statement, error) {
	tok := p.peek()
	switch {
	case tok.Kind == lexer.Ident && tok.Value == "SELECT":
		p.next()
		return p.parseGeneric(tok.Span)
	case tok.IsKeyword("select"):
		p.next()
		return p.parseSelect(tok.Span)
	case tok.IsKeyword("update"):
		p.next()
		return p.parseUpdate(tok.Span)
	case tok.IsKeyword("insert"):
		p.next()
		return p.parseInsert(tok.Span)
	case tok.Kind == lexer.Ident || isSigil(tok):
		return p.parseSelect(tok.Span)
	default:
		return nil, p.unexpected(tok, "a statement")
	}
}

func (p *Parser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) next() lexer.Token {
	tok := p.toks[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

// prev returns the last consumed token.
func (p *Parser) prev() lexer.Token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *Parser) spanFrom(start diagnostics.Span) diagnostics.Span {
	return start.Merge(p.prev().Span)
}

func (p *Parser) expect(s string) (lexer.Token, error) {
	tok := p.peek()
	if !tok.Is(s) {
		return tok, p.unexpected(tok, fmt.Sprintf("%q", s))
	}
	return p.next(), nil
}

func (p *Parser) expectIdent(what string) (lexer.Token, error) {
	tok := p.peek()
	if tok.Kind != lexer.Ident || isReserved(tok) {
		return tok, p.unexpected(tok, what)
	}
	return p.next(), nil
}

func (p *Parser) expectEOF() error {
	if tok := p.peek(); tok.Kind != lexer.EOF {
		return p.unexpected(tok, "end of input")
	}
	return nil
}

func (p *Parser) unexpected(tok lexer.Token, want string) error {
	return diagnostics.NewParseError(tok.Span, "expected %s, found %s", want, describe(tok))
}

func describe(tok lexer.Token) string {
	if tok.Kind == lexer.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Value)
}

func isSigil(tok lexer.Token) bool {
	return tok.Is(".") || tok.Is("*") || tok.Is("+") || tok.Is("?")
}

var reserved = map[string]bool{
	"where": true, "group": true, "group_by": true, "having": true,
	"order": true, "order_by": true, "limit": true, "page": true,
	"as": true, "like": true, "in": true, "from": true,
}

func isReserved(tok lexer.Token) bool {
	if tok.Kind != lexer.Ident {
		return false
	}
	for kw := range reserved {
		if tok.IsKeyword(kw) {
			return true
		}
	}
	return false
}
