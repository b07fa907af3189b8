package parser

import (
	"regexp"
	"strings"

	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/ast"
	"github.com/satishbabariya/entql/internal/core/query/lexer"
)

// aliasPattern is the accepted shape of a quoted cast alias:
// name, optional nullability marker, optional ": Type".
var aliasPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*[?!]?(\s*:\s*.+)?$`)

// ordinalMarker matches a numbered placeholder such as $1.
var ordinalMarker = regexp.MustCompile(`\$\d`)

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseBinary(ast.PrecOr)
}

func (p *Parser) peekOp() (ast.Op, bool) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Punct, lexer.Op2:
		return ast.LookupOp(tok.Value)
	case lexer.Ident:
		if tok.IsKeyword("like") || tok.IsKeyword("in") {
			return ast.LookupOp(tok.Value)
		}
	}
	return "", false
}

// parseBinary is precedence climbing over the operator table in ast.
// Comparisons do not chain: a < b < c is rejected.
func (p *Parser) parseBinary(minPrec int) (ast.Expr, error) {
	lhs, err := p.parseCast()
	if err != nil {
		return nil, err
	}

	compared := false
	for {
		op, ok := p.peekOp()
		if !ok || op.Precedence() < minPrec {
			return lhs, nil
		}
		opTok := p.next()
		if op.IsComparison() && compared {
			return nil, diagnostics.NewParseError(opTok.Span, "comparison operators cannot be chained")
		}
		compared = op.IsComparison()

		rhs, err := p.parseBinary(op.Precedence() + 1)
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{LHS: lhs, Op: op, RHS: rhs, Pos: lhs.Span().Merge(rhs.Span())}
	}
}

func (p *Parser) parseCast() (ast.Expr, error) {
	e, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().IsKeyword("as") {
		p.next()
		tok := p.next()
		cast := &ast.Cast{Expr: e}
		switch tok.Kind {
		case lexer.Ident:
			cast.Alias = tok.Value
		case lexer.String:
			alias, err := lexer.Unquote(tok.Value)
			if err != nil {
				return nil, diagnostics.NewParseError(tok.Span, "invalid string: %v", err)
			}
			if !aliasPattern.MatchString(alias) {
				return nil, diagnostics.Errorf(diagnostics.InvalidAliasFormat, tok.Span,
					"alias %q must look like name, name? or name: Type", alias)
			}
			cast.Alias = alias
			cast.Quoted = true
		default:
			return nil, p.unexpected(tok, "an alias")
		}
		cast.Pos = e.Span().Merge(tok.Span)
		e = cast
	}
	return e, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	tok := p.peek()
	switch {
	case tok.Is("-"):
		p.next()
		if lit := p.peek(); lit.Kind == lexer.Int || lit.Kind == lexer.Float {
			p.next()
			kind := ast.IntLit
			if lit.Kind == lexer.Float {
				kind = ast.FloatLit
			}
			return &ast.Literal{Kind: kind, Raw: "-" + lit.Value, Pos: tok.Span.Merge(lit.Span)}, nil
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.Minus, Expr: e, Pos: tok.Span.Merge(e.Span())}, nil
	case tok.Is("!"):
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.Not, Expr: e, Pos: tok.Span.Merge(e.Span())}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Int:
		p.next()
		return &ast.Literal{Kind: ast.IntLit, Raw: tok.Value, Pos: tok.Span}, nil
	case lexer.Float:
		p.next()
		return &ast.Literal{Kind: ast.FloatLit, Raw: tok.Value, Pos: tok.Span}, nil
	case lexer.String:
		p.next()
		return &ast.Literal{Kind: ast.StringLit, Raw: tok.Value, Pos: tok.Span}, nil
	case lexer.Raw:
		p.next()
		sql := tok.Value[1 : len(tok.Value)-1]
		if strings.Contains(sql, "?") || ordinalMarker.MatchString(sql) {
			return nil, diagnostics.NewParseError(tok.Span, "raw SQL cannot contain a placeholder")
		}
		return &ast.RawValue{SQL: sql, Pos: tok.Span}, nil
	case lexer.Param:
		p.next()
		return &ast.HostParam{Name: tok.Value[1:], Pos: tok.Span}, nil
	case lexer.Ident:
		return p.parseIdent()
	}

	if tok.Is("(") {
		return p.parseParen()
	}
	return nil, p.unexpected(tok, "an expression")
}

func (p *Parser) parseIdent() (ast.Expr, error) {
	tok := p.peek()
	switch {
	case tok.Value == "true" || tok.Value == "false":
		p.next()
		return &ast.Literal{Kind: ast.BoolLit, Raw: tok.Value, Pos: tok.Span}, nil
	case tok.Value == "None" || tok.IsKeyword("null"):
		p.next()
		return &ast.Literal{Kind: ast.NullLit, Raw: tok.Value, Pos: tok.Span}, nil
	case tok.IsKeyword("case"):
		return p.parseCase()
	case isReserved(tok):
		return nil, p.unexpected(tok, "an expression")
	}
	p.next()

	next := p.peek()
	switch {
	case next.Is("("):
		if p.peekAt(1).IsKeyword("select") {
			return p.parseSubSelect(tok)
		}
		return p.parseCall(tok)
	case next.Is("."), next.Kind == lexer.LeftDot:
		p.next()
		member, err := p.expectIdent("a field name")
		if err != nil {
			return nil, err
		}
		join := ast.InnerJoin
		if next.Kind == lexer.LeftDot {
			join = ast.LeftJoin
		}
		return &ast.FieldAccess{Base: tok.Value, Member: member.Value, Join: join, Pos: tok.Span.Merge(member.Span)}, nil
	default:
		return &ast.Ident{Name: tok.Value, Pos: tok.Span}, nil
	}
}

func (p *Parser) parseCall(name lexer.Token) (ast.Expr, error) {
	p.next() // (
	var args []ast.Expr
	if star := p.peek(); star.Is("*") && p.peekAt(1).Is(")") {
		p.next()
		args = append(args, &ast.Ident{Name: "*", Pos: star.Span})
		p.next()
	} else {
		var err error
		if args, err = p.parseExprList(")"); err != nil {
			return nil, err
		}
	}
	return &ast.Call{Name: name.Value, Args: args, Pos: p.spanFrom(name.Span)}, nil
}

// parseExprList parses expressions separated by commas up to and
// including the closing token.
func (p *Parser) parseExprList(closing string) ([]ast.Expr, error) {
	var out []ast.Expr
	if p.peek().Is(closing) {
		p.next()
		return out, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)

		tok := p.next()
		switch {
		case tok.Is(","):
		case tok.Is(closing):
			return out, nil
		default:
			return nil, p.unexpected(tok, `"," or "`+closing+`"`)
		}
	}
}

func (p *Parser) parseParen() (ast.Expr, error) {
	open := p.next()
	if p.peek().IsKeyword("select") {
		p.pos-- // let parseSubSelect consume the parenthesis
		return p.parseSubSelect(lexer.Token{Span: open.Span})
	}
	items, err := p.parseExprList(")")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, diagnostics.NewParseError(p.spanFrom(open.Span), "empty parentheses")
	}
	return &ast.Paren{Items: items, Pos: p.spanFrom(open.Span)}, nil
}

// parseSubSelect parses NAME(select ...) or (select ...). The current
// token is the opening parenthesis.
func (p *Parser) parseSubSelect(fn lexer.Token) (ast.Expr, error) {
	p.next() // (
	kw := p.next()
	sel, err := p.parseSelect(kw.Span)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return &ast.SubSelect{Func: fn.Value, Select: sel, Pos: p.spanFrom(fn.Span)}, nil
}

func (p *Parser) parseCase() (ast.Expr, error) {
	start := p.next()
	c := &ast.Case{}

	if !p.peek().Is("{") {
		sw, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Switch = sw
	}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}

	for !p.peek().Is("}") {
		var arm ast.CaseArm
		if tok := p.peek(); tok.Kind == lexer.Ident && tok.Value == "_" {
			p.next()
		} else {
			when, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			arm.When = when
		}
		if _, err := p.expect("=>"); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arm.Then = then
		c.Arms = append(c.Arms, arm)

		if !p.peek().Is(",") {
			break
		}
		p.next()
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	if len(c.Arms) == 0 {
		return nil, diagnostics.NewParseError(p.spanFrom(start.Span), "case needs at least one arm")
	}
	c.Pos = p.spanFrom(start.Span)
	return c, nil
}
