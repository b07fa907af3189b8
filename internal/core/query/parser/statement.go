package parser

import (
	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/ast"
	"github.com/satishbabariya/entql/internal/core/query/lexer"
)

var sigils = map[string]ast.Cardinality{
	".": ast.One,
	"*": ast.All,
	"+": ast.Stream,
	"?": ast.Optional,
}

func (p *Parser) parseSelect(start diagnostics.Span) (*ast.Select, error) {
	sel := &ast.Select{Cardinality: ast.Execute}
	if tok := p.peek(); isSigil(tok) {
		p.next()
		sel.Cardinality = sigils[tok.Value]
	}

	target, err := p.parseTarget()
	if err != nil {
		return nil, err
	}
	sel.Target = target

	if p.peek().Is("(") {
		p.next()
		cols, err := p.parseExprList(")")
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 {
			return nil, diagnostics.NewParseError(p.prev().Span, "column list cannot be empty")
		}
		sel.Columns = cols
	}

	if p.peek().Is("->") {
		p.next()
		proj, err := p.expectIdent("a projection name")
		if err != nil {
			return nil, err
		}
		sel.Projection = proj.Value
	}

	if err := p.parseClauses(&sel.Clauses); err != nil {
		return nil, err
	}
	sel.Pos = p.spanFrom(start)
	return sel, nil
}

func (p *Parser) parseGeneric(start diagnostics.Span) (*ast.Select, error) {
	sel := &ast.Select{Cardinality: ast.All, Generic: true}

	if p.peek().Is("*") {
		p.next()
		sel.Star = true
	} else {
		for {
			col, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			sel.Columns = append(sel.Columns, col)
			if !p.peek().Is(",") {
				break
			}
			p.next()
		}
	}

	if tok := p.peek(); !tok.IsKeyword("from") {
		return nil, p.unexpected(tok, "FROM")
	}
	p.next()

	entity, err := p.expectIdent("an entity name")
	if err != nil {
		return nil, err
	}
	sel.Target = ast.Target{Entity: entity.Value, Pos: entity.Span}

	if err := p.parseClauses(&sel.Clauses); err != nil {
		return nil, err
	}
	sel.Pos = p.spanFrom(start)
	return sel, nil
}

func (p *Parser) parseTarget() (ast.Target, error) {
	entity, err := p.expectIdent("an entity name")
	if err != nil {
		return ast.Target{}, err
	}
	t := ast.Target{Entity: entity.Value}

	if p.peek().Is("[") {
		p.next()
		pk, err := p.parseExpr()
		if err != nil {
			return t, err
		}
		if _, err := p.expect("]"); err != nil {
			return t, err
		}
		t.PK = pk

		if p.peek().Is(".") {
			p.next()
			related, err := p.expectIdent("a relation name")
			if err != nil {
				return t, err
			}
			t.Related = related.Value
		}
	}
	t.Pos = p.spanFrom(entity.Span)
	return t, nil
}

func (p *Parser) parseUpdate(start diagnostics.Span) (*ast.Update, error) {
	target, err := p.parseTarget()
	if err != nil {
		return nil, err
	}
	set, err := p.parseAssignments()
	if err != nil {
		return nil, err
	}
	u := &ast.Update{Target: target, Set: set}

	if p.peek().IsKeyword("where") {
		p.next()
		if u.Where, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	u.Pos = p.spanFrom(start)
	return u, nil
}

func (p *Parser) parseInsert(start diagnostics.Span) (*ast.Insert, error) {
	entity, err := p.expectIdent("an entity name")
	if err != nil {
		return nil, err
	}
	values, err := p.parseAssignments()
	if err != nil {
		return nil, err
	}
	return &ast.Insert{Entity: entity.Value, Values: values, Pos: p.spanFrom(start)}, nil
}

func (p *Parser) parseAssignments() ([]ast.Assignment, error) {
	var out []ast.Assignment
	for {
		field, err := p.expectIdent("a field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("="); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, ast.Assignment{Field: field.Value, Value: value, Pos: p.spanFrom(field.Span)})

		if !p.peek().Is(",") {
			return out, nil
		}
		p.next()
	}
}

// clause stages, in the only order they may appear.
const (
	stageNone = iota
	stageWhere
	stageGroupBy
	stageHaving
	stageOrderBy
	stageLimit
)

var stageNames = [...]string{"", "where", "group by", "having", "order by", "limit"}

// clauseStage recognises a clause keyword at the current position and
// returns its stage and the number of tokens it spans.
func (p *Parser) clauseStage() (int, int) {
	tok := p.peek()
	switch {
	case tok.IsKeyword("where"):
		return stageWhere, 1
	case tok.IsKeyword("group_by"):
		return stageGroupBy, 1
	case tok.IsKeyword("group") && p.peekAt(1).IsKeyword("by"):
		return stageGroupBy, 2
	case tok.IsKeyword("having"):
		return stageHaving, 1
	case tok.IsKeyword("order_by"):
		return stageOrderBy, 1
	case tok.IsKeyword("order") && p.peekAt(1).IsKeyword("by"):
		return stageOrderBy, 2
	case tok.IsKeyword("limit"), tok.IsKeyword("page"):
		return stageLimit, 1
	default:
		return stageNone, 0
	}
}

func (p *Parser) parseClauses(c *ast.Clauses) error {
	last := stageNone
	for {
		stage, width := p.clauseStage()
		if stage == stageNone {
			return nil
		}
		kw := p.peek()
		if stage <= last {
			if stage == last {
				return diagnostics.NewParseError(kw.Span, "%s clause can only appear once", stageNames[stage])
			}
			return diagnostics.NewParseError(kw.Span, "%s clause must come before %s", stageNames[stage], stageNames[last])
		}
		last = stage
		for i := 0; i < width; i++ {
			p.next()
		}

		var err error
		switch stage {
		case stageWhere:
			c.Where, err = p.parseExpr()
		case stageGroupBy:
			c.GroupBy, err = p.parseExprSeq()
		case stageHaving:
			c.Having, err = p.parseExpr()
		case stageOrderBy:
			c.OrderBy, err = p.parseOrderBy()
		case stageLimit:
			c.Limit, err = p.parseLimit(kw)
		}
		if err != nil {
			return err
		}
	}
}

func (p *Parser) parseOrderBy() ([]ast.OrderItem, error) {
	var items []ast.OrderItem
	for {
		desc := false
		if p.peek().Is("-") {
			p.next()
			desc = true
		}
		tok := p.peek()
		e, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		switch e.(type) {
		case *ast.Ident, *ast.FieldAccess, *ast.Call:
		default:
			return nil, diagnostics.NewParseError(tok.Span.Merge(e.Span()), "order by accepts a field, a field access or a call")
		}
		items = append(items, ast.OrderItem{Expr: e, Desc: desc})

		if !p.peek().Is(",") {
			return items, nil
		}
		p.next()
	}
}

func (p *Parser) parseLimit(kw lexer.Token) (*ast.Limit, error) {
	l := &ast.Limit{Page: kw.IsKeyword("page")}
	var err error
	if l.Count, err = p.parseExpr(); err != nil {
		return nil, err
	}
	if p.peek().Is(",") {
		p.next()
		if l.Offset, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	l.Pos = p.spanFrom(kw.Span)
	return l, nil
}

// parseExprSeq parses a comma-separated expression list with no delimiters.
func (p *Parser) parseExprSeq() ([]ast.Expr, error) {
	var out []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if !p.peek().Is(",") {
			return out, nil
		}
		p.next()
	}
}
