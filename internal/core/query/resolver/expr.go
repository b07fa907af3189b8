package resolver

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/alias"
	"github.com/satishbabariya/entql/internal/core/query/ast"
	"github.com/satishbabariya/entql/internal/core/query/fragment"
	"github.com/satishbabariya/entql/internal/core/query/lexer"
)

// Expr resolves e in query q.
func (r *Resolver) Expr(q *Query, st Stack, e ast.Expr) (fragment.Fragment, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return r.ident(q, st, n)
	case *ast.FieldAccess:
		return r.fieldAccess(q, n)
	case *ast.Call:
		return r.call(q, st, n)
	case *ast.Literal:
		return literal(n)
	case *ast.HostParam:
		return fragment.Placeholder(fragment.Param{Key: ":" + n.Name, Value: n.Name, Host: true}), nil
	case *ast.RawValue:
		return fragment.New(n.SQL), nil
	case *ast.Cast:
		return r.cast(q, st, n)
	case *ast.Binary:
		return r.binary(q, st, n)
	case *ast.Unary:
		return r.unary(q, st, n)
	case *ast.Paren:
		return r.paren(q, st, n)
	case *ast.Case:
		return r.caseExpr(q, st, n)
	case *ast.SubSelect:
		return r.subSelect(q, n)
	default:
		return fragment.Fragment{}, diagnostics.Errorf(diagnostics.UnsupportedExpression, e.Span(), "unsupported expression %T", e)
	}
}

func (r *Resolver) exprs(q *Query, st Stack, es []ast.Expr) ([]fragment.Fragment, error) {
	out := make([]fragment.Fragment, 0, len(es))
	for _, e := range es {
		f, err := r.Expr(q, st, e)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (r *Resolver) ident(q *Query, st Stack, n *ast.Ident) (fragment.Fragment, error) {
	if n.Name == "*" {
		if !st.Is(Call) {
			return fragment.Fragment{}, diagnostics.Errorf(diagnostics.UnsupportedExpression, n.Pos, "* is only allowed as a call argument")
		}
		return fragment.New("*"), nil
	}

	if a, ok := q.aliases[n.Name]; ok {
		switch {
		case st.Has(Having) || st.Has(OrderBy):
			return fragment.New(a.sql), nil
		case st.Has(Columns) && st.Has(Call):
			// A select-list alias is not visible to its siblings in SQL.
			return r.Expr(q, st, a.expr)
		}
	}

	if f, ok := q.Entity.Field(n.Name); ok {
		return fragment.New(q.column(f)), nil
	}
	for p := q.Parent; p != nil; p = p.Parent {
		if f, ok := p.Entity.Field(n.Name); ok {
			return fragment.New(p.qualified(f)), nil
		}
	}
	return fragment.Fragment{}, diagnostics.NewUnknownFieldError(q.Entity.Name, n.Name, n.Pos)
}

func (r *Resolver) fieldAccess(q *Query, n *ast.FieldAccess) (fragment.Fragment, error) {
	rel, kind, err := r.relation(q.Entity, n.Base)
	if err != nil {
		return fragment.Fragment{}, at(err, n.Pos)
	}
	if rel != nil {
		if q.Mode != SelectMode {
			return fragment.Fragment{}, diagnostics.Errorf(diagnostics.UnsupportedExpression, n.Pos,
				"relation %s.%s cannot be traversed outside a select", q.Entity.Name, n.Base)
		}
		entry, join, err := r.join(q, rel, kind, n.Join)
		if err != nil {
			return fragment.Fragment{}, at(err, n.Pos)
		}
		col, err := entry.AliasDotColumn(n.Member)
		if err != nil {
			return fragment.Fragment{}, at(err, n.Pos)
		}
		f := fragment.New(col)
		f.Joins.Add(join)
		return f, nil
	}

	// Entity.member names the nearest enclosing query reading Entity, so a
	// subquery over the same entity can still correlate with its outer row.
	// Bare members already reach the subquery's own row.
	for p := q.Parent; p != nil; p = p.Parent {
		if n.Base != p.Entity.Name {
			continue
		}
		f, ok := p.Entity.Field(n.Member)
		if !ok {
			return fragment.Fragment{}, diagnostics.NewUnknownFieldError(p.Entity.Name, n.Member, n.Pos)
		}
		return fragment.New(p.qualified(f)), nil
	}
	if n.Base == q.Entity.Name {
		f, ok := q.Entity.Field(n.Member)
		if !ok {
			return fragment.Fragment{}, diagnostics.NewUnknownFieldError(q.Entity.Name, n.Member, n.Pos)
		}
		return fragment.New(q.column(f)), nil
	}

	if n.Join == ast.LeftJoin {
		return fragment.Fragment{}, diagnostics.NewUnknownRelationError(q.Entity.Name, n.Base, n.Pos)
	}
	// Not a relation: the whole path is a value supplied at bind time.
	name := n.Base + "." + n.Member
	return fragment.Placeholder(fragment.Param{Key: ":" + name, Value: name, Host: true}), nil
}

// join registers the table reached through rel and renders its JOIN clause.
func (r *Resolver) join(q *Query, rel *domain.Relation, kind domain.RelationKind, jk ast.JoinKind) (*alias.Entry, string, error) {
	joinedName := rel.Target
	if kind == domain.Inverse {
		joinedName = rel.Owner
	}
	joined, err := r.catalog.GetEntity(joinedName)
	if err != nil {
		return nil, "", err
	}
	fk, err := r.catalog.GetField(rel.Owner, rel.OwnerField)
	if err != nil {
		return nil, "", err
	}

	key := alias.Key(q.Scope, string(kind)+":"+rel.Key())
	if prev, ok := q.joinKinds[key]; ok && prev != jk {
		name := rel.OwnerField
		if kind == domain.Inverse {
			name = rel.RelatedName
		}
		return nil, "", diagnostics.Errorf(diagnostics.ShapeError, diagnostics.EmptySpan(),
			"relation %s.%s is joined both with . and =.; use one join kind per relation", q.Entity.Name, name)
	}
	entry, err := q.Aliases.Register(key, joined, q.Subquery)
	if err != nil {
		return nil, "", err
	}
	q.joinKinds[key] = jk

	var on string
	if kind == domain.Forward {
		on = q.Main.Qualifier() + "." + fk.Column + " = " + entry.Qualifier() + "." + joined.PK().Column
	} else {
		on = entry.Qualifier() + "." + fk.Column + " = " + q.Main.Qualifier() + "." + q.Entity.PK().Column
	}
	return entry, jk.SQL() + " " + entry.TableWithAlias() + " ON " + on, nil
}

func (r *Resolver) call(q *Query, st Stack, n *ast.Call) (fragment.Fragment, error) {
	if !r.functions[n.Name] {
		return fragment.Fragment{}, r.notAllowed(n.Name, r.functions[upper.String(n.Name)], n.Args, n.Pos)
	}
	args, err := r.exprs(q, st.Push(Call), n.Args)
	if err != nil {
		return fragment.Fragment{}, err
	}
	out := fragment.Join(", ", args...)
	return out.Wrap(n.Name+"(", ")"), nil
}

func (r *Resolver) notAllowed(name string, caseMismatch bool, args []ast.Expr, span diagnostics.Span) error {
	if !caseMismatch {
		return diagnostics.NewFunctionNotAllowedError(name, "", span)
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = ast.Format(a)
	}
	return diagnostics.NewFunctionNotAllowedError(name, upper.String(name)+"("+strings.Join(parts, ", ")+")", span)
}

func literal(n *ast.Literal) (fragment.Fragment, error) {
	var (
		v   any
		err error
	)
	switch n.Kind {
	case ast.IntLit:
		// Base 10: a leading zero is not an octal prefix.
		v, err = strconv.ParseInt(n.Raw, 10, 64)
	case ast.FloatLit:
		v, err = cast.ToFloat64E(n.Raw)
	case ast.StringLit:
		v, err = lexer.Unquote(n.Raw)
	case ast.BoolLit:
		v, err = cast.ToBoolE(n.Raw)
	case ast.NullLit:
		v = nil
	}
	if err != nil {
		return fragment.Fragment{}, diagnostics.Errorf(diagnostics.TypeMismatch, n.Pos, "invalid literal %s: %v", n.Raw, err)
	}
	return fragment.Placeholder(fragment.Param{Key: n.Raw, Value: v}), nil
}

func (r *Resolver) cast(q *Query, st Stack, n *ast.Cast) (fragment.Fragment, error) {
	if !st.Is(Columns) {
		return fragment.Fragment{}, diagnostics.Errorf(diagnostics.UnsupportedExpression, n.Pos,
			"alias %q can only be defined in the column list", n.Alias)
	}
	inner, err := r.Expr(q, st.Push(Cast), n.Expr)
	if err != nil {
		return fragment.Fragment{}, err
	}
	return inner.Wrap("", " AS "+q.defineAlias(n)), nil
}

func isNull(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	return ok && lit.Kind == ast.NullLit
}

func (r *Resolver) binary(q *Query, st Stack, n *ast.Binary) (fragment.Fragment, error) {
	if n.Op == ast.Eq || n.Op == ast.Ne {
		var other ast.Expr
		switch {
		case isNull(n.RHS):
			other = n.LHS
		case isNull(n.LHS):
			other = n.RHS
		}
		if other != nil {
			f, err := r.Expr(q, st, other)
			if err != nil {
				return fragment.Fragment{}, err
			}
			if n.Op == ast.Eq {
				return f.Wrap("", " IS NULL"), nil
			}
			return f.Wrap("", " IS NOT NULL"), nil
		}
	}

	lhs, err := r.Expr(q, st, n.LHS)
	if err != nil {
		return fragment.Fragment{}, err
	}
	rst := st
	if n.Op == ast.In {
		rst = st.Push(Array)
	}
	rhs, err := r.Expr(q, rst, n.RHS)
	if err != nil {
		return fragment.Fragment{}, err
	}
	return fragment.Join(" "+n.Op.SQL()+" ", lhs, rhs), nil
}

func (r *Resolver) unary(q *Query, st Stack, n *ast.Unary) (fragment.Fragment, error) {
	f, err := r.Expr(q, st, n.Expr)
	if err != nil {
		return fragment.Fragment{}, err
	}
	if n.Op == ast.Not {
		return f.Wrap("NOT ", ""), nil
	}
	return f.Wrap("-", ""), nil
}

func (r *Resolver) paren(q *Query, st Stack, n *ast.Paren) (fragment.Fragment, error) {
	if len(n.Items) > 1 && !st.Is(Array) {
		return fragment.Fragment{}, diagnostics.Errorf(diagnostics.ShapeError, n.Pos,
			"a parenthesized list of %d items is only allowed after in", len(n.Items))
	}
	items, err := r.exprs(q, st.Push(Nested), n.Items)
	if err != nil {
		return fragment.Fragment{}, err
	}
	return fragment.Join(", ", items...).Wrap("(", ")"), nil
}

func (r *Resolver) caseExpr(q *Query, st Stack, n *ast.Case) (fragment.Fragment, error) {
	parts := []fragment.Fragment{fragment.New("CASE")}
	if n.Switch != nil {
		sw, err := r.Expr(q, st, n.Switch)
		if err != nil {
			return fragment.Fragment{}, err
		}
		parts = append(parts, sw)
	}

	for i, arm := range n.Arms {
		if arm.When == nil {
			if i != len(n.Arms)-1 {
				return fragment.Fragment{}, diagnostics.Errorf(diagnostics.ShapeError, n.Pos, "the _ arm must be the last arm of a case")
			}
			then, err := r.Expr(q, st, arm.Then)
			if err != nil {
				return fragment.Fragment{}, err
			}
			parts = append(parts, fragment.New("ELSE"), then)
			continue
		}
		when, err := r.Expr(q, st, arm.When)
		if err != nil {
			return fragment.Fragment{}, err
		}
		then, err := r.Expr(q, st, arm.Then)
		if err != nil {
			return fragment.Fragment{}, err
		}
		parts = append(parts, fragment.New("WHEN"), when, fragment.New("THEN"), then)
	}
	parts = append(parts, fragment.New("END"))
	return fragment.Join(" ", parts...), nil
}

func (r *Resolver) subSelect(q *Query, n *ast.SubSelect) (fragment.Fragment, error) {
	prefix := ""
	if n.Func != "" {
		sql, ok := subqueryFuncs[n.Func]
		if !ok {
			suggestion := ""
			if _, mismatch := subqueryFuncs[upper.String(n.Func)]; mismatch {
				suggestion = upper.String(n.Func) + "(select ...)"
			}
			return fragment.Fragment{}, diagnostics.NewFunctionNotAllowedError(n.Func, suggestion, n.Pos)
		}
		prefix = sql
	}

	sub, err := r.nestedSelect(q, n.Select)
	if err != nil {
		return fragment.Fragment{}, err
	}
	return sub.Wrap(prefix+"(", ")"), nil
}
