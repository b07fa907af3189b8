package resolver

import (
	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/alias"
	"github.com/satishbabariya/entql/internal/core/query/assembler"
	"github.com/satishbabariya/entql/internal/core/query/ast"
	"github.com/satishbabariya/entql/internal/core/query/fragment"
)

func (r *Resolver) resolveSelect(sel *ast.Select) (fragment.Fragment, error) {
	s, err := r.buildSelect(nil, alias.NewTable(), sel, false)
	if err != nil {
		return fragment.Fragment{}, err
	}
	// Joined tables may share column names: resolve again with every
	// main-entity column qualified.
	if s.Joins.Len() > 0 {
		if s, err = r.buildSelect(nil, alias.NewTable(), sel, true); err != nil {
			return fragment.Fragment{}, err
		}
	}
	return assembler.BuildSelect(s)
}

// nestedSelect resolves sel as a subquery of parent, sharing its alias table.
func (r *Resolver) nestedSelect(parent *Query, sel *ast.Select) (fragment.Fragment, error) {
	s, err := r.buildSelect(parent, parent.Aliases, sel, false)
	if err != nil {
		return fragment.Fragment{}, err
	}
	f, err := assembler.BuildSelect(s)
	if err != nil {
		return fragment.Fragment{}, at(err, sel.Pos)
	}
	return f, nil
}

func (r *Resolver) buildSelect(parent *Query, tbl *alias.Table, sel *ast.Select, qualify bool) (*assembler.Select, error) {
	q := newQuery(SelectMode, tbl, parent)
	q.Qualify = qualify
	q.Projection = sel.Projection

	out := &assembler.Select{}
	injected, err := r.target(q, sel.Target, &out.Joins)
	if err != nil {
		return nil, err
	}

	if sel.Star || len(sel.Columns) == 0 {
		out.Columns = q.defaultColumns()
	} else {
		if out.Columns, err = r.exprs(q, Stack{Columns}, sel.Columns); err != nil {
			return nil, err
		}
	}
	out.From = q.Main.TableWithAlias()

	if out.Where, err = r.where(q, sel.Where, injected); err != nil {
		return nil, err
	}

	for _, g := range sel.GroupBy {
		f, err := r.Expr(q, Stack{GroupBy}, g)
		if err != nil {
			return nil, err
		}
		if len(f.Params) > 0 {
			return nil, diagnostics.Errorf(diagnostics.ShapeError, g.Span(), "group by expressions cannot bind values")
		}
		out.GroupBy = append(out.GroupBy, f)
	}

	if sel.Having != nil {
		if out.Having, err = r.Expr(q, Stack{Having}, sel.Having); err != nil {
			return nil, err
		}
	}

	for _, item := range sel.OrderBy {
		f, err := r.Expr(q, Stack{OrderBy}, item.Expr)
		if err != nil {
			return nil, err
		}
		if item.Desc {
			f = f.Wrap("", " DESC")
		}
		out.OrderBy = append(out.OrderBy, f)
	}

	if sel.Limit != nil {
		if out.Limit, err = r.limit(q, sel.Limit); err != nil {
			return nil, err
		}
	}

	for _, group := range [][]fragment.Fragment{out.Columns, {out.Where}, out.GroupBy, {out.Having}, out.OrderBy, {out.Limit}} {
		for _, f := range group {
			out.Joins.Union(f.Joins)
		}
	}

	out.Distinct = out.Joins.Len() > 0
	if !sel.Generic {
		switch {
		case q.Traversal != nil:
			out.Distinct = true
		case sel.Projection != "" && domain.IsPrimitiveName(sel.Projection):
			out.Distinct = true
		case len(sel.Columns) > 0 && sel.Projection == "":
			out.Distinct = true
		}
	}
	return out, nil
}

// target sets the main entity of a select from its target and returns
// the equality narrowing it to one instance or one related collection.
func (r *Resolver) target(q *Query, t ast.Target, joins *alias.JoinSet) (fragment.Fragment, error) {
	root, err := r.entity(t.Entity, t.Pos)
	if err != nil {
		return fragment.Fragment{}, err
	}

	if t.Related == "" {
		if err := q.setMain(root); err != nil {
			return fragment.Fragment{}, at(err, t.Pos)
		}
		if t.PK == nil {
			return fragment.Fragment{}, nil
		}
		return r.equality(q, q.Main.Qualifier()+"."+root.PK().Column, t.PK)
	}

	rel, kind, err := r.relation(root, t.Related)
	if err != nil {
		return fragment.Fragment{}, at(err, t.Pos)
	}
	if rel == nil {
		return fragment.Fragment{}, diagnostics.NewUnknownRelationError(root.Name, t.Related, t.Pos)
	}
	q.Traversal = rel

	if kind == domain.Inverse {
		// Maison[1].lespieces reads pieces whose FK holds the key.
		owner, err := r.entity(rel.Owner, t.Pos)
		if err != nil {
			return fragment.Fragment{}, err
		}
		if err := q.setMain(owner); err != nil {
			return fragment.Fragment{}, at(err, t.Pos)
		}
		fk, _ := owner.Field(rel.OwnerField)
		return r.equality(q, q.Main.Qualifier()+"."+fk.Column, t.PK)
	}

	// Piece[3].maison reads the maison the piece points at.
	target, err := r.entity(rel.Target, t.Pos)
	if err != nil {
		return fragment.Fragment{}, err
	}
	if err := q.setMain(target); err != nil {
		return fragment.Fragment{}, at(err, t.Pos)
	}
	entry, err := q.Aliases.Register(alias.Key(q.Scope, "target:"+rel.Key()), root, q.Subquery)
	if err != nil {
		return fragment.Fragment{}, at(err, t.Pos)
	}
	fk, _ := root.Field(rel.OwnerField)
	joins.Add("INNER JOIN " + entry.TableWithAlias() + " ON " +
		entry.Qualifier() + "." + fk.Column + " = " + q.Main.Qualifier() + "." + target.PK().Column)
	return r.equality(q, entry.Qualifier()+"."+root.PK().Column, t.PK)
}

// equality renders col=value for an injected key comparison.
func (r *Resolver) equality(q *Query, col string, value ast.Expr) (fragment.Fragment, error) {
	v, err := r.Expr(q, Stack{Target}, value)
	if err != nil {
		return fragment.Fragment{}, err
	}
	return fragment.Join("=", fragment.New(col), v), nil
}

// where combines the user condition with an injected key equality.
func (r *Resolver) where(q *Query, cond ast.Expr, injected fragment.Fragment) (fragment.Fragment, error) {
	if cond == nil {
		return injected, nil
	}
	w, err := r.Expr(q, Stack{Where}, cond)
	if err != nil {
		return fragment.Fragment{}, err
	}
	if b, ok := cond.(*ast.Binary); ok && b.Op == ast.Or && !injected.IsEmpty() {
		w = w.Wrap("(", ")")
	}
	return fragment.Join(" AND ", w, injected), nil
}

func (r *Resolver) limit(q *Query, l *ast.Limit) (fragment.Fragment, error) {
	count, err := r.Expr(q, Stack{Limit}, l.Count)
	if err != nil {
		return fragment.Fragment{}, err
	}

	if !l.Page {
		out := fragment.Join("", fragment.New("LIMIT "), count)
		if l.Offset == nil {
			return out, nil
		}
		offset, err := r.Expr(q, Stack{Limit}, l.Offset)
		if err != nil {
			return fragment.Fragment{}, err
		}
		return fragment.Join("", out, fragment.New(" OFFSET "), offset), nil
	}

	// page n[, size]: LIMIT size OFFSET (n - 1) * size
	size := fragment.Placeholder(fragment.Param{Key: "page_size", Value: int64(r.pageSize)})
	if l.Offset != nil {
		if size, err = r.Expr(q, Stack{Limit}, l.Offset); err != nil {
			return fragment.Fragment{}, err
		}
	}
	return fragment.Join("",
		fragment.New("LIMIT "), size,
		fragment.New(" OFFSET ("), count, fragment.New(" - 1) * "), size,
	), nil
}

func (r *Resolver) resolveUpdate(u *ast.Update) (fragment.Fragment, error) {
	q := newQuery(UpdateMode, alias.NewTable(), nil)
	root, err := r.entity(u.Target.Entity, u.Target.Pos)
	if err != nil {
		return fragment.Fragment{}, err
	}

	var injected fragment.Fragment
	switch {
	case u.Target.Related != "":
		rel, kind, err := r.relation(root, u.Target.Related)
		if err != nil {
			return fragment.Fragment{}, at(err, u.Target.Pos)
		}
		if rel == nil {
			return fragment.Fragment{}, diagnostics.NewUnknownRelationError(root.Name, u.Target.Related, u.Target.Pos)
		}
		if kind == domain.Forward {
			return fragment.Fragment{}, diagnostics.Errorf(diagnostics.UnsupportedExpression, u.Target.Pos,
				"update through %s.%s would need a join; update %s directly", root.Name, u.Target.Related, rel.Target)
		}
		owner, err := r.entity(rel.Owner, u.Target.Pos)
		if err != nil {
			return fragment.Fragment{}, err
		}
		if err := q.setMain(owner); err != nil {
			return fragment.Fragment{}, at(err, u.Target.Pos)
		}
		q.Traversal = rel
		fk, _ := owner.Field(rel.OwnerField)
		if injected, err = r.equality(q, fk.Column, u.Target.PK); err != nil {
			return fragment.Fragment{}, err
		}
	default:
		if err := q.setMain(root); err != nil {
			return fragment.Fragment{}, at(err, u.Target.Pos)
		}
		if u.Target.PK != nil {
			if injected, err = r.equality(q, root.PK().Column, u.Target.PK); err != nil {
				return fragment.Fragment{}, err
			}
		}
	}

	set := make([]assembler.Assignment, 0, len(u.Set))
	seen := make(map[string]bool, len(u.Set))
	for _, a := range u.Set {
		f, err := r.assignedField(q, a, seen)
		if err != nil {
			return fragment.Fragment{}, err
		}
		v, err := r.Expr(q, Stack{Assign}, a.Value)
		if err != nil {
			return fragment.Fragment{}, err
		}
		set = append(set, assembler.Assignment{Column: f.Column, Value: v})
	}

	where, err := r.where(q, u.Where, injected)
	if err != nil {
		return fragment.Fragment{}, err
	}
	return assembler.BuildUpdate(&assembler.Update{Table: q.Main.Entity.Table, Set: set, Where: where})
}

func (r *Resolver) resolveInsert(ins *ast.Insert) (fragment.Fragment, error) {
	q := newQuery(InsertMode, alias.NewTable(), nil)
	e, err := r.entity(ins.Entity, ins.Pos)
	if err != nil {
		return fragment.Fragment{}, err
	}
	if err := q.setMain(e); err != nil {
		return fragment.Fragment{}, at(err, ins.Pos)
	}

	out := &assembler.Insert{Table: e.Table}
	seen := make(map[string]bool, len(ins.Values))
	for _, a := range ins.Values {
		f, err := r.assignedField(q, a, seen)
		if err != nil {
			return fragment.Fragment{}, err
		}
		v, err := r.Expr(q, Stack{Assign}, a.Value)
		if err != nil {
			return fragment.Fragment{}, err
		}
		out.Columns = append(out.Columns, f.Column)
		out.Values = append(out.Values, v)
	}

	for _, f := range e.Fields {
		if seen[f.Name] {
			continue
		}
		switch {
		case f.Flags.CreationArg:
			return fragment.Fragment{}, diagnostics.Errorf(diagnostics.ShapeError, ins.Pos,
				"field %s.%s must be given a value on insert", e.Name, f.Name)
		case f.Flags.CreationFunction != "":
			out.Columns = append(out.Columns, f.Column)
			out.Values = append(out.Values, fragment.New(f.Flags.CreationFunction))
		}
	}
	if len(out.Columns) == 0 {
		return fragment.Fragment{}, diagnostics.Errorf(diagnostics.ShapeError, ins.Pos, "insert into %s sets no columns", e.Name)
	}
	return assembler.BuildInsert(out)
}

func (r *Resolver) assignedField(q *Query, a ast.Assignment, seen map[string]bool) (*domain.Field, error) {
	f, ok := q.Entity.Field(a.Field)
	if !ok {
		return nil, diagnostics.NewUnknownFieldError(q.Entity.Name, a.Field, a.Pos)
	}
	if seen[a.Field] {
		return nil, diagnostics.Errorf(diagnostics.ShapeError, a.Pos, "field %q is assigned twice", a.Field)
	}
	seen[a.Field] = true
	return f, nil
}
