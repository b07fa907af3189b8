// Package assembler combines resolved clause fragments into complete
// statements. SQL text is laid out by squirrel; parameters travel through
// it as fragment.Param values so their order is kept.
package assembler

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/alias"
	"github.com/satishbabariya/entql/internal/core/query/fragment"
)

// Select is a resolved SELECT statement.
type Select struct {
	Distinct bool
	Columns  []fragment.Fragment
	From     string
	Joins    alias.JoinSet
	Where    fragment.Fragment
	GroupBy  []fragment.Fragment
	Having   fragment.Fragment
	OrderBy  []fragment.Fragment
	Limit    fragment.Fragment
}

// BuildSelect renders:
//
//	SELECT [DISTINCT] cols FROM table [joins] [WHERE] [GROUP BY] [HAVING] [ORDER BY] [LIMIT]
func BuildSelect(s *Select) (fragment.Fragment, error) {
	b := sq.Select()
	if s.Distinct {
		b = b.Distinct()
	}
	for _, col := range s.Columns {
		b = b.Column(col.SQL, col.Args()...)
	}
	b = b.From(s.From)
	for _, join := range s.Joins.Items() {
		b = b.JoinClause(join)
	}
	if !s.Where.IsEmpty() {
		b = b.Where(s.Where.SQL, s.Where.Args()...)
	}
	if len(s.GroupBy) > 0 {
		groups := make([]string, len(s.GroupBy))
		for i, g := range s.GroupBy {
			if len(g.Params) > 0 {
				return fragment.Fragment{}, diagnostics.Errorf(diagnostics.ShapeError, diagnostics.EmptySpan(),
					"group by expression %q cannot bind parameters", g.SQL)
			}
			groups[i] = g.SQL
		}
		b = b.GroupBy(groups...)
	}
	if !s.Having.IsEmpty() {
		b = b.Having(s.Having.SQL, s.Having.Args()...)
	}
	for _, o := range s.OrderBy {
		b = b.OrderByClause(o.SQL, o.Args()...)
	}
	if !s.Limit.IsEmpty() {
		b = b.Suffix(s.Limit.SQL, s.Limit.Args()...)
	}

	return toFragment(b)
}

// Assignment is one SET column = value pair.
type Assignment struct {
	Column string
	Value  fragment.Fragment
}

// Update is a resolved UPDATE statement.
type Update struct {
	Table string
	Set   []Assignment
	Where fragment.Fragment
}

// BuildUpdate renders UPDATE table SET col = expr, ... [WHERE ...].
func BuildUpdate(u *Update) (fragment.Fragment, error) {
	b := sq.Update(u.Table)
	for _, a := range u.Set {
		b = b.Set(a.Column, sq.Expr(a.Value.SQL, a.Value.Args()...))
	}
	if !u.Where.IsEmpty() {
		b = b.Where(u.Where.SQL, u.Where.Args()...)
	}
	return toFragment(b)
}

// Insert is a resolved single-row INSERT statement.
type Insert struct {
	Table   string
	Columns []string
	Values  []fragment.Fragment
}

// BuildInsert renders INSERT INTO table (cols) VALUES (exprs).
func BuildInsert(ins *Insert) (fragment.Fragment, error) {
	values := make([]any, len(ins.Values))
	for i, v := range ins.Values {
		values[i] = sq.Expr(v.SQL, v.Args()...)
	}
	b := sq.Insert(ins.Table).Columns(ins.Columns...).Values(values...)
	return toFragment(b)
}

func toFragment(s sq.Sqlizer) (fragment.Fragment, error) {
	sql, args, err := s.ToSql()
	if err != nil {
		return fragment.Fragment{}, err
	}
	f := fragment.New(strings.TrimSpace(sql), fragment.FromArgs(args)...)
	if n := fragment.CountMarkers(f.SQL); n != len(f.Params) {
		return fragment.Fragment{}, fmt.Errorf("statement has %d placeholders for %d parameters", n, len(f.Params))
	}
	return f, nil
}
