package resolver

import (
	"fmt"
	"regexp"

	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/core/query/alias"
	"github.com/satishbabariya/entql/internal/core/query/ast"
	"github.com/satishbabariya/entql/internal/core/query/fragment"
)

// Mode is the kind of statement being resolved.
type Mode int

const (
	SelectMode Mode = iota
	UpdateMode
	InsertMode
)

// Context is the syntactic position an expression is resolved in.
type Context int

const (
	Columns Context = iota
	Where
	GroupBy
	Having
	OrderBy
	Limit
	Call
	Cast
	Assign
	Array
	Nested
	Target
)

// Stack records the chain of contexts from the clause down to the current
// node. It is passed by value; Push never modifies the receiver.
type Stack []Context

// Push returns a new stack with c on top.
func (s Stack) Push(c Context) Stack {
	out := make(Stack, len(s)+1)
	copy(out, s)
	out[len(s)] = c
	return out
}

// Top returns the innermost context.
func (s Stack) Top() (Context, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

// Is reports whether c is the innermost context.
func (s Stack) Is(c Context) bool {
	top, ok := s.Top()
	return ok && top == c
}

// Has reports whether c appears anywhere in the stack.
func (s Stack) Has(c Context) bool {
	for _, x := range s {
		if x == c {
			return true
		}
	}
	return false
}

// selectAlias is a name introduced by `expr as name` in the column list.
type selectAlias struct {
	sql  string
	expr ast.Expr
}

// Query is the resolution state of one (sub)query.
type Query struct {
	Mode   Mode
	Entity *domain.Entity
	Main   *alias.Entry
	// Traversal is the relation followed by Entity[pk].related.
	Traversal *domain.Relation
	// Projection is the name after ->.
	Projection string
	Aliases    *alias.Table
	Subquery   bool
	Scope      int
	Parent     *Query
	// Qualify prefixes main-entity columns with their table even at the
	// top level; set once the query is known to join other tables.
	Qualify bool

	aliases map[string]selectAlias
	// joinKinds is the join kind each traversed relation edge was first
	// joined with, keyed by alias key.
	joinKinds map[string]ast.JoinKind
}

func newQuery(mode Mode, tbl *alias.Table, parent *Query) *Query {
	return &Query{
		Mode:     mode,
		Aliases:  tbl,
		Subquery: parent != nil,
		Scope:    tbl.NewScope(),
		Parent:   parent,
		aliases:  make(map[string]selectAlias),

		joinKinds: make(map[string]ast.JoinKind),
	}
}

// setMain registers e as the entity the query reads from.
func (q *Query) setMain(e *domain.Entity) error {
	entry, err := q.Aliases.Register(alias.Key(q.Scope, e.Name), e, q.Subquery)
	if err != nil {
		return err
	}
	q.Entity = e
	q.Main = entry
	return nil
}

// column renders a main-entity field for use in this query.
func (q *Query) column(f *domain.Field) string {
	if q.Mode != SelectMode {
		return f.Column
	}
	if q.Subquery || q.Qualify {
		return q.Main.Qualifier() + "." + f.Column
	}
	return f.Column
}

// qualified renders a main-entity field with its qualifier regardless of
// position.
func (q *Query) qualified(f *domain.Field) string {
	return q.Main.Qualifier() + "." + f.Column
}

// defaultColumns lists every field of the main entity. Fields whose
// declaration cannot be recovered from the column alone carry a
// "name: Type" decode hint.
func (q *Query) defaultColumns() []fragment.Fragment {
	out := make([]fragment.Fragment, 0, len(q.Entity.Fields))
	for _, f := range q.Entity.Fields {
		col := q.column(f)
		if f.NeedsDecodeHint() {
			col += fmt.Sprintf(` AS "%s: %s"`, f.Name, f.HintType())
		}
		out = append(out, fragment.New(col))
	}
	return out
}

var aliasName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)

func (q *Query) defineAlias(c *ast.Cast) string {
	sql := c.Alias
	name := c.Alias
	if c.Quoted {
		sql = `"` + c.Alias + `"`
		name = aliasName.FindString(c.Alias)
	}
	q.aliases[name] = selectAlias{sql: sql, expr: c.Expr}
	return sql
}
