package ast

import "github.com/satishbabariya/entql/internal/core/diagnostics"

// Cardinality is the number of rows a statement is expected to return,
// chosen by the leading fetch sigil.
type Cardinality int

const (
	// Execute statements return no rows.
	Execute Cardinality = iota
	One
	All
	Stream
	Optional
)

var cardinalityNames = [...]string{"execute", "one", "all", "stream", "optional"}

func (c Cardinality) String() string {
	if int(c) < len(cardinalityNames) {
		return cardinalityNames[c]
	}
	return "unknown"
}

// Statement is a top-level query.
type Statement interface {
	Node
	stmtNode()
}

// Target names the entity a statement starts from, optionally narrowed to
// one instance by primary key and then to a related collection.
type Target struct {
	Entity  string
	PK      Expr
	Related string
	Pos     diagnostics.Span
}

// OrderItem is one ORDER BY element.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// Limit is either `limit count[, offset]` or `page number[, size]`.
type Limit struct {
	Page   bool
	Count  Expr
	Offset Expr
	Pos    diagnostics.Span
}

// Clauses are the optional trailing clauses of a select.
type Clauses struct {
	Where   Expr
	GroupBy []Expr
	Having  Expr
	OrderBy []OrderItem
	Limit   *Limit
}

// Select reads rows of the target entity.
type Select struct {
	Cardinality Cardinality
	Target      Target
	Columns     []Expr
	// Projection is the name after ->; a primitive type name makes the
	// query return scalars.
	Projection string
	// Generic marks the SELECT ... FROM form; Star is its `*` column list.
	Generic bool
	Star    bool
	Clauses
	Pos diagnostics.Span
}

// Assignment is field = value.
type Assignment struct {
	Field string
	Value Expr
	Pos   diagnostics.Span
}

// Update modifies rows of the target entity.
type Update struct {
	Target Target
	Set    []Assignment
	Where  Expr
	Pos    diagnostics.Span
}

// Insert creates one row.
type Insert struct {
	Entity string
	Values []Assignment
	Pos    diagnostics.Span
}

func (s *Select) Span() diagnostics.Span { return s.Pos }
func (s *Update) Span() diagnostics.Span { return s.Pos }
func (s *Insert) Span() diagnostics.Span { return s.Pos }

func (*Select) stmtNode() {}
func (*Update) stmtNode() {}
func (*Insert) stmtNode() {}
