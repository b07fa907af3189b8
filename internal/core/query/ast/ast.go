// Package ast defines the syntax tree of the query language: one tagged
// union of expression nodes plus the statement forms.
package ast

import "github.com/satishbabariya/entql/internal/core/diagnostics"

// Node is implemented by every syntax tree node.
type Node interface {
	Span() diagnostics.Span
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// JoinKind selects how a relation traversal is joined.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
)

// SQL returns the join keyword.
func (k JoinKind) SQL() string {
	if k == LeftJoin {
		return "LEFT JOIN"
	}
	return "INNER JOIN"
}

// Ident is a bare name: a field of the main entity or a SELECT-defined alias.
type Ident struct {
	Name string
	Pos  diagnostics.Span
}

// FieldAccess is base.member (inner join) or base=.member (left join).
type FieldAccess struct {
	Base   string
	Member string
	Join   JoinKind
	Pos    diagnostics.Span
}

// Call is an allow-listed SQL function call.
type Call struct {
	Name string
	Args []Expr
	Pos  diagnostics.Span
}

// LiteralKind classifies a literal.
type LiteralKind int

const (
	IntLit LiteralKind = iota
	FloatLit
	StringLit
	BoolLit
	NullLit
)

// Literal is a constant; Raw is the source text including quotes.
type Literal struct {
	Kind LiteralKind
	Raw  string
	Pos  diagnostics.Span
}

// HostParam is a value supplied at bind time, written :name.
type HostParam struct {
	Name string
	Pos  diagnostics.Span
}

// RawValue is SQL text inlined without binding, written in backticks.
type RawValue struct {
	SQL string
	Pos diagnostics.Span
}

// Cast is `expr as alias`. Quoted aliases keep their text verbatim.
type Cast struct {
	Expr   Expr
	Alias  string
	Quoted bool
	Pos    diagnostics.Span
}

// Binary is lhs op rhs.
type Binary struct {
	LHS Expr
	Op  Op
	RHS Expr
	Pos diagnostics.Span
}

// UnaryOp is a prefix operator.
type UnaryOp int

const (
	Not UnaryOp = iota
	Minus
)

// Unary is a prefix operation.
type Unary struct {
	Op   UnaryOp
	Expr Expr
	Pos  diagnostics.Span
}

// Paren is a parenthesized expression list.
type Paren struct {
	Items []Expr
	Pos   diagnostics.Span
}

// CaseArm is one `when => then` arm; a nil When is the wildcard arm.
type CaseArm struct {
	When Expr
	Then Expr
}

// Case is a CASE expression with an optional switch value.
type Case struct {
	Switch Expr
	Arms   []CaseArm
	Pos    diagnostics.Span
}

// SubSelect is a nested select, optionally wrapped in EXISTS, ANY and the like.
type SubSelect struct {
	Func   string
	Select *Select
	Pos    diagnostics.Span
}

func (e *Ident) Span() diagnostics.Span       { return e.Pos }
func (e *FieldAccess) Span() diagnostics.Span { return e.Pos }
func (e *Call) Span() diagnostics.Span        { return e.Pos }
func (e *Literal) Span() diagnostics.Span     { return e.Pos }
func (e *HostParam) Span() diagnostics.Span   { return e.Pos }
func (e *RawValue) Span() diagnostics.Span    { return e.Pos }
func (e *Cast) Span() diagnostics.Span        { return e.Pos }
func (e *Binary) Span() diagnostics.Span      { return e.Pos }
func (e *Unary) Span() diagnostics.Span       { return e.Pos }
func (e *Paren) Span() diagnostics.Span       { return e.Pos }
func (e *Case) Span() diagnostics.Span        { return e.Pos }
func (e *SubSelect) Span() diagnostics.Span   { return e.Pos }

func (*Ident) exprNode()       {}
func (*FieldAccess) exprNode() {}
func (*Call) exprNode()        {}
func (*Literal) exprNode()     {}
func (*HostParam) exprNode()   {}
func (*RawValue) exprNode()    {}
func (*Cast) exprNode()        {}
func (*Binary) exprNode()      {}
func (*Unary) exprNode()       {}
func (*Paren) exprNode()       {}
func (*Case) exprNode()        {}
func (*SubSelect) exprNode()   {}
