package ast

import "strings"

// Op is a binary operator as written in the query language.
type Op string

const (
	Add  Op = "+"
	Sub  Op = "-"
	Mul  Op = "*"
	Div  Op = "/"
	Mod  Op = "%"
	Eq   Op = "=="
	Ne   Op = "!="
	Lt   Op = "<"
	Le   Op = "<="
	Gt   Op = ">"
	Ge   Op = ">="
	And  Op = "&&"
	Or   Op = "||"
	Like Op = "like"
	In   Op = "in"
)

var opSQL = map[Op]string{
	Eq:   "=",
	Ne:   "<>",
	And:  "AND",
	Or:   "OR",
	Like: "LIKE",
	In:   "IN",
}

// SQL returns the operator's SQL spelling.
func (o Op) SQL() string {
	if s, ok := opSQL[o]; ok {
		return s
	}
	return string(o)
}

// Precedence levels, higher binds tighter.
const (
	PrecOr = iota + 1
	PrecAnd
	PrecCompare
	PrecAdditive
	PrecMultiplicative
)

// Precedence returns the binding strength of o.
func (o Op) Precedence() int {
	switch o {
	case Or:
		return PrecOr
	case And:
		return PrecAnd
	case Eq, Ne, Lt, Le, Gt, Ge, Like, In:
		return PrecCompare
	case Add, Sub:
		return PrecAdditive
	case Mul, Div, Mod:
		return PrecMultiplicative
	default:
		return 0
	}
}

// IsComparison reports whether o is non-associative.
func (o Op) IsComparison() bool {
	return o.Precedence() == PrecCompare
}

// LookupOp maps token text to an operator. Keyword operators match
// case-insensitively.
func LookupOp(text string) (Op, bool) {
	switch text {
	case "+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return Op(text), true
	}
	switch strings.ToLower(text) {
	case "like":
		return Like, true
	case "in":
		return In, true
	}
	return "", false
}
