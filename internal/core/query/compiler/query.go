package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/satishbabariya/entql/internal/core/query/ast"
	"github.com/satishbabariya/entql/internal/core/query/dialect"
	"github.com/satishbabariya/entql/internal/core/query/fragment"
)

var (
	// ErrUnknownDialect is returned by New for unsupported dialect names.
	ErrUnknownDialect = dialect.ErrUnknownDialect
	// ErrMissingBinding is returned by Bind when a host value is absent.
	ErrMissingBinding = errors.New("missing host value")
)

// StatementKind is the SQL statement a query compiles to.
type StatementKind string

const (
	SelectStatement StatementKind = "select"
	UpdateStatement StatementKind = "update"
	InsertStatement StatementKind = "insert"
)

// CompiledQuery is the output of one compilation.
type CompiledQuery struct {
	Name        string           `json:"name,omitempty" yaml:"name,omitempty"`
	SQL         string           `json:"sql" yaml:"sql"`
	Args        []fragment.Param `json:"args" yaml:"args"`
	Cardinality ast.Cardinality  `json:"-" yaml:"-"`
	Statement   StatementKind    `json:"statement" yaml:"statement"`
	Dialect     string           `json:"dialect" yaml:"dialect"`
}

func (q CompiledQuery) named(name string) *CompiledQuery {
	q.Name = name
	q.Args = append([]fragment.Param(nil), q.Args...)
	return &q
}

var methods = map[ast.Cardinality]string{
	ast.Execute:  "execute",
	ast.One:      "fetch_one",
	ast.All:      "fetch_all",
	ast.Optional: "fetch_optional",
	ast.Stream:   "fetch_stream",
}

// Method names the call the execution layer should make for this query.
func (q *CompiledQuery) Method() string {
	return methods[q.Cardinality]
}

// HostParams lists the distinct host binding names in argument order.
func (q *CompiledQuery) HostParams() []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range q.Args {
		if !p.Host {
			continue
		}
		name := cast.ToString(p.Value)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Bind produces the positional arguments of the query. Literal arguments
// are used as compiled; host arguments are looked up in values, where a
// dotted name such as params.id may also walk nested maps.
func (q *CompiledQuery) Bind(values map[string]any) ([]any, error) {
	out := make([]any, len(q.Args))
	for i, p := range q.Args {
		if !p.Host {
			out[i] = p.Value
			continue
		}
		name := cast.ToString(p.Value)
		v, ok := lookup(values, name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingBinding, name)
		}
		out[i] = v
	}
	return out, nil
}

func lookup(values map[string]any, name string) (any, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(name, ".")
	if !found {
		return nil, false
	}
	inner, ok := values[head]
	if !ok {
		return nil, false
	}
	m, err := cast.ToStringMapE(inner)
	if err != nil {
		return nil, false
	}
	return lookup(m, rest)
}

func paramValues(params []fragment.Param) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = p.Value
	}
	return out
}
