// Package resolver maps syntax trees to SQL fragments, resolving every
// identifier against the catalog.
//
// Resolution is fail-fast: the first error aborts the statement and
// carries the span of the offending node.
package resolver

import (
	"errors"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/satishbabariya/entql/internal/core/catalog"
	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/ast"
	"github.com/satishbabariya/entql/internal/core/query/fragment"
)

// DefaultPageSize is the page size used by `page n` without a size.
const DefaultPageSize = 50

// DefaultFunctions are the SQL functions callable from queries.
var DefaultFunctions = []string{
	"ABS", "AVG", "CEIL", "COALESCE", "CONCAT", "COUNT", "DATE", "FLOOR",
	"GREATEST", "LEAST", "LENGTH", "LOWER", "LTRIM", "MAX", "MIN", "NOW",
	"NULLIF", "ROUND", "RTRIM", "SUBSTR", "SUBSTRING", "SUM", "TRIM", "UPPER",
}

// subqueryFuncs maps the names allowed in front of a nested select to
// their SQL spelling.
var subqueryFuncs = map[string]string{
	"EXISTS":     "EXISTS",
	"NOT_EXISTS": "NOT EXISTS",
	"ANY":        "ANY",
	"ALL":        "ALL",
	"SOME":       "SOME",
	"ARRAY":      "ARRAY",
}

var upper = cases.Upper(language.Und)

// Resolver resolves statements against one catalog. It holds no per-query
// state and may be shared.
type Resolver struct {
	catalog   catalog.Catalog
	functions map[string]bool
	pageSize  int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFunctions allow-lists additional function names.
func WithFunctions(names ...string) Option {
	return func(r *Resolver) {
		for _, n := range names {
			r.functions[upper.String(n)] = true
		}
	}
}

// WithPageSize sets the size used by `page n`.
func WithPageSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// New creates a resolver over cat.
func New(cat catalog.Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:   cat,
		functions: make(map[string]bool, len(DefaultFunctions)),
		pageSize:  DefaultPageSize,
	}
	for _, f := range DefaultFunctions {
		r.functions[f] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve compiles a statement into a fragment with "?" markers.
func (r *Resolver) Resolve(stmt ast.Statement) (fragment.Fragment, error) {
	switch s := stmt.(type) {
	case *ast.Select:
		return r.resolveSelect(s)
	case *ast.Update:
		return r.resolveUpdate(s)
	case *ast.Insert:
		return r.resolveInsert(s)
	default:
		return fragment.Fragment{}, diagnostics.Errorf(diagnostics.UnsupportedExpression, stmt.Span(), "unsupported statement")
	}
}

func (r *Resolver) entity(name string, span diagnostics.Span) (*domain.Entity, error) {
	e, err := r.catalog.GetEntity(name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, diagnostics.NewUnknownEntityError(name, span)
		}
		return nil, err
	}
	return e, nil
}

// relation finds name on e, first as a forward FK field, then as an
// inverse related name. A nil relation means neither exists.
func (r *Resolver) relation(e *domain.Entity, name string) (*domain.Relation, domain.RelationKind, error) {
	rel, err := r.catalog.GetRelationByOwner(e.Name, name)
	if err == nil {
		return rel, domain.Forward, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, "", err
	}

	rel, err = r.catalog.GetRelation(e.Name, name)
	if err == nil {
		return rel, domain.Inverse, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, "", err
	}
	return nil, "", nil
}

// at locates an error produced without position information.
func at(err error, span diagnostics.Span) error {
	if d, ok := diagnostics.As(err); ok {
		return d.WithSpan(span)
	}
	return err
}
