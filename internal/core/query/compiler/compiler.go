// Package compiler compiles query source into dialect-ready SQL.
//
// A Compiler wires the lexer, parser, resolver, assembler and dialect
// adapter together and optionally caches compiled statements.
package compiler

import (
	"os"

	"github.com/satishbabariya/entql/internal/core/catalog"
	"github.com/satishbabariya/entql/internal/core/query/ast"
	"github.com/satishbabariya/entql/internal/core/query/cache"
	"github.com/satishbabariya/entql/internal/core/query/dialect"
	"github.com/satishbabariya/entql/internal/core/query/parser"
	"github.com/satishbabariya/entql/internal/core/query/resolver"
	"github.com/satishbabariya/entql/internal/debug"
)

// DefaultDialect is used when no dialect option is given.
const DefaultDialect = "sqlite"

type options struct {
	dialect   string
	pageSize  int
	functions []string
	cacheSize int
}

// Option configures a Compiler.
type Option func(*options)

// WithDialect selects the placeholder convention by dialect name.
func WithDialect(name string) Option {
	return func(o *options) { o.dialect = name }
}

// WithPageSize sets the size used by `page n`.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithFunctions allow-lists SQL functions in addition to the built-ins.
func WithFunctions(names ...string) Option {
	return func(o *options) { o.functions = append(o.functions, names...) }
}

// WithCache keeps up to size compiled statements in memory.
func WithCache(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

// WithDebug turns on compiled-SQL logging to stderr; args also logs the
// bound arguments.
func WithDebug(args bool) Option {
	return func(*options) { debug.InitWriter(os.Stderr, true, args) }
}

// Compiler compiles statements against one catalog and dialect.
type Compiler struct {
	resolver *resolver.Resolver
	dialect  dialect.Dialect
	cache    *cache.LRU[CompiledQuery]
}

// New creates a compiler. An unknown dialect name fails here rather than
// at the first compilation.
func New(cat catalog.Catalog, opts ...Option) (*Compiler, error) {
	o := options{dialect: DefaultDialect, pageSize: resolver.DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}

	d, err := dialect.Lookup(o.dialect)
	if err != nil {
		return nil, err
	}

	c := &Compiler{
		resolver: resolver.New(cat, resolver.WithPageSize(o.pageSize), resolver.WithFunctions(o.functions...)),
		dialect:  d,
	}
	if o.cacheSize > 0 {
		c.cache = cache.New[CompiledQuery](o.cacheSize, 0)
	}
	return c, nil
}

// Dialect returns the name of the target dialect.
func (c *Compiler) Dialect() string {
	return c.dialect.Name
}

// Compile compiles one statement.
func (c *Compiler) Compile(src string) (*CompiledQuery, error) {
	return c.CompileNamed("", src)
}

// CompileNamed compiles one statement and labels the result with name.
// Errors are *diagnostics.Error values locating the first problem in src.
func (c *Compiler) CompileNamed(name, src string) (*CompiledQuery, error) {
	key := cache.Key(c.dialect.Name, src)
	if c.cache != nil {
		if q, ok := c.cache.Get(key); ok {
			debug.Debug("compile cache hit", "query", name)
			return q.named(name), nil
		}
	}

	stmt, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	frag, err := c.resolver.Resolve(stmt)
	if err != nil {
		return nil, err
	}
	sql, params, err := c.dialect.Render(frag)
	if err != nil {
		return nil, err
	}

	q := CompiledQuery{
		SQL:         sql,
		Args:        params,
		Cardinality: ast.Execute,
		Dialect:     c.dialect.Name,
	}
	switch s := stmt.(type) {
	case *ast.Select:
		q.Statement = SelectStatement
		q.Cardinality = s.Cardinality
	case *ast.Update:
		q.Statement = UpdateStatement
	case *ast.Insert:
		q.Statement = InsertStatement
	}

	if c.cache != nil {
		c.cache.Set(key, q)
	}
	out := q.named(name)
	debug.SQL(name, out.SQL, paramValues(out.Args))
	return out, nil
}

// CacheStats reports compile-cache statistics; ok is false when caching
// is off.
func (c *Compiler) CacheStats() (stats cache.Stats, ok bool) {
	if c.cache == nil {
		return cache.Stats{}, false
	}
	return c.cache.Stats(), true
}
