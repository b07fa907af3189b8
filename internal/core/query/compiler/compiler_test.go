package compiler

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/entql/internal/core/catalog"
	catalogparser "github.com/satishbabariya/entql/internal/core/catalog/parser"
	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/ast"
)

func houses(t *testing.T) catalog.Catalog {
	t.Helper()
	src, err := os.ReadFile("testdata/houses.entql")
	require.NoError(t, err)
	reg, err := catalogparser.Load("houses.entql", string(src))
	require.NoError(t, err)
	return reg
}

func newCompiler(t *testing.T, opts ...Option) *Compiler {
	t.Helper()
	c, err := New(houses(t), opts...)
	require.NoError(t, err)
	return c
}

// render lays a compiled query out for golden comparison.
func render(q *CompiledQuery) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "-- %s %s %s\n", q.Dialect, q.Statement, q.Method())
	b.WriteString(q.SQL + "\n")
	for i, p := range q.Args {
		fmt.Fprintf(&b, "%d. %s = %#v", i+1, p.Key, p.Value)
		if p.Host {
			b.WriteString(" (host)")
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func TestCompileGolden(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		src     string
	}{
		{"maison_where", "postgres", "*Maison where taille > 101"},
		{"lespieces", "sqlite", "*Maison[1].lespieces"},
		{"repeated_params", "postgres", ".Maison where taille > 10 && taille < 10 * 2"},
		{"update", "mysql", "update Maison[:id] taille = taille + 1 where adresse == :adresse || piscine == true"},
		{"insert", "postgres", `insert Piece nom = "salon", maison = :maison, surface = 12.5`},
		{"join", "postgres", `*Aaa(id) where bbb.fstring == "bla" && bbb.fi32 == 1`},
		{"subquery_page", "sqlite", "*Maison(adresse) -> String where EXISTS(select Piece(id) where maison == Maison.id && surface > 20.5) page 2"},
		{"generic", "mysql", "SELECT nom, COUNT(*) as n FROM Piece GROUP BY nom HAVING n > 1 ORDER BY -n"},
	}

	g := goldie.New(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompiler(t, WithDialect(tt.dialect))
			q, err := c.CompileNamed(tt.name, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.name, q.Name)
			g.Assert(t, tt.name, render(q))
		})
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	src := `*Aaa(id) where bbb.fstring == "bla" && EXISTS(select Bbb where fi32 == Aaa.id)`
	a, err := newCompiler(t, WithDialect("postgres")).Compile(src)
	require.NoError(t, err)
	b, err := newCompiler(t, WithDialect("postgres")).Compile(src)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompileCache(t *testing.T) {
	c := newCompiler(t, WithCache(8))

	first, err := c.CompileNamed("one", "*Maison where taille > 101")
	require.NoError(t, err)
	second, err := c.CompileNamed("two", "*Maison where taille > 101")
	require.NoError(t, err)

	assert.Equal(t, "one", first.Name)
	assert.Equal(t, "two", second.Name)
	assert.Equal(t, first.SQL, second.SQL)

	second.Args[0].Value = int64(0)
	third, err := c.Compile("*Maison where taille > 101")
	require.NoError(t, err)
	assert.Equal(t, int64(101), third.Args[0].Value, "cached args are not shared")

	stats, ok := c.CacheStats()
	require.True(t, ok)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	_, ok = newCompiler(t).CacheStats()
	assert.False(t, ok)
}

func TestNewUnknownDialect(t *testing.T) {
	_, err := New(houses(t), WithDialect("oracle"))
	assert.True(t, errors.Is(err, ErrUnknownDialect))
}

func TestCompileErrors(t *testing.T) {
	c := newCompiler(t)
	tests := []struct {
		src  string
		kind diagnostics.Kind
	}{
		{"Maison where", diagnostics.ParseError},
		{"Chateau", diagnostics.UnknownEntity},
		{"Maison where etages > 1", diagnostics.UnknownField},
		{"Maison(lower(adresse))", diagnostics.FunctionNotAllowed},
		{"insert Piece surface = 1.0", diagnostics.ShapeError},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := c.Compile(tt.src)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestCompileOptions(t *testing.T) {
	c := newCompiler(t, WithPageSize(10), WithFunctions("similarity"), WithDialect("mysql"))
	assert.Equal(t, "mysql", c.Dialect())

	q, err := c.Compile(`*Maison(SIMILARITY(adresse, "rue") as s) page 1`)
	require.NoError(t, err)
	assert.Equal(t, `SELECT DISTINCT SIMILARITY(adresse, ?) AS s FROM maison LIMIT ? OFFSET (? - 1) * ?`, q.SQL)
	assert.Equal(t, int64(10), q.Args[1].Value)
}

func TestMethod(t *testing.T) {
	c := newCompiler(t)
	tests := map[string]string{
		"Maison":                     "execute",
		".Maison[1]":                 "fetch_one",
		"*Maison":                    "fetch_all",
		"+Maison":                    "fetch_stream",
		"?Maison[1]":                 "fetch_optional",
		"SELECT * FROM Maison":       "fetch_all",
		"update Maison taille = 1":   "execute",
		`insert Piece nom = "salon"`: "execute",
	}
	for src, want := range tests {
		q, err := c.Compile(src)
		require.NoError(t, err, src)
		assert.Equal(t, want, q.Method(), src)
	}
	q, _ := c.Compile("+Maison")
	assert.Equal(t, ast.Stream, q.Cardinality)
}

func TestBind(t *testing.T) {
	c := newCompiler(t, WithDialect("postgres"))
	q, err := c.Compile("*Maison[:id] where taille > 3 && adresse == params.adresse && taille < :id")
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, adresse, taille, piscine FROM maison WHERE taille > $1 AND adresse = $2 AND taille < $3 AND maison.id=$3", q.SQL)
	assert.Equal(t, []string{"params.adresse", "id"}, q.HostParams())

	args, err := q.Bind(map[string]any{
		"id":     7,
		"params": map[string]any{"adresse": "rue"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), "rue", 7}, args)

	_, err = q.Bind(map[string]any{"id": 7})
	assert.True(t, errors.Is(err, ErrMissingBinding))
	assert.Contains(t, err.Error(), "params.adresse")
}
