package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/entql/internal/core/catalog"
	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/core/query/fragment"
	"github.com/satishbabariya/entql/internal/core/query/parser"
)

func testCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	f := func(name, typ string) *domain.Field {
		return &domain.Field{Name: name, Type: domain.Type{Name: typ}}
	}
	id := func() *domain.Field {
		return &domain.Field{Name: "id", Type: domain.Type{Name: "Int"}, Flags: domain.FieldFlags{PrimaryKey: true}}
	}

	reg, err := catalog.NewBuilder().
		Add(&domain.Entity{Name: "Maison", Table: "maison", Fields: []*domain.Field{
			id(), f("adresse", "String"), f("taille", "Int"), f("piscine", "Boolean"),
		}}).
		Add(&domain.Entity{Name: "Piece", Table: "piece", Fields: []*domain.Field{
			id(),
			{Name: "nom", Type: domain.Type{Name: "String"}, Flags: domain.FieldFlags{CreationArg: true}},
			{Name: "maison", Column: "maison_id", Type: domain.Type{Name: "Int"},
				FK: &domain.ForeignKey{Target: "Maison", RelatedName: "lespieces"}},
			{Name: "created", Type: domain.Type{Name: "DateTime"}, Flags: domain.FieldFlags{CreationFunction: "NOW()"}},
		}}).
		Add(&domain.Entity{Name: "Aaa", Table: "aaa", Fields: []*domain.Field{
			id(),
			{Name: "bbb", Type: domain.Type{Name: "Int"}, FK: &domain.ForeignKey{Target: "Bbb", RelatedName: "aaas"}},
		}}).
		Add(&domain.Entity{Name: "Bbb", Table: "bbb", Fields: []*domain.Field{
			id(),
			{Name: "fstring", Column: "fstringcol", Type: domain.Type{Name: "String"}},
			f("fi32", "i32"),
		}}).
		Build()
	require.NoError(t, err)
	return reg
}

func resolve(t *testing.T, src string, opts ...Option) (fragment.Fragment, error) {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err, src)
	return New(testCatalog(t), opts...).Resolve(stmt)
}

func values(f fragment.Fragment) []any {
	out := make([]any, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Value
	}
	return out
}

func TestResolveSelect(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		sql    string
		params []any
	}{
		{
			name:   "where",
			src:    "Maison where taille > 101",
			sql:    "SELECT id, adresse, taille, piscine FROM maison WHERE taille > ?",
			params: []any{int64(101)},
		},
		{
			name:   "inverse traversal",
			src:    "Maison[1].lespieces",
			sql:    `SELECT DISTINCT id, nom, maison_id AS "maison: Int", created FROM piece WHERE piece.maison_id=?`,
			params: []any{int64(1)},
		},
		{
			name: "forward traversal",
			src:  "Piece[3].maison",
			sql: "SELECT DISTINCT maison.id, maison.adresse, maison.taille, maison.piscine FROM maison " +
				"INNER JOIN piece ON piece.maison_id = maison.id WHERE piece.id=?",
			params: []any{int64(3)},
		},
		{
			name: "joins are deduplicated",
			src:  `Aaa(id, bbb) where bbb.fstring == "x" && bbb.fi32 == 3`,
			sql: "SELECT DISTINCT aaa.id, aaa.bbb FROM aaa INNER JOIN bbb ON aaa.bbb = bbb.id " +
				"WHERE bbb.fstringcol = ? AND bbb.fi32 = ?",
			params: []any{"x", int64(3)},
		},
		{
			name:   "left join",
			src:    `Aaa(id) where bbb=.fi32 == 3`,
			sql:    "SELECT DISTINCT aaa.id FROM aaa LEFT JOIN bbb ON aaa.bbb = bbb.id WHERE bbb.fi32 = ?",
			params: []any{int64(3)},
		},
		{
			name:   "primary key",
			src:    "Maison[:id]",
			sql:    "SELECT id, adresse, taille, piscine FROM maison WHERE maison.id=?",
			params: []any{"id"},
		},
		{
			name:   "null comparison",
			src:    "Maison where piscine == None && adresse != null",
			sql:    "SELECT id, adresse, taille, piscine FROM maison WHERE piscine IS NULL AND adresse IS NOT NULL",
			params: []any{},
		},
		{
			name:   "or is parenthesized next to a key",
			src:    `Maison[1].lespieces where nom == "a" || nom == "b"`,
			sql:    `SELECT DISTINCT id, nom, maison_id AS "maison: Int", created FROM piece WHERE (nom = ? OR nom = ?) AND piece.maison_id=?`,
			params: []any{"a", "b", int64(1)},
		},
		{
			name:   "alias in having",
			src:    "Piece(maison, COUNT(*) as n) group by maison having n > 1",
			sql:    "SELECT DISTINCT maison_id, COUNT(*) AS n FROM piece GROUP BY maison_id HAVING n > ?",
			params: []any{int64(1)},
		},
		{
			name:   "alias in a call argument",
			src:    "Maison(taille as t, SUM(t))",
			sql:    "SELECT DISTINCT taille AS t, SUM(taille) FROM maison",
			params: []any{},
		},
		{
			name:   "leading zero is decimal",
			src:    "Maison where taille > 010",
			sql:    "SELECT id, adresse, taille, piscine FROM maison WHERE taille > ?",
			params: []any{int64(10)},
		},
		{
			name:   "order by",
			src:    "Maison order by -taille, adresse",
			sql:    "SELECT id, adresse, taille, piscine FROM maison ORDER BY taille DESC, adresse",
			params: []any{},
		},
		{
			name:   "limit",
			src:    "Maison limit 10, 20",
			sql:    "SELECT id, adresse, taille, piscine FROM maison LIMIT ? OFFSET ?",
			params: []any{int64(10), int64(20)},
		},
		{
			name:   "page",
			src:    "Maison page 2",
			sql:    "SELECT id, adresse, taille, piscine FROM maison LIMIT ? OFFSET (? - 1) * ?",
			params: []any{int64(50), int64(2), int64(50)},
		},
		{
			name:   "page with size",
			src:    "Maison page 3, 10",
			sql:    "SELECT id, adresse, taille, piscine FROM maison LIMIT ? OFFSET (? - 1) * ?",
			params: []any{int64(10), int64(3), int64(10)},
		},
		{
			name:   "scalar projection",
			src:    "Maison(taille) -> i64",
			sql:    "SELECT DISTINCT taille FROM maison",
			params: []any{},
		},
		{
			name:   "row projection",
			src:    "Maison(id, taille) -> MaisonRow",
			sql:    "SELECT id, taille FROM maison",
			params: []any{},
		},
		{
			name:   "in list",
			src:    "Maison where id in (1, 2)",
			sql:    "SELECT id, adresse, taille, piscine FROM maison WHERE id IN (?, ?)",
			params: []any{int64(1), int64(2)},
		},
		{
			name:   "case",
			src:    `Maison(case taille { 1 => "small", _ => "big" } as size)`,
			sql:    "SELECT DISTINCT CASE taille WHEN ? THEN ? ELSE ? END AS size FROM maison",
			params: []any{int64(1), "small", "big"},
		},
		{
			name:   "host path",
			src:    "Maison where adresse == params.adresse",
			sql:    "SELECT id, adresse, taille, piscine FROM maison WHERE adresse = ?",
			params: []any{"params.adresse"},
		},
		{
			name: "correlated subquery",
			src:  "Maison where EXISTS(select Piece(id) where maison == Maison.id)",
			sql: "SELECT id, adresse, taille, piscine FROM maison WHERE EXISTS(" +
				"SELECT DISTINCT b.id FROM piece b WHERE b.maison_id = maison.id)",
			params: []any{},
		},
		{
			name: "subquery over the outer entity",
			src:  "Maison where EXISTS(select Maison(id) where taille > Maison.taille)",
			sql: "SELECT id, adresse, taille, piscine FROM maison WHERE EXISTS(" +
				"SELECT DISTINCT b.id FROM maison b WHERE b.taille > maison.taille)",
			params: []any{},
		},
		{
			name: "subquery with a bound value",
			src:  `Maison where id in (select Piece(maison) where nom == "cuisine")`,
			sql: "SELECT id, adresse, taille, piscine FROM maison WHERE id IN (" +
				"SELECT DISTINCT b.maison_id FROM piece b WHERE b.nom = ?)",
			params: []any{"cuisine"},
		},
		{
			name:   "generic",
			src:    "SELECT id, taille FROM Maison WHERE taille > 3 ORDER BY taille",
			sql:    "SELECT id, taille FROM maison WHERE taille > ? ORDER BY taille",
			params: []any{int64(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := resolve(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, f.SQL)
			assert.Equal(t, tt.params, values(f))
			assert.Equal(t, fragment.CountMarkers(f.SQL), len(f.Params))
		})
	}
}

func TestResolveHostParams(t *testing.T) {
	f, err := resolve(t, "Maison[:id] where adresse == :adresse")
	require.NoError(t, err)
	require.Len(t, f.Params, 2)
	assert.Equal(t, fragment.Param{Key: ":adresse", Value: "adresse", Host: true}, f.Params[0])
	assert.Equal(t, fragment.Param{Key: ":id", Value: "id", Host: true}, f.Params[1])
}

func TestResolvePageSizeOption(t *testing.T) {
	f, err := resolve(t, "Maison page 1", WithPageSize(20))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(20), int64(1), int64(20)}, values(f))
}

func TestResolveExtraFunctions(t *testing.T) {
	_, err := resolve(t, "Maison(levenshtein(adresse, \"x\") as d)")
	require.Error(t, err)

	f, err := resolve(t, "Maison(LEVENSHTEIN(adresse, \"x\") as d)", WithFunctions("levenshtein"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT DISTINCT LEVENSHTEIN(adresse, ?) AS d FROM maison", f.SQL)
}

func TestResolveDidYouMean(t *testing.T) {
	_, err := resolve(t, "Maison(count(*))")
	d, ok := diagnostics.As(err)
	require.True(t, ok)
	assert.Equal(t, diagnostics.FunctionNotAllowed, d.Kind)
	assert.Contains(t, d.Message, "COUNT(*)")

	_, err = resolve(t, "Maison where exists(select Piece)")
	d, ok = diagnostics.As(err)
	require.True(t, ok)
	assert.Equal(t, diagnostics.FunctionNotAllowed, d.Kind)
	assert.Contains(t, d.Message, "EXISTS(select ...)")
}

func TestResolveUpdate(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		sql    string
		params []any
	}{
		{
			name:   "by key",
			src:    `update Maison[1] taille = taille + 1, piscine = true where adresse == "x"`,
			sql:    "UPDATE maison SET taille = taille + ?, piscine = ? WHERE adresse = ? AND id=?",
			params: []any{int64(1), true, "x", int64(1)},
		},
		{
			name:   "through inverse relation",
			src:    `update Maison[2].lespieces nom = "salon"`,
			sql:    "UPDATE piece SET nom = ? WHERE maison_id=?",
			params: []any{"salon", int64(2)},
		},
		{
			name:   "whole table",
			src:    "update Maison piscine = false",
			sql:    "UPDATE maison SET piscine = ?",
			params: []any{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := resolve(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, f.SQL)
			assert.Equal(t, tt.params, values(f))
		})
	}
}

func TestResolveInsert(t *testing.T) {
	f, err := resolve(t, `insert Piece nom = "cuisine", maison = :maison`)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO piece (nom,maison_id,created) VALUES (?,?,NOW())", f.SQL)
	assert.Equal(t, []any{"cuisine", "maison"}, values(f))
	assert.True(t, f.Params[1].Host)
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind diagnostics.Kind
	}{
		{"Ecole", diagnostics.UnknownEntity},
		{"Maison where hauteur > 1", diagnostics.UnknownField},
		{"Maison[1].chambres", diagnostics.UnknownRelation},
		{"Aaa where bbb.nope == 1", diagnostics.UnknownField},
		{"Maison where x=.y == 1", diagnostics.UnknownRelation},
		{`Aaa(id) where bbb.fi32 == 1 && bbb=.fstring == "x"`, diagnostics.ShapeError},
		{"Maison where taille as t > 1", diagnostics.UnsupportedExpression},
		{"Maison where (1, 2)", diagnostics.ShapeError},
		{"Maison(taille) group by taille + 1", diagnostics.ShapeError},
		{"Maison(FOO(taille))", diagnostics.FunctionNotAllowed},
		{"Maison where case taille { _ => 1, 2 => 3 } == 1", diagnostics.ShapeError},
		{"update Piece[1].maison taille = 1", diagnostics.UnsupportedExpression},
		{"update Maison taille = 1, taille = 2", diagnostics.ShapeError},
		{"update Maison hauteur = 1", diagnostics.UnknownField},
		{"update Aaa[1] bbb = bbb.id", diagnostics.UnsupportedExpression},
		{"insert Piece maison = 1", diagnostics.ShapeError},
		{`insert Piece nom = "a", nom = "b"`, diagnostics.ShapeError},
		{`insert Piece nom = "a", etage = 1`, diagnostics.UnknownField},
		{"insert Ecole nom = 1", diagnostics.UnknownEntity},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := resolve(t, tt.src)
			d, ok := diagnostics.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.kind, d.Kind)
		})
	}
}

func TestResolveErrorSpan(t *testing.T) {
	_, err := resolve(t, "Maison where hauteur > 1")
	d, ok := diagnostics.As(err)
	require.True(t, ok)
	assert.Equal(t, 14, d.Span.Column)
}

func TestResolveIsRepeatable(t *testing.T) {
	stmt, err := parser.Parse(`Aaa(id) where bbb.fstring == "x" && EXISTS(select Bbb where fi32 == Aaa.id)`)
	require.NoError(t, err)
	r := New(testCatalog(t))

	first, err := r.Resolve(stmt)
	require.NoError(t, err)
	second, err := r.Resolve(stmt)
	require.NoError(t, err)
	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, first.Params, second.Params)
}

func TestStack(t *testing.T) {
	base := Stack{Where}
	pushed := base.Push(Call)

	assert.Len(t, base, 1)
	assert.True(t, pushed.Is(Call))
	assert.True(t, pushed.Has(Where))
	assert.False(t, base.Has(Call))

	_, ok := Stack{}.Top()
	assert.False(t, ok)
}
