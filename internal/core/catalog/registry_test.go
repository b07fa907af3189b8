package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/core/diagnostics"
)

func field(name, typ string) *domain.Field {
	return &domain.Field{Name: name, Type: domain.Type{Name: typ}}
}

func pk(name, typ string) *domain.Field {
	f := field(name, typ)
	f.Flags.PrimaryKey = true
	return f
}

func fk(name, typ, target, related string) *domain.Field {
	f := field(name, typ)
	f.FK = &domain.ForeignKey{Target: target, RelatedName: related}
	return f
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewBuilder().
		Add(&domain.Entity{Name: "Aaa", Table: "aaa", Fields: []*domain.Field{
			pk("id", "Int"),
			fk("bbb", "Int", "Bbb", "aaas"),
		}}).
		Add(&domain.Entity{Name: "Bbb", Table: "bbb", Fields: []*domain.Field{
			pk("id", "Int"),
			{Name: "fstring", Column: "fstringcol", Type: domain.Type{Name: "String"}},
			field("fi32", "i32"),
		}}).
		Build()
	require.NoError(t, err)
	return r
}

func TestRegistryLookups(t *testing.T) {
	r := testRegistry(t)

	e, err := r.GetEntity("Aaa")
	require.NoError(t, err)
	assert.Equal(t, "id", e.PrimaryKey)
	assert.Equal(t, "bbb", e.Fields[1].Column, "column defaults to the identifier")

	f, err := r.GetField("Bbb", "fstring")
	require.NoError(t, err)
	assert.Equal(t, "fstringcol", f.Column)

	_, err = r.GetEntity("Ccc")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = r.GetField("Bbb", "nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	inv, err := r.GetRelation("Bbb", "aaas")
	require.NoError(t, err)
	assert.Equal(t, "Aaa.bbb", inv.Key())

	fwd, err := r.GetRelationByOwner("Aaa", "bbb")
	require.NoError(t, err)
	assert.Same(t, inv, fwd)

	_, err = r.GetRelation("Aaa", "bbb")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistryOrder(t *testing.T) {
	r := testRegistry(t)

	var names []string
	for _, e := range r.Entities() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Aaa", "Bbb"}, names)
	assert.Len(t, r.Relations(), 1)
}

func TestFromSchema(t *testing.T) {
	r := testRegistry(t)

	again, err := FromSchema(r.Schema())
	require.NoError(t, err)
	rel, err := again.GetRelation("Bbb", "aaas")
	require.NoError(t, err)
	assert.Equal(t, "Aaa", rel.Owner)
}

func TestBuilderValidation(t *testing.T) {
	tests := []struct {
		name     string
		entities []*domain.Entity
		kind     diagnostics.Kind
	}{
		{
			name: "duplicate entity",
			entities: []*domain.Entity{
				{Name: "A", Table: "a", Fields: []*domain.Field{pk("id", "Int")}},
				{Name: "A", Table: "a2", Fields: []*domain.Field{pk("id", "Int")}},
			},
			kind: diagnostics.ShapeError,
		},
		{
			name: "duplicate field",
			entities: []*domain.Entity{
				{Name: "A", Table: "a", Fields: []*domain.Field{pk("id", "Int"), field("id", "Int")}},
			},
			kind: diagnostics.ShapeError,
		},
		{
			name: "two primary keys",
			entities: []*domain.Entity{
				{Name: "A", Table: "a", Fields: []*domain.Field{pk("id", "Int"), pk("id2", "Int")}},
			},
			kind: diagnostics.ShapeError,
		},
		{
			name: "fk type mismatch",
			entities: []*domain.Entity{
				{Name: "A", Table: "a", Fields: []*domain.Field{pk("id", "Int")}},
				{Name: "B", Table: "b", Fields: []*domain.Field{pk("id", "Int"), fk("a", "String", "A", "bs")}},
			},
			kind: diagnostics.TypeMismatch,
		},
		{
			name: "related name reused",
			entities: []*domain.Entity{
				{Name: "A", Table: "a", Fields: []*domain.Field{pk("id", "Int")}},
				{Name: "B", Table: "b", Fields: []*domain.Field{
					pk("id", "Int"), fk("a1", "Int", "A", "bs"), fk("a2", "Int", "A", "bs"),
				}},
			},
			kind: diagnostics.ShapeError,
		},
		{
			name: "related name clashes with field",
			entities: []*domain.Entity{
				{Name: "A", Table: "a", Fields: []*domain.Field{pk("id", "Int"), field("bs", "Int")}},
				{Name: "B", Table: "b", Fields: []*domain.Field{pk("id", "Int"), fk("a", "Int", "A", "bs")}},
			},
			kind: diagnostics.ShapeError,
		},
		{
			name: "unknown target",
			entities: []*domain.Entity{
				{Name: "B", Table: "b", Fields: []*domain.Field{pk("id", "Int"), fk("a", "Int", "A", "")}},
			},
			kind: diagnostics.UnknownEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			for _, e := range tt.entities {
				b.Add(e)
			}
			_, err := b.Build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestDecodeHint(t *testing.T) {
	tests := []struct {
		name  string
		field *domain.Field
		want  bool
	}{
		{"plain", &domain.Field{Name: "a", Column: "a", Type: domain.Type{Name: "Int"}}, false},
		{"renamed", &domain.Field{Name: "a", Column: "a_col", Type: domain.Type{Name: "Int"}}, true},
		{"override", &domain.Field{Name: "a", Column: "a", Type: domain.Type{Name: "Int"}, Flags: domain.FieldFlags{TypeOverride: "citext"}}, true},
		{"primitive pk", &domain.Field{Name: "id", Column: "id", Type: domain.Type{Name: "Int"}, Flags: domain.FieldFlags{PrimaryKey: true}}, false},
		{"newtype pk", &domain.Field{Name: "id", Column: "id", Type: domain.Type{Name: "MaisonId"}, Flags: domain.FieldFlags{PrimaryKey: true}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.field.NeedsDecodeHint())
		})
	}
}
