package catalog

import (
	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/core/diagnostics"
)

// Builder accumulates entity declarations and validates them into a Registry.
type Builder struct {
	entities []*domain.Entity
	spans    map[*domain.Entity]diagnostics.Span
	fspans   map[*domain.Field]diagnostics.Span
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		spans:  make(map[*domain.Entity]diagnostics.Span),
		fspans: make(map[*domain.Field]diagnostics.Span),
	}
}

// Add declares an entity.
func (b *Builder) Add(e *domain.Entity) *Builder {
	b.entities = append(b.entities, e)
	return b
}

// AddAt declares an entity and remembers where it was declared so
// validation errors can point at it.
func (b *Builder) AddAt(e *domain.Entity, span diagnostics.Span, fieldSpans map[string]diagnostics.Span) *Builder {
	b.Add(e)
	b.spans[e] = span
	for _, f := range e.Fields {
		if s, ok := fieldSpans[f.Name]; ok {
			b.fspans[f] = s
		}
	}
	return b
}

// Build validates the declarations and returns the registry. The first
// violation is returned as a diagnostic.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{
		entities:  make(map[string]*domain.Entity, len(b.entities)),
		byOwner:   make(map[string]*domain.Relation),
		byRelated: make(map[string]*domain.Relation),
	}

	for _, e := range b.entities {
		if _, dup := r.entities[e.Name]; dup {
			return nil, diagnostics.Errorf(diagnostics.ShapeError, b.spans[e], "entity %q is declared twice", e.Name)
		}
		if err := b.checkEntity(e); err != nil {
			return nil, err
		}
		r.entities[e.Name] = e
		r.order = append(r.order, e.Name)
	}

	for _, e := range b.entities {
		for _, f := range e.Fields {
			if f.FK == nil {
				continue
			}
			rel, err := b.relation(r, e, f)
			if err != nil {
				return nil, err
			}
			r.relations = append(r.relations, rel)
			r.byOwner[e.Name+"."+f.Name] = rel
			if rel.RelatedName != "" {
				r.byRelated[rel.Target+"."+rel.RelatedName] = rel
			}
		}
	}

	return r, nil
}

func (b *Builder) checkEntity(e *domain.Entity) error {
	seen := make(map[string]bool, len(e.Fields))
	var pk string
	for _, f := range e.Fields {
		if seen[f.Name] {
			return diagnostics.Errorf(diagnostics.ShapeError, b.fspans[f], "field %q is declared twice on %q", f.Name, e.Name)
		}
		seen[f.Name] = true
		if f.Column == "" {
			f.Column = f.Name
		}
		if f.Flags.PrimaryKey {
			if pk != "" {
				return diagnostics.Errorf(diagnostics.ShapeError, b.fspans[f], "entity %q declares more than one primary key", e.Name)
			}
			pk = f.Name
		}
	}
	if pk == "" {
		return diagnostics.Errorf(diagnostics.ShapeError, b.spans[e], "entity %q has no primary key", e.Name)
	}
	e.PrimaryKey = pk
	return nil
}

func (b *Builder) relation(r *Registry, owner *domain.Entity, f *domain.Field) (*domain.Relation, error) {
	span := b.fspans[f]
	target, ok := r.entities[f.FK.Target]
	if !ok {
		return nil, diagnostics.NewUnknownEntityError(f.FK.Target, span)
	}

	pk := target.PK()
	if pk.Type.Name != f.Type.Name {
		return nil, diagnostics.Errorf(diagnostics.TypeMismatch, span,
			"foreign key %s.%s has type %s but %s.%s is %s",
			owner.Name, f.Name, f.Type.Name, target.Name, pk.Name, pk.Type.Name)
	}

	if name := f.FK.RelatedName; name != "" {
		if _, dup := r.byRelated[target.Name+"."+name]; dup {
			return nil, diagnostics.Errorf(diagnostics.ShapeError, span,
				"related name %q is already used for entity %q", name, target.Name)
		}
		if _, clash := target.Field(name); clash {
			return nil, diagnostics.Errorf(diagnostics.ShapeError, span,
				"related name %q clashes with field %s.%s", name, target.Name, name)
		}
	}

	return &domain.Relation{
		Owner:       owner.Name,
		OwnerField:  f.Name,
		Target:      target.Name,
		RelatedName: f.FK.RelatedName,
		FKType:      f.Type,
	}, nil
}
