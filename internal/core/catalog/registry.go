// Package catalog provides the read-only schema registry consulted by the
// query resolver: entity, field and relation lookup.
package catalog

import (
	"errors"
	"fmt"

	"github.com/satishbabariya/entql/internal/core/catalog/domain"
)

// ErrNotFound is wrapped by every failed lookup.
var ErrNotFound = errors.New("not found")

// Catalog is the lookup contract the resolver depends on.
type Catalog interface {
	GetEntity(name string) (*domain.Entity, error)
	GetField(entity, name string) (*domain.Field, error)
	// GetRelation finds the inverse edge named relatedName pointing at entity.
	GetRelation(entity, relatedName string) (*domain.Relation, error)
	// GetRelationByOwner finds the forward edge declared by entity.field.
	GetRelationByOwner(entity, field string) (*domain.Relation, error)
}

// Registry is an immutable Catalog. Build one with a Builder; it is safe
// for concurrent reads.
type Registry struct {
	entities  map[string]*domain.Entity
	order     []string
	relations []*domain.Relation
	byOwner   map[string]*domain.Relation
	byRelated map[string]*domain.Relation
}

// GetEntity retrieves an entity by name.
func (r *Registry) GetEntity(name string) (*domain.Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", name, ErrNotFound)
	}
	return e, nil
}

// GetField retrieves a field from an entity.
func (r *Registry) GetField(entity, name string) (*domain.Field, error) {
	e, err := r.GetEntity(entity)
	if err != nil {
		return nil, err
	}
	f, ok := e.Field(name)
	if !ok {
		return nil, fmt.Errorf("field %s.%s: %w", entity, name, ErrNotFound)
	}
	return f, nil
}

// GetRelation retrieves the inverse relation relatedName on entity.
func (r *Registry) GetRelation(entity, relatedName string) (*domain.Relation, error) {
	rel, ok := r.byRelated[entity+"."+relatedName]
	if !ok {
		return nil, fmt.Errorf("relation %s.%s: %w", entity, relatedName, ErrNotFound)
	}
	return rel, nil
}

// GetRelationByOwner retrieves the forward relation declared by entity.field.
func (r *Registry) GetRelationByOwner(entity, field string) (*domain.Relation, error) {
	rel, ok := r.byOwner[entity+"."+field]
	if !ok {
		return nil, fmt.Errorf("relation %s.%s: %w", entity, field, ErrNotFound)
	}
	return rel, nil
}

// Entities returns every entity in declaration order.
func (r *Registry) Entities() []*domain.Entity {
	out := make([]*domain.Entity, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entities[name])
	}
	return out
}

// Relations returns every relation in declaration order.
func (r *Registry) Relations() []*domain.Relation {
	out := make([]*domain.Relation, len(r.relations))
	copy(out, r.relations)
	return out
}

// Schema returns the serializable form of the registry.
func (r *Registry) Schema() *domain.Schema {
	return &domain.Schema{
		Entities:  r.Entities(),
		Relations: r.Relations(),
	}
}

// FromSchema rebuilds a registry from its serialized form, re-running the
// same validation as a Builder.
func FromSchema(s *domain.Schema) (*Registry, error) {
	b := NewBuilder()
	for _, e := range s.Entities {
		b.Add(e)
	}
	return b.Build()
}

var _ Catalog = (*Registry)(nil)
