// Package alias allocates per-query table aliases and collects joins.
//
// One Table is created per top-level query and shared, unchanged, with
// every nested subquery so aliases never collide. Letters are handed out
// from 'a' in registration order and never reused.
package alias

import (
	"fmt"

	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/core/diagnostics"
)

// Entry is one registered table reference.
type Entry struct {
	Key    string
	Alias  string
	Entity *domain.Entity
	// Aliased entries render "table alias" and qualify columns with the
	// alias letter instead of the table name.
	Aliased bool
}

// Qualifier is the name columns of this entry are prefixed with.
func (e *Entry) Qualifier() string {
	if e.Aliased {
		return e.Alias
	}
	return e.Entity.Table
}

// TableWithAlias renders the entry for a FROM or JOIN clause.
func (e *Entry) TableWithAlias() string {
	if e.Aliased {
		return e.Entity.Table + " " + e.Alias
	}
	return e.Entity.Table
}

// Column returns the column name of field.
func (e *Entry) Column(field string) (string, error) {
	f, ok := e.Entity.Field(field)
	if !ok {
		return "", diagnostics.NewUnknownFieldError(e.Entity.Name, field, diagnostics.EmptySpan())
	}
	return f.Column, nil
}

// AliasDotColumn returns the qualified column of field.
func (e *Entry) AliasDotColumn(field string) (string, error) {
	col, err := e.Column(field)
	if err != nil {
		return "", err
	}
	return e.Qualifier() + "." + col, nil
}

// Table is the alias bijection of one compiled query.
type Table struct {
	entries []*Entry
	byKey   map[string]*Entry
	tables  map[string]bool
	scopes  int
}

// NewTable creates an empty alias table.
func NewTable() *Table {
	return &Table{
		byKey:  make(map[string]*Entry),
		tables: make(map[string]bool),
	}
}

// NewScope returns a fresh scope id for a (sub)query.
func (t *Table) NewScope() int {
	id := t.scopes
	t.scopes++
	return id
}

// Key builds the registration key of name within scope.
func Key(scope int, name string) string {
	return fmt.Sprintf("%d:%s", scope, name)
}

// Register returns the entry for key, allocating the next letter on first
// use. forceAlias makes the entry render with its letter; it also does
// when the entity's table is already referenced by an earlier entry.
func (t *Table) Register(key string, e *domain.Entity, forceAlias bool) (*Entry, error) {
	if entry, ok := t.byKey[key]; ok {
		return entry, nil
	}
	if len(t.entries) >= 26 {
		return nil, diagnostics.Errorf(diagnostics.UnsupportedExpression, diagnostics.EmptySpan(),
			"query references more than 26 tables")
	}

	entry := &Entry{
		Key:     key,
		Alias:   string(rune('a' + len(t.entries))),
		Entity:  e,
		Aliased: forceAlias || t.tables[e.Table],
	}
	t.entries = append(t.entries, entry)
	t.byKey[key] = entry
	t.tables[e.Table] = true
	return entry, nil
}

// Lookup returns the entry registered under key.
func (t *Table) Lookup(key string) (*Entry, error) {
	entry, ok := t.byKey[key]
	if !ok {
		return nil, diagnostics.NewUnknownAliasError(key, diagnostics.EmptySpan())
	}
	return entry, nil
}

// TableWithAlias renders the FROM/JOIN form of the entry under key.
func (t *Table) TableWithAlias(key string) (string, error) {
	entry, err := t.Lookup(key)
	if err != nil {
		return "", err
	}
	return entry.TableWithAlias(), nil
}

// Column returns the column of field on the entry under key.
func (t *Table) Column(key, field string) (string, error) {
	entry, err := t.Lookup(key)
	if err != nil {
		return "", err
	}
	return entry.Column(field)
}

// AliasDotColumn returns the qualified column of field on the entry under key.
func (t *Table) AliasDotColumn(key, field string) (string, error) {
	entry, err := t.Lookup(key)
	if err != nil {
		return "", err
	}
	return entry.AliasDotColumn(field)
}

// Entries returns the registrations in allocation order.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// JoinSet is an ordered set of rendered JOIN clauses.
type JoinSet struct {
	items []string
}

// Add inserts join unless an identical clause is already present.
func (s *JoinSet) Add(join string) {
	for _, j := range s.items {
		if j == join {
			return
		}
	}
	s.items = append(s.items, join)
}

// Union adds every clause of other, keeping first-seen order.
func (s *JoinSet) Union(other JoinSet) {
	for _, j := range other.items {
		s.Add(j)
	}
}

// Items returns the clauses in insertion order.
func (s JoinSet) Items() []string {
	return s.items
}

// Len returns the number of distinct clauses.
func (s JoinSet) Len() int {
	return len(s.items)
}
