// Package domain contains the record types held by the schema catalog.
package domain

// Type describes the declared type of a field.
type Type struct {
	Name     string `yaml:"name" json:"name"`
	Optional bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// String renders the type the way it is declared.
func (t Type) String() string {
	if t.Optional {
		return t.Name + "?"
	}
	return t.Name
}

// primitives are the scalar type names that need no decode hint.
var primitives = map[string]bool{
	"Int": true, "BigInt": true, "Float": true, "Decimal": true,
	"String": true, "Boolean": true, "DateTime": true, "Json": true, "Bytes": true,
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f32": true, "f64": true, "bool": true, "string": true,
}

// IsPrimitive reports whether the type is a built-in scalar.
func (t Type) IsPrimitive() bool {
	return primitives[t.Name]
}

// IsPrimitiveName reports whether name is a built-in scalar type name.
func IsPrimitiveName(name string) bool {
	return primitives[name]
}

// FieldFlags carries the declaration attributes of a field.
type FieldFlags struct {
	PrimaryKey bool `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	// TypeOverride is the column type declared with @type, if any.
	TypeOverride string `yaml:"type_override,omitempty" json:"type_override,omitempty"`
	// CreationArg fields must be supplied on insert.
	CreationArg bool `yaml:"creation_arg,omitempty" json:"creation_arg,omitempty"`
	// CreationFunction is a SQL function call used when the field is not
	// supplied on insert, e.g. NOW().
	CreationFunction string `yaml:"creation_function,omitempty" json:"creation_function,omitempty"`
}

// ForeignKey points a field at another entity.
type ForeignKey struct {
	Target      string `yaml:"target" json:"target"`
	RelatedName string `yaml:"related_name,omitempty" json:"related_name,omitempty"`
}

// Field is a named entity attribute mapped to one column.
type Field struct {
	Name   string      `yaml:"name" json:"name"`
	Column string      `yaml:"column" json:"column"`
	Type   Type        `yaml:"type" json:"type"`
	Flags  FieldFlags  `yaml:"flags,omitempty" json:"flags,omitempty"`
	FK     *ForeignKey `yaml:"fk,omitempty" json:"fk,omitempty"`
}

// NeedsDecodeHint reports whether the default projection must cast the
// column to carry the field identifier and type.
func (f *Field) NeedsDecodeHint() bool {
	return f.Flags.TypeOverride != "" ||
		f.Name != f.Column ||
		(f.Flags.PrimaryKey && !f.Type.IsPrimitive())
}

// HintType is the type named in a decode hint.
func (f *Field) HintType() string {
	if f.Flags.TypeOverride != "" {
		return f.Flags.TypeOverride
	}
	return f.Type.String()
}

// Entity is a declared data-model type mapped to one table.
type Entity struct {
	Name       string   `yaml:"name" json:"name"`
	Table      string   `yaml:"table" json:"table"`
	Fields     []*Field `yaml:"fields" json:"fields"`
	PrimaryKey string   `yaml:"primary_key" json:"primary_key"`
}

// Field looks up a field by identifier.
func (e *Entity) Field(name string) (*Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// PK returns the primary-key field.
func (e *Entity) PK() *Field {
	f, _ := e.Field(e.PrimaryKey)
	return f
}

// RelationKind tells which side of a foreign key a relation is navigated from.
type RelationKind string

const (
	// Forward relations are navigated from the FK field to its target.
	Forward RelationKind = "forward"
	// Inverse relations are navigated from the target back to the owners.
	Inverse RelationKind = "inverse"
)

// Relation is a declared foreign-key edge.
type Relation struct {
	// Owner is the entity holding the FK field.
	Owner      string `yaml:"owner" json:"owner"`
	OwnerField string `yaml:"owner_field" json:"owner_field"`
	Target     string `yaml:"target" json:"target"`
	// RelatedName navigates from Target back to Owner.
	RelatedName string `yaml:"related_name,omitempty" json:"related_name,omitempty"`
	FKType      Type   `yaml:"fk_type" json:"fk_type"`
}

// Key identifies the relation edge independently of navigation direction.
func (r *Relation) Key() string {
	return r.Owner + "." + r.OwnerField
}

// Schema is the serializable form of a whole catalog.
type Schema struct {
	Entities  []*Entity   `yaml:"entities" json:"entities"`
	Relations []*Relation `yaml:"relations" json:"relations"`
}
