// Package parser reads data-model declarations into a catalog registry.
//
//	model Piece {
//	  id     Int    @id
//	  nom    String @map("nom_piece")
//	  maison Int    @map("maison_id") @relation(Maison, "lespieces")
//	}
package parser

import (
	"errors"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/satishbabariya/entql/internal/core/catalog"
	"github.com/satishbabariya/entql/internal/core/catalog/domain"
	"github.com/satishbabariya/entql/internal/core/diagnostics"
	"github.com/satishbabariya/entql/internal/debug"
)

// RawSchema is the parse tree matching the grammar; it is converted to
// catalog entities after parsing.
type RawSchema struct {
	Pos    lexer.Position
	Models []*RawModel `@@*`
}

// RawModel is one `model Name { ... }` block.
type RawModel struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Name    string       `"model" @Ident "{"`
	Members []*RawMember `@@* "}"`
}

// RawMember is either a block attribute or a field.
type RawMember struct {
	Block *RawAttribute `  "@@" @@`
	Field *RawField     `| @@`
}

// RawField is `name Type[?] @attr...`.
type RawField struct {
	Pos        lexer.Position
	EndPos     lexer.Position
	Name       string          `@Ident`
	Type       string          `@Ident`
	Optional   bool            `@"?"?`
	Attributes []*RawAttribute `("@" @@)*`
}

// RawAttribute is an attribute name with optional positional arguments.
type RawAttribute struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string      `@Ident`
	Args   []*RawValue `("(" (@@ ("," @@)*)? ")")?`
}

// RawValue is an attribute argument.
type RawValue struct {
	Call   *string `  @Ident "(" ")"`
	String *string `| @String`
	Number *string `| @Number`
	Ident  *string `| @Ident`
}

// Text returns the argument as written, calls rendered with their parentheses.
func (v *RawValue) Text() string {
	switch {
	case v.Call != nil:
		return *v.Call + "()"
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

var parser = participle.MustBuild[RawSchema](
	participle.Lexer(SchemaLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(3),
)

var lower = cases.Lower(language.Und)

// Parse reads declarations from r.
func Parse(filename string, r io.Reader) (*RawSchema, error) {
	raw, err := parser.Parse(filename, r)
	if err != nil {
		return nil, convertError(err)
	}
	return raw, nil
}

// ParseString reads declarations from a string.
func ParseString(filename, src string) (*RawSchema, error) {
	return Parse(filename, strings.NewReader(src))
}

// Load parses src and builds the validated catalog.
func Load(filename, src string) (*catalog.Registry, error) {
	raw, err := ParseString(filename, src)
	if err != nil {
		return nil, err
	}
	debug.Debug("schema parsed", "file", filename, "models", len(raw.Models))
	return Convert(raw)
}

// Convert turns a parse tree into a validated registry.
func Convert(raw *RawSchema) (*catalog.Registry, error) {
	b := catalog.NewBuilder()
	for _, m := range raw.Models {
		e, fieldSpans, err := convertModel(m)
		if err != nil {
			return nil, err
		}
		b.AddAt(e, span(m.Pos, m.EndPos), fieldSpans)
	}
	return b.Build()
}

func convertModel(m *RawModel) (*domain.Entity, map[string]diagnostics.Span, error) {
	e := &domain.Entity{
		Name:  m.Name,
		Table: lower.String(m.Name),
	}
	fieldSpans := make(map[string]diagnostics.Span)
	seen := make(map[string]bool)

	for _, member := range m.Members {
		if member.Block != nil {
			a := member.Block
			if seen["@@"+a.Name] {
				return nil, nil, diagnostics.Errorf(diagnostics.ShapeError, span(a.Pos, a.EndPos), "attribute @@%s can only be defined once", a.Name)
			}
			seen["@@"+a.Name] = true
			if a.Name != "map" {
				return nil, nil, diagnostics.Errorf(diagnostics.ShapeError, span(a.Pos, a.EndPos), "unknown block attribute @@%s", a.Name)
			}
			table, err := stringArg(a, 0)
			if err != nil {
				return nil, nil, err
			}
			e.Table = table
			continue
		}

		f, err := convertField(member.Field)
		if err != nil {
			return nil, nil, err
		}
		e.Fields = append(e.Fields, f)
		fieldSpans[f.Name] = span(member.Field.Pos, member.Field.EndPos)
	}
	return e, fieldSpans, nil
}

func convertField(rf *RawField) (*domain.Field, error) {
	f := &domain.Field{
		Name:   rf.Name,
		Column: rf.Name,
		Type:   domain.Type{Name: rf.Type, Optional: rf.Optional},
	}

	seen := make(map[string]bool, len(rf.Attributes))
	for _, a := range rf.Attributes {
		at := span(a.Pos, a.EndPos)
		if seen[a.Name] {
			return nil, diagnostics.Errorf(diagnostics.ShapeError, at, "attribute @%s can only be defined once", a.Name)
		}
		seen[a.Name] = true

		var err error
		switch a.Name {
		case "id":
			err = arity(a, 0, 0)
			f.Flags.PrimaryKey = true
		case "map":
			f.Column, err = stringArg(a, 0)
		case "type":
			f.Flags.TypeOverride, err = stringArg(a, 0)
		case "create":
			err = arity(a, 0, 0)
			f.Flags.CreationArg = true
		case "default":
			if err = arity(a, 1, 1); err == nil {
				if a.Args[0].Call == nil {
					err = diagnostics.Errorf(diagnostics.ShapeError, at, "@default expects a function call such as NOW()")
				} else {
					f.Flags.CreationFunction = a.Args[0].Text()
				}
			}
		case "relation":
			if err = arity(a, 1, 2); err == nil {
				f.FK = &domain.ForeignKey{Target: a.Args[0].Text()}
				if len(a.Args) == 2 {
					f.FK.RelatedName, err = stringArg(a, 1)
				}
			}
		default:
			err = diagnostics.Errorf(diagnostics.ShapeError, at, "unknown attribute @%s", a.Name)
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func arity(a *RawAttribute, lo, hi int) error {
	if n := len(a.Args); n < lo || n > hi {
		return diagnostics.Errorf(diagnostics.ShapeError, span(a.Pos, a.EndPos),
			"attribute @%s takes %d to %d arguments, got %d", a.Name, lo, hi, n)
	}
	return nil
}

func stringArg(a *RawAttribute, i int) (string, error) {
	if i >= len(a.Args) || a.Args[i].String == nil {
		return "", diagnostics.Errorf(diagnostics.ShapeError, span(a.Pos, a.EndPos),
			"attribute @%s expects a string argument at position %d", a.Name, i+1)
	}
	return *a.Args[i].String, nil
}

func span(start, end lexer.Position) diagnostics.Span {
	return diagnostics.NewSpan(start.Offset, end.Offset, start.Line, start.Column)
}

func convertError(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return diagnostics.NewParseError(diagnostics.NewSpan(pos.Offset, pos.Offset, pos.Line, pos.Column), "%s", perr.Message())
	}
	return diagnostics.NewParseError(diagnostics.EmptySpan(), "%s", err.Error())
}
