// Package fragment holds the composable unit of generated SQL: text with
// "?" markers, the parameters those markers stand for, and the joins the
// text depends on.
package fragment

import (
	"strings"

	"github.com/satishbabariya/entql/internal/core/query/alias"
)

// Marker is the placeholder written for every bound parameter. The i-th
// marker outside quotes corresponds to Params[i].
const Marker = "?"

// Param is one bound value.
type Param struct {
	// Key is the canonical source text of the bound expression; dialects
	// that number placeholders reuse an ordinal for repeated keys.
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
	// Host params carry the binding name in Value; the actual value is
	// supplied at execution time.
	Host bool `json:"host,omitempty" yaml:"host,omitempty"`
}

// Fragment is SQL text plus its parameters and required joins.
type Fragment struct {
	SQL    string
	Params []Param
	Joins  alias.JoinSet
}

// New creates a fragment from text and parameters.
func New(sql string, params ...Param) Fragment {
	return Fragment{SQL: sql, Params: params}
}

// Placeholder creates a single-marker fragment binding p.
func Placeholder(p Param) Fragment {
	return New(Marker, p)
}

// IsEmpty reports whether the fragment has no text.
func (f Fragment) IsEmpty() bool {
	return f.SQL == ""
}

// Wrap surrounds the text, keeping params and joins.
func (f Fragment) Wrap(prefix, suffix string) Fragment {
	f.SQL = prefix + f.SQL + suffix
	return f
}

// Join concatenates fragments with sep, preserving parameter order and
// taking the union of their joins. Empty fragments are skipped.
func Join(sep string, frags ...Fragment) Fragment {
	var (
		out   Fragment
		texts []string
	)
	for _, f := range frags {
		if f.IsEmpty() {
			continue
		}
		texts = append(texts, f.SQL)
		out.Params = append(out.Params, f.Params...)
		out.Joins.Union(f.Joins)
	}
	out.SQL = strings.Join(texts, sep)
	return out
}

// Args returns the params as a slice of empty interfaces, the shape SQL
// builders take their arguments in.
func (f Fragment) Args() []any {
	out := make([]any, len(f.Params))
	for i, p := range f.Params {
		out[i] = p
	}
	return out
}

// FromArgs recovers params from a builder's argument list.
func FromArgs(args []any) []Param {
	out := make([]Param, 0, len(args))
	for _, a := range args {
		if p, ok := a.(Param); ok {
			out = append(out, p)
		} else {
			out = append(out, Param{Value: a})
		}
	}
	return out
}

// CountMarkers counts placeholder markers outside quoted text.
func CountMarkers(sql string) int {
	n := 0
	EachMarker(sql, func(int) { n++ })
	return n
}

// EachMarker calls fn with the byte offset of every marker that is not
// inside a single- or double-quoted section.
func EachMarker(sql string, fn func(offset int)) {
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == Marker[0]:
			fn(i)
		}
	}
}
