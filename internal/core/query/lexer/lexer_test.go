package lexer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/entql/internal/core/diagnostics"
)

func TestTokenize(t *testing.T) {
	toks, err := Tokenize("Maison[1].lespieces where a=.b >= 1.5 && nom == 'x' // done\n|| :id -> `now()`")
	require.NoError(t, err)

	type tk struct {
		kind  Kind
		value string
	}
	var got []tk
	for _, tok := range toks {
		got = append(got, tk{tok.Kind, tok.Value})
	}

	assert.Equal(t, []tk{
		{Ident, "Maison"}, {Punct, "["}, {Int, "1"}, {Punct, "]"}, {Punct, "."}, {Ident, "lespieces"},
		{Ident, "where"}, {Ident, "a"}, {LeftDot, "=."}, {Ident, "b"}, {Op2, ">="}, {Float, "1.5"},
		{Op2, "&&"}, {Ident, "nom"}, {Op2, "=="}, {String, "'x'"},
		{Op2, "||"}, {Param, ":id"}, {Op2, "->"}, {Raw, "`now()`"},
		{EOF, ""},
	}, got)
}

func TestTokenSpans(t *testing.T) {
	toks, err := Tokenize("a\n  bb")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, diagnostics.NewSpan(4, 6, 2, 3), toks[1].Span)
}

func TestTokenHelpers(t *testing.T) {
	toks, err := Tokenize("WHERE ( ==")
	require.NoError(t, err)
	assert.True(t, toks[0].IsKeyword("where"))
	assert.True(t, toks[1].Is("("))
	assert.True(t, toks[2].Is("=="))
	assert.False(t, toks[0].Is("WHERE"))
	assert.Equal(t, "end of input", toks[3].String())
}

func TestTokenizeError(t *testing.T) {
	_, err := Tokenize("a # b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, diagnostics.ParseError))
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"bla"`, "bla"},
		{`"a\"b"`, `a"b`},
		{`'bla'`, "bla"},
		{`'it\'s'`, "it's"},
		{`'say "hi"'`, `say "hi"`},
		{`'a\"b'`, `a"b`},
		{`'a\\b'`, `a\b`},
		{`'x\ty'`, "x\ty"},
	}
	for _, tt := range tests {
		got, err := Unquote(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
