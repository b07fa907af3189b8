// Package lexer tokenizes query source text.
package lexer

import (
	"errors"
	"strconv"
	"strings"

	plexer "github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/entql/internal/core/diagnostics"
)

// Definition is the token set of the query language.
var Definition = plexer.MustSimple([]plexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},

	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
	// Raw SQL passed through verbatim.
	{Name: "Raw", Pattern: "`[^`]*`"},
	// Host value bound at execution time, e.g. :id or :user.id
	{Name: "Param", Pattern: `:[\p{L}_][\p{L}\p{N}_]*(?:\.[\p{L}_][\p{L}\p{N}_]*)*`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},

	// Left-join field access (must come before Op2 so "=." is not split)
	{Name: "LeftDot", Pattern: `=\.`},
	{Name: "Op2", Pattern: `==|!=|<=|>=|&&|\|\||=>|->`},
	{Name: "Punct", Pattern: `[-+*/%<>=!.,()\[\]{}?]`},
})

// Kind identifies a token class.
type Kind int

const (
	EOF Kind = iota
	Float
	Int
	String
	Raw
	Param
	Ident
	LeftDot
	Op2
	Punct
)

var kindNames = map[string]Kind{
	"Float":   Float,
	"Int":     Int,
	"String":  String,
	"Raw":     Raw,
	"Param":   Param,
	"Ident":   Ident,
	"LeftDot": LeftDot,
	"Op2":     Op2,
	"Punct":   Punct,
}

func (k Kind) String() string {
	if k == EOF {
		return "end of input"
	}
	for name, v := range kindNames {
		if v == k {
			return name
		}
	}
	return "token"
}

// Token is a lexed token with its location.
type Token struct {
	Kind  Kind
	Value string
	Span  diagnostics.Span
}

// Is reports whether the token is the punctuation or operator text s.
func (t Token) Is(s string) bool {
	return (t.Kind == Punct || t.Kind == Op2 || t.Kind == LeftDot) && t.Value == s
}

// IsKeyword reports whether the token is the identifier kw, ignoring case.
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == Ident && strings.EqualFold(t.Value, kw)
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "end of input"
	}
	return t.Value
}

type positioned interface {
	Message() string
	Position() plexer.Position
}

// Tokenize splits src into tokens, dropping whitespace and comments. The
// last token is always EOF.
func Tokenize(src string) ([]Token, error) {
	lex, err := Definition.LexString("", src)
	if err != nil {
		return nil, convertError(err)
	}

	symbols := plexer.SymbolsByRune(Definition)
	var out []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, convertError(err)
		}
		if tok.EOF() {
			out = append(out, Token{Kind: EOF, Span: span(tok.Pos, 0)})
			return out, nil
		}
		name := symbols[tok.Type]
		kind, ok := kindNames[name]
		if !ok {
			// whitespace and comments
			continue
		}
		out = append(out, Token{Kind: kind, Value: tok.Value, Span: span(tok.Pos, len(tok.Value))})
	}
}

func span(pos plexer.Position, n int) diagnostics.Span {
	return diagnostics.NewSpan(pos.Offset, pos.Offset+n, pos.Line, pos.Column)
}

func convertError(err error) error {
	var perr positioned
	if errors.As(err, &perr) {
		return diagnostics.NewParseError(span(perr.Position(), 1), "%s", perr.Message())
	}
	return diagnostics.NewParseError(diagnostics.EmptySpan(), "%s", err.Error())
}

// Unquote returns the contents of a String token. Single-quoted strings
// use the same escapes as double-quoted ones.
func Unquote(raw string) (string, error) {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		body := raw[1 : len(raw)-1]
		var b strings.Builder
		b.WriteByte('"')
		for i := 0; i < len(body); i++ {
			switch c := body[i]; {
			case c == '\\' && i+1 < len(body):
				i++
				if body[i] == '\'' {
					b.WriteByte('\'')
				} else {
					b.WriteByte('\\')
					b.WriteByte(body[i])
				}
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		}
		b.WriteByte('"')
		raw = b.String()
	}
	return strconv.Unquote(raw)
}
