package parser

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SchemaLexer defines the token types of the data-model declaration language.
var SchemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Block attribute prefix (must come before single @)
	{Name: "BlockAttr", Pattern: `@@`},
	{Name: "FieldAttr", Pattern: `@`},

	{Name: "Punct", Pattern: `[{}(),?]`},

	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},

	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})
