package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/entql/internal/ui"
)

const grammarDoc = "# entql query language\n\n" +
	"## Statements\n\n" +
	"```\n" +
	"[select] [.|*|+|?]Entity[[pk]][.related][(columns)][-> Projection] [where ...] [group by ...] [having ...] [order by ...] [limit n[, offset] | page n[, size]]\n" +
	"update Entity[[pk]][.related] field = value, ... [where ...]\n" +
	"insert Entity field = value, ...\n" +
	"SELECT cols|* FROM Entity [WHERE ...] [GROUP BY ...] [HAVING ...] [ORDER BY ...] [LIMIT ...]\n" +
	"```\n\n" +
	"The sigil picks what the query returns: `.` one row, `*` all rows, `+` a stream, " +
	"`?` an optional row. Without a sigil the statement is executed for its effect.\n\n" +
	"## Expressions\n\n" +
	"| form | SQL |\n|---|---|\n" +
	"| `a == b`, `a != b` | `a = b`, `a <> b` |\n" +
	"| `a && b`, `a \\|\\| b`, `!a` | `a AND b`, `a OR b`, `NOT a` |\n" +
	"| `x == None` | `x IS NULL` |\n" +
	"| `x in (1, 2)` | `x IN (?, ?)` |\n" +
	"| `x like \"a%\"` | `x LIKE ?` |\n" +
	"| `rel.field` | inner join through a relation |\n" +
	"| `rel=.field` | left join through a relation |\n" +
	"| `:name` | value bound when the query runs |\n" +
	"| `` `raw sql` `` | inlined verbatim |\n" +
	"| `expr as name` | column alias, usable in having, order by and later column calls |\n" +
	"| `case x { 1 => \"a\", _ => \"b\" }` | `CASE x WHEN ? THEN ? ELSE ? END` |\n" +
	"| `EXISTS(select Entity where ...)` | correlated subquery |\n\n" +
	"Binding, tightest first: unary, `as`, `* / %`, `+ -`, comparisons, `&&`, `||`. " +
	"Comparisons do not chain.\n\n" +
	"Literals are always bound as parameters. Order by `-expr` sorts descending.\n"

// NewGrammarCommand creates the grammar command.
func NewGrammarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "grammar",
		Short: "Show the query language reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.PrintMarkdown(grammarDoc)
		},
	}
}
