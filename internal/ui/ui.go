// Package ui renders entql's terminal output.
package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	// Out receives regular output; errors always go to Err.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

var (
	accent = lipgloss.Color("#00D9FF")
	green  = lipgloss.Color("#00FF88")
	amber  = lipgloss.Color("#FFB800")
	red    = lipgloss.Color("#FF4444")
	muted  = lipgloss.Color("#6C757D")

	titleStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).MarginBottom(1)
	mutedStyle = lipgloss.NewStyle().Foreground(muted)

	successLine = statusLine{lipgloss.NewStyle().Foreground(green).Bold(true), "✓"}
	errorLine   = statusLine{lipgloss.NewStyle().Foreground(red).Bold(true), "✗"}
	warningLine = statusLine{lipgloss.NewStyle().Foreground(amber).Bold(true), "⚠"}
	infoLine    = statusLine{lipgloss.NewStyle().Foreground(accent), "ℹ"}

	sqlKeyword = color.New(color.FgCyan, color.Bold)
	sqlMarker  = color.New(color.FgYellow)
)

type statusLine struct {
	style lipgloss.Style
	mark  string
}

func (s statusLine) print(w io.Writer, format string, args []any) {
	fmt.Fprintln(w, s.style.Render(s.mark+" "+fmt.Sprintf(format, args...)))
}

func width() int {
	if w := pterm.GetTerminalWidth(); w > 0 {
		return w
	}
	return 80
}

// PrintHeader prints a boxed title
func PrintHeader(title string, subtitle string) {
	box := lipgloss.NewStyle().
		Width(width()).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 2)
	fmt.Fprintln(Out, box.Render(lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render(title),
		mutedStyle.Render(subtitle),
	)))
}

func PrintSuccess(format string, args ...any) { successLine.print(Out, format, args) }
func PrintError(format string, args ...any)   { errorLine.print(Err, format, args) }
func PrintWarning(format string, args ...any) { warningLine.print(Out, format, args) }
func PrintInfo(format string, args ...any)    { infoLine.print(Out, format, args) }

// PrintTable renders rows under headers with pterm.
func PrintTable(headers []string, rows [][]string) error {
	data := append(pterm.TableData{headers}, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(Out).WithData(data).Render()
}

func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(Out, "  • %s\n", item)
	}
}

// PrintMarkdown renders markdown with glamour, wrapped to the terminal.
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width()),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(Out, out)
	return err
}

// PrintSection prints an underlined section title.
func PrintSection(title string) {
	fmt.Fprintln(Out, lipgloss.NewStyle().
		Width(width()).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(muted).
		Render(title))
}

var sqlToken = regexp.MustCompile(`\b(SELECT|DISTINCT|FROM|WHERE|AND|OR|NOT|INNER|LEFT|JOIN|ON|AS|GROUP|BY|HAVING|ORDER|DESC|LIMIT|OFFSET|UPDATE|SET|INSERT|INTO|VALUES|IS|NULL|IN|LIKE|CASE|WHEN|THEN|ELSE|END|EXISTS)\b|\?|\$\d+`)

// HighlightSQL colours keywords and placeholders of a compiled statement.
// Output is unchanged when colour is disabled.
func HighlightSQL(sql string) string {
	if color.NoColor {
		return sql
	}
	return sqlToken.ReplaceAllStringFunc(sql, func(tok string) string {
		if tok[0] == '?' || tok[0] == '$' {
			return sqlMarker.Sprint(tok)
		}
		return sqlKeyword.Sprint(tok)
	})
}

// PrintSQL prints a compiled statement under its name, with the bound
// arguments numbered below it.
func PrintSQL(name, sql string, args []string) {
	if name != "" {
		fmt.Fprintln(Out, mutedStyle.Render("-- "+name))
	}
	fmt.Fprintln(Out, HighlightSQL(sql))
	for i, a := range args {
		fmt.Fprintf(Out, "   %s %s\n", mutedStyle.Render(fmt.Sprintf("%d.", i+1)), a)
	}
}

// Spinner starts a spinner on Err. Stop it with Stop, Success or Fail.
func Spinner(message string) (*pterm.SpinnerPrinter, error) {
	return pterm.DefaultSpinner.WithWriter(Err).Start(message)
}
