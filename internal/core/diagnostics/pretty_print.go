package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// PrettyPrint writes err with the offending portion of the query source
// highlighted. Non-diagnostic errors are written as a single line.
func PrettyPrint(w io.Writer, name, text string, err error) {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	titleColor := color.New(color.FgRed, color.Bold)
	arrowColor := color.New(color.FgCyan, color.Bold)
	lineNumColor := color.New(color.FgCyan, color.Bold)
	offendingColor := color.New(color.FgRed, color.Bold, color.Underline)

	d, ok := As(err)
	if !ok {
		titleColor.Fprint(w, "error")
		fmt.Fprintf(w, ": %v\n", err)
		return
	}

	titleColor.Fprint(w, "error")
	fmt.Fprintf(w, "[%s]: ", string(d.Kind))
	color.New(color.Bold).Fprintf(w, "%s\n", d.Message)

	start := clamp(d.Span.Start, 0, len(text))
	end := clamp(d.Span.End, start, len(text))

	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := strings.IndexByte(text[start:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += start
	}
	if end > lineEnd {
		end = lineEnd
	}
	lineNumber := strings.Count(text[:start], "\n") + 1

	arrowColor.Fprint(w, "  --> ")
	fmt.Fprintf(w, "%s:%d:%d\n", name, lineNumber, start-lineStart+1)
	lineNumColor.Fprint(w, "   |\n")
	lineNumColor.Fprintf(w, "%2d | ", lineNumber)
	fmt.Fprint(w, text[lineStart:start])
	fmt.Fprint(w, offendingColor.Sprint(text[start:end]))
	fmt.Fprintln(w, text[end:lineEnd])

	width := end - start
	if width < 1 {
		width = 1
	}
	lineNumColor.Fprint(w, "   | ")
	fmt.Fprint(w, strings.Repeat(" ", start-lineStart))
	fmt.Fprintln(w, titleColor.Sprint(strings.Repeat("^", width)))
}

// Sprint is PrettyPrint into a string.
func Sprint(name, text string, err error) string {
	var b strings.Builder
	PrettyPrint(&b, name, text, err)
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
