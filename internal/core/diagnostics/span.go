// Package diagnostics provides the error kinds, spans and pretty printing used
// to report query compilation failures.
package diagnostics

import "fmt"

// Span represents a byte range in the query source.
type Span struct {
	Start  int `json:"start"`
	End    int `json:"end"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// NewSpan creates a span from byte offsets and the 1-based position of Start.
func NewSpan(start, end, line, column int) Span {
	return Span{
		Start:  start,
		End:    end,
		Line:   line,
		Column: column,
	}
}

// EmptySpan creates a new empty span.
func EmptySpan() Span {
	return Span{}
}

// IsEmpty reports whether the span carries no location.
func (s Span) IsEmpty() bool {
	return s.Line == 0 && s.Start == 0 && s.End == 0
}

// Contains checks if the given position is inside the span (boundaries included).
func (s Span) Contains(position int) bool {
	return position >= s.Start && position <= s.End
}

// Merge returns the smallest span covering both s and other.
func (s Span) Merge(other Span) Span {
	if s.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return s
	}
	out := s
	if other.Start < out.Start {
		out.Start, out.Line, out.Column = other.Start, other.Line, other.Column
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// String formats the span as line:column.
func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}
