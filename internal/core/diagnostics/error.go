package diagnostics

import (
	"errors"
	"fmt"
)

// Kind classifies a compilation failure. Kinds are errors themselves so
// callers can test with errors.Is(err, diagnostics.UnknownField).
type Kind string

const (
	ParseError            Kind = "parse error"
	UnknownEntity         Kind = "unknown entity"
	UnknownField          Kind = "unknown field"
	UnknownAlias          Kind = "unknown alias"
	UnknownRelation       Kind = "unknown relation"
	TypeMismatch          Kind = "type mismatch"
	UnsupportedExpression Kind = "unsupported expression"
	InvalidAliasFormat    Kind = "invalid alias format"
	FunctionNotAllowed    Kind = "function not allowed"
	ShapeError            Kind = "shape error"
)

func (k Kind) Error() string { return string(k) }

// Error is a single diagnostic: what went wrong and where.
type Error struct {
	Kind    Kind
	Message string
	Span    Span
}

// Errorf creates a diagnostic of the given kind.
func Errorf(kind Kind, span Span, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
}

func (e *Error) Error() string {
	if e.Span.IsEmpty() {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Span, e.Kind, e.Message)
}

// Unwrap exposes the kind for errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// WithSpan returns a copy of e located at span when e has no location yet.
func (e *Error) WithSpan(span Span) *Error {
	if !e.Span.IsEmpty() {
		return e
	}
	out := *e
	out.Span = span
	return &out
}

// As extracts the diagnostic from err, if any.
func As(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// NewParseError creates a ParseError at span.
func NewParseError(span Span, format string, args ...any) *Error {
	return Errorf(ParseError, span, format, args...)
}

// NewUnknownFieldError reports a field missing from an entity.
func NewUnknownFieldError(entity, field string, span Span) *Error {
	return Errorf(UnknownField, span, "entity %q has no field %q", entity, field)
}

// NewUnknownEntityError reports an undeclared entity.
func NewUnknownEntityError(entity string, span Span) *Error {
	return Errorf(UnknownEntity, span, "entity %q is not declared", entity)
}

// NewUnknownRelationError reports a relation missing from an entity.
func NewUnknownRelationError(entity, relation string, span Span) *Error {
	return Errorf(UnknownRelation, span, "entity %q has no relation %q", entity, relation)
}

// NewUnknownAliasError reports a reference to an alias that was never registered.
func NewUnknownAliasError(key string, span Span) *Error {
	return Errorf(UnknownAlias, span, "no table alias registered for %q", key)
}

// NewFunctionNotAllowedError reports a call outside the allow-list. A
// non-empty suggestion is rendered as a did-you-mean hint.
func NewFunctionNotAllowedError(name, suggestion string, span Span) *Error {
	if suggestion != "" {
		return Errorf(FunctionNotAllowed, span, "function %q is not allowed, did you mean %s?", name, suggestion)
	}
	return Errorf(FunctionNotAllowed, span, "function %q is not allowed", name)
}
