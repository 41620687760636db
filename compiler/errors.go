package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Error taxonomy: every compilation failure is one of these, each carrying
// the span where it was detected. All of them are fatal to the current
// module; the pipeline never retries or produces partial output.
// ---------------------------------------------------------------------------

// ParseError is a lexical or syntactic error. Lexing and parsing share one
// error type since both abort the same way and both point at source text.
type ParseError struct {
	Msg  string
	Span Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Msg)
}

func parseErrorf(span Span, format string, args ...interface{}) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Span: span}
}

// UnresolvedTypeError reports a named type that is not declared in the
// module and is not a builtin or fixed-integer spelling. The span is where
// the name was used, not where resolution ran.
type UnresolvedTypeError struct {
	Name string
	Span Span
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("%s: unresolved type %q", e.Span, e.Name)
}

// DuplicateTypeError reports a second declaration under an already
// registered type name. The span is the second declaration's.
type DuplicateTypeError struct {
	Name string
	Span Span
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("%s: duplicate type %q", e.Span, e.Name)
}

// CompileError is a semantic error in a function body, such as a return
// value mismatch.
type CompileError struct {
	Msg  string
	Span Span
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Msg)
}

// IncompatibleTypeError reports an expression that cannot be compiled to
// the type the context requires. Actual describes the source form that was
// attempted (e.g. "null reference").
type IncompatibleTypeError struct {
	Desired ResolvedType
	Actual  string
	Span    Span
}

func (e *IncompatibleTypeError) Error() string {
	return fmt.Sprintf("%s: cannot compile a %s to %s", e.Span, e.Actual, e.Desired.Name())
}

// ConfigError reports a misconfigured code-generation annotation, such as an
// unknown @GenerateWrappers key, or misuse of the generator itself.
type ConfigError struct {
	Msg  string
	Span Span
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Msg)
}

func configErrorf(span Span, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...), Span: span}
}
