package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Statement compiler
//
// Compiles resolved function bodies to target statements. The body language
// is tiny: a body is a sequence of return statements, and the only
// expression is the null literal. Each statement is checked against the
// function's resolved return type before any text is produced.
// ---------------------------------------------------------------------------

// bodyTarget supplies the target-specific spellings the statement compiler
// needs.
type bodyTarget interface {
	nullLiteral() string
}

type c11Target struct{}

func (c11Target) nullLiteral() string { return "NULL" }

// bodyCompiler compiles one function body against its signature.
type bodyCompiler struct {
	target  bodyTarget
	returns ResolvedType
}

func newBodyCompiler(target bodyTarget, fn *FunctionDeclaration) (*bodyCompiler, error) {
	ret, ok := fn.Signature.Return.(ResolvedType)
	if !ok {
		return nil, &CompileError{
			Msg:  "cannot compile a function with unresolved types",
			Span: fn.SpanVal,
		}
	}
	return &bodyCompiler{target: target, returns: ret}, nil
}

// CompileBody writes the compiled statements of a body into w.
func (c *bodyCompiler) CompileBody(body *FunctionBody, w *CodeWriter) error {
	for _, stmt := range body.Statements {
		if err := c.compileStatement(stmt, w); err != nil {
			return err
		}
	}
	return nil
}

func (c *bodyCompiler) compileStatement(stmt Statement, w *CodeWriter) error {
	switch s := stmt.(type) {
	case *ReturnStatement:
		if s.Value == nil {
			if !isUnit(c.returns) {
				return &CompileError{
					Msg:  fmt.Sprintf("expected a %s but got no return value", c.returns.Name()),
					Span: s.SpanVal,
				}
			}
			w.Writeln("return;")
			return nil
		}
		value, err := c.compileExpr(s.Value, c.returns)
		if err != nil {
			return err
		}
		w.Writeln("return %s;", value)
		return nil
	default:
		return &CompileError{Msg: "unknown statement", Span: stmt.Span()}
	}
}

// compileExpr compiles an expression that must produce a value of the
// desired type.
func (c *bodyCompiler) compileExpr(expr Expr, desired ResolvedType) (string, error) {
	switch e := expr.(type) {
	case *NullExpr:
		ref, ok := desired.(*ReferenceType)
		if !ok || !ref.Optional {
			return "", &IncompatibleTypeError{
				Desired: desired,
				Actual:  "null reference",
				Span:    e.SpanVal,
			}
		}
		return c.target.nullLiteral(), nil
	default:
		return "", &CompileError{Msg: "unknown expression", Span: expr.Span()}
	}
}

func isUnit(t ResolvedType) bool {
	builtin, ok := t.(*BuiltinType)
	return ok && builtin.Kind == UnitKind
}
