package compiler

import (
	"fmt"
	"regexp"
)

// ---------------------------------------------------------------------------
// AST: Abstract syntax tree for Ivan interface definitions
// ---------------------------------------------------------------------------

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Documentation
// ---------------------------------------------------------------------------

// DocString is the documentation attached to an item, one entry per logical
// line. Blank entries are preserved as empty strings.
type DocString struct {
	Lines   []string
	SpanVal Span
}

func (d *DocString) Span() Span { return d.SpanVal }
func (d *DocString) node()      {}

// RenderJavadoc renders the documentation as a '/** ... */' block.
func (d *DocString) RenderJavadoc() []string {
	result := []string{"/**"}
	for _, line := range d.Lines {
		if line == "" {
			result = append(result, " *")
		} else {
			result = append(result, " * "+line)
		}
	}
	return append(result, " */")
}

// RenderTripleSlash renders the documentation as '///' lines.
func (d *DocString) RenderTripleSlash() []string {
	result := make([]string, 0, len(d.Lines))
	for _, line := range d.Lines {
		if line == "" {
			result = append(result, "///")
		} else {
			result = append(result, "/// "+line)
		}
	}
	return result
}

// WithExtraLines returns a copy of d with the given lines appended.
func (d *DocString) WithExtraLines(lines ...string) *DocString {
	combined := make([]string, 0, len(d.Lines)+len(lines))
	combined = append(combined, d.Lines...)
	combined = append(combined, lines...)
	return &DocString{Lines: combined, SpanVal: d.SpanVal}
}

// ---------------------------------------------------------------------------
// Annotations
// ---------------------------------------------------------------------------

// AnnotationValueKind identifies the variant held by an AnnotationValue.
type AnnotationValueKind int

const (
	StringValue AnnotationValueKind = iota
	BoolValue
)

// AnnotationValue is a closed tagged variant of the values an annotation key
// can hold. Consumers validate the variant they expect per key.
type AnnotationValue struct {
	Kind AnnotationValueKind
	Str  string
	Bool bool
}

// NewStringValue creates a string-valued annotation value.
func NewStringValue(s string) AnnotationValue {
	return AnnotationValue{Kind: StringValue, Str: s}
}

// NewBoolValue creates a boolean-valued annotation value.
func NewBoolValue(b bool) AnnotationValue {
	return AnnotationValue{Kind: BoolValue, Bool: b}
}

// AsString returns the string payload, reporting whether the variant matched.
func (v AnnotationValue) AsString() (string, bool) {
	return v.Str, v.Kind == StringValue
}

// AsBool returns the boolean payload, reporting whether the variant matched.
func (v AnnotationValue) AsBool() (bool, bool) {
	return v.Bool, v.Kind == BoolValue
}

func (v AnnotationValue) String() string {
	switch v.Kind {
	case StringValue:
		return fmt.Sprintf("%q", v.Str)
	case BoolValue:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return fmt.Sprintf("AnnotationValue(%d)", v.Kind)
	}
}

// Annotation is an '@Name' or '@Name(key=value, ...)' tag on an item.
// Values is nil for the bare form.
type Annotation struct {
	Name    string
	Values  map[string]AnnotationValue
	Keys    []string // Values keys in declaration order
	SpanVal Span
}

func (a *Annotation) Span() Span { return a.SpanVal }
func (a *Annotation) node()      {}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// Item is a top-level declaration: an interface, struct, opaque type, or
// function declaration.
type Item interface {
	Node
	ItemName() string
	Doc() *DocString
	ItemAnnotations() []Annotation
	item() // marker method
}

// TypeMember is a member of an interface or struct: a field or a function.
type TypeMember interface {
	Node
	MemberName() string
	member() // marker method
}

// OpaqueTypeDef declares a type whose representation is unknown to the
// compiler; it is emitted as a forward declaration only.
type OpaqueTypeDef struct {
	Name        string
	SpanVal     Span
	DocString   *DocString
	Annotations []Annotation
}

func (n *OpaqueTypeDef) Span() Span                    { return n.SpanVal }
func (n *OpaqueTypeDef) node()                         {}
func (n *OpaqueTypeDef) item()                         {}
func (n *OpaqueTypeDef) ItemName() string              { return n.Name }
func (n *OpaqueTypeDef) Doc() *DocString               { return n.DocString }
func (n *OpaqueTypeDef) ItemAnnotations() []Annotation { return n.Annotations }

// StructDef declares an aggregate of fields. Struct names are not currently
// registered for cross-reference from other declarations.
type StructDef struct {
	Name        string
	SpanVal     Span
	DocString   *DocString
	Annotations []Annotation
	Fields      []*FieldDef // declaration order, names unique
}

func (n *StructDef) Span() Span                    { return n.SpanVal }
func (n *StructDef) node()                         {}
func (n *StructDef) item()                         {}
func (n *StructDef) ItemName() string              { return n.Name }
func (n *StructDef) Doc() *DocString               { return n.DocString }
func (n *StructDef) ItemAnnotations() []Annotation { return n.Annotations }

// Field returns the field with the given name, or nil.
func (n *StructDef) Field(name string) *FieldDef {
	for _, f := range n.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InterfaceDef declares a named collection of method and field slots
// dispatched through a table of function pointers.
type InterfaceDef struct {
	Name        string
	SpanVal     Span
	DocString   *DocString
	Annotations []Annotation
	Members     []TypeMember // declaration order, names unique
}

func (n *InterfaceDef) Span() Span                    { return n.SpanVal }
func (n *InterfaceDef) node()                         {}
func (n *InterfaceDef) item()                         {}
func (n *InterfaceDef) ItemName() string              { return n.Name }
func (n *InterfaceDef) Doc() *DocString               { return n.DocString }
func (n *InterfaceDef) ItemAnnotations() []Annotation { return n.Annotations }

// Member returns the member with the given name, or nil.
func (n *InterfaceDef) Member(name string) TypeMember {
	for _, m := range n.Members {
		if m.MemberName() == name {
			return m
		}
	}
	return nil
}

// Methods returns the interface's function members in declaration order.
func (n *InterfaceDef) Methods() []*FunctionDeclaration {
	var methods []*FunctionDeclaration
	for _, m := range n.Members {
		if fn, ok := m.(*FunctionDeclaration); ok {
			methods = append(methods, fn)
		}
	}
	return methods
}

// FieldDef declares a typed field of a struct or interface.
type FieldDef struct {
	Name        string
	SpanVal     Span
	DocString   *DocString
	Annotations []Annotation
	Type        TypeRef
}

func (n *FieldDef) Span() Span         { return n.SpanVal }
func (n *FieldDef) node()              {}
func (n *FieldDef) member()            {}
func (n *FieldDef) MemberName() string { return n.Name }

// FunctionDeclaration declares a top-level function or an interface method.
// Body is nil for abstract declarations.
type FunctionDeclaration struct {
	Name        string
	SpanVal     Span
	DocString   *DocString
	Annotations []Annotation
	Signature   *FunctionSignature
	Body        *FunctionBody
}

func (n *FunctionDeclaration) Span() Span                    { return n.SpanVal }
func (n *FunctionDeclaration) node()                         {}
func (n *FunctionDeclaration) item()                         {}
func (n *FunctionDeclaration) member()                       {}
func (n *FunctionDeclaration) ItemName() string              { return n.Name }
func (n *FunctionDeclaration) MemberName() string            { return n.Name }
func (n *FunctionDeclaration) Doc() *DocString               { return n.DocString }
func (n *FunctionDeclaration) ItemAnnotations() []Annotation { return n.Annotations }

// HasDefaultBody reports whether this declaration carries a default
// (fallback) implementation.
func (n *FunctionDeclaration) HasDefaultBody() bool {
	return n.Body != nil && n.Body.Default
}

// ---------------------------------------------------------------------------
// Function signatures
// ---------------------------------------------------------------------------

// Argument is one parameter of a function signature.
type Argument interface {
	Node
	arg() // marker method
}

// SimpleArgument is an ordinary named parameter.
type SimpleArgument struct {
	Name         string
	DeclaredType TypeRef
	SpanVal      Span
}

func (a *SimpleArgument) Span() Span { return a.SpanVal }
func (a *SimpleArgument) node()      {}
func (a *SimpleArgument) arg()       {}

// SelfArgument is a method receiver: 'self' taken by value, or '&self',
// '&mut self', '&own self', '&raw self' taken by reference. SelfType is nil
// until resolution attaches the enclosing interface's type.
type SelfArgument struct {
	ByRef    bool
	RefKind  ReferenceKind // meaningful only when ByRef
	SelfType ResolvedType
	SpanVal  Span
}

func (a *SelfArgument) Span() Span { return a.SpanVal }
func (a *SelfArgument) node()      {}
func (a *SelfArgument) arg()       {}

// FunctionSignature is an ordered argument list plus a return type
// reference. A self argument, if present, must come first.
type FunctionSignature struct {
	Args   []Argument
	Return TypeRef
}

// NewFunctionSignature builds a signature, enforcing that a self argument
// only appears at position 0.
func NewFunctionSignature(args []Argument, ret TypeRef) (*FunctionSignature, error) {
	for i, arg := range args {
		if _, ok := arg.(*SelfArgument); ok && i != 0 {
			return nil, parseErrorf(arg.Span(), "self argument must come first")
		}
	}
	return &FunctionSignature{Args: args, Return: ret}, nil
}

// IsMethod reports whether the first argument is a self argument.
func (s *FunctionSignature) IsMethod() bool {
	if len(s.Args) == 0 {
		return false
	}
	_, ok := s.Args[0].(*SelfArgument)
	return ok
}

// IsUnitReturn reports whether the return type is (or names) the unit
// builtin.
func (s *FunctionSignature) IsUnitReturn() bool {
	switch ret := s.Return.(type) {
	case *BuiltinType:
		return ret.Kind == UnitKind
	case *NamedTypeRef:
		return ret.Name == "unit"
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Function bodies, statements, expressions
// ---------------------------------------------------------------------------

// FunctionBody is an ordered statement list. Default marks the body as a
// fallback implementation for an unset vtable slot.
type FunctionBody struct {
	Statements []Statement
	Default    bool
	SpanVal    Span
}

func (b *FunctionBody) Span() Span { return b.SpanVal }
func (b *FunctionBody) node()      {}

// Statement is a statement inside a function body.
type Statement interface {
	Node
	stmt() // marker method
}

// ReturnStatement is 'return;' (nil Value) or 'return expr;'.
type ReturnStatement struct {
	Value   Expr
	SpanVal Span
}

func (s *ReturnStatement) Span() Span { return s.SpanVal }
func (s *ReturnStatement) node()      {}
func (s *ReturnStatement) stmt()      {}

// Expr is an expression inside a statement.
type Expr interface {
	Node
	expr() // marker method
}

// NullExpr is the null-reference literal.
type NullExpr struct {
	SpanVal Span
}

func (e *NullExpr) Span() Span { return e.SpanVal }
func (e *NullExpr) node()      {}
func (e *NullExpr) expr()      {}

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

var moduleNamePattern = regexp.MustCompile(`^\w+(\.\w+)*$`)

// Module is one parsed source unit: a validated dotted name plus an ordered
// item list. Modules are immutable once constructed.
type Module struct {
	Name  string
	Items []Item
}

// NewModule creates a module, validating the dotted module name.
func NewModule(name string, items []Item) (*Module, error) {
	if !moduleNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid module name %q", name)
	}
	return &Module{Name: name, Items: items}, nil
}
