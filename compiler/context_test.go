package compiler

import (
	"errors"
	"testing"
)

func buildTestContext(t *testing.T, source string) (*TypeContext, *Module) {
	t.Helper()
	module, err := ParseModule("test", source)
	if err != nil {
		t.Fatalf("ParseModule failed: %v", err)
	}
	ctx, err := BuildContext(module)
	if err != nil {
		t.Fatalf("BuildContext failed: %v", err)
	}
	return ctx, module
}

func TestResolveName(t *testing.T) {
	ctx, _ := buildTestContext(t, `
opaque type DuckObject;
interface Shape {
    fun size(): usize;
}`)

	duck, err := ctx.ResolveName("DuckObject", Span{})
	if err != nil {
		t.Fatalf("ResolveName(DuckObject) failed: %v", err)
	}
	if _, ok := duck.(*OpaqueType); !ok {
		t.Errorf("DuckObject = %T, want *OpaqueType", duck)
	}

	shape, err := ctx.ResolveName("Shape", Span{})
	if err != nil {
		t.Fatalf("ResolveName(Shape) failed: %v", err)
	}
	iface, ok := shape.(*InterfaceType)
	if !ok {
		t.Fatalf("Shape = %T, want *InterfaceType", shape)
	}
	if iface.Def.Name != "Shape" {
		t.Errorf("Shape def = %q", iface.Def.Name)
	}

	builtin, err := ctx.ResolveName("usize", Span{})
	if err != nil {
		t.Fatalf("ResolveName(usize) failed: %v", err)
	}
	if builtin != UsizeType {
		t.Errorf("usize = %v, want the shared builtin handle", builtin)
	}

	fixed, err := ctx.ResolveName("u16", Span{})
	if err != nil {
		t.Fatalf("ResolveName(u16) failed: %v", err)
	}
	if fixed.CName() != "uint16_t" {
		t.Errorf("u16 CName = %q", fixed.CName())
	}
}

func TestResolveNameUnresolved(t *testing.T) {
	ctx, _ := buildTestContext(t, "opaque type Known;")
	usage := Span{Line: 7, Column: 3}
	_, err := ctx.ResolveName("Unknown", usage)
	var unresolved *UnresolvedTypeError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error = %v, want *UnresolvedTypeError", err)
	}
	if unresolved.Name != "Unknown" {
		t.Errorf("name = %q", unresolved.Name)
	}
	if unresolved.Span != usage {
		t.Errorf("span = %v, want the usage span %v", unresolved.Span, usage)
	}
}

func TestStructNamesAreNotRegistered(t *testing.T) {
	ctx, _ := buildTestContext(t, `
struct Point {
    field x: double;
}`)
	_, err := ctx.ResolveName("Point", Span{})
	var unresolved *UnresolvedTypeError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error = %v, want *UnresolvedTypeError", err)
	}
}

func TestDuplicateTypes(t *testing.T) {
	module, err := ParseModule("test", `
opaque type Twice;
interface Twice {
}`)
	if err != nil {
		t.Fatalf("ParseModule failed: %v", err)
	}
	_, err = BuildContext(module)
	var dup *DuplicateTypeError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %v, want *DuplicateTypeError", err)
	}
	if dup.Name != "Twice" {
		t.Errorf("name = %q", dup.Name)
	}
	if dup.Span.Line != 3 {
		t.Errorf("span = %v, want the second declaration's", dup.Span)
	}
}

func TestResolveReferences(t *testing.T) {
	ctx, _ := buildTestContext(t, "opaque type DuckObject;")
	resolved, err := ctx.Resolve(&OptionalTypeRef{
		Inner: &ReferenceTypeRef{
			Inner: &NamedTypeRef{Name: "DuckObject"},
			Kind:  Mutable,
		},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	ref, ok := resolved.(*ReferenceType)
	if !ok {
		t.Fatalf("resolved = %T, want *ReferenceType", resolved)
	}
	if ref.Kind != Mutable || !ref.Optional {
		t.Errorf("resolved = %+v", ref)
	}
	if ref.Target.Name() != "DuckObject" {
		t.Errorf("target = %q", ref.Target.Name())
	}

	// Already-resolved types pass through unchanged.
	again, err := ctx.Resolve(resolved)
	if err != nil {
		t.Fatalf("Resolve(resolved) failed: %v", err)
	}
	if again != resolved {
		t.Error("re-resolving did not return the same handle")
	}
}

func TestResolveModule(t *testing.T) {
	ctx, module := buildTestContext(t, `
opaque type DuckObject;
interface Shape {
    fun viewLegacy(&self, obj: &DuckObject): opt &raw DuckObject;
}
fun topLevel(count: usize);`)

	resolved, err := ResolveModule(ctx, module)
	if err != nil {
		t.Fatalf("ResolveModule failed: %v", err)
	}
	if resolved == module {
		t.Fatal("resolution should have produced a new module")
	}
	if module.Items[1].(*InterfaceDef).Methods()[0].Signature.Args[0].(*SelfArgument).SelfType != nil {
		t.Error("resolution mutated the input module")
	}

	iface := resolved.Items[1].(*InterfaceDef)
	method := iface.Methods()[0]
	self := method.Signature.Args[0].(*SelfArgument)
	selfType, ok := self.SelfType.(*InterfaceType)
	if !ok || selfType.Def.Name != "Shape" {
		t.Errorf("self type = %v", self.SelfType)
	}
	arg := method.Signature.Args[1].(*SimpleArgument)
	if _, ok := arg.DeclaredType.(*ReferenceType); !ok {
		t.Errorf("obj type = %T, want *ReferenceType", arg.DeclaredType)
	}
	ret, ok := method.Signature.Return.(*ReferenceType)
	if !ok || !ret.Optional || ret.Kind != Raw {
		t.Errorf("return type = %v", method.Signature.Return)
	}

	fn := resolved.Items[2].(*FunctionDeclaration)
	if fn.Signature.Args[0].(*SimpleArgument).DeclaredType != UsizeType {
		t.Errorf("count type = %v", fn.Signature.Args[0].(*SimpleArgument).DeclaredType)
	}
	if fn.Signature.Return != TypeRef(UnitType) {
		t.Errorf("return type = %v, want unit", fn.Signature.Return)
	}

	// The opaque item has no type references and is shared, not copied.
	if resolved.Items[0] != module.Items[0] {
		t.Error("opaque item was copied unnecessarily")
	}
}

func TestResolveModuleUnresolved(t *testing.T) {
	ctx, module := buildTestContext(t, "fun f(x: Missing);")
	_, err := ResolveModule(ctx, module)
	var unresolved *UnresolvedTypeError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error = %v, want *UnresolvedTypeError", err)
	}
	if unresolved.Name != "Missing" {
		t.Errorf("name = %q", unresolved.Name)
	}
}
