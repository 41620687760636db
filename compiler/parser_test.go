package compiler

import (
	"errors"
	"strings"
	"testing"
)

func parseItems(t *testing.T, source string) []Item {
	t.Helper()
	module, err := ParseModule("test", source)
	if err != nil {
		t.Fatalf("ParseModule failed: %v", err)
	}
	return module.Items
}

func parseOneItem(t *testing.T, source string) Item {
	t.Helper()
	items := parseItems(t, source)
	if len(items) != 1 {
		t.Fatalf("item count = %d, want 1", len(items))
	}
	return items[0]
}

func TestParseOpaqueType(t *testing.T) {
	item := parseOneItem(t, "opaque type Example;")
	def, ok := item.(*OpaqueTypeDef)
	if !ok {
		t.Fatalf("item type = %T, want *OpaqueTypeDef", item)
	}
	if def.Name != "Example" {
		t.Errorf("name = %q, want Example", def.Name)
	}
	if def.SpanVal != (Span{Line: 1, Column: 12}) {
		t.Errorf("span = %v", def.SpanVal)
	}
}

func TestParseStruct(t *testing.T) {
	item := parseOneItem(t, `
struct Point {
    field x: double;
    field y: double;
}`)
	def, ok := item.(*StructDef)
	if !ok {
		t.Fatalf("item type = %T, want *StructDef", item)
	}
	if def.Name != "Point" {
		t.Errorf("name = %q, want Point", def.Name)
	}
	if len(def.Fields) != 2 {
		t.Fatalf("field count = %d, want 2", len(def.Fields))
	}
	if def.Fields[0].Name != "x" || def.Fields[1].Name != "y" {
		t.Errorf("field names = %q, %q", def.Fields[0].Name, def.Fields[1].Name)
	}
	named, ok := def.Fields[0].Type.(*NamedTypeRef)
	if !ok || named.Name != "double" {
		t.Errorf("field x type = %v", def.Fields[0].Type)
	}
	if def.Field("y") == nil || def.Field("z") != nil {
		t.Error("Field lookup is wrong")
	}
}

func TestParseInterface(t *testing.T) {
	item := parseOneItem(t, `
interface Basic {
    fun noArgs(): i64;
    fun findInBytes(bytes: &byte, start: usize, result: &mut usize): bool;
    field userdata: &raw byte;
}`)
	def, ok := item.(*InterfaceDef)
	if !ok {
		t.Fatalf("item type = %T, want *InterfaceDef", item)
	}
	if len(def.Members) != 3 {
		t.Fatalf("member count = %d, want 3", len(def.Members))
	}
	methods := def.Methods()
	if len(methods) != 2 {
		t.Fatalf("method count = %d, want 2", len(methods))
	}
	if methods[0].Name != "noArgs" || methods[1].Name != "findInBytes" {
		t.Errorf("method names = %q, %q", methods[0].Name, methods[1].Name)
	}
	if len(methods[1].Signature.Args) != 3 {
		t.Errorf("findInBytes arg count = %d, want 3", len(methods[1].Signature.Args))
	}
	arg, ok := methods[1].Signature.Args[1].(*SimpleArgument)
	if !ok || arg.Name != "start" {
		t.Fatalf("arg[1] = %v", methods[1].Signature.Args[1])
	}
	field, ok := def.Member("userdata").(*FieldDef)
	if !ok {
		t.Fatalf("userdata member = %v", def.Member("userdata"))
	}
	ref, ok := field.Type.(*ReferenceTypeRef)
	if !ok || ref.Kind != Raw {
		t.Errorf("userdata type = %v", field.Type)
	}
}

func TestParseImplicitUnitReturn(t *testing.T) {
	item := parseOneItem(t, "fun ping();")
	fn := item.(*FunctionDeclaration)
	named, ok := fn.Signature.Return.(*NamedTypeRef)
	if !ok || named.Name != "unit" {
		t.Errorf("return type = %v, want unit", fn.Signature.Return)
	}
	if fn.Body != nil {
		t.Error("body should be nil for an abstract declaration")
	}
	if !fn.Signature.IsUnitReturn() {
		t.Error("IsUnitReturn = false, want true")
	}
}

func TestParseSelfArguments(t *testing.T) {
	tests := []struct {
		input string
		byRef bool
		kind  ReferenceKind
	}{
		{"fun a(self);", false, Immutable},
		{"fun b(&self);", true, Immutable},
		{"fun c(&mut self);", true, Mutable},
		{"fun d(&own self);", true, Owned},
		{"fun e(&raw self, extra: int);", true, Raw},
	}

	for _, tc := range tests {
		fn := parseOneItem(t, tc.input).(*FunctionDeclaration)
		if !fn.Signature.IsMethod() {
			t.Errorf("%q: IsMethod = false", tc.input)
			continue
		}
		self := fn.Signature.Args[0].(*SelfArgument)
		if self.ByRef != tc.byRef || (tc.byRef && self.RefKind != tc.kind) {
			t.Errorf("%q: self = %+v", tc.input, self)
		}
	}
}

func TestParseSelfMustComeFirst(t *testing.T) {
	_, err := ParseModule("test", "fun bad(x: int, &self);")
	if err == nil {
		t.Fatal("expected error for self in second position")
	}
	if !strings.Contains(err.Error(), "self argument must come first") {
		t.Errorf("error = %v", err)
	}
}

func TestParseTypes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"int", "int"},
		{"&byte", "&byte"},
		{"&mut usize", "&mut usize"},
		{"&own DuckObject", "&own DuckObject"},
		{"&raw byte", "&raw byte"},
		{"opt &byte", "opt &byte"},
		{"opt &mut DuckObject", "opt &mut DuckObject"},
		{"&&byte", "&&byte"},
	}

	for _, tc := range tests {
		fn := parseOneItem(t, "fun f(x: "+tc.input+");").(*FunctionDeclaration)
		arg := fn.Signature.Args[0].(*SimpleArgument)
		if got := arg.DeclaredType.String(); got != tc.want {
			t.Errorf("parseType(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseOptionalRequiresReference(t *testing.T) {
	_, err := ParseModule("test", "fun f(x: opt int);")
	if err == nil {
		t.Fatal("expected error for optional non-reference")
	}
	if !strings.Contains(err.Error(), "only references can be optional") {
		t.Errorf("error = %v", err)
	}
}

func TestParseDocComments(t *testing.T) {
	item := parseOneItem(t, `
/**
 * This is a basic example.
 *
 * Second paragraph.
 */
opaque type Example;`)
	doc := item.Doc()
	if doc == nil {
		t.Fatal("doc = nil")
	}
	want := []string{"This is a basic example.", "", "Second paragraph."}
	if len(doc.Lines) != len(want) {
		t.Fatalf("doc lines = %q, want %q", doc.Lines, want)
	}
	for i := range want {
		if doc.Lines[i] != want[i] {
			t.Errorf("doc line[%d] = %q, want %q", i, doc.Lines[i], want[i])
		}
	}
}

func TestParseDocCommentBadLine(t *testing.T) {
	_, err := ParseModule("test", "/**\n * good\n bad\n */\nopaque type T;")
	if err == nil {
		t.Fatal("expected error for malformed doc line")
	}
	if !strings.Contains(err.Error(), "expected doc line to start with") {
		t.Errorf("error = %v", err)
	}
}

func TestParseAnnotations(t *testing.T) {
	item := parseOneItem(t, `
@GenerateWrappers(prefix="basic", indirect_vtable=true, include_doc=false)
@Deprecated
interface Basic {
}`)
	annotations := item.ItemAnnotations()
	if len(annotations) != 2 {
		t.Fatalf("annotation count = %d, want 2", len(annotations))
	}
	gw := annotations[0]
	if gw.Name != "GenerateWrappers" {
		t.Errorf("name = %q", gw.Name)
	}
	wantKeys := []string{"prefix", "indirect_vtable", "include_doc"}
	if len(gw.Keys) != len(wantKeys) {
		t.Fatalf("keys = %v, want %v", gw.Keys, wantKeys)
	}
	for i := range wantKeys {
		if gw.Keys[i] != wantKeys[i] {
			t.Errorf("key[%d] = %q, want %q", i, gw.Keys[i], wantKeys[i])
		}
	}
	if s, ok := gw.Values["prefix"].AsString(); !ok || s != "basic" {
		t.Errorf("prefix = %v", gw.Values["prefix"])
	}
	if b, ok := gw.Values["indirect_vtable"].AsBool(); !ok || !b {
		t.Errorf("indirect_vtable = %v", gw.Values["indirect_vtable"])
	}
	if b, ok := gw.Values["include_doc"].AsBool(); !ok || b {
		t.Errorf("include_doc = %v", gw.Values["include_doc"])
	}
	if annotations[1].Name != "Deprecated" || annotations[1].Values != nil {
		t.Errorf("bare annotation = %+v", annotations[1])
	}
}

func TestParseDuplicateAnnotationKey(t *testing.T) {
	_, err := ParseModule("test", `
@GenerateWrappers(prefix="a", prefix="b")
interface Basic {
}`)
	if err == nil {
		t.Fatal("expected error for duplicate annotation key")
	}
	if !strings.Contains(err.Error(), "duplicate annotation value") {
		t.Errorf("error = %v", err)
	}
}

func TestParseDefaultBodies(t *testing.T) {
	item := parseOneItem(t, `
interface Shape {
    default fun area(): opt &double {
        return null;
    }
}`)
	def := item.(*InterfaceDef)
	fn := def.Methods()[0]
	if !fn.HasDefaultBody() {
		t.Fatal("HasDefaultBody = false, want true")
	}
	if len(fn.Body.Statements) != 1 {
		t.Fatalf("statement count = %d, want 1", len(fn.Body.Statements))
	}
	ret := fn.Body.Statements[0].(*ReturnStatement)
	if _, ok := ret.Value.(*NullExpr); !ok {
		t.Errorf("return value = %v, want null", ret.Value)
	}
}

func TestParseNonDefaultBody(t *testing.T) {
	fn := parseOneItem(t, "fun stop() { return; }").(*FunctionDeclaration)
	if fn.Body == nil {
		t.Fatal("body = nil")
	}
	if fn.Body.Default {
		t.Error("Default = true for a body without the modifier")
	}
	ret := fn.Body.Statements[0].(*ReturnStatement)
	if ret.Value != nil {
		t.Errorf("return value = %v, want nil", ret.Value)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"default without body", "default fun f();", "default function must have a body"},
		{"default on struct", "default struct S {\n}", "unexpected modifier"},
		{"fun in struct", "struct S {\n    fun f();\n}", "structs may only contain fields"},
		{"duplicate field", "struct S {\n    field x: int;\n    field x: int;\n}", "duplicate field"},
		{"duplicate member", "interface I {\n    fun f();\n    field f: int;\n}", "duplicate member"},
		{"unterminated interface", "interface I {", "expected closing brace"},
		{"missing semicolon", "opaque type T", "expected symbol"},
		{"stray token", "wat", "expected item"},
		{"bad statement", "fun f() { wat; }", "expected statement"},
		{"bad expression", "fun f() { return wat; }", "expected expression"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseModule("test", tc.source)
			if err == nil {
				t.Fatalf("ParseModule(%q) succeeded, want error", tc.source)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err.Error(), tc.want)
			}
		})
	}
}

func TestModuleNameValidation(t *testing.T) {
	valid := []string{"basic", "ivan.basic", "a.b.c", "under_score.x9"}
	for _, name := range valid {
		if _, err := NewModule(name, nil); err != nil {
			t.Errorf("NewModule(%q) failed: %v", name, err)
		}
	}
	invalid := []string{"", ".", "a.", ".a", "a..b", "a b", "a-b"}
	for _, name := range invalid {
		if _, err := NewModule(name, nil); err == nil {
			t.Errorf("NewModule(%q) succeeded, want error", name)
		}
	}
}
