package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// C11 code generator
//
// Emission runs in two passes over a resolved module: a declaration pass
// that emits a typedef or prototype per item, then a wrapper pass that
// synthesizes free functions for every interface annotated with
// @GenerateWrappers. The wrapper pass is single-shot per generator.
// ---------------------------------------------------------------------------

const (
	annGenerateWrappers = "GenerateWrappers"
	annSkipWrapper      = "SkipWrapper"
)

// C11Generator emits a C11 header for one module.
type C11Generator struct {
	writer       *CodeWriter
	moduleName   string
	wrappersDone bool
}

// NewC11Generator creates a generator for a module with the given dotted
// name. The name decides the include-guard macro.
func NewC11Generator(moduleName string) *C11Generator {
	return &C11Generator{writer: &CodeWriter{}, moduleName: moduleName}
}

// Output returns everything emitted so far.
func (g *C11Generator) Output() string {
	return g.writer.String()
}

func (g *C11Generator) guardMacro() string {
	return strings.ToUpper(strings.ReplaceAll(g.moduleName, ".", "_")) + "_H"
}

// WriteHeader emits the include guard and the standard includes.
func (g *C11Generator) WriteHeader() {
	guard := g.guardMacro()
	g.writer.Writeln("#ifndef %s", guard)
	g.writer.Writeln("#define %s", guard)
	g.writer.Blank()
	g.writer.Writeln("#include <stdint.h>")
	g.writer.Writeln("#include <stdbool.h>")
	g.writer.Writeln("#include <stdlib.h>")
	g.writer.Writeln("#include <assert.h>")
	g.writer.Blank()
}

// WriteFooter closes the include guard.
func (g *C11Generator) WriteFooter() {
	g.writer.Writeln("#endif /* %s */", g.guardMacro())
}

func (g *C11Generator) writeDoc(doc *DocString) {
	if doc == nil {
		return
	}
	for _, line := range doc.RenderJavadoc() {
		g.writer.Writeln("%s", line)
	}
}

// WriteItem emits the declaration for one item.
func (g *C11Generator) WriteItem(item Item) error {
	g.writeDoc(item.Doc())
	switch def := item.(type) {
	case *OpaqueTypeDef:
		g.writer.Writeln("typedef struct %s %s;", def.Name, def.Name)
		return nil
	case *StructDef:
		return g.writeStruct(def)
	case *InterfaceDef:
		return g.writeInterface(def)
	case *FunctionDeclaration:
		signature, err := cSignature(def.Name, def.Signature)
		if err != nil {
			return err
		}
		g.writer.Writeln("%s;", signature)
		return nil
	default:
		panic("unknown item")
	}
}

func (g *C11Generator) writeStruct(def *StructDef) error {
	g.writer.Writeln("typedef struct %s {", def.Name)
	var err error
	g.writer.Indented(func() {
		for _, field := range def.Fields {
			var fieldType string
			fieldType, err = cTypeName(field.Type)
			if err != nil {
				return
			}
			g.writeDoc(field.DocString)
			g.writer.Writeln("%s %s;", fieldType, field.Name)
		}
	})
	if err != nil {
		return err
	}
	g.writer.Writeln("} %s;", def.Name)
	return nil
}

func (g *C11Generator) writeInterface(def *InterfaceDef) error {
	g.writer.Writeln("typedef struct %s {", def.Name)
	var err error
	g.writer.Indented(func() {
		for _, member := range def.Members {
			switch m := member.(type) {
			case *FieldDef:
				var fieldType string
				fieldType, err = cTypeName(m.Type)
				if err != nil {
					return
				}
				g.writeDoc(m.DocString)
				g.writer.Writeln("%s %s;", fieldType, m.Name)
			case *FunctionDeclaration:
				var pointer string
				pointer, err = cFunctionPointer(m.Name, m.Signature)
				if err != nil {
					return
				}
				g.writeDoc(m.DocString)
				g.writer.Writeln("%s;", pointer)
			default:
				panic("unknown type member")
			}
		}
	})
	if err != nil {
		return err
	}
	g.writer.Writeln("} %s;", def.Name)
	return nil
}

// ---------------------------------------------------------------------------
// C spelling helpers
// ---------------------------------------------------------------------------

func cTypeName(ref TypeRef) (string, error) {
	resolved, ok := ref.(ResolvedType)
	if !ok {
		return "", &CompileError{
			Msg:  fmt.Sprintf("cannot generate code for unresolved type %s", ref),
			Span: refSpan(ref),
		}
	}
	return resolved.CName(), nil
}

func refSpan(ref TypeRef) Span {
	switch t := ref.(type) {
	case *NamedTypeRef:
		return t.UsageSpan
	case *ReferenceTypeRef:
		return t.UsageSpan
	case *OptionalTypeRef:
		return t.UsageSpan
	default:
		return Span{}
	}
}

// cSelfParam spells the receiver parameter of a method's function-pointer
// slot.
func cSelfParam(arg *SelfArgument) (string, error) {
	if arg.SelfType == nil {
		return "", &CompileError{Msg: "self argument was never resolved", Span: arg.SpanVal}
	}
	name := arg.SelfType.CName()
	if !arg.ByRef {
		return fmt.Sprintf("%s self", name), nil
	}
	if arg.RefKind == Immutable {
		return fmt.Sprintf("const %s* self", name), nil
	}
	return fmt.Sprintf("%s* self", name), nil
}

// cParamList spells a signature's parameter list, without parentheses.
func cParamList(sig *FunctionSignature) (string, error) {
	var params []string
	for _, arg := range sig.Args {
		switch a := arg.(type) {
		case *SelfArgument:
			param, err := cSelfParam(a)
			if err != nil {
				return "", err
			}
			params = append(params, param)
		case *SimpleArgument:
			argType, err := cTypeName(a.DeclaredType)
			if err != nil {
				return "", err
			}
			params = append(params, fmt.Sprintf("%s %s", argType, a.Name))
		default:
			panic("unknown argument")
		}
	}
	return strings.Join(params, ", "), nil
}

// cSignature spells '<return> <name>(<params>)'.
func cSignature(name string, sig *FunctionSignature) (string, error) {
	ret, err := cTypeName(sig.Return)
	if err != nil {
		return "", err
	}
	params, err := cParamList(sig)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s(%s)", ret, name, params), nil
}

// cFunctionPointer spells '<return> (*<name>)(<params>)'.
func cFunctionPointer(name string, sig *FunctionSignature) (string, error) {
	return cSignature(fmt.Sprintf("(*%s)", name), sig)
}

// cWrapperSignature spells a wrapper's signature: the vtable parameter
// followed by the method's parameters. The self argument is dropped since
// the vtable parameter takes its place at the call site.
func cWrapperSignature(name string, sig *FunctionSignature, vtableParam string) (string, error) {
	ret, err := cTypeName(sig.Return)
	if err != nil {
		return "", err
	}
	params := []string{vtableParam}
	for _, arg := range sig.Args {
		a, ok := arg.(*SimpleArgument)
		if !ok {
			continue
		}
		argType, err := cTypeName(a.DeclaredType)
		if err != nil {
			return "", err
		}
		params = append(params, fmt.Sprintf("%s %s", argType, a.Name))
	}
	return fmt.Sprintf("%s %s(%s)", ret, name, strings.Join(params, ", ")), nil
}

// ---------------------------------------------------------------------------
// Wrapper generation
// ---------------------------------------------------------------------------

// wrapperConfig is the validated form of a @GenerateWrappers annotation.
type wrapperConfig struct {
	indirectVtable bool
	includeDoc     bool
	prefix         string
}

// parseWrapperConfig validates a @GenerateWrappers annotation. Any key
// outside {indirect_vtable, include_doc, prefix}, and any value of the
// wrong variant, is fatal.
func parseWrapperConfig(ann *Annotation) (*wrapperConfig, error) {
	cfg := &wrapperConfig{indirectVtable: true, includeDoc: true}
	for _, key := range ann.Keys {
		value := ann.Values[key]
		switch key {
		case "indirect_vtable":
			b, ok := value.AsBool()
			if !ok {
				return nil, configErrorf(ann.SpanVal, "expected a bool for indirect_vtable, got %s", value)
			}
			cfg.indirectVtable = b
		case "include_doc":
			b, ok := value.AsBool()
			if !ok {
				return nil, configErrorf(ann.SpanVal, "expected a bool for include_doc, got %s", value)
			}
			cfg.includeDoc = b
		case "prefix":
			s, ok := value.AsString()
			if !ok {
				return nil, configErrorf(ann.SpanVal, "expected a string for prefix, got %s", value)
			}
			cfg.prefix = s
		default:
			return nil, configErrorf(ann.SpanVal, "unknown @%s value %q", annGenerateWrappers, key)
		}
	}
	return cfg, nil
}

func findAnnotation(annotations []Annotation, name string) *Annotation {
	for i := range annotations {
		if annotations[i].Name == name {
			return &annotations[i]
		}
	}
	return nil
}

// GenerateWrappers runs the wrapper pass over a module. It may be invoked
// at most once per generator.
func (g *C11Generator) GenerateWrappers(module *Module) error {
	if g.wrappersDone {
		return configErrorf(Span{Line: 1}, "wrappers have already been generated")
	}
	g.wrappersDone = true

	wroteBanner := false
	for _, item := range module.Items {
		ann := findAnnotation(item.ItemAnnotations(), annGenerateWrappers)
		if ann == nil {
			continue
		}
		def, ok := item.(*InterfaceDef)
		if !ok {
			return configErrorf(ann.SpanVal, "@%s can only be applied to interfaces", annGenerateWrappers)
		}
		cfg, err := parseWrapperConfig(ann)
		if err != nil {
			return err
		}
		if !wroteBanner {
			g.writer.Writeln("// wrappers")
			g.writer.Blank()
			wroteBanner = true
		}
		for _, method := range def.Methods() {
			if findAnnotation(method.Annotations, annSkipWrapper) != nil {
				continue
			}
			if err := g.writeWrapper(def, method, cfg); err != nil {
				return err
			}
			g.writer.Blank()
		}
	}
	return nil
}

// writeWrapper emits the free function adapting one vtable slot. The slot
// is loaded into a local first; a method without a default body asserts
// the slot non-null, a method with one branches to its compiled body when
// the slot is null.
func (g *C11Generator) writeWrapper(def *InterfaceDef, method *FunctionDeclaration, cfg *wrapperConfig) error {
	name := method.Name
	if cfg.prefix != "" {
		name = cfg.prefix + "_" + method.Name
	}
	self := methodSelf(method)
	vtableParam := fmt.Sprintf("%s vtable", def.Name)
	slot := fmt.Sprintf("vtable.%s", method.Name)
	if cfg.indirectVtable {
		vtableParam = fmt.Sprintf("const %s* vtable", def.Name)
		if self != nil && self.ByRef && self.RefKind != Immutable {
			// The slot wants a mutable receiver, so the vtable
			// pointer cannot be const.
			vtableParam = fmt.Sprintf("%s* vtable", def.Name)
		}
		slot = fmt.Sprintf("vtable->%s", method.Name)
	}

	if cfg.includeDoc && method.DocString != nil {
		g.writeDoc(method.DocString.WithExtraLines("", "Automatically generated wrapper"))
	}

	signature, err := cWrapperSignature(name, method.Signature, vtableParam)
	if err != nil {
		return err
	}
	pointer, err := cFunctionPointer("func_ptr", method.Signature)
	if err != nil {
		return err
	}
	delegate, err := delegateCall(method, cfg)
	if err != nil {
		return err
	}

	g.writer.Writeln("%s {", signature)
	g.writer.Indented(func() {
		g.writer.Writeln("%s = %s;", pointer, slot)
		if !method.HasDefaultBody() {
			g.writer.Writeln("assert(func_ptr != NULL);")
			g.writer.Writeln("%s", delegate)
			return
		}
		g.writer.Writeln("if (func_ptr == NULL) {")
		g.writer.Indented(func() {
			var bodyc *bodyCompiler
			bodyc, err = newBodyCompiler(c11Target{}, method)
			if err != nil {
				return
			}
			err = bodyc.CompileBody(method.Body, g.writer)
		})
		if err != nil {
			return
		}
		g.writer.Writeln("} else {")
		g.writer.Indented(func() {
			g.writer.Writeln("%s", delegate)
		})
		g.writer.Writeln("}")
	})
	if err != nil {
		return err
	}
	g.writer.Writeln("}")
	return nil
}

// methodSelf returns the method's self argument, or nil.
func methodSelf(method *FunctionDeclaration) *SelfArgument {
	if len(method.Signature.Args) == 0 {
		return nil
	}
	self, _ := method.Signature.Args[0].(*SelfArgument)
	return self
}

// selfCallArg spells the vtable expression passed for the self parameter.
// The wrapper holds the vtable as a pointer under indirect_vtable and as a
// value otherwise, so the spelling must match the slot's receiver form.
func selfCallArg(self *SelfArgument, cfg *wrapperConfig) string {
	if self.ByRef {
		if cfg.indirectVtable {
			return "vtable"
		}
		return "&vtable"
	}
	if cfg.indirectVtable {
		return "*vtable"
	}
	return "vtable"
}

// delegateCall spells the statement that calls through the loaded slot.
// The vtable parameter doubles as the self argument for methods that take
// one.
func delegateCall(method *FunctionDeclaration, cfg *wrapperConfig) (string, error) {
	var args []string
	for _, arg := range method.Signature.Args {
		switch a := arg.(type) {
		case *SelfArgument:
			args = append(args, selfCallArg(a, cfg))
		case *SimpleArgument:
			args = append(args, a.Name)
		}
	}
	call := fmt.Sprintf("(*func_ptr)(%s);", strings.Join(args, ", "))
	ret, ok := method.Signature.Return.(ResolvedType)
	if !ok {
		return "", &CompileError{Msg: "cannot generate code for unresolved return type", Span: method.SpanVal}
	}
	if !isUnit(ret) {
		call = "return " + call
	}
	return call, nil
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// CompileModule runs the whole pipeline for one source unit: lex, parse,
// resolve, and emit the C11 header text.
func CompileModule(name, source string) (string, error) {
	module, err := ParseModule(name, source)
	if err != nil {
		return "", err
	}
	ctx, err := BuildContext(module)
	if err != nil {
		return "", err
	}
	module, err = ResolveModule(ctx, module)
	if err != nil {
		return "", err
	}
	generator := NewC11Generator(module.Name)
	generator.WriteHeader()
	for _, item := range module.Items {
		if err := generator.WriteItem(item); err != nil {
			return "", err
		}
		generator.writer.Blank()
	}
	if err := generator.GenerateWrappers(module); err != nil {
		return "", err
	}
	generator.WriteFooter()
	return generator.Output(), nil
}
