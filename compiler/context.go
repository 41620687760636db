package compiler

// ---------------------------------------------------------------------------
// TypeContext: Name resolution
//
// A TypeContext maps the type names a module declares to their resolved
// forms. Resolution never mutates the input tree: ResolveModule rewrites
// the module copy-on-write, sharing every subtree that resolution leaves
// untouched.
// ---------------------------------------------------------------------------

// TypeContext holds the named types declared by a module.
type TypeContext struct {
	types map[string]ResolvedType
	order []string
}

// NewTypeContext creates an empty context.
func NewTypeContext() *TypeContext {
	return &TypeContext{types: map[string]ResolvedType{}}
}

// BuildContext registers every opaque type and interface a module declares.
// Struct definitions are emitted but not registered, so struct names cannot
// be referenced as types yet.
func BuildContext(module *Module) (*TypeContext, error) {
	ctx := NewTypeContext()
	for _, item := range module.Items {
		switch def := item.(type) {
		case *OpaqueTypeDef:
			if err := ctx.register(def.Name, &OpaqueType{Def: def}, def.SpanVal); err != nil {
				return nil, err
			}
		case *InterfaceDef:
			if err := ctx.register(def.Name, &InterfaceType{Def: def}, def.SpanVal); err != nil {
				return nil, err
			}
		}
	}
	return ctx, nil
}

func (ctx *TypeContext) register(name string, resolved ResolvedType, span Span) error {
	if _, dup := ctx.types[name]; dup {
		return &DuplicateTypeError{Name: name, Span: span}
	}
	ctx.types[name] = resolved
	ctx.order = append(ctx.order, name)
	return nil
}

// ResolveName resolves a bare type name. Module-declared types shadow
// builtins, which shadow the fixed-width integer spellings.
func (ctx *TypeContext) ResolveName(name string, usage Span) (ResolvedType, error) {
	if resolved, ok := ctx.types[name]; ok {
		return resolved, nil
	}
	if builtin, ok := LookupBuiltin(name); ok {
		return builtin, nil
	}
	if fixed, ok := ParseFixedInteger(name); ok {
		return fixed, nil
	}
	return nil, &UnresolvedTypeError{Name: name, Span: usage}
}

// Resolve resolves an arbitrary type reference. Already-resolved types pass
// through unchanged.
func (ctx *TypeContext) Resolve(ref TypeRef) (ResolvedType, error) {
	switch t := ref.(type) {
	case ResolvedType:
		return t, nil
	case *NamedTypeRef:
		return ctx.ResolveName(t.Name, t.UsageSpan)
	case *ReferenceTypeRef:
		target, err := ctx.Resolve(t.Inner)
		if err != nil {
			return nil, err
		}
		return &ReferenceType{Target: target, Kind: t.Kind}, nil
	case *OptionalTypeRef:
		target, err := ctx.Resolve(t.Inner.Inner)
		if err != nil {
			return nil, err
		}
		return &ReferenceType{Target: target, Kind: t.Inner.Kind, Optional: true}, nil
	default:
		panic("unknown type reference")
	}
}

// ResolveModule resolves every type reference in a module, returning a new
// module when anything changed.
func ResolveModule(ctx *TypeContext, module *Module) (*Module, error) {
	r := &moduleResolver{ctx: ctx}
	items, changed, err := r.resolveItems(module.Items)
	if err != nil {
		return nil, err
	}
	if !changed {
		return module, nil
	}
	return &Module{Name: module.Name, Items: items}, nil
}

// moduleResolver carries the enclosing interface type while descending into
// its members, so self arguments can be attached to it.
type moduleResolver struct {
	ctx  *TypeContext
	self ResolvedType
}

func (r *moduleResolver) resolveItems(items []Item) ([]Item, bool, error) {
	out := items
	changed := false
	for i, item := range items {
		resolved, err := r.resolveItem(item)
		if err != nil {
			return nil, false, err
		}
		if resolved != item {
			if !changed {
				out = make([]Item, len(items))
				copy(out, items)
				changed = true
			}
			out[i] = resolved
		}
	}
	return out, changed, nil
}

func (r *moduleResolver) resolveItem(item Item) (Item, error) {
	switch def := item.(type) {
	case *OpaqueTypeDef:
		return def, nil
	case *StructDef:
		return r.resolveStruct(def)
	case *InterfaceDef:
		return r.resolveInterface(def)
	case *FunctionDeclaration:
		return r.resolveFunction(def)
	default:
		panic("unknown item")
	}
}

func (r *moduleResolver) resolveStruct(def *StructDef) (*StructDef, error) {
	fields := def.Fields
	changed := false
	for i, field := range def.Fields {
		resolved, err := r.resolveField(field)
		if err != nil {
			return nil, err
		}
		if resolved != field {
			if !changed {
				fields = make([]*FieldDef, len(def.Fields))
				copy(fields, def.Fields)
				changed = true
			}
			fields[i] = resolved
		}
	}
	if !changed {
		return def, nil
	}
	out := *def
	out.Fields = fields
	return &out, nil
}

func (r *moduleResolver) resolveInterface(def *InterfaceDef) (*InterfaceDef, error) {
	self, err := r.ctx.ResolveName(def.Name, def.SpanVal)
	if err != nil {
		return nil, err
	}
	r.self = self
	defer func() { r.self = nil }()

	members := def.Members
	changed := false
	for i, member := range def.Members {
		var resolved TypeMember
		switch m := member.(type) {
		case *FieldDef:
			resolved, err = r.resolveField(m)
		case *FunctionDeclaration:
			resolved, err = r.resolveFunction(m)
		default:
			panic("unknown type member")
		}
		if err != nil {
			return nil, err
		}
		if resolved != member {
			if !changed {
				members = make([]TypeMember, len(def.Members))
				copy(members, def.Members)
				changed = true
			}
			members[i] = resolved
		}
	}
	if !changed {
		return def, nil
	}
	out := *def
	out.Members = members
	return &out, nil
}

func (r *moduleResolver) resolveField(field *FieldDef) (*FieldDef, error) {
	resolved, err := r.ctx.Resolve(field.Type)
	if err != nil {
		return nil, err
	}
	if resolved == field.Type {
		return field, nil
	}
	out := *field
	out.Type = resolved
	return &out, nil
}

func (r *moduleResolver) resolveFunction(fn *FunctionDeclaration) (*FunctionDeclaration, error) {
	signature, err := r.resolveSignature(fn)
	if err != nil {
		return nil, err
	}
	if signature == fn.Signature {
		return fn, nil
	}
	out := *fn
	out.Signature = signature
	return &out, nil
}

func (r *moduleResolver) resolveSignature(fn *FunctionDeclaration) (*FunctionSignature, error) {
	sig := fn.Signature
	args := sig.Args
	changed := false
	for i, arg := range sig.Args {
		resolved, err := r.resolveArgument(arg)
		if err != nil {
			return nil, err
		}
		if resolved != arg {
			if !changed {
				args = make([]Argument, len(sig.Args))
				copy(args, sig.Args)
				changed = true
			}
			args[i] = resolved
		}
	}
	ret, err := r.ctx.Resolve(sig.Return)
	if err != nil {
		return nil, err
	}
	if !changed && ret == sig.Return {
		return sig, nil
	}
	out := *sig
	out.Args = args
	out.Return = ret
	return &out, nil
}

func (r *moduleResolver) resolveArgument(arg Argument) (Argument, error) {
	switch a := arg.(type) {
	case *SelfArgument:
		if r.self == nil {
			return nil, parseErrorf(a.SpanVal, "self argument outside interface")
		}
		if a.SelfType == r.self {
			return a, nil
		}
		out := *a
		out.SelfType = r.self
		return &out, nil
	case *SimpleArgument:
		resolved, err := r.ctx.Resolve(a.DeclaredType)
		if err != nil {
			return nil, err
		}
		if resolved == a.DeclaredType {
			return a, nil
		}
		out := *a
		out.DeclaredType = resolved
		return &out, nil
	default:
		panic("unknown argument")
	}
}
