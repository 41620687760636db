package compiler

import (
	"fmt"
	"regexp"
)

// ---------------------------------------------------------------------------
// Type model: unresolved type references and resolved types
//
// The parser produces unresolved references (names as written in source).
// Resolution maps them to resolved types, which know their spelling in each
// target language. Resolved types satisfy TypeRef so that resolution is a
// pass-through for already-resolved inputs.
// ---------------------------------------------------------------------------

// ReferenceKind is the ownership/mutability qualifier on a reference type.
type ReferenceKind int

const (
	Immutable ReferenceKind = iota // &T: read-only, non-owning
	Mutable                        // &mut T: exclusive write access, non-owning
	Owned                          // &own T: conveys ownership transfer
	Raw                            // &raw T: no safety contract
)

func (k ReferenceKind) String() string {
	switch k {
	case Immutable:
		return "&"
	case Mutable:
		return "&mut"
	case Owned:
		return "&own"
	case Raw:
		return "&raw"
	default:
		return fmt.Sprintf("ReferenceKind(%d)", int(k))
	}
}

// TypeRef is a reference to a type, resolved or not.
type TypeRef interface {
	String() string
	typeRef() // marker method
}

// ResolvedType is a type handle usable for code emission.
type ResolvedType interface {
	TypeRef
	Name() string     // spelling in Ivan source
	CName() string    // spelling in C11
	RustName() string // spelling in Rust
}

// ---------------------------------------------------------------------------
// Unresolved references
// ---------------------------------------------------------------------------

// NamedTypeRef is a bare identifier: a builtin, a fixed-width integer
// spelling, or a user-declared type. Disambiguated at resolution time.
type NamedTypeRef struct {
	Name      string
	UsageSpan Span
}

func (r *NamedTypeRef) typeRef()       {}
func (r *NamedTypeRef) String() string { return r.Name }

// ReferenceTypeRef is an unresolved '&[kind] T'.
type ReferenceTypeRef struct {
	Inner     TypeRef
	Kind      ReferenceKind
	UsageSpan Span
}

func (r *ReferenceTypeRef) typeRef() {}

func (r *ReferenceTypeRef) String() string {
	if r.Kind == Immutable {
		return fmt.Sprintf("&%s", r.Inner)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Inner)
}

// OptionalTypeRef wraps a reference to make it nullable. The parser only
// constructs it over a ReferenceTypeRef.
type OptionalTypeRef struct {
	Inner     *ReferenceTypeRef
	UsageSpan Span
}

func (r *OptionalTypeRef) typeRef()       {}
func (r *OptionalTypeRef) String() string { return fmt.Sprintf("opt %s", r.Inner) }

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

// BuiltinKind enumerates the builtin types.
type BuiltinKind int

const (
	UnitKind   BuiltinKind = iota // functions that return no value
	IntKind                       // signed 32-bit, the default numeric type
	ByteKind                      // a byte (C char; signs are mismatched)
	DoubleKind                    // 64-bit float
	BoolKind                      //
	UsizeKind                     // pointer-sized unsigned integer
	IsizeKind                     // pointer-sized signed integer
)

type builtinSpelling struct {
	ivan string
	c11  string
	rust string
}

// The static builtin spelling table. Never mutated after initialization.
var builtinSpellings = map[BuiltinKind]builtinSpelling{
	UnitKind:   {"unit", "void", "()"},
	IntKind:    {"int", "int", "i32"}, // assumes sizeof(int) == 4
	ByteKind:   {"byte", "char", "u8"},
	DoubleKind: {"double", "double", "f64"},
	BoolKind:   {"bool", "bool", "bool"},
	UsizeKind:  {"usize", "size_t", "usize"},
	IsizeKind:  {"isize", "intptr_t", "isize"},
}

// BuiltinType is a resolved builtin.
type BuiltinType struct {
	Kind BuiltinKind
}

func (t *BuiltinType) typeRef()         {}
func (t *BuiltinType) Name() string     { return builtinSpellings[t.Kind].ivan }
func (t *BuiltinType) CName() string    { return builtinSpellings[t.Kind].c11 }
func (t *BuiltinType) RustName() string { return builtinSpellings[t.Kind].rust }
func (t *BuiltinType) String() string   { return t.Name() }

// Shared handles for the builtins; resolution always returns these.
var (
	UnitType   = &BuiltinType{UnitKind}
	IntType    = &BuiltinType{IntKind}
	ByteType   = &BuiltinType{ByteKind}
	DoubleType = &BuiltinType{DoubleKind}
	BoolType   = &BuiltinType{BoolKind}
	UsizeType  = &BuiltinType{UsizeKind}
	IsizeType  = &BuiltinType{IsizeKind}
)

var builtinsByName = map[string]*BuiltinType{
	"unit":   UnitType,
	"int":    IntType,
	"byte":   ByteType,
	"double": DoubleType,
	"bool":   BoolType,
	"usize":  UsizeType,
	"isize":  IsizeType,
}

// LookupBuiltin returns the builtin with the given Ivan name.
func LookupBuiltin(name string) (*BuiltinType, bool) {
	t, ok := builtinsByName[name]
	return t, ok
}

// ---------------------------------------------------------------------------
// Fixed-width integers
// ---------------------------------------------------------------------------

// FixedIntegerType is an integer with an explicit bit width: i8..i64,
// u8..u64.
type FixedIntegerType struct {
	Bits   int
	Signed bool
}

func (t *FixedIntegerType) typeRef() {}

func (t *FixedIntegerType) Name() string {
	if t.Signed {
		return fmt.Sprintf("i%d", t.Bits)
	}
	return fmt.Sprintf("u%d", t.Bits)
}

func (t *FixedIntegerType) CName() string {
	if t.Signed {
		return fmt.Sprintf("int%d_t", t.Bits)
	}
	return fmt.Sprintf("uint%d_t", t.Bits)
}

func (t *FixedIntegerType) RustName() string { return t.Name() }
func (t *FixedIntegerType) String() string   { return t.Name() }

var fixedIntegerPattern = regexp.MustCompile(`^([iu])(8|16|32|64)$`)

// ParseFixedInteger recognizes a fixed-width integer spelling.
func ParseFixedInteger(name string) (*FixedIntegerType, bool) {
	m := fixedIntegerPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, false
	}
	var bits int
	switch m[2] {
	case "8":
		bits = 8
	case "16":
		bits = 16
	case "32":
		bits = 32
	case "64":
		bits = 64
	}
	return &FixedIntegerType{Bits: bits, Signed: m[1] == "i"}, true
}

// ---------------------------------------------------------------------------
// References
// ---------------------------------------------------------------------------

// ReferenceType is a resolved reference with its ownership kind and
// optionality.
type ReferenceType struct {
	Target   ResolvedType
	Kind     ReferenceKind
	Optional bool
}

func (t *ReferenceType) typeRef() {}

func (t *ReferenceType) Name() string {
	name := fmt.Sprintf("%s %s", t.Kind, t.Target.Name())
	if t.Kind == Immutable {
		name = "&" + t.Target.Name()
	}
	if t.Optional {
		return "opt " + name
	}
	return name
}

func (t *ReferenceType) CName() string {
	// Everything is a pointer in C; optionality doesn't change the spelling.
	if t.Kind == Immutable {
		return fmt.Sprintf("const %s*", t.Target.CName())
	}
	return fmt.Sprintf("%s*", t.Target.CName())
}

func (t *ReferenceType) RustName() string {
	var ref string
	switch t.Kind {
	case Immutable:
		ref = fmt.Sprintf("&%s", t.Target.RustName())
	case Mutable:
		ref = fmt.Sprintf("&mut %s", t.Target.RustName())
	case Owned, Raw:
		// Rust has no native spelling for these; map to raw pointers and
		// drop nullability.
		return fmt.Sprintf("*mut %s", t.Target.RustName())
	}
	if t.Optional {
		return fmt.Sprintf("Option<%s>", ref)
	}
	return ref
}

func (t *ReferenceType) String() string { return t.Name() }

// ---------------------------------------------------------------------------
// Declared type handles
// ---------------------------------------------------------------------------

// OpaqueType is a resolved handle to a declared opaque type. Def is a back
// reference used for name emission only; the TypeContext owns the lookup.
type OpaqueType struct {
	Def *OpaqueTypeDef
}

func (t *OpaqueType) typeRef()         {}
func (t *OpaqueType) Name() string     { return t.Def.Name }
func (t *OpaqueType) CName() string    { return t.Def.Name }
func (t *OpaqueType) RustName() string { return t.Def.Name }
func (t *OpaqueType) String() string   { return t.Def.Name }

// InterfaceType is a resolved handle to a declared interface.
type InterfaceType struct {
	Def *InterfaceDef
}

func (t *InterfaceType) typeRef()         {}
func (t *InterfaceType) Name() string     { return t.Def.Name }
func (t *InterfaceType) CName() string    { return t.Def.Name }
func (t *InterfaceType) RustName() string { return t.Def.Name }
func (t *InterfaceType) String() string   { return t.Def.Name }
