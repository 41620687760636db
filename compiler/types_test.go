package compiler

import "testing"

func TestBuiltinSpellings(t *testing.T) {
	tests := []struct {
		name string
		c11  string
		rust string
	}{
		{"unit", "void", "()"},
		{"int", "int", "i32"},
		{"byte", "char", "u8"},
		{"double", "double", "f64"},
		{"bool", "bool", "bool"},
		{"usize", "size_t", "usize"},
		{"isize", "intptr_t", "isize"},
	}

	for _, tc := range tests {
		builtin, ok := LookupBuiltin(tc.name)
		if !ok {
			t.Fatalf("LookupBuiltin(%q) = false", tc.name)
		}
		if builtin.Name() != tc.name {
			t.Errorf("%s: Name = %q", tc.name, builtin.Name())
		}
		if builtin.CName() != tc.c11 {
			t.Errorf("%s: CName = %q, want %q", tc.name, builtin.CName(), tc.c11)
		}
		if builtin.RustName() != tc.rust {
			t.Errorf("%s: RustName = %q, want %q", tc.name, builtin.RustName(), tc.rust)
		}
	}

	if _, ok := LookupBuiltin("float"); ok {
		t.Error("LookupBuiltin(float) = true, want false")
	}
}

func TestParseFixedInteger(t *testing.T) {
	tests := []struct {
		name   string
		bits   int
		signed bool
		c11    string
	}{
		{"i8", 8, true, "int8_t"},
		{"i16", 16, true, "int16_t"},
		{"i32", 32, true, "int32_t"},
		{"i64", 64, true, "int64_t"},
		{"u8", 8, false, "uint8_t"},
		{"u16", 16, false, "uint16_t"},
		{"u32", 32, false, "uint32_t"},
		{"u64", 64, false, "uint64_t"},
	}

	for _, tc := range tests {
		fixed, ok := ParseFixedInteger(tc.name)
		if !ok {
			t.Fatalf("ParseFixedInteger(%q) = false", tc.name)
		}
		if fixed.Bits != tc.bits || fixed.Signed != tc.signed {
			t.Errorf("%s: got %d bits signed=%t", tc.name, fixed.Bits, fixed.Signed)
		}
		if fixed.CName() != tc.c11 {
			t.Errorf("%s: CName = %q, want %q", tc.name, fixed.CName(), tc.c11)
		}
		if fixed.RustName() != tc.name {
			t.Errorf("%s: RustName = %q", tc.name, fixed.RustName())
		}
	}

	for _, bad := range []string{"i128", "u7", "i", "int8", "x32"} {
		if _, ok := ParseFixedInteger(bad); ok {
			t.Errorf("ParseFixedInteger(%q) = true, want false", bad)
		}
	}
}

func TestReferenceTypeSpellings(t *testing.T) {
	opaque := &OpaqueType{Def: &OpaqueTypeDef{Name: "DuckObject"}}
	tests := []struct {
		ref  *ReferenceType
		name string
		c11  string
		rust string
	}{
		{&ReferenceType{Target: ByteType, Kind: Immutable}, "&byte", "const char*", "&u8"},
		{&ReferenceType{Target: UsizeType, Kind: Mutable}, "&mut usize", "size_t*", "&mut usize"},
		{&ReferenceType{Target: opaque, Kind: Owned}, "&own DuckObject", "DuckObject*", "*mut DuckObject"},
		{&ReferenceType{Target: ByteType, Kind: Raw}, "&raw byte", "char*", "*mut u8"},
		{&ReferenceType{Target: opaque, Kind: Immutable, Optional: true}, "opt &DuckObject", "const DuckObject*", "Option<&DuckObject>"},
		{&ReferenceType{Target: opaque, Kind: Mutable, Optional: true}, "opt &mut DuckObject", "DuckObject*", "Option<&mut DuckObject>"},
	}

	for _, tc := range tests {
		if tc.ref.Name() != tc.name {
			t.Errorf("Name = %q, want %q", tc.ref.Name(), tc.name)
		}
		if tc.ref.CName() != tc.c11 {
			t.Errorf("%s: CName = %q, want %q", tc.name, tc.ref.CName(), tc.c11)
		}
		if tc.ref.RustName() != tc.rust {
			t.Errorf("%s: RustName = %q, want %q", tc.name, tc.ref.RustName(), tc.rust)
		}
	}
}

func TestReferenceKindString(t *testing.T) {
	tests := map[ReferenceKind]string{
		Immutable: "&",
		Mutable:   "&mut",
		Owned:     "&own",
		Raw:       "&raw",
	}
	for kind, want := range tests {
		if kind.String() != want {
			t.Errorf("%d: String = %q, want %q", int(kind), kind.String(), want)
		}
	}
}
