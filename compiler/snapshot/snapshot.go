// Package snapshot produces deterministic, span-free snapshots of parsed
// modules. Snapshots are encoded as canonical CBOR and hashed with SHA-256,
// so two source files that declare the same items (ignoring whitespace and
// source positions) produce identical fingerprints.
package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/ivan-lang/ivan/compiler"
)

// SnapshotVersion is bumped whenever the snapshot encoding changes shape.
const SnapshotVersion = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ---------------------------------------------------------------------------
// Frozen snapshot types.
//
// These are stripped-down parallels of the compiler AST with no span data.
// Closed unions are flattened into a Kind discriminator plus one pointer per
// variant, which keeps the CBOR encoding free of interface values.
// ---------------------------------------------------------------------------

// Module is the snapshot of one parsed source unit.
type Module struct {
	Version int
	Name    string
	Items   []Item
}

// Item kinds.
const (
	KindOpaque    = "opaque"
	KindStruct    = "struct"
	KindInterface = "interface"
	KindFunction  = "fun"
	KindField     = "field"
)

// Item is one top-level declaration.
type Item struct {
	Kind        string
	Name        string
	Doc         []string     `cbor:",omitempty"`
	Annotations []Annotation `cbor:",omitempty"`
	Members     []Member     `cbor:",omitempty"` // struct and interface items
	Function    *Function    `cbor:",omitempty"` // function items
}

// Annotation is a snapshot of an '@Name(...)' tag. Values are rendered to
// their source spelling, in declaration order.
type Annotation struct {
	Name   string
	Keys   []string `cbor:",omitempty"`
	Values []string `cbor:",omitempty"`
}

// Member is one field or method slot of a struct or interface.
type Member struct {
	Kind     string
	Field    *Field    `cbor:",omitempty"`
	Function *Function `cbor:",omitempty"`
}

// Field is a snapshot of a typed field.
type Field struct {
	Name string
	Type string
	Doc  []string `cbor:",omitempty"`
}

// Function is a snapshot of a function declaration or interface method.
type Function struct {
	Name    string
	Doc     []string `cbor:",omitempty"`
	Args    []Arg    `cbor:",omitempty"`
	Return  string
	HasBody bool
	Default bool
}

// Arg is one signature parameter. Self arguments carry the receiver
// spelling instead of a name/type pair.
type Arg struct {
	Name string `cbor:",omitempty"`
	Type string `cbor:",omitempty"`
	Self string `cbor:",omitempty"` // "self", "&self", "&mut self", ...
}

// ---------------------------------------------------------------------------
// Normalization
// ---------------------------------------------------------------------------

// FromModule freezes a parsed module into its snapshot form.
func FromModule(m *compiler.Module) *Module {
	snap := &Module{Version: SnapshotVersion, Name: m.Name}
	for _, item := range m.Items {
		snap.Items = append(snap.Items, freezeItem(item))
	}
	return snap
}

func freezeItem(item compiler.Item) Item {
	out := Item{
		Name:        item.ItemName(),
		Doc:         freezeDoc(item.Doc()),
		Annotations: freezeAnnotations(item.ItemAnnotations()),
	}
	switch def := item.(type) {
	case *compiler.OpaqueTypeDef:
		out.Kind = KindOpaque
	case *compiler.StructDef:
		out.Kind = KindStruct
		for _, field := range def.Fields {
			frozen := freezeField(field)
			out.Members = append(out.Members, Member{Kind: KindField, Field: &frozen})
		}
	case *compiler.InterfaceDef:
		out.Kind = KindInterface
		for _, member := range def.Members {
			switch m := member.(type) {
			case *compiler.FieldDef:
				frozen := freezeField(m)
				out.Members = append(out.Members, Member{Kind: KindField, Field: &frozen})
			case *compiler.FunctionDeclaration:
				frozen := freezeFunction(m)
				out.Members = append(out.Members, Member{Kind: KindFunction, Function: &frozen})
			}
		}
	case *compiler.FunctionDeclaration:
		out.Kind = KindFunction
		frozen := freezeFunction(def)
		out.Function = &frozen
	}
	return out
}

func freezeDoc(doc *compiler.DocString) []string {
	if doc == nil {
		return nil
	}
	return doc.Lines
}

func freezeAnnotations(annotations []compiler.Annotation) []Annotation {
	var out []Annotation
	for _, ann := range annotations {
		frozen := Annotation{Name: ann.Name}
		for _, key := range ann.Keys {
			frozen.Keys = append(frozen.Keys, key)
			frozen.Values = append(frozen.Values, ann.Values[key].String())
		}
		out = append(out, frozen)
	}
	return out
}

func freezeField(field *compiler.FieldDef) Field {
	return Field{
		Name: field.Name,
		Type: field.Type.String(),
		Doc:  freezeDoc(field.DocString),
	}
}

func freezeFunction(fn *compiler.FunctionDeclaration) Function {
	out := Function{
		Name:    fn.Name,
		Doc:     freezeDoc(fn.DocString),
		Return:  fn.Signature.Return.String(),
		HasBody: fn.Body != nil,
		Default: fn.HasDefaultBody(),
	}
	for _, arg := range fn.Signature.Args {
		switch a := arg.(type) {
		case *compiler.SelfArgument:
			out.Args = append(out.Args, Arg{Self: selfSpelling(a)})
		case *compiler.SimpleArgument:
			out.Args = append(out.Args, Arg{Name: a.Name, Type: a.DeclaredType.String()})
		}
	}
	return out
}

func selfSpelling(a *compiler.SelfArgument) string {
	if !a.ByRef {
		return "self"
	}
	if a.RefKind == compiler.Immutable {
		return "&self"
	}
	return a.RefKind.String() + " self"
}
