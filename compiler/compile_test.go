package compiler

import (
	"errors"
	"strings"
	"testing"
)

// resolveTestMethod parses a module whose first interface's first method is
// the function under test, resolved and ready for the body compiler.
func resolveTestMethod(t *testing.T, source string) *FunctionDeclaration {
	t.Helper()
	module, err := ParseModule("test", source)
	if err != nil {
		t.Fatalf("ParseModule failed: %v", err)
	}
	ctx, err := BuildContext(module)
	if err != nil {
		t.Fatalf("BuildContext failed: %v", err)
	}
	module, err = ResolveModule(ctx, module)
	if err != nil {
		t.Fatalf("ResolveModule failed: %v", err)
	}
	for _, item := range module.Items {
		if def, ok := item.(*InterfaceDef); ok {
			return def.Methods()[0]
		}
	}
	t.Fatal("no interface in fixture")
	return nil
}

func compileTestBody(fn *FunctionDeclaration) (string, error) {
	c, err := newBodyCompiler(c11Target{}, fn)
	if err != nil {
		return "", err
	}
	w := &CodeWriter{}
	if err := c.CompileBody(fn.Body, w); err != nil {
		return "", err
	}
	return w.String(), nil
}

func TestCompileUnitReturn(t *testing.T) {
	fn := resolveTestMethod(t, `
interface I {
    default fun stop() {
        return;
    }
}`)
	out, err := compileTestBody(fn)
	if err != nil {
		t.Fatalf("CompileBody failed: %v", err)
	}
	if out != "return;\n" {
		t.Errorf("output = %q", out)
	}
}

func TestCompileBareReturnNeedsUnit(t *testing.T) {
	fn := resolveTestMethod(t, `
interface I {
    default fun count(): usize {
        return;
    }
}`)
	_, err := compileTestBody(fn)
	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("error = %v, want *CompileError", err)
	}
	if !strings.Contains(err.Error(), "no return value") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestCompileNullAgainstOptionalReference(t *testing.T) {
	fn := resolveTestMethod(t, `
opaque type DuckObject;
interface I {
    default fun view(): opt &DuckObject {
        return null;
    }
}`)
	out, err := compileTestBody(fn)
	if err != nil {
		t.Fatalf("CompileBody failed: %v", err)
	}
	if out != "return NULL;\n" {
		t.Errorf("output = %q", out)
	}
}

func TestCompileNullNeedsOptional(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"plain reference", `
opaque type DuckObject;
interface I {
    default fun view(): &DuckObject {
        return null;
    }
}`},
		{"non-reference", `
interface I {
    default fun count(): usize {
        return null;
    }
}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fn := resolveTestMethod(t, tc.source)
			_, err := compileTestBody(fn)
			var incompatible *IncompatibleTypeError
			if !errors.As(err, &incompatible) {
				t.Fatalf("error = %v, want *IncompatibleTypeError", err)
			}
			if incompatible.Actual != "null reference" {
				t.Errorf("actual = %q", incompatible.Actual)
			}
		})
	}
}
