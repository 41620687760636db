package compiler

import (
	"strings"
	"testing"
)

func TestDocStringJavadocRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"single line", []string{"An example type."}},
		{"blank interior line", []string{"First line", "", "Second line"}},
		{"trailing detail", []string{"Summary.", "", "Details about", "the example."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &DocString{Lines: tt.lines}
			source := strings.Join(doc.RenderJavadoc(), "\n") + "\nopaque type Example;"
			module, err := ParseModule("test", source)
			if err != nil {
				t.Fatalf("ParseModule failed on rendered doc: %v", err)
			}
			parsed := module.Items[0].Doc()
			if parsed == nil {
				t.Fatal("rendered doc comment was not reattached")
			}
			if len(parsed.Lines) != len(tt.lines) {
				t.Fatalf("expected %d lines, got %d: %q", len(tt.lines), len(parsed.Lines), parsed.Lines)
			}
			for i, line := range tt.lines {
				if parsed.Lines[i] != line {
					t.Errorf("line %d: expected %q, got %q", i, line, parsed.Lines[i])
				}
			}
		})
	}
}

func TestDocStringRenderJavadoc(t *testing.T) {
	doc := &DocString{Lines: []string{"First line", "", "Second line"}}
	expected := []string{"/**", " * First line", " *", " * Second line", " */"}
	got := doc.RenderJavadoc()
	if len(got) != len(expected) {
		t.Fatalf("expected %d lines, got %d: %q", len(expected), len(got), got)
	}
	for i, line := range expected {
		if got[i] != line {
			t.Errorf("line %d: expected %q, got %q", i, line, got[i])
		}
	}
}

func TestDocStringRenderTripleSlash(t *testing.T) {
	doc := &DocString{Lines: []string{"First line", "", "Second line"}}
	expected := []string{"/// First line", "///", "/// Second line"}
	got := doc.RenderTripleSlash()
	if len(got) != len(expected) {
		t.Fatalf("expected %d lines, got %d: %q", len(expected), len(got), got)
	}
	for i, line := range expected {
		if got[i] != line {
			t.Errorf("line %d: expected %q, got %q", i, line, got[i])
		}
	}
}

func TestDocStringWithExtraLines(t *testing.T) {
	doc := &DocString{Lines: []string{"Original"}}
	extended := doc.WithExtraLines("", "Appended")
	if len(doc.Lines) != 1 {
		t.Fatalf("WithExtraLines mutated the receiver: %q", doc.Lines)
	}
	expected := []string{"Original", "", "Appended"}
	if len(extended.Lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d: %q", len(expected), len(extended.Lines), extended.Lines)
	}
	for i, line := range expected {
		if extended.Lines[i] != line {
			t.Errorf("line %d: expected %q, got %q", i, line, extended.Lines[i])
		}
	}
}
