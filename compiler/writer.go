package compiler

import (
	"fmt"
	"strings"
)

// CodeWriter accumulates generated source text with four-space indentation.
type CodeWriter struct {
	buf    strings.Builder
	indent int
}

const indentUnit = "    "

// Writeln writes one indented line.
func (w *CodeWriter) Writeln(format string, args ...any) {
	for i := 0; i < w.indent; i++ {
		w.buf.WriteString(indentUnit)
	}
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

// Blank writes an empty line.
func (w *CodeWriter) Blank() {
	w.buf.WriteByte('\n')
}

// Indented runs fn with the indent level raised by one.
func (w *CodeWriter) Indented(fn func()) {
	w.indent++
	fn()
	w.indent--
}

// String returns everything written so far.
func (w *CodeWriter) String() string {
	return w.buf.String()
}
