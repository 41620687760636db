package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the Ivan lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// TokenEOF marks the end of the token stream.
	TokenEOF TokenType = iota

	TokenIdentifier    // hello, DuckObject
	TokenDocComment    // /** ... */
	TokenSymbol        // one of { } : ; , & * @ = ( )
	TokenKeyword       // interface, fun, opaque, ...
	TokenStringLiteral // "hello"
)

var tokenNames = map[TokenType]string{
	TokenEOF:           "EOF",
	TokenIdentifier:    "IDENTIFIER",
	TokenDocComment:    "DOC_COMMENT",
	TokenSymbol:        "SYMBOL",
	TokenKeyword:       "KEYWORD",
	TokenStringLiteral: "STRING",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Span is a position in the original source text.
// Lines are 1-based, columns 0-based.
type Span struct {
	Line   int
	Column int
}

func (s Span) String() string {
	return fmt.Sprintf("line %d, column %d", s.Line, s.Column)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string // the token text (string literals are unescaped)
	Span    Span   // start position
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// IsKeyword reports whether t is the given keyword. Asking about a word
// outside the fixed keyword set is a programming error.
func (t Token) IsKeyword(k string) bool {
	if !validKeywords[k] {
		panic(fmt.Sprintf("not a keyword: %q", k))
	}
	return t.Type == TokenKeyword && t.Literal == k
}

// IsSymbol reports whether t is the given symbol. Asking about a character
// outside the fixed symbol set is a programming error.
func (t Token) IsSymbol(s rune) bool {
	if !validSymbols[s] {
		panic(fmt.Sprintf("not a symbol: %q", s))
	}
	return t.Type == TokenSymbol && t.Literal == string(s)
}

// The closed keyword vocabulary. self/Self are reserved for method receivers,
// true/false double as annotation values.
var validKeywords = map[string]bool{
	"Self":      true,
	"self":      true,
	"interface": true,
	"struct":    true,
	"fun":       true,
	"raw":       true,
	"mut":       true,
	"own":       true,
	"opaque":    true,
	"type":      true,
	"true":      true,
	"false":     true,
	"opt":       true,
	"field":     true,
	"default":   true,
	"return":    true,
	"null":      true,
}

// The closed single-character symbol vocabulary.
var validSymbols = map[rune]bool{
	'{': true,
	'}': true,
	':': true,
	';': true,
	',': true,
	'&': true,
	'*': true,
	'@': true,
	'=': true,
	'(': true,
	')': true,
}
