package compiler

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for Ivan interface-definition syntax
// ---------------------------------------------------------------------------

// Lexer tokenizes Ivan source code. Tokens are produced lazily through Next;
// a lexer is not resumable after an error and is restarted by creating a new
// one over the same text.
type Lexer struct {
	input     string
	pos       int // byte offset of the current character
	line      int // current line (1-based)
	lineStart int // byte offset of the current line start
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

// span returns the span of the current character.
func (l *Lexer) span() Span {
	return Span{Line: l.line, Column: l.pos - l.lineStart}
}

// peek returns the character ahead runes past the current one, or 0 at EOF.
func (l *Lexer) peek(ahead int) rune {
	pos := l.pos
	for ; ahead > 0; ahead-- {
		_, size := utf8.DecodeRuneInString(l.input[pos:])
		pos += size
		if pos >= len(l.input) {
			return 0
		}
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos:])
	return r
}

// current returns the current character, or 0 at EOF.
func (l *Lexer) current() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// advance consumes the current character.
func (l *Lexer) advance() {
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.lineStart = l.pos
	}
}

// Next returns the next token, or TokenEOF once the input is exhausted.
// Every lexical error is fatal and carries the span where it was detected.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespaceAndComments()

	pos := l.span()
	ch := l.current()

	switch {
	case ch == 0:
		return Token{Type: TokenEOF, Span: pos}, nil

	case validSymbols[ch]:
		l.advance()
		return Token{Type: TokenSymbol, Literal: string(ch), Span: pos}, nil

	case ch == '/':
		// '//' comments were skipped above, so this must open a doc comment.
		return l.readDocComment(pos)

	case ch == '"':
		return l.readString(pos)

	case isIdentStart(ch):
		return l.readIdentifierOrKeyword(pos), nil

	default:
		return Token{}, parseErrorf(pos, "unexpected character %q", ch)
	}
}

// skipWhitespaceAndComments skips whitespace and '//' line comments.
// Doc comments are tokens, not trivia, and are left for Next.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for unicode.IsSpace(l.current()) {
			l.advance()
		}
		if l.current() == '/' && l.peek(1) == '/' {
			for l.current() != '\n' && l.current() != 0 {
				l.advance()
			}
			continue
		}
		break
	}
}

// readDocComment reads a '/** ... */' doc comment. The opening must be
// exactly '/**' followed by a newline; any other '/*' spelling is rejected.
func (l *Lexer) readDocComment(pos Span) (Token, error) {
	if l.peek(1) != '*' {
		return Token{}, parseErrorf(pos, "unexpected character %q", l.current())
	}
	if l.peek(2) != '*' || l.peek(3) == '*' {
		return Token{}, parseErrorf(pos, "block comments are unsupported")
	}
	l.advance() // /
	l.advance() // *
	l.advance() // *
	if l.current() != '\n' {
		return Token{}, parseErrorf(l.span(), "expected newline after /**")
	}
	l.advance()

	end := strings.Index(l.input[l.pos:], "*/")
	if end < 0 {
		return Token{}, parseErrorf(pos, "unable to find end of comment")
	}
	text := l.input[l.pos : l.pos+end]
	for range text {
		l.advance()
	}
	l.advance() // *
	l.advance() // /
	return Token{Type: TokenDocComment, Literal: strings.TrimSpace(text), Span: pos}, nil
}

// readString reads a '"'-delimited string literal. Only \\ and \" escapes
// are legal.
func (l *Lexer) readString(pos Span) (Token, error) {
	l.advance() // consume opening "

	var sb strings.Builder
	for {
		ch := l.current()
		switch ch {
		case 0:
			return Token{}, parseErrorf(pos, "unterminated string literal")
		case '"':
			l.advance()
			return Token{Type: TokenStringLiteral, Literal: sb.String(), Span: pos}, nil
		case '\\':
			switch l.peek(1) {
			case '\\':
				sb.WriteRune('\\')
			case '"':
				sb.WriteRune('"')
			default:
				return Token{}, parseErrorf(l.span(), "invalid escape %q", l.peek(1))
			}
			l.advance()
			l.advance()
		default:
			sb.WriteRune(ch)
			l.advance()
		}
	}
}

// readIdentifierOrKeyword reads an identifier, classifying words from the
// fixed keyword set as keywords.
func (l *Lexer) readIdentifierOrKeyword(pos Span) Token {
	start := l.pos
	for isIdentStart(l.current()) || isDigit(l.current()) {
		l.advance()
	}
	literal := l.input[start:l.pos]
	if validKeywords[literal] {
		return Token{Type: TokenKeyword, Literal: literal, Span: pos}
	}
	return Token{Type: TokenIdentifier, Literal: literal, Span: pos}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokenize returns all tokens from the input, excluding the trailing EOF
// token, or the first lexical error encountered.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}
