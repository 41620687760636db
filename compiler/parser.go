package compiler

import (
	"strings"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for Ivan interface definitions
//
// The parser walks a pre-lexed token slice with an explicit cursor and
// arbitrary index-based lookahead. Every malformed construct fails
// immediately with a ParseError carrying the offending span; there is no
// recovery or synchronization.
// ---------------------------------------------------------------------------

// Parser parses Ivan source code into a Module.
type Parser struct {
	tokens   []Token
	index    int
	lastSpan Span // span of the last token, for EOF errors
}

// NewParser creates a parser over a token slice.
func NewParser(tokens []Token) *Parser {
	p := &Parser{tokens: tokens, lastSpan: Span{Line: 1}}
	if len(tokens) > 0 {
		p.lastSpan = tokens[len(tokens)-1].Span
	}
	return p
}

// ParseModule tokenizes source and parses it into a module with the given
// dotted name.
func ParseModule(name, source string) (*Module, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	var items []Item
	for p.remaining() > 0 {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return NewModule(name, items)
}

// ---------------------------------------------------------------------------
// Cursor helpers
// ---------------------------------------------------------------------------

func (p *Parser) remaining() int {
	return len(p.tokens) - p.index
}

// currentSpan returns the span of the current token, or of the last token
// once the stream is exhausted.
func (p *Parser) currentSpan() Span {
	if p.index < len(p.tokens) {
		return p.tokens[p.index].Span
	}
	return p.lastSpan
}

// peek returns the current token without consuming it.
func (p *Parser) peek() (Token, bool) {
	return p.look(0)
}

// look returns the token ahead positions past the current one.
func (p *Parser) look(ahead int) (Token, bool) {
	if p.index+ahead < len(p.tokens) {
		return p.tokens[p.index+ahead], true
	}
	return Token{}, false
}

// pop consumes and returns the current token.
func (p *Parser) pop() (Token, error) {
	if p.index >= len(p.tokens) {
		return Token{}, parseErrorf(p.lastSpan, "unexpected EOF")
	}
	t := p.tokens[p.index]
	p.index++
	return t, nil
}

func (p *Parser) expectSymbol(symbol rune) (Token, error) {
	tok, ok := p.peek()
	if !ok || !tok.IsSymbol(symbol) {
		actual := "EOF"
		if ok {
			actual = tok.Literal
		}
		return Token{}, parseErrorf(p.currentSpan(), "expected symbol %q but got %s", symbol, actual)
	}
	p.index++
	return tok, nil
}

func (p *Parser) expectKeyword(keyword string) (Token, error) {
	tok, ok := p.peek()
	if !ok || !tok.IsKeyword(keyword) {
		actual := "EOF"
		if ok {
			actual = tok.Literal
		}
		return Token{}, parseErrorf(p.currentSpan(), "expected keyword %q but got %s", keyword, actual)
	}
	p.index++
	return tok, nil
}

func (p *Parser) expectIdentifier() (Token, error) {
	tok, ok := p.peek()
	if !ok || tok.Type != TokenIdentifier {
		return Token{}, parseErrorf(p.currentSpan(), "expected identifier")
	}
	p.index++
	return tok, nil
}

// ---------------------------------------------------------------------------
// Item headers: doc comment, annotations, modifiers
// ---------------------------------------------------------------------------

// itemHeader collects the data that comes before an item keyword.
type itemHeader struct {
	span        Span
	doc         *DocString
	annotations []Annotation
	modifiers   map[string]bool
}

func (h *itemHeader) checkModifiers(span Span, allowed ...string) error {
	for mod := range h.modifiers {
		ok := false
		for _, a := range allowed {
			if mod == a {
				ok = true
				break
			}
		}
		if !ok {
			return parseErrorf(span, "unexpected modifier %q", mod)
		}
	}
	return nil
}

func (p *Parser) parseItemHeader() (*itemHeader, error) {
	header := &itemHeader{span: p.currentSpan(), modifiers: map[string]bool{}}
	if tok, ok := p.peek(); ok && tok.Type == TokenDocComment {
		doc, err := p.parseDocString()
		if err != nil {
			return nil, err
		}
		header.doc = doc
	}
	for {
		tok, ok := p.peek()
		if !ok || !tok.IsSymbol('@') {
			break
		}
		ann, err := p.parseAnnotation()
		if err != nil {
			return nil, err
		}
		header.annotations = append(header.annotations, *ann)
	}
	if tok, ok := p.peek(); ok && tok.IsKeyword("default") {
		p.index++
		header.modifiers["default"] = true
	}
	return header, nil
}

// parseDocString consumes a doc-comment token and splits it into logical
// lines. Every non-blank interior line must start with '* ' or be a bare
// '*'.
func (p *Parser) parseDocString() (*DocString, error) {
	tok, err := p.pop()
	if err != nil {
		return nil, err
	}
	var lines []string
	for offset, line := range strings.Split(tok.Literal, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			// Fully blank raw lines carry no content.
		case trimmed == "*":
			lines = append(lines, "")
		case strings.HasPrefix(trimmed, "* "):
			lines = append(lines, trimmed[len("* "):])
		default:
			return nil, parseErrorf(tok.Span,
				"expected doc line to start with `* ` (around line %d)", tok.Span.Line+offset)
		}
	}
	return &DocString{Lines: lines, SpanVal: tok.Span}, nil
}

// ---------------------------------------------------------------------------
// Annotations
// ---------------------------------------------------------------------------

func (p *Parser) parseAnnotationValue() (AnnotationValue, error) {
	tok, err := p.pop()
	if err != nil {
		return AnnotationValue{}, err
	}
	switch {
	case tok.Type == TokenStringLiteral:
		return NewStringValue(tok.Literal), nil
	case tok.IsKeyword("true"):
		return NewBoolValue(true), nil
	case tok.IsKeyword("false"):
		return NewBoolValue(false), nil
	default:
		return AnnotationValue{}, parseErrorf(tok.Span, "expected annotation value")
	}
}

func (p *Parser) parseAnnotation() (*Annotation, error) {
	if _, err := p.expectSymbol('@'); err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	ann := &Annotation{Name: nameTok.Literal, SpanVal: nameTok.Span}

	tok, ok := p.peek()
	if !ok || !tok.IsSymbol('(') {
		return ann, nil // bare annotation
	}
	p.index++
	ann.Values = map[string]AnnotationValue{}
	for {
		tok, ok := p.peek()
		switch {
		case !ok:
			return nil, parseErrorf(nameTok.Span, "expected closing paren for annotation @%s", ann.Name)
		case tok.Type == TokenIdentifier:
			p.index++
			key := tok.Literal
			if _, dup := ann.Values[key]; dup {
				return nil, parseErrorf(tok.Span, "duplicate annotation value %q in @%s", key, ann.Name)
			}
			if _, err := p.expectSymbol('='); err != nil {
				return nil, err
			}
			value, err := p.parseAnnotationValue()
			if err != nil {
				return nil, err
			}
			ann.Values[key] = value
			ann.Keys = append(ann.Keys, key)
		case tok.IsSymbol(','):
			p.index++
		case tok.IsSymbol(')'):
			p.index++
			return ann, nil
		default:
			return nil, parseErrorf(tok.Span, "unexpected token %q", tok.Literal)
		}
	}
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

func (p *Parser) parseItem() (Item, error) {
	header, err := p.parseItemHeader()
	if err != nil {
		return nil, err
	}
	tok, ok := p.peek()
	if !ok {
		return nil, parseErrorf(p.currentSpan(), "unexpected EOF: expected item")
	}
	switch {
	case tok.IsKeyword("fun"):
		return p.parseFunctionDeclaration(header)
	case tok.IsKeyword("interface"):
		return p.parseInterface(header)
	case tok.IsKeyword("struct"):
		return p.parseStruct(header)
	case tok.IsKeyword("opaque"):
		return p.parseOpaqueType(header)
	default:
		return nil, parseErrorf(tok.Span, "expected item but got %q", tok.Literal)
	}
}

func (p *Parser) parseOpaqueType(header *itemHeader) (*OpaqueTypeDef, error) {
	if err := header.checkModifiers(p.currentSpan()); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("opaque"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("type"); err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(';'); err != nil {
		return nil, err
	}
	return &OpaqueTypeDef{
		Name:        nameTok.Literal,
		SpanVal:     nameTok.Span,
		DocString:   header.doc,
		Annotations: header.annotations,
	}, nil
}

func (p *Parser) parseStruct(header *itemHeader) (*StructDef, error) {
	if err := header.checkModifiers(p.currentSpan()); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("struct"); err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol('{'); err != nil {
		return nil, err
	}

	def := &StructDef{
		Name:        nameTok.Literal,
		SpanVal:     nameTok.Span,
		DocString:   header.doc,
		Annotations: header.annotations,
	}
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, parseErrorf(nameTok.Span, "expected closing brace for %s", def.Name)
		}
		if tok.IsSymbol('}') {
			p.index++
			return def, nil
		}
		member, err := p.parseTypeMember()
		if err != nil {
			return nil, err
		}
		field, ok := member.(*FieldDef)
		if !ok {
			return nil, parseErrorf(member.Span(), "structs may only contain fields")
		}
		if def.Field(field.Name) != nil {
			return nil, parseErrorf(field.SpanVal, "duplicate field %q", field.Name)
		}
		def.Fields = append(def.Fields, field)
	}
}

func (p *Parser) parseInterface(header *itemHeader) (*InterfaceDef, error) {
	if err := header.checkModifiers(p.currentSpan()); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("interface"); err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol('{'); err != nil {
		return nil, err
	}

	def := &InterfaceDef{
		Name:        nameTok.Literal,
		SpanVal:     nameTok.Span,
		DocString:   header.doc,
		Annotations: header.annotations,
	}
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, parseErrorf(nameTok.Span, "expected closing brace for %s", def.Name)
		}
		if tok.IsSymbol('}') {
			p.index++
			return def, nil
		}
		member, err := p.parseTypeMember()
		if err != nil {
			return nil, err
		}
		if def.Member(member.MemberName()) != nil {
			return nil, parseErrorf(member.Span(), "duplicate member %q", member.MemberName())
		}
		def.Members = append(def.Members, member)
	}
}

// parseTypeMember parses a field or function member, with its own optional
// header.
func (p *Parser) parseTypeMember() (TypeMember, error) {
	header, err := p.parseItemHeader()
	if err != nil {
		return nil, err
	}
	tok, ok := p.peek()
	if !ok {
		return nil, parseErrorf(p.currentSpan(), "unexpected EOF: expected type member")
	}
	switch {
	case tok.IsKeyword("fun"):
		return p.parseFunctionDeclaration(header)
	case tok.IsKeyword("field"):
		return p.parseFieldDef(header)
	default:
		return nil, parseErrorf(tok.Span, "expected type member but got %q", tok.Literal)
	}
}

func (p *Parser) parseFieldDef(header *itemHeader) (*FieldDef, error) {
	if err := header.checkModifiers(p.currentSpan()); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("field"); err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(':'); err != nil {
		return nil, err
	}
	fieldType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(';'); err != nil {
		return nil, err
	}
	return &FieldDef{
		Name:        nameTok.Literal,
		SpanVal:     nameTok.Span,
		DocString:   header.doc,
		Annotations: header.annotations,
		Type:        fieldType,
	}, nil
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

func (p *Parser) parseFunctionDeclaration(header *itemHeader) (*FunctionDeclaration, error) {
	if err := header.checkModifiers(p.currentSpan(), "default"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("fun"); err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	signature, err := p.parseFunctionSignature()
	if err != nil {
		return nil, err
	}

	// The modifier, not the presence of a body, decides whether a body is a
	// default implementation.
	isDefault := header.modifiers["default"]

	var body *FunctionBody
	tok, ok := p.peek()
	switch {
	case ok && tok.IsSymbol(';'):
		p.index++
	case ok && tok.IsSymbol('{'):
		body, err = p.parseFunctionBody(isDefault)
		if err != nil {
			return nil, err
		}
	default:
		return nil, parseErrorf(p.currentSpan(), "expected ';' or function body")
	}
	if isDefault && body == nil {
		return nil, parseErrorf(nameTok.Span, "default function must have a body")
	}
	return &FunctionDeclaration{
		Name:        nameTok.Literal,
		SpanVal:     nameTok.Span,
		DocString:   header.doc,
		Annotations: header.annotations,
		Signature:   signature,
		Body:        body,
	}, nil
}

func (p *Parser) parseFunctionSignature() (*FunctionSignature, error) {
	openTok, err := p.expectSymbol('(')
	if err != nil {
		return nil, err
	}
	var args []Argument
loop:
	for {
		tok, ok := p.peek()
		switch {
		case !ok:
			return nil, parseErrorf(openTok.Span, "expected closing paren for argument list")
		case tok.IsSymbol(')'):
			p.index++
			break loop
		case tok.IsKeyword("self") || tok.IsSymbol('&'):
			arg, err := p.parseSelfArgument()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if done, err := p.parseArgSeparator(); err != nil {
				return nil, err
			} else if done {
				break loop
			}
		case tok.Type == TokenIdentifier:
			p.index++
			if _, err := p.expectSymbol(':'); err != nil {
				return nil, err
			}
			argType, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, &SimpleArgument{
				Name:         tok.Literal,
				DeclaredType: argType,
				SpanVal:      tok.Span,
			})
			if done, err := p.parseArgSeparator(); err != nil {
				return nil, err
			} else if done {
				break loop
			}
		default:
			return nil, parseErrorf(tok.Span, "unexpected token %q", tok.Literal)
		}
	}

	returnType, err := p.parseReturnType()
	if err != nil {
		return nil, err
	}
	return NewFunctionSignature(args, returnType)
}

// parseArgSeparator consumes ',' (more arguments follow) or ')' (done).
func (p *Parser) parseArgSeparator() (done bool, err error) {
	tok, err := p.pop()
	if err != nil {
		return false, err
	}
	switch {
	case tok.IsSymbol(','):
		return false, nil
	case tok.IsSymbol(')'):
		return true, nil
	default:
		return false, parseErrorf(tok.Span, "unexpected token %q", tok.Literal)
	}
}

// parseSelfArgument parses 'self' or '&[mut|own|raw] self'.
func (p *Parser) parseSelfArgument() (*SelfArgument, error) {
	tok, err := p.pop()
	if err != nil {
		return nil, err
	}
	if tok.IsKeyword("self") {
		return &SelfArgument{SpanVal: tok.Span}, nil
	}
	// '&' reference form
	kind, err := p.parseReferenceKind()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("self"); err != nil {
		return nil, err
	}
	return &SelfArgument{ByRef: true, RefKind: kind, SpanVal: tok.Span}, nil
}

// parseReturnType handles the declaration tail: an explicit ': T' before
// the terminator, or an implicit unit return.
func (p *Parser) parseReturnType() (TypeRef, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, parseErrorf(p.currentSpan(), "unexpected EOF: expected return type or ';'")
	}
	switch {
	case tok.IsSymbol(';') || tok.IsSymbol('{'):
		// The terminator doubles as an implicit unit reference.
		return &NamedTypeRef{Name: "unit", UsageSpan: tok.Span}, nil
	case tok.IsSymbol(':'):
		p.index++
		return p.parseType()
	default:
		return nil, parseErrorf(tok.Span, "unexpected token %q", tok.Literal)
	}
}

func (p *Parser) parseFunctionBody(isDefault bool) (*FunctionBody, error) {
	openTok, err := p.expectSymbol('{')
	if err != nil {
		return nil, err
	}
	body := &FunctionBody{Default: isDefault, SpanVal: openTok.Span}
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, parseErrorf(openTok.Span, "expected closing brace for function body")
		}
		if tok.IsSymbol('}') {
			p.index++
			return body, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body.Statements = append(body.Statements, stmt)
	}
}

// ---------------------------------------------------------------------------
// Statements and expressions
// ---------------------------------------------------------------------------

func (p *Parser) parseStatement() (Statement, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, parseErrorf(p.currentSpan(), "unexpected EOF: expected statement")
	}
	if !tok.IsKeyword("return") {
		return nil, parseErrorf(tok.Span, "expected statement but got %q", tok.Literal)
	}
	p.index++
	stmt := &ReturnStatement{SpanVal: tok.Span}
	if next, ok := p.peek(); ok && next.IsSymbol(';') {
		p.index++
		return stmt, nil
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	stmt.Value = value
	if _, err := p.expectSymbol(';'); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseExpr() (Expr, error) {
	tok, err := p.pop()
	if err != nil {
		return nil, err
	}
	if tok.IsKeyword("null") {
		return &NullExpr{SpanVal: tok.Span}, nil
	}
	return nil, parseErrorf(tok.Span, "expected expression but got %q", tok.Literal)
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// parseReferenceKind consumes the '&' and the optional kind keyword of a
// reference type.
func (p *Parser) parseReferenceKind() (ReferenceKind, error) {
	tok, ok := p.peek()
	if !ok {
		return Immutable, parseErrorf(p.currentSpan(), "unexpected EOF after '&'")
	}
	switch {
	case tok.IsKeyword("raw"):
		p.index++
		return Raw, nil
	case tok.IsKeyword("own"):
		p.index++
		return Owned, nil
	case tok.IsKeyword("mut"):
		p.index++
		return Mutable, nil
	default:
		return Immutable, nil
	}
}

func (p *Parser) parseType() (TypeRef, error) {
	tok, err := p.pop()
	if err != nil {
		return nil, parseErrorf(p.lastSpan, "unexpected EOF: expected type")
	}
	switch {
	case tok.IsSymbol('&'):
		kind, err := p.parseReferenceKind()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ReferenceTypeRef{Inner: inner, Kind: kind, UsageSpan: tok.Span}, nil

	case tok.IsKeyword("opt"):
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ref, ok := inner.(*ReferenceTypeRef)
		if !ok {
			return nil, parseErrorf(tok.Span, "only references can be optional")
		}
		return &OptionalTypeRef{Inner: ref, UsageSpan: tok.Span}, nil

	case tok.Type == TokenIdentifier:
		return &NamedTypeRef{Name: tok.Literal, UsageSpan: tok.Span}, nil

	default:
		return nil, parseErrorf(tok.Span, "unexpected token %q", tok.Literal)
	}
}
