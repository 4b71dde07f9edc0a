package isoliteral

import (
	"fmt"
)

// ParseError is the diagnostic-shaped failure a literal parse can produce
// (spec.md §4.4.2/§7 "Literal parse errors"): reported against the
// literal's span, it never aborts parsing of other literals in the same
// file.
type ParseError struct {
	Message string
	Span    Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d-%d: %s", e.Span.Start, e.Span.End, e.Message)
}

// parser is a recursive-descent parser over a peekableLexer, grounded on
// original_source/crates/isograph_lang_parser and
// original_source/crates/boulton_lang_parser/src/parse_bdeclare_literal.rs.
type parser struct {
	lex *peekableLexer
}

// Parse parses the text of a single iso literal into a Declaration, per
// spec.md §4.4.2. text is the content between the literal's backticks (not
// including the backticks themselves).
func Parse(text string) (Declaration, error) {
	p := &parser{lex: newPeekableLexer(text)}
	decl, err := p.parseDeclaration()
	if err != nil {
		return Declaration{}, err
	}
	if !p.lex.reachedEOF() {
		tok := p.lex.Peek()
		return Declaration{}, &ParseError{
			Message: fmt.Sprintf("unexpected trailing token %s", tok.Kind),
			Span:    tok.Span,
		}
	}
	return decl, nil
}

func (p *parser) parseDeclaration() (Declaration, error) {
	start := p.lex.Peek().Span

	description := p.parseOptionalDescription()

	keyword, err := p.expectIdentifier()
	if err != nil {
		return Declaration{}, err
	}

	var kind DeclarationKind
	switch keyword.Text {
	case "field":
		kind = DeclarationField
	case "pointer":
		kind = DeclarationPointer
	case "entrypoint":
		kind = DeclarationEntrypoint
	default:
		return Declaration{}, &ParseError{
			Message: fmt.Sprintf("expected one of 'field', 'pointer', 'entrypoint', found %q", keyword.Text),
			Span:    keyword.Span,
		}
	}

	parentType, err := p.expectIdentifier()
	if err != nil {
		return Declaration{}, err
	}
	if _, err := p.expect(TokenPeriod); err != nil {
		return Declaration{}, err
	}
	selectableName, err := p.expectIdentifier()
	if err != nil {
		return Declaration{}, err
	}

	decl := Declaration{
		Kind:           kind,
		ParentType:     parentType.Text,
		ParentTypeSpan: parentType.Span,
		SelectableName: selectableName.Text,
		Description:    description,
	}

	if kind == DeclarationPointer {
		if _, err := p.expectKeyword("to"); err != nil {
			return Declaration{}, err
		}
		target, err := p.parseTypeAnnotation()
		if err != nil {
			return Declaration{}, err
		}
		decl.PointerTarget = &target
	}

	if kind != DeclarationEntrypoint {
		vars, err := p.parseOptionalVariableDefinitions()
		if err != nil {
			return Declaration{}, err
		}
		decl.VariableDefinitions = vars
	}

	directives, err := p.parseDirectives()
	if err != nil {
		return Declaration{}, err
	}
	decl.Directives = directives

	if kind != DeclarationEntrypoint {
		set, err := p.parseOptionalSelectionSet()
		if err != nil {
			return Declaration{}, err
		}
		decl.SelectionSet = set
	}

	decl.Span = Span{start.Start, p.lex.Peek().Span.Start}
	return decl, nil
}

func (p *parser) parseOptionalDescription() string {
	tok := p.lex.Peek()
	if tok.Kind == TokenStringLiteral || tok.Kind == TokenBlockStringLiteral {
		p.lex.Advance()
		return unquote(tok.Text)
	}
	return ""
}

func (p *parser) expectIdentifier() (Token, error) {
	return p.expect(TokenIdentifier)
}

func (p *parser) expectKeyword(kw string) (Token, error) {
	tok := p.lex.Peek()
	if tok.Kind != TokenIdentifier || tok.Text != kw {
		return Token{}, &ParseError{Message: fmt.Sprintf("expected keyword %q, found %q", kw, tok.Text), Span: tok.Span}
	}
	return p.lex.Advance(), nil
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok := p.lex.Peek()
	if tok.Kind != kind {
		return Token{}, &ParseError{Message: fmt.Sprintf("expected %s, found %s", kind, tok.Kind), Span: tok.Span}
	}
	return p.lex.Advance(), nil
}

func (p *parser) parseTypeAnnotation() (TypeAnnotationShape, error) {
	if p.lex.Peek().Kind == TokenOpenBracket {
		p.lex.Advance()
		inner, err := p.parseTypeAnnotation()
		if err != nil {
			return TypeAnnotationShape{}, err
		}
		if _, err := p.expect(TokenCloseBracket); err != nil {
			return TypeAnnotationShape{}, err
		}
		nonNull := p.consumeExclamation()
		return TypeAnnotationShape{IsList: true, Inner: &inner, Nullable: !nonNull}, nil
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return TypeAnnotationShape{}, err
	}
	nonNull := p.consumeExclamation()
	return TypeAnnotationShape{TypeName: name.Text, Nullable: !nonNull}, nil
}

func (p *parser) consumeExclamation() bool {
	if p.lex.Peek().Kind == TokenExclamation {
		p.lex.Advance()
		return true
	}
	return false
}

func (p *parser) parseOptionalVariableDefinitions() ([]VariableDefinition, error) {
	if p.lex.Peek().Kind != TokenOpenParen {
		return nil, nil
	}
	p.lex.Advance()

	var defs []VariableDefinition
	for p.lex.Peek().Kind != TokenCloseParen {
		start := p.lex.Peek().Span
		if _, err := p.expect(TokenDollar); err != nil {
			return nil, err
		}
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		typ, err := p.parseTypeAnnotation()
		if err != nil {
			return nil, err
		}
		defs = append(defs, VariableDefinition{Name: name.Text, Type: typ, Span: Span{start.Start, p.lex.Peek().Span.Start}})
		if p.lex.Peek().Kind == TokenComma {
			p.lex.Advance()
		}
	}
	if _, err := p.expect(TokenCloseParen); err != nil {
		return nil, err
	}
	return defs, nil
}

func (p *parser) parseDirectives() ([]Directive, error) {
	var directives []Directive
	for p.lex.Peek().Kind == TokenAt {
		start := p.lex.Advance().Span
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		args, err := p.parseOptionalArguments()
		if err != nil {
			return nil, err
		}
		directives = append(directives, Directive{Name: name.Text, Args: args, Span: Span{start.Start, p.lex.Peek().Span.Start}})
	}
	return directives, nil
}

func (p *parser) parseOptionalArguments() ([]Argument, error) {
	if p.lex.Peek().Kind != TokenOpenParen {
		return nil, nil
	}
	p.lex.Advance()
	var args []Argument
	for p.lex.Peek().Kind != TokenCloseParen {
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.lex.Peek().Kind == TokenComma {
			p.lex.Advance()
		}
	}
	if _, err := p.expect(TokenCloseParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseArgument() (Argument, error) {
	start := p.lex.Peek().Span
	name, err := p.expectIdentifier()
	if err != nil {
		return Argument{}, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return Argument{}, err
	}
	value, err := p.parseValue()
	if err != nil {
		return Argument{}, err
	}
	return Argument{Name: name.Text, Value: value, Span: Span{start.Start, p.lex.Peek().Span.Start}}, nil
}

func (p *parser) parseValue() (NonConstantValue, error) {
	tok := p.lex.Peek()
	switch tok.Kind {
	case TokenDollar:
		p.lex.Advance()
		name, err := p.expectIdentifier()
		if err != nil {
			return NonConstantValue{}, err
		}
		return NonConstantValue{Kind: ValueVariable, VariableName: name.Text}, nil
	case TokenIdentifier:
		if tok.Text == "null" {
			p.lex.Advance()
			return NonConstantValue{Kind: ValueNull}, nil
		}
		if tok.Text == "true" || tok.Text == "false" {
			p.lex.Advance()
			return NonConstantValue{Kind: ValueLiteral, Literal: tok.Text == "true"}, nil
		}
		p.lex.Advance()
		return NonConstantValue{Kind: ValueLiteral, Literal: tok.Text}, nil
	case TokenStringLiteral, TokenBlockStringLiteral:
		p.lex.Advance()
		return NonConstantValue{Kind: ValueLiteral, Literal: unquote(tok.Text)}, nil
	case TokenIntLiteral, TokenFloatLiteral:
		p.lex.Advance()
		return NonConstantValue{Kind: ValueLiteral, Literal: tok.Text}, nil
	default:
		return NonConstantValue{}, &ParseError{Message: fmt.Sprintf("unexpected token %s in value position", tok.Kind), Span: tok.Span}
	}
}

func (p *parser) parseOptionalSelectionSet() ([]Selection, error) {
	if p.lex.Peek().Kind != TokenOpenBrace {
		return nil, nil
	}
	p.lex.Advance()
	var selections []Selection
	for p.lex.Peek().Kind != TokenCloseBrace {
		sel, err := p.parseSelection()
		if err != nil {
			return nil, err
		}
		selections = append(selections, sel)
		if p.lex.Peek().Kind == TokenComma {
			p.lex.Advance()
		}
	}
	if _, err := p.expect(TokenCloseBrace); err != nil {
		return nil, err
	}
	return selections, nil
}

func (p *parser) parseSelection() (Selection, error) {
	start := p.lex.Peek().Span
	first, err := p.expectIdentifier()
	if err != nil {
		return Selection{}, err
	}

	alias, name := first.Text, first.Text
	if p.lex.Peek().Kind == TokenColon {
		p.lex.Advance()
		n, err := p.expectIdentifier()
		if err != nil {
			return Selection{}, err
		}
		name = n.Text
	}

	args, err := p.parseOptionalArguments()
	if err != nil {
		return Selection{}, err
	}
	directives, err := p.parseDirectives()
	if err != nil {
		return Selection{}, err
	}
	set, err := p.parseOptionalSelectionSet()
	if err != nil {
		return Selection{}, err
	}

	return Selection{
		Alias:        alias,
		Name:         name,
		Arguments:    args,
		Directives:   directives,
		SelectionSet: set,
		Span:         Span{start.Start, p.lex.Peek().Span.Start},
	}, nil
}

func unquote(raw string) string {
	s := raw
	if len(s) >= 6 && s[:3] == `"""` && s[len(s)-3:] == `"""` {
		return s[3 : len(s)-3]
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
