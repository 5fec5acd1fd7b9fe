package typelang

import (
	"strconv"

	"github.com/clickhouse-explorer/wirecore/errs"
)

// Parser consumes a token stream produced by Lexer and builds a
// TypeDescriptor tree per the grammar in §4.2.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a Parser over an already-tokenized type string.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse is the convenience entry point: tokenize src and parse a single
// TypeExpr, failing if any tokens remain afterward.
func Parse(src string) (*TypeDescriptor, error) {
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}

	return NewParser(tokens).ParseType()
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) at(offset int) Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}

	return p.tokens[idx]
}

func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}

	return t
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	t := p.peek()
	if t.Kind != kind {
		return t, errs.NewParseError(t.Pos, "expected %s, got %s %q", kind, t.Kind, t.Text)
	}

	return p.advance(), nil
}

// ParseType parses a single TypeExpr and requires the token stream to be
// fully consumed afterward (trailing tokens are a ParseError).
func (p *Parser) ParseType() (*TypeDescriptor, error) {
	t, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}

	if p.peek().Kind != TokenEOF {
		tok := p.peek()

		return nil, errs.NewParseError(tok.Pos, "unexpected trailing token %s %q", tok.Kind, tok.Text)
	}

	return t, nil
}

// parseTypeExpr parses `IDENTIFIER [ "(" Params ")" ]`, dispatching on the
// identifier to the constructor-specific parameter grammar.
func (p *Parser) parseTypeExpr() (*TypeDescriptor, error) {
	nameTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	name := nameTok.Text

	if p.peek().Kind != TokenLParen {
		k, ok := LookupZeroParamKind(name)
		if !ok {
			return nil, errs.NewUnknownTypeError(name)
		}

		return &TypeDescriptor{Kind: k}, nil
	}

	p.advance() // consume '('
	desc, err := p.parseConstructorParams(name, nameTok)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return desc, nil
}

func (p *Parser) parseConstructorParams(name string, nameTok Token) (*TypeDescriptor, error) {
	switch name {
	case "Array":
		elem, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}

		return &TypeDescriptor{Kind: KindArray, Element: elem}, nil
	case "Nullable":
		elem, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}

		return &TypeDescriptor{Kind: KindNullable, Element: elem}, nil
	case "LowCardinality":
		elem, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}

		return &TypeDescriptor{Kind: KindLowCardinality, Element: elem}, nil
	case "Map":
		key, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		val, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}

		return &TypeDescriptor{Kind: KindMap, Key: key, Value: val}, nil
	case "FixedString":
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}

		return &TypeDescriptor{Kind: KindFixedString, Length: n}, nil
	case "Decimal32", "Decimal64", "Decimal128", "Decimal256":
		return p.parseDecimalWidth(name)
	case "Decimal":
		return p.parseDecimalGeneric()
	case "DateTime":
		return p.parseDateTime()
	case "DateTime64":
		return p.parseDateTime64()
	case "Time64":
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}

		return &TypeDescriptor{Kind: KindTime64, Precision: n}, nil
	case "Enum8":
		return p.parseEnum(KindEnum8)
	case "Enum16":
		return p.parseEnum(KindEnum16)
	case "Variant":
		return p.parseVariant()
	case "Dynamic":
		return p.parseDynamic()
	case "JSON":
		return p.parseJSON()
	case "Tuple":
		return p.parseTuple()
	case "Nested":
		return p.parseNested()
	case "QBit":
		return p.parseQBit()
	case "AggregateFunction":
		return p.parseAggregateFunction()
	default:
		return nil, errs.NewUnknownTypeError(name)
	}
}

func (p *Parser) parseIntLiteral() (int, error) {
	tok, err := p.expect(TokenNumber)
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(tok.Text)
	if convErr != nil {
		return 0, errs.NewParseError(tok.Pos, "malformed integer %q", tok.Text)
	}

	return n, nil
}

func (p *Parser) parseStringLiteral() (string, error) {
	tok, err := p.expect(TokenString)
	if err != nil {
		return "", err
	}

	return tok.Text, nil
}

// parseDecimalWidth handles DecimalN(scale) or DecimalN(precision, scale).
func (p *Parser) parseDecimalWidth(name string) (*TypeDescriptor, error) {
	k := map[string]Kind{
		"Decimal32": KindDecimal32, "Decimal64": KindDecimal64,
		"Decimal128": KindDecimal128, "Decimal256": KindDecimal256,
	}[name]

	first, err := p.parseIntLiteral()
	if err != nil {
		return nil, err
	}

	if p.peek().Kind == TokenComma {
		p.advance()
		scale, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}

		return &TypeDescriptor{Kind: k, Precision: first, Scale: scale}, nil
	}

	return &TypeDescriptor{Kind: k, Precision: defaultPrecisionForDecimalWidth(k), Scale: first}, nil
}

// parseDecimalGeneric handles Decimal(precision, scale), mapped to the
// narrowest DecimalN that covers the precision.
func (p *Parser) parseDecimalGeneric() (*TypeDescriptor, error) {
	precision, err := p.parseIntLiteral()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenComma); err != nil {
		return nil, err
	}
	scale, err := p.parseIntLiteral()
	if err != nil {
		return nil, err
	}

	return &TypeDescriptor{Kind: decimalWidthForPrecision(precision), Precision: precision, Scale: scale}, nil
}

func (p *Parser) parseDateTime() (*TypeDescriptor, error) {
	if p.peek().Kind == TokenRParen {
		return &TypeDescriptor{Kind: KindDateTime}, nil
	}
	tz, err := p.parseStringLiteral()
	if err != nil {
		return nil, err
	}

	return &TypeDescriptor{Kind: KindDateTime, Timezone: &tz}, nil
}

func (p *Parser) parseDateTime64() (*TypeDescriptor, error) {
	precision, err := p.parseIntLiteral()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != TokenComma {
		return &TypeDescriptor{Kind: KindDateTime64, Precision: precision}, nil
	}
	p.advance()
	tz, err := p.parseStringLiteral()
	if err != nil {
		return nil, err
	}

	return &TypeDescriptor{Kind: KindDateTime64, Precision: precision, Timezone: &tz}, nil
}

func (p *Parser) parseEnum(k Kind) (*TypeDescriptor, error) {
	var values []EnumValue
	for {
		label, err := p.parseStringLiteral()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenEquals); err != nil {
			return nil, err
		}
		code, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, EnumValue{Code: code, Label: label})

		if p.peek().Kind != TokenComma {
			break
		}
		p.advance()
	}

	return &TypeDescriptor{Kind: k, EnumValues: values}, nil
}

func (p *Parser) parseVariant() (*TypeDescriptor, error) {
	var variants []*TypeDescriptor
	for {
		v, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)

		if p.peek().Kind != TokenComma {
			break
		}
		p.advance()
	}

	return NewVariant(variants), nil
}

// parseDynamic handles Dynamic(), Dynamic(N), and Dynamic(max_types=N).
func (p *Parser) parseDynamic() (*TypeDescriptor, error) {
	if p.peek().Kind == TokenRParen {
		return &TypeDescriptor{Kind: KindDynamic}, nil
	}

	if p.peek().Kind == TokenIdentifier && p.peek().Text == "max_types" {
		p.advance()
		if _, err := p.expect(TokenEquals); err != nil {
			return nil, err
		}
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}

		return &TypeDescriptor{Kind: KindDynamic, MaxTypes: &n}, nil
	}

	n, err := p.parseIntLiteral()
	if err != nil {
		return nil, err
	}

	return &TypeDescriptor{Kind: KindDynamic, MaxTypes: &n}, nil
}

// parseJSON handles the comma-separated mix of `key=NUMBER` parameters and
// `name TypeExpr` typed-path entries. Unrecognized key=value entries are
// silently skipped for forward compatibility (§4.2).
func (p *Parser) parseJSON() (*TypeDescriptor, error) {
	desc := &TypeDescriptor{Kind: KindJSON}

	if p.peek().Kind == TokenRParen {
		return desc, nil
	}

	for {
		if p.peek().Kind == TokenIdentifier && p.at(1).Kind == TokenEquals {
			keyTok := p.advance()
			p.advance() // '='
			n, err := p.parseIntLiteral()
			if err != nil {
				return nil, err
			}
			if keyTok.Text == "max_dynamic_paths" {
				desc.MaxDynamicPaths = &n
			}
			// Any other key=NUMBER entry is recognized-but-ignored.
		} else {
			pathTok := p.peek()
			var path string
			switch pathTok.Kind {
			case TokenIdentifier, TokenString:
				path = pathTok.Text
				p.advance()
			default:
				return nil, errs.NewParseError(pathTok.Pos, "expected JSON path name, got %s %q", pathTok.Kind, pathTok.Text)
			}
			typ, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			desc.TypedPaths = append(desc.TypedPaths, JSONTypedPath{Path: path, Type: typ})
		}

		if p.peek().Kind != TokenComma {
			break
		}
		p.advance()
	}

	return desc, nil
}

// parseTuple handles both named and unnamed elements; the tuple is named
// iff at least one element carries a name.
func (p *Parser) parseTuple() (*TypeDescriptor, error) {
	desc := &TypeDescriptor{Kind: KindTuple}

	if p.peek().Kind == TokenRParen {
		return desc, nil
	}

	for {
		name, typ, err := p.parseMaybeNamedElement()
		if err != nil {
			return nil, err
		}
		if name != "" {
			desc.Named = true
		}
		desc.Names = append(desc.Names, name)
		desc.Elements = append(desc.Elements, typ)

		if p.peek().Kind != TokenComma {
			break
		}
		p.advance()
	}

	return desc, nil
}

// parseMaybeNamedElement disambiguates "IDENTIFIER TypeExpr" from a bare
// TypeExpr by looking at the token after the first identifier: a second
// identifier means the first one was a field name.
func (p *Parser) parseMaybeNamedElement() (string, *TypeDescriptor, error) {
	if p.peek().Kind == TokenIdentifier && p.at(1).Kind == TokenIdentifier {
		nameTok := p.advance()
		typ, err := p.parseTypeExpr()
		if err != nil {
			return "", nil, err
		}

		return nameTok.Text, typ, nil
	}

	typ, err := p.parseTypeExpr()
	if err != nil {
		return "", nil, err
	}

	return "", typ, nil
}

func (p *Parser) parseNested() (*TypeDescriptor, error) {
	desc := &TypeDescriptor{Kind: KindNested}

	for {
		nameTok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		typ, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		desc.Fields = append(desc.Fields, NestedField{Name: nameTok.Text, Type: typ})

		if p.peek().Kind != TokenComma {
			break
		}
		p.advance()
	}

	return desc, nil
}

func (p *Parser) parseQBit() (*TypeDescriptor, error) {
	elem, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenComma); err != nil {
		return nil, err
	}
	dim, err := p.parseIntLiteral()
	if err != nil {
		return nil, err
	}

	return &TypeDescriptor{Kind: KindQBit, Element: elem, Dimension: dim}, nil
}

func (p *Parser) parseAggregateFunction() (*TypeDescriptor, error) {
	fnTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	desc := &TypeDescriptor{Kind: KindAggregateFunction, FunctionName: fnTok.Text}

	for p.peek().Kind == TokenComma {
		p.advance()
		arg, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		desc.ArgTypes = append(desc.ArgTypes, arg)
	}

	return desc, nil
}
