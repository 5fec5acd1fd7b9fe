package typelang

import (
	"strings"

	"github.com/clickhouse-explorer/wirecore/errs"
)

// Lexer tokenizes a type descriptor string (e.g.
// "Array(Nullable(Tuple(id UInt32, name String)))") into a stream of
// Tokens consumed by Parser.
//
// Lexer is a single-use, forward-only scanner; construct a new one per
// type string.
type Lexer struct {
	src string
	pos int
}

// NewLexer creates a Lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

func (l *Lexer) peekByte() (byte, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}

	return l.src[l.pos], true
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '.'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// Tokenize scans the entire source string and returns the resulting
// Tokens, always terminated by a TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) next() (Token, error) {
	for {
		b, ok := l.peekByte()
		if !ok {
			return Token{Kind: TokenEOF, Pos: l.pos}, nil
		}
		if !isSpace(b) {
			break
		}
		l.pos++
	}

	start := l.pos
	b, _ := l.peekByte()

	switch {
	case b == '(':
		l.pos++
		return Token{Kind: TokenLParen, Text: "(", Pos: start}, nil
	case b == ')':
		l.pos++
		return Token{Kind: TokenRParen, Text: ")", Pos: start}, nil
	case b == ',':
		l.pos++
		return Token{Kind: TokenComma, Text: ",", Pos: start}, nil
	case b == '=':
		l.pos++
		return Token{Kind: TokenEquals, Text: "=", Pos: start}, nil
	case b == '\'':
		return l.lexString(start)
	case b == '`':
		return l.lexBacktickIdentifier(start)
	case b == '-' || isDigit(b):
		return l.lexNumber(start)
	case isIdentStart(b):
		return l.lexIdentifier(start)
	default:
		return Token{}, errs.NewParseError(start, "unexpected character %q", string(b))
	}
}

func (l *Lexer) lexIdentifier(start int) (Token, error) {
	for {
		b, ok := l.peekByte()
		if !ok || !isIdentCont(b) {
			break
		}
		l.pos++
	}

	return Token{Kind: TokenIdentifier, Text: l.src[start:l.pos], Pos: start}, nil
}

// lexBacktickIdentifier allows dots and any non-back-tick characters inside
// back-ticks, with `\`` as an escape for a literal back-tick.
func (l *Lexer) lexBacktickIdentifier(start int) (Token, error) {
	l.pos++ // consume opening `
	var sb strings.Builder
	for {
		b, ok := l.peekByte()
		if !ok {
			return Token{}, errs.NewParseError(start, "unterminated back-ticked identifier")
		}
		if b == '\\' {
			if next, ok2 := l.peekAt(l.pos + 1); ok2 && next == '`' {
				sb.WriteByte('`')
				l.pos += 2
				continue
			}
			sb.WriteByte(b)
			l.pos++
			continue
		}
		if b == '`' {
			l.pos++
			break
		}
		sb.WriteByte(b)
		l.pos++
	}

	return Token{Kind: TokenIdentifier, Text: sb.String(), Pos: start}, nil
}

func (l *Lexer) peekAt(pos int) (byte, bool) {
	if pos >= len(l.src) {
		return 0, false
	}

	return l.src[pos], true
}

// lexString scans a single-quoted string literal, honoring \', \\, \n, \t
// escapes; any other \x passes x through unescaped.
func (l *Lexer) lexString(start int) (Token, error) {
	l.pos++ // consume opening '
	var sb strings.Builder
	for {
		b, ok := l.peekByte()
		if !ok {
			return Token{}, errs.NewParseError(start, "unterminated string literal")
		}
		if b == '\\' {
			next, ok2 := l.peekAt(l.pos + 1)
			if !ok2 {
				return Token{}, errs.NewParseError(start, "unterminated string literal")
			}
			switch next {
			case '\'':
				sb.WriteByte('\'')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(next)
			}
			l.pos += 2
			continue
		}
		if b == '\'' {
			l.pos++
			break
		}
		sb.WriteByte(b)
		l.pos++
	}

	return Token{Kind: TokenString, Text: sb.String(), Pos: start}, nil
}

// lexNumber scans a possibly-signed integer literal.
func (l *Lexer) lexNumber(start int) (Token, error) {
	if b, _ := l.peekByte(); b == '-' {
		l.pos++
	}
	digitsStart := l.pos
	for {
		b, ok := l.peekByte()
		if !ok || !isDigit(b) {
			break
		}
		l.pos++
	}
	if l.pos == digitsStart {
		return Token{}, errs.NewParseError(start, "malformed number literal")
	}

	return Token{Kind: TokenNumber, Text: l.src[start:l.pos], Pos: start}, nil
}
