package syntax

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Lexer
// ---------------------------------------------------------------------------

// symbolChars is the set of single-character punctuation tokens.
const symbolChars = "[]-><{}:+!=*/%;().,"

// Lexer turns source text into a stream of tokens.
type Lexer struct {
	input   string
	pos     int  // index of ch
	readPos int  // index after ch
	ch      byte // current character, 0 at end of input
	line    int
	col     int

	err error
}

// NewLexer returns a lexer positioned at the start of input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// Tokenize lexes the whole input and returns its tokens, without a
// trailing EOF marker. The first lexing failure aborts the scan.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		switch tok.Type {
		case TokenError:
			return nil, l.err
		case TokenEOF:
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// Err returns the error behind the last TokenError, if any.
func (l *Lexer) Err() error {
	return l.err
}

// NextToken scans and returns the next token. After the input is
// exhausted it keeps returning TokenEOF.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	line, col := l.line, l.col
	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Line: line, Col: col}
	case l.ch == '"':
		return l.lexString(line, col)
	case l.ch == '-' && isDigit(l.peekChar()):
		return l.lexInt(line, col)
	case isDigit(l.ch):
		return l.lexInt(line, col)
	case isLetter(l.ch):
		return l.lexIdent(line, col)
	case isSymbolChar(l.ch):
		tok := Token{Type: TokenSymbol, Literal: string(l.ch), Line: line, Col: col}
		l.readChar()
		return tok
	default:
		l.err = fmt.Errorf("Unexpected character '%c' at line %d, char %d", l.ch, line, col)
		return Token{Type: TokenError, Literal: l.err.Error(), Line: line, Col: col}
	}
}

func (l *Lexer) lexIdent(line, col int) Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return Token{Type: TokenIdent, Literal: l.input[start:l.pos], Line: line, Col: col}
}

func (l *Lexer) lexInt(line, col int) Token {
	start := l.pos
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	return Token{Type: TokenInt, Literal: l.input[start:l.pos], Line: line, Col: col}
}

// lexString scans a double-quoted literal, resolving escapes as it goes.
// line and col point at the opening quote.
func (l *Lexer) lexString(line, col int) Token {
	l.readChar() // opening quote

	var sb strings.Builder
	for {
		switch l.ch {
		case 0:
			l.err = &UnexpectedEOFError{
				Context:  fmt.Sprintf("String Literal at line %d, char %d", line, col),
				Expected: `"`,
			}
			return Token{Type: TokenError, Literal: l.err.Error(), Line: line, Col: col}
		case '"':
			l.readChar()
			return Token{Type: TokenString, Literal: sb.String(), Line: line, Col: col}
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '\'':
				sb.WriteByte('\'')
			case '0':
				sb.WriteByte(0)
			case 0:
				l.err = &UnexpectedEOFError{
					Context:  fmt.Sprintf("String Literal at line %d, char %d", line, col),
					Expected: `"`,
				}
				return Token{Type: TokenError, Literal: l.err.Error(), Line: line, Col: col}
			default:
				l.err = fmt.Errorf("Unexpected character after '\\': '%c'", l.ch)
				return Token{Type: TokenError, Literal: l.err.Error(), Line: line, Col: col}
			}
			l.readChar()
		default:
			sb.WriteByte(l.ch)
			l.readChar()
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for isSpace(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isSymbolChar(ch byte) bool {
	return strings.IndexByte(symbolChars, ch) >= 0
}
