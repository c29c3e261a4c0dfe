package syntax

import "fmt"

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

// TokenType classifies a lexed token.
type TokenType int

const (
	// TokenEOF marks the end of input.
	TokenEOF TokenType = iota
	// TokenError carries a lexing failure; the literal is the message.
	TokenError

	// TokenIdent is a name: a letter followed by letters or digits.
	TokenIdent
	// TokenInt is an integer literal, possibly negative.
	TokenInt
	// TokenString is a double-quoted string literal with escapes resolved.
	TokenString
	// TokenSymbol is a single punctuation character from the symbol set.
	TokenSymbol
)

var tokenNames = map[TokenType]string{
	TokenEOF:    "EOF",
	TokenError:  "ERROR",
	TokenIdent:  "IDENTIFIER",
	TokenInt:    "INT_LIT",
	TokenString: "STRING_LIT",
	TokenSymbol: "SYMBOL",
}

// String returns the token type's name.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a single lexical unit with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int // 1-based
	Col     int // 1-based
}

// IsSymbol reports whether the token is the given punctuation character.
func (t Token) IsSymbol(ch byte) bool {
	return t.Type == TokenSymbol && len(t.Literal) == 1 && t.Literal[0] == ch
}

// String renders the token as "TYPE - literal" for diagnostics.
func (t Token) String() string {
	return t.Type.String() + " - " + t.Literal
}
