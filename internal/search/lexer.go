// Package search implements the tracker's query expression language:
// a lexer, a recursive descent parser, a field registry with relation
// traversal, a SQL compiler and the executing frontend.
package search

import (
	"time"
	"unicode"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF        TokenType = iota
	TokenField                // dotted Entity.field path
	TokenComparator           // == != < <= > >= ~ ~~
	TokenString               // quoted string literal
	TokenNumber               // integer literal
	TokenDate                 // yyyymmdd literal
	TokenAnd                  // AND
	TokenOr                   // OR
	TokenLParen               // (
	TokenRParen               // )
	TokenSort                 // SORT
	TokenSortOrder            // ASC or DESC
	TokenLimit                // LIMIT
)

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
	End   int // offset just past the token, for operand span checks

	// Date holds the parsed value for TokenDate.
	Date time.Time
}

// Lexer tokenizes a query expression.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token, or a LexError on malformed input.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos, End: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start, End: l.pos}, nil
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start, End: l.pos}, nil
	case '"':
		return l.scanString()
	case '=', '!':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return Token{Type: TokenComparator, Value: l.input[start:l.pos], Pos: start, End: l.pos}, nil
		}
		l.pos++
		return Token{}, &LexError{Pos: start, Char: ch}
	case '<', '>':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
		}
		return Token{Type: TokenComparator, Value: l.input[start:l.pos], Pos: start, End: l.pos}, nil
	case '~':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '~' {
			l.pos++
		}
		return Token{Type: TokenComparator, Value: l.input[start:l.pos], Pos: start, End: l.pos}, nil
	}

	if isDigit(ch) {
		return l.scanNumber()
	}
	if isLetter(ch) {
		return l.scanWord()
	}

	l.pos++
	return Token{}, &LexError{Pos: start, Char: ch}
}

// Tokens runs the lexer to completion, excluding the trailing EOF token.
func (l *Lexer) Tokens() ([]Token, error) {
	var out []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			return out, nil
		}
		out = append(out, tok)
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

// scanString scans a quoted literal. There is no escaping; the literal runs to
// the next quotation mark.
func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{}, &LexError{Pos: start, Char: '"'}
	}
	l.pos++
	return Token{
		Type:  TokenString,
		Value: l.input[start+1 : l.pos-1],
		Pos:   start,
		End:   l.pos,
	}, nil
}

// scanNumber scans digits. Exactly eight digits that form a valid calendar
// date lex as a date literal (yyyymmdd); any other digit run is a number.
func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	value := l.input[start:l.pos]
	tok := Token{Type: TokenNumber, Value: value, Pos: start, End: l.pos}
	if len(value) == 8 {
		if t, err := time.Parse("20060102", value); err == nil {
			tok.Type = TokenDate
			tok.Date = t
		}
	}
	return tok, nil
}

// scanWord scans a keyword or a dotted field path. Keywords are case-sensitive.
func (l *Lexer) scanWord() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && isWordChar(l.input[l.pos]) {
		l.pos++
	}
	value := l.input[start:l.pos]
	tok := Token{Value: value, Pos: start, End: l.pos}
	switch value {
	case "AND":
		tok.Type = TokenAnd
	case "OR":
		tok.Type = TokenOr
	case "SORT":
		tok.Type = TokenSort
	case "ASC", "DESC":
		tok.Type = TokenSortOrder
	case "LIMIT":
		tok.Type = TokenLimit
	default:
		tok.Type = TokenField
	}
	return tok, nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isWordChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '.'
}
