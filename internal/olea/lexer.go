// Package olea implements the one-line issue editing language: a single
// line of text that creates or references an issue and applies a series
// of marker-prefixed edits to it.
package olea

import (
	"fmt"
	"regexp"
	"strings"
)

type TokenType int

const (
	// TokenRef references an existing issue, e.g. ">PRJ-4" or ">4".
	TokenRef TokenType = iota
	// TokenTitle opens the expression with a new issue's title.
	TokenTitle
	// TokenAssign adds an assignee, "@username".
	TokenAssign
	// TokenTag attaches a tag, "#tagtext".
	TokenTag
	// TokenDescr replaces the description, ";some text".
	TokenDescr
	// TokenColumn moves the issue to a kanban column, "&column name".
	TokenColumn
	// TokenPrio sets the priority, "!0" through "!4".
	TokenPrio
	// TokenPoints sets the story points, "$n".
	TokenPoints
	// TokenIssueType sets the issue type, ":Bug", ":Story" or ":Task".
	TokenIssueType
	// TokenDepends adds a dependency on another issue, "~PRJ-4" or "~4".
	TokenDepends
	// TokenTimelog logs time on the issue, "+1d2h10m".
	TokenTimelog
)

// Token is one element of an olea expression. Pos is the byte offset of
// the token's marker within the expression.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// LexError reports a character that cannot start or continue a token.
type LexError struct {
	Pos  int
	Char byte
}

func (e *LexError) Error() string {
	return fmt.Sprintf("cannot parse character %q at position %d", e.Char, e.Pos)
}

var refPattern = regexp.MustCompile(`^([A-Za-z]{1,4}-)?[0-9]+$`)

var issueTypes = map[string]bool{"Bug": true, "Story": true, "Task": true}

// Character classes of the directive values. Values that admit spaces
// are scanned greedily and trimmed back so they never end on a space;
// the trimmed space then separates the next directive.
func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

func isNameChar(c byte) bool {
	return isWordChar(c) || c == '-' || c == '+' || c == '.'
}

func isTextChar(c byte) bool {
	return isWordChar(c) || strings.IndexByte(`-.?",/()`, c) >= 0
}

type lexer struct {
	input string
	pos   int
}

// Lex splits an olea expression into its opener and directive tokens.
// Every directive must be preceded by exactly one space. Priority,
// type, issue references and timelogs are validated here; everything
// needing database lookups is left to the compiler.
func Lex(input string) ([]Token, error) {
	l := &lexer{input: input}
	var tokens []Token

	opener, err := l.scanOpener()
	if err != nil {
		return nil, err
	}
	tokens = append(tokens, opener)

	for l.pos < len(l.input) {
		if l.input[l.pos] != ' ' {
			return nil, &LexError{Pos: l.pos, Char: l.input[l.pos]}
		}
		l.pos++
		tok, err := l.scanDirective()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func (l *lexer) scanOpener() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{}, &LexError{Pos: 0, Char: 0}
	}
	if l.input[l.pos] == '>' {
		start := l.pos
		l.pos++
		ref := l.scan(isNameChar)
		if !refPattern.MatchString(ref) {
			return Token{}, &LexError{Pos: start, Char: '>'}
		}
		return Token{Type: TokenRef, Value: ref, Pos: start}, nil
	}
	if !isWordChar(l.input[l.pos]) {
		return Token{}, &LexError{Pos: l.pos, Char: l.input[l.pos]}
	}
	start := l.pos
	title := l.scanSpaced(isTextChar)
	return Token{Type: TokenTitle, Value: title, Pos: start}, nil
}

func (l *lexer) scanDirective() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{}, &LexError{Pos: l.pos - 1, Char: ' '}
	}
	start := l.pos
	marker := l.input[l.pos]
	l.pos++

	var tok Token
	switch marker {
	case '@':
		tok = Token{Type: TokenAssign, Value: l.scan(isNameChar)}
	case '#':
		tok = Token{Type: TokenTag, Value: l.scanSpaced(isNameChar)}
	case ';':
		tok = Token{Type: TokenDescr, Value: l.scanSpaced(isTextChar)}
	case '&':
		tok = Token{Type: TokenColumn, Value: l.scanSpaced(isNameChar)}
	case '!':
		val := l.scan(isWordChar)
		if len(val) != 1 || val[0] < '0' || val[0] > '4' {
			return Token{}, &LexError{Pos: start, Char: marker}
		}
		tok = Token{Type: TokenPrio, Value: val}
	case '$':
		val := l.scan(isWordChar)
		for i := 0; i < len(val); i++ {
			if val[i] < '0' || val[i] > '9' {
				return Token{}, &LexError{Pos: start, Char: marker}
			}
		}
		if val == "" {
			return Token{}, &LexError{Pos: start, Char: marker}
		}
		tok = Token{Type: TokenPoints, Value: val}
	case ':':
		val := l.scan(isWordChar)
		if !issueTypes[val] {
			return Token{}, fmt.Errorf("invalid issue type %q at position %d", val, start)
		}
		tok = Token{Type: TokenIssueType, Value: val}
	case '~':
		val := l.scan(isNameChar)
		if !refPattern.MatchString(val) {
			return Token{}, &LexError{Pos: start, Char: marker}
		}
		tok = Token{Type: TokenDepends, Value: val}
	case '+':
		val := l.scan(isNameChar)
		if !durationPattern.MatchString(val) {
			return Token{}, &LexError{Pos: start, Char: marker}
		}
		tok = Token{Type: TokenTimelog, Value: val}
	default:
		return Token{}, &LexError{Pos: start, Char: marker}
	}
	if tok.Type != TokenTimelog && tok.Value == "" {
		return Token{}, &LexError{Pos: start, Char: marker}
	}
	tok.Pos = start
	return tok, nil
}

// scan consumes the longest run of characters in the class.
func (l *lexer) scan(class func(byte) bool) string {
	start := l.pos
	for l.pos < len(l.input) && class(l.input[l.pos]) {
		l.pos++
	}
	return l.input[start:l.pos]
}

// scanSpaced consumes a run of class characters and spaces, then backs
// off trailing spaces so the value never ends on one.
func (l *lexer) scanSpaced(class func(byte) bool) string {
	start := l.pos
	for l.pos < len(l.input) && (class(l.input[l.pos]) || l.input[l.pos] == ' ') {
		l.pos++
	}
	for l.pos > start && l.input[l.pos-1] == ' ' {
		l.pos--
	}
	return l.input[start:l.pos]
}
