package search

import "fmt"

// LexError reports an unexpected character or malformed literal in the
// expression. The whole expression is rejected.
type LexError struct {
	Pos  int
	Char byte
}

func (e *LexError) Error() string {
	return fmt.Sprintf("not able to parse char %q at position %d", e.Char, e.Pos)
}

// ParseError reports a grammar violation: malformed comparison, unmatched
// parentheses, misplaced SORT/LIMIT, or an AND/OR operand shorter than the
// three-character minimum.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Message)
	}
	return "parse error: " + e.Message
}

func parseErrorf(pos int, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// FieldError reports an unknown entity kind, a field missing from the
// entity's searchable allow-list, an invalid relation traversal, or a
// type-mismatched comparison literal.
type FieldError struct {
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func fieldErrorf(format string, args ...any) *FieldError {
	return &FieldError{Message: fmt.Sprintf(format, args...)}
}
