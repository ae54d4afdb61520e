package parser

import (
	"fmt"

	"github.com/leapstack-labs/leapcheck/pkg/token"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Position returns the location of a parse or lex error, if it carries one.
func Position(err error) (token.Position, bool) {
	switch e := err.(type) {
	case *ParseError:
		return e.Pos, true
	case *LexError:
		return e.Pos, true
	}
	return token.Position{}, false
}

// Common error messages
const (
	ErrUnexpectedToken     = "unexpected token %s, expected %s"
	ErrUnexpectedInput     = "unexpected %s %q"
	ErrUnterminatedString  = "unterminated string literal"
	ErrUnterminatedIdent   = "unterminated quoted identifier"
	ErrUnterminatedComment = "unterminated block comment"
	ErrExpectedExpression  = "expected expression, found %q"
	ErrExpectedIdentifier  = "expected identifier, found %q"
	ErrExpectedTableSource = "expected table source, found %q"
	ErrUnclosedBlock       = "BEGIN without matching END"
	ErrExpectedConstraint  = "expected constraint, found %s"
)
