// Package token defines the token types for T-SQL parsing.
//
// Reserved words are token constants so the parser can switch on them.
// Context-sensitive words (APPLY, MATCHED, INCLUDE, ...) stay IDENT and
// are matched by text.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL
	GO // batch separator: GO alone on its line

	// Literals
	IDENT    // identifier, [bracketed] or "quoted"
	VARIABLE // @name, @@rowcount
	NUMBER   // 123, 45.67, 1e10, 0x1F
	STRING   // 'hello', N'hello'

	// Operators
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	PERCENT   // %
	EQ        // =
	NE        // != or <>
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	DOT       // .
	COMMA     // ,
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	AMP       // &
	PIPE      // |
	CARET     // ^
	TILDE     // ~
	COLONCOL  // ::

	// Keywords (alphabetical)
	ADD
	ALL
	ALTER
	AND
	AS
	ASC
	BEGIN
	BETWEEN
	BY
	CASE
	CHECK
	CLUSTERED
	CONSTRAINT
	CREATE
	CROSS
	DECLARE
	DEFAULT
	DELETE
	DESC
	DISTINCT
	DROP
	ELSE
	END
	EXCEPT
	EXEC
	EXECUTE
	EXISTS
	FOR
	FOREIGN
	FROM
	FULL
	FUNCTION
	GROUP
	HAVING
	IF
	IN
	INDEX
	INNER
	INSERT
	INTERSECT
	INTO
	IS
	JOIN
	KEY
	LEFT
	LIKE
	MERGE
	NONCLUSTERED
	NOT
	NULL
	ON
	OR
	ORDER
	OUTER
	PRIMARY
	PROC
	PROCEDURE
	REFERENCES
	RETURN
	RETURNS
	RIGHT
	SCHEMA
	SELECT
	SET
	SYNONYM
	TABLE
	THEN
	TOP
	UNION
	UNIQUE
	UPDATE
	USE
	USING
	VALUES
	VIEW
	WHEN
	WHERE
	WHILE
	WITH

	keywordEnd
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for kw, tt := range keywords {
		if tt == t {
			return strings.ToUpper(kw)
		}
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps non-keyword token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:      "EOF",
	ILLEGAL:  "ILLEGAL",
	GO:       "GO",
	IDENT:    "IDENT",
	VARIABLE: "VARIABLE",
	NUMBER:   "NUMBER",
	STRING:   "STRING",

	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	EQ:        "=",
	NE:        "<>",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	DOT:       ".",
	COMMA:     ",",
	SEMICOLON: ";",
	LPAREN:    "(",
	RPAREN:    ")",
	AMP:       "&",
	PIPE:      "|",
	CARET:     "^",
	TILDE:     "~",
	COLONCOL:  "::",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"add":          ADD,
	"all":          ALL,
	"alter":        ALTER,
	"and":          AND,
	"as":           AS,
	"asc":          ASC,
	"begin":        BEGIN,
	"between":      BETWEEN,
	"by":           BY,
	"case":         CASE,
	"check":        CHECK,
	"clustered":    CLUSTERED,
	"constraint":   CONSTRAINT,
	"create":       CREATE,
	"cross":        CROSS,
	"declare":      DECLARE,
	"default":      DEFAULT,
	"delete":       DELETE,
	"desc":         DESC,
	"distinct":     DISTINCT,
	"drop":         DROP,
	"else":         ELSE,
	"end":          END,
	"except":       EXCEPT,
	"exec":         EXEC,
	"execute":      EXECUTE,
	"exists":       EXISTS,
	"for":          FOR,
	"foreign":      FOREIGN,
	"from":         FROM,
	"full":         FULL,
	"function":     FUNCTION,
	"group":        GROUP,
	"having":       HAVING,
	"if":           IF,
	"in":           IN,
	"index":        INDEX,
	"inner":        INNER,
	"insert":       INSERT,
	"intersect":    INTERSECT,
	"into":         INTO,
	"is":           IS,
	"join":         JOIN,
	"key":          KEY,
	"left":         LEFT,
	"like":         LIKE,
	"merge":        MERGE,
	"nonclustered": NONCLUSTERED,
	"not":          NOT,
	"null":         NULL,
	"on":           ON,
	"or":           OR,
	"order":        ORDER,
	"outer":        OUTER,
	"primary":      PRIMARY,
	"proc":         PROC,
	"procedure":    PROCEDURE,
	"references":   REFERENCES,
	"return":       RETURN,
	"returns":      RETURNS,
	"right":        RIGHT,
	"schema":       SCHEMA,
	"select":       SELECT,
	"set":          SET,
	"synonym":      SYNONYM,
	"table":        TABLE,
	"then":         THEN,
	"top":          TOP,
	"union":        UNION,
	"unique":       UNIQUE,
	"update":       UPDATE,
	"use":          USE,
	"using":        USING,
	"values":       VALUES,
	"view":         VIEW,
	"when":         WHEN,
	"where":        WHERE,
	"while":        WHILE,
	"with":         WITH,
}

// LookupIdent returns the token type for the given identifier.
// If the identifier is a keyword, the keyword token type is returned.
// Otherwise, IDENT is returned.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= ADD && t < keywordEnd
}

// IsOperator returns true if the token type is an operator.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= COLONCOL
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	End     Position
	Quoted  bool // [bracketed] or "quoted" identifier
}

// Is reports whether the token is an unquoted word equal to w (case-insensitive).
// Used for context-sensitive keywords that the lexer leaves as IDENT.
func (t Token) Is(w string) bool {
	if t.Quoted {
		return false
	}
	if t.Type != IDENT && !IsKeyword(t.Type) {
		return false
	}
	return strings.EqualFold(t.Literal, w)
}
