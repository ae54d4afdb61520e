package parser_test

import (
	"testing"

	"github.com/leapstack-labs/leapcheck/pkg/parser"
	"github.com/leapstack-labs/leapcheck/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	types := make([]token.TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestLexer_Basics(t *testing.T) {
	toks := parser.Tokenize("SELECT [Order Id], @p, N'x''y' FROM dbo.T;")
	assert.Equal(t, []token.TokenType{
		token.SELECT, token.IDENT, token.COMMA, token.VARIABLE, token.COMMA, token.STRING,
		token.FROM, token.IDENT, token.DOT, token.IDENT, token.SEMICOLON, token.EOF,
	}, tokenTypes(toks))

	assert.Equal(t, "Order Id", toks[1].Literal)
	assert.True(t, toks[1].Quoted)
	assert.Equal(t, "@p", toks[3].Literal)
	assert.Equal(t, "x'y", toks[5].Literal)
}

func TestLexer_QuotedIdentifiers(t *testing.T) {
	toks := parser.Tokenize(`"a""b" [c]]d] [select]`)
	require.Len(t, toks, 4)
	assert.Equal(t, `a"b`, toks[0].Literal)
	assert.Equal(t, "c]d", toks[1].Literal)
	// quoted keywords stay identifiers
	assert.Equal(t, token.IDENT, toks[2].Type)
	assert.Equal(t, "select", toks[2].Literal)
}

func TestLexer_Operators(t *testing.T) {
	toks := parser.Tokenize("a <> b != c <= d >= e += 1 !< f")
	assert.Equal(t, []token.TokenType{
		token.IDENT, token.NE, token.IDENT, token.NE, token.IDENT, token.LE, token.IDENT,
		token.GE, token.IDENT, token.EQ, token.NUMBER, token.GE, token.IDENT, token.EOF,
	}, tokenTypes(toks))
	assert.Equal(t, "+=", toks[9].Literal)
}

func TestLexer_Numbers(t *testing.T) {
	for _, input := range []string{"42", "3.14", ".5", "1e10", "2.5E-3", "0x1F"} {
		t.Run(input, func(t *testing.T) {
			toks := parser.Tokenize(input)
			require.Len(t, toks, 2)
			assert.Equal(t, token.NUMBER, toks[0].Type)
			assert.Equal(t, input, toks[0].Literal)
		})
	}
}

func TestLexer_Positions(t *testing.T) {
	toks := parser.Tokenize("SELECT\n  a")
	require.Len(t, toks, 3)
	assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, toks[0].Pos)
	assert.Equal(t, token.Position{Line: 1, Column: 7, Offset: 6}, toks[0].End)
	assert.Equal(t, token.Position{Line: 2, Column: 3, Offset: 9}, toks[1].Pos)
}

func TestLexer_Comments(t *testing.T) {
	l := parser.NewLexer("-- line\r\nSELECT /* a /* nested */ b */ 1")
	for l.NextToken().Type != token.EOF {
	}
	require.Len(t, l.Comments, 2)
	assert.Equal(t, "-- line", l.Comments[0].Text)
	assert.True(t, l.Comments[0].IsLineComment())
	assert.Equal(t, "/* a /* nested */ b */", l.Comments[1].Text)
	assert.True(t, l.Comments[1].IsBlockComment())
	assert.Empty(t, l.Errors)
}

func TestLexer_BatchSeparator(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.TokenType
	}{
		{
			name:  "alone on line",
			input: "SELECT 1\nGO\nSELECT 2",
			want:  []token.TokenType{token.SELECT, token.NUMBER, token.GO, token.SELECT, token.NUMBER, token.EOF},
		},
		{
			name:  "with count and comment",
			input: "SELECT 1\n  go 5 -- again\nSELECT 2",
			want:  []token.TokenType{token.SELECT, token.NUMBER, token.GO, token.SELECT, token.NUMBER, token.EOF},
		},
		{
			name:  "identifier named go",
			input: "SELECT go FROM t",
			want:  []token.TokenType{token.SELECT, token.IDENT, token.FROM, token.IDENT, token.EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenTypes(parser.Tokenize(tt.input)))
		})
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"string", "SELECT 'abc", parser.ErrUnterminatedString},
		{"bracket", "SELECT [abc", parser.ErrUnterminatedIdent},
		{"comment", "SELECT 1 /* abc", parser.ErrUnterminatedComment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := parser.NewLexer(tt.input)
			for l.NextToken().Type != token.EOF {
			}
			require.Len(t, l.Errors, 1)
			assert.Contains(t, l.Errors[0].Error(), tt.msg)
			pos, ok := parser.Position(l.Errors[0])
			require.True(t, ok)
			assert.Equal(t, 1, pos.Line)
		})
	}
}
