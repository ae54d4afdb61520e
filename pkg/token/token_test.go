package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		in   string
		want TokenType
	}{
		{"select", SELECT},
		{"SELECT", SELECT},
		{"Merge", MERGE},
		{"nonclustered", NONCLUSTERED},
		{"customers", IDENT},
		{"apply", IDENT},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupIdent(tt.in))
		})
	}
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "SELECT", SELECT.String())
	assert.Equal(t, "<=", LE.String())
	assert.Equal(t, "IDENT", IDENT.String())
	assert.True(t, IsKeyword(WITH))
	assert.False(t, IsKeyword(IDENT))
	assert.True(t, IsOperator(SEMICOLON))
}

func TestTokenIs(t *testing.T) {
	assert.True(t, Token{Type: IDENT, Literal: "apply"}.Is("APPLY"))
	assert.True(t, Token{Type: SELECT, Literal: "select"}.Is("select"))
	assert.False(t, Token{Type: IDENT, Literal: "apply", Quoted: true}.Is("APPLY"))
	assert.False(t, Token{Type: STRING, Literal: "apply"}.Is("APPLY"))
}

func TestPositionCompare(t *testing.T) {
	a := Position{Line: 2, Column: 5}
	assert.Equal(t, 0, a.Compare(Position{Line: 2, Column: 5}))
	assert.Equal(t, -1, a.Compare(Position{Line: 2, Column: 6}))
	assert.Equal(t, 1, a.Compare(Position{Line: 1, Column: 80}))
	assert.Equal(t, -1, a.Compare(Position{Line: 3, Column: 1}))
}

func TestSpanCover(t *testing.T) {
	a := Span{Start: Position{Line: 1, Column: 1, Offset: 0}, End: Position{Line: 1, Column: 5, Offset: 4}}
	b := Span{Start: Position{Line: 2, Column: 1, Offset: 10}, End: Position{Line: 2, Column: 3, Offset: 12}}

	got := a.Cover(b)
	assert.Equal(t, a.Start, got.Start)
	assert.Equal(t, b.End, got.End)
	assert.Equal(t, a, a.Cover(Span{}))
}

func TestCommentPositionAt(t *testing.T) {
	c := &Comment{
		Kind: BlockComment,
		Text: "/* first\n   second */",
		Span: Span{Start: Position{Line: 4, Column: 7, Offset: 40}},
	}

	assert.Equal(t, Position{Line: 4, Column: 7, Offset: 40}, c.PositionAt(0))
	assert.Equal(t, Position{Line: 4, Column: 10, Offset: 43}, c.PositionAt(3))
	// index 12 is the 's' of "second"
	assert.Equal(t, Position{Line: 5, Column: 4, Offset: 52}, c.PositionAt(12))
	assert.Equal(t, "block", c.Kind.String())
}
