package token

// CommentKind distinguishes line vs block comments.
type CommentKind int

// Comment kinds.
const (
	LineComment  CommentKind = iota // -- comment
	BlockComment                    // /* comment */
)

func (k CommentKind) String() string {
	if k == BlockComment {
		return "block"
	}
	return "line"
}

// Comment represents a SQL comment with position.
type Comment struct {
	Kind CommentKind
	Text string // includes delimiters (-- or /* */)
	Span Span
}

// IsLineComment returns true if this is a line comment.
func (c *Comment) IsLineComment() bool {
	return c.Kind == LineComment
}

// IsBlockComment returns true if this is a block comment.
func (c *Comment) IsBlockComment() bool {
	return c.Kind == BlockComment
}

// PositionAt maps a byte index inside Text to an absolute source position.
// Columns restart at 1 after every newline crossed inside the comment.
func (c *Comment) PositionAt(i int) Position {
	if i < 0 {
		i = 0
	}
	if i > len(c.Text) {
		i = len(c.Text)
	}
	pos := c.Span.Start
	for j := 0; j < i; j++ {
		if c.Text[j] == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
		pos.Offset++
	}
	return pos
}
