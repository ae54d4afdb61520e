package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leapcheck/pkg/token"
)

// Lexer tokenizes T-SQL input.
type Lexer struct {
	input string
	pos   int // offset of the current char
	line  int // current line number (1-based)
	col   int // current column number (1-based)

	// Comments collected during lexing (for suppression directives)
	Comments []*token.Comment
	// Errors collected during lexing (unterminated strings, comments, brackets)
	Errors []error
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// ch returns the current character, or 0 at EOF.
func (l *Lexer) ch() byte {
	return l.peekAt(0)
}

// peekAt returns the character n bytes ahead without advancing.
func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

// readChar advances past the current character.
func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		return
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

func (l *Lexer) addError(pos token.Position, msg string) {
	l.Errors = append(l.Errors, &LexError{Pos: pos, Message: msg})
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	tok := l.scan(pos)
	tok.Pos = pos
	tok.End = l.currentPos()
	return tok
}

func (l *Lexer) scan(pos token.Position) token.Token {
	c := l.ch()
	if l.pos >= len(l.input) {
		return token.Token{Type: token.EOF}
	}

	switch c {
	case '+', '-', '*', '/', '%', '&', '|', '^':
		// compound assignment (+=, -=, ...) is only valid in SET and is lexed as EQ
		if l.peekAt(1) == '=' {
			lit := l.input[l.pos : l.pos+2]
			l.readChar()
			l.readChar()
			return token.Token{Type: token.EQ, Literal: lit}
		}
		l.readChar()
		return token.Token{Type: singleCharOps[c], Literal: string(c)}
	case '~':
		return l.single(token.TILDE)
	case '=':
		return l.single(token.EQ)
	case '<':
		switch l.peekAt(1) {
		case '=':
			return l.double(token.LE)
		case '>':
			return l.double(token.NE)
		}
		return l.single(token.LT)
	case '>':
		if l.peekAt(1) == '=' {
			return l.double(token.GE)
		}
		return l.single(token.GT)
	case '!':
		switch l.peekAt(1) {
		case '=':
			return l.double(token.NE)
		case '<':
			return l.double(token.GE)
		case '>':
			return l.double(token.LE)
		}
		return l.single(token.ILLEGAL)
	case ':':
		if l.peekAt(1) == ':' {
			return l.double(token.COLONCOL)
		}
		return l.single(token.ILLEGAL)
	case '.':
		if isDigit(l.peekAt(1)) {
			return token.Token{Type: token.NUMBER, Literal: l.readNumber()}
		}
		return l.single(token.DOT)
	case ',':
		return l.single(token.COMMA)
	case ';':
		return l.single(token.SEMICOLON)
	case '(':
		return l.single(token.LPAREN)
	case ')':
		return l.single(token.RPAREN)
	case '\'':
		return token.Token{Type: token.STRING, Literal: l.readString(pos)}
	case '[':
		return token.Token{Type: token.IDENT, Literal: l.readDelimited(pos, ']'), Quoted: true}
	case '"':
		return token.Token{Type: token.IDENT, Literal: l.readDelimited(pos, '"'), Quoted: true}
	case '@':
		return token.Token{Type: token.VARIABLE, Literal: l.readIdentifier()}
	}

	switch {
	case (c == 'N' || c == 'n') && l.peekAt(1) == '\'':
		l.readChar() // skip N prefix
		return token.Token{Type: token.STRING, Literal: l.readString(pos)}
	case isIdentStart(l.input[l.pos:]):
		start := l.pos
		lit := l.readIdentifier()
		if strings.EqualFold(lit, "go") && l.isBatchSeparator(start) {
			l.skipBatchCount()
			return token.Token{Type: token.GO, Literal: lit}
		}
		return token.Token{Type: token.LookupIdent(lit), Literal: lit}
	case isDigit(c):
		return token.Token{Type: token.NUMBER, Literal: l.readNumber()}
	}

	return l.single(token.ILLEGAL)
}

var singleCharOps = map[byte]token.TokenType{
	'+': token.PLUS,
	'-': token.MINUS,
	'*': token.STAR,
	'/': token.SLASH,
	'%': token.PERCENT,
	'&': token.AMP,
	'|': token.PIPE,
	'^': token.CARET,
}

func (l *Lexer) single(t token.TokenType) token.Token {
	lit := string(l.ch())
	l.readChar()
	return token.Token{Type: t, Literal: lit}
}

func (l *Lexer) double(t token.TokenType) token.Token {
	lit := l.input[l.pos : l.pos+2]
	l.readChar()
	l.readChar()
	return token.Token{Type: t, Literal: lit}
}

// skipWhitespaceAndComments skips whitespace and collects comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.pos < len(l.input) && isSpace(l.ch()) {
			l.readChar()
		}

		if l.ch() == '-' && l.peekAt(1) == '-' {
			l.collectLineComment()
			continue
		}
		if l.ch() == '/' && l.peekAt(1) == '*' {
			l.collectBlockComment()
			continue
		}
		break
	}
}

// collectLineComment collects a line comment.
func (l *Lexer) collectLineComment() {
	startPos := l.currentPos()
	startOffset := l.pos

	for l.pos < len(l.input) && l.ch() != '\n' {
		l.readChar()
	}

	l.Comments = append(l.Comments, &token.Comment{
		Kind: token.LineComment,
		Text: strings.TrimRight(l.input[startOffset:l.pos], "\r"),
		Span: token.Span{Start: startPos, End: l.currentPos()},
	})
}

// collectBlockComment collects a block comment. T-SQL block comments nest.
func (l *Lexer) collectBlockComment() {
	startPos := l.currentPos()
	startOffset := l.pos

	l.readChar() // skip '/'
	l.readChar() // skip '*'

	depth := 1
	for l.pos < len(l.input) && depth > 0 {
		switch {
		case l.ch() == '/' && l.peekAt(1) == '*':
			depth++
			l.readChar()
			l.readChar()
		case l.ch() == '*' && l.peekAt(1) == '/':
			depth--
			l.readChar()
			l.readChar()
		default:
			l.readChar()
		}
	}
	if depth > 0 {
		l.addError(startPos, ErrUnterminatedComment)
	}

	l.Comments = append(l.Comments, &token.Comment{
		Kind: token.BlockComment,
		Text: l.input[startOffset:l.pos],
		Span: token.Span{Start: startPos, End: l.currentPos()},
	})
}

// readString reads a single-quoted string literal.
// Handles doubled single quotes as escape: 'it''s' -> it's
func (l *Lexer) readString(start token.Position) string {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		if l.pos >= len(l.input) {
			l.addError(start, ErrUnterminatedString)
			break
		}
		if l.ch() == '\'' {
			if l.peekAt(1) == '\'' {
				result.WriteByte('\'')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			break
		}
		result.WriteByte(l.ch())
		l.readChar()
	}
	return result.String()
}

// readDelimited reads a [bracketed] or "quoted" identifier.
// A doubled closing delimiter is an escape.
func (l *Lexer) readDelimited(start token.Position, closing byte) string {
	l.readChar() // skip opening delimiter

	var result strings.Builder
	for {
		if l.pos >= len(l.input) {
			l.addError(start, ErrUnterminatedIdent)
			break
		}
		if l.ch() == closing {
			if l.peekAt(1) == closing {
				result.WriteByte(closing)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			break
		}
		result.WriteByte(l.ch())
		l.readChar()
	}
	return result.String()
}

// readIdentifier reads an unquoted identifier, variable or temp-table name.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for l.pos < len(l.input) {
		c := l.ch()
		if c == '@' || c == '#' || c == '$' || c == '_' || isDigit(c) {
			l.readChar()
			continue
		}
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsLetter(r) {
			break
		}
		for i := 0; i < size; i++ {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, scientific or 0x binary).
func (l *Lexer) readNumber() string {
	start := l.pos

	if l.ch() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch()) {
			l.readChar()
		}
		return l.input[start:l.pos]
	}

	for isDigit(l.ch()) {
		l.readChar()
	}
	if l.ch() == '.' {
		l.readChar()
		for isDigit(l.ch()) {
			l.readChar()
		}
	}
	if (l.ch() == 'e' || l.ch() == 'E') && (isDigit(l.peekAt(1)) || ((l.peekAt(1) == '+' || l.peekAt(1) == '-') && isDigit(l.peekAt(2)))) {
		l.readChar()
		if l.ch() == '+' || l.ch() == '-' {
			l.readChar()
		}
		for isDigit(l.ch()) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

// isBatchSeparator reports whether the GO word starting at start stands alone
// on its line: only whitespace before it, and only an optional count or a
// line comment after it.
func (l *Lexer) isBatchSeparator(start int) bool {
	for i := start - 1; i >= 0 && l.input[i] != '\n'; i-- {
		if l.input[i] != ' ' && l.input[i] != '\t' && l.input[i] != '\r' {
			return false
		}
	}
	rest := l.input[l.pos:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	if dash := strings.Index(rest, "--"); dash >= 0 {
		rest = rest[:dash]
	}
	rest = strings.TrimSpace(rest)
	for i := 0; i < len(rest); i++ {
		if !isDigit(rest[i]) {
			return false
		}
	}
	return true
}

// skipBatchCount consumes the optional repeat count after GO.
func (l *Lexer) skipBatchCount() {
	for l.ch() == ' ' || l.ch() == '\t' {
		l.readChar()
	}
	for isDigit(l.ch()) {
		l.readChar()
	}
}

func isIdentStart(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '_' || s[0] == '#' {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// Tokenize returns all tokens from the input, ending with EOF.
func Tokenize(input string) []token.Token {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}
