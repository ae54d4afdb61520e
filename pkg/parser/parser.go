// Package parser provides a tolerant T-SQL parser producing core AST nodes.
//
// # Usage
//
//	script, errs := parser.Parse(sqlText)
//	for _, err := range errs {
//	    // report, but keep using script: errors never abort parsing
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for the subset of T-SQL
// that static analysis needs:
//
//	script     → batch { GO batch }
//	batch      → { statement [;] }
//	statement  → USE | CREATE ... | ALTER TABLE ... ADD | [WITH ctes] dml
//	           | BEGIN ... END | IF | WHILE | DECLARE | SET | EXEC | RETURN
//	           | raw statement (anything else, kept as text)
//	dml        → select | INSERT | UPDATE | DELETE | MERGE
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/token"
)

// Parser parses T-SQL into an AST.
type Parser struct {
	input   string
	tokens  []token.Token
	idx     int
	token   token.Token // current token
	prevEnd token.Position
	errors  []error

	comments   []*token.Comment
	blockDepth int // nesting of BEGIN ... END
	recovered  int // errors already resynchronized by nested statements
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	p := &Parser{
		input:  input,
		tokens: tokens,
	}
	p.token = tokens[0]
	p.errors = append(p.errors, l.Errors...)
	p.comments = l.Comments
	return p
}

// Parse parses a whole script. The returned script is always non-nil;
// statements that failed to parse are reported in errs and omitted.
func Parse(input string) (*core.Script, []error) {
	p := NewParser(input)
	script := p.parseScript()
	return script, p.errors
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	if p.token.Type == token.EOF {
		return
	}
	p.prevEnd = p.token.End
	p.idx++
	p.token = p.tokens[p.idx]
}

// peekN returns the token n positions ahead of the current one.
func (p *Parser) peekN(n int) token.Token {
	if p.idx+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.idx+n]
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the next token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peekN(1).Type == t
}

// checkWord returns true if the current token is the given context-sensitive word.
func (p *Parser) checkWord(w string) bool {
	return p.token.Is(w)
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// matchWord consumes the current token if it is the given word.
func (p *Parser) matchWord(w string) bool {
	if p.checkWord(w) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// spanFrom returns the span from start to the end of the last consumed token.
func (p *Parser) spanFrom(start token.Position) token.Span {
	end := p.prevEnd
	if end.Offset < start.Offset {
		end = start
	}
	return token.Span{Start: start, End: end}
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "EOF"
	}
	return fmt.Sprintf("%q", tok.Literal)
}

// ---------- Boundaries ----------

// statementStartWords are context-sensitive words that begin a statement
// we keep as raw text.
var statementStartWords = map[string]bool{
	"print": true, "raiserror": true, "throw": true, "commit": true, "rollback": true,
	"truncate": true, "grant": true, "deny": true, "revoke": true, "break": true,
	"continue": true, "goto": true, "waitfor": true, "open": true, "close": true,
	"fetch": true, "deallocate": true, "bulk": true, "dbcc": true, "save": true,
	"kill": true, "checkpoint": true, "reconfigure": true, "backup": true, "restore": true,
	"enable": true, "disable": true,
}

// isStatementStart reports whether tok begins a new statement.
func isStatementStart(tok token.Token) bool {
	switch tok.Type {
	case token.SELECT, token.INSERT, token.UPDATE, token.DELETE, token.MERGE,
		token.CREATE, token.ALTER, token.DROP, token.USE, token.DECLARE, token.SET,
		token.IF, token.WHILE, token.BEGIN, token.EXEC, token.EXECUTE, token.RETURN, token.WITH:
		return true
	case token.IDENT:
		return !tok.Quoted && statementStartWords[strings.ToLower(tok.Literal)]
	}
	return false
}

// atStatementEnd reports whether the current token terminates a statement.
func (p *Parser) atStatementEnd() bool {
	switch p.token.Type {
	case token.EOF, token.GO, token.SEMICOLON:
		return true
	}
	return false
}

// skipParens consumes a balanced parenthesized group starting at '('.
func (p *Parser) skipParens() {
	if !p.check(token.LPAREN) {
		return
	}
	depth := 0
	for !p.check(token.EOF) && !p.check(token.GO) {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		p.nextToken()
		if depth == 0 {
			return
		}
	}
}

// skipToStatementEnd consumes tokens up to the next statement boundary.
// Parentheses are skipped as a unit; CASE ... END pairs do not end a block.
func (p *Parser) skipToStatementEnd() {
	caseDepth := 0
	for !p.atStatementEnd() {
		switch {
		case p.check(token.LPAREN):
			p.skipParens()
			continue
		case p.check(token.RPAREN):
			return
		case p.check(token.CASE):
			caseDepth++
		case p.check(token.END):
			if caseDepth == 0 {
				return
			}
			caseDepth--
		case caseDepth == 0 && (p.check(token.ELSE) || p.atStatementStart()):
			return
		}
		p.nextToken()
	}
}

// atStatementStart reports whether the current token begins a new statement.
// WITH only counts when it opens a common table expression.
func (p *Parser) atStatementStart() bool {
	if p.check(token.WITH) {
		return p.isCTEStart()
	}
	return isStatementStart(p.token)
}

// isCTEStart reports whether the current WITH opens a CTE list: WITH name AS ( or WITH name (.
func (p *Parser) isCTEStart() bool {
	if !p.check(token.WITH) || !isIdent(p.peekN(1)) {
		return false
	}
	next := p.peekN(2).Type
	return next == token.AS || next == token.LPAREN
}

// skipRawClauses consumes the body of an unmodelled statement whose clauses
// may themselves start with statement keywords (ALTER DATABASE ... SET ...).
func (p *Parser) skipRawClauses() {
	for !p.atStatementEnd() {
		switch {
		case p.check(token.LPAREN):
			p.skipParens()
			continue
		case p.check(token.END), p.check(token.ELSE):
			return
		case p.atStatementStart():
			switch p.token.Type {
			case token.ALTER, token.DROP, token.SET, token.WITH:
			default:
				return
			}
		}
		p.nextToken()
	}
}

// skipToBatchEnd consumes tokens up to GO or EOF.
func (p *Parser) skipToBatchEnd() {
	for !p.check(token.EOF) && !p.check(token.GO) {
		p.nextToken()
	}
}

// ---------- Script / Batch ----------

func (p *Parser) parseScript() *core.Script {
	script := &core.Script{Comments: p.comments}
	start := p.token.Pos
	for {
		batch := p.parseBatch()
		if len(batch.Statements) > 0 {
			script.Batches = append(script.Batches, batch)
		}
		if !p.match(token.GO) {
			break
		}
	}
	script.Span = token.Span{Start: start, End: p.token.End}
	if !script.Span.Start.IsValid() {
		script.Span.Start = token.Position{Line: 1, Column: 1}
	}
	return script
}

func (p *Parser) parseBatch() *core.Batch {
	batch := &core.Batch{}
	start := p.token.Pos
	for !p.check(token.EOF) && !p.check(token.GO) {
		if p.match(token.SEMICOLON) {
			continue
		}
		before := p.idx
		if stmt := p.parseStatement(); stmt != nil {
			batch.Statements = append(batch.Statements, stmt)
		}
		if p.idx == before {
			// nothing consumed: report and move on to guarantee progress
			p.addError(fmt.Sprintf(ErrUnexpectedInput, p.token.Type, p.token.Literal))
			p.nextToken()
		}
	}
	batch.Span = p.spanFrom(start)
	return batch
}

// parseStatementList parses statements until END (not consumed), GO or EOF.
func (p *Parser) parseStatementList() []core.Stmt {
	var stmts []core.Stmt
	for !p.check(token.EOF) && !p.check(token.GO) && !p.check(token.END) {
		if p.match(token.SEMICOLON) {
			continue
		}
		before := p.idx
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.idx == before {
			p.addError(fmt.Sprintf(ErrUnexpectedInput, p.token.Type, p.token.Literal))
			p.nextToken()
		}
	}
	return stmts
}

// parseStatement dispatches on the first token of a statement.
// It returns nil when the statement could not be parsed; the error is recorded
// and parsing resumes at the next statement boundary.
func (p *Parser) parseStatement() core.Stmt {
	errCount := len(p.errors)
	recovered := p.recovered
	stmt := p.parseStatementInner()
	// errors from nested statements that already resynchronized do not
	// invalidate the enclosing statement
	if len(p.errors)-errCount > p.recovered-recovered {
		p.skipToStatementEnd()
		if p.check(token.END) && !p.insideBlock() {
			p.nextToken()
		}
		p.recovered += len(p.errors) - errCount - (p.recovered - recovered)
		return nil
	}
	p.match(token.SEMICOLON)
	return stmt
}

func (p *Parser) parseStatementInner() core.Stmt {
	switch p.token.Type {
	case token.USE:
		return p.parseUse()
	case token.CREATE:
		return p.parseCreate()
	case token.ALTER:
		return p.parseAlter()
	case token.WITH, token.SELECT, token.INSERT, token.UPDATE, token.DELETE, token.MERGE:
		return p.parseDML()
	case token.LPAREN:
		// (SELECT ...) UNION ...
		if p.isQueryParen() {
			return p.parseDML()
		}
	case token.BEGIN:
		return p.parseBegin()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DECLARE:
		return p.parseDeclare()
	case token.SET:
		return p.parseSet()
	case token.EXEC, token.EXECUTE:
		return p.parseExec()
	case token.RETURN:
		return p.parseReturn()
	case token.END, token.ELSE:
		// stray block terminator
	case token.IDENT:
		if p.token.Quoted {
			break
		}
		return p.parseRaw()
	default:
		if token.IsKeyword(p.token.Type) {
			return p.parseRaw()
		}
	}
	p.addError(fmt.Sprintf(ErrUnexpectedInput, p.token.Type, p.token.Literal))
	p.nextToken()
	return nil
}

// insideBlock reports whether parsing is inside BEGIN ... END.
func (p *Parser) insideBlock() bool {
	return p.blockDepth > 0
}

// parseRaw keeps an unmodelled statement as text.
func (p *Parser) parseRaw() core.Stmt {
	start := p.token.Pos
	keyword := strings.ToUpper(p.token.Literal)
	p.nextToken()
	p.skipToStatementEnd()
	return p.rawFrom(start, keyword)
}

// parseRawToBatchEnd keeps a statement whose body runs to the end of the batch.
func (p *Parser) parseRawToBatchEnd(start token.Position, keyword string) core.Stmt {
	p.skipToBatchEnd()
	return p.rawFrom(start, keyword)
}

// rawFrom builds a RawStmt covering start up to the last consumed token.
func (p *Parser) rawFrom(start token.Position, keyword string) *core.RawStmt {
	stmt := &core.RawStmt{Keyword: keyword}
	stmt.Span = p.spanFrom(start)
	stmt.Text = p.input[stmt.Span.Start.Offset:stmt.Span.End.Offset]
	return stmt
}

// ---------- Names ----------

// isIdent returns true if tok can be used as a name.
func isIdent(tok token.Token) bool {
	return tok.Type == token.IDENT
}

// isNameToken accepts identifiers and, in unambiguous positions, keywords.
func isNameToken(tok token.Token) bool {
	return tok.Type == token.IDENT || token.IsKeyword(tok.Type)
}

func (p *Parser) identFromToken() core.Identifier {
	id := core.Identifier{
		Value:  p.token.Literal,
		Quoted: p.token.Quoted,
		Span:   token.Span{Start: p.token.Pos, End: p.token.End},
	}
	p.nextToken()
	return id
}

// parseIdentifier parses a single identifier.
func (p *Parser) parseIdentifier() core.Identifier {
	if !isIdent(p.token) {
		p.addError(fmt.Sprintf(ErrExpectedIdentifier, p.token.Literal))
		return core.Identifier{}
	}
	return p.identFromToken()
}

// parseNameLoose parses an identifier, accepting keywords as names.
func (p *Parser) parseNameLoose() core.Identifier {
	if !isNameToken(p.token) {
		p.addError(fmt.Sprintf(ErrExpectedIdentifier, p.token.Literal))
		return core.Identifier{}
	}
	return p.identFromToken()
}

// parseObjectName parses a dotted name of up to four parts.
// Empty parts (db..table) are allowed.
func (p *Parser) parseObjectName() *core.ObjectName {
	start := p.token.Pos
	name := &core.ObjectName{}
	if !isIdent(p.token) && !p.check(token.DOT) {
		p.addError(fmt.Sprintf(ErrExpectedIdentifier, p.token.Literal))
		return name
	}
	if p.check(token.DOT) {
		name.Parts = append(name.Parts, core.Identifier{})
	} else {
		name.Parts = append(name.Parts, p.identFromToken())
	}
	for p.check(token.DOT) {
		p.nextToken()
		if p.check(token.DOT) {
			name.Parts = append(name.Parts, core.Identifier{})
			continue
		}
		name.Parts = append(name.Parts, p.parseNameLoose())
	}
	name.Span = p.spanFrom(start)
	return name
}

// parseIdentList parses ( ident [ASC|DESC], ... ) returning the names.
func (p *Parser) parseIdentList() []core.Identifier {
	var ids []core.Identifier
	if !p.expect(token.LPAREN) {
		return nil
	}
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		ids = append(ids, p.parseNameLoose())
		if !p.match(token.ASC) {
			p.match(token.DESC)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return ids
}

// parseIndexColumns parses ( col [ASC|DESC], ... ).
func (p *Parser) parseIndexColumns() []*core.IndexColumn {
	var cols []*core.IndexColumn
	if !p.expect(token.LPAREN) {
		return nil
	}
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		col := &core.IndexColumn{Name: p.parseNameLoose()}
		if p.match(token.DESC) {
			col.Desc = true
		} else {
			p.match(token.ASC)
		}
		cols = append(cols, col)
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return cols
}

// parseDataType parses a type name with optional (n[, m]) or (max).
func (p *Parser) parseDataType() *core.DataType {
	start := p.token.Pos
	dt := &core.DataType{Name: p.parseObjectName()}
	if p.check(token.LPAREN) {
		p.nextToken()
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			var b strings.Builder
			for !p.check(token.COMMA) && !p.check(token.RPAREN) && !p.check(token.EOF) {
				b.WriteString(p.token.Literal)
				p.nextToken()
			}
			dt.Params = append(dt.Params, b.String())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}
	dt.Span = p.spanFrom(start)
	return dt
}
