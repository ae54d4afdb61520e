package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/token"
)

// Grammar:
//
//	procedure → PROC[EDURE] name [; n] [ [(] param { , param } [)] ] [WITH opts] [FOR REPLICATION] AS body
//	function  → FUNCTION name ( [param { , param }] ) RETURNS ( type | TABLE | @var TABLE ( defs ) )
//	            [WITH opts] [AS] ( RETURN select_stmt | body )
//	param     → @name [AS] type [VARYING] [NULL | NOT NULL] [= expr] [OUT[PUT]] [READONLY]
//	body      → { statement } up to the end of the batch
//	block     → BEGIN [TRY|CATCH] { statement } END [TRY|CATCH]
//	if        → IF expr statement [ELSE statement]
//	while     → WHILE expr statement
//	declare   → DECLARE @var [AS] type [= expr] { , ... }
//	set       → SET @var (= | += | ...) expr
//	exec      → EXEC[UTE] [@ret =] name [arg { , arg }]
//	return    → RETURN [expr]

// ---------- Procedures & Functions ----------

func (p *Parser) parseCreateProcedure(start token.Position, orAlter bool) core.Stmt {
	p.nextToken() // consume PROC/PROCEDURE
	stmt := &core.CreateProcedureStmt{Name: p.parseObjectName(), OrAlter: orAlter}

	// numbered procedures: CREATE PROC p;2
	if p.check(token.SEMICOLON) && p.peekN(1).Type == token.NUMBER {
		p.nextToken()
		p.nextToken()
	}

	parens := p.match(token.LPAREN)
	for p.check(token.VARIABLE) {
		stmt.Params = append(stmt.Params, p.parseParameterDef())
		if !p.match(token.COMMA) {
			break
		}
	}
	if parens {
		p.expect(token.RPAREN)
	}

	p.skipRoutineOptions()
	if p.check(token.FOR) && p.peekN(1).Is("replication") {
		p.nextToken()
		p.nextToken()
	}
	if !p.expect(token.AS) {
		return nil
	}

	stmt.Body = p.parseRoutineBody()
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseCreateFunction(start token.Position, orAlter bool) core.Stmt {
	p.nextToken() // consume FUNCTION
	stmt := &core.CreateFunctionStmt{Name: p.parseObjectName(), OrAlter: orAlter}

	if !p.expect(token.LPAREN) {
		return nil
	}
	for p.check(token.VARIABLE) {
		stmt.Params = append(stmt.Params, p.parseParameterDef())
		if !p.match(token.COMMA) {
			break
		}
	}
	if !p.expect(token.RPAREN) || !p.expect(token.RETURNS) {
		return nil
	}

	inline := false
	switch {
	case p.check(token.TABLE):
		// inline table-valued function
		p.nextToken()
		inline = true
	case p.check(token.VARIABLE):
		// multi-statement table-valued function
		stmt.ReturnsVar = p.token.Literal
		p.nextToken()
		p.expect(token.TABLE)
		p.skipParens()
	default:
		stmt.Returns = p.parseDataType()
	}

	p.skipRoutineOptions()
	p.match(token.AS)

	if inline {
		if !p.expect(token.RETURN) {
			return nil
		}
		stmt.ReturnQuery = p.parseSelectStmt()
		p.match(token.SEMICOLON)
		stmt.Span = p.spanFrom(start)
		return stmt
	}

	stmt.Body = p.parseRoutineBody()
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseParameterDef() *core.ParameterDef {
	start := p.token.Pos
	param := &core.ParameterDef{Name: p.token.Literal}
	p.nextToken()
	p.match(token.AS)
	param.DataType = p.parseDataType()

	for {
		switch {
		case p.matchWord("varying"):
		case p.match(token.NULL):
			param.Nullable = boolPtr(true)
		case p.check(token.NOT) && p.checkPeek(token.NULL):
			p.nextToken()
			p.nextToken()
			param.Nullable = boolPtr(false)
		case p.match(token.EQ):
			param.Default = p.parseExpr()
		case p.matchWord("output"), p.matchWord("out"):
			param.Output = true
		case p.matchWord("readonly"):
			param.ReadOnly = true
		default:
			param.Span = p.spanFrom(start)
			return param
		}
	}
}

// skipRoutineOptions skips WITH RECOMPILE, ENCRYPTION, SCHEMABINDING, EXECUTE AS ..., RETURNS NULL ON NULL INPUT.
func (p *Parser) skipRoutineOptions() {
	if !p.match(token.WITH) {
		return
	}
	for !p.atStatementEnd() {
		switch {
		case p.check(token.EXEC), p.check(token.EXECUTE):
			p.nextToken()
			p.match(token.AS)
			p.nextToken() // CALLER, SELF, OWNER or 'user'
		case p.check(token.AS), p.check(token.BEGIN), p.check(token.RETURN):
			return
		case p.check(token.FOR) && p.peekN(1).Is("replication"):
			return
		default:
			p.nextToken()
		}
	}
}

// parseRoutineBody parses statements up to the end of the batch.
func (p *Parser) parseRoutineBody() []core.Stmt {
	var body []core.Stmt
	for !p.check(token.EOF) && !p.check(token.GO) {
		body = append(body, p.parseStatementList()...)
		if p.check(token.END) {
			p.addError(fmt.Sprintf(ErrUnexpectedInput, p.token.Type, p.token.Literal))
			p.nextToken()
		}
	}
	return body
}

// ---------- Control Flow ----------

// transactionWords follow BEGIN in statements that are not blocks.
var transactionWords = map[string]bool{
	"tran": true, "transaction": true, "distributed": true, "dialog": true, "conversation": true,
}

func (p *Parser) parseBegin() core.Stmt {
	if next := p.peekN(1); next.Type == token.IDENT && transactionWords[strings.ToLower(next.Literal)] {
		return p.parseRaw()
	}

	start := p.token.Pos
	p.nextToken() // consume BEGIN
	kind := ""
	switch {
	case p.matchWord("try"):
		kind = "try"
	case p.matchWord("catch"):
		kind = "catch"
	}

	p.blockDepth++
	block := &core.BlockStmt{Body: p.parseStatementList()}
	p.blockDepth--

	if !p.match(token.END) {
		p.addError(ErrUnclosedBlock)
		return nil
	}
	if kind != "" {
		p.matchWord(kind)
	}
	block.Span = p.spanFrom(start)
	return block
}

func (p *Parser) parseIf() core.Stmt {
	start := p.token.Pos
	p.nextToken() // consume IF
	stmt := &core.IfStmt{Cond: p.parseExpr()}
	if stmt.Cond == nil {
		return nil
	}
	stmt.Then = p.parseStatement()
	if p.match(token.ELSE) {
		stmt.Else = p.parseStatement()
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseWhile() core.Stmt {
	start := p.token.Pos
	p.nextToken() // consume WHILE
	stmt := &core.WhileStmt{Cond: p.parseExpr()}
	if stmt.Cond == nil {
		return nil
	}
	stmt.Body = p.parseStatement()
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseDeclare() core.Stmt {
	if !p.checkPeek(token.VARIABLE) {
		// DECLARE cursor CURSOR FOR ...
		return p.parseRaw()
	}

	start := p.token.Pos
	p.nextToken() // consume DECLARE
	stmt := &core.DeclareStmt{}
	for p.check(token.VARIABLE) {
		declStart := p.token.Pos
		decl := &core.VarDecl{Name: p.token.Literal}
		p.nextToken()
		p.match(token.AS)
		switch {
		case p.check(token.TABLE):
			typeStart := p.token.Pos
			name := &core.ObjectName{Parts: []core.Identifier{p.identFromToken()}}
			name.Span = p.spanFrom(typeStart)
			decl.DataType = &core.DataType{Name: name}
			decl.DataType.Span = name.Span
			p.skipParens()
		case p.checkWord("cursor"):
			// DECLARE @c CURSOR [FOR select]
			p.nextToken()
			p.skipToStatementEnd()
		default:
			decl.DataType = p.parseDataType()
			if p.match(token.EQ) {
				decl.Value = p.parseExpr()
			}
		}
		decl.Span = p.spanFrom(declStart)
		stmt.Vars = append(stmt.Vars, decl)
		if !p.match(token.COMMA) {
			break
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseSet() core.Stmt {
	if !p.checkPeek(token.VARIABLE) || p.peekN(2).Type != token.EQ {
		// SET NOCOUNT ON, SET TRANSACTION ISOLATION LEVEL ...
		return p.parseRaw()
	}

	start := p.token.Pos
	p.nextToken() // consume SET
	stmt := &core.SetVarStmt{Name: p.token.Literal}
	p.nextToken()
	p.nextToken() // consume = or compound assignment
	if p.checkWord("cursor") {
		p.skipToStatementEnd()
	} else {
		stmt.Value = p.parseExpr()
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseExec parses a procedure call. Dynamic SQL (EXEC ('...'), EXEC @sql) is kept raw.
func (p *Parser) parseExec() core.Stmt {
	start := p.token.Pos
	p.nextToken() // consume EXEC/EXECUTE

	if p.check(token.VARIABLE) && p.checkPeek(token.EQ) {
		p.nextToken()
		p.nextToken()
	}
	if p.check(token.LPAREN) || p.check(token.VARIABLE) || p.check(token.STRING) {
		p.skipToStatementEnd()
		return p.rawFrom(start, "EXEC")
	}
	if !isIdent(p.token) && !p.check(token.DOT) {
		p.addError(fmt.Sprintf(ErrExpectedIdentifier, p.token.Literal))
		return nil
	}

	stmt := &core.ExecStmt{Procedure: p.parseObjectName()}
	if p.canStartExpr() {
		for {
			// named argument: @param = value
			if p.check(token.VARIABLE) && p.checkPeek(token.EQ) {
				p.nextToken()
				p.nextToken()
			}
			if arg := p.parseExpr(); arg != nil {
				stmt.Args = append(stmt.Args, arg)
			}
			if !p.matchWord("output") {
				p.matchWord("out")
			}
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if p.check(token.WITH) && !p.isCTEStart() {
		// WITH RECOMPILE, WITH RESULT SETS (...)
		p.nextToken()
		for !p.atStatementEnd() && !p.atStatementStart() && !p.check(token.END) && !p.check(token.ELSE) {
			if p.check(token.LPAREN) {
				p.skipParens()
				continue
			}
			p.nextToken()
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseReturn() core.Stmt {
	start := p.token.Pos
	p.nextToken() // consume RETURN
	stmt := &core.ReturnStmt{}
	if p.canStartExpr() {
		stmt.Value = p.parseExpr()
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// canStartExpr reports whether the current token can begin an expression
// rather than the next statement.
func (p *Parser) canStartExpr() bool {
	switch p.token.Type {
	case token.NUMBER, token.STRING, token.VARIABLE, token.LPAREN, token.MINUS, token.PLUS,
		token.TILDE, token.NULL, token.CASE, token.EXISTS, token.NOT, token.DEFAULT, token.LEFT, token.RIGHT:
		return true
	case token.IDENT:
		return !isStatementStart(p.token)
	}
	return false
}
