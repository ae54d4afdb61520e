package parser

import (
	"fmt"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/token"
)

// Grammar:
//
//	insert → INSERT [TOP (n)] [INTO] target [( cols )] [OUTPUT ...]
//	         ( VALUES ( exprs ) { , ( exprs ) } | select_stmt | EXEC ... | DEFAULT VALUES )
//	update → UPDATE [TOP (n)] target SET assignments [OUTPUT ...] [FROM sources] [WHERE expr]
//	delete → DELETE [TOP (n)] [FROM] target [OUTPUT ...] [FROM sources] [WHERE expr]
//	merge  → MERGE [TOP (n)] [INTO] target [[AS] alias] USING source ON expr { WHEN ... THEN action } [OUTPUT ...]
//	target → name [WITH ( hints )] | @var

func (p *Parser) parseInsert(start token.Position, with *core.WithClause) core.Stmt {
	specStart := p.token.Pos
	p.nextToken() // consume INSERT
	spec := &core.InsertSpec{}
	if p.check(token.TOP) {
		p.parseTop()
	}
	p.match(token.INTO)
	spec.Target = p.parseDMLTarget()
	if spec.Target == nil {
		return nil
	}
	if p.check(token.LPAREN) && !p.isQueryParen() {
		spec.Columns = p.parseIdentList()
	}
	p.skipOutputClause()

	switch {
	case p.match(token.VALUES):
		for {
			if !p.expect(token.LPAREN) {
				break
			}
			var row []core.Expr
			if !p.check(token.RPAREN) {
				row = p.parseExprList()
			}
			p.expect(token.RPAREN)
			spec.Values = append(spec.Values, row)
			if !p.match(token.COMMA) {
				break
			}
		}
	case p.check(token.DEFAULT) && p.checkPeek(token.VALUES):
		p.nextToken()
		p.nextToken()
	case p.check(token.EXEC), p.check(token.EXECUTE):
		if exec, ok := p.parseExec().(*core.ExecStmt); ok {
			spec.Exec = exec
		}
	case p.check(token.SELECT), p.check(token.WITH), p.isQueryParen():
		spec.Query = p.parseSelectStmt()
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "VALUES, SELECT or EXEC"))
		return nil
	}

	spec.Span = p.spanFrom(specStart)
	stmt := &core.InsertStmt{With: with, Spec: spec}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseUpdate(start token.Position, with *core.WithClause) core.Stmt {
	specStart := p.token.Pos
	p.nextToken() // consume UPDATE
	spec := &core.UpdateSpec{}
	if p.check(token.TOP) {
		spec.Top = p.parseTop()
	}
	spec.Target = p.parseDMLTarget()
	if spec.Target == nil {
		return nil
	}
	if !p.expect(token.SET) {
		return nil
	}
	spec.Set = p.parseSetClauses()
	p.skipOutputClause()
	if p.check(token.FROM) {
		spec.From = p.parseFromClause()
	}
	if p.match(token.WHERE) {
		spec.Where = p.parseWhereOrCursor()
	}
	p.skipQueryOptions()

	spec.Span = p.spanFrom(specStart)
	stmt := &core.UpdateStmt{With: with, Spec: spec}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseDelete(start token.Position, with *core.WithClause) core.Stmt {
	specStart := p.token.Pos
	p.nextToken() // consume DELETE
	spec := &core.DeleteSpec{}
	if p.check(token.TOP) {
		spec.Top = p.parseTop()
	}
	p.match(token.FROM)
	spec.Target = p.parseDMLTarget()
	if spec.Target == nil {
		return nil
	}
	p.skipOutputClause()
	if p.check(token.FROM) {
		spec.From = p.parseFromClause()
	}
	if p.match(token.WHERE) {
		spec.Where = p.parseWhereOrCursor()
	}
	p.skipQueryOptions()

	spec.Span = p.spanFrom(specStart)
	stmt := &core.DeleteStmt{With: with, Spec: spec}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseMerge(start token.Position, with *core.WithClause) core.Stmt {
	specStart := p.token.Pos
	p.nextToken() // consume MERGE
	spec := &core.MergeSpec{}
	if p.check(token.TOP) {
		p.parseTop()
	}
	p.match(token.INTO)
	spec.Target = p.parseDMLTarget()
	if spec.Target == nil {
		return nil
	}
	spec.Alias = p.parseOptionalAlias()
	if !p.expect(token.USING) {
		return nil
	}
	spec.Using = p.parseTableRef()
	if spec.Using == nil {
		return nil
	}
	if !p.expect(token.ON) {
		return nil
	}
	spec.On = p.parseExpr()

	for p.check(token.WHEN) {
		if a := p.parseMergeAction(); a != nil {
			spec.Actions = append(spec.Actions, a)
		}
	}
	p.skipOutputClause()
	p.skipQueryOptions()

	spec.Span = p.spanFrom(specStart)
	stmt := &core.MergeStmt{With: with, Spec: spec}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseMergeAction parses WHEN [NOT] MATCHED [BY TARGET|SOURCE] [AND expr] THEN action.
func (p *Parser) parseMergeAction() *core.MergeAction {
	start := p.token.Pos
	p.nextToken() // consume WHEN
	a := &core.MergeAction{Matched: !p.match(token.NOT)}
	if !p.matchWord("matched") {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "MATCHED"))
		return nil
	}
	if p.match(token.BY) {
		if p.matchWord("source") {
			a.BySource = true
		} else {
			p.matchWord("target")
		}
	}
	if p.match(token.AND) {
		a.Condition = p.parseExpr()
	}
	if !p.expect(token.THEN) {
		return nil
	}

	switch {
	case p.match(token.UPDATE):
		a.Kind = core.MergeUpdate
		if p.expect(token.SET) {
			a.Set = p.parseSetClauses()
		}
	case p.match(token.DELETE):
		a.Kind = core.MergeDelete
	case p.match(token.INSERT):
		a.Kind = core.MergeInsert
		if p.check(token.LPAREN) {
			a.Columns = p.parseIdentList()
		}
		switch {
		case p.match(token.VALUES):
			if p.expect(token.LPAREN) {
				a.Values = p.parseExprList()
				p.expect(token.RPAREN)
			}
		case p.match(token.DEFAULT):
			p.expect(token.VALUES)
		}
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "UPDATE, DELETE or INSERT"))
		return nil
	}

	a.Span = p.spanFrom(start)
	return a
}

// parseDMLTarget parses the target of INSERT, UPDATE, DELETE or MERGE.
func (p *Parser) parseDMLTarget() core.TableRef {
	start := p.token.Pos
	if p.check(token.VARIABLE) {
		vt := &core.VariableTable{Name: p.token.Literal}
		p.nextToken()
		vt.Span = p.spanFrom(start)
		return vt
	}
	if !isIdent(p.token) && !p.check(token.DOT) {
		p.addError(fmt.Sprintf(ErrExpectedTableSource, p.token.Literal))
		return nil
	}
	name := p.parseObjectName()
	if p.check(token.LPAREN) && !p.isQueryParen() && p.isFunctionTarget() {
		// OPENQUERY(...), OPENROWSET(...)
		call := p.parseFuncCallArgs(start, name)
		ft := &core.FunctionTable{Call: call}
		ft.Span = p.spanFrom(start)
		return ft
	}
	tn := &core.TableName{Name: name}
	tn.Span = p.spanFrom(start)
	p.skipTableHints()
	return tn
}

// isFunctionTarget distinguishes OPENQUERY(...) from an INSERT column list:
// a column list only holds names separated by commas.
func (p *Parser) isFunctionTarget() bool {
	for i := 1; ; i++ {
		tok := p.peekN(i)
		switch {
		case tok.Type == token.RPAREN:
			return false
		case tok.Type == token.EOF:
			return false
		case i%2 == 1 && isNameToken(tok):
		case i%2 == 0 && tok.Type == token.COMMA:
		default:
			return true
		}
	}
}

func (p *Parser) parseSetClauses() []*core.SetClause {
	var clauses []*core.SetClause
	for {
		start := p.token.Pos
		c := &core.SetClause{}
		if p.check(token.VARIABLE) {
			// @v = expr, @v = col = expr
			p.nextToken()
		} else {
			c.Column = p.parseColumnRef()
		}
		if !p.expect(token.EQ) {
			break
		}
		c.Value = p.parseExpr()
		c.Span = p.spanFrom(start)
		clauses = append(clauses, c)
		if !p.match(token.COMMA) {
			break
		}
	}
	return clauses
}

// parseColumnRef parses a dotted column name.
func (p *Parser) parseColumnRef() *core.ColumnRef {
	start := p.token.Pos
	ref := &core.ColumnRef{}
	ref.Parts = append(ref.Parts, p.parseIdentifier())
	for p.match(token.DOT) {
		ref.Parts = append(ref.Parts, p.parseNameLoose())
	}
	ref.Span = p.spanFrom(start)
	return ref
}

// parseWhereOrCursor parses a WHERE condition or WHERE CURRENT OF cursor.
func (p *Parser) parseWhereOrCursor() core.Expr {
	if p.checkWord("current") && p.peekN(1).Is("of") {
		p.nextToken()
		p.nextToken()
		p.matchWord("global")
		p.nextToken() // cursor name
		return nil
	}
	return p.parseExpr()
}

// skipOutputClause skips OUTPUT items [INTO target [( cols )]].
func (p *Parser) skipOutputClause() {
	if !p.checkWord("output") {
		return
	}
	p.nextToken()
	for !p.atStatementEnd() {
		switch {
		case p.check(token.LPAREN):
			p.skipParens()
			continue
		case p.check(token.VALUES), p.check(token.SELECT), p.check(token.EXEC), p.check(token.EXECUTE),
			p.check(token.DEFAULT), p.check(token.FROM), p.check(token.WHERE), p.check(token.WITH),
			p.check(token.END), p.check(token.ELSE), p.checkWord("option"):
			return
		case p.atStatementStart():
			return
		}
		p.nextToken()
	}
}
