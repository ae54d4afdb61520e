package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/token"
)

// Grammar:
//
//	select_stmt  → [WITH cte { , cte }] query_expr [ORDER BY items] [OFFSET ...] [FOR XML|JSON ...] [OPTION (...)]
//	cte          → name [( cols )] AS ( select_stmt )
//	query_expr   → query_term { (UNION [ALL] | EXCEPT | INTERSECT) query_term }
//	query_term   → query_spec | ( query_expr )
//	query_spec   → SELECT [ALL|DISTINCT] [TOP n] items [INTO name] [FROM sources] [WHERE expr]
//	               [GROUP BY exprs] [HAVING expr]
//	source       → primary { join }
//	primary      → name [alias] [hints] | @var [alias] | func(args) [alias] | ( select_stmt ) alias | ( source )
//	join         → [INNER | {LEFT|RIGHT|FULL} [OUTER]] [hint] JOIN primary ON expr
//	             | CROSS JOIN primary | {CROSS|OUTER} APPLY primary

// aliasExcludedWords can never be an implicit alias because they start a clause.
var aliasExcludedWords = map[string]bool{
	"option": true, "pivot": true, "unpivot": true, "tablesample": true, "output": true,
	"collate": true, "apply": true, "offset": true, "fetch": true, "window": true,
}

// parseDML parses a SELECT, INSERT, UPDATE, DELETE or MERGE statement with its optional WITH clause.
func (p *Parser) parseDML() core.Stmt {
	start := p.token.Pos
	var with *core.WithClause
	if p.check(token.WITH) {
		with = p.parseWithClause()
	}

	switch {
	case p.check(token.SELECT), p.check(token.LPAREN):
		return p.parseSelectStmtWith(start, with)
	case p.check(token.INSERT):
		return p.parseInsert(start, with)
	case p.check(token.UPDATE):
		if with == nil && p.peekN(1).Is("statistics") {
			return p.parseRaw()
		}
		return p.parseUpdate(start, with)
	case p.check(token.DELETE):
		return p.parseDelete(start, with)
	case p.check(token.MERGE):
		return p.parseMerge(start, with)
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "SELECT, INSERT, UPDATE, DELETE or MERGE"))
	return nil
}

// isQueryParen reports whether the parentheses at the current token open a query.
func (p *Parser) isQueryParen() bool {
	n := 0
	for p.peekN(n).Type == token.LPAREN {
		n++
	}
	next := p.peekN(n).Type
	return n > 0 && (next == token.SELECT || next == token.WITH)
}

func (p *Parser) parseWithClause() *core.WithClause {
	start := p.token.Pos
	p.nextToken() // consume WITH
	with := &core.WithClause{}
	for {
		cteStart := p.token.Pos
		cte := &core.CTE{Name: p.parseIdentifier()}
		if p.check(token.LPAREN) {
			cte.Columns = p.parseIdentList()
		}
		if !p.expect(token.AS) || !p.expect(token.LPAREN) {
			break
		}
		cte.Query = p.parseSelectStmt()
		p.expect(token.RPAREN)
		cte.Span = p.spanFrom(cteStart)
		with.CTEs = append(with.CTEs, cte)
		if !p.match(token.COMMA) {
			break
		}
	}
	with.Span = p.spanFrom(start)
	return with
}

// parseSelectStmt parses a full query including its own optional WITH clause.
func (p *Parser) parseSelectStmt() *core.SelectStmt {
	start := p.token.Pos
	var with *core.WithClause
	if p.check(token.WITH) {
		with = p.parseWithClause()
	}
	return p.parseSelectStmtWith(start, with)
}

func (p *Parser) parseSelectStmtWith(start token.Position, with *core.WithClause) *core.SelectStmt {
	stmt := &core.SelectStmt{With: with}
	stmt.Query = p.parseQueryExpr()
	if p.check(token.ORDER) {
		stmt.OrderBy = p.parseOrderBy()
		p.skipOffsetFetch()
	}
	p.skipQueryOptions()
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseQueryExpr() core.QueryExpr {
	start := p.token.Pos
	left := p.parseQueryTerm()
	for left != nil {
		var op core.SetOpType
		switch {
		case p.check(token.UNION):
			op = core.SetOpUnion
		case p.check(token.EXCEPT):
			op = core.SetOpExcept
		case p.check(token.INTERSECT):
			op = core.SetOpIntersect
		default:
			return left
		}
		p.nextToken()
		all := p.match(token.ALL)
		right := p.parseQueryTerm()
		if right == nil {
			return left
		}
		q := &core.BinaryQuery{Op: op, All: all, Left: left, Right: right}
		q.Span = p.spanFrom(start)
		left = q
	}
	return left
}

func (p *Parser) parseQueryTerm() core.QueryExpr {
	switch {
	case p.check(token.SELECT):
		return p.parseQuerySpec()
	case p.check(token.LPAREN):
		p.nextToken()
		q := p.parseQueryExpr()
		// ORDER BY is legal inside parentheses together with TOP
		if p.check(token.ORDER) {
			p.parseOrderBy()
		}
		p.expect(token.RPAREN)
		return q
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), token.SELECT))
	return nil
}

func (p *Parser) parseQuerySpec() *core.QuerySpec {
	start := p.token.Pos
	p.nextToken() // consume SELECT
	q := &core.QuerySpec{}

	if p.match(token.DISTINCT) {
		q.Distinct = true
	} else {
		p.match(token.ALL)
	}
	if p.check(token.TOP) {
		q.Top = p.parseTop()
	}

	q.Columns = p.parseSelectList()

	if p.match(token.INTO) {
		q.Into = p.parseObjectName()
	}
	if p.check(token.FROM) {
		q.From = p.parseFromClause()
	}
	if p.match(token.WHERE) {
		q.Where = p.parseExpr()
	}
	if p.check(token.GROUP) && p.checkPeek(token.BY) {
		p.nextToken()
		p.nextToken()
		p.match(token.ALL)
		q.GroupBy = p.parseExprList()
	}
	if p.match(token.HAVING) {
		q.Having = p.parseExpr()
	}

	q.Span = p.spanFrom(start)
	return q
}

// parseTop parses TOP n | TOP (expr) [PERCENT] [WITH TIES].
func (p *Parser) parseTop() core.Expr {
	p.nextToken() // consume TOP
	var top core.Expr
	if p.check(token.LPAREN) {
		p.nextToken()
		top = p.parseExpr()
		p.expect(token.RPAREN)
	} else {
		top = p.parsePrimary()
	}
	p.matchWord("percent")
	if p.check(token.WITH) && p.peekN(1).Is("ties") {
		p.nextToken()
		p.nextToken()
	}
	return top
}

func (p *Parser) parseSelectList() []*core.SelectItem {
	var items []*core.SelectItem
	for {
		items = append(items, p.parseSelectItem())
		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

func (p *Parser) parseSelectItem() *core.SelectItem {
	start := p.token.Pos
	item := &core.SelectItem{}

	// alias = expr, 'alias' = expr, @var = expr
	if (isIdent(p.token) || p.check(token.STRING) || p.check(token.VARIABLE)) && p.checkPeek(token.EQ) {
		item.Alias = core.Identifier{
			Value:  p.token.Literal,
			Quoted: p.token.Quoted,
			Span:   token.Span{Start: p.token.Pos, End: p.token.End},
		}
		p.nextToken()
		p.nextToken()
		item.Expr = p.parseExpr()
		item.Span = p.spanFrom(start)
		return item
	}

	item.Expr = p.parseExpr()
	item.Alias = p.parseOptionalAlias()
	item.Span = p.spanFrom(start)
	return item
}

// parseOptionalAlias parses [AS] alias. String literals are accepted after AS.
func (p *Parser) parseOptionalAlias() core.Identifier {
	if p.match(token.AS) {
		if p.check(token.STRING) {
			return p.identFromToken()
		}
		return p.parseNameLoose()
	}
	if isIdent(p.token) && !isStatementStart(p.token) &&
		(p.token.Quoted || !aliasExcludedWords[strings.ToLower(p.token.Literal)]) {
		return p.identFromToken()
	}
	return core.Identifier{}
}

func (p *Parser) parseOrderBy() []*core.OrderByItem {
	p.nextToken() // consume ORDER
	p.expect(token.BY)
	var items []*core.OrderByItem
	for {
		item := &core.OrderByItem{Expr: p.parseExpr()}
		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}
		items = append(items, item)
		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

// skipOffsetFetch skips OFFSET n ROWS [FETCH NEXT m ROWS ONLY].
func (p *Parser) skipOffsetFetch() {
	if !p.matchWord("offset") {
		return
	}
	p.parseExpr()
	if !p.matchWord("rows") {
		p.matchWord("row")
	}
	if p.matchWord("fetch") {
		p.nextToken() // NEXT or FIRST
		p.parseExpr()
		if !p.matchWord("rows") {
			p.matchWord("row")
		}
		p.matchWord("only")
	}
}

// skipQueryOptions skips FOR XML/JSON/BROWSE and OPTION (...) trailers.
func (p *Parser) skipQueryOptions() {
	for {
		switch {
		case p.check(token.FOR) && (p.peekN(1).Is("xml") || p.peekN(1).Is("json") || p.peekN(1).Is("browse")):
			p.nextToken()
			for !p.atStatementEnd() && !p.check(token.RPAREN) && !p.atStatementStart() &&
				!p.checkWord("option") && !p.check(token.END) && !p.check(token.ELSE) {
				if p.check(token.LPAREN) {
					p.skipParens()
					continue
				}
				p.nextToken()
			}
		case p.checkWord("option") && p.checkPeek(token.LPAREN):
			p.nextToken()
			p.skipParens()
		default:
			return
		}
	}
}

// ---------- FROM ----------

func (p *Parser) parseFromClause() *core.FromClause {
	start := p.token.Pos
	p.nextToken() // consume FROM
	from := &core.FromClause{}
	for {
		if t := p.parseTableRef(); t != nil {
			from.Tables = append(from.Tables, t)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	from.Span = p.spanFrom(start)
	return from
}

// parseTableRef parses a table source with any joins attached to it.
func (p *Parser) parseTableRef() core.TableRef {
	start := p.token.Pos
	left := p.parseTablePrimary()
	if left == nil {
		return nil
	}

	for {
		switch {
		case p.check(token.CROSS) && p.checkPeek(token.JOIN):
			p.nextToken()
			p.nextToken()
			right := p.parseTablePrimary()
			if right == nil {
				return left
			}
			j := &core.UnqualifiedJoin{Kind: core.JoinCross, Left: left, Right: right}
			j.Span = p.spanFrom(start)
			left = j
		case (p.check(token.CROSS) || p.check(token.OUTER)) && p.peekN(1).Is("apply"):
			kind := core.JoinCrossApply
			if p.check(token.OUTER) {
				kind = core.JoinOuterApply
			}
			p.nextToken()
			p.nextToken()
			right := p.parseTablePrimary()
			if right == nil {
				return left
			}
			j := &core.UnqualifiedJoin{Kind: kind, Left: left, Right: right}
			j.Span = p.spanFrom(start)
			left = j
		default:
			kind, ok := p.parseJoinKind()
			if !ok {
				return left
			}
			right := p.parseTablePrimary()
			if right == nil {
				return left
			}
			j := &core.QualifiedJoin{Kind: kind, Left: left, Right: right}
			if p.expect(token.ON) {
				j.On = p.parseExpr()
			}
			j.Span = p.spanFrom(start)
			left = j
		}
	}
}

// parseJoinKind consumes [INNER | LEFT|RIGHT|FULL [OUTER]] [LOOP|HASH|MERGE|REMOTE] JOIN.
func (p *Parser) parseJoinKind() (core.JoinKind, bool) {
	kind := core.JoinInner
	n := 0
	switch p.peekN(0).Type {
	case token.INNER:
		n = 1
	case token.LEFT, token.RIGHT, token.FULL:
		kind = map[token.TokenType]core.JoinKind{
			token.LEFT: core.JoinLeft, token.RIGHT: core.JoinRight, token.FULL: core.JoinFull,
		}[p.token.Type]
		n = 1
		if p.peekN(1).Type == token.OUTER {
			n = 2
		}
	}
	if hint := p.peekN(n); hint.Is("loop") || hint.Is("hash") || hint.Type == token.MERGE || hint.Is("remote") {
		n++
	}
	if p.peekN(n).Type != token.JOIN {
		return "", false
	}
	for i := 0; i <= n; i++ {
		p.nextToken()
	}
	return kind, true
}

func (p *Parser) parseTablePrimary() core.TableRef {
	start := p.token.Pos

	switch {
	case p.check(token.LPAREN) && p.isQueryParen():
		p.nextToken()
		dt := &core.DerivedTable{Query: p.parseSelectStmt()}
		p.expect(token.RPAREN)
		dt.Alias = p.parseOptionalAlias()
		if p.check(token.LPAREN) {
			dt.Columns = p.parseIdentList()
		}
		dt.Span = p.spanFrom(start)
		return dt

	case p.check(token.LPAREN):
		p.nextToken()
		t := p.parseTableRef()
		p.expect(token.RPAREN)
		return t

	case p.check(token.VARIABLE):
		vt := &core.VariableTable{Name: p.token.Literal}
		p.nextToken()
		vt.Alias = p.parseOptionalAlias()
		vt.Span = p.spanFrom(start)
		return vt

	case isIdent(p.token) || p.check(token.DOT):
		name := p.parseObjectName()
		if p.check(token.LPAREN) {
			call := p.parseFuncCallArgs(start, name)
			ft := &core.FunctionTable{Call: call}
			p.skipTableHints()
			ft.Alias = p.parseOptionalAlias()
			if p.check(token.LPAREN) {
				p.skipParens() // column aliases
			}
			ft.Span = p.spanFrom(start)
			return ft
		}
		tn := &core.TableName{Name: name}
		p.skipTemporalClause()
		tn.Alias = p.parseOptionalAlias()
		p.skipTableHints()
		tn.Span = p.spanFrom(start)
		return tn
	}

	p.addError(fmt.Sprintf(ErrExpectedTableSource, p.token.Literal))
	return nil
}

// skipTableHints skips WITH (NOLOCK, ...), TABLESAMPLE (...) and OPENJSON's WITH (schema).
func (p *Parser) skipTableHints() {
	for {
		switch {
		case p.check(token.WITH) && p.checkPeek(token.LPAREN):
			p.nextToken()
			p.skipParens()
		case p.checkWord("tablesample"):
			p.nextToken()
			p.matchWord("system")
			p.skipParens()
			if p.matchWord("repeatable") {
				p.skipParens()
			}
		default:
			return
		}
	}
}

// skipTemporalClause skips FOR SYSTEM_TIME ... on temporal tables.
func (p *Parser) skipTemporalClause() {
	if !p.check(token.FOR) || !p.peekN(1).Is("system_time") {
		return
	}
	p.nextToken()
	p.nextToken()
	switch {
	case p.match(token.ALL):
	case p.match(token.BETWEEN):
		p.parseAdditive()
		p.expect(token.AND)
		p.parseAdditive()
	default:
		// AS OF x | FROM x TO y | CONTAINED IN (x, y)
		for !p.atStatementEnd() && (p.check(token.AS) || p.check(token.FROM) || p.check(token.IN) ||
			p.checkWord("of") || p.checkWord("to") || p.checkWord("contained") ||
			p.check(token.STRING) || p.check(token.VARIABLE) || p.check(token.LPAREN)) {
			if p.check(token.LPAREN) {
				p.skipParens()
				continue
			}
			p.nextToken()
		}
	}
}
