package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/token"
)

// Grammar (lowest to highest precedence):
//
//	expr       → or_expr
//	or_expr    → and_expr { OR and_expr }
//	and_expr   → not_expr { AND not_expr }
//	not_expr   → NOT not_expr | comparison
//	comparison → additive [ (= | <> | < | > | <= | >=) additive
//	                      | [NOT] LIKE additive [ESCAPE additive]
//	                      | [NOT] IN ( exprs | select_stmt )
//	                      | [NOT] BETWEEN additive AND additive
//	                      | IS [NOT] NULL ]
//	additive   → multiplicative { (+ | - | & | | | ^) multiplicative }
//	multiplicative → unary { (* | / | %) unary }
//	unary      → (- | + | ~) unary | postfix
//	postfix    → primary [COLLATE name]
//	primary    → literal | @var | column_ref | func_call | CAST(...) | CONVERT(...)
//	           | CASE ... END | EXISTS ( select ) | ( select ) | ( expr ) | *

func (p *Parser) parseExpr() core.Expr {
	return p.parseOr()
}

func (p *Parser) parseExprList() []core.Expr {
	var exprs []core.Expr
	for {
		if e := p.parseExpr(); e != nil {
			exprs = append(exprs, e)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return exprs
}

func (p *Parser) binary(start token.Position, op string, left, right core.Expr) core.Expr {
	if left == nil || right == nil {
		return left
	}
	e := &core.BinaryExpr{Op: op, Left: left, Right: right}
	e.Span = p.spanFrom(start)
	return e
}

func (p *Parser) parseOr() core.Expr {
	start := p.token.Pos
	left := p.parseAnd()
	for p.match(token.OR) {
		left = p.binary(start, "OR", left, p.parseAnd())
	}
	return left
}

func (p *Parser) parseAnd() core.Expr {
	start := p.token.Pos
	left := p.parseNot()
	for p.match(token.AND) {
		left = p.binary(start, "AND", left, p.parseNot())
	}
	return left
}

func (p *Parser) parseNot() core.Expr {
	start := p.token.Pos
	if p.check(token.NOT) && !p.checkPeek(token.EXISTS) {
		p.nextToken()
		inner := p.parseNot()
		if inner == nil {
			return nil
		}
		e := &core.UnaryExpr{Op: "NOT", Expr: inner}
		e.Span = p.spanFrom(start)
		return e
	}
	return p.parseComparison()
}

var comparisonOps = map[token.TokenType]string{
	token.EQ: "=",
	token.NE: "<>",
	token.LT: "<",
	token.GT: ">",
	token.LE: "<=",
	token.GE: ">=",
}

func (p *Parser) parseComparison() core.Expr {
	start := p.token.Pos
	left := p.parseAdditive()
	if left == nil {
		return nil
	}

	if op, ok := comparisonOps[p.token.Type]; ok && (p.token.Type != token.EQ || p.token.Literal == "=") {
		p.nextToken()
		return p.binary(start, op, left, p.parseAdditive())
	}

	not := false
	if p.check(token.NOT) && (p.checkPeek(token.LIKE) || p.checkPeek(token.IN) || p.checkPeek(token.BETWEEN)) {
		p.nextToken()
		not = true
	}

	switch {
	case p.match(token.LIKE):
		op := "LIKE"
		if not {
			op = "NOT LIKE"
		}
		e := p.binary(start, op, left, p.parseAdditive())
		if p.matchWord("escape") {
			p.parseAdditive()
		}
		return e

	case p.match(token.IN):
		in := &core.InExpr{Expr: left, Not: not}
		if !p.expect(token.LPAREN) {
			return left
		}
		if p.check(token.SELECT) || p.check(token.WITH) || p.isQueryParen() {
			in.Query = p.parseSelectStmt()
		} else if !p.check(token.RPAREN) {
			in.List = p.parseExprList()
		}
		p.expect(token.RPAREN)
		in.Span = p.spanFrom(start)
		return in

	case p.match(token.BETWEEN):
		b := &core.BetweenExpr{Expr: left, Not: not}
		b.Low = p.parseAdditive()
		p.expect(token.AND)
		b.High = p.parseAdditive()
		b.Span = p.spanFrom(start)
		return b

	case p.match(token.IS):
		isNull := &core.IsNullExpr{Expr: left, Not: p.match(token.NOT)}
		p.expect(token.NULL)
		isNull.Span = p.spanFrom(start)
		return isNull
	}

	return left
}

var additiveOps = map[token.TokenType]string{
	token.PLUS:  "+",
	token.MINUS: "-",
	token.AMP:   "&",
	token.PIPE:  "|",
	token.CARET: "^",
}

func (p *Parser) parseAdditive() core.Expr {
	start := p.token.Pos
	left := p.parseMultiplicative()
	for {
		op, ok := additiveOps[p.token.Type]
		if !ok || left == nil {
			return left
		}
		p.nextToken()
		left = p.binary(start, op, left, p.parseMultiplicative())
	}
}

var multiplicativeOps = map[token.TokenType]string{
	token.STAR:    "*",
	token.SLASH:   "/",
	token.PERCENT: "%",
}

func (p *Parser) parseMultiplicative() core.Expr {
	start := p.token.Pos
	left := p.parseUnary()
	for {
		op, ok := multiplicativeOps[p.token.Type]
		if !ok || left == nil {
			return left
		}
		p.nextToken()
		left = p.binary(start, op, left, p.parseUnary())
	}
}

func (p *Parser) parseUnary() core.Expr {
	start := p.token.Pos
	switch p.token.Type {
	case token.MINUS, token.PLUS, token.TILDE:
		op := p.token.Literal
		p.nextToken()
		inner := p.parseUnary()
		if inner == nil {
			return nil
		}
		e := &core.UnaryExpr{Op: op, Expr: inner}
		e.Span = p.spanFrom(start)
		return e
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() core.Expr {
	e := p.parsePrimary()
	for e != nil {
		switch {
		case p.checkWord("collate"):
			p.nextToken()
			p.nextToken()
		case p.checkWord("at") && p.peekN(1).Is("time") && p.peekN(2).Is("zone"):
			p.nextToken()
			p.nextToken()
			p.nextToken()
			p.parsePrimary()
		default:
			return e
		}
	}
	return e
}

// parsePrimary parses an atom.
func (p *Parser) parsePrimary() core.Expr {
	start := p.token.Pos

	switch p.token.Type {
	case token.NUMBER:
		return p.literal(core.LiteralNumber)
	case token.STRING:
		return p.literal(core.LiteralString)
	case token.NULL:
		return p.literal(core.LiteralNull)
	case token.DEFAULT:
		return p.literal(core.LiteralDefault)

	case token.VARIABLE:
		v := &core.VariableRef{Name: p.token.Literal}
		p.nextToken()
		v.Span = p.spanFrom(start)
		return v

	case token.STAR:
		p.nextToken()
		s := &core.StarExpr{}
		s.Span = p.spanFrom(start)
		return s

	case token.LPAREN:
		if p.isQueryParen() {
			p.nextToken()
			sub := &core.SubqueryExpr{Query: p.parseSelectStmt()}
			p.expect(token.RPAREN)
			sub.Span = p.spanFrom(start)
			return sub
		}
		p.nextToken()
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		if inner == nil {
			return nil
		}
		e := &core.ParenExpr{Expr: inner}
		e.Span = p.spanFrom(start)
		return e

	case token.CASE:
		return p.parseCase()

	case token.EXISTS:
		return p.parseExists(start, false)

	case token.NOT:
		// NOT EXISTS reaches here from parseNot
		p.nextToken()
		return p.parseExists(start, true)

	case token.LEFT, token.RIGHT:
		if p.checkPeek(token.LPAREN) {
			name := &core.ObjectName{Parts: []core.Identifier{p.identFromToken()}}
			name.Span = p.spanFrom(start)
			return p.parseFuncCallArgs(start, name)
		}

	case token.IDENT:
		if p.checkPeek(token.LPAREN) && !p.token.Quoted {
			switch strings.ToLower(p.token.Literal) {
			case "cast", "try_cast":
				return p.parseCast()
			case "convert", "try_convert":
				return p.parseConvert()
			}
		}
		return p.parseNameExpr()
	}

	p.addError(fmt.Sprintf(ErrExpectedExpression, p.token.Literal))
	return nil
}

func (p *Parser) literal(kind core.LiteralKind) core.Expr {
	lit := &core.Literal{Kind: kind, Value: p.token.Literal}
	lit.Span = token.Span{Start: p.token.Pos, End: p.token.End}
	p.nextToken()
	return lit
}

// parseNameExpr parses a column reference, qualified star or function call.
func (p *Parser) parseNameExpr() core.Expr {
	start := p.token.Pos
	parts := []core.Identifier{p.identFromToken()}
	for p.check(token.DOT) {
		p.nextToken()
		switch {
		case p.check(token.STAR):
			p.nextToken()
			s := &core.StarExpr{Qualifier: parts}
			s.Span = p.spanFrom(start)
			return s
		case p.check(token.DOT):
			parts = append(parts, core.Identifier{})
		default:
			parts = append(parts, p.parseNameLoose())
		}
	}

	if p.check(token.LPAREN) {
		name := &core.ObjectName{Parts: parts}
		name.Span = p.spanFrom(start)
		return p.parseFuncCallArgs(start, name)
	}

	ref := &core.ColumnRef{Parts: parts}
	ref.Span = p.spanFrom(start)
	return ref
}

// parseFuncCallArgs parses ( [DISTINCT] args | * ) [WITHIN GROUP (...)] [OVER (...)] after a function name.
func (p *Parser) parseFuncCallArgs(start token.Position, name *core.ObjectName) *core.FuncCall {
	call := &core.FuncCall{Name: name}
	p.expect(token.LPAREN)
	switch {
	case p.check(token.STAR):
		p.nextToken()
		call.Star = true
	case p.check(token.RPAREN):
	default:
		if p.match(token.DISTINCT) {
			call.Distinct = true
		} else {
			p.match(token.ALL)
		}
		call.Args = p.parseExprList()
	}
	p.expect(token.RPAREN)

	if p.checkWord("within") && p.checkPeek(token.GROUP) {
		p.nextToken()
		p.nextToken()
		p.skipParens()
	}
	if p.checkWord("over") && p.checkPeek(token.LPAREN) {
		call.Over = p.parseOver()
	}
	call.Span = p.spanFrom(start)
	return call
}

func (p *Parser) parseOver() *core.OverClause {
	start := p.token.Pos
	p.nextToken() // consume OVER
	p.expect(token.LPAREN)
	over := &core.OverClause{}
	if p.matchWord("partition") {
		p.expect(token.BY)
		over.PartitionBy = p.parseExprList()
	}
	if p.check(token.ORDER) {
		over.OrderBy = p.parseOrderBy()
	}
	// ROWS | RANGE frame
	for !p.check(token.RPAREN) && !p.atStatementEnd() {
		if p.check(token.LPAREN) {
			p.skipParens()
			continue
		}
		p.nextToken()
	}
	p.expect(token.RPAREN)
	over.Span = p.spanFrom(start)
	return over
}

func (p *Parser) parseCast() core.Expr {
	start := p.token.Pos
	p.nextToken() // consume CAST
	p.expect(token.LPAREN)
	c := &core.CastExpr{Expr: p.parseExpr()}
	p.expect(token.AS)
	c.Type = p.parseDataType()
	p.expect(token.RPAREN)
	c.Span = p.spanFrom(start)
	return c
}

// parseConvert parses CONVERT(type, expr [, style]).
func (p *Parser) parseConvert() core.Expr {
	start := p.token.Pos
	p.nextToken() // consume CONVERT
	p.expect(token.LPAREN)
	c := &core.CastExpr{Type: p.parseDataType()}
	p.expect(token.COMMA)
	c.Expr = p.parseExpr()
	if p.match(token.COMMA) {
		p.parseExpr()
	}
	p.expect(token.RPAREN)
	c.Span = p.spanFrom(start)
	return c
}

func (p *Parser) parseCase() core.Expr {
	start := p.token.Pos
	p.nextToken() // consume CASE
	c := &core.CaseExpr{}
	if !p.check(token.WHEN) {
		c.Operand = p.parseExpr()
	}
	for p.match(token.WHEN) {
		w := &core.WhenClause{Cond: p.parseExpr()}
		p.expect(token.THEN)
		w.Result = p.parseExpr()
		c.Whens = append(c.Whens, w)
	}
	if p.match(token.ELSE) {
		c.Else = p.parseExpr()
	}
	p.expect(token.END)
	c.Span = p.spanFrom(start)
	return c
}

func (p *Parser) parseExists(start token.Position, not bool) core.Expr {
	if !p.expect(token.EXISTS) || !p.expect(token.LPAREN) {
		return nil
	}
	e := &core.ExistsExpr{Not: not, Query: p.parseSelectStmt()}
	p.expect(token.RPAREN)
	e.Span = p.spanFrom(start)
	return e
}
