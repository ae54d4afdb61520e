package parser

import (
	"fmt"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/token"
)

// Grammar:
//
//	use_stmt     → USE ident
//	create_stmt  → CREATE [OR ALTER] ( table | index | view | schema | synonym | procedure | function )
//	create_table → TABLE name ( element { , element } ) { storage_option }
//	element      → column_def | [CONSTRAINT name] table_constraint | INDEX name ... | PERIOD FOR ...
//	create_index → [UNIQUE] [CLUSTERED|NONCLUSTERED] INDEX name ON name ( cols ) [INCLUDE ( cols )] [WHERE expr]
//	create_view  → VIEW name [( cols )] [WITH opts] AS select [WITH CHECK OPTION]
//	alter_table  → ALTER TABLE name [WITH CHECK|NOCHECK] ADD element { , element }

func (p *Parser) parseUse() core.Stmt {
	start := p.token.Pos
	p.nextToken() // consume USE
	stmt := &core.UseStmt{Database: p.parseIdentifier()}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseCreate() core.Stmt {
	start := p.token.Pos
	p.nextToken() // consume CREATE

	orAlter := false
	if p.match(token.OR) {
		p.expect(token.ALTER)
		orAlter = true
	}

	switch {
	case p.check(token.TABLE):
		return p.parseCreateTable(start)
	case p.check(token.INDEX), p.check(token.UNIQUE), p.check(token.CLUSTERED), p.check(token.NONCLUSTERED):
		return p.parseCreateIndex(start)
	case p.check(token.VIEW):
		return p.parseCreateView(start, orAlter)
	case p.check(token.PROC), p.check(token.PROCEDURE):
		return p.parseCreateProcedure(start, orAlter)
	case p.check(token.FUNCTION):
		return p.parseCreateFunction(start, orAlter)
	case p.check(token.SCHEMA):
		return p.parseCreateSchema(start)
	case p.check(token.SYNONYM):
		return p.parseCreateSynonym(start)
	case p.checkWord("trigger"):
		return p.parseRawToBatchEnd(start, "CREATE")
	}

	// CREATE TYPE, CREATE LOGIN, CREATE XML INDEX, ...
	p.skipRawClauses()
	return p.rawFrom(start, "CREATE")
}

func (p *Parser) parseAlter() core.Stmt {
	start := p.token.Pos
	p.nextToken() // consume ALTER

	switch {
	case p.check(token.TABLE):
		if stmt := p.parseAlterTable(start); stmt != nil {
			return stmt
		}
	case p.check(token.PROC), p.check(token.PROCEDURE), p.check(token.FUNCTION),
		p.check(token.VIEW), p.checkWord("trigger"):
		return p.parseRawToBatchEnd(start, "ALTER")
	}

	p.skipRawClauses()
	return p.rawFrom(start, "ALTER")
}

// ---------- Tables ----------

func (p *Parser) parseCreateTable(start token.Position) core.Stmt {
	p.nextToken() // consume TABLE
	stmt := &core.CreateTableStmt{Name: p.parseObjectName()}
	if !p.expect(token.LPAREN) {
		return nil
	}
	for !p.check(token.RPAREN) && !p.check(token.EOF) && !p.check(token.GO) {
		p.parseTableElement(&stmt.Columns, &stmt.Constraints, &stmt.Indexes)
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	p.skipStorageOptions()
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseTableElement parses one element of a table definition or ALTER TABLE ADD list.
func (p *Parser) parseTableElement(columns *[]*core.ColumnDef, constraints *[]*core.TableConstraint, indexes *[]*core.IndexDef) {
	switch {
	case p.check(token.CONSTRAINT), p.check(token.PRIMARY), p.check(token.UNIQUE),
		p.check(token.FOREIGN), p.check(token.CHECK), p.check(token.DEFAULT):
		if c := p.parseTableConstraint(); c != nil {
			*constraints = append(*constraints, c)
		}
	case p.check(token.INDEX):
		if idx := p.parseInlineIndex(); idx != nil && indexes != nil {
			*indexes = append(*indexes, idx)
		}
	case p.checkWord("period"):
		// PERIOD FOR SYSTEM_TIME (start, end)
		p.skipElement()
	case isIdent(p.token):
		col, idx := p.parseColumnDef()
		*columns = append(*columns, col)
		if idx != nil && indexes != nil {
			*indexes = append(*indexes, idx)
		}
	default:
		p.skipElement()
	}
}

// skipElement skips to the next ',' or ')' at the current nesting level.
func (p *Parser) skipElement() {
	for !p.check(token.COMMA) && !p.check(token.RPAREN) && !p.atStatementEnd() {
		if p.check(token.LPAREN) {
			p.skipParens()
			continue
		}
		p.nextToken()
	}
}

func (p *Parser) parseColumnDef() (*core.ColumnDef, *core.IndexDef) {
	start := p.token.Pos
	col := &core.ColumnDef{Name: p.parseIdentifier()}
	var inlineIndex *core.IndexDef

	if p.match(token.AS) {
		col.Computed = p.parseExpr()
	} else {
		col.DataType = p.parseDataType()
	}

	for !p.check(token.COMMA) && !p.check(token.RPAREN) && !p.atStatementEnd() && !p.atStatementStart() {
		switch {
		case p.checkWord("identity"):
			p.nextToken()
			p.skipParens()
			col.Identity = true
		case p.check(token.NULL):
			p.nextToken()
			col.Nullable = boolPtr(true)
		case p.check(token.NOT) && p.checkPeek(token.NULL):
			p.nextToken()
			p.nextToken()
			col.Nullable = boolPtr(false)
		case p.check(token.NOT) && p.checkPeek(token.FOR):
			p.skipNotForReplication()
		case p.check(token.CONSTRAINT), p.check(token.PRIMARY), p.check(token.UNIQUE),
			p.check(token.FOREIGN), p.check(token.REFERENCES), p.check(token.CHECK), p.check(token.DEFAULT):
			if c := p.parseColumnConstraint(); c != nil {
				col.Constraints = append(col.Constraints, c)
			}
		case p.check(token.INDEX):
			// column-level index: col int INDEX ix_name [CLUSTERED|NONCLUSTERED]
			idxStart := p.token.Pos
			p.nextToken()
			idx := &core.IndexDef{Name: p.parseIdentifier()}
			idx.Clustered = p.parseClustered()
			idx.Columns = []*core.IndexColumn{{Name: col.Name}}
			idx.Span = p.spanFrom(idxStart)
			inlineIndex = idx
		case p.checkWord("collate"):
			p.nextToken()
			p.nextToken()
		case p.check(token.LPAREN):
			p.skipParens()
		default:
			// ROWGUIDCOL, SPARSE, PERSISTED, FILESTREAM, GENERATED ALWAYS AS ROW START, MASKED WITH (...)
			p.nextToken()
		}
	}

	col.Span = p.spanFrom(start)
	return col, inlineIndex
}

func (p *Parser) parseColumnConstraint() *core.ColumnConstraint {
	start := p.token.Pos
	c := &core.ColumnConstraint{}
	if p.match(token.CONSTRAINT) {
		c.Name = p.parseIdentifier()
	}

	switch {
	case p.check(token.PRIMARY):
		p.nextToken()
		p.expect(token.KEY)
		c.Kind = core.ConstraintPrimaryKey
		c.Clustered = p.parseClustered()
		p.skipStorageOptions()
	case p.check(token.UNIQUE):
		p.nextToken()
		c.Kind = core.ConstraintUnique
		c.Clustered = p.parseClustered()
		p.skipStorageOptions()
	case p.check(token.FOREIGN), p.check(token.REFERENCES):
		if p.match(token.FOREIGN) {
			p.expect(token.KEY)
		}
		p.expect(token.REFERENCES)
		c.Kind = core.ConstraintForeignKey
		c.RefTable = p.parseObjectName()
		if p.check(token.LPAREN) {
			c.RefColumns = p.parseIdentList()
		}
		p.skipReferentialActions()
	case p.check(token.CHECK):
		p.nextToken()
		p.skipNotForReplication()
		c.Kind = core.ConstraintCheck
		c.Expr = p.parseParenExpr()
	case p.check(token.DEFAULT):
		p.nextToken()
		c.Kind = core.ConstraintDefault
		c.Expr = p.parseExpr()
		if p.check(token.WITH) && p.peekN(1).Is("values") {
			p.nextToken()
			p.nextToken()
		}
	default:
		p.addError(fmt.Sprintf(ErrExpectedConstraint, describe(p.token)))
		return nil
	}

	c.Span = p.spanFrom(start)
	return c
}

func (p *Parser) parseTableConstraint() *core.TableConstraint {
	start := p.token.Pos
	c := &core.TableConstraint{}
	if p.match(token.CONSTRAINT) {
		c.Name = p.parseIdentifier()
	}

	switch {
	case p.check(token.PRIMARY):
		p.nextToken()
		p.expect(token.KEY)
		c.Kind = core.ConstraintPrimaryKey
		c.Clustered = p.parseClustered()
		c.Columns = p.parseIndexColumns()
		p.skipStorageOptions()
	case p.check(token.UNIQUE):
		p.nextToken()
		c.Kind = core.ConstraintUnique
		c.Clustered = p.parseClustered()
		c.Columns = p.parseIndexColumns()
		p.skipStorageOptions()
	case p.check(token.FOREIGN):
		p.nextToken()
		p.expect(token.KEY)
		c.Kind = core.ConstraintForeignKey
		c.Columns = p.parseIndexColumns()
		p.expect(token.REFERENCES)
		c.RefTable = p.parseObjectName()
		if p.check(token.LPAREN) {
			c.RefColumns = p.parseIdentList()
		}
		p.skipReferentialActions()
	case p.check(token.CHECK):
		p.nextToken()
		p.skipNotForReplication()
		c.Kind = core.ConstraintCheck
		c.Expr = p.parseParenExpr()
	case p.check(token.DEFAULT):
		p.nextToken()
		c.Kind = core.ConstraintDefault
		c.Expr = p.parseExpr()
		if p.expect(token.FOR) {
			c.DefaultFor = p.parseIdentifier()
		}
	default:
		p.addError(fmt.Sprintf(ErrExpectedConstraint, describe(p.token)))
		return nil
	}

	c.Span = p.spanFrom(start)
	return c
}

// parseInlineIndex parses INDEX name [UNIQUE] [CLUSTERED|NONCLUSTERED] (cols) inside CREATE TABLE.
func (p *Parser) parseInlineIndex() *core.IndexDef {
	start := p.token.Pos
	p.nextToken() // consume INDEX
	idx := &core.IndexDef{Name: p.parseIdentifier()}
	idx.Unique = p.match(token.UNIQUE)
	idx.Clustered = p.parseClustered()
	p.matchWord("columnstore")
	if p.check(token.LPAREN) {
		idx.Columns = p.parseIndexColumns()
	}
	if p.matchWord("include") {
		idx.Include = p.parseIdentList()
	}
	if p.match(token.WHERE) {
		p.parseExpr()
	}
	p.skipStorageOptions()
	idx.Span = p.spanFrom(start)
	return idx
}

// parseClustered parses an optional CLUSTERED or NONCLUSTERED keyword.
func (p *Parser) parseClustered() *bool {
	switch {
	case p.match(token.CLUSTERED):
		return boolPtr(true)
	case p.match(token.NONCLUSTERED):
		return boolPtr(false)
	}
	return nil
}

// skipStorageOptions skips WITH (...), ON filegroup[(col)], TEXTIMAGE_ON x and FILESTREAM_ON x.
func (p *Parser) skipStorageOptions() {
	for {
		switch {
		case p.check(token.WITH) && p.checkPeek(token.LPAREN):
			p.nextToken()
			p.skipParens()
		case p.check(token.ON) && !p.checkPeek(token.DELETE) && !p.checkPeek(token.UPDATE):
			p.nextToken()
			p.nextToken() // filegroup or partition scheme
			p.skipParens()
		case p.checkWord("textimage_on"), p.checkWord("filestream_on"):
			p.nextToken()
			p.nextToken()
		default:
			return
		}
	}
}

// skipReferentialActions skips ON DELETE/UPDATE actions and NOT FOR REPLICATION.
func (p *Parser) skipReferentialActions() {
	for {
		switch {
		case p.check(token.ON) && (p.checkPeek(token.DELETE) || p.checkPeek(token.UPDATE)):
			p.nextToken()
			p.nextToken()
			switch {
			case p.match(token.SET):
				p.nextToken() // NULL or DEFAULT
			case p.matchWord("no"):
				p.matchWord("action")
			default:
				p.nextToken() // CASCADE
			}
		case p.check(token.NOT) && p.checkPeek(token.FOR):
			p.skipNotForReplication()
		default:
			return
		}
	}
}

func (p *Parser) skipNotForReplication() {
	if p.check(token.NOT) && p.checkPeek(token.FOR) {
		p.nextToken()
		p.nextToken()
		p.matchWord("replication")
	}
}

// parseParenExpr parses ( expr ).
func (p *Parser) parseParenExpr() core.Expr {
	if !p.expect(token.LPAREN) {
		return nil
	}
	e := p.parseExpr()
	p.expect(token.RPAREN)
	return e
}

func (p *Parser) parseAlterTable(start token.Position) core.Stmt {
	// lookahead: ALTER TABLE name [WITH CHECK|NOCHECK] ADD
	save := p.idx
	p.nextToken() // consume TABLE
	name := p.parseObjectName()
	if p.check(token.WITH) && (p.checkPeek(token.CHECK) || p.peekN(1).Is("nocheck")) {
		p.nextToken()
		p.nextToken()
	}
	if !p.match(token.ADD) {
		p.rewind(save)
		return nil
	}

	stmt := &core.AlterTableAddStmt{Table: name}
	for !p.atStatementEnd() {
		p.parseTableElement(&stmt.Columns, &stmt.Constraints, nil)
		if !p.match(token.COMMA) {
			break
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// rewind resets the parser to a previously saved token index.
func (p *Parser) rewind(idx int) {
	p.idx = idx
	p.token = p.tokens[idx]
	if idx > 0 {
		p.prevEnd = p.tokens[idx-1].End
	}
}

// ---------- Indexes ----------

func (p *Parser) parseCreateIndex(start token.Position) core.Stmt {
	stmt := &core.CreateIndexStmt{}
	stmt.Unique = p.match(token.UNIQUE)
	stmt.Clustered = p.parseClustered()
	p.matchWord("columnstore")
	if !p.expect(token.INDEX) {
		return nil
	}
	stmt.Name = p.parseIdentifier()
	if !p.expect(token.ON) {
		return nil
	}
	stmt.Table = p.parseObjectName()
	if p.check(token.LPAREN) {
		stmt.Columns = p.parseIndexColumns()
	}
	if p.matchWord("include") {
		stmt.Include = p.parseIdentList()
	}
	if p.match(token.WHERE) {
		stmt.Where = p.parseExpr()
	}
	p.skipStorageOptions()
	stmt.Span = p.spanFrom(start)
	return stmt
}

// ---------- Views ----------

func (p *Parser) parseCreateView(start token.Position, orAlter bool) core.Stmt {
	p.nextToken() // consume VIEW
	stmt := &core.CreateViewStmt{Name: p.parseObjectName(), OrAlter: orAlter}
	if p.check(token.LPAREN) {
		stmt.Columns = p.parseIdentList()
	}
	if p.match(token.WITH) {
		// SCHEMABINDING, ENCRYPTION, VIEW_METADATA
		for isIdent(p.token) {
			p.nextToken()
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if !p.expect(token.AS) {
		return nil
	}
	stmt.Query = p.parseSelectStmt()
	if p.check(token.WITH) && p.checkPeek(token.CHECK) {
		p.nextToken()
		p.nextToken()
		p.matchWord("option")
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// ---------- Schemas & Synonyms ----------

func (p *Parser) parseCreateSchema(start token.Position) core.Stmt {
	p.nextToken() // consume SCHEMA
	stmt := &core.CreateSchemaStmt{Name: p.parseIdentifier()}
	if p.matchWord("authorization") {
		stmt.Owner = p.parseNameLoose()
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseCreateSynonym(start token.Position) core.Stmt {
	p.nextToken() // consume SYNONYM
	stmt := &core.CreateSynonymStmt{Name: p.parseObjectName()}
	if !p.expect(token.FOR) {
		return nil
	}
	stmt.Target = p.parseObjectName()
	stmt.Span = p.spanFrom(start)
	return stmt
}

func boolPtr(b bool) *bool { return &b }
