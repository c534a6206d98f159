package parser

import (
	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/lexer"
)

func (p *Parser) parseSelect() (ast.Statement, error) {
	tok := p.advance() // select
	query := &ast.Query{Position: toPos(tok)}

	cols, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	query.Columns = cols

	if _, err := p.expect(lexer.KwFrom); err != nil {
		return nil, err
	}
	from, err := p.parseTableSource()
	if err != nil {
		return nil, err
	}
	query.From = from

	if p.at(lexer.KwJoin) {
		join, err := p.parseJoinClause()
		if err != nil {
			return nil, err
		}
		query.Join = join
	}

	if p.at(lexer.KwWhere) {
		p.advance()
		where, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		query.Where = where
	}

	if p.at(lexer.KwGroup) {
		p.advance()
		if _, err := p.expect(lexer.KwBy); err != nil {
			return nil, err
		}
		cols, err := p.parseColumnRefList()
		if err != nil {
			return nil, err
		}
		query.GroupBy = cols
	}

	if p.at(lexer.KwHaving) {
		p.advance()
		having, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		query.Having = having
	}

	if p.at(lexer.KwOrder) {
		p.advance()
		if _, err := p.expect(lexer.KwBy); err != nil {
			return nil, err
		}
		cols, err := p.parseColumnRefList()
		if err != nil {
			return nil, err
		}
		query.OrderBy = cols
	}

	if _, err := p.expect(lexer.KwInto); err != nil {
		return nil, err
	}
	into, err := p.parseIdentOrKeywordName()
	if err != nil {
		return nil, err
	}

	return &ast.Select{Position: toPos(tok), Query: query, Into: into.Lexeme}, nil
}

func (p *Parser) parseSelectList() ([]ast.SelectItem, error) {
	var items []ast.SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

// parseSelectItem parses one projected column: an expression with an
// optional "AS alias" or bare alias (`p.Vendor VendorID`).
func (p *Parser) parseSelectItem() (ast.SelectItem, error) {
	expr, err := p.parseValueExpr()
	if err != nil {
		return ast.SelectItem{}, err
	}
	item := ast.SelectItem{Expr: expr}
	if p.at(lexer.KwAs) {
		p.advance()
		alias, err := p.parseIdentOrKeywordName()
		if err != nil {
			return ast.SelectItem{}, err
		}
		item.Alias = alias.Lexeme
		item.ExplicitAs = true
		return item, nil
	}
	// A bare alias is a lone identifier immediately following the
	// expression, not one of the tokens that would start the next clause
	// or select item.
	if p.at(lexer.Ident) && !p.isQualifiedColumnAhead() {
		alias := p.advance()
		item.Alias = alias.Lexeme
	}
	return item, nil
}

// isQualifiedColumnAhead reports whether the current identifier is itself
// the start of a qualified column reference (ident.ident), which can never
// be a bare alias.
func (p *Parser) isQualifiedColumnAhead() bool {
	return p.peekAt(1).Kind == lexer.Dot
}

func (p *Parser) parseTableSource() (ast.TableSource, error) {
	name, err := p.parseIdentOrKeywordName()
	if err != nil {
		return ast.TableSource{}, err
	}
	alias, err := p.parseIdentOrKeywordName()
	if err != nil {
		return ast.TableSource{}, err
	}
	return ast.TableSource{Name: name.Lexeme, Alias: alias.Lexeme}, nil
}

func (p *Parser) parseJoinClause() (*ast.JoinClause, error) {
	p.advance() // join
	table, err := p.parseTableSource()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwOn); err != nil {
		return nil, err
	}
	left, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Eq); err != nil {
		return nil, err
	}
	right, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	return &ast.JoinClause{Table: table, Left: left, Right: right}, nil
}

func (p *Parser) parseColumnRefList() ([]ast.ColumnRef, error) {
	var cols []ast.ColumnRef
	for {
		col, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	return cols, nil
}

func (p *Parser) parseColumnRef() (ast.ColumnRef, error) {
	first, err := p.parseIdentOrKeywordName()
	if err != nil {
		return ast.ColumnRef{}, err
	}
	if p.at(lexer.Dot) {
		p.advance()
		second, err := p.parseIdentOrKeywordName()
		if err != nil {
			return ast.ColumnRef{}, err
		}
		return ast.ColumnRef{Qualifier: first.Lexeme, Name: second.Lexeme}, nil
	}
	return ast.ColumnRef{Name: first.Lexeme}, nil
}

// --- Predicates: orExpr ('or' andExpr)*; andExpr: notExpr ('and' notExpr)*;
// notExpr: 'not' notExpr | comparison; comparison: valueExpr (op valueExpr)?

func (p *Parser) parsePredicate() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.KwOr) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.KwAnd) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.at(lexer.KwNot) {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.OpNot, Expr: inner}, nil
	}
	return p.parseComparison()
}

var compOps = map[lexer.Kind]ast.BinaryOp{
	lexer.Eq: ast.OpEq,
	lexer.Ne: ast.OpNe,
	lexer.Lt: ast.OpLt,
	lexer.Le: ast.OpLe,
	lexer.Gt: ast.OpGt,
	lexer.Ge: ast.OpGe,
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	if p.at(lexer.LParen) {
		// Could be a parenthesized predicate, e.g. "(a = 1 or b = 2)".
		p.advance()
		inner, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return ast.Paren{Expr: inner}, nil
	}

	left, err := p.parseValueExpr()
	if err != nil {
		return nil, err
	}
	if op, ok := compOps[p.cur().Kind]; ok {
		p.advance()
		right, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		return ast.BinaryExpr{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

// --- Value expressions: term (('+'|'-') term)*; term: factor (('*'|'/') factor)*

func (p *Parser) parseValueExpr() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Plus) || p.at(lexer.Minus) {
		tok := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		op := ast.OpAdd
		if tok.Kind == lexer.Minus {
			op = ast.OpSub
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Star) || p.at(lexer.Slash) {
		tok := p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		op := ast.OpMul
		if tok.Kind == lexer.Slash {
			op = ast.OpDiv
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseFactor() (ast.Expr, error) {
	switch p.cur().Kind {
	case lexer.LParen:
		p.advance()
		inner, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return ast.Paren{Expr: inner}, nil
	case lexer.String:
		tok := p.advance()
		return ast.Literal{Kind: ast.LitString, Text: tok.Lexeme}, nil
	case lexer.Int:
		tok := p.advance()
		return ast.Literal{Kind: ast.LitInt, Text: tok.Lexeme}, nil
	case lexer.Decimal:
		tok := p.advance()
		return ast.Literal{Kind: ast.LitDecimal, Text: tok.Lexeme}, nil
	case lexer.KwNull:
		p.advance()
		return ast.Literal{Kind: ast.LitNull}, nil
	case lexer.Ident:
		return p.parseIdentExpr()
	default:
		return nil, p.errorf("an expression")
	}
}

// parseIdentExpr disambiguates a bare/qualified column reference from a
// function call, which is distinguished only by a following '('.
func (p *Parser) parseIdentExpr() (ast.Expr, error) {
	first := p.advance()
	if p.at(lexer.LParen) {
		return p.parseFuncCallArgs(first.Lexeme)
	}
	if p.at(lexer.Dot) {
		p.advance()
		second, err := p.parseIdentOrKeywordName()
		if err != nil {
			return nil, err
		}
		return ast.ColumnRef{Qualifier: first.Lexeme, Name: second.Lexeme}, nil
	}
	return ast.ColumnRef{Name: first.Lexeme}, nil
}

func (p *Parser) parseFuncCallArgs(name string) (ast.Expr, error) {
	p.advance() // (
	call := ast.FuncCall{Name: name}
	if p.at(lexer.Star) {
		// Only legal as count(*).
		p.advance()
		call.Args = []ast.Expr{ast.Star{}}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return call, nil
	}
	if p.at(lexer.RParen) {
		p.advance()
		return call, nil
	}
	for {
		arg, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return call, nil
}
