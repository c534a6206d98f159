// Package parser is a recursive-descent parser over internal/lexer's token
// stream. It produces the typed AST defined in internal/ast: a Script is a
// sequence of top-level statements (load, table, stream, open, select,
// map, sync, abort), with embedded SQL expression trees for select bodies.
//
// Concrete syntax (consistent with the keyword set in internal/lexer):
//
//	load NAME as 'path'
//	table NAME as DICT.STREAM
//	stream NAME as DICT.STREAM
//	open NAME as CONNECTOR for read|write with DICT.STREAM 'connString'
//	select <column-list> from NAME ALIAS
//	    [join NAME ALIAS on COL = COL]
//	    [where <predicate>]
//	    [group by COL [, COL ...]]
//	    [having <predicate>]
//	    [order by COL [, COL ...]]
//	    into NAME
//	map DICT.STREAM to DICT.STREAM [with (DSTFIELD = SRCFIELD [, ...])]
//	sync READER to WRITER
//	abort 'message'
package parser

import (
	"fmt"

	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/lexer"
)

// Error reports an unexpected token: what was expected and what was found.
type Error struct {
	Line     int
	Col      int
	Expected string
	Got      string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: expected %s, got %s", e.Line, e.Col, e.Expected, e.Got)
}

// Parser consumes a token stream produced by internal/lexer and builds an
// ast.Script.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// Parse lexes and parses src into a Script named name.
func Parse(name, src string) (*ast.Script, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseScript(name)
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if !p.at(k) {
		return lexer.Token{}, p.errorf(k.String())
	}
	return p.advance(), nil
}

func (p *Parser) errorf(expected string) *Error {
	t := p.cur()
	got := t.Kind.String()
	if t.Kind == lexer.Ident || t.Kind == lexer.String || t.Kind == lexer.Int || t.Kind == lexer.Decimal {
		got = fmt.Sprintf("%s %q", got, t.Lexeme)
	}
	return &Error{Line: t.Line, Col: t.Col, Expected: expected, Got: got}
}

func toPos(t lexer.Token) ast.Position { return ast.Position{Line: t.Line, Col: t.Col} }

func (p *Parser) parseScript(name string) (*ast.Script, error) {
	script := &ast.Script{Name: name}
	for !p.at(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		script.Statements = append(script.Statements, stmt)
	}
	return script, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Kind {
	case lexer.KwLoad:
		return p.parseLoad()
	case lexer.KwTable:
		return p.parseDecl(ast.DeclTable)
	case lexer.KwStream:
		return p.parseDecl(ast.DeclStream)
	case lexer.KwOpen:
		return p.parseOpen()
	case lexer.KwSelect:
		return p.parseSelect()
	case lexer.KwMap:
		return p.parseMap()
	case lexer.KwSync:
		return p.parseSync()
	case lexer.KwAbort:
		return p.parseAbort()
	default:
		return nil, p.errorf("a statement (load, table, stream, open, select, map, sync, abort)")
	}
}

func (p *Parser) parseIdentOrKeywordName() (lexer.Token, error) {
	if p.at(lexer.Ident) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errorf("identifier")
}

func (p *Parser) parseLoad() (ast.Statement, error) {
	tok := p.advance() // load
	name, err := p.parseIdentOrKeywordName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwAs); err != nil {
		return nil, err
	}
	path, err := p.expect(lexer.String)
	if err != nil {
		return nil, err
	}
	return &ast.Load{Position: toPos(tok), Name: name.Lexeme, DictPath: path.Lexeme}, nil
}

func (p *Parser) parseDictStreamRef() (ast.DictStreamRef, error) {
	dict, err := p.parseIdentOrKeywordName()
	if err != nil {
		return ast.DictStreamRef{}, err
	}
	if _, err := p.expect(lexer.Dot); err != nil {
		return ast.DictStreamRef{}, err
	}
	stream, err := p.parseIdentOrKeywordName()
	if err != nil {
		return ast.DictStreamRef{}, err
	}
	return ast.DictStreamRef{Dict: dict.Lexeme, Stream: stream.Lexeme}, nil
}

func (p *Parser) parseDecl(kind ast.DeclKind) (ast.Statement, error) {
	tok := p.advance() // table/stream
	name, err := p.parseIdentOrKeywordName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwAs); err != nil {
		return nil, err
	}
	ref, err := p.parseDictStreamRef()
	if err != nil {
		return nil, err
	}
	return &ast.Decl{Position: toPos(tok), Name: name.Lexeme, Kind: kind, Ref: ref}, nil
}

func (p *Parser) parseOpen() (ast.Statement, error) {
	tok := p.advance() // open
	name, err := p.parseIdentOrKeywordName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwAs); err != nil {
		return nil, err
	}
	connector, err := p.parseIdentOrKeywordName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwFor); err != nil {
		return nil, err
	}
	var dir ast.Direction
	switch p.cur().Kind {
	case lexer.KwRead:
		p.advance()
		dir = ast.DirRead
	case lexer.KwWrite:
		p.advance()
		dir = ast.DirWrite
	default:
		return nil, p.errorf("'read' or 'write'")
	}
	if _, err := p.expect(lexer.KwWith); err != nil {
		return nil, err
	}
	ref, err := p.parseDictStreamRef()
	if err != nil {
		return nil, err
	}
	connStr, err := p.expect(lexer.String)
	if err != nil {
		return nil, err
	}
	return &ast.Open{
		Position:   toPos(tok),
		Name:       name.Lexeme,
		Connector:  connector.Lexeme,
		Direction:  dir,
		DictRef:    ref,
		ConnString: connStr.Lexeme,
	}, nil
}

func (p *Parser) parseSync() (ast.Statement, error) {
	tok := p.advance() // sync
	reader, err := p.parseIdentOrKeywordName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwTo); err != nil {
		return nil, err
	}
	writer, err := p.parseIdentOrKeywordName()
	if err != nil {
		return nil, err
	}
	return &ast.Sync{Position: toPos(tok), ReaderName: reader.Lexeme, WriterName: writer.Lexeme}, nil
}

func (p *Parser) parseAbort() (ast.Statement, error) {
	tok := p.advance() // abort
	msg, err := p.expect(lexer.String)
	if err != nil {
		return nil, err
	}
	return &ast.Abort{Position: toPos(tok), Message: msg.Lexeme}, nil
}

func (p *Parser) parseMap() (ast.Statement, error) {
	tok := p.advance() // map
	src, err := p.parseDictStreamRef()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwTo); err != nil {
		return nil, err
	}
	dst, err := p.parseDictStreamRef()
	if err != nil {
		return nil, err
	}
	m := &ast.Map{Position: toPos(tok), Src: src, Dst: dst}
	if p.at(lexer.KwWith) {
		p.advance()
		if _, err := p.expect(lexer.LParen); err != nil {
			return nil, err
		}
		for {
			dstField, err := p.parseIdentOrKeywordName()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.Eq); err != nil {
				return nil, err
			}
			srcField, err := p.parseIdentOrKeywordName()
			if err != nil {
				return nil, err
			}
			m.FieldMap = append(m.FieldMap, ast.FieldRename{Dst: dstField.Lexeme, Src: srcField.Lexeme})
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
	}
	return m, nil
}
