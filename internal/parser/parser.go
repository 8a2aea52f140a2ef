// Package parser implements a recursive-descent parser for MiniJava.
//
// Operator precedence is encoded directly in the descent, so the
// dangling else binds to the nearest if without a grammar conflict.
package parser

import (
	"fmt"

	"github.com/cwbudde/go-mjc/internal/ast"
	"github.com/cwbudde/go-mjc/internal/lexer"
)

// ParserError is a syntax error with its source position.
type ParserError struct {
	Message string
	Pos     lexer.Position
}

// Error implements the error interface.
func (e ParserError) Error() string {
	return fmt.Sprintf("ParserError: %s @ %d:%d", e.Message, e.Pos.Line, e.Pos.Column)
}

// Parser consumes tokens from a Lexer and builds the AST.
type Parser struct {
	l      *lexer.Lexer
	errors []ParserError

	curToken  lexer.Token
	peekToken lexer.Token
}

// bail is the sentinel used to unwind the descent on the first error.
type bail struct{}

// New creates a Parser reading from the given lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns the syntax errors encountered so far.
func (p *Parser) Errors() []ParserError {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) errorf(pos lexer.Position, format string, args ...any) {
	p.errors = append(p.errors, ParserError{Message: fmt.Sprintf(format, args...), Pos: pos})
	panic(bail{})
}

// expect consumes the current token if it has the wanted type, and
// aborts the parse otherwise.
func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	if p.curToken.Type != tt {
		p.errorf(p.curToken.Pos, "expected %s, found %q", tt, p.curToken.Literal)
	}
	tok := p.curToken
	p.nextToken()
	return tok
}

// ParseProgram parses a whole MiniJava program. On a syntax error the
// result is nil and Errors() holds the diagnostic.
func (p *Parser) ParseProgram() (program *ast.Program) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bail); !ok {
				panic(r)
			}
			program = nil
		}
	}()

	program = &ast.Program{}
	for p.curToken.Type != lexer.EOF {
		program.Classes = append(program.Classes, p.parseClassDecl())
	}
	if len(program.Classes) == 0 {
		p.errorf(p.curToken.Pos, "expected class declaration")
	}
	return program
}

func (p *Parser) parseClassDecl() *ast.ClassDecl {
	cls := &ast.ClassDecl{Token: p.expect(lexer.CLASS)}
	cls.Name = p.parseIdentifier()

	if p.curToken.Type == lexer.EXTENDS {
		p.nextToken()
		cls.Extends = p.parseIdentifier()
	}

	p.expect(lexer.LBRACE)

	// Field declarations precede method declarations.
	for p.isTypeStart() {
		decls := p.parseVarDeclLine()
		cls.Fields = append(cls.Fields, decls.Decls...)
	}

	for p.curToken.Type == lexer.PUBLIC {
		cls.Methods = append(cls.Methods, p.parseMethodDecl())
	}

	p.expect(lexer.RBRACE)
	return cls
}

// isTypeStart reports whether the current token can begin a declaration
// at class or statement level.
func (p *Parser) isTypeStart() bool {
	switch p.curToken.Type {
	case lexer.INT, lexer.BOOLEAN, lexer.CHAR, lexer.STRING:
		return true
	case lexer.IDENT:
		// A user class type only begins a declaration when followed by a name.
		return p.peekToken.Type == lexer.IDENT
	}
	return false
}

// parseTypeNode parses a type spelling: primitive, built-in, array form
// or class name.
func (p *Parser) parseTypeNode() *ast.TypeNode {
	tok := p.curToken
	var name string
	switch tok.Type {
	case lexer.INT, lexer.BOOLEAN, lexer.CHAR, lexer.STRING, lexer.VOID:
		name = tok.Literal
		p.nextToken()
	case lexer.IDENT:
		name = tok.Literal
		p.nextToken()
	default:
		p.errorf(tok.Pos, "expected type, found %q", tok.Literal)
	}
	if p.curToken.Type == lexer.LBRACK && p.peekToken.Type == lexer.RBRACK {
		p.nextToken()
		p.nextToken()
		name += "[]"
	}
	return &ast.TypeNode{Token: tok, Name: name}
}

// parseVarDeclLine parses `T a = e, b, c = e;` into a DeclList.
func (p *Parser) parseVarDeclLine() *ast.DeclList {
	typ := p.parseTypeNode()
	list := &ast.DeclList{Token: typ.Token}
	for {
		name := p.parseIdentifier()
		decl := &ast.VarDecl{Token: typ.Token, DeclType: typ, Name: name}
		if p.curToken.Type == lexer.ASSIGN {
			p.nextToken()
			decl.Init = p.parseInitializer()
		}
		list.Decls = append(list.Decls, decl)
		if p.curToken.Type != lexer.COMMA {
			break
		}
		p.nextToken()
	}
	p.expect(lexer.SEMICOLON)
	return list
}

// parseInitializer parses either an init list `{…}` or an expression.
func (p *Parser) parseInitializer() ast.Expression {
	if p.curToken.Type == lexer.LBRACE {
		return p.parseInitList()
	}
	return p.parseExpression()
}

func (p *Parser) parseInitList() *ast.InitList {
	list := &ast.InitList{Token: p.expect(lexer.LBRACE)}
	if p.curToken.Type != lexer.RBRACE {
		list.Exprs = append(list.Exprs, p.parseExpression())
		for p.curToken.Type == lexer.COMMA {
			p.nextToken()
			list.Exprs = append(list.Exprs, p.parseExpression())
		}
	}
	p.expect(lexer.RBRACE)
	return list
}

func (p *Parser) parseMethodDecl() ast.MethodLike {
	pubTok := p.expect(lexer.PUBLIC)

	if p.curToken.Type == lexer.STATIC {
		// public static void main(String[] id) { … }
		p.nextToken()
		p.expect(lexer.VOID)
		p.expect(lexer.MAIN)
		p.expect(lexer.LPAREN)
		p.expect(lexer.STRING)
		p.expect(lexer.LBRACK)
		p.expect(lexer.RBRACK)
		args := p.parseIdentifier()
		p.expect(lexer.RPAREN)
		body := p.parseCompound()
		return &ast.MainMethodDecl{Token: pubTok, Args: args, Body: body}
	}

	retType := p.parseReturnTypeNode()
	name := p.parseIdentifier()
	p.expect(lexer.LPAREN)
	var params []*ast.ParamDecl
	if p.curToken.Type != lexer.RPAREN {
		params = append(params, p.parseParamDecl())
		for p.curToken.Type == lexer.COMMA {
			p.nextToken()
			params = append(params, p.parseParamDecl())
		}
	}
	p.expect(lexer.RPAREN)
	body := p.parseCompound()
	return &ast.MethodDecl{
		Token:      pubTok,
		ReturnType: retType,
		Name:       name,
		Params:     params,
		Body:       body,
	}
}

// parseReturnTypeNode allows void in addition to value types.
func (p *Parser) parseReturnTypeNode() *ast.TypeNode {
	if p.curToken.Type == lexer.VOID {
		tok := p.curToken
		p.nextToken()
		return &ast.TypeNode{Token: tok, Name: "void"}
	}
	return p.parseTypeNode()
}

func (p *Parser) parseParamDecl() *ast.ParamDecl {
	typ := p.parseTypeNode()
	name := p.parseIdentifier()
	return &ast.ParamDecl{Token: typ.Token, DeclType: typ, Name: name}
}

func (p *Parser) parseIdentifier() *ast.Identifier {
	tok := p.curToken
	if tok.Type != lexer.IDENT && tok.Type != lexer.MAIN && tok.Type != lexer.LENGTH {
		p.errorf(tok.Pos, "expected identifier, found %q", tok.Literal)
	}
	p.nextToken()
	return &ast.Identifier{Token: tok, Value: tok.Literal}
}

func (p *Parser) parseCompound() *ast.Compound {
	block := &ast.Compound{Token: p.expect(lexer.LBRACE)}
	for p.curToken.Type != lexer.RBRACE && p.curToken.Type != lexer.EOF {
		block.Statements = append(block.Statements, p.parseStatement())
	}
	p.expect(lexer.RBRACE)
	return block
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.LBRACE:
		return p.parseCompound()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.ASSERT:
		return p.parseAssert()
	case lexer.PRINT:
		return p.parsePrint()
	case lexer.BREAK:
		tok := p.expect(lexer.BREAK)
		p.expect(lexer.SEMICOLON)
		return &ast.Break{Token: tok}
	case lexer.RETURN:
		return p.parseReturn()
	}
	if p.isTypeStart() {
		return p.parseVarDeclLine()
	}
	return p.parseExpressionStmt()
}

func (p *Parser) parseIf() *ast.If {
	stmt := &ast.If{Token: p.expect(lexer.IF)}
	p.expect(lexer.LPAREN)
	stmt.Cond = p.parseExpression()
	p.expect(lexer.RPAREN)
	stmt.Then = p.parseStatement()
	if p.curToken.Type == lexer.ELSE {
		p.nextToken()
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhile() *ast.While {
	stmt := &ast.While{Token: p.expect(lexer.WHILE)}
	p.expect(lexer.LPAREN)
	stmt.Cond = p.parseExpression()
	p.expect(lexer.RPAREN)
	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseFor() *ast.For {
	stmt := &ast.For{Token: p.expect(lexer.FOR)}
	p.expect(lexer.LPAREN)

	if p.curToken.Type != lexer.SEMICOLON {
		if p.isTypeStart() {
			// parseVarDeclLine consumes the ';'.
			stmt.Init = p.parseForDeclInit()
		} else {
			tok := p.curToken
			expr := p.parseExpression()
			stmt.Init = &ast.ExpressionStmt{Token: tok, Expr: expr}
			p.expect(lexer.SEMICOLON)
		}
	} else {
		p.nextToken()
	}

	if p.curToken.Type != lexer.SEMICOLON {
		stmt.Cond = p.parseExpression()
	}
	p.expect(lexer.SEMICOLON)

	if p.curToken.Type != lexer.RPAREN {
		stmt.Next = p.parseExpression()
	}
	p.expect(lexer.RPAREN)

	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseForDeclInit() *ast.DeclList {
	return p.parseVarDeclLine()
}

func (p *Parser) parseAssert() *ast.Assert {
	stmt := &ast.Assert{Token: p.expect(lexer.ASSERT)}
	stmt.Expr = p.parseExpression()
	p.expect(lexer.SEMICOLON)
	return stmt
}

func (p *Parser) parsePrint() *ast.Print {
	stmt := &ast.Print{Token: p.expect(lexer.PRINT)}
	p.expect(lexer.LPAREN)
	if p.curToken.Type != lexer.RPAREN {
		stmt.Args = append(stmt.Args, p.parseExpression())
		for p.curToken.Type == lexer.COMMA {
			p.nextToken()
			stmt.Args = append(stmt.Args, p.parseExpression())
		}
	}
	p.expect(lexer.RPAREN)
	p.expect(lexer.SEMICOLON)
	return stmt
}

func (p *Parser) parseReturn() *ast.Return {
	stmt := &ast.Return{Token: p.expect(lexer.RETURN)}
	if p.curToken.Type != lexer.SEMICOLON {
		stmt.Expr = p.parseExpression()
	}
	p.expect(lexer.SEMICOLON)
	return stmt
}

func (p *Parser) parseExpressionStmt() *ast.ExpressionStmt {
	tok := p.curToken
	expr := p.parseExpression()
	p.expect(lexer.SEMICOLON)
	return &ast.ExpressionStmt{Token: tok, Expr: expr}
}
