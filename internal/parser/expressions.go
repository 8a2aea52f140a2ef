package parser

import (
	"strconv"

	"github.com/cwbudde/go-mjc/internal/ast"
	"github.com/cwbudde/go-mjc/internal/lexer"
)

// Binding powers, lowest to highest. Assignment is right-associative
// and handled separately in parseExpression.
const (
	precLowest = iota
	precOr     // ||
	precAnd    // &&
	precEq     // == !=
	precRel    // < <= > >=
	precSum    // + -
	precProd   // * / %
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:     precOr,
	lexer.AND:    precAnd,
	lexer.EQ:     precEq,
	lexer.NE:     precEq,
	lexer.LT:     precRel,
	lexer.LE:     precRel,
	lexer.GT:     precRel,
	lexer.GE:     precRel,
	lexer.PLUS:   precSum,
	lexer.MINUS:  precSum,
	lexer.TIMES:  precProd,
	lexer.DIVIDE: precProd,
	lexer.MOD:    precProd,
}

// parseExpression parses a full expression including assignment.
func (p *Parser) parseExpression() ast.Expression {
	left := p.parseBinaryExpr(precLowest)

	if p.curToken.Type == lexer.ASSIGN {
		tok := p.curToken
		switch left.(type) {
		case *ast.Identifier, *ast.FieldAccess, *ast.ArrayRef:
		default:
			p.errorf(tok.Pos, "invalid assignment target")
		}
		p.nextToken()
		// Right-associative: a = b = c parses as a = (b = c).
		right := p.parseExpression()
		return &ast.Assignment{Token: tok, LValue: left, RValue: right}
	}
	return left
}

// parseBinaryExpr implements precedence climbing over the binary
// operator table.
func (p *Parser) parseBinaryExpr(minPrec int) ast.Expression {
	left := p.parseUnaryExpr()

	for {
		prec, ok := precedences[p.curToken.Type]
		if !ok || prec < minPrec {
			return left
		}
		tok := p.curToken
		p.nextToken()
		right := p.parseBinaryExpr(prec + 1)
		left = &ast.BinaryOp{Token: tok, Left: left, Operator: tok.Literal, Right: right}
	}
}

// parseUnaryExpr parses right-associative prefix operators.
func (p *Parser) parseUnaryExpr() ast.Expression {
	switch p.curToken.Type {
	case lexer.NOT, lexer.MINUS, lexer.PLUS:
		tok := p.curToken
		p.nextToken()
		expr := p.parseUnaryExpr()
		return &ast.UnaryOp{Token: tok, Operator: tok.Literal, Expr: expr}
	}
	return p.parsePostfixExpr()
}

// parsePostfixExpr parses a primary expression followed by any chain of
// field accesses, method calls, length accesses and array subscripts.
func (p *Parser) parsePostfixExpr() ast.Expression {
	expr := p.parsePrimaryExpr()

	for {
		switch p.curToken.Type {
		case lexer.DOT:
			dotTok := p.curToken
			p.nextToken()
			if p.curToken.Type == lexer.LENGTH && p.peekToken.Type != lexer.LPAREN {
				p.nextToken()
				expr = &ast.Length{Token: dotTok, Expr: expr}
				continue
			}
			name := p.parseIdentifier()
			if p.curToken.Type == lexer.LPAREN {
				p.nextToken()
				var args []ast.Expression
				if p.curToken.Type != lexer.RPAREN {
					args = append(args, p.parseExpression())
					for p.curToken.Type == lexer.COMMA {
						p.nextToken()
						args = append(args, p.parseExpression())
					}
				}
				p.expect(lexer.RPAREN)
				expr = &ast.MethodCall{Token: dotTok, Object: expr, Method: name, Args: args}
			} else {
				expr = &ast.FieldAccess{Token: dotTok, Object: expr, Field: name}
			}
		case lexer.LBRACK:
			brackTok := p.curToken
			p.nextToken()
			sub := p.parseExpression()
			p.expect(lexer.RBRACK)
			expr = &ast.ArrayRef{Token: brackTok, Array: expr, Subscript: sub}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimaryExpr() ast.Expression {
	tok := p.curToken
	switch tok.Type {
	case lexer.INT_LITERAL:
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid integer literal %q", tok.Literal)
		}
		p.nextToken()
		return &ast.Constant{Token: tok, Kind: ast.IntConst, Int: value}
	case lexer.CHAR_LITERAL:
		p.nextToken()
		var ch rune
		for _, r := range tok.Literal {
			ch = r
			break
		}
		return &ast.Constant{Token: tok, Kind: ast.CharConst, Char: ch}
	case lexer.STRING_LITERAL:
		p.nextToken()
		return &ast.Constant{Token: tok, Kind: ast.StringConst, Str: tok.Literal}
	case lexer.TRUE:
		p.nextToken()
		return &ast.Constant{Token: tok, Kind: ast.BoolConst, Bool: true}
	case lexer.FALSE:
		p.nextToken()
		return &ast.Constant{Token: tok, Kind: ast.BoolConst, Bool: false}
	case lexer.THIS:
		p.nextToken()
		return &ast.This{Token: tok}
	case lexer.IDENT:
		return p.parseIdentifier()
	case lexer.NEW:
		return p.parseNew()
	case lexer.LPAREN:
		p.nextToken()
		expr := p.parseExpression()
		p.expect(lexer.RPAREN)
		return expr
	}
	p.errorf(tok.Pos, "unexpected token %q in expression", tok.Literal)
	return nil
}

// parseNew parses `new T[e]` and `new C()`.
func (p *Parser) parseNew() ast.Expression {
	newTok := p.expect(lexer.NEW)

	switch p.curToken.Type {
	case lexer.INT, lexer.CHAR, lexer.STRING:
		typeTok := p.curToken
		p.nextToken()
		p.expect(lexer.LBRACK)
		size := p.parseExpression()
		p.expect(lexer.RBRACK)
		elem := &ast.TypeNode{Token: typeTok, Name: typeTok.Literal + "[]"}
		return &ast.NewArray{Token: newTok, ElemType: elem, Size: size}
	case lexer.IDENT:
		name := p.parseIdentifier()
		p.expect(lexer.LPAREN)
		p.expect(lexer.RPAREN)
		return &ast.NewObject{Token: newTok, Class: name}
	}
	p.errorf(p.curToken.Pos, "expected type after 'new', found %q", p.curToken.Literal)
	return nil
}
