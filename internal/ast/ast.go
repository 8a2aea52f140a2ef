// Package ast defines the Abstract Syntax Tree node types for MiniJava.
package ast

import (
	"bytes"

	"github.com/cwbudde/go-mjc/internal/lexer"
	"github.com/cwbudde/go-mjc/internal/types"
)

// Node is the base interface for all AST nodes.
// Every node must be able to provide its token literal, position
// information, and a string representation for debugging.
type Node interface {
	// TokenLiteral returns the literal value of the token this node is associated with.
	TokenLiteral() string

	// String returns a string representation of the node for debugging and testing.
	String() string

	// Pos returns the position of the node in the source code for error reporting.
	Pos() lexer.Position
}

// Expression represents any node that produces a value.
type Expression interface {
	Node
	expressionNode()

	// Type returns the resolved type, set by the semantic analyzer.
	Type() types.Type

	// SetType records the resolved type on the node.
	SetType(types.Type)
}

// Statement represents a node that performs an action but doesn't produce a value.
type Statement interface {
	Node
	statementNode()
}

// typed is embedded by every expression node to carry its resolved type.
type typed struct {
	typ types.Type
}

func (t *typed) Type() types.Type       { return t.typ }
func (t *typed) SetType(typ types.Type) { t.typ = typ }

// Program is the root node of the AST: an ordered list of class declarations.
type Program struct {
	Classes []*ClassDecl
}

func (p *Program) TokenLiteral() string {
	if len(p.Classes) > 0 {
		return p.Classes[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, cls := range p.Classes {
		out.WriteString(cls.String())
		out.WriteString("\n")
	}
	return out.String()
}

func (p *Program) Pos() lexer.Position {
	if len(p.Classes) > 0 {
		return p.Classes[0].Pos()
	}
	return lexer.Position{Line: 1, Column: 1}
}

// Identifier represents a name reference (variable, parameter or field).
type Identifier struct {
	typed
	Token lexer.Token // The IDENT token
	Value string      // The actual identifier name
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }
func (i *Identifier) Pos() lexer.Position  { return i.Token.Pos }

// ConstantKind tags the literal kind carried by a Constant node.
type ConstantKind int

const (
	IntConst ConstantKind = iota
	CharConst
	StringConst
	BoolConst
)

// Constant represents a literal value tagged by kind.
type Constant struct {
	typed
	Token lexer.Token
	Kind  ConstantKind
	Int   int64  // set for IntConst
	Char  rune   // set for CharConst
	Str   string // set for StringConst
	Bool  bool   // set for BoolConst
}

func (c *Constant) expressionNode()      {}
func (c *Constant) TokenLiteral() string { return c.Token.Literal }
func (c *Constant) Pos() lexer.Position  { return c.Token.Pos }

func (c *Constant) String() string {
	switch c.Kind {
	case CharConst:
		return "'" + string(c.Char) + "'"
	case StringConst:
		return "\"" + c.Str + "\""
	default:
		return c.Token.Literal
	}
}

// This represents the receiver reference inside a method body.
type This struct {
	typed
	Token lexer.Token // The THIS token
}

func (t *This) expressionNode()      {}
func (t *This) TokenLiteral() string { return t.Token.Literal }
func (t *This) String() string       { return "this" }
func (t *This) Pos() lexer.Position  { return t.Token.Pos }
