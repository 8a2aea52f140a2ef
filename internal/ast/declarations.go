package ast

import (
	"bytes"
	"strings"

	"github.com/cwbudde/go-mjc/internal/lexer"
)

// TypeNode is a type written in the source: a primitive, a built-in,
// an array form, or a user class name.
type TypeNode struct {
	Token lexer.Token
	Name  string // "int", "char[]", "String", or a class name
}

func (t *TypeNode) TokenLiteral() string { return t.Token.Literal }
func (t *TypeNode) String() string       { return t.Name }
func (t *TypeNode) Pos() lexer.Position  { return t.Token.Pos }

// ClassDecl is a class declaration with an optional superclass,
// ordered field declarations and ordered method declarations.
type ClassDecl struct {
	Token   lexer.Token // The CLASS token
	Name    *Identifier
	Extends *Identifier // nil when the class has no superclass
	Fields  []*VarDecl
	Methods []MethodLike
}

// MethodLike is implemented by MethodDecl and MainMethodDecl.
type MethodLike interface {
	Node
	methodNode()
	MethodName() string
}

func (c *ClassDecl) TokenLiteral() string { return c.Token.Literal }
func (c *ClassDecl) Pos() lexer.Position  { return c.Token.Pos }

func (c *ClassDecl) String() string {
	var out bytes.Buffer
	out.WriteString("class ")
	out.WriteString(c.Name.Value)
	if c.Extends != nil {
		out.WriteString(" extends ")
		out.WriteString(c.Extends.Value)
	}
	out.WriteString(" {\n")
	for _, f := range c.Fields {
		out.WriteString("  ")
		out.WriteString(f.String())
		out.WriteString("\n")
	}
	for _, m := range c.Methods {
		out.WriteString("  ")
		out.WriteString(strings.ReplaceAll(m.String(), "\n", "\n  "))
		out.WriteString("\n")
	}
	out.WriteString("}")
	return out.String()
}

// MethodDecl is an ordinary method: return type, name, parameters and body.
type MethodDecl struct {
	Token      lexer.Token // first token of the declaration
	ReturnType *TypeNode
	Name       *Identifier
	Params     []*ParamDecl
	Body       *Compound
}

func (m *MethodDecl) methodNode()          {}
func (m *MethodDecl) MethodName() string   { return m.Name.Value }
func (m *MethodDecl) TokenLiteral() string { return m.Token.Literal }
func (m *MethodDecl) Pos() lexer.Position  { return m.Token.Pos }

func (m *MethodDecl) String() string {
	var out bytes.Buffer
	out.WriteString("public ")
	out.WriteString(m.ReturnType.String())
	out.WriteString(" ")
	out.WriteString(m.Name.Value)
	out.WriteString("(")
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.String()
	}
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") ")
	out.WriteString(m.Body.String())
	return out.String()
}

// MainMethodDecl is the distinguished `public static void main(String[] id)`.
type MainMethodDecl struct {
	Token lexer.Token // The PUBLIC token
	Args  *Identifier // name of the String[] parameter
	Body  *Compound
}

func (m *MainMethodDecl) methodNode()          {}
func (m *MainMethodDecl) MethodName() string   { return "main" }
func (m *MainMethodDecl) TokenLiteral() string { return m.Token.Literal }
func (m *MainMethodDecl) Pos() lexer.Position  { return m.Token.Pos }

func (m *MainMethodDecl) String() string {
	return "public static void main(String[] " + m.Args.Value + ") " + m.Body.String()
}

// VarDecl declares a local variable or class field with an optional initializer.
type VarDecl struct {
	Token    lexer.Token
	DeclType *TypeNode
	Name     *Identifier
	Init     Expression // nil when there is no initializer
}

func (v *VarDecl) statementNode()       {}
func (v *VarDecl) TokenLiteral() string { return v.Token.Literal }
func (v *VarDecl) Pos() lexer.Position  { return v.Token.Pos }

func (v *VarDecl) String() string {
	var out bytes.Buffer
	out.WriteString(v.DeclType.String())
	out.WriteString(" ")
	out.WriteString(v.Name.Value)
	if v.Init != nil {
		out.WriteString(" = ")
		out.WriteString(v.Init.String())
	}
	out.WriteString(";")
	return out.String()
}

// DeclList groups the variable declarations produced by one declaration
// line, e.g. `int a = 1, b = 2;`.
type DeclList struct {
	Token lexer.Token
	Decls []*VarDecl
}

func (d *DeclList) statementNode()       {}
func (d *DeclList) TokenLiteral() string { return d.Token.Literal }
func (d *DeclList) Pos() lexer.Position  { return d.Token.Pos }

func (d *DeclList) String() string {
	parts := make([]string, len(d.Decls))
	for i, decl := range d.Decls {
		parts[i] = decl.String()
	}
	return strings.Join(parts, " ")
}

// ParamDecl declares a method parameter.
type ParamDecl struct {
	Token    lexer.Token
	DeclType *TypeNode
	Name     *Identifier
}

func (p *ParamDecl) TokenLiteral() string { return p.Token.Literal }
func (p *ParamDecl) Pos() lexer.Position  { return p.Token.Pos }
func (p *ParamDecl) String() string       { return p.DeclType.String() + " " + p.Name.Value }
