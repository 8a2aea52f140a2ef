package ast

import (
	"bytes"
	"strings"

	"github.com/cwbudde/go-mjc/internal/lexer"
)

// Assignment stores the value of an expression into an lvalue.
type Assignment struct {
	typed
	Token  lexer.Token // The '=' token
	LValue Expression
	RValue Expression
}

func (a *Assignment) expressionNode()      {}
func (a *Assignment) TokenLiteral() string { return a.Token.Literal }
func (a *Assignment) Pos() lexer.Position  { return a.Token.Pos }

func (a *Assignment) String() string {
	return "(" + a.LValue.String() + " = " + a.RValue.String() + ")"
}

// BinaryOp is a binary operation, e.g. a + b or x < y.
type BinaryOp struct {
	typed
	Token    lexer.Token // The operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (b *BinaryOp) expressionNode()      {}
func (b *BinaryOp) TokenLiteral() string { return b.Token.Literal }
func (b *BinaryOp) Pos() lexer.Position  { return b.Token.Pos }

func (b *BinaryOp) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(b.Left.String())
	out.WriteString(" " + b.Operator + " ")
	out.WriteString(b.Right.String())
	out.WriteString(")")
	return out.String()
}

// UnaryOp is a unary operation: !, - or +.
type UnaryOp struct {
	typed
	Token    lexer.Token // The operator token
	Operator string
	Expr     Expression
}

func (u *UnaryOp) expressionNode()      {}
func (u *UnaryOp) TokenLiteral() string { return u.Token.Literal }
func (u *UnaryOp) Pos() lexer.Position  { return u.Token.Pos }
func (u *UnaryOp) String() string       { return "(" + u.Operator + u.Expr.String() + ")" }

// ArrayRef indexes an array expression with an int subscript.
type ArrayRef struct {
	typed
	Token     lexer.Token // The '[' token
	Array     Expression
	Subscript Expression
}

func (a *ArrayRef) expressionNode()      {}
func (a *ArrayRef) TokenLiteral() string { return a.Token.Literal }
func (a *ArrayRef) Pos() lexer.Position  { return a.Token.Pos }

func (a *ArrayRef) String() string {
	return a.Array.String() + "[" + a.Subscript.String() + "]"
}

// FieldAccess reads a field of an object: o.f.
type FieldAccess struct {
	typed
	Token  lexer.Token // The '.' token
	Object Expression
	Field  *Identifier
}

func (f *FieldAccess) expressionNode()      {}
func (f *FieldAccess) TokenLiteral() string { return f.Token.Literal }
func (f *FieldAccess) Pos() lexer.Position  { return f.Token.Pos }
func (f *FieldAccess) String() string       { return f.Object.String() + "." + f.Field.Value }

// MethodCall invokes a method on an object: o.m(args).
type MethodCall struct {
	typed
	Token  lexer.Token // The '.' token
	Object Expression
	Method *Identifier
	Args   []Expression
}

func (m *MethodCall) expressionNode()      {}
func (m *MethodCall) TokenLiteral() string { return m.Token.Literal }
func (m *MethodCall) Pos() lexer.Position  { return m.Token.Pos }

func (m *MethodCall) String() string {
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = a.String()
	}
	return m.Object.String() + "." + m.Method.Value + "(" + strings.Join(args, ", ") + ")"
}

// Length yields the length of an array or string: e.length.
type Length struct {
	typed
	Token lexer.Token // The LENGTH token
	Expr  Expression
}

func (l *Length) expressionNode()      {}
func (l *Length) TokenLiteral() string { return l.Token.Literal }
func (l *Length) Pos() lexer.Position  { return l.Token.Pos }
func (l *Length) String() string       { return l.Expr.String() + ".length" }

// NewArray allocates an array: new T[size].
type NewArray struct {
	typed
	Token    lexer.Token // The NEW token
	ElemType *TypeNode
	Size     Expression
}

func (n *NewArray) expressionNode()      {}
func (n *NewArray) TokenLiteral() string { return n.Token.Literal }
func (n *NewArray) Pos() lexer.Position  { return n.Token.Pos }

func (n *NewArray) String() string {
	return "new " + n.ElemType.String() + "[" + n.Size.String() + "]"
}

// NewObject instantiates a class: new C().
type NewObject struct {
	typed
	Token lexer.Token // The NEW token
	Class *Identifier
}

func (n *NewObject) expressionNode()      {}
func (n *NewObject) TokenLiteral() string { return n.Token.Literal }
func (n *NewObject) Pos() lexer.Position  { return n.Token.Pos }
func (n *NewObject) String() string       { return "new " + n.Class.Value + "()" }

// ExprList is a comma-separated sequence of expressions.
type ExprList struct {
	typed
	Token lexer.Token
	Exprs []Expression
}

func (e *ExprList) expressionNode()      {}
func (e *ExprList) TokenLiteral() string { return e.Token.Literal }
func (e *ExprList) Pos() lexer.Position  { return e.Token.Pos }

func (e *ExprList) String() string {
	parts := make([]string, len(e.Exprs))
	for i, x := range e.Exprs {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}

// InitList is a braced list of constants initializing an array.
type InitList struct {
	typed
	Token lexer.Token // The '{' token
	Exprs []Expression
}

func (i *InitList) expressionNode()      {}
func (i *InitList) TokenLiteral() string { return i.Token.Literal }
func (i *InitList) Pos() lexer.Position  { return i.Token.Pos }

func (i *InitList) String() string {
	parts := make([]string, len(i.Exprs))
	for j, x := range i.Exprs {
		parts[j] = x.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
