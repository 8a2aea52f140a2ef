package parser

import (
	"testing"

	"github.com/cwbudde/go-mjc/internal/ast"
	"github.com/cwbudde/go-mjc/internal/lexer"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input))
	program := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parser errors: %v", p.Errors())
	}
	if program == nil {
		t.Fatal("ParseProgram returned nil without errors")
	}
	return program
}

func expectParserError(t *testing.T, input string) ParserError {
	t.Helper()
	p := New(lexer.New(input))
	program := p.ParseProgram()
	if program != nil || len(p.Errors()) == 0 {
		t.Fatal("expected a parser error")
	}
	return p.Errors()[0]
}

func TestParseClassDeclaration(t *testing.T) {
	program := parseProgram(t, `
		class A extends B {
			int n;
			public int get() { return n; }
		}
		class B { }
	`)

	if len(program.Classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(program.Classes))
	}
	cls := program.Classes[0]
	if cls.Name.Value != "A" {
		t.Errorf("expected class A, got %s", cls.Name.Value)
	}
	if cls.Extends == nil || cls.Extends.Value != "B" {
		t.Errorf("expected extends B")
	}
	if len(cls.Fields) != 1 || cls.Fields[0].Name.Value != "n" {
		t.Errorf("expected one field n")
	}
	if len(cls.Methods) != 1 || cls.Methods[0].MethodName() != "get" {
		t.Errorf("expected one method get")
	}
}

func TestParseMainMethod(t *testing.T) {
	program := parseProgram(t, `
		class Main {
			public static void main(String[] args) { }
		}
	`)

	main, ok := program.Classes[0].Methods[0].(*ast.MainMethodDecl)
	if !ok {
		t.Fatalf("expected MainMethodDecl, got %T", program.Classes[0].Methods[0])
	}
	if main.Args.Value != "args" {
		t.Errorf("expected args parameter, got %s", main.Args.Value)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2 + 3 * 4", "(2 + (3 * 4))"},
		{"2 * 3 + 4", "((2 * 3) + 4)"},
		{"a < b == c < d", "((a < b) == (c < d))"},
		{"a && b || c", "((a && b) || c)"},
		{"!a && b", "((!a) && b)"},
		{"-a * b", "((-a) * b)"},
		{"a + b - c", "((a + b) - c)"},
		{"(2 + 3) * 4", "((2 + 3) * 4)"},
		{"a == b != c", "((a == b) != c)"},
	}

	for _, tt := range tests {
		program := parseProgram(t, `
			class T { public static void main(String[] a) { x = `+tt.input+`; } }
		`)
		stmt := program.Classes[0].Methods[0].(*ast.MainMethodDecl).Body.Statements[0]
		assign := stmt.(*ast.ExpressionStmt).Expr.(*ast.Assignment)
		if got := assign.RValue.String(); got != tt.expected {
			t.Errorf("input %q: expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestDanglingElseBindsToNearestIf(t *testing.T) {
	program := parseProgram(t, `
		class T { public static void main(String[] a) {
			if (x) if (y) print(1); else print(2);
		} }
	`)
	stmt := program.Classes[0].Methods[0].(*ast.MainMethodDecl).Body.Statements[0]
	outer := stmt.(*ast.If)
	if outer.Else != nil {
		t.Fatal("else bound to the outer if")
	}
	inner := outer.Then.(*ast.If)
	if inner.Else == nil {
		t.Fatal("else not bound to the inner if")
	}
}

func TestParseStatements(t *testing.T) {
	program := parseProgram(t, `
		class T { public static void main(String[] a) {
			int i = 0;
			int[] xs = {1, 2, 3};
			while (i < 10) { i = i + 1; break; }
			for (int j = 0; j < 3; j = j + 1) print(j);
			assert i == 10;
			if (true) { } else { }
			print("done", i);
		} }
	`)

	statements := program.Classes[0].Methods[0].(*ast.MainMethodDecl).Body.Statements
	if len(statements) != 7 {
		t.Fatalf("expected 7 statements, got %d", len(statements))
	}

	decl := statements[1].(*ast.DeclList).Decls[0]
	if decl.DeclType.Name != "int[]" {
		t.Errorf("expected int[] declaration, got %s", decl.DeclType.Name)
	}
	if _, ok := decl.Init.(*ast.InitList); !ok {
		t.Errorf("expected InitList initializer, got %T", decl.Init)
	}

	forStmt := statements[3].(*ast.For)
	if _, ok := forStmt.Init.(*ast.DeclList); !ok {
		t.Errorf("expected DeclList for-init, got %T", forStmt.Init)
	}

	printStmt := statements[6].(*ast.Print)
	if len(printStmt.Args) != 2 {
		t.Errorf("expected 2 print args, got %d", len(printStmt.Args))
	}
}

func TestParsePostfixChain(t *testing.T) {
	program := parseProgram(t, `
		class T { public static void main(String[] a) {
			x = o.f.m(1, 2)[3].length;
		} }
	`)
	stmt := program.Classes[0].Methods[0].(*ast.MainMethodDecl).Body.Statements[0]
	assign := stmt.(*ast.ExpressionStmt).Expr.(*ast.Assignment)

	length, ok := assign.RValue.(*ast.Length)
	if !ok {
		t.Fatalf("expected Length, got %T", assign.RValue)
	}
	ref, ok := length.Expr.(*ast.ArrayRef)
	if !ok {
		t.Fatalf("expected ArrayRef, got %T", length.Expr)
	}
	call, ok := ref.Array.(*ast.MethodCall)
	if !ok {
		t.Fatalf("expected MethodCall, got %T", ref.Array)
	}
	if call.Method.Value != "m" || len(call.Args) != 2 {
		t.Errorf("expected call m with 2 args")
	}
	if _, ok := call.Object.(*ast.FieldAccess); !ok {
		t.Errorf("expected FieldAccess receiver, got %T", call.Object)
	}
}

func TestParseNewExpressions(t *testing.T) {
	program := parseProgram(t, `
		class T { public static void main(String[] a) {
			x = new int[10];
			y = new Point();
		} }
	`)
	statements := program.Classes[0].Methods[0].(*ast.MainMethodDecl).Body.Statements

	newArray := statements[0].(*ast.ExpressionStmt).Expr.(*ast.Assignment).RValue.(*ast.NewArray)
	if newArray.ElemType.Name != "int[]" {
		t.Errorf("expected int[] element type, got %s", newArray.ElemType.Name)
	}

	newObject := statements[1].(*ast.ExpressionStmt).Expr.(*ast.Assignment).RValue.(*ast.NewObject)
	if newObject.Class.Value != "Point" {
		t.Errorf("expected Point, got %s", newObject.Class.Value)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []string{
		`class { }`,
		`class A extends { }`,
		`class A { public int f( { } }`,
		`class A { public static void main(String[] x) { if (true { } } }`,
		`class A { public static void main(String[] x) { y = ; } }`,
		`class A { public static void main(String[] x) { 1 = y; } }`,
	}
	for _, input := range tests {
		err := expectParserError(t, input)
		if err.Pos.Line == 0 {
			t.Errorf("input %q: error without position", input)
		}
	}
}

func TestParserErrorFormat(t *testing.T) {
	err := expectParserError(t, `class A {`)
	got := err.Error()
	if got == "" || got[:12] != "ParserError:" {
		t.Fatalf("unexpected error format: %q", got)
	}
}
