package lexer

import "testing"

func TestNextTokenBasicProgram(t *testing.T) {
	input := `class Main {
	public static void main(String[] args) {
		int x = 2 + 3 * 4;
		print(x);
	}
}`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{CLASS, "class"},
		{IDENT, "Main"},
		{LBRACE, "{"},
		{PUBLIC, "public"},
		{STATIC, "static"},
		{VOID, "void"},
		{MAIN, "main"},
		{LPAREN, "("},
		{STRING, "String"},
		{LBRACK, "["},
		{RBRACK, "]"},
		{IDENT, "args"},
		{RPAREN, ")"},
		{LBRACE, "{"},
		{INT, "int"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{INT_LITERAL, "2"},
		{PLUS, "+"},
		{INT_LITERAL, "3"},
		{TIMES, "*"},
		{INT_LITERAL, "4"},
		{SEMICOLON, ";"},
		{PRINT, "print"},
		{LPAREN, "("},
		{IDENT, "x"},
		{RPAREN, ")"},
		{SEMICOLON, ";"},
		{RBRACE, "}"},
		{RBRACE, "}"},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d]: wrong token type, expected %s, got %s (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d]: wrong literal, expected %q, got %q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
	if len(l.Errors()) != 0 {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
}

func TestOperators(t *testing.T) {
	input := `== != <= >= && || = < > + - * / % ! . ; ,`
	expected := []TokenType{
		EQ, NE, LE, GE, AND, OR, ASSIGN, LT, GT,
		PLUS, MINUS, TIMES, DIVIDE, MOD, NOT, DOT, SEMICOLON, COMMA, EOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %s, got %s", i, want, tok.Type)
		}
	}
}

func TestKeywordsVersusIdentifiers(t *testing.T) {
	input := `class classes whilex while truely true`
	expected := []struct {
		typ     TokenType
		literal string
	}{
		{CLASS, "class"},
		{IDENT, "classes"},
		{IDENT, "whilex"},
		{WHILE, "while"},
		{IDENT, "truely"},
		{TRUE, "true"},
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.typ || tok.Literal != want.literal {
			t.Fatalf("token %d: expected %s %q, got %s %q",
				i, want.typ, want.literal, tok.Type, tok.Literal)
		}
	}
}

func TestCharLiteralEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`'a'`, "a"},
		{`'\n'`, "\n"},
		{`'\t'`, "\t"},
		{`'\''`, "'"},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != CHAR_LITERAL {
			t.Fatalf("input %q: expected CHAR_LITERAL, got %s", tt.input, tok.Type)
		}
		if tok.Literal != tt.want {
			t.Errorf("input %q: expected literal %q, got %q", tt.input, tt.want, tok.Literal)
		}
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	l := New(`"hello\n\t\"quoted\""`)
	tok := l.NextToken()
	if tok.Type != STRING_LITERAL {
		t.Fatalf("expected STRING_LITERAL, got %s", tok.Type)
	}
	if tok.Literal != "hello\n\t\"quoted\"" {
		t.Errorf("wrong payload: %q", tok.Literal)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"open`)
	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %s", tok.Type)
	}
	if len(l.Errors()) == 0 {
		t.Fatal("expected an error for unterminated string")
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	input := `// line comment
	/* block
	   comment */ int`
	l := New(input)
	tok := l.NextToken()
	if tok.Type != INT {
		t.Fatalf("expected INT after comments, got %s", tok.Type)
	}
}

func TestPositions(t *testing.T) {
	input := "class A {\n  int x;\n}"
	l := New(input)

	expected := []struct {
		literal string
		line    int
		column  int
	}{
		{"class", 1, 1},
		{"A", 1, 7},
		{"{", 1, 9},
		{"int", 2, 3},
		{"x", 2, 7},
		{";", 2, 8},
		{"}", 3, 1},
	}
	for _, want := range expected {
		tok := l.NextToken()
		if tok.Pos.Line != want.line || tok.Pos.Column != want.column {
			t.Errorf("token %q: expected %d:%d, got %d:%d",
				want.literal, want.line, want.column, tok.Pos.Line, tok.Pos.Column)
		}
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("int x # y")
	var illegal bool
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type == ILLEGAL {
			illegal = true
		}
	}
	if !illegal {
		t.Fatal("expected an ILLEGAL token for '#'")
	}
	if len(l.Errors()) == 0 {
		t.Fatal("expected a lexer error for '#'")
	}
}
