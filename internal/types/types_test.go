package types

import "testing"

func TestSingletonIdentity(t *testing.T) {
	if got, ok := Lookup("int"); !ok || got != Int {
		t.Fatal("int lookup did not return the singleton")
	}
	if !Int.Equals(Int) {
		t.Error("Int must equal itself")
	}
	if Int.Equals(Char) {
		t.Error("int and char must differ")
	}
}

func TestOperatorSets(t *testing.T) {
	if !Int.BinaryOps()["+"] || !Int.BinaryOps()["%"] {
		t.Error("int must support + and %")
	}
	if !Int.RelOps()["<="] {
		t.Error("int must support <=")
	}
	if !Boolean.UnaryOps()["!"] {
		t.Error("boolean must support !")
	}
	if Boolean.BinaryOps()["+"] {
		t.Error("boolean must not support +")
	}
	if !Char.BinaryOps()["*"] || Char.BinaryOps()["+"] {
		t.Error("char supports * but not +")
	}
}

func TestArrayElementMapping(t *testing.T) {
	if ElementType(IntArray) != Int {
		t.Error("int[] elements are int")
	}
	if ElementType(CharArray) != Char {
		t.Error("char[] elements are char")
	}
	if ElementType(Int) != nil {
		t.Error("int is not indexable")
	}
	if ArrayOf(Char) != CharArray {
		t.Error("array of char is char[]")
	}
	if !IsArray(StringArray) || IsArray(String) {
		t.Error("IsArray misclassifies")
	}
}

func TestObjectTypeEquality(t *testing.T) {
	a1 := NewObject("A")
	a2 := NewObject("A")
	b := NewObject("B")

	if !a1.Equals(a2) {
		t.Error("two ObjectType(A) instances must be equal")
	}
	if a1.Equals(b) {
		t.Error("ObjectType(A) must differ from ObjectType(B)")
	}
	if a1.Equals(Int) {
		t.Error("ObjectType must differ from primitives")
	}
}

func TestMethodTypeEquality(t *testing.T) {
	m1 := &MethodType{Return: Int, Params: []Type{Int, Char}, ParamNames: []string{"a", "b"}}
	m2 := &MethodType{Return: Int, Params: []Type{Int, Char}, ParamNames: []string{"x", "y"}}
	m3 := &MethodType{Return: Int, Params: []Type{Char}, ParamNames: []string{"a"}}

	if !m1.Equals(m2) {
		t.Error("signatures with the same types must be equal regardless of names")
	}
	if m1.Equals(m3) {
		t.Error("different parameter lists must differ")
	}
}

func TestStringForms(t *testing.T) {
	if Int.String() != "type(int)" {
		t.Errorf("unexpected: %s", Int.String())
	}
	if NewObject("Point").String() != "type(Point)" {
		t.Errorf("unexpected: %s", NewObject("Point").String())
	}
}
