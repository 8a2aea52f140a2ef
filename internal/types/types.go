// Package types defines the MiniJava type domain used by the semantic
// analyzer and the IR generator.
//
// Primitive and built-in types are singletons; object and method types
// are instantiated per declaration.
package types

import "strings"

// Type is the interface implemented by every MiniJava type.
type Type interface {
	// Name returns the MiniJava spelling of the type (e.g. "int", "char[]").
	Name() string

	// String returns a representation used in diagnostics, e.g. "type(int)".
	String() string

	// BinaryOps returns the binary operators the type supports.
	BinaryOps() map[string]bool

	// UnaryOps returns the unary operators the type supports.
	UnaryOps() map[string]bool

	// RelOps returns the relational operators the type supports.
	RelOps() map[string]bool

	// Equals reports whether two types are the same type.
	Equals(other Type) bool
}

// basicType backs the singleton primitive and built-in types.
type basicType struct {
	name      string
	binaryOps map[string]bool
	unaryOps  map[string]bool
	relOps    map[string]bool
}

func (t *basicType) Name() string               { return t.name }
func (t *basicType) String() string             { return "type(" + t.name + ")" }
func (t *basicType) BinaryOps() map[string]bool { return t.binaryOps }
func (t *basicType) UnaryOps() map[string]bool  { return t.unaryOps }
func (t *basicType) RelOps() map[string]bool    { return t.relOps }

func (t *basicType) Equals(other Type) bool {
	o, ok := other.(*basicType)
	return ok && o == t
}

func ops(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Singleton instances of the primitive and built-in types.
var (
	Boolean = &basicType{
		name:     "boolean",
		unaryOps: ops("!"),
		relOps:   ops("==", "!="),
	}
	Char = &basicType{
		name:      "char",
		binaryOps: ops("-", "*", "/", "%"),
		unaryOps:  ops("-", "+"),
		relOps:    ops("==", "!=", "<", ">", "<=", ">="),
	}
	Int = &basicType{
		name:      "int",
		binaryOps: ops("+", "-", "*", "/", "%"),
		unaryOps:  ops("-", "+"),
		relOps:    ops("==", "!=", "<", ">", "<=", ">="),
	}
	Void = &basicType{name: "void"}
	String = &basicType{
		name:      "String",
		binaryOps: ops("+"),
		relOps:    ops("==", "!="),
	}
	IntArray = &basicType{
		name:   "int[]",
		relOps: ops("==", "!="),
	}
	CharArray = &basicType{
		name:      "char[]",
		binaryOps: ops("+"),
		relOps:    ops("==", "!="),
	}
	StringArray = &basicType{
		name:   "String[]",
		relOps: ops("==", "!="),
	}
)

// Primitives maps type spellings to their singleton instances.
var Primitives = map[string]Type{
	"boolean":  Boolean,
	"char":     Char,
	"int":      Int,
	"void":     Void,
	"String":   String,
	"int[]":    IntArray,
	"char[]":   CharArray,
	"String[]": StringArray,
}

// Lookup resolves a built-in type spelling; ok is false for user classes.
func Lookup(name string) (Type, bool) {
	t, ok := Primitives[name]
	return t, ok
}

// ElementType returns the element type of an array type, or nil if the
// type is not indexable.
func ElementType(t Type) Type {
	switch t {
	case IntArray:
		return Int
	case CharArray:
		return Char
	case StringArray:
		return String
	}
	return nil
}

// ArrayOf returns the array type with the given element type, or nil.
func ArrayOf(elem Type) Type {
	switch elem {
	case Int:
		return IntArray
	case Char:
		return CharArray
	case String:
		return StringArray
	}
	return nil
}

// IsArray reports whether the type is one of the array built-ins.
func IsArray(t Type) bool {
	return t != nil && strings.HasSuffix(t.Name(), "[]")
}

// ObjectType is a reference to an instance of a user-declared class.
type ObjectType struct {
	Class string
}

// NewObject creates the object type for the named class.
func NewObject(class string) *ObjectType {
	return &ObjectType{Class: class}
}

func (t *ObjectType) Name() string               { return t.Class }
func (t *ObjectType) String() string             { return "type(" + t.Class + ")" }
func (t *ObjectType) BinaryOps() map[string]bool { return nil }
func (t *ObjectType) UnaryOps() map[string]bool  { return nil }
func (t *ObjectType) RelOps() map[string]bool    { return ops("==", "!=") }

func (t *ObjectType) Equals(other Type) bool {
	o, ok := other.(*ObjectType)
	return ok && o.Class == t.Class
}

// MethodType is a method signature: return type plus ordered parameters.
type MethodType struct {
	Return     Type
	Params     []Type
	ParamNames []string
}

func (t *MethodType) Name() string { return "method" }

func (t *MethodType) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	return "method(" + t.Return.String() + " (" + strings.Join(params, ", ") + "))"
}

func (t *MethodType) BinaryOps() map[string]bool { return nil }
func (t *MethodType) UnaryOps() map[string]bool  { return nil }
func (t *MethodType) RelOps() map[string]bool    { return nil }

func (t *MethodType) Equals(other Type) bool {
	o, ok := other.(*MethodType)
	if !ok || !t.Return.Equals(o.Return) || len(t.Params) != len(o.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equals(o.Params[i]) {
			return false
		}
	}
	return true
}
