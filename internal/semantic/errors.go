package semantic

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-mjc/internal/lexer"
)

// ErrorKind classifies a semantic error. The spellings appear verbatim
// in diagnostics.
type ErrorKind string

const (
	AlreadyDeclaredClass              ErrorKind = "ALREADY_DECLARED_CLASS"
	UndeclaredClass                   ErrorKind = "UNDECLARED_CLASS"
	AlreadyDeclaredField              ErrorKind = "ALREADY_DECLARED_FIELD"
	UndeclaredField                   ErrorKind = "UNDECLARED_FIELD"
	AlreadyDeclaredMethod             ErrorKind = "ALREADY_DECLARED_METHOD"
	UndeclaredMethod                  ErrorKind = "UNDECLARED_METHOD"
	AlreadyDeclaredName               ErrorKind = "ALREADY_DECLARED_NAME"
	UndeclaredName                    ErrorKind = "UNDECLARED_NAME"
	ParameterAlreadyDeclared          ErrorKind = "PARAMETER_ALREADY_DECLARED"
	ReturnTypeMismatch                ErrorKind = "RETURN_TYPE_MISMATCH"
	ArgumentCountMismatch             ErrorKind = "ARGUMENT_COUNT_MISMATCH"
	ParameterTypeMismatch             ErrorKind = "PARAMETER_TYPE_MISMATCH"
	AssignTypeMismatch                ErrorKind = "ASSIGN_TYPE_MISMATCH"
	BinaryExpressionTypeMismatch      ErrorKind = "BINARY_EXPRESSION_TYPE_MISMATCH"
	UnsupportedBinaryOperation        ErrorKind = "UNSUPPORTED_BINARY_OPERATION"
	UnsupportedUnaryOperation         ErrorKind = "UNSUPPORTED_UNARY_OPERATION"
	ConditionalExpressionTypeMismatch ErrorKind = "CONDITIONAL_EXPRESSION_TYPE_MISMATCH"
	AssertExpressionTypeMismatch      ErrorKind = "ASSERT_EXPRESSION_TYPE_MISMATCH"
	PrintExpressionTypeMismatch       ErrorKind = "PRINT_EXPRESSION_TYPE_MISMATCH"
	ArrayDimensionMismatch            ErrorKind = "ARRAY_DIMENTION_MISMATCH"
	ArrayRefTypeMismatch              ErrorKind = "ARRAY_REF_TYPE_MISMATCH"
	ArrayElementTypeMismatch          ErrorKind = "ARRAY_ELEMENT_TYPE_MISMATCH"
	InvalidLengthTarget               ErrorKind = "INVALID_LENGTH_TARGET"
	ObjectTypeMustBeAClass            ErrorKind = "OBJECT_TYPE_MUST_BE_A_CLASS"
	WrongBreakStatement               ErrorKind = "WRONG_BREAK_STATEMENT"
	NotAConstant                      ErrorKind = "NOT_A_CONSTANT"
)

// SemanticError is a fatal semantic diagnostic. The optional Name,
// LType and RType details follow the kind in the printed form:
//
//	SemanticError: UNDECLARED_NAME y @ 4:9
//	SemanticError: ASSIGN_TYPE_MISMATCH type(int[]) type(char[]) @ 2:5
type SemanticError struct {
	Kind  ErrorKind
	Name  string
	LType string
	RType string
	Pos   lexer.Position
}

// Error implements the error interface.
func (e *SemanticError) Error() string {
	parts := []string{string(e.Kind)}
	if e.Name != "" {
		parts = append(parts, e.Name)
	}
	if e.LType != "" {
		parts = append(parts, e.LType)
	}
	if e.RType != "" {
		parts = append(parts, e.RType)
	}
	return fmt.Sprintf("SemanticError: %s @ %d:%d", strings.Join(parts, " "), e.Pos.Line, e.Pos.Column)
}

// errorAt builds a SemanticError pinned to a node position.
func errorAt(kind ErrorKind, pos lexer.Position) *SemanticError {
	return &SemanticError{Kind: kind, Pos: pos}
}

func (e *SemanticError) withName(name string) *SemanticError {
	e.Name = name
	return e
}

func (e *SemanticError) withTypes(ltype, rtype string) *SemanticError {
	e.LType = ltype
	e.RType = rtype
	return e
}
