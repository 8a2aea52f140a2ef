package semantic

import (
	"github.com/cwbudde/go-mjc/internal/ast"
	"github.com/cwbudde/go-mjc/internal/types"
)

// Analyzer performs semantic analysis on a MiniJava program: it
// resolves names against the scoped symbol table and the class
// registry, checks types, and annotates expression nodes with their
// resolved types.
//
// Analysis is fail-fast: the first violation aborts with a
// *SemanticError carrying the offending node's coordinate.
type Analyzer struct {
	registry *Registry
	scope    *ScopedSymbolTable

	currentClassName    string
	currentMethodReturn types.Type
	loopDepth           int
	inMain              bool
	mainDeclared        bool
}

// NewAnalyzer creates an analyzer over the registry produced by the
// symbol table builder.
func NewAnalyzer(registry *Registry) *Analyzer {
	return &Analyzer{
		registry: registry,
		scope:    NewScopedSymbolTable(),
	}
}

// abort carries the fatal error up to Analyze.
type abort struct {
	err *SemanticError
}

func (a *Analyzer) fail(err *SemanticError) {
	panic(abort{err})
}

// Analyze checks the whole program. Expression nodes are annotated
// with their resolved types as a side effect.
func (a *Analyzer) Analyze(program *ast.Program) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ab, ok := r.(abort)
			if !ok {
				panic(r)
			}
			err = ab.err
		}
	}()

	for _, cls := range program.Classes {
		a.analyzeClass(cls)
	}
	return nil
}

func (a *Analyzer) analyzeClass(cls *ast.ClassDecl) {
	a.currentClassName = cls.Name.Value

	classScope := a.registry.Lookup(cls.Name.Value)
	if classScope == nil {
		a.fail(errorAt(UndeclaredClass, cls.Pos()).withName(cls.Name.Value))
	}

	// Field initializers are checked in the class's own context.
	for _, field := range cls.Fields {
		a.analyzeFieldDecl(classScope, field)
	}

	for _, method := range cls.Methods {
		switch m := method.(type) {
		case *ast.MethodDecl:
			a.analyzeMethod(classScope, m)
		case *ast.MainMethodDecl:
			a.analyzeMain(classScope, m)
		}
	}

	a.currentClassName = ""
}

func (a *Analyzer) analyzeFieldDecl(classScope *ClassScope, field *ast.VarDecl) {
	declared := classScope.LookupLocal(field.Name.Value)
	if declared == nil {
		a.fail(errorAt(UndeclaredField, field.Pos()).withName(field.Name.Value))
	}
	if field.Init != nil {
		initType := a.analyzeExpr(field.Init)
		if !a.assignable(declared, initType) {
			a.fail(errorAt(AssignTypeMismatch, field.Pos()).
				withTypes(declared.String(), initType.String()))
		}
	}
}

func (a *Analyzer) analyzeMethod(classScope *ClassScope, method *ast.MethodDecl) {
	entry := classScope.LookupLocal(method.Name.Value)
	sig, ok := entry.(*types.MethodType)
	if !ok {
		a.fail(errorAt(UndeclaredMethod, method.Pos()).withName(method.Name.Value))
	}

	a.currentMethodReturn = sig.Return
	a.scope.PushScope()

	for i, param := range method.Params {
		if a.scope.DeclaredInCurrentScope(param.Name.Value) {
			a.fail(errorAt(ParameterAlreadyDeclared, param.Pos()).withName(param.Name.Value))
		}
		a.scope.Define(param.Name.Value, sig.Params[i])
	}

	a.analyzeStatement(method.Body)

	a.scope.PopScope()
	a.currentMethodReturn = nil
}

func (a *Analyzer) analyzeMain(classScope *ClassScope, main *ast.MainMethodDecl) {
	if a.mainDeclared {
		a.fail(errorAt(AlreadyDeclaredMethod, main.Pos()).withName("main"))
	}
	a.mainDeclared = true

	a.currentMethodReturn = types.Void
	a.inMain = true
	a.scope.PushScope()
	a.scope.Define(main.Args.Value, types.StringArray)

	a.analyzeStatement(main.Body)

	a.scope.PopScope()
	a.inMain = false
	a.currentMethodReturn = nil
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (a *Analyzer) analyzeStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Compound:
		a.scope.PushScope()
		for _, inner := range s.Statements {
			a.analyzeStatement(inner)
		}
		a.scope.PopScope()
	case *ast.VarDecl:
		a.analyzeVarDecl(s)
	case *ast.DeclList:
		for _, decl := range s.Decls {
			a.analyzeVarDecl(decl)
		}
	case *ast.If:
		a.analyzeIf(s)
	case *ast.While:
		a.analyzeWhile(s)
	case *ast.For:
		a.analyzeFor(s)
	case *ast.Assert:
		exprType := a.analyzeExpr(s.Expr)
		if exprType != types.Boolean {
			a.fail(errorAt(AssertExpressionTypeMismatch, s.Pos()))
		}
	case *ast.Print:
		a.analyzePrint(s)
	case *ast.Break:
		if a.loopDepth == 0 {
			a.fail(errorAt(WrongBreakStatement, s.Pos()))
		}
	case *ast.Return:
		a.analyzeReturn(s)
	case *ast.ExpressionStmt:
		if s.Expr != nil {
			a.analyzeExpr(s.Expr)
		}
	}
}

func (a *Analyzer) analyzeVarDecl(decl *ast.VarDecl) {
	declared := a.resolveDeclaredType(decl)

	if a.scope.DeclaredInCurrentScope(decl.Name.Value) {
		a.fail(errorAt(AlreadyDeclaredName, decl.Pos()).withName(decl.Name.Value))
	}

	if decl.Init != nil {
		initType := a.analyzeExpr(decl.Init)
		if !a.assignable(declared, initType) {
			a.fail(errorAt(AssignTypeMismatch, decl.Pos()).
				withTypes(declared.String(), initType.String()))
		}
	}

	a.scope.Define(decl.Name.Value, declared)
}

func (a *Analyzer) resolveDeclaredType(decl *ast.VarDecl) types.Type {
	name := decl.DeclType.Name
	if t, ok := types.Lookup(name); ok {
		return t
	}
	if a.registry.Lookup(name) == nil {
		a.fail(errorAt(UndeclaredClass, decl.Pos()).withName(name))
	}
	return types.NewObject(name)
}

func (a *Analyzer) analyzeIf(stmt *ast.If) {
	condType := a.analyzeExpr(stmt.Cond)
	if condType != types.Boolean {
		a.fail(errorAt(ConditionalExpressionTypeMismatch, stmt.Pos()).
			withTypes(condType.String(), ""))
	}

	a.scope.PushScope()
	a.analyzeStatement(stmt.Then)
	a.scope.PopScope()

	if stmt.Else != nil {
		a.scope.PushScope()
		a.analyzeStatement(stmt.Else)
		a.scope.PopScope()
	}
}

func (a *Analyzer) analyzeWhile(stmt *ast.While) {
	condType := a.analyzeExpr(stmt.Cond)
	if condType != types.Boolean {
		a.fail(errorAt(ConditionalExpressionTypeMismatch, stmt.Pos()).
			withTypes(condType.String(), ""))
	}

	a.loopDepth++
	a.scope.PushScope()
	a.analyzeStatement(stmt.Body)
	a.scope.PopScope()
	a.loopDepth--
}

func (a *Analyzer) analyzeFor(stmt *ast.For) {
	a.scope.PushScope()

	if stmt.Init != nil {
		a.analyzeStatement(stmt.Init)
	}
	if stmt.Cond != nil {
		condType := a.analyzeExpr(stmt.Cond)
		if condType != types.Boolean {
			a.fail(errorAt(ConditionalExpressionTypeMismatch, stmt.Pos()).
				withTypes(condType.String(), ""))
		}
	}
	if stmt.Next != nil {
		a.analyzeExpr(stmt.Next)
	}

	a.loopDepth++
	a.analyzeStatement(stmt.Body)
	a.loopDepth--

	a.scope.PopScope()
}

func (a *Analyzer) analyzePrint(stmt *ast.Print) {
	for _, arg := range stmt.Args {
		argType := a.analyzeExpr(arg)
		if argType != types.Int && argType != types.Char && argType != types.String {
			a.fail(errorAt(PrintExpressionTypeMismatch, stmt.Pos()))
		}
	}
}

func (a *Analyzer) analyzeReturn(stmt *ast.Return) {
	returned := types.Type(types.Void)
	if stmt.Expr != nil {
		returned = a.analyzeExpr(stmt.Expr)
	}
	if a.currentMethodReturn == nil || !returned.Equals(a.currentMethodReturn) {
		expected := "type(void)"
		if a.currentMethodReturn != nil {
			expected = a.currentMethodReturn.String()
		}
		a.fail(errorAt(ReturnTypeMismatch, stmt.Pos()).
			withTypes(returned.String(), expected))
	}
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// analyzeExpr resolves and returns the type of an expression,
// annotating the node.
func (a *Analyzer) analyzeExpr(expr ast.Expression) types.Type {
	t := a.exprType(expr)
	expr.SetType(t)
	return t
}

func (a *Analyzer) exprType(expr ast.Expression) types.Type {
	switch e := expr.(type) {
	case *ast.Assignment:
		return a.analyzeAssignment(e)
	case *ast.BinaryOp:
		return a.analyzeBinaryOp(e)
	case *ast.UnaryOp:
		return a.analyzeUnaryOp(e)
	case *ast.ArrayRef:
		return a.analyzeArrayRef(e)
	case *ast.FieldAccess:
		return a.analyzeFieldAccess(e)
	case *ast.MethodCall:
		return a.analyzeMethodCall(e)
	case *ast.Length:
		return a.analyzeLength(e)
	case *ast.NewArray:
		return a.analyzeNewArray(e)
	case *ast.NewObject:
		return a.analyzeNewObject(e)
	case *ast.Constant:
		return a.constantType(e)
	case *ast.This:
		return a.analyzeThis(e)
	case *ast.Identifier:
		return a.analyzeIdentifier(e)
	case *ast.ExprList:
		var last types.Type = types.Void
		for _, inner := range e.Exprs {
			last = a.analyzeExpr(inner)
		}
		return last
	case *ast.InitList:
		return a.analyzeInitList(e)
	}
	a.fail(errorAt(UndeclaredName, expr.Pos()))
	return nil
}

func (a *Analyzer) analyzeAssignment(e *ast.Assignment) types.Type {
	lvalueType := a.analyzeExpr(e.LValue)
	rvalueType := a.analyzeExpr(e.RValue)

	if !a.assignable(lvalueType, rvalueType) {
		a.fail(errorAt(AssignTypeMismatch, e.Pos()).
			withTypes(lvalueType.String(), rvalueType.String()))
	}
	return lvalueType
}

func (a *Analyzer) analyzeBinaryOp(e *ast.BinaryOp) types.Type {
	leftType := a.analyzeExpr(e.Left)
	rightType := a.analyzeExpr(e.Right)

	if e.Operator == "&&" || e.Operator == "||" {
		if leftType != types.Boolean || rightType != types.Boolean {
			a.fail(errorAt(UnsupportedBinaryOperation, e.Pos()).
				withName(e.Operator).withTypes(leftType.String(), ""))
		}
		return types.Boolean
	}

	if !a.assignable(leftType, rightType) {
		a.fail(errorAt(BinaryExpressionTypeMismatch, e.Pos()).withName(e.Operator))
	}

	if leftType.BinaryOps()[e.Operator] {
		return leftType
	}
	if leftType.RelOps()[e.Operator] {
		return types.Boolean
	}

	a.fail(errorAt(UnsupportedBinaryOperation, e.Pos()).
		withName(e.Operator).withTypes(leftType.String(), ""))
	return nil
}

func (a *Analyzer) analyzeUnaryOp(e *ast.UnaryOp) types.Type {
	exprType := a.analyzeExpr(e.Expr)

	switch e.Operator {
	case "!":
		if exprType != types.Boolean {
			a.fail(errorAt(UnsupportedUnaryOperation, e.Pos()).withName(e.Operator))
		}
		return types.Boolean
	case "-", "+":
		if exprType != types.Int {
			a.fail(errorAt(UnsupportedUnaryOperation, e.Pos()).withName(e.Operator))
		}
		return types.Int
	}

	a.fail(errorAt(UnsupportedUnaryOperation, e.Pos()).withName(e.Operator))
	return nil
}

func (a *Analyzer) analyzeArrayRef(e *ast.ArrayRef) types.Type {
	arrayType := a.analyzeExpr(e.Array)
	subscriptType := a.analyzeExpr(e.Subscript)

	if subscriptType != types.Int {
		a.fail(errorAt(ArrayDimensionMismatch, e.Pos()).
			withTypes(subscriptType.String(), ""))
	}
	if arrayType != types.IntArray && arrayType != types.CharArray {
		a.fail(errorAt(ArrayRefTypeMismatch, e.Pos()).
			withTypes(arrayType.String(), ""))
	}
	return types.ElementType(arrayType)
}

func (a *Analyzer) analyzeFieldAccess(e *ast.FieldAccess) types.Type {
	objType := a.analyzeExpr(e.Object)

	obj, ok := objType.(*types.ObjectType)
	if !ok {
		a.fail(errorAt(ObjectTypeMustBeAClass, e.Pos()).withName(e.Object.String()))
	}

	classScope := a.registry.Lookup(obj.Class)
	if classScope == nil {
		a.fail(errorAt(UndeclaredField, e.Pos()).withName(obj.Class))
	}

	fieldType := classScope.Lookup(e.Field.Value)
	if fieldType == nil {
		a.fail(errorAt(UndeclaredField, e.Pos()).withName(e.Field.Value))
	}
	return fieldType
}

func (a *Analyzer) analyzeMethodCall(e *ast.MethodCall) types.Type {
	objType := a.analyzeExpr(e.Object)

	obj, ok := objType.(*types.ObjectType)
	if !ok {
		a.fail(errorAt(ObjectTypeMustBeAClass, e.Object.Pos()).withName(e.Object.String()))
	}

	classScope := a.registry.Lookup(obj.Class)
	if classScope == nil {
		a.fail(errorAt(UndeclaredClass, e.Object.Pos()).withName(obj.Class))
	}

	entry := classScope.Lookup(e.Method.Value)
	if entry == nil {
		a.fail(errorAt(UndeclaredMethod, e.Pos()).withName(e.Method.Value))
	}
	sig, ok := entry.(*types.MethodType)
	if !ok {
		a.fail(errorAt(UndeclaredMethod, e.Pos()).withName(e.Method.Value))
	}

	if len(e.Args) != len(sig.Params) {
		a.fail(errorAt(ArgumentCountMismatch, e.Pos()).withName(e.Method.Value))
	}

	for i, arg := range e.Args {
		argType := a.analyzeExpr(arg)
		if !argType.Equals(sig.Params[i]) {
			a.fail(errorAt(ParameterTypeMismatch, e.Pos()).withName(sig.ParamNames[i]))
		}
	}
	return sig.Return
}

func (a *Analyzer) analyzeLength(e *ast.Length) types.Type {
	exprType := a.analyzeExpr(e.Expr)
	if exprType != types.IntArray && exprType != types.CharArray && exprType != types.String {
		a.fail(errorAt(InvalidLengthTarget, e.Pos()).withName(exprType.String()))
	}
	return types.Int
}

func (a *Analyzer) analyzeNewArray(e *ast.NewArray) types.Type {
	sizeType := a.analyzeExpr(e.Size)
	if sizeType != types.Int {
		a.fail(errorAt(ArrayDimensionMismatch, e.Pos()))
	}

	arrayType, ok := types.Lookup(e.ElemType.Name)
	if !ok || !types.IsArray(arrayType) {
		a.fail(errorAt(UndeclaredClass, e.Pos()).withName(e.ElemType.Name))
	}
	return arrayType
}

func (a *Analyzer) analyzeNewObject(e *ast.NewObject) types.Type {
	if a.registry.Lookup(e.Class.Value) == nil {
		a.fail(errorAt(UndeclaredClass, e.Pos()).withName(e.Class.Value))
	}
	return types.NewObject(e.Class.Value)
}

func (a *Analyzer) constantType(e *ast.Constant) types.Type {
	switch e.Kind {
	case ast.IntConst:
		return types.Int
	case ast.CharConst:
		return types.Char
	case ast.StringConst:
		return types.String
	case ast.BoolConst:
		return types.Boolean
	}
	return nil
}

func (a *Analyzer) analyzeThis(e *ast.This) types.Type {
	if a.inMain || a.currentClassName == "" {
		a.fail(errorAt(UndeclaredName, e.Pos()).withName("this"))
	}
	return types.NewObject(a.currentClassName)
}

// analyzeIdentifier resolves a name: innermost scope outward, then the
// current class's fields and methods including the superclass chain.
func (a *Analyzer) analyzeIdentifier(e *ast.Identifier) types.Type {
	if entry := a.scope.Lookup(e.Value); entry != nil {
		return entry
	}
	if !a.inMain && a.currentClassName != "" {
		if classScope := a.registry.Lookup(a.currentClassName); classScope != nil {
			if entry := classScope.Lookup(e.Value); entry != nil {
				return entry
			}
		}
	}
	a.fail(errorAt(UndeclaredName, e.Pos()).withName(e.Value))
	return nil
}

func (a *Analyzer) analyzeInitList(e *ast.InitList) types.Type {
	var first types.Type
	for _, inner := range e.Exprs {
		constant, ok := inner.(*ast.Constant)
		if !ok {
			a.fail(errorAt(NotAConstant, inner.Pos()))
		}
		elemType := a.analyzeExpr(constant)
		if first == nil {
			first = elemType
		} else if elemType != first {
			a.fail(errorAt(ArrayElementTypeMismatch, inner.Pos()).
				withTypes(first.String(), elemType.String()))
		}
	}

	if first == nil {
		return types.IntArray
	}
	arrayType := types.ArrayOf(first)
	if arrayType == nil || arrayType == types.StringArray {
		a.fail(errorAt(ArrayElementTypeMismatch, e.Pos()).withName(first.String()))
	}
	return arrayType
}

// ----------------------------------------------------------------------------
// Assignment compatibility
// ----------------------------------------------------------------------------

// assignable reports whether a value of type actual may be assigned to
// a location of type declared: identical types, subclass widening, or
// the String to char[] built-in widening.
func (a *Analyzer) assignable(declared, actual types.Type) bool {
	if declared == nil || actual == nil {
		return false
	}
	if declared.Equals(actual) {
		return true
	}
	if declared == types.CharArray && actual == types.String {
		return true
	}
	declObj, declIsObj := declared.(*types.ObjectType)
	actObj, actIsObj := actual.(*types.ObjectType)
	if declIsObj && actIsObj {
		return a.registry.IsSubclassOf(actObj.Class, declObj.Class)
	}
	return false
}
