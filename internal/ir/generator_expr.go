package ir

import (
	"strconv"

	"github.com/cwbudde/go-mjc/internal/ast"
	"github.com/cwbudde/go-mjc/internal/types"
)

// value is the lowered location of an expression. addr marks a
// computed address (a field slot) that must be loaded before use as a
// value.
type value struct {
	loc  string
	addr bool
}

// rvalue lowers an expression and ensures the result is a plain value
// register (or literal label), loading through addresses.
func (g *Generator) rvalue(expr ast.Expression) value {
	v := g.genExpr(expr)
	if v.addr {
		temp := g.newTemp()
		g.emit("load_"+expr.Type().Name(), v.loc, temp)
		return value{loc: temp}
	}
	return v
}

func (g *Generator) genExpr(expr ast.Expression) value {
	switch e := expr.(type) {
	case *ast.Assignment:
		return g.genAssignment(e)
	case *ast.BinaryOp:
		return g.genBinaryOp(e)
	case *ast.UnaryOp:
		return g.genUnaryOp(e)
	case *ast.ArrayRef:
		return g.genArrayRef(e)
	case *ast.FieldAccess:
		return g.genFieldAccess(e)
	case *ast.MethodCall:
		return g.genMethodCall(e)
	case *ast.Length:
		return g.genLength(e)
	case *ast.NewArray:
		return g.genNewArray(e)
	case *ast.NewObject:
		return g.genNewObject(e, "")
	case *ast.Constant:
		return g.genConstant(e)
	case *ast.This:
		return value{loc: "%this"}
	case *ast.Identifier:
		return g.genIdentifier(e)
	case *ast.ExprList:
		var last value
		for _, inner := range e.Exprs {
			last = g.genExpr(inner)
		}
		return last
	}
	return value{}
}

func (g *Generator) genAssignment(e *ast.Assignment) value {
	// Object creation assigned to a variable writes straight into the
	// variable's register.
	if newObj, isNew := e.RValue.(*ast.NewObject); isNew {
		if id, isID := e.LValue.(*ast.Identifier); isID {
			if reg, ok := g.nameMap[id.Value]; ok {
				return g.genNewObject(newObj, reg)
			}
		}
	}

	v := g.rvalue(e.RValue)
	typeName := e.RValue.Type().Name()

	switch lvalue := e.LValue.(type) {
	case *ast.Identifier:
		if reg, ok := g.nameMap[lvalue.Value]; ok {
			g.emit("store_"+typeName, v.loc, reg)
		} else {
			// A bare field name resolves against the receiver.
			full := "%this.@" + g.currentClass + "." + lvalue.Value
			addr := g.newTemp()
			g.emit("load_addr", full, addr)
			g.emit("store_"+typeName, v.loc, addr)
		}
	case *ast.FieldAccess:
		addr := g.fieldAddress(lvalue)
		g.emit("store_"+typeName, v.loc, addr)
	case *ast.ArrayRef:
		arr := g.arrayLocation(lvalue.Array)
		idx := g.rvalue(lvalue.Subscript)
		g.emit("store_"+typeName+"_array", v.loc, arr, idx.loc)
	}
	return v
}

var binaryOps = map[string]string{
	"+":  "add_int",
	"-":  "sub_int",
	"*":  "mul_int",
	"/":  "div_int",
	"%":  "mod_int",
	"==": "eq_int",
	"!=": "ne_int",
	"<":  "lt_int",
	"<=": "le_int",
	">":  "gt_int",
	">=": "ge_int",
	"&&": "and_boolean",
	"||": "or_boolean",
}

func (g *Generator) genBinaryOp(e *ast.BinaryOp) value {
	left := g.rvalue(e.Left)
	right := g.rvalue(e.Right)
	result := g.newTemp()
	g.emit(binaryOps[e.Operator], left.loc, right.loc, result)
	return value{loc: result}
}

func (g *Generator) genUnaryOp(e *ast.UnaryOp) value {
	operand := g.rvalue(e.Expr)
	switch e.Operator {
	case "!":
		result := g.newTemp()
		g.emit("not_boolean", operand.loc, result)
		return value{loc: result}
	case "-":
		zero := g.newTemp()
		g.emit("literal_int", "0", zero)
		result := g.newTemp()
		g.emit("sub_int", zero, operand.loc, result)
		return value{loc: result}
	}
	// Unary plus is the identity.
	return operand
}

// arrayLocation lowers an array-valued expression to the register
// naming the array, loading through field addresses.
func (g *Generator) arrayLocation(expr ast.Expression) string {
	v := g.genExpr(expr)
	if v.addr {
		temp := g.newTemp()
		g.emit("load_"+expr.Type().Name(), v.loc, temp)
		return temp
	}
	return v.loc
}

func (g *Generator) genArrayRef(e *ast.ArrayRef) value {
	arr := g.arrayLocation(e.Array)
	idx := g.rvalue(e.Subscript)

	arrayType := e.Array.Type().Name()
	elemType := types.ElementType(e.Array.Type()).Name()

	addr := g.newTemp()
	g.emit("elem_"+arrayType, arr, idx.loc, addr)
	result := g.newTemp()
	g.emit("load_"+elemType, addr, result)
	return value{loc: result}
}

// fieldAddress computes the address of o.f as a fresh temporary.
func (g *Generator) fieldAddress(e *ast.FieldAccess) string {
	obj := g.genExpr(e.Object)
	objLoc := obj.loc
	if obj.addr {
		temp := g.newTemp()
		g.emit("load_"+e.Object.Type().Name(), obj.loc, temp)
		objLoc = temp
	}

	className := e.Object.Type().Name()
	full := objLoc + ".@" + className + "." + e.Field.Value
	addr := g.newTemp()
	g.emit("load_addr", full, addr)
	return addr
}

func (g *Generator) genFieldAccess(e *ast.FieldAccess) value {
	return value{loc: g.fieldAddress(e), addr: true}
}

func (g *Generator) genMethodCall(e *ast.MethodCall) value {
	// The receiver register is used directly when it is a variable.
	var recv string
	switch obj := e.Object.(type) {
	case *ast.Identifier:
		if reg, ok := g.nameMap[obj.Value]; ok {
			recv = reg
		}
	case *ast.This:
		recv = "%this"
	}
	if recv == "" {
		v := g.genExpr(e.Object)
		recv = v.loc
		if v.addr {
			temp := g.newTemp()
			g.emit("load_"+e.Object.Type().Name(), v.loc, temp)
			recv = temp
		}
	}

	type loweredArg struct {
		loc      string
		typeName string
	}
	args := make([]loweredArg, len(e.Args))
	for i, arg := range e.Args {
		v := g.rvalue(arg)
		args[i] = loweredArg{loc: v.loc, typeName: arg.Type().Name()}
	}
	for _, arg := range args {
		g.emit("param_"+arg.typeName, arg.loc)
	}

	target := recv + ".@" + e.Object.Type().Name() + "." + e.Method.Value

	returnType := e.Type()
	result := g.newTemp()
	if returnType == types.Void {
		g.emit("call_void", target, result)
	} else {
		g.emit("call_"+returnType.Name(), target, result)
	}
	return value{loc: result}
}

func (g *Generator) genLength(e *ast.Length) value {
	target := g.arrayLocation(e.Expr)
	result := g.newTemp()
	g.emit("length", target, result)
	return value{loc: result}
}

func (g *Generator) genNewArray(e *ast.NewArray) value {
	size := g.rvalue(e.Size)
	result := g.newTemp()
	g.emit("new_array_"+e.Type().Name(), size.loc, result)
	return value{loc: result}
}

// genNewObject instantiates a class into target (a fresh temporary
// when empty) and replays the class's recorded field defaults.
func (g *Generator) genNewObject(e *ast.NewObject, target string) value {
	if target == "" {
		target = g.newTemp()
	}
	className := e.Class.Value
	g.emit("new_@"+className, target)

	for _, rec := range g.allFields(className) {
		if rec.def == "" {
			continue
		}
		addr := g.newTemp()
		g.emit("load_addr", target+".@"+className+"."+rec.field, addr)
		temp := g.newTemp()
		g.emit("literal_"+rec.typeName, rec.def, temp)
		g.emit("store_"+rec.typeName, temp, addr)
	}
	return value{loc: target}
}

func (g *Generator) genConstant(e *ast.Constant) value {
	switch e.Kind {
	case ast.IntConst:
		temp := g.newTemp()
		g.emit("literal_int", strconv.FormatInt(e.Int, 10), temp)
		return value{loc: temp}
	case ast.BoolConst:
		temp := g.newTemp()
		g.emit("literal_boolean", strconv.FormatBool(e.Bool), temp)
		return value{loc: temp}
	case ast.CharConst:
		temp := g.newTemp()
		g.emit("literal_char", strconv.QuoteRune(e.Char), temp)
		return value{loc: temp}
	case ast.StringConst:
		return value{loc: g.internString(e.Str)}
	}
	return value{}
}

func (g *Generator) genIdentifier(e *ast.Identifier) value {
	reg, ok := g.nameMap[e.Value]
	if !ok {
		// A bare field name resolves against the receiver.
		full := "%this.@" + g.currentClass + "." + e.Value
		addr := g.newTemp()
		g.emit("load_addr", full, addr)
		return value{loc: addr, addr: true}
	}

	switch e.Type() {
	case types.Int, types.Char, types.Boolean:
		temp := g.newTemp()
		g.emit("load_"+e.Type().Name(), reg, temp)
		return value{loc: temp}
	}
	return value{loc: reg}
}
