package ir

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-mjc/internal/ast"
)

func (g *Generator) genStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Compound:
		for _, inner := range s.Statements {
			g.genStatement(inner)
		}
	case *ast.VarDecl:
		g.genVarDecl(s, g.localRegister(s.Name.Value))
	case *ast.DeclList:
		for _, decl := range s.Decls {
			g.genVarDecl(decl, g.localRegister(decl.Name.Value))
		}
	case *ast.If:
		g.genIf(s)
	case *ast.While:
		g.genWhile(s)
	case *ast.For:
		g.genFor(s)
	case *ast.Assert:
		g.genAssert(s)
	case *ast.Print:
		g.genPrint(s)
	case *ast.Break:
		g.emit("jump", "%"+g.breakTarget.Label)
	case *ast.Return:
		g.genReturn(s)
	case *ast.ExpressionStmt:
		if s.Expr != nil {
			g.genExpr(s.Expr)
		}
	}
}

// localRegister binds a declared name to its register in the current
// method.
func (g *Generator) localRegister(name string) string {
	reg := "%" + name
	g.nameMap[name] = reg
	return reg
}

// renamedRegister binds a declared name to a fresh register when the
// plain name is already taken by an outer scope, as happens for
// for-init declarations shadowing an outer variable.
func (g *Generator) renamedRegister(name string) string {
	if _, taken := g.nameMap[name]; !taken {
		return g.localRegister(name)
	}
	version := 2
	for {
		reg := fmt.Sprintf("%%%s.%d", name, version)
		if !g.registerInUse(reg) {
			g.nameMap[name] = reg
			return reg
		}
		version++
	}
}

func (g *Generator) registerInUse(reg string) bool {
	for _, used := range g.nameMap {
		if used == reg {
			return true
		}
	}
	return false
}

func (g *Generator) genVarDecl(decl *ast.VarDecl, reg string) {
	typeName := decl.DeclType.Name

	// Array literal: materialize a global constant and copy it in.
	if initList, ok := decl.Init.(*ast.InitList); ok {
		n := len(initList.Exprs)
		values := make([]string, n)
		for i, expr := range initList.Exprs {
			values[i] = constantLiteral(expr.(*ast.Constant))
		}
		label := g.newConstLabel(decl.Name.Value)
		sized := fmt.Sprintf("%s_%d", typeName, n)
		g.module.Text = append(g.module.Text,
			NewInstr("global_"+sized, label, "["+strings.Join(values, ", ")+"]"))
		g.emit("alloc_"+sized, reg)
		g.emit("store_"+sized, label, reg)
		return
	}

	// String literal initializing a char[]: copy from the interned global.
	if constant, ok := decl.Init.(*ast.Constant); ok &&
		constant.Kind == ast.StringConst && typeName == "char[]" {
		label := g.internString(constant.Str)
		g.emit(fmt.Sprintf("alloc_char[]_%d", len(constant.Str)), reg)
		g.emit("store_char[]", label, reg)
		return
	}

	// Object creation writes straight into the destination register.
	if newObj, ok := decl.Init.(*ast.NewObject); ok {
		g.genNewObject(newObj, reg)
		return
	}

	g.emit("alloc_"+typeName, reg)
	if decl.Init != nil {
		v := g.rvalue(decl.Init)
		g.emit("store_"+typeName, v.loc, reg)
	}
}

func (g *Generator) genIf(stmt *ast.If) {
	id := g.newLabelID()
	thenBlock := &BasicBlock{Label: fmt.Sprintf("if%s.then", id)}
	endBlock := &BasicBlock{Label: fmt.Sprintf("if%s.end", id)}

	var elseBlock *BasicBlock
	elseTarget := endBlock
	if stmt.Else != nil {
		elseBlock = &BasicBlock{Label: fmt.Sprintf("if%s.else", id)}
		elseTarget = elseBlock
	}

	cond := g.rvalue(stmt.Cond)
	g.emit("cbranch", cond.loc, "%"+thenBlock.Label, "%"+elseTarget.Label)

	g.startBlock(thenBlock)
	g.genStatement(stmt.Then)
	if !g.terminated() {
		g.emit("jump", "%"+endBlock.Label)
	}

	if elseBlock != nil {
		g.startBlock(elseBlock)
		g.genStatement(stmt.Else)
		if !g.terminated() {
			g.emit("jump", "%"+endBlock.Label)
		}
	}

	g.startBlock(endBlock)
}

func (g *Generator) genWhile(stmt *ast.While) {
	id := g.newLabelID()
	condBlock := &BasicBlock{Label: fmt.Sprintf("while%s.cond", id)}
	bodyBlock := &BasicBlock{Label: fmt.Sprintf("while%s.body", id)}
	endBlock := &BasicBlock{Label: fmt.Sprintf("while%s.end", id)}

	g.emit("jump", "%"+condBlock.Label)

	g.startBlock(condBlock)
	cond := g.rvalue(stmt.Cond)
	g.emit("cbranch", cond.loc, "%"+bodyBlock.Label, "%"+endBlock.Label)

	g.startBlock(bodyBlock)
	savedBreak := g.breakTarget
	g.breakTarget = endBlock
	g.genStatement(stmt.Body)
	if !g.terminated() {
		g.emit("jump", "%"+condBlock.Label)
	}
	g.breakTarget = savedBreak

	g.startBlock(endBlock)
}

func (g *Generator) genFor(stmt *ast.For) {
	id := g.newLabelID()
	condBlock := &BasicBlock{Label: fmt.Sprintf("for%s.cond", id)}
	bodyBlock := &BasicBlock{Label: fmt.Sprintf("for%s.body", id)}
	incBlock := &BasicBlock{Label: fmt.Sprintf("for%s.inc", id)}
	endBlock := &BasicBlock{Label: fmt.Sprintf("for%s.end", id)}

	// The init declarations may shadow outer names; restore the
	// bindings when the loop is done.
	savedNames := make(map[string]string, len(g.nameMap))
	for k, v := range g.nameMap {
		savedNames[k] = v
	}

	switch init := stmt.Init.(type) {
	case nil:
	case *ast.DeclList:
		for _, decl := range init.Decls {
			g.genVarDecl(decl, g.renamedRegister(decl.Name.Value))
		}
	default:
		g.genStatement(init)
	}

	g.emit("jump", "%"+condBlock.Label)

	g.startBlock(condBlock)
	if stmt.Cond != nil {
		cond := g.rvalue(stmt.Cond)
		g.emit("cbranch", cond.loc, "%"+bodyBlock.Label, "%"+endBlock.Label)
	} else {
		g.emit("jump", "%"+bodyBlock.Label)
	}

	g.startBlock(bodyBlock)
	savedBreak := g.breakTarget
	g.breakTarget = endBlock
	g.genStatement(stmt.Body)
	if !g.terminated() {
		g.emit("jump", "%"+incBlock.Label)
	}
	g.breakTarget = savedBreak

	g.startBlock(incBlock)
	if stmt.Next != nil {
		g.genExpr(stmt.Next)
	}
	g.emit("jump", "%"+condBlock.Label)

	g.startBlock(endBlock)

	g.nameMap = savedNames
}

func (g *Generator) genAssert(stmt *ast.Assert) {
	pos := stmt.Expr.Pos()
	if binOp, ok := stmt.Expr.(*ast.BinaryOp); ok {
		pos = binOp.Left.Pos()
	}
	failLabel := g.internString(fmt.Sprintf("assertion_fail on %d:%d", pos.Line, pos.Column))

	cond := g.rvalue(stmt.Expr)

	id := g.newLabelID()
	trueBlock := &BasicBlock{Label: fmt.Sprintf("assert%s.true", id)}
	falseBlock := &BasicBlock{Label: fmt.Sprintf("assert%s.false", id)}

	g.emit("cbranch", cond.loc, "%"+trueBlock.Label, "%"+falseBlock.Label)

	g.startBlock(falseBlock)
	g.emit("print_String", failLabel)
	g.emit("jump", "%exit")

	g.startBlock(trueBlock)
}

func (g *Generator) genPrint(stmt *ast.Print) {
	for _, arg := range stmt.Args {
		v := g.rvalue(arg)
		g.emit("print_"+arg.Type().Name(), v.loc)
	}
}

func (g *Generator) genReturn(stmt *ast.Return) {
	if stmt.Expr != nil {
		v := g.rvalue(stmt.Expr)
		g.emit("store_"+stmt.Expr.Type().Name(), v.loc, g.returnSlot)
	}
	g.emit("jump", "%exit")
}
