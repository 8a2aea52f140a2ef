package ir

import (
	"fmt"
	"strconv"

	"github.com/cwbudde/go-mjc/internal/ast"
	"github.com/cwbudde/go-mjc/internal/semantic"
)

// Module is the IR of a whole program: the text section of global
// constants, the class and field records, and one CFG per method.
type Module struct {
	Text  []Instruction // global_String / global_T_N constants
	Decls []Instruction // class and field records, declaration order
	CFGs  []*CFG        // per-method graphs, declaration order
}

// Instructions flattens the module into the final instruction list:
// text section first, then class/field records, then each method's
// blocks in entry-first order.
func (m *Module) Instructions() []Instruction {
	var code []Instruction
	code = append(code, m.Text...)
	code = append(code, m.Decls...)
	for _, cfg := range m.CFGs {
		code = append(code, EmitBlocks(cfg)...)
	}
	return code
}

// fieldRecord is one field declaration of a class, with an optional
// constant default value.
type fieldRecord struct {
	typeName string // "int", "char[]", …
	field    string // bare field name
	def      string // literal default, "" when absent
}

// Generator lowers the annotated AST to MJIR.
type Generator struct {
	registry *semantic.Registry
	module   *Module

	currentClass string
	fname        string
	versions     map[string]int

	currentBlock *BasicBlock
	lastBlock    *BasicBlock
	exitBlock    *BasicBlock
	breakTarget  *BasicBlock

	returnSlot string

	nameMap map[string]string // source name → register

	classFields    map[string][]fieldRecord
	stringLiterals map[string]string // payload → @.str.K label
	globalCounter  int
}

// NewGenerator creates a generator over the class registry produced by
// semantic analysis.
func NewGenerator(registry *semantic.Registry) *Generator {
	return &Generator{
		registry:       registry,
		module:         &Module{},
		versions:       map[string]int{"_glob_": 0},
		classFields:    make(map[string][]fieldRecord),
		stringLiterals: make(map[string]string),
	}
}

// Generate lowers the whole program and returns its module.
func (g *Generator) Generate(program *ast.Program) *Module {
	// Collect every class's own field records first, so a subclass can
	// inherit from a superclass declared later in the file.
	for _, cls := range program.Classes {
		g.collectFields(cls)
	}

	for _, cls := range program.Classes {
		g.genClass(cls)
	}
	return g.module
}

// newTemp allocates a fresh SSA temporary for the current method.
func (g *Generator) newTemp() string {
	if _, ok := g.versions[g.fname]; !ok {
		g.versions[g.fname] = 1
	}
	name := "%" + strconv.Itoa(g.versions[g.fname])
	g.versions[g.fname]++
	return name
}

// newLabelID derives a unique label suffix from the temporary counter,
// keeping every structured-statement label distinct within a method.
func (g *Generator) newLabelID() string {
	return g.newTemp()[1:]
}

// internString deduplicates a string payload into the text section and
// returns its @.str.K label.
func (g *Generator) internString(payload string) string {
	if label, ok := g.stringLiterals[payload]; ok {
		return label
	}
	label := fmt.Sprintf("@.str.%d", len(g.stringLiterals))
	g.stringLiterals[payload] = label
	g.module.Text = append(g.module.Text, NewInstr("global_String", label, strconv.Quote(payload)))
	return label
}

// newConstLabel names a global array constant for a variable.
func (g *Generator) newConstLabel(varName string) string {
	label := fmt.Sprintf("@.const_%s.%d", varName, g.globalCounter)
	g.globalCounter++
	return label
}

// emit appends an instruction to the current block.
func (g *Generator) emit(op string, args ...string) {
	g.currentBlock.Append(NewInstr(op, args...))
}

// startBlock links a new block into the emission chain and makes it
// current.
func (g *Generator) startBlock(b *BasicBlock) {
	if g.lastBlock != nil {
		g.lastBlock.Next = b
	}
	g.lastBlock = b
	g.currentBlock = b
	g.emit(b.Label + ":")
}

// terminated reports whether the current block already ends in a
// terminator instruction.
func (g *Generator) terminated() bool {
	_, ok := g.currentBlock.Terminator()
	return ok
}

// collectFields records a class's own field declarations.
func (g *Generator) collectFields(cls *ast.ClassDecl) {
	var records []fieldRecord
	for _, field := range cls.Fields {
		rec := fieldRecord{
			typeName: field.DeclType.Name,
			field:    field.Name.Value,
		}
		if constant, ok := field.Init.(*ast.Constant); ok {
			rec.def = constantLiteral(constant)
		}
		records = append(records, rec)
	}
	g.classFields[cls.Name.Value] = records
}

// allFields returns the field records visible on a class: inherited
// first, walking the superclass chain root-down, then its own.
func (g *Generator) allFields(class string) []fieldRecord {
	var chain []string
	for scope := g.registry.Lookup(class); scope != nil; scope = scope.Superclass {
		chain = append(chain, scope.Name)
	}

	seen := make(map[string]bool)
	var records []fieldRecord
	for i := len(chain) - 1; i >= 0; i-- {
		for _, rec := range g.classFields[chain[i]] {
			if !seen[rec.field] {
				records = append(records, rec)
				seen[rec.field] = true
			}
		}
	}
	return records
}

func (g *Generator) genClass(cls *ast.ClassDecl) {
	g.currentClass = cls.Name.Value

	classArgs := []string{"@" + cls.Name.Value}
	if cls.Extends != nil {
		classArgs = append(classArgs, cls.Extends.Value)
	}
	g.module.Decls = append(g.module.Decls, NewInstr("class", classArgs...))

	// Field records: inherited fields renamed under this class's
	// prefix, then the class's own fields.
	for _, rec := range g.allFields(cls.Name.Value) {
		fieldName := fmt.Sprintf("@%s.%s", cls.Name.Value, rec.field)
		args := []string{fieldName}
		if rec.def != "" {
			args = append(args, rec.def)
		}
		g.module.Decls = append(g.module.Decls, NewInstr("field_"+rec.typeName, args...))
	}

	for _, method := range cls.Methods {
		switch m := method.(type) {
		case *ast.MethodDecl:
			g.genMethod(m)
		case *ast.MainMethodDecl:
			g.genMain(m)
		}
	}

	g.currentClass = ""
}

func (g *Generator) genMethod(method *ast.MethodDecl) {
	g.fname = fmt.Sprintf("@%s.%s", g.currentClass, method.Name.Value)
	g.versions[g.fname] = 1
	g.nameMap = make(map[string]string)

	entry := &BasicBlock{Label: "entry"}
	g.currentBlock = entry
	g.lastBlock = entry
	g.exitBlock = &BasicBlock{Label: "exit"}

	returnTypeName := method.ReturnType.Name

	// Parameters occupy %1..%n as incoming value registers.
	defineArgs := []string{g.fname}
	for i, param := range method.Params {
		reg := "%" + strconv.Itoa(i+1)
		defineArgs = append(defineArgs, fmt.Sprintf("(%s, %s)", param.DeclType.Name, reg))
	}
	g.versions[g.fname] = len(method.Params) + 1

	entry.Append(NewInstr("define_"+returnTypeName, defineArgs...))
	entry.Append(Label("entry"))

	// Return slot for non-void methods.
	if returnTypeName != "void" {
		g.returnSlot = g.newTemp()
		g.emit("alloc_"+returnTypeName, g.returnSlot)
	} else {
		g.returnSlot = ""
	}

	// Spill parameters into named locals.
	for i, param := range method.Params {
		local := "%" + param.Name.Value
		g.nameMap[param.Name.Value] = local
		g.emit("alloc_"+param.DeclType.Name, local)
		g.emit("store_"+param.DeclType.Name, "%"+strconv.Itoa(i+1), local)
	}

	g.genStatement(method.Body)

	if !g.terminated() {
		g.emit("jump", "%exit")
	}

	g.startBlock(g.exitBlock)
	if g.returnSlot != "" {
		temp := g.newTemp()
		g.emit("load_"+returnTypeName, g.returnSlot, temp)
		g.emit("return_"+returnTypeName, temp)
	} else {
		g.emit("return_void")
	}

	g.module.CFGs = append(g.module.CFGs, &CFG{
		MethodName: g.fname,
		Entry:      entry,
		Exit:       g.exitBlock,
	})
	g.currentBlock = nil
}

func (g *Generator) genMain(main *ast.MainMethodDecl) {
	g.fname = fmt.Sprintf("@%s.main", g.currentClass)
	g.versions[g.fname] = 1
	g.nameMap = make(map[string]string)

	entry := &BasicBlock{Label: "entry"}
	g.currentBlock = entry
	g.lastBlock = entry
	g.exitBlock = &BasicBlock{Label: "exit"}
	g.returnSlot = ""

	argsReg := "%" + main.Args.Value
	g.nameMap[main.Args.Value] = argsReg
	entry.Append(NewInstr("define_void", g.fname, fmt.Sprintf("(String[], %s)", argsReg)))
	entry.Append(Label("entry"))

	g.genStatement(main.Body)

	if !g.terminated() {
		g.emit("jump", "%exit")
	}

	g.startBlock(g.exitBlock)
	g.emit("return_void")

	g.module.CFGs = append(g.module.CFGs, &CFG{
		MethodName: g.fname,
		Entry:      entry,
		Exit:       g.exitBlock,
	})
	g.currentBlock = nil
}

// constantLiteral renders a constant node as an IR literal operand.
func constantLiteral(c *ast.Constant) string {
	switch c.Kind {
	case ast.IntConst:
		return strconv.FormatInt(c.Int, 10)
	case ast.BoolConst:
		return strconv.FormatBool(c.Bool)
	case ast.CharConst:
		return strconv.QuoteRune(c.Char)
	case ast.StringConst:
		return strconv.Quote(c.Str)
	}
	return ""
}
