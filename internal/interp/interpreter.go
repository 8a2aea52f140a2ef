// Package interp executes MJIR instruction lists directly: a register
// machine over the tuple IR produced by the generator (optionally
// after the dataflow pass).
package interp

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cwbudde/go-mjc/internal/ir"
)

// maxCallDepth bounds recursion before reporting a stack overflow.
const maxCallDepth = 10000

// RuntimeError is a fatal error raised while executing MJIR.
type RuntimeError struct {
	Message string
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return "RuntimeError: " + e.Message
}

// AssertionError reports that an assertion failed during the run. The
// failure message itself was already printed by the program.
type AssertionError struct{}

func (e *AssertionError) Error() string {
	return "assertion failed"
}

// object is a class instance on the heap.
type object struct {
	class  string
	fields map[string]any
}

// array is a heap-allocated array.
type array struct {
	elems []any
}

// fieldAddr is the address of one object field.
type fieldAddr struct {
	obj   *object
	field string
}

// elemAddr is the address of one array element.
type elemAddr struct {
	arr   *array
	index int
}

// method is one compiled method body.
type method struct {
	name       string
	paramRegs  []string
	instrs     []ir.Instruction
	labels     map[string]int
	returnsVal bool
}

// classInfo records a class's superclass and field defaults.
type classInfo struct {
	name  string
	super string
	defs  []fieldDef
}

type fieldDef struct {
	typeName string
	field    string
	def      string // literal, "" when absent
}

// Interpreter executes a flat MJIR instruction list.
type Interpreter struct {
	out io.Writer

	globals map[string]any
	classes map[string]*classInfo
	methods map[string]*method

	params          []any
	callDepth       int
	assertionFailed bool
}

// New creates an interpreter writing program output to out.
func New(out io.Writer) *Interpreter {
	return &Interpreter{
		out:     out,
		globals: make(map[string]any),
		classes: make(map[string]*classInfo),
		methods: make(map[string]*method),
	}
}

// Run loads and executes a program. It returns a *RuntimeError on
// runtime failure and an *AssertionError when an assertion failed.
func (i *Interpreter) Run(code []ir.Instruction) error {
	if err := i.load(code); err != nil {
		return err
	}

	var mainMethod *method
	for _, m := range i.methods {
		if strings.HasSuffix(m.name, ".main") {
			mainMethod = m
			break
		}
	}
	if mainMethod == nil {
		return &RuntimeError{Message: "no main method"}
	}

	if _, err := i.call(mainMethod, nil, nil); err != nil {
		return err
	}
	if i.assertionFailed {
		return &AssertionError{}
	}
	return nil
}

// load splits the instruction list into globals, class records and
// method bodies.
func (i *Interpreter) load(code []ir.Instruction) error {
	var current *method
	var currentClass *classInfo

	for _, instr := range code {
		switch instr.Family() {
		case "global":
			i.loadGlobal(instr)
			continue
		case "class":
			name := strings.TrimPrefix(instr.Args[0], "@")
			info := &classInfo{name: name}
			if len(instr.Args) > 1 {
				info.super = instr.Args[1]
			}
			i.classes[name] = info
			currentClass = info
			continue
		case "field":
			if currentClass == nil {
				continue
			}
			full := instr.Args[0] // "@C.f"
			parts := strings.Split(strings.TrimPrefix(full, "@"), ".")
			def := fieldDef{
				typeName: instr.TypeSuffix(),
				field:    parts[len(parts)-1],
			}
			if len(instr.Args) > 1 {
				def.def = instr.Args[1]
			}
			currentClass.defs = append(currentClass.defs, def)
			continue
		case "define":
			current = &method{
				name:       instr.Args[0],
				labels:     make(map[string]int),
				returnsVal: instr.TypeSuffix() != "void",
			}
			for _, param := range instr.Args[1:] {
				// "(int, %1)"
				inner := strings.TrimSuffix(strings.TrimPrefix(param, "("), ")")
				fields := strings.SplitN(inner, ", ", 2)
				if len(fields) == 2 {
					current.paramRegs = append(current.paramRegs, fields[1])
				}
			}
			i.methods[current.name] = current
			continue
		}

		if current == nil {
			continue
		}
		if instr.IsLabel() {
			current.labels[instr.LabelName()] = len(current.instrs)
		}
		current.instrs = append(current.instrs, instr)
	}
	return nil
}

func (i *Interpreter) loadGlobal(instr ir.Instruction) {
	label := instr.Args[0]
	suffix := instr.TypeSuffix()

	if suffix == "String" {
		payload := instr.Args[1]
		if unquoted, err := strconv.Unquote(payload); err == nil {
			payload = unquoted
		}
		i.globals[label] = payload
		return
	}

	// Array constant: "global_int[]_3 @.const_a.0 [1, 2, 3]".
	if len(instr.Args) > 1 {
		list := strings.TrimSuffix(strings.TrimPrefix(instr.Args[1], "["), "]")
		var elems []any
		if list != "" {
			for _, item := range strings.Split(list, ", ") {
				elems = append(elems, parseLiteral(item))
			}
		}
		i.globals[label] = &array{elems: elems}
	}
}

// call executes a method body with the given receiver and arguments.
func (i *Interpreter) call(m *method, receiver *object, args []any) (any, error) {
	i.callDepth++
	if i.callDepth > maxCallDepth {
		return nil, &RuntimeError{Message: "stack overflow"}
	}
	defer func() { i.callDepth-- }()

	regs := make(map[string]any)
	if receiver != nil {
		regs["%this"] = receiver
	}
	for idx, reg := range m.paramRegs {
		if idx < len(args) {
			regs[reg] = args[idx]
		}
	}

	pc := 0
	for pc < len(m.instrs) {
		instr := m.instrs[pc]

		switch instr.Family() {
		case "label", "define", "alloc":
			if instr.Family() == "alloc" {
				i.execAlloc(regs, instr)
			}
		case "jump":
			pc = m.labels[strings.TrimPrefix(instr.Args[0], "%")]
			continue
		case "cbranch":
			cond, err := i.boolValue(regs, instr.Args[0])
			if err != nil {
				return nil, err
			}
			target := instr.Args[2]
			if cond {
				target = instr.Args[1]
			}
			pc = m.labels[strings.TrimPrefix(target, "%")]
			continue
		case "return":
			if instr.TypeSuffix() == "void" || len(instr.Args) == 0 {
				return nil, nil
			}
			return i.value(regs, instr.Args[0])
		default:
			if err := i.execInstr(regs, instr); err != nil {
				return nil, err
			}
		}
		pc++
	}
	return nil, nil
}

// execAlloc reserves a register, pre-sizing fixed-length arrays.
func (i *Interpreter) execAlloc(regs map[string]any, instr ir.Instruction) {
	suffix := instr.TypeSuffix()
	reg := instr.Args[0]

	if idx := strings.LastIndex(suffix, "_"); idx >= 0 {
		if n, err := strconv.Atoi(suffix[idx+1:]); err == nil {
			elems := make([]any, n)
			for k := range elems {
				elems[k] = zeroValue(strings.TrimSuffix(suffix[:idx], "[]"))
			}
			regs[reg] = &array{elems: elems}
			return
		}
	}
	regs[reg] = zeroValue(suffix)
}

func (i *Interpreter) execInstr(regs map[string]any, instr ir.Instruction) error {
	switch instr.Family() {
	case "literal":
		regs[instr.Args[1]] = parseLiteral(instr.Args[0])
	case "load":
		return i.execLoad(regs, instr)
	case "store":
		return i.execStore(regs, instr)
	case "add", "sub", "mul", "div", "mod",
		"eq", "ne", "lt", "le", "gt", "ge", "and", "or":
		return i.execBinary(regs, instr)
	case "not":
		operand, err := i.boolValue(regs, instr.Args[0])
		if err != nil {
			return err
		}
		regs[instr.Args[1]] = !operand
	case "elem":
		return i.execElem(regs, instr)
	case "length":
		return i.execLength(regs, instr)
	case "param":
		v, err := i.value(regs, instr.Args[0])
		if err != nil {
			return err
		}
		i.params = append(i.params, v)
	case "call":
		return i.execCall(regs, instr)
	case "new":
		regs[instr.Args[0]] = i.newObject(strings.TrimPrefix(instr.Op, "new_@"))
	case "new_array":
		return i.execNewArray(regs, instr)
	case "print":
		return i.execPrint(regs, instr)
	}
	return nil
}

func (i *Interpreter) execLoad(regs map[string]any, instr ir.Instruction) error {
	if instr.Op == "load_addr" {
		// Operand "%base.@C.f": resolve the base object and produce a
		// field address.
		operand := instr.Args[0]
		dot := strings.Index(operand, ".@")
		base := operand[:dot]
		field := operand[strings.LastIndex(operand, ".")+1:]

		obj, err := i.objectValue(regs, base)
		if err != nil {
			return err
		}
		regs[instr.Args[1]] = fieldAddr{obj: obj, field: field}
		return nil
	}

	v, err := i.value(regs, instr.Args[0])
	if err != nil {
		return err
	}
	regs[instr.Args[1]] = v
	return nil
}

func (i *Interpreter) execStore(regs map[string]any, instr ir.Instruction) error {
	v, err := i.value(regs, instr.Args[0])
	if err != nil {
		return err
	}

	if strings.HasSuffix(instr.Op, "_array") {
		arr, err := i.arrayValue(regs, instr.Args[1])
		if err != nil {
			return err
		}
		idx, err := i.intValue(regs, instr.Args[2])
		if err != nil {
			return err
		}
		if idx < 0 || int(idx) >= len(arr.elems) {
			return &RuntimeError{Message: fmt.Sprintf("array index %d out of bounds", idx)}
		}
		arr.elems[idx] = v
		return nil
	}

	dst := instr.Args[1]
	// A store through a computed field address writes the object.
	if addr, ok := regs[dst].(fieldAddr); ok {
		addr.obj.fields[addr.field] = v
		return nil
	}

	// Copying a string or array constant into a char[]/array local.
	if s, ok := v.(string); ok && strings.HasPrefix(instr.Op, "store_char[]") {
		elems := make([]any, 0, len(s))
		for _, r := range s {
			elems = append(elems, r)
		}
		regs[dst] = &array{elems: elems}
		return nil
	}
	if src, ok := v.(*array); ok {
		copied := make([]any, len(src.elems))
		copy(copied, src.elems)
		regs[dst] = &array{elems: copied}
		return nil
	}

	regs[dst] = v
	return nil
}

func (i *Interpreter) execBinary(regs map[string]any, instr ir.Instruction) error {
	left, err := i.value(regs, instr.Args[0])
	if err != nil {
		return err
	}
	right, err := i.value(regs, instr.Args[1])
	if err != nil {
		return err
	}
	dst := instr.Args[2]

	switch instr.Family() {
	case "and":
		regs[dst] = left.(bool) && right.(bool)
		return nil
	case "or":
		regs[dst] = left.(bool) || right.(bool)
		return nil
	case "eq":
		regs[dst] = valuesEqual(left, right)
		return nil
	case "ne":
		regs[dst] = !valuesEqual(left, right)
		return nil
	}

	// String concatenation shares the add opcode.
	if instr.Family() == "add" {
		if ls, ok := stringValue(left); ok {
			if rs, rok := stringValue(right); rok {
				regs[dst] = ls + rs
				return nil
			}
		}
	}

	l, lok := numeric(left)
	r, rok := numeric(right)
	if !lok || !rok {
		return &RuntimeError{Message: fmt.Sprintf("invalid operands for %s", instr.Op)}
	}

	switch instr.Family() {
	case "add":
		regs[dst] = l + r
	case "sub":
		regs[dst] = l - r
	case "mul":
		regs[dst] = l * r
	case "div":
		if r == 0 {
			return &RuntimeError{Message: "division by zero"}
		}
		regs[dst] = l / r
	case "mod":
		if r == 0 {
			return &RuntimeError{Message: "modulo by zero"}
		}
		regs[dst] = l % r
	case "lt":
		regs[dst] = l < r
	case "le":
		regs[dst] = l <= r
	case "gt":
		regs[dst] = l > r
	case "ge":
		regs[dst] = l >= r
	}
	return nil
}

func (i *Interpreter) execElem(regs map[string]any, instr ir.Instruction) error {
	arr, err := i.arrayValue(regs, instr.Args[0])
	if err != nil {
		return err
	}
	idx, err := i.intValue(regs, instr.Args[1])
	if err != nil {
		return err
	}
	if idx < 0 || int(idx) >= len(arr.elems) {
		return &RuntimeError{Message: fmt.Sprintf("array index %d out of bounds", idx)}
	}
	regs[instr.Args[2]] = elemAddr{arr: arr, index: int(idx)}
	return nil
}

func (i *Interpreter) execLength(regs map[string]any, instr ir.Instruction) error {
	v, err := i.value(regs, instr.Args[0])
	if err != nil {
		return err
	}
	switch target := v.(type) {
	case *array:
		regs[instr.Args[1]] = int64(len(target.elems))
	case string:
		regs[instr.Args[1]] = int64(len([]rune(target)))
	default:
		return &RuntimeError{Message: "length of non-array value"}
	}
	return nil
}

func (i *Interpreter) execCall(regs map[string]any, instr ir.Instruction) error {
	// Target "%recv.@C.m": resolve the receiver, then the method by
	// the receiver's runtime class.
	target := instr.Args[0]
	dot := strings.Index(target, ".@")
	base := target[:dot]
	methodName := target[strings.LastIndex(target, ".")+1:]

	obj, err := i.objectValue(regs, base)
	if err != nil {
		return err
	}

	m := i.resolveMethod(obj.class, methodName)
	if m == nil {
		return &RuntimeError{Message: fmt.Sprintf("undefined method %s on %s", methodName, obj.class)}
	}

	args := i.params
	i.params = nil

	result, err := i.call(m, obj, args)
	if err != nil {
		return err
	}
	if len(instr.Args) > 1 && m.returnsVal {
		regs[instr.Args[1]] = result
	}
	return nil
}

// resolveMethod finds a method by name on a class or its ancestors.
func (i *Interpreter) resolveMethod(class, name string) *method {
	for class != "" {
		if m, ok := i.methods["@"+class+"."+name]; ok {
			return m
		}
		info := i.classes[class]
		if info == nil {
			break
		}
		class = info.super
	}
	return nil
}

func (i *Interpreter) execNewArray(regs map[string]any, instr ir.Instruction) error {
	size, err := i.intValue(regs, instr.Args[0])
	if err != nil {
		return err
	}
	if size < 0 {
		return &RuntimeError{Message: "negative array size"}
	}
	elemType := strings.TrimSuffix(instr.TypeSuffix(), "[]")
	elems := make([]any, size)
	for k := range elems {
		elems[k] = zeroValue(elemType)
	}
	regs[instr.Args[1]] = &array{elems: elems}
	return nil
}

func (i *Interpreter) execPrint(regs map[string]any, instr ir.Instruction) error {
	v, err := i.value(regs, instr.Args[0])
	if err != nil {
		return err
	}

	if s, ok := stringValue(v); ok {
		if strings.HasPrefix(s, "assertion_fail") {
			i.assertionFailed = true
		}
		fmt.Fprintln(i.out, s)
		return nil
	}
	switch val := v.(type) {
	case int64:
		fmt.Fprintln(i.out, val)
	case rune:
		fmt.Fprintf(i.out, "%c\n", val)
	case bool:
		fmt.Fprintln(i.out, val)
	default:
		fmt.Fprintln(i.out, val)
	}
	return nil
}

// newObject builds an instance with the field defaults recorded for
// the class.
func (i *Interpreter) newObject(class string) *object {
	obj := &object{class: class, fields: make(map[string]any)}
	if info := i.classes[class]; info != nil {
		for _, def := range info.defs {
			if def.def != "" {
				obj.fields[def.field] = parseLiteral(def.def)
			} else {
				obj.fields[def.field] = zeroValue(def.typeName)
			}
		}
	}
	return obj
}

// ----------------------------------------------------------------------------
// Operand resolution
// ----------------------------------------------------------------------------

// value resolves an operand: registers read the frame (following
// field and element addresses), globals read the global table, and
// anything else parses as a literal.
func (i *Interpreter) value(regs map[string]any, operand string) (any, error) {
	if strings.HasPrefix(operand, "%") {
		v := regs[operand]
		switch addr := v.(type) {
		case fieldAddr:
			return addr.obj.fields[addr.field], nil
		case elemAddr:
			return addr.arr.elems[addr.index], nil
		}
		return v, nil
	}
	if strings.HasPrefix(operand, "@") {
		return i.globals[operand], nil
	}
	return parseLiteral(operand), nil
}

func (i *Interpreter) intValue(regs map[string]any, operand string) (int64, error) {
	v, err := i.value(regs, operand)
	if err != nil {
		return 0, err
	}
	if n, ok := numeric(v); ok {
		return n, nil
	}
	return 0, &RuntimeError{Message: fmt.Sprintf("expected integer, found %v", v)}
}

func (i *Interpreter) boolValue(regs map[string]any, operand string) (bool, error) {
	v, err := i.value(regs, operand)
	if err != nil {
		return false, err
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, &RuntimeError{Message: fmt.Sprintf("expected boolean, found %v", v)}
}

func (i *Interpreter) arrayValue(regs map[string]any, operand string) (*array, error) {
	v, err := i.value(regs, operand)
	if err != nil {
		return nil, err
	}
	if arr, ok := v.(*array); ok {
		return arr, nil
	}
	// A char[] may still hold an uncopied string constant.
	if s, ok := v.(string); ok {
		elems := make([]any, 0, len(s))
		for _, r := range s {
			elems = append(elems, r)
		}
		return &array{elems: elems}, nil
	}
	return nil, &RuntimeError{Message: fmt.Sprintf("expected array, found %v", v)}
}

func (i *Interpreter) objectValue(regs map[string]any, operand string) (*object, error) {
	v, err := i.value(regs, operand)
	if err != nil {
		return nil, err
	}
	if obj, ok := v.(*object); ok {
		return obj, nil
	}
	return nil, &RuntimeError{Message: fmt.Sprintf("expected object, found %v", v)}
}

// ----------------------------------------------------------------------------
// Value helpers
// ----------------------------------------------------------------------------

// parseLiteral interprets a literal operand: ints, booleans, quoted
// runes and quoted strings.
func parseLiteral(operand string) any {
	if n, err := strconv.ParseInt(operand, 10, 64); err == nil {
		return n
	}
	switch operand {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.HasPrefix(operand, "'") {
		if s, err := strconv.Unquote(operand); err == nil {
			for _, r := range s {
				return r
			}
		}
	}
	if strings.HasPrefix(operand, "\"") {
		if s, err := strconv.Unquote(operand); err == nil {
			return s
		}
	}
	return operand
}

func zeroValue(typeName string) any {
	switch typeName {
	case "int":
		return int64(0)
	case "char":
		return rune(0)
	case "boolean":
		return false
	case "String":
		return ""
	}
	if strings.HasSuffix(typeName, "[]") {
		return (*array)(nil)
	}
	return nil
}

// valuesEqual implements eq/ne over the value domain: numbers by
// value, strings (and char[] contents) by payload, references by
// identity.
func valuesEqual(a, b any) bool {
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return x == y
		}
	}
	if as, ok := stringValue(a); ok {
		if bs, ok := stringValue(b); ok {
			return as == bs
		}
	}
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return a == b
}

func numeric(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case rune:
		return int64(n), true
	}
	return 0, false
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case *array:
		// char[] renders as its characters.
		var sb strings.Builder
		for _, e := range s.elems {
			if r, ok := e.(rune); ok {
				sb.WriteRune(r)
			} else {
				return "", false
			}
		}
		return sb.String(), true
	}
	return "", false
}
