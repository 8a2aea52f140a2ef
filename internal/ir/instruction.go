// Package ir defines the MiniJava intermediate representation (MJIR):
// three-address instructions grouped into labeled basic blocks, with a
// per-method control-flow graph, plus the generator that lowers the
// annotated AST into it.
package ir

import (
	"fmt"
	"strings"
)

// Instruction is one MJIR instruction: an opcode carrying the operand
// type as a suffix (e.g. "add_int", "store_char[]") and its operand
// strings — registers (%N, %name), labels (%label), global names
// (@name) or literals. Most opcodes take up to four operands; define_T
// takes the method name plus one operand per parameter.
//
// A label pseudo-instruction has an opcode ending in ':' and no args.
type Instruction struct {
	Op   string
	Args []string
}

// NewInstr builds an instruction from an opcode and its operands.
func NewInstr(op string, args ...string) Instruction {
	return Instruction{Op: op, Args: args}
}

// Label builds the label pseudo-instruction ("name:",).
func Label(name string) Instruction {
	return Instruction{Op: name + ":"}
}

// IsLabel reports whether the instruction is a label pseudo-instruction.
func (i Instruction) IsLabel() bool {
	return strings.HasSuffix(i.Op, ":")
}

// LabelName returns the label of a label pseudo-instruction.
func (i Instruction) LabelName() string {
	return strings.TrimSuffix(i.Op, ":")
}

// Family returns the opcode family: the opcode up to the first '_'
// that separates it from the type suffix ("store_char[]" → "store").
// Opcodes without a type suffix (jump, cbranch, length) return as is.
func (i Instruction) Family() string {
	switch {
	case i.IsLabel():
		return "label"
	case strings.HasPrefix(i.Op, "new_array_"):
		return "new_array"
	case strings.HasPrefix(i.Op, "new_@"):
		return "new"
	case strings.HasPrefix(i.Op, "return_"):
		return "return"
	}
	if idx := strings.Index(i.Op, "_"); idx >= 0 {
		return i.Op[:idx]
	}
	return i.Op
}

// TypeSuffix returns the operand type carried by the opcode, or "".
func (i Instruction) TypeSuffix() string {
	switch fam := i.Family(); fam {
	case "label", "jump", "cbranch", "length", "new", "class":
		return ""
	case "new_array":
		return strings.TrimPrefix(i.Op, "new_array_")
	default:
		if len(i.Op) > len(fam) {
			return i.Op[len(fam)+1:]
		}
		return ""
	}
}

// IsTerminator reports whether the instruction ends a basic block.
func (i Instruction) IsTerminator() bool {
	switch i.Family() {
	case "jump", "cbranch", "return":
		return true
	}
	return false
}

// String renders the instruction in the listing format.
func (i Instruction) String() string {
	if i.IsLabel() {
		return i.Op
	}
	if len(i.Args) == 0 {
		return i.Op
	}
	return i.Op + " " + strings.Join(i.Args, " ")
}

// FormatInstruction pretty-prints one instruction for listings:
// labels flush left, instructions indented.
func FormatInstruction(i Instruction) string {
	if i.IsLabel() {
		return i.Op
	}
	return "  " + i.String()
}

// FormatListing pretty-prints a whole instruction sequence.
func FormatListing(code []Instruction) string {
	var sb strings.Builder
	for _, instr := range code {
		sb.WriteString(FormatInstruction(instr))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// IsRegister reports whether the operand names a register (%…).
func IsRegister(operand string) bool {
	return strings.HasPrefix(operand, "%")
}

// IsGlobal reports whether the operand names a global (@…).
func IsGlobal(operand string) bool {
	return strings.HasPrefix(operand, "@")
}

// IsAddress reports whether a register operand is a computed address
// into an object (e.g. "%obj.@C.f") rather than a plain register such
// as a renamed local "%i.2". Address operands must be loaded before use
// as values.
func IsAddress(operand string) bool {
	return IsRegister(operand) && strings.Contains(operand[1:], ".@")
}

// IsTemp reports whether the operand is a numbered SSA temporary (%k).
func IsTemp(operand string) bool {
	if !IsRegister(operand) || len(operand) < 2 {
		return false
	}
	for _, ch := range operand[1:] {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// FormatInt renders an integer literal operand.
func FormatInt(v int64) string {
	return fmt.Sprintf("%d", v)
}
