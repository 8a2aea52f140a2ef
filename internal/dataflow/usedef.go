// Package dataflow implements the classical monotone dataflow analyses
// over MJIR control-flow graphs — reaching definitions (forward) and
// live variables (backward) — and the optimizations they drive:
// constant propagation, dead-code elimination and CFG simplification.
package dataflow

import (
	"strings"

	"github.com/cwbudde/go-mjc/internal/ir"
)

// AddressTemps collects the temporaries holding computed object-field
// addresses (the results of load_addr). A store through one of them
// writes memory, not the temporary.
func AddressTemps(cfg *ir.CFG) map[string]bool {
	addrs := make(map[string]bool)
	for _, b := range cfg.Blocks() {
		for _, instr := range b.Instrs {
			if instr.Op == "load_addr" && len(instr.Args) == 2 {
				addrs[instr.Args[1]] = true
			}
		}
	}
	return addrs
}

// Defs returns the registers an instruction writes. Stores through an
// address temporary write memory and define nothing.
func Defs(instr ir.Instruction, addrTemps map[string]bool) []string {
	switch instr.Family() {
	case "store":
		if strings.HasSuffix(instr.Op, "_array") || len(instr.Args) < 2 {
			return nil
		}
		dst := instr.Args[1]
		if addrTemps[dst] || !ir.IsRegister(dst) {
			return nil
		}
		return []string{dst}
	case "literal", "load", "elem", "length", "not", "new_array":
		return lastArgRegister(instr)
	case "add", "sub", "mul", "div", "mod",
		"eq", "ne", "lt", "le", "gt", "ge", "and", "or":
		return lastArgRegister(instr)
	case "call":
		if len(instr.Args) == 2 && ir.IsRegister(instr.Args[1]) {
			return []string{instr.Args[1]}
		}
	case "new":
		if len(instr.Args) == 1 && ir.IsRegister(instr.Args[0]) {
			return []string{instr.Args[0]}
		}
	case "alloc":
		if len(instr.Args) >= 1 && ir.IsRegister(instr.Args[0]) {
			return []string{instr.Args[0]}
		}
	}
	return nil
}

func lastArgRegister(instr ir.Instruction) []string {
	if len(instr.Args) == 0 {
		return nil
	}
	dst := instr.Args[len(instr.Args)-1]
	if ir.IsRegister(dst) {
		return []string{dst}
	}
	return nil
}

// Uses returns the registers an instruction reads.
func Uses(instr ir.Instruction, addrTemps map[string]bool) []string {
	var uses []string
	add := func(operand string) {
		if ir.IsRegister(operand) && !ir.IsAddress(operand) {
			uses = append(uses, operand)
		}
	}

	switch instr.Family() {
	case "store":
		if len(instr.Args) == 0 {
			return nil
		}
		add(instr.Args[0])
		if strings.HasSuffix(instr.Op, "_array") {
			// store_T_array value array index
			for _, arg := range instr.Args[1:] {
				add(arg)
			}
		} else if len(instr.Args) == 2 && addrTemps[instr.Args[1]] {
			// A store through a field address reads the pointer.
			add(instr.Args[1])
		}
	case "load":
		if instr.Op == "load_addr" {
			// The operand is "%base.@C.f"; the base register is read.
			uses = append(uses, addressBase(instr.Args[0]))
			return uses
		}
		add(instr.Args[0])
	case "literal", "alloc", "jump", "define", "global", "class", "field", "new", "label":
	case "add", "sub", "mul", "div", "mod",
		"eq", "ne", "lt", "le", "gt", "ge", "and", "or", "elem":
		add(instr.Args[0])
		add(instr.Args[1])
	case "not", "length", "param", "print", "new_array":
		add(instr.Args[0])
	case "cbranch":
		add(instr.Args[0])
	case "return":
		if len(instr.Args) > 0 {
			add(instr.Args[0])
		}
	case "call":
		// The target is "%recv.@C.m"; the receiver register is read.
		uses = append(uses, addressBase(instr.Args[0]))
	}
	return uses
}

// addressBase returns the register prefix of an instance address such
// as "%obj.@C.f".
func addressBase(operand string) string {
	if idx := strings.Index(operand, ".@"); idx > 0 {
		return operand[:idx]
	}
	return operand
}

// HasSideEffects reports whether an instruction must be preserved
// regardless of liveness: calls, prints, params, branches, returns,
// stores into memory and the structural pseudo-instructions.
func HasSideEffects(instr ir.Instruction, addrTemps map[string]bool) bool {
	switch instr.Family() {
	case "call", "print", "param", "cbranch", "jump", "return",
		"define", "global", "class", "field", "label":
		return true
	case "store":
		if strings.HasSuffix(instr.Op, "_array") {
			return true
		}
		return len(instr.Args) == 2 && addrTemps[instr.Args[1]]
	}
	return instr.IsLabel()
}
