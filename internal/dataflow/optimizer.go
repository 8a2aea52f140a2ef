package dataflow

import (
	"strconv"
	"strings"

	"github.com/cwbudde/go-mjc/internal/ir"
)

// Pass identifies one optimization pass.
type Pass string

const (
	PassConstProp  Pass = "const-prop"
	PassDeadCode   Pass = "dead-code"
	PassSimplify   Pass = "cfg-simplify"
	PassDeadAllocs Pass = "dead-allocs"
)

// Option toggles optimizer behavior.
type Option func(*config)

type config struct {
	enabled map[Pass]bool
}

func defaultConfig() config {
	return config{enabled: map[Pass]bool{
		PassConstProp:  true,
		PassDeadCode:   true,
		PassSimplify:   true,
		PassDeadAllocs: true,
	}}
}

func (cfg config) isEnabled(pass Pass) bool {
	enabled, ok := cfg.enabled[pass]
	return !ok || enabled
}

// WithPass enables or disables an optimization pass.
func WithPass(pass Pass, enabled bool) Option {
	return func(cfg *config) {
		cfg.enabled[pass] = enabled
	}
}

// Result is the outcome of optimizing a module.
type Result struct {
	Code   []ir.Instruction // final instruction list
	Before int              // instruction count before optimization
	After  int              // instruction count after optimization
}

// Speedup returns the before/after instruction-count ratio.
func (r *Result) Speedup() float64 {
	if r.After == 0 {
		return 1
	}
	return float64(r.Before) / float64(r.After)
}

// Optimize runs the dataflow passes over every method CFG in place and
// returns the final instruction list: text section first, then class
// and field records, then each method's blocks in entry-first order.
func Optimize(module *ir.Module, opts ...Option) *Result {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	result := &Result{Before: len(module.Instructions())}

	for _, methodCFG := range module.CFGs {
		if cfg.isEnabled(PassConstProp) {
			runToFixedPoint(func() bool { return propagateConstants(methodCFG) })
		}
		if cfg.isEnabled(PassDeadCode) {
			runToFixedPoint(func() bool { return eliminateDeadCode(methodCFG) })
		}
		if cfg.isEnabled(PassSimplify) {
			runToFixedPoint(func() bool { return shortCircuitJumps(methodCFG) })
			runToFixedPoint(func() bool { return mergeBlocks(methodCFG) })
		}
		if cfg.isEnabled(PassDeadAllocs) {
			discardUnusedAllocs(methodCFG)
		}
	}

	result.Code = module.Instructions()
	result.After = len(result.Code)
	return result
}

func runToFixedPoint(pass func() bool) {
	for pass() {
	}
}

// ----------------------------------------------------------------------------
// Constant propagation and folding
// ----------------------------------------------------------------------------

// substitutableOperands marks the operand positions where a register use may
// be replaced by a literal.
func substitutableOperands(instr ir.Instruction) []int {
	switch instr.Family() {
	case "add", "sub", "mul", "div", "mod",
		"eq", "ne", "lt", "le", "gt", "ge", "and", "or":
		return []int{0, 1}
	case "not", "param", "print":
		return []int{0}
	case "store":
		return []int{0}
	case "return":
		if len(instr.Args) > 0 {
			return []int{0}
		}
	}
	return nil
}

// propagateConstants substitutes literal values at uses dominated by a
// unique literal definition, then folds purely-constant instructions.
// Returns true when it changed anything.
func propagateConstants(cfg *ir.CFG) bool {
	rd := ComputeReachingDefinitions(cfg)
	changed := false

	for _, b := range cfg.Blocks() {
		for i, instr := range b.Instrs {
			// A load whose source holds a unique literal-valued store
			// becomes the literal itself.
			if instr.Family() == "load" && instr.Op != "load_addr" &&
				len(instr.Args) == 2 && ir.IsRegister(instr.Args[0]) && !ir.IsAddress(instr.Args[0]) {
				defs := rd.ReachingAt(b, i, instr.Args[0])
				if len(defs) == 1 {
					defInstr := defs[0].Block.Instrs[defs[0].Index]
					if defInstr.Family() == "store" && !strings.HasSuffix(defInstr.Op, "_array") &&
						isLiteralOperand(defInstr.Args[0]) {
						b.Instrs[i] = ir.NewInstr("literal_"+instr.TypeSuffix(), defInstr.Args[0], instr.Args[1])
						changed = true
						continue
					}
				}
			}

			for _, argIdx := range substitutableOperands(instr) {
				operand := instr.Args[argIdx]
				if !ir.IsRegister(operand) || ir.IsAddress(operand) {
					continue
				}
				defs := rd.ReachingAt(b, i, operand)
				if len(defs) != 1 {
					continue
				}
				def := defs[0]
				defInstr := def.Block.Instrs[def.Index]
				if defInstr.Family() != "literal" {
					continue
				}
				b.Instrs[i].Args[argIdx] = defInstr.Args[0]
				changed = true
			}

			if folded, ok := foldInstruction(b.Instrs[i]); ok {
				b.Instrs[i] = folded
				changed = true
			}
		}
	}
	return changed
}

// foldInstruction evaluates an arithmetic, relational or boolean
// instruction whose operands are all literals.
func foldInstruction(instr ir.Instruction) (ir.Instruction, bool) {
	fam := instr.Family()
	switch fam {
	case "add", "sub", "mul", "div", "mod",
		"eq", "ne", "lt", "le", "gt", "ge":
		if len(instr.Args) != 3 {
			return instr, false
		}
		left, okL := parseIntLiteral(instr.Args[0])
		right, okR := parseIntLiteral(instr.Args[1])
		if !okL || !okR {
			return instr, false
		}
		dst := instr.Args[2]
		switch fam {
		case "add":
			return ir.NewInstr("literal_int", formatInt(left+right), dst), true
		case "sub":
			return ir.NewInstr("literal_int", formatInt(left-right), dst), true
		case "mul":
			return ir.NewInstr("literal_int", formatInt(left*right), dst), true
		case "div":
			if right == 0 {
				return instr, false
			}
			return ir.NewInstr("literal_int", formatInt(left/right), dst), true
		case "mod":
			if right == 0 {
				return instr, false
			}
			return ir.NewInstr("literal_int", formatInt(left%right), dst), true
		case "eq":
			return ir.NewInstr("literal_boolean", formatBool(left == right), dst), true
		case "ne":
			return ir.NewInstr("literal_boolean", formatBool(left != right), dst), true
		case "lt":
			return ir.NewInstr("literal_boolean", formatBool(left < right), dst), true
		case "le":
			return ir.NewInstr("literal_boolean", formatBool(left <= right), dst), true
		case "gt":
			return ir.NewInstr("literal_boolean", formatBool(left > right), dst), true
		case "ge":
			return ir.NewInstr("literal_boolean", formatBool(left >= right), dst), true
		}
	case "and", "or":
		if len(instr.Args) != 3 {
			return instr, false
		}
		left, okL := parseBoolLiteral(instr.Args[0])
		right, okR := parseBoolLiteral(instr.Args[1])
		if !okL || !okR {
			return instr, false
		}
		dst := instr.Args[2]
		if fam == "and" {
			return ir.NewInstr("literal_boolean", formatBool(left && right), dst), true
		}
		return ir.NewInstr("literal_boolean", formatBool(left || right), dst), true
	case "not":
		if len(instr.Args) != 2 {
			return instr, false
		}
		operand, ok := parseBoolLiteral(instr.Args[0])
		if !ok {
			return instr, false
		}
		return ir.NewInstr("literal_boolean", formatBool(!operand), instr.Args[1]), true
	}
	return instr, false
}

func isLiteralOperand(operand string) bool {
	return !ir.IsRegister(operand) && !ir.IsGlobal(operand)
}

func parseIntLiteral(operand string) (int64, bool) {
	if ir.IsRegister(operand) || ir.IsGlobal(operand) {
		return 0, false
	}
	v, err := strconv.ParseInt(operand, 10, 64)
	return v, err == nil
}

func parseBoolLiteral(operand string) (bool, bool) {
	switch operand {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }
func formatBool(v bool) string { return strconv.FormatBool(v) }

// ----------------------------------------------------------------------------
// Dead-code elimination
// ----------------------------------------------------------------------------

// eliminateDeadCode removes instructions whose sole effect is to
// define a register not live after them. Instructions with side
// effects are always preserved. Returns true when it changed anything.
func eliminateDeadCode(cfg *ir.CFG) bool {
	lv := ComputeLiveVariables(cfg)
	addrTemps := lv.addrTemps
	changed := false

	for _, b := range cfg.Blocks() {
		live := make(map[string]bool, len(lv.Out[b]))
		for reg := range lv.Out[b] {
			live[reg] = true
		}

		// Walk backwards keeping the live set at each point.
		var kept []ir.Instruction
		for i := len(b.Instrs) - 1; i >= 0; i-- {
			instr := b.Instrs[i]
			defs := Defs(instr, addrTemps)

			remove := false
			if !HasSideEffects(instr, addrTemps) && len(defs) > 0 && instr.Family() != "alloc" {
				remove = true
				for _, reg := range defs {
					if live[reg] {
						remove = false
						break
					}
				}
			}
			if remove {
				changed = true
				continue
			}

			for _, reg := range defs {
				delete(live, reg)
			}
			for _, reg := range Uses(instr, addrTemps) {
				live[reg] = true
			}
			kept = append(kept, instr)
		}

		// Reverse back into program order.
		for left, right := 0, len(kept)-1; left < right; left, right = left+1, right-1 {
			kept[left], kept[right] = kept[right], kept[left]
		}
		b.Instrs = kept
	}
	return changed
}

// ----------------------------------------------------------------------------
// CFG simplification
// ----------------------------------------------------------------------------

// shortCircuitJumps removes blocks consisting only of a label and an
// unconditional jump, redirecting their predecessors. Returns true
// when it changed anything.
func shortCircuitJumps(cfg *ir.CFG) bool {
	changed := false

	var prev *ir.BasicBlock
	for b := cfg.Entry; b != nil; b = b.Next {
		if b == cfg.Entry || b == cfg.Exit || len(b.Instrs) != 2 ||
			!b.Instrs[0].IsLabel() || b.Instrs[1].Family() != "jump" {
			prev = b
			continue
		}
		target := b.Instrs[1].Args[0]
		if target == "%"+b.Label {
			prev = b
			continue
		}

		// Redirect every branch aimed at this block.
		for _, other := range cfg.Blocks() {
			if other == b || len(other.Instrs) == 0 {
				continue
			}
			last := &other.Instrs[len(other.Instrs)-1]
			switch last.Family() {
			case "jump":
				if last.Args[0] == "%"+b.Label {
					last.Args[0] = target
				}
			case "cbranch":
				for k := 1; k < len(last.Args); k++ {
					if last.Args[k] == "%"+b.Label {
						last.Args[k] = target
					}
				}
			}
		}

		// Unlink the block from the emission chain.
		if prev != nil {
			prev.Next = b.Next
		}
		changed = true
	}
	return changed
}

// mergeBlocks fuses a block C into its unique predecessor B when B
// ends in an unconditional jump to C. Returns true when it changed
// anything.
func mergeBlocks(cfg *ir.CFG) bool {
	preds := cfg.Predecessors()

	for _, b := range cfg.Blocks() {
		term, ok := b.Terminator()
		if !ok || term.Family() != "jump" {
			continue
		}
		index := cfg.ByLabel()
		target := index[strings.TrimPrefix(term.Args[0], "%")]
		if target == nil || target == cfg.Entry || target == cfg.Exit || target == b {
			continue
		}
		if len(preds[target]) != 1 {
			continue
		}

		// Fuse: drop B's jump and C's label, splice C's body into B.
		b.Instrs = b.Instrs[:len(b.Instrs)-1]
		body := target.Instrs
		if len(body) > 0 && body[0].IsLabel() {
			body = body[1:]
		}
		b.Instrs = append(b.Instrs, body...)

		// Remove C from the emission chain.
		for scan := cfg.Entry; scan != nil; scan = scan.Next {
			if scan.Next == target {
				scan.Next = target.Next
				break
			}
		}
		return true
	}
	return false
}

// discardUnusedAllocs removes alloc instructions for registers that no
// other instruction references.
func discardUnusedAllocs(cfg *ir.CFG) {
	addrTemps := AddressTemps(cfg)
	referenced := make(map[string]bool)
	for _, b := range cfg.Blocks() {
		for _, instr := range b.Instrs {
			if instr.Family() == "alloc" {
				continue
			}
			for _, reg := range Uses(instr, addrTemps) {
				referenced[reg] = true
			}
			for _, reg := range Defs(instr, addrTemps) {
				referenced[reg] = true
			}
		}
	}

	for _, b := range cfg.Blocks() {
		var kept []ir.Instruction
		for _, instr := range b.Instrs {
			if instr.Family() == "alloc" && len(instr.Args) > 0 && !referenced[instr.Args[0]] {
				continue
			}
			kept = append(kept, instr)
		}
		b.Instrs = kept
	}
}
