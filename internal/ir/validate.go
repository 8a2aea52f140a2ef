package ir

import (
	"fmt"

	"go.uber.org/multierr"
)

// Validate checks the structural invariants of a method CFG and
// reports every violation at once:
//
//   - every block begins with its label pseudo-instruction;
//   - every block ends in exactly one terminator, with no terminator
//     in the middle;
//   - every referenced label resolves to a block;
//   - the graph has exactly one exit block, holding the only return;
//   - every path from entry reaches exit;
//   - every numbered temporary is defined at most once.
func Validate(cfg *CFG) error {
	var err error
	blocks := cfg.Blocks()
	index := cfg.ByLabel()

	if cfg.Exit == nil || index["exit"] != cfg.Exit {
		err = multierr.Append(err, fmt.Errorf("%s: missing exit block", cfg.MethodName))
	}

	defs := make(map[string]int)
	for _, b := range blocks {
		err = multierr.Append(err, validateBlock(cfg, b))
		for _, instr := range b.Instrs {
			if dst, ok := tempDestination(instr); ok {
				defs[dst]++
			}
		}
	}

	for temp, count := range defs {
		if count > 1 {
			err = multierr.Append(err,
				fmt.Errorf("%s: temporary %s defined %d times", cfg.MethodName, temp, count))
		}
	}

	// Branch targets must resolve.
	for _, b := range blocks {
		term, ok := b.Terminator()
		if !ok {
			continue
		}
		switch term.Family() {
		case "jump":
			if index[labelOperand(term.Args[0])] == nil {
				err = multierr.Append(err,
					fmt.Errorf("%s: block %q jumps to unknown label %s", cfg.MethodName, b.Label, term.Args[0]))
			}
		case "cbranch":
			for _, target := range term.Args[1:] {
				if index[labelOperand(target)] == nil {
					err = multierr.Append(err,
						fmt.Errorf("%s: block %q branches to unknown label %s", cfg.MethodName, b.Label, target))
				}
			}
		case "return":
			if b != cfg.Exit {
				err = multierr.Append(err,
					fmt.Errorf("%s: return outside exit block %q", cfg.MethodName, b.Label))
			}
		}
	}

	err = multierr.Append(err, validateReachability(cfg))
	return err
}

func validateBlock(cfg *CFG, b *BasicBlock) error {
	var err error

	labelIdx := 0
	if len(b.Instrs) > 0 && !b.Instrs[0].IsLabel() {
		// The entry block's define instruction precedes its label.
		if b != cfg.Entry || len(b.Instrs) < 2 || !b.Instrs[1].IsLabel() {
			err = multierr.Append(err,
				fmt.Errorf("%s: block %q does not begin with a label", cfg.MethodName, b.Label))
		} else {
			labelIdx = 1
		}
	}
	if len(b.Instrs) > labelIdx && b.Instrs[labelIdx].IsLabel() &&
		b.Instrs[labelIdx].LabelName() != b.Label {
		err = multierr.Append(err,
			fmt.Errorf("%s: block %q labeled %q", cfg.MethodName, b.Label, b.Instrs[labelIdx].LabelName()))
	}

	if _, ok := b.Terminator(); !ok {
		err = multierr.Append(err,
			fmt.Errorf("%s: block %q has no terminator", cfg.MethodName, b.Label))
	}
	for i, instr := range b.Instrs {
		if instr.IsTerminator() && i != len(b.Instrs)-1 {
			err = multierr.Append(err,
				fmt.Errorf("%s: block %q has terminator %q before its end", cfg.MethodName, b.Label, instr.Op))
		}
	}
	return err
}

func validateReachability(cfg *CFG) error {
	index := cfg.ByLabel()
	reachesExit := make(map[*BasicBlock]bool)

	// Iterate to a fixed point over the reaches-exit predicate.
	changed := true
	for changed {
		changed = false
		for _, b := range cfg.Blocks() {
			if reachesExit[b] {
				continue
			}
			if b == cfg.Exit {
				reachesExit[b] = true
				changed = true
				continue
			}
			for _, succ := range cfg.Successors(b, index) {
				if reachesExit[succ] {
					reachesExit[b] = true
					changed = true
					break
				}
			}
		}
	}

	var err error
	seen := map[*BasicBlock]bool{cfg.Entry: true}
	worklist := []*BasicBlock{cfg.Entry}
	for len(worklist) > 0 {
		b := worklist[0]
		worklist = worklist[1:]
		if !reachesExit[b] {
			err = multierr.Append(err,
				fmt.Errorf("%s: block %q cannot reach exit", cfg.MethodName, b.Label))
		}
		for _, succ := range cfg.Successors(b, index) {
			if !seen[succ] {
				seen[succ] = true
				worklist = append(worklist, succ)
			}
		}
	}
	return err
}

// tempDestination returns the numbered temporary an instruction
// defines, when it defines one.
func tempDestination(instr Instruction) (string, bool) {
	if len(instr.Args) == 0 {
		return "", false
	}
	var dst string
	switch instr.Family() {
	case "literal", "load", "elem", "call", "length", "not", "new_array",
		"add", "sub", "mul", "div", "mod",
		"eq", "ne", "lt", "le", "gt", "ge",
		"and", "or":
		dst = instr.Args[len(instr.Args)-1]
	default:
		return "", false
	}
	if IsTemp(dst) {
		return dst, true
	}
	return "", false
}
