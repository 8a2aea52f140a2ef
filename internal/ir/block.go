package ir

import "strings"

// BasicBlock is a labeled straight-line instruction sequence. Blocks
// are chained by Next in emission order; control-flow edges are
// derived from each block's terminator.
type BasicBlock struct {
	Label  string
	Instrs []Instruction

	// Next links blocks in emission order, entry first.
	Next *BasicBlock
}

// Append adds an instruction to the block.
func (b *BasicBlock) Append(instr Instruction) {
	b.Instrs = append(b.Instrs, instr)
}

// Terminator returns the block's final instruction when it is a
// terminator, and ok=false otherwise.
func (b *BasicBlock) Terminator() (Instruction, bool) {
	if len(b.Instrs) == 0 {
		return Instruction{}, false
	}
	last := b.Instrs[len(b.Instrs)-1]
	return last, last.IsTerminator()
}

// IsConditional reports whether the block ends in a cbranch, i.e. it
// is a condition block with two successors.
func (b *BasicBlock) IsConditional() bool {
	term, ok := b.Terminator()
	return ok && term.Family() == "cbranch"
}

// CFG is the control-flow graph of one method: a rooted chain of basic
// blocks with a distinguished entry and a single exit block.
type CFG struct {
	MethodName string // mangled name, e.g. "@Main.main"
	Entry      *BasicBlock
	Exit       *BasicBlock
}

// Blocks returns the blocks in emission order, entry first.
func (c *CFG) Blocks() []*BasicBlock {
	var blocks []*BasicBlock
	for b := c.Entry; b != nil; b = b.Next {
		blocks = append(blocks, b)
	}
	return blocks
}

// ByLabel indexes the blocks by label.
func (c *CFG) ByLabel() map[string]*BasicBlock {
	index := make(map[string]*BasicBlock)
	for _, b := range c.Blocks() {
		index[b.Label] = b
	}
	return index
}

// Successors returns the control-flow successors of a block, resolved
// through the label index.
func (c *CFG) Successors(b *BasicBlock, index map[string]*BasicBlock) []*BasicBlock {
	term, ok := b.Terminator()
	if !ok {
		return nil
	}
	var succs []*BasicBlock
	switch term.Family() {
	case "jump":
		if target := index[labelOperand(term.Args[0])]; target != nil {
			succs = append(succs, target)
		}
	case "cbranch":
		for _, arg := range term.Args[1:] {
			if target := index[labelOperand(arg)]; target != nil {
				succs = append(succs, target)
			}
		}
	}
	return succs
}

// Predecessors computes the predecessor sets of every block.
func (c *CFG) Predecessors() map[*BasicBlock][]*BasicBlock {
	index := c.ByLabel()
	preds := make(map[*BasicBlock][]*BasicBlock)
	for _, b := range c.Blocks() {
		for _, succ := range c.Successors(b, index) {
			preds[succ] = append(preds[succ], b)
		}
	}
	return preds
}

// labelOperand strips the '%' prefix off a branch target operand.
func labelOperand(operand string) string {
	return strings.TrimPrefix(operand, "%")
}

// EmitBlocks flattens a CFG into its instruction sequence, entry
// first, following the emission-order chain.
func EmitBlocks(cfg *CFG) []Instruction {
	var code []Instruction
	for _, b := range cfg.Blocks() {
		code = append(code, b.Instrs...)
	}
	return code
}
