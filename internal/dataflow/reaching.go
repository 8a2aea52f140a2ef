package dataflow

import "github.com/cwbudde/go-mjc/internal/ir"

// Definition is one definition site: the instruction at Index in Block
// writes Register.
type Definition struct {
	Block    *ir.BasicBlock
	Index    int
	Register string
}

// ReachingDefinitions holds the result of the forward may-analysis:
// for each block, the definition sites reaching its entry and exit.
type ReachingDefinitions struct {
	Defs []Definition
	In   map[*ir.BasicBlock]map[int]bool
	Out  map[*ir.BasicBlock]map[int]bool

	addrTemps map[string]bool
}

// ComputeReachingDefinitions runs the analysis to its fixed point.
// gen[B] holds the definitions made in B and not overwritten later in
// B; kill[B] holds every other definition of the same registers;
// in[B] is the union of the predecessors' out sets.
func ComputeReachingDefinitions(cfg *ir.CFG) *ReachingDefinitions {
	rd := &ReachingDefinitions{
		In:        make(map[*ir.BasicBlock]map[int]bool),
		Out:       make(map[*ir.BasicBlock]map[int]bool),
		addrTemps: AddressTemps(cfg),
	}

	blocks := cfg.Blocks()

	// Number every definition site and group them by register.
	byRegister := make(map[string][]int)
	for _, b := range blocks {
		for i, instr := range b.Instrs {
			for _, reg := range Defs(instr, rd.addrTemps) {
				id := len(rd.Defs)
				rd.Defs = append(rd.Defs, Definition{Block: b, Index: i, Register: reg})
				byRegister[reg] = append(byRegister[reg], id)
			}
		}
	}

	gen := make(map[*ir.BasicBlock]map[int]bool)
	kill := make(map[*ir.BasicBlock]map[int]bool)
	for _, b := range blocks {
		gen[b] = make(map[int]bool)
		kill[b] = make(map[int]bool)
	}
	for id, def := range rd.Defs {
		g := gen[def.Block]
		// A later definition of the same register in the block
		// supersedes this one.
		last := true
		for _, other := range byRegister[def.Register] {
			o := rd.Defs[other]
			if o.Block == def.Block && o.Index > def.Index {
				last = false
				break
			}
		}
		if last {
			g[id] = true
		}
		for _, other := range byRegister[def.Register] {
			if other != id {
				kill[def.Block][other] = true
			}
		}
	}

	for _, b := range blocks {
		rd.In[b] = make(map[int]bool)
		rd.Out[b] = make(map[int]bool)
	}

	preds := cfg.Predecessors()
	changed := true
	for changed {
		changed = false
		for _, b := range blocks {
			in := make(map[int]bool)
			for _, pred := range preds[b] {
				for id := range rd.Out[pred] {
					in[id] = true
				}
			}
			out := make(map[int]bool)
			for id := range gen[b] {
				out[id] = true
			}
			for id := range in {
				if !kill[b][id] {
					out[id] = true
				}
			}
			if !sameSet(in, rd.In[b]) || !sameSet(out, rd.Out[b]) {
				rd.In[b] = in
				rd.Out[b] = out
				changed = true
			}
		}
	}
	return rd
}

// ReachingAt returns the definition sites of register reg that reach
// the instruction at index within block.
func (rd *ReachingDefinitions) ReachingAt(block *ir.BasicBlock, index int, reg string) []Definition {
	// Start from the block's in set, then apply the block's own
	// definitions up to (excluding) index.
	var reaching []Definition

	// The most recent in-block definition wins outright.
	for i := index - 1; i >= 0; i-- {
		for _, def := range Defs(block.Instrs[i], rd.addrTemps) {
			if def == reg {
				return []Definition{{Block: block, Index: i, Register: reg}}
			}
		}
	}

	for id := range rd.In[block] {
		if rd.Defs[id].Register == reg {
			reaching = append(reaching, rd.Defs[id])
		}
	}
	return reaching
}

func sameSet(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
