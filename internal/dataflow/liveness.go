package dataflow

import "github.com/cwbudde/go-mjc/internal/ir"

// LiveVariables holds the result of the backward may-analysis: for
// each block, the registers live at its entry and exit.
type LiveVariables struct {
	In  map[*ir.BasicBlock]map[string]bool
	Out map[*ir.BasicBlock]map[string]bool

	addrTemps map[string]bool
}

// ComputeLiveVariables runs the analysis to its fixed point. use[B]
// holds the registers read in B before any write in B; def[B] the
// registers written; out[B] is the union of the successors' in sets.
func ComputeLiveVariables(cfg *ir.CFG) *LiveVariables {
	lv := &LiveVariables{
		In:        make(map[*ir.BasicBlock]map[string]bool),
		Out:       make(map[*ir.BasicBlock]map[string]bool),
		addrTemps: AddressTemps(cfg),
	}

	blocks := cfg.Blocks()
	index := cfg.ByLabel()

	use := make(map[*ir.BasicBlock]map[string]bool)
	def := make(map[*ir.BasicBlock]map[string]bool)
	for _, b := range blocks {
		use[b] = make(map[string]bool)
		def[b] = make(map[string]bool)
		for _, instr := range b.Instrs {
			for _, reg := range Uses(instr, lv.addrTemps) {
				if !def[b][reg] {
					use[b][reg] = true
				}
			}
			for _, reg := range Defs(instr, lv.addrTemps) {
				def[b][reg] = true
			}
		}
		lv.In[b] = make(map[string]bool)
		lv.Out[b] = make(map[string]bool)
	}

	changed := true
	for changed {
		changed = false
		// Visit in reverse emission order to converge faster; the
		// fixed point is independent of the order.
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]
			out := make(map[string]bool)
			for _, succ := range cfg.Successors(b, index) {
				for reg := range lv.In[succ] {
					out[reg] = true
				}
			}
			in := make(map[string]bool)
			for reg := range use[b] {
				in[reg] = true
			}
			for reg := range out {
				if !def[b][reg] {
					in[reg] = true
				}
			}
			if !sameStringSet(in, lv.In[b]) || !sameStringSet(out, lv.Out[b]) {
				lv.In[b] = in
				lv.Out[b] = out
				changed = true
			}
		}
	}
	return lv
}

func sameStringSet(a, b map[string]bool) bool {
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
