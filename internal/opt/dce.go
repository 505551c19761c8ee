package opt

import (
	"github.com/llir/llvm/ir"

	"github.com/dshills/llopt/internal/analysis"
)

// deadCodeElim removes unused pure instructions from fn. Each
// invocation erases at most one instruction per block: the last dead
// one seen in the block's program order. Dead chains drain over the
// driver's repeated rounds, the earlier links becoming dead as their
// consumers go.
func (o *Optimizer) deadCodeElim(fn *ir.Func) {
	for _, block := range fn.Blocks {
		var last ir.Instruction
		for _, inst := range block.Insts {
			if isDead(fn, inst) {
				last = inst
			}
		}
		if last == nil {
			continue
		}
		if analysis.Erase(fn, last) {
			o.stats.inc(StatDead)
		}
	}
}
