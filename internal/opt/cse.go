package opt

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/llopt/internal/analysis"
)

// cse collapses duplicate pure computations onto their dominating copy.
// For every block B the dominator tree is walked in depth-first
// preorder; within B itself the earlier instruction of a matching pair
// survives, and in blocks strictly dominated by B the copy in B
// survives. Duplicates are only unlinked during the scan; erasure is
// deferred until the whole function has been processed.
func (o *Optimizer) cse(fn *ir.Func) {
	if len(fn.Blocks) == 0 {
		return
	}
	dt := analysis.NewDomTree(fn)

	scheduled := make(map[ir.Instruction]bool)
	var order []ir.Instruction
	collapse := func(survivor, dup ir.Instruction) {
		analysis.ReplaceAllUses(fn, dup.(value.Value), survivor.(value.Value))
		scheduled[dup] = true
		order = append(order, dup)
	}

	for _, b := range fn.Blocks {
		dt.WalkPreorder(func(d *ir.Block) {
			if d == b {
				// Within one block, dominance is program order.
				for i := 0; i < len(b.Insts); i++ {
					for j := i + 1; j < len(b.Insts); j++ {
						survivor, dup := b.Insts[i], b.Insts[j]
						if scheduled[survivor] || scheduled[dup] {
							continue
						}
						if literalMatch(survivor, dup) {
							collapse(survivor, dup)
						}
					}
				}
				return
			}
			if !dt.DominatesBlock(b, d) {
				return
			}
			for _, survivor := range b.Insts {
				for _, dup := range d.Insts {
					if scheduled[survivor] || scheduled[dup] {
						continue
					}
					if literalMatch(survivor, dup) {
						collapse(survivor, dup)
					}
				}
			}
		})
	}

	for _, dup := range order {
		if analysis.ParentBlock(fn, dup) == nil {
			continue
		}
		if analysis.Erase(fn, dup) {
			o.stats.inc(StatElim)
		}
	}
}
