package opt

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/dshills/llopt/internal/analysis"
)

// redundantLoadElim removes loads that repeat an earlier load of the
// same pointer within one block. For each candidate L1 the scan runs
// forward until the block ends or a store is reached; a later
// non-volatile load of the same pointer and type is redirected to L1
// when no store or call sits between them. A call does not end the
// scan, but the intervening-store-or-call check fails every match past
// it.
func (o *Optimizer) redundantLoadElim(fn *ir.Func) {
	for _, block := range fn.Blocks {
		scheduled := make(map[*ir.InstLoad]bool)
		var order []*ir.InstLoad

		for i := 0; i < len(block.Insts); i++ {
			l1, ok := block.Insts[i].(*ir.InstLoad)
			if !ok || scheduled[l1] {
				continue
			}
		scan:
			for j := i + 1; j < len(block.Insts); j++ {
				switch inst := block.Insts[j].(type) {
				case *ir.InstStore:
					break scan
				case *ir.InstLoad:
					l2 := inst
					if l2.Volatile || scheduled[l2] {
						continue
					}
					if !analysis.SameValue(l2.Src, l1.Src) || !types.Equal(l2.Type(), l1.Type()) {
						continue
					}
					if !noInterveningStoreOrCall(block, i, j) {
						continue
					}
					analysis.ReplaceAllUses(fn, l2, l1)
					scheduled[l2] = true
					order = append(order, l2)
				}
			}
		}

		for _, l2 := range order {
			if analysis.ParentBlock(fn, l2) == nil {
				continue
			}
			if analysis.Erase(fn, l2) {
				o.stats.inc(StatLdElim)
			}
		}
	}
}
