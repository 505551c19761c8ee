package opt

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/dshills/llopt/internal/analysis"
)

// redundantStoreElim performs store-to-load forwarding and removes
// stores overwritten within their own block.
//
// For each store S1 the scan walks forward through the block. A
// non-volatile load of S1's pointer takes S1's stored value directly
// and is scheduled for erasure. A later store to the same pointer makes
// the non-volatile S1 itself redundant and ends the scan of the whole
// block; a third store to the pointer is not reconsidered until the
// next driver round. Any other side-effecting instruction ends S1's
// scan, unless a forwarding has already fired for S1.
func (o *Optimizer) redundantStoreElim(fn *ir.Func) {
	for _, block := range fn.Blocks {
		type erasure struct {
			inst ir.Instruction
			stat Stat
		}
		scheduled := make(map[ir.Instruction]bool)
		var order []erasure
		schedule := func(inst ir.Instruction, stat Stat) {
			scheduled[inst] = true
			order = append(order, erasure{inst: inst, stat: stat})
		}

	blockScan:
		for i := 0; i < len(block.Insts); i++ {
			s1, ok := block.Insts[i].(*ir.InstStore)
			if !ok || scheduled[s1] {
				continue
			}
			forwarded := false
		scan:
			for j := i + 1; j < len(block.Insts); j++ {
				switch inst := block.Insts[j].(type) {
				case *ir.InstLoad:
					if !inst.Volatile &&
						analysis.SameValue(inst.Src, s1.Dst) &&
						types.Equal(inst.Type(), s1.Src.Type()) {
						if !scheduled[inst] {
							analysis.ReplaceAllUses(fn, inst, s1.Src)
							schedule(inst, StatStore2Load)
						}
						forwarded = true
						continue
					}
					if !forwarded {
						break scan
					}
				case *ir.InstStore:
					if analysis.SameValue(inst.Dst, s1.Dst) &&
						types.Equal(inst.Src.Type(), s1.Src.Type()) &&
						!s1.Volatile {
						schedule(s1, StatStElim)
						break blockScan
					}
					if !forwarded {
						break scan
					}
				default:
					if hasSideEffects(inst) && !forwarded {
						break scan
					}
				}
			}
		}

		for _, e := range order {
			if analysis.ParentBlock(fn, e.inst) == nil {
				continue
			}
			if analysis.Erase(fn, e.inst) {
				o.stats.inc(e.stat)
			}
		}
	}
}
