// Package mem2reg promotes stack slots to SSA values ahead of the
// optimization pipeline. Only the two phi-free cases are handled: an
// alloca written by a single store that dominates every load, and an
// alloca whose every access sits in one block. Nothing is synthesized;
// promotion only forwards stored values and erases the slot's
// instructions.
package mem2reg

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/llopt/internal/analysis"
)

// Run promotes eligible allocas in every defined function of mod.
func Run(mod *ir.Module) {
	for _, fn := range mod.Funcs {
		if len(fn.Blocks) == 0 {
			continue
		}
		promoteFunction(fn)
	}
}

func promoteFunction(fn *ir.Func) {
	var allocas []*ir.InstAlloca
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			if alloca, ok := inst.(*ir.InstAlloca); ok {
				allocas = append(allocas, alloca)
			}
		}
	}

	var dt *analysis.DomTree
	for _, alloca := range allocas {
		loads, stores, ok := slotAccesses(fn, alloca)
		if !ok || len(stores) == 0 || len(loads) == 0 {
			continue
		}
		if len(stores) == 1 {
			if dt == nil {
				dt = analysis.NewDomTree(fn)
			}
			if promoteSingleStore(fn, dt, alloca, loads, stores[0]) {
				continue
			}
		}
		promoteSingleBlock(fn, alloca, loads, stores)
	}
}

// slotAccesses collects the loads and stores through alloca. ok is
// false when the address escapes (used as anything but a load source or
// store destination) or any access is volatile.
func slotAccesses(fn *ir.Func, alloca *ir.InstAlloca) (loads []*ir.InstLoad, stores []*ir.InstStore, ok bool) {
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			uses := false
			for _, operand := range inst.Operands() {
				if *operand == value.Value(alloca) {
					uses = true
				}
			}
			if !uses {
				continue
			}
			switch user := inst.(type) {
			case *ir.InstLoad:
				if user.Volatile || user.Src != value.Value(alloca) {
					return nil, nil, false
				}
				loads = append(loads, user)
			case *ir.InstStore:
				if user.Volatile || user.Dst != value.Value(alloca) || user.Src == value.Value(alloca) {
					return nil, nil, false
				}
				stores = append(stores, user)
			default:
				return nil, nil, false
			}
		}
		if block.Term != nil {
			for _, operand := range block.Term.Operands() {
				if *operand == value.Value(alloca) {
					return nil, nil, false
				}
			}
		}
	}
	return loads, stores, true
}

// promoteSingleStore handles a slot written exactly once. Every load
// must be dominated by the store; each takes the stored value, then the
// loads, the store, and the slot are erased.
func promoteSingleStore(fn *ir.Func, dt *analysis.DomTree, alloca *ir.InstAlloca, loads []*ir.InstLoad, store *ir.InstStore) bool {
	for _, load := range loads {
		if !dt.Dominates(store, load) {
			return false
		}
	}
	for _, load := range loads {
		analysis.ReplaceAllUses(fn, load, store.Src)
		analysis.Erase(fn, load)
	}
	analysis.Erase(fn, store)
	analysis.Erase(fn, alloca)
	return true
}

// promoteSingleBlock handles a slot whose every access lies in one
// block: a forward walk forwards the most recent stored value to each
// load. Bails without rewriting if any access sits elsewhere or a load
// precedes the first store.
func promoteSingleBlock(fn *ir.Func, alloca *ir.InstAlloca, loads []*ir.InstLoad, stores []*ir.InstStore) bool {
	block := analysis.ParentBlock(fn, ir.Instruction(stores[0]))
	if block == nil {
		return false
	}
	access := make(map[ir.Instruction]bool, len(loads)+len(stores))
	for _, load := range loads {
		if analysis.ParentBlock(fn, load) != block {
			return false
		}
		access[load] = true
	}
	for _, store := range stores {
		if analysis.ParentBlock(fn, store) != block {
			return false
		}
		access[store] = true
	}

	var current value.Value
	replacement := make(map[*ir.InstLoad]value.Value, len(loads))
	for _, inst := range block.Insts {
		if !access[inst] {
			continue
		}
		switch user := inst.(type) {
		case *ir.InstStore:
			current = user.Src
		case *ir.InstLoad:
			if current == nil {
				return false
			}
			replacement[user] = current
		}
	}

	for load, val := range replacement {
		analysis.ReplaceAllUses(fn, load, val)
		analysis.Erase(fn, load)
	}
	for _, store := range stores {
		analysis.Erase(fn, store)
	}
	analysis.Erase(fn, alloca)
	return true
}
