// Package opt implements the local optimization pipeline: dead code
// elimination, instruction simplification, dominator-based common
// subexpression elimination, and redundant load/store elimination,
// driven for a fixed number of rounds over a module.
package opt

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/llopt/internal/analysis"
)

// pureValue reports whether inst's only observable effect is the SSA
// value it produces. Allocas count as pure here: with no remaining use
// of the address, the frame slot is unobservable. Volatile loads do
// not.
func pureValue(inst ir.Instruction) bool {
	switch v := inst.(type) {
	case *ir.InstAdd, *ir.InstFAdd, *ir.InstSub, *ir.InstFSub,
		*ir.InstMul, *ir.InstFMul, *ir.InstUDiv, *ir.InstSDiv,
		*ir.InstFDiv, *ir.InstURem, *ir.InstSRem, *ir.InstFRem:
		return true
	case *ir.InstShl, *ir.InstLShr, *ir.InstAShr,
		*ir.InstAnd, *ir.InstOr, *ir.InstXor:
		return true
	case *ir.InstExtractElement, *ir.InstInsertElement, *ir.InstShuffleVector:
		return true
	case *ir.InstExtractValue, *ir.InstInsertValue:
		return true
	case *ir.InstTrunc, *ir.InstZExt, *ir.InstSExt,
		*ir.InstFPTrunc, *ir.InstFPExt,
		*ir.InstFPToUI, *ir.InstFPToSI, *ir.InstUIToFP, *ir.InstSIToFP,
		*ir.InstPtrToInt, *ir.InstIntToPtr,
		*ir.InstBitCast, *ir.InstAddrSpaceCast:
		return true
	case *ir.InstICmp, *ir.InstFCmp, *ir.InstPhi, *ir.InstSelect:
		return true
	case *ir.InstGetElementPtr, *ir.InstAlloca:
		return true
	case *ir.InstLoad:
		return !v.Volatile
	}
	return false
}

// isDead reports whether inst may be removed from fn: it produces a
// value, that value has no uses, and removing it cannot change any
// other observable.
func isDead(fn *ir.Func, inst ir.Instruction) bool {
	if !pureValue(inst) {
		return false
	}
	val, ok := inst.(value.Value)
	if !ok {
		return false
	}
	return !analysis.HasUses(fn, val)
}

// hasSideEffects reports whether inst's effect extends beyond the value
// it produces. Loads are included: redundant-load elimination handles
// them under stricter conditions than CSE can check. Terminators are
// side-effecting as well but never appear in a block's Insts list.
func hasSideEffects(inst ir.Instruction) bool {
	switch inst.(type) {
	case *ir.InstCall, *ir.InstStore, *ir.InstAlloca, *ir.InstLoad, *ir.InstFence:
		return true
	case *ir.InstCmpXchg, *ir.InstAtomicRMW, *ir.InstVAArg,
		*ir.InstLandingPad, *ir.InstCatchPad, *ir.InstCleanupPad:
		return true
	}
	return false
}

// opcode returns the LLVM mnemonic of inst, or "" for instruction
// kinds the optimizer does not recognize.
func opcode(inst ir.Instruction) string {
	switch inst.(type) {
	case *ir.InstAdd:
		return "add"
	case *ir.InstFAdd:
		return "fadd"
	case *ir.InstSub:
		return "sub"
	case *ir.InstFSub:
		return "fsub"
	case *ir.InstMul:
		return "mul"
	case *ir.InstFMul:
		return "fmul"
	case *ir.InstUDiv:
		return "udiv"
	case *ir.InstSDiv:
		return "sdiv"
	case *ir.InstFDiv:
		return "fdiv"
	case *ir.InstURem:
		return "urem"
	case *ir.InstSRem:
		return "srem"
	case *ir.InstFRem:
		return "frem"
	case *ir.InstShl:
		return "shl"
	case *ir.InstLShr:
		return "lshr"
	case *ir.InstAShr:
		return "ashr"
	case *ir.InstAnd:
		return "and"
	case *ir.InstOr:
		return "or"
	case *ir.InstXor:
		return "xor"
	case *ir.InstExtractElement:
		return "extractelement"
	case *ir.InstInsertElement:
		return "insertelement"
	case *ir.InstShuffleVector:
		return "shufflevector"
	case *ir.InstExtractValue:
		return "extractvalue"
	case *ir.InstInsertValue:
		return "insertvalue"
	case *ir.InstAlloca:
		return "alloca"
	case *ir.InstLoad:
		return "load"
	case *ir.InstStore:
		return "store"
	case *ir.InstFence:
		return "fence"
	case *ir.InstGetElementPtr:
		return "getelementptr"
	case *ir.InstTrunc:
		return "trunc"
	case *ir.InstZExt:
		return "zext"
	case *ir.InstSExt:
		return "sext"
	case *ir.InstFPTrunc:
		return "fptrunc"
	case *ir.InstFPExt:
		return "fpext"
	case *ir.InstFPToUI:
		return "fptoui"
	case *ir.InstFPToSI:
		return "fptosi"
	case *ir.InstUIToFP:
		return "uitofp"
	case *ir.InstSIToFP:
		return "sitofp"
	case *ir.InstPtrToInt:
		return "ptrtoint"
	case *ir.InstIntToPtr:
		return "inttoptr"
	case *ir.InstBitCast:
		return "bitcast"
	case *ir.InstAddrSpaceCast:
		return "addrspacecast"
	case *ir.InstICmp:
		return "icmp"
	case *ir.InstFCmp:
		return "fcmp"
	case *ir.InstPhi:
		return "phi"
	case *ir.InstSelect:
		return "select"
	case *ir.InstCall:
		return "call"
	}
	return ""
}

// literalMatch reports whether a and b compute the same value: both
// side-effect free, same opcode, same result type, same operands in the
// same positions, and for comparisons the same predicate. Operand order
// matters even for commutative opcodes: add x, y and add y, x do not
// match.
func literalMatch(a, b ir.Instruction) bool {
	if hasSideEffects(a) || hasSideEffects(b) {
		return false
	}
	op := opcode(a)
	if op == "" || op != opcode(b) {
		return false
	}
	valA, okA := a.(value.Value)
	valB, okB := b.(value.Value)
	if !okA || !okB || !types.Equal(valA.Type(), valB.Type()) {
		return false
	}
	switch ca := a.(type) {
	case *ir.InstICmp:
		if ca.Pred != b.(*ir.InstICmp).Pred {
			return false
		}
	case *ir.InstFCmp:
		if ca.Pred != b.(*ir.InstFCmp).Pred {
			return false
		}
	case *ir.InstExtractValue:
		if !equalIndices(ca.Indices, b.(*ir.InstExtractValue).Indices) {
			return false
		}
	case *ir.InstInsertValue:
		if !equalIndices(ca.Indices, b.(*ir.InstInsertValue).Indices) {
			return false
		}
	}
	opsA := a.Operands()
	opsB := b.Operands()
	if len(opsA) != len(opsB) {
		return false
	}
	for i := range opsA {
		if !analysis.SameValue(*opsA[i], *opsB[i]) {
			return false
		}
	}
	return true
}

func equalIndices(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// noInterveningStoreOrCall reports whether the instructions of block
// strictly between positions from and to contain no store and no call.
// Fences and atomics do not terminate the window; only the two listed
// opcodes do.
func noInterveningStoreOrCall(block *ir.Block, from, to int) bool {
	for i := from + 1; i < to; i++ {
		switch block.Insts[i].(type) {
		case *ir.InstStore, *ir.InstCall:
			return false
		}
	}
	return true
}
