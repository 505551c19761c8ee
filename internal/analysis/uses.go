// Package analysis provides the function-level IR queries the optimizer
// passes are built on: use scanning, operand rewriting, instruction
// erasure, and dominator trees. llir/llvm keeps no use lists, so all use
// information here is recovered by scanning operand slots.
package analysis

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// HasUses reports whether val appears as an operand of any instruction
// or terminator in fn.
func HasUses(fn *ir.Func, val value.Value) bool {
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			for _, operand := range inst.Operands() {
				if *operand == val {
					return true
				}
			}
		}
		if block.Term != nil {
			for _, operand := range block.Term.Operands() {
				if *operand == val {
					return true
				}
			}
		}
	}
	return false
}

// ReplaceAllUses rewrites every operand slot in fn that holds oldVal to
// hold newVal, including terminator operands.
func ReplaceAllUses(fn *ir.Func, oldVal, newVal value.Value) {
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			for _, operand := range inst.Operands() {
				if *operand == oldVal {
					*operand = newVal
				}
			}
		}
		if block.Term != nil {
			for _, operand := range block.Term.Operands() {
				if *operand == oldVal {
					*operand = newVal
				}
			}
		}
	}
}

// ParentBlock returns the block of fn that currently contains inst, or
// nil if inst has been removed.
func ParentBlock(fn *ir.Func, inst ir.Instruction) *ir.Block {
	for _, block := range fn.Blocks {
		for _, candidate := range block.Insts {
			if candidate == inst {
				return block
			}
		}
	}
	return nil
}

// Erase removes inst from its parent block in fn. It returns false if
// inst is no longer parented, so deferred-erase lists can be replayed
// safely after overlapping rewrites.
func Erase(fn *ir.Func, inst ir.Instruction) bool {
	for _, block := range fn.Blocks {
		for i, candidate := range block.Insts {
			if candidate == inst {
				block.Insts = append(block.Insts[:i], block.Insts[i+1:]...)
				return true
			}
		}
	}
	return false
}

// InstIndex returns the position of inst within block, or -1.
func InstIndex(block *ir.Block, inst ir.Instruction) int {
	for i, candidate := range block.Insts {
		if candidate == inst {
			return i
		}
	}
	return -1
}

// SameValue reports whether a and b denote the same SSA value. Named
// values compare by identity. The asm parser materializes a fresh
// constant per textual occurrence, so int, float and null constants
// compare by type and value instead, matching LLVM's by-value uniquing.
func SameValue(a, b value.Value) bool {
	if a == b {
		return true
	}
	switch ca := a.(type) {
	case *constant.Int:
		cb, ok := b.(*constant.Int)
		return ok && types.Equal(ca.Typ, cb.Typ) && ca.X.Cmp(cb.X) == 0
	case *constant.Float:
		cb, ok := b.(*constant.Float)
		if !ok || !types.Equal(ca.Typ, cb.Typ) {
			return false
		}
		if ca.NaN || cb.NaN {
			return ca.NaN == cb.NaN
		}
		return ca.X.Cmp(cb.X) == 0
	case *constant.Null:
		cb, ok := b.(*constant.Null)
		return ok && types.Equal(ca.Typ, cb.Typ)
	}
	return false
}
