package opt

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/llopt/internal/analysis"
)

// simplify rewrites instructions that fold to a constant or to one of
// their own operands. Uses are redirected to the replacement value and
// the original instruction is erased; no instruction is ever created.
func (o *Optimizer) simplify(fn *ir.Func) {
	var pending []ir.Instruction
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			if simplifyInst(inst) != nil {
				pending = append(pending, inst)
			}
		}
	}
	// The replacement is recomputed at apply time: an earlier rewrite in
	// the list may have redirected this instruction's operands away from
	// a value that is about to be erased.
	for _, inst := range pending {
		repl := simplifyInst(inst)
		if repl == nil {
			continue
		}
		analysis.ReplaceAllUses(fn, inst.(value.Value), repl)
		if analysis.Erase(fn, inst) {
			o.stats.inc(StatSimplify)
		}
	}
}

// simplifyInst returns a replacement value for inst, or nil when no
// simplification applies. Replacements are constants or pre-existing
// SSA values, never inst itself.
func simplifyInst(inst ir.Instruction) value.Value {
	switch i := inst.(type) {
	case *ir.InstAdd:
		if folded := foldIntBinary(i.X, i.Y, func(a, b int64) int64 { return a + b }); folded != nil {
			return folded
		}
		if isIntValue(i.Y, 0) {
			return i.X
		}
		if isIntValue(i.X, 0) {
			return i.Y
		}
	case *ir.InstSub:
		if folded := foldIntBinary(i.X, i.Y, func(a, b int64) int64 { return a - b }); folded != nil {
			return folded
		}
		if isIntValue(i.Y, 0) {
			return i.X
		}
		if i.X == i.Y {
			return zeroOf(i.X)
		}
	case *ir.InstMul:
		if folded := foldIntBinary(i.X, i.Y, func(a, b int64) int64 { return a * b }); folded != nil {
			return folded
		}
		if isIntValue(i.Y, 1) {
			return i.X
		}
		if isIntValue(i.X, 1) {
			return i.Y
		}
		if isIntValue(i.X, 0) || isIntValue(i.Y, 0) {
			return zeroOf(i.X)
		}
	case *ir.InstSDiv:
		if !isIntValue(i.Y, 0) {
			if folded := foldIntBinary(i.X, i.Y, func(a, b int64) int64 { return a / b }); folded != nil {
				return folded
			}
		}
		if isIntValue(i.Y, 1) {
			return i.X
		}
	case *ir.InstUDiv:
		if isIntValue(i.Y, 1) {
			return i.X
		}
	case *ir.InstAnd:
		if folded := foldIntBinary(i.X, i.Y, func(a, b int64) int64 { return a & b }); folded != nil {
			return folded
		}
		if isIntValue(i.X, 0) || isIntValue(i.Y, 0) {
			return zeroOf(i.X)
		}
		if i.X == i.Y {
			return i.X
		}
	case *ir.InstOr:
		if folded := foldIntBinary(i.X, i.Y, func(a, b int64) int64 { return a | b }); folded != nil {
			return folded
		}
		if isIntValue(i.Y, 0) {
			return i.X
		}
		if isIntValue(i.X, 0) {
			return i.Y
		}
		if i.X == i.Y {
			return i.X
		}
	case *ir.InstXor:
		if folded := foldIntBinary(i.X, i.Y, func(a, b int64) int64 { return a ^ b }); folded != nil {
			return folded
		}
		if isIntValue(i.Y, 0) {
			return i.X
		}
		if isIntValue(i.X, 0) {
			return i.Y
		}
		if i.X == i.Y {
			return zeroOf(i.X)
		}
	case *ir.InstShl:
		if isIntValue(i.Y, 0) {
			return i.X
		}
	case *ir.InstLShr:
		if isIntValue(i.Y, 0) {
			return i.X
		}
	case *ir.InstAShr:
		if isIntValue(i.Y, 0) {
			return i.X
		}
	case *ir.InstFAdd:
		return foldFloatBinary(i.X, i.Y, func(a, b float64) float64 { return a + b })
	case *ir.InstFSub:
		return foldFloatBinary(i.X, i.Y, func(a, b float64) float64 { return a - b })
	case *ir.InstFMul:
		return foldFloatBinary(i.X, i.Y, func(a, b float64) float64 { return a * b })
	case *ir.InstFDiv:
		if c, ok := i.Y.(*constant.Float); ok {
			if f, _ := c.X.Float64(); f != 0 {
				return foldFloatBinary(i.X, i.Y, func(a, b float64) float64 { return a / b })
			}
		}
	case *ir.InstICmp:
		return simplifyICmp(i)
	case *ir.InstSelect:
		if c, ok := i.Cond.(*constant.Int); ok {
			if c.X.Sign() != 0 {
				return i.ValueTrue
			}
			return i.ValueFalse
		}
	}
	return nil
}

func simplifyICmp(cmp *ir.InstICmp) value.Value {
	cx, okX := cmp.X.(*constant.Int)
	cy, okY := cmp.Y.(*constant.Int)
	if okX && okY {
		ord := cx.X.Cmp(cy.X)
		switch cmp.Pred {
		case enum.IPredEQ:
			return boolConst(ord == 0)
		case enum.IPredNE:
			return boolConst(ord != 0)
		case enum.IPredSLT:
			return boolConst(ord < 0)
		case enum.IPredSLE:
			return boolConst(ord <= 0)
		case enum.IPredSGT:
			return boolConst(ord > 0)
		case enum.IPredSGE:
			return boolConst(ord >= 0)
		}
		return nil
	}
	if cmp.X == cmp.Y {
		switch cmp.Pred {
		case enum.IPredEQ, enum.IPredSLE, enum.IPredSGE, enum.IPredULE, enum.IPredUGE:
			return boolConst(true)
		case enum.IPredNE, enum.IPredSLT, enum.IPredSGT, enum.IPredULT, enum.IPredUGT:
			return boolConst(false)
		}
	}
	return nil
}

func boolConst(b bool) *constant.Int {
	if b {
		return constant.NewInt(types.I1, 1)
	}
	return constant.NewInt(types.I1, 0)
}

// foldIntBinary folds a binary integer operation when both operands are
// integer constants of the same type.
func foldIntBinary(x, y value.Value, op func(int64, int64) int64) value.Value {
	cx, okX := x.(*constant.Int)
	cy, okY := y.(*constant.Int)
	if !okX || !okY {
		return nil
	}
	if !cx.X.IsInt64() || !cy.X.IsInt64() {
		return nil
	}
	typ := cx.Typ
	return constant.NewInt(typ, op(cx.X.Int64(), cy.X.Int64()))
}

// foldFloatBinary folds a binary floating-point operation when both
// operands are float constants.
func foldFloatBinary(x, y value.Value, op func(float64, float64) float64) value.Value {
	cx, okX := x.(*constant.Float)
	cy, okY := y.(*constant.Float)
	if !okX || !okY || cx.NaN || cy.NaN {
		return nil
	}
	typ := cx.Typ
	fx, _ := cx.X.Float64()
	fy, _ := cy.X.Float64()
	return constant.NewFloat(typ, op(fx, fy))
}

// isIntValue reports whether v is the integer constant n.
func isIntValue(v value.Value, n int64) bool {
	c, ok := v.(*constant.Int)
	return ok && c.X.IsInt64() && c.X.Int64() == n
}

// zeroOf returns the zero constant of v's integer type, or nil if v is
// not of integer type.
func zeroOf(v value.Value) value.Value {
	typ, ok := v.Type().(*types.IntType)
	if !ok {
		return nil
	}
	return constant.NewInt(typ, 0)
}
