// Package verify checks the structural well-formedness of a module
// after optimization. A failure here means an optimizer bug, not a user
// error.
package verify

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"github.com/dshills/llopt/internal/analysis"
)

// Verifier accumulates violations found while checking a module.
type Verifier struct {
	errs []string
}

// New creates a new verifier.
func New() *Verifier {
	return &Verifier{errs: make([]string, 0)}
}

// Module verifies m and returns an error listing every violation found.
func Module(m *ir.Module) error {
	return New().VerifyModule(m)
}

// VerifyModule checks every defined function of m.
func (v *Verifier) VerifyModule(m *ir.Module) error {
	v.errs = v.errs[:0]
	for _, fn := range m.Funcs {
		if len(fn.Blocks) == 0 {
			continue // declaration
		}
		v.verifyFunc(fn)
	}
	if len(v.errs) > 0 {
		return errors.Errorf("module verification failed:\n%s", strings.Join(v.errs, "\n"))
	}
	return nil
}

func (v *Verifier) verifyFunc(fn *ir.Func) {
	for _, block := range fn.Blocks {
		if block.Term == nil {
			v.addError("function %s: block %s has no terminator", fn.Name(), block.Name())
		}
	}
	if fn.Blocks[0].Term == nil {
		return // dominance is meaningless without a complete CFG
	}
	dt := analysis.NewDomTree(fn)

	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			if phi, ok := inst.(*ir.InstPhi); ok {
				v.verifyPhi(fn, phi)
				continue
			}
			for _, operand := range inst.Operands() {
				v.verifyUse(fn, dt, block, inst, *operand)
			}
		}
		if block.Term == nil {
			continue
		}
		for _, operand := range block.Term.Operands() {
			def, ok := (*operand).(ir.Instruction)
			if !ok {
				continue
			}
			defBlock := analysis.ParentBlock(fn, def)
			if defBlock == nil {
				v.addError("function %s: terminator of block %s uses an erased value", fn.Name(), block.Name())
				continue
			}
			if defBlock != block && !dt.DominatesBlock(defBlock, block) {
				v.addError("function %s: terminator of block %s uses a value from non-dominating block %s",
					fn.Name(), block.Name(), defBlock.Name())
			}
		}
	}
}

// verifyUse checks that an instruction operand defined by another
// instruction still exists and dominates its use site.
func (v *Verifier) verifyUse(fn *ir.Func, dt *analysis.DomTree, block *ir.Block, user ir.Instruction, operand value.Value) {
	def, ok := operand.(ir.Instruction)
	if !ok {
		return // constant, parameter, global, or block label
	}
	defBlock := analysis.ParentBlock(fn, def)
	if defBlock == nil {
		v.addError("function %s: block %s uses an erased value", fn.Name(), block.Name())
		return
	}
	if def == user {
		v.addError("function %s: block %s: instruction uses itself", fn.Name(), block.Name())
		return
	}
	if !dt.Dominates(def, user) {
		v.addError("function %s: block %s: use is not dominated by its definition in block %s",
			fn.Name(), block.Name(), defBlock.Name())
	}
}

// verifyPhi checks that each incoming value defined by an instruction
// still exists in the function. Incoming values need only dominate
// their predecessor edge, so no per-use dominance is demanded here.
func (v *Verifier) verifyPhi(fn *ir.Func, phi *ir.InstPhi) {
	for _, inc := range phi.Incs {
		def, ok := inc.X.(ir.Instruction)
		if !ok {
			continue
		}
		if analysis.ParentBlock(fn, def) == nil {
			v.addError("function %s: phi %s has an erased incoming value", fn.Name(), phi.Name())
		}
	}
}

func (v *Verifier) addError(format string, args ...interface{}) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}
