package opt

import (
	"github.com/llir/llvm/ir"
	"github.com/tliron/commonlog"
)

// passRounds is the number of times the five-pass sequence runs over
// the module. Three rounds reach a practical fixed point on observed
// workloads; the cumulative statistics contract depends on this count
// staying fixed.
const passRounds = 3

var log = commonlog.GetLogger("llopt.opt")

// Optimizer rewrites a module in place. It borrows the module for the
// duration of Run and maintains the statistics counters as a side
// channel. Not safe for concurrent use.
type Optimizer struct {
	mod   *ir.Module
	stats *Stats
}

// New returns an Optimizer over mod with zeroed counters.
func New(mod *ir.Module) *Optimizer {
	return &Optimizer{
		mod:   mod,
		stats: &Stats{},
	}
}

// Stats returns the optimizer's counters. The same counters accumulate
// across every Run on this Optimizer.
func (o *Optimizer) Stats() *Stats {
	return o.stats
}

// Run executes the pass sequence {DCE, Simplify, CSE, RedundantLoad,
// RedundantStore} passRounds times over the module. Each pass completes
// over every function before the next starts. Functions without blocks
// are declarations and are skipped.
func (o *Optimizer) Run() {
	passes := []struct {
		name string
		run  func(*ir.Func)
	}{
		{name: "dce", run: o.deadCodeElim},
		{name: "simplify", run: o.simplify},
		{name: "cse", run: o.cse},
		{name: "loadelim", run: o.redundantLoadElim},
		{name: "storeelim", run: o.redundantStoreElim},
	}

	for round := 1; round <= passRounds; round++ {
		before := o.stats.Total()
		for _, pass := range passes {
			for _, fn := range o.mod.Funcs {
				if len(fn.Blocks) == 0 {
					continue
				}
				pass.run(fn)
			}
			log.Debugf("round %d: pass %s done", round, pass.name)
		}
		log.Infof("round %d: %d rewrites", round, o.stats.Total()-before)
	}
}
