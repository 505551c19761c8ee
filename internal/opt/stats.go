package opt

import (
	"fmt"
	"io"
)

// Stat identifies one of the optimizer's named counters.
type Stat int

// Counters, in emission order. Each one counts successful erasures of
// the corresponding kind across all driver rounds.
const (
	StatDead Stat = iota // CSEDead: dead instructions removed
	StatSimplify         // CSESimplify: instructions folded away
	StatElim             // CSEElim: common subexpressions collapsed
	StatLdElim           // CSELdElim: redundant loads removed
	StatStore2Load       // CSEStore2Load: loads forwarded from stores
	StatStElim           // CSEStElim: overwritten stores removed
	numStats
)

var statNames = [numStats]string{
	StatDead:       "CSEDead",
	StatSimplify:   "CSESimplify",
	StatElim:       "CSEElim",
	StatLdElim:     "CSELdElim",
	StatStore2Load: "CSEStore2Load",
	StatStElim:     "CSEStElim",
}

// Stats holds the optimizer's monotonic counters. A zero Stats is ready
// to use. The counters are only ever incremented, never reset.
type Stats struct {
	counts [numStats]uint64
}

func (s *Stats) inc(stat Stat) {
	s.counts[stat]++
}

// Value returns the current count for stat.
func (s *Stats) Value(stat Stat) uint64 {
	return s.counts[stat]
}

// Total returns the sum of all counters.
func (s *Stats) Total() uint64 {
	var total uint64
	for _, n := range s.counts {
		total += n
	}
	return total
}

// WriteCSV writes one "name,value" line per non-zero counter, in
// declaration order.
func (s *Stats) WriteCSV(w io.Writer) error {
	for stat, n := range s.counts {
		if n == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s,%d\n", statNames[stat], n); err != nil {
			return err
		}
	}
	return nil
}

// Each calls visit for every counter in declaration order, including
// zero counters.
func (s *Stats) Each(visit func(name string, value uint64)) {
	for stat, n := range s.counts {
		visit(statNames[stat], n)
	}
}
